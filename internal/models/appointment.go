package models

import "time"

// Appointment occupies a stylist's calendar for the half-open interval
// [StartTime, EndTime). EndTime is always StartTime plus the service duration.
type Appointment struct {
	ID        int64     `json:"id"`
	Ref       string    `json:"ref"`
	TenantID  int64     `json:"tenant_id"`
	ClientID  int64     `json:"client_id"`
	StylistID int64     `json:"stylist_id"`
	ServiceID int64     `json:"service_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Overlaps reports whether the appointment interval intersects [start, end).
func (a *Appointment) Overlaps(start, end time.Time) bool {
	return a.StartTime.Before(end) && start.Before(a.EndTime)
}
