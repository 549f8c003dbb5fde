package models

import "time"

// Tenant is one salon. Timezone is the fixed IANA operating timezone all of
// the tenant's schedules and slot computations are expressed in.
type Tenant struct {
	ID       int64       `json:"id"`
	Name     string      `json:"name"`
	Timezone string      `json:"timezone"`
	Hours    RawSchedule `json:"hours,omitempty"`
}

// Stylist belongs to one tenant. Hours, when present, overrides the tenant
// schedule for the days it mentions; absent days inherit the tenant default.
// LastServiceAt is the fairness marker for turn assignment: nil means the
// stylist has never served and gets first turn.
type Stylist struct {
	ID            int64       `json:"id"`
	TenantID      int64       `json:"tenant_id"`
	Name          string      `json:"name"`
	Active        bool        `json:"active"`
	LastServiceAt *time.Time  `json:"last_service_at,omitempty"`
	Hours         RawSchedule `json:"hours,omitempty"`
}

// Service is a bookable salon service with a fixed duration.
type Service struct {
	ID              int64  `json:"id"`
	TenantID        int64  `json:"tenant_id"`
	Name            string `json:"name"`
	DurationMinutes int    `json:"duration_minutes"`
	Active          bool   `json:"active"`
}

// Client is the person an appointment is booked for.
type Client struct {
	ID        int64  `json:"id"`
	TenantID  int64  `json:"tenant_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}
