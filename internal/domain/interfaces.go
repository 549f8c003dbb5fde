package domain

import (
	"context"
	"time"

	"belleza/internal/models"
)

// Store is the persistence surface the scheduling engine depends on.
type Store interface {
	GetTenant(ctx context.Context, id int64) (*models.Tenant, error)
	GetStylist(ctx context.Context, id int64) (*models.Stylist, error)
	// ListQualifiedStylists returns active stylists associated with the
	// service, ordered by id.
	ListQualifiedStylists(ctx context.Context, tenantID, serviceID int64) ([]*models.Stylist, error)
	GetService(ctx context.Context, id int64) (*models.Service, error)
	ListActiveServices(ctx context.Context, tenantID int64) ([]*models.Service, error)
	GetOrCreateClient(ctx context.Context, client *models.Client) error

	// ListStylistAppointments returns every appointment for the stylist whose
	// interval intersects [from, to), any status, ordered by start time.
	ListStylistAppointments(ctx context.Context, stylistID int64, from, to time.Time) ([]*models.Appointment, error)
	GetAppointment(ctx context.Context, id int64) (*models.Appointment, error)
	// BookAppointment re-validates the window against blocking appointments
	// and inserts atomically, serialized per stylist. Returns ErrSlotConflict
	// when a concurrent or earlier booking won the window.
	BookAppointment(ctx context.Context, appt *models.Appointment) error
	// TransitionAppointment applies a status change guarded on the expected
	// current status.
	TransitionAppointment(ctx context.Context, id int64, from, to models.Status) error
	// StampLastService records the stylist's fairness marker at checkout or
	// completion of a service.
	StampLastService(ctx context.Context, stylistID int64, at time.Time) error
}

// EventPublisher publishes domain events for external delivery.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// SessionRepository stores per-chat conversational state with TTL eviction.
type SessionRepository interface {
	GetSession(ctx context.Context, chatID int64) (*models.Session, error)
	SetSession(ctx context.Context, session *models.Session) error
	ClearSession(ctx context.Context, chatID int64) error
	CheckRateLimit(ctx context.Context, chatID int64, limit int, window time.Duration) (bool, error)
}

// SlotCheck is the outcome of validating a single proposed slot.
type SlotCheck struct {
	Available bool    `json:"available"`
	Reason    string  `json:"reason,omitempty"`
	Conflicts []int64 `json:"conflicts,omitempty"`
}

// Availability computes open slots and validates proposed ones.
type Availability interface {
	ListAvailableSlots(ctx context.Context, tenantID, stylistID, serviceID int64, date string) ([]time.Time, error)
	IsSlotAvailable(ctx context.Context, tenantID, stylistID, serviceID int64, start time.Time) (*SlotCheck, error)
}

// TurnPicker selects the next stylist to serve.
type TurnPicker interface {
	SuggestStylist(ctx context.Context, tenantID, serviceID int64, start time.Time, requestedName string) (*models.Stylist, error)
}

// Booker commits bookings and drives the appointment state machine.
type Booker interface {
	Book(ctx context.Context, tenantID, clientID, stylistID, serviceID int64, start time.Time) (*models.Appointment, error)
	Transition(ctx context.Context, appointmentID int64, to models.Status) (*models.Appointment, error)
	Cancel(ctx context.Context, appointmentID int64) (*models.Appointment, error)
	DayAgenda(ctx context.Context, tenantID, stylistID int64, date string) ([]*models.Appointment, error)
}
