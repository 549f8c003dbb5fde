package service

import (
	"context"
	"fmt"
	"time"

	"belleza/internal/database"
	"belleza/internal/domain"
	"belleza/internal/events"
	"belleza/internal/metrics"
	"belleza/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// BookingService commits bookings and drives the appointment state machine.
// The availability pre-check here is a courtesy for good error messages; the
// authoritative conflict decision happens inside the store's booking
// transaction, which re-reads blocking appointments under the per-stylist
// lock.
type BookingService struct {
	store        domain.Store
	availability domain.Availability
	eventBus     domain.EventPublisher
	logger       *zerolog.Logger
}

func NewBookingService(store domain.Store, availability domain.Availability, eventBus domain.EventPublisher, logger *zerolog.Logger) *BookingService {
	return &BookingService{store: store, availability: availability, eventBus: eventBus, logger: logger}
}

// Book creates an appointment in scheduled status for
// [start, start+service.duration). Returns database.ErrSlotConflict when a
// concurrent booking wins the window and ErrOutsideWorkingHours when the
// start does not fall in the stylist's effective hours.
func (s *BookingService) Book(ctx context.Context, tenantID, clientID, stylistID, serviceID int64, start time.Time) (*models.Appointment, error) {
	svc, err := s.store.GetService(ctx, serviceID)
	if err != nil {
		return nil, err
	}

	check, err := s.availability.IsSlotAvailable(ctx, tenantID, stylistID, serviceID, start)
	if err != nil {
		return nil, err
	}
	if !check.Available && check.Reason == ReasonOutsideWorkingHours {
		metrics.Booking("outside_hours")
		return nil, ErrOutsideWorkingHours
	}
	// A conflict seen here is stale by definition; let the transaction decide.

	appt := &models.Appointment{
		Ref:       uuid.NewString(),
		TenantID:  tenantID,
		ClientID:  clientID,
		StylistID: stylistID,
		ServiceID: serviceID,
		StartTime: start,
		EndTime:   start.Add(time.Duration(svc.DurationMinutes) * time.Minute),
		Status:    models.StatusScheduled,
	}

	if err := s.store.BookAppointment(ctx, appt); err != nil {
		if err == database.ErrSlotConflict {
			metrics.Booking("conflict")
		} else {
			metrics.Booking("error")
		}
		return nil, err
	}

	metrics.Booking("created")
	s.publish(events.EventAppointmentCreated, appt, "")

	s.logger.Info().
		Int64("appointment_id", appt.ID).
		Str("ref", appt.Ref).
		Int64("stylist_id", stylistID).
		Time("start", appt.StartTime).
		Msg("appointment booked")
	return appt, nil
}

// Transition applies a status change, stamping the stylist's fairness marker
// when the client checks out or the service completes.
func (s *BookingService) Transition(ctx context.Context, appointmentID int64, to models.Status) (*models.Appointment, error) {
	if !to.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", database.ErrInvalidTransition, to)
	}

	appt, err := s.store.GetAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	from := appt.Status
	if !models.CanTransition(from, to) {
		return nil, fmt.Errorf("%w: %s -> %s", database.ErrInvalidTransition, from, to)
	}

	if err := s.store.TransitionAppointment(ctx, appointmentID, from, to); err != nil {
		return nil, err
	}
	appt.Status = to

	if to == models.StatusCheckedOut || to == models.StatusCompleted {
		if err := s.store.StampLastService(ctx, appt.StylistID, time.Now()); err != nil {
			// The transition is committed; a failed stamp only skews fairness
			// until the next checkout.
			s.logger.Error().Err(err).Int64("stylist_id", appt.StylistID).Msg("stamp last service")
		}
	}

	s.publish(events.EventAppointmentStatusChanged, appt, string(from))
	return appt, nil
}

// Cancel moves the appointment to cancelled, freeing its window.
func (s *BookingService) Cancel(ctx context.Context, appointmentID int64) (*models.Appointment, error) {
	return s.Transition(ctx, appointmentID, models.StatusCancelled)
}

// DayAgenda lists a stylist's appointments for a tenant-local date.
func (s *BookingService) DayAgenda(ctx context.Context, tenantID, stylistID int64, date string) ([]*models.Appointment, error) {
	tenant, err := s.store.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(tenant.Timezone)
	if err != nil {
		return nil, fmt.Errorf("tenant timezone %q: %w", tenant.Timezone, err)
	}
	day, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return nil, fmt.Errorf("date %q is not YYYY-MM-DD: %w", date, err)
	}
	return s.store.ListStylistAppointments(ctx, stylistID, day, day.AddDate(0, 0, 1))
}

func (s *BookingService) publish(eventType string, appt *models.Appointment, prevStatus string) {
	if s.eventBus == nil {
		return
	}
	err := s.eventBus.PublishJSON(eventType, events.AppointmentEventPayload{
		AppointmentID: appt.ID,
		Ref:           appt.Ref,
		TenantID:      appt.TenantID,
		ClientID:      appt.ClientID,
		StylistID:     appt.StylistID,
		ServiceID:     appt.ServiceID,
		StartTime:     appt.StartTime,
		EndTime:       appt.EndTime,
		Status:        string(appt.Status),
		PrevStatus:    prevStatus,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("event", eventType).Msg("publish event")
	}
}
