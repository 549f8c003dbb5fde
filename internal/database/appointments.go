package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"belleza/internal/models"
	"belleza/internal/schedule"
)

const appointmentColumns = `id, ref, tenant_id, client_id, stylist_id, service_id,
       start_time, end_time, status, created_at, updated_at`

func scanAppointment(row interface{ Scan(...any) error }) (*models.Appointment, error) {
	var appt models.Appointment
	err := row.Scan(
		&appt.ID, &appt.Ref, &appt.TenantID, &appt.ClientID, &appt.StylistID, &appt.ServiceID,
		&appt.StartTime, &appt.EndTime, &appt.Status, &appt.CreatedAt, &appt.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan appointment: %w", err)
	}
	return &appt, nil
}

func (s *Store) GetAppointment(ctx context.Context, id int64) (*models.Appointment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+appointmentColumns+` FROM appointments WHERE id = ?`, id)
	return scanAppointment(row)
}

// ListStylistAppointments returns every appointment for the stylist whose
// interval intersects [from, to), ordered by start time. Status filtering is
// the caller's business: the overlap detector needs statuses to decide what
// blocks.
func (s *Store) ListStylistAppointments(ctx context.Context, stylistID int64, from, to time.Time) ([]*models.Appointment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+appointmentColumns+` FROM appointments
         WHERE stylist_id = ? AND start_time < ? AND end_time > ?
         ORDER BY start_time`,
		stylistID, to.UTC(), from.UTC())
	if err != nil {
		return nil, fmt.Errorf("list stylist appointments: %w", err)
	}
	defer rows.Close()

	var appts []*models.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, appt)
	}
	return appts, rows.Err()
}

// BookAppointment commits a booking with at-most-one-winner semantics. The
// per-stylist mutex serializes concurrent attempts against the same calendar;
// blocking appointments are re-read inside the critical section so a stale
// availability display can never produce a double booking. Unrelated stylists
// book concurrently.
func (s *Store) BookAppointment(ctx context.Context, appt *models.Appointment) error {
	lock := s.stylistLock(appt.StylistID)
	lock.Lock()
	defer lock.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin booking tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	rows, err := tx.QueryContext(ctx,
		`SELECT `+appointmentColumns+` FROM appointments
         WHERE stylist_id = ? AND start_time < ? AND end_time > ?`,
		appt.StylistID, appt.EndTime.UTC(), appt.StartTime.UTC())
	if err != nil {
		return fmt.Errorf("re-check availability: %w", err)
	}

	var existing []*models.Appointment
	for rows.Next() {
		row, scanErr := scanAppointment(rows)
		if scanErr != nil {
			rows.Close()
			return scanErr
		}
		existing = append(existing, row)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("re-check availability: %w", err)
	}
	rows.Close()

	if conflicts := schedule.Conflicts(appt.StartTime, appt.EndTime, existing); len(conflicts) > 0 {
		s.logger.Debug().
			Int64("stylist_id", appt.StylistID).
			Ints64("conflicts", conflicts).
			Msg("booking lost the window")
		return ErrSlotConflict
	}

	now := time.Now().UTC()
	result, err := tx.ExecContext(ctx,
		`INSERT INTO appointments (ref, tenant_id, client_id, stylist_id, service_id,
             start_time, end_time, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		appt.Ref, appt.TenantID, appt.ClientID, appt.StylistID, appt.ServiceID,
		appt.StartTime.UTC(), appt.EndTime.UTC(), appt.Status, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("appointment insert id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit booking: %w", err)
	}

	appt.ID = id
	appt.CreatedAt = now
	appt.UpdatedAt = now
	return nil
}

// TransitionAppointment updates the status guarded on the expected current
// status, so concurrent transitions cannot leapfrog the state machine.
func (s *Store) TransitionAppointment(ctx context.Context, id int64, from, to models.Status) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE appointments SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		to, time.Now().UTC(), id, from,
	)
	if err != nil {
		return fmt.Errorf("transition appointment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("transition appointment: %w", err)
	}
	if affected == 0 {
		return ErrInvalidTransition
	}
	return nil
}

// ListTenantAppointments returns the tenant's appointments intersecting
// [from, to), ordered by stylist then start time. Used by reports.
func (s *Store) ListTenantAppointments(ctx context.Context, tenantID int64, from, to time.Time) ([]*models.Appointment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+appointmentColumns+` FROM appointments
         WHERE tenant_id = ? AND start_time < ? AND end_time > ?
         ORDER BY stylist_id, start_time`,
		tenantID, to.UTC(), from.UTC())
	if err != nil {
		return nil, fmt.Errorf("list tenant appointments: %w", err)
	}
	defer rows.Close()

	var appts []*models.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, appt)
	}
	return appts, rows.Err()
}
