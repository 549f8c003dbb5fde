package service

import (
	"context"
	"fmt"
	"time"

	"belleza/internal/domain"
	"belleza/internal/metrics"
	"belleza/internal/models"
	"belleza/internal/schedule"

	"github.com/rs/zerolog"
)

// weekdayKeys maps time.Weekday onto canonical schedule keys.
var weekdayKeys = map[time.Weekday]models.Weekday{
	time.Monday:    models.Monday,
	time.Tuesday:   models.Tuesday,
	time.Wednesday: models.Wednesday,
	time.Thursday:  models.Thursday,
	time.Friday:    models.Friday,
	time.Saturday:  models.Saturday,
	time.Sunday:    models.Sunday,
}

// AvailabilityService computes open slots and validates proposed ones by
// composing the schedule resolver, range intersector, slot generator and
// overlap detector over the store. All operations are read-only and safe to
// run concurrently.
type AvailabilityService struct {
	store  domain.Store
	logger *zerolog.Logger
}

func NewAvailabilityService(store domain.Store, logger *zerolog.Logger) *AvailabilityService {
	return &AvailabilityService{store: store, logger: logger}
}

// dayContext bundles everything slot arithmetic needs for one stylist-date.
type dayContext struct {
	loc      *time.Location
	dayStart time.Time
	window   []models.TimeRange
	duration int
}

func (s *AvailabilityService) resolveDay(ctx context.Context, tenantID, stylistID, serviceID int64, date string) (*dayContext, error) {
	tenant, err := s.store.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	stylist, err := s.store.GetStylist(ctx, stylistID)
	if err != nil {
		return nil, err
	}
	if stylist.TenantID != tenant.ID {
		return nil, fmt.Errorf("stylist %d does not belong to tenant %d", stylistID, tenantID)
	}
	svc, err := s.store.GetService(ctx, serviceID)
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

	tenantSched, err := schedule.Resolve(tenant.Hours)
	if err != nil {
		return nil, err
	}
	var override models.WeeklySchedule
	if stylist.Hours != nil {
		if override, err = schedule.ResolveOverride(stylist.Hours); err != nil {
			return nil, err
		}
	}

	weekday := weekdayKeys[day.Weekday()]
	return &dayContext{
		loc:      loc,
		dayStart: day,
		window:   schedule.EffectiveWindow(tenantSched, override, weekday),
		duration: svc.DurationMinutes,
	}, nil
}

// slotTime converts a minute-of-day offset into a wall-clock instant on the
// context's date. Built from calendar components, not duration addition, so
// slots stay on the advertised local clock across DST shifts.
func (d *dayContext) slotTime(minute int) time.Time {
	return time.Date(
		d.dayStart.Year(), d.dayStart.Month(), d.dayStart.Day(),
		minute/60, minute%60, 0, 0, d.loc,
	)
}

// ListAvailableSlots returns the ascending open start instants for the
// (tenant, stylist, date, service) tuple. An empty result is a valid answer:
// the stylist does not work that day or is fully booked.
func (s *AvailabilityService) ListAvailableSlots(ctx context.Context, tenantID, stylistID, serviceID int64, date string) ([]time.Time, error) {
	timer := metrics.StartAvailabilityTimer()
	defer timer.ObserveDuration()

	day, err := s.resolveDay(ctx, tenantID, stylistID, serviceID, date)
	if err != nil {
		return nil, err
	}
	if len(day.window) == 0 {
		return nil, nil
	}

	appts, err := s.store.ListStylistAppointments(ctx, stylistID, day.dayStart, day.dayStart.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}

	var open []time.Time
	for minute := range schedule.Candidates(day.window, day.duration) {
		start := day.slotTime(minute)
		end := start.Add(time.Duration(day.duration) * time.Minute)
		if len(schedule.Conflicts(start, end, appts)) == 0 {
			open = append(open, start)
		}
	}

	metrics.SlotQuery(len(open))
	s.logger.Debug().
		Int64("tenant_id", tenantID).
		Int64("stylist_id", stylistID).
		Str("date", date).
		Int("slots", len(open)).
		Msg("availability computed")
	return open, nil
}

// IsSlotAvailable validates a single proposed start. The start boundary is
// inclusive against the effective window, the end must fit before close, and
// no blocking appointment may overlap [start, start+duration).
func (s *AvailabilityService) IsSlotAvailable(ctx context.Context, tenantID, stylistID, serviceID int64, start time.Time) (*domain.SlotCheck, error) {
	tenant, err := s.store.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(tenant.Timezone)
	if err != nil {
		return nil, fmt.Errorf("tenant timezone %q: %w", tenant.Timezone, err)
	}

	local := start.In(loc)
	day, err := s.resolveDay(ctx, tenantID, stylistID, serviceID, local.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}

	minute := local.Hour()*60 + local.Minute()
	if !schedule.Contains(day.window, minute, day.duration) {
		return &domain.SlotCheck{Available: false, Reason: ReasonOutsideWorkingHours}, nil
	}

	appts, err := s.store.ListStylistAppointments(ctx, stylistID, day.dayStart, day.dayStart.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}

	end := start.Add(time.Duration(day.duration) * time.Minute)
	if conflicts := schedule.Conflicts(start, end, appts); len(conflicts) > 0 {
		return &domain.SlotCheck{Available: false, Reason: ReasonConflict, Conflicts: conflicts}, nil
	}
	return &domain.SlotCheck{Available: true}, nil
}
