package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"belleza/internal/database"
	"belleza/internal/domain"
	"belleza/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testSalon struct {
	store   *database.Store
	tenant  *models.Tenant
	stylist *models.Stylist
	service *models.Service
	client  *models.Client
	loc     *time.Location
}

func newTestSalon(t *testing.T) *testSalon {
	t.Helper()
	logger := zerolog.Nop()
	store, err := database.NewStore(filepath.Join(t.TempDir(), "belleza.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()

	tenant := &models.Tenant{
		Name:     "Sala Central",
		Timezone: "America/Bogota",
		Hours: models.RawSchedule{
			"lunes":     "09:00-18:00",
			"martes":    "09:00-18:00",
			"miercoles": "09:00-18:00",
			"jueves":    "09:00-18:00",
			"viernes":   "09:00-18:00",
			"sabado":    "10:00-14:00",
			"domingo":   "cerrado",
		},
	}
	require.NoError(t, store.CreateTenant(ctx, tenant))

	stylist := &models.Stylist{TenantID: tenant.ID, Name: "Carolina", Active: true}
	require.NoError(t, store.CreateStylist(ctx, stylist))

	service := &models.Service{TenantID: tenant.ID, Name: "Corte", DurationMinutes: 60, Active: true}
	require.NoError(t, store.CreateService(ctx, service))
	require.NoError(t, store.AssignService(ctx, stylist.ID, service.ID))

	client := &models.Client{TenantID: tenant.ID, FirstName: "Ana", Phone: "+57 300 555 0101"}
	require.NoError(t, store.GetOrCreateClient(ctx, client))

	loc, err := time.LoadLocation("America/Bogota")
	require.NoError(t, err)

	return &testSalon{store: store, tenant: tenant, stylist: stylist, service: service, client: client, loc: loc}
}

func (s *testSalon) book(t *testing.T, start time.Time, minutes int) *models.Appointment {
	t.Helper()
	appt := &models.Appointment{
		Ref:       uuid.NewString(),
		TenantID:  s.tenant.ID,
		ClientID:  s.client.ID,
		StylistID: s.stylist.ID,
		ServiceID: s.service.ID,
		StartTime: start,
		EndTime:   start.Add(time.Duration(minutes) * time.Minute),
		Status:    models.StatusScheduled,
	}
	require.NoError(t, s.store.BookAppointment(context.Background(), appt))
	return appt
}

func newAvailability(s *testSalon) *AvailabilityService {
	logger := zerolog.Nop()
	return NewAvailabilityService(s.store, &logger)
}

func TestListAvailableSlotsAroundBooking(t *testing.T) {
	salon := newTestSalon(t)
	avail := newAvailability(salon)
	ctx := context.Background()

	// Monday 2025-01-06, one appointment 14:00-15:00 local time.
	salon.book(t, time.Date(2025, 1, 6, 14, 0, 0, 0, salon.loc), 60)

	slots, err := avail.ListAvailableSlots(ctx, salon.tenant.ID, salon.stylist.ID, salon.service.ID, "2025-01-06")
	require.NoError(t, err)

	byClock := map[string]bool{}
	for _, s := range slots {
		byClock[s.In(salon.loc).Format("15:04")] = true
	}

	assert.True(t, byClock["13:00"], "13:00 ends exactly at the booking start")
	assert.True(t, byClock["15:00"], "15:00 starts exactly at the booking end")
	assert.False(t, byClock["13:30"], "13:30 would run into the booking")
	assert.False(t, byClock["14:00"])
	assert.False(t, byClock["14:30"])

	// 09:00 through 17:00 at 30-minute steps, minus the three blocked starts.
	assert.Len(t, slots, 14)

	for i := 1; i < len(slots); i++ {
		assert.True(t, slots[i-1].Before(slots[i]), "slots must ascend")
	}
}

func TestListAvailableSlotsClosedDay(t *testing.T) {
	salon := newTestSalon(t)
	avail := newAvailability(salon)

	// Sunday 2025-01-05 is "cerrado".
	slots, err := avail.ListAvailableSlots(context.Background(), salon.tenant.ID, salon.stylist.ID, salon.service.ID, "2025-01-05")
	require.NoError(t, err)
	assert.Empty(t, slots, "closed day yields an empty list, not an error")
}

func TestListAvailableSlotsStylistOverride(t *testing.T) {
	salon := newTestSalon(t)
	ctx := context.Background()

	short := &models.Stylist{
		TenantID: salon.tenant.ID,
		Name:     "Luisa",
		Active:   true,
		Hours:    models.RawSchedule{"lunes": "12:00-15:00"},
	}
	require.NoError(t, salon.store.CreateStylist(ctx, short))
	require.NoError(t, salon.store.AssignService(ctx, short.ID, salon.service.ID))

	avail := newAvailability(salon)
	slots, err := avail.ListAvailableSlots(ctx, salon.tenant.ID, short.ID, salon.service.ID, "2025-01-06")
	require.NoError(t, err)

	// Effective window is 12:00-15:00: starts 12:00, 12:30, 13:00, 13:30, 14:00.
	require.Len(t, slots, 5)
	assert.Equal(t, "12:00", slots[0].In(salon.loc).Format("15:04"))
	assert.Equal(t, "14:00", slots[4].In(salon.loc).Format("15:04"))

	// Tuesday has no override, so the stylist inherits the tenant's full day.
	slots, err = avail.ListAvailableSlots(ctx, salon.tenant.ID, short.ID, salon.service.ID, "2025-01-07")
	require.NoError(t, err)
	assert.Len(t, slots, 17)
}

func TestIsSlotAvailable(t *testing.T) {
	salon := newTestSalon(t)
	avail := newAvailability(salon)
	ctx := context.Background()

	salon.book(t, time.Date(2025, 1, 6, 14, 0, 0, 0, salon.loc), 60)

	tests := []struct {
		name      string
		start     time.Time
		available bool
		reason    string
	}{
		{"open slot", time.Date(2025, 1, 6, 10, 0, 0, 0, salon.loc), true, ""},
		{"opening boundary inclusive", time.Date(2025, 1, 6, 9, 0, 0, 0, salon.loc), true, ""},
		{"ends exactly at close", time.Date(2025, 1, 6, 17, 0, 0, 0, salon.loc), true, ""},
		{"runs past close", time.Date(2025, 1, 6, 17, 30, 0, 0, salon.loc), false, ReasonOutsideWorkingHours},
		{"before opening", time.Date(2025, 1, 6, 8, 0, 0, 0, salon.loc), false, ReasonOutsideWorkingHours},
		{"closed day", time.Date(2025, 1, 5, 10, 0, 0, 0, salon.loc), false, ReasonOutsideWorkingHours},
		{"conflicting slot", time.Date(2025, 1, 6, 14, 30, 0, 0, salon.loc), false, ReasonConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check, err := avail.IsSlotAvailable(ctx, salon.tenant.ID, salon.stylist.ID, salon.service.ID, tt.start)
			require.NoError(t, err)
			assert.Equal(t, tt.available, check.Available)
			assert.Equal(t, tt.reason, check.Reason)
			if tt.reason == ReasonConflict {
				assert.NotEmpty(t, check.Conflicts)
			}
		})
	}
}

var _ domain.Availability = (*AvailabilityService)(nil)
var _ domain.Store = (*database.Store)(nil)
