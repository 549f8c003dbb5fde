package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"belleza/internal/config"
	"belleza/internal/database"
	"belleza/internal/models"
	"belleza/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiFixture struct {
	store   *database.Store
	tenant  *models.Tenant
	stylist *models.Stylist
	service *models.Service
	loc     *time.Location
	handler http.Handler
}

func newAPIFixture(t *testing.T, cfg config.APIConfig) *apiFixture {
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
			"lunes": "09:00-18:00", "martes": "09:00-18:00", "miercoles": "09:00-18:00",
			"jueves": "09:00-18:00", "viernes": "09:00-18:00",
			"sabado": "10:00-14:00", "domingo": "cerrado",
		},
	}
	require.NoError(t, store.CreateTenant(ctx, tenant))
	stylist := &models.Stylist{TenantID: tenant.ID, Name: "Carolina", Active: true}
	require.NoError(t, store.CreateStylist(ctx, stylist))
	svc := &models.Service{TenantID: tenant.ID, Name: "Corte", DurationMinutes: 60, Active: true}
	require.NoError(t, store.CreateService(ctx, svc))
	require.NoError(t, store.AssignService(ctx, stylist.ID, svc.ID))

	availability := service.NewAvailabilityService(store, &logger)
	turn := service.NewTurnService(store, availability, &logger)
	booker := service.NewBookingService(store, availability, nil, &logger)

	server := NewServer(cfg, store, availability, turn, booker, nil, logger)

	loc, err := time.LoadLocation("America/Bogota")
	require.NoError(t, err)

	return &apiFixture{
		store:   store,
		tenant:  tenant,
		stylist: stylist,
		service: svc,
		loc:     loc,
		handler: server.Handler(),
	}
}

func (f *apiFixture) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestAuthRequired(t *testing.T) {
	cfg := config.APIConfig{
		Auth: config.APIAuthConfig{
			Enabled: true,
			Header:  "x-api-key",
			APIKeys: []config.APIClientKey{{Key: "secret", Name: "frontend"}},
		},
	}
	f := newAPIFixture(t, cfg)

	path := fmt.Sprintf("/api/v1/availability?tenant_id=%d&stylist_id=%d&service_id=%d&date=2025-01-06",
		f.tenant.ID, f.stylist.ID, f.service.ID)

	rec := f.do(t, http.MethodGet, path, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodGet, path, nil, map[string]string{"x-api-key": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodGet, path, nil, map[string]string{"x-api-key": "secret"})
	assert.Equal(t, http.StatusOK, rec.Code)

	// Health stays open without a key.
	rec = f.do(t, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit(t *testing.T) {
	cfg := config.APIConfig{RateLimit: config.APIRateLimitConfig{RPS: 1, Burst: 2}}
	f := newAPIFixture(t, cfg)

	path := fmt.Sprintf("/api/v1/availability?tenant_id=%d&stylist_id=%d&service_id=%d&date=2025-01-06",
		f.tenant.ID, f.stylist.ID, f.service.ID)

	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, path, nil, nil).Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, path, nil, nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, f.do(t, http.MethodGet, path, nil, nil).Code)
}

func TestAvailabilityEndpoint(t *testing.T) {
	f := newAPIFixture(t, config.APIConfig{})

	path := fmt.Sprintf("/api/v1/availability?tenant_id=%d&stylist_id=%d&service_id=%d&date=2025-01-06",
		f.tenant.ID, f.stylist.ID, f.service.ID)
	rec := f.do(t, http.MethodGet, path, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Date  string   `json:"date"`
		Slots []string `json:"slots"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "2025-01-06", resp.Date)
	assert.Len(t, resp.Slots, 17, "09:00 through 17:00 every 30 minutes")

	rec = f.do(t, http.MethodGet, "/api/v1/availability?tenant_id=1&service_id=1&date=2025-01-06", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAvailabilityCheckEndpoint(t *testing.T) {
	f := newAPIFixture(t, config.APIConfig{})

	rec := f.do(t, http.MethodPost, "/api/v1/availability/check", checkRequest{
		TenantID:  f.tenant.ID,
		StylistID: f.stylist.ID,
		ServiceID: f.service.ID,
		StartTime: time.Date(2025, 1, 5, 10, 0, 0, 0, f.loc),
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var check struct {
		Available bool   `json:"available"`
		Reason    string `json:"reason"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &check))
	assert.False(t, check.Available)
	assert.Equal(t, "outside_working_hours", check.Reason)
}

func TestAppointmentLifecycle(t *testing.T) {
	f := newAPIFixture(t, config.APIConfig{})
	start := time.Date(2025, 1, 6, 10, 0, 0, 0, f.loc)

	// Book without naming a stylist; turn assignment picks one.
	rec := f.do(t, http.MethodPost, "/api/v1/appointments", createAppointmentRequest{
		TenantID:    f.tenant.ID,
		ServiceID:   f.service.ID,
		StartTime:   start,
		ClientName:  "Ana",
		ClientPhone: "+57 300 555 0101",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var appt models.Appointment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &appt))
	assert.Equal(t, f.stylist.ID, appt.StylistID)
	assert.Equal(t, models.StatusScheduled, appt.Status)

	// The same window again is a conflict.
	rec = f.do(t, http.MethodPost, "/api/v1/appointments", createAppointmentRequest{
		TenantID:    f.tenant.ID,
		ServiceID:   f.service.ID,
		StylistID:   f.stylist.ID,
		StartTime:   start.Add(30 * time.Minute),
		ClientName:  "Luz",
		ClientPhone: "+57 300 555 0102",
	}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Walk the state machine.
	statusPath := fmt.Sprintf("/api/v1/appointments/%d/status", appt.ID)
	rec = f.do(t, http.MethodPost, statusPath, map[string]string{"status": "checked_in"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPost, statusPath, map[string]string{"status": "completed"}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code, "checked_in must pass through checked_out")

	rec = f.do(t, http.MethodPost, statusPath, map[string]string{"status": "checked_out"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/appointments/99999/status", map[string]string{"status": "cancelled"}, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSuggestEndpoint(t *testing.T) {
	f := newAPIFixture(t, config.APIConfig{})
	start := time.Date(2025, 1, 6, 10, 0, 0, 0, f.loc)

	rec := f.do(t, http.MethodPost, "/api/v1/stylists/suggest", suggestRequest{
		TenantID:  f.tenant.ID,
		ServiceID: f.service.ID,
		StartTime: start,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		StylistID   int64  `json:"stylist_id"`
		StylistName string `json:"stylist_name"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, f.stylist.ID, resp.StylistID)
	assert.Equal(t, "Carolina", resp.StylistName)

	rec = f.do(t, http.MethodPost, "/api/v1/stylists/suggest", suggestRequest{
		TenantID:    f.tenant.ID,
		ServiceID:   f.service.ID,
		StartTime:   start,
		StylistName: "valentina",
	}, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestParseEndpoint(t *testing.T) {
	f := newAPIFixture(t, config.APIConfig{})

	rec := f.do(t, http.MethodPost, "/api/v1/parse", parseRequest{
		TenantID: f.tenant.ID,
		Date:     "mañana",
		Time:     "3pm",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Date          string `json:"date"`
		Time          string `json:"time"`
		DateConfident bool   `json:"date_confident"`
		TimeConfident bool   `json:"time_confident"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	tomorrow := time.Now().In(f.loc).AddDate(0, 0, 1).Format("2006-01-02")
	assert.Equal(t, tomorrow, resp.Date)
	assert.Equal(t, "15:00", resp.Time)
	assert.True(t, resp.DateConfident)
	assert.True(t, resp.TimeConfident)

	// Garbage falls back to defaults rather than erroring.
	rec = f.do(t, http.MethodPost, "/api/v1/parse", parseRequest{TenantID: f.tenant.ID, Date: "qué?", Time: "??"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.DateConfident)
	assert.False(t, resp.TimeConfident)
	assert.Equal(t, "10:00", resp.Time)
}
