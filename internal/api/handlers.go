package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"belleza/internal/metrics"
	"belleza/internal/models"
	"belleza/internal/nlparse"
)

func (s *Server) handleAvailability(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	q := r.URL.Query()
	tenantID, err1 := strconv.ParseInt(q.Get("tenant_id"), 10, 64)
	stylistID, err2 := strconv.ParseInt(q.Get("stylist_id"), 10, 64)
	serviceID, err3 := strconv.ParseInt(q.Get("service_id"), 10, 64)
	if err1 != nil || err2 != nil || err3 != nil {
		writeError(w, http.StatusBadRequest, "tenant_id, stylist_id and service_id are required")
		return
	}
	date := strings.TrimSpace(q.Get("date"))
	if date == "" {
		writeError(w, http.StatusBadRequest, "date is required")
		return
	}

	slots, err := s.availability.ListAvailableSlots(r.Context(), tenantID, stylistID, serviceID, date)
	if err != nil {
		s.writeBusinessError(w, err)
		return
	}

	out := make([]string, 0, len(slots))
	for _, slot := range slots {
		out = append(out, slot.Format(time.RFC3339))
	}
	writeJSON(w, http.StatusOK, map[string]any{"date": date, "slots": out})
}

type checkRequest struct {
	TenantID  int64     `json:"tenant_id"`
	StylistID int64     `json:"stylist_id"`
	ServiceID int64     `json:"service_id"`
	StartTime time.Time `json:"start_time"`
}

func (s *Server) handleAvailabilityCheck(w http.ResponseWriter, r *http.Request) {
	var body checkRequest
	if !decodeBody(w, r, &body) {
		return
	}
	if body.StartTime.IsZero() {
		writeError(w, http.StatusBadRequest, "start_time is required")
		return
	}

	check, err := s.availability.IsSlotAvailable(r.Context(), body.TenantID, body.StylistID, body.ServiceID, body.StartTime)
	if err != nil {
		s.writeBusinessError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, check)
}

type suggestRequest struct {
	TenantID    int64     `json:"tenant_id"`
	ServiceID   int64     `json:"service_id"`
	StartTime   time.Time `json:"start_time"`
	StylistName string    `json:"stylist_name,omitempty"`
}

func (s *Server) handleSuggestStylist(w http.ResponseWriter, r *http.Request) {
	var body suggestRequest
	if !decodeBody(w, r, &body) {
		return
	}
	if body.StartTime.IsZero() {
		writeError(w, http.StatusBadRequest, "start_time is required")
		return
	}

	stylist, err := s.turn.SuggestStylist(r.Context(), body.TenantID, body.ServiceID, body.StartTime, body.StylistName)
	if err != nil {
		s.writeBusinessError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"stylist_id":   stylist.ID,
		"stylist_name": stylist.Name,
	})
}

type createAppointmentRequest struct {
	TenantID    int64     `json:"tenant_id"`
	ServiceID   int64     `json:"service_id"`
	StylistID   int64     `json:"stylist_id,omitempty"`
	StartTime   time.Time `json:"start_time"`
	ClientName  string    `json:"client_name"`
	ClientPhone string    `json:"client_phone"`
}

func (s *Server) handleCreateAppointment(w http.ResponseWriter, r *http.Request) {
	var body createAppointmentRequest
	if !decodeBody(w, r, &body) {
		return
	}
	if body.StartTime.IsZero() {
		writeError(w, http.StatusBadRequest, "start_time is required")
		return
	}
	if strings.TrimSpace(body.ClientPhone) == "" {
		writeError(w, http.StatusBadRequest, "client_phone is required")
		return
	}

	stylistID := body.StylistID
	if stylistID == 0 {
		stylist, err := s.turn.SuggestStylist(r.Context(), body.TenantID, body.ServiceID, body.StartTime, "")
		if err != nil {
			s.writeBusinessError(w, err)
			return
		}
		stylistID = stylist.ID
	}

	client := &models.Client{
		TenantID:  body.TenantID,
		FirstName: strings.TrimSpace(body.ClientName),
		Phone:     strings.TrimSpace(body.ClientPhone),
	}
	if err := s.store.GetOrCreateClient(r.Context(), client); err != nil {
		s.writeBusinessError(w, err)
		return
	}

	appt, err := s.booker.Book(r.Context(), body.TenantID, client.ID, stylistID, body.ServiceID, body.StartTime)
	if err != nil {
		s.writeBusinessError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, appt)
}

// handleAppointmentStatus serves POST /api/v1/appointments/{id}/status.
func (s *Server) handleAppointmentStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/appointments/")
	idStr, ok := strings.CutSuffix(rest, "/status")
	if !ok || strings.Contains(idStr, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid appointment id")
		return
	}

	var body struct {
		Status string `json:"status"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	appt, err := s.booker.Transition(r.Context(), id, models.Status(body.Status))
	if err != nil {
		s.writeBusinessError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

type parseRequest struct {
	TenantID int64  `json:"tenant_id"`
	Date     string `json:"date,omitempty"`
	Time     string `json:"time,omitempty"`
}

// handleParse normalizes free-text date and time phrases in the tenant's
// timezone. Low-confidence input falls back to defaults instead of failing.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	var body parseRequest
	if !decodeBody(w, r, &body) {
		return
	}

	tenant, err := s.store.GetTenant(r.Context(), body.TenantID)
	if err != nil {
		s.writeBusinessError(w, err)
		return
	}
	loc, err := time.LoadLocation(tenant.Timezone)
	if err != nil {
		s.writeBusinessError(w, err)
		return
	}

	dateRes := nlparse.ParseDate(body.Date, time.Now(), loc)
	timeRes := nlparse.ParseTime(body.Time)
	if !dateRes.Confident {
		metrics.ParseFallback("date")
	}
	if !timeRes.Confident {
		metrics.ParseFallback("time")
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"date":           dateRes.Date,
		"time":           timeRes.Time,
		"date_confident": dateRes.Confident,
		"time_confident": timeRes.Confident,
	})
}

func (s *Server) handleWeekReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	q := r.URL.Query()
	tenantID, err := strconv.ParseInt(q.Get("tenant_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "tenant_id is required")
		return
	}
	start := strings.TrimSpace(q.Get("start"))
	if start == "" {
		writeError(w, http.StatusBadRequest, "start is required")
		return
	}

	path, err := s.reporter.WeekReport(r.Context(), tenantID, start)
	if err != nil {
		s.writeBusinessError(w, err)
		return
	}

	w.Header().Set("Content-Disposition", "attachment; filename=\"agenda.xlsx\"")
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	http.ServeFile(w, r, path)
}

// decodeBody decodes a strict-JSON POST body, writing the error response on
// failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}
