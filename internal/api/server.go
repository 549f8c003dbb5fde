package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"belleza/internal/config"
	"belleza/internal/database"
	"belleza/internal/domain"
	"belleza/internal/export"
	"belleza/internal/metrics"
	"belleza/internal/service"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Server exposes the scheduling engine over HTTP.
type Server struct {
	cfg          config.APIConfig
	store        domain.Store
	availability domain.Availability
	turn         domain.TurnPicker
	booker       domain.Booker
	reporter     *export.Reporter
	auth         *Auth
	logger       zerolog.Logger
	server       *http.Server
}

func NewServer(
	cfg config.APIConfig,
	store domain.Store,
	availability domain.Availability,
	turn domain.TurnPicker,
	booker domain.Booker,
	reporter *export.Reporter,
	logger zerolog.Logger,
) *Server {
	srv := &Server{
		cfg:          cfg,
		store:        store,
		availability: availability,
		turn:         turn,
		booker:       booker,
		reporter:     reporter,
		auth:         NewAuth(cfg),
		logger:       logger,
	}

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
	return srv
}

// Handler builds the full middleware-wrapped route tree. Exposed separately
// so tests can drive it through httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/availability", s.handleAvailability)
	mux.HandleFunc("/api/v1/availability/check", s.handleAvailabilityCheck)
	mux.HandleFunc("/api/v1/stylists/suggest", s.handleSuggestStylist)
	mux.HandleFunc("/api/v1/appointments", s.handleCreateAppointment)
	mux.HandleFunc("/api/v1/appointments/", s.handleAppointmentStatus)
	mux.HandleFunc("/api/v1/parse", s.handleParse)
	mux.HandleFunc("/api/v1/reports/week", s.handleWeekReport)

	protected := s.auth.Wrap(mux)

	outer := http.NewServeMux()
	outer.Handle("/api/", protected)
	outer.HandleFunc("/healthz", s.handleHealth)
	if s.cfg.Metrics.Enabled {
		outer.Handle("/metrics", promhttp.Handler())
	}

	return s.loggingMiddleware(outer)
}

func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("http api listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		metrics.IncHTTP(r.URL.Path)
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// writeBusinessError maps sentinel errors from the storage and service layers
// to HTTP statuses; anything unrecognized is a 500.
func (s *Server) writeBusinessError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound), errors.Is(err, service.ErrStylistNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, database.ErrSlotConflict),
		errors.Is(err, database.ErrInvalidTransition),
		errors.Is(err, service.ErrNoStylistAvailable),
		errors.Is(err, service.ErrOutsideWorkingHours):
		writeError(w, http.StatusConflict, err.Error())
	default:
		s.logger.Error().Err(err).Msg("internal error")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
