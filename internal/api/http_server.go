package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"bistrobytes/internal/config"
	"bistrobytes/internal/domain"
	"bistrobytes/internal/metrics"
	"bistrobytes/internal/models"
	"bistrobytes/internal/service"
	"bistrobytes/internal/wizard"
	"bistrobytes/internal/zoom"

	"github.com/rs/zerolog"
)

// LeadAdmin is the slice of the lead store the admin endpoints need.
type LeadAdmin interface {
	domain.LeadStore
	ExportLeads(ctx context.Context, w io.Writer) error
}

// HTTPServer exposes the public booking API plus the admin surface.
type HTTPServer struct {
	cfg          *config.Config
	availability *service.AvailabilityService
	booker       domain.Booker
	wizard       *wizard.Machine
	leads        LeadAdmin
	zoomClient   *zoom.Client
	server       *http.Server
	auth         *AdminAuth
	logger       zerolog.Logger
}

func NewHTTPServer(cfg *config.Config, availability *service.AvailabilityService, booker domain.Booker, machine *wizard.Machine, leads LeadAdmin, zoomClient *zoom.Client, logger *zerolog.Logger) *HTTPServer {
	mux := http.NewServeMux()
	srv := &HTTPServer{
		cfg:          cfg,
		availability: availability,
		booker:       booker,
		wizard:       machine,
		leads:        leads,
		zoomClient:   zoomClient,
		logger:       logger.With().Str("component", "http").Logger(),
	}
	srv.auth = NewAdminAuth(cfg.Admin)

	mux.HandleFunc("/availability", srv.handleAvailability)
	mux.HandleFunc("/appointments", srv.handleAppointments)
	mux.HandleFunc("/auth/zoho", srv.handleZohoAuth)
	mux.HandleFunc("/auth/zoom", srv.handleZoomAuth)
	mux.HandleFunc("/zoom/meetings/list", srv.handleZoomMeetingsList)
	mux.HandleFunc("/zoom/meetings", srv.handleZoomMeetings)
	mux.HandleFunc("/wizard", srv.handleWizardStart)
	mux.HandleFunc("/wizard/", srv.handleWizardSession)
	mux.HandleFunc("/admin/leads", srv.auth.Wrap(srv.handleAdminLeads))
	mux.HandleFunc("/admin/leads/export", srv.auth.Wrap(srv.handleAdminLeadsExport))
	mux.HandleFunc("/healthz", srv.handleHealthz)

	handler := srv.loggingMiddleware(corsMiddleware(mux))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	return srv
}

// Handler returns the fully wrapped handler, for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleAvailability(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("availability")

	dateStr := strings.TrimSpace(r.URL.Query().Get("date"))
	if dateStr == "" {
		writeError(w, http.StatusBadRequest, "Date parameter is required (YYYY-MM-DD format)")
		return
	}

	resp, err := s.availability.ForDate(r.Context(), dateStr)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			writeError(w, http.StatusBadRequest, "Invalid date format. Use YYYY-MM-DD")
			return
		}
		writeFailure(w, http.StatusInternalServerError, service.ErrFetchEvents.Error())
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *HTTPServer) handleAppointments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("appointments")

	var req models.AppointmentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := s.booker.Book(r.Context(), req)
	if err != nil {
		s.writeBookingError(w, err)
		return
	}

	resp := map[string]any{
		"success": true,
		"message": "Appointment scheduled successfully",
		"eventId": result.EventID,
	}
	if result.ZoomMeetingID != "" {
		resp["zoomMeetingId"] = result.ZoomMeetingID
		resp["zoomJoinUrl"] = result.ZoomJoinURL
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *HTTPServer) writeBookingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, validationMessage(err))
	case errors.Is(err, service.ErrCreateMeeting):
		writeFailure(w, http.StatusInternalServerError, service.ErrCreateMeeting.Error())
	case errors.Is(err, service.ErrCreateEvent):
		writeFailure(w, http.StatusInternalServerError, service.ErrCreateEvent.Error())
	default:
		writeFailure(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// writeFailure is the 500 shape: success flag plus a short generic message.
func writeFailure(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]any{"success": false, "error": message})
}

// validationMessage strips the sentinel prefix, leaving the caller-facing
// detail.
func validationMessage(err error) string {
	msg := err.Error()
	if idx := strings.Index(msg, ": "); idx >= 0 {
		return msg[idx+2:]
	}
	return msg
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-API-Key")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
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
