package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"stayhub/internal/config"
	"stayhub/internal/database"
	"stayhub/internal/export"
	"stayhub/internal/metrics"
	"stayhub/internal/service"
	"stayhub/internal/stay"

	"github.com/rs/zerolog"
)

// Services bundles everything the HTTP surface depends on.
type Services struct {
	Availability  *service.AvailabilityService
	Reservations  *service.ReservationService
	RoomTypes     *service.RoomTypeService
	Notifications *service.NotificationService
	Reports       *service.ReportService
	Exporter      *export.ExcelExporter
}

// HTTPServer exposes the booking API.
type HTTPServer struct {
	cfg    config.APIConfig
	svc    Services
	server *http.Server
	auth   *HTTPAuth
	logger *zerolog.Logger
}

func NewHTTPServer(cfg config.APIConfig, svc Services, logger *zerolog.Logger) *HTTPServer {
	mux := http.NewServeMux()
	srv := &HTTPServer{cfg: cfg, svc: svc, logger: logger}
	srv.auth = NewHTTPAuth(cfg)

	mux.HandleFunc("/api/v1/availability/check", srv.handleAvailabilityCheck)
	mux.HandleFunc("/api/v1/availability/", srv.handleAvailabilityRange)
	mux.HandleFunc("/api/v1/reservations", srv.handleCreateReservation)
	mux.HandleFunc("/api/v1/reservations/", srv.handleReservationAction)
	mux.HandleFunc("/api/v1/bookings", srv.handleListBookings)
	mux.HandleFunc("/api/v1/bookings/", srv.handleBookingAction)
	mux.HandleFunc("/api/v1/room-types", srv.handleRoomTypes)
	mux.HandleFunc("/api/v1/room-types/", srv.handleRoomTypeAction)
	mux.HandleFunc("/api/v1/reports/occupancy", srv.handleOccupancyReport)
	mux.HandleFunc("/api/v1/notifications", srv.handleNotifications)
	mux.HandleFunc("/api/v1/notifications/", srv.handleNotificationAction)

	handler := srv.loggingMiddleware(srv.auth.Wrap(mux))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

// Handler returns the full middleware chain, used by tests.
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

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		metrics.IncHTTP(endpointLabel(r.URL.Path))
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

// endpointLabel collapses dynamic path segments so the metric cardinality
// stays bounded.
func endpointLabel(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i, p := range parts {
		if _, err := strconv.ParseInt(p, 10, 64); err == nil {
			parts[i] = ":id"
		}
	}
	return "/" + strings.Join(parts, "/")
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// writeServiceError maps domain errors to HTTP statuses. Conflict-shaped
// errors carry structured detail so callers can act on the exact dates or
// items involved.
func (s *HTTPServer) writeServiceError(w http.ResponseWriter, err error) {
	var unavailable *database.UnavailableError
	var capacity *database.CapacityConflictError
	var partialRelease *database.PartialReleaseError
	var partialCancel *service.PartialCancelError

	switch {
	case errors.As(err, &unavailable):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":             "rooms unavailable",
			"room_type_id":      unavailable.RoomTypeID,
			"unavailable_dates": formatDates(unavailable.Dates),
		})
	case errors.As(err, &capacity):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":            "capacity below confirmed usage",
			"room_type_id":     capacity.RoomTypeID,
			"requested":        capacity.Requested,
			"max_rooms_needed": capacity.MaxRoomsNeeded,
		})
	case errors.As(err, &partialRelease):
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":         "release applied partially",
			"room_type_id":  partialRelease.RoomTypeID,
			"applied_dates": formatDates(partialRelease.Applied),
			"failed_dates":  formatDates(partialRelease.Failed),
		})
	case errors.As(err, &partialCancel):
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":      "cancellation applied partially",
			"booking_id": partialCancel.BookingID,
			"cancelled":  partialCancel.Cancelled,
			"failed":     partialCancel.Failed,
		})
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, database.ErrAlreadyCancelled),
		errors.Is(err, database.ErrRoomTypeInUse),
		errors.Is(err, service.ErrBookingNotOpen),
		errors.Is(err, service.ErrNothingToCancel):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrNotAllowed):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrInvalidRooms),
		errors.Is(err, service.ErrPastDate),
		errors.Is(err, service.ErrDateTooFar),
		errors.Is(err, service.ErrStayTooLong),
		errors.Is(err, stay.ErrInvalidRange):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error().Err(err).Msg("internal error")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func formatDates(dates []time.Time) []string {
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, d.Format("2006-01-02"))
	}
	return out
}

func parseDate(raw string) (time.Time, error) {
	return time.Parse("2006-01-02", strings.TrimSpace(raw))
}

// pathID extracts the numeric id segment after prefix, optionally followed by
// one action segment: /prefix/{id} or /prefix/{id}/{action}.
func pathID(path, prefix string) (int64, string, error) {
	rest := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if rest == "" {
		return 0, "", fmt.Errorf("id is required")
	}
	parts := strings.SplitN(rest, "/", 2)
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, "", fmt.Errorf("invalid id %q", parts[0])
	}
	action := ""
	if len(parts) == 2 {
		action = parts[1]
	}
	return id, action, nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
