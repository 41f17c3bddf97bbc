package availability

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/aesthetics-booking/pkg/logging"
)

// Handler serves the public availability endpoints.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates an availability HTTP handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Routes mounts under /api/bookings/availability.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/team", h.GetDay)
	r.Get("/team/range", h.GetRange)
	return r
}

// GetRange returns availability for a team member over a date range.
// GET /api/bookings/availability/team/range
func (h *Handler) GetRange(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	duration, ok := parseDuration(w, q.Get("service_duration_minutes"))
	if !ok {
		return
	}
	query := RangeQuery{
		TeamMemberID:    strings.TrimSpace(q.Get("team_member_id")),
		StartDate:       strings.TrimSpace(q.Get("start_date")),
		EndDate:         strings.TrimSpace(q.Get("end_date")),
		DurationMinutes: duration,
	}
	days, err := h.service.Range(r.Context(), query)
	if err != nil {
		h.writeServiceError(w, err, query.TeamMemberID)
		return
	}

	resp := RangeResponse{Availability: make(map[string]DayPayload, len(days))}
	for _, d := range days {
		resp.Availability[d.Date] = PayloadFromDay(d)
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetDay returns availability for a team member on one date.
// GET /api/bookings/availability/team
func (h *Handler) GetDay(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	duration, ok := parseDuration(w, q.Get("service_duration_minutes"))
	if !ok {
		return
	}
	teamMemberID := strings.TrimSpace(q.Get("team_member_id"))
	date := strings.TrimSpace(q.Get("date"))

	day, err := h.service.Day(r.Context(), teamMemberID, date, duration)
	if err != nil {
		h.writeServiceError(w, err, teamMemberID)
		return
	}
	writeJSON(w, http.StatusOK, DayResponse{Date: day.Date, DayPayload: PayloadFromDay(day)})
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error, teamMemberID string) {
	switch {
	case errors.Is(err, ErrInvalidQuery):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrUnknownTeamMember):
		writeError(w, http.StatusNotFound, "team member not found")
	default:
		h.logger.Error("availability lookup failed", "team_member_id", teamMemberID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func parseDuration(w http.ResponseWriter, raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		writeError(w, http.StatusBadRequest, "service_duration_minutes required")
		return 0, false
	}
	minutes, err := strconv.Atoi(raw)
	if err != nil || minutes <= 0 {
		writeError(w, http.StatusBadRequest, "service_duration_minutes must be a positive integer")
		return 0, false
	}
	return minutes, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
