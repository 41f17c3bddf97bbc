package bookings

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/aesthetics-booking/internal/availability"
	"github.com/wolfman30/aesthetics-booking/pkg/logging"
)

// BookingService is the subset of Service the HTTP layer uses.
type BookingService interface {
	List(ctx context.Context, f Filter) ([]Booking, error)
	Get(ctx context.Context, id string) (*Booking, error)
	Create(ctx context.Context, req Request) (*Booking, error)
	Update(ctx context.Context, id string, req Request) (*Booking, error)
	Patch(ctx context.Context, id string, req PatchRequest) (*Booking, error)
	Delete(ctx context.Context, id string) error
	Calendar(ctx context.Context, month, teamMemberID string) (*MonthView, error)
}

// Handler serves the bookings endpoints.
type Handler struct {
	svc    BookingService
	logger *logging.Logger
}

// NewHandler creates a bookings HTTP handler.
func NewHandler(svc BookingService, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// Routes mounts under /api/bookings. Creating a booking is public; the
// admin middlewares guard every other route.
func (h *Handler) Routes(admin ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Create)
	r.Group(func(r chi.Router) {
		r.Use(admin...)
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Patch("/{id}", h.Patch)
		r.Delete("/{id}", h.Delete)
	})
	return r
}

// List returns bookings filtered by status, payment_status, date,
// start_date, end_date and team_member_id.
// GET /api/bookings
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := Filter{
		Date:         q.Get("date"),
		StartDate:    q.Get("start_date"),
		EndDate:      q.Get("end_date"),
		TeamMemberID: q.Get("team_member_id"),
	}
	if raw := q.Get("status"); raw != "" {
		st, err := ParseStatus(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid status")
			return
		}
		f.Status = st
	}
	if raw := q.Get("payment_status"); raw != "" {
		ps, err := ParsePaymentStatus(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid payment_status")
			return
		}
		f.PaymentStatus = ps
	}

	list, err := h.svc.List(r.Context(), f)
	if err != nil {
		h.fail(w, err, "failed to list bookings")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": list})
}

// Get returns one booking.
// GET /api/bookings/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	b, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.fail(w, err, "failed to get booking", "booking_id", id)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"booking": b})
}

// Create books a new appointment.
// POST /api/bookings
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	b, err := h.svc.Create(r.Context(), req)
	if err != nil {
		h.fail(w, err, "failed to create booking", "team_member_id", req.TeamMemberID, "date", req.Date)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"booking": b})
}

// Update replaces a booking.
// PUT /api/bookings/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	b, err := h.svc.Update(r.Context(), id, req)
	if err != nil {
		h.fail(w, err, "failed to update booking", "booking_id", id)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"booking": b})
}

// Patch updates status, payment status, notes or address.
// PATCH /api/bookings/{id}
func (h *Handler) Patch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req PatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	b, err := h.svc.Patch(r.Context(), id, req)
	if err != nil {
		h.fail(w, err, "failed to patch booking", "booking_id", id)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"booking": b})
}

// Delete removes a booking.
// DELETE /api/bookings/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.fail(w, err, "failed to delete booking", "booking_id", id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Calendar returns the month grid of bookings.
// GET /api/admin/calendar?month=YYYY-MM&team_member_id=
func (h *Handler) Calendar(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	if month == "" {
		writeError(w, http.StatusBadRequest, "month is required")
		return
	}
	view, err := h.svc.Calendar(r.Context(), month, r.URL.Query().Get("team_member_id"))
	if err != nil {
		h.fail(w, err, "failed to build calendar", "month", month)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) fail(w http.ResponseWriter, err error, msg string, args ...any) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, availability.ErrUnknownTeamMember):
		writeError(w, http.StatusBadRequest, "unknown team member")
	case errors.Is(err, ErrBookingNotFound):
		writeError(w, http.StatusNotFound, "booking not found")
	case errors.Is(err, ErrSlotUnavailable):
		h.logger.Info("booking slot conflict", append(args, "error", err)...)
		writeError(w, http.StatusConflict, "the selected time is no longer available")
	default:
		h.logger.Error(msg, append(args, "error", err)...)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
