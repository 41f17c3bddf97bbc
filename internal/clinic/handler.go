package clinic

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/aesthetics-booking/pkg/logging"
)

// Handler provides HTTP endpoints for clinic configuration, team and catalogue.
type Handler struct {
	store    ConfigStore
	clinicID string
	logger   *logging.Logger
}

// NewHandler creates a new clinic config HTTP handler.
func NewHandler(store ConfigStore, clinicID string, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		store:    store,
		clinicID: clinicID,
		logger:   logger,
	}
}

// AdminRoutes returns the routes mounted under /api/admin.
func (h *Handler) AdminRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/clinic", h.GetConfig)
	r.Put("/clinic", h.UpdateConfig)
	r.Get("/team", h.ListTeam)
	return r
}

// GetConfig returns the clinic configuration.
// GET /api/admin/clinic
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.store.Get(r.Context(), h.clinicID)
	if err != nil {
		h.logger.Error("failed to get clinic config", "clinic_id", h.clinicID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// UpdateConfigRequest is the request body for updating clinic config. Nil
// fields are left unchanged.
type UpdateConfigRequest struct {
	Name          string             `json:"name,omitempty"`
	Email         *string            `json:"email,omitempty"`
	Phone         *string            `json:"phone,omitempty"`
	Address       *string            `json:"address,omitempty"`
	Timezone      string             `json:"timezone,omitempty"`
	BusinessHours *BusinessHours     `json:"business_hours,omitempty"`
	Services      []Service          `json:"services,omitempty"`
	Team          []TeamMember       `json:"team,omitempty"`
	Notifications *NotificationPrefs `json:"notifications,omitempty"`
}

// UpdateConfig applies a partial update to the clinic configuration.
// PUT /api/admin/clinic
func (h *Handler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	var req UpdateConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	cfg, err := h.store.Get(r.Context(), h.clinicID)
	if err != nil {
		h.logger.Error("failed to get clinic config", "clinic_id", h.clinicID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if req.Name != "" {
		cfg.Name = strings.TrimSpace(req.Name)
	}
	if req.Email != nil {
		cfg.Email = strings.TrimSpace(*req.Email)
	}
	if req.Phone != nil {
		cfg.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Address != nil {
		cfg.Address = strings.TrimSpace(*req.Address)
	}
	if req.Timezone != "" {
		cfg.Timezone = req.Timezone
	}
	if req.BusinessHours != nil {
		cfg.BusinessHours = *req.BusinessHours
	}
	if req.Services != nil {
		cfg.Services = req.Services
	}
	if req.Team != nil {
		cfg.Team = req.Team
	}
	if req.Notifications != nil {
		cfg.Notifications = *req.Notifications
	}

	if err := cfg.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.store.Set(r.Context(), cfg); err != nil {
		h.logger.Error("failed to save clinic config", "clinic_id", h.clinicID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save config")
		return
	}

	h.logger.Info("clinic config updated", "clinic_id", h.clinicID, "name", cfg.Name)
	writeJSON(w, http.StatusOK, cfg)
}

// ListTeam returns the bookable team.
// GET /api/admin/team
func (h *Handler) ListTeam(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.store.Get(r.Context(), h.clinicID)
	if err != nil {
		h.logger.Error("failed to list team", "clinic_id", h.clinicID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"team": cfg.ActiveTeam()})
}

// ListServices returns the active catalogue, filtered by ?main_tab= and ?category=.
// GET /api/services
func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.store.Get(r.Context(), h.clinicID)
	if err != nil {
		h.logger.Error("failed to list services", "clinic_id", h.clinicID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	q := r.URL.Query()
	writeJSON(w, http.StatusOK, map[string]any{
		"services": cfg.ActiveServices(strings.TrimSpace(q.Get("main_tab")), strings.TrimSpace(q.Get("category"))),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
