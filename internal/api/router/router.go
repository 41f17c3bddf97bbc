package router

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/aesthetics-booking/internal/availability"
	"github.com/wolfman30/aesthetics-booking/internal/bookings"
	"github.com/wolfman30/aesthetics-booking/internal/clinic"
	"github.com/wolfman30/aesthetics-booking/internal/customers"
	httpmiddleware "github.com/wolfman30/aesthetics-booking/internal/http/middleware"
	"github.com/wolfman30/aesthetics-booking/pkg/logging"
)

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

// Config holds router configuration
type Config struct {
	Logger              *logging.Logger
	AvailabilityHandler *availability.Handler
	BookingsHandler     *bookings.Handler
	CustomersHandler    *customers.Handler
	ClinicHandler       *clinic.Handler
	AdminAuth           httpmiddleware.AdminAuthConfig
	// RateLimiter throttles the public booking endpoints when set.
	RateLimiter        *httpmiddleware.RateLimiter
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
	HealthChecks       map[string]HealthCheck
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}

	r.Get("/health", health(cfg.HealthChecks))
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	admin := httpmiddleware.AdminJWT(cfg.AdminAuth)

	// Public booking surface.
	r.Group(func(public chi.Router) {
		if cfg.RateLimiter != nil {
			public.Use(httpmiddleware.RateLimit(cfg.RateLimiter))
		}
		if cfg.AvailabilityHandler != nil {
			public.Mount("/api/bookings/availability", cfg.AvailabilityHandler.Routes())
		}
		if cfg.ClinicHandler != nil {
			public.Get("/api/services", cfg.ClinicHandler.ListServices)
		}
		if cfg.BookingsHandler != nil {
			public.Mount("/api/bookings", cfg.BookingsHandler.Routes(admin))
		}
	})

	// Admin routes (HMAC bearer JWT)
	r.Group(func(r chi.Router) {
		r.Use(admin)
		if cfg.CustomersHandler != nil {
			r.Mount("/api/customers", cfg.CustomersHandler.Routes())
		}
		r.Route("/api/admin", func(r chi.Router) {
			if cfg.BookingsHandler != nil {
				r.Get("/calendar", cfg.BookingsHandler.Calendar)
			}
			if cfg.ClinicHandler != nil {
				r.Mount("/", cfg.ClinicHandler.AdminRoutes())
			}
		})
	})

	return r
}

func health(checks map[string]HealthCheck) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		resp := map[string]any{"status": "ok"}
		deps := map[string]string{}
		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				deps[name] = err.Error()
				status = http.StatusServiceUnavailable
				resp["status"] = "degraded"
				continue
			}
			deps[name] = "ok"
		}
		if len(deps) > 0 {
			resp["checks"] = deps
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(resp)
	}
}
