package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/aesthetics-booking/internal/availability"
	"github.com/wolfman30/aesthetics-booking/internal/bookings"
	"github.com/wolfman30/aesthetics-booking/internal/clinic"
	"github.com/wolfman30/aesthetics-booking/internal/customers"
	httpmiddleware "github.com/wolfman30/aesthetics-booking/internal/http/middleware"
	"github.com/wolfman30/aesthetics-booking/internal/observability/metrics"
	"github.com/wolfman30/aesthetics-booking/pkg/logging"
)

const testSecret = "router-secret"

func newTestRouter(t *testing.T, checks map[string]HealthCheck) http.Handler {
	t.Helper()

	logger := logging.Default()
	reg := prometheus.NewRegistry()
	clinicStore := clinic.NewMemoryStore()
	schedules := clinic.NewSchedules(clinicStore, "glow")
	bookingRepo := bookings.NewInMemoryRepository()
	customerRepo := customers.NewInMemoryRepository()

	availabilitySvc := availability.NewService(availability.ServiceConfig{
		Schedules:    schedules,
		Appointments: bookingRepo,
		Metrics:      metrics.NewAvailabilityMetrics(reg),
		Logger:       logger,
		Now:          func() time.Time { return time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC) },
	})
	bookingSvc := bookings.NewService(bookings.ServiceConfig{
		Repo:      bookingRepo,
		Schedules: schedules,
		Customers: customerRepo,
		Metrics:   metrics.NewBookingMetrics(reg),
		Logger:    logger,
	})

	return New(&Config{
		Logger:              logger,
		AvailabilityHandler: availability.NewHandler(availabilitySvc, logger),
		BookingsHandler:     bookings.NewHandler(bookingSvc, logger),
		CustomersHandler:    customers.NewHandler(customerRepo, logger),
		ClinicHandler:       clinic.NewHandler(clinicStore, "glow", logger),
		AdminAuth:           httpmiddleware.AdminAuthConfig{Secret: testSecret},
		MetricsHandler:      promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		CORSAllowedOrigins:  []string{"https://book.clinic.test"},
		HealthChecks:        checks,
	})
}

func adminToken(t *testing.T) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "front-desk",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func do(t *testing.T, h http.Handler, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouterHealthEndpoint(t *testing.T) {
	router := newTestRouter(t, map[string]HealthCheck{
		"postgres": func(context.Context) error { return nil },
	})

	rec := do(t, router, http.MethodGet, "/health", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	var resp struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}
	if resp.Status != "ok" || resp.Checks["postgres"] != "ok" {
		t.Errorf("unexpected health response %+v", resp)
	}
}

func TestRouterHealthDegraded(t *testing.T) {
	router := newTestRouter(t, map[string]HealthCheck{
		"redis": func(context.Context) error { return errors.New("connection refused") },
	})
	rec := do(t, router, http.MethodGet, "/health", nil, "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "connection refused") {
		t.Fatalf("expected failing check in body, got %s", rec.Body.String())
	}
}

func TestRouterBookingFlow(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := do(t, router, http.MethodGet, "/api/services?main_tab=book-now", nil, "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "HydraFacial") {
		t.Fatalf("services: %d %s", rec.Code, rec.Body.String())
	}

	booking := map[string]any{
		"customer_name":    "Ana Diaz",
		"customer_email":   "ana@example.com",
		"service":          "HydraFacial",
		"team_member_id":   "tm-1",
		"date":             "2026-10-20",
		"time":             "10:00",
		"duration_minutes": 60,
		"amount":           199,
	}
	if rec := do(t, router, http.MethodPost, "/api/bookings", booking, ""); rec.Code != http.StatusCreated {
		t.Fatalf("create booking: %d %s", rec.Code, rec.Body.String())
	}
	if rec := do(t, router, http.MethodPost, "/api/bookings", booking, ""); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for double booking, got %d", rec.Code)
	}

	rec = do(t, router, http.MethodGet, "/api/bookings/availability/team?team_member_id=tm-1&date=2026-10-20&service_duration_minutes=60", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("availability: %d %s", rec.Code, rec.Body.String())
	}
	var day availability.DayResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &day); err != nil {
		t.Fatalf("decode availability: %v", err)
	}
	got := availability.DayFromPayload(day.Date, day.DayPayload)
	if got.HasSlot("10:00") || !got.HasSlot("11:00") {
		t.Fatalf("expected 10:00 taken and 11:00 free, got %v", got.TimeSlots)
	}
}

func TestRouterAdminRoutesRequireToken(t *testing.T) {
	router := newTestRouter(t, nil)
	paths := []string{
		"/api/bookings",
		"/api/customers?q=ana",
		"/api/admin/team",
		"/api/admin/clinic",
		"/api/admin/calendar?month=2026-10",
	}
	for _, p := range paths {
		if rec := do(t, router, http.MethodGet, p, nil, ""); rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s without token: expected 401, got %d", p, rec.Code)
		}
	}

	token := adminToken(t)
	for _, p := range paths {
		if rec := do(t, router, http.MethodGet, p, nil, token); rec.Code != http.StatusOK {
			t.Fatalf("%s with token: expected 200, got %d: %s", p, rec.Code, rec.Body.String())
		}
	}
}

func TestRouterCORSAndMetrics(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/bookings", nil)
	req.Header.Set("Origin", "https://book.clinic.test")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent || rec.Header().Get("Access-Control-Allow-Origin") != "https://book.clinic.test" {
		t.Fatalf("unexpected preflight response %d %v", rec.Code, rec.Header())
	}

	do(t, router, http.MethodGet, "/api/bookings/availability/team/range?team_member_id=tm-1&start_date=2026-10-19&end_date=2026-10-21&service_duration_minutes=60", nil, "")
	rec = do(t, router, http.MethodGet, "/metrics", nil, "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "clinic_availability_") {
		t.Fatalf("expected availability metrics, got %d", rec.Code)
	}
}
