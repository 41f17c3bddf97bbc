package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/wolfman30/aesthetics-booking/internal/api/router"
	"github.com/wolfman30/aesthetics-booking/internal/app/bootstrap"
	"github.com/wolfman30/aesthetics-booking/internal/availability"
	"github.com/wolfman30/aesthetics-booking/internal/bookings"
	"github.com/wolfman30/aesthetics-booking/internal/clinic"
	appconfig "github.com/wolfman30/aesthetics-booking/internal/config"
	"github.com/wolfman30/aesthetics-booking/internal/customers"
	httpmiddleware "github.com/wolfman30/aesthetics-booking/internal/http/middleware"
	"github.com/wolfman30/aesthetics-booking/internal/notify"
	"github.com/wolfman30/aesthetics-booking/internal/observability/metrics"
	"github.com/wolfman30/aesthetics-booking/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting aesthetics booking API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"clinic_id", cfg.ClinicID,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func run(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) error {
	app, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      app.Handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}

// app is the wired API with the resources it must release.
type app struct {
	Handler http.Handler
	closers []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func newApp(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*app, error) {
	a := &app{}
	checks := map[string]router.HealthCheck{}

	pool, err := bootstrap.BuildPostgresPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if pool != nil {
		a.closers = append(a.closers, pool.Close)
		checks["postgres"] = pool.Ping
	}
	repos := bootstrap.BuildRepositories(pool)
	logger.Info("storage ready", "backend", repos.Backend)

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		a.closers = append(a.closers, func() { _ = redisClient.Close() })
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	clinicStore := bootstrap.BuildClinicStore(redisClient)
	schedules := clinic.NewSchedules(clinicStore, cfg.ClinicID)

	emailSender, provider, err := bootstrap.BuildEmailSender(ctx, cfg, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	logger.Info("email notifications ready", "provider", provider)
	notifier := notify.NewService(emailSender, clinicStore, cfg.ClinicID, logger.Component("notify"))

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	availabilitySvc := availability.NewService(availability.ServiceConfig{
		Schedules:    schedules,
		Appointments: repos.Bookings,
		Metrics:      metrics.NewAvailabilityMetrics(reg),
		Logger:       logger.Component("availability"),
		MaxRangeDays: cfg.AvailabilityMaxRangeDays,
	})
	bookingSvc := bookings.NewService(bookings.ServiceConfig{
		Repo:      repos.Bookings,
		Schedules: schedules,
		Customers: repos.Customers,
		Notifier:  notifier,
		Metrics:   metrics.NewBookingMetrics(reg),
		Logger:    logger.Component("bookings"),
	})

	var limiter *httpmiddleware.RateLimiter
	if cfg.PublicRateLimitRPS > 0 {
		limiter = httpmiddleware.NewRateLimiter(ctx, cfg.PublicRateLimitRPS, cfg.PublicRateLimitBurst)
	}

	a.Handler = router.New(&router.Config{
		Logger:              logger,
		AvailabilityHandler: availability.NewHandler(availabilitySvc, logger),
		BookingsHandler:     bookings.NewHandler(bookingSvc, logger),
		CustomersHandler:    customers.NewHandler(repos.Customers, logger),
		ClinicHandler:       clinic.NewHandler(clinicStore, cfg.ClinicID, logger),
		AdminAuth: httpmiddleware.AdminAuthConfig{
			Secret: cfg.AdminJWTSecret,
			Issuer: cfg.AdminJWTIssuer,
		},
		RateLimiter:        limiter,
		MetricsHandler:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		HealthChecks:       checks,
	})
	return a, nil
}
