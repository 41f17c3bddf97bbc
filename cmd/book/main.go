package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/wolfman30/aesthetics-booking/internal/availability"
	"github.com/wolfman30/aesthetics-booking/internal/bookings"
	"github.com/wolfman30/aesthetics-booking/internal/wizard"
	"github.com/wolfman30/aesthetics-booking/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	apiURL := flag.String("api", envOr("BOOKING_API_URL", "http://localhost:8080"), "booking API base URL")
	windowDays := flag.Int("days", wizard.DefaultWindowDays, "number of days of availability to show")
	logLevel := flag.String("log-level", envOr("LOG_LEVEL", "warn"), "log level")
	flag.Parse()

	logger := logging.NewWithWriter(*logLevel, os.Stderr).Component("book")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpClient := &http.Client{Timeout: 15 * time.Second}
	updates := make(chan wizard.State, 1)
	ctrl := wizard.NewController(wizard.ControllerConfig{
		Fetcher: availability.NewClient(availability.ClientConfig{
			BaseURL:    *apiURL,
			HTTPClient: httpClient,
			Logger:     logger,
		}),
		Submitter: bookings.NewClient(bookings.ClientConfig{
			BaseURL:    *apiURL,
			HTTPClient: httpClient,
			Logger:     logger,
		}),
		Logger:     logger,
		WindowDays: *windowDays,
		OnChange:   func(s wizard.State) { publish(updates, s) },
	})
	defer ctrl.Close()

	s := &session{
		ctrl:    ctrl,
		updates: updates,
		catalog: &catalogClient{baseURL: *apiURL, http: httpClient},
		in:      bufio.NewScanner(os.Stdin),
		out:     os.Stdout,
	}
	if err := s.run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "booking failed:", err)
		os.Exit(1)
	}
}

// publish keeps only the newest state in the buffered channel.
func publish(ch chan wizard.State, s wizard.State) {
	for {
		select {
		case ch <- s:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
