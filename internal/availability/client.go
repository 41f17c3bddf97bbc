package availability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/wolfman30/aesthetics-booking/internal/calendar"
	"github.com/wolfman30/aesthetics-booking/pkg/logging"
)

const (
	defaultClientTimeout    = 15 * time.Second
	defaultFallbackParallel = 4

	rangePath = "/api/bookings/availability/team/range"
	dayPath   = "/api/bookings/availability/team"
)

// HTTPError is returned for non-2xx API responses.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("availability: api returned status %d: %s", e.StatusCode, e.Body)
}

// ClientConfig configures the availability API client.
type ClientConfig struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *logging.Logger
	// FallbackParallelism bounds concurrent single-day requests when the
	// range endpoint is unavailable.
	FallbackParallelism int
}

// Client fetches availability from the booking API and validates every response.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
	validate   *validator.Validate
	parallel   int
}

// NewClient creates an availability API client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: defaultClientTimeout}
	}
	if cfg.FallbackParallelism <= 0 {
		cfg.FallbackParallelism = defaultFallbackParallel
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: cfg.HTTPClient,
		logger:     cfg.Logger,
		validate:   NewValidator(),
		parallel:   cfg.FallbackParallelism,
	}
}

// NewValidator returns a validator that understands the "clock" tag.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		_, err := ParseClock(fl.Field().String())
		return err == nil
	})
	return v
}

// FetchRange requests the availability window for one team member. If the
// range endpoint is missing it falls back to one request per day.
func (c *Client) FetchRange(ctx context.Context, q RangeQuery) ([]Day, error) {
	dates, err := queryDates(q)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("team_member_id", q.TeamMemberID)
	params.Set("start_date", q.StartDate)
	params.Set("end_date", q.EndDate)
	params.Set("service_duration_minutes", strconv.Itoa(q.DurationMinutes))

	var resp RangeResponse
	err = c.get(ctx, rangePath, params, &resp)
	var httpErr *HTTPError
	if errors.As(err, &httpErr) && (httpErr.StatusCode == http.StatusNotFound || httpErr.StatusCode == http.StatusMethodNotAllowed) {
		c.logger.Warn("availability range endpoint unavailable, falling back to daily lookups", "status", httpErr.StatusCode)
		return c.fetchDaily(ctx, q, dates)
	}
	if err != nil {
		return nil, err
	}
	if resp.Availability == nil {
		return nil, fmt.Errorf("%w: missing availability object", ErrMalformedResponse)
	}

	days := make([]Day, 0, len(dates))
	for _, date := range dates {
		payload, ok := resp.Availability[date]
		if !ok {
			return nil, fmt.Errorf("%w: no entry for %s", ErrMalformedResponse, date)
		}
		if err := c.checkPayload(date, payload); err != nil {
			return nil, err
		}
		days = append(days, DayFromPayload(date, payload))
	}
	return days, nil
}

// FetchDay requests availability for a single date.
func (c *Client) FetchDay(ctx context.Context, teamMemberID, date string, durationMinutes int) (Day, error) {
	params := url.Values{}
	params.Set("team_member_id", teamMemberID)
	params.Set("date", date)
	params.Set("service_duration_minutes", strconv.Itoa(durationMinutes))

	var resp DayResponse
	if err := c.get(ctx, dayPath, params, &resp); err != nil {
		return Day{}, err
	}
	if resp.Date != date {
		return Day{}, fmt.Errorf("%w: asked for %s, got %q", ErrMalformedResponse, date, resp.Date)
	}
	if err := c.checkPayload(date, resp.DayPayload); err != nil {
		return Day{}, err
	}
	return DayFromPayload(date, resp.DayPayload), nil
}

func (c *Client) fetchDaily(ctx context.Context, q RangeQuery, dates []string) ([]Day, error) {
	days := make([]Day, len(dates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.parallel)
	for i, date := range dates {
		g.Go(func() error {
			day, err := c.FetchDay(gctx, q.TeamMemberID, date, q.DurationMinutes)
			if err != nil {
				return err
			}
			days[i] = day
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return days, nil
}

func (c *Client) checkPayload(date string, p DayPayload) error {
	if err := c.validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedResponse, date, err)
	}
	if p.Status == StatusAvailable && len(p.AvailableSlots) == 0 {
		return fmt.Errorf("%w: %s is available without slots", ErrMalformedResponse, date)
	}
	if p.Status == StatusAvailable && p.WorkingHours == nil {
		return fmt.Errorf("%w: %s is available without working hours", ErrMalformedResponse, date)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	endpoint := c.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("availability: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("availability: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrMalformedResponse, err)
	}
	return nil
}

func queryDates(q RangeQuery) ([]string, error) {
	if strings.TrimSpace(q.TeamMemberID) == "" || q.DurationMinutes <= 0 {
		return nil, fmt.Errorf("%w: team member and positive duration required", ErrInvalidQuery)
	}
	start, err := calendar.ParseDate(q.StartDate, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: start_date: %v", ErrInvalidQuery, err)
	}
	end, err := calendar.ParseDate(q.EndDate, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: end_date: %v", ErrInvalidQuery, err)
	}
	between := calendar.Between(start, end)
	if len(between) == 0 {
		return nil, fmt.Errorf("%w: end_date before start_date", ErrInvalidQuery)
	}
	dates := make([]string, len(between))
	for i, d := range between {
		dates[i] = d.Format(calendar.DateLayout)
	}
	return dates, nil
}
