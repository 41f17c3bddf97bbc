package bookings

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wolfman30/aesthetics-booking/internal/wizard"
	"github.com/wolfman30/aesthetics-booking/pkg/logging"
)

// ClientConfig configures the bookings API client.
type ClientConfig struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *logging.Logger
}

// Client submits wizard orders to POST /api/bookings.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewClient creates a bookings API client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: cfg.HTTPClient,
		logger:     cfg.Logger,
	}
}

// RequestFromOrder converts a completed wizard order into a booking request.
func RequestFromOrder(o wizard.Order) Request {
	names := make([]string, 0, len(o.Items))
	for _, it := range o.Items {
		if it.Quantity > 1 {
			names = append(names, fmt.Sprintf("%s x%d", it.Name, it.Quantity))
			continue
		}
		names = append(names, it.Name)
	}
	return Request{
		CustomerName:    o.Contact.Name,
		CustomerEmail:   o.Contact.Email,
		CustomerPhone:   o.Contact.Phone,
		Service:         strings.Join(names, ", "),
		TeamMemberID:    o.TeamMemberID,
		Date:            o.Date,
		Time:            o.Time,
		DurationMinutes: o.DurationMinutes,
		Status:          StatusPending,
		PaymentStatus:   PaymentPending,
		Amount:          o.Total,
		Address:         o.Contact.Address,
		Notes:           o.Contact.Notes,
	}
}

// Submit implements wizard.Submitter. A 409 response is returned as
// ErrSlotUnavailable.
func (c *Client) Submit(ctx context.Context, o wizard.Order) (string, error) {
	body, err := json.Marshal(RequestFromOrder(o))
	if err != nil {
		return "", fmt.Errorf("bookings: marshal order: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/bookings", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("bookings: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("bookings: submit order: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("bookings: read response: %w", err)
	}
	if resp.StatusCode == http.StatusConflict {
		return "", ErrSlotUnavailable
	}
	if resp.StatusCode != http.StatusCreated {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(raw, &apiErr)
		return "", fmt.Errorf("bookings: api returned status %d: %s", resp.StatusCode, apiErr.Error)
	}

	var out struct {
		Booking *Booking `json:"booking"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("bookings: decode response: %w", err)
	}
	if out.Booking == nil || out.Booking.ID == "" {
		return "", errors.New("bookings: response missing booking id")
	}
	c.logger.Info("booking submitted", "booking_id", out.Booking.ID, "date", out.Booking.Date, "time", out.Booking.Time)
	return out.Booking.ID, nil
}

var _ wizard.Submitter = (*Client)(nil)
