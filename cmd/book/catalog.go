package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/wolfman30/aesthetics-booking/internal/clinic"
	"github.com/wolfman30/aesthetics-booking/internal/wizard"
)

// catalogClient reads the public service catalogue.
type catalogClient struct {
	baseURL string
	http    *http.Client
}

func (c *catalogClient) Services(ctx context.Context) ([]clinic.Service, error) {
	u, err := url.JoinPath(strings.TrimRight(c.baseURL, "/"), "/api/services")
	if err != nil {
		return nil, fmt.Errorf("book: services url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("book: build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("book: list services: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("book: list services: status %d", resp.StatusCode)
	}
	var body struct {
		Services []clinic.Service `json:"services"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("book: decode services: %w", err)
	}
	return body.Services, nil
}

func orderItem(svc clinic.Service) wizard.OrderItem {
	return wizard.OrderItem{
		ServiceID: svc.ID,
		Name:      svc.Name,
		Price:     svc.Price,
		Duration:  svc.DurationMinutes,
		Category:  svc.Category,
		Quantity:  1,
	}
}
