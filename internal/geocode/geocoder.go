package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"fitsync/internal/domain"
)

// Config holds reverse-geocoding client configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client wraps a reverse-geocoding service. Lookups are best-effort
// enrichment: any failure degrades to an unknown location.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// New creates a new reverse-geocoding client.
func New(cfg Config, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: cfg.BaseURL,
		logger:  logger.With("component", "geocode"),
	}
}

// Resolve reverse-geocodes a coordinate pair. A zero latitude or longitude is
// the upstream "unknown" sentinel and skips the lookup entirely. Failures are
// logged and yield an all-null location, never an error.
func (c *Client) Resolve(ctx context.Context, lat, lng float64) domain.Location {
	if lat == 0 || lng == 0 {
		return domain.Location{}
	}

	loc, err := c.lookup(ctx, lat, lng)
	if err != nil {
		c.logger.Warn("reverse geocode failed",
			"lat", lat,
			"lng", lng,
			"error", err,
		)
		return domain.Location{}
	}

	return loc
}

type reverseResponse struct {
	Address struct {
		City    *string `json:"city"`
		Town    *string `json:"town"`
		Country *string `json:"country"`
	} `json:"address"`
}

func (c *Client) lookup(ctx context.Context, lat, lng float64) (domain.Location, error) {
	url := fmt.Sprintf("%s?lat=%f&lon=%f", c.baseURL, lat, lng)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.Location{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Location{}, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Location{}, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var payload reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.Location{}, fmt.Errorf("decode response: %w", err)
	}

	return domain.Location{
		City:    payload.Address.City,
		Town:    payload.Address.Town,
		Country: payload.Address.Country,
	}, nil
}
