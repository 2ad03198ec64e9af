package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fitsync/internal/domain"
)

// streamChannels are the sensor channels requested for every activity.
const streamChannels = "latlng,altitude,time,heartrate,cadence,watts,velocity_smooth"

// Config holds Strava client configuration.
type Config struct {
	BaseURL        string
	TokenURL       string
	ClientID       string
	ClientSecret   string
	PageSize       int
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Client talks to the Strava v3 API.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	tokenURL       string
	clientID       string
	clientSecret   string
	pageSize       int
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	logger         *slog.Logger
}

// New creates a new Strava client.
func New(cfg Config, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:        cfg.BaseURL,
		tokenURL:       cfg.TokenURL,
		clientID:       cfg.ClientID,
		clientSecret:   cfg.ClientSecret,
		pageSize:       cfg.PageSize,
		maxAttempts:    cfg.MaxAttempts,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		logger:         logger.With("source", "strava"),
	}
}

// ListActivities fetches the athlete's activities started after the given time.
func (c *Client) ListActivities(ctx context.Context, accessToken string, after time.Time) ([]domain.RawActivity, error) {
	var all []summaryActivity

	for page := 1; ; page++ {
		u := fmt.Sprintf("%s/athlete/activities?after=%d&page=%d&per_page=%d",
			c.baseURL, after.Unix(), page, c.pageSize)

		var batch []summaryActivity
		if err := c.getWithRetry(ctx, u, accessToken, &batch); err != nil {
			return nil, fmt.Errorf("fetch activities page %d: %w", page, err)
		}

		all = append(all, batch...)

		c.logger.Debug("fetched activity page",
			"page", page,
			"activities", len(batch),
			"total", len(all),
		)

		if len(batch) < c.pageSize {
			break
		}
	}

	return c.transform(all), nil
}

// GetStreams fetches the sensor streams for one activity.
func (c *Client) GetStreams(ctx context.Context, accessToken string, activityID int64) (domain.StreamBundle, error) {
	u := fmt.Sprintf("%s/activities/%d/streams?keys=%s&key_by_type=true",
		c.baseURL, activityID, streamChannels)

	var set streamSet
	if err := c.getWithRetry(ctx, u, accessToken, &set); err != nil {
		return domain.StreamBundle{}, fmt.Errorf("fetch streams for activity %d: %w", activityID, err)
	}

	bundle := domain.StreamBundle{}
	if set.LatLng != nil {
		for _, pair := range set.LatLng.Data {
			if len(pair) == 2 {
				lat, lng := pair[0], pair[1]
				bundle.Lat = append(bundle.Lat, &lat)
				bundle.Lng = append(bundle.Lng, &lng)
			} else {
				bundle.Lat = append(bundle.Lat, nil)
				bundle.Lng = append(bundle.Lng, nil)
			}
		}
	}
	if set.Altitude != nil {
		bundle.Altitude = set.Altitude.Data
	}
	if set.Time != nil {
		bundle.Time = set.Time.Data
	}
	if set.HeartRate != nil {
		bundle.HeartRate = set.HeartRate.Data
	}
	if set.Cadence != nil {
		bundle.Cadence = set.Cadence.Data
	}
	if set.Watts != nil {
		bundle.Power = set.Watts.Data
	}
	if set.VelocitySmooth != nil {
		bundle.Velocity = set.VelocitySmooth.Data
	}

	return bundle, nil
}

// RefreshToken exchanges a refresh token for a new token pair.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*domain.Credential, error) {
	form := url.Values{
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"refresh_token": {refreshToken},
		"grant_type":    {"refresh_token"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var tokens tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &domain.Credential{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresAt:    time.Unix(tokens.ExpiresAt, 0).UTC(),
	}, nil
}

func (c *Client) getWithRetry(ctx context.Context, url, accessToken string, out any) error {
	var err error

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		err = c.doGet(ctx, url, accessToken, out)
		if err == nil {
			return nil
		}

		if attempt == c.maxAttempts {
			break
		}

		backoff := c.calculateBackoff(attempt)
		c.logger.Warn("request failed, retrying",
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}

	return fmt.Errorf("after %d attempts: %w", c.maxAttempts, err)
}

func (c *Client) doGet(ctx context.Context, url, accessToken string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

func (c *Client) calculateBackoff(attempt int) time.Duration {
	backoff := c.initialBackoff
	for i := 1; i < attempt; i++ {
		backoff *= 2
	}
	if backoff > c.maxBackoff {
		backoff = c.maxBackoff
	}
	return backoff
}

func (c *Client) transform(activities []summaryActivity) []domain.RawActivity {
	raws := make([]domain.RawActivity, 0, len(activities))

	for _, a := range activities {
		startTime, err := time.Parse(time.RFC3339, a.StartDate)
		if err != nil {
			c.logger.Warn("failed to parse start date",
				"external_id", a.ID,
				"start_date", a.StartDate,
			)
			continue
		}

		raw := domain.RawActivity{
			ID:           a.ID,
			Name:         a.Name,
			SportType:    a.SportType,
			StartTime:    startTime,
			ElapsedTime:  a.ElapsedTime,
			Distance:     a.Distance,
			AverageSpeed: a.AverageSpeed,
			AverageWatts: a.AverageWatts,
		}

		if len(a.StartLatLng) == 2 {
			raw.StartLat = a.StartLatLng[0]
			raw.StartLng = a.StartLatLng[1]
		}

		raws = append(raws, raw)
	}

	return raws
}
