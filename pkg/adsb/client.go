package adsb

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ClientConfig configures the HTTP-backed sources.
type ClientConfig struct {
	// BaseURL is the API root; empty selects the provider default
	BaseURL string

	// Username and Password enable HTTP basic auth when both are set
	Username string
	Password string

	// Timeout bounds each request (default: 10 seconds)
	Timeout time.Duration

	// RequestsPerSecond caps the request rate; <= 0 disables limiting
	RequestsPerSecond float64

	// Logger receives request diagnostics; zero value uses the global logger
	Logger *zerolog.Logger
}

// apiClient is the HTTP plumbing shared by the live sources.
type apiClient struct {
	// baseURL is the API base URL
	baseURL string

	// httpClient is the HTTP client used for API requests
	httpClient *http.Client

	// limiter spaces requests to honour the provider's rate limit
	limiter *rate.Limiter

	username string
	password string

	log zerolog.Logger
}

func newAPIClient(cfg ClientConfig, defaultURL, section string) apiClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	logger := log.Logger
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	return apiClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, 1),
		username:   cfg.Username,
		password:   cfg.Password,
		log:        logger.With().Str("section", section).Logger(),
	}
}

// getJSON performs a rate-limited GET and decodes a JSON body into out.
// A 404 is reported as found == false with no error.
func (c *apiClient) getJSON(ctx context.Context, url string, out interface{}) (found bool, err error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return false, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.username != "" && c.password != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to fetch aircraft data: %w", err)
	}
	defer resp.Body.Close()

	c.log.Debug().
		Str("url", url).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Msg("API request")

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return false, newRateLimitError(resp)
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return false, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("failed to parse API response: %w", err)
	}
	return true, nil
}
