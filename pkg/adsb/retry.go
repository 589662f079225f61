package adsb

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"
)

// RetryConfig configures retry behavior with exponential backoff.
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts (default: 3)
	MaxRetries int

	// InitialDelay is the initial backoff delay (default: 1 second)
	InitialDelay time.Duration

	// MaxDelay is the maximum backoff delay (default: 60 seconds)
	MaxDelay time.Duration

	// Multiplier is the backoff multiplier (default: 2.0 for exponential)
	Multiplier float64

	// RespectRetryAfter uses Retry-After header if available (default: true)
	RespectRetryAfter bool
}

// DefaultRetryConfig returns sensible defaults for retry behavior.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        3,
		InitialDelay:      time.Second,
		MaxDelay:          60 * time.Second,
		Multiplier:        2.0,
		RespectRetryAfter: true,
	}
}

// RetryWithBackoffResult executes a function with exponential backoff and returns its result.
// It handles rate limit errors (HTTP 429) specially by respecting Retry-After headers.
//
// Example usage:
//
//	aircraft, err := RetryWithBackoffResult(ctx, DefaultRetryConfig(), func() ([]Aircraft, error) {
//	    return source.Fetch(ctx, location, radiusKm)
//	})
func RetryWithBackoffResult[T any](ctx context.Context, cfg RetryConfig, fn func() (T, error)) (T, error) {
	var result T
	var lastErr error
	delay := cfg.InitialDelay

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		// First attempt (no delay)
		if attempt > 0 {
			// Check context before sleeping
			select {
			case <-ctx.Done():
				return result, fmt.Errorf("retry cancelled: %w", ctx.Err())
			case <-time.After(delay):
				// Continue with retry
			}
		}

		res, err := fn()
		if err == nil {
			return res, nil
		}

		result = res
		lastErr = err

		// Check if it's a rate limit error
		if rle, ok := IsRateLimitError(err); ok {
			// If Retry-After header is present and we should respect it
			if cfg.RespectRetryAfter && rle.RetryAfter > 0 {
				delay = rle.RetryAfter
			}

			logRateLimit(rle, attempt)
		}

		// Last attempt - don't calculate next delay
		if attempt == cfg.MaxRetries {
			break
		}

		// Calculate next delay using exponential backoff
		nextDelay := time.Duration(float64(cfg.InitialDelay) * math.Pow(cfg.Multiplier, float64(attempt)))
		if nextDelay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		} else {
			delay = nextDelay
		}
	}

	return result, fmt.Errorf("max retries (%d) exceeded: %w", cfg.MaxRetries, lastErr)
}

// logRateLimit reports a 429 with whatever quota headers the provider sent.
func logRateLimit(rle *RateLimitError, attempt int) {
	ev := log.Warn().
		Str("section", "retry").
		Int("attempt", attempt+1).
		Dur("retry_after", rle.RetryAfter)
	if rle.Headers.Remaining >= 0 {
		ev = ev.Int("remaining", rle.Headers.Remaining).
			Int("limit", rle.Headers.Limit).
			Time("reset", rle.Headers.Reset)
	}
	ev.Msg("Rate limit hit")
}
