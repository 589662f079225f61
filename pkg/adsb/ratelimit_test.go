package adsb

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"
)

// TestParseRetryAfter tests the supported Retry-After forms.
func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    time.Duration
	}{
		{"Seconds", map[string]string{"Retry-After": "30"}, 30 * time.Second},
		{"Zero", map[string]string{"Retry-After": "0"}, 0},
		{"Garbage", map[string]string{"Retry-After": "soon"}, 0},
		{"Past date", map[string]string{"Retry-After": "Wed, 21 Oct 2015 07:28:00 GMT"}, 0},
		{"OpenSky header", map[string]string{"X-Rate-Limit-Retry-After-Seconds": "7"}, 7 * time.Second},
		{"Missing", map[string]string{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			for k, v := range tt.headers {
				h.Set(k, v)
			}
			if got := parseRetryAfter(h); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}

	t.Run("Future date", func(t *testing.T) {
		h := http.Header{}
		h.Set("Retry-After", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		if got := parseRetryAfter(h); got < 58*time.Minute || got > time.Hour {
			t.Errorf("Expected about an hour, got %v", got)
		}
	})
}

// TestExtractRateLimitHeaders tests both header spellings.
func TestExtractRateLimitHeaders(t *testing.T) {
	t.Run("Standard headers", func(t *testing.T) {
		h := http.Header{}
		h.Set("X-Rate-Limit-Limit", "100")
		h.Set("X-Rate-Limit-Remaining", "42")
		h.Set("X-Rate-Limit-Reset", "1700000000")

		got := extractRateLimitHeaders(h)
		if got.Limit != 100 || got.Remaining != 42 || !got.Reset.Equal(time.Unix(1700000000, 0)) {
			t.Errorf("Unexpected headers %+v", got)
		}
	})

	t.Run("Alternative header names", func(t *testing.T) {
		h := http.Header{}
		h.Set("X-RateLimit-Limit", "50")
		h.Set("X-RateLimit-Remaining", "5")

		got := extractRateLimitHeaders(h)
		if got.Limit != 50 || got.Remaining != 5 {
			t.Errorf("Unexpected headers %+v", got)
		}
	})

	t.Run("Missing headers", func(t *testing.T) {
		got := extractRateLimitHeaders(http.Header{})
		if got.Limit != -1 || got.Remaining != -1 || !got.Reset.IsZero() {
			t.Errorf("Expected -1 sentinels, got %+v", got)
		}
	})
}

// TestRateLimitError tests messages and unwrapping.
func TestRateLimitError(t *testing.T) {
	withDelay := &RateLimitError{Message: "Rate limit exceeded", RetryAfter: 30 * time.Second}
	if got := withDelay.Error(); got != "Rate limit exceeded (retry after 30s)" {
		t.Errorf("Unexpected message %q", got)
	}

	bare := &RateLimitError{Message: "Rate limit exceeded"}
	if got := bare.Error(); got != "Rate limit exceeded" {
		t.Errorf("Unexpected message %q", got)
	}

	wrapped := fmt.Errorf("fetch failed: %w", withDelay)
	if rle, ok := IsRateLimitError(wrapped); !ok || rle != withDelay {
		t.Error("Expected wrapped rate limit error to be detected")
	}
	if _, ok := IsRateLimitError(errors.New("other")); ok {
		t.Error("Expected plain error not to be a rate limit error")
	}
}
