package adsb

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// RateLimitError represents an HTTP 429 rate limit error with retry information.
type RateLimitError struct {
	StatusCode int
	RetryAfter time.Duration
	Message    string
	Headers    RateLimitHeaders
}

// RateLimitHeaders contains rate limit information from response headers.
type RateLimitHeaders struct {
	Limit     int       // X-Rate-Limit-Limit: Maximum requests allowed
	Remaining int       // X-Rate-Limit-Remaining: Requests remaining in current window
	Reset     time.Time // X-Rate-Limit-Reset: When the rate limit resets
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s (retry after %v)", e.Message, e.RetryAfter)
	}
	return e.Message
}

// IsRateLimitError checks if an error is, or wraps, a rate limit error.
func IsRateLimitError(err error) (*RateLimitError, bool) {
	var rle *RateLimitError
	if errors.As(err, &rle) {
		return rle, true
	}
	return nil, false
}

// newRateLimitError builds a RateLimitError from a 429 response.
func newRateLimitError(resp *http.Response) *RateLimitError {
	return &RateLimitError{
		StatusCode: resp.StatusCode,
		RetryAfter: parseRetryAfter(resp.Header),
		Message:    "Rate limit exceeded",
		Headers:    extractRateLimitHeaders(resp.Header),
	}
}

// parseRetryAfter extracts the time to wait from Retry-After, falling back to
// OpenSky's X-Rate-Limit-Retry-After-Seconds. Returns 0 when neither is set.
// Retry-After may be delay-seconds or an HTTP-date:
//
//	Retry-After: 30                            -> 30 seconds
//	Retry-After: Wed, 21 Oct 2015 07:28:00 GMT -> duration until that time
func parseRetryAfter(headers http.Header) time.Duration {
	if retryAfter := headers.Get("Retry-After"); retryAfter != "" {
		if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
		if retryTime, err := http.ParseTime(retryAfter); err == nil {
			if d := time.Until(retryTime); d > 0 {
				return d
			}
		}
	}

	if s := headers.Get("X-Rate-Limit-Retry-After-Seconds"); s != "" {
		if seconds, err := strconv.Atoi(s); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}

	return 0
}

// extractRateLimitHeaders reads the common X-Rate-Limit-* / X-RateLimit-*
// headers. Missing counters are reported as -1.
func extractRateLimitHeaders(headers http.Header) RateLimitHeaders {
	rlh := RateLimitHeaders{
		Limit:     headerInt(headers, "X-Rate-Limit-Limit", "X-RateLimit-Limit"),
		Remaining: headerInt(headers, "X-Rate-Limit-Remaining", "X-RateLimit-Remaining"),
	}
	if ts := headerInt(headers, "X-Rate-Limit-Reset", "X-RateLimit-Reset"); ts >= 0 {
		rlh.Reset = time.Unix(int64(ts), 0)
	}
	return rlh
}

// headerInt returns the first of names that parses as an integer, or -1.
func headerInt(headers http.Header, names ...string) int {
	for _, name := range names {
		v := headers.Get(name)
		if v == "" {
			continue
		}
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return -1
}
