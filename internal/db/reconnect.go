package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/unklstewy/skyradar/pkg/config"
)

// connectFunc is replaced in tests.
var connectFunc = Connect

// ReconnectWithRetry attempts to connect to the database with exponential
// backoff capped at 60 seconds. A maxRetries of 0 retries until ctx ends.
func ReconnectWithRetry(ctx context.Context, cfg config.DatabaseConfig, maxRetries int, initialDelay time.Duration) (*DB, error) {
	logger := log.With().Str("section", "db").Logger()
	delay := initialDelay
	attempt := 0

	for {
		attempt++
		logger.Debug().Int("attempt", attempt).Msg("Connecting to database")

		db, err := connectFunc(ctx, cfg)
		if err == nil {
			logger.Info().Int("attempt", attempt).Msg("Database connected")
			return db, nil
		}

		if maxRetries > 0 && attempt >= maxRetries {
			return nil, fmt.Errorf("failed to connect after %d attempts: %w", attempt, err)
		}

		logger.Warn().Err(err).Dur("retry_in", delay).Msg("Database connection failed")
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("reconnect cancelled: %w", ctx.Err())
		case <-time.After(delay):
		}

		delay *= 2
		if delay > 60*time.Second {
			delay = 60 * time.Second
		}
	}
}

// EnsureConnection pings db and reconnects if it is nil or dead.
func EnsureConnection(ctx context.Context, db *DB, cfg config.DatabaseConfig) (*DB, error) {
	if db == nil {
		return ReconnectWithRetry(ctx, cfg, 3, time.Second)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		log.Warn().Str("section", "db").Err(err).Msg("Database connection lost, reconnecting")
		db.Close()
		return ReconnectWithRetry(ctx, cfg, 3, time.Second)
	}

	return db, nil
}

// HealthCheckName names the database on the monitoring status page.
func (db *DB) HealthCheckName() string {
	return "database " + db.config.Host
}

// HealthCheck returns true if the database answers a trivial query.
func (db *DB) HealthCheck() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		log.Warn().Str("section", "db").Err(err).Msg("Health check failed")
		return false
	}
	return result == 1
}

var connErrors = []string{
	"connection refused",
	"broken pipe",
	"no connection",
	"connection reset",
	"bad connection",
	"eof",
	"timeout",
}

// IsConnectionError reports whether err looks like a lost connection
// rather than a query problem.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, pattern := range connErrors {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

// WithRetry runs operation, retrying up to maxRetries times with a linear
// wait when it fails with a connection error. Other errors return at once.
func WithRetry(ctx context.Context, operation func() error, maxRetries int, wait time.Duration) error {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}
		lastErr = err

		if !IsConnectionError(err) {
			return err
		}

		if attempt < maxRetries {
			waitTime := time.Duration(attempt+1) * wait
			log.Warn().Str("section", "db").Err(err).
				Int("attempt", attempt+1).
				Dur("retry_in", waitTime).
				Msg("Database operation failed")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(waitTime):
			}
		}
	}

	return lastErr
}
