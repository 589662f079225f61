package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/unklstewy/skyradar/pkg/config"
)

//go:embed schema.sql
var schemaSQL embed.FS

// DB wraps a database connection with helper methods.
type DB struct {
	*sql.DB
	config config.DatabaseConfig
}

// New wraps an existing connection pool.
func New(sqlDB *sql.DB, cfg config.DatabaseConfig) *DB {
	return &DB{DB: sqlDB, config: cfg}
}

// ConnectionString builds the lib/pq keyword/value DSN.
func ConnectionString(cfg config.DatabaseConfig) string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.Username,
		cfg.Password,
		cfg.Database,
		cfg.SSLMode,
	)
}

// Connect establishes a connection to the PostgreSQL database.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = "postgres"
	}

	sqlDB, err := sql.Open(driver, ConnectionString(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(pingCtx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return New(sqlDB, cfg), nil
}

// InitSchema creates the tables if they do not exist.
// This should be called once at application startup.
func (db *DB) InitSchema(ctx context.Context) error {
	schemaBytes, err := schemaSQL.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read schema file: %w", err)
	}

	if _, err := db.ExecContext(ctx, string(schemaBytes)); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	return nil
}

// CleanupOldData deletes aircraft not updated within maxAge and returns how
// many rows were removed. Should be called periodically to prevent
// unbounded growth.
func (db *DB) CleanupOldData(ctx context.Context, now time.Time, maxAge time.Duration) (int64, error) {
	res, err := db.ExecContext(ctx,
		`DELETE FROM aircraft WHERE updated_at < $1`,
		now.UTC().Add(-maxAge),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old aircraft: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted aircraft: %w", err)
	}
	return n, nil
}

// Stats summarises the table contents.
type Stats struct {
	Aircraft   int
	Positioned int
	Newest     time.Time
}

// GetStats returns database statistics.
func (db *DB) GetStats(ctx context.Context) (Stats, error) {
	var (
		s      Stats
		newest sql.NullTime
	)
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE latitude IS NOT NULL AND longitude IS NOT NULL),
		        MAX(updated_at)
		 FROM aircraft`,
	).Scan(&s.Aircraft, &s.Positioned, &newest)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to query stats: %w", err)
	}
	if newest.Valid {
		s.Newest = newest.Time
	}
	return s, nil
}
