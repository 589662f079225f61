package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/unklstewy/skyradar/internal/db"
	"github.com/unklstewy/skyradar/internal/monitoring"
	"github.com/unklstewy/skyradar/pkg/adsb"
	"github.com/unklstewy/skyradar/pkg/config"
)

var (
	collectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "skyradar",
		Name:      "collect_aircraft_stored_total",
		Help:      "The total number of aircraft reports written to the database.",
	})
	collectErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "skyradar",
		Name:      "collect_errors_total",
		Help:      "The number of collection rounds that failed.",
	})
	cleanedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "skyradar",
		Name:      "collect_aircraft_deleted_total",
		Help:      "The number of aircraft removed by the retention cleanup.",
	})
)

// collector copies one live source into the aircraft table.
type collector struct {
	source    adsb.DataSource
	repo      *db.AircraftRepository
	database  *db.DB
	cfg       *config.Config
	retry     adsb.RetryConfig
	retention time.Duration
	now       func() time.Time
}

// round fetches one snapshot and stores it.
func (cl *collector) round(ctx context.Context) (int, error) {
	aircraft, err := adsb.RetryWithBackoffResult(ctx, cl.retry, func() ([]adsb.Aircraft, error) {
		return cl.source.Fetch(ctx, cl.cfg.Location, cl.cfg.Radar.MaxRangeKm)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to fetch aircraft: %w", err)
	}

	var n int
	err = db.WithRetry(ctx, func() error {
		var err error
		n, err = cl.repo.UpsertSnapshot(ctx, aircraft, cl.source.Name(), cl.now())
		return err
	}, 3, time.Second)
	if err != nil {
		return 0, err
	}
	collectedTotal.Add(float64(n))
	return n, nil
}

// cleanup removes rows older than the retention period.
func (cl *collector) cleanup(ctx context.Context) (int64, error) {
	n, err := cl.database.CleanupOldData(ctx, cl.now(), cl.retention)
	if err != nil {
		return 0, err
	}
	cleanedTotal.Add(float64(n))
	return n, nil
}

// run collects every interval until ctx is done. Cleanup runs hourly or
// every round when the interval is longer.
func (cl *collector) run(ctx context.Context, interval time.Duration) error {
	logger := log.With().Str("section", "collect").Str("source", cl.source.Name()).Logger()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	cleanupEvery := time.Hour
	if interval > cleanupEvery {
		cleanupEvery = interval
	}
	var lastCleanup time.Time

	for {
		n, err := cl.round(ctx)
		switch {
		case errors.Is(err, context.Canceled):
			return nil
		case err != nil:
			collectErrors.Inc()
			logger.Error().Err(err).Msg("Collection round failed")
		default:
			logger.Info().Int("aircraft", n).Msg("Stored snapshot")
		}

		if cl.now().Sub(lastCleanup) >= cleanupEvery {
			if removed, err := cl.cleanup(ctx); err != nil {
				logger.Error().Err(err).Msg("Cleanup failed")
			} else {
				lastCleanup = cl.now()
				logger.Debug().Int64("removed", removed).Msg("Cleaned old aircraft")
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func runCollect(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if cfg.Source.Type == db.SourceName {
		return errors.New("collect needs a live source, not the database")
	}

	ctx, cancel := signalContext()
	defer cancel()
	startMonitoring(ctx, c, cfg)

	source, err := adsb.NewSource(cfg.Source.Type, cfg.Source.ClientConfig())
	if err != nil {
		return err
	}
	defer source.Close()

	database, err := db.ReconnectWithRetry(ctx, cfg.Database, 0, time.Second)
	if err != nil {
		return err
	}
	defer database.Close()
	if err := database.InitSchema(ctx); err != nil {
		return err
	}
	monitoring.AddHealthCheck(database)

	interval := c.Duration("interval")
	if interval < time.Duration(config.MinRefreshSeconds)*time.Second {
		interval = time.Duration(config.MinRefreshSeconds) * time.Second
	}

	cl := &collector{
		source:    source,
		repo:      db.NewAircraftRepository(database),
		database:  database,
		cfg:       cfg,
		retry:     adsb.DefaultRetryConfig(),
		retention: c.Duration("retention"),
		now:       time.Now,
	}
	log.Info().Str("section", "collect").
		Str("source", source.Name()).
		Dur("interval", interval).
		Dur("retention", cl.retention).
		Msg("Collecting")
	return cl.run(ctx, interval)
}
