package main

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/unklstewy/skyradar/internal/session"
)

func runExport(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	s, err := newSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	interval := c.Duration("interval")
	if interval <= 0 {
		interval = cfg.Refresh.Interval()
	}
	if err := collectTrails(ctx, s, c.Int("refreshes"), interval); err != nil {
		return err
	}
	return writeExport(s, c.String("output"))
}

// collectTrails fetches n times, interval apart. Failed fetches are logged
// and skipped; an interrupt stops early and keeps what was gathered.
func collectTrails(ctx context.Context, s *session.Session, n int, interval time.Duration) error {
	logger := log.With().Str("section", "export").Logger()
	if n < 1 {
		n = 1
	}

	var ok int
	for i := 0; i < n; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				logger.Warn().Int("refreshes", i).Msg("Interrupted, exporting partial trails")
				return nil
			case <-time.After(interval):
			}
		}

		if err := s.Fetch(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			logger.Warn().Err(err).Int("refresh", i+1).Msg("Refresh failed")
			continue
		}
		ok++
		st := s.Status()
		logger.Info().Int("refresh", i+1).Int("aircraft", st.Aircraft).Int("trails", st.Trails).Msg("Refreshed")
	}

	if ok == 0 {
		return errors.New("every refresh failed, nothing to export")
	}
	return nil
}
