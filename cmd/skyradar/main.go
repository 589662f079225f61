package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/unklstewy/skyradar/internal/canvas"
	"github.com/unklstewy/skyradar/internal/db"
	"github.com/unklstewy/skyradar/internal/logging"
	"github.com/unklstewy/skyradar/internal/monitoring"
	"github.com/unklstewy/skyradar/internal/session"
	"github.com/unklstewy/skyradar/pkg/adsb"
	"github.com/unklstewy/skyradar/pkg/config"
	"github.com/unklstewy/skyradar/pkg/geo"
	"github.com/unklstewy/skyradar/pkg/radar"
)

const (
	flagConfig   = "config"
	flagSource   = "source"
	flagLat      = "lat"
	flagLon      = "lon"
	flagName     = "name"
	flagPreset   = "preset"
	flagRange    = "range"
	flagUnits    = "units"
	flagNoTrails = "no-trails"
)

var version = "dev"

func main() {
	app := cli.NewApp()
	app.Name = "skyradar"
	app.Version = version
	app.Usage = "Terminal radar scope for nearby aircraft"
	app.Description = `Polls a live ADS-B feed around a reference location and draws the traffic ` +
		`on a polar radar scope with range rings, compass points and position trails.` +
		"\n\n" +
		`example: ./skyradar --preset london --range 25 tui`

	app.Commands = cli.Commands{
		{
			Name:        "tui",
			Usage:       "Full screen radar",
			Description: "Bubble Tea radar. Logs go to --log-file.",
			Action:      runTui,
		},
		{
			Name:        "view",
			Usage:       "Radar with aircraft table, status and log panels",
			Description: "tview dashboard. Logs go to --log-file and the Logs panel.",
			Action:      runView,
		},
		{
			Name:   "list",
			Usage:  "Fetch once and print the aircraft in range, nearest first",
			Action: runList,
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "radar",
					Usage: "Also print the radar scope as text",
				},
				&cli.IntFlag{
					Name:  "width",
					Usage: "Radar width in columns",
					Value: 60,
				},
			},
		},
		{
			Name:   "collect",
			Usage:  "Poll the configured live source into PostgreSQL",
			Action: runCollect,
			Flags: []cli.Flag{
				&cli.DurationFlag{
					Name:    "interval",
					Usage:   "Time between fetches",
					Value:   30 * time.Second,
					EnvVars: []string{"COLLECT_INTERVAL"},
				},
				&cli.DurationFlag{
					Name:    "retention",
					Usage:   "Delete aircraft not seen for this long",
					Value:   24 * time.Hour,
					EnvVars: []string{"COLLECT_RETENTION"},
				},
			},
		},
		{
			Name:   "export",
			Usage:  "Refresh a number of times and write the trails as GeoJSON",
			Action: runExport,
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  "refreshes",
					Usage: "Number of fetches to accumulate trails over",
					Value: 5,
				},
				&cli.DurationFlag{
					Name:  "interval",
					Usage: "Time between fetches (defaults to the configured refresh interval)",
				},
				&cli.StringFlag{
					Name:    "output",
					Aliases: []string{"o"},
					Usage:   "File to write, - for stdout",
					Value:   "-",
				},
			},
		},
		{
			Name:  "config",
			Usage: "Manage the configuration file",
			Subcommands: cli.Commands{
				{
					Name:   "init",
					Usage:  "Write the default configuration",
					Action: runConfigInit,
					Flags: []cli.Flag{
						&cli.BoolFlag{
							Name:  "force",
							Usage: "Overwrite an existing file",
						},
					},
				},
				{
					Name:   "show",
					Usage:  "Print the effective configuration",
					Action: runConfigShow,
				},
			},
		},
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    flagConfig,
			Usage:   "Configuration file",
			Value:   config.DefaultPath(),
			EnvVars: []string{"SKYRADAR_CONFIG"},
		},
		&cli.StringFlag{
			Name:  flagSource,
			Usage: "Data source: opensky, airplanes.live, mock or database",
		},
		&cli.Float64Flag{
			Name:  flagLat,
			Usage: "Reference latitude",
		},
		&cli.Float64Flag{
			Name:  flagLon,
			Usage: "Reference longitude",
		},
		&cli.StringFlag{
			Name:  flagName,
			Usage: "Reference location name",
		},
		&cli.StringFlag{
			Name:  flagPreset,
			Usage: "Preset location: san francisco, new york, london, tokyo or sydney",
		},
		&cli.Float64Flag{
			Name:  flagRange,
			Usage: "Radar range in km (1 to 100)",
		},
		&cli.StringFlag{
			Name:  flagUnits,
			Usage: "Ring label units: km, mi or nm",
		},
		&cli.BoolFlag{
			Name:  flagNoTrails,
			Usage: "Start with trails hidden",
		},
	}
	logging.IncludeVerbosityFlags(app)
	monitoring.IncludeMonitoringFlags(app, 0)

	app.Before = func(c *cli.Context) error {
		logging.SetLoggingLevel(c)
		logging.ConfigureForCli()
		return nil
	}

	if err := app.Run(os.Args); err != nil {
		log.Error().Err(err).Send()
		os.Exit(1)
	}
}

// loadConfig reads the configuration file and applies the global flags.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String(flagConfig))
	if err != nil {
		return nil, err
	}
	if err := applyFlags(c, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyFlags(c *cli.Context, cfg *config.Config) error {
	if c.IsSet(flagSource) {
		cfg.Source.Type = c.String(flagSource)
	}

	loc := cfg.Location
	if c.IsSet(flagPreset) {
		preset, ok := geo.LookupPreset(c.String(flagPreset))
		if !ok {
			return fmt.Errorf("unknown preset location %q", c.String(flagPreset))
		}
		loc = preset
	}
	if c.IsSet(flagLat) {
		loc.Latitude = c.Float64(flagLat)
	}
	if c.IsSet(flagLon) {
		loc.Longitude = c.Float64(flagLon)
	}
	// a name belongs to the coordinates it came with
	if c.IsSet(flagLat) || c.IsSet(flagLon) {
		loc.Name = ""
	}
	if c.IsSet(flagName) {
		loc.Name = c.String(flagName)
	}
	if err := cfg.SetLocation(loc); err != nil {
		return err
	}

	if c.IsSet(flagRange) {
		cfg.SetRadarRange(c.Float64(flagRange))
	}
	if c.IsSet(flagUnits) {
		u, err := radar.ParseUnits(c.String(flagUnits))
		if err != nil {
			return err
		}
		cfg.Radar.Units = u.String()
	}
	if c.Bool(flagNoTrails) {
		cfg.Radar.ShowTrails = false
	}
	return nil
}

// startMonitoring serves /metrics and /status in the background. The flags
// win over metrics.address from the configuration file.
func startMonitoring(ctx context.Context, c *cli.Context, cfg *config.Config) {
	addr := monitoring.Address(c)
	if addr == "" && !c.IsSet(monitoring.MetricsPort) {
		addr = cfg.Metrics.Address
	}
	if addr == "" {
		return
	}
	go func() {
		if err := monitoring.Serve(ctx, addr); err != nil {
			log.Error().Err(err).Str("section", "monitoring").Msg("Metrics server failed")
		}
	}()
}

// newSource builds the configured data source. The database source needs a
// live connection, so it is not available from adsb.NewSource.
func newSource(ctx context.Context, cfg *config.Config) (adsb.DataSource, error) {
	if cfg.Source.Type == db.SourceName {
		database, err := db.ReconnectWithRetry(ctx, cfg.Database, 3, time.Second)
		if err != nil {
			return nil, err
		}
		monitoring.AddHealthCheck(database)
		return db.NewAircraftRepository(database), nil
	}
	return adsb.NewSource(cfg.Source.Type, cfg.Source.ClientConfig())
}

// newSession wires a terminal styled session over the configured source.
func newSession(ctx context.Context, cfg *config.Config, opts ...session.Option) (*session.Session, error) {
	source, err := newSource(ctx, cfg)
	if err != nil {
		return nil, err
	}
	renderer := radar.NewRenderer()
	renderer.Style = canvas.TerminalStyle()

	s := session.New(cfg, source, append([]session.Option{session.WithRenderer(renderer)}, opts...)...)
	monitoring.AddHealthCheck(s)
	return s, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// fullScreenLogging moves logging off the terminal for the full screen
// front ends, optionally mirroring it into extra writers.
func fullScreenLogging(c *cli.Context, extra ...io.Writer) (func(), error) {
	path := c.String(logging.LogFile)
	if path == "" {
		path = logging.DefaultLogFile()
	}
	closer, err := logging.ConfigureForFile(path, extra...)
	if err != nil {
		return nil, err
	}
	return func() { _ = closer.Close() }, nil
}
