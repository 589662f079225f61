// Package logging configures the global zerolog logger from CLI flags.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

const (
	VeryVerbose = "vv"
	Debug       = "debug"
	Quiet       = "quiet"
	LogFile     = "log-file"
)

// IncludeVerbosityFlags adds the logging flags to an app.
func IncludeVerbosityFlags(app *cli.App) {
	app.Flags = append(app.Flags,
		&cli.BoolFlag{
			Name:    Debug,
			Usage:   "Show extra debug information",
			EnvVars: []string{"DEBUG"},
		},
		&cli.BoolFlag{
			Name:  VeryVerbose,
			Usage: "Show trace level output, including every HTTP request",
		},
		&cli.BoolFlag{
			Name:    Quiet,
			Usage:   "Only show important messages",
			EnvVars: []string{"QUIET"},
		},
		&cli.StringFlag{
			Name:    LogFile,
			Usage:   "Write logs to this file instead of stderr (full screen modes default to one)",
			EnvVars: []string{"LOG_FILE"},
		},
	)
}

// SetLoggingLevel picks the global level from the verbosity flags.
func SetLoggingLevel(c *cli.Context) {
	SetVerboseOrQuiet(c.Bool(VeryVerbose), c.Bool(Debug), c.Bool(Quiet))
}

// SetVerboseOrQuiet applies the most verbose of the requested levels.
func SetVerboseOrQuiet(trace, debug, quiet bool) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	switch {
	case trace:
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	case debug:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case quiet:
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	}
}

// ConfigureForCli switches to human readable console output on stderr.
func ConfigureForCli() {
	ConfigureForWriter(os.Stderr)
}

// ConfigureForWriter sends console formatted output to w.
func ConfigureForWriter(w io.Writer) {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.TimeOnly,
	}).With().Timestamp().Logger()
}

// ConfigureForFile appends JSON logs to path, which full screen modes need
// because stderr belongs to the terminal UI. Events are copied to every
// extra writer as well. The returned closer flushes the file.
func ConfigureForFile(path string, extra ...io.Writer) (io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	var w io.Writer = f
	if len(extra) > 0 {
		w = zerolog.MultiLevelWriter(append([]io.Writer{f}, extra...)...)
	}
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
	return f, nil
}

// DefaultLogFile is where full screen modes log when --log-file is unset.
func DefaultLogFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "skyradar", "skyradar.log")
}
