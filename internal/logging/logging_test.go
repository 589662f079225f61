package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestSetVerboseOrQuiet(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	tests := []struct {
		name                string
		trace, debug, quiet bool
		want                zerolog.Level
	}{
		{"default", false, false, false, zerolog.InfoLevel},
		{"debug", false, true, false, zerolog.DebugLevel},
		{"trace wins", true, true, false, zerolog.TraceLevel},
		{"quiet", false, false, true, zerolog.ErrorLevel},
		{"debug beats quiet", false, true, true, zerolog.DebugLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			SetVerboseOrQuiet(tt.trace, tt.debug, tt.quiet)
			if got := zerolog.GlobalLevel(); got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestConfigureForWriter(t *testing.T) {
	saved := log.Logger
	defer func() { log.Logger = saved }()

	var buf bytes.Buffer
	ConfigureForWriter(&buf)
	log.Info().Str("section", "test").Msg("hello radar")

	out := buf.String()
	if !strings.Contains(out, "hello radar") || !strings.Contains(out, "section=test") {
		t.Errorf("Unexpected console output %q", out)
	}
}

func TestConfigureForFile(t *testing.T) {
	saved := log.Logger
	defer func() { log.Logger = saved }()

	path := filepath.Join(t.TempDir(), "logs", "skyradar.log")
	closer, err := ConfigureForFile(path)
	if err != nil {
		t.Fatalf("Failed to configure file logging: %v", err)
	}
	log.Warn().Msg("written to file")
	if err := closer.Close(); err != nil {
		t.Fatalf("Failed to close log file: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), `"message":"written to file"`) {
		t.Errorf("Expected JSON log line, got %q", data)
	}
}

func TestConfigureForFileWithExtraWriter(t *testing.T) {
	saved := log.Logger
	defer func() { log.Logger = saved }()

	var panel bytes.Buffer
	path := filepath.Join(t.TempDir(), "skyradar.log")
	closer, err := ConfigureForFile(path, &panel)
	if err != nil {
		t.Fatalf("Failed to configure file logging: %v", err)
	}
	defer closer.Close()

	log.Info().Msg("mirrored")
	if !strings.Contains(panel.String(), `"message":"mirrored"`) {
		t.Errorf("Expected event in extra writer, got %q", panel.String())
	}
}
