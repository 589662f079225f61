package main

import (
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

// TestFormatEvent tests the conversion of zerolog JSON to panel lines.
func TestFormatEvent(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "info",
			input: `{"level":"info","time":"2024-06-01T12:00:00Z","message":"Snapshot applied"}`,
			want:  []string{"[gray]12:00:00[-]", "[white]INFO [-]", "Snapshot applied"},
		},
		{
			name:  "warn",
			input: `{"level":"warn","time":"2024-06-01T12:00:01Z","message":"Refresh failed","error":"timeout"}`,
			want:  []string{"[yellow]WARN [-]", "Refresh failed", "[red]timeout[-]"},
		},
		{
			name:  "error",
			input: `{"level":"error","message":"boom"}`,
			want:  []string{"[red]ERROR[-]", "boom"},
		},
		{
			name:  "debug",
			input: `{"level":"debug","message":"tick"}`,
			want:  []string{"[gray]DEBUG[-]"},
		},
		{
			name:  "escapes colour tags",
			input: `{"level":"info","message":"[red]not a tag"}`,
			want:  []string{"[red[]not a tag"},
		},
		{
			name:  "plain text",
			input: "not json\n",
			want:  []string{"not json"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatEvent([]byte(tt.input))
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("Expected %q in %q", w, got)
				}
			}
		})
	}
}

// TestLogPanelKeepsLastLines tests that the panel is bounded.
func TestLogPanelKeepsLastLines(t *testing.T) {
	lp := NewLogPanel(3)
	logger := zerolog.New(lp)
	for i := 1; i <= 5; i++ {
		logger.Info().Msg(fmt.Sprintf("line %d", i))
	}

	lines := lp.Lines()
	if len(lines) != 3 {
		t.Fatalf("Expected 3 lines, got %d", len(lines))
	}
	for i, want := range []string{"line 3", "line 4", "line 5"} {
		if !strings.Contains(lines[i], want) {
			t.Errorf("Line %d: expected %q in %q", i, want, lines[i])
		}
	}
}
