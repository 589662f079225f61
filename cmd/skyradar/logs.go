package main

import (
	"fmt"
	"strings"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/rivo/tview"
	"github.com/rs/zerolog"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// LogPanel shows zerolog output in a tview text view. It is an io.Writer
// for JSON log events, so it can sit behind a zerolog multi-level writer
// next to the log file.
type LogPanel struct {
	textView *tview.TextView

	// mu protects lines
	mu       sync.Mutex
	lines    []string
	maxLines int
}

// NewLogPanel creates a log panel that keeps the last maxLines lines.
func NewLogPanel(maxLines int) *LogPanel {
	textView := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetMaxLines(maxLines)
	textView.SetBorder(true).SetTitle(" Logs ")

	return &LogPanel{
		textView: textView,
		maxLines: maxLines,
	}
}

// View returns the tview component.
func (lp *LogPanel) View() tview.Primitive {
	return lp.textView
}

// Write decodes one zerolog JSON event and appends it as a coloured line.
// Input that is not JSON is shown as is. The text view is safe to write
// from any goroutine; it shows up on the next redraw.
func (lp *LogPanel) Write(p []byte) (int, error) {
	line := formatEvent(p)

	lp.mu.Lock()
	lp.lines = append(lp.lines, line)
	if len(lp.lines) > lp.maxLines {
		lp.lines = lp.lines[len(lp.lines)-lp.maxLines:]
	}
	lp.mu.Unlock()

	if _, err := fmt.Fprintln(lp.textView, line); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Lines returns a copy of the buffered lines.
func (lp *LogPanel) Lines() []string {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	return append([]string(nil), lp.lines...)
}

func formatEvent(p []byte) string {
	var event map[string]interface{}
	if err := json.Unmarshal(p, &event); err != nil {
		return tview.Escape(strings.TrimSpace(string(p)))
	}

	level, _ := event[zerolog.LevelFieldName].(string)
	msg, _ := event[zerolog.MessageFieldName].(string)
	ts := time.Now()
	if raw, ok := event[zerolog.TimestampFieldName].(string); ok {
		if t, err := time.Parse(zerolog.TimeFieldFormat, raw); err == nil {
			ts = t
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[gray]%s[-] [%s]%-5s[-] %s", ts.Format(time.TimeOnly), levelColor(level), strings.ToUpper(level), tview.Escape(msg))
	if errMsg, ok := event[zerolog.ErrorFieldName].(string); ok {
		fmt.Fprintf(&b, " [red]%s[-]", tview.Escape(errMsg))
	}
	return b.String()
}

func levelColor(level string) string {
	switch level {
	case "trace", "debug":
		return "gray"
	case "warn":
		return "yellow"
	case "error", "fatal", "panic":
		return "red"
	default:
		return "white"
	}
}
