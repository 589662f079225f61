package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/unklstewy/skyradar/internal/session"
	"github.com/unklstewy/skyradar/pkg/adsb"
	"github.com/unklstewy/skyradar/pkg/config"
	"github.com/unklstewy/skyradar/pkg/geo"
	"github.com/unklstewy/skyradar/pkg/theme"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// TestHandleKey tests every binding against the session.
func TestHandleKey(t *testing.T) {
	s := newTestSession(t, &stubSource{aircraft: nearbyTraffic()})
	if err := s.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if res := handleKey(s, "+", now); res.Message != "Zoom 1.2x" {
		t.Errorf("Expected zoom in, got %+v", res)
	}
	if res := handleKey(s, "-", now); res.Message != "Zoom 1.0x" {
		t.Errorf("Expected zoom out, got %+v", res)
	}
	handleKey(s, "=", now)
	if res := handleKey(s, "0", now); res.Message != "Zoom reset" || s.Status().Scale != 1 {
		t.Errorf("Expected zoom reset, got %+v scale %v", res, s.Status().Scale)
	}

	if res := handleKey(s, "t", now); res.Message != "Trails off" || s.Status().ShowTrails {
		t.Errorf("Expected trails off, got %+v", res)
	}
	if res := handleKey(s, "a", now); res.Message != "Auto refresh off" || s.Status().AutoRefresh {
		t.Errorf("Expected auto refresh off, got %+v", res)
	}
	if res := handleKey(s, "l", now); res.Message != "Theme light" || s.Status().Theme != theme.Light {
		t.Errorf("Expected light theme, got %+v", res)
	}

	if s.Status().Trails != 2 {
		t.Fatalf("Expected 2 trails before clearing, got %d", s.Status().Trails)
	}
	if res := handleKey(s, "s", now); res.Message != "Removed 0 stale trails" {
		t.Errorf("Expected no stale trails, got %+v", res)
	}
	if res := handleKey(s, "c", now); res.Message != "Trails cleared" || s.Status().Trails != 0 {
		t.Errorf("Expected trails cleared, got %+v", res)
	}

	if res := handleKey(s, "r", now); !res.Refresh {
		t.Errorf("Expected refresh request, got %+v", res)
	}
	for _, key := range []string{"q", "esc", "ctrl+c"} {
		if res := handleKey(s, key, now); !res.Quit {
			t.Errorf("Expected %q to quit", key)
		}
	}
	if res := handleKey(s, "x", now); res.Handled {
		t.Errorf("Expected x to be ignored, got %+v", res)
	}
}

// TestHandleKeySettings tests the runtime settings bindings.
func TestHandleKeySettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	s := session.New(config.DefaultConfig(), &stubSource{aircraft: nearbyTraffic()},
		session.WithConfigPath(path),
		session.WithRetry(adsb.RetryConfig{MaxRetries: 0}))

	if res := handleKey(s, "]", now); res.Message != "Range 10 km" {
		t.Errorf("Expected range up, got %+v", res)
	}
	handleKey(s, "[", now)
	if res := handleKey(s, "[", now); res.Message != "Range 5 km" {
		t.Errorf("Expected range down, got %+v", res)
	}

	if res := handleKey(s, ">", now); res.Message != "Refresh every 40s" {
		t.Errorf("Expected longer interval, got %+v", res)
	}
	for i := 0; i < 5; i++ {
		handleKey(s, "<", now)
	}
	if got := s.Status().RefreshSeconds; got != config.MinRefreshSeconds {
		t.Errorf("Expected interval floor %d, got %d", config.MinRefreshSeconds, got)
	}

	res := handleKey(s, "p", now)
	if res.Message != "Location New York" || !res.Refresh {
		t.Errorf("Expected move to New York with a refresh, got %+v", res)
	}

	if res := handleKey(s, "w", now); res.Message != "Settings saved to "+path {
		t.Fatalf("Expected save, got %+v", res)
	}
	saved, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if saved.Location != geo.NewYork || saved.Radar.MaxRangeKm != 5 || saved.Refresh.IntervalSeconds != config.MinRefreshSeconds {
		t.Errorf("Unexpected saved settings %+v", saved)
	}

	res = handleKey(s, "d", now)
	if !res.Refresh || s.Status().Location != geo.SanFrancisco || s.Status().RangeKm != config.DefaultRangeKm {
		t.Errorf("Expected defaults restored, got %+v status %+v", res, s.Status())
	}
}

// TestHandleKeySaveWithoutPath tests that saving without a file is reported.
func TestHandleKeySaveWithoutPath(t *testing.T) {
	s := newTestSession(t, &stubSource{})
	if res := handleKey(s, "w", now); !strings.Contains(res.Message, "no configuration file") {
		t.Errorf("Expected save error, got %+v", res)
	}
}

// TestHandleKeyExport tests that e writes a GeoJSON file to the working directory.
func TestHandleKeyExport(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("Chdir failed: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	s := newTestSession(t, &stubSource{aircraft: nearbyTraffic()})
	if err := s.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	res := handleKey(s, "e", now)
	want := "skyradar-trails-20240601-120000.geojson"
	if res.Message != "Trails exported to "+want {
		t.Fatalf("Unexpected result %+v", res)
	}
	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("Failed to read export: %v", err)
	}
	if !strings.Contains(string(data), `"FeatureCollection"`) || !strings.Contains(string(data), `"abc123"`) {
		t.Errorf("Unexpected export %s", data)
	}
}

// TestWriteExportError tests that an unwritable path is reported.
func TestWriteExportError(t *testing.T) {
	s := newTestSession(t, &stubSource{})
	path := filepath.Join(t.TempDir(), "missing", "trails.geojson")
	if err := writeExport(s, path); err == nil {
		t.Error("Expected error writing into a missing directory")
	}
}

// TestStatusLine tests the footer summary.
func TestStatusLine(t *testing.T) {
	st := session.Status{
		Source:      "mock",
		Location:    geo.SanFrancisco,
		RangeKm:     8,
		Scale:       1.2,
		Aircraft:    3,
		Trails:      2,
		ShowTrails:  true,
		AutoRefresh: false,
		Theme:       theme.Dark,
		LastFetch:   now.Add(-5 * time.Second),
	}

	line := statusLine(st, now)
	for _, want := range []string{"mock", "37.7749, -122.4194", "8 km", "1.2x", "3 aircraft", "2 trails", "trails on", "auto off", "dark", "San Francisco", "updated 5s ago"} {
		if !strings.Contains(line, want) {
			t.Errorf("Expected %q in %q", want, line)
		}
	}

	st.LastFetch = time.Time{}
	st.Busy = true
	st.LastErr = errors.New("timeout")
	line = statusLine(st, now)
	for _, want := range []string{"updated never", "fetching", "error: timeout"} {
		if !strings.Contains(line, want) {
			t.Errorf("Expected %q in %q", want, line)
		}
	}
}
