package session

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/unklstewy/skyradar/pkg/adsb"
	"github.com/unklstewy/skyradar/pkg/config"
	"github.com/unklstewy/skyradar/pkg/geo"
	"github.com/unklstewy/skyradar/pkg/radar"
	"github.com/unklstewy/skyradar/pkg/theme"
)

var t0 = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type fakeSource struct {
	mu    sync.Mutex
	calls int
	fetch func(ctx context.Context, loc geo.Location, radiusKm float64) ([]adsb.Aircraft, error)
}

func (f *fakeSource) Fetch(ctx context.Context, loc geo.Location, radiusKm float64) ([]adsb.Aircraft, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.fetch(ctx, loc, radiusKm)
}

func (f *fakeSource) Name() string { return "fake" }
func (f *fakeSource) Close() error { return nil }

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func aircraftAt(icao string, p geo.Position) adsb.Aircraft {
	return adsb.Aircraft{ICAO24: icao, Position: &p}
}

func newTestSession(t *testing.T, src adsb.DataSource) (*Session, *clock) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Radar.MaxRangeKm = 50
	cfg.Radar.TrailLength = 3
	c := &clock{now: t0}
	s := New(cfg, src, WithClock(c.Now), WithRetry(adsb.RetryConfig{MaxRetries: 0}))
	return s, c
}

func TestFetchAppliesSnapshot(t *testing.T) {
	ref := geo.SanFrancisco
	src := &fakeSource{fetch: func(_ context.Context, loc geo.Location, radiusKm float64) ([]adsb.Aircraft, error) {
		if loc != ref || radiusKm != 50 {
			t.Errorf("Unexpected fetch arguments %+v %v", loc, radiusKm)
		}
		return []adsb.Aircraft{aircraftAt("abc123", ref.PointAt(10, 45)), {ICAO24: "nopos"}}, nil
	}}
	s, _ := newTestSession(t, src)

	if err := s.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	st := s.Status()
	if st.Aircraft != 2 {
		t.Errorf("Expected 2 aircraft, got %d", st.Aircraft)
	}
	if st.Trails != 1 {
		t.Errorf("Expected 1 trail (positioned aircraft only), got %d", st.Trails)
	}
	if !st.LastFetch.Equal(t0) {
		t.Errorf("Expected last fetch %v, got %v", t0, st.LastFetch)
	}
	if !s.HealthCheck() {
		t.Error("Expected healthy after successful fetch")
	}
}

func TestFetchErrorKeepsSnapshot(t *testing.T) {
	fail := false
	src := &fakeSource{fetch: func(context.Context, geo.Location, float64) ([]adsb.Aircraft, error) {
		if fail {
			return nil, errors.New("boom")
		}
		return []adsb.Aircraft{aircraftAt("abc123", geo.SanFrancisco.PointAt(1, 0))}, nil
	}}
	s, _ := newTestSession(t, src)

	if err := s.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	fail = true
	err := s.Fetch(context.Background())
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("Expected wrapped fetch error, got %v", err)
	}

	if got := len(s.Snapshot()); got != 1 {
		t.Errorf("Expected previous snapshot kept, got %d aircraft", got)
	}
	if s.HealthCheck() {
		t.Error("Expected unhealthy after failed fetch")
	}
	if s.Status().LastErr == nil {
		t.Error("Expected last error recorded")
	}
}

func TestFetchSkipsWhileBusy(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	src := &fakeSource{fetch: func(context.Context, geo.Location, float64) ([]adsb.Aircraft, error) {
		close(started)
		<-release
		return nil, nil
	}}
	s, _ := newTestSession(t, src)

	done := make(chan error, 1)
	go func() { done <- s.Fetch(context.Background()) }()
	<-started

	if !s.Busy() {
		t.Error("Expected session busy during fetch")
	}
	if err := s.Fetch(context.Background()); !errors.Is(err, ErrRefreshInProgress) {
		t.Errorf("Expected ErrRefreshInProgress, got %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Errorf("First fetch failed: %v", err)
	}
	if s.Busy() {
		t.Error("Expected session idle after fetch")
	}
	if src.calls != 1 {
		t.Errorf("Expected 1 source call, got %d", src.calls)
	}
}

func TestFetchDiscardsAfterLocationChange(t *testing.T) {
	var s *Session
	src := &fakeSource{fetch: func(context.Context, geo.Location, float64) ([]adsb.Aircraft, error) {
		if err := s.SetLocation(geo.London); err != nil {
			t.Errorf("SetLocation failed: %v", err)
		}
		return []adsb.Aircraft{aircraftAt("abc123", geo.SanFrancisco.Position())}, nil
	}}
	s, _ = newTestSession(t, src)

	if err := s.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if got := len(s.Snapshot()); got != 0 {
		t.Errorf("Expected stale snapshot discarded, got %d aircraft", got)
	}
}

func TestApplyTrails(t *testing.T) {
	s, c := newTestSession(t, &fakeSource{})
	ref := geo.SanFrancisco

	for i := 1; i <= 4; i++ {
		s.Apply([]adsb.Aircraft{aircraftAt("abc123", ref.PointAt(float64(i), 90))})
		c.Advance(time.Second)
	}

	trails := s.Trails()
	if len(trails) != 1 {
		t.Fatalf("Expected 1 trail, got %d", len(trails))
	}
	pts := trails[0].Points
	if len(pts) != 3 {
		t.Fatalf("Expected trail bounded to 3, got %d", len(pts))
	}
	if got := ref.DistanceTo(pts[0].Position); got < 1.99 || got > 2.01 {
		t.Errorf("Expected oldest kept point at 2 km, got %f", got)
	}
	if !pts[2].Timestamp.Equal(t0.Add(3 * time.Second)) {
		t.Errorf("Expected newest timestamp from clock, got %v", pts[2].Timestamp)
	}
}

func TestApplyIgnoresRepeatedReport(t *testing.T) {
	s, _ := newTestSession(t, &fakeSource{})
	ac := aircraftAt("abc123", geo.Tokyo.Position())
	ac.LastPositionTime = t0

	s.Apply([]adsb.Aircraft{ac})
	s.Apply([]adsb.Aircraft{ac})

	if got := len(s.Trails()[0].Points); got != 1 {
		t.Errorf("Expected repeated report to be ignored, got %d points", got)
	}
}

func TestApplyCopiesSnapshot(t *testing.T) {
	s, _ := newTestSession(t, &fakeSource{})
	in := []adsb.Aircraft{{ICAO24: "abc123", Callsign: "ONE"}}
	s.Apply(in)
	in[0].Callsign = "CHANGED"

	if got := s.Snapshot()[0].Callsign; got != "ONE" {
		t.Errorf("Expected session copy unaffected, got %q", got)
	}
}

func TestDue(t *testing.T) {
	s, c := newTestSession(t, &fakeSource{})

	if !s.Due() {
		t.Error("Expected refresh due before first fetch")
	}
	s.Apply(nil)
	if s.Due() {
		t.Error("Expected refresh not due right after apply")
	}
	c.Advance(29 * time.Second)
	if s.Due() {
		t.Error("Expected refresh not due after 29s")
	}
	c.Advance(time.Second)
	if !s.Due() {
		t.Error("Expected refresh due after 30s")
	}

	if s.ToggleAutoRefresh() {
		t.Error("Expected auto refresh off")
	}
	if s.Due() {
		t.Error("Expected refresh never due with auto refresh off")
	}
}

func TestDueAfterFailedFetch(t *testing.T) {
	src := &fakeSource{fetch: func(context.Context, geo.Location, float64) ([]adsb.Aircraft, error) {
		return nil, errors.New("429 too many requests")
	}}
	s, c := newTestSession(t, src)

	// one tick a second, as the front ends do
	for i := 0; i < 29; i++ {
		if s.Due() {
			_ = s.Fetch(context.Background())
		}
		c.Advance(time.Second)
	}
	if src.calls != 1 {
		t.Errorf("Expected 1 call in the first 29s, got %d", src.calls)
	}
	c.Advance(time.Second)
	if !s.Due() {
		t.Error("Expected retry due one interval after the failure")
	}
	if s.Status().LastFetch != (time.Time{}) {
		t.Error("Expected no successful fetch recorded")
	}
}

func TestDrawAndToggles(t *testing.T) {
	s, _ := newTestSession(t, &fakeSource{})
	ref := geo.SanFrancisco
	s.Apply([]adsb.Aircraft{aircraftAt("abc123", ref.PointAt(5, 0))})
	s.Apply([]adsb.Aircraft{aircraftAt("abc123", ref.PointAt(6, 0))})

	vp := radar.Viewport{Width: 800, Height: 600}
	before := testutil.ToFloat64(framesTotal)

	dl := s.Draw(vp)
	if n := len(dl.Layer(radar.LayerTrails)); n != 1 {
		t.Errorf("Expected 1 trail drawn, got %d", n)
	}
	if got := testutil.ToFloat64(framesTotal) - before; got != 1 {
		t.Errorf("Expected frame counter +1, got %v", got)
	}

	if s.ToggleTrails() {
		t.Error("Expected trails hidden after toggle")
	}
	if n := len(s.Draw(vp).Layer(radar.LayerTrails)); n != 0 {
		t.Errorf("Expected no trails drawn when hidden, got %d", n)
	}

	if got := s.CycleTheme(); got != theme.Light {
		t.Errorf("Expected light after dark, got %s", got)
	}
}

func TestZoom(t *testing.T) {
	s, _ := newTestSession(t, &fakeSource{})
	vp := radar.Viewport{Width: 800, Height: 600}

	if got := s.ZoomIn(); got != radar.ZoomStep {
		t.Errorf("Expected scale %v, got %v", radar.ZoomStep, got)
	}
	if f := s.Frame(vp); f.Scale != radar.ZoomStep || f.MaxRangeKm != 50 {
		t.Errorf("Unexpected frame %+v", f)
	}
	for i := 0; i < 30; i++ {
		s.ZoomOut()
	}
	if got := s.Status().Scale; got != radar.MinScale {
		t.Errorf("Expected scale clamped at %v, got %v", radar.MinScale, got)
	}
	s.ResetZoom()
	if got := s.Status().Scale; got != 1 {
		t.Errorf("Expected reset scale 1, got %v", got)
	}
}

func TestSweepAndClear(t *testing.T) {
	s, c := newTestSession(t, &fakeSource{})
	s.Apply([]adsb.Aircraft{aircraftAt("old", geo.London.Position())})
	c.Advance(10 * time.Minute)
	s.Apply([]adsb.Aircraft{aircraftAt("new", geo.London.PointAt(1, 0))})

	if n := s.SweepStale(5 * time.Minute); n != 1 {
		t.Errorf("Expected 1 stale trail removed, got %d", n)
	}
	if st := s.Status(); st.Trails != 1 {
		t.Errorf("Expected 1 trail left, got %d", st.Trails)
	}

	s.ClearTrails()
	if st := s.Status(); st.Trails != 0 {
		t.Errorf("Expected no trails after clear, got %d", st.Trails)
	}
}

func TestSetLocation(t *testing.T) {
	s, _ := newTestSession(t, &fakeSource{})
	s.Apply([]adsb.Aircraft{aircraftAt("abc123", geo.SanFrancisco.Position())})

	if err := s.SetLocation(geo.Location{Latitude: 91}); !errors.Is(err, config.ErrInvalidLocation) {
		t.Errorf("Expected ErrInvalidLocation, got %v", err)
	}
	if s.Status().Aircraft != 1 {
		t.Error("Expected invalid location to leave state untouched")
	}

	if err := s.SetLocation(geo.Sydney); err != nil {
		t.Fatalf("SetLocation failed: %v", err)
	}
	st := s.Status()
	if st.Location != geo.Sydney || st.Aircraft != 0 || st.Trails != 0 {
		t.Errorf("Expected fresh state at Sydney, got %+v", st)
	}
	if !s.Due() {
		t.Error("Expected refresh due after moving")
	}
}

func TestContacts(t *testing.T) {
	s, _ := newTestSession(t, &fakeSource{})
	ref := geo.SanFrancisco
	s.Apply([]adsb.Aircraft{
		aircraftAt("far", ref.PointAt(30, 180)),
		aircraftAt("out", ref.PointAt(80, 0)),
		{ICAO24: "nopos"},
		aircraftAt("near", ref.PointAt(5, 90)),
	})

	got := s.Contacts()
	if len(got) != 2 {
		t.Fatalf("Expected 2 contacts in range, got %d", len(got))
	}
	if got[0].Aircraft.ICAO24 != "near" || got[1].Aircraft.ICAO24 != "far" {
		t.Errorf("Expected nearest first, got %s, %s", got[0].Aircraft.ICAO24, got[1].Aircraft.ICAO24)
	}
	if b := got[0].BearingDeg; b < 89 || b > 91 {
		t.Errorf("Expected bearing near 90, got %f", b)
	}
}

func TestExportGeoJSON(t *testing.T) {
	s, c := newTestSession(t, &fakeSource{})
	s.Apply([]adsb.Aircraft{aircraftAt("abc123", geo.London.Position())})
	c.Advance(time.Second)
	s.Apply([]adsb.Aircraft{aircraftAt("abc123", geo.London.PointAt(1, 0))})

	data, err := s.ExportGeoJSON()
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, `"FeatureCollection"`) || !strings.Contains(out, `"LineString"`) {
		t.Errorf("Unexpected GeoJSON %s", out)
	}
}

func TestCyclePreset(t *testing.T) {
	s, _ := newTestSession(t, &fakeSource{})
	s.Apply([]adsb.Aircraft{aircraftAt("abc123", geo.SanFrancisco.Position())})

	if got := s.CyclePreset(); got != geo.NewYork {
		t.Errorf("Expected New York after San Francisco, got %+v", got)
	}
	if st := s.Status(); st.Aircraft != 0 || st.Trails != 0 {
		t.Errorf("Expected state dropped after moving, got %+v", st)
	}
	for i := 0; i < 4; i++ {
		s.CyclePreset()
	}
	if got := s.Status().Location; got != geo.SanFrancisco {
		t.Errorf("Expected cycle back to San Francisco, got %+v", got)
	}

	if err := s.SetLocation(geo.Location{Latitude: 1, Longitude: 2}); err != nil {
		t.Fatalf("SetLocation failed: %v", err)
	}
	if got := s.CyclePreset(); got != geo.SanFrancisco {
		t.Errorf("Expected first preset from a custom location, got %+v", got)
	}
}

func TestRangeSteps(t *testing.T) {
	s, _ := newTestSession(t, &fakeSource{})
	if got := s.RangeUp(); got != 75 {
		t.Errorf("Expected 75 after 50, got %v", got)
	}
	s.RangeUp()
	if got := s.RangeUp(); got != 100 {
		t.Errorf("Expected range to stop at 100, got %v", got)
	}

	s.SetRange(9)
	if got := s.RangeDown(); got != 8 {
		t.Errorf("Expected 8 below 9, got %v", got)
	}
	s.SetRange(1)
	if got := s.RangeDown(); got != 1 {
		t.Errorf("Expected range to stop at 1, got %v", got)
	}
}

func TestSetRefreshInterval(t *testing.T) {
	s, c := newTestSession(t, &fakeSource{})
	if got := s.SetRefreshInterval(5); got != config.MinRefreshSeconds {
		t.Errorf("Expected minimum %d, got %d", config.MinRefreshSeconds, got)
	}
	s.SetRefreshInterval(60)
	s.Apply(nil)
	c.Advance(30 * time.Second)
	if s.Due() {
		t.Error("Expected the new interval to apply")
	}
	if st := s.Status(); st.RefreshSeconds != 60 {
		t.Errorf("Expected 60s in status, got %d", st.RefreshSeconds)
	}
}

func TestResetDefaults(t *testing.T) {
	s, _ := newTestSession(t, &fakeSource{})
	_ = s.SetLocation(geo.Tokyo)
	s.ZoomIn()
	s.CycleTheme()
	s.SetRefreshInterval(120)

	s.ResetDefaults()
	st := s.Status()
	d := config.DefaultConfig()
	if st.Location != d.Location || st.RangeKm != d.Radar.MaxRangeKm || st.Scale != 1 ||
		st.Theme != theme.Dark || st.RefreshSeconds != d.Refresh.IntervalSeconds {
		t.Errorf("Expected defaults, got %+v", st)
	}
	if st.Source != "fake" {
		t.Errorf("Expected source kept, got %q", st.Source)
	}
}

func TestSaveConfig(t *testing.T) {
	s, _ := newTestSession(t, &fakeSource{})
	if _, err := s.SaveConfig(); err == nil {
		t.Error("Expected error without a configuration file")
	}

	path := filepath.Join(t.TempDir(), "skyradar", "config.json")
	cfg := config.DefaultConfig()
	s = New(cfg, &fakeSource{}, WithConfigPath(path))
	_ = s.SetLocation(geo.London)
	s.SetRange(25)
	s.ZoomIn()

	got, err := s.SaveConfig()
	if err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}
	if got != path {
		t.Errorf("Expected %s, got %s", path, got)
	}
	loaded, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Location != geo.London || loaded.Radar.MaxRangeKm != 25 || loaded.Radar.Scale != 1.2 {
		t.Errorf("Unexpected saved config %+v", loaded)
	}
}

func TestSetRange(t *testing.T) {
	s, _ := newTestSession(t, &fakeSource{})
	if got := s.SetRange(500); got != 100 {
		t.Errorf("Expected range clamped to 100, got %v", got)
	}
}
