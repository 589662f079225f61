// Package session owns the radar state shared by the front ends: the
// reference location, the latest aircraft snapshot, the trail store and the
// zoom level. Front ends fetch on their own goroutines and draw on the UI
// goroutine; a Session serialises both.
package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/unklstewy/skyradar/pkg/adsb"
	"github.com/unklstewy/skyradar/pkg/config"
	"github.com/unklstewy/skyradar/pkg/geo"
	"github.com/unklstewy/skyradar/pkg/radar"
	"github.com/unklstewy/skyradar/pkg/theme"
	"github.com/unklstewy/skyradar/pkg/trail"
)

// ErrRefreshInProgress is returned by Fetch while another fetch is running.
var ErrRefreshInProgress = errors.New("refresh already in progress")

// Session is safe for concurrent use.
type Session struct {
	mu sync.Mutex

	cfg      config.Config
	source   adsb.DataSource
	trails   *trail.Store
	renderer *radar.Renderer
	retry    adsb.RetryConfig
	now      func() time.Time
	log      zerolog.Logger

	snapshot    []adsb.Aircraft
	scale       float64
	lastFetch   time.Time
	lastAttempt time.Time
	lastErr     error
	configPath  string

	busy atomic.Bool
}

// Option customises a Session.
type Option func(*Session)

// WithRenderer replaces the default renderer, e.g. with a terminal style.
func WithRenderer(r *radar.Renderer) Option {
	return func(s *Session) { s.renderer = r }
}

// WithRetry sets the fetch retry policy.
func WithRetry(rc adsb.RetryConfig) Option {
	return func(s *Session) { s.retry = rc }
}

// WithClock sets the time source used for trail timestamps and refresh
// scheduling.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithConfigPath sets the file SaveConfig writes to.
func WithConfigPath(path string) Option {
	return func(s *Session) { s.configPath = path }
}

// New creates a session over a copy of cfg.
func New(cfg *config.Config, source adsb.DataSource, opts ...Option) *Session {
	s := &Session{
		cfg:      *cfg,
		source:   source,
		trails:   trail.NewStore(),
		renderer: radar.NewRenderer(),
		retry:    adsb.DefaultRetryConfig(),
		now:      time.Now,
		scale:    radar.ClampScale(cfg.Radar.Scale),
		log:      log.With().Str("section", "session").Str("source", source.Name()).Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch polls the data source and applies the result. Only one fetch runs
// at a time; a concurrent call returns ErrRefreshInProgress without
// waiting. On failure the previous snapshot is kept.
func (s *Session) Fetch(ctx context.Context) error {
	if !s.busy.CompareAndSwap(false, true) {
		return ErrRefreshInProgress
	}
	defer s.busy.Store(false)

	s.mu.Lock()
	loc := s.cfg.Location
	rangeKm := s.cfg.Radar.MaxRangeKm
	// failures count too, so a failing source is retried on the interval
	s.lastAttempt = s.now()
	s.mu.Unlock()

	start := time.Now()
	aircraft, err := adsb.RetryWithBackoffResult(ctx, s.retry, func() ([]adsb.Aircraft, error) {
		return s.source.Fetch(ctx, loc, rangeKm)
	})
	fetchDuration.WithLabelValues(s.source.Name()).Observe(time.Since(start).Seconds())

	if err != nil {
		fetchTotal.WithLabelValues(s.source.Name(), "error").Inc()
		s.mu.Lock()
		s.lastErr = err
		s.mu.Unlock()
		s.log.Error().Err(err).Msg("Failed to fetch aircraft")
		return fmt.Errorf("failed to fetch aircraft: %w", err)
	}
	fetchTotal.WithLabelValues(s.source.Name(), "ok").Inc()

	s.mu.Lock()
	defer s.mu.Unlock()
	// the location may have moved while the request was out
	if s.cfg.Location != loc {
		s.log.Debug().Msg("Discarding snapshot for previous location")
		return nil
	}
	s.apply(aircraft)
	s.lastErr = nil
	s.log.Debug().Int("aircraft", len(aircraft)).Msg("Snapshot applied")
	return nil
}

// Apply replaces the snapshot and extends the trails from it.
func (s *Session) Apply(aircraft []adsb.Aircraft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apply(aircraft)
}

func (s *Session) apply(aircraft []adsb.Aircraft) {
	now := s.now()
	s.snapshot = append([]adsb.Aircraft(nil), aircraft...)
	s.lastFetch = now
	s.lastAttempt = now

	for _, ac := range s.snapshot {
		if ac.Position == nil {
			continue
		}
		ts := ac.LastPositionTime
		if ts.IsZero() {
			ts = now
		}
		// the same report seen twice does not extend the trail
		if last, ok := s.trails.Last(ac.ICAO24); ok && last.Position == *ac.Position && last.Timestamp.Equal(ts) {
			continue
		}
		s.trails.Update(ac.ICAO24, *ac.Position, ts, s.cfg.Radar.TrailLength)
	}

	aircraftGauge.Set(float64(len(s.snapshot)))
	trailsGauge.Set(float64(s.trails.Len()))
}

// Due reports whether an automatic refresh should run now. The interval
// runs from the last attempt, successful or not.
func (s *Session) Due() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.cfg.Refresh.AutoRefresh {
		return false
	}
	return s.lastAttempt.IsZero() || s.now().Sub(s.lastAttempt) >= s.cfg.Refresh.Interval()
}

// Busy reports whether a fetch is running.
func (s *Session) Busy() bool {
	return s.busy.Load()
}

// Frame computes the frame for a viewport at the current zoom.
func (s *Session) Frame(vp radar.Viewport) radar.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return radar.NewFrame(vp, s.cfg.Radar.MaxRangeKm, s.scale)
}

// Draw builds the draw list for one frame.
func (s *Session) Draw(vp radar.Viewport) *radar.DrawList {
	s.mu.Lock()
	defer s.mu.Unlock()

	f := radar.NewFrame(vp, s.cfg.Radar.MaxRangeKm, s.scale)
	dl := s.renderer.Draw(f, s.cfg.Location, s.snapshot, s.trails, radar.Options{
		ShowTrails: s.cfg.Radar.ShowTrails,
		Theme:      s.cfg.Radar.ThemeValue(),
		Units:      s.cfg.Radar.UnitsValue(),
	})
	framesTotal.Inc()
	return dl
}

// Snapshot returns a copy of the latest aircraft list.
func (s *Session) Snapshot() []adsb.Aircraft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]adsb.Aircraft(nil), s.snapshot...)
}

// Contact is an aircraft with its position relative to the reference.
type Contact struct {
	Aircraft   adsb.Aircraft
	DistanceKm float64
	BearingDeg float64
}

// Contacts returns the positioned aircraft within range, nearest first.
func (s *Session) Contacts() []Contact {
	s.mu.Lock()
	defer s.mu.Unlock()
	return contacts(s.snapshot, s.cfg.Location, s.cfg.Radar.MaxRangeKm)
}

func contacts(snapshot []adsb.Aircraft, ref geo.Location, maxRangeKm float64) []Contact {
	out := make([]Contact, 0, len(snapshot))
	for _, ac := range snapshot {
		if ac.Position == nil {
			continue
		}
		d := ref.DistanceTo(*ac.Position)
		if d > maxRangeKm {
			continue
		}
		out = append(out, Contact{Aircraft: ac, DistanceKm: d, BearingDeg: ref.BearingTo(*ac.Position)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DistanceKm != out[j].DistanceKm {
			return out[i].DistanceKm < out[j].DistanceKm
		}
		return out[i].Aircraft.ICAO24 < out[j].Aircraft.ICAO24
	})
	return out
}

// ZoomIn magnifies the plot by one step and returns the new scale.
func (s *Session) ZoomIn() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scale = radar.ZoomIn(s.scale)
	return s.scale
}

// ZoomOut shrinks the plot by one step and returns the new scale.
func (s *Session) ZoomOut() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scale = radar.ZoomOut(s.scale)
	return s.scale
}

// ResetZoom returns to scale 1.
func (s *Session) ResetZoom() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scale = 1
}

// ToggleTrails flips trail drawing and returns the new state.
func (s *Session) ToggleTrails() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.ToggleTrails()
}

// ToggleAutoRefresh flips periodic polling and returns the new state.
func (s *Session) ToggleAutoRefresh() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.ToggleAutoRefresh()
}

// CycleTheme moves to the next theme and returns it.
func (s *Session) CycleTheme() theme.Theme {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.cfg.Radar.ThemeValue().Next()
	s.cfg.SetTheme(t)
	return t
}

// ClearTrails forgets every trail.
func (s *Session) ClearTrails() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trails.ClearAll()
	trailsGauge.Set(0)
}

// SweepStale removes trails whose newest point is older than maxAge and
// returns how many were removed.
func (s *Session) SweepStale(maxAge time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.trails.Sweep(trail.OlderThan(s.now(), maxAge))
	trailsGauge.Set(float64(s.trails.Len()))
	if n > 0 {
		s.log.Debug().Int("removed", n).Msg("Swept stale trails")
	}
	return n
}

// SetLocation moves the reference. Trails and the snapshot belong to the
// old location and are dropped.
func (s *Session) SetLocation(loc geo.Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.cfg.SetLocation(loc); err != nil {
		return err
	}
	s.resetData()
	return nil
}

func (s *Session) resetData() {
	s.snapshot = nil
	s.lastFetch = time.Time{}
	s.lastAttempt = time.Time{}
	s.trails.ClearAll()
	trailsGauge.Set(0)
	aircraftGauge.Set(0)
}

// CyclePreset moves to the preset after the current location, or to the
// first preset when the current location is not one.
func (s *Session) CyclePreset() geo.Location {
	s.mu.Lock()
	defer s.mu.Unlock()
	presets := geo.Presets()
	next := presets[0]
	for i, p := range presets {
		if p == s.cfg.Location {
			next = presets[(i+1)%len(presets)]
			break
		}
	}
	// presets are always valid
	_ = s.cfg.SetLocation(next)
	s.resetData()
	return next
}

// SetRange changes the radar range (clamped by the configuration).
func (s *Session) SetRange(km float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.SetRadarRange(km)
	return s.cfg.Radar.MaxRangeKm
}

// RangeSteps are the ranges stepped through by RangeUp and RangeDown.
var RangeSteps = []float64{1, 2, 5, 8, 10, 15, 20, 25, 50, 75, 100}

// RangeUp moves to the next larger step and returns the new range.
func (s *Session) RangeUp() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, step := range RangeSteps {
		if step > s.cfg.Radar.MaxRangeKm {
			s.cfg.SetRadarRange(step)
			break
		}
	}
	return s.cfg.Radar.MaxRangeKm
}

// RangeDown moves to the next smaller step and returns the new range.
func (s *Session) RangeDown() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(RangeSteps) - 1; i >= 0; i-- {
		if RangeSteps[i] < s.cfg.Radar.MaxRangeKm {
			s.cfg.SetRadarRange(RangeSteps[i])
			break
		}
	}
	return s.cfg.Radar.MaxRangeKm
}

// SetRefreshInterval changes the polling interval and returns the value
// kept after the minimum is applied.
func (s *Session) SetRefreshInterval(seconds int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.SetRefreshInterval(seconds)
	return s.cfg.Refresh.IntervalSeconds
}

// ResetDefaults restores the default location, display and refresh
// settings. The source, database and metrics settings are kept.
func (s *Session) ResetDefaults() {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := config.DefaultConfig()
	moved := s.cfg.Location != d.Location
	s.cfg.Location = d.Location
	s.cfg.Radar = d.Radar
	s.cfg.Refresh = d.Refresh
	s.scale = radar.ClampScale(d.Radar.Scale)
	if moved {
		s.resetData()
	}
	s.log.Info().Msg("Settings reset to defaults")
}

// SaveConfig writes the current settings, with the current zoom, to the
// configured file and returns its path.
func (s *Session) SaveConfig() (string, error) {
	s.mu.Lock()
	cfg := s.cfg
	cfg.Radar.Scale = s.scale
	path := s.configPath
	s.mu.Unlock()

	if path == "" {
		return "", errors.New("no configuration file set")
	}
	if err := cfg.Save(path); err != nil {
		return "", err
	}
	s.log.Info().Str("path", path).Msg("Settings saved")
	return path, nil
}

// Config returns a copy of the current settings.
func (s *Session) Config() config.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Trails returns a copy of every trail.
func (s *Session) Trails() []trail.Trail {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trails.All()
}

// ExportGeoJSON encodes the trails as a GeoJSON FeatureCollection.
func (s *Session) ExportGeoJSON() ([]byte, error) {
	s.mu.Lock()
	fc := s.trails.FeatureCollection()
	s.mu.Unlock()

	data, err := fc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to encode trails: %w", err)
	}
	return data, nil
}

// Status is a summary for status bars.
type Status struct {
	Source         string
	Location       geo.Location
	RangeKm        float64
	Scale          float64
	Aircraft       int
	Trails         int
	ShowTrails     bool
	AutoRefresh    bool
	RefreshSeconds int
	Theme          theme.Theme
	Busy           bool
	LastFetch      time.Time
	LastErr        error
}

// Status returns the current summary.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		Source:         s.source.Name(),
		Location:       s.cfg.Location,
		RangeKm:        s.cfg.Radar.MaxRangeKm,
		Scale:          s.scale,
		Aircraft:       len(s.snapshot),
		Trails:         s.trails.Len(),
		ShowTrails:     s.cfg.Radar.ShowTrails,
		AutoRefresh:    s.cfg.Refresh.AutoRefresh,
		RefreshSeconds: s.cfg.Refresh.IntervalSeconds,
		Theme:          s.cfg.Radar.ThemeValue(),
		Busy:           s.busy.Load(),
		LastFetch:      s.lastFetch,
		LastErr:        s.lastErr,
	}
}

// HealthCheckName names the session on the monitoring status page.
func (s *Session) HealthCheckName() string {
	return "source " + s.source.Name()
}

// HealthCheck is false while the last fetch failed.
func (s *Session) HealthCheck() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr == nil
}

// Close releases the data source.
func (s *Session) Close() error {
	return s.source.Close()
}
