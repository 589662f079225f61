package adsb

import (
	"context"
	"math"
	"time"

	"github.com/unklstewy/skyradar/pkg/geo"
)

// mockTrack describes one synthetic aircraft. Aircraft with a heading and a
// speed fly repeated straight passes across the requested area; the rest
// hover at a fixed offset from the centre.
type mockTrack struct {
	icao24    string
	callsign  string
	country   string
	squawk    string
	altitude  *float64
	speedKts  *float64
	heading   *float64
	vertRate  *float64
	offset    float64 // lateral offset (right of track) as a fraction of radius
	phase     float64 // starting fraction of the pass
	hoverBrg  float64 // bearing of the hover point for static tracks
	hoverFrac float64 // distance of the hover point as a fraction of radius
}

var mockTracks = []mockTrack{
	{icao24: "a12345", callsign: "TEST123", country: "United States", squawk: "1234",
		altitude: float64Ptr(35000), speedKts: float64Ptr(450), heading: float64Ptr(90), vertRate: float64Ptr(0),
		offset: 0, phase: 0.5},
	{icao24: "b67890", callsign: "DEMO456", country: "Canada", squawk: "5678",
		altitude: float64Ptr(28000), speedKts: float64Ptr(380), heading: float64Ptr(180), vertRate: float64Ptr(-500),
		offset: -0.15, phase: 0.45},
	{icao24: "c0ffee", callsign: "N172SP", country: "United States", squawk: "1200",
		altitude: float64Ptr(800), speedKts: float64Ptr(105), heading: float64Ptr(315), vertRate: float64Ptr(300),
		offset: 0.3, phase: 0.2},
	{icao24: "d15ea5", callsign: "SWA2291 ", country: "United States", squawk: "4521",
		altitude: float64Ptr(6500), speedKts: float64Ptr(250), heading: float64Ptr(30), vertRate: float64Ptr(1800),
		offset: -0.35, phase: 0.7},
	{icao24: "7c6b2d", callsign: "QFA12", country: "Australia", squawk: "3301",
		altitude: float64Ptr(18000), speedKts: float64Ptr(320), heading: float64Ptr(250), vertRate: float64Ptr(-1200),
		offset: 0.2, phase: 0.1},
	{icao24: "e1e2e3", country: "Unknown",
		hoverBrg: 300, hoverFrac: 0.5},
}

// MockSource generates deterministic demo traffic around whatever location
// it is asked about. It never fails and needs no network.
type MockSource struct {
	start time.Time
	now   func() time.Time
}

// NewMockSource creates a mock source using the wall clock.
func NewMockSource() *MockSource {
	return NewMockSourceWithClock(time.Now)
}

// NewMockSourceWithClock creates a mock source with an injected clock. The
// traffic pattern starts at the clock's current time.
func NewMockSourceWithClock(now func() time.Time) *MockSource {
	return &MockSource{start: now(), now: now}
}

// Name identifies the source.
func (m *MockSource) Name() string {
	return "mock"
}

// Fetch returns the mock aircraft positioned for the current clock time.
func (m *MockSource) Fetch(ctx context.Context, location geo.Location, radiusKm float64) ([]Aircraft, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if radiusKm <= 0 {
		return []Aircraft{}, nil
	}

	now := m.now()
	elapsed := now.Sub(m.start)
	aircraft := make([]Aircraft, 0, len(mockTracks))
	for _, tr := range mockTracks {
		pos := tr.positionAt(location, radiusKm, elapsed)
		aircraft = append(aircraft, Aircraft{
			ICAO24:           tr.icao24,
			Callsign:         tr.callsign,
			OriginCountry:    tr.country,
			Position:         &pos,
			Altitude:         tr.altitude,
			GeoAltitude:      tr.altitude,
			Velocity:         tr.speedKts,
			Heading:          tr.heading,
			VerticalRate:     tr.vertRate,
			Squawk:           tr.squawk,
			LastPositionTime: now,
			LastContact:      now,
		})
	}

	return FilterByRange(aircraft, location, radiusKm), nil
}

// Lookup returns the mock aircraft with the given address as seen from the
// San Francisco preset.
func (m *MockSource) Lookup(ctx context.Context, icao24 string) (*Aircraft, error) {
	all, err := m.Fetch(ctx, geo.SanFrancisco, 50)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ICAO24 == icao24 {
			return &all[i], nil
		}
	}
	return nil, nil
}

// Close is a no-op.
func (m *MockSource) Close() error {
	return nil
}

// positionAt places the track inside radiusKm of location. A pass runs 1.8
// radii along the heading, starting 0.9 radii behind the centre line.
func (tr mockTrack) positionAt(location geo.Location, radiusKm float64, elapsed time.Duration) geo.Position {
	if tr.heading == nil || tr.speedKts == nil {
		return location.PointAt(tr.hoverFrac*radiusKm, tr.hoverBrg)
	}

	heading := *tr.heading
	passKm := 1.8 * radiusKm
	speedKmh := geo.NauticalMilesToKm(*tr.speedKts)
	travelled := math.Mod(tr.phase*passKm+speedKmh*elapsed.Hours(), passKm)

	lane := location.PointAt(tr.offset*radiusKm, heading+90)
	entry := geo.Destination(lane, 0.9*radiusKm, heading+180)
	return geo.Destination(entry, travelled, heading)
}
