package adsb

import (
	"context"
	"strings"
	"time"

	"github.com/unklstewy/skyradar/pkg/altitude"
	"github.com/unklstewy/skyradar/pkg/geo"
)

// StaleThreshold is how long after its last position report an aircraft is
// still considered active.
const StaleThreshold = 300 * time.Second

// Aircraft represents an aircraft tracked via ADS-B.
// Optional fields are pointers (or zero values) so that a missing report is
// distinguishable from a real zero.
type Aircraft struct {
	// ICAO24 is the unique 24-bit ICAO aircraft address in hex (e.g., "a12345")
	ICAO24 string `json:"icao24"`

	// Callsign is the flight number or registration, possibly space padded
	Callsign string `json:"callsign,omitempty"`

	// OriginCountry is the country of registration, when the source reports it
	OriginCountry string `json:"origin_country,omitempty"`

	// Position is nil when no position has been reported
	Position *geo.Position `json:"position,omitempty"`

	// Altitude is barometric altitude in feet above mean sea level
	Altitude *float64 `json:"altitude,omitempty"`

	// GeoAltitude is geometric (GPS) altitude in feet
	GeoAltitude *float64 `json:"geo_altitude,omitempty"`

	// Velocity is ground speed in knots
	Velocity *float64 `json:"velocity,omitempty"`

	// Heading is the ground track in degrees clockwise from north
	// 0 = North, 90 = East, 180 = South, 270 = West
	Heading *float64 `json:"heading,omitempty"`

	// VerticalRate in feet per minute (positive = climbing, negative = descending)
	VerticalRate *float64 `json:"vertical_rate,omitempty"`

	// Squawk is the transponder code
	Squawk string `json:"squawk,omitempty"`

	// OnGround is true when the aircraft reports a surface position
	OnGround bool `json:"on_ground"`

	// LastPositionTime is the time of the last position update; zero when unknown
	LastPositionTime time.Time `json:"last_position_time,omitempty"`

	// LastContact is the time any message was last received
	LastContact time.Time `json:"last_contact,omitempty"`
}

// DisplayName returns the trimmed callsign, or the ICAO address when the
// callsign is missing or blank.
func (a Aircraft) DisplayName() string {
	if cs := strings.TrimSpace(a.Callsign); cs != "" {
		return cs
	}
	return a.ICAO24
}

// HasPosition reports whether a position was reported.
func (a Aircraft) HasPosition() bool {
	return a.Position != nil
}

// IsActive reports whether the last position update is younger than StaleThreshold.
func (a Aircraft) IsActive() bool {
	return a.IsActiveAt(time.Now())
}

// IsActiveAt is IsActive evaluated at a fixed instant. An aircraft without a
// position timestamp is never active.
func (a Aircraft) IsActiveAt(now time.Time) bool {
	if a.LastPositionTime.IsZero() {
		return false
	}
	return now.Sub(a.LastPositionTime) < StaleThreshold
}

// Band returns the altitude band used to colour the aircraft.
func (a Aircraft) Band() altitude.Band {
	return altitude.Classify(a.Altitude)
}

// DataSource is the capability every telemetry provider implements.
// Implementations are chosen at construction (see NewSource); callers never
// branch on which one is active.
type DataSource interface {
	// Fetch returns all aircraft within radiusKm of location.
	// The returned slice belongs to the caller.
	Fetch(ctx context.Context, location geo.Location, radiusKm float64) ([]Aircraft, error)

	// Name identifies the source in logs and metrics.
	Name() string

	// Close cleanly shuts down the data source connection.
	Close() error
}

// ICAOLookup is implemented by sources that can look up a single aircraft.
type ICAOLookup interface {
	// Lookup returns the aircraft with the given address, or nil if it is not
	// currently tracked.
	Lookup(ctx context.Context, icao24 string) (*Aircraft, error)
}

// FilterByRange keeps aircraft that have a position within radiusKm of
// location. The input slice is not modified.
func FilterByRange(aircraft []Aircraft, location geo.Location, radiusKm float64) []Aircraft {
	out := make([]Aircraft, 0, len(aircraft))
	for _, ac := range aircraft {
		if ac.Position == nil {
			continue
		}
		if location.DistanceTo(*ac.Position) <= radiusKm {
			out = append(out, ac)
		}
	}
	return out
}

func float64Ptr(f float64) *float64 {
	return &f
}
