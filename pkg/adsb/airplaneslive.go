package adsb

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/unklstewy/skyradar/pkg/geo"
)

const (
	// AirplanesLiveURL is the default airplanes.live API root
	AirplanesLiveURL = "https://api.airplanes.live/v2"

	// airplanesLiveMaxRadiusNM is the largest radius the point endpoint accepts
	airplanesLiveMaxRadiusNM = 250.0
)

// AirplanesLiveClient implements the DataSource interface for airplanes.live API.
// API Documentation: https://airplanes.live/api-guide/
// Rate Limit: 1 request per second
type AirplanesLiveClient struct {
	apiClient

	// now is the clock used to turn "seen N seconds ago" into timestamps
	now func() time.Time
}

// NewAirplanesLiveClient creates a new airplanes.live API client.
// A zero RequestsPerSecond defaults to the documented 1 request per second.
func NewAirplanesLiveClient(cfg ClientConfig) *AirplanesLiveClient {
	if cfg.RequestsPerSecond == 0 {
		cfg.RequestsPerSecond = 1
	}
	return &AirplanesLiveClient{
		apiClient: newAPIClient(cfg, AirplanesLiveURL, "airplanes.live"),
		now:       time.Now,
	}
}

// Name identifies the source.
func (c *AirplanesLiveClient) Name() string {
	return "airplanes.live"
}

// Fetch returns all aircraft within radiusKm of location.
// Uses the /point/[lat]/[lon]/[radius] endpoint, whose radius is in nautical
// miles and capped at 250. Results are trimmed to radiusKm by great-circle
// distance.
func (c *AirplanesLiveClient) Fetch(ctx context.Context, location geo.Location, radiusKm float64) ([]Aircraft, error) {
	radiusNM := math.Min(math.Ceil(geo.KmToNauticalMiles(radiusKm)), airplanesLiveMaxRadiusNM)
	if radiusNM < 1 {
		radiusNM = 1
	}

	url := fmt.Sprintf("%s/point/%.4f/%.4f/%.0f", c.baseURL, location.Latitude, location.Longitude, radiusNM)

	var apiResp airplanesLiveResponse
	if _, err := c.getJSON(ctx, url, &apiResp); err != nil {
		return nil, err
	}

	now := c.now()
	aircraft := make([]Aircraft, 0, len(apiResp.Aircraft))
	for _, ac := range apiResp.Aircraft {
		// Skip aircraft with invalid data
		if ac.Lat == nil || ac.Lon == nil || ac.Hex == "" {
			continue
		}
		aircraft = append(aircraft, convertAirplanesLiveAircraft(ac, now))
	}

	return FilterByRange(aircraft, location, radiusKm), nil
}

// Lookup returns a specific aircraft by its ICAO hex code.
// Uses the /hex/[hex] endpoint.
func (c *AirplanesLiveClient) Lookup(ctx context.Context, icao24 string) (*Aircraft, error) {
	url := fmt.Sprintf("%s/hex/%s", c.baseURL, strings.ToLower(icao24))

	var apiResp airplanesLiveResponse
	found, err := c.getJSON(ctx, url, &apiResp)
	if err != nil {
		return nil, err
	}
	if !found || len(apiResp.Aircraft) == 0 {
		return nil, nil
	}

	ac := convertAirplanesLiveAircraft(apiResp.Aircraft[0], c.now())
	return &ac, nil
}

// Close cleanly shuts down the client.
// For airplanes.live, this is a no-op as there are no persistent connections.
func (c *AirplanesLiveClient) Close() error {
	return nil
}

// airplanesLiveResponse represents the JSON response from airplanes.live API.
type airplanesLiveResponse struct {
	// Aircraft is the array of aircraft data
	Aircraft []airplanesLiveAircraft `json:"ac"`

	// Total number of aircraft
	Total int `json:"total"`

	// Current timestamp in milliseconds
	Now float64 `json:"now"`
}

// airplanesLiveAircraft represents a single aircraft in the airplanes.live API response.
// Field documentation: https://airplanes.live/adsb-field-explanations/
type airplanesLiveAircraft struct {
	// Hex is the ICAO Mode S hex code (e.g., "a12345")
	Hex string `json:"hex"`

	// Flight is the callsign/flight number
	Flight *string `json:"flight"`

	// Lat is latitude in decimal degrees
	Lat *float64 `json:"lat"`

	// Lon is longitude in decimal degrees
	Lon *float64 `json:"lon"`

	// AltBaro is barometric altitude in feet
	// Note: Can be string "ground" or float
	AltBaro interface{} `json:"alt_baro"`

	// AltGeom is geometric (GPS) altitude in feet
	AltGeom interface{} `json:"alt_geom"`

	// Gs is ground speed in knots
	Gs *float64 `json:"gs"`

	// Track is ground track in degrees (0-360)
	Track *float64 `json:"track"`

	// BaroRate is barometric vertical rate in feet/minute
	BaroRate *float64 `json:"baro_rate"`

	// Squawk is the transponder code
	Squawk *string `json:"squawk"`

	// Seen is seconds since any message
	Seen *float64 `json:"seen"`

	// SeenPos is seconds since last position message
	SeenPos *float64 `json:"seen_pos"`
}

// convertAirplanesLiveAircraft converts an airplanes.live aircraft to our Aircraft type.
func convertAirplanesLiveAircraft(ac airplanesLiveAircraft, now time.Time) Aircraft {
	aircraft := Aircraft{
		ICAO24:       strings.ToLower(ac.Hex),
		Velocity:     ac.Gs,
		Heading:      ac.Track,
		VerticalRate: ac.BaroRate,
	}

	if ac.Flight != nil {
		aircraft.Callsign = strings.TrimSpace(*ac.Flight)
	}
	if ac.Squawk != nil {
		aircraft.Squawk = *ac.Squawk
	}

	if ac.Lat != nil && ac.Lon != nil {
		aircraft.Position = &geo.Position{Longitude: *ac.Lon, Latitude: *ac.Lat}
	}

	if s, ok := ac.AltBaro.(string); ok && s == "ground" {
		aircraft.OnGround = true
	}
	aircraft.Altitude = parseAltitude(ac.AltBaro)
	aircraft.GeoAltitude = parseAltitude(ac.AltGeom)
	if aircraft.Altitude == nil {
		aircraft.Altitude = aircraft.GeoAltitude
	}

	// Timestamps are derived from "seen N seconds ago"
	if ac.SeenPos != nil {
		aircraft.LastPositionTime = now.Add(-time.Duration(*ac.SeenPos * float64(time.Second)))
	} else if aircraft.Position != nil {
		aircraft.LastPositionTime = now
	}
	if ac.Seen != nil {
		aircraft.LastContact = now.Add(-time.Duration(*ac.Seen * float64(time.Second)))
	} else {
		aircraft.LastContact = now
	}

	return aircraft
}

// parseAltitude safely extracts altitude from interface{} which can be float64 or string.
// Returns nil if the value is invalid; "ground" is 0.
func parseAltitude(val interface{}) *float64 {
	switch v := val.(type) {
	case float64:
		return &v
	case string:
		if v == "ground" {
			return float64Ptr(0)
		}
		return nil
	default:
		return nil
	}
}
