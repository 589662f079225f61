package adsb

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/unklstewy/skyradar/pkg/geo"
)

const (
	// OpenSkyURL is the default OpenSky Network REST API root
	OpenSkyURL = "https://opensky-network.org/api"

	// kmPerDegree approximates the length of one degree of latitude
	kmPerDegree = 111.0

	// msToKnots converts metres per second to knots
	msToKnots = 1.943844

	// msToFeetPerMinute converts metres per second to feet per minute
	msToFeetPerMinute = 196.850394
)

// OpenSkyClient implements the DataSource interface for the OpenSky Network
// /states/all endpoint.
// API Documentation: https://openskynetwork.github.io/opensky-api/rest.html
// Anonymous users get 10 second resolution; authenticated users get 5 seconds.
type OpenSkyClient struct {
	apiClient
}

// NewOpenSkyClient creates a new OpenSky client. Basic auth is used when
// cfg carries both a username and a password.
func NewOpenSkyClient(cfg ClientConfig) *OpenSkyClient {
	return &OpenSkyClient{
		apiClient: newAPIClient(cfg, OpenSkyURL, "opensky"),
	}
}

// Name identifies the source.
func (c *OpenSkyClient) Name() string {
	return "opensky"
}

// Fetch queries the bounding box around location and returns the aircraft
// within radiusKm by great-circle distance.
func (c *OpenSkyClient) Fetch(ctx context.Context, location geo.Location, radiusKm float64) ([]Aircraft, error) {
	box := NewBoundingBox(location, radiusKm)
	q := url.Values{}
	q.Set("lamin", strconv.FormatFloat(box.MinLat, 'f', 4, 64))
	q.Set("lomin", strconv.FormatFloat(box.MinLon, 'f', 4, 64))
	q.Set("lamax", strconv.FormatFloat(box.MaxLat, 'f', 4, 64))
	q.Set("lomax", strconv.FormatFloat(box.MaxLon, 'f', 4, 64))

	states, err := c.states(ctx, q)
	if err != nil {
		return nil, err
	}

	return FilterByRange(states, location, radiusKm), nil
}

// Lookup returns the current state of a single aircraft, or nil if OpenSky
// is not tracking it.
func (c *OpenSkyClient) Lookup(ctx context.Context, icao24 string) (*Aircraft, error) {
	q := url.Values{}
	q.Set("icao24", strings.ToLower(icao24))

	states, err := c.states(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(states) == 0 {
		return nil, nil
	}
	return &states[0], nil
}

// Close is a no-op; the client holds no persistent connections.
func (c *OpenSkyClient) Close() error {
	return nil
}

func (c *OpenSkyClient) states(ctx context.Context, q url.Values) ([]Aircraft, error) {
	var resp openSkyResponse
	found, err := c.getJSON(ctx, c.baseURL+"/states/all?"+q.Encode(), &resp)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	aircraft := make([]Aircraft, 0, len(resp.States))
	for i, row := range resp.States {
		ac, err := parseStateVector(row)
		if err != nil {
			c.log.Debug().Err(err).Int("row", i).Msg("skipping malformed state vector")
			continue
		}
		aircraft = append(aircraft, ac)
	}
	return aircraft, nil
}

// BoundingBox is a latitude/longitude rectangle in degrees.
type BoundingBox struct {
	MinLat, MaxLat, MinLon, MaxLon float64
}

// NewBoundingBox approximates a radius as a lat/lon box. Longitude span widens
// with latitude; near the poles it is capped to the whole globe.
func NewBoundingBox(location geo.Location, radiusKm float64) BoundingBox {
	dLat := radiusKm / kmPerDegree
	cosLat := math.Cos(location.Latitude * geo.DegreesToRadians)

	dLon := 180.0
	if cosLat > 1e-6 {
		dLon = math.Min(radiusKm/(kmPerDegree*cosLat), 180.0)
	}

	return BoundingBox{
		MinLat: math.Max(location.Latitude-dLat, -90),
		MaxLat: math.Min(location.Latitude+dLat, 90),
		MinLon: math.Max(location.Longitude-dLon, -180),
		MaxLon: math.Min(location.Longitude+dLon, 180),
	}
}

// openSkyResponse is the /states/all payload. Each state is a positional
// array whose entries may be null.
type openSkyResponse struct {
	Time   int64           `json:"time"`
	States [][]interface{} `json:"states"`
}

// State vector indices.
// https://openskynetwork.github.io/opensky-api/rest.html#response
const (
	svICAO24 = iota
	svCallsign
	svOriginCountry
	svTimePosition
	svLastContact
	svLongitude
	svLatitude
	svBaroAltitude
	svOnGround
	svVelocity
	svTrueTrack
	svVerticalRate
	svSensors
	svGeoAltitude
	svSquawk
	svSPI
	svPositionSource
	svMinFields = svPositionSource + 1
)

// parseStateVector converts one OpenSky state to an Aircraft. OpenSky
// reports SI units; they are converted to feet, knots and feet per minute.
func parseStateVector(row []interface{}) (Aircraft, error) {
	if len(row) < svMinFields {
		return Aircraft{}, fmt.Errorf("state vector has %d fields, want at least %d", len(row), svMinFields)
	}

	icao, _ := row[svICAO24].(string)
	icao = strings.ToLower(strings.TrimSpace(icao))
	if icao == "" {
		return Aircraft{}, fmt.Errorf("state vector without icao24")
	}

	ac := Aircraft{
		ICAO24:        icao,
		Callsign:      strings.TrimSpace(stringField(row[svCallsign])),
		OriginCountry: stringField(row[svOriginCountry]),
		Squawk:        stringField(row[svSquawk]),
	}
	if onGround, ok := row[svOnGround].(bool); ok {
		ac.OnGround = onGround
	}

	if ts := numberField(row[svTimePosition]); ts != nil && *ts > 0 {
		ac.LastPositionTime = time.Unix(int64(*ts), 0).UTC()
	}
	if ts := numberField(row[svLastContact]); ts != nil && *ts > 0 {
		ac.LastContact = time.Unix(int64(*ts), 0).UTC()
	}

	lon := numberField(row[svLongitude])
	lat := numberField(row[svLatitude])
	if lon != nil && lat != nil {
		ac.Position = &geo.Position{Longitude: *lon, Latitude: *lat}
	}

	ac.Altitude = scaled(numberField(row[svBaroAltitude]), geo.MetersToFeet)
	ac.GeoAltitude = scaled(numberField(row[svGeoAltitude]), geo.MetersToFeet)
	ac.Velocity = scaled(numberField(row[svVelocity]), msToKnots)
	ac.Heading = numberField(row[svTrueTrack])
	ac.VerticalRate = scaled(numberField(row[svVerticalRate]), msToFeetPerMinute)

	return ac, nil
}

func stringField(v interface{}) string {
	s, _ := v.(string)
	return s
}

func numberField(v interface{}) *float64 {
	switch n := v.(type) {
	case float64:
		return &n
	case int64:
		return float64Ptr(float64(n))
	case int:
		return float64Ptr(float64(n))
	default:
		return nil
	}
}

func scaled(v *float64, factor float64) *float64 {
	if v == nil {
		return nil
	}
	return float64Ptr(*v * factor)
}
