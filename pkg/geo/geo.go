// Package geo provides spherical-earth geometry for positions reported by
// ADS-B sources: great-circle distance, initial bearing and destination
// points. All angles are in degrees and all distances in kilometres unless
// a function name says otherwise.
package geo

import (
	"math"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
)

const (
	// DegreesToRadians converts degrees to radians
	DegreesToRadians = math.Pi / 180.0

	// RadiansToDegrees converts radians to degrees
	RadiansToDegrees = 180.0 / math.Pi

	// EarthRadiusKm is the mean Earth radius used by every distance function here
	EarthRadiusKm = 6371.0

	// KmPerNauticalMile is the length of one nautical mile in kilometres
	KmPerNauticalMile = 1.852

	// KmPerMile is the length of one statute mile in kilometres
	KmPerMile = 1.609344

	// MetersToFeet converts metres to feet
	MetersToFeet = 3.28084
)

// Position is a WGS84 point. It is an immutable value.
type Position struct {
	// Longitude in decimal degrees (-180 to +180)
	Longitude float64 `json:"longitude"`

	// Latitude in decimal degrees (-90 to +90)
	Latitude float64 `json:"latitude"`
}

// NewPosition builds a Position from latitude and longitude, in that order.
func NewPosition(lat, lon float64) Position {
	return Position{Longitude: lon, Latitude: lat}
}

// Point converts the position to an orb.Point ([lon, lat]).
func (p Position) Point() orb.Point {
	return orb.Point{p.Longitude, p.Latitude}
}

// FromPoint converts an orb.Point back into a Position.
func FromPoint(pt orb.Point) Position {
	return Position{Longitude: pt.Lon(), Latitude: pt.Lat()}
}

// Valid reports whether latitude and longitude are within their ranges.
func (p Position) Valid() bool {
	return p.Latitude >= -90 && p.Latitude <= 90 &&
		p.Longitude >= -180 && p.Longitude <= 180 &&
		!math.IsNaN(p.Latitude) && !math.IsNaN(p.Longitude)
}

// Distance returns the great-circle distance between a and b in kilometres
// using the haversine formula. It is symmetric and zero only when a == b.
func Distance(a, b Position) float64 {
	lat1 := a.Latitude * DegreesToRadians
	lat2 := b.Latitude * DegreesToRadians
	dLat := lat2 - lat1
	dLon := (b.Longitude - a.Longitude) * DegreesToRadians

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusKm * c
}

// Bearing returns the initial great-circle bearing from a to b in degrees,
// normalised to [0, 360). 0 = North, 90 = East, 180 = South, 270 = West.
func Bearing(a, b Position) float64 {
	return NormalizeBearing(orbgeo.Bearing(a.Point(), b.Point()))
}

// Destination returns the point reached by travelling distanceKm from origin
// along the great circle that starts at bearingDeg.
func Destination(origin Position, distanceKm, bearingDeg float64) Position {
	lat1 := origin.Latitude * DegreesToRadians
	lon1 := origin.Longitude * DegreesToRadians
	brg := bearingDeg * DegreesToRadians
	delta := distanceKm / EarthRadiusKm

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(delta) +
		math.Cos(lat1)*math.Sin(delta)*math.Cos(brg))
	lon2 := lon1 + math.Atan2(
		math.Sin(brg)*math.Sin(delta)*math.Cos(lat1),
		math.Cos(delta)-math.Sin(lat1)*math.Sin(lat2),
	)

	return Position{
		Longitude: NormalizeLongitude(lon2 * RadiansToDegrees),
		Latitude:  lat2 * RadiansToDegrees,
	}
}

// NormalizeBearing wraps any angle into [0, 360).
func NormalizeBearing(deg float64) float64 {
	b := math.Mod(deg, 360.0)
	if b < 0 {
		b += 360.0
	}
	// math.Mod of a tiny negative value plus 360 can round to exactly 360
	if b >= 360.0 {
		b = 0
	}
	return b
}

// NormalizeLongitude wraps a longitude into [-180, 180).
func NormalizeLongitude(lon float64) float64 {
	l := math.Mod(lon+180.0, 360.0)
	if l < 0 {
		l += 360.0
	}
	return l - 180.0
}

// KmToMiles converts kilometres to statute miles.
func KmToMiles(km float64) float64 { return km / KmPerMile }

// MilesToKm converts statute miles to kilometres.
func MilesToKm(mi float64) float64 { return mi * KmPerMile }

// KmToNauticalMiles converts kilometres to nautical miles.
func KmToNauticalMiles(km float64) float64 { return km / KmPerNauticalMile }

// NauticalMilesToKm converts nautical miles to kilometres.
func NauticalMilesToKm(nm float64) float64 { return nm * KmPerNauticalMile }
