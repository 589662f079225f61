package geo

import "strings"

// DefaultLocationName is shown when a location has no name.
const DefaultLocationName = "Your Location"

// Location is the reference point the radar is centred on.
type Location struct {
	Latitude  float64 `json:"latitude" mapstructure:"latitude"`
	Longitude float64 `json:"longitude" mapstructure:"longitude"`
	Name      string  `json:"name,omitempty" mapstructure:"name"`
}

// Position returns the location as a Position.
func (l Location) Position() Position {
	return Position{Longitude: l.Longitude, Latitude: l.Latitude}
}

// DisplayName returns the trimmed name, or DefaultLocationName when blank.
func (l Location) DisplayName() string {
	if name := strings.TrimSpace(l.Name); name != "" {
		return name
	}
	return DefaultLocationName
}

// DistanceTo returns the distance in kilometres from the location to p.
func (l Location) DistanceTo(p Position) float64 {
	return Distance(l.Position(), p)
}

// BearingTo returns the bearing in degrees from the location to p.
func (l Location) BearingTo(p Position) float64 {
	return Bearing(l.Position(), p)
}

// PointAt returns the position distanceKm away from the location at bearingDeg.
func (l Location) PointAt(distanceKm, bearingDeg float64) Position {
	return Destination(l.Position(), distanceKm, bearingDeg)
}

// Preset locations selectable from the command line.
var (
	SanFrancisco = Location{Latitude: 37.7749, Longitude: -122.4194, Name: "San Francisco"}
	NewYork      = Location{Latitude: 40.7128, Longitude: -74.0060, Name: "New York"}
	London       = Location{Latitude: 51.5074, Longitude: -0.1278, Name: "London"}
	Tokyo        = Location{Latitude: 35.6762, Longitude: 139.6503, Name: "Tokyo"}
	Sydney       = Location{Latitude: -33.8688, Longitude: 151.2093, Name: "Sydney"}
)

// Presets lists the preset locations in menu order.
func Presets() []Location {
	return []Location{SanFrancisco, NewYork, London, Tokyo, Sydney}
}

// LookupPreset finds a preset by case-insensitive name, ignoring spaces.
func LookupPreset(name string) (Location, bool) {
	key := strings.ToLower(strings.ReplaceAll(name, " ", ""))
	for _, loc := range Presets() {
		if strings.ToLower(strings.ReplaceAll(loc.Name, " ", "")) == key {
			return loc, true
		}
	}
	switch key {
	case "sf":
		return SanFrancisco, true
	case "ny", "nyc":
		return NewYork, true
	}
	return Location{}, false
}
