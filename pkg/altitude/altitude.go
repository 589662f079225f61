// Package altitude buckets aircraft altitudes into display bands.
package altitude

import "github.com/unklstewy/skyradar/pkg/theme"

// Band is a coarse altitude bucket used to colour aircraft.
type Band int

const (
	// Unknown means no altitude was reported
	Unknown Band = iota
	// Low is below 1,000 ft
	Low
	// Medium is 1,000 ft up to 10,000 ft
	Medium
	// High is 10,000 ft up to 25,000 ft
	High
	// VeryHigh is 25,000 ft and above
	VeryHigh
)

// Band thresholds in feet. Each is the inclusive lower bound of the next band.
const (
	MediumFloor   = 1000.0
	HighFloor     = 10000.0
	VeryHighFloor = 25000.0
)

// String returns a short human-readable band name.
func (b Band) String() string {
	switch b {
	case Low:
		return "Low"
	case Medium:
		return "Medium"
	case High:
		return "High"
	case VeryHigh:
		return "Very High"
	default:
		return "Unknown"
	}
}

// Classify returns the band for an altitude in feet. A nil altitude is Unknown.
// Negative altitudes (below sea level reports) are Low.
func Classify(alt *float64) Band {
	if alt == nil {
		return Unknown
	}
	switch a := *alt; {
	case a < MediumFloor:
		return Low
	case a < HighFloor:
		return Medium
	case a < VeryHighFloor:
		return High
	default:
		return VeryHigh
	}
}

// Color returns the dark-palette colour for a band.
func Color(b Band) theme.RGBA {
	return ColorFor(b, theme.VariantDark)
}

// ColorFor returns the colour for a band in the requested palette variant.
func ColorFor(b Band, v theme.Variant) theme.RGBA {
	p := theme.AircraftPalette(v)
	switch b {
	case Low:
		return p.Low
	case Medium:
		return p.Medium
	case High:
		return p.High
	case VeryHigh:
		return p.VeryHigh
	default:
		return p.Unknown
	}
}
