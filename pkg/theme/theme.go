// Package theme holds the colour palettes used to draw the radar.
package theme

import (
	"fmt"
	"strings"
)

// RGBA is an 8-bit colour with alpha. A = 255 is opaque.
type RGBA struct {
	R, G, B, A uint8
}

// RGB returns an opaque colour.
func RGB(r, g, b uint8) RGBA {
	return RGBA{R: r, G: g, B: b, A: 255}
}

// Hex returns the colour as #rrggbb, ignoring alpha.
func (c RGBA) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Theme is the user-selected appearance.
type Theme int

const (
	// Dark draws light symbols on a dark background
	Dark Theme = iota
	// Light draws dark symbols on a light background
	Light
	// Auto follows the terminal; we have no reliable way to detect it, so it draws dark
	Auto
)

// String returns the configuration name of the theme.
func (t Theme) String() string {
	switch t {
	case Light:
		return "light"
	case Auto:
		return "auto"
	default:
		return "dark"
	}
}

// IsDark reports whether the theme renders with the dark palette.
func (t Theme) IsDark() bool {
	return t != Light
}

// Variant resolves the theme to a concrete palette variant.
func (t Theme) Variant() Variant {
	if t.IsDark() {
		return VariantDark
	}
	return VariantLight
}

// Next cycles Dark -> Light -> Auto -> Dark.
func (t Theme) Next() Theme {
	switch t {
	case Dark:
		return Light
	case Light:
		return Auto
	default:
		return Dark
	}
}

// ParseTheme parses "dark", "light" or "auto" (case-insensitive).
func ParseTheme(s string) (Theme, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "dark":
		return Dark, nil
	case "light":
		return Light, nil
	case "auto":
		return Auto, nil
	default:
		return Dark, fmt.Errorf("unknown theme %q", s)
	}
}

// Variant selects the light or dark palette.
type Variant int

const (
	VariantDark Variant = iota
	VariantLight
)

// RadarColors are the colours of the radar furniture.
type RadarColors struct {
	Background RGBA
	Rings      RGBA
	Compass    RGBA
	Center     RGBA
	Grid       RGBA
}

// AircraftColors are the per-band aircraft colours plus the trail colour.
type AircraftColors struct {
	Low      RGBA
	Medium   RGBA
	High     RGBA
	VeryHigh RGBA
	Unknown  RGBA
	Trail    RGBA
	Outline  RGBA
	Label    RGBA
}

var (
	darkRadar = RadarColors{
		Background: RGB(20, 20, 30),
		Rings:      RGB(60, 60, 80),
		Compass:    RGB(200, 200, 200),
		Center:     RGB(255, 255, 255),
		Grid:       RGB(40, 40, 50),
	}
	lightRadar = RadarColors{
		Background: RGB(240, 240, 250),
		Rings:      RGB(200, 200, 220),
		Compass:    RGB(50, 50, 50),
		Center:     RGB(30, 30, 30),
		Grid:       RGB(220, 220, 230),
	}

	darkAircraft = AircraftColors{
		Low:      RGB(255, 255, 0),
		Medium:   RGB(0, 255, 0),
		High:     RGB(0, 255, 255),
		VeryHigh: RGB(255, 0, 255),
		Unknown:  RGB(128, 128, 128),
		Trail:    RGBA{R: 100, G: 100, B: 255, A: 100},
		Outline:  RGB(0, 0, 0),
		Label:    RGB(200, 200, 200),
	}
	lightAircraft = AircraftColors{
		Low:      RGB(200, 200, 0),
		Medium:   RGB(0, 150, 0),
		High:     RGB(0, 150, 150),
		VeryHigh: RGB(150, 0, 150),
		Unknown:  RGB(100, 100, 100),
		Trail:    RGBA{R: 50, G: 50, B: 200, A: 150},
		Outline:  RGB(0, 0, 0),
		Label:    RGB(50, 50, 50),
	}
)

// RadarPalette returns the radar colours for a variant.
func RadarPalette(v Variant) RadarColors {
	if v == VariantLight {
		return lightRadar
	}
	return darkRadar
}

// AircraftPalette returns the aircraft colours for a variant.
func AircraftPalette(v Variant) AircraftColors {
	if v == VariantLight {
		return lightAircraft
	}
	return darkAircraft
}
