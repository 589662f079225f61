package radar

import (
	"fmt"
	"math"
	"strconv"

	"github.com/unklstewy/skyradar/pkg/adsb"
	"github.com/unklstewy/skyradar/pkg/altitude"
	"github.com/unklstewy/skyradar/pkg/geo"
	"github.com/unklstewy/skyradar/pkg/theme"
	"github.com/unklstewy/skyradar/pkg/trail"
)

// RingCount is the number of evenly spaced range rings.
const RingCount = 5

// Units selects the distance unit used for ring labels.
type Units int

const (
	Kilometers Units = iota
	Miles
	NauticalMiles
)

// ParseUnits parses "km", "mi" or "nm".
func ParseUnits(s string) (Units, error) {
	switch s {
	case "", "km", "kilometers":
		return Kilometers, nil
	case "mi", "miles":
		return Miles, nil
	case "nm", "nautical":
		return NauticalMiles, nil
	default:
		return Kilometers, fmt.Errorf("unknown distance unit %q", s)
	}
}

// String returns the unit suffix used in labels.
func (u Units) String() string {
	switch u {
	case Miles:
		return "mi"
	case NauticalMiles:
		return "nm"
	default:
		return "km"
	}
}

// FromKm converts a distance in kilometres to the unit.
func (u Units) FromKm(km float64) float64 {
	switch u {
	case Miles:
		return geo.KmToMiles(km)
	case NauticalMiles:
		return geo.KmToNauticalMiles(km)
	default:
		return km
	}
}

// FormatDistance renders a distance in kilometres as a label such as "1.6 km".
func (u Units) FormatDistance(km float64) string {
	v := math.Round(u.FromKm(km)*10) / 10
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + u.String()
}

// TrailSource is the read side of a trail store.
type TrailSource interface {
	IDs() []string
	Get(icao24 string) []trail.Point
}

// Options are the per-draw display settings.
type Options struct {
	ShowTrails bool
	Theme      theme.Theme
	Units      Units
}

// Style holds the pixel sizes of radar furniture.
type Style struct {
	IconSize        float64 // tip distance of the heading triangle; circle radius
	IconOutline     float64
	CornerAngle     float64 // radians between heading and each rear corner
	LabelOffset     float64 // aircraft label distance above the icon
	LabelSize       float64
	RingLabelFactor float64 // ring label position as a fraction of ring radius along both axes
	RingLabelSize   float64
	CompassOffset   float64 // distance of N/E/S/W outside the radius
	CompassSize     float64
	CrosshairSize   float64 // half length of each crosshair arm
	CrosshairWidth  float64
	CenterLabelGap  float64
	CenterLabelSize float64
	TrailWidth      float64
	RingWidth       float64
}

// DefaultStyle returns the standard radar proportions.
func DefaultStyle() Style {
	return Style{
		IconSize:        8,
		IconOutline:     1,
		CornerAngle:     2.5,
		LabelOffset:     15,
		LabelSize:       10,
		RingLabelFactor: 0.7,
		RingLabelSize:   12,
		CompassOffset:   20,
		CompassSize:     14,
		CrosshairSize:   10,
		CrosshairWidth:  2,
		CenterLabelGap:  25,
		CenterLabelSize: 12,
		TrailWidth:      2,
		RingWidth:       1,
	}
}

// Renderer builds draw lists. It keeps no state between frames.
type Renderer struct {
	Style Style
}

// NewRenderer creates a renderer with DefaultStyle.
func NewRenderer() *Renderer {
	return &Renderer{Style: DefaultStyle()}
}

// Draw produces the layered draw list for one frame. Every geographic point
// goes through Project; anything out of range is left out. Trails are drawn
// in ID order and aircraft in snapshot order, so equal inputs give equal
// output.
func (r *Renderer) Draw(f Frame, ref geo.Location, snapshot []adsb.Aircraft, trails TrailSource, opts Options) *DrawList {
	dl := &DrawList{}
	variant := opts.Theme.Variant()
	radarColors := theme.RadarPalette(variant)
	aircraftColors := theme.AircraftPalette(variant)

	r.drawBackground(dl, f, radarColors)
	r.drawRings(dl, f, radarColors, opts.Units)
	r.drawCompass(dl, f, radarColors)
	if opts.ShowTrails && trails != nil {
		r.drawTrails(dl, f, ref, trails, aircraftColors)
	}
	r.drawAircraft(dl, f, ref, snapshot, variant, aircraftColors)
	r.drawCenter(dl, f, ref, radarColors)

	return dl
}

func (r *Renderer) drawBackground(dl *DrawList, f Frame, c theme.RadarColors) {
	dl.add(LayerBackground, Rect{
		Min:      f.Center.Add(-f.PixelRadius, -f.PixelRadius),
		Max:      f.Center.Add(f.PixelRadius, f.PixelRadius),
		Rounding: f.PixelRadius,
		Fill:     c.Background,
	})
}

func (r *Renderer) drawRings(dl *DrawList, f Frame, c theme.RadarColors, units Units) {
	stroke := Stroke{Width: r.Style.RingWidth, Color: c.Rings}
	for i := 1; i <= RingCount; i++ {
		radius := f.PixelRadius * float64(i) / RingCount
		dl.add(LayerRings, Circle{Center: f.Center, Radius: radius, Stroke: stroke})
		dl.add(LayerRings, Text{
			Pos:   f.Center.Add(radius*r.Style.RingLabelFactor, -radius*r.Style.RingLabelFactor),
			Text:  units.FormatDistance(f.RingDistance(i, RingCount)),
			Size:  r.Style.RingLabelSize,
			Color: c.Rings,
		})
	}
}

var compassPoints = []struct {
	label   string
	bearing float64
}{
	{"N", 0}, {"E", 90}, {"S", 180}, {"W", 270},
}

func (r *Renderer) drawCompass(dl *DrawList, f Frame, c theme.RadarColors) {
	radius := f.PixelRadius + r.Style.CompassOffset
	for _, cp := range compassPoints {
		dl.add(LayerCompass, Text{
			Pos:   f.PolarPoint(radius, cp.bearing),
			Text:  cp.label,
			Size:  r.Style.CompassSize,
			Color: c.Compass,
		})
	}
}

func (r *Renderer) drawTrails(dl *DrawList, f Frame, ref geo.Location, trails TrailSource, c theme.AircraftColors) {
	stroke := Stroke{Width: r.Style.TrailWidth, Color: c.Trail}
	for _, id := range trails.IDs() {
		points := trails.Get(id)
		if len(points) < 2 {
			continue
		}

		screen := make([]ScreenPoint, 0, len(points))
		for _, p := range points {
			if sp, ok := Project(p.Position, ref, f); ok {
				screen = append(screen, sp)
			}
		}
		if len(screen) < 2 {
			continue
		}
		dl.add(LayerTrails, Polyline{Points: screen, Stroke: stroke})
	}
}

func (r *Renderer) drawAircraft(dl *DrawList, f Frame, ref geo.Location, snapshot []adsb.Aircraft, v theme.Variant, c theme.AircraftColors) {
	labels := make([]Text, 0, len(snapshot))
	for _, ac := range snapshot {
		if ac.Position == nil {
			continue
		}
		pos, ok := Project(*ac.Position, ref, f)
		if !ok {
			continue
		}

		color := altitude.ColorFor(ac.Band(), v)
		if ac.Heading != nil {
			dl.add(LayerIcons, r.headingTriangle(pos, *ac.Heading, color, c.Outline))
		} else {
			dl.add(LayerIcons, Circle{Center: pos, Radius: r.Style.IconSize, Filled: true, Fill: color})
		}

		labels = append(labels, Text{
			Pos:   pos.Add(0, -r.Style.LabelOffset),
			Text:  ac.DisplayName(),
			Size:  r.Style.LabelSize,
			Color: c.Label,
		})
	}

	for _, l := range labels {
		dl.add(LayerLabels, l)
	}
}

// headingTriangle returns a triangle whose tip points along heading
// (clockwise from north) at IconSize from pos, with two rear corners at half
// that distance.
func (r *Renderer) headingTriangle(pos ScreenPoint, heading float64, fill, outline theme.RGBA) Polygon {
	h := heading * geo.DegreesToRadians
	size := r.Style.IconSize
	corner := func(angle, dist float64) ScreenPoint {
		return pos.Add(dist*math.Sin(angle), -dist*math.Cos(angle))
	}

	return Polygon{
		Points: []ScreenPoint{
			corner(h, size),
			corner(h+r.Style.CornerAngle, size/2),
			corner(h-r.Style.CornerAngle, size/2),
		},
		Fill:    fill,
		Stroke:  Stroke{Width: r.Style.IconOutline, Color: outline},
		Heading: geo.NormalizeBearing(heading),
	}
}

func (r *Renderer) drawCenter(dl *DrawList, f Frame, ref geo.Location, c theme.RadarColors) {
	stroke := Stroke{Width: r.Style.CrosshairWidth, Color: c.Center}
	arm := r.Style.CrosshairSize

	dl.add(LayerCenter, Line{From: f.Center.Add(-arm, 0), To: f.Center.Add(arm, 0), Stroke: stroke})
	dl.add(LayerCenter, Line{From: f.Center.Add(0, -arm), To: f.Center.Add(0, arm), Stroke: stroke})
	dl.add(LayerCenter, Text{
		Pos:   f.Center.Add(0, r.Style.CenterLabelGap),
		Text:  ref.DisplayName(),
		Size:  r.Style.CenterLabelSize,
		Color: c.Center,
	})
}
