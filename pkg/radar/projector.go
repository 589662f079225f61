package radar

import (
	"math"

	"github.com/unklstewy/skyradar/pkg/geo"
)

// Project maps a position to the screen using a linear polar projection
// around the reference location. Distance from the reference becomes pixel
// radius and bearing becomes the angle clockwise from up.
//
// The second result is false when the position lies beyond MaxRangeKm or
// either position is not a valid coordinate; such points are simply not
// drawn. The reference itself maps to exactly
// f.Center.
func Project(p geo.Position, ref geo.Location, f Frame) (ScreenPoint, bool) {
	if !p.Valid() || !ref.Position().Valid() {
		return ScreenPoint{}, false
	}
	d := geo.Distance(ref.Position(), p)
	if math.IsNaN(d) {
		return ScreenPoint{}, false
	}
	if d == 0 {
		return f.Center, true
	}
	if f.MaxRangeKm <= 0 || d > f.MaxRangeKm {
		return ScreenPoint{}, false
	}

	b := geo.Bearing(ref.Position(), p) * geo.DegreesToRadians
	r := d / f.MaxRangeKm * f.PixelRadius * f.Scale

	return ScreenPoint{
		X: f.Center.X + r*math.Sin(b),
		Y: f.Center.Y - r*math.Cos(b),
	}, true
}

// Projector binds a reference location and frame for repeated projection.
type Projector struct {
	Reference geo.Location
	Frame     Frame
}

// Project maps p using the bound reference and frame.
func (pr Projector) Project(p geo.Position) (ScreenPoint, bool) {
	return Project(p, pr.Reference, pr.Frame)
}

// PolarPoint returns the screen point at a pixel radius and bearing from
// the frame centre.
func (f Frame) PolarPoint(radius, bearingDeg float64) ScreenPoint {
	b := bearingDeg * geo.DegreesToRadians
	return ScreenPoint{
		X: f.Center.X + radius*math.Sin(b),
		Y: f.Center.Y - radius*math.Cos(b),
	}
}
