// Package radar projects geographic positions onto a circular radar plot and
// turns a snapshot of aircraft into an ordered list of draw primitives.
//
// Everything here is synchronous and free of I/O. The frame geometry is an
// explicit value recomputed for every draw; nothing is cached between frames.
package radar

import "math"

const (
	// MinScale and MaxScale bound the zoom multiplier
	MinScale = 0.1
	MaxScale = 5.0

	// ZoomStep is the factor applied by ZoomIn and ZoomOut
	ZoomStep = 1.2

	// RadiusFraction is the share of the smaller viewport side used as radius
	RadiusFraction = 0.4
)

// ScreenPoint is a position in viewport pixels; Y grows downwards.
type ScreenPoint struct {
	X, Y float64
}

// Add returns p offset by (dx, dy).
func (p ScreenPoint) Add(dx, dy float64) ScreenPoint {
	return ScreenPoint{X: p.X + dx, Y: p.Y + dy}
}

// DistanceTo returns the pixel distance between two points.
func (p ScreenPoint) DistanceTo(q ScreenPoint) float64 {
	return math.Hypot(q.X-p.X, q.Y-p.Y)
}

// Viewport is the drawable area in pixels.
type Viewport struct {
	X, Y          float64
	Width, Height float64
}

// Center returns the middle of the viewport.
func (v Viewport) Center() ScreenPoint {
	return ScreenPoint{X: v.X + v.Width/2, Y: v.Y + v.Height/2}
}

// Frame is the per-draw radar geometry.
type Frame struct {
	// Center is where the reference location is drawn
	Center ScreenPoint

	// PixelRadius is the radius of the radar disc at scale 1
	PixelRadius float64

	// MaxRangeKm is the true distance represented by PixelRadius at scale 1
	MaxRangeKm float64

	// Scale is the zoom multiplier, within [MinScale, MaxScale]
	Scale float64
}

// NewFrame derives the frame for a viewport. The radius is 40% of the
// smaller side and the scale is clamped.
func NewFrame(vp Viewport, maxRangeKm, scale float64) Frame {
	side := math.Min(vp.Width, vp.Height)
	if side < 0 {
		side = 0
	}
	return Frame{
		Center:      vp.Center(),
		PixelRadius: side * RadiusFraction,
		MaxRangeKm:  maxRangeKm,
		Scale:       ClampScale(scale),
	}
}

// DisplayRadius is the on-screen radius of the range boundary.
func (f Frame) DisplayRadius() float64 {
	return f.PixelRadius * f.Scale
}

// RingDistance returns the true distance of ring i of n, as labelled.
func (f Frame) RingDistance(i, n int) float64 {
	return float64(i) / float64(n) * f.MaxRangeKm / f.Scale
}

// ClampScale limits a zoom multiplier to [MinScale, MaxScale]. NaN becomes 1.
func ClampScale(s float64) float64 {
	switch {
	case math.IsNaN(s):
		return 1
	case s < MinScale:
		return MinScale
	case s > MaxScale:
		return MaxScale
	default:
		return s
	}
}

// ZoomIn multiplies the scale by ZoomStep, clamped.
func ZoomIn(scale float64) float64 {
	return ClampScale(scale * ZoomStep)
}

// ZoomOut divides the scale by ZoomStep, clamped.
func ZoomOut(scale float64) float64 {
	return ClampScale(scale / ZoomStep)
}
