package radar

import (
	"math"

	"github.com/unklstewy/skyradar/pkg/theme"
)

// Layer identifies a stage of the fixed radar draw order. Later layers are
// drawn over earlier ones.
type Layer int

const (
	LayerBackground Layer = iota
	LayerRings
	LayerCompass
	LayerTrails
	LayerIcons
	LayerLabels
	LayerCenter
)

var layerNames = [...]string{"background", "rings", "compass", "trails", "icons", "labels", "center"}

func (l Layer) String() string {
	if l < 0 || int(l) >= len(layerNames) {
		return "unknown"
	}
	return layerNames[l]
}

// Stroke describes an outline. A zero Width means no outline.
type Stroke struct {
	Width float64
	Color theme.RGBA
}

// Align is horizontal text alignment relative to the text position.
type Align int

const (
	AlignCenter Align = iota
	AlignLeft
	AlignRight
)

// Canvas receives primitives in draw order. Implementations rasterise them
// to whatever surface they own.
type Canvas interface {
	Circle(c Circle)
	Rect(r Rect)
	Line(l Line)
	Polyline(p Polyline)
	Polygon(p Polygon)
	Text(t Text)
}

// Primitive is one drawable element.
type Primitive interface {
	drawOn(c Canvas)
}

// Circle is a disc or ring.
type Circle struct {
	Center ScreenPoint
	Radius float64
	Filled bool
	Fill   theme.RGBA
	Stroke Stroke
}

// Rect is a filled axis aligned rectangle. Rounding is the corner radius;
// a Rounding of half the side turns a square into a disc.
type Rect struct {
	Min, Max ScreenPoint
	Rounding float64
	Fill     theme.RGBA
	Stroke   Stroke
}

// Contains reports whether p lies inside the rounded rectangle.
func (r Rect) Contains(p ScreenPoint) bool {
	if p.X < r.Min.X || p.X > r.Max.X || p.Y < r.Min.Y || p.Y > r.Max.Y {
		return false
	}
	rad := math.Min(r.Rounding, math.Min(r.Max.X-r.Min.X, r.Max.Y-r.Min.Y)/2)
	if rad <= 0 {
		return true
	}
	inner := ScreenPoint{
		X: math.Max(r.Min.X+rad, math.Min(p.X, r.Max.X-rad)),
		Y: math.Max(r.Min.Y+rad, math.Min(p.Y, r.Max.Y-rad)),
	}
	return p.DistanceTo(inner) <= rad
}

// Line is a single segment.
type Line struct {
	From, To ScreenPoint
	Stroke   Stroke
}

// Polyline is an open path through Points.
type Polyline struct {
	Points []ScreenPoint
	Stroke Stroke
}

// Polygon is a closed, filled shape.
type Polygon struct {
	Points []ScreenPoint
	Fill   theme.RGBA
	Stroke Stroke

	// Heading is the direction the shape points, in degrees, for canvases
	// that substitute a glyph for small shapes; negative when undirected
	Heading float64
}

// Text is a label anchored at Pos.
type Text struct {
	Pos   ScreenPoint
	Text  string
	Align Align
	Size  float64
	Color theme.RGBA
}

func (c Circle) drawOn(cv Canvas)   { cv.Circle(c) }
func (r Rect) drawOn(cv Canvas)     { cv.Rect(r) }
func (l Line) drawOn(cv Canvas)     { cv.Line(l) }
func (p Polyline) drawOn(cv Canvas) { cv.Polyline(p) }
func (p Polygon) drawOn(cv Canvas)  { cv.Polygon(p) }
func (t Text) drawOn(cv Canvas)     { cv.Text(t) }

// Op is a primitive tagged with its layer.
type Op struct {
	Layer     Layer
	Primitive Primitive
}

// DrawList is an ordered list of draw operations for one frame.
type DrawList struct {
	Ops []Op
}

func (dl *DrawList) add(l Layer, p Primitive) {
	dl.Ops = append(dl.Ops, Op{Layer: l, Primitive: p})
}

// Replay sends every primitive to the canvas in order.
func (dl *DrawList) Replay(c Canvas) {
	for _, op := range dl.Ops {
		op.Primitive.drawOn(c)
	}
}

// Layer returns the primitives on one layer, in order.
func (dl *DrawList) Layer(l Layer) []Primitive {
	var out []Primitive
	for _, op := range dl.Ops {
		if op.Layer == l {
			out = append(out, op.Primitive)
		}
	}
	return out
}

// Len returns the number of operations.
func (dl *DrawList) Len() int {
	return len(dl.Ops)
}
