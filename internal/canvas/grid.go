// Package canvas rasterises radar draw lists onto a terminal cell grid.
//
// One cell is one pixel wide and two pixels tall, which roughly matches the
// shape of a terminal character, so a frame built with PixelViewport draws
// round circles.
package canvas

import (
	"math"
	"unicode/utf8"

	"github.com/unklstewy/skyradar/pkg/radar"
	"github.com/unklstewy/skyradar/pkg/theme"
)

// CellAspect is the pixel height of one cell.
const CellAspect = 2.0

// Glyphs used for strokes and icons.
const (
	RingRune       = '·'
	TrailRune      = '•'
	DotRune        = '●'
	HorizontalRune = '─'
	VerticalRune   = '│'
	CrossRune      = '┼'
	SlashRune      = '╱'
	BackslashRune  = '╲'
)

// dotMaxRadius separates aircraft dots from area fills.
const dotMaxRadius = 12.0

// headingArrows indexed by 45 degree sector starting at north.
var headingArrows = [8]rune{'↑', '↗', '→', '↘', '↓', '↙', '←', '↖'}

// Cell is one terminal character.
type Cell struct {
	Rune  rune
	Fg    theme.RGBA
	Bg    theme.RGBA
	HasFg bool
	HasBg bool
}

// Grid is a fixed size cell buffer that implements radar.Canvas.
type Grid struct {
	width, height int
	cells         []Cell
}

// NewGrid creates a blank grid of cols x rows cells.
func NewGrid(cols, rows int) *Grid {
	if cols < 0 {
		cols = 0
	}
	if rows < 0 {
		rows = 0
	}
	g := &Grid{width: cols, height: rows, cells: make([]Cell, cols*rows)}
	g.Clear()
	return g
}

// PixelViewport returns the pixel viewport covering a cols x rows area.
func PixelViewport(cols, rows int) radar.Viewport {
	return radar.Viewport{Width: float64(cols), Height: float64(rows) * CellAspect}
}

// Size returns the grid dimensions in cells.
func (g *Grid) Size() (cols, rows int) {
	return g.width, g.height
}

// Clear resets every cell to a blank space.
func (g *Grid) Clear() {
	for i := range g.cells {
		g.cells[i] = Cell{Rune: ' '}
	}
}

// At returns the cell at column x, row y. Out of bounds returns a blank cell.
func (g *Grid) At(x, y int) Cell {
	if !g.inBounds(x, y) {
		return Cell{Rune: ' '}
	}
	return g.cells[y*g.width+x]
}

func (g *Grid) inBounds(x, y int) bool {
	return x >= 0 && x < g.width && y >= 0 && y < g.height
}

func toCell(p radar.ScreenPoint) (int, int) {
	return int(math.Floor(p.X)), int(math.Floor(p.Y / CellAspect))
}

func (g *Grid) set(x, y int, r rune, fg theme.RGBA) {
	if !g.inBounds(x, y) {
		return
	}
	c := &g.cells[y*g.width+x]
	c.Rune = r
	c.Fg = fg
	c.HasFg = true
}

func (g *Grid) fill(x, y int, bg theme.RGBA) {
	if !g.inBounds(x, y) {
		return
	}
	c := &g.cells[y*g.width+x]
	c.Bg = bg
	c.HasBg = true
}

// fillWhere sets the background of every cell between lo and hi whose
// centre satisfies inside. The box is clipped to the grid first.
func (g *Grid) fillWhere(lo, hi radar.ScreenPoint, inside func(radar.ScreenPoint) bool, bg theme.RGBA) {
	if !finite(lo) || !finite(hi) {
		return
	}
	minX := int(math.Max(0, math.Floor(lo.X)))
	minY := int(math.Max(0, math.Floor(lo.Y/CellAspect)))
	maxX := int(math.Min(float64(g.width-1), math.Floor(hi.X)))
	maxY := int(math.Min(float64(g.height-1), math.Floor(hi.Y/CellAspect)))
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			if inside(radar.ScreenPoint{X: float64(x) + 0.5, Y: (float64(y) + 0.5) * CellAspect}) {
				g.fill(x, y, bg)
			}
		}
	}
}

// Circle draws a filled area, an aircraft dot or a ring outline.
func (g *Grid) Circle(c radar.Circle) {
	if c.Filled && c.Radius <= dotMaxRadius {
		x, y := toCell(c.Center)
		g.set(x, y, DotRune, c.Fill)
		return
	}

	if c.Filled {
		g.fillWhere(c.Center.Add(-c.Radius, -c.Radius), c.Center.Add(c.Radius, c.Radius), func(mid radar.ScreenPoint) bool {
			return mid.DistanceTo(c.Center) <= c.Radius
		}, c.Fill)
	}

	if c.Stroke.Width <= 0 {
		return
	}
	// sample densely enough that neighbouring samples share or touch cells
	steps := int(math.Max(64, 2*math.Pi*c.Radius))
	for i := 0; i < steps; i++ {
		a := 2 * math.Pi * float64(i) / float64(steps)
		x, y := toCell(c.Center.Add(c.Radius*math.Sin(a), -c.Radius*math.Cos(a)))
		g.set(x, y, RingRune, c.Stroke.Color)
	}
}

// Rect fills the cells whose centres lie inside a rounded rectangle. A
// stroked rect gets its outline in RingRune.
func (g *Grid) Rect(r radar.Rect) {
	g.fillWhere(r.Min, r.Max, r.Contains, r.Fill)
	if r.Stroke.Width <= 0 {
		return
	}
	corners := []radar.ScreenPoint{r.Min, {X: r.Max.X, Y: r.Min.Y}, r.Max, {X: r.Min.X, Y: r.Max.Y}, r.Min}
	for i := 1; i < len(corners); i++ {
		g.segment(corners[i-1], corners[i], RingRune, r.Stroke.Color, false)
	}
}

// Line draws a segment with a rune matching its direction.
func (g *Grid) Line(l radar.Line) {
	g.segment(l.From, l.To, lineRune(l.From, l.To), l.Stroke.Color, true)
}

// Polyline draws a trail.
func (g *Grid) Polyline(p radar.Polyline) {
	for i := 1; i < len(p.Points); i++ {
		g.segment(p.Points[i-1], p.Points[i], TrailRune, p.Stroke.Color, false)
	}
}

// Polygon draws a heading arrow at the shape's centroid. Shapes are a few
// pixels across, smaller than a cell, so only the direction survives.
func (g *Grid) Polygon(p radar.Polygon) {
	if len(p.Points) == 0 {
		return
	}
	var cx, cy float64
	for _, pt := range p.Points {
		cx += pt.X
		cy += pt.Y
	}
	n := float64(len(p.Points))
	x, y := toCell(radar.ScreenPoint{X: cx / n, Y: cy / n})

	r := DotRune
	if p.Heading >= 0 {
		r = HeadingRune(p.Heading)
	}
	g.set(x, y, r, p.Fill)
}

// Text writes a label. Background colours already in the grid are kept.
func (g *Grid) Text(t radar.Text) {
	x, y := toCell(t.Pos)
	width := utf8.RuneCountInString(t.Text)
	switch t.Align {
	case radar.AlignCenter:
		x -= width / 2
	case radar.AlignRight:
		x -= width
	}
	for _, r := range t.Text {
		g.set(x, y, r, t.Color)
		x++
	}
}

// HeadingRune returns the arrow closest to a compass heading.
func HeadingRune(heading float64) rune {
	h := math.Mod(heading, 360)
	if h < 0 {
		h += 360
	}
	return headingArrows[int(math.Round(h/45))%8]
}

func lineRune(from, to radar.ScreenPoint) rune {
	dx := to.X - from.X
	dy := (to.Y - from.Y) / CellAspect
	switch {
	case math.Abs(dy) <= math.Abs(dx)*0.4:
		return HorizontalRune
	case math.Abs(dx) <= math.Abs(dy)*0.4:
		return VerticalRune
	case (dx > 0) == (dy > 0):
		return BackslashRune
	default:
		return SlashRune
	}
}

// segment walks the cells between two points with Bresenham's algorithm.
// Straight lines crossing an existing perpendicular line become a cross.
func (g *Grid) segment(from, to radar.ScreenPoint, r rune, color theme.RGBA, join bool) {
	from, to, ok := g.clip(from, to)
	if !ok {
		return
	}
	x0, y0 := toCell(from)
	x1, y1 := toCell(to)

	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy

	for {
		rr := r
		if join {
			existing := g.At(x0, y0).Rune
			if (r == HorizontalRune && existing == VerticalRune) || (r == VerticalRune && existing == HorizontalRune) {
				rr = CrossRune
			}
		}
		g.set(x0, y0, rr, color)

		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

// clip trims a segment to the grid's pixel area with Liang-Barsky. Segments
// with non-finite ends or lying fully outside are dropped.
func (g *Grid) clip(from, to radar.ScreenPoint) (radar.ScreenPoint, radar.ScreenPoint, bool) {
	if !finite(from) || !finite(to) {
		return from, to, false
	}
	// stay a fraction inside the far edges so Floor lands on the last cell
	maxX := float64(g.width) - 1e-6
	maxY := float64(g.height)*CellAspect - 1e-6
	dx, dy := to.X-from.X, to.Y-from.Y

	t0, t1 := 0.0, 1.0
	edges := [4][2]float64{
		{-dx, from.X},
		{dx, maxX - from.X},
		{-dy, from.Y},
		{dy, maxY - from.Y},
	}
	for _, e := range edges {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return from, to, false
			}
			continue
		}
		t := q / p
		if p < 0 {
			t0 = math.Max(t0, t)
		} else {
			t1 = math.Min(t1, t)
		}
		if t0 > t1 {
			return from, to, false
		}
	}
	return from.Add(t0*dx, t0*dy), from.Add(t1*dx, t1*dy), true
}

func finite(p radar.ScreenPoint) bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
