package radar

import (
	"math"
	"testing"

	"github.com/unklstewy/skyradar/pkg/geo"
)

func testFrame(maxRangeKm, scale float64) Frame {
	return NewFrame(Viewport{Width: 800, Height: 600}, maxRangeKm, scale)
}

// TestNewFrame tests frame geometry derived from the viewport.
func TestNewFrame(t *testing.T) {
	f := NewFrame(Viewport{X: 10, Y: 20, Width: 800, Height: 600}, 50, 1)

	if f.Center != (ScreenPoint{X: 410, Y: 320}) {
		t.Errorf("Expected center (410, 320), got %v", f.Center)
	}
	if f.PixelRadius != 240 {
		t.Errorf("Expected pixel radius 240, got %f", f.PixelRadius)
	}

	if got := NewFrame(Viewport{Width: 100, Height: 100}, 50, 99).Scale; got != MaxScale {
		t.Errorf("Expected scale clamped to %v, got %v", MaxScale, got)
	}
}

// TestClampScale tests zoom bounds.
func TestClampScale(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{1, 1},
		{0.01, MinScale},
		{0.1, 0.1},
		{5, 5},
		{12, MaxScale},
		{-3, MinScale},
		{math.NaN(), 1},
	}
	for _, tt := range tests {
		if got := ClampScale(tt.in); got != tt.want {
			t.Errorf("ClampScale(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}

	s := 1.0
	for i := 0; i < 50; i++ {
		s = ZoomIn(s)
	}
	if s != MaxScale {
		t.Errorf("Expected repeated zoom in to stop at %v, got %v", MaxScale, s)
	}
	if got := ZoomOut(ZoomIn(1)); math.Abs(got-1) > 1e-12 {
		t.Errorf("Expected zoom in/out to round trip, got %v", got)
	}
}

// TestProjectReference tests that the reference maps to the exact centre.
func TestProjectReference(t *testing.T) {
	for _, scale := range []float64{0.1, 1, 5} {
		f := testFrame(50, scale)
		got, ok := Project(geo.SanFrancisco.Position(), geo.SanFrancisco, f)
		if !ok || got != f.Center {
			t.Errorf("scale %v: expected centre %v, got %v (%v)", scale, f.Center, got, ok)
		}
	}

	// zero range still shows the reference itself
	f := testFrame(0, 1)
	if got, ok := Project(geo.London.Position(), geo.London, f); !ok || got != f.Center {
		t.Errorf("Expected centre for zero range, got %v (%v)", got, ok)
	}
	if _, ok := Project(geo.London.PointAt(0.001, 0), geo.London, f); ok {
		t.Error("Expected any other point to be out of a zero range")
	}
}

// TestProjectOutOfRange tests that points beyond the range are rejected.
func TestProjectOutOfRange(t *testing.T) {
	ref := geo.Tokyo
	f := testFrame(50, 1)

	for _, bearing := range []float64{0, 90, 180, 270, 33} {
		if _, ok := Project(ref.PointAt(50.01, bearing), ref, f); ok {
			t.Errorf("bearing %v: expected 50.01 km to be out of range", bearing)
		}
		if _, ok := Project(ref.PointAt(49.99, bearing), ref, f); !ok {
			t.Errorf("bearing %v: expected 49.99 km to be in range", bearing)
		}
	}
}

// TestProjectInvalidPosition tests that non-finite coordinates are not drawn.
func TestProjectInvalidPosition(t *testing.T) {
	ref := geo.SanFrancisco
	f := testFrame(50, 1)

	for _, p := range []geo.Position{
		{Latitude: math.NaN(), Longitude: ref.Longitude},
		{Latitude: ref.Latitude, Longitude: math.NaN()},
		{Latitude: math.Inf(1), Longitude: ref.Longitude},
		{Latitude: 91, Longitude: 0},
	} {
		if got, ok := Project(p, ref, f); ok {
			t.Errorf("Expected %+v to be rejected, got %v", p, got)
		}
	}

	bad := geo.Location{Latitude: math.NaN(), Longitude: 0}
	if _, ok := Project(ref.Position(), bad, f); ok {
		t.Error("Expected an invalid reference to project nothing")
	}
}

// TestProjectWithinRadius tests that in-range points never leave the disc.
func TestProjectWithinRadius(t *testing.T) {
	ref := geo.Sydney
	for _, scale := range []float64{0.1, 0.5, 1, 2.4, 5} {
		f := testFrame(25, scale)
		for d := 0.0; d < 25; d += 2.5 {
			for b := 0.0; b < 360; b += 30 {
				sp, ok := Project(ref.PointAt(d, b), ref, f)
				if !ok {
					t.Fatalf("Expected %v km to be in range", d)
				}
				if got := f.Center.DistanceTo(sp); got > f.DisplayRadius()+1e-6 {
					t.Errorf("scale %v d %v b %v: pixel distance %f exceeds %f", scale, d, b, got, f.DisplayRadius())
				}
			}
		}
	}
}

// TestProjectLinear tests that doubling distance doubles pixel radius.
func TestProjectLinear(t *testing.T) {
	ref := geo.NewYork
	f := testFrame(100, 1)

	p1, _ := Project(ref.PointAt(20, 45), ref, f)
	p2, _ := Project(ref.PointAt(40, 45), ref, f)

	r1 := f.Center.DistanceTo(p1)
	r2 := f.Center.DistanceTo(p2)
	if math.Abs(r2/r1-2) > 1e-6 {
		t.Errorf("Expected ratio 2, got %f", r2/r1)
	}
	if math.Abs(r1-f.PixelRadius*0.2) > 1e-6 {
		t.Errorf("Expected radius %f, got %f", f.PixelRadius*0.2, r1)
	}
}

// TestProjectDirections tests the compass orientation of the plot.
func TestProjectDirections(t *testing.T) {
	ref := geo.London
	f := testFrame(50, 1)

	tests := []struct {
		name    string
		bearing float64
		check   func(dx, dy float64) bool
	}{
		{"North is up", 0, func(dx, dy float64) bool { return dy < 0 && math.Abs(dx) < 1e-6 }},
		{"East is right", 90, func(dx, dy float64) bool { return dx > 0 && math.Abs(dy) < 0.1 }},
		{"South is down", 180, func(dx, dy float64) bool { return dy > 0 && math.Abs(dx) < 1e-6 }},
		{"West is left", 270, func(dx, dy float64) bool { return dx < 0 && math.Abs(dy) < 0.1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sp, ok := Project(ref.PointAt(10, tt.bearing), ref, f)
			if !ok {
				t.Fatal("Expected point in range")
			}
			dx, dy := sp.X-f.Center.X, sp.Y-f.Center.Y
			if !tt.check(dx, dy) {
				t.Errorf("Unexpected offset (%f, %f)", dx, dy)
			}
		})
	}
}

// TestProjectSanFrancisco tests an aircraft just north-east of the city.
func TestProjectSanFrancisco(t *testing.T) {
	ref := geo.SanFrancisco
	f := testFrame(50, 1)
	ac := geo.NewPosition(37.78, -122.40)

	sp, ok := Project(ac, ref, f)
	if !ok {
		t.Fatal("Expected aircraft in range")
	}
	if d := f.Center.DistanceTo(sp); d > f.PixelRadius {
		t.Errorf("Expected point within radius, got %f", d)
	}
	if sp.X <= f.Center.X || sp.Y >= f.Center.Y {
		t.Errorf("Expected north-east quadrant, got offset (%f, %f)", sp.X-f.Center.X, sp.Y-f.Center.Y)
	}
	b := geo.Bearing(ref.Position(), ac)
	if b <= 0 || b >= 90 {
		t.Errorf("Expected bearing in (0, 90), got %f", b)
	}
}

// TestScaleDoesNotChangeRange tests that zoom only changes pixel radius.
func TestScaleDoesNotChangeRange(t *testing.T) {
	ref := geo.Tokyo
	p := ref.PointAt(30, 120)

	near, okNear := Project(p, ref, testFrame(50, 0.5))
	far, okFar := Project(p, ref, testFrame(50, 2))
	if !okNear || !okFar {
		t.Fatal("Expected point in range at any scale")
	}

	c := testFrame(50, 1).Center
	if ratio := c.DistanceTo(far) / c.DistanceTo(near); math.Abs(ratio-4) > 1e-6 {
		t.Errorf("Expected 4x pixel radius, got %f", ratio)
	}

	if _, ok := Project(ref.PointAt(60, 120), ref, testFrame(50, 5)); ok {
		t.Error("Expected zoom not to bring out-of-range points into view")
	}
}

// TestProjector tests the bound form.
func TestProjector(t *testing.T) {
	pr := Projector{Reference: geo.London, Frame: testFrame(10, 1)}
	if sp, ok := pr.Project(geo.London.Position()); !ok || sp != pr.Frame.Center {
		t.Errorf("Expected centre, got %v", sp)
	}
}
