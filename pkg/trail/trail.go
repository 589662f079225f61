// Package trail keeps a bounded history of recent positions per aircraft.
//
// A trail is created the first time an aircraft is observed with a position
// and grows by one point per observation until it reaches its bound, after
// which the oldest point is dropped for every new one. Trails are never
// expired implicitly: callers remove them with Clear, ClearAll or Sweep.
package trail

import (
	"sort"
	"time"

	"github.com/unklstewy/skyradar/pkg/geo"
)

// Point is one recorded position.
type Point struct {
	Position  geo.Position `json:"position"`
	Timestamp time.Time    `json:"timestamp"`
}

// Trail is a copy of one aircraft's history, oldest point first.
type Trail struct {
	ICAO24 string
	Points []Point
}

// Store holds one trail per ICAO address. It is not safe for concurrent
// use; the owner serialises access.
type Store struct {
	trails map[string][]Point
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{trails: make(map[string][]Point)}
}

// Update appends a position to the aircraft's trail, creating the trail on
// first use, then drops the oldest points until at most maxPoints remain.
// A maxPoints below 1 is treated as 1.
func (s *Store) Update(icao24 string, position geo.Position, timestamp time.Time, maxPoints int) {
	if maxPoints < 1 {
		maxPoints = 1
	}

	points := append(s.trails[icao24], Point{Position: position, Timestamp: timestamp})
	if excess := len(points) - maxPoints; excess > 0 {
		// shift in place so the backing array is reused
		copy(points, points[excess:])
		points = points[:maxPoints]
	}
	s.trails[icao24] = points
}

// Observe is Update for an optional position: a nil position is ignored.
func (s *Store) Observe(icao24 string, position *geo.Position, timestamp time.Time, maxPoints int) {
	if position == nil {
		return
	}
	s.Update(icao24, *position, timestamp, maxPoints)
}

// Get returns a copy of the trail, oldest first, or nil for an unknown aircraft.
func (s *Store) Get(icao24 string) []Point {
	points, ok := s.trails[icao24]
	if !ok {
		return nil
	}
	out := make([]Point, len(points))
	copy(out, points)
	return out
}

// Last returns the newest point of a trail.
func (s *Store) Last(icao24 string) (Point, bool) {
	points := s.trails[icao24]
	if len(points) == 0 {
		return Point{}, false
	}
	return points[len(points)-1], true
}

// IDs returns the ICAO addresses with a trail, sorted.
func (s *Store) IDs() []string {
	ids := make([]string, 0, len(s.trails))
	for id := range s.trails {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// All returns a copy of every trail in ID order.
func (s *Store) All() []Trail {
	ids := s.IDs()
	out := make([]Trail, 0, len(ids))
	for _, id := range ids {
		out = append(out, Trail{ICAO24: id, Points: s.Get(id)})
	}
	return out
}

// Len returns the number of trails.
func (s *Store) Len() int {
	return len(s.trails)
}

// PointCount returns the total number of points across all trails.
func (s *Store) PointCount() int {
	n := 0
	for _, points := range s.trails {
		n += len(points)
	}
	return n
}

// Clear removes one aircraft's trail.
func (s *Store) Clear(icao24 string) {
	delete(s.trails, icao24)
}

// ClearAll removes every trail.
func (s *Store) ClearAll() {
	s.trails = make(map[string][]Point)
}

// Sweep removes every trail for which keep returns false and reports how
// many were removed. keep receives the newest point of each trail.
func (s *Store) Sweep(keep func(icao24 string, last Point) bool) int {
	removed := 0
	for id, points := range s.trails {
		if len(points) > 0 && keep(id, points[len(points)-1]) {
			continue
		}
		delete(s.trails, id)
		removed++
	}
	return removed
}

// OlderThan builds a Sweep predicate that keeps trails updated within maxAge of now.
func OlderThan(now time.Time, maxAge time.Duration) func(string, Point) bool {
	return func(_ string, last Point) bool {
		return now.Sub(last.Timestamp) < maxAge
	}
}
