package trail

import (
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// FeatureCollection exports every trail as a GeoJSON feature in ID order:
// a LineString for trails of two or more points and a Point otherwise.
func (s *Store) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, tr := range s.All() {
		if f := tr.Feature(); f != nil {
			fc.Append(f)
		}
	}
	return fc
}

// Feature converts one trail to a GeoJSON feature, or nil if it is empty.
func (t Trail) Feature() *geojson.Feature {
	if len(t.Points) == 0 {
		return nil
	}

	var g orb.Geometry
	if len(t.Points) == 1 {
		g = t.Points[0].Position.Point()
	} else {
		ls := make(orb.LineString, 0, len(t.Points))
		for _, p := range t.Points {
			ls = append(ls, p.Position.Point())
		}
		g = ls
	}

	f := geojson.NewFeature(g)
	f.ID = t.ICAO24
	f.Properties["icao24"] = t.ICAO24
	f.Properties["points"] = len(t.Points)
	f.Properties["first_seen"] = t.Points[0].Timestamp.UTC().Format(time.RFC3339)
	f.Properties["last_seen"] = t.Points[len(t.Points)-1].Timestamp.UTC().Format(time.RFC3339)
	return f
}
