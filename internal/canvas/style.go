package canvas

import "github.com/unklstewy/skyradar/pkg/radar"

// TerminalStyle shrinks the radar furniture offsets to fit character cells.
// Offsets are in pixels, so a vertical gap of 2 is one row.
func TerminalStyle() radar.Style {
	s := radar.DefaultStyle()
	s.LabelOffset = 2
	s.CompassOffset = 3
	s.CrosshairSize = 2
	s.CenterLabelGap = 3
	s.RingLabelFactor = 0.7
	return s
}
