package adsb

import (
	"fmt"
	"strings"
)

// Source type names accepted by NewSource.
const (
	SourceOpenSky       = "opensky"
	SourceAirplanesLive = "airplanes.live"
	SourceMock          = "mock"
)

// NewSource builds a network or mock source by type name. Storage-backed
// sources live outside this package and are constructed by the caller.
func NewSource(kind string, cfg ClientConfig) (DataSource, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", SourceOpenSky:
		return NewOpenSkyClient(cfg), nil
	case SourceAirplanesLive, "airplaneslive":
		return NewAirplanesLiveClient(cfg), nil
	case SourceMock:
		return NewMockSource(), nil
	default:
		return nil, fmt.Errorf("unknown data source %q", kind)
	}
}
