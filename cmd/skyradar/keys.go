package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/unklstewy/skyradar/internal/session"
	"github.com/unklstewy/skyradar/pkg/adsb"
)

// keyHelp is shown in the footer of both full screen front ends.
const keyHelp = "+/- zoom  0 reset  [/] range  p preset  </> interval  t trails  c clear  s sweep  r refresh  a auto  l theme  e export  w save  d defaults  q quit"

// intervalStep is the refresh interval change per key press, in seconds.
const intervalStep = 10

// keyResult tells the front end what to do after a key press.
type keyResult struct {
	Message string
	Refresh bool
	Quit    bool
	Handled bool
}

// handleKey applies a key to the session. Both front ends share it so the
// bindings cannot drift apart.
func handleKey(s *session.Session, key string, now time.Time) keyResult {
	res := keyResult{Handled: true}
	switch key {
	case "q", "ctrl+c", "esc":
		res.Quit = true
	case "+", "=":
		res.Message = fmt.Sprintf("Zoom %.1fx", s.ZoomIn())
	case "-", "_":
		res.Message = fmt.Sprintf("Zoom %.1fx", s.ZoomOut())
	case "0":
		s.ResetZoom()
		res.Message = "Zoom reset"
	case "]":
		res.Message = "Range " + s.Config().Radar.UnitsValue().FormatDistance(s.RangeUp())
	case "[":
		res.Message = "Range " + s.Config().Radar.UnitsValue().FormatDistance(s.RangeDown())
	case "p":
		res.Message = "Location " + s.CyclePreset().DisplayName()
		res.Refresh = true
	case ">", ".":
		st := s.Status()
		res.Message = fmt.Sprintf("Refresh every %ds", s.SetRefreshInterval(st.RefreshSeconds+intervalStep))
	case "<", ",":
		st := s.Status()
		res.Message = fmt.Sprintf("Refresh every %ds", s.SetRefreshInterval(st.RefreshSeconds-intervalStep))
	case "w":
		if path, err := s.SaveConfig(); err != nil {
			res.Message = err.Error()
		} else {
			res.Message = "Settings saved to " + path
		}
	case "d":
		s.ResetDefaults()
		res.Message = "Settings reset to defaults"
		res.Refresh = true
	case "t":
		res.Message = "Trails " + onOff(s.ToggleTrails())
	case "c":
		s.ClearTrails()
		res.Message = "Trails cleared"
	case "s":
		n := s.SweepStale(adsb.StaleThreshold)
		res.Message = fmt.Sprintf("Removed %d stale trails", n)
	case "r":
		res.Refresh = true
		res.Message = "Refreshing"
	case "a":
		res.Message = "Auto refresh " + onOff(s.ToggleAutoRefresh())
	case "l":
		res.Message = "Theme " + s.CycleTheme().String()
	case "e":
		path := exportFileName(now)
		if err := writeExport(s, path); err != nil {
			res.Message = err.Error()
		} else {
			res.Message = "Trails exported to " + path
		}
	default:
		res.Handled = false
	}

	if res.Message != "" {
		log.Info().Str("section", "keys").Str("key", key).Msg(res.Message)
	}
	return res
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func exportFileName(now time.Time) string {
	return "skyradar-trails-" + now.Format("20060102-150405") + ".geojson"
}

// writeExport writes the trails as GeoJSON to path, or to stdout for "-".
func writeExport(s *session.Session, path string) error {
	data, err := s.ExportGeoJSON()
	if err != nil {
		return err
	}
	if path == "-" || path == "" {
		_, err = os.Stdout.Write(append(data, '\n'))
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// statusLine summarises the session for the footer.
func statusLine(st session.Status, now time.Time) string {
	updated := "never"
	if !st.LastFetch.IsZero() {
		updated = fmt.Sprintf("%ds ago", int(now.Sub(st.LastFetch).Seconds()))
	}
	line := fmt.Sprintf("%s | %.4f, %.4f | %.0f km | %.1fx | %d aircraft | %d trails | trails %s | auto %s | %s | %s | updated %s",
		st.Source,
		st.Location.Latitude, st.Location.Longitude,
		st.RangeKm, st.Scale,
		st.Aircraft, st.Trails,
		onOff(st.ShowTrails), onOff(st.AutoRefresh),
		st.Theme, st.Location.DisplayName(),
		updated,
	)
	if st.Busy {
		line += " | fetching"
	}
	if st.LastErr != nil {
		line += " | error: " + st.LastErr.Error()
	}
	return line
}
