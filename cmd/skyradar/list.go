package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"

	"github.com/unklstewy/skyradar/internal/canvas"
	"github.com/unklstewy/skyradar/internal/session"
	"github.com/unklstewy/skyradar/pkg/radar"
)

func runList(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	s, err := newSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.Fetch(ctx); err != nil {
		return err
	}

	if c.Bool("radar") {
		width := c.Int("width")
		fmt.Fprintln(os.Stdout, renderRadarText(s, width, width/2))
	}
	writeContacts(os.Stdout, s.Contacts(), cfg.Radar.UnitsValue(), time.Now())
	return nil
}

// renderRadarText draws the radar as plain text, for pipes and logs.
func renderRadarText(s *session.Session, cols, rows int) string {
	grid := canvas.NewGrid(cols, rows)
	s.Draw(canvas.PixelViewport(cols, rows)).Replay(grid)
	return grid.String()
}

// writeContacts prints one table row per aircraft in range.
func writeContacts(w io.Writer, contacts []session.Contact, units radar.Units, now time.Time) {
	tbl := tablewriter.NewWriter(w)
	tbl.SetHeader([]string{"ICAO", "Callsign", "Distance", "Bearing", "Altitude", "Band", "Heading", "Speed", "Active"})
	tbl.SetBorder(false)
	tbl.SetAutoWrapText(false)

	for _, ct := range contacts {
		ac := ct.Aircraft
		tbl.Append([]string{
			ac.ICAO24,
			ac.DisplayName(),
			units.FormatDistance(ct.DistanceKm),
			fmt.Sprintf("%03.0f°", ct.BearingDeg),
			optional(ac.Altitude, "%.0f ft"),
			ac.Band().String(),
			optional(ac.Heading, "%03.0f°"),
			optional(ac.Velocity, "%.0f kts"),
			yesNo(ac.IsActiveAt(now)),
		})
	}
	tbl.SetFooter([]string{"", "", "", "", "", "", "", "Total", fmt.Sprintf("%d", len(contacts))})
	tbl.Render()
}

func optional(v *float64, format string) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf(format, *v)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
