package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/unklstewy/skyradar/internal/canvas"
	"github.com/unklstewy/skyradar/internal/session"
	"github.com/unklstewy/skyradar/pkg/altitude"
)

// RadarView is a tview primitive that draws the session's radar into its
// inner rectangle.
type RadarView struct {
	*tview.Box
	sess *session.Session
}

// NewRadarView creates a bordered radar box.
func NewRadarView(s *session.Session) *RadarView {
	rv := &RadarView{
		Box:  tview.NewBox(),
		sess: s,
	}
	rv.SetBorder(true).SetTitle(" Radar ")
	return rv
}

// Draw renders the radar using tcell.
func (rv *RadarView) Draw(screen tcell.Screen) {
	rv.Box.DrawForSubclass(screen, rv)

	x, y, width, height := rv.GetInnerRect()
	if width <= 0 || height <= 0 {
		return
	}

	grid := canvas.NewGrid(width, height)
	rv.sess.Draw(canvas.PixelViewport(width, height)).Replay(grid)
	grid.Blit(screen, x, y)
}

// App is the tview dashboard: radar, aircraft table, status and logs.
type App struct {
	ctx  context.Context
	sess *session.Session
	now  func() time.Time

	tviewApp *tview.Application
	radar    *RadarView
	table    *tview.Table
	detail   *tview.TextView
	status   *tview.TextView
	controls *tview.TextView
	logs     *LogPanel

	// contacts backs the table rows; selected is the ICAO of the
	// highlighted row. Both are only touched on the UI goroutine.
	contacts []session.Contact
	selected string
	message  string
}

// NewApp creates the dashboard around a session. logs may be shared with
// the logger before the app starts.
func NewApp(ctx context.Context, s *session.Session, logs *LogPanel) *App {
	a := &App{
		ctx:  ctx,
		sess: s,
		now:  time.Now,
		logs: logs,
	}
	a.setupUI()
	return a
}

func (a *App) setupUI() {
	a.tviewApp = tview.NewApplication()
	a.radar = NewRadarView(a.sess)

	a.table = tview.NewTable().
		SetFixed(1, 0).
		SetSelectable(true, false)
	a.table.SetBorder(true).SetTitle(" Aircraft ")
	a.table.SetSelectionChangedFunc(func(row, _ int) {
		a.showDetail(row)
	})

	a.detail = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(false)
	a.detail.SetBorder(true).SetTitle(" Details ")

	a.status = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(false)
	a.status.SetBorder(true).SetTitle(" Status ")

	a.controls = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(false)
	a.controls.SetBorder(true).SetTitle(" Controls ")
	a.controls.SetText(`[yellow]ZOOM[-]
  [white]+/-[-]  Zoom
  [white]0[-]    Reset

[yellow]SETTINGS[-]
  [white]` + tview.Escape("[ ]") + `[-]  Range
  [white]p[-]    Preset
  [white]< >[-]  Interval
  [white]w[-]    Save
  [white]d[-]    Defaults

[yellow]TRAILS[-]
  [white]t[-]    Toggle
  [white]c[-]    Clear
  [white]s[-]    Sweep stale
  [white]e[-]    Export

[yellow]DATA[-]
  [white]r[-]    Refresh
  [white]a[-]    Auto refresh
  [white]l[-]    Theme

  [white]q[-]    Quit`)

	sidebar := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.table, 0, 5, true).
		AddItem(a.detail, 10, 0, false).
		AddItem(a.status, 8, 0, false).
		AddItem(a.logs.View(), 0, 3, false)

	left := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(a.radar, 0, 1, false).
		AddItem(a.controls, 20, 0, false)

	root := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(left, 0, 6, false).
		AddItem(sidebar, 0, 4, true)

	// arrow keys move the table selection
	a.tviewApp.SetRoot(root, true).SetFocus(a.table)
	a.tviewApp.SetInputCapture(a.handleKeyboard)
	a.refreshPanels()
}

func (a *App) handleKeyboard(event *tcell.EventKey) *tcell.EventKey {
	key := string(event.Rune())
	switch event.Key() {
	case tcell.KeyEscape:
		key = "esc"
	case tcell.KeyCtrlC:
		key = "ctrl+c"
	case tcell.KeyRune:
	default:
		return event
	}

	res := handleKey(a.sess, key, a.now())
	if !res.Handled {
		return event
	}
	if res.Quit {
		a.Stop()
		return nil
	}
	a.message = res.Message
	if res.Refresh {
		go a.fetch()
	}
	a.refreshPanels()
	return nil
}

// refreshPanels rebuilds the table and status text. It runs on the UI
// goroutine.
func (a *App) refreshPanels() {
	contacts := a.sess.Contacts()
	cfg := a.sess.Config()
	units := cfg.Radar.UnitsValue()
	variant := cfg.Radar.ThemeValue().Variant()

	// Clear and Select fire the selection callback; keep the choice
	selected := a.selected
	a.contacts = contacts
	a.table.Clear()
	for col, h := range []string{"ICAO", "Callsign", "Dist", "Brg", "Alt ft", "Band"} {
		a.table.SetCell(0, col, tview.NewTableCell(h).
			SetTextColor(tcell.ColorYellow).
			SetSelectable(false))
	}
	for i, ct := range contacts {
		ac := ct.Aircraft
		band := ac.Band()
		color := altitude.ColorFor(band, variant)
		alt := "---"
		if ac.Altitude != nil {
			alt = fmt.Sprintf("%.0f", *ac.Altitude)
		}
		row := i + 1
		a.table.SetCell(row, 0, tview.NewTableCell(ac.ICAO24))
		a.table.SetCell(row, 1, tview.NewTableCell(ac.DisplayName()))
		a.table.SetCell(row, 2, tview.NewTableCell(units.FormatDistance(ct.DistanceKm)).SetAlign(tview.AlignRight))
		a.table.SetCell(row, 3, tview.NewTableCell(fmt.Sprintf("%03.0f", ct.BearingDeg)).SetAlign(tview.AlignRight))
		a.table.SetCell(row, 4, tview.NewTableCell(alt).SetAlign(tview.AlignRight))
		a.table.SetCell(row, 5, tview.NewTableCell(band.String()).
			SetTextColor(tcell.NewRGBColor(int32(color.R), int32(color.G), int32(color.B))))
	}
	a.selected = selected
	a.table.Select(a.rowOf(selected), 0)

	st := a.sess.Status()
	text := fmt.Sprintf("[yellow]LOCATION:[-] [white]%s[-] [gray](%.4f°, %.4f°)[-]\n",
		tview.Escape(st.Location.DisplayName()), st.Location.Latitude, st.Location.Longitude)
	text += fmt.Sprintf("[gray]Source:[-] [white]%s[-]  [gray]Range:[-] [white]%s[-]  [gray]Zoom:[-] [white]%.1fx[-]\n",
		st.Source, units.FormatDistance(st.RangeKm), st.Scale)
	text += fmt.Sprintf("[gray]Aircraft:[-] [white]%d[-] ([white]%d[-] in range)  [gray]Trails:[-] [white]%d[-] %s\n",
		st.Aircraft, len(contacts), st.Trails, onOff(st.ShowTrails))
	text += fmt.Sprintf("[gray]Auto:[-] [white]%s[-] every [white]%ds[-]  [gray]Theme:[-] [white]%s[-]  [gray]Updated:[-] [white]%s[-]\n",
		onOff(st.AutoRefresh), st.RefreshSeconds, st.Theme, lastUpdate(st.LastFetch, a.now()))
	if st.Busy {
		text += "[yellow]Fetching...[-]\n"
	}
	if st.LastErr != nil {
		text += fmt.Sprintf("[red]%s[-]\n", tview.Escape(st.LastErr.Error()))
	} else if a.message != "" {
		text += fmt.Sprintf("[white]%s[-]\n", tview.Escape(a.message))
	}
	a.status.SetText(text)
}

// rowOf returns the table row of an aircraft, or 0 (the header) when it
// is no longer listed.
func (a *App) rowOf(icao24 string) int {
	for i, ct := range a.contacts {
		if ct.Aircraft.ICAO24 == icao24 {
			return i + 1
		}
	}
	return 0
}

// showDetail fills the details panel for a table row.
func (a *App) showDetail(row int) {
	if row < 1 || row > len(a.contacts) {
		a.selected = ""
		a.detail.SetText("[gray]Select an aircraft with the arrow keys[-]")
		return
	}
	ct := a.contacts[row-1]
	ac := ct.Aircraft
	a.selected = ac.ICAO24

	units := a.sess.Config().Radar.UnitsValue()
	country := ac.OriginCountry
	if country == "" {
		country = "-"
	}
	squawk := ac.Squawk
	if squawk == "" {
		squawk = "-"
	}

	text := fmt.Sprintf("[yellow]%s[-] [gray](%s)[-]\n", tview.Escape(ac.DisplayName()), ac.ICAO24)
	text += fmt.Sprintf("[gray]Country:[-] [white]%s[-]  [gray]Squawk:[-] [white]%s[-]\n", tview.Escape(country), tview.Escape(squawk))
	text += fmt.Sprintf("[gray]Altitude:[-] [white]%s[-]  [gray]Band:[-] [white]%s[-]\n", optional(ac.Altitude, "%.0f ft"), ac.Band())
	text += fmt.Sprintf("[gray]Speed:[-] [white]%s[-]  [gray]Heading:[-] [white]%s[-]\n", optional(ac.Velocity, "%.0f kts"), optional(ac.Heading, "%03.0f°"))
	text += fmt.Sprintf("[gray]Vertical:[-] [white]%s[-]  [gray]On ground:[-] [white]%s[-]\n", optional(ac.VerticalRate, "%+.0f fpm"), yesNo(ac.OnGround))
	text += fmt.Sprintf("[gray]Distance:[-] [white]%s[-]  [gray]Bearing:[-] [white]%03.0f°[-]\n", units.FormatDistance(ct.DistanceKm), ct.BearingDeg)
	a.detail.SetText(text)
}

func lastUpdate(t, now time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return fmt.Sprintf("%s (%ds ago)", t.Format(time.TimeOnly), int(now.Sub(t).Seconds()))
}

func (a *App) fetch() {
	err := a.sess.Fetch(a.ctx)
	if err != nil && !errors.Is(err, session.ErrRefreshInProgress) {
		log.Warn().Str("section", "view").Err(err).Msg("Refresh failed")
	}
	a.tviewApp.QueueUpdateDraw(a.refreshPanels)
}

// Run starts the update loop and blocks until the user quits.
func (a *App) Run() error {
	go a.updateLoop()
	return a.tviewApp.Run()
}

func (a *App) updateLoop() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	a.fetch()
	for {
		select {
		case <-ticker.C:
			if a.sess.Due() && !a.sess.Busy() {
				go a.fetch()
				continue
			}
			a.tviewApp.QueueUpdateDraw(a.refreshPanels)
		case <-a.ctx.Done():
			a.tviewApp.Stop()
			return
		}
	}
}

// Stop stops the application.
func (a *App) Stop() {
	log.Info().Str("section", "view").Msg("Shutting down")
	a.tviewApp.Stop()
}

func runView(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	logs := NewLogPanel(200)
	closeLog, err := fullScreenLogging(c, logs)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, cancel := signalContext()
	defer cancel()
	startMonitoring(ctx, c, cfg)

	s, err := newSession(ctx, cfg, session.WithConfigPath(c.String(flagConfig)))
	if err != nil {
		return err
	}
	defer s.Close()

	log.Info().Str("section", "view").Str("source", cfg.Source.Type).Msg("Radar started")
	if err := NewApp(ctx, s, logs).Run(); err != nil {
		return err
	}
	cancel()
	return nil
}
