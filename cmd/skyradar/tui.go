package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/urfave/cli/v2"

	"github.com/unklstewy/skyradar/internal/canvas"
	"github.com/unklstewy/skyradar/internal/session"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00FF00"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5555"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
)

type tickMsg time.Time

type fetchedMsg struct {
	err error
}

type tuiModel struct {
	ctx     context.Context
	sess    *session.Session
	now     func() time.Time
	width   int
	height  int
	message string
	err     error
}

func newTuiModel(ctx context.Context, s *session.Session) *tuiModel {
	return &tuiModel{ctx: ctx, sess: s, now: time.Now}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *tuiModel) fetch() tea.Cmd {
	return func() tea.Msg {
		return fetchedMsg{err: m.sess.Fetch(m.ctx)}
	}
}

func (m *tuiModel) Init() tea.Cmd {
	return tea.Batch(tick(), m.fetch())
}

func (m *tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		res := handleKey(m.sess, msg.String(), m.now())
		if res.Quit {
			return m, tea.Quit
		}
		if res.Message != "" {
			m.message = res.Message
			m.err = nil
		}
		if res.Refresh {
			return m, m.fetch()
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		if m.sess.Due() && !m.sess.Busy() {
			return m, tea.Batch(tick(), m.fetch())
		}
		return m, tick()

	case fetchedMsg:
		switch {
		case errors.Is(msg.err, session.ErrRefreshInProgress):
		case msg.err != nil:
			m.err = msg.err
		default:
			m.err = nil
			m.message = fmt.Sprintf("Updated, %d aircraft", m.sess.Status().Aircraft)
		}
		return m, nil
	}
	return m, nil
}

// View draws the radar over everything but the title and two footer lines.
func (m *tuiModel) View() string {
	if m.width == 0 || m.height < 6 {
		return "Starting radar..."
	}
	cols, rows := m.width, m.height-3

	grid := canvas.NewGrid(cols, rows)
	m.sess.Draw(canvas.PixelViewport(cols, rows)).Replay(grid)

	footer := statusStyle.Render(truncate(statusLine(m.sess.Status(), m.now()), cols))
	msg := helpStyle.Render(truncate(keyHelp, cols))
	if m.err != nil {
		msg = errorStyle.Render(truncate(m.err.Error(), cols))
	} else if m.message != "" {
		msg = statusStyle.Render(truncate(m.message, cols)) + helpStyle.Render(truncate("  "+keyHelp, cols-len([]rune(m.message))))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("SKYRADAR"),
		grid.Render(),
		footer,
		msg,
	)
}

func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func runTui(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	closeLog, err := fullScreenLogging(c)
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

	if _, err := tea.NewProgram(newTuiModel(ctx, s), tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}
