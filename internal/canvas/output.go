package canvas

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/gdamore/tcell/v2"

	"github.com/unklstewy/skyradar/pkg/theme"
)

// String returns the grid as plain text, one line per row, without colour.
func (g *Grid) String() string {
	var b strings.Builder
	b.Grow(g.width*g.height + g.height)
	for y := 0; y < g.height; y++ {
		if y > 0 {
			b.WriteByte('\n')
		}
		for x := 0; x < g.width; x++ {
			b.WriteRune(g.cells[y*g.width+x].Rune)
		}
	}
	return b.String()
}

// Render returns the grid as lipgloss styled lines. Runs of cells sharing a
// style are rendered together.
func (g *Grid) Render() string {
	var b strings.Builder
	for y := 0; y < g.height; y++ {
		if y > 0 {
			b.WriteByte('\n')
		}
		row := g.cells[y*g.width : (y+1)*g.width]

		start := 0
		for x := 1; x <= len(row); x++ {
			if x < len(row) && sameStyle(row[x], row[start]) {
				continue
			}
			var run strings.Builder
			for _, c := range row[start:x] {
				run.WriteRune(c.Rune)
			}
			b.WriteString(lipglossStyle(row[start]).Render(run.String()))
			start = x
		}
	}
	return b.String()
}

func sameStyle(a, b Cell) bool {
	return a.HasFg == b.HasFg && a.HasBg == b.HasBg &&
		(!a.HasFg || a.Fg == b.Fg) && (!a.HasBg || a.Bg == b.Bg)
}

func lipglossStyle(c Cell) lipgloss.Style {
	s := lipgloss.NewStyle()
	if c.HasFg {
		s = s.Foreground(lipgloss.Color(c.Fg.Hex()))
	}
	if c.HasBg {
		s = s.Background(lipgloss.Color(c.Bg.Hex()))
	}
	return s
}

// Blit copies the grid onto a tcell screen with its top left corner at
// column x0, row y0.
func (g *Grid) Blit(screen tcell.Screen, x0, y0 int) {
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			c := g.cells[y*g.width+x]
			screen.SetContent(x0+x, y0+y, c.Rune, nil, TcellStyle(c))
		}
	}
}

// TcellStyle converts a cell's colours to a tcell style.
func TcellStyle(c Cell) tcell.Style {
	s := tcell.StyleDefault
	if c.HasFg {
		s = s.Foreground(tcellColor(c.Fg))
	}
	if c.HasBg {
		s = s.Background(tcellColor(c.Bg))
	}
	return s
}

func tcellColor(c theme.RGBA) tcell.Color {
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}
