// Package termview draws note pad views as blocks of terminal cells
package termview

import (
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/james-see/fretpad/pkg/notepad"
)

var (
	labelDark  = colorful.Color{R: 0.1, G: 0.1, B: 0.1}
	labelLight = colorful.Color{R: 0.95, G: 0.95, B: 0.95}
	labelPlain = lipgloss.Color("#C0C0C0")
)

// Cell is one terminal cell of a rendered pad
type Cell struct {
	Rune  rune
	Fill  bool // inside the fill region
	Label bool // part of the label text
}

// Grid is a laid-out pad, Grid[row][col]
type Grid [][]Cell

// String returns the grid's text without styling
func (g Grid) String() string {
	rows := make([]string, len(g))
	for i, row := range g {
		var sb strings.Builder
		for _, c := range row {
			sb.WriteRune(c.Rune)
		}
		rows[i] = sb.String()
	}
	return strings.Join(rows, "\n")
}

// Extent resolves a fill size against the available cells. "50%" is a
// fraction of total, "3" is three cells, anything else (including "") is
// the whole extent.
func Extent(s string, total int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return total
	}
	var n float64
	if strings.HasSuffix(s, "%") {
		pct, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		if err != nil {
			return total
		}
		n = math.Round(float64(total) * pct / 100)
	} else {
		cells, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return total
		}
		n = math.Round(cells)
	}
	switch {
	case math.IsNaN(n):
		return total
	case n < 0:
		return 0
	case n > float64(total):
		return total
	}
	return int(n)
}

// Layout places a view's fill and label into a w×h grid. The fill is
// centered; the label is centered on the middle row and cut to fit.
func Layout(v notepad.View, w, h int) Grid {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	fw, fh := Extent(v.Fill.Width, w), Extent(v.Fill.Height, h)
	fx, fy := (w-fw)/2, (h-fh)/2

	label := []rune(v.Label.Text)
	if len(label) > w {
		label = label[:w]
	}
	lx, ly := (w-len(label))/2, h/2

	g := make(Grid, h)
	for y := 0; y < h; y++ {
		g[y] = make([]Cell, w)
		for x := 0; x < w; x++ {
			c := Cell{Rune: ' '}
			c.Fill = x >= fx && x < fx+fw && y >= fy && y < fy+fh
			if y == ly && x >= lx && x < lx+len(label) {
				c.Rune = label[x-lx]
				c.Label = true
			}
			g[y][x] = c
		}
	}
	return g
}

// palette is the resolved styling of one view
type palette struct {
	fill      lipgloss.Style
	labelFill lipgloss.Style
	labelBare lipgloss.Style
	base      lipgloss.Style
}

func newPalette(v notepad.View) palette {
	p := palette{
		base:      lipgloss.NewStyle(),
		fill:      lipgloss.NewStyle(),
		labelFill: lipgloss.NewStyle(),
		labelBare: lipgloss.NewStyle().Foreground(labelPlain),
	}
	if v.Active {
		p.labelFill = p.labelFill.Bold(true)
		p.labelBare = p.labelBare.Bold(true)
	}

	fill, ok := FillColor(v.Fill)
	switch {
	case ok:
		fg := labelLight
		if luminance(fill) > 0.5 {
			fg = labelDark
		}
		fg = Apply(v.Label.Filter, fg)
		p.fill = p.fill.Background(lipgloss.Color(fill.Hex()))
		p.labelFill = p.labelFill.Background(lipgloss.Color(fill.Hex())).Foreground(lipgloss.Color(fg.Hex()))
	case v.Fill.Color != "":
		// Not a hex color: hand it to lipgloss as is (ANSI index or name).
		p.fill = p.fill.Background(lipgloss.Color(v.Fill.Color))
		p.labelFill = p.labelFill.Background(lipgloss.Color(v.Fill.Color))
		if v.Active {
			p.fill = p.fill.Bold(true)
		}
	}
	return p
}

// FillColor parses a hex fill color and applies the view's filter. It
// reports false for empty and non-hex colors.
func FillColor(f notepad.Fill) (colorful.Color, bool) {
	if !strings.HasPrefix(f.Color, "#") {
		return colorful.Color{}, false
	}
	c, err := colorful.Hex(f.Color)
	if err != nil {
		return colorful.Color{}, false
	}
	return Apply(f.Filter, c), true
}

func luminance(c colorful.Color) float64 {
	return 0.2126*c.R + 0.7152*c.G + 0.0722*c.B
}

// Render draws v into a w×h block of cells, one line per row
func Render(v notepad.View, w, h int) string {
	g := Layout(v, w, h)
	p := newPalette(v)

	rows := make([]string, len(g))
	for y, row := range g {
		var sb strings.Builder
		start := 0
		for x := 1; x <= len(row); x++ {
			if x < len(row) && sameRun(row[x], row[start]) {
				continue
			}
			run := make([]rune, 0, x-start)
			for _, c := range row[start:x] {
				run = append(run, c.Rune)
			}
			sb.WriteString(p.styleFor(row[start]).Render(string(run)))
			start = x
		}
		rows[y] = sb.String()
	}
	return strings.Join(rows, "\n")
}

func sameRun(a, b Cell) bool {
	return a.Fill == b.Fill && a.Label == b.Label
}

func (p palette) styleFor(c Cell) lipgloss.Style {
	switch {
	case c.Label && c.Fill:
		return p.labelFill
	case c.Label:
		return p.labelBare
	case c.Fill:
		return p.fill
	}
	return p.base
}
