// Package tui provides a terminal user interface for playing a fretboard
// with the mouse
package tui

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/james-see/fretpad/pkg/fretboard"
	"github.com/james-see/fretpad/pkg/notepad"
	"github.com/james-see/fretpad/pkg/termview"
)

// Acid-inspired color scheme
var (
	acidGreen  = lipgloss.Color("#39FF14")
	acidYellow = lipgloss.Color("#FFFF00")
	silverGray = lipgloss.Color("#C0C0C0")
	darkGray   = lipgloss.Color("#333333")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(acidGreen).
			Background(darkGray).
			Padding(0, 2)

	statusStyle = lipgloss.NewStyle().
			Foreground(acidYellow).
			PaddingLeft(2)

	gutterStyle = lipgloss.NewStyle().
			Foreground(silverGray).
			Width(gutterWidth - 1)

	fretStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			Align(lipgloss.Center)

	noteOnStyle = lipgloss.NewStyle().
			Foreground(acidGreen).
			Bold(true)

	noteOffStyle = lipgloss.NewStyle().
			Foreground(silverGray)

	helpStyle = lipgloss.NewStyle().
			MarginTop(1)
)

const (
	// course name plus the separator
	gutterWidth = 5
	logLines    = 8
	// the mouse is the only pointer a terminal has
	mousePointer = 1
)

// eventLog is shared by every copy of the Model, since bubbletea passes the
// model by value and board listeners outlive any single copy.
type eventLog struct {
	mu    sync.Mutex
	lines []string
	max   int
}

func (l *eventLog) add(ev notepad.Event) {
	d := ev.Detail
	where := ""
	if d.Course != nil && d.Fret != nil {
		where = fretboard.PadID(*d.Course, *d.Fret)
	}
	style := noteOffStyle
	if ev.Type == notepad.NoteOn {
		style = noteOnStyle
	}
	line := fmt.Sprintf("%s %-6s %-4s %-10s #%d",
		style.Render(fmt.Sprintf("%-8s", ev.Type)), where, d.Label, d.Pitch, d.CorrelationID)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, line)
	if len(l.lines) > l.max {
		l.lines = l.lines[len(l.lines)-l.max:]
	}
}

func (l *eventLog) clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = nil
}

func (l *eventLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.lines...)
}

// Model represents the TUI model
type Model struct {
	board   *fretboard.Board
	keys    keyMap
	help    help.Model
	events  *eventLog
	courses []string
	status  string
	detach  func()
	log     *slog.Logger
	width   int
	height  int
}

// New creates a Model playing board. Note events are logged in the model
// until Close is called.
func New(board *fretboard.Board, logger *slog.Logger) Model {
	if logger == nil {
		logger = slog.Default()
	}
	events := &eventLog{max: logLines}
	offOn := board.Listen(notepad.NoteOn, events.add)
	offOff := board.Listen(notepad.NoteOff, events.add)

	courses := make([]string, board.Courses())
	for i := range courses {
		if st, err := board.State(fretboard.PadID(i+1, 0)); err == nil {
			courses[i] = st.Label
		}
	}

	return Model{
		board:   board,
		keys:    defaultKeys(),
		help:    help.New(),
		events:  events,
		courses: courses,
		status:  "click or drag across the pads",
		detach: func() {
			offOn()
			offOff()
		},
		log: logger,
	}
}

// Close detaches the model from the board
func (m Model) Close() {
	if m.detach != nil {
		m.detach()
	}
}

// Init initializes the TUI model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles TUI updates
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.BlurMsg:
		// releases are not reported once the terminal loses focus
		m.board.ReleaseAll()
		return m, nil

	case tea.MouseMsg:
		if in, ok := m.pointerInput(msg); ok {
			m.board.Pointer(in)
		}
		return m, nil

	case tea.KeyMsg:
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.board.ReleaseAll()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Toggle):
		id := m.board.Hovered(mousePointer)
		if id == "" {
			m.status = "hover a pad first"
			return m, nil
		}
		playable, err := m.board.TogglePlayable(id)
		if err != nil {
			m.log.Error("toggle failed", "pad", id, "err", err)
			m.status = err.Error()
			return m, nil
		}
		if playable {
			m.status = id + " enabled"
		} else {
			m.status = id + " disabled"
		}
	case key.Matches(msg, m.keys.Release):
		m.board.ReleaseAll()
		m.status = "released"
	case key.Matches(msg, m.keys.Clear):
		m.events.clear()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

// pointerInput translates a terminal mouse event into board coordinates.
// Wheel events are dropped.
func (m Model) pointerInput(msg tea.MouseMsg) (fretboard.PointerInput, bool) {
	left, top := m.origin()
	in := fretboard.PointerInput{
		ID:   mousePointer,
		Type: notepad.PointerMouse,
		X:    float64(msg.X - left),
		Y:    float64(msg.Y - top),
	}

	var button uint8
	switch msg.Button {
	case tea.MouseButtonLeft:
		button = notepad.ButtonPrimary
	case tea.MouseButtonRight:
		button = notepad.ButtonSecondary
	case tea.MouseButtonMiddle:
		button = notepad.ButtonAuxiliary
	case tea.MouseButtonNone:
	default:
		return in, false
	}

	switch msg.Action {
	case tea.MouseActionPress:
		if button == 0 {
			return in, false
		}
		in.Action = fretboard.ActionDown
		in.Buttons = button
	case tea.MouseActionRelease:
		in.Action = fretboard.ActionUp
	case tea.MouseActionMotion:
		in.Action = fretboard.ActionMove
		in.Buttons = button
	default:
		return in, false
	}
	return in, true
}

// origin is the screen position of the board's top-left cell
func (m Model) origin() (x, y int) {
	return gutterWidth, lipgloss.Height(m.header()) + 1
}

func (m Model) header() string {
	status := m.status
	if sounding := m.board.Sounding(); len(sounding) > 0 {
		status += "  ♪ " + strings.Join(sounding, " ")
	}
	return titleStyle.Render("FRETPAD") + statusStyle.Render(status) + "\n"
}

// View renders the TUI
func (m Model) View() string {
	var s strings.Builder

	s.WriteString(m.header())
	s.WriteString("\n")
	s.WriteString(m.viewFrets())
	s.WriteString("\n")
	s.WriteString(m.viewBoard())
	s.WriteString("\n\n")
	s.WriteString(strings.Join(m.events.snapshot(), "\n"))
	s.WriteString("\n")
	s.WriteString(helpStyle.Render(m.help.View(m.keys)))

	return s.String()
}

func (m Model) viewFrets() string {
	cw, _ := m.board.CellSize()
	var s strings.Builder
	s.WriteString(strings.Repeat(" ", gutterWidth))
	for fret := 0; fret <= m.board.Frets(); fret++ {
		s.WriteString(fretStyle.Width(cw).Render(strconv.Itoa(fret)))
	}
	return s.String()
}

func (m Model) viewBoard() string {
	cw, ch := m.board.CellSize()
	views := m.board.Views()
	rows := make([]string, len(views))
	for i, course := range views {
		gutter := make([]string, ch)
		for j := range gutter {
			name := ""
			if j == ch/2 {
				name = m.courses[i]
			}
			gutter[j] = gutterStyle.Render(name) + "│"
		}
		blocks := []string{strings.Join(gutter, "\n")}
		for _, v := range course {
			blocks = append(blocks, termview.Render(v, cw, ch))
		}
		rows[i] = lipgloss.JoinHorizontal(lipgloss.Top, blocks...)
	}
	return strings.Join(rows, "\n")
}

// Run starts the TUI application and blocks until the user quits
func Run(board *fretboard.Board, logger *slog.Logger) error {
	m := New(board, logger)
	defer m.Close()
	defer board.ReleaseAll()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion(), tea.WithReportFocus())
	_, err := p.Run()
	return err
}
