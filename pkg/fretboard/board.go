// Package fretboard lays out note pads in courses and frets and routes raw
// pointer positions to them.
package fretboard

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/james-see/fretpad/pkg/config"
	"github.com/james-see/fretpad/pkg/notepad"
)

// ErrNoCourses is returned when a board has nothing to lay out
var ErrNoCourses = errors.New("board has no courses")

// Board is a grid of pads: one row per course, one column per fret with fret
// 0 the open string. All access goes through the board's lock, so a board may
// be shared between the terminal UI, the API server and MIDI sinks. Listeners
// run with the lock held and must not call back into the board.
type Board struct {
	mu     sync.Mutex
	cfg    config.Board
	alloc  *notepad.Allocator
	root   *notepad.Node
	rows   [][]*notepad.Pad
	byID   map[string]*notepad.Pad
	ids    map[*notepad.Pad]string
	router *router
	log    *slog.Logger

	// events emitted by the operation in progress, when one is collecting
	collected *[]notepad.Event
}

// New builds a board from its configuration. Every pad draws correlation ids
// from alloc.
func New(cfg config.Board, alloc *notepad.Allocator, logger *slog.Logger) (*Board, error) {
	if len(cfg.Courses) == 0 {
		return nil, ErrNoCourses
	}
	if cfg.Frets < 0 {
		return nil, fmt.Errorf("%w: %d", config.ErrBadFrets, cfg.Frets)
	}
	if alloc == nil {
		alloc = notepad.NewAllocator()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.CellWidth < 1 {
		cfg.CellWidth = 1
	}
	if cfg.CellHeight < 1 {
		cfg.CellHeight = 1
	}

	b := &Board{
		cfg:   cfg,
		alloc: alloc,
		root:  notepad.NewNode("fretboard"),
		byID:  make(map[string]*notepad.Pad),
		ids:   make(map[*notepad.Pad]string),
		log:   logger,
	}
	b.router = newRouter(b)
	b.root.AddListener(notepad.NoteOn, b.collect)
	b.root.AddListener(notepad.NoteOff, b.collect)

	disabled := make(map[string]bool, len(cfg.Disabled))
	for _, id := range cfg.Disabled {
		course, fret, err := ParsePadID(id)
		if err != nil || course > len(cfg.Courses) || fret > cfg.Frets {
			return nil, fmt.Errorf("disabled pad: %w: %q", ErrUnknownPad, id)
		}
		disabled[id] = true
	}

	b.rows = make([][]*notepad.Pad, len(cfg.Courses))
	for ci, course := range cfg.Courses {
		if len(course.Pitches) == 0 {
			return nil, fmt.Errorf("course %d: %w", ci+1, config.ErrEmptyCourse)
		}
		open := openPitch(course.Pitches)
		b.rows[ci] = make([]*notepad.Pad, cfg.Frets+1)
		for fret := 0; fret <= cfg.Frets; fret++ {
			id := PadID(ci+1, fret)
			pitch := open.Transpose(fret)
			pad := notepad.New(alloc, notepad.Config{
				NotPlayable: disabled[id],
				Pitch:       pitch,
				FillColor:   course.Color,
				FillWidth:   cfg.FillWidth,
				FillHeight:  cfg.FillHeight,
				Label:       NoteName(pitch.Values()[0]),
				Course:      notepad.Int(ci + 1),
				Fret:        notepad.Int(fret),
			})
			pad.AttachTo(b.root)
			b.rows[ci][fret] = pad
			b.byID[id] = pad
			b.ids[pad] = id
		}
	}
	b.log.Debug("fretboard: built", "courses", len(cfg.Courses), "frets", cfg.Frets)
	return b, nil
}

func openPitch(pitches []int) notepad.Pitch {
	if len(pitches) == 1 {
		return notepad.Single(pitches[0])
	}
	return notepad.Sequence(pitches...)
}

// Courses returns the number of courses (rows)
func (b *Board) Courses() int {
	return len(b.rows)
}

// Frets returns the highest fret; each course has Frets()+1 pads
func (b *Board) Frets() int {
	return b.cfg.Frets
}

// CellSize returns the size of one pad in board coordinates
func (b *Board) CellSize() (w, h int) {
	return b.cfg.CellWidth, b.cfg.CellHeight
}

// Bounds returns the board size in board coordinates
func (b *Board) Bounds() (w, h int) {
	return (b.cfg.Frets + 1) * b.cfg.CellWidth, len(b.rows) * b.cfg.CellHeight
}

// Listen registers fn on the board's root node, where every pad's events
// arrive. The returned function removes it.
func (b *Board) Listen(t notepad.EventType, fn notepad.Listener) (remove func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	rm := b.root.AddListener(t, fn)
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		rm()
	}
}

// Do runs fn with the board locked. fn may use the pads it looks up through
// the board it is given, but must not call any other Board method.
func (b *Board) Do(fn func(tx *Tx)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(&Tx{b: b})
}

// Tx is the locked view of a board handed to Do
type Tx struct {
	b *Board
}

// Pad returns a pad by id
func (tx *Tx) Pad(id string) (*notepad.Pad, error) {
	return tx.b.pad(id)
}

// PadAt returns the pad at a course (1-based) and fret
func (tx *Tx) PadAt(course, fret int) (*notepad.Pad, error) {
	return tx.b.pad(PadID(course, fret))
}

// Pads returns every pad, course by course, fret by fret
func (tx *Tx) Pads() []*notepad.Pad {
	out := make([]*notepad.Pad, 0, len(tx.b.byID))
	for _, row := range tx.b.rows {
		out = append(out, row...)
	}
	return out
}

// ID returns the id of a pad on this board
func (tx *Tx) ID(p *notepad.Pad) string {
	return tx.b.ids[p]
}

func (b *Board) pad(id string) (*notepad.Pad, error) {
	p, ok := b.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPad, id)
	}
	return p, nil
}

func (b *Board) collect(ev notepad.Event) {
	if b.collected != nil {
		*b.collected = append(*b.collected, ev)
	}
}

// collecting runs fn and returns the events it emitted. b.mu must be held.
func (b *Board) collecting(fn func()) []notepad.Event {
	var out []notepad.Event
	b.collected = &out
	defer func() { b.collected = nil }()
	fn()
	return out
}

// HandlePointer delivers a raw pointer event straight to one pad and returns
// the note events it caused.
func (b *Board) HandlePointer(id string, ev notepad.PointerEvent) ([]notepad.Event, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, err := b.pad(id)
	if err != nil {
		return nil, err
	}
	b.log.Debug("fretboard: pad pointer", "pad", id, "kind", ev.Kind, "type", ev.Type, "buttons", ev.Buttons)
	return b.collecting(func() { p.HandlePointer(ev) }), nil
}

// Pointer routes a board-level pointer input to the pads under it and
// returns the note events it caused.
func (b *Board) Pointer(in PointerInput) []notepad.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.collecting(func() { b.router.process(in) })
}

// Hovered returns the id of the pad under a pointer, or "" if none
func (b *Board) Hovered(pointerID int) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ps, ok := b.router.pointers[pointerID]; ok && ps.hover != nil {
		return b.ids[ps.hover]
	}
	return ""
}

// SetPlayable toggles a pad's playability
func (b *Board) SetPlayable(id string, playable bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, err := b.pad(id)
	if err != nil {
		return err
	}
	p.SetPlayable(playable)
	return nil
}

// TogglePlayable flips a pad's playability and returns the new value
func (b *Board) TogglePlayable(id string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, err := b.pad(id)
	if err != nil {
		return false, err
	}
	p.SetPlayable(!p.Playable())
	return p.Playable(), nil
}

// Apply applies a partial configuration change to a pad
func (b *Board) Apply(id string, patch Patch) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, err := b.pad(id)
	if err != nil {
		return err
	}
	p.Configure(patch.apply(p.Config()))
	return nil
}

// ReleaseAll stops every sounding pad as if the pointer had left it, and
// forgets all pointer state.
func (b *Board) ReleaseAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, row := range b.rows {
		for _, p := range row {
			if p.Sounding() {
				p.HandlePointer(notepad.PointerEvent{Kind: notepad.PointerLeave})
				n++
			}
		}
	}
	b.router.reset()
	if n > 0 {
		b.log.Info("fretboard: released sounding pads", "count", n)
	}
}

// Sounding returns the ids of the pads currently sounding
func (b *Board) Sounding() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	for _, row := range b.rows {
		for _, p := range row {
			if p.Sounding() {
				out = append(out, b.ids[p])
			}
		}
	}
	return out
}
