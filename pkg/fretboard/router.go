package fretboard

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/james-see/fretpad/pkg/notepad"
)

// Action is what a pointer did in a PointerInput
type Action uint8

const (
	ActionMove   Action = iota // moved, buttons unchanged
	ActionDown                 // a button was pressed or a touch began
	ActionUp                   // a button was released or a touch ended
	ActionCancel               // the host lost the pointer
)

func (a Action) String() string {
	switch a {
	case ActionMove:
		return "move"
	case ActionDown:
		return "down"
	case ActionUp:
		return "up"
	case ActionCancel:
		return "cancel"
	default:
		return "unknown"
	}
}

// ErrUnknownAction is returned by ParseAction
var ErrUnknownAction = errors.New("unknown pointer action")

// ParseAction parses "move", "down", "up" or "cancel" (case-insensitive)
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "move":
		return ActionMove, nil
	case "down":
		return ActionDown, nil
	case "up":
		return ActionUp, nil
	case "cancel":
		return ActionCancel, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAction, s)
}

// PointerInput is one raw pointer sample in board coordinates.
// Buttons is the held-button mask after the action.
type PointerInput struct {
	ID      int
	Type    notepad.PointerType
	X, Y    float64
	Action  Action
	Buttons uint8
}

type pointerState struct {
	hover    *notepad.Pad
	captured *notepad.Pad
	down     bool
}

// router turns pointer samples into pad pointer events: enter/leave on hover
// change, down/up on the pad under the pointer, and implicit capture for
// touches until the pad releases it.
type router struct {
	b        *Board
	pointers map[int]*pointerState
}

func newRouter(b *Board) *router {
	return &router{b: b, pointers: make(map[int]*pointerState)}
}

func (r *router) state(id int) *pointerState {
	ps, ok := r.pointers[id]
	if !ok {
		ps = &pointerState{}
		r.pointers[id] = ps
	}
	return ps
}

func (r *router) reset() {
	r.pointers = make(map[int]*pointerState)
}

// ReleasePointerCapture implements notepad.PointerCapturer
func (r *router) ReleasePointerCapture(pointerID int) {
	if ps, ok := r.pointers[pointerID]; ok {
		ps.captured = nil
	}
}

func (r *router) hitTest(x, y float64) *notepad.Pad {
	if x < 0 || y < 0 || math.IsNaN(x) || math.IsNaN(y) {
		return nil
	}
	// bound before converting: huge or infinite floats do not fit an int
	w, h := r.b.Bounds()
	if x >= float64(w) || y >= float64(h) {
		return nil
	}
	col := int(x) / r.b.cfg.CellWidth
	row := int(y) / r.b.cfg.CellHeight
	if row >= len(r.b.rows) || col >= len(r.b.rows[row]) {
		return nil
	}
	return r.b.rows[row][col]
}

func (r *router) process(in PointerInput) {
	ps := r.state(in.ID)

	buttons := in.Buttons
	if in.Action == ActionDown && buttons == 0 {
		buttons = notepad.ButtonPrimary
	}
	if in.Action == ActionCancel {
		r.cancel(in, ps)
		return
	}

	target := ps.captured
	if target == nil {
		target = r.hitTest(in.X, in.Y)
	}

	if target != ps.hover {
		if ps.hover != nil {
			r.send(ps.hover, notepad.PointerLeave, in, buttons)
		}
		if target != nil {
			r.send(target, notepad.PointerOver, in, buttons)
		}
		ps.hover = target
	}

	switch in.Action {
	case ActionDown:
		if ps.down {
			return
		}
		ps.down = true
		if target == nil {
			return
		}
		if in.Type == notepad.PointerTouch {
			ps.captured = target
		}
		r.send(target, notepad.PointerDown, in, buttons)
	case ActionUp:
		if !ps.down {
			return
		}
		ps.down = false
		ps.captured = nil
		if target != nil {
			r.send(target, notepad.PointerUp, in, buttons)
		}
		if in.Type == notepad.PointerTouch {
			// The touch point is gone, so it leaves whatever it was over.
			if ps.hover != nil {
				r.send(ps.hover, notepad.PointerLeave, in, buttons)
			}
			delete(r.pointers, in.ID)
		}
	}
}

func (r *router) cancel(in PointerInput, ps *pointerState) {
	if ps.hover != nil {
		r.send(ps.hover, notepad.PointerLeave, in, 0)
	}
	delete(r.pointers, in.ID)
}

func (r *router) send(p *notepad.Pad, kind notepad.PointerKind, in PointerInput, buttons uint8) {
	r.b.log.Debug("fretboard: route", "pad", r.b.ids[p], "kind", kind, "pointer", in.ID, "type", in.Type)
	p.HandlePointer(notepad.PointerEvent{
		Kind:    kind,
		Type:    in.Type,
		ID:      in.ID,
		Buttons: buttons,
		Capture: r,
	})
}
