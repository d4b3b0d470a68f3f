package fretboard

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/james-see/fretpad/pkg/config"
	"github.com/james-see/fretpad/pkg/notepad"
)

// Cells are 4 wide and 2 high in testBoard, so the center of the pad at
// course c, fret f is (f*4+2, (c-1)*2+1).
func at(course, fret int) (float64, float64) {
	return float64(fret*4 + 2), float64((course-1)*2 + 1)
}

func mouseInput(action Action, buttons uint8, course, fret int) PointerInput {
	x, y := at(course, fret)
	return PointerInput{ID: 0, Type: notepad.PointerMouse, X: x, Y: y, Action: action, Buttons: buttons}
}

func touchInput(action Action, course, fret int) PointerInput {
	x, y := at(course, fret)
	var buttons uint8
	if action != ActionUp {
		buttons = notepad.ButtonPrimary
	}
	return PointerInput{ID: 3, Type: notepad.PointerTouch, X: x, Y: y, Action: action, Buttons: buttons}
}

func TestRouterMouseSlide(t *testing.T) {
	b := testBoard(t, nil)
	log := &noteLog{}
	log.attach(b)

	held := notepad.ButtonPrimary
	b.Pointer(mouseInput(ActionMove, 0, 1, 0))    // hover, nothing held
	b.Pointer(mouseInput(ActionDown, held, 1, 0)) // press
	b.Pointer(mouseInput(ActionMove, held, 1, 1)) // slide to next fret
	b.Pointer(mouseInput(ActionMove, held, 2, 1)) // slide to next course
	b.Pointer(mouseInput(ActionUp, 0, 2, 1))      // release
	b.Pointer(mouseInput(ActionMove, 0, 2, 2))    // hover away, nothing held

	want := []string{
		"on c1f0#0",
		"off c1f0#0",
		"on c1f1#1",
		"off c1f1#1",
		"on c2f1#2",
		"off c2f1#2",
	}
	if got := log.summary(); !reflect.DeepEqual(got, want) {
		t.Errorf("events = %v\nwant %v", got, want)
	}
	if got := b.Hovered(0); got != "c2f2" {
		t.Errorf("Hovered() = %q, want c2f2", got)
	}
}

func TestRouterMouseHoverWithoutButtons(t *testing.T) {
	b := testBoard(t, nil)
	log := &noteLog{}
	log.attach(b)

	for fret := 0; fret <= 4; fret++ {
		b.Pointer(mouseInput(ActionMove, 0, 3, fret))
	}
	if len(log.events) != 0 {
		t.Errorf("hovering emitted %v", log.summary())
	}
}

func TestRouterMouseDragOffBoard(t *testing.T) {
	b := testBoard(t, nil)
	log := &noteLog{}
	log.attach(b)

	b.Pointer(mouseInput(ActionDown, notepad.ButtonPrimary, 1, 4))
	b.Pointer(PointerInput{Type: notepad.PointerMouse, X: 500, Y: 1, Action: ActionMove, Buttons: notepad.ButtonPrimary})
	b.Pointer(PointerInput{Type: notepad.PointerMouse, X: 500, Y: 1, Action: ActionUp})

	want := []string{"on c1f4#0", "off c1f4#0"}
	if got := log.summary(); !reflect.DeepEqual(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
}

func TestRouterPressOutsideThenSlideIn(t *testing.T) {
	b := testBoard(t, nil)
	log := &noteLog{}
	log.attach(b)

	b.Pointer(PointerInput{Type: notepad.PointerMouse, X: -1, Y: -1, Action: ActionDown, Buttons: notepad.ButtonPrimary})
	b.Pointer(mouseInput(ActionMove, notepad.ButtonPrimary, 4, 0))

	if got := log.summary(); !reflect.DeepEqual(got, []string{"on c4f0#0"}) {
		t.Errorf("events = %v", got)
	}
}

func TestRouterTouchTapAndSlide(t *testing.T) {
	b := testBoard(t, nil)
	log := &noteLog{}
	log.attach(b)

	b.Pointer(touchInput(ActionDown, 5, 0))
	if got := b.router.pointers[3]; got == nil || got.captured != nil {
		t.Fatalf("touch capture not released by the pad: %+v", got)
	}
	b.Pointer(touchInput(ActionMove, 5, 1))
	b.Pointer(touchInput(ActionUp, 5, 1))

	want := []string{"on c5f0#0", "off c5f0#0", "on c5f1#1", "off c5f1#1"}
	if got := log.summary(); !reflect.DeepEqual(got, want) {
		t.Errorf("events = %v\nwant %v", got, want)
	}
	if _, ok := b.router.pointers[3]; ok {
		t.Error("ended touch still tracked")
	}
}

func TestRouterTouchOnDisabledPad(t *testing.T) {
	b := testBoard(t, func(c *config.Board) { c.Disabled = []string{"c1f0"} })
	log := &noteLog{}
	log.attach(b)

	b.Pointer(touchInput(ActionDown, 1, 0))
	if b.router.pointers[3].captured != nil {
		t.Error("disabled pad kept the touch captured")
	}
	b.Pointer(touchInput(ActionMove, 1, 1))
	b.Pointer(touchInput(ActionUp, 1, 1))

	want := []string{"on c1f1#0", "off c1f1#0"}
	if got := log.summary(); !reflect.DeepEqual(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
}

func TestRouterCaptureHoldsTarget(t *testing.T) {
	b := testBoard(t, nil)
	log := &noteLog{}
	log.attach(b)

	// A pen press captures nothing; set a capture by hand to check that a
	// captured pointer keeps hitting its pad while it moves.
	b.Pointer(PointerInput{ID: 9, Type: notepad.PointerPen, X: 2, Y: 1, Action: ActionDown, Buttons: 1})
	b.Do(func(tx *Tx) {
		p, _ := tx.PadAt(1, 0)
		b.router.pointers[9].captured = p
	})
	b.Pointer(PointerInput{ID: 9, Type: notepad.PointerPen, X: 10, Y: 1, Action: ActionMove, Buttons: 1})
	if got := log.summary(); !reflect.DeepEqual(got, []string{"on c1f0#0"}) {
		t.Errorf("captured move changed pads: %v", got)
	}
	b.Pointer(PointerInput{ID: 9, Type: notepad.PointerPen, X: 10, Y: 1, Action: ActionUp})
	if got := log.summary(); len(got) != 2 || got[1] != "off c1f0#0" {
		t.Errorf("events = %v", got)
	}
}

func TestRouterCancel(t *testing.T) {
	b := testBoard(t, nil)
	log := &noteLog{}
	log.attach(b)

	b.Pointer(mouseInput(ActionDown, notepad.ButtonPrimary, 2, 2))
	b.Pointer(PointerInput{Action: ActionCancel})

	want := []string{"on c2f2#0", "off c2f2#0"}
	if got := log.summary(); !reflect.DeepEqual(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
	if b.Hovered(0) != "" {
		t.Error("cancelled pointer still hovering")
	}
}

func TestRouterIndependentPointers(t *testing.T) {
	b := testBoard(t, nil)
	log := &noteLog{}
	log.attach(b)

	b.Pointer(mouseInput(ActionDown, notepad.ButtonPrimary, 1, 0))
	b.Pointer(touchInput(ActionDown, 6, 4))
	b.Pointer(mouseInput(ActionUp, 0, 1, 0))
	b.Pointer(touchInput(ActionUp, 6, 4))

	want := []string{"on c1f0#0", "on c6f4#1", "off c1f0#0", "off c6f4#1"}
	if got := log.summary(); !reflect.DeepEqual(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
}

func TestParseAction(t *testing.T) {
	for _, a := range []Action{ActionMove, ActionDown, ActionUp, ActionCancel} {
		got, err := ParseAction(" " + strings.ToUpper(a.String()))
		if err != nil || got != a {
			t.Errorf("ParseAction(%q) = %v, %v", a.String(), got, err)
		}
	}
	if _, err := ParseAction("hover"); !errors.Is(err, ErrUnknownAction) {
		t.Errorf("ParseAction(hover) error = %v", err)
	}
}

func TestRouterIgnoresFarCoordinates(t *testing.T) {
	b := testBoard(t, nil)
	log := &noteLog{}
	log.attach(b)

	far := []struct{ x, y float64 }{
		{1e300, 1},
		{1, 1e300},
		{math.Inf(1), 1},
		{1, math.Inf(1)},
		{math.Inf(-1), 1},
		{math.MaxFloat64, math.MaxFloat64},
	}
	for _, p := range far {
		b.Pointer(PointerInput{ID: 1, Type: notepad.PointerMouse, X: p.x, Y: p.y, Action: ActionDown, Buttons: notepad.ButtonPrimary})
		b.Pointer(PointerInput{ID: 1, Type: notepad.PointerMouse, X: p.x, Y: p.y, Action: ActionUp})
		if got := b.Hovered(1); got != "" {
			t.Errorf("(%g, %g) hovers %q", p.x, p.y, got)
		}
	}
	if got := log.summary(); len(got) != 0 {
		t.Errorf("events = %v", got)
	}

	// the last cell is still reachable
	w, h := b.Bounds()
	b.Pointer(PointerInput{ID: 1, Type: notepad.PointerMouse, X: float64(w) - 0.5, Y: float64(h) - 0.5})
	if got := b.Hovered(1); got != PadID(b.Courses(), b.Frets()) {
		t.Errorf("Hovered() = %q at the far corner", got)
	}
}
