package notepad

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownPointerType = errors.New("unknown pointer type")
	ErrUnknownPointerKind = errors.New("unknown pointer event kind")
)

// PointerType is the kind of device behind a pointer.
type PointerType uint8

const (
	PointerMouse PointerType = iota
	PointerPen
	PointerTouch
)

func (t PointerType) String() string {
	switch t {
	case PointerMouse:
		return "mouse"
	case PointerPen:
		return "pen"
	case PointerTouch:
		return "touch"
	default:
		return fmt.Sprintf("PointerType(%d)", t)
	}
}

// ParsePointerType parses "mouse", "pen" or "touch" (case-insensitive)
func ParsePointerType(s string) (PointerType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mouse":
		return PointerMouse, nil
	case "pen":
		return PointerPen, nil
	case "touch":
		return PointerTouch, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPointerType, s)
}

func (t PointerType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *PointerType) UnmarshalText(text []byte) error {
	v, err := ParsePointerType(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// PointerKind is the raw pointer notification delivered to a pad.
type PointerKind uint8

const (
	PointerDown  PointerKind = iota // press
	PointerOver                     // pointer entered the pad
	PointerUp                       // release
	PointerLeave                    // pointer left the pad
)

func (k PointerKind) String() string {
	switch k {
	case PointerDown:
		return "down"
	case PointerOver:
		return "over"
	case PointerUp:
		return "up"
	case PointerLeave:
		return "leave"
	default:
		return fmt.Sprintf("PointerKind(%d)", k)
	}
}

// ParsePointerKind accepts "down", "over", "up", "leave" and the aliases
// "press", "enter" and "release".
func ParsePointerKind(s string) (PointerKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "down", "press":
		return PointerDown, nil
	case "over", "enter":
		return PointerOver, nil
	case "up", "release":
		return PointerUp, nil
	case "leave":
		return PointerLeave, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPointerKind, s)
}

func (k PointerKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *PointerKind) UnmarshalText(text []byte) error {
	v, err := ParsePointerKind(string(text))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// Button bits for PointerEvent.Buttons.
const (
	ButtonPrimary   uint8 = 1 << iota // left mouse button, touch contact, pen tip
	ButtonSecondary                   // right mouse button, pen barrel
	ButtonAuxiliary                   // middle mouse button
)

// PointerCapturer releases a pointer captured by the host. Touch presses
// release capture so that the pointer can slide onto neighboring pads.
type PointerCapturer interface {
	ReleasePointerCapture(pointerID int)
}

// PointerEvent is one raw pointer notification.
type PointerEvent struct {
	Kind    PointerKind
	Type    PointerType
	ID      int
	Buttons uint8           // held buttons; non-zero means pressed
	Capture PointerCapturer // optional
}

// Held reports whether any button is held
func (e PointerEvent) Held() bool {
	return e.Buttons != 0
}
