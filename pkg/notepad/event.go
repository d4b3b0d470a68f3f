package notepad

// EventType identifies a kind of pad notification.
type EventType uint8

const (
	NoteOn  EventType = iota // a pad started sounding
	NoteOff                  // a pad stopped sounding
)

func (t EventType) String() string {
	switch t {
	case NoteOn:
		return "note-on"
	case NoteOff:
		return "note-off"
	default:
		return "unknown"
	}
}

// MarshalText encodes the type by name
func (t EventType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// NoteEvent is the payload of note-on and note-off notifications.
// A note-off carries the correlation id of the note-on it ends.
type NoteEvent struct {
	CorrelationID int    `json:"correlationId"`
	Pitch         Pitch  `json:"pitch"`
	FillColor     string `json:"fillColor"`
	Label         string `json:"label"`
	Course        *int   `json:"course"`
	Fret          *int   `json:"fret"`
}

// Event is a notification travelling up the node tree
type Event struct {
	Type   EventType
	Detail NoteEvent
	Target *Pad // pad that emitted the event
}

// Listener receives events dispatched to a Node or any of its descendants.
type Listener func(Event)

// Int returns a pointer to n, for optional Course and Fret values.
func Int(n int) *int {
	return &n
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	return Int(*p)
}
