package api

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/james-see/fretpad/pkg/fretboard"
	"github.com/james-see/fretpad/pkg/notepad"
)

const subscriberBuffer = 64

// NoteJSON is a note event as the API reports it
type NoteJSON struct {
	Type   notepad.EventType `json:"type"`
	Pad    string            `json:"pad,omitempty"`
	Detail notepad.NoteEvent `json:"detail"`
}

// Message is a note event published to stream subscribers
type Message struct {
	NoteJSON
	Seq  uint64    `json:"seq"`
	Time time.Time `json:"time"`
}

func noteJSON(ev notepad.Event) NoteJSON {
	n := NoteJSON{Type: ev.Type, Detail: ev.Detail}
	if ev.Detail.Course != nil && ev.Detail.Fret != nil {
		n.Pad = fretboard.PadID(*ev.Detail.Course, *ev.Detail.Fret)
	}
	return n
}

func notesJSON(evs []notepad.Event) []NoteJSON {
	out := make([]NoteJSON, 0, len(evs))
	for _, ev := range evs {
		out = append(out, noteJSON(ev))
	}
	return out
}

// Broker fans note events out to stream subscribers and keeps the most
// recent ones. Publishing never blocks: a subscriber that falls behind
// misses events.
type Broker struct {
	mu     sync.Mutex
	subs   map[uuid.UUID]chan Message
	recent []Message
	max    int
	seq    uint64
	closed bool
	log    *slog.Logger
}

// NewBroker creates a Broker remembering up to recent events
func NewBroker(recent int, logger *slog.Logger) *Broker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broker{
		subs: make(map[uuid.UUID]chan Message),
		max:  recent,
		log:  logger,
	}
}

// OnEvent publishes a note event
func (b *Broker) OnEvent(ev notepad.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.seq++
	msg := Message{NoteJSON: noteJSON(ev), Seq: b.seq, Time: time.Now()}

	if b.max > 0 {
		b.recent = append(b.recent, msg)
		if len(b.recent) > b.max {
			b.recent = b.recent[len(b.recent)-b.max:]
		}
	}

	for id, ch := range b.subs {
		select {
		case ch <- msg:
		default:
			b.log.Warn("api: subscriber too slow, event dropped", "subscriber", id, "seq", msg.Seq)
		}
	}
}

// Subscribe registers a new subscriber. The channel is closed by
// Unsubscribe or Close.
func (b *Broker) Subscribe() (uuid.UUID, <-chan Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := uuid.New()
	ch := make(chan Message, subscriberBuffer)
	if b.closed {
		close(ch)
		return id, ch
	}
	b.subs[id] = ch
	b.log.Debug("api: subscribed", "subscriber", id)
	return id, ch
}

// Unsubscribe removes a subscriber
func (b *Broker) Unsubscribe(id uuid.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
		b.log.Debug("api: unsubscribed", "subscriber", id)
	}
}

// Subscribers returns the number of live subscribers
func (b *Broker) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Recent returns up to limit of the latest events, oldest first
func (b *Broker) Recent(limit int) []Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := len(b.recent)
	if limit < 0 || limit > n {
		limit = n
	}
	return append([]Message{}, b.recent[n-limit:]...)
}

// Close ends every subscription and refuses new ones
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
