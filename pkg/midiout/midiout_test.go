package midiout

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/james-see/fretpad/pkg/notepad"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func noteOn(id int, p notepad.Pitch) notepad.Event {
	return notepad.Event{Type: notepad.NoteOn, Detail: notepad.NoteEvent{CorrelationID: id, Pitch: p}}
}

func noteOff(id int, p notepad.Pitch) notepad.Event {
	return notepad.Event{Type: notepad.NoteOff, Detail: notepad.NoteEvent{CorrelationID: id, Pitch: p}}
}

type capture struct {
	msgs []midi.Message
	err  error
}

func (c *capture) send(msg midi.Message) error {
	c.msgs = append(c.msgs, msg)
	return c.err
}

func assertMessages(t *testing.T, got []midi.Message, want ...midi.Message) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d messages %v, want %d %v", len(got), got, len(want), want)
	}
	for i := range want {
		if !bytes.Equal(got[i], want[i]) {
			t.Errorf("message %d = % X, want % X", i, []byte(got[i]), []byte(want[i]))
		}
	}
}

func TestSenderSingle(t *testing.T) {
	c := &capture{}
	s := NewSender(c.send, 2, 90, quietLogger())

	s.OnEvent(noteOn(0, notepad.Single(64)))
	s.OnEvent(noteOff(0, notepad.Single(64)))

	assertMessages(t, c.msgs, midi.NoteOn(2, 64, 90), midi.NoteOff(2, 64))
}

func TestSenderSequence(t *testing.T) {
	c := &capture{}
	s := NewSender(c.send, 0, 100, quietLogger())

	s.OnEvent(noteOn(3, notepad.Sequence(40, 52)))
	s.OnEvent(noteOff(3, notepad.Sequence(40, 52)))

	assertMessages(t, c.msgs,
		midi.NoteOn(0, 40, 100), midi.NoteOn(0, 52, 100),
		midi.NoteOff(0, 40), midi.NoteOff(0, 52))
}

func TestSenderOffUsesHeldKeys(t *testing.T) {
	c := &capture{}
	s := NewSender(c.send, 0, 100, quietLogger())

	// pad retuned while sounding; the note-off must stop what was started
	s.OnEvent(noteOn(0, notepad.Single(60)))
	s.OnEvent(noteOff(0, notepad.Single(62)))

	assertMessages(t, c.msgs, midi.NoteOn(0, 60, 100), midi.NoteOff(0, 60))
}

func TestSenderSkipsOutOfRange(t *testing.T) {
	c := &capture{}
	s := NewSender(c.send, 0, 100, quietLogger())

	s.OnEvent(noteOn(0, notepad.Sequence(-1, 60, 128)))
	s.OnEvent(noteOn(1, notepad.Pitch{}))

	assertMessages(t, c.msgs, midi.NoteOn(0, 60, 100))
}

func TestSenderPanic(t *testing.T) {
	c := &capture{}
	s := NewSender(c.send, 0, 100, quietLogger())

	s.OnEvent(noteOn(0, notepad.Single(60)))
	c.msgs = nil
	s.Panic()
	assertMessages(t, c.msgs, midi.NoteOff(0, 60))

	c.msgs = nil
	s.Panic()
	if len(c.msgs) != 0 {
		t.Errorf("second Panic sent %v", c.msgs)
	}
}

func TestSenderKeepsGoingOnError(t *testing.T) {
	c := &capture{err: errors.New("port gone")}
	s := NewSender(c.send, 0, 100, quietLogger())

	s.OnEvent(noteOn(0, notepad.Sequence(40, 52)))
	if len(c.msgs) != 2 {
		t.Errorf("sent %d messages, want 2", len(c.msgs))
	}
}

type fakeSource struct {
	listeners map[notepad.EventType][]notepad.Listener
	removed   int
}

func (f *fakeSource) Listen(t notepad.EventType, fn notepad.Listener) func() {
	if f.listeners == nil {
		f.listeners = make(map[notepad.EventType][]notepad.Listener)
	}
	f.listeners[t] = append(f.listeners[t], fn)
	return func() { f.removed++ }
}

func TestAttach(t *testing.T) {
	src := &fakeSource{}
	c := &capture{}
	detach := Attach(src, NewSender(c.send, 0, 100, quietLogger()))

	if len(src.listeners[notepad.NoteOn]) != 1 || len(src.listeners[notepad.NoteOff]) != 1 {
		t.Fatalf("listeners = %v", src.listeners)
	}
	src.listeners[notepad.NoteOn][0](noteOn(0, notepad.Single(60)))
	assertMessages(t, c.msgs, midi.NoteOn(0, 60, 100))

	detach()
	if src.removed != 2 {
		t.Errorf("removed = %d, want 2", src.removed)
	}
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

type parsedNote struct {
	tick int64
	key  uint8
	on   bool
}

// parseTrack reads channel notes and the tempo from the first track
func parseTrack(t *testing.T, data []byte) ([]parsedNote, float64, uint16) {
	t.Helper()
	s, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ReadFrom: %v", err)
	}
	if len(s.Tracks) != 1 {
		t.Fatalf("tracks = %d, want 1", len(s.Tracks))
	}
	var tpq uint16
	if mt, ok := s.TimeFormat.(smf.MetricTicks); ok {
		tpq = mt.Resolution()
	}

	var notes []parsedNote
	var tempo float64
	var tick int64
	for _, ev := range s.Tracks[0] {
		tick += int64(ev.Delta)
		msg := ev.Message
		if len(msg) >= 6 && msg[0] == 0xFF && msg[1] == 0x51 && msg[2] == 0x03 {
			us := uint32(msg[3])<<16 | uint32(msg[4])<<8 | uint32(msg[5])
			tempo = 60000000.0 / float64(us)
		}
		if len(msg) < 3 {
			continue
		}
		status, key, vel := msg[0], msg[1], msg[2]
		switch {
		case status >= 0x90 && status <= 0x9F && vel > 0:
			notes = append(notes, parsedNote{tick, key, true})
		case status >= 0x80 && status <= 0x8F, status >= 0x90 && status <= 0x9F:
			notes = append(notes, parsedNote{tick, key, false})
		}
	}
	return notes, tempo, tpq
}

func TestRecorderWriteTo(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	r := NewRecorder(0, 100, quietLogger(), WithClock(clock.now))

	clock.advance(3 * time.Second) // leading silence is not recorded
	r.OnEvent(noteOn(0, notepad.Single(60)))
	clock.advance(500 * time.Millisecond)
	r.OnEvent(noteOff(0, notepad.Single(60)))
	clock.advance(500 * time.Millisecond)
	r.OnEvent(noteOn(1, notepad.Sequence(40, 52)))

	if r.Len() != 4 {
		t.Fatalf("Len = %d, want 4", r.Len())
	}

	data, err := r.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	notes, tempo, tpq := parseTrack(t, data)
	if tpq != 480 {
		t.Errorf("resolution = %d, want 480", tpq)
	}
	if tempo != 120 {
		t.Errorf("tempo = %v, want 120", tempo)
	}
	want := []parsedNote{
		{0, 60, true},
		{480, 60, false},
		{960, 40, true},
		{960, 52, true},
		{960, 40, false},
		{960, 52, false},
	}
	if len(notes) != len(want) {
		t.Fatalf("notes = %v, want %v", notes, want)
	}
	for i := range want {
		if notes[i] != want[i] {
			t.Errorf("note %d = %+v, want %+v", i, notes[i], want[i])
		}
	}

	// closing hanging notes in the file leaves the recording open
	clock.advance(250 * time.Millisecond)
	r.OnEvent(noteOff(1, notepad.Sequence(40, 52)))
	if r.Len() != 6 {
		t.Errorf("Len after off = %d, want 6", r.Len())
	}
}

func TestRecorderTempo(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	r := NewRecorder(0, 100, quietLogger(), WithClock(clock.now), WithTempo(60))

	r.OnEvent(noteOn(0, notepad.Single(60)))
	clock.advance(time.Second)
	r.OnEvent(noteOff(0, notepad.Single(60)))

	data, err := r.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	notes, tempo, _ := parseTrack(t, data)
	if tempo != 60 {
		t.Errorf("tempo = %v, want 60", tempo)
	}
	if len(notes) != 2 || notes[1].tick != 480 {
		t.Errorf("notes = %v, want off at 480", notes)
	}
}

func TestRecorderEmpty(t *testing.T) {
	r := NewRecorder(0, 100, quietLogger())
	data, err := r.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	notes, _, _ := parseTrack(t, data)
	if len(notes) != 0 {
		t.Errorf("notes = %v, want none", notes)
	}
}

func TestRecorderReset(t *testing.T) {
	r := NewRecorder(0, 100, quietLogger())
	r.OnEvent(noteOn(0, notepad.Single(60)))
	r.Reset()
	if r.Len() != 0 {
		t.Errorf("Len = %d after Reset", r.Len())
	}
}

func TestRecorderSaveAndFlush(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "take.mid")

	r := NewRecorder(0, 100, quietLogger())
	if err := r.Flush(); err != nil {
		t.Fatalf("Flush without autosave: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("file written without autosave")
	}

	r.Autosave(path, time.Hour)
	r.OnEvent(noteOn(0, notepad.Single(60)))
	if err := r.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("MThd")) {
		t.Errorf("not an SMF: % X", data[:4])
	}
}

func TestRecorderAutosave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auto.mid")
	r := NewRecorder(0, 100, quietLogger())
	r.Autosave(path, 10*time.Millisecond)

	r.OnEvent(noteOn(0, notepad.Single(60)))
	r.OnEvent(noteOff(0, notepad.Single(60)))

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(path); err == nil {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("autosave never wrote the file")
}

func TestRecorderClosesHangingNotesInOrder(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	r := NewRecorder(0, 100, quietLogger(), WithClock(clock.now))
	pitches := []uint8{64, 40, 55, 47, 59, 50}
	for i, key := range pitches {
		r.OnEvent(noteOn(i, notepad.Single(int(key))))
	}

	var first []byte
	for run := 0; run < 20; run++ {
		data, err := r.Bytes()
		if err != nil {
			t.Fatal(err)
		}
		if run == 0 {
			first = data
			notes, _, _ := parseTrack(t, data)
			var offs []uint8
			for _, n := range notes {
				if !n.on {
					offs = append(offs, n.key)
				}
			}
			if !bytes.Equal(offs, pitches) {
				t.Fatalf("note-offs = %v, want %v", offs, pitches)
			}
			continue
		}
		if !bytes.Equal(data, first) {
			t.Fatalf("run %d wrote a different file", run)
		}
	}
}
