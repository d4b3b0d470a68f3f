package midiout

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/bep/debounce"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/james-see/fretpad/pkg/notepad"
)

// Recorder captures note events with their wall-clock timing and writes them
// as a single-track Standard MIDI File.
type Recorder struct {
	mu              sync.Mutex
	channel         uint8
	velocity        uint8
	ticksPerQuarter uint16
	tempo           float64
	now             func() time.Time
	start           time.Time
	events          []timedMessage
	notes           tracker
	log             *slog.Logger

	autosavePath string
	debounced    func(f func())
}

type timedMessage struct {
	at  time.Duration
	msg midi.Message
}

// RecorderOption configures a Recorder
type RecorderOption func(*Recorder)

// WithClock replaces time.Now, mostly for tests
func WithClock(now func() time.Time) RecorderOption {
	return func(r *Recorder) { r.now = now }
}

// WithTempo sets the tempo written to the file. Timing is kept in real time
// either way; the tempo only changes how it maps onto ticks.
func WithTempo(bpm float64) RecorderOption {
	return func(r *Recorder) {
		if bpm > 0 {
			r.tempo = bpm
		}
	}
}

// NewRecorder creates an empty Recorder
func NewRecorder(channel, velocity uint8, logger *slog.Logger, opts ...RecorderOption) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Recorder{
		channel:         channel & 0x0F,
		velocity:        velocity & 0x7F,
		ticksPerQuarter: 480,
		tempo:           120.0,
		now:             time.Now,
		notes:           newTracker(logger),
		log:             logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// OnEvent records the MIDI messages for a note event. The first recorded
// event is at time zero.
func (r *Recorder) OnEvent(ev notepad.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if len(r.events) == 0 {
		r.start = now
	}
	at := now.Sub(r.start)

	switch ev.Type {
	case notepad.NoteOn:
		for _, key := range r.notes.on(ev.Detail) {
			r.events = append(r.events, timedMessage{at, midi.NoteOn(r.channel, key, r.velocity)})
		}
	case notepad.NoteOff:
		for _, key := range r.notes.off(ev.Detail) {
			r.events = append(r.events, timedMessage{at, midi.NoteOff(r.channel, key)})
		}
	default:
		return
	}

	if r.debounced != nil {
		r.debounced(r.autosave)
	}
}

// Len returns the number of recorded channel messages
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// Reset drops everything recorded so far
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
	r.notes = newTracker(r.log)
}

// WriteTo writes the recording as an SMF. Notes still held are closed at
// the position of the last event.
func (r *Recorder) WriteTo(w io.Writer) (int64, error) {
	r.mu.Lock()
	s, err := r.build()
	r.mu.Unlock()
	if err != nil {
		return 0, err
	}
	n, err := s.WriteTo(w)
	if err != nil {
		return n, fmt.Errorf("failed to write MIDI: %w", err)
	}
	return n, nil
}

// Bytes returns the SMF encoding of the recording
func (r *Recorder) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := r.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes the recording to path
func (r *Recorder) Save(path string) error {
	data, err := r.Bytes()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to save recording: %w", err)
	}
	return nil
}

// Autosave rewrites path once no event has arrived for wait
func (r *Recorder) Autosave(path string, wait time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.autosavePath = path
	r.debounced = debounce.New(wait)
}

// Flush saves immediately if autosave is enabled
func (r *Recorder) Flush() error {
	r.mu.Lock()
	path := r.autosavePath
	r.mu.Unlock()
	if path == "" {
		return nil
	}
	return r.Save(path)
}

func (r *Recorder) autosave() {
	r.mu.Lock()
	path := r.autosavePath
	r.mu.Unlock()
	if err := r.Save(path); err != nil {
		r.log.Error("recording autosave failed", "path", path, "err", err)
		return
	}
	r.log.Debug("recording saved", "path", path)
}

// build must be called with r.mu held
func (r *Recorder) build() (*smf.SMF, error) {
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(r.ticksPerQuarter)

	var track smf.Track

	microsecondsPerBeat := uint32(60000000.0 / r.tempo)
	track.Add(0, smf.Message([]byte{
		0xFF, 0x51, 0x03,
		byte(microsecondsPerBeat >> 16),
		byte(microsecondsPerBeat >> 8),
		byte(microsecondsPerBeat),
	}))
	track.Add(0, smf.Message([]byte{0xFF, 0x58, 0x04, 0x04, 0x02, 0x18, 0x08}))

	var currentTick uint32
	for _, ev := range r.events {
		tick := r.ticks(ev.at)
		track.Add(tick-currentTick, ev.msg)
		currentTick = tick
	}

	// hanging notes, oldest first, without draining the live tracker
	ids := slices.Sorted(maps.Keys(r.notes.held))
	for _, id := range ids {
		for _, key := range r.notes.held[id] {
			track.Add(0, midi.NoteOff(r.channel, key))
		}
	}

	track.Close(0)

	if err := s.Add(track); err != nil {
		return nil, fmt.Errorf("failed to add track: %w", err)
	}
	return s, nil
}

func (r *Recorder) ticks(d time.Duration) uint32 {
	beats := d.Seconds() * r.tempo / 60.0
	return uint32(beats*float64(r.ticksPerQuarter) + 0.5)
}
