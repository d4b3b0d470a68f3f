// Package midiout turns note pad events into MIDI: live messages for an
// output port and a Standard MIDI File recording.
package midiout

import (
	"log/slog"

	"gitlab.com/gomidi/midi/v2"

	"github.com/james-see/fretpad/pkg/notepad"
)

// SendFunc delivers one MIDI message, e.g. the func returned by midi.SendTo
type SendFunc func(midi.Message) error

// Source is anything pad events can be observed on, such as a fretboard.Board
type Source interface {
	Listen(t notepad.EventType, fn notepad.Listener) (remove func())
}

// Sink consumes note events
type Sink interface {
	OnEvent(ev notepad.Event)
}

// Attach subscribes sink to note-on and note-off events of src. The returned
// function detaches it.
func Attach(src Source, sink Sink) (detach func()) {
	offOn := src.Listen(notepad.NoteOn, sink.OnEvent)
	offOff := src.Listen(notepad.NoteOff, sink.OnEvent)
	return func() {
		offOn()
		offOff()
	}
}

// keysOf returns the MIDI keys of a pitch. Numbers outside 0..127 cannot be
// sent and are dropped with a warning.
func keysOf(p notepad.Pitch, log *slog.Logger) []uint8 {
	values := p.Values()
	keys := make([]uint8, 0, len(values))
	for _, v := range values {
		if v < 0 || v > 127 {
			log.Warn("midi: pitch out of range, skipped", "pitch", v)
			continue
		}
		keys = append(keys, uint8(v))
	}
	return keys
}

// tracker remembers which keys each note-on sounded, so the matching note-off
// stops the same keys even if the pad was reconfigured in between.
type tracker struct {
	held map[int][]uint8
	log  *slog.Logger
}

func newTracker(log *slog.Logger) tracker {
	return tracker{held: make(map[int][]uint8), log: log}
}

func (t *tracker) on(d notepad.NoteEvent) []uint8 {
	keys := keysOf(d.Pitch, t.log)
	t.held[d.CorrelationID] = keys
	return keys
}

func (t *tracker) off(d notepad.NoteEvent) []uint8 {
	keys, ok := t.held[d.CorrelationID]
	if !ok {
		t.log.Debug("midi: note-off without note-on", "id", d.CorrelationID)
		return keysOf(d.Pitch, t.log)
	}
	delete(t.held, d.CorrelationID)
	return keys
}

// drain forgets and returns every held key
func (t *tracker) drain() []uint8 {
	var keys []uint8
	for id, k := range t.held {
		keys = append(keys, k...)
		delete(t.held, id)
	}
	return keys
}
