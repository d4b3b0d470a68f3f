package midiout

import (
	"log/slog"
	"sync"

	"gitlab.com/gomidi/midi/v2"

	"github.com/james-see/fretpad/pkg/notepad"
)

// Sender plays note events on a MIDI output
type Sender struct {
	mu       sync.Mutex
	send     SendFunc
	channel  uint8
	velocity uint8
	notes    tracker
	log      *slog.Logger
}

// NewSender creates a Sender writing to send on the given channel (0-15)
func NewSender(send SendFunc, channel, velocity uint8, logger *slog.Logger) *Sender {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sender{
		send:     send,
		channel:  channel & 0x0F,
		velocity: velocity & 0x7F,
		notes:    newTracker(logger),
		log:      logger,
	}
}

// OnEvent sends NoteOn or NoteOff messages for every key of the event's pitch
func (s *Sender) OnEvent(ev notepad.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch ev.Type {
	case notepad.NoteOn:
		for _, key := range s.notes.on(ev.Detail) {
			s.write(midi.NoteOn(s.channel, key, s.velocity))
		}
	case notepad.NoteOff:
		for _, key := range s.notes.off(ev.Detail) {
			s.write(midi.NoteOff(s.channel, key))
		}
	}
}

// Panic sends NoteOff for every key still held
func (s *Sender) Panic() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range s.notes.drain() {
		s.write(midi.NoteOff(s.channel, key))
	}
}

func (s *Sender) write(msg midi.Message) {
	if err := s.send(msg); err != nil {
		s.log.Error("midi: send failed", "msg", msg.String(), "err", err)
		return
	}
	s.log.Debug("midi: sent", "msg", msg.String())
}
