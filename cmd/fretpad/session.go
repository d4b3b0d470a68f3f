package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/james-see/fretpad/pkg/config"
	"github.com/james-see/fretpad/pkg/fretboard"
	"github.com/james-see/fretpad/pkg/midiout"
	"github.com/james-see/fretpad/pkg/midiout/port"
	"github.com/james-see/fretpad/pkg/notepad"
)

const autosaveDelay = 2 * time.Second

// session is a board with its MIDI output and recorder attached
type session struct {
	board    *fretboard.Board
	out      *port.Output
	sender   *midiout.Sender
	recorder *midiout.Recorder
	detach   []func()
	log      *slog.Logger
}

func openSession(cfg config.Config, logger *slog.Logger) (*session, error) {
	board, err := fretboard.New(cfg.Board, notepad.NewAllocator(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build board: %w", err)
	}
	s := &session{board: board, log: logger}

	if cfg.MIDI.Out != "" {
		out, err := port.Open(cfg.MIDI.Out)
		if err != nil {
			port.CloseDriver()
			return nil, err
		}
		s.out = out
		s.sender = midiout.NewSender(out.Send, cfg.MIDI.Channel, cfg.MIDI.Velocity, logger)
		s.detach = append(s.detach, midiout.Attach(board, s.sender))
		logger.Info("midi output open", "port", out.Name(), "channel", cfg.MIDI.Channel)
	}

	if cfg.MIDI.Record != "" {
		s.recorder = midiout.NewRecorder(cfg.MIDI.Channel, cfg.MIDI.Velocity, logger)
		s.recorder.Autosave(cfg.MIDI.Record, autosaveDelay)
		s.detach = append(s.detach, midiout.Attach(board, s.recorder))
		logger.Info("recording", "path", cfg.MIDI.Record)
	}

	logger.Info("fretpad starting",
		"courses", board.Courses(),
		"frets", board.Frets(),
		"midi_out", cfg.MIDI.Out,
		"record", cfg.MIDI.Record,
	)
	return s, nil
}

// Close stops every sounding pad, silences the output and writes the final
// recording.
func (s *session) Close() {
	s.board.ReleaseAll()
	if s.sender != nil {
		s.sender.Panic()
	}
	for _, fn := range s.detach {
		fn()
	}
	if s.recorder != nil {
		if err := s.recorder.Flush(); err != nil {
			s.log.Error("failed to save recording", "err", err)
		} else {
			s.log.Info("recording saved", "events", s.recorder.Len())
		}
	}
	if s.out != nil {
		if err := s.out.Close(); err != nil {
			s.log.Warn("failed to close midi output", "err", err)
		}
		port.CloseDriver()
	}
}
