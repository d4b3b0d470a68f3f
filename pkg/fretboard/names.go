package fretboard

import (
	"errors"
	"fmt"
)

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NoteName returns the scientific pitch name of a MIDI note, C4 = 60.
func NoteName(pitch int) string {
	if pitch < 0 {
		return fmt.Sprintf("?%d", pitch)
	}
	return fmt.Sprintf("%s%d", noteNames[pitch%12], (pitch/12)-1)
}

// ErrUnknownPad is returned for pad ids that are not on the board
var ErrUnknownPad = errors.New("unknown pad")

// PadID names the pad at a course and fret, e.g. "c1f5"
func PadID(course, fret int) string {
	return fmt.Sprintf("c%df%d", course, fret)
}

// ParsePadID is the inverse of PadID
func ParsePadID(id string) (course, fret int, err error) {
	var tail string
	n, _ := fmt.Sscanf(id, "c%df%d%s", &course, &fret, &tail)
	if n != 2 || course < 1 || fret < 0 || PadID(course, fret) != id {
		return 0, 0, fmt.Errorf("%w: %q", ErrUnknownPad, id)
	}
	return course, fret, nil
}
