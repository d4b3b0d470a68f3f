// Package port opens MIDI output ports through the rtmidi driver.
package port

import (
	"errors"
	"fmt"
	"strings"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // autoregisters driver

	"github.com/james-see/fretpad/pkg/midiout"
)

// ErrPortNotFound is returned when no output port matches a name
var ErrPortNotFound = errors.New("midi output port not found")

// Outputs lists the names of the available output ports
func Outputs() []string {
	outs := midi.GetOutPorts()
	names := make([]string, 0, len(outs))
	for _, out := range outs {
		names = append(names, out.String())
	}
	return names
}

// Match returns the first name containing query, ignoring case
func Match(names []string, query string) (int, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return -1, false
	}
	for i, name := range names {
		if strings.Contains(strings.ToLower(name), q) {
			return i, true
		}
	}
	return -1, false
}

// Output is an open MIDI output port
type Output struct {
	out  drivers.Out
	Send midiout.SendFunc
}

// Open connects to the first output port whose name contains name
func Open(name string) (*Output, error) {
	outs := midi.GetOutPorts()
	names := make([]string, 0, len(outs))
	for _, out := range outs {
		names = append(names, out.String())
	}
	i, ok := Match(names, name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrPortNotFound, name)
	}
	send, err := midi.SendTo(outs[i])
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", names[i], err)
	}
	return &Output{out: outs[i], Send: send}, nil
}

// Name returns the port name
func (o *Output) Name() string {
	return o.out.String()
}

// Close closes the port
func (o *Output) Close() error {
	return o.out.Close()
}

// CloseDriver shuts the rtmidi driver down. Call it once on exit.
func CloseDriver() {
	midi.CloseDriver()
}
