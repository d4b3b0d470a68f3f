package fretboard

import "github.com/james-see/fretpad/pkg/notepad"

// PadState is a snapshot of one pad
type PadState struct {
	ID         string        `json:"id"`
	Course     int           `json:"course"`
	Fret       int           `json:"fret"`
	Playable   bool          `json:"playable"`
	Sounding   bool          `json:"sounding"`
	Pitch      notepad.Pitch `json:"pitch"`
	FillColor  string        `json:"fillColor"`
	FillWidth  string        `json:"fillWidth"`
	FillHeight string        `json:"fillHeight"`
	Label      string        `json:"label"`
	View       notepad.View  `json:"view"`
}

// Patch is a partial pad configuration; nil fields are left unchanged
type Patch struct {
	Playable   *bool          `json:"playable,omitempty"`
	Pitch      *notepad.Pitch `json:"pitch,omitempty"`
	FillColor  *string        `json:"fillColor,omitempty"`
	FillWidth  *string        `json:"fillWidth,omitempty"`
	FillHeight *string        `json:"fillHeight,omitempty"`
	Label      *string        `json:"label,omitempty"`
}

func (p Patch) apply(cfg notepad.Config) notepad.Config {
	if p.Playable != nil {
		cfg.NotPlayable = !*p.Playable
	}
	if p.Pitch != nil {
		cfg.Pitch = *p.Pitch
	}
	if p.FillColor != nil {
		cfg.FillColor = *p.FillColor
	}
	if p.FillWidth != nil {
		cfg.FillWidth = *p.FillWidth
	}
	if p.FillHeight != nil {
		cfg.FillHeight = *p.FillHeight
	}
	if p.Label != nil {
		cfg.Label = *p.Label
	}
	return cfg
}

func (b *Board) stateOf(p *notepad.Pad) PadState {
	cfg := p.Config()
	s := PadState{
		ID:         b.ids[p],
		Playable:   p.Playable(),
		Sounding:   p.Sounding(),
		Pitch:      cfg.Pitch,
		FillColor:  cfg.FillColor,
		FillWidth:  cfg.FillWidth,
		FillHeight: cfg.FillHeight,
		Label:      cfg.Label,
		View:       p.View(),
	}
	s.Course, s.Fret, _ = ParsePadID(s.ID)
	return s
}

// State returns a snapshot of one pad
func (b *Board) State(id string) (PadState, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, err := b.pad(id)
	if err != nil {
		return PadState{}, err
	}
	return b.stateOf(p), nil
}

// Snapshot returns every pad's state, course by course
func (b *Board) Snapshot() []PadState {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]PadState, 0, len(b.byID))
	for _, row := range b.rows {
		for _, p := range row {
			out = append(out, b.stateOf(p))
		}
	}
	return out
}

// Views returns the current view of every pad as [course-1][fret]. Pads
// re-render here if they changed since the last call.
func (b *Board) Views() [][]notepad.View {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([][]notepad.View, len(b.rows))
	for i, row := range b.rows {
		out[i] = make([]notepad.View, len(row))
		for j, p := range row {
			out[i][j] = p.View()
		}
	}
	return out
}
