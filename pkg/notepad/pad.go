package notepad

// Config is the externally set configuration of a pad. The zero value is a
// playable pad with no pitch, position or appearance.
type Config struct {
	NotPlayable bool
	Pitch       Pitch
	FillColor   string
	FillWidth   string
	FillHeight  string
	Label       string
	Course      *int
	Fret        *int
}

// Pad is a single playable note element.
//
// A pad is not safe for concurrent use; callers that share pads between
// goroutines serialize access themselves.
type Pad struct {
	alloc *Allocator
	node  *Node
	cfg   Config

	sounding      bool
	correlationID int // id of the latest note-on; stale while idle

	dirty    bool
	view     View
	revision int
}

// New creates an idle pad that draws correlation ids from alloc.
// A nil alloc gives the pad an allocator of its own.
func New(alloc *Allocator, cfg Config) *Pad {
	if alloc == nil {
		alloc = NewAllocator()
	}
	return &Pad{
		alloc: alloc,
		node:  NewNode("pad"),
		cfg:   cloneConfig(cfg),
		dirty: true,
	}
}

// Node returns the pad's node in the event tree
func (p *Pad) Node() *Node {
	return p.node
}

// AttachTo places the pad below parent so that its events bubble there
func (p *Pad) AttachTo(parent *Node) {
	p.node.SetParent(parent)
}

// Detach removes the pad from its parent
func (p *Pad) Detach() {
	p.node.SetParent(nil)
}

// Config returns a copy of the pad's configuration
func (p *Pad) Config() Config {
	return cloneConfig(p.cfg)
}

// Configure replaces the pad's configuration. The sounding state is left
// alone: a sounding pad keeps sounding until it is released or left.
func (p *Pad) Configure(cfg Config) {
	p.cfg = cloneConfig(cfg)
	p.dirty = true
}

// SetPlayable toggles whether the pad reacts to presses and held hovers
func (p *Pad) SetPlayable(playable bool) {
	if p.cfg.NotPlayable == !playable {
		return
	}
	p.cfg.NotPlayable = !playable
	p.dirty = true
}

// Playable reports whether the pad reacts to presses and held hovers
func (p *Pad) Playable() bool {
	return !p.cfg.NotPlayable
}

// Sounding reports whether the pad has an unmatched note-on
func (p *Pad) Sounding() bool {
	return p.sounding
}

// HandlePointer feeds one raw pointer notification to the pad. Any resulting
// note event has been dispatched to every listener when it returns.
func (p *Pad) HandlePointer(ev PointerEvent) {
	switch ev.Kind {
	case PointerDown:
		p.pointerDown(ev)
	case PointerOver:
		p.pointerOver(ev)
	case PointerUp, PointerLeave:
		p.stop()
	}
}

func (p *Pad) pointerDown(ev PointerEvent) {
	if ev.Type == PointerTouch {
		// Touch delivers an over before the down; the over already started
		// the note. Let the touch slide onto other pads.
		if ev.Capture != nil {
			ev.Capture.ReleasePointerCapture(ev.ID)
		}
		return
	}
	p.start()
}

func (p *Pad) pointerOver(ev PointerEvent) {
	if ev.Held() {
		p.start()
	}
}

func (p *Pad) start() {
	if p.cfg.NotPlayable || p.sounding {
		return
	}
	p.correlationID = p.alloc.Next()
	p.sounding = true
	p.dirty = true
	p.dispatch(NoteOn)
}

func (p *Pad) stop() {
	if !p.sounding {
		return
	}
	p.sounding = false
	p.dirty = true
	p.dispatch(NoteOff)
}

func (p *Pad) dispatch(t EventType) {
	p.node.Dispatch(Event{
		Type: t,
		Detail: NoteEvent{
			CorrelationID: p.correlationID,
			Pitch:         p.cfg.Pitch,
			FillColor:     p.cfg.FillColor,
			Label:         p.cfg.Label,
			Course:        copyInt(p.cfg.Course),
			Fret:          copyInt(p.cfg.Fret),
		},
		Target: p,
	})
}

func cloneConfig(cfg Config) Config {
	cfg.Course = copyInt(cfg.Course)
	cfg.Fret = copyInt(cfg.Fret)
	return cfg
}
