// Package notepad implements a playable note pad: one position on a virtual
// fretboard or keypad that turns pointer input into note-on and note-off
// events.
//
// A Pad is either Idle or Sounding. Pointer presses and held hovers start a
// note, releases and leaves stop it. Every note-on gets a fresh correlation id
// from a shared Allocator and the matching note-off carries the same id, so
// listeners can pair them:
//
//	alloc := notepad.NewAllocator()
//	root := notepad.NewNode("board")
//	root.AddListener(notepad.NoteOn, func(ev notepad.Event) {
//		fmt.Println("on", ev.Detail.CorrelationID, ev.Detail.Pitch)
//	})
//
//	pad := notepad.New(alloc, notepad.Config{Pitch: notepad.Single(60), Label: "C4"})
//	pad.AttachTo(root)
//	pad.HandlePointer(notepad.PointerEvent{Kind: notepad.PointerDown, Type: notepad.PointerMouse})
//
// Events bubble from the pad's Node to every ancestor, so one listener on the
// root observes all pads. The pad's visual tree is available from View and is
// rebuilt lazily after any configuration change or state transition.
package notepad
