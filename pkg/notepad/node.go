package notepad

// Node is an element in the event tree. Events dispatched on a node run the
// node's listeners, then its parent's, up to the root.
type Node struct {
	name     string
	parent   *Node
	handlers map[EventType][]*handler
}

type handler struct {
	fn      Listener
	removed bool
}

// NewNode creates a detached node
func NewNode(name string) *Node {
	return &Node{name: name}
}

// Name returns the node's name
func (n *Node) Name() string {
	return n.name
}

// Parent returns the node's parent, or nil for a root
func (n *Node) Parent() *Node {
	return n.parent
}

// SetParent attaches n below parent, or detaches it when parent is nil.
// Attaching that would create a cycle panics.
func (n *Node) SetParent(parent *Node) {
	for p := parent; p != nil; p = p.parent {
		if p == n {
			panic("notepad: node cycle: " + n.name + " cannot be attached below " + parent.name)
		}
	}
	n.parent = parent
}

// AddListener registers fn for events of type t reaching this node.
// The returned function removes the listener; calling it more than once is safe.
func (n *Node) AddListener(t EventType, fn Listener) (remove func()) {
	if n.handlers == nil {
		n.handlers = make(map[EventType][]*handler)
	}
	h := &handler{fn: fn}
	n.handlers[t] = append(n.handlers[t], h)
	return func() {
		if h.removed {
			return
		}
		h.removed = true
		list := n.handlers[t]
		for i, x := range list {
			if x == h {
				n.handlers[t] = append(list[:i:i], list[i+1:]...)
				break
			}
		}
	}
}

// Dispatch delivers ev to this node and every ancestor, in that order.
// Listeners on one node run in registration order.
func (n *Node) Dispatch(ev Event) {
	for cur := n; cur != nil; cur = cur.parent {
		list := cur.handlers[ev.Type]
		if len(list) == 0 {
			continue
		}
		snapshot := make([]*handler, len(list))
		copy(snapshot, list)
		for _, h := range snapshot {
			if !h.removed {
				h.fn(ev)
			}
		}
	}
}
