package notepad

import "sync/atomic"

// Allocator issues correlation ids. The first call to Next returns 0 and
// every later call returns one more than the previous, across all pads that
// share the allocator.
type Allocator struct {
	n atomic.Int64
}

// NewAllocator creates a new Allocator
func NewAllocator() *Allocator {
	return &Allocator{}
}

// Next returns the next unused id
func (a *Allocator) Next() int {
	return int(a.n.Add(1) - 1)
}
