package alloc

import (
	"github.com/joshuapare/heapcheck/internal/format"
)

// Payload returns the requested bytes of the live allocation at p, or nil
// when p does not start one. The slice aliases the arena and is capped at
// the requested size.
func (a *Allocator) Payload(p Ptr) []byte {
	off, ok := a.arena.Offset(uintptr(p))
	if p == Null || !ok || off < format.HeaderSize {
		return nil
	}
	n := a.blocks.Node(off - format.HeaderSize)
	if !n.InBounds() || n.State() != format.StateAllocated || n.Payload() != off {
		return nil
	}
	end := n.EndMarker()
	if end < off || end > a.arena.Size() {
		return nil
	}
	return a.arena.Bytes()[off:end:end]
}

// Memory returns n raw arena bytes starting at p with no allocation checks,
// clipped to the end of the arena. Writing through it past a payload is how
// a wild write looks to the allocator.
func (a *Allocator) Memory(p Ptr, n uint64) []byte {
	off, ok := a.arena.Offset(uintptr(p))
	if !ok {
		return nil
	}
	end := min(off+n, a.arena.Size())
	if end < off {
		end = a.arena.Size()
	}
	return a.arena.Bytes()[off:end:end]
}

// Add returns p advanced by n bytes, the analogue of pointer arithmetic.
func (p Ptr) Add(n int64) Ptr {
	return Ptr(int64(p) + n)
}
