package alloc

import (
	"fmt"

	"github.com/joshuapare/heapcheck/heap/blocklist"
	"github.com/joshuapare/heapcheck/internal/format"
)

// Validate checks that p could be freed right now without aborting. It
// returns nil for Null and a *Violation otherwise describing the first
// problem found.
func (a *Allocator) Validate(p Ptr) error {
	if p == Null {
		return nil
	}
	if _, v := a.check(p, "", 0); v != nil {
		return v
	}
	return nil
}

// check runs the free-time checks in order: heap range, header
// recoverability, status, end marker.
func (a *Allocator) check(p Ptr, file string, line int) (blocklist.Node, *Violation) {
	violation := func(err error) *Violation {
		return &Violation{Err: err, Ptr: p, File: file, Line: line}
	}

	if uintptr(p) < a.stats.HeapMin || uintptr(p) > a.stats.HeapMax {
		return blocklist.Node{}, violation(ErrNotInHeap)
	}
	off, ok := a.arena.Offset(uintptr(p))
	if !ok {
		return blocklist.Node{}, violation(ErrNotInHeap)
	}

	notAllocated := func() *Violation {
		v := violation(ErrNotAllocated)
		v.Inside = a.insideAllocation(off)
		return v
	}

	if off < format.HeaderSize {
		return blocklist.Node{}, notAllocated()
	}
	node := a.blocks.Node(off - format.HeaderSize)
	if !node.InBounds() {
		return blocklist.Node{}, notAllocated()
	}
	if payload := node.Payload(); payload != 0 && payload != off {
		return blocklist.Node{}, notAllocated()
	}

	switch node.State() {
	case format.StateFree:
		return blocklist.Node{}, violation(ErrDoubleFree)
	case format.StateAllocated:
	default:
		return blocklist.Node{}, notAllocated()
	}

	end := node.EndMarker()
	if end < off || end+format.EndMarkerSize > node.Off+node.Size() || !format.EndMarkerValid(a.arena.Bytes(), end) {
		return blocklist.Node{}, violation(ErrWildWrite)
	}
	return node, nil
}

// insideAllocation finds the live allocation whose payload contains off.
// The walk moves to the next node on every iteration regardless of the
// block's state.
func (a *Allocator) insideAllocation(off uint64) *Inside {
	var inside *Inside
	_ = a.blocks.Walk(func(n blocklist.Node) bool {
		if n.State() != format.StateAllocated {
			return true
		}
		payload, end := n.Payload(), n.EndMarker()
		if payload <= off && off < end {
			site, line := n.Site()
			inside = &Inside{
				Block:  a.ptr(payload),
				Offset: off - payload,
				Size:   end - payload,
				File:   a.sites.name(site),
				Line:   line,
			}
			return false
		}
		return true
	})
	return inside
}

// CheckIntegrity walks the whole block list and verifies the heap
// invariants: symmetric links, blocks tiling [0, cursor) without gaps,
// aligned sizes of at least MinBlockSize, no two adjacent free blocks, a
// non-free head and intact end markers on every allocated block.
func (a *Allocator) CheckIntegrity() error {
	if a.arena.Released() {
		return ErrClosed
	}

	mem := a.arena.Bytes()
	expectEnd := a.arena.Pos()
	prevFree := false
	count := 0
	var bad error

	walkErr := a.blocks.Walk(func(n blocklist.Node) bool {
		blk, err := n.Block()
		if err != nil {
			bad = err
			return false
		}
		switch {
		case blk.State == format.StateCorrupt:
			bad = fmt.Errorf("block %#x: corrupt status", blk.Offset)
		case blk.Size < format.MinBlockSize || !format.IsAligned(blk.Size):
			bad = fmt.Errorf("block %#x: bad size %d", blk.Offset, blk.Size)
		case blk.Offset+blk.Size != expectEnd:
			bad = fmt.Errorf("block %#x+%d does not end at %#x", blk.Offset, blk.Size, expectEnd)
		case blk.Payload != blk.Offset+format.HeaderSize:
			bad = fmt.Errorf("block %#x: payload %#x", blk.Offset, blk.Payload)
		case count == 0 && blk.State == format.StateFree:
			bad = fmt.Errorf("block %#x: free block at top of arena", blk.Offset)
		case prevFree && blk.State == format.StateFree:
			bad = fmt.Errorf("block %#x: adjacent free blocks", blk.Offset)
		case blk.State == format.StateAllocated && !format.EndMarkerValid(mem, blk.EndMarker):
			bad = fmt.Errorf("block %#x: %w", blk.Offset, ErrWildWrite)
		case blk.Next != format.NilRef && (!n.Next().InBounds() || n.Next().Prev().Off != blk.Offset):
			bad = fmt.Errorf("block %#x: %w", blk.Offset, blocklist.ErrBrokenLink)
		}
		if bad != nil {
			return false
		}
		expectEnd = blk.Offset
		prevFree = blk.State == format.StateFree
		count++
		return true
	})

	switch {
	case walkErr != nil:
		return fmt.Errorf("%w: %w", ErrCorrupt, walkErr)
	case bad != nil:
		return fmt.Errorf("%w: %w", ErrCorrupt, bad)
	case expectEnd != 0:
		return fmt.Errorf("%w: lowest block starts at %#x", ErrCorrupt, expectEnd)
	case count != a.blocks.Len():
		return fmt.Errorf("%w: walked %d of %d blocks", ErrCorrupt, count, a.blocks.Len())
	}
	return nil
}
