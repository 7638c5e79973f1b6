// Package blocklist implements the intrusive doubly linked list threaded
// through block headers in the arena.
//
// Links are arena offsets stored inside the headers themselves, so every
// structural edit is O(1) given a node. The list holds allocated and free
// blocks alike. New blocks are pushed at the head, which keeps the list in
// descending address order: the head is the block nearest the arena cursor
// and a node's prev/next are its upper/lower address neighbours.
package blocklist

import (
	"errors"
	"fmt"

	"github.com/joshuapare/heapcheck/internal/format"
)

// ErrBrokenLink indicates a link that does not point back at its node or
// points outside the arena.
var ErrBrokenLink = errors.New("blocklist: broken link")

// Node is a view of the header at Off.
type Node struct {
	mem []byte
	Off uint64
}

// At returns a view of the header at off. No validation is done.
func At(mem []byte, off uint64) Node {
	return Node{mem: mem, Off: off}
}

// Nil reports whether the node is the list terminator.
func (n Node) Nil() bool { return n.Off == format.NilRef }

// InBounds reports whether the whole header lies inside the arena and is aligned.
func (n Node) InBounds() bool {
	return !n.Nil() &&
		n.Off <= uint64(len(n.mem)) &&
		uint64(len(n.mem))-n.Off >= format.HeaderSize &&
		format.IsAligned(n.Off)
}

func (n Node) u64(field int) uint64          { return format.ReadU64(n.mem, int(n.Off)+field) }
func (n Node) putU64(field int, v uint64)    { format.PutU64(n.mem, int(n.Off)+field, v) }
func (n Node) link(field int) Node           { return Node{mem: n.mem, Off: n.u64(field)} }
func (n Node) setLink(field int, other Node) { n.putU64(field, other.Off) }

// Size returns the block size including header and padding.
func (n Node) Size() uint64 { return n.u64(format.BlockSizeOffset) }

// SetSize updates the block size.
func (n Node) SetSize(v uint64) { n.putU64(format.BlockSizeOffset, v) }

// State decodes the status tag.
func (n Node) State() format.State { return format.StateOf(n.u64(format.BlockStatusOffset)) }

// SetState writes the status tag.
func (n Node) SetState(s format.State) { n.putU64(format.BlockStatusOffset, s.Tag()) }

// Free reports whether the node is a free block. The terminator and headers
// outside the arena are not free.
func (n Node) Free() bool { return n.InBounds() && n.State() == format.StateFree }

// Prev returns the upper address neighbour.
func (n Node) Prev() Node { return n.link(format.BlockPrevOffset) }

// Next returns the lower address neighbour.
func (n Node) Next() Node { return n.link(format.BlockNextOffset) }

// Payload returns the recorded payload offset.
func (n Node) Payload() uint64 { return n.u64(format.BlockPayloadOffset) }

// SetPayload records the payload offset.
func (n Node) SetPayload(v uint64) { n.putU64(format.BlockPayloadOffset, v) }

// EndMarker returns the recorded end marker offset.
func (n Node) EndMarker() uint64 { return n.u64(format.BlockEndMarkerOffset) }

// SetEndMarker records the end marker offset.
func (n Node) SetEndMarker(v uint64) { n.putU64(format.BlockEndMarkerOffset, v) }

// PayloadSize returns EndMarker - Payload for allocated blocks, else 0.
func (n Node) PayloadSize() uint64 {
	if n.State() != format.StateAllocated {
		return 0
	}
	p, e := n.Payload(), n.EndMarker()
	if e < p {
		return 0
	}
	return e - p
}

// Site returns the call-site id and line.
func (n Node) Site() (id uint32, line int) {
	return format.ReadU32(n.mem, int(n.Off)+format.BlockSiteOffset),
		int(format.ReadI32(n.mem, int(n.Off)+format.BlockLineOffset))
}

// SetSite records the call-site id and line.
func (n Node) SetSite(id uint32, line int) {
	format.PutU32(n.mem, int(n.Off)+format.BlockSiteOffset, id)
	format.PutI32(n.mem, int(n.Off)+format.BlockLineOffset, int32(line))
}

// Block decodes the full header.
func (n Node) Block() (format.Block, error) {
	return format.ParseBlock(n.mem, n.Off)
}

// List is the block list. The zero value is not usable; call New.
type List struct {
	mem  []byte
	head uint64
	n    int
}

// New returns an empty list over mem.
func New(mem []byte) *List {
	return &List{mem: mem, head: format.NilRef}
}

// Node returns a view of the header at off within the list's arena.
func (l *List) Node(off uint64) Node { return At(l.mem, off) }

// Head returns the most recently pushed block, or the terminator.
func (l *List) Head() Node { return At(l.mem, l.head) }

// Len returns the number of linked blocks.
func (l *List) Len() int { return l.n }

// PushHead links n in front of the current head.
func (l *List) PushHead(n Node) {
	n.setLink(format.BlockNextOffset, l.Head())
	n.putU64(format.BlockPrevOffset, format.NilRef)
	if head := l.Head(); !head.Nil() {
		head.setLink(format.BlockPrevOffset, n)
	}
	l.head = n.Off
	l.n++
}

// InsertBefore links n immediately before next (on the head side).
func (l *List) InsertBefore(n, next Node) {
	prev := next.Prev()
	n.setLink(format.BlockNextOffset, next)
	n.setLink(format.BlockPrevOffset, prev)
	if !prev.Nil() {
		prev.setLink(format.BlockNextOffset, n)
	}
	next.setLink(format.BlockPrevOffset, n)
	if l.head == next.Off {
		l.head = n.Off
	}
	l.n++
}

// Remove unlinks n. Removing the terminator or removing from an empty list
// does nothing. The neighbours must point back at n.
func (l *List) Remove(n Node) error {
	if l.head == format.NilRef || n.Nil() {
		return nil
	}
	next, prev := n.Next(), n.Prev()
	if !next.Nil() && next.Prev().Off != n.Off {
		return fmt.Errorf("%w: next %#x of %#x points back at %#x", ErrBrokenLink, next.Off, n.Off, next.Prev().Off)
	}
	if !prev.Nil() && prev.Next().Off != n.Off {
		return fmt.Errorf("%w: prev %#x of %#x points on to %#x", ErrBrokenLink, prev.Off, n.Off, prev.Next().Off)
	}

	if l.head == n.Off {
		l.head = next.Off
	}
	if !next.Nil() {
		next.setLink(format.BlockPrevOffset, prev)
	}
	if !prev.Nil() {
		prev.setLink(format.BlockNextOffset, next)
	}
	n.putU64(format.BlockPrevOffset, format.NilRef)
	n.putU64(format.BlockNextOffset, format.NilRef)
	l.n--
	return nil
}

// Walk calls fn for every node from head to tail until fn returns false.
// Every step advances to the next node whichever way fn decides. A link that
// leaves the arena or a walk longer than the node count ends with
// ErrBrokenLink.
func (l *List) Walk(fn func(Node) bool) error {
	steps := 0
	for n := l.Head(); !n.Nil(); n = n.Next() {
		if !n.InBounds() {
			return fmt.Errorf("%w: node %#x outside arena", ErrBrokenLink, n.Off)
		}
		steps++
		if steps > l.n {
			return fmt.Errorf("%w: cycle after %d nodes", ErrBrokenLink, l.n)
		}
		if !fn(n) {
			return nil
		}
	}
	return nil
}
