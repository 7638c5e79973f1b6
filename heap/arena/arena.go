// Package arena owns the single fixed-size region that every heap block is
// carved from. Blocks are handed out by bumping a cursor; the cursor only
// moves back when the allocator reclaims the block at the top of the arena.
//
// The arena never grows. Running out of space is a normal condition that the
// allocator reports as a failed allocation.
package arena

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/joshuapare/heapcheck/internal/mmap"
)

var (
	// ErrReleased indicates use of an arena after Release.
	ErrReleased = errors.New("arena: released")

	// ErrRetract indicates an attempt to move the cursor below zero.
	ErrRetract = errors.New("arena: retract past start")
)

// Arena is a fixed reservation with a bump cursor.
//
// Addresses handed to callers are the numeric addresses of arena bytes. The
// backing memory is either an anonymous mapping or a Go heap slice; neither
// moves for the lifetime of the arena.
type Arena struct {
	buf     []byte
	base    uintptr
	pos     uint64
	release func() error
}

// Reserve obtains size bytes from the OS.
func Reserve(size int) (*Arena, error) {
	buf, release, err := mmap.Reserve(size)
	if err != nil {
		return nil, err
	}
	return newArena(buf, release), nil
}

// FromBytes wraps an existing buffer. Release is a no-op for the buffer
// itself.
func FromBytes(buf []byte) (*Arena, error) {
	if len(buf) == 0 {
		return nil, fmt.Errorf("arena: empty buffer")
	}
	return newArena(buf, nil), nil
}

func newArena(buf []byte, release func() error) *Arena {
	return &Arena{
		buf:     buf,
		base:    uintptr(unsafe.Pointer(&buf[0])),
		release: release,
	}
}

// Release returns the reservation to the OS. Safe to call more than once.
func (a *Arena) Release() error {
	if a.buf == nil {
		return nil
	}
	var err error
	if a.release != nil {
		err = a.release()
	}
	a.buf = nil
	a.pos = 0
	return err
}

// Released reports whether Release has been called.
func (a *Arena) Released() bool { return a.buf == nil }

// Bytes returns the whole reservation.
func (a *Arena) Bytes() []byte { return a.buf }

// Size returns the reservation size in bytes.
func (a *Arena) Size() uint64 { return uint64(len(a.buf)) }

// Pos returns the cursor: bytes [0, Pos) belong to carved blocks.
func (a *Arena) Pos() uint64 { return a.pos }

// Available returns the bytes left above the cursor.
func (a *Arena) Available() uint64 { return a.Size() - a.pos }

// Base returns the address of the first arena byte.
func (a *Arena) Base() uintptr { return a.base }

// Addr converts an arena offset to an address.
func (a *Arena) Addr(off uint64) uintptr { return a.base + uintptr(off) }

// Offset converts an address to an arena offset. ok is false for addresses
// outside the reservation.
func (a *Arena) Offset(addr uintptr) (off uint64, ok bool) {
	if !a.Contains(addr) {
		return 0, false
	}
	return uint64(addr - a.base), true
}

// Contains reports whether addr falls inside the reservation.
func (a *Arena) Contains(addr uintptr) bool {
	return a.buf != nil && addr >= a.base && addr-a.base < uintptr(len(a.buf))
}

// Carve reserves n bytes at the cursor and advances it. ok is false when
// fewer than n bytes remain.
func (a *Arena) Carve(n uint64) (off uint64, ok bool) {
	if a.buf == nil || a.Available() < n {
		return 0, false
	}
	off = a.pos
	a.pos += n
	return off, true
}

// Retract moves the cursor back by n bytes.
func (a *Arena) Retract(n uint64) error {
	if a.buf == nil {
		return ErrReleased
	}
	if n > a.pos {
		return fmt.Errorf("%w: pos=%d n=%d", ErrRetract, a.pos, n)
	}
	a.pos -= n
	return nil
}
