package alloc

import (
	"errors"
	"fmt"
	"io"
)

var (
	// ErrNotInHeap indicates a free of an address outside the heap range.
	ErrNotInHeap = errors.New("not in heap")

	// ErrNotAllocated indicates a free of an address that does not start an
	// allocated block.
	ErrNotAllocated = errors.New("not allocated")

	// ErrDoubleFree indicates a free of a block that is already free.
	ErrDoubleFree = errors.New("double free")

	// ErrWildWrite indicates the end marker after a payload was overwritten.
	ErrWildWrite = errors.New("wild write")

	// ErrCorrupt indicates the block list or a header no longer satisfies the
	// allocator invariants.
	ErrCorrupt = errors.New("alloc: heap corrupted")

	// ErrClosed indicates use of an allocator after Close.
	ErrClosed = errors.New("alloc: allocator closed")
)

// Inside describes the live allocation an invalid pointer falls into.
type Inside struct {
	Block  Ptr    // Payload start of the enclosing allocation
	Offset uint64 // Bytes from Block to the freed pointer
	Size   uint64 // Requested size of the enclosing allocation
	File   string // Call site that allocated it
	Line   int
}

// Violation is a memory-safety error found while freeing a pointer.
type Violation struct {
	Err    error // One of ErrNotInHeap, ErrNotAllocated, ErrDoubleFree, ErrWildWrite, ErrCorrupt
	Ptr    Ptr
	File   string // Call site of the free
	Line   int
	Inside *Inside // Set for ErrNotAllocated when Ptr is inside a live allocation
	Detail error   // Underlying cause for ErrCorrupt
}

func (v *Violation) Error() string {
	switch {
	case errors.Is(v.Err, ErrWildWrite):
		return fmt.Sprintf("detected wild write during free of pointer %s", v.Ptr)
	case errors.Is(v.Err, ErrCorrupt) && v.Detail != nil:
		return fmt.Sprintf("heap corrupted during free of pointer %s: %v", v.Ptr, v.Detail)
	case errors.Is(v.Err, ErrCorrupt):
		return fmt.Sprintf("heap corrupted during free of pointer %s", v.Ptr)
	default:
		return fmt.Sprintf("invalid free of pointer %s, %s", v.Ptr, v.Err)
	}
}

func (v *Violation) Unwrap() error { return v.Err }

// Report writes the diagnostic in its fixed layout:
//
//	MEMORY BUG: <file>:<line>: invalid free of pointer <addr>, <reason>
//	  <file>:<line>: <addr> is <n> bytes inside a <size> byte region allocated here
func (v *Violation) Report(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "MEMORY BUG: %s:%d: %s\n", v.File, v.Line, v.Error()); err != nil {
		return err
	}
	if v.Inside == nil {
		return nil
	}
	_, err := fmt.Fprintf(w, "  %s:%d: %s is %d bytes inside a %d byte region allocated here\n",
		v.Inside.File, v.Inside.Line, v.Ptr, v.Inside.Offset, v.Inside.Size)
	return err
}
