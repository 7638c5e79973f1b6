// Package alloc implements a debugging heap allocator over a single fixed
// arena.
//
// # Overview
//
// Every block in the arena starts with a 64-byte header (see
// internal/format) holding its size, status, list links, payload bounds and
// the call site that last touched it. Allocation bumps the arena cursor
// first; once the arena is exhausted the block list is searched first-fit
// and an oversized block is split when the remainder can hold a block of its
// own. Freeing validates the pointer, marks the block free, merges it with
// free list neighbours and pulls the arena cursor back when the topmost
// block becomes free.
//
// # Failure Classes
//
// Running out of arena space, size overflow, Realloc to zero bytes and
// Calloc overflow return Null and are counted in Statistics.
//
// Memory-safety violations detected by Free (pointer not in heap, not
// allocated, double free, interior pointer, write past the payload end) are
// reported to Options.ErrOut and then Options.Abort is called. The default
// Abort terminates the process:
//
//	MEMORY BUG: main.go:12: invalid free of pointer 0x7f3a1c000050, double free
//
// # Usage Example
//
//	a, err := alloc.New(nil)
//	if err != nil {
//	    return err
//	}
//	defer a.Close()
//
//	p := a.Malloc(128, "main.go", 10)
//	copy(a.Payload(p), "hello")
//	p = a.Realloc(p, 256, "main.go", 11)
//	a.Free(p, "main.go", 12)
//
//	a.PrintStatistics(os.Stdout)
//
// # Thread Safety
//
// Allocator instances are not thread-safe. Use Safe to serialise every entry
// point behind one mutex.
package alloc
