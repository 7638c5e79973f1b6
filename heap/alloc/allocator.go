package alloc

import (
	"fmt"
	"io"
	"log/slog"
	"math/bits"

	"github.com/joshuapare/heapcheck/heap/arena"
	"github.com/joshuapare/heapcheck/heap/blocklist"
	"github.com/joshuapare/heapcheck/internal/format"
)

// Ptr is the address of a payload byte inside the arena.
type Ptr uintptr

// Null is the failed-allocation result.
const Null Ptr = 0

func (p Ptr) String() string {
	if p == Null {
		return "0x0"
	}
	return fmt.Sprintf("%#x", uintptr(p))
}

// Allocator is a first-fit arena allocator with per-block validation.
type Allocator struct {
	arena  *arena.Arena
	blocks *blocklist.List
	sites  *siteTable

	stats  Statistics
	engine EngineStats

	log    *slog.Logger
	errOut io.Writer
	abort  func(error)
}

// New reserves the arena and returns an empty allocator.
func New(opts *Options) (*Allocator, error) {
	o := opts.withDefaults()

	ar := o.Arena
	if ar == nil {
		var err error
		ar, err = arena.Reserve(o.ArenaSize)
		if err != nil {
			return nil, fmt.Errorf("alloc: %w", err)
		}
	}

	return &Allocator{
		arena:  ar,
		blocks: blocklist.New(ar.Bytes()),
		sites:  newSiteTable(),
		log:    o.Logger,
		errOut: o.ErrOut,
		abort:  o.Abort,
	}, nil
}

// Close releases the arena. Pointers handed out become invalid.
func (a *Allocator) Close() error {
	return a.arena.Release()
}

// Malloc returns a pointer to size bytes of uninitialised memory, or Null
// when the arena cannot hold the block. Malloc(0) returns a unique pointer to
// an empty payload. file and line identify the caller for diagnostics.
func (a *Allocator) Malloc(size uint64, file string, line int) Ptr {
	if a.arena.Released() {
		a.stats.recordFail(size)
		return Null
	}

	blockSize, ok := format.BlockSizeFor(size)
	if !ok {
		a.log.Debug("alloc: size overflow", "size", size, "site", file, "line", line)
		a.stats.recordFail(size)
		return Null
	}

	node, ok := a.carve(blockSize)
	if !ok {
		node, ok = a.reuse(blockSize)
	}
	if !ok {
		a.log.Debug("alloc: no space",
			"size", size,
			"block", blockSize,
			"available", a.arena.Available(),
			"site", file,
			"line", line,
		)
		a.stats.recordFail(size)
		return Null
	}

	a.markAllocated(node, size, file, line)
	p := a.ptr(node.Payload())
	a.stats.recordAlloc(size, p)
	return p
}

// Realloc resizes the allocation at p to size bytes. The contents up to the
// smaller of the old and new sizes are preserved. Realloc(Null, n) behaves
// like Malloc(n). Realloc(p, 0) returns Null and leaves p untouched. When
// the new block cannot be allocated Null is returned and p stays valid.
func (a *Allocator) Realloc(p Ptr, size uint64, file string, line int) Ptr {
	if size == 0 {
		return Null
	}

	var old blocklist.Node
	if p != Null {
		node, v := a.check(p, file, line)
		if v != nil {
			a.fatal(v)
			return Null
		}
		old = node
	}

	np := a.Malloc(size, file, line)
	if p == Null || np == Null {
		return np
	}

	n := min(size, old.PayloadSize())
	mem := a.arena.Bytes()
	dst := a.offset(np)
	copy(mem[dst:dst+n], mem[old.Payload():old.Payload()+n])

	a.Free(p, file, line)
	return np
}

// Calloc returns zeroed memory for count elements of size bytes each, or Null
// when count*size overflows or the arena is full. An overflow counts one
// failure of size bytes.
func (a *Allocator) Calloc(count, size uint64, file string, line int) Ptr {
	hi, total := bits.Mul64(count, size)
	if hi != 0 {
		a.log.Debug("alloc: calloc overflow", "count", count, "size", size, "site", file, "line", line)
		a.stats.recordFail(size)
		return Null
	}

	p := a.Malloc(total, file, line)
	if p != Null {
		clear(a.Payload(p))
	}
	return p
}

// Statistics returns a copy of the allocation ledger.
func (a *Allocator) Statistics() Statistics {
	return a.stats
}

// EngineStats returns internal event counters.
func (a *Allocator) EngineStats() EngineStats {
	return a.engine
}

// carve bump-allocates a block at the arena cursor.
func (a *Allocator) carve(blockSize uint64) (blocklist.Node, bool) {
	off, ok := a.arena.Carve(blockSize)
	if !ok {
		return blocklist.Node{}, false
	}
	blk := format.Block{
		Offset:  off,
		Size:    blockSize,
		State:   format.StateFree,
		Prev:    format.NilRef,
		Next:    format.NilRef,
		Payload: off + format.HeaderSize,
	}
	if err := blk.Put(a.arena.Bytes()); err != nil {
		// Carve only hands out aligned in-range offsets.
		panic(fmt.Sprintf("alloc: carve produced bad header: %v", err))
	}
	node := a.blocks.Node(off)
	a.blocks.PushHead(node)
	a.engine.BumpAllocs++
	return node, true
}

// reuse finds the first free block of at least blockSize bytes in list order
// and splits off the remainder when it can stand alone as a block.
func (a *Allocator) reuse(blockSize uint64) (blocklist.Node, bool) {
	var found blocklist.Node
	ok := false
	err := a.blocks.Walk(func(n blocklist.Node) bool {
		if n.Free() && n.Size() >= blockSize {
			found, ok = n, true
			return false
		}
		return true
	})
	if err != nil {
		a.log.Error("alloc: block list walk failed", "error", err)
		return blocklist.Node{}, false
	}
	if !ok {
		return blocklist.Node{}, false
	}

	a.split(found, blockSize)
	a.engine.ReuseAllocs++
	return found, true
}

// split carves a free block off the top of n when the residual can hold a
// header plus one alignment unit. Otherwise n keeps its slack.
func (a *Allocator) split(n blocklist.Node, required uint64) {
	residual := n.Size() - required
	if residual < format.MinBlockSize {
		return
	}

	off := n.Off + required
	site, line := n.Site()
	blk := format.Block{
		Offset:  off,
		Size:    residual,
		State:   format.StateFree,
		Prev:    format.NilRef,
		Next:    format.NilRef,
		Payload: off + format.HeaderSize,
		Site:    site,
		Line:    int32(line),
	}
	if err := blk.Put(a.arena.Bytes()); err != nil {
		panic(fmt.Sprintf("alloc: split produced bad header: %v", err))
	}

	a.blocks.InsertBefore(a.blocks.Node(off), n)
	n.SetSize(required)
	a.engine.Splits++
	a.log.Debug("alloc: split", "block", n.Off, "keep", required, "residual", residual)
}

func (a *Allocator) markAllocated(n blocklist.Node, size uint64, file string, line int) {
	payload := n.Off + format.HeaderSize
	n.SetState(format.StateAllocated)
	n.SetPayload(payload)
	n.SetEndMarker(payload + size)
	n.SetSite(a.sites.intern(file), line)
	if err := format.WriteEndMarker(a.arena.Bytes(), payload+size); err != nil {
		panic(fmt.Sprintf("alloc: end marker outside block: %v", err))
	}
}

func (a *Allocator) ptr(off uint64) Ptr {
	return Ptr(a.arena.Addr(off))
}

func (a *Allocator) offset(p Ptr) uint64 {
	off, _ := a.arena.Offset(uintptr(p))
	return off
}
