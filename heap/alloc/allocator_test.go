package alloc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapcheck/internal/format"
)

func TestMallocBasic(t *testing.T) {
	a, _ := newTestAllocator(t, 4096)

	p := a.Malloc(100, "basic.go", 1)
	require.NotEqual(t, Null, p)
	require.Len(t, a.Payload(p), 100)
	require.Zero(t, (uintptr(p)-a.arena.Base())%format.Alignment, "payload must be aligned")

	s := a.Statistics()
	assert.Equal(t, uint64(1), s.Active)
	assert.Equal(t, uint64(100), s.ActiveSize)
	assert.Equal(t, uint64(1), s.Total)
	assert.Equal(t, uint64(100), s.TotalSize)
	assert.Equal(t, uintptr(p), s.HeapMin)
	assert.Equal(t, uintptr(p)+100, s.HeapMax)
	assert.Equal(t, blockSize(t, 100), a.arena.Pos())
	requireHeapValid(t, a)
}

func TestMallocZeroIsUnique(t *testing.T) {
	a, _ := newTestAllocator(t, 4096)

	p1 := a.Malloc(0, "zero.go", 1)
	p2 := a.Malloc(0, "zero.go", 2)
	p3 := a.Calloc(0, 16, "zero.go", 3)
	p4 := a.Calloc(16, 0, "zero.go", 4)

	ptrs := []Ptr{p1, p2, p3, p4}
	seen := map[Ptr]bool{}
	for _, p := range ptrs {
		require.NotEqual(t, Null, p)
		require.False(t, seen[p], "pointer %s handed out twice", p)
		seen[p] = true
		require.NotNil(t, a.Payload(p))
		require.Empty(t, a.Payload(p))
	}

	s := a.Statistics()
	require.Equal(t, uint64(4), s.Active)
	require.Zero(t, s.ActiveSize)
	require.Zero(t, s.Fail)

	for _, p := range ptrs {
		a.Free(p, "zero.go", 10)
	}
	require.Zero(t, a.Statistics().Active)
	require.Zero(t, a.arena.Pos())
}

func TestBalancedAllocFreeRestoresActive(t *testing.T) {
	a, _ := newTestAllocator(t, 1<<20)

	var lastTotal, lastTotalSize uint64
	for _, size := range []uint64{0, 1, 7, 8, 15, 16, 100, 1000, 4096, 65536} {
		before := a.Statistics()
		p := a.Malloc(size, "balanced.go", 1)
		require.NotEqual(t, Null, p)
		a.Free(p, "balanced.go", 2)
		after := a.Statistics()

		require.Equal(t, before.Active, after.Active, "size %d", size)
		require.Equal(t, before.ActiveSize, after.ActiveSize, "size %d", size)
		require.Greater(t, after.Total, lastTotal)
		require.GreaterOrEqual(t, after.TotalSize, lastTotalSize)
		lastTotal, lastTotalSize = after.Total, after.TotalSize
		requireHeapValid(t, a)
	}
	require.Zero(t, a.arena.Pos(), "every block should have been retracted")
}

func TestArenaExhaustionFails(t *testing.T) {
	a, _ := newTestAllocator(t, 4096)

	p := a.Malloc(5000, "big.go", 1)
	require.Equal(t, Null, p)

	s := a.Statistics()
	require.Equal(t, uint64(1), s.Fail)
	require.Equal(t, uint64(5000), s.FailSize)
	require.Zero(t, s.Total)
	require.Zero(t, s.HeapMin)
	require.Zero(t, a.arena.Pos())
}

func TestMallocSizeOverflowFails(t *testing.T) {
	a, _ := newTestAllocator(t, 4096)

	require.Equal(t, Null, a.Malloc(math.MaxUint64, "huge.go", 1))
	require.Equal(t, Null, a.Malloc(math.MaxUint64-format.HeaderSize, "huge.go", 2))

	s := a.Statistics()
	require.Equal(t, uint64(2), s.Fail)
	require.Zero(t, s.Total)
}

func TestMallocAfterCloseFails(t *testing.T) {
	a, _ := newTestAllocator(t, 4096)
	require.NoError(t, a.Close())
	require.Equal(t, Null, a.Malloc(8, "closed.go", 1))
	require.Equal(t, uint64(1), a.Statistics().Fail)
	require.ErrorIs(t, a.CheckIntegrity(), ErrClosed)
	require.Nil(t, a.Leaks())
}

func TestCallocZeroesReusedMemory(t *testing.T) {
	a, _ := newTestAllocator(t, 4096)

	p := a.Malloc(256, "dirty.go", 1)
	fill(t, a, p, 0xFF)
	a.Free(p, "dirty.go", 2)

	q := a.Calloc(16, 16, "calloc.go", 3)
	require.Equal(t, p, q, "the retracted block should be carved again")
	for i, b := range a.Payload(q) {
		require.Zero(t, b, "byte %d not cleared", i)
	}
}

func TestCallocOverflowFails(t *testing.T) {
	a, _ := newTestAllocator(t, 4096)

	p := a.Calloc(1<<63, 4, "calloc.go", 1)
	require.Equal(t, Null, p)

	s := a.Statistics()
	require.Equal(t, uint64(1), s.Fail)
	require.Equal(t, uint64(4), s.FailSize)
	require.Zero(t, s.Total)
}

func TestFirstFitReuseAndSplit(t *testing.T) {
	// Four 256-byte blocks fill the arena exactly.
	a, _ := newTestAllocator(t, 1024)
	require.Equal(t, uint64(256), blockSize(t, 176))

	var ptrs [4]Ptr
	for i := range ptrs {
		ptrs[i] = a.Malloc(176, "fill.go", i)
		require.NotEqual(t, Null, ptrs[i])
	}
	require.Zero(t, a.arena.Available())

	a.Free(ptrs[1], "fill.go", 10)
	require.Equal(t, uint64(3), a.Statistics().Active)
	requireHeapValid(t, a)

	// 128-byte block: taken from the freed slot, 128 bytes split off above it.
	p := a.Malloc(48, "reuse.go", 1)
	require.Equal(t, ptrs[1], p)
	require.Equal(t, 1, a.EngineStats().Splits)
	require.Equal(t, 1, a.EngineStats().ReuseAllocs)
	require.Equal(t, 5, a.blocks.Len())
	requireHeapValid(t, a)

	// 112-byte block fits the 128-byte remainder with too little left to split.
	q := a.Malloc(40, "reuse.go", 2)
	require.Equal(t, ptrs[1]+128, q)
	require.Equal(t, 1, a.EngineStats().Splits)
	requireHeapValid(t, a)

	// Nothing left anywhere.
	require.Equal(t, Null, a.Malloc(1, "reuse.go", 3))

	for _, ptr := range []Ptr{ptrs[3], ptrs[2], q, p, ptrs[0]} {
		a.Free(ptr, "drain.go", 1)
		requireHeapValid(t, a)
	}
	require.Zero(t, a.arena.Pos())
	require.Zero(t, a.blocks.Len())
	require.Zero(t, a.Statistics().Active)
}

func TestCoalesceUpAndDown(t *testing.T) {
	a, _ := newTestAllocator(t, 1024)

	var ptrs [4]Ptr
	for i := range ptrs {
		ptrs[i] = a.Malloc(176, "fill.go", i)
	}

	a.Free(ptrs[1], "free.go", 1)
	a.Free(ptrs[2], "free.go", 2) // merges into the free block below it
	require.Equal(t, 1, a.EngineStats().CoalesceDown)
	require.Equal(t, 3, a.blocks.Len())
	requireHeapValid(t, a)

	a.Free(ptrs[0], "free.go", 3) // absorbs the free block above it
	require.Equal(t, 1, a.EngineStats().CoalesceUp)
	require.Equal(t, 2, a.blocks.Len())
	requireHeapValid(t, a)

	a.Free(ptrs[3], "free.go", 4) // merges down, then the whole arena is retracted
	require.Equal(t, 2, a.EngineStats().CoalesceDown)
	require.Equal(t, 1, a.EngineStats().Retractions)
	require.Zero(t, a.blocks.Len())
	require.Zero(t, a.arena.Pos())

	// The whole arena can be handed out again as one block.
	p := a.Malloc(1024-format.HeaderSize-format.Alignment, "big.go", 1)
	require.NotEqual(t, Null, p)
	require.Zero(t, a.arena.Available())
}

func TestRetractOnlyReclaimsTopBlock(t *testing.T) {
	a, _ := newTestAllocator(t, 4096)

	p1 := a.Malloc(100, "top.go", 1)
	p2 := a.Malloc(100, "top.go", 2)
	top := a.arena.Pos()

	a.Free(p1, "top.go", 3)
	require.Equal(t, top, a.arena.Pos(), "freeing a lower block keeps the cursor")

	a.Free(p2, "top.go", 4)
	require.Zero(t, a.arena.Pos(), "freeing the top block cascades through the merged free block")
	require.Equal(t, 1, a.EngineStats().Retractions)
}

func TestReuseOrderIsListOrder(t *testing.T) {
	a, _ := newTestAllocator(t, 1280)

	var ptrs [5]Ptr
	for i := range ptrs {
		ptrs[i] = a.Malloc(176, "order.go", i)
	}
	a.Free(ptrs[0], "order.go", 10)
	a.Free(ptrs[2], "order.go", 11)

	// First fit walks from the top of the arena, so the higher hole wins.
	p := a.Malloc(176, "order.go", 12)
	require.Equal(t, ptrs[2], p)
	q := a.Malloc(176, "order.go", 13)
	require.Equal(t, ptrs[0], q)
	requireHeapValid(t, a)
}

func TestPayloadRejectsNonAllocations(t *testing.T) {
	a, _ := newTestAllocator(t, 4096)
	p := a.Malloc(32, "payload.go", 1)

	require.Nil(t, a.Payload(Null))
	require.Nil(t, a.Payload(p+16))
	require.Nil(t, a.Payload(Ptr(a.arena.Base()+8192)))

	a.Free(p, "payload.go", 2)
	require.Nil(t, a.Payload(p))
}

func TestMemoryIsClippedToArena(t *testing.T) {
	a, _ := newTestAllocator(t, 256)
	p := a.Malloc(16, "mem.go", 1)

	require.Len(t, a.Memory(p, 24), 24)
	require.Len(t, a.Memory(p, 1<<20), 256-format.HeaderSize)
	require.Len(t, a.Memory(p, math.MaxUint64), 256-format.HeaderSize)
	require.Nil(t, a.Memory(Ptr(a.arena.Base()+256), 1))
}

func TestSiteProvenance(t *testing.T) {
	a, _ := newTestAllocator(t, 4096)

	p := a.Malloc(10, "site.go", 41)
	id, line := a.blocks.Node(a.offset(p) - format.HeaderSize).Site()
	require.Equal(t, "site.go", a.sites.name(id))
	require.Equal(t, 41, line)
	require.Equal(t, unknownSite, a.sites.name(9999))
}
