package alloc

// Statistics is a snapshot of the allocation ledger.
type Statistics struct {
	Active     uint64  `json:"active"`      // Live allocations
	ActiveSize uint64  `json:"active_size"` // Bytes in live allocations
	Total      uint64  `json:"total"`       // Successful allocations ever
	TotalSize  uint64  `json:"total_size"`  // Bytes in successful allocations ever
	Fail       uint64  `json:"fail"`        // Failed allocation attempts
	FailSize   uint64  `json:"fail_size"`   // Bytes requested by failed attempts
	HeapMin    uintptr `json:"heap_min"`    // Lowest payload address ever handed out
	HeapMax    uintptr `json:"heap_max"`    // One past the highest payload byte ever handed out
}

func (s *Statistics) recordAlloc(size uint64, p Ptr) {
	s.Total++
	s.Active++
	s.TotalSize += size
	s.ActiveSize += size

	lo, hi := uintptr(p), uintptr(p)+uintptr(size)
	if s.HeapMin == 0 || s.HeapMin > lo {
		s.HeapMin = lo
	}
	if s.HeapMax == 0 || s.HeapMax < hi {
		s.HeapMax = hi
	}
}

func (s *Statistics) recordFree(size uint64) {
	s.Active--
	s.ActiveSize -= size
}

func (s *Statistics) recordFail(size uint64) {
	s.Fail++
	s.FailSize += size
}

// EngineStats counts internal allocator events, for tests and tracing.
type EngineStats struct {
	BumpAllocs   int // Allocations carved at the arena cursor
	ReuseAllocs  int // Allocations served from a free block
	Splits       int // Free blocks split during reuse
	CoalesceUp   int // Merges with the upper (prev) neighbour
	CoalesceDown int // Merges into the lower (next) neighbour
	Retractions  int // Cursor retractions after a free
	FreeCalls    int // Free calls that released a block
}
