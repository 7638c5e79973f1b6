package alloc

import (
	"testing"
)

func Benchmark_Malloc_BumpAndRetract(b *testing.B) {
	a := newMappedAllocator(b)

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		p := a.Malloc(uint64(16+i%256), "bench.go", 1)
		if p == Null {
			b.Fatal("malloc failed")
		}
		a.Free(p, "bench.go", 2)
	}
}

func Benchmark_Malloc_FirstFitReuse(b *testing.B) {
	const blocks = 512
	a, _ := newTestAllocator(b, blocks*int(blockSize(b, 128)))

	// Fill the arena, then free every other block in the lower half so each
	// allocation walks past the live upper half first.
	ptrs := make([]Ptr, blocks)
	for i := range ptrs {
		ptrs[i] = a.Malloc(128, "bench.go", 1)
	}
	for i := 0; i < blocks/2; i += 2 {
		a.Free(ptrs[i], "bench.go", 2)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p := a.Malloc(uint64(64+i%64), "bench.go", 3)
		if p == Null {
			b.Fatal("malloc failed")
		}
		a.Free(p, "bench.go", 4)
	}
}
