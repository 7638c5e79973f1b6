package alloc

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapcheck/heap/arena"
)

func TestSafeConcurrentUse(t *testing.T) {
	ar, err := arena.FromBytes(make([]byte, 1<<20))
	require.NoError(t, err)
	s, err := NewSafe(&Options{Arena: ar, Abort: func(err error) { panic(err) }})
	require.NoError(t, err)
	defer s.Close()

	const workers = 8
	const rounds = 200

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		w := w
		wg.Add(1)
		go func() {
			defer wg.Done()
			held := make([]Ptr, 0, 8)
			for i := 0; i < rounds; i++ {
				size := uint64(16 + (w*31+i*7)%400)
				p := s.Calloc(1, size, "worker.go", w)
				if p == Null {
					continue
				}
				held = append(held, p)
				if len(held) == cap(held) {
					for _, q := range held {
						s.Free(q, "worker.go", w)
					}
					held = held[:0]
				}
			}
			for _, q := range held {
				s.Free(q, "worker.go", w)
			}
		}()
	}
	wg.Wait()

	require.NoError(t, s.CheckIntegrity())
	st := s.Statistics()
	require.Zero(t, st.Active)
	require.Zero(t, st.ActiveSize)
	require.Equal(t, st.Total, uint64(workers*rounds)-st.Fail)
	require.Empty(t, s.Leaks())
}

func TestSafeWrap(t *testing.T) {
	a, _ := newTestAllocator(t, 4096)
	s := Wrap(a)

	p := s.Malloc(24, "wrap.go", 1)
	require.Len(t, s.Payload(p), 24)
	require.NoError(t, s.Validate(p))

	q := s.Realloc(p, 48, "wrap.go", 2)
	require.NotEqual(t, Null, q)

	var buf bytes.Buffer
	require.NoError(t, s.PrintLeakReport(&buf))
	require.Contains(t, buf.String(), "LEAK CHECK: wrap.go:2: allocated object ")

	buf.Reset()
	require.NoError(t, s.PrintStatistics(&buf))
	require.Contains(t, buf.String(), "alloc count: active          1   total          2")

	s.Free(q, "wrap.go", 3)
	require.Zero(t, s.Statistics().Active)
}
