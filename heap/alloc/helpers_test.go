package alloc

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapcheck/heap/arena"
	"github.com/joshuapare/heapcheck/internal/format"
)

// newTestAllocator builds an allocator over a Go-heap arena of size bytes.
// Violations are written to the returned buffer and then panic with the
// *Violation so tests can assert on them.
func newTestAllocator(t testing.TB, size int) (*Allocator, *bytes.Buffer) {
	t.Helper()
	ar, err := arena.FromBytes(make([]byte, size))
	require.NoError(t, err)

	var errOut bytes.Buffer
	a, err := New(&Options{
		Arena:  ar,
		ErrOut: &errOut,
		Abort:  func(err error) { panic(err) },
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a, &errOut
}

// newMappedAllocator builds an allocator over the default 8 MiB mapping.
func newMappedAllocator(t testing.TB) *Allocator {
	t.Helper()
	a, err := New(&Options{Abort: func(err error) { panic(err) }})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

// statsOutput renders the fixed statistics layout.
func statsOutput(t testing.TB, a *Allocator) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, a.PrintStatistics(&buf))
	return buf.String()
}

// requireHeapValid fails the test when any heap invariant is broken.
func requireHeapValid(t testing.TB, a *Allocator) {
	t.Helper()
	require.NoError(t, a.CheckIntegrity())
}

// fill writes b to every payload byte of p.
func fill(t testing.TB, a *Allocator, p Ptr, b byte) {
	t.Helper()
	payload := a.Payload(p)
	require.NotNil(t, payload)
	for i := range payload {
		payload[i] = b
	}
}

// blockSize is the block a payload of n bytes occupies.
func blockSize(t testing.TB, n uint64) uint64 {
	t.Helper()
	size, ok := format.BlockSizeFor(n)
	require.True(t, ok)
	return size
}
