package alloc

import (
	"io"
	"sync"
)

// Safe is a mutex-protected wrapper around Allocator for concurrent access.
// The arena cursor, the block list and the statistics change together, so
// every entry point holds the same lock for its whole duration.
type Safe struct {
	mu sync.Mutex
	a  *Allocator
}

// NewSafe creates a thread-safe allocator.
func NewSafe(opts *Options) (*Safe, error) {
	a, err := New(opts)
	if err != nil {
		return nil, err
	}
	return &Safe{a: a}, nil
}

// Wrap puts an existing allocator behind a lock. The caller must stop using
// a directly.
func Wrap(a *Allocator) *Safe {
	return &Safe{a: a}
}

// Malloc thread-safely allocates size bytes.
func (s *Safe) Malloc(size uint64, file string, line int) Ptr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Malloc(size, file, line)
}

// Free thread-safely releases p.
func (s *Safe) Free(p Ptr, file string, line int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.a.Free(p, file, line)
}

// Realloc thread-safely resizes p.
func (s *Safe) Realloc(p Ptr, size uint64, file string, line int) Ptr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Realloc(p, size, file, line)
}

// Calloc thread-safely allocates zeroed memory.
func (s *Safe) Calloc(count, size uint64, file string, line int) Ptr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Calloc(count, size, file, line)
}

// Payload thread-safely returns the payload of p. The slice itself is not
// protected once returned.
func (s *Safe) Payload(p Ptr) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Payload(p)
}

// Memory thread-safely returns a raw view of n arena bytes at p.
func (s *Safe) Memory(p Ptr, n uint64) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Memory(p, n)
}

// Validate thread-safely checks p.
func (s *Safe) Validate(p Ptr) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Validate(p)
}

// Statistics thread-safely returns a snapshot of the ledger.
func (s *Safe) Statistics() Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Statistics()
}

// Leaks thread-safely lists live allocations.
func (s *Safe) Leaks() []Leak {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Leaks()
}

// PrintStatistics thread-safely writes the ledger.
func (s *Safe) PrintStatistics(w io.Writer) error {
	return WriteStatistics(w, s.Statistics())
}

// PrintLeakReport thread-safely writes the leak report.
func (s *Safe) PrintLeakReport(w io.Writer) error {
	return WriteLeakReport(w, s.Leaks())
}

// CheckIntegrity thread-safely verifies the heap invariants.
func (s *Safe) CheckIntegrity() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.CheckIntegrity()
}

// Close thread-safely releases the arena.
func (s *Safe) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Close()
}
