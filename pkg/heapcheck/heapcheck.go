package heapcheck

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/joshuapare/heapcheck/heap/alloc"
)

// Ptr is an address handed out by the allocator.
type Ptr = alloc.Ptr

// Null is the failed-allocation result.
const Null = alloc.Null

// Options configures the process-wide allocator. See alloc.Options.
type Options = alloc.Options

// Leak is a live allocation listed by the leak report.
type Leak = alloc.Leak

// ErrInitialized is returned by Init when the allocator already exists.
var ErrInitialized = errors.New("heapcheck: already initialized")

var (
	mu  sync.Mutex
	def *alloc.Safe
)

// Init creates the process-wide allocator. It fails if Init was already
// called, or if an entry point has lazily created the default instance,
// without an intervening Shutdown.
func Init(opts *Options) error {
	mu.Lock()
	defer mu.Unlock()
	if def != nil {
		return ErrInitialized
	}
	s, err := alloc.NewSafe(opts)
	if err != nil {
		return fmt.Errorf("heapcheck: %w", err)
	}
	def = s
	return nil
}

// Shutdown releases the arena. Pointers handed out become invalid. A later
// call to any entry point starts over with a fresh default instance.
func Shutdown() error {
	mu.Lock()
	defer mu.Unlock()
	if def == nil {
		return nil
	}
	err := def.Close()
	def = nil
	return err
}

// Default returns the process-wide allocator, reserving the default arena on
// first use. It panics if the arena cannot be reserved.
func Default() *alloc.Safe {
	mu.Lock()
	defer mu.Unlock()
	if def == nil {
		s, err := alloc.NewSafe(nil)
		if err != nil {
			panic(fmt.Sprintf("heapcheck: reserve default arena: %v", err))
		}
		def = s
	}
	return def
}

// caller returns the file and line skip frames above the exported entry
// point.
func caller(skip int) (string, int) {
	_, file, line, ok := runtime.Caller(skip + 2)
	if !ok {
		return "?", 0
	}
	return filepath.Base(file), line
}

// Malloc returns size bytes of uninitialised memory, or Null.
func Malloc(size uint64) Ptr {
	file, line := caller(0)
	return MallocAt(size, file, line)
}

// MallocAt is Malloc with an explicit call site.
func MallocAt(size uint64, file string, line int) Ptr {
	return Default().Malloc(size, file, line)
}

// Free releases p. Invalid pointers are reported and abort the process.
func Free(p Ptr) {
	file, line := caller(0)
	FreeAt(p, file, line)
}

// FreeAt is Free with an explicit call site.
func FreeAt(p Ptr, file string, line int) {
	Default().Free(p, file, line)
}

// Realloc resizes p to size bytes, preserving the common prefix.
func Realloc(p Ptr, size uint64) Ptr {
	file, line := caller(0)
	return ReallocAt(p, size, file, line)
}

// ReallocAt is Realloc with an explicit call site.
func ReallocAt(p Ptr, size uint64, file string, line int) Ptr {
	return Default().Realloc(p, size, file, line)
}

// Calloc returns zeroed memory for count elements of size bytes, or Null.
func Calloc(count, size uint64) Ptr {
	file, line := caller(0)
	return CallocAt(count, size, file, line)
}

// CallocAt is Calloc with an explicit call site.
func CallocAt(count, size uint64, file string, line int) Ptr {
	return Default().Calloc(count, size, file, line)
}

// Payload returns the bytes of the live allocation at p, or nil.
func Payload(p Ptr) []byte {
	return Default().Payload(p)
}

// Memory returns n raw arena bytes starting at p with no allocation
// checks. Writing past a payload through it is detected by the next Free.
func Memory(p Ptr, n uint64) []byte {
	return Default().Memory(p, n)
}

// Validate reports whether p could be freed, without freeing it.
func Validate(p Ptr) error {
	return Default().Validate(p)
}

// Statistics returns a snapshot of the allocation ledger.
func Statistics() alloc.Statistics {
	return Default().Statistics()
}

// Leaks returns the live allocations, topmost first.
func Leaks() []Leak {
	return Default().Leaks()
}

// PrintStatistics writes the ledger to standard output.
func PrintStatistics() error {
	return WriteStatistics(os.Stdout)
}

// WriteStatistics writes the ledger to w.
func WriteStatistics(w io.Writer) error {
	return Default().PrintStatistics(w)
}

// PrintLeakReport writes one line per live allocation to standard output.
func PrintLeakReport() error {
	return WriteLeakReport(os.Stdout)
}

// WriteLeakReport writes the leak report to w.
func WriteLeakReport(w io.Writer) error {
	return Default().PrintLeakReport(w)
}

// CheckIntegrity verifies the heap invariants.
func CheckIntegrity() error {
	return Default().CheckIntegrity()
}
