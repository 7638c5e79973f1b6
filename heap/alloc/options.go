package alloc

import (
	"io"
	"log/slog"
	"os"

	"github.com/joshuapare/heapcheck/heap/arena"
	"github.com/joshuapare/heapcheck/internal/format"
	"github.com/joshuapare/heapcheck/internal/logger"
)

// ExitAbort is the exit status used by the default Abort, matching a process
// killed by SIGABRT.
const ExitAbort = 134

// Options configures an Allocator. A nil *Options means all defaults.
type Options struct {
	// ArenaSize is the number of bytes reserved from the OS.
	// Default: 8 MiB.
	ArenaSize int

	// Arena supplies a pre-built arena instead of reserving one. The
	// allocator takes ownership and releases it on Close.
	Arena *arena.Arena

	// Logger receives debug traces (split, coalesce, retract, failures) and
	// violation records. Default: the HEAPCHECK_LOG_ALLOC trace logger when
	// that variable is set, otherwise logger.L.
	Logger *slog.Logger

	// ErrOut receives memory-bug diagnostics. Default: os.Stderr.
	ErrOut io.Writer

	// Abort is called after a violation has been reported. It is expected
	// not to return; if it does, the offending call returns without touching
	// the heap. Default: os.Exit(ExitAbort).
	Abort func(error)
}

func (o *Options) withDefaults() Options {
	var out Options
	if o != nil {
		out = *o
	}
	if out.ArenaSize <= 0 {
		out.ArenaSize = format.DefaultArenaSize
	}
	if out.Logger == nil {
		out.Logger = logger.AllocTrace()
	}
	if out.Logger == nil {
		out.Logger = logger.L
	}
	if out.ErrOut == nil {
		out.ErrOut = os.Stderr
	}
	if out.Abort == nil {
		out.Abort = func(error) { os.Exit(ExitAbort) }
	}
	return out
}
