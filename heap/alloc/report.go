package alloc

import (
	"fmt"
	"io"

	"github.com/joshuapare/heapcheck/heap/blocklist"
	"github.com/joshuapare/heapcheck/internal/format"
)

// Leak is a live allocation found by the leak report.
type Leak struct {
	Ptr  Ptr    `json:"ptr"`
	Size uint64 `json:"size"`
	File string `json:"file"`
	Line int    `json:"line"`
}

// Leaks returns every allocated block, topmost first.
func (a *Allocator) Leaks() []Leak {
	if a.arena.Released() {
		return nil
	}
	var leaks []Leak
	err := a.blocks.Walk(func(n blocklist.Node) bool {
		if n.State() != format.StateAllocated {
			return true
		}
		site, line := n.Site()
		leaks = append(leaks, Leak{
			Ptr:  a.ptr(n.Payload()),
			Size: n.PayloadSize(),
			File: a.sites.name(site),
			Line: line,
		})
		return true
	})
	if err != nil {
		a.log.Error("alloc: leak walk stopped early", "error", err)
	}
	return leaks
}

// PrintStatistics writes the ledger in its fixed two-line layout.
func (a *Allocator) PrintStatistics(w io.Writer) error {
	return WriteStatistics(w, a.stats)
}

// WriteStatistics writes s as
//
//	alloc count: active          1   total          2   fail          0
//	alloc size:  active       1000   total       2000   fail          0
func WriteStatistics(w io.Writer, s Statistics) error {
	if _, err := fmt.Fprintf(w, "alloc count: active %10d   total %10d   fail %10d\n",
		s.Active, s.Total, s.Fail); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "alloc size:  active %10d   total %10d   fail %10d\n",
		s.ActiveSize, s.TotalSize, s.FailSize)
	return err
}

// PrintLeakReport writes one line per live allocation:
//
//	LEAK CHECK: main.go:10: allocated object 0x7f3a1c000040 with size 128
func (a *Allocator) PrintLeakReport(w io.Writer) error {
	return WriteLeakReport(w, a.Leaks())
}

// WriteLeakReport writes leaks in the leak report layout.
func WriteLeakReport(w io.Writer, leaks []Leak) error {
	for _, l := range leaks {
		if _, err := fmt.Fprintf(w, "LEAK CHECK: %s:%d: allocated object %s with size %d\n",
			l.File, l.Line, l.Ptr, l.Size); err != nil {
			return err
		}
	}
	return nil
}
