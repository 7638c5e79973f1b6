package main

import (
	"errors"
	"fmt"
	"math"

	hc "github.com/joshuapare/heapcheck/pkg/heapcheck"
)

// scenario is a fixed allocation program run against a fresh arena.
type scenario struct {
	name    string
	summary string
	bug     bool // Triggers a memory-bug diagnostic
	run     func() error
}

var errScenarioFailed = errors.New("scenario check failed")

func expect(ok bool, format string, args ...any) error {
	if ok {
		return nil
	}
	return fmt.Errorf("%w: %s", errScenarioFailed, fmt.Sprintf(format, args...))
}

var scenarios = []scenario{
	{
		name:    "realloc-resize",
		summary: "Shrink, keep and grow three 2000-byte blocks with realloc",
		run: func() error {
			p1 := hc.Malloc(2000)
			p2 := hc.Malloc(2000)
			p3 := hc.Malloc(2000)
			q1 := hc.Realloc(p1, 1000)
			q2 := hc.Realloc(p2, 2000)
			q3 := hc.Realloc(p3, 3000)
			if err := expect(q1 != hc.Null && q2 != hc.Null && q3 != hc.Null,
				"realloc returned null: %s %s %s", q1, q2, q3); err != nil {
				return err
			}
			printInfo("OK\n")
			return nil
		},
	},
	{
		name:    "realloc-same",
		summary: "Realloc a 1000-byte block to the same size",
		run: func() error {
			p := hc.Malloc(1000)
			hc.Realloc(p, 1000)
			return nil
		},
	},
	{
		name:    "realloc-huge",
		summary: "Realloc to SIZE_MAX-1 bytes fails and counts the failure",
		run: func() error {
			p := hc.Malloc(10000)
			q := hc.Realloc(p, math.MaxUint64-1)
			return expect(q == hc.Null, "huge realloc returned %s", q)
		},
	},
	{
		name:    "realloc-zero",
		summary: "Realloc to zero bytes returns null and leaves the block alone",
		run: func() error {
			p := hc.Malloc(10000)
			q := hc.Realloc(p, 0)
			return expect(q == hc.Null, "zero realloc returned %s", q)
		},
	},
	{
		name:    "realloc-null",
		summary: "Realloc of a null pointer behaves like malloc",
		run: func() error {
			p := hc.Realloc(hc.Null, 10000)
			return expect(p != hc.Null, "realloc(null) failed")
		},
	},
	{
		name:    "realloc-pressure",
		summary: "Realloc 1000 blocks of 8000 bytes in a nearly full arena",
		run: func() error {
			var ptrs [1000]hc.Ptr
			for i := range ptrs {
				ptrs[i] = hc.Malloc(8000)
			}
			for i := range ptrs {
				p := hc.Realloc(ptrs[i], 8000)
				if err := expect(p != hc.Null, "realloc %d failed", i); err != nil {
					return err
				}
			}
			return nil
		},
	},
	{
		name:    "zero-size",
		summary: "Zero-byte malloc and calloc return distinct live pointers",
		run: func() error {
			p := hc.Malloc(0)
			q := hc.Calloc(0, 16)
			r := hc.Calloc(16, 0)
			return expect(p != hc.Null && q != hc.Null && r != hc.Null && p != q && q != r,
				"zero-size allocations: %s %s %s", p, q, r)
		},
	},
	{
		name:    "leak",
		summary: "Leave two allocations live for the leak report",
		run: func() error {
			p := hc.Malloc(100)
			hc.Malloc(200)
			hc.Calloc(4, 32)
			hc.Free(p)
			return nil
		},
	},
	{
		name:    "double-free",
		summary: "Free the same pointer twice",
		bug:     true,
		run: func() error {
			p := hc.Malloc(64)
			hc.Malloc(16)
			hc.Free(p)
			hc.Free(p)
			return nil
		},
	},
	{
		name:    "interior-free",
		summary: "Free a pointer into the middle of an allocation",
		bug:     true,
		run: func() error {
			p := hc.Malloc(2001)
			hc.Free(p.Add(128))
			return nil
		},
	},
	{
		name:    "wild-write",
		summary: "Write one byte past the end of an allocation, then free it",
		bug:     true,
		run: func() error {
			p := hc.Malloc(10)
			hc.Memory(p, 11)[10] = 'X'
			hc.Free(p)
			return nil
		},
	},
	{
		name:    "not-in-heap",
		summary: "Free an address the allocator never handed out",
		bug:     true,
		run: func() error {
			p := hc.Malloc(10)
			hc.Free(p.Add(-1 << 20))
			return nil
		},
	},
}

func findScenario(name string) (scenario, bool) {
	for _, s := range scenarios {
		if s.name == name {
			return s, true
		}
	}
	return scenario{}, false
}
