/*
Package heapcheck provides a process-wide debugging allocator with call-site
capture.

# Quick Start

	p := heapcheck.Malloc(128)
	copy(heapcheck.Payload(p), "hello")
	heapcheck.Free(p)

	heapcheck.PrintStatistics()
	heapcheck.PrintLeakReport()

Each entry point records the file and line of its caller, so diagnostics and
leak reports point at the code that allocated or freed the block:

	MEMORY BUG: main.go:14: invalid free of pointer 0x7f3a1c000050, double free
	LEAK CHECK: main.go:9: allocated object 0x7f3a1c000090 with size 64

# Lifecycle

The first call to any entry point reserves the default 8 MiB arena. Call
Init beforehand to choose the arena size, the diagnostic writer or the
abort hook, and Shutdown to release the arena:

	err := heapcheck.Init(&heapcheck.Options{ArenaSize: 64 << 20})
	if err != nil {
	    log.Fatal(err)
	}
	defer heapcheck.Shutdown()

# Explicit Call Sites

Wrappers and code generators that want to attribute allocations to their own
callers use the At variants:

	p := heapcheck.MallocAt(n, file, line)

# Thread Safety

All functions are safe for concurrent use.
*/
package heapcheck
