package heapcheck_test

import (
	"fmt"

	"github.com/joshuapare/heapcheck/pkg/heapcheck"
)

// Example resizes an allocation and prints the ledger.
func Example() {
	if err := heapcheck.Init(nil); err != nil {
		fmt.Println(err)
		return
	}
	defer heapcheck.Shutdown()

	p := heapcheck.Malloc(1000)
	p = heapcheck.Realloc(p, 1000)
	heapcheck.PrintStatistics()

	heapcheck.Free(p)
	heapcheck.PrintStatistics()
	// Output:
	// alloc count: active          1   total          2   fail          0
	// alloc size:  active       1000   total       2000   fail          0
	// alloc count: active          0   total          2   fail          0
	// alloc size:  active          0   total       2000   fail          0
}

// ExampleCalloc shows that zero-sized requests still return a unique pointer.
func ExampleCalloc() {
	if err := heapcheck.Init(nil); err != nil {
		fmt.Println(err)
		return
	}
	defer heapcheck.Shutdown()

	p := heapcheck.Calloc(0, 16)
	q := heapcheck.Calloc(16, 0)
	fmt.Println(p != heapcheck.Null, q != heapcheck.Null, p != q)
	fmt.Println(len(heapcheck.Payload(p)))
	// Output:
	// true true true
	// 0
}
