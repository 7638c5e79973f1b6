//go:build !linux && !darwin && !freebsd && !netbsd && !openbsd && !windows

// Package mmap provides platform-specific helpers for reserving the heap arena.
package mmap

import "fmt"

// Reserve allocates the arena from the Go heap when anonymous mappings are
// not available.
func Reserve(size int) ([]byte, func() error, error) {
	if size <= 0 {
		return nil, nil, fmt.Errorf("mmap: invalid reservation size %d", size)
	}
	return make([]byte, size), func() error { return nil }, nil
}
