//go:build !(linux || darwin)

package gc

import "github.com/pkg/errors"

// NewMapped is unavailable on platforms without the unix mmap family;
// use NewHeap instead. The mmap-backed arena is an optimization for
// reserving a stable, Go-heap-independent address range, not a
// behavioral requirement: NewHeap satisfies the same Nursery contract
// everywhere.
func NewMapped(size int, chunkBytes int) (*Nursery, error) {
	return nil, errors.New("nursery: mmap-backed nursery is not supported on this platform; use NewHeap")
}

func unmapBacking(backing []byte) error { return nil }
