//go:build linux || darwin

package gc

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// NewMapped reserves the nursery's backing memory with an anonymous
// mmap instead of the Go heap, so the arena's address is stable for the
// lifetime of the process and is never itself subject to Go's own
// garbage collector moving or scanning it as ordinary heap memory.
//
// Grounded on std/runtime/runtime_linux_amd64.go's SysMmap/MmapAnonFlags
// (PROT_READ|PROT_WRITE, MAP_PRIVATE|MAP_ANONYMOUS via raw syscall
// numbers), modernized to golang.org/x/sys/unix.Mmap the way
// other_examples' uffd_linux.go reserves its eager-copy buffer.
func NewMapped(size int, chunkBytes int) (*Nursery, error) {
	if chunkBytes <= 0 {
		chunkBytes = DefaultChunkBytes
	}
	backing, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, errors.Wrap(err, "nursery: mmap nursery arena")
	}
	n := newNurseryOver(backing, chunkBytes)
	n.mapped = true
	return n, nil
}

func unmapBacking(backing []byte) error {
	return unix.Munmap(backing)
}
