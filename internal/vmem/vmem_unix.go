//go:build unix

package vmem

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// PageSize reports the OS page size.
func PageSize() int {
	return unix.Getpagesize()
}

// Map reserves and commits at least size bytes of zeroed memory.
// The returned slice covers the whole page-rounded mapping.
func Map(size int) ([]byte, error) {
	if !validLength(size) {
		return nil, ErrInvalidLength
	}
	n := RoundUp(size)
	data, err := unix.Mmap(-1, 0, n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("vmem: mmap %d bytes: %w", n, err)
	}
	return data, nil
}

// Unmap releases a mapping returned by Map.
func Unmap(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	err := unix.Munmap(data)
	if errors.Is(err, unix.EINVAL) {
		// Treat double-unmap as no-op for callers.
		return nil
	}
	return err
}
