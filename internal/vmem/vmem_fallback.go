//go:build !unix && !windows

package vmem

import "os"

// PageSize reports the OS page size.
func PageSize() int {
	return os.Getpagesize()
}

// Map allocates from the Go heap when the platform has no mapping API.
func Map(size int) ([]byte, error) {
	if !validLength(size) {
		return nil, ErrInvalidLength
	}
	return make([]byte, RoundUp(size)), nil
}

// Unmap is a no-op; the garbage collector reclaims fallback mappings.
func Unmap(_ []byte) error {
	return nil
}
