// Package vmem maps and releases anonymous, private, read-write pages
// directly from the operating system.
//
// Mappings are outside the Go heap: the garbage collector never scans or
// frees them, so every successful Map must be paired with Unmap.
package vmem

import (
	"errors"
	"math"
)

// ErrInvalidLength is returned for non-positive lengths and for lengths too
// large to round up to whole pages.
var ErrInvalidLength = errors.New("vmem: invalid mapping length")

// validLength reports whether n bytes can be mapped without RoundUp overflowing.
func validLength(n int) bool {
	return n > 0 && n <= math.MaxInt-PageSize()
}

// RoundUp rounds n up to a whole number of pages.
func RoundUp(n int) int {
	page := PageSize()
	if rem := n % page; rem != 0 {
		n += page - rem
	}
	return n
}
