//go:build windows

package vmem

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/windows"
)

// PageSize reports the OS page size.
func PageSize() int {
	return os.Getpagesize()
}

// Map reserves and commits at least size bytes of zeroed memory.
// The returned slice covers the whole page-rounded mapping.
func Map(size int) ([]byte, error) {
	if !validLength(size) {
		return nil, ErrInvalidLength
	}
	n := RoundUp(size)
	addr, err := windows.VirtualAlloc(0, uintptr(n), windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_READWRITE)
	if err != nil {
		return nil, fmt.Errorf("vmem: VirtualAlloc %d bytes: %w", n, err)
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), n), nil
}

// Unmap releases a mapping returned by Map.
func Unmap(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	// MEM_RELEASE requires a zero size and the base address of the reservation.
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(data)))
	return windows.VirtualFree(addr, 0, windows.MEM_RELEASE)
}
