package alloc

import (
	"fmt"
	"math"
	"unsafe"
)

// Size helpers.
const (
	KB int64 = 1 << 10
	MB int64 = 1 << 20
	GB int64 = 1 << 30
)

// DefaultAlignment is the alignment of every Arena allocation: two pointers wide.
const DefaultAlignment = int64(2 * unsafe.Sizeof(uintptr(0)))

// IsPowerOfTwo reports whether x is a non-zero power of two.
func IsPowerOfTwo(x uint64) bool {
	return x != 0 && x&(x-1) == 0
}

// AlignSize rounds size up to a multiple of alignment.
func AlignSize(size, alignment uint64) uint64 {
	result := size + alignment - 1
	return result - result%alignment
}

// AlignForward returns the first address at or after p that is a multiple of
// alignment. Alignment must be a power of two.
func AlignForward(p, alignment uintptr) uintptr {
	if !IsPowerOfTwo(uint64(alignment)) {
		panic(fmt.Sprintf("alloc: alignment %d is not a power of two", alignment))
	}
	if mod := p & (alignment - 1); mod != 0 {
		p += alignment - mod
	}
	return p
}

// AllocArray allocates room for count elements of elemSize bytes each.
func AllocArray(a Allocator, elemSize, count int64) ([]byte, error) {
	if elemSize < 0 || count < 0 {
		return nil, ErrNegativeSize
	}
	if elemSize != 0 && count > math.MaxInt64/elemSize {
		return nil, fmt.Errorf("%w: %d elements of %d bytes", ErrOutOfMemory, count, elemSize)
	}
	return a.Allocate(elemSize * count)
}

// Dup copies data into a fresh block from a.
func Dup(a Allocator, data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	block, err := a.Allocate(int64(len(data)))
	if err != nil {
		return nil, err
	}
	copy(block, data)
	return block, nil
}

// addr returns the address of the first byte of b's backing array.
func addr(b []byte) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(b)))
}

// copyLen is the number of bytes a resize preserves.
func copyLen(old []byte, oldSize, size int64) int {
	n := min(oldSize, size, int64(len(old)))
	if n < 0 {
		return 0
	}
	return int(n)
}

// fitsInt reports whether size can be used as a slice length.
func fitsInt(size int64) bool {
	return uint64(size) <= uint64(math.MaxInt)
}
