package alloc

import (
	"fmt"
	"runtime"

	"github.com/joshuapare/basekit/internal/logger"
)

// Heap forwards to the Go runtime heap.
//
// Free is a no-op: the garbage collector reclaims blocks once they are no
// longer referenced. Heap cannot enumerate its blocks, so FreeAll panics.
// Heap is safe for concurrent use.
type Heap struct {
	// Limit caps a single request in bytes. Zero means no cap beyond the
	// platform's slice length limit.
	Limit int64
}

// NewHeap returns a Heap without a per-request cap.
func NewHeap() *Heap {
	return &Heap{}
}

// Allocate returns a fresh block from the Go heap.
func (h *Heap) Allocate(size int64) ([]byte, error) {
	switch {
	case size < 0:
		return nil, ErrNegativeSize
	case size == 0:
		return nil, nil
	case !fitsInt(size) || (h.Limit > 0 && size > h.Limit):
		return nil, fmt.Errorf("%w: heap request of %d bytes", ErrOutOfMemory, size)
	}
	return makeBlock(size)
}

// makeBlock converts the runtime's refusal of an oversized slice into
// ErrOutOfMemory.
func makeBlock(size int64) (block []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			if rerr, ok := r.(runtime.Error); ok {
				block, err = nil, fmt.Errorf("%w: heap request of %d bytes: %v", ErrOutOfMemory, size, rerr)
				return
			}
			panic(r)
		}
	}()
	return make([]byte, size), nil
}

// Resize allocates a new block, copies the preserved prefix, and drops old.
func (h *Heap) Resize(old []byte, oldSize, size int64) ([]byte, error) {
	if size < 0 {
		return nil, ErrNegativeSize
	}
	block, err := h.Allocate(size)
	if err != nil {
		return nil, err
	}
	copy(block, old[:copyLen(old, oldSize, size)])
	return block, nil
}

// Free is a no-op.
func (h *Heap) Free(_ []byte) error {
	return nil
}

// FreeAll panics with ErrFreeAllUnsupported.
func (h *Heap) FreeAll() {
	logger.Error("free-all on heap allocator", "err", ErrFreeAllUnsupported)
	panic(ErrFreeAllUnsupported)
}
