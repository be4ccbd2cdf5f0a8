package alloc

import (
	"fmt"
	"math"
)

// Pool hands out fixed-size slots carved from one slab obtained from a parent
// Allocator. Slots are recycled through a free-slot stack, so allocation and
// free are O(1). Pool is not safe for concurrent use.
type Pool struct {
	parent   Allocator
	slab     []byte
	slotSize int64
	stride   int64
	free     []int32 // stack of free slot indexes
	live     []bool
}

// NewPool creates a pool of slots slotSize bytes each. A nil parent uses the
// Go runtime heap for the slab.
func NewPool(parent Allocator, slotSize int64, slots int) (*Pool, error) {
	if slotSize <= 0 || slots <= 0 || slots > math.MaxInt32 {
		return nil, fmt.Errorf("alloc: invalid pool geometry %d x %d", slots, slotSize)
	}
	if parent == nil {
		parent = NewHeap()
	}
	if slotSize > math.MaxInt64-DefaultAlignment {
		return nil, fmt.Errorf("%w: pool slot of %d bytes", ErrOutOfMemory, slotSize)
	}
	stride := int64(AlignSize(uint64(slotSize), uint64(DefaultAlignment)))
	if stride > math.MaxInt64/int64(slots) {
		return nil, fmt.Errorf("%w: pool of %d x %d bytes", ErrOutOfMemory, slots, stride)
	}
	want := stride * int64(slots)
	slab, err := parent.Allocate(want)
	if err != nil {
		return nil, fmt.Errorf("pool slab: %w", err)
	}
	if int64(len(slab)) < want {
		_ = parent.Free(slab)
		return nil, fmt.Errorf("%w: pool slab of %d bytes, want %d", ErrOutOfMemory, len(slab), want)
	}

	p := &Pool{
		parent:   parent,
		slab:     slab,
		slotSize: slotSize,
		stride:   stride,
		free:     make([]int32, 0, slots),
		live:     make([]bool, slots),
	}
	p.resetFreeList()
	return p, nil
}

// Allocate pops a free slot. Requests above the slot size fail with ErrTooLarge.
func (p *Pool) Allocate(size int64) ([]byte, error) {
	switch {
	case size < 0:
		return nil, ErrNegativeSize
	case size == 0:
		return nil, nil
	case size > p.slotSize:
		return nil, fmt.Errorf("%w: %d bytes exceeds slot size %d", ErrTooLarge, size, p.slotSize)
	case len(p.free) == 0:
		return nil, fmt.Errorf("%w: all %d slots in use", ErrOutOfMemory, len(p.live))
	}
	idx := p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]
	p.live[idx] = true
	return p.slot(int(idx), size), nil
}

// Resize keeps the block in its slot while size fits the slot size.
// Shrinking to zero frees the slot.
func (p *Pool) Resize(old []byte, oldSize, size int64) ([]byte, error) {
	if size < 0 {
		return nil, ErrNegativeSize
	}
	if old == nil {
		return p.Allocate(size)
	}
	idx, ok := p.index(old)
	if !ok {
		return nil, ErrNotOwned
	}
	if size > p.slotSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds slot size %d", ErrTooLarge, size, p.slotSize)
	}
	if size == 0 {
		p.release(idx)
		return nil, nil
	}
	// Same slot, so the preserved prefix is already in place.
	return p.slot(idx, size), nil
}

// Free returns a slot to the pool. Foreign blocks and double frees report ErrNotOwned.
func (p *Pool) Free(block []byte) error {
	if block == nil {
		return nil
	}
	idx, ok := p.index(block)
	if !ok {
		return ErrNotOwned
	}
	p.release(idx)
	return nil
}

// FreeAll returns every slot to the pool.
func (p *Pool) FreeAll() {
	if p.slab == nil {
		return
	}
	clear(p.live)
	p.resetFreeList()
}

// Close frees every slot and hands the slab back to the parent.
func (p *Pool) Close() error {
	p.FreeAll()
	p.free = p.free[:0]
	slab := p.slab
	p.slab = nil
	return p.parent.Free(slab)
}

// SlotSize reports the usable bytes per slot.
func (p *Pool) SlotSize() int64 { return p.slotSize }

// Available reports the number of free slots.
func (p *Pool) Available() int { return len(p.free) }

// InUse reports the number of allocated slots.
func (p *Pool) InUse() int { return len(p.live) - len(p.free) }

func (p *Pool) slot(idx int, size int64) []byte {
	off := int64(idx) * p.stride
	return p.slab[off : off+size : off+p.slotSize]
}

// index maps a block back to its slot. Blocks must start at a slot boundary
// and the slot must be live.
func (p *Pool) index(b []byte) (int, bool) {
	if p.slab == nil {
		return 0, false
	}
	base, ptr := addr(p.slab), addr(b)
	if ptr < base || ptr >= base+uintptr(len(p.slab)) {
		return 0, false
	}
	off := int64(ptr - base)
	if off%p.stride != 0 {
		return 0, false
	}
	idx := int(off / p.stride)
	if !p.live[idx] {
		return 0, false
	}
	return idx, true
}

func (p *Pool) release(idx int) {
	p.live[idx] = false
	p.free = append(p.free, int32(idx))
}

func (p *Pool) resetFreeList() {
	p.free = p.free[:0]
	// Push in reverse so slot 0 is handed out first.
	for i := len(p.live) - 1; i >= 0; i-- {
		p.free = append(p.free, int32(i))
	}
}
