package alloc

import (
	"fmt"
	"math"

	"github.com/joshuapare/basekit/internal/logger"
)

// ArenaOptions configures an Arena.
type ArenaOptions struct {
	// BlockSize is the size of the first block.
	BlockSize int64
	// MaxBlockSize caps the doubling growth of later blocks. Requests larger
	// than the cap still get a block of their own.
	MaxBlockSize int64
	// Limit caps the total bytes of all blocks. Zero means unbounded.
	Limit int64
}

// DefaultArenaOptions starts at 4KB and doubles up to 64KB per block.
var DefaultArenaOptions = ArenaOptions{BlockSize: 4 * KB, MaxBlockSize: 64 * KB}

// Arena is a bump allocator over a chain of blocks obtained from a parent
// Allocator. Every allocation is DefaultAlignment-aligned.
//
// Individual frees only reclaim space when they release the most recent
// allocation; everything else is reclaimed in bulk by FreeAll. Arena is not
// safe for concurrent use.
type Arena struct {
	parent Allocator
	opts   ArenaOptions
	blocks []*arenaBlock

	// lastStart is the offset of the most recent allocation in the tail block,
	// or -1 when there is none to rewind.
	lastStart int

	used     int64 // bytes handed out, alignment padding included
	capacity int64 // bytes of all blocks
	peak     int64
}

type arenaBlock struct {
	buf  []byte
	used int
}

// NewArena creates an arena whose blocks come from parent. A nil parent uses
// the Go runtime heap. Blocks are obtained lazily on the first allocation.
func NewArena(parent Allocator, opts ArenaOptions) *Arena {
	if parent == nil {
		parent = NewHeap()
	}
	if opts.BlockSize <= 0 {
		opts.BlockSize = DefaultArenaOptions.BlockSize
	}
	if opts.MaxBlockSize < opts.BlockSize {
		opts.MaxBlockSize = opts.BlockSize
	}
	return &Arena{parent: parent, opts: opts, lastStart: -1}
}

// Allocate reserves size bytes from the tail block, adding a block when the
// tail cannot fit the request.
func (a *Arena) Allocate(size int64) ([]byte, error) {
	switch {
	case size < 0:
		return nil, ErrNegativeSize
	case size == 0:
		return nil, nil
	case !fitsInt(size):
		return nil, fmt.Errorf("%w: arena request of %d bytes", ErrOutOfMemory, size)
	}

	block, start := a.fit(size)
	if block == nil {
		var err error
		if block, err = a.addBlock(size); err != nil {
			return nil, err
		}
		start = a.alignedStart(block)
		if size > int64(len(block.buf)-start) {
			return nil, fmt.Errorf("%w: arena block of %d bytes cannot hold %d", ErrOutOfMemory, len(block.buf), size)
		}
	}

	end := start + int(size)
	a.used += int64(end - block.used)
	a.peak = max(a.peak, a.used)
	block.used = end
	a.lastStart = start
	return block.buf[start:end:end], nil
}

// Resize grows or shrinks the most recent allocation in place when the tail
// block has room; otherwise it copies into a fresh allocation.
func (a *Arena) Resize(old []byte, oldSize, size int64) ([]byte, error) {
	if size < 0 {
		return nil, ErrNegativeSize
	}
	if old == nil {
		return a.Allocate(size)
	}
	if !a.owns(old) {
		return nil, ErrNotOwned
	}

	if tail := a.tail(); tail != nil && a.isLast(tail, old) &&
		size <= int64(len(tail.buf)-a.lastStart) {
		end := a.lastStart + int(size)
		a.used += int64(end - tail.used)
		a.peak = max(a.peak, a.used)
		tail.used = end
		if size == 0 {
			return nil, nil
		}
		return tail.buf[a.lastStart:end:end], nil
	}

	block, err := a.Allocate(size)
	if err != nil {
		return nil, err
	}
	copy(block, old[:copyLen(old, oldSize, size)])
	return block, nil
}

// Free rewinds the bump pointer when block is the most recent allocation.
// Any other owned block stays reserved until FreeAll.
func (a *Arena) Free(block []byte) error {
	if block == nil {
		return nil
	}
	if !a.owns(block) {
		return ErrNotOwned
	}
	if tail := a.tail(); tail != nil && a.isLast(tail, block) {
		a.used -= int64(tail.used - a.lastStart)
		tail.used = a.lastStart
		a.lastStart = -1
	}
	return nil
}

// FreeAll invalidates every block handed out, keeping the first block for reuse
// and returning the rest to the parent.
func (a *Arena) FreeAll() {
	if len(a.blocks) == 0 {
		return
	}
	for i := len(a.blocks) - 1; i > 0; i-- {
		a.releaseBlock(a.blocks[i])
	}
	a.blocks = a.blocks[:1]
	a.blocks[0].used = 0
	a.capacity = int64(len(a.blocks[0].buf))
	a.used = 0
	a.lastStart = -1
}

// Release returns every block to the parent. The arena stays usable and
// obtains a new first block on the next allocation.
func (a *Arena) Release() {
	for _, block := range a.blocks {
		a.releaseBlock(block)
	}
	a.blocks = nil
	a.capacity = 0
	a.used = 0
	a.lastStart = -1
}

// Len reports the bytes currently handed out, alignment padding included.
func (a *Arena) Len() int64 { return a.used }

// Cap reports the total bytes of all blocks.
func (a *Arena) Cap() int64 { return a.capacity }

// Peak reports the high-water mark of Len. FreeAll does not reset it.
func (a *Arena) Peak() int64 { return a.peak }

// Blocks reports the number of blocks in the chain.
func (a *Arena) Blocks() int { return len(a.blocks) }

func (a *Arena) tail() *arenaBlock {
	if len(a.blocks) == 0 {
		return nil
	}
	return a.blocks[len(a.blocks)-1]
}

// fit returns the tail block and aligned start when size fits after the bump pointer.
func (a *Arena) fit(size int64) (*arenaBlock, int) {
	tail := a.tail()
	if tail == nil {
		return nil, 0
	}
	start := a.alignedStart(tail)
	if size > int64(len(tail.buf)-start) {
		return nil, 0
	}
	return tail, start
}

func (a *Arena) alignedStart(block *arenaBlock) int {
	base := addr(block.buf)
	p := AlignForward(base+uintptr(block.used), uintptr(DefaultAlignment))
	return int(p - base)
}

func (a *Arena) nextBlockSize(need int64) int64 {
	size := a.opts.BlockSize
	if tail := a.tail(); tail != nil {
		size = min(int64(len(tail.buf))*2, a.opts.MaxBlockSize)
	}
	// Leave room to align the first allocation in the block.
	return max(size, need+DefaultAlignment)
}

func (a *Arena) addBlock(need int64) (*arenaBlock, error) {
	if need > math.MaxInt64-DefaultAlignment {
		return nil, fmt.Errorf("%w: arena request of %d bytes", ErrOutOfMemory, need)
	}
	size := a.nextBlockSize(need)
	if limit := a.opts.Limit; limit > 0 && size > limit-a.capacity {
		size = need + DefaultAlignment
		if size > limit-a.capacity {
			return nil, fmt.Errorf("%w: arena limit %d reached (capacity %d, need %d)",
				ErrOutOfMemory, limit, a.capacity, need)
		}
	}

	buf, err := a.parent.Allocate(size)
	if err != nil {
		return nil, fmt.Errorf("arena block of %d bytes: %w", size, err)
	}
	block := &arenaBlock{buf: buf}
	a.blocks = append(a.blocks, block)
	a.capacity += int64(len(buf))
	a.lastStart = -1
	logger.Debug("arena grew", "block_bytes", len(buf), "blocks", len(a.blocks), "capacity", a.capacity)
	return block, nil
}

func (a *Arena) releaseBlock(block *arenaBlock) {
	if err := a.parent.Free(block.buf); err != nil {
		logger.Warn("arena block release failed", "bytes", len(block.buf), "err", err)
	}
}

func (a *Arena) isLast(tail *arenaBlock, b []byte) bool {
	return a.lastStart >= 0 && addr(b) == addr(tail.buf)+uintptr(a.lastStart)
}

func (a *Arena) owns(b []byte) bool {
	p := addr(b)
	for _, block := range a.blocks {
		base := addr(block.buf)
		if p >= base && p < base+uintptr(len(block.buf)) {
			return true
		}
	}
	return false
}
