package alloc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArenaLazyFirstBlock(t *testing.T) {
	a := NewArena(nil, ArenaOptions{BlockSize: 64})
	require.Zero(t, a.Blocks(), "no block before the first allocation")

	_, err := a.Allocate(8)
	require.NoError(t, err)
	require.Equal(t, 1, a.Blocks())
	require.Equal(t, int64(64), a.Cap())
}

func TestArenaGrowth(t *testing.T) {
	a := NewArena(nil, ArenaOptions{BlockSize: 64, MaxBlockSize: 256})

	_, err := a.Allocate(48)
	require.NoError(t, err)
	require.Equal(t, 1, a.Blocks())

	_, err = a.Allocate(32)
	require.NoError(t, err)
	require.Equal(t, 2, a.Blocks(), "second request should not fit the 64 byte block")
	require.Equal(t, int64(64+128), a.Cap(), "blocks double")

	big, err := a.Allocate(1000)
	require.NoError(t, err)
	require.Len(t, big, 1000)
	require.Equal(t, 3, a.Blocks(), "oversized request gets its own block")
}

func TestArenaAlignment(t *testing.T) {
	a := NewArena(nil, ArenaOptions{BlockSize: 256})
	for _, size := range []int64{1, 3, 7, 9, 13, 17, 25} {
		block, err := a.Allocate(size)
		require.NoError(t, err)
		require.Len(t, block, int(size))
		require.Equal(t, int64(len(block)), int64(cap(block)), "capacity is clipped to the request")
		assert.Zero(t, addr(block)%uintptr(DefaultAlignment), "size %d misaligned", size)
	}
}

func TestArenaResizeInPlace(t *testing.T) {
	a := NewArena(nil, ArenaOptions{BlockSize: 128})
	block, err := a.Allocate(16)
	require.NoError(t, err)
	fillPattern(block)

	grown, err := a.Resize(block, 16, 48)
	require.NoError(t, err)
	require.Equal(t, addr(block), addr(grown), "last allocation grows in place")
	requirePattern(t, grown[:16])
	require.Equal(t, 1, a.Blocks())
}

func TestArenaResizeCopiesWhenNotLast(t *testing.T) {
	a := NewArena(nil, ArenaOptions{BlockSize: 128})
	first, err := a.Allocate(8)
	require.NoError(t, err)
	fillPattern(first)
	_, err = a.Allocate(8)
	require.NoError(t, err)

	moved, err := a.Resize(first, 8, 16)
	require.NoError(t, err)
	require.NotEqual(t, addr(first), addr(moved))
	requirePattern(t, moved[:8])
}

func TestArenaFreeRewindsLast(t *testing.T) {
	a := NewArena(nil, ArenaOptions{BlockSize: 128})
	_, err := a.Allocate(8)
	require.NoError(t, err)
	second, err := a.Allocate(8)
	require.NoError(t, err)

	require.NoError(t, a.Free(second))
	again, err := a.Allocate(8)
	require.NoError(t, err)
	require.Equal(t, addr(second), addr(again), "freed tail is reused")
}

func TestArenaFreeForeign(t *testing.T) {
	a := NewArena(nil, ArenaOptions{BlockSize: 64})
	_, err := a.Allocate(8)
	require.NoError(t, err)

	require.ErrorIs(t, a.Free(make([]byte, 4)), ErrNotOwned)
	_, err = a.Resize(make([]byte, 4), 4, 8)
	require.ErrorIs(t, err, ErrNotOwned)
	require.NoError(t, a.Free(nil))
}

func TestArenaFreeAllKeepsFirstBlock(t *testing.T) {
	parent := NewTracking(nil)
	a := NewArena(parent, ArenaOptions{BlockSize: 64, MaxBlockSize: 64})

	for range 5 {
		_, err := a.Allocate(40)
		require.NoError(t, err)
	}
	require.Equal(t, 5, a.Blocks())
	peak := a.Peak()

	a.FreeAll()
	assert.Equal(t, 1, a.Blocks())
	assert.Zero(t, a.Len())
	assert.Equal(t, int64(64), a.Cap())
	assert.Equal(t, peak, a.Peak(), "peak survives FreeAll")
	assert.Equal(t, int64(1), parent.Stats().LiveBlocks, "extra blocks returned to parent")

	a.Release()
	assert.Zero(t, parent.Stats().LiveBlocks)
	assert.Zero(t, a.Cap())

	_, err := a.Allocate(8)
	require.NoError(t, err, "arena is reusable after Release")
}

func TestArenaLimit(t *testing.T) {
	a := NewArena(nil, ArenaOptions{BlockSize: 64, MaxBlockSize: 64, Limit: 128})

	_, err := a.Allocate(48)
	require.NoError(t, err)
	_, err = a.Allocate(48)
	require.NoError(t, err)

	_, err = a.Allocate(48)
	require.ErrorIs(t, err, ErrOutOfMemory)
	require.Equal(t, int64(128), a.Cap())
}

func TestArenaResizeFailurePreservesOld(t *testing.T) {
	a := NewArena(nil, ArenaOptions{BlockSize: 64, MaxBlockSize: 64, Limit: 64})
	block, err := a.Allocate(32)
	require.NoError(t, err)
	fillPattern(block)
	_, err = a.Allocate(8)
	require.NoError(t, err)

	_, err = a.Resize(block, 32, 64)
	require.ErrorIs(t, err, ErrOutOfMemory)
	requirePattern(t, block)
}

func TestArenaOversizeLeavesArenaUsable(t *testing.T) {
	a := NewArena(nil, DefaultArenaOptions)
	first, err := a.Allocate(8)
	require.NoError(t, err)
	fillPattern(first)
	blocks, capacity, used := a.Blocks(), a.Cap(), a.Len()

	for _, size := range []int64{math.MaxInt64, math.MaxInt64 - DefaultAlignment, 1 << 50} {
		block, err := a.Allocate(size)
		require.ErrorIs(t, err, ErrOutOfMemory, "size %d", size)
		require.Nil(t, block)
		require.Equal(t, blocks, a.Blocks(), "failed request must not add blocks")
		require.Equal(t, capacity, a.Cap())
		require.Equal(t, used, a.Len())
	}

	// In-place growth of the last allocation must not overflow either.
	_, err = a.Resize(first, 8, math.MaxInt64)
	require.ErrorIs(t, err, ErrOutOfMemory)
	requirePattern(t, first)

	next, err := a.Allocate(8)
	require.NoError(t, err)
	require.Len(t, next, 8)
	assert.Zero(t, addr(next)%uintptr(DefaultAlignment))
}

func TestArenaOversizeUnderLimit(t *testing.T) {
	a := NewArena(nil, ArenaOptions{BlockSize: 64, Limit: 1024})
	_, err := a.Allocate(math.MaxInt64 - 1)
	require.ErrorIs(t, err, ErrOutOfMemory)
	_, err = a.Allocate(16)
	require.NoError(t, err)
}
