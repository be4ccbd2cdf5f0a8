package alloc

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackingStats(t *testing.T) {
	tr := NewTracking(nil)

	a, err := tr.Allocate(10)
	require.NoError(t, err)
	b, err := tr.Allocate(20)
	require.NoError(t, err)

	stats := tr.Stats()
	assert.Equal(t, int64(2), stats.LiveBlocks)
	assert.Equal(t, int64(30), stats.LiveBytes)
	assert.Equal(t, int64(30), stats.PeakBytes)

	require.NoError(t, tr.Free(a))
	leaks := tr.Leaks()
	require.Len(t, leaks, 1)
	assert.Equal(t, addr(b), leaks[0].Addr)
	assert.Equal(t, int64(20), leaks[0].Size)

	stats = tr.Stats()
	assert.Equal(t, int64(20), stats.LiveBytes)
	assert.Equal(t, int64(30), stats.PeakBytes, "peak is a high-water mark")
}

func TestTrackingRejectsUnknownBlocks(t *testing.T) {
	tr := NewTracking(nil)
	block, err := tr.Allocate(8)
	require.NoError(t, err)
	require.NoError(t, tr.Free(block))

	require.ErrorIs(t, tr.Free(block), ErrNotOwned, "double free")
	_, err = tr.Resize(make([]byte, 8), 8, 16)
	require.ErrorIs(t, err, ErrNotOwned)
	require.NoError(t, tr.Free(nil))
}

func TestTrackingFreeAllOverHeap(t *testing.T) {
	tr := NewTracking(NewHeap())
	for range 4 {
		_, err := tr.Allocate(32)
		require.NoError(t, err)
	}
	require.NotPanics(t, tr.FreeAll, "tracking supports free-all even when the heap cannot")
	require.Empty(t, tr.Leaks())
	assert.Equal(t, int64(4), tr.Stats().TotalFrees)
}

func TestTrackingFailedResizeKeepsRecord(t *testing.T) {
	tr := NewTracking(&Heap{Limit: 32})
	block, err := tr.Allocate(32)
	require.NoError(t, err)

	_, err = tr.Resize(block, 32, 64)
	require.ErrorIs(t, err, ErrOutOfMemory)
	require.Len(t, tr.Leaks(), 1, "old block stays live after a failed resize")
	require.NoError(t, tr.Free(block))
}

func TestTrackingConcurrent(t *testing.T) {
	tr := NewTracking(nil)
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				block, err := tr.Allocate(16)
				if err != nil {
					t.Error(err)
					return
				}
				if err := tr.Free(block); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()

	stats := tr.Stats()
	assert.Equal(t, int64(800), stats.TotalAllocs)
	assert.Equal(t, int64(800), stats.TotalFrees)
	assert.Zero(t, stats.LiveBlocks)
}
