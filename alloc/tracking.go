package alloc

import (
	"errors"
	"sort"
	"sync"

	"github.com/joshuapare/basekit/internal/logger"
)

// Stats is a snapshot of a Tracking allocator's accounting.
type Stats struct {
	LiveBlocks  int64 `json:"live_blocks"`
	LiveBytes   int64 `json:"live_bytes"`
	PeakBytes   int64 `json:"peak_bytes"`
	TotalAllocs int64 `json:"total_allocs"`
	TotalFrees  int64 `json:"total_frees"`
}

// Leak describes one block still live in a Tracking allocator.
type Leak struct {
	Addr uintptr
	Size int64
}

// Tracking wraps a parent Allocator and records every live block it hands
// out. Calls are serialized, so Tracking is safe for concurrent use even when
// the parent is not.
type Tracking struct {
	mu     sync.Mutex
	parent Allocator
	live   map[uintptr]trackedBlock
	stats  Stats
}

type trackedBlock struct {
	block []byte
}

// NewTracking wraps parent. A nil parent uses the Go runtime heap.
func NewTracking(parent Allocator) *Tracking {
	if parent == nil {
		parent = NewHeap()
	}
	return &Tracking{parent: parent, live: make(map[uintptr]trackedBlock)}
}

// Allocate forwards to the parent and records the block.
func (t *Tracking) Allocate(size int64) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	block, err := t.parent.Allocate(size)
	if err != nil {
		return nil, err
	}
	t.record(block)
	return block, nil
}

// Resize forwards to the parent. Old must be live in this tracker.
func (t *Tracking) Resize(old []byte, oldSize, size int64) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if old != nil {
		if _, ok := t.live[addr(old)]; !ok {
			return nil, ErrNotOwned
		}
	}
	block, err := t.parent.Resize(old, oldSize, size)
	if err != nil {
		return nil, err
	}
	if old != nil {
		t.forget(old)
	}
	t.record(block)
	return block, nil
}

// Free forwards to the parent. Blocks not live in this tracker report ErrNotOwned.
func (t *Tracking) Free(block []byte) error {
	if block == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.live[addr(block)]; !ok {
		return ErrNotOwned
	}
	if err := t.parent.Free(block); err != nil {
		return err
	}
	t.forget(block)
	return nil
}

// FreeAll frees every live block through the parent, so it works on parents
// that cannot free in bulk themselves.
func (t *Tracking) FreeAll() {
	t.mu.Lock()
	defer t.mu.Unlock()

	var errs []error
	for key, tb := range t.live {
		if err := t.parent.Free(tb.block); err != nil {
			errs = append(errs, err)
		}
		delete(t.live, key)
		t.stats.TotalFrees++
	}
	t.stats.LiveBlocks = 0
	t.stats.LiveBytes = 0
	if err := errors.Join(errs...); err != nil {
		logger.Warn("tracking free-all left parent errors", "err", err)
	}
}

// Stats returns a snapshot of the accounting.
func (t *Tracking) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats
}

// Leaks lists the live blocks ordered by address.
func (t *Tracking) Leaks() []Leak {
	t.mu.Lock()
	defer t.mu.Unlock()

	leaks := make([]Leak, 0, len(t.live))
	for key, tb := range t.live {
		leaks = append(leaks, Leak{Addr: key, Size: int64(len(tb.block))})
	}
	sort.Slice(leaks, func(i, j int) bool { return leaks[i].Addr < leaks[j].Addr })
	return leaks
}

func (t *Tracking) record(block []byte) {
	if block == nil {
		return
	}
	t.live[addr(block)] = trackedBlock{block: block}
	t.stats.LiveBlocks++
	t.stats.LiveBytes += int64(len(block))
	t.stats.TotalAllocs++
	t.stats.PeakBytes = max(t.stats.PeakBytes, t.stats.LiveBytes)
}

func (t *Tracking) forget(block []byte) {
	key := addr(block)
	tb, ok := t.live[key]
	if !ok {
		return
	}
	delete(t.live, key)
	t.stats.LiveBlocks--
	t.stats.LiveBytes -= int64(len(tb.block))
	t.stats.TotalFrees++
}
