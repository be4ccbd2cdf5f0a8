package thread

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"
)

// Semaphore is a counting semaphore whose permit count stays within [0, Max].
// Which waiter a Signal wakes is up to the scheduler; there is no FIFO order.
type Semaphore struct {
	h atomic.Pointer[semHandle]
}

type semHandle struct {
	permits chan struct{} // one buffered element per available permit
	closed  chan struct{}
}

// NewSemaphore creates a semaphore holding startCount permits out of at most
// maxCount. It requires 0 < maxCount <= math.MaxInt32 and startCount <= maxCount.
func NewSemaphore(maxCount, startCount uint32) (*Semaphore, error) {
	if maxCount == 0 || maxCount > math.MaxInt32 || startCount > maxCount {
		return nil, fmt.Errorf("%w: max=%d start=%d", ErrInvalidCount, maxCount, startCount)
	}
	h := &semHandle{
		permits: make(chan struct{}, maxCount),
		closed:  make(chan struct{}),
	}
	for range startCount {
		h.permits <- struct{}{}
	}
	s := &Semaphore{}
	s.h.Store(h)
	return s, nil
}

// Signal adds one permit, waking a blocked waiter if there is one. A
// semaphore already at its maximum refuses with ErrLimitExceeded.
func (s *Semaphore) Signal() error {
	h := s.handle()
	if h == nil {
		return ErrClosed
	}
	select {
	case h.permits <- struct{}{}:
		return nil
	default:
		return ErrLimitExceeded
	}
}

// Wait takes one permit, blocking up to ms milliseconds for one to appear.
// It returns ErrTimeout when none did, and ErrClosed when the semaphore was
// destroyed. Wait(0) never blocks.
func (s *Semaphore) Wait(ms uint64) error {
	h := s.handle()
	if h == nil {
		return ErrClosed
	}
	select {
	case <-h.permits:
		return nil
	case <-h.closed:
		return ErrClosed
	default:
	}
	if ms == 0 {
		return ErrTimeout
	}

	timeout, stop := after(ms)
	defer stop()
	select {
	case <-h.permits:
		return nil
	case <-h.closed:
		return ErrClosed
	case <-timeout:
		return ErrTimeout
	}
}

// WaitContext is Wait bounded by ctx; it returns ctx.Err() when ctx ends first.
func (s *Semaphore) WaitContext(ctx context.Context) error {
	h := s.handle()
	if h == nil {
		return ErrClosed
	}
	select {
	case <-h.permits:
		return nil
	case <-h.closed:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Count reports the permits currently available.
func (s *Semaphore) Count() uint32 {
	h := s.handle()
	if h == nil {
		return 0
	}
	return uint32(len(h.permits))
}

// Max reports the maximum permit count, or 0 once destroyed.
func (s *Semaphore) Max() uint32 {
	h := s.handle()
	if h == nil {
		return 0
	}
	return uint32(cap(h.permits))
}

// Destroy releases the semaphore. Blocked waiters wake with ErrClosed.
// Destroying a cleared handle is a no-op.
func (s *Semaphore) Destroy() {
	if s == nil {
		return
	}
	if h := s.h.Swap(nil); h != nil {
		close(h.closed)
	}
}

func (s *Semaphore) handle() *semHandle {
	if s == nil {
		return nil
	}
	return s.h.Load()
}
