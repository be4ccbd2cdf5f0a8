package thread

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/joshuapare/basekit/internal/logger"
)

// Mutex is an exclusive lock. Lock/Unlock pairs give a total order of
// critical-section entries across all callers of the same Mutex.
//
// When the holder is a thread started by Create and it exits without
// unlocking, the lock passes to the next caller together with ErrAbandoned.
// Holders that are plain goroutines are not tracked that way.
type Mutex struct {
	h atomic.Pointer[mutexHandle]
}

type mutexHandle struct {
	token  chan struct{} // holds one token while unlocked
	closed chan struct{}

	mu        sync.Mutex
	locked    bool
	owner     *threadHandle // set when the holder was started by Create
	abandoned bool
}

// NewMutex creates an unlocked mutex.
func NewMutex() *Mutex {
	h := &mutexHandle{
		token:  make(chan struct{}, 1),
		closed: make(chan struct{}),
	}
	h.token <- struct{}{}
	m := &Mutex{}
	m.h.Store(h)
	return m
}

// Lock blocks until the caller holds the mutex.
//
// ErrAbandoned means the caller now holds the mutex but the previous holder
// exited while inside its critical section. ErrClosed means the mutex was
// destroyed and the caller does not hold it.
func (m *Mutex) Lock() error {
	return m.LockTimeout(Infinite)
}

// LockTimeout is Lock bounded by ms milliseconds. LockTimeout(0) never blocks.
func (m *Mutex) LockTimeout(ms uint64) error {
	h := m.handle()
	if h == nil {
		return ErrClosed
	}
	select {
	case <-h.token:
		return h.acquired()
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
	case <-h.token:
		return h.acquired()
	case <-h.closed:
		return ErrClosed
	case <-timeout:
		return ErrTimeout
	}
}

// LockContext is Lock bounded by ctx; it returns ctx.Err() when ctx ends first.
func (m *Mutex) LockContext(ctx context.Context) error {
	h := m.handle()
	if h == nil {
		return ErrClosed
	}
	select {
	case <-h.token:
		return h.acquired()
	case <-h.closed:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryLock takes the mutex only if it is free right now. An abandoned mutex
// counts as taken by the caller.
func (m *Mutex) TryLock() bool {
	err := m.LockTimeout(0)
	return err == nil || errors.Is(err, ErrAbandoned)
}

// Unlock releases the mutex. Unlocking a mutex that is not held reports
// ErrNotLocked; unlocking one held by a different tracked thread reports
// ErrNotOwner.
func (m *Mutex) Unlock() error {
	h := m.handle()
	if h == nil {
		return ErrClosed
	}

	h.mu.Lock()
	if !h.locked {
		h.mu.Unlock()
		return ErrNotLocked
	}
	owner := h.owner
	if owner != nil && owner.id != CurrentID() {
		h.mu.Unlock()
		return ErrNotOwner
	}
	h.locked = false
	h.owner = nil
	h.mu.Unlock()

	if owner != nil {
		owner.release(h)
	}
	h.token <- struct{}{}
	return nil
}

// Locked reports whether the mutex is currently held.
func (m *Mutex) Locked() bool {
	h := m.handle()
	if h == nil {
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.locked
}

// Destroy releases the mutex. A held mutex is left intact and reports
// ErrLocked. Waiters blocked in Lock wake with ErrClosed. Destroying a cleared
// handle is a no-op.
func (m *Mutex) Destroy() error {
	h := m.handle()
	if h == nil {
		return nil
	}
	h.mu.Lock()
	locked := h.locked
	h.mu.Unlock()
	if locked {
		return ErrLocked
	}
	if m.h.CompareAndSwap(h, nil) {
		close(h.closed)
	}
	return nil
}

func (m *Mutex) handle() *mutexHandle {
	if m == nil {
		return nil
	}
	return m.h.Load()
}

// acquired records the caller as holder after it took the token.
func (h *mutexHandle) acquired() error {
	select {
	case <-h.closed:
		// Lost the race with Destroy.
		h.token <- struct{}{}
		return ErrClosed
	default:
	}

	self := currentThread()
	h.mu.Lock()
	h.locked = true
	h.owner = self
	abandoned := h.abandoned
	h.abandoned = false
	h.mu.Unlock()

	if self != nil {
		self.hold(h)
	}
	if abandoned {
		logger.Warn("acquired abandoned mutex", "thread", CurrentID())
		return ErrAbandoned
	}
	return nil
}

// abandon releases a mutex still held by an exiting thread and flags it so
// the next holder learns the protected state may be inconsistent.
func (h *mutexHandle) abandon(owner *threadHandle) {
	h.mu.Lock()
	if !h.locked || h.owner != owner {
		h.mu.Unlock()
		return
	}
	h.locked = false
	h.owner = nil
	h.abandoned = true
	h.mu.Unlock()

	logger.Warn("mutex abandoned by exiting thread", "thread", owner.id)
	h.token <- struct{}{}
}
