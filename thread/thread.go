package thread

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/joshuapare/basekit/internal/logger"
)

// Proc is a thread entry point. The context is cancelled by Cancel or
// Shutdown; the returned status is kept for ExitCode and otherwise ignored.
type Proc func(ctx context.Context, arg any) uint32

// Thread is a handle to one OS-scheduled thread started by Create.
type Thread struct {
	h  atomic.Pointer[threadHandle]
	id atomic.Uint64

	// exit code captured by Destroy
	exitCode atomic.Uint32
	exited   atomic.Bool
}

// threadHandle is the live side of a Thread, shared with the running goroutine.
type threadHandle struct {
	id     uint64
	done   chan struct{}
	cancel context.CancelFunc
	status uint32
	err    error // set when the procedure panicked

	mu   sync.Mutex
	held []*mutexHandle // mutexes locked by this thread
}

var (
	activeCount atomic.Int64

	// running maps the OS thread id of every thread started by Create to its
	// handle while the procedure runs. Mutex uses it to attribute ownership.
	running sync.Map
)

// ActiveCount reports how many threads started by Create are still running.
func ActiveCount() int64 {
	return activeCount.Load()
}

// Create starts a new thread running proc(ctx, arg) and returns once the
// thread is scheduled and its id is known.
//
// With detach set, the returned handle is already released: the thread runs
// to completion on its own and the handle reports ID 0.
func Create(proc Proc, arg any, detach bool) (*Thread, error) {
	return CreateContext(context.Background(), proc, arg, detach)
}

// CreateContext is Create with the procedure's context derived from parent.
func CreateContext(parent context.Context, proc Proc, arg any, detach bool) (*Thread, error) {
	if proc == nil {
		return nil, ErrNilProc
	}
	ctx, cancel := context.WithCancel(parent)
	h := &threadHandle{done: make(chan struct{}), cancel: cancel}

	started := make(chan uint64, 1)
	go h.run(ctx, proc, arg, started)
	id := <-started

	t := &Thread{}
	t.h.Store(h)
	t.id.Store(id)
	if detach {
		t.Detach()
	}
	return t, nil
}

func (h *threadHandle) run(ctx context.Context, proc Proc, arg any, started chan<- uint64) {
	// Never unlocked: the OS thread exits together with this goroutine.
	runtime.LockOSThread()

	self := CurrentID()
	h.id = self
	activeCount.Add(1)
	running.Store(self, h)
	started <- self

	defer func() {
		if r := recover(); r != nil {
			h.err = fmt.Errorf("%w: %v", ErrPanicked, r)
			logger.Error("thread procedure panicked", "thread", self, "panic", r)
		}
		h.abandonHeld()
		running.Delete(self)
		activeCount.Add(-1)
		h.cancel()
		close(h.done)
	}()

	h.status = proc(ctx, arg)
}

// ID returns the OS thread id, or 0 once the handle is cleared.
func (t *Thread) ID() uint64 {
	if t == nil {
		return 0
	}
	return t.id.Load()
}

// IsActive reports whether the thread has not terminated yet. It never blocks
// and is false for cleared handles.
func (t *Thread) IsActive() bool {
	h := t.handle()
	if h == nil {
		return false
	}
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

// Wait blocks until the thread terminates. It returns nil when the procedure
// returned or called runtime.Goexit, and ErrPanicked when it panicked.
func (t *Thread) Wait() error {
	return t.WaitTimeout(Infinite)
}

// WaitTimeout is Wait bounded by ms milliseconds; it returns ErrTimeout when
// the thread is still running at the deadline.
func (t *Thread) WaitTimeout(ms uint64) error {
	h, err := t.waitable()
	if err != nil {
		return err
	}
	select {
	case <-h.done:
		return h.err
	default:
	}
	if ms == 0 {
		return ErrTimeout
	}

	timeout, stop := after(ms)
	defer stop()
	select {
	case <-h.done:
		return h.err
	case <-timeout:
		return ErrTimeout
	}
}

// WaitContext is Wait bounded by ctx; it returns ctx.Err() when ctx ends first.
func (t *Thread) WaitContext(ctx context.Context) error {
	h, err := t.waitable()
	if err != nil {
		return err
	}
	select {
	case <-h.done:
		return h.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ExitCode returns the procedure's status once the thread has terminated.
// A status captured by Destroy stays readable after the handle is cleared.
func (t *Thread) ExitCode() (uint32, bool) {
	if t == nil {
		return 0, false
	}
	if h := t.h.Load(); h != nil {
		select {
		case <-h.done:
			return h.status, true
		default:
			return 0, false
		}
	}
	return t.exitCode.Load(), t.exited.Load()
}

// Destroy releases the handle, capturing the exit code when the thread has
// already terminated. A thread still running keeps running, unowned.
// Destroying a cleared handle is a no-op.
func (t *Thread) Destroy() {
	h := t.clear()
	if h == nil {
		return
	}
	select {
	case <-h.done:
		t.exitCode.Store(h.status)
		t.exited.Store(true)
	default:
	}
}

// Detach releases the handle without waiting; the thread cleans up after
// itself when its procedure returns.
func (t *Thread) Detach() {
	t.clear()
}

// Cancel asks the thread to stop by cancelling its context, then releases the
// handle. It does not wait and cannot interrupt a procedure that ignores its
// context; use Shutdown to wait for the thread to finish.
func (t *Thread) Cancel() {
	h := t.clear()
	if h == nil {
		return
	}
	h.cancel()
	logger.Debug("thread cancelled", "thread", h.id)
}

// Shutdown cancels the thread's context and waits up to ms milliseconds for it
// to terminate. On success, or when the procedure panicked, the handle is
// destroyed; on timeout the handle stays live so the caller can wait again or
// detach.
func (t *Thread) Shutdown(ms uint64) error {
	h := t.handle()
	if h == nil {
		return ErrClosed
	}
	h.cancel()
	err := t.WaitTimeout(ms)
	if err == nil || errors.Is(err, ErrPanicked) {
		t.Destroy()
	}
	return err
}

func (t *Thread) handle() *threadHandle {
	if t == nil {
		return nil
	}
	return t.h.Load()
}

func (t *Thread) waitable() (*threadHandle, error) {
	h := t.handle()
	if h == nil {
		return nil, ErrClosed
	}
	if h.id == CurrentID() {
		return nil, ErrSelfWait
	}
	return h, nil
}

func (t *Thread) clear() *threadHandle {
	if t == nil {
		return nil
	}
	h := t.h.Swap(nil)
	if h != nil {
		t.id.Store(0)
	}
	return h
}

// currentThread returns the handle of the calling thread when it was started
// by Create.
func currentThread() *threadHandle {
	if v, ok := running.Load(CurrentID()); ok {
		return v.(*threadHandle)
	}
	return nil
}

func (h *threadHandle) hold(m *mutexHandle) {
	h.mu.Lock()
	h.held = append(h.held, m)
	h.mu.Unlock()
}

func (h *threadHandle) release(m *mutexHandle) {
	h.mu.Lock()
	if i := slices.Index(h.held, m); i >= 0 {
		h.held = slices.Delete(h.held, i, i+1)
	}
	h.mu.Unlock()
}

// abandonHeld hands every mutex still held by the exiting thread to the next
// waiter, flagged as abandoned.
func (h *threadHandle) abandonHeld() {
	h.mu.Lock()
	held := h.held
	h.held = nil
	h.mu.Unlock()

	for _, m := range held {
		m.abandon(h)
	}
}
