package thread

import "errors"

var (
	// ErrNilProc indicates Create was called without a procedure.
	ErrNilProc = errors.New("thread: nil procedure")

	// ErrClosed indicates the handle was destroyed, detached or cancelled, or
	// the primitive was destroyed while the caller waited on it.
	ErrClosed = errors.New("thread: handle closed")

	// ErrTimeout indicates a bounded wait elapsed.
	ErrTimeout = errors.New("thread: wait timed out")

	// ErrPanicked indicates the thread's procedure terminated by panicking.
	ErrPanicked = errors.New("thread: procedure panicked")

	// ErrSelfWait indicates a thread tried to wait for its own termination.
	ErrSelfWait = errors.New("thread: thread cannot wait for itself")

	// ErrAbandoned indicates the mutex was granted after its previous holder
	// exited without unlocking. The caller owns the mutex, but the state it
	// protects may be inconsistent.
	ErrAbandoned = errors.New("thread: mutex abandoned by exited holder")

	// ErrNotLocked indicates Unlock on a mutex that is not held.
	ErrNotLocked = errors.New("thread: mutex not locked")

	// ErrNotOwner indicates Unlock by a thread other than the holder.
	ErrNotOwner = errors.New("thread: mutex held by another thread")

	// ErrLocked indicates Destroy on a mutex that is still held.
	ErrLocked = errors.New("thread: mutex still locked")

	// ErrInvalidCount indicates semaphore counts outside 0 <= start <= max, 0 < max.
	ErrInvalidCount = errors.New("thread: invalid semaphore count")

	// ErrLimitExceeded indicates Signal on a semaphore already at its maximum count.
	ErrLimitExceeded = errors.New("thread: semaphore count at maximum")
)
