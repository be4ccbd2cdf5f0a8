// Package thread provides OS-level threads, mutexes and counting semaphores
// with the same behaviour on every supported platform.
//
// # Threads
//
// Create starts a procedure on a goroutine that is wired to its own OS thread
// for its whole life, so the identity reported by ID and CurrentID is a real
// OS thread id (gettid on Linux, GetCurrentThreadId on Windows). Elsewhere the
// goroutine id stands in for it.
//
//	t, err := thread.Create(worker, job, false)
//	if err != nil {
//	    return err
//	}
//	defer t.Destroy()
//	if err := t.WaitTimeout(500); errors.Is(err, thread.ErrTimeout) {
//	    // still running
//	}
//
// A handle moves through Unstarted -> Running -> {Joined | Detached | Cancelled}.
// Destroy, Detach and Cancel clear it; every operation on a cleared handle is a
// no-op that reports ErrClosed where it has a result.
//
// # Cancellation
//
// Cancel is cooperative: it cancels the context passed to the procedure and
// releases the handle. The Go runtime cannot terminate a thread from the
// outside, so a procedure that never checks its context keeps running,
// unowned, until it returns on its own. Locks it holds stay held until then.
// When it does exit while still holding a Mutex, the next Lock reports
// ErrAbandoned.
//
// # Timeouts
//
// Bounded waits take milliseconds. Infinite waits forever and 0 polls without
// blocking. A timeout is reported as ErrTimeout, distinct from every other
// failure, so callers can tell "not yet" from "broken" with errors.Is.
//
// # Ownership
//
// Handles are explicit values. Nothing tracks them for the caller: dropping a
// running Thread without Destroy or Detach leaves the thread running, and
// dropping a Mutex or Semaphore leaves waiters blocked until their timeout.
// Handle fields are updated atomically, but destroying a primitive while other
// goroutines still use it is a caller error.
package thread
