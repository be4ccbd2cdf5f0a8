package thread

import (
	"math"
	"runtime"
	"time"
)

// Infinite is the timeout, in milliseconds, that never elapses.
const Infinite uint64 = math.MaxUint64

// maxMillis is the longest finite timeout a time.Duration can hold.
const maxMillis = uint64(math.MaxInt64 / int64(time.Millisecond))

// Millis converts d to a millisecond timeout. Negative durations become 0.
func Millis(d time.Duration) uint64 {
	if d <= 0 {
		return 0
	}
	return uint64(d / time.Millisecond)
}

// Sleep suspends the calling thread for at least ms milliseconds.
// Sleep(Infinite) never returns.
func Sleep(ms uint64) {
	timeout, _ := after(ms)
	<-timeout
}

// Yield gives up the processor so other threads can run.
func Yield() {
	runtime.Gosched()
}

// after returns a channel that fires once ms milliseconds have elapsed, and a
// function releasing the timer. Infinite and timeouts too long for a
// time.Duration yield a nil channel, which never fires.
func after(ms uint64) (<-chan time.Time, func() bool) {
	if ms == Infinite || ms > maxMillis {
		return nil, func() bool { return false }
	}
	t := time.NewTimer(time.Duration(ms) * time.Millisecond)
	return t.C, t.Stop
}
