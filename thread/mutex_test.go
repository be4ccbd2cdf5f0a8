package thread

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMutexLockUnlock(t *testing.T) {
	m := NewMutex()
	require.NoError(t, m.Lock())
	require.True(t, m.Locked())
	require.NoError(t, m.Unlock())
	require.False(t, m.Locked())
	require.NoError(t, m.Destroy())
}

func TestMutexUnlockNotLocked(t *testing.T) {
	m := NewMutex()
	require.ErrorIs(t, m.Unlock(), ErrNotLocked)
}

func TestMutexTryLockAndTimeout(t *testing.T) {
	m := NewMutex()
	require.True(t, m.TryLock())
	require.False(t, m.TryLock())
	require.ErrorIs(t, m.LockTimeout(0), ErrTimeout)
	require.ErrorIs(t, m.LockTimeout(15), ErrTimeout)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, m.LockContext(ctx), context.DeadlineExceeded)

	require.NoError(t, m.Unlock())
	require.NoError(t, m.LockContext(context.Background()))
	require.NoError(t, m.Unlock())
}

// Two threads alternate strictly: each waits for its turn, then hands over.
func TestMutexAlternation(t *testing.T) {
	const rounds = 200
	m := NewMutex()
	var (
		turn  int
		order []int
	)

	worker := func(_ context.Context, arg any) uint32 {
		me := arg.(int)
		for done := 0; done < rounds; {
			if m.Lock() != nil {
				return 1
			}
			if turn == me {
				order = append(order, me)
				turn = 1 - me
				done++
			}
			if m.Unlock() != nil {
				return 2
			}
			Yield()
		}
		return 0
	}

	a, err := Create(worker, 0, false)
	require.NoError(t, err)
	b, err := Create(worker, 1, false)
	require.NoError(t, err)
	require.NoError(t, a.Wait())
	require.NoError(t, b.Wait())
	for _, th := range []*Thread{a, b} {
		code, ok := th.ExitCode()
		require.True(t, ok)
		require.Zero(t, code)
	}
	a.Destroy()
	b.Destroy()

	require.Len(t, order, 2*rounds)
	for i, who := range order {
		require.Equal(t, i%2, who, "entry %d out of order", i)
	}
	require.NoError(t, m.Destroy())
}

// Every critical-section entry is followed by its own exit before the next
// entry, whichever thread gets there first.
func TestMutexEnterExitLog(t *testing.T) {
	const iters = 500
	m := NewMutex()
	var events []byte

	worker := func(context.Context, any) uint32 {
		for range iters {
			if m.Lock() != nil {
				return 1
			}
			events = append(events, 'E')
			Yield()
			events = append(events, 'X')
			if m.Unlock() != nil {
				return 2
			}
		}
		return 0
	}

	a, err := Create(worker, nil, false)
	require.NoError(t, err)
	b, err := Create(worker, nil, false)
	require.NoError(t, err)
	for _, th := range []*Thread{a, b} {
		require.NoError(t, th.Wait())
		code, ok := th.ExitCode()
		require.True(t, ok)
		require.Zero(t, code)
		th.Destroy()
	}

	require.Len(t, events, 2*2*iters)
	require.Equal(t, strings.Repeat("EX", 2*iters), string(events))
	require.NoError(t, m.Destroy())
}

func TestMutexExclusion(t *testing.T) {
	const (
		workers = 8
		iters   = 500
	)
	m := NewMutex()
	counter := 0
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range iters {
				if m.Lock() != nil {
					return
				}
				counter++
				_ = m.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Equal(t, workers*iters, counter)
}

func TestMutexAbandoned(t *testing.T) {
	m := NewMutex()
	th, err := Create(func(context.Context, any) uint32 {
		if m.Lock() != nil {
			return 1
		}
		return 0 // exits still holding m
	}, nil, false)
	require.NoError(t, err)
	require.NoError(t, th.Wait())
	th.Destroy()

	require.ErrorIs(t, m.Lock(), ErrAbandoned, "ownership is granted with the abandoned flag")
	require.True(t, m.Locked())
	require.NoError(t, m.Unlock())

	require.NoError(t, m.Lock(), "flag is reported once")
	require.NoError(t, m.Unlock())
}

func TestMutexAbandonedWakesWaiter(t *testing.T) {
	m := NewMutex()
	locked := make(chan struct{})
	release := make(chan struct{})
	th, err := Create(func(context.Context, any) uint32 {
		if m.Lock() != nil {
			return 1
		}
		close(locked)
		<-release
		return 0
	}, nil, false)
	require.NoError(t, err)
	<-locked

	result := make(chan error, 1)
	go func() { result <- m.Lock() }()
	close(release)

	select {
	case err := <-result:
		require.ErrorIs(t, err, ErrAbandoned)
	case <-time.After(5 * time.Second):
		t.Fatal("waiter was not woken by the exiting holder")
	}
	require.NoError(t, th.Wait())
	th.Destroy()
	require.NoError(t, m.Unlock())
}

func TestMutexUnlockByNonOwner(t *testing.T) {
	m := NewMutex()
	locked := make(chan struct{})
	release := make(chan struct{})
	th, err := Create(func(context.Context, any) uint32 {
		if m.Lock() != nil {
			return 1
		}
		close(locked)
		<-release
		if m.Unlock() != nil {
			return 2
		}
		return 0
	}, nil, false)
	require.NoError(t, err)
	<-locked

	require.ErrorIs(t, m.Unlock(), ErrNotOwner)
	require.ErrorIs(t, m.Destroy(), ErrLocked)

	close(release)
	require.NoError(t, th.Wait())
	code, _ := th.ExitCode()
	require.Zero(t, code)
	th.Destroy()
	require.NoError(t, m.Destroy())
}

func TestMutexDestroy(t *testing.T) {
	m := NewMutex()
	require.NoError(t, m.Lock())
	require.ErrorIs(t, m.Destroy(), ErrLocked)
	require.NoError(t, m.Unlock())

	require.NoError(t, m.Destroy())
	require.NoError(t, m.Destroy(), "second destroy is a no-op")
	require.ErrorIs(t, m.Lock(), ErrClosed)
	require.ErrorIs(t, m.Unlock(), ErrClosed)
	require.False(t, m.TryLock())
}

func TestNilMutex(t *testing.T) {
	var m *Mutex
	require.ErrorIs(t, m.Lock(), ErrClosed)
	require.False(t, m.Locked())
	require.NoError(t, m.Destroy())
}
