//go:build linux

package thread

import "golang.org/x/sys/unix"

// CurrentID returns the kernel thread id of the calling OS thread.
func CurrentID() uint64 {
	return uint64(unix.Gettid())
}
