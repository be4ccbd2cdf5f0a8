//go:build windows

package thread

import "golang.org/x/sys/windows"

// CurrentID returns the Windows thread id of the calling OS thread.
func CurrentID() uint64 {
	return uint64(windows.GetCurrentThreadId())
}
