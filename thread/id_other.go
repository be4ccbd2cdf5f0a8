//go:build !linux && !windows

package thread

import (
	"bytes"
	"runtime"
	"strconv"
)

// CurrentID returns the calling goroutine's id. Threads started by Create
// keep one goroutine on one OS thread for life, so for them the id is as
// stable as an OS thread id.
func CurrentID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	// "goroutine 123 [running]:..."
	field := bytes.TrimPrefix(buf[:n], []byte("goroutine "))
	if i := bytes.IndexByte(field, ' '); i >= 0 {
		field = field[:i]
	}
	id, err := strconv.ParseUint(string(field), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
