package alloc

import (
	"fmt"
	"reflect"

	"github.com/joshuapare/basekit/internal/logger"
)

// Allocator defines the interface for allocation contexts.
//
// Implementations:
//   - Heap: Go runtime heap, no bulk free
//   - Arena: bump allocation over a block chain
//   - Pool: fixed-size slots
//   - Tracking: live-block accounting over a parent allocator
//   - Pages: OS page mappings
//   - ProcAllocator: any mode-dispatch procedure plus its data
type Allocator interface {
	// Allocate returns a block of at least size bytes.
	// The block is not guaranteed to be zeroed.
	Allocate(size int64) ([]byte, error)

	// Resize returns a block of size bytes whose first min(size, oldSize)
	// bytes equal those of old. A nil old behaves like Allocate.
	// On success old is invalidated; on failure old is left untouched.
	Resize(old []byte, oldSize, size int64) ([]byte, error)

	// Free invalidates a block. Freeing nil is a no-op.
	Free(block []byte) error

	// FreeAll invalidates every block produced by the context.
	// Contexts that cannot track their blocks panic.
	FreeAll()
}

// Mode selects the operation performed by a Proc.
type Mode int

const (
	ModeAllocate Mode = iota
	ModeResize
	ModeFree
	ModeFreeAll
)

func (m Mode) String() string {
	switch m {
	case ModeAllocate:
		return "allocate"
	case ModeResize:
		return "resize"
	case ModeFree:
		return "free"
	case ModeFreeAll:
		return "free-all"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Options flags understood by Dispatch and DefaultProc.
const (
	// OptionZero zeroes the bytes of an allocated or resized block that were
	// not copied from the old block.
	OptionZero int64 = 1 << 0
)

// Proc is a single mode-dispatched allocation procedure. Data is the opaque
// context the procedure operates on; options carries implementation-defined flags.
type Proc func(mode Mode, size, oldSize int64, oldMemory []byte, data any, options int64) ([]byte, error)

// ProcAllocator adapts a Proc and its context data to the Allocator interface.
// A nil Proc dispatches to DefaultProc.
type ProcAllocator struct {
	Proc Proc
	Data any
}

func (p ProcAllocator) proc() Proc {
	if p.Proc == nil {
		return DefaultProc
	}
	return p.Proc
}

// Allocate dispatches ModeAllocate.
func (p ProcAllocator) Allocate(size int64) ([]byte, error) {
	return p.proc()(ModeAllocate, size, 0, nil, p.Data, 0)
}

// Resize dispatches ModeResize.
func (p ProcAllocator) Resize(old []byte, oldSize, size int64) ([]byte, error) {
	return p.proc()(ModeResize, size, oldSize, old, p.Data, 0)
}

// Free dispatches ModeFree.
func (p ProcAllocator) Free(block []byte) error {
	_, err := p.proc()(ModeFree, 0, 0, block, p.Data, 0)
	return err
}

// FreeAll dispatches ModeFreeAll. A procedure that reports an error for
// FreeAll is treated as unsupported and panics.
func (p ProcAllocator) FreeAll() {
	if _, err := p.proc()(ModeFreeAll, 0, 0, nil, p.Data, 0); err != nil {
		logger.Error("free-all failed", "err", err)
		panic(err)
	}
}

// Dispatch drives a through the single-procedure protocol.
// An unknown mode panics with ErrUnknownMode.
func Dispatch(a Allocator, mode Mode, size, oldSize int64, oldMemory []byte, options int64) ([]byte, error) {
	switch mode {
	case ModeAllocate:
		block, err := a.Allocate(size)
		if err == nil && options&OptionZero != 0 {
			clear(block)
		}
		return block, err
	case ModeResize:
		block, err := a.Resize(oldMemory, oldSize, size)
		if err == nil && options&OptionZero != 0 && int64(len(block)) > oldSize {
			clear(block[max(oldSize, 0):])
		}
		return block, err
	case ModeFree:
		return nil, a.Free(oldMemory)
	case ModeFreeAll:
		a.FreeAll()
		return nil, nil
	default:
		logger.Error("unknown allocator mode", "mode", int(mode))
		panic(fmt.Errorf("%w: %d", ErrUnknownMode, int(mode)))
	}
}

// ContextProc is a Proc whose data is itself an Allocator. Nil data, including
// a nil pointer of an Allocator type, falls back to the Go runtime heap.
func ContextProc(mode Mode, size, oldSize int64, oldMemory []byte, data any, options int64) ([]byte, error) {
	a, ok := data.(Allocator)
	if !ok || isNilAllocator(a) {
		a = defaultHeap
	}
	return Dispatch(a, mode, size, oldSize, oldMemory, options)
}

func isNilAllocator(a Allocator) bool {
	if a == nil {
		return true
	}
	v := reflect.ValueOf(a)
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}

var defaultHeap = &Heap{}

// DefaultProc forwards to the Go runtime heap and ignores data.
// ModeFreeAll and unknown modes panic.
func DefaultProc(mode Mode, size, oldSize int64, oldMemory []byte, _ any, options int64) ([]byte, error) {
	return Dispatch(defaultHeap, mode, size, oldSize, oldMemory, options)
}

// Compile-time interface checks
var (
	_ Allocator = ProcAllocator{}
	_ Allocator = (*Heap)(nil)
	_ Allocator = (*Arena)(nil)
	_ Allocator = (*Pool)(nil)
	_ Allocator = (*Tracking)(nil)
	_ Allocator = (*Pages)(nil)
)
