package alloc

import "errors"

var (
	// ErrNegativeSize indicates a negative byte count was requested.
	ErrNegativeSize = errors.New("alloc: negative size")

	// ErrOutOfMemory indicates the context could not produce a block of the requested size.
	ErrOutOfMemory = errors.New("alloc: out of memory")

	// ErrTooLarge indicates the request exceeds the fixed block size of the context.
	ErrTooLarge = errors.New("alloc: request exceeds block size")

	// ErrNotOwned indicates a block that was not produced by this context, or was already freed.
	ErrNotOwned = errors.New("alloc: block not owned by allocator")

	// ErrFreeAllUnsupported is the panic value for FreeAll on a context that cannot track its blocks.
	ErrFreeAllUnsupported = errors.New("alloc: free-all not supported")

	// ErrUnknownMode is the panic value for dispatching a Mode outside the defined set.
	ErrUnknownMode = errors.New("alloc: unknown allocator mode")
)
