// Package alloc provides a pluggable allocator interface and the allocator
// contexts that implement it.
//
// # Allocator Interface
//
// The core abstraction is the Allocator interface, which supports:
//
//   - Allocate(size): hand out a block of at least size bytes
//   - Resize(old, oldSize, size): move a block, preserving min(oldSize, size) bytes
//   - Free(block): invalidate one block; nil is a no-op
//   - FreeAll(): invalidate every block produced by the context
//
// Contents of a fresh block are not guaranteed to be zeroed.
//
// A zero-size request returns (nil, nil) from every context in this package.
//
// When Resize fails, the old block stays allocated and its bytes are unchanged.
// Every context in this package follows that rule, so callers may keep using
// the old block after a failed Resize.
//
// # Mode Dispatch
//
// The same contract is also available as a single procedure selected by a
// Mode tag (ModeAllocate, ModeResize, ModeFree, ModeFreeAll). A Proc plus an
// opaque data value forms a ProcAllocator, and Dispatch drives any Allocator
// through the single-procedure protocol:
//
//	a := alloc.ProcAllocator{Proc: alloc.ContextProc, Data: alloc.NewArena(nil, alloc.DefaultArenaOptions)}
//	buf, err := a.Allocate(64)
//
// # Implementations
//
// Heap: forwards to the Go runtime heap
//
//   - Free is a no-op; the garbage collector reclaims blocks
//   - FreeAll panics with ErrFreeAllUnsupported
//   - Safe for concurrent use
//
// Arena: bump allocator over a chain of blocks
//
//   - Blocks come from a parent Allocator and grow by doubling
//   - Freeing the most recent block rewinds the bump pointer
//   - FreeAll keeps the first block and returns the rest to the parent
//
// Pool: fixed-size slots carved from one slab
//
//   - O(1) allocate and free through a free-slot stack
//   - Detects double free and foreign blocks (ErrNotOwned)
//
// Tracking: wraps any Allocator and records every live block
//
//   - Leaks() and Stats() expose outstanding blocks and byte counts
//   - FreeAll frees every live block through the parent
//   - Safe for concurrent use
//
// Pages: anonymous OS mappings, one per block
//
//   - Each block is rounded up to the page size
//   - FreeAll unmaps everything
//   - Safe for concurrent use
//
// # Thread Safety
//
// Arena and Pool are not thread-safe. Callers must synchronize access
// externally or wrap them in a Tracking allocator, which serializes calls.
//
// # Fatal Conditions
//
// Calling FreeAll on a context that cannot support it, or dispatching an
// unknown Mode, panics. Both indicate a programming error at the call site
// and are not recoverable conditions.
package alloc
