package alloc

import (
	"fmt"
	"sync"

	"github.com/joshuapare/basekit/internal/logger"
	"github.com/joshuapare/basekit/internal/vmem"
)

// Pages gives every block its own anonymous OS mapping, rounded up to the
// page size. Memory is outside the Go heap and is returned to the OS on Free.
// Pages is safe for concurrent use.
type Pages struct {
	mu     sync.Mutex
	maps   map[uintptr][]byte // block address -> full mapping
	mapped int64
}

// NewPages creates an empty page allocator.
func NewPages() *Pages {
	return &Pages{maps: make(map[uintptr][]byte)}
}

// Allocate maps a fresh region of at least size bytes.
func (p *Pages) Allocate(size int64) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mapLocked(size)
}

func (p *Pages) mapLocked(size int64) ([]byte, error) {
	switch {
	case size < 0:
		return nil, ErrNegativeSize
	case size == 0:
		return nil, nil
	case !fitsInt(size):
		return nil, fmt.Errorf("%w: mapping of %d bytes", ErrOutOfMemory, size)
	}
	region, err := vmem.Map(int(size))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOutOfMemory, err)
	}
	p.maps[addr(region)] = region
	p.mapped += int64(len(region))
	logger.Debug("pages mapped", "bytes", len(region), "mapped", p.mapped)
	return region[:size], nil
}

// Resize stays in the same mapping while size fits the page-rounded region;
// otherwise it maps a new region, copies, and unmaps the old one.
func (p *Pages) Resize(old []byte, oldSize, size int64) ([]byte, error) {
	if size < 0 {
		return nil, ErrNegativeSize
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if old == nil {
		return p.mapLocked(size)
	}
	region, ok := p.maps[addr(old)]
	if !ok {
		return nil, ErrNotOwned
	}
	if size == 0 {
		return nil, p.unmapLocked(region)
	}
	if size <= int64(len(region)) {
		return region[:size], nil
	}

	block, err := p.mapLocked(size)
	if err != nil {
		return nil, err
	}
	copy(block, old[:copyLen(old, oldSize, size)])
	if err := p.unmapLocked(region); err != nil {
		// Keep old valid; drop the new mapping instead.
		if rerr := p.unmapLocked(p.maps[addr(block)]); rerr != nil {
			logger.Warn("pages resize rollback unmap failed", "bytes", len(block), "err", rerr)
		}
		return nil, err
	}
	return block, nil
}

// Free unmaps the block's region.
func (p *Pages) Free(block []byte) error {
	if block == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	region, ok := p.maps[addr(block)]
	if !ok {
		return ErrNotOwned
	}
	return p.unmapLocked(region)
}

// FreeAll unmaps every region.
func (p *Pages) FreeAll() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, region := range p.maps {
		if err := p.unmapLocked(region); err != nil {
			logger.Warn("pages unmap failed", "bytes", len(region), "err", err)
		}
	}
}

// Mapped reports the total bytes currently mapped.
func (p *Pages) Mapped() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mapped
}

func (p *Pages) unmapLocked(region []byte) error {
	if err := vmem.Unmap(region); err != nil {
		return err
	}
	delete(p.maps, addr(region))
	p.mapped -= int64(len(region))
	return nil
}
