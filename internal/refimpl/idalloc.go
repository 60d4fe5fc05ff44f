package refimpl

import (
	"context"
	"sync"

	"github.com/luxgraph/rtc/internal/idalloc"
)

// IdAllocator is an in-memory IdAllocator reference implementation (spec
// §2, "IdAllocator (external)"): a dense, monotonically increasing counter
// per idType, never recycling freed ids.
type IdAllocator struct {
	mu   sync.Mutex
	next map[string]uint64
}

// NewIdAllocator returns an empty IdAllocator.
func NewIdAllocator() *IdAllocator {
	return &IdAllocator{next: make(map[string]uint64)}
}

// Allocate implements idalloc.Allocator.
func (a *IdAllocator) Allocate(ctx context.Context, idType string, size int) (idalloc.Allocation, error) {
	if size <= 0 {
		return idalloc.Allocation{}, nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	start := a.next[idType]
	batch := make([]uint64, size)
	for i := range batch {
		batch[i] = start + uint64(i)
	}
	a.next[idType] = start + uint64(size)

	return idalloc.Allocation{
		Batch:         batch,
		HighWatermark: a.next[idType] - 1,
	}, nil
}

var _ idalloc.Allocator = (*IdAllocator)(nil)
