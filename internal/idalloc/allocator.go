// Package idalloc declares the external IdAllocator collaborator and the
// IdAllocation value it hands back (spec §2, §4.6).
package idalloc

import "context"

// Allocation is a batch of entity identifiers handed to a slave in response
// to allocateIds (spec §3, "IdAllocation").
type Allocation struct {
	// Batch holds the allocated ids. Dense allocators return a contiguous
	// range flattened into this slice; sparse allocators (recycling
	// defragmented ids) return whatever ids they chose — RTC is agnostic to
	// which.
	Batch []uint64
	// HighWatermark is the highest id ever allocated for this id type,
	// across all batches handed out so far.
	HighWatermark uint64
	// DefragCount is the number of previously-freed ids folded into this or
	// prior batches, for operator visibility into fragmentation.
	DefragCount uint64
}

// Allocator is the external collaborator supplying batches of entity
// identifiers (spec §2, "IdAllocator (external)").
type Allocator interface {
	// Allocate returns a batch of up to size ids of the given idType (e.g.
	// "Node", "Relationship", "PropertyKeyToken").
	Allocate(ctx context.Context, idType string, size int) (Allocation, error)
}
