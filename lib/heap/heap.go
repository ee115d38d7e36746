// Package heap defines the global-memory allocator interface the radix tree
// core is built against, per spec §1/§6: alloc/free/to_local plus a batched
// offline_free maintenance hook. oradix treats the heap as an external
// collaborator — this package is the seam, not the production allocator.
//
// ArenaHeap below is a DRAM-backed implementation good enough to open,
// mutate, and reattach to a tree inside a single process, which is all the
// core's own test suite needs. A real deployment would swap in an adapter
// over an actual NVMM-style heap without touching lib/radixtree at all.
package heap

import "github.com/oradix/oradix/lib/gptr"

// Heap is the allocator the radix tree core is parameterized over. alloc may
// produce false negatives under contention (spec §4.3) — callers are
// expected to retry — but must never corrupt or partially commit state on
// failure.
type Heap interface {
	// Alloc reserves size bytes and returns a Gptr naming the block, or
	// gptr.Null if the allocator could not satisfy the request right now.
	Alloc(size int) gptr.Gptr

	// Free releases a previously allocated block for reuse. Per spec §5,
	// nodes are only ever freed on the rollback path of a failed insert;
	// the tree never frees a published key node.
	Free(p gptr.Gptr)

	// ToLocal returns a mutable view of the bytes backing p. The slice is
	// exactly the size passed to the Alloc call that produced p. The
	// mapping is stable for the lifetime of the heap attachment; callers
	// must not cache it across reattachment (spec §9).
	ToLocal(p gptr.Gptr) []byte

	// OfflineFree performs batched reclamation of blocks queued by Free.
	// It is invoked by a maintenance hook, never inline with a mutation.
	OfflineFree()
}
