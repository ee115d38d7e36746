package heap

import (
	"sync"

	"github.com/oradix/oradix/lib/gptr"
)

// ArenaHeap is a DRAM-backed Heap. It never returns false negatives from
// contention on its own — that behavior belongs to FlakyHeap — but it does
// implement genuine size-class reuse so allocation/free/offline-free follow
// the same shape a real NVMM heap would: Free only marks a block pending,
// OfflineFree is what actually recycles it.
type ArenaHeap struct {
	mu        sync.Mutex
	blocks    map[gptr.Gptr][]byte
	freeLists map[int][]gptr.Gptr // by exact size, blocks available for reuse
	pending   *freeQueue
	nextPtr   uint64
	epoch     uint64
}

// NewArenaHeap creates an empty arena. The capacity argument is accepted but
// ignored: the arena is unbounded whatever value is passed.
func NewArenaHeap(_ int) *ArenaHeap {
	return &ArenaHeap{
		blocks:    make(map[gptr.Gptr][]byte),
		freeLists: make(map[int][]gptr.Gptr),
		pending:   newFreeQueue(),
		nextPtr:   1, // 0 is gptr.Null
	}
}

func (a *ArenaHeap) Alloc(size int) gptr.Gptr {
	a.mu.Lock()
	defer a.mu.Unlock()

	if free := a.freeLists[size]; len(free) > 0 {
		p := free[len(free)-1]
		a.freeLists[size] = free[:len(free)-1]
		for i := range a.blocks[p] {
			a.blocks[p][i] = 0
		}
		return p
	}

	p := gptr.Gptr(a.nextPtr)
	a.nextPtr++
	a.blocks[p] = make([]byte, size)
	return p
}

func (a *ArenaHeap) Free(p gptr.Gptr) {
	a.mu.Lock()
	defer a.mu.Unlock()

	block, ok := a.blocks[p]
	if !ok {
		return
	}
	a.epoch++
	a.pending.Enqueue(p, len(block), a.epoch)
}

func (a *ArenaHeap) ToLocal(p gptr.Gptr) []byte {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.blocks[p]
}

// OfflineFree drains every block queued by Free and moves it to the
// size-class free list so a later Alloc can reuse it. This is the batched
// reclamation hook from spec §6; real deployments would call it from a
// periodic maintenance goroutine rather than inline with any mutation.
func (a *ArenaHeap) OfflineFree() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.pending.DrainAll(func(p gptr.Gptr, size int) {
		a.freeLists[size] = append(a.freeLists[size], p)
	})
}

// LiveBlocks returns the number of distinct blocks the arena has created.
// Blocks are never dropped from that count: blocks queued by Free and blocks
// moved to a free list by OfflineFree are included. For diagnostics/tests.
func (a *ArenaHeap) LiveBlocks() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.blocks)
}
