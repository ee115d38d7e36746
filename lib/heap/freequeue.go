package heap

import (
	"container/heap"

	"github.com/oradix/oradix/lib/gptr"
)

// freeQueue is a priority queue of blocks pending reclamation, ordered by
// the epoch at which Free was called. It backs ArenaHeap.OfflineFree: Free
// only enqueues a block, the maintenance hook is what actually pops the
// oldest entries and returns them to a reusable free list. This is the same
// heap+map combination as a GC queue — oldest item first, with O(1)
// key-based lookup so a doubly-freed or resurrected block can be detected.
type freeQueue struct {
	items []*freeItem
	byPtr map[gptr.Gptr]*freeItem
}

type freeItem struct {
	ptr   gptr.Gptr
	size  int
	epoch uint64
	index int
}

func newFreeQueue() *freeQueue {
	return &freeQueue{
		byPtr: make(map[gptr.Gptr]*freeItem),
	}
}

func (q *freeQueue) Len() int { return len(q.items) }

func (q *freeQueue) Less(i, j int) bool {
	return q.items[i].epoch < q.items[j].epoch
}

func (q *freeQueue) Swap(i, j int) {
	q.items[i], q.items[j] = q.items[j], q.items[i]
	q.items[i].index = i
	q.items[j].index = j
}

func (q *freeQueue) Push(x interface{}) {
	it := x.(*freeItem)
	it.index = len(q.items)
	q.items = append(q.items, it)
	q.byPtr[it.ptr] = it
}

func (q *freeQueue) Pop() interface{} {
	old := q.items
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	it.index = -1
	q.items = old[:n-1]
	delete(q.byPtr, it.ptr)
	return it
}

// Enqueue records p (of the given size) as pending reclamation at epoch.
func (q *freeQueue) Enqueue(p gptr.Gptr, size int, epoch uint64) {
	if _, exists := q.byPtr[p]; exists {
		return
	}
	heap.Push(q, &freeItem{ptr: p, size: size, epoch: epoch})
}

// Contains reports whether p is currently queued for reclamation.
func (q *freeQueue) Contains(p gptr.Gptr) bool {
	_, ok := q.byPtr[p]
	return ok
}

// DrainAll pops every queued block, oldest epoch first, invoking f for each.
func (q *freeQueue) DrainAll(f func(p gptr.Gptr, size int)) {
	for q.Len() > 0 {
		it := heap.Pop(q).(*freeItem)
		f(it.ptr, it.size)
	}
}
