package heap_test

import (
	"testing"

	"github.com/oradix/oradix/lib/heap"
	"github.com/oradix/oradix/lib/rtesting"
)

func TestArenaHeap(t *testing.T) {
	rtesting.RunTreeTests(t, "ArenaHeap", func() heap.Heap {
		return heap.NewArenaHeap(0)
	})
}

// TestFlakyHeap runs the same property suite over a heap that periodically
// reports allocation failure, so the retry/rollback paths in lib/radixtree
// get exercised under the exact condition spec §4.3 describes, not just the
// always-succeeds case.
func TestFlakyHeap(t *testing.T) {
	rtesting.RunTreeTests(t, "FlakyHeap", func() heap.Heap {
		return heap.NewFlakyHeap(heap.NewArenaHeap(0), 7)
	})
}

func BenchmarkArenaHeap(b *testing.B) {
	rtesting.RunTreeBenchmarks(b, "ArenaHeap", func() heap.Heap {
		return heap.NewArenaHeap(0)
	})
}
