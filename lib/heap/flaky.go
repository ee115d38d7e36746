package heap

import (
	"sync/atomic"

	"github.com/oradix/oradix/lib/gptr"
)

// FlakyHeap wraps another Heap and injects transient allocation failures,
// the "heap may report ENOMEM under contention even when space exists"
// behavior spec §4.3 requires the core's retry loop to tolerate. It is used
// by the alloc-failure-atomicity property tests in spec §8, not in
// production.
type FlakyHeap struct {
	inner Heap
	// FailEvery, when non-zero, makes every Nth Alloc call fail instead of
	// delegating to inner.
	FailEvery uint64
	calls     atomic.Uint64
}

// NewFlakyHeap wraps inner so that every failEvery'th Alloc call reports
// failure. failEvery == 0 disables injection (every call succeeds).
func NewFlakyHeap(inner Heap, failEvery uint64) *FlakyHeap {
	return &FlakyHeap{inner: inner, FailEvery: failEvery}
}

func (f *FlakyHeap) Alloc(size int) gptr.Gptr {
	n := f.calls.Add(1)
	if f.FailEvery != 0 && n%f.FailEvery == 0 {
		return gptr.Null
	}
	return f.inner.Alloc(size)
}

func (f *FlakyHeap) Free(p gptr.Gptr)           { f.inner.Free(p) }
func (f *FlakyHeap) ToLocal(p gptr.Gptr) []byte { return f.inner.ToLocal(p) }
func (f *FlakyHeap) OfflineFree()               { f.inner.OfflineFree() }

// CallCount returns the number of Alloc calls observed so far, for tests
// that want to assert retry behavior actually engaged the injected failure.
func (f *FlakyHeap) CallCount() uint64 {
	return f.calls.Load()
}
