package rtesting

import (
	"fmt"
	"testing"

	"github.com/oradix/oradix/lib/gptr"
	"github.com/oradix/oradix/lib/heap"
	"github.com/oradix/oradix/lib/metrics"
	"github.com/oradix/oradix/lib/radixtree"
)

// HeapFactory creates a new, empty heap.Heap instance.
type HeapFactory func() heap.Heap

func newTree(tb testing.TB, factory HeapFactory) *radixtree.Tree {
	tr, err := radixtree.Open(factory(), gptr.Null, metrics.Nop)
	if err != nil {
		tb.Fatalf("Open: %v", err)
	}
	return tr
}

// RunTreeTests runs a comprehensive property-test suite against a tree
// backed by a heap.Heap produced by factory.
func RunTreeTests(t *testing.T, name string, factory HeapFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("PutGet", func(t *testing.T) { testPutGet(t, newTree(t, factory)) })
		t.Run("Update", func(t *testing.T) { testUpdate(t, newTree(t, factory)) })
		t.Run("FindOrCreate", func(t *testing.T) { testFindOrCreate(t, newTree(t, factory)) })
		t.Run("Destroy", func(t *testing.T) { testDestroy(t, newTree(t, factory)) })
		t.Run("TombstoneStability", func(t *testing.T) { testTombstoneStability(t, newTree(t, factory)) })
		t.Run("VersionMonotonicity", func(t *testing.T) { testVersionMonotonicity(t, newTree(t, factory)) })
		t.Run("Ordering", func(t *testing.T) { testOrdering(t, newTree(t, factory)) })
		t.Run("RangeScanContainment", func(t *testing.T) { testRangeScanContainment(t, newTree(t, factory)) })
		t.Run("KeyTooLong", func(t *testing.T) { testKeyTooLong(t, newTree(t, factory)) })
	})
}

func testPutGet(t *testing.T, tr *radixtree.Tree) {
	keys := []string{"alpha", "alphabet", "al", "beta", "", "\x00"}
	for i, k := range keys {
		if _, err := tr.Put([]byte(k), gptr.Gptr(i+1), radixtree.Update); err != nil {
			t.Fatalf("Put(%q): %v", k, err)
		}
	}
	for i, k := range keys {
		v, err := tr.Get([]byte(k))
		if err != nil {
			t.Fatalf("Get(%q): %v", k, err)
		}
		if v.Ptr != gptr.Gptr(i+1) {
			t.Fatalf("Get(%q) = %v, want ptr %d", k, v, i+1)
		}
	}
	if v, err := tr.Get([]byte("nope")); err != nil || v.IsValid() {
		t.Fatalf("Get(missing) = %v, %v, want invalid/nil", v, err)
	}
}

func testUpdate(t *testing.T, tr *radixtree.Tree) {
	key := []byte("k")
	old, err := tr.Put(key, 1, radixtree.Update)
	if err != nil || old.IsValid() {
		t.Fatalf("first Put: old=%v err=%v", old, err)
	}
	old, err = tr.Put(key, 2, radixtree.Update)
	if err != nil {
		t.Fatalf("second Put: %v", err)
	}
	if old.Ptr != 1 {
		t.Fatalf("second Put returned old=%v, want ptr 1", old)
	}
	v, _ := tr.Get(key)
	if v.Ptr != 2 {
		t.Fatalf("Get after update = %v, want ptr 2", v)
	}
}

func testFindOrCreate(t *testing.T, tr *radixtree.Tree) {
	key := []byte("k")
	if _, err := tr.Put(key, 1, radixtree.FindOrCreate); err != nil {
		t.Fatalf("first Put: %v", err)
	}
	old, err := tr.Put(key, 2, radixtree.FindOrCreate)
	if err != nil {
		t.Fatalf("second Put: %v", err)
	}
	if old.Ptr != 1 {
		t.Fatalf("FindOrCreate returned old=%v, want ptr 1 (untouched)", old)
	}
	v, _ := tr.Get(key)
	if v.Ptr != 1 {
		t.Fatalf("Get after FindOrCreate = %v, want ptr 1 unchanged", v)
	}
}

func testDestroy(t *testing.T, tr *radixtree.Tree) {
	key := []byte("k")
	if _, err := tr.Put(key, 1, radixtree.Update); err != nil {
		t.Fatalf("Put: %v", err)
	}
	old, err := tr.Destroy(key)
	if err != nil || old.Ptr != 1 {
		t.Fatalf("Destroy = %v, %v, want ptr 1, nil", old, err)
	}
	v, _ := tr.Get(key)
	if v.IsValid() {
		t.Fatalf("Get after Destroy = %v, want invalid", v)
	}
}

func testTombstoneStability(t *testing.T, tr *radixtree.Tree) {
	key := []byte("k")
	keyGptr1, _, _, err := tr.PutC(key, 1, radixtree.Update)
	if err != nil {
		t.Fatalf("PutC: %v", err)
	}
	keyGptr2, old, err := tr.DestroyC(key)
	if err != nil || keyGptr2 != keyGptr1 {
		t.Fatalf("DestroyC gptr=%v old=%v err=%v, want gptr=%v", keyGptr2, old, err, keyGptr1)
	}
	keyGptr3, _, _, err := tr.PutC(key, 2, radixtree.Update)
	if err != nil || keyGptr3 != keyGptr1 {
		t.Fatalf("reinsert PutC gptr=%v, want %v", keyGptr3, keyGptr1)
	}
}

func testVersionMonotonicity(t *testing.T, tr *radixtree.Tree) {
	key := []byte("k")
	var lastVersion uint64
	for i := 0; i < 20; i++ {
		_, newVal, _, err := tr.PutC(key, gptr.Gptr(i+1), radixtree.Update)
		if err != nil {
			t.Fatalf("PutC iteration %d: %v", i, err)
		}
		if newVal.Version <= lastVersion {
			t.Fatalf("version did not increase: %d -> %d", lastVersion, newVal.Version)
		}
		lastVersion = newVal.Version
	}
}

func testOrdering(t *testing.T, tr *radixtree.Tree) {
	keys := []string{"banana", "apple", "cherry", "app", "appl", "b"}
	for i, k := range keys {
		if _, err := tr.Put([]byte(k), gptr.Gptr(i+1), radixtree.Update); err != nil {
			t.Fatalf("Put(%q): %v", k, err)
		}
	}
	var seen []string
	if err := tr.List(func(key []byte, _ gptr.Gptr) bool {
		seen = append(seen, string(key))
		return true
	}); err != nil {
		t.Fatalf("List: %v", err)
	}
	for i := 1; i < len(seen); i++ {
		if seen[i-1] >= seen[i] {
			t.Fatalf("List not strictly increasing at %d: %q >= %q", i, seen[i-1], seen[i])
		}
	}
	if len(seen) != len(keys) {
		t.Fatalf("List surfaced %d keys, want %d", len(seen), len(keys))
	}
}

func testRangeScanContainment(t *testing.T, tr *radixtree.Tree) {
	all := map[string]gptr.Gptr{}
	for i := 0; i < 100; i++ {
		k := fmt.Sprintf("k-%03d", i)
		if _, err := tr.Put([]byte(k), gptr.Gptr(i+1), radixtree.Update); err != nil {
			t.Fatalf("Put(%q): %v", k, err)
		}
		all[k] = gptr.Gptr(i + 1)
	}
	lo, hi := "k-020", "k-080"
	it, err := tr.Scan([]byte(lo), true, []byte(hi), false)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	count := 0
	for {
		k, _, ok := it.Next()
		if !ok {
			break
		}
		ks := string(k)
		if ks < lo || ks >= hi {
			t.Fatalf("surfaced out-of-range key %q", ks)
		}
		count++
	}
	want := 0
	for k := range all {
		if k >= lo && k < hi {
			want++
		}
	}
	if count != want {
		t.Fatalf("scan surfaced %d keys, want %d", count, want)
	}
}

func testKeyTooLong(t *testing.T, tr *radixtree.Tree) {
	longKey := make([]byte, 1000)
	if _, err := tr.Put(longKey, 1, radixtree.Update); err != radixtree.ErrKeyTooLong {
		t.Fatalf("Put with overlong key = %v, want ErrKeyTooLong", err)
	}
}
