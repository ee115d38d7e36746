package radixtree

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/oradix/oradix/lib/gptr"
	"github.com/oradix/oradix/lib/heap"
)

func newTestTree(t *testing.T) *Tree {
	t.Helper()
	tr, err := Open(heap.NewArenaHeap(0), gptr.Null, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return tr
}

func mustPut(t *testing.T, tr *Tree, key string, value gptr.Gptr) {
	t.Helper()
	if _, err := tr.Put([]byte(key), value, Update); err != nil {
		t.Fatalf("Put(%q): %v", key, err)
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	tr := newTestTree(t)
	mustPut(t, tr, "abc", 1)

	got, err := tr.Get([]byte("abc"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Ptr != 1 {
		t.Fatalf("Get(abc).Ptr = %v, want 1", got.Ptr)
	}

	if _, err := tr.Get([]byte("missing")); err != nil {
		t.Fatalf("Get(missing): %v", err)
	}
	miss, _ := tr.Get([]byte("missing"))
	if miss.IsValid() {
		t.Fatalf("Get(missing) should be invalid, got %v", miss)
	}
}

// TestSplitAndOrderedScan is scenario 1 from spec §8: insert "abc"->1,
// "abd"->2, "ab"->3, then scan everything and expect lexicographic order.
func TestSplitAndOrderedScan(t *testing.T) {
	tr := newTestTree(t)
	mustPut(t, tr, "abc", 1)
	mustPut(t, tr, "abd", 2)
	mustPut(t, tr, "ab", 3)

	it, err := tr.Scan([]byte{0}, false, []byte{0}, false)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	type kv struct {
		key string
		val gptr.Gptr
	}
	var got []kv
	for {
		k, v, ok := it.Next()
		if !ok {
			break
		}
		got = append(got, kv{string(k), v.Ptr})
	}

	want := []kv{{"ab", 3}, {"abc", 1}, {"abd", 2}}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

// TestDeleteTombstoneReinsert is scenario 2 from spec §8.
func TestDeleteTombstoneReinsert(t *testing.T) {
	tr := newTestTree(t)
	mustPut(t, tr, "abc", 1)

	if _, err := tr.Destroy([]byte("abc")); err != nil {
		t.Fatalf("Destroy: %v", err)
	}

	tomb, err := tr.Get([]byte("abc"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if tomb.IsValid() {
		t.Fatalf("expected tombstone, got valid value %v", tomb)
	}
	if tomb.Version != 2 {
		t.Fatalf("expected version 2 after delete, got %d", tomb.Version)
	}

	keyGptr, tombC, err := tr.GetC([]byte("abc"))
	if err != nil {
		t.Fatalf("GetC: %v", err)
	}
	if !keyGptr.IsValid() {
		t.Fatalf("expected key node gptr to remain valid after delete")
	}
	if !tombC.IsTombstone() {
		t.Fatalf("expected GetC tombstone, got %v", tombC)
	}

	if _, err := tr.Put([]byte("abc"), 9, Update); err != nil {
		t.Fatalf("Put: %v", err)
	}

	keyGptr2, revived, err := tr.GetC([]byte("abc"))
	if err != nil {
		t.Fatalf("GetC: %v", err)
	}
	if keyGptr2 != keyGptr {
		t.Fatalf("key node gptr changed across delete/reinsert: %v != %v", keyGptr2, keyGptr)
	}
	if revived.Ptr != 9 || revived.Version != 3 {
		t.Fatalf("expected (ptr=9, v3) after reinsert, got %v", revived)
	}
}

// TestScanExclusiveBounds is scenario 3 from spec §8.
func TestScanExclusiveBounds(t *testing.T) {
	tr := newTestTree(t)
	mustPut(t, tr, "a", 1)
	mustPut(t, tr, "ab", 2)
	mustPut(t, tr, "abc", 3)

	if _, err := tr.Destroy([]byte("ab")); err != nil {
		t.Fatalf("Destroy: %v", err)
	}

	it, err := tr.Scan([]byte("a"), false, []byte("abc"), true)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	k, v, ok := it.Next()
	if !ok {
		t.Fatalf("expected one result")
	}
	if string(k) != "abc" || v.Ptr != 3 {
		t.Fatalf("got (%q, %v), want (abc, 3)", k, v)
	}
	if _, _, ok := it.Next(); ok {
		t.Fatalf("expected exactly one result")
	}
}

// TestOpenBoundarySentinel is scenario 4 from spec §8: with only key "\0"
// present, [ "\0","\0" ] inclusive-inclusive surfaces it as a literal key,
// and ("\0","\0") open-open (meaning "all keys") also surfaces it.
func TestOpenBoundarySentinel(t *testing.T) {
	tr := newTestTree(t)
	mustPut(t, tr, "\x00", 7)

	it, err := tr.Scan([]byte{0}, true, []byte{0}, true)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	k, v, ok := it.Next()
	if !ok || string(k) != "\x00" || v.Ptr != 7 {
		t.Fatalf("literal \\0 scan: got (%q, %v, %v)", k, v, ok)
	}
	if _, _, ok := it.Next(); ok {
		t.Fatalf("expected exactly one result from literal scan")
	}

	it2, err := tr.Scan([]byte{0}, false, []byte{0}, false)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	k2, v2, ok2 := it2.Next()
	if !ok2 || string(k2) != "\x00" || v2.Ptr != 7 {
		t.Fatalf("open-open scan: got (%q, %v, %v)", k2, v2, ok2)
	}
}

// TestSplitCreatesSharedPrefix is scenario 5 from spec §8.
func TestSplitCreatesSharedPrefix(t *testing.T) {
	tr := newTestTree(t)
	mustPut(t, tr, "apple", 1)
	mustPut(t, tr, "apricot", 2)

	a, err := tr.Get([]byte("apple"))
	if err != nil || a.Ptr != 1 {
		t.Fatalf("Get(apple) = %v, %v", a, err)
	}
	b, err := tr.Get([]byte("apricot"))
	if err != nil || b.Ptr != 2 {
		t.Fatalf("Get(apricot) = %v, %v", b, err)
	}

	var keys []string
	err = tr.List(func(key []byte, _ gptr.Gptr) bool {
		keys = append(keys, string(key))
		return true
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(keys) != 2 || keys[0] != "apple" || keys[1] != "apricot" {
		t.Fatalf("List order = %v, want [apple apricot]", keys)
	}
}

// TestCacheRevalidation is scenario 6 from spec §8.
func TestCacheRevalidation(t *testing.T) {
	tr := newTestTree(t)

	kp, v1, _, err := tr.PutC([]byte("x"), 1, Update)
	if err != nil {
		t.Fatalf("PutC: %v", err)
	}
	if v1.Ptr != 1 || v1.Version != 1 {
		t.Fatalf("first PutC = %v", v1)
	}

	kp2, v2, _, err := tr.PutC([]byte("x"), 2, Update)
	if err != nil {
		t.Fatalf("PutC: %v", err)
	}
	if kp2 != kp {
		t.Fatalf("key gptr changed: %v != %v", kp2, kp)
	}
	if v2.Ptr != 2 || v2.Version != 2 {
		t.Fatalf("second PutC = %v, want (2, v2)", v2)
	}

	current := tr.GetCByGptr(kp)
	if current.Equal(v1) {
		t.Fatalf("cached value should be stale")
	}
	if !current.Equal(v2) {
		t.Fatalf("GetCByGptr = %v, want %v", current, v2)
	}
}

// TestGetCStructuralNode exercises the boundary noted on GetC/DestroyC: a
// key whose full path lands exactly on a branch node created by a split, but
// that was never itself the target of a Put, reports a real key_gptr with a
// NullTag value rather than (gptr.Null, gptr.NullTag).
func TestGetCStructuralNode(t *testing.T) {
	tr := newTestTree(t)
	mustPut(t, tr, "apple", 1)
	mustPut(t, tr, "apricot", 2)

	kp, v, err := tr.GetC([]byte("ap"))
	if err != nil {
		t.Fatalf("GetC(ap): %v", err)
	}
	if !kp.IsValid() {
		t.Fatalf("GetC(ap) keyGptr = null, want the structural branch node's real Gptr")
	}
	if v.IsValid() || v.IsTombstone() {
		t.Fatalf("GetC(ap) value = %v, want NullTag (never published)", v)
	}

	dkp, old, err := tr.DestroyC([]byte("ap"))
	if err != nil {
		t.Fatalf("DestroyC(ap): %v", err)
	}
	if dkp != kp {
		t.Fatalf("DestroyC(ap) keyGptr = %v, want %v", dkp, kp)
	}
	if old.IsValid() || old.IsTombstone() {
		t.Fatalf("DestroyC(ap) old = %v, want NullTag (nothing to tombstone)", old)
	}

	a, err := tr.Get([]byte("apple"))
	if err != nil || a.Ptr != 1 {
		t.Fatalf("Get(apple) after DestroyC(ap) = %v, %v, want unaffected ptr 1", a, err)
	}
}

func TestFindOrCreateLeavesExistingValue(t *testing.T) {
	tr := newTestTree(t)
	mustPut(t, tr, "k", 1)

	_, newVal, old, err := tr.putInternal([]byte("k"), 2, FindOrCreate)
	if err != nil {
		t.Fatalf("putInternal: %v", err)
	}
	if newVal.Ptr != 1 {
		t.Fatalf("FindOrCreate overwrote existing value: %v", newVal)
	}
	if old.Ptr != 1 {
		t.Fatalf("expected old value 1, got %v", old)
	}

	_, newVal2, _, err := tr.putInternal([]byte("new-key"), 5, FindOrCreate)
	if err != nil {
		t.Fatalf("putInternal: %v", err)
	}
	if newVal2.Ptr != 5 || newVal2.Version != 1 {
		t.Fatalf("FindOrCreate on absent key = %v, want (5, v1)", newVal2)
	}
}

func TestDestroyAbsentAndDoubleDestroy(t *testing.T) {
	tr := newTestTree(t)

	old, err := tr.Destroy([]byte("nope"))
	if err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if old.IsValid() || old.Version != 0 {
		t.Fatalf("Destroy(absent) = %v, want NullTag", old)
	}

	mustPut(t, tr, "k", 1)
	first, err := tr.Destroy([]byte("k"))
	if err != nil || first.Ptr != 1 || first.Version != 1 {
		t.Fatalf("first Destroy = %v, %v", first, err)
	}
	second, err := tr.Destroy([]byte("k"))
	if err != nil {
		t.Fatalf("second Destroy: %v", err)
	}
	after, _ := tr.Get([]byte("k"))
	if !second.IsTombstone() || second.Version != first.Version+1 || after.Version != second.Version {
		t.Fatalf("double destroy bumped version: first=%v second=%v after=%v", first, second, after)
	}
}

func TestKeyTooLong(t *testing.T) {
	tr := newTestTree(t)
	longKey := bytes.Repeat([]byte("x"), MaxKeyLen+1)

	if _, err := tr.Put(longKey, 1, Update); err != ErrKeyTooLong {
		t.Fatalf("Put(long key) err = %v, want ErrKeyTooLong", err)
	}
	if _, err := tr.Get(longKey); err != ErrKeyTooLong {
		t.Fatalf("Get(long key) err = %v, want ErrKeyTooLong", err)
	}
	if _, err := tr.Destroy(longKey); err != ErrKeyTooLong {
		t.Fatalf("Destroy(long key) err = %v, want ErrKeyTooLong", err)
	}
}

func TestAttachToExistingRoot(t *testing.T) {
	h := heap.NewArenaHeap(0)
	tr, err := Open(h, gptr.Null, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	mustPut(t, tr, "abc", 42)
	root := tr.Root()

	tr2, err := Open(h, root, nil)
	if err != nil {
		t.Fatalf("re-Open: %v", err)
	}
	v, err := tr2.Get([]byte("abc"))
	if err != nil || v.Ptr != 42 {
		t.Fatalf("Get after reattach = %v, %v", v, err)
	}
}

func TestOutOfSpaceRollbackLeavesTreeUnchanged(t *testing.T) {
	arena := heap.NewArenaHeap(0)
	tr, err := Open(arena, gptr.Null, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	mustPut(t, tr, "apple", 1)

	var before []string
	_ = tr.List(func(key []byte, _ gptr.Gptr) bool {
		before = append(before, string(key))
		return true
	})

	flaky := heap.NewFlakyHeap(arena, 1) // fail every Alloc from now on
	tr.h = flaky

	// "apricot" shares a prefix with "apple" and requires a split, i.e. at
	// least one allocation; with every Alloc failing it must roll back
	// entirely rather than leave a partially linked node reachable.
	if _, err := tr.Put([]byte("apricot"), 2, Update); err != ErrOutOfSpace {
		t.Fatalf("Put under induced failure = %v, want ErrOutOfSpace", err)
	}

	tr.h = arena
	var after []string
	_ = tr.List(func(key []byte, _ gptr.Gptr) bool {
		after = append(after, string(key))
		return true
	})

	if len(before) != len(after) {
		t.Fatalf("tree mutated despite alloc failure: before=%v after=%v", before, after)
	}
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("tree mutated despite alloc failure: before=%v after=%v", before, after)
		}
	}
}

func TestStructure(t *testing.T) {
	tr := newTestTree(t)
	mustPut(t, tr, "apple", 1)
	mustPut(t, tr, "apricot", 2)
	mustPut(t, tr, "banana", 3)

	s := tr.Structure()
	if s.MaxDepth == 0 {
		t.Fatalf("expected depth > 0 after inserting divergent keys")
	}
	var totalValues int
	for _, lvl := range s.Levels {
		totalValues += lvl.ValueCount
	}
	if totalValues != 3 {
		t.Fatalf("Structure value count = %d, want 3", totalValues)
	}
}

// TestOrderingAndUniquenessProperty is a lightweight property check (spec
// §8): for a pseudo-random sequence of puts, an in-order walk must be
// strictly increasing and every key must appear exactly once.
func TestOrderingAndUniquenessProperty(t *testing.T) {
	tr := newTestTree(t)
	seen := map[string]gptr.Gptr{}

	for i := 0; i < 500; i++ {
		key := fmt.Sprintf("k-%03d-%d", i%37, i)
		mustPut(t, tr, key, gptr.Gptr(i+1))
		seen[key] = gptr.Gptr(i + 1)
	}

	var prev []byte
	count := 0
	err := tr.List(func(key []byte, value gptr.Gptr) bool {
		if prev != nil && bytes.Compare(prev, key) >= 0 {
			t.Fatalf("ordering violated: %q then %q", prev, key)
		}
		prev = append([]byte(nil), key...)
		want, ok := seen[string(key)]
		if !ok {
			t.Fatalf("unexpected key %q in walk", key)
		}
		if want != value {
			t.Fatalf("value mismatch for %q: got %v want %v", key, value, want)
		}
		count++
		return true
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if count != len(seen) {
		t.Fatalf("List surfaced %d keys, want %d", count, len(seen))
	}
}

func TestVersionMonotonic(t *testing.T) {
	tr := newTestTree(t)
	var lastVersion uint64

	for i := 0; i < 10; i++ {
		_, newVal, _, err := tr.PutC([]byte("k"), gptr.Gptr(i+1), Update)
		if err != nil {
			t.Fatalf("PutC: %v", err)
		}
		if newVal.Version <= lastVersion {
			t.Fatalf("version did not strictly increase: %d -> %d", lastVersion, newVal.Version)
		}
		lastVersion = newVal.Version
	}

	kp, _, err := tr.DestroyC([]byte("k"))
	if err != nil {
		t.Fatalf("DestroyC: %v", err)
	}
	tomb := tr.GetCByGptr(kp)
	if tomb.Version <= lastVersion {
		t.Fatalf("destroy did not bump version: %d -> %d", lastVersion, tomb.Version)
	}
}
