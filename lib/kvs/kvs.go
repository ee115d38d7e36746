package kvs

import (
	"encoding/binary"

	"github.com/oradix/oradix/lib/gptr"
	"github.com/oradix/oradix/lib/heap"
	"github.com/oradix/oradix/lib/metrics"
	"github.com/oradix/oradix/lib/radixtree"
)

// ValueLen is the fixed width of every value the facade accepts or returns,
// per spec §6: "Value pointers are exactly 8 bytes."
const ValueLen = 8

// KVS is the facade over a radixtree.Tree: fixed 8-byte values in and out,
// RetCode-flavored results, and an owned scan-handle table. The zero value
// is not usable; construct one with Open.
type KVS struct {
	tree    *radixtree.Tree
	metrics metrics.Sink
	scans   *scanTable
}

// Open attaches a KVS facade to a tree rooted at root (gptr.Null creates a
// fresh, empty tree). sink may be nil, in which case metrics are discarded.
func Open(h heap.Heap, root gptr.Gptr, sink metrics.Sink) (*KVS, error) {
	tree, err := radixtree.Open(h, root, sink)
	if err != nil {
		return nil, err
	}
	return &KVS{tree: tree, metrics: sink, scans: newScanTable()}, nil
}

// Root returns the underlying tree's root Gptr, the identity needed to
// reattach a KVS to the same data later.
func (k *KVS) Root() gptr.Gptr {
	return k.tree.Root()
}

// Tree exposes the underlying radixtree.Tree for callers (e.g. the CLI's
// "structure" command) that need the richer, non-facade API.
func (k *KVS) Tree() *radixtree.Tree {
	return k.tree
}

func encodeValue(v gptr.Gptr) [ValueLen]byte {
	var buf [ValueLen]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(v))
	return buf
}

func decodeValue(buf []byte) (gptr.Gptr, *Error) {
	if len(buf) != ValueLen {
		return gptr.Null, errValueSize
	}
	return gptr.Gptr(binary.LittleEndian.Uint64(buf)), nil
}

// Put inserts or overwrites key's value, always publishing the given value
// (spec §4.3's Update mode). It returns the tagged value that was present
// beforehand: a tombstone if the key existed but held nothing, or
// gptr.NullTag if the key node did not exist.
func (k *KVS) Put(key []byte, value []byte) (old gptr.TagGptr, fErr *Error) {
	v, fErr := decodeValue(value)
	if fErr != nil {
		return gptr.NullTag, fErr
	}
	old, err := k.tree.Put(key, v, radixtree.Update)
	if err != nil {
		return gptr.NullTag, wrapTreeErr(err)
	}
	return old, nil
}

// PutFindOrCreate inserts value only if key is currently absent (no node,
// or a tombstoned node); an existing live value is left untouched. This
// exercises the core's FindOrCreate mode, which the original facade this
// spec was distilled from stubbed out entirely (see DESIGN.md).
func (k *KVS) PutFindOrCreate(key []byte, value []byte) (old gptr.TagGptr, fErr *Error) {
	v, fErr := decodeValue(value)
	if fErr != nil {
		return gptr.NullTag, fErr
	}
	old, err := k.tree.Put(key, v, radixtree.FindOrCreate)
	if err != nil {
		return gptr.NullTag, wrapTreeErr(err)
	}
	return old, nil
}

// Get returns key's current value. The bool reports whether a live value
// was found; no *Error is returned for a merely-absent key -- callers
// distinguish absence with the bool, the way
// spec §6 treats "not found" as a result rather than an error.
func (k *KVS) Get(key []byte) (value [ValueLen]byte, found bool, fErr *Error) {
	tv, err := k.tree.Get(key)
	if err != nil {
		return value, false, wrapTreeErr(err)
	}
	if !tv.IsValid() {
		return value, false, nil
	}
	return encodeValue(tv.Ptr), true, nil
}

// Destroy tombstones key's value if it holds one. found reports whether a
// live value existed to tombstone (a key that was already tombstoned, or
// never existed, reports found=false without changing anything).
func (k *KVS) Destroy(key []byte) (old [ValueLen]byte, found bool, fErr *Error) {
	tv, err := k.tree.Destroy(key)
	if err != nil {
		return old, false, wrapTreeErr(err)
	}
	if !tv.IsValid() {
		return old, false, nil
	}
	return encodeValue(tv.Ptr), true, nil
}

// PutC, GetC and DestroyC mirror their Tree counterparts, returning the
// key-node Gptr as an opaque uint64 handle a caller can cache and revisit
// cheaply via GetCByGptr, per spec §4.6.
func (k *KVS) PutC(key []byte, value []byte) (keyHandle uint64, old gptr.TagGptr, fErr *Error) {
	v, fErr := decodeValue(value)
	if fErr != nil {
		return 0, gptr.NullTag, fErr
	}
	kp, _, old, err := k.tree.PutC(key, v, radixtree.Update)
	if err != nil {
		return 0, gptr.NullTag, wrapTreeErr(err)
	}
	return uint64(kp), old, nil
}

func (k *KVS) GetC(key []byte) (keyHandle uint64, value gptr.TagGptr, fErr *Error) {
	kp, v, err := k.tree.GetC(key)
	if err != nil {
		return 0, gptr.NullTag, wrapTreeErr(err)
	}
	return uint64(kp), v, nil
}

func (k *KVS) DestroyC(key []byte) (keyHandle uint64, old gptr.TagGptr, fErr *Error) {
	kp, old, err := k.tree.DestroyC(key)
	if err != nil {
		return 0, gptr.NullTag, wrapTreeErr(err)
	}
	return uint64(kp), old, nil
}

// GetCByGptr is the cheap cache-revalidation read from spec §4.6: compare
// the result against a previously cached value with gptr.TagGptr.Equal.
func (k *KVS) GetCByGptr(keyHandle uint64) gptr.TagGptr {
	return k.tree.GetCByGptr(gptr.Gptr(keyHandle))
}

// List invokes f for every live key in lexicographic order.
func (k *KVS) List(f func(key []byte, value [ValueLen]byte) bool) *Error {
	err := k.tree.List(func(key []byte, v gptr.Gptr) bool {
		return f(key, encodeValue(v))
	})
	if err != nil {
		return wrapTreeErr(err)
	}
	return nil
}

// Structure returns the whole-tree structural summary from spec §4.8.
func (k *KVS) Structure() radixtree.Structure {
	return k.tree.Structure()
}

// Maintenance runs the tree's batched reclamation hook.
func (k *KVS) Maintenance() {
	k.tree.Maintenance()
}

// ReportMetrics returns a snapshot of every counter the facade and tree
// have observed, surfaced in the original implementation's ReportMetrics
// (see DESIGN.md / SPEC_FULL.md §13).
func (k *KVS) ReportMetrics() metrics.Snapshot {
	if k.metrics == nil {
		return metrics.Snapshot{}
	}
	return k.metrics.Snapshot()
}

// Close releases every outstanding scan handle. The underlying tree itself
// has no close-time resource beyond the heap, which is owned by the caller.
func (k *KVS) Close() {
	k.scans.closeAll()
}

func wrapTreeErr(err error) *Error {
	if err == radixtree.ErrKeyTooLong {
		return errKeyTooLong
	}
	return NewError(RetCArgument, err.Error())
}
