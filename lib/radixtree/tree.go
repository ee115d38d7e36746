// Package radixtree is the core described in spec.md §1: an ordered
// key->Gptr radix tree over a byte-addressable global-memory heap, with
// path compression, a versioned-pointer cache-consistency protocol, and
// ordered range scans. It is synchronous and single-threaded per instance
// (spec §5) — callers serialize writers themselves.
package radixtree

import (
	"github.com/oradix/oradix/lib/gptr"
	"github.com/oradix/oradix/lib/heap"
	"github.com/oradix/oradix/lib/metrics"
)

// UpdateMode selects put's behavior when the target key node already
// carries a valid value, per spec §4.3 / §9. Both are fully implemented;
// lib/kvs uses Update in Put and FindOrCreate in PutFindOrCreate.
type UpdateMode int

const (
	// FindOrCreate inserts value only if the key is currently absent (no
	// node, or a tombstoned node); an existing valid value is left
	// untouched and returned as-is.
	FindOrCreate UpdateMode = iota
	// Update always overwrites, creating the key node if necessary.
	Update
)

// Tree is a radix tree attached to a heap. The zero value is not usable;
// construct one with Open.
type Tree struct {
	h       heap.Heap
	root    gptr.Gptr
	metrics metrics.Sink
}

// Open attaches to an existing tree (root != gptr.Null) or creates a new,
// empty one (root == gptr.Null), per spec §4.1. sink may be metrics.Nop.
func Open(h heap.Heap, root gptr.Gptr, sink metrics.Sink) (*Tree, error) {
	if sink == nil {
		sink = metrics.Nop
	}
	t := &Tree{h: h, root: root, metrics: sink}
	if root == gptr.Null {
		rootGptr, err := t.allocNode()
		if err != nil {
			return nil, err
		}
		t.store(rootGptr, &node{})
		t.root = rootGptr
	}
	return t, nil
}

// Root returns the tree's identity: the root node's Gptr. It never changes
// for the lifetime of the tree because the root's own prefix is always
// empty (see DESIGN.md), so the root never participates in a split.
func (t *Tree) Root() gptr.Gptr {
	return t.root
}

// Maintenance performs batched reclamation via the underlying heap's
// OfflineFree, per spec §6. The core itself frees nodes only on the
// rollback path of a failed multi-allocation insert, so in steady state
// this drains whatever that rollback path queued.
func (t *Tree) Maintenance() {
	t.h.OfflineFree()
}

// --------------------------------------------------------------------------
// heap helpers
// --------------------------------------------------------------------------

func (t *Tree) load(p gptr.Gptr) *node {
	return decodeNode(t.h.ToLocal(p))
}

func (t *Tree) store(p gptr.Gptr, n *node) {
	n.encodeInto(t.h.ToLocal(p))
}

// allocNode implements the bounded alloc-retry policy from spec §4.3: the
// heap may report a false-negative failure under contention, so a single
// failed Alloc is not conclusive. Only after allocRetryCount consecutive
// failures is ErrOutOfSpace returned.
func (t *Tree) allocNode() (gptr.Gptr, error) {
	for attempt := 0; attempt < allocRetryCount; attempt++ {
		p := t.h.Alloc(nodeSize)
		if p.IsValid() {
			t.metrics.IncAlloc(nodeSize)
			return p, nil
		}
		t.metrics.IncAllocRetry()
	}
	t.metrics.IncAllocFail()
	return gptr.Null, ErrOutOfSpace
}

func (t *Tree) free(p gptr.Gptr) {
	t.h.Free(p)
	t.metrics.IncFree()
}

// --------------------------------------------------------------------------
// descent primitive (spec §4.2)
// --------------------------------------------------------------------------

type locateKind int

const (
	locateFound locateKind = iota
	locateMissingChild
	locateMismatch
)

// locateResult describes where descent for a key landed: an exact key node,
// a node missing the next child byte, or a node whose prefix disagrees with
// the key partway through.
type locateResult struct {
	kind locateKind

	nodeGptr gptr.Gptr
	node     *node

	parentGptr   gptr.Gptr // gptr.Null if node is the root
	parentBranch byte      // valid iff parentGptr != gptr.Null

	keyOffset int // i: bytes of key matched before reaching this node

	// locateMismatch only
	matchLen int // j: bytes of node.prefix that matched key[keyOffset:]

	// locateMissingChild only
	missingByte byte // key[keyOffset], the absent branch byte
}

func (t *Tree) locate(key []byte) locateResult {
	cur := t.root
	var parent gptr.Gptr
	var parentBranch byte
	i := 0
	L := len(key)

	for {
		n := t.load(cur)
		prefixLen := int(n.prefixLen)
		avail := L - i
		matchLimit := prefixLen
		if avail < matchLimit {
			matchLimit = avail
		}

		j := 0
		for j < matchLimit && n.prefix[j] == key[i+j] {
			j++
		}

		if j < prefixLen {
			return locateResult{
				kind: locateMismatch, nodeGptr: cur, node: n,
				parentGptr: parent, parentBranch: parentBranch,
				keyOffset: i, matchLen: j,
			}
		}

		i += prefixLen
		if i == L {
			return locateResult{
				kind: locateFound, nodeGptr: cur, node: n,
				parentGptr: parent, parentBranch: parentBranch,
				keyOffset: i,
			}
		}

		b := key[i]
		child := n.child(b)
		if !child.IsValid() {
			return locateResult{
				kind: locateMissingChild, nodeGptr: cur, node: n,
				keyOffset: i, missingByte: b,
			}
		}

		parent, parentBranch = cur, b
		cur = child
		i++
	}
}

// --------------------------------------------------------------------------
// put / get / destroy (spec §4.3-4.5)
// --------------------------------------------------------------------------

// Put inserts or updates key with value under mode. It returns the value
// that was present before the call: gptr.NullTag if the key node did not
// exist, a tombstone if it existed but held no value, or the prior value.
func (t *Tree) Put(key []byte, value gptr.Gptr, mode UpdateMode) (gptr.TagGptr, error) {
	_, _, old, err := t.putInternal(key, value, mode)
	return old, err
}

// Get returns the current value at key, or gptr.NullTag if no key node
// exists. A tombstoned key node yields a TagGptr with IsTombstone() true.
func (t *Tree) Get(key []byte) (gptr.TagGptr, error) {
	_, value, err := t.GetC(key)
	return value, err
}

// Destroy tombstones key's value slot if it holds one. It returns the value
// captured before tombstoning: gptr.NullTag if the key never existed, the
// existing tombstone unchanged if it was already tombstoned (no version
// bump, per spec §4.5), or the live value otherwise.
func (t *Tree) Destroy(key []byte) (gptr.TagGptr, error) {
	_, old, err := t.DestroyC(key)
	return old, err
}

// putInternal is shared by Put and the cache-consistent putC variants: it
// always returns the key node's Gptr (creating it if necessary), the new
// value now in the slot, and the value that was there before.
func (t *Tree) putInternal(key []byte, value gptr.Gptr, mode UpdateMode) (keyGptr gptr.Gptr, newVal, old gptr.TagGptr, err error) {
	if len(key) > MaxKeyLen {
		return gptr.Null, gptr.NullTag, gptr.NullTag, ErrKeyTooLong
	}
	t.metrics.IncPut()
	loc := t.locate(key)

	switch loc.kind {
	case locateFound:
		old = loc.node.value
		if mode == FindOrCreate && old.IsValid() {
			return loc.nodeGptr, old, old, nil
		}
		newVal = bumpValue(old, value)
		loc.node.value = newVal
		t.store(loc.nodeGptr, loc.node)
		return loc.nodeGptr, newVal, old, nil

	case locateMissingChild:
		leafGptr, err := t.allocNode()
		if err != nil {
			return gptr.Null, gptr.NullTag, gptr.NullTag, err
		}
		leaf := &node{}
		leaf.setPrefix(key[loc.keyOffset+1:])
		newVal = gptr.TagGptr{Ptr: value, Version: 1}
		leaf.value = newVal
		t.store(leafGptr, leaf)

		loc.node.setChild(loc.missingByte, leafGptr)
		t.store(loc.nodeGptr, loc.node)
		return leafGptr, newVal, gptr.NullTag, nil

	case locateMismatch:
		return t.split(loc, key, value)
	}
	panic("oradix: unreachable locateResult kind")
}

// bumpValue computes the published replacement for old given a new raw
// pointer, per invariant P3: version 1 the first time a slot is ever
// written, old.Version+1 on every later write.
func bumpValue(old gptr.TagGptr, value gptr.Gptr) gptr.TagGptr {
	if old.Version == 0 {
		return gptr.TagGptr{Ptr: value, Version: 1}
	}
	return old.Next(value)
}

// split handles the "prefix mismatch at depth j inside N" case from spec
// §4.3: a new parent P takes N's old position, holding the common prefix;
// N is trimmed in place (its Gptr never changes, preserving invariant P4
// for any outstanding key_gptr reference into N) and reparented as P's
// child at the diverging byte; the new key becomes either P's own value
// (if it ends exactly at the divergence point) or a fresh leaf alongside N.
func (t *Tree) split(loc locateResult, key []byte, value gptr.Gptr) (gptr.Gptr, gptr.TagGptr, gptr.TagGptr, error) {
	j := loc.matchLen
	i := loc.keyOffset
	n := loc.node
	divergeByte := n.prefix[j]
	endOfKey := i+j == len(key)

	pGptr, err := t.allocNode()
	if err != nil {
		return gptr.Null, gptr.NullTag, gptr.NullTag, err
	}
	p := &node{}
	p.setPrefix(n.prefix[:j])

	newVal := gptr.TagGptr{Ptr: value, Version: 1}
	var keyGptr gptr.Gptr

	if endOfKey {
		p.value = newVal
		keyGptr = pGptr
	} else {
		leafGptr, err := t.allocNode()
		if err != nil {
			t.free(pGptr)
			return gptr.Null, gptr.NullTag, gptr.NullTag, err
		}
		leaf := &node{}
		leaf.setPrefix(key[i+j+1:])
		leaf.value = newVal
		t.store(leafGptr, leaf)
		p.setChild(key[i+j], leafGptr)
		keyGptr = leafGptr
	}

	// Trim n in place: it keeps its Gptr, losing only the prefix bytes
	// that moved up into p (the matched part) and the diverging byte
	// (which becomes its branch byte under p).
	remainder := append([]byte(nil), n.prefix[j+1:n.prefixLen]...)
	n.setPrefix(remainder)
	t.store(loc.nodeGptr, n)

	p.setChild(divergeByte, loc.nodeGptr)
	t.store(pGptr, p)

	// Publish: this single store makes p (and everything under it)
	// reachable. Before this line neither p nor the new leaf can be
	// observed by any other traversal.
	//
	// loc.parentGptr == gptr.Null can't actually happen here: the root's
	// own prefix is always empty (see Root), so locate never reports a
	// locateMismatch whose node is the root. Kept as a defensive
	// fallback rather than a panic, since nothing about locateResult
	// itself rules it out.
	if loc.parentGptr == gptr.Null {
		t.root = pGptr
	} else {
		parent := t.load(loc.parentGptr)
		parent.setChild(loc.parentBranch, pGptr)
		t.store(loc.parentGptr, parent)
	}

	return keyGptr, newVal, gptr.NullTag, nil
}
