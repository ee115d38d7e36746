package radixtree

import "github.com/oradix/oradix/lib/gptr"

// This file implements the cache-consistent variants from spec §4.6: the
// key-node Gptr is exposed alongside the value so an external cache can
// revisit the slot directly later (GetCByGptr) without paying for another
// descent, and detect staleness by comparing TagGptr values bitwise.

// PutC is Put, additionally returning the key node's Gptr (always valid: the
// node is created if it did not already exist).
func (t *Tree) PutC(key []byte, value gptr.Gptr, mode UpdateMode) (keyGptr gptr.Gptr, newVal, oldVal gptr.TagGptr, err error) {
	return t.putInternal(key, value, mode)
}

// PutCByGptr overwrites the value slot at a known key node address directly,
// without a descent. Callers obtain keyGptr from an earlier PutC/GetC and use
// this to republish a value cheaply. The version rule is the same as Put:
// old.Version+1, or 1 if the slot never held a value.
func (t *Tree) PutCByGptr(keyGptr gptr.Gptr, value gptr.Gptr) (newVal, oldVal gptr.TagGptr) {
	n := t.load(keyGptr)
	oldVal = n.value
	newVal = bumpValue(oldVal, value)
	n.value = newVal
	t.store(keyGptr, n)
	t.metrics.IncPut()
	return newVal, oldVal
}

// GetC is Get, additionally returning the key node's Gptr. If no node's full
// path equals key at all, it returns (gptr.Null, gptr.NullTag). If a node
// does exist at that path but has never itself been the target of a Put (it
// exists only as a branch point for longer keys), GetC returns that node's
// real, non-null Gptr alongside gptr.NullTag: the key node "exists" in the
// sense a cache can attach to, it simply has never published a value. Callers
// distinguish the two cases with value.IsValid(), not with keyGptr alone.
func (t *Tree) GetC(key []byte) (keyGptr gptr.Gptr, value gptr.TagGptr, err error) {
	if len(key) > MaxKeyLen {
		return gptr.Null, gptr.NullTag, ErrKeyTooLong
	}
	t.metrics.IncGet()
	loc := t.locate(key)
	if loc.kind != locateFound {
		return gptr.Null, gptr.NullTag, nil
	}
	return loc.nodeGptr, loc.node.value, nil
}

// GetCByGptr is the cheap, no-descent read a cache uses to revalidate a
// TagGptr it captured earlier: compare the result against the cached value
// with TagGptr.Equal, per the cache-staleness test in spec §4.6.
func (t *Tree) GetCByGptr(keyGptr gptr.Gptr) gptr.TagGptr {
	t.metrics.IncGet()
	return t.load(keyGptr).value
}

// DestroyC is Destroy, additionally returning the key node's Gptr. As with
// GetC, a key whose path lands on a structural node that never held a value
// yields that node's real Gptr alongside a NullTag oldVal (IsValid() false,
// IsTombstone() false) rather than (gptr.Null, gptr.NullTag); there is
// nothing to tombstone in that case, so the node's value is left untouched.
func (t *Tree) DestroyC(key []byte) (keyGptr gptr.Gptr, oldVal gptr.TagGptr, err error) {
	if len(key) > MaxKeyLen {
		return gptr.Null, gptr.NullTag, ErrKeyTooLong
	}
	t.metrics.IncDelete()
	loc := t.locate(key)
	if loc.kind != locateFound {
		return gptr.Null, gptr.NullTag, nil
	}
	old := loc.node.value
	if !old.IsValid() {
		return loc.nodeGptr, old, nil
	}
	loc.node.value = old.Tombstone()
	t.store(loc.nodeGptr, loc.node)
	t.metrics.IncTombstone()
	return loc.nodeGptr, old, nil
}
