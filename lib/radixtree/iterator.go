package radixtree

import (
	"bytes"

	"github.com/oradix/oradix/lib/gptr"
)

// This file implements the iterator / range-scan state machine of spec §4.7:
// lower-bound positioning, in-order successor (Next), bound inclusivity, and
// open bounds.
//
// Open boundary encoding, reproduced from the original radix_tree.h header
// this module was distilled from: the single byte \0 with its inclusive flag
// cleared means "unbounded on this side". \0 with the inclusive flag set is
// the literal one-byte key \0. A range of (\0 exclusive, \0 exclusive) means
// "every key in the tree"; [\0 inclusive, \0 inclusive] means "exactly the
// key \0, if present".

// frame is one entry of an iterator's root-to-cursor ancestor stack: the
// ancestor's Gptr and the next_pos it should resume from when control
// returns to it (spec §4.7's "(ancestor gptr, resumed next_pos) pairs").
type frame struct {
	nodeGptr gptr.Gptr
	nextPos  int
	keyLen   int
}

// Iterator is positioned range-scan state, per spec §4.7. The zero value is
// not usable; construct one with Tree.Scan.
type Iterator struct {
	t *Tree

	beginKey             []byte
	beginIncl, beginOpen bool
	endKey               []byte
	endIncl, endOpen     bool

	current gptr.Gptr // 0 (gptr.Null) means exhausted
	nextPos int       // 0: visit this node's value next; i>0: descend into child byte i-1 next
	keyBuf  []byte    // backing buffer for the full key of the current node
	keyLen  int // length of keyBuf that makes up the current node's full key
	stack   []frame
}

// isOpenBoundary reports whether (key, inclusive) encodes the unbounded
// side of a range, per spec §4.7: exactly the byte \0 with inclusive false.
func isOpenBoundary(key []byte, inclusive bool) bool {
	return len(key) == 1 && key[0] == 0 && !inclusive
}

// Scan positions a new Iterator at the lower bound of [beginKey, endKey]
// (subject to the inclusivity flags) and returns it ready for Next. It does
// not itself surface the first key; call Next to do that.
func (t *Tree) Scan(beginKey []byte, beginIncl bool, endKey []byte, endIncl bool) (*Iterator, error) {
	beginOpen := isOpenBoundary(beginKey, beginIncl)
	endOpen := isOpenBoundary(endKey, endIncl)
	if !beginOpen && len(beginKey) > MaxKeyLen {
		return nil, ErrBadIterator
	}
	if !endOpen && len(endKey) > MaxKeyLen {
		return nil, ErrBadIterator
	}
	t.metrics.IncScan()

	it := &Iterator{
		t:         t,
		beginKey:  beginKey,
		beginIncl: beginIncl,
		beginOpen: beginOpen,
		endKey:    endKey,
		endIncl:   endIncl,
		endOpen:   endOpen,
	}

	rootFull := append([]byte(nil), t.load(t.root).fullPrefix()...)
	if beginOpen {
		it.current = t.root
		it.nextPos = 0
		it.keyBuf = rootFull
		it.keyLen = len(rootFull)
		return it, nil
	}

	if !t.seekLowerBound(t.root, rootFull, false, it) {
		it.current = gptr.Null
	}
	return it, nil
}

// seekLowerBound descends from cur (whose full key is fullKey) looking for
// the lower-bound position described in spec §4.7. leftmost, once true for
// a subtree, means the search key has already been proven less than every
// key in it: the very first value reachable from cur is the answer. It
// reports false if no position satisfying "key >= begin" exists anywhere
// under cur, in which case the caller must try a different branch (or, at
// the root, conclude the range is empty).
func (t *Tree) seekLowerBound(cur gptr.Gptr, fullKey []byte, leftmost bool, it *Iterator) bool {
	n := t.load(cur)

	if leftmost {
		it.current = cur
		it.nextPos = 0
		it.keyBuf = fullKey
		it.keyLen = len(fullKey)
		return true
	}

	cmp := bytes.Compare(fullKey, it.beginKey)
	switch {
	case cmp > 0:
		it.current = cur
		it.nextPos = 0
		it.keyBuf = fullKey
		it.keyLen = len(fullKey)
		return true
	case cmp == 0:
		it.current = cur
		it.keyBuf = fullKey
		it.keyLen = len(fullKey)
		if it.beginIncl {
			it.nextPos = 0
		} else {
			// Exact match but exclusive: this node's own value is skipped,
			// but its subtree may still hold keys > begin.
			it.nextPos = 1
		}
		return true
	}

	// cmp < 0: cur's own key sorts before begin. If fullKey is not a proper
	// prefix of begin, the entire subtree rooted at cur precedes begin and
	// holds nothing we want.
	if len(fullKey) >= len(it.beginKey) {
		return false
	}

	b := it.beginKey[len(fullKey)]
	for cb := int(b); cb <= 255; cb++ {
		child := n.children[cb]
		if !child.IsValid() {
			continue
		}
		frameIdx := len(it.stack)
		it.stack = append(it.stack, frame{nodeGptr: cur, nextPos: cb + 2, keyLen: len(fullKey)})

		cn := t.load(child)
		childFull := append(append([]byte(nil), fullKey...), byte(cb))
		childFull = append(childFull, cn.fullPrefix()...)

		if t.seekLowerBound(child, childFull, cb > int(b), it) {
			return true
		}
		// This branch's subtree held nothing usable; undo the speculative
		// frame and keep scanning sibling branch bytes.
		it.stack = it.stack[:frameIdx]
	}
	return false
}

// exceedsEnd reports whether key falls outside the iterator's upper bound,
// per spec §4.7's end-bound check on every surfaced key.
func (it *Iterator) exceedsEnd(key []byte) bool {
	if it.endOpen {
		return false
	}
	cmp := bytes.Compare(key, it.endKey)
	if cmp > 0 {
		return true
	}
	return cmp == 0 && !it.endIncl
}

// Next advances the iterator and reports its next (key, value) pair, per the
// in-order-successor algorithm of spec §4.7. Tombstoned nodes are skipped
// but their children are still visited. ok is false once the iterator is
// exhausted or the next candidate key falls outside the end bound; Next
// keeps returning false on every subsequent call once exhausted.
func (it *Iterator) Next() (key []byte, value gptr.TagGptr, ok bool) {
	t := it.t
	for it.current != gptr.Null {
		n := t.load(it.current)

		if it.nextPos == 0 {
			it.nextPos = 1
			if n.value.IsValid() {
				full := it.keyBuf[:it.keyLen]
				if it.exceedsEnd(full) {
					it.current = gptr.Null
					return nil, gptr.NullTag, false
				}
				key = append([]byte(nil), full...)
				return key, n.value, true
			}
			// Tombstoned or never written: fall through to its children.
		}

		advanced := false
		for cb := it.nextPos - 1; cb <= 255; cb++ {
			child := n.children[cb]
			if !child.IsValid() {
				continue
			}
			resume := cb + 2
			it.stack = append(it.stack, frame{nodeGptr: it.current, nextPos: resume, keyLen: it.keyLen})

			cn := t.load(child)
			it.keyBuf = append(it.keyBuf[:it.keyLen], byte(cb))
			it.keyBuf = append(it.keyBuf, cn.fullPrefix()...)
			it.keyLen = len(it.keyBuf)
			it.current = child
			it.nextPos = 0
			advanced = true
			break
		}
		if advanced {
			continue
		}

		// No more children: pop the ancestor stack.
		if len(it.stack) == 0 {
			it.current = gptr.Null
			return nil, gptr.NullTag, false
		}
		top := it.stack[len(it.stack)-1]
		it.stack = it.stack[:len(it.stack)-1]
		it.current = top.nodeGptr
		it.nextPos = top.nextPos
		it.keyLen = top.keyLen
		it.keyBuf = it.keyBuf[:it.keyLen]
	}
	return nil, gptr.NullTag, false
}
