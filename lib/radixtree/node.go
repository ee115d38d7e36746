package radixtree

import (
	"encoding/binary"

	"github.com/oradix/oradix/lib/gptr"
)

const (
	// MaxKeyLen is the hard limit on key length, spec §6.
	MaxKeyLen = 40

	// maxPrefixLen bounds the compressed prefix a single node can store.
	// It is sized to MaxKeyLen so a node reached directly under the root
	// can hold an entire remaining key in its prefix without a forced
	// split; spec §3 only requires "P >= 8 recommended".
	maxPrefixLen = MaxKeyLen

	// maxFanout is the dense child table size: one slot per possible
	// branch byte, per the "dense 256-entry table" option spec §9
	// explicitly allows. Because the table is fixed-size, a node's
	// address never needs to change to accommodate new children, which
	// is what makes invariant P4 (key-node persistence) trivial to
	// uphold — see DESIGN.md.
	maxFanout = 256

	// nodeSize is the exact number of bytes the on-medium layout from
	// spec §6 occupies: prefix length (1) + prefix (maxPrefixLen) + child
	// count (2, widened from the spec's nominal 1 byte so a node with all
	// 256 children is representable — see DESIGN.md) + value slot (16:
	// an 8-byte Gptr and an 8-byte version) + maxFanout Gptrs (8 bytes
	// each, dense, indexed by branch byte).
	nodeSize = 1 + maxPrefixLen + 2 + 16 + maxFanout*8
)

// node is the in-memory, decoded form of a radix-tree node. Nothing in
// lib/radixtree ever holds a raw pointer across a heap call: a node is
// loaded from its backing bytes, mutated, and re-encoded in place before the
// next heap access, per the "translate only at the moment of access" rule
// in spec §9.
type node struct {
	prefixLen  byte
	prefix     [maxPrefixLen]byte
	childCount uint16
	value      gptr.TagGptr
	children   [maxFanout]gptr.Gptr
}

func (n *node) fullPrefix() []byte {
	return n.prefix[:n.prefixLen]
}

func (n *node) child(b byte) gptr.Gptr {
	return n.children[b]
}

func (n *node) setChild(b byte, p gptr.Gptr) {
	if n.children[b] == gptr.Null && p != gptr.Null {
		n.childCount++
	} else if n.children[b] != gptr.Null && p == gptr.Null {
		n.childCount--
	}
	n.children[b] = p
}

// decodeNode parses the on-medium layout out of buf, which must be exactly
// nodeSize bytes (the slice the heap returns for a node allocation).
func decodeNode(buf []byte) *node {
	n := &node{}
	n.prefixLen = buf[0]
	off := 1
	copy(n.prefix[:], buf[off:off+maxPrefixLen])
	off += maxPrefixLen
	n.childCount = binary.LittleEndian.Uint16(buf[off:])
	off += 2
	n.value.Ptr = gptr.Gptr(binary.LittleEndian.Uint64(buf[off:]))
	off += 8
	n.value.Version = binary.LittleEndian.Uint64(buf[off:])
	off += 8
	for b := 0; b < maxFanout; b++ {
		n.children[b] = gptr.Gptr(binary.LittleEndian.Uint64(buf[off:]))
		off += 8
	}
	return n
}

// encodeInto serializes n back into buf, which must be exactly nodeSize
// bytes. Every mutation method in this package writes through encodeInto
// immediately so a concurrent-within-the-same-call read never observes a
// stale decode.
func (n *node) encodeInto(buf []byte) {
	buf[0] = n.prefixLen
	off := 1
	copy(buf[off:off+maxPrefixLen], n.prefix[:])
	for i := n.prefixLen; i < maxPrefixLen; i++ {
		buf[off+int(i)] = 0
	}
	off += maxPrefixLen
	binary.LittleEndian.PutUint16(buf[off:], n.childCount)
	off += 2
	binary.LittleEndian.PutUint64(buf[off:], uint64(n.value.Ptr))
	off += 8
	binary.LittleEndian.PutUint64(buf[off:], n.value.Version)
	off += 8
	for b := 0; b < maxFanout; b++ {
		binary.LittleEndian.PutUint64(buf[off:], uint64(n.children[b]))
		off += 8
	}
}

// setPrefix overwrites n's prefix bytes and length.
func (n *node) setPrefix(p []byte) {
	n.prefixLen = byte(len(p))
	copy(n.prefix[:], p)
}
