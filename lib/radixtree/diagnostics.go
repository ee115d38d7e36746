package radixtree

import "github.com/oradix/oradix/lib/gptr"

// This file implements the structural diagnostics of spec §4.8: a full
// in-order walk (List) and a whole-tree structural summary (Structure).
// Neither mutates the tree.

// List invokes f for every valid (non-tombstoned) key in lexicographic
// order, equivalent to scanning the whole tree with open bounds on both
// sides. It stops early if f returns false.
func (t *Tree) List(f func(key []byte, value gptr.Gptr) bool) error {
	it, err := t.Scan([]byte{0}, false, []byte{0}, false)
	if err != nil {
		return err
	}
	for {
		key, value, ok := it.Next()
		if !ok {
			return nil
		}
		if !f(key, value.Ptr) {
			return nil
		}
	}
}

// LevelStats summarizes one depth of the tree for Structure.
type LevelStats struct {
	NodeCount   int // nodes at this depth
	ValueCount  int // of those, how many hold a live (non-tombstoned) value
	totalFanout int
}

// AvgFanout returns the mean child count of nodes at this level.
func (s LevelStats) AvgFanout() float64 {
	if s.NodeCount == 0 {
		return 0
	}
	return float64(s.totalFanout) / float64(s.NodeCount)
}

// Structure is the pure diagnostic summary produced by Tree.Structure: per
// level counts of nodes, fanout and values, and the tree's maximum depth.
type Structure struct {
	Levels   []LevelStats
	MaxDepth int
}

// Structure walks the whole tree once, without modifying it, and reports
// per-level node/value counts, average fanout, and maximum depth. Each
// node's child count is also passed to the metrics sink's ObserveFanout.
func (t *Tree) Structure() Structure {
	var s Structure
	t.walkStructure(t.root, 0, &s)
	return s
}

func (t *Tree) walkStructure(p gptr.Gptr, depth int, s *Structure) {
	n := t.load(p)

	if depth >= len(s.Levels) {
		s.Levels = append(s.Levels, make([]LevelStats, depth+1-len(s.Levels))...)
	}
	s.Levels[depth].NodeCount++
	s.Levels[depth].totalFanout += int(n.childCount)
	t.metrics.ObserveFanout(int(n.childCount))
	if n.value.IsValid() {
		s.Levels[depth].ValueCount++
	}
	if depth > s.MaxDepth {
		s.MaxDepth = depth
	}

	for b := 0; b <= 255; b++ {
		child := n.children[b]
		if child.IsValid() {
			t.walkStructure(child, depth+1, s)
		}
	}
}
