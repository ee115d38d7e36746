package rtesting

import (
	"fmt"
	"testing"

	"github.com/oradix/oradix/lib/gptr"
	"github.com/oradix/oradix/lib/radixtree"
)

// RunTreeBenchmarks runs a standard set of benchmarks against a tree backed
// by a heap.Heap produced by factory.
func RunTreeBenchmarks(b *testing.B, name string, factory HeapFactory) {
	b.Run(name, func(b *testing.B) {
		b.Run("Put", func(b *testing.B) { benchmarkPut(b, newTree(b, factory)) })
		b.Run("Get", func(b *testing.B) { benchmarkGet(b, newTree(b, factory)) })
		b.Run("Destroy", func(b *testing.B) { benchmarkDestroy(b, newTree(b, factory)) })
		b.Run("Scan", func(b *testing.B) { benchmarkScan(b, newTree(b, factory)) })
		b.Run("MixedUsage", func(b *testing.B) { benchmarkMixedUsage(b, newTree(b, factory)) })
	})
}

func benchmarkPut(b *testing.B, tr *radixtree.Tree) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key := []byte(fmt.Sprintf("key-%d", i))
		if _, err := tr.Put(key, gptr.Gptr(i+1), radixtree.Update); err != nil {
			b.Fatalf("Put: %v", err)
		}
	}
}

func benchmarkGet(b *testing.B, tr *radixtree.Tree) {
	const n = 10000
	for i := 0; i < n; i++ {
		key := []byte(fmt.Sprintf("key-%d", i))
		if _, err := tr.Put(key, gptr.Gptr(i+1), radixtree.Update); err != nil {
			b.Fatalf("setup Put: %v", err)
		}
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key := []byte(fmt.Sprintf("key-%d", i%n))
		if _, err := tr.Get(key); err != nil {
			b.Fatalf("Get: %v", err)
		}
	}
}

func benchmarkDestroy(b *testing.B, tr *radixtree.Tree) {
	for i := 0; i < b.N; i++ {
		key := []byte(fmt.Sprintf("key-%d", i))
		if _, err := tr.Put(key, gptr.Gptr(i+1), radixtree.Update); err != nil {
			b.Fatalf("setup Put: %v", err)
		}
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key := []byte(fmt.Sprintf("key-%d", i))
		if _, err := tr.Destroy(key); err != nil {
			b.Fatalf("Destroy: %v", err)
		}
	}
}

func benchmarkScan(b *testing.B, tr *radixtree.Tree) {
	const n = 10000
	for i := 0; i < n; i++ {
		key := []byte(fmt.Sprintf("key-%05d", i))
		if _, err := tr.Put(key, gptr.Gptr(i+1), radixtree.Update); err != nil {
			b.Fatalf("setup Put: %v", err)
		}
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		it, err := tr.Scan([]byte{0}, false, []byte{0}, false)
		if err != nil {
			b.Fatalf("Scan: %v", err)
		}
		for {
			if _, _, ok := it.Next(); !ok {
				break
			}
		}
	}
}

func benchmarkMixedUsage(b *testing.B, tr *radixtree.Tree) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key := []byte(fmt.Sprintf("key-%d", i%1000))
		switch i % 3 {
		case 0:
			tr.Put(key, gptr.Gptr(i+1), radixtree.Update)
		case 1:
			tr.Get(key)
		case 2:
			tr.Destroy(key)
		}
	}
}
