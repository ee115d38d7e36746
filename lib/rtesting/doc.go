// Package rtesting is a reusable property-test and benchmark harness for
// lib/radixtree, generic over any heap.Heap implementation, the same way
// the teacher repository's lib/db/testing package was generic over db.KVDB
// implementations.
package rtesting
