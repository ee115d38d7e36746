// Package kvs is the thin external-facing facade spec.md §1 calls out as an
// "out of scope" collaborator of the core: it copies fixed 8-byte values in
// and out of lib/radixtree's Gptr slots, translates the core's error/result
// values into the facade RetCode convention of §6, and owns the process-
// local scan-handle table. None of the tree algorithms live here.
package kvs
