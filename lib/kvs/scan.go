package kvs

import (
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/oradix/oradix/lib/radixtree"
)

// scanTable is the process-local iterator-handle table from spec §5.
// Handles are allocated by bumping a single atomic counter instead of under
// a mutex, and iterator advancement holds no lock. Grounded on the teacher's rpcServer
// shard map (rpc/server/server.go), which keeps a concurrent handle ->
// state map the same way, backed by xsync.MapOf rather than a plain
// sync.Map plus manual locking.
type scanTable struct {
	next    atomic.Uint64
	handles *xsync.MapOf[uint64, *radixtree.Iterator]
}

func newScanTable() *scanTable {
	return &scanTable{handles: xsync.NewMapOf[uint64, *radixtree.Iterator]()}
}

// OpenScan positions a new iterator over [beginKey, endKey) (subject to
// inclusivity flags) and returns an opaque handle for ScanNext/CloseScan.
func (k *KVS) OpenScan(beginKey []byte, beginInclusive bool, endKey []byte, endInclusive bool) (handle uint64, fErr *Error) {
	it, err := k.tree.Scan(beginKey, beginInclusive, endKey, endInclusive)
	if err != nil {
		return 0, wrapTreeErr(err)
	}
	h := k.scans.next.Add(1)
	k.scans.handles.Store(h, it)
	return h, nil
}

// ScanNext advances handle and returns its next key/value pair. found is
// false once the range is exhausted; the handle remains open and may still
// be closed with CloseScan, but subsequent ScanNext calls keep reporting
// found=false.
func (k *KVS) ScanNext(handle uint64) (key []byte, value [ValueLen]byte, found bool, fErr *Error) {
	it, ok := k.scans.handles.Load(handle)
	if !ok {
		return nil, value, false, errBadHandle
	}
	key, v, ok := it.Next()
	if !ok {
		return nil, value, false, nil
	}
	return key, encodeValue(v.Ptr), true, nil
}

// CloseScan releases handle. Closing an already-closed or unknown handle is
// a no-op error, not a panic.
func (k *KVS) CloseScan(handle uint64) *Error {
	if _, ok := k.scans.handles.LoadAndDelete(handle); !ok {
		return errBadHandle
	}
	return nil
}

func (s *scanTable) closeAll() {
	s.handles.Range(func(h uint64, _ *radixtree.Iterator) bool {
		s.handles.Delete(h)
		return true
	})
}
