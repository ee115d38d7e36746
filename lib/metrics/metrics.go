// Package metrics is the pure counter/histogram sink the radix tree core
// reports through (spec §2 item 6, §6). It owns no tree state and makes no
// decisions — every method is a fire-and-forget observation.
package metrics

import (
	vm "github.com/VictoriaMetrics/metrics"
	gometrics "github.com/rcrowley/go-metrics"
)

// Sink is the interface lib/radixtree and lib/kvs report through. Passing
// nil wherever a Sink is accepted is valid: all implementations here are
// nil-safe via the Nop sink below, and callers that don't care about metrics
// can use it instead of threading nil checks through every call site.
type Sink interface {
	IncPut()
	IncGet()
	IncDelete()
	IncScan()
	IncTombstone()
	IncAlloc(size int)
	IncAllocRetry()
	IncAllocFail()
	IncFree()
	ObserveFanout(childCount int)
	Snapshot() Snapshot
}

// Snapshot is a point-in-time read of every counter, used by
// KVS.ReportMetrics and the CLI's "stats" command.
type Snapshot struct {
	Puts, Gets, Deletes, Scans, Tombstones uint64
	Allocs, AllocRetries, AllocFails, Frees uint64
	MeanAllocSize                           float64
	MeanFanout                              float64
}

// vmSink reports named counters through a private VictoriaMetrics set (so
// multiple trees in one process don't collide on the global default set)
// and keeps two go-metrics histograms whose means Snapshot reports:
// allocation size (fed by IncAlloc) and per-node fanout (fed by
// ObserveFanout, which the tree's Structure walk calls).
type vmSink struct {
	set *vm.Set

	puts, gets, deletes, scans, tombstones *vm.Counter
	allocs, allocRetries, allocFails, frees *vm.Counter

	allocSizes gometrics.Histogram
	fanout     gometrics.Histogram
}

// New creates a Sink backed by a fresh, private metric set and histograms.
// name is used as the value of a tree label so several trees can be told apart if
// their sets are ever merged into a process-wide registry.
func New(name string) Sink {
	set := vm.NewSet()
	labels := `{tree="` + name + `"}`

	return &vmSink{
		set: set,

		puts:       set.NewCounter("oradix_puts_total" + labels),
		gets:       set.NewCounter("oradix_gets_total" + labels),
		deletes:    set.NewCounter("oradix_deletes_total" + labels),
		scans:      set.NewCounter("oradix_scans_total" + labels),
		tombstones: set.NewCounter("oradix_tombstones_total" + labels),

		allocs:       set.NewCounter("oradix_allocs_total" + labels),
		allocRetries: set.NewCounter("oradix_alloc_retries_total" + labels),
		allocFails:   set.NewCounter("oradix_alloc_fails_total" + labels),
		frees:        set.NewCounter("oradix_frees_total" + labels),

		allocSizes: gometrics.NewHistogram(gometrics.NewUniformSample(1024)),
		fanout:     gometrics.NewHistogram(gometrics.NewUniformSample(1024)),
	}
}

func (s *vmSink) IncPut()             { s.puts.Inc() }
func (s *vmSink) IncGet()             { s.gets.Inc() }
func (s *vmSink) IncDelete()          { s.deletes.Inc() }
func (s *vmSink) IncScan()            { s.scans.Inc() }
func (s *vmSink) IncTombstone()       { s.tombstones.Inc() }
func (s *vmSink) IncAllocRetry()      { s.allocRetries.Inc() }
func (s *vmSink) IncAllocFail()       { s.allocFails.Inc() }
func (s *vmSink) IncFree()            { s.frees.Inc() }

func (s *vmSink) IncAlloc(size int) {
	s.allocs.Inc()
	s.allocSizes.Update(int64(size))
}

func (s *vmSink) ObserveFanout(childCount int) {
	s.fanout.Update(int64(childCount))
}

func (s *vmSink) Snapshot() Snapshot {
	return Snapshot{
		Puts:          s.puts.Get(),
		Gets:          s.gets.Get(),
		Deletes:       s.deletes.Get(),
		Scans:         s.scans.Get(),
		Tombstones:    s.tombstones.Get(),
		Allocs:        s.allocs.Get(),
		AllocRetries:  s.allocRetries.Get(),
		AllocFails:    s.allocFails.Get(),
		Frees:         s.frees.Get(),
		MeanAllocSize: s.allocSizes.Mean(),
		MeanFanout:    s.fanout.Mean(),
	}
}

// WritePrometheus exposes the sink's private set in Prometheus text format,
// for a future /metrics endpoint; exported so cmd/ can wire it without this
// package growing an HTTP dependency of its own.
func WritePrometheus(w interface {
	Write([]byte) (int, error)
}, s Sink) {
	vs, ok := s.(*vmSink)
	if !ok {
		return
	}
	vs.set.WritePrometheus(w)
}

// nopSink discards every observation. Used where metrics genuinely aren't
// wanted (benchmarks measuring the tree in isolation, tests of the tree
// logic that don't care about instrumentation).
type nopSink struct{}

// Nop is a Sink that discards all observations.
var Nop Sink = nopSink{}

func (nopSink) IncPut()                 {}
func (nopSink) IncGet()                 {}
func (nopSink) IncDelete()               {}
func (nopSink) IncScan()                {}
func (nopSink) IncTombstone()            {}
func (nopSink) IncAlloc(int)             {}
func (nopSink) IncAllocRetry()           {}
func (nopSink) IncAllocFail()            {}
func (nopSink) IncFree()                 {}
func (nopSink) ObserveFanout(int)        {}
func (nopSink) Snapshot() Snapshot       { return Snapshot{} }
