// Package pcdebug holds process-wide counters used to observe the behavior of
// package panicctx in tests and benchmarks.
package pcdebug

import "sync/atomic"

// EntryCounters track the lifecycle of context entries.
type EntryCounters struct {
	Push    atomic.Uint64
	Release atomic.Uint64
}

// Live returns the number of entries which have been pushed but not yet
// released, across all stores.
func (ec *EntryCounters) Live() int64 {
	var (
		push    = ec.Push.Load()
		release = ec.Release.Load()
	)
	return int64(push) - int64(release)
}

// Values returns the current values of the counters.
func (ec *EntryCounters) Values() (push, release uint64, live int64) {
	var (
		p = ec.Push.Load()
		r = ec.Release.Load()
	)
	return p, r, int64(p) - int64(r)
}

var (
	// StoreNewCount is incremented for every store attached to a context.
	StoreNewCount atomic.Uint64

	// StoreOrphanCount is incremented for every store created because a
	// context didn't carry one.
	StoreOrphanCount atomic.Uint64

	// Entries tracks pushed and released context entries.
	Entries EntryCounters

	// DumpCount is incremented every time context is written to the
	// diagnostic stream.
	DumpCount atomic.Uint64
)
