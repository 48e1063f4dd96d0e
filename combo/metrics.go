package combo

import "sync/atomic"

// Metrics is an optional observability sink for the engine's decision
// outcomes. It has no external dependency of its own (no registry, no
// exposition format) since none of the retrieved pack's domain dependencies
// apply to in-process counters; wiring to Prometheus/etc. is the caller's
// concern, done by reading the counters from the returned *Metrics.
type Metrics struct {
	fired           atomic.Int64
	timedOut        atomic.Int64
	passedThrough   atomic.Int64
	noFreeSlot      atomic.Int64
	noFreeActive    atomic.Int64
	noSlotOnRelease atomic.Int64
}

// NewMetrics returns a zeroed Metrics sink.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Fired           int64
	TimedOut        int64
	PassedThrough   int64
	NoFreeSlot      int64
	NoFreeActive    int64
	NoSlotOnRelease int64
}

// Snapshot reads the current counter values.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	return Snapshot{
		Fired:           m.fired.Load(),
		TimedOut:        m.timedOut.Load(),
		PassedThrough:   m.passedThrough.Load(),
		NoFreeSlot:      m.noFreeSlot.Load(),
		NoFreeActive:    m.noFreeActive.Load(),
		NoSlotOnRelease: m.noSlotOnRelease.Load(),
	}
}
