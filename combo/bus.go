package combo

import "time"

// Disposition is the verdict an Engine returns for a single Bus event,
// mirroring the three-way result of a ZMK-style listener.
type Disposition int

const (
	// PassThrough indicates the event was not touched; the bus should
	// deliver it to later listeners as normal.
	PassThrough Disposition = iota
	// Captured indicates the engine took ownership of the event; the bus
	// must not deliver it further.
	Captured
	// Handled indicates the bus should stop propagation, though the event
	// was acted on rather than swallowed outright (used on release).
	Handled
)

func (d Disposition) String() string {
	switch d {
	case PassThrough:
		return "pass-through"
	case Captured:
		return "captured"
	case Handled:
		return "handled"
	default:
		return "unknown"
	}
}

// KeyEvent is the single semantic event kind the engine consumes: a
// position's pressed/released state changed.
type KeyEvent struct {
	Position  int
	Pressed   bool
	Timestamp time.Time
}

// Bus is the upstream event bus collaborator. The engine calls Raise to
// re-inject an event from the top of the pipeline, Release to hand a held
// event on to the listeners after the engine, and Free to reclaim a captured
// event's storage. Capture is implicit: the engine simply does not forward an
// event it wants to hold.
type Bus interface {
	// Raise re-dispatches ev from the top of the pipeline, as though it had
	// just arrived. Implementations must invoke the engine's listener
	// synchronously and re-entrantly: the engine is not safe for concurrent
	// or deferred re-entry.
	Raise(ev KeyEvent)
	// Release lets a held ev continue downstream from the point after the
	// engine, as though it had never been captured; it is not dispatched to
	// the engine again.
	Release(ev KeyEvent)
	// Free reclaims any storage associated with a captured event that was
	// consumed by an active combo rather than released or re-raised.
	Free(ev KeyEvent)
}

// BindingEvent carries the data passed to a Behavior on press/release.
type BindingEvent struct {
	VirtualPosition int
	Timestamp       time.Time
}

// Behavior is the downstream behavior-binding collaborator: an opaque
// handle the engine presses and releases when a combo fires/clears.
type Behavior interface {
	Press(ev BindingEvent)
	Release(ev BindingEvent)
}

// LayerQuery reports the current highest active layer, supplied by the
// host's layer-state subsystem.
type LayerQuery func() int

// Timer is the delayable work handle collaborator: one per slot. The engine
// never runs more than one pending schedule per slot; Schedule replaces any
// prior pending fire.
type Timer interface {
	// Schedule arranges for the timer's callback to fire after delay,
	// replacing any previously scheduled fire for this timer.
	Schedule(delay time.Duration)
	// Cancel aborts a pending fire. It returns whether a fire was pending.
	Cancel() (wasPending bool)
	// BusyGet reports whether the timer is currently scheduled or running.
	BusyGet() bool
}

// TimerFactory constructs a Timer bound to the given callback, invoked by
// the host's dispatcher when the delay elapses. The engine creates exactly
// one Timer per slot, at construction time.
type TimerFactory func(callback func()) Timer
