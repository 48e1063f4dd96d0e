package combo

import "time"

// manualClock is an explicitly-driven substitute for time.Now, letting tests
// assert exact scheduling behavior without sleeping.
type manualClock struct {
	t time.Time
}

func (c *manualClock) now() time.Time { return c.t }

func ms(n int) time.Time { return time.UnixMilli(int64(n)) }

// fakeTimer is a Timer double that only fires when the test explicitly asks
// it to, via Fire.
type fakeTimer struct {
	callback  func()
	scheduled bool
	delay     time.Duration
}

func (t *fakeTimer) Schedule(delay time.Duration) {
	t.scheduled = true
	t.delay = delay
}

func (t *fakeTimer) Cancel() bool {
	was := t.scheduled
	t.scheduled = false
	return was
}

func (t *fakeTimer) BusyGet() bool { return t.scheduled }

// Fire invokes the callback as if the delay had elapsed, clearing the
// scheduled flag first (matching a real one-shot timer).
func (t *fakeTimer) Fire() {
	t.scheduled = false
	t.callback()
}

// fakeBus is a Bus double that re-enters the engine synchronously on Raise
// (matching the re-entrancy contract in bus.go) and records terminal
// dispositions for assertions.
type fakeBus struct {
	engine   *Engine
	released []KeyEvent
	raised   []KeyEvent
	freed    []KeyEvent
}

func (b *fakeBus) Raise(ev KeyEvent) {
	b.raised = append(b.raised, ev)
	b.engine.HandleKeyEvent(ev)
}

func (b *fakeBus) Release(ev KeyEvent) {
	b.released = append(b.released, ev)
}

func (b *fakeBus) Free(ev KeyEvent) {
	b.freed = append(b.freed, ev)
}

// fakeBehavior records every press/release it receives.
type fakeBehavior struct {
	name     string
	pressed  []BindingEvent
	released []BindingEvent
}

func (b *fakeBehavior) Press(ev BindingEvent)   { b.pressed = append(b.pressed, ev) }
func (b *fakeBehavior) Release(ev BindingEvent) { b.released = append(b.released, ev) }

// harness wires an Engine to test doubles, giving tests direct control over
// wall-clock time and per-slot timer firing.
type harness struct {
	engine *Engine
	bus    *fakeBus
	clock  *manualClock
	timers []*fakeTimer
	layer  int
}

func newHarness(t interface {
	Helper()
	Fatalf(format string, args ...any)
}, combos []Combo, limits Limits) *harness {
	h := &harness{clock: &manualClock{t: ms(0)}}
	h.bus = &fakeBus{}
	factory := func(cb func()) Timer {
		ft := &fakeTimer{callback: cb}
		h.timers = append(h.timers, ft)
		return ft
	}
	eng, err := New(combos, limits, h.bus, func() int { return h.layer }, factory)
	if err != nil {
		t.Helper()
		t.Fatalf("New: %v", err)
	}
	eng.clock = h.clock.now
	h.bus.engine = eng
	h.engine = eng
	return h
}

func (h *harness) press(position, atMillis int) Disposition {
	h.clock.t = ms(atMillis)
	return h.engine.Press(KeyEvent{Position: position, Pressed: true, Timestamp: h.clock.t})
}

func (h *harness) release(position, atMillis int) Disposition {
	h.clock.t = ms(atMillis)
	return h.engine.Release(KeyEvent{Position: position, Pressed: false, Timestamp: h.clock.t})
}

func (h *harness) fireTimer(slot, atMillis int) {
	h.clock.t = ms(atMillis)
	h.timers[slot].Fire()
}

func newTestCombo(name string, positions []int, timeout time.Duration, virt int, slow bool) (Combo, *fakeBehavior) {
	b := &fakeBehavior{name: name}
	return Combo{
		Name:            name,
		Positions:       positions,
		Behavior:        b,
		Timeout:         timeout,
		SlowRelease:     slow,
		VirtualPosition: virt,
		Layers:          []int{AnyLayer},
	}, b
}
