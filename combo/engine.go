package combo

import (
	"time"

	"github.com/joeycumines/logiface"
)

// Engine is the single entry point for every key press/release: it owns
// every other component (registry, slots, active combos, position maps) and
// drives them from Press/Release calls. An Engine is built once via New and
// then driven from the host's event bus; it is not safe for concurrent use
// — the host's dispatcher must serialize calls into a given Engine, e.g.
// behind a single mutex if the dispatcher itself is preemptive.
type Engine struct {
	reg        *registry
	bus        Bus
	layerQuery LayerQuery
	logger     *logiface.Logger[logiface.Event]
	metrics    *Metrics
	clock      func() time.Time

	slots            []*slot
	positionToSlot   []int
	pressedKeyToSlot []int
	lastUsedSlot     int
	usedScratch      []bool

	activeCombos []activeCombo
	activeCount  int
}

// New constructs an Engine from an immutable combo list and the host's
// collaborators. It returns an error for any combo referencing an unknown
// position, or a position carrying more than limits.MaxCombosPerKey combos
// — both fatal to initialization.
func New(combos []Combo, limits Limits, bus Bus, layerQuery LayerQuery, timerFactory TimerFactory, opts ...Option) (*Engine, error) {
	reg, err := newRegistry(combos, limits)
	if err != nil {
		return nil, err
	}

	cfg := resolveOptions(opts)

	e := &Engine{
		reg:        reg,
		bus:        bus,
		layerQuery: layerQuery,
		logger:     cfg.logger,
		metrics:    cfg.metrics,
		clock:      time.Now,

		slots:            make([]*slot, limits.MaxPressedCombos),
		positionToSlot:   make([]int, limits.KeymapLen),
		pressedKeyToSlot: make([]int, limits.KeymapLen),
		lastUsedSlot:     -1,
		usedScratch:      make([]bool, limits.MaxPressedCombos),

		activeCombos: make([]activeCombo, limits.MaxPressedCombos),
	}
	for i := range e.positionToSlot {
		e.positionToSlot[i] = -1
		e.pressedKeyToSlot[i] = -1
	}
	for i := range e.slots {
		i := i
		e.slots[i] = newSlot(i, limits, timerFactory(func() { e.handleTimeout(i) }))
	}

	return e, nil
}

func (e *Engine) now() time.Time {
	if e.clock != nil {
		return e.clock()
	}
	return time.Now()
}

// HandleKeyEvent dispatches to Press or Release based on ev.Pressed.
func (e *Engine) HandleKeyEvent(ev KeyEvent) Disposition {
	if ev.Pressed {
		return e.Press(ev)
	}
	return e.Release(ev)
}

// refreshClaims recomputes the position-to-slot map for s's currently
// claimed positions, clearing any prior claims by s first.
func (e *Engine) refreshClaims(s *slot) {
	for p := range e.positionToSlot {
		if e.positionToSlot[p] == s.index {
			e.positionToSlot[p] = -1
		}
	}
	for _, p := range s.claimedPositions() {
		e.positionToSlot[p] = s.index
	}
}

// selectSlot picks which slot a newly-pressed position should use: reuse a
// slot that already claims the position, else fall back to the last-used
// slot for a filler key not part of any combo, else claim the lowest-indexed
// free slot.
func (e *Engine) selectSlot(position int) int {
	if claimed := e.positionToSlot[position]; claimed != -1 {
		e.lastUsedSlot = claimed
		return claimed
	}

	row := e.reg.lookup[position]
	var slotIdx int
	if row[0] == nil {
		// filler key: not part of any combo, buffer alongside whatever
		// attempt is already in progress so capture order is preserved.
		slotIdx = e.lastUsedSlot
		if slotIdx == -1 {
			// no attempt has used a slot yet: there is nothing to buffer
			// alongside, and no slot shortage to report.
			return -1
		}
	} else {
		for i := range e.usedScratch {
			e.usedScratch[i] = false
		}
		for _, s := range e.positionToSlot {
			if s != -1 {
				e.usedScratch[s] = true
			}
		}
		slotIdx = -1
		for i, used := range e.usedScratch {
			if !used {
				slotIdx = i
				break
			}
		}
	}

	if slotIdx == -1 {
		e.logger.Err().Err(ErrNoFreeSlot).Int("position", position).Log("combo: could not find an empty slot")
		if e.metrics != nil {
			e.metrics.noFreeSlot.Add(1)
		}
		return -1
	}
	e.lastUsedSlot = slotIdx
	return slotIdx
}

// Press handles a key-down event, returning the disposition the host's bus
// should apply.
func (e *Engine) Press(ev KeyEvent) Disposition {
	position := ev.Position

	slotIdx := e.selectSlot(position)
	if slotIdx == -1 {
		if e.metrics != nil {
			e.metrics.passedThrough.Add(1)
		}
		return PassThrough
	}
	s := e.slots[slotIdx]
	e.pressedKeyToSlot[position] = slotIdx

	row := e.reg.lookup[position]

	var numCandidates int
	if s.numCandidates() == 0 {
		numCandidates = s.setupFirstPress(row, e.layerQuery(), ev.Timestamp)
		if numCandidates == 0 {
			// no combo applies to this position in this slot: pass through
			// without ever capturing the event.
			if e.metrics != nil {
				e.metrics.passedThrough.Add(1)
			}
			return PassThrough
		}
		e.refreshClaims(s)
	} else {
		s.dropExpired(e.now())
		e.refreshClaims(s)
		numCandidates = s.filter(row)
		e.refreshClaims(s)
	}

	e.updateTimeoutTask(s)

	s.capture.PushBack(ev)

	var head *Combo
	if numCandidates > 0 {
		head = s.candidates[0].combo
	}

	switch {
	case numCandidates == 0:
		e.cleanup(s)
	case numCandidates == 1:
		if s.completelyPressed(head) {
			s.fullyPressedCombo = head
			e.cleanup(s)
		}
	default: // numCandidates >= 2
		if s.completelyPressed(head) {
			// record, but don't fire yet: a longer candidate may still
			// complete before timeout (the head of the sorted list is the
			// shortest).
			s.fullyPressedCombo = head
		}
	}

	return Captured
}

// Release handles a key-up event.
func (e *Engine) Release(ev KeyEvent) Disposition {
	position := ev.Position

	slotIdx := e.pressedKeyToSlot[position]
	e.pressedKeyToSlot[position] = -1
	if slotIdx == -1 {
		e.logger.Err().Err(ErrNoSlotClaim).Int("position", position).Log("combo: no recorded slot claim for release")
		if e.metrics != nil {
			e.metrics.noSlotOnRelease.Add(1)
		}
		return PassThrough
	}

	s := e.slots[slotIdx]
	released := e.cleanup(s)

	if e.releaseComboKey(position, ev.Timestamp) {
		return Handled
	}
	if released > 1 {
		// the second and further key-down events were re-raised by
		// cleanup; to preserve order for stateful later stages (e.g.
		// hold-taps), the key-up must be re-raised too rather than passed
		// through directly.
		e.bus.Raise(ev)
		return Captured
	}
	return PassThrough
}

// cleanup cancels the timer, clears candidates, activates any pending
// fully-pressed combo, then releases whatever remains captured. It returns
// the number of events released (including any re-raised).
func (e *Engine) cleanup(s *slot) int {
	s.timer.Cancel()
	s.deadline = time.Time{}

	s.clearCandidates()
	e.refreshClaims(s)

	if s.fullyPressedCombo != nil {
		c := s.fullyPressedCombo
		s.fullyPressedCombo = nil
		e.activate(s, c)
	}

	return e.releaseCaptured(s)
}

// activate stores c as an active combo, transfers its captured keys out of
// s's capture buffer, compacts any remaining residual captures to the
// front, and presses the behavior. If no active-combo entry is free, the
// combo fails to fire: its captures are left for cleanup's subsequent
// release step rather than discarded.
func (e *Engine) activate(s *slot, c *Combo) {
	a := e.storeActiveCombo(c)
	if a == nil {
		e.logger.Err().Err(ErrNoFreeActiveCombo).Str("combo", c.Name).Log("combo: no free active combo entry, combo will not fire")
		if e.metrics != nil {
			e.metrics.noFreeActive.Add(1)
		}
		return
	}

	n := len(c.Positions)
	a.held = a.held[:0]
	for i := 0; i < n; i++ {
		a.held = append(a.held, heldKey{ev: s.capture.Get(i), present: true})
	}
	s.capture.RemoveBefore(n)

	if e.metrics != nil {
		e.metrics.fired.Add(1)
	}
	e.logger.Debug().Str("combo", c.Name).Log("combo: fired")

	c.Behavior.Press(BindingEvent{
		VirtualPosition: c.VirtualPosition,
		Timestamp:       a.held[0].ev.Timestamp,
	})
}

// releaseCaptured releases the event at index 0 (handed on downstream, not
// seen by the engine again) and re-raises the rest, in order. All state mutation (emptying the buffer) is
// committed before any re-raise is issued, so the re-entrant dispatch the
// raise triggers always observes a quiescent slot.
func (e *Engine) releaseCaptured(s *slot) int {
	events := s.capture.Slice()
	s.capture.Reset()

	for i, ev := range events {
		if i == 0 {
			e.bus.Release(ev)
		} else {
			e.bus.Raise(ev)
		}
	}
	return len(events)
}

// releaseComboKey searches the active-combo table for one holding position,
// frees that event, and fires the behavior's release per the slow/fast
// release policy.
func (e *Engine) releaseComboKey(position int, timestamp time.Time) bool {
	for idx := 0; idx < e.activeCount; idx++ {
		a := &e.activeCombos[idx]

		wasAllPressed := a.allPressed()

		released := false
		for i := range a.held {
			if a.held[i].present && a.held[i].ev.Position == position {
				e.bus.Free(a.held[i].ev)
				a.held[i] = heldKey{}
				released = true
				break
			}
		}
		if !released {
			continue
		}

		nowAllReleased := a.allReleased()
		if (a.combo.SlowRelease && nowAllReleased) || (!a.combo.SlowRelease && wasAllPressed) {
			a.combo.Behavior.Release(BindingEvent{
				VirtualPosition: a.combo.VirtualPosition,
				Timestamp:       timestamp,
			})
			e.logger.Debug().Int("position", position).Log("combo: released")
		}
		if nowAllReleased {
			e.deactivateCombo(idx)
		}
		return true
	}
	return false
}
