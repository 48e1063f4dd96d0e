package combo

import "time"

// updateTimeoutTask (re)schedules slot s's single timer to the earliest
// candidate deadline whenever the candidate list changes. If the deadline is
// unchanged, nothing is touched.
func (e *Engine) updateTimeoutTask(s *slot) {
	first, ok := s.firstDeadline()
	if !ok {
		if !s.deadline.IsZero() {
			s.timer.Cancel()
			s.deadline = time.Time{}
		}
		return
	}
	if s.deadline.Equal(first) {
		return
	}
	delay := first.Sub(e.now())
	if delay < 0 {
		delay = 0
	}
	s.timer.Schedule(delay)
	s.deadline = first
}

// handleTimeout is the callback a slot's Timer invokes on fire.
func (e *Engine) handleTimeout(idx int) {
	s := e.slots[idx]

	// A stale timer (deadline moved or cleared since scheduling) fires as a
	// no-op.
	if s.deadline.IsZero() || s.deadline.After(e.now()) {
		return
	}

	firedDeadline := s.deadline
	n := s.dropExpired(firedDeadline)
	e.refreshClaims(s)

	if n < 2 {
		e.cleanup(s)
		if e.metrics != nil {
			e.metrics.timedOut.Add(1)
		}
	} else {
		e.updateTimeoutTask(s)
	}
}
