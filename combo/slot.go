package combo

import "time"

// candidate is a combo that remains possible given the presses observed so
// far in a slot.
type candidate struct {
	combo    *Combo
	deadline time.Time
}

// slot is an independent work-area for one in-flight chord attempt. The
// positions claimed by distinct slots are always disjoint.
type slot struct {
	index int

	// candidates is sorted by comboLess and contiguous: candidates[:n] are
	// live, the rest are zero-valued.
	candidates []candidate

	// capture is the ordered FIFO of held raw press events.
	capture *ringBuffer[KeyEvent]

	// fullyPressedCombo is set once some surviving candidate has every one
	// of its positions captured, but firing is deferred in case a longer
	// candidate later completes too.
	fullyPressedCombo *Combo

	// timer is this slot's single delayable task. deadline is zero when
	// nothing is scheduled; it always equals the minimum deadline over
	// candidates when non-zero.
	timer    Timer
	deadline time.Time
}

func newSlot(index int, limits Limits, timer Timer) *slot {
	return &slot{
		index:      index,
		candidates: make([]candidate, limits.MaxCombosPerKey),
		capture:    newRingBuffer[KeyEvent](nextPow2(limits.MaxKeysPerCombo)),
		timer:      timer,
	}
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// numCandidates returns the count of live (non-nil) candidates.
func (s *slot) numCandidates() int {
	n := 0
	for n < len(s.candidates) && s.candidates[n].combo != nil {
		n++
	}
	return n
}

// clearCandidates empties the candidate list.
func (s *slot) clearCandidates() {
	for i := range s.candidates {
		if s.candidates[i].combo == nil {
			break
		}
		s.candidates[i] = candidate{}
	}
}

// setupFirstPress populates the slot's candidate list from scratch for the
// first press into an empty slot, given the combos registered for position
// and the currently active layer. Candidates not active on layer are
// skipped entirely.
func (s *slot) setupFirstPress(row []*Combo, layer int, at time.Time) int {
	n := 0
	for _, c := range row {
		if c == nil {
			break
		}
		if c.activeOnLayer(layer) {
			s.candidates[n] = candidate{combo: c, deadline: at.Add(c.Timeout)}
			n++
		}
	}
	return n
}

// dropExpired rewrites the candidate list contiguously, keeping only
// candidates whose deadline is strictly after at.
func (s *slot) dropExpired(at time.Time) int {
	n := 0
	for i := range s.candidates {
		c := s.candidates[i]
		if c.combo == nil {
			break
		}
		if c.deadline.After(at) {
			s.candidates[n] = c
			n++
		}
	}
	for i := n; i < len(s.candidates); i++ {
		s.candidates[i] = candidate{}
	}
	return n
}

// filter intersects the current (already-live) candidate list with the
// combos registered for position. Both lists are sorted by (length, virtual
// position), so a single merge pass suffices: O(MaxCombosPerKey).
func (s *slot) filter(row []*Combo) int {
	matches := 0
	ci, ri := 0, 0
	for ci < len(s.candidates) && ri < len(row) {
		cand := s.candidates[ci].combo
		look := row[ri]
		if cand == nil || look == nil {
			break
		}
		switch {
		case cand.VirtualPosition == look.VirtualPosition:
			s.candidates[matches] = s.candidates[ci]
			matches++
			ci++
			ri++
		case len(cand.Positions) > len(look.Positions):
			ri++
		case len(cand.Positions) < len(look.Positions):
			ci++
		case cand.VirtualPosition > look.VirtualPosition:
			ri++
		default: // cand.VirtualPosition < look.VirtualPosition
			ci++
		}
	}
	for i := matches; i < len(s.candidates); i++ {
		s.candidates[i] = candidate{}
	}
	return matches
}

// firstDeadline returns the minimum deadline over live candidates, and
// whether any candidate exists.
func (s *slot) firstDeadline() (time.Time, bool) {
	var first time.Time
	found := false
	for i := range s.candidates {
		c := s.candidates[i]
		if c.combo == nil {
			break
		}
		if !found || c.deadline.Before(first) {
			first = c.deadline
			found = true
		}
	}
	return first, found
}

// completelyPressed reports whether every one of a candidate's key positions
// has a live entry in the capture buffer. The capture buffer never has holes
// within its live range (entries are only cleared by a release step or a
// full combo-length transfer, both of which operate on leading/trailing
// runs), so this reduces to a length check rather than a scan for nulls —
// but it deliberately does not mean "the last press closed it": if the
// buffer's head was trimmed by an earlier re-raise, the length still
// reflects exactly what's currently captured.
func (s *slot) completelyPressed(c *Combo) bool {
	return s.capture.Len() >= len(c.Positions)
}

// claimedPositions returns every position referenced by any live candidate.
func (s *slot) claimedPositions() []int {
	var out []int
	for i := range s.candidates {
		c := s.candidates[i].combo
		if c == nil {
			break
		}
		out = append(out, c.Positions...)
	}
	return out
}
