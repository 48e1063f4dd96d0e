package combo

// heldKey is one entry of an active combo's held-keys array: the captured
// press event for one of the combo's positions, or empty once released.
type heldKey struct {
	ev      KeyEvent
	present bool
}

// activeCombo is a fired combo that still owns some of its held keys. held
// has exactly len(combo.Positions) meaningful entries; entries are nulled as
// each key is released.
type activeCombo struct {
	combo *Combo
	held  []heldKey
}

func (a *activeCombo) allPressed() bool {
	for i := range a.held {
		if !a.held[i].present {
			return false
		}
	}
	return true
}

func (a *activeCombo) allReleased() bool {
	for i := range a.held {
		if a.held[i].present {
			return false
		}
	}
	return true
}

// storeActiveCombo finds a free active-combo entry and claims it for combo,
// keeping the table contiguous from index 0. Returns nil if the table is
// full.
func (e *Engine) storeActiveCombo(c *Combo) *activeCombo {
	if e.activeCount >= len(e.activeCombos) {
		return nil
	}
	a := &e.activeCombos[e.activeCount]
	a.combo = c
	a.held = a.held[:0]
	e.activeCount++
	return a
}

// deactivateCombo removes the active combo at index idx, swapping the last
// contiguous entry into its place.
func (e *Engine) deactivateCombo(idx int) {
	e.activeCount--
	if idx != e.activeCount {
		e.activeCombos[idx] = e.activeCombos[e.activeCount]
	}
	e.activeCombos[e.activeCount] = activeCombo{}
}
