package combo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActiveCombo_AllPressedAllReleased(t *testing.T) {
	a := &activeCombo{held: []heldKey{
		{ev: KeyEvent{Position: 0}, present: true},
		{ev: KeyEvent{Position: 1}, present: true},
	}}
	assert.True(t, a.allPressed())
	assert.False(t, a.allReleased())

	a.held[0].present = false
	assert.False(t, a.allPressed())
	assert.False(t, a.allReleased())

	a.held[1].present = false
	assert.False(t, a.allPressed())
	assert.True(t, a.allReleased())
}

func newTestEngine(t *testing.T, limits Limits) *Engine {
	e, err := New(nil, limits, &fakeBus{}, func() int { return 0 }, func(cb func()) Timer { return &fakeTimer{callback: cb} })
	require.NoError(t, err)
	return e
}

func TestEngine_StoreActiveCombo_ContiguousAndFull(t *testing.T) {
	limits := testLimits()
	limits.MaxPressedCombos = 2
	e := newTestEngine(t, limits)

	c1 := &Combo{Name: "a"}
	c2 := &Combo{Name: "b"}
	a1 := e.storeActiveCombo(c1)
	require.NotNil(t, a1)
	a2 := e.storeActiveCombo(c2)
	require.NotNil(t, a2)
	assert.Equal(t, 2, e.activeCount)

	a3 := e.storeActiveCombo(&Combo{Name: "c"})
	assert.Nil(t, a3, "the active-combo table is full")
}

func TestEngine_DeactivateCombo_SwapsLastIntoPlace(t *testing.T) {
	limits := testLimits()
	limits.MaxPressedCombos = 3
	e := newTestEngine(t, limits)

	a := e.storeActiveCombo(&Combo{Name: "a"})
	b := e.storeActiveCombo(&Combo{Name: "b"})
	c := e.storeActiveCombo(&Combo{Name: "c"})
	_ = a
	_ = b
	_ = c

	e.deactivateCombo(0) // remove "a"; "c" (the last entry) should move into slot 0
	require.Equal(t, 2, e.activeCount)
	assert.Equal(t, "c", e.activeCombos[0].combo.Name)
	assert.Equal(t, "b", e.activeCombos[1].combo.Name)
}
