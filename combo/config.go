// Package combo implements the decision core of a keyboard combo (chord)
// engine: given a stream of per-key press/release events, it decides
// whether an in-flight set of temporally-overlapping presses matches a
// configured multi-key combo, and if so fires that combo's behavior
// instead of letting the individual key events pass through.
//
// The engine itself does not load configuration, execute behaviors, query
// layer state, or implement an event bus; those are supplied by the host
// through the Bus, Behavior, LayerQuery, and Timer interfaces in bus.go.
package combo

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/exp/slices"
)

// AnyLayer is the sentinel layer value meaning "active on every layer",
// conventionally placed as the sole entry of Layers.
const AnyLayer = -1

// Combo is an immutable combo definition, supplied at construction time.
type Combo struct {
	// Name identifies the combo for logging/debugging purposes only.
	Name string

	// Positions is the ordered set of physical key positions (2..MaxKeysPerCombo)
	// that must all be pressed, within Timeout of the first, to fire this combo.
	Positions []int

	// Behavior is the target invoked on fire/release.
	Behavior Behavior

	// Timeout bounds how long the engine waits, from the first key of this
	// combo, for the rest of its keys to be pressed.
	Timeout time.Duration

	// SlowRelease delays the behavior's Release until the last held key of
	// the combo is released, rather than firing it at the first release.
	SlowRelease bool

	// VirtualPosition is a stable identifier outside the physical keymap
	// range, passed to Behavior so downstream stages (e.g. hold-taps) can
	// tell which combo fired.
	VirtualPosition int

	// Layers lists the layers this combo is active on. A single entry equal
	// to AnyLayer means "every layer".
	Layers []int
}

func (c *Combo) activeOnLayer(layer int) bool {
	if len(c.Layers) > 0 && c.Layers[0] == AnyLayer {
		return true
	}
	return slices.Contains(c.Layers, layer)
}

// comboLess implements the load-bearing sort order: ascending combo length,
// then ascending virtual position. Candidate filtering (slot.go) relies on
// merging two lists sorted this way.
func comboLess(a, b *Combo) bool {
	if len(a.Positions) != len(b.Positions) {
		return len(a.Positions) < len(b.Positions)
	}
	return a.VirtualPosition < b.VirtualPosition
}

// Limits sizes the engine's fixed tables up front: the slots, each slot's
// candidate list, the active-combo table and the per-position lookup rows.
// Event handling still allocates: each slot's capture buffer starts at
// MaxKeysPerCombo rounded up to a power of two and grows when more presses
// are captured, and refreshing claims and releasing captures build
// temporary slices.
type Limits struct {
	// MaxKeysPerCombo is K_MAX: the widest combo's key count.
	MaxKeysPerCombo int
	// MaxCombosPerKey is C_PER_KEY: combos sharing a single physical position.
	MaxCombosPerKey int
	// MaxPressedCombos is P: concurrently in-flight attempts (slots).
	MaxPressedCombos int
	// KeymapLen is the number of physical key positions.
	KeymapLen int
}

// DefaultLimits are sane defaults for a typical split keyboard.
var DefaultLimits = Limits{
	MaxKeysPerCombo:  4,
	MaxCombosPerKey:  4,
	MaxPressedCombos: 4,
	KeymapLen:        80,
}

func (l Limits) validate() error {
	if l.MaxKeysPerCombo <= 0 || l.MaxCombosPerKey <= 0 || l.MaxPressedCombos <= 0 || l.KeymapLen <= 0 {
		return errors.New("combo: limits must all be positive")
	}
	return nil
}

// registry is the static config registry: a per-position lookup table of
// combos, sorted per comboLess, built once at construction and never
// mutated afterward.
type registry struct {
	limits Limits
	combos []Combo
	lookup [][]*Combo // indexed by position, each slice has len == MaxCombosPerKey
}

// ErrUnknownPosition is returned when a combo references a position outside
// [0, KeymapLen).
var ErrUnknownPosition = errors.New("combo: unknown key position")

// ErrTooManyCombos is returned when a position already carries
// Limits.MaxCombosPerKey combos.
var ErrTooManyCombos = errors.New("combo: too many combos for key position")

func newRegistry(combos []Combo, limits Limits) (*registry, error) {
	if err := limits.validate(); err != nil {
		return nil, err
	}

	r := &registry{
		limits: limits,
		combos: append([]Combo(nil), combos...),
		lookup: make([][]*Combo, limits.KeymapLen),
	}
	for i := range r.lookup {
		r.lookup[i] = make([]*Combo, limits.MaxCombosPerKey)
	}

	for i := range r.combos {
		if err := r.insert(&r.combos[i]); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// insert performs an in-place sorted insert: scan forward, and when the
// slot's combo sorts after the new one, displace it and carry the displaced
// combo onward.
func (r *registry) insert(c *Combo) error {
	for _, p := range c.Positions {
		if p < 0 || p >= r.limits.KeymapLen {
			return fmt.Errorf("%w: position %d (combo %q)", ErrUnknownPosition, p, c.Name)
		}

		insert := c
		set := false
		row := r.lookup[p]
		for j := 0; j < len(row); j++ {
			at := row[j]
			if at == nil {
				row[j] = insert
				set = true
				break
			}
			if comboLess(at, insert) {
				continue
			}
			row[j] = insert
			insert = at
		}
		if !set {
			return fmt.Errorf("%w: position %d, limit %d", ErrTooManyCombos, p, r.limits.MaxCombosPerKey)
		}
	}
	return nil
}
