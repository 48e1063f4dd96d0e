package combo

import "errors"

// ErrNoFreeSlot is the runtime resource-exhaustion condition where every
// slot is already claimed by some position when a new attempt needs one.
// The caller-visible effect is pass-through: the key is treated as an
// ordinary, un-combo'd press.
var ErrNoFreeSlot = errors.New("combo: no free slot available")

// ErrNoFreeActiveCombo is the runtime resource-exhaustion condition hit at
// activation time: every active-combo entry is in use when a combo fires.
// The combo fails to fire and its captures are simply released; the engine
// additionally logs at Err level so the failure isn't silent to an operator
// watching logs.
var ErrNoFreeActiveCombo = errors.New("combo: no free active combo entry")

// ErrNoSlotClaim is the invariant-violation condition where a release
// arrived for a position with no recorded slot claim. The release is passed
// through unmodified.
var ErrNoSlotClaim = errors.New("combo: release with no recorded slot claim")
