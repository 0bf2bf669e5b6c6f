package arp

// AccentMultiplier boosts the velocity of accented steps.
const AccentMultiplier = 1.25

// stepVelocity computes the final velocity for a note sounded on a step:
// base velocity scaled by the step's velocity scale and accent boost,
// clamped to 1-127. A zero-velocity NoteOn is illegal on the wire, so
// the floor is 1; the ceiling is the MIDI maximum.
func stepVelocity(base uint8, step Step) uint8 {
	v := float64(base) * step.VelocityScale
	if step.Accent {
		v *= AccentMultiplier
	}
	if v < 1 {
		return 1
	}
	if v > 127 {
		return 127
	}
	return uint8(v)
}
