// Package arp implements the pattern-driven arpeggiator: the step
// pattern, mode dispatch, tick clock and the note-producing engine.
package arp

// Step is one slot of an arp pattern.
type Step struct {
	Active        bool
	Accent        bool
	Hold          bool
	VelocityScale float64 // 0.0-1.0 multiplier on the source velocity
}

// PatternLength is the default number of steps.
const PatternLength = 16

// Pattern is a fixed-order sequence of steps. A pattern always has at
// least one step; editing can never shrink it below that.
type Pattern struct {
	steps []Step
}

// DefaultPattern returns a 16-step pattern with every step active at
// full velocity.
func DefaultPattern() Pattern {
	steps := make([]Step, PatternLength)
	for i := range steps {
		steps[i] = Step{Active: true, VelocityScale: 1.0}
	}
	return Pattern{steps: steps}
}

// NewPattern builds a pattern from the given steps. An empty slice
// yields the default pattern.
func NewPattern(steps []Step) Pattern {
	if len(steps) == 0 {
		return DefaultPattern()
	}
	p := Pattern{steps: make([]Step, len(steps))}
	copy(p.steps, steps)
	return p
}

// Len returns the number of steps.
func (p Pattern) Len() int {
	return len(p.steps)
}

// Step returns the step at index i modulo the pattern length.
func (p Pattern) Step(i int) Step {
	return p.steps[i%len(p.steps)]
}

// SetStep replaces the step at index i. Out-of-range indices are ignored.
func (p *Pattern) SetStep(i int, s Step) {
	if i >= 0 && i < len(p.steps) {
		p.steps[i] = s
	}
}

// Toggle flips the active flag of step i.
func (p *Pattern) Toggle(i int) {
	if i >= 0 && i < len(p.steps) {
		p.steps[i].Active = !p.steps[i].Active
	}
}

// Steps returns a copy of the step slice.
func (p Pattern) Steps() []Step {
	out := make([]Step, len(p.steps))
	copy(out, p.steps)
	return out
}
