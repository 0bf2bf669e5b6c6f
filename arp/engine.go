package arp

import (
	"math/rand"
	"time"

	"go-midifx/debug"
	"go-midifx/midi"
)

// SoundingNote is one note currently ON from arp output, recorded so it
// can always be released: on gate, at the step end, or force-flushed.
type SoundingNote struct {
	Note    uint8
	Channel uint8
	Hold    bool
}

// Engine consumes held-note state and clock ticks and produces
// arpeggiated note events through the emit callback. All methods must be
// called from the processor's serialized run loop; the engine has no
// locking of its own.
type Engine struct {
	enabled bool
	pattern Pattern
	mode    Mode
	pending *Mode // mode switch staged until the next tick boundary
	latch   bool
	latched []midi.HeldNote

	held *midi.HeldNoteSet

	stepIndex int
	pos       int
	bars      int64
	sounding  []SoundingNote

	rng   *rand.Rand
	emit  func(midi.Event)
	onBar func(bar int64)
}

// NewEngine creates an arp engine reading held notes from held and
// emitting generated events through emit.
func NewEngine(held *midi.HeldNoteSet, emit func(midi.Event)) *Engine {
	return &Engine{
		pattern: DefaultPattern(),
		held:    held,
		emit:    emit,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetRand replaces the random source (fixed-seed test mode).
func (e *Engine) SetRand(rng *rand.Rand) {
	e.rng = rng
}

// SetBarFunc registers a callback fired each time the pattern wraps.
func (e *Engine) SetBarFunc(fn func(bar int64)) {
	e.onBar = fn
}

// Enabled reports whether the engine is producing notes.
func (e *Engine) Enabled() bool {
	return e.enabled
}

// SetEnabled toggles the engine. Disabling flushes every sounding note
// before the toggle completes, so no note is orphaned across the
// boundary. Enabling restarts from the top of the pattern.
func (e *Engine) SetEnabled(on bool) {
	if !on {
		e.Flush()
	}
	if on && !e.enabled {
		e.stepIndex = 0
		e.pos = 0
		if e.pending != nil {
			e.mode = *e.pending
			e.pending = nil
		}
	}
	e.enabled = on
}

// Mode returns the active mode (ignoring a staged switch).
func (e *Engine) Mode() Mode {
	return e.mode
}

// SetMode stages a mode switch that takes effect on the next tick
// boundary, never mid-step. While disabled it applies immediately.
func (e *Engine) SetMode(m Mode) {
	if !e.enabled {
		e.mode = m
		e.pos = 0
		return
	}
	e.pending = &m
}

// Pattern returns a copy of the active pattern.
func (e *Engine) Pattern() Pattern {
	return NewPattern(e.pattern.Steps())
}

// SetPattern swaps the pattern, flushing sounding notes first.
func (e *Engine) SetPattern(p Pattern) {
	e.Flush()
	e.pattern = p
	e.stepIndex = 0
}

// ToggleStep flips one pattern step's active flag.
func (e *Engine) ToggleStep(i int) {
	e.pattern.Toggle(i)
}

// StepIndex returns the current position in the pattern.
func (e *Engine) StepIndex() int {
	return e.stepIndex
}

// Latch reports whether latch is on.
func (e *Engine) Latch() bool {
	return e.latch
}

// SetLatch toggles latch. Turning it on seeds the latched pool from the
// currently held notes; turning it off drops the pool so the engine
// tracks physical holds again.
func (e *Engine) SetLatch(on bool) {
	e.latch = on
	if on {
		e.latched = e.held.AsPlayed()
	} else {
		e.latched = nil
	}
}

// ClearLatch empties the latched pool without touching latch mode.
func (e *Engine) ClearLatch() {
	e.latched = nil
}

// NoteOn observes a player press (after held-note tracking). With latch
// on, a press that starts a new chord (nothing else physically held)
// replaces the latched pool.
func (e *Engine) NoteOn(h midi.HeldNote) {
	if !e.latch {
		return
	}
	if e.held.Len() == 1 {
		e.latched = nil
	}
	for i := range e.latched {
		if e.latched[i].Note == h.Note {
			e.latched[i] = h
			return
		}
	}
	e.latched = append(e.latched, h)
}

// notePool returns the notes the dispatcher selects from this tick.
// Player releases need no observation here: with latch on the pool
// keeps the note, and with latch off the held set is read live.
func (e *Engine) notePool() []midi.HeldNote {
	if e.latch {
		return e.latched
	}
	return e.held.AsPlayed()
}

// OnTick handles one clock pulse on the serialized run loop.
func (e *Engine) OnTick(t Tick) {
	if t.Gate {
		e.onGate()
		return
	}
	e.onStep()
}

// onStep runs a tick boundary: release the previous step's notes, apply
// a staged mode switch, then sound the current step.
func (e *Engine) onStep() {
	e.releaseAll()

	if e.pending != nil {
		e.mode = *e.pending
		e.pending = nil
		e.pos = 0
	}

	if !e.enabled {
		return
	}

	step := e.pattern.Step(e.stepIndex)
	e.advance()

	if !step.Active {
		return
	}
	pool := e.notePool()
	if len(pool) == 0 {
		return
	}

	selected, next := selectNotes(e.mode, pool, e.pos, e.rng)
	e.pos = next

	now := time.Now()
	for _, h := range selected {
		vel := stepVelocity(h.Velocity, step)
		e.emit(midi.Event{
			Kind:      midi.NoteOn,
			Note:      h.Note,
			Velocity:  vel,
			Channel:   h.Channel,
			Origin:    midi.Generated,
			Timestamp: now,
		})
		e.sounding = append(e.sounding, SoundingNote{Note: h.Note, Channel: h.Channel, Hold: step.Hold})
	}
}

// onGate releases the non-hold notes of the current step. Hold-step
// notes stay sounding until the step ends at the next tick boundary.
func (e *Engine) onGate() {
	kept := e.sounding[:0]
	for _, s := range e.sounding {
		if s.Hold {
			kept = append(kept, s)
			continue
		}
		e.release(s)
	}
	e.sounding = kept
}

func (e *Engine) advance() {
	e.stepIndex++
	if e.stepIndex >= e.pattern.Len() {
		e.stepIndex = 0
		e.bars++
		if e.onBar != nil {
			e.onBar(e.bars)
		}
	}
}

func (e *Engine) release(s SoundingNote) {
	e.emit(midi.Event{
		Kind:      midi.NoteOff,
		Note:      s.Note,
		Channel:   s.Channel,
		Origin:    midi.Generated,
		Timestamp: time.Now(),
	})
}

func (e *Engine) releaseAll() {
	for _, s := range e.sounding {
		e.release(s)
	}
	e.sounding = e.sounding[:0]
}

// Flush force-releases every sounding note. Called on disable, pattern
// or tempo changes and from the panic path; this is the no-stuck-note
// guarantee.
func (e *Engine) Flush() {
	if len(e.sounding) > 0 {
		debug.Log("arp", "flushing %d sounding notes", len(e.sounding))
	}
	e.releaseAll()
}

// Sounding returns a copy of the currently sounding notes.
func (e *Engine) Sounding() []SoundingNote {
	out := make([]SoundingNote, len(e.sounding))
	copy(out, e.sounding)
	return out
}
