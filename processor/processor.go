// Package processor implements the inbound→outbound event pipeline and
// the serialized session loop that drives it.
package processor

import (
	"go-midifx/arp"
	"go-midifx/debug"
	"go-midifx/harmony"
	"go-midifx/midi"
	"go-midifx/scale"
)

// Processor transforms one inbound event into zero or more outbound
// events: range validation, scale snap, held-note tracking, harmony
// delegation, arp consumption, then transpose/octave/channel remap.
//
// It owns the held-note set and the per-session transform parameters.
// Process is never called concurrently with itself; the engine run loop
// is its only caller.
type Processor struct {
	held    *midi.HeldNoteSet
	arp     *arp.Engine
	harmony *harmony.Engine

	scaleOn bool
	scale   scale.Definition

	transpose int // semitones, -12..+12 (validated at the config boundary)
	octave    int // octaves up/down
	channel   int // output channel remap, -1 = keep incoming
}

// New creates a processor over the shared held-note set and engines.
func New(held *midi.HeldNoteSet, a *arp.Engine, h *harmony.Engine) *Processor {
	return &Processor{
		held:    held,
		arp:     a,
		harmony: h,
		channel: -1,
	}
}

// SetScaleEnabled toggles scale correction.
func (p *Processor) SetScaleEnabled(on bool) { p.scaleOn = on }

// ScaleEnabled reports whether scale correction is on.
func (p *Processor) ScaleEnabled() bool { return p.scaleOn }

// SetScale replaces the active scale for both snap and harmony.
func (p *Processor) SetScale(sc scale.Definition) {
	p.scale = sc
	p.harmony.SetScale(sc)
}

// Scale returns the active scale.
func (p *Processor) Scale() scale.Definition { return p.scale }

// SetTranspose stores the transpose amount. Range checking happens at
// the config boundary, not here.
func (p *Processor) SetTranspose(semitones int) { p.transpose = semitones }

// Transpose returns the transpose amount.
func (p *Processor) Transpose() int { return p.transpose }

// SetOctave stores the octave shift.
func (p *Processor) SetOctave(octaves int) { p.octave = octaves }

// Octave returns the octave shift.
func (p *Processor) Octave() int { return p.octave }

// SetChannel sets the output channel remap; -1 keeps the incoming
// channel.
func (p *Processor) SetChannel(ch int) { p.channel = ch }

// Channel returns the output channel remap.
func (p *Processor) Channel() int { return p.channel }

// Held returns a snapshot of the held notes in press order.
func (p *Processor) Held() []midi.HeldNote { return p.held.AsPlayed() }

// Process runs the pipeline for one inbound event and returns the final
// outbound events, already transformed. An invalid event returns the
// range error and no output.
func (p *Processor) Process(ev midi.Event) ([]midi.Event, error) {
	if err := ev.Validate(); err != nil {
		return nil, err
	}

	// A zero-velocity NoteOn is a release on the wire; normalize before
	// anything downstream can see it.
	if ev.Kind == midi.NoteOn && ev.Velocity == 0 {
		ev.Kind = midi.NoteOff
	}

	playerNote := ev.Origin == midi.Player && ev.IsNote()

	if playerNote && p.scaleOn {
		ev.Note = p.scale.Snap(ev.Note)
	}

	var out []midi.Event

	if playerNote {
		switch ev.Kind {
		case midi.NoteOn:
			h, refreshed := p.held.NoteOn(ev.Note, ev.Velocity, ev.Channel)
			if refreshed {
				debug.Log("processor", "re-press %s refreshed", midi.NoteName(ev.Note))
			}
			p.arp.NoteOn(h)
			// The melody note goes out ahead of its harmony voices.
			if !p.arp.Enabled() {
				out = append(out, ev)
			}
			out = append(out, p.harmony.NoteOn(ev.Note, ev.Velocity, ev.Channel)...)
		case midi.NoteOff:
			if _, ok := p.held.NoteOff(ev.Note); !ok {
				debug.Log("processor", "stray note_off %s ignored", midi.NoteName(ev.Note))
			}
			if !p.arp.Enabled() {
				out = append(out, ev)
			}
			out = append(out, p.harmony.NoteOff(ev.Note)...)
		}
	} else {
		// Generated events and CC/program changes always pass through.
		out = append(out, ev)
	}

	final := out[:0]
	for _, o := range out {
		if t, ok := p.Transform(o); ok {
			final = append(final, t)
		}
	}
	return final, nil
}

// Transform applies transpose, octave shift and channel remap. Notes
// shifted outside 0-127 are dropped (returns false); dropping the On
// and Off of a note symmetrically keeps lifecycles balanced.
func (p *Processor) Transform(ev midi.Event) (midi.Event, bool) {
	if ev.IsNote() {
		n := int(ev.Note) + p.transpose + 12*p.octave
		if n < 0 || n > 127 {
			debug.Log("processor", "note %d shifted out of range, dropped", ev.Note)
			return ev, false
		}
		ev.Note = uint8(n)
	}
	if p.channel >= 0 {
		ev.Channel = uint8(p.channel)
	}
	return ev, true
}

// AllNotesOff is the panic path: it flushes the held set, every arp
// sounding note and every harmony voice, each via its own NoteOff.
// Arp releases go out through the engine's own emit path; the rest are
// returned, already transformed, for the caller to send.
func (p *Processor) AllNotesOff() []midi.Event {
	var out []midi.Event
	for _, h := range p.held.Clear() {
		ev := midi.Event{Kind: midi.NoteOff, Note: h.Note, Channel: h.Channel, Origin: midi.Player}
		if t, ok := p.Transform(ev); ok {
			out = append(out, t)
		}
	}
	p.arp.ClearLatch()
	p.arp.Flush()
	for _, ev := range p.harmony.Flush() {
		if t, ok := p.Transform(ev); ok {
			out = append(out, t)
		}
	}
	debug.Log("processor", "all notes off: flushed %d events", len(out))
	return out
}
