// Package harmony derives scale-snapped accompaniment voices tied 1:1
// to melody notes.
package harmony

import (
	"time"

	"go-midifx/debug"
	"go-midifx/midi"
	"go-midifx/scale"
)

// DefaultIntervals is a third plus a fifth above the melody.
var DefaultIntervals = []int{4, 7}

// DefaultVoiceLimit caps concurrent harmony voices.
const DefaultVoiceLimit = 4

// Voice is one generated accompaniment note bound to the melody note
// that created it. It is destroyed exactly once: by the matching melody
// NoteOff or by a forced flush.
type Voice struct {
	Source    uint8
	Generated uint8
	Channel   uint8
}

// Engine manages harmony voices. Voices are created only for notes
// pressed while harmony is enabled; toggling mid-hold neither adds nor
// silently drops voices for notes already down (disable flushes them
// audibly, with NoteOffs).
//
// Methods must be called from the processor's serialized run loop.
type Engine struct {
	enabled   bool
	intervals []int
	limit     int
	scale     scale.Definition

	voices map[uint8][]Voice // source note -> voices
	count  int
}

// NewEngine creates a harmony engine with the given interval offsets,
// voice limit and scale.
func NewEngine(intervals []int, limit int, sc scale.Definition) *Engine {
	e := &Engine{
		voices: make(map[uint8][]Voice),
		scale:  sc,
	}
	e.SetIntervals(intervals)
	e.SetVoiceLimit(limit)
	return e
}

// Enabled reports whether new melody notes get harmony voices.
func (e *Engine) Enabled() bool {
	return e.enabled
}

// SetEnabled toggles harmony. Disabling returns the NoteOffs that flush
// every active voice, so nothing is orphaned across the boundary.
func (e *Engine) SetEnabled(on bool) []midi.Event {
	if !on && e.enabled {
		e.enabled = false
		return e.Flush()
	}
	e.enabled = on
	return nil
}

// SetIntervals replaces the interval offsets, each clamped to 1-24
// semitones.
func (e *Engine) SetIntervals(intervals []int) {
	cleaned := make([]int, 0, len(intervals))
	for _, iv := range intervals {
		if iv < 1 {
			iv = 1
		}
		if iv > 24 {
			iv = 24
		}
		cleaned = append(cleaned, iv)
	}
	if len(cleaned) == 0 {
		cleaned = append(cleaned, DefaultIntervals...)
	}
	e.intervals = cleaned
}

// SetVoiceLimit updates the maximum concurrent voices, clamped to 1-16.
func (e *Engine) SetVoiceLimit(limit int) {
	if limit < 1 {
		limit = 1
	}
	if limit > 16 {
		limit = 16
	}
	e.limit = limit
}

// SetScale updates the scale used to snap generated pitches.
func (e *Engine) SetScale(sc scale.Definition) {
	e.scale = sc
}

// ActiveVoices returns the number of live voices.
func (e *Engine) ActiveVoices() int {
	return e.count
}

// NoteOn creates voices for a melody press and returns their NoteOn
// events. A re-press of a source note that still has voices recreates
// them so the 1:1 lifecycle holds.
func (e *Engine) NoteOn(note, velocity, channel uint8) []midi.Event {
	if !e.enabled {
		return nil
	}

	var out []midi.Event
	if old, ok := e.voices[note]; ok {
		out = append(out, e.destroy(note, old)...)
	}

	now := time.Now()
	var created []Voice
	for _, iv := range e.intervals {
		if e.count+len(created) >= e.limit {
			debug.Log("harmony", "voice limit %d reached, truncating", e.limit)
			break
		}
		pitch := int(note) + iv
		if pitch > 127 {
			continue
		}
		snapped := e.scale.Snap(uint8(pitch))
		if snapped == note || containsPitch(created, snapped) {
			continue
		}
		created = append(created, Voice{Source: note, Generated: snapped, Channel: channel})
		out = append(out, midi.Event{
			Kind:      midi.NoteOn,
			Note:      snapped,
			Velocity:  velocity,
			Channel:   channel,
			Origin:    midi.Generated,
			Timestamp: now,
		})
	}

	if len(created) > 0 {
		e.voices[note] = created
		e.count += len(created)
	}
	return out
}

// NoteOff destroys the voices for a melody release and returns their
// NoteOff events. Unknown sources return nothing.
func (e *Engine) NoteOff(note uint8) []midi.Event {
	voices, ok := e.voices[note]
	if !ok {
		return nil
	}
	return e.destroy(note, voices)
}

func (e *Engine) destroy(note uint8, voices []Voice) []midi.Event {
	delete(e.voices, note)
	e.count -= len(voices)
	now := time.Now()
	out := make([]midi.Event, 0, len(voices))
	for _, v := range voices {
		out = append(out, midi.Event{
			Kind:      midi.NoteOff,
			Note:      v.Generated,
			Channel:   v.Channel,
			Origin:    midi.Generated,
			Timestamp: now,
		})
	}
	return out
}

// Flush destroys every voice and returns the NoteOffs.
func (e *Engine) Flush() []midi.Event {
	var out []midi.Event
	for note, voices := range e.voices {
		out = append(out, e.destroy(note, voices)...)
	}
	return out
}

func containsPitch(voices []Voice, pitch uint8) bool {
	for _, v := range voices {
		if v.Generated == pitch {
			return true
		}
	}
	return false
}
