package midi

import (
	"fmt"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// Kind identifies the type of a MIDI event
type Kind uint8

const (
	NoteOn Kind = iota
	NoteOff
	ControlChange
	ProgramChange
)

func (k Kind) String() string {
	switch k {
	case NoteOn:
		return "note_on"
	case NoteOff:
		return "note_off"
	case ControlChange:
		return "control_change"
	case ProgramChange:
		return "program_change"
	}
	return "unknown"
}

// Origin distinguishes performer events from events synthesized by the
// arp or harmony engines. Generated events bypass held-note tracking and
// the arp's input consumption, so they can never feed back into themselves.
type Origin uint8

const (
	Player Origin = iota
	Generated
)

func (o Origin) String() string {
	if o == Generated {
		return "generated"
	}
	return "player"
}

// Event is a single MIDI event flowing through the pipeline.
// For ControlChange, Note holds the controller number and Velocity the value.
// For ProgramChange, Note holds the program number.
// Events are treated as immutable once constructed; transforms copy.
type Event struct {
	Kind      Kind
	Note      uint8
	Velocity  uint8
	Channel   uint8
	Origin    Origin
	Timestamp time.Time
}

// RangeError reports an event field outside its legal MIDI range.
type RangeError struct {
	Field string
	Value int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("midi: %s out of range: %d", e.Field, e.Value)
}

// Validate checks note/velocity (0-127) and channel (0-15) ranges.
func (e Event) Validate() error {
	if e.Note > 127 {
		return &RangeError{Field: "note", Value: int(e.Note)}
	}
	if e.Velocity > 127 {
		return &RangeError{Field: "velocity", Value: int(e.Velocity)}
	}
	if e.Channel > 15 {
		return &RangeError{Field: "channel", Value: int(e.Channel)}
	}
	return nil
}

// Message converts the event to a gomidi wire message.
func (e Event) Message() gomidi.Message {
	switch e.Kind {
	case NoteOn:
		return gomidi.NoteOn(e.Channel, e.Note, e.Velocity)
	case NoteOff:
		return gomidi.NoteOff(e.Channel, e.Note)
	case ControlChange:
		return gomidi.ControlChange(e.Channel, e.Note, e.Velocity)
	case ProgramChange:
		return gomidi.ProgramChange(e.Channel, e.Note)
	}
	return nil
}

// IsNote reports whether the event is a NoteOn or NoteOff.
func (e Event) IsNote() bool {
	return e.Kind == NoteOn || e.Kind == NoteOff
}

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NoteName converts a MIDI note number to a name like "C4" or "D#5".
func NoteName(note uint8) string {
	if note > 127 {
		return fmt.Sprintf("N%d", note)
	}
	octave := int(note)/12 - 1
	return fmt.Sprintf("%s%d", noteNames[note%12], octave)
}
