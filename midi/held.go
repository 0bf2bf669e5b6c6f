package midi

import "sort"

// HeldNote is one currently-pressed melody note. PressOrder is a
// session-wide monotonically increasing sequence number used to break
// ties in ordered arp modes.
type HeldNote struct {
	Note       uint8
	Velocity   uint8
	Channel    uint8
	PressOrder uint64
}

// HeldNoteSet tracks currently-pressed notes, keyed by note value with
// insertion order preserved. Membership mirrors outstanding NoteOn events
// exactly: a NoteOn for an already-held note refreshes it (velocity and
// press order) rather than creating a duplicate, and a NoteOff for a
// note that isn't held is a harmless no-op.
//
// Not safe for concurrent use; the processor's run loop is the only
// mutator and the arp engine only reads snapshots on that same loop.
type HeldNoteSet struct {
	order []HeldNote
	seq   uint64
}

// NewHeldNoteSet creates an empty held-note set.
func NewHeldNoteSet() *HeldNoteSet {
	return &HeldNoteSet{}
}

// NoteOn records a press and returns the stored entry. The bool is true
// if the note was already held and got refreshed instead of inserted.
func (s *HeldNoteSet) NoteOn(note, velocity, channel uint8) (HeldNote, bool) {
	s.seq++
	h := HeldNote{Note: note, Velocity: velocity, Channel: channel, PressOrder: s.seq}
	for i := range s.order {
		if s.order[i].Note == note {
			// Refresh: drop the old entry and re-append so as-played
			// order reflects the most recent press.
			s.order = append(s.order[:i], s.order[i+1:]...)
			s.order = append(s.order, h)
			return h, true
		}
	}
	s.order = append(s.order, h)
	return h, false
}

// NoteOff removes a held note. Returns the removed entry and true, or a
// zero HeldNote and false for a stray NoteOff.
func (s *HeldNoteSet) NoteOff(note uint8) (HeldNote, bool) {
	for i := range s.order {
		if s.order[i].Note == note {
			h := s.order[i]
			s.order = append(s.order[:i], s.order[i+1:]...)
			return h, true
		}
	}
	return HeldNote{}, false
}

// Holds reports whether the note is currently held.
func (s *HeldNoteSet) Holds(note uint8) bool {
	for i := range s.order {
		if s.order[i].Note == note {
			return true
		}
	}
	return false
}

// Len returns the number of held notes.
func (s *HeldNoteSet) Len() int {
	return len(s.order)
}

// AsPlayed returns a copy of the held notes in press order.
func (s *HeldNoteSet) AsPlayed() []HeldNote {
	out := make([]HeldNote, len(s.order))
	copy(out, s.order)
	return out
}

// ByPitch returns a copy sorted ascending by pitch; equal pitches keep
// earlier press order first.
func (s *HeldNoteSet) ByPitch() []HeldNote {
	out := s.AsPlayed()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Note < out[j].Note
	})
	return out
}

// Clear empties the set and returns the entries that were held, so the
// caller can emit a NoteOff per entry (panic / all-notes-off path).
func (s *HeldNoteSet) Clear() []HeldNote {
	out := s.order
	s.order = nil
	return out
}
