package midi

import "testing"

func TestHeldNoteSetPressRelease(t *testing.T) {
	s := NewHeldNoteSet()
	s.NoteOn(60, 100, 0)
	s.NoteOn(64, 90, 0)

	if s.Len() != 2 {
		t.Fatalf("Len = %d, want 2", s.Len())
	}
	if !s.Holds(60) || !s.Holds(64) {
		t.Fatal("expected 60 and 64 held")
	}

	h, ok := s.NoteOff(60)
	if !ok || h.Note != 60 || h.Velocity != 100 {
		t.Fatalf("NoteOff(60) = %+v, %v", h, ok)
	}
	if s.Holds(60) {
		t.Fatal("60 still held after release")
	}
	if s.Len() != 1 {
		t.Fatalf("Len = %d, want 1", s.Len())
	}
}

func TestHeldNoteSetStrayReleaseNoop(t *testing.T) {
	s := NewHeldNoteSet()
	s.NoteOn(60, 100, 0)

	if _, ok := s.NoteOff(72); ok {
		t.Fatal("stray NoteOff reported a removal")
	}
	if s.Len() != 1 {
		t.Fatalf("Len = %d after stray release, want 1", s.Len())
	}
}

func TestHeldNoteSetRefreshNoDuplicate(t *testing.T) {
	s := NewHeldNoteSet()
	s.NoteOn(60, 100, 0)
	s.NoteOn(64, 90, 0)

	h, refreshed := s.NoteOn(60, 50, 0)
	if !refreshed {
		t.Fatal("re-press not reported as refresh")
	}
	if s.Len() != 2 {
		t.Fatalf("Len = %d after re-press, want 2", s.Len())
	}
	if h.Velocity != 50 {
		t.Fatalf("refreshed velocity = %d, want 50", h.Velocity)
	}

	// Refresh moves the note to the end of as-played order.
	order := s.AsPlayed()
	if order[len(order)-1].Note != 60 {
		t.Fatalf("as-played tail = %d, want 60", order[len(order)-1].Note)
	}
}

func TestHeldNoteSetByPitch(t *testing.T) {
	s := NewHeldNoteSet()
	s.NoteOn(67, 100, 0)
	s.NoteOn(60, 100, 0)
	s.NoteOn(64, 100, 0)

	byPitch := s.ByPitch()
	want := []uint8{60, 64, 67}
	for i, h := range byPitch {
		if h.Note != want[i] {
			t.Fatalf("ByPitch[%d] = %d, want %d", i, h.Note, want[i])
		}
	}

	// AsPlayed keeps press order.
	asPlayed := s.AsPlayed()
	wantOrder := []uint8{67, 60, 64}
	for i, h := range asPlayed {
		if h.Note != wantOrder[i] {
			t.Fatalf("AsPlayed[%d] = %d, want %d", i, h.Note, wantOrder[i])
		}
	}
}

func TestHeldNoteSetClear(t *testing.T) {
	s := NewHeldNoteSet()
	s.NoteOn(60, 100, 0)
	s.NoteOn(64, 100, 1)

	removed := s.Clear()
	if len(removed) != 2 {
		t.Fatalf("Clear returned %d entries, want 2", len(removed))
	}
	if s.Len() != 0 {
		t.Fatalf("Len = %d after Clear, want 0", s.Len())
	}
}
