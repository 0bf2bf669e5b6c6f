package eventlog

import (
	"strings"
	"testing"
	"time"

	"go-midifx/midi"
)

func noteOn(note uint8) midi.Event {
	return midi.Event{Kind: midi.NoteOn, Note: note, Velocity: 85, Origin: midi.Player}
}

func TestRingTrimsOldest(t *testing.T) {
	l := New(3)
	for i := uint8(0); i < 5; i++ {
		l.Add(In, noteOn(60+i))
	}

	tail := l.Tail(0)
	if len(tail) != 3 {
		t.Fatalf("len = %d, want 3", len(tail))
	}
	if tail[0].Event.Note != 62 || tail[2].Event.Note != 64 {
		t.Fatalf("tail notes = %d..%d, want 62..64", tail[0].Event.Note, tail[2].Event.Note)
	}
}

func TestTailOldestFirst(t *testing.T) {
	l := New(10)
	l.Add(In, noteOn(60))
	l.Add(Out, noteOn(64))

	tail := l.Tail(2)
	if tail[0].Event.Note != 60 || tail[1].Event.Note != 64 {
		t.Fatalf("tail order = %d, %d", tail[0].Event.Note, tail[1].Event.Note)
	}
}

func TestPauseStopsRecording(t *testing.T) {
	l := New(10)
	l.Add(In, noteOn(60))
	l.Pause()
	l.Add(In, noteOn(64))
	l.Resume()
	l.Add(In, noteOn(67))

	tail := l.Tail(0)
	if len(tail) != 2 {
		t.Fatalf("len = %d, want 2 (paused entry dropped)", len(tail))
	}
}

func TestListenerPanicsContained(t *testing.T) {
	l := New(10)
	l.AddListener(func(Entry) { panic("listener bug") })

	l.Add(In, noteOn(60)) // must not propagate
	if len(l.Tail(0)) != 1 {
		t.Fatal("entry lost to listener panic")
	}
}

func TestEntryString(t *testing.T) {
	ev := midi.Event{
		Kind:      midi.NoteOn,
		Note:      60,
		Velocity:  85,
		Channel:   0,
		Timestamp: time.Date(2026, 1, 1, 12, 34, 56, 0, time.UTC),
	}
	s := Entry{Dir: In, Event: ev}.String()
	for _, want := range []string{">", "12:34:56", "note_on", "CH  1", "C4 velocity 85"} {
		if !strings.Contains(s, want) {
			t.Fatalf("entry %q missing %q", s, want)
		}
	}
}
