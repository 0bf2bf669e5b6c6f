package processor

import (
	"sync"
	"testing"
	"time"

	"go-midifx/arp"
	"go-midifx/midi"
	"go-midifx/scale"
)

type sink struct {
	mu     sync.Mutex
	events []midi.Event
}

func (s *sink) send(ev midi.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func (s *sink) snapshot() []midi.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]midi.Event, len(s.events))
	copy(out, s.events)
	return out
}

func (s *sink) balance() map[uint8]int {
	m := map[uint8]int{}
	for _, ev := range s.snapshot() {
		switch ev.Kind {
		case midi.NoteOn:
			m[ev.Note]++
		case midi.NoteOff:
			m[ev.Note]--
		}
	}
	return m
}

func startEngine(t *testing.T) (*Engine, chan midi.Event, *sink) {
	t.Helper()
	in := make(chan midi.Event, 16)
	out := &sink{}
	e := NewEngine(in, Options{
		Scale: scale.Definition{Root: 0, Type: scale.Major},
		Tempo: 300,
		PPQN:  8,
		Send:  out.send,
	})
	go e.Run()
	t.Cleanup(e.Stop)
	return e, in, out
}

// waitFor polls until the condition holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timeout waiting for %s", what)
}

func TestEngineForwardsPlayerNotes(t *testing.T) {
	e, in, out := startEngine(t)

	in <- midi.Event{Kind: midi.NoteOn, Note: 60, Velocity: 100, Origin: midi.Player}
	waitFor(t, func() bool { return len(out.snapshot()) == 1 }, "forwarded NoteOn")

	got := out.snapshot()[0]
	if got.Kind != midi.NoteOn || got.Note != 60 {
		t.Fatalf("forwarded event = %+v", got)
	}

	snap := e.Snapshot()
	if len(snap.Held) != 1 || snap.Held[0].Note != 60 {
		t.Fatalf("snapshot held = %v", snap.Held)
	}
}

func TestEngineArpProducesAndStops(t *testing.T) {
	e, in, out := startEngine(t)

	in <- midi.Event{Kind: midi.NoteOn, Note: 60, Velocity: 100, Origin: midi.Player}
	waitFor(t, func() bool { return len(e.Snapshot().Held) == 1 }, "held note")

	e.SetArpEnabled(true)
	waitFor(t, func() bool {
		for _, ev := range out.snapshot() {
			if ev.Kind == midi.NoteOn && ev.Origin == midi.Generated {
				return true
			}
		}
		return false
	}, "generated arp note")

	e.SetArpEnabled(false)

	// Disable is synchronous: nothing may be left sounding after it.
	if n := e.Snapshot().Sounding; n != 0 {
		t.Fatalf("sounding = %d after disable", n)
	}
	in <- midi.Event{Kind: midi.NoteOff, Note: 60, Origin: midi.Player}
	waitFor(t, func() bool { return len(e.Snapshot().Held) == 0 }, "release")

	// Consumed player NoteOns make extra NoteOffs harmless; a stuck note
	// would show as a positive balance.
	for note, n := range out.balance() {
		if n > 0 {
			t.Fatalf("note %d left stuck, balance = %d", note, n)
		}
	}
}

func TestEngineHarmonyToggleBalances(t *testing.T) {
	e, in, out := startEngine(t)

	e.SetHarmonyEnabled(true)
	in <- midi.Event{Kind: midi.NoteOn, Note: 60, Velocity: 100, Origin: midi.Player}
	waitFor(t, func() bool { return e.Snapshot().Voices == 2 }, "harmony voices")

	e.SetHarmonyEnabled(false)
	if v := e.Snapshot().Voices; v != 0 {
		t.Fatalf("voices = %d after disable", v)
	}

	in <- midi.Event{Kind: midi.NoteOff, Note: 60, Origin: midi.Player}
	waitFor(t, func() bool { return len(e.Snapshot().Held) == 0 }, "release")

	for note, n := range out.balance() {
		if n != 0 {
			t.Fatalf("note %d on/off balance = %d", note, n)
		}
	}
}

func TestEngineAllNotesOffBalances(t *testing.T) {
	e, in, out := startEngine(t)

	e.SetHarmonyEnabled(true)
	e.SetArpEnabled(true)
	in <- midi.Event{Kind: midi.NoteOn, Note: 60, Velocity: 100, Origin: midi.Player}
	in <- midi.Event{Kind: midi.NoteOn, Note: 64, Velocity: 100, Origin: midi.Player}

	waitFor(t, func() bool { return len(out.snapshot()) > 2 }, "traffic")

	e.SetArpEnabled(false)
	e.AllNotesOff()

	snap := e.Snapshot()
	if len(snap.Held) != 0 || snap.Sounding != 0 || snap.Voices != 0 {
		t.Fatalf("state after panic: held=%d sounding=%d voices=%d",
			len(snap.Held), snap.Sounding, snap.Voices)
	}
	for note, n := range out.balance() {
		if n > 0 {
			t.Fatalf("note %d left stuck after panic, balance = %d", note, n)
		}
	}
}

func TestEngineTempoClamped(t *testing.T) {
	e, _, _ := startEngine(t)

	e.SetTempo(1000)
	if got := e.Snapshot().Tempo; got != arp.MaxBPM {
		t.Fatalf("tempo = %v, want clamped to %v", got, arp.MaxBPM)
	}
	e.SetTempo(1)
	if got := e.Snapshot().Tempo; got != arp.MinBPM {
		t.Fatalf("tempo = %v, want clamped to %v", got, arp.MinBPM)
	}
}

func TestEngineModeSwitch(t *testing.T) {
	e, _, _ := startEngine(t)

	e.SetArpMode(arp.ModeDown)
	if got := e.Snapshot().Mode; got != arp.ModeDown {
		t.Fatalf("mode = %s, want down", got)
	}
	e.CycleArpMode()
	if got := e.Snapshot().Mode; got != arp.ModeUpDown {
		t.Fatalf("mode = %s, want updown", got)
	}
}
