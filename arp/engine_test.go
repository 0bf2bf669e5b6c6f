package arp

import (
	"math/rand"
	"testing"

	"go-midifx/midi"
)

type capture struct {
	events []midi.Event
}

func (c *capture) emit(ev midi.Event) {
	c.events = append(c.events, ev)
}

func (c *capture) noteOns() []uint8 {
	var out []uint8
	for _, ev := range c.events {
		if ev.Kind == midi.NoteOn {
			out = append(out, ev.Note)
		}
	}
	return out
}

func (c *capture) balance() map[uint8]int {
	m := map[uint8]int{}
	for _, ev := range c.events {
		switch ev.Kind {
		case midi.NoteOn:
			m[ev.Note]++
		case midi.NoteOff:
			m[ev.Note]--
		}
	}
	return m
}

func newTestEngine() (*Engine, *midi.HeldNoteSet, *capture) {
	held := midi.NewHeldNoteSet()
	cap := &capture{}
	e := NewEngine(held, cap.emit)
	e.SetRand(rand.New(rand.NewSource(1)))
	return e, held, cap
}

func activeSteps(n int) Pattern {
	steps := make([]Step, n)
	for i := range steps {
		steps[i] = Step{Active: true, VelocityScale: 1.0}
	}
	return NewPattern(steps)
}

// runTicks drives n full steps (tick boundary plus gate pulse).
func runTicks(e *Engine, n int) {
	for i := 0; i < n; i++ {
		e.OnTick(Tick{Index: int64(i)})
		e.OnTick(Tick{Index: int64(i), Gate: true})
	}
}

func TestUpModeWalksPattern(t *testing.T) {
	e, held, cap := newTestEngine()
	e.SetPattern(activeSteps(3))
	e.SetEnabled(true)

	held.NoteOn(60, 100, 0)
	held.NoteOn(64, 100, 0)
	held.NoteOn(67, 100, 0)

	runTicks(e, 6)

	want := []uint8{60, 64, 67, 60, 64, 67}
	got := cap.noteOns()
	if len(got) != len(want) {
		t.Fatalf("NoteOns = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("NoteOns = %v, want %v", got, want)
		}
	}
}

func TestInactivePatternSilent(t *testing.T) {
	e, held, cap := newTestEngine()
	e.SetPattern(NewPattern(make([]Step, 3))) // all inactive
	e.SetEnabled(true)

	held.NoteOn(60, 100, 0)
	held.NoteOn(64, 100, 0)

	runTicks(e, 6)

	if ons := cap.noteOns(); len(ons) != 0 {
		t.Fatalf("inactive pattern produced NoteOns: %v", ons)
	}
}

func TestEveryOnGetsAnOff(t *testing.T) {
	e, held, cap := newTestEngine()
	e.SetPattern(activeSteps(4))
	e.SetEnabled(true)

	held.NoteOn(60, 100, 0)
	held.NoteOn(64, 100, 0)

	runTicks(e, 8)
	e.Flush()

	for note, n := range cap.balance() {
		if n != 0 {
			t.Fatalf("note %d on/off balance = %d", note, n)
		}
	}
}

func TestDisableFlushesSounding(t *testing.T) {
	e, held, cap := newTestEngine()
	e.SetEnabled(true)
	held.NoteOn(60, 100, 0)

	// Tick boundary only: the note is sounding, no gate yet.
	e.OnTick(Tick{Index: 0})
	if len(e.Sounding()) != 1 {
		t.Fatalf("sounding = %d, want 1", len(e.Sounding()))
	}

	e.SetEnabled(false)

	if len(e.Sounding()) != 0 {
		t.Fatal("sounding not flushed on disable")
	}
	for note, n := range cap.balance() {
		if n != 0 {
			t.Fatalf("note %d unbalanced after disable: %d", note, n)
		}
	}
}

func TestDroppedGatePulseSelfHeals(t *testing.T) {
	e, held, cap := newTestEngine()
	e.SetEnabled(true)
	held.NoteOn(60, 100, 0)

	// Two tick boundaries with the gate pulses lost in between.
	e.OnTick(Tick{Index: 0})
	e.OnTick(Tick{Index: 1})
	e.Flush()

	for note, n := range cap.balance() {
		if n != 0 {
			t.Fatalf("note %d unbalanced after lost gates: %d", note, n)
		}
	}
}

func TestHoldStepSurvivesGate(t *testing.T) {
	e, held, _ := newTestEngine()
	steps := []Step{{Active: true, Hold: true, VelocityScale: 1.0}}
	e.SetPattern(NewPattern(steps))
	e.SetEnabled(true)
	held.NoteOn(60, 100, 0)

	e.OnTick(Tick{Index: 0})
	e.OnTick(Tick{Index: 0, Gate: true})

	if len(e.Sounding()) != 1 {
		t.Fatal("hold-step note released at gate")
	}

	// Next boundary releases it before the next step sounds.
	e.OnTick(Tick{Index: 1})
	e.OnTick(Tick{Index: 1, Gate: true})
	e.Flush()
}

func TestAccentVelocity(t *testing.T) {
	e, held, cap := newTestEngine()
	steps := []Step{{Active: true, Accent: true, VelocityScale: 1.0}}
	e.SetPattern(NewPattern(steps))
	e.SetEnabled(true)
	held.NoteOn(60, 100, 0)

	e.OnTick(Tick{Index: 0})

	ons := cap.noteOns()
	if len(ons) != 1 {
		t.Fatalf("NoteOns = %v", ons)
	}
	if cap.events[0].Velocity != 125 {
		t.Fatalf("accent velocity = %d, want 125", cap.events[0].Velocity)
	}
}

func TestModeSwitchAppliesAtTickBoundary(t *testing.T) {
	e, held, cap := newTestEngine()
	e.SetPattern(activeSteps(4))
	e.SetEnabled(true)

	held.NoteOn(60, 100, 0)
	held.NoteOn(64, 100, 0)
	held.NoteOn(67, 100, 0)

	runTicks(e, 2) // up: 60, 64
	e.SetMode(ModeDown)
	runTicks(e, 2) // down restarts: 67, 64

	want := []uint8{60, 64, 67, 64}
	got := cap.noteOns()
	if len(got) != len(want) {
		t.Fatalf("NoteOns = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("NoteOns = %v, want %v", got, want)
		}
	}
	if e.Mode() != ModeDown {
		t.Fatalf("mode = %s after boundary, want down", e.Mode())
	}
}

func TestLatchKeepsPoolAfterRelease(t *testing.T) {
	e, held, cap := newTestEngine()
	e.SetPattern(activeSteps(3))
	e.SetEnabled(true)

	h1, _ := held.NoteOn(60, 100, 0)
	e.NoteOn(h1)
	h2, _ := held.NoteOn(64, 100, 0)
	e.NoteOn(h2)

	e.SetLatch(true)
	held.NoteOff(60)
	held.NoteOff(64)

	runTicks(e, 2)

	want := []uint8{60, 64}
	got := cap.noteOns()
	if len(got) != len(want) {
		t.Fatalf("latched NoteOns = %v, want %v", got, want)
	}
}

func TestLatchNewChordReplacesPool(t *testing.T) {
	e, held, cap := newTestEngine()
	e.SetPattern(activeSteps(3))
	e.SetEnabled(true)
	e.SetLatch(true)

	h1, _ := held.NoteOn(60, 100, 0)
	e.NoteOn(h1)
	h2, _ := held.NoteOn(64, 100, 0)
	e.NoteOn(h2)
	held.NoteOff(60)
	held.NoteOff(64)

	// A fresh press while nothing is held starts a new latched chord.
	h3, _ := held.NoteOn(72, 100, 0)
	e.NoteOn(h3)

	runTicks(e, 2)

	got := cap.noteOns()
	for _, n := range got {
		if n != 72 {
			t.Fatalf("old chord leaked into new latch pool: %v", got)
		}
	}
}

func TestBarCallback(t *testing.T) {
	e, held, _ := newTestEngine()
	e.SetPattern(activeSteps(2))
	e.SetEnabled(true)
	held.NoteOn(60, 100, 0)

	var bars []int64
	e.SetBarFunc(func(bar int64) { bars = append(bars, bar) })

	runTicks(e, 4) // two bars of a 2-step pattern

	if len(bars) != 2 || bars[0] != 1 || bars[1] != 2 {
		t.Fatalf("bars = %v, want [1 2]", bars)
	}
}
