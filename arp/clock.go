package arp

import (
	"sync"
	"time"

	"go-midifx/debug"
)

// Tick is one clock pulse. Each tick drives exactly one pattern step;
// the Gate pulse fires partway through the same step and releases
// non-hold notes.
type Tick struct {
	Index int64
	Gate  bool
}

// Tempo and swing bounds, matching common hardware arps.
const (
	MinBPM   = 20
	MaxBPM   = 300
	MaxSwing = 1.0
)

// Clock is the free-running tick source. It owns the only blocking wait
// in the system: a bounded, cancellable sleep between pulses. Ticks are
// posted to a channel consumed by the processor's serialized run loop,
// so the clock never touches shared state directly.
//
// Drift correction: the next deadline is computed from an accumulating
// schedule of nominal durations, not from repeated sleeps, so scheduler
// jitter in one tick is absorbed by a shorter sleep in the next.
type Clock struct {
	mu    sync.Mutex
	bpm   float64
	swing float64 // 0.0-1.0
	ppqn  int
	gate  float64 // fraction of the tick the note sounds

	out  chan<- Tick
	stop chan struct{}
	done chan struct{}
}

// NewClock creates a clock posting ticks into out.
func NewClock(bpm, swing float64, ppqn int, gate float64, out chan<- Tick) *Clock {
	if ppqn < 1 {
		ppqn = 1
	}
	c := &Clock{
		out:  out,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	c.SetTempo(bpm)
	c.SetSwing(swing)
	c.SetGate(gate)
	c.ppqn = ppqn
	return c
}

// SetTempo updates the BPM, clamped to 20-300.
func (c *Clock) SetTempo(bpm float64) {
	if bpm < MinBPM {
		bpm = MinBPM
	}
	if bpm > MaxBPM {
		bpm = MaxBPM
	}
	c.mu.Lock()
	c.bpm = bpm
	c.mu.Unlock()
}

// SetSwing updates the swing ratio, clamped to 0.0-1.0.
func (c *Clock) SetSwing(ratio float64) {
	if ratio < 0 {
		ratio = 0
	}
	if ratio > MaxSwing {
		ratio = MaxSwing
	}
	c.mu.Lock()
	c.swing = ratio
	c.mu.Unlock()
}

// SetGate updates the gate fraction, clamped to 0.05-0.95 so notes
// neither vanish nor overlap the next step.
func (c *Clock) SetGate(fraction float64) {
	if fraction < 0.05 {
		fraction = 0.05
	}
	if fraction > 0.95 {
		fraction = 0.95
	}
	c.mu.Lock()
	c.gate = fraction
	c.mu.Unlock()
}

// Tempo returns the current BPM.
func (c *Clock) Tempo() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bpm
}

// Swing returns the current swing ratio.
func (c *Clock) Swing() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.swing
}

// tickDuration computes the nominal duration of tick i. Even ticks are
// lengthened and odd ticks shortened by the swing ratio; each pair sums
// to two nominal ticks so overall tempo is unchanged.
func (c *Clock) tickDuration(i int64) time.Duration {
	c.mu.Lock()
	bpm, swing := c.bpm, c.swing
	c.mu.Unlock()

	base := time.Duration(float64(time.Minute) / bpm / float64(c.ppqn))
	if swing == 0 {
		return base
	}
	offset := time.Duration(float64(base) * swing * 0.5)
	if i%2 == 0 {
		return base + offset
	}
	return base - offset
}

// gateDuration returns how long into a tick the gate pulse fires.
func (c *Clock) gateDuration(tick time.Duration) time.Duration {
	c.mu.Lock()
	gate := c.gate
	c.mu.Unlock()
	return time.Duration(float64(tick) * gate)
}

// Start launches the clock loop.
func (c *Clock) Start() {
	go c.run()
}

// Stop cancels the clock and waits for the loop to exit. No ticks are
// posted after Stop returns.
func (c *Clock) Stop() {
	close(c.stop)
	<-c.done
}

func (c *Clock) run() {
	defer close(c.done)

	deadline := time.Now()
	for i := int64(0); ; i++ {
		dur := c.tickDuration(i)

		c.post(Tick{Index: i})

		if !c.sleepUntil(deadline.Add(c.gateDuration(dur))) {
			return
		}
		c.post(Tick{Index: i, Gate: true})

		deadline = deadline.Add(dur)
		if behind := time.Since(deadline); behind > dur {
			// Overran more than a full tick; resync rather than
			// burst-firing catch-up ticks.
			debug.Log("clock", "overrun by %v at tick %d, resyncing", behind, i)
			deadline = time.Now()
		}
		if !c.sleepUntil(deadline) {
			return
		}
	}
}

// sleepUntil waits for the deadline or cancellation. Returns false when
// the clock was stopped.
func (c *Clock) sleepUntil(deadline time.Time) bool {
	wait := time.Until(deadline)
	if wait <= 0 {
		select {
		case <-c.stop:
			return false
		default:
			return true
		}
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-c.stop:
		return false
	case <-timer.C:
		return true
	}
}

// post delivers a tick without ever blocking the timing loop. If the
// consumer is behind, the tick is dropped; the engine re-flushes
// sounding notes at the next tick boundary so a lost gate pulse cannot
// strand a note.
func (c *Clock) post(t Tick) {
	select {
	case c.out <- t:
	default:
		debug.LogEvery(8, "clock", "tick %d dropped, consumer busy", t.Index)
	}
}
