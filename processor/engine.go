package processor

import (
	"sync"

	"go-midifx/arp"
	"go-midifx/debug"
	"go-midifx/eventlog"
	"go-midifx/harmony"
	"go-midifx/midi"
	"go-midifx/scale"
)

// Snapshot is an immutable view of engine state for the UI.
type Snapshot struct {
	ScaleOn   bool
	HarmonyOn bool
	ArpOn     bool
	Latch     bool

	ScaleName string
	Mode      arp.Mode
	Tempo     float64
	Swing     float64
	Transpose int
	Octave    int
	Channel   int

	Pattern   []arp.Step
	StepIndex int

	Held     []midi.HeldNote
	Sounding int
	Voices   int
	Dropped  uint64
}

// Options configures a new engine.
type Options struct {
	Scale      scale.Definition
	Intervals  []int
	VoiceLimit int
	Tempo      float64
	Swing      float64
	PPQN       int
	Gate       float64

	// Send delivers one outbound event to the device. May be nil in tests.
	Send func(midi.Event) error
	// Log receives copies of inbound and outbound traffic. May be nil.
	Log *eventlog.Log
	// Dropped reports input-queue overflow, for the snapshot. May be nil.
	Dropped func() uint64
}

// Engine is the serialized heart of the pipeline. One goroutine (Run)
// owns all mutable session state; hardware events, clock ticks and
// control-surface commands all funnel into its select loop, so the
// processor and the arp/harmony engines need no locking.
type Engine struct {
	proc   *Processor
	arpEng *arp.Engine
	harm   *harmony.Engine
	held   *midi.HeldNoteSet

	in    <-chan midi.Event
	ticks chan arp.Tick
	cmds  chan command
	stop  chan struct{}
	done  chan struct{}

	clock *arp.Clock
	tempo float64
	swing float64
	ppqn  int
	gate  float64

	send    func(midi.Event) error
	log     *eventlog.Log
	dropped func() uint64

	// Updates gets a non-blocking poke whenever visible state may have
	// changed; the UI drains it and pulls a fresh snapshot.
	Updates chan struct{}

	stopOnce sync.Once
}

type command struct {
	fn   func()
	done chan struct{}
}

// NewEngine wires the pipeline over the inbound event channel.
func NewEngine(in <-chan midi.Event, opts Options) *Engine {
	if opts.Tempo == 0 {
		opts.Tempo = 120
	}
	if opts.PPQN == 0 {
		opts.PPQN = 4
	}
	if opts.Gate == 0 {
		opts.Gate = 0.5
	}

	e := &Engine{
		in:      in,
		ticks:   make(chan arp.Tick, 4),
		cmds:    make(chan command, 8),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		tempo:   opts.Tempo,
		swing:   opts.Swing,
		ppqn:    opts.PPQN,
		gate:    opts.Gate,
		send:    opts.Send,
		log:     opts.Log,
		dropped: opts.Dropped,
		Updates: make(chan struct{}, 1),
	}

	e.held = midi.NewHeldNoteSet()
	e.arpEng = arp.NewEngine(e.held, e.emitGenerated)
	e.arpEng.SetBarFunc(func(bar int64) {
		debug.Log("engine", "bar %d", bar)
	})
	e.harm = harmony.NewEngine(opts.Intervals, opts.VoiceLimit, opts.Scale)
	e.proc = New(e.held, e.arpEng, e.harm)
	e.proc.SetScale(opts.Scale)
	return e
}

// Processor exposes the pipeline, mainly for tests. Callers outside the
// run loop must go through Do.
func (e *Engine) Processor() *Processor { return e.proc }

// Arp exposes the arp engine under the same rule as Processor.
func (e *Engine) Arp() *arp.Engine { return e.arpEng }

// Run owns the session state until Stop. Every inbound event, tick and
// command is handled here, one at a time.
func (e *Engine) Run() {
	defer close(e.done)
	for {
		select {
		case <-e.stop:
			e.shutdown()
			return
		case ev := <-e.in:
			e.handleEvent(ev)
		case t := <-e.ticks:
			e.arpEng.OnTick(t)
			e.notify()
		case c := <-e.cmds:
			c.fn()
			close(c.done)
			e.notify()
		}
	}
}

// Stop cancels the run loop and waits for it to flush and exit.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() { close(e.stop) })
	<-e.done
}

func (e *Engine) shutdown() {
	if e.clock != nil {
		e.clock.Stop()
		e.clock = nil
	}
	for _, ev := range e.proc.AllNotesOff() {
		e.deliver(ev)
	}
	debug.Log("engine", "run loop stopped")
}

func (e *Engine) handleEvent(ev midi.Event) {
	if e.log != nil {
		e.log.Add(eventlog.In, ev)
	}
	out, err := e.proc.Process(ev)
	if err != nil {
		debug.Log("engine", "dropped invalid event: %v", err)
		return
	}
	for _, o := range out {
		e.deliver(o)
	}
	e.notify()
}

// emitGenerated is the arp engine's emit callback. Arp events skip the
// full pipeline (they must not loop back into held tracking or harmony)
// but still get the outbound transform.
func (e *Engine) emitGenerated(ev midi.Event) {
	t, ok := e.proc.Transform(ev)
	if !ok {
		return
	}
	e.deliver(t)
}

func (e *Engine) deliver(ev midi.Event) {
	if e.send != nil {
		if err := e.send(ev); err != nil {
			debug.Log("engine", "send failed: %v", err)
		}
	}
	if e.log != nil {
		e.log.Add(eventlog.Out, ev)
	}
}

func (e *Engine) notify() {
	select {
	case e.Updates <- struct{}{}:
	default:
	}
}

// Do runs fn on the run loop and waits for it to complete. Safe to call
// from any goroutine except the run loop itself.
func (e *Engine) Do(fn func()) {
	c := command{fn: fn, done: make(chan struct{})}
	select {
	case e.cmds <- c:
	case <-e.done:
		return
	}
	select {
	case <-c.done:
	case <-e.done:
	}
}

// SetArpEnabled toggles the arpeggiator. Enabling starts the clock;
// disabling stops it first, then flushes sounding notes synchronously.
func (e *Engine) SetArpEnabled(on bool) {
	e.Do(func() {
		if on == e.arpEng.Enabled() {
			return
		}
		if on {
			e.arpEng.SetEnabled(true)
			e.clock = arp.NewClock(e.tempo, e.swing, e.ppqn, e.gate, e.ticks)
			e.clock.Start()
			debug.Log("engine", "arp on: %.0f bpm, swing %.2f", e.tempo, e.swing)
			return
		}
		if e.clock != nil {
			e.clock.Stop()
			e.clock = nil
		}
		e.drainTicks()
		e.arpEng.SetEnabled(false)
		debug.Log("engine", "arp off")
	})
}

// drainTicks discards ticks posted before the clock stopped so a stale
// gate pulse can't arrive after a fresh enable.
func (e *Engine) drainTicks() {
	for {
		select {
		case <-e.ticks:
		default:
			return
		}
	}
}

// SetTempo updates the tempo. Sounding notes are flushed so their
// lengths can't straddle two tempos.
func (e *Engine) SetTempo(bpm float64) {
	e.Do(func() {
		if bpm < arp.MinBPM {
			bpm = arp.MinBPM
		}
		if bpm > arp.MaxBPM {
			bpm = arp.MaxBPM
		}
		e.tempo = bpm
		if e.clock != nil {
			e.clock.SetTempo(bpm)
			e.arpEng.Flush()
		}
	})
}

// AdjustTempo nudges the tempo by delta BPM.
func (e *Engine) AdjustTempo(delta float64) {
	e.SetTempo(e.snapTempo() + delta)
}

func (e *Engine) snapTempo() float64 {
	var t float64
	e.Do(func() { t = e.tempo })
	return t
}

// SetSwing updates the swing ratio.
func (e *Engine) SetSwing(ratio float64) {
	e.Do(func() {
		if ratio < 0 {
			ratio = 0
		}
		if ratio > arp.MaxSwing {
			ratio = arp.MaxSwing
		}
		e.swing = ratio
		if e.clock != nil {
			e.clock.SetSwing(ratio)
		}
	})
}

// SetArpMode stages an arp mode switch for the next tick boundary.
func (e *Engine) SetArpMode(m arp.Mode) {
	e.Do(func() { e.arpEng.SetMode(m) })
}

// CycleArpMode advances to the next arp mode.
func (e *Engine) CycleArpMode() {
	e.Do(func() { e.arpEng.SetMode(e.arpEng.Mode().Next()) })
}

// SetLatch toggles arp latch.
func (e *Engine) SetLatch(on bool) {
	e.Do(func() { e.arpEng.SetLatch(on) })
}

// ToggleStep flips one pattern step.
func (e *Engine) ToggleStep(i int) {
	e.Do(func() { e.arpEng.ToggleStep(i) })
}

// SetPattern replaces the arp pattern.
func (e *Engine) SetPattern(p arp.Pattern) {
	e.Do(func() { e.arpEng.SetPattern(p) })
}

// SetScaleEnabled toggles scale correction.
func (e *Engine) SetScaleEnabled(on bool) {
	e.Do(func() { e.proc.SetScaleEnabled(on) })
}

// SetScale replaces the active scale for snap and harmony.
func (e *Engine) SetScale(sc scale.Definition) {
	e.Do(func() { e.proc.SetScale(sc) })
}

// SetHarmonyEnabled toggles harmony. Disabling sends the flush NoteOffs
// before the call returns.
func (e *Engine) SetHarmonyEnabled(on bool) {
	e.Do(func() {
		for _, ev := range e.harm.SetEnabled(on) {
			if t, ok := e.proc.Transform(ev); ok {
				e.deliver(t)
			}
		}
	})
}

// SetIntervals replaces the harmony intervals.
func (e *Engine) SetIntervals(intervals []int) {
	e.Do(func() { e.harm.SetIntervals(intervals) })
}

// setTransform applies a transpose/octave/channel change. Generated
// notes are flushed first so their NoteOffs go out under the parameters
// their NoteOns were sent with.
func (e *Engine) setTransform(apply func()) {
	e.Do(func() {
		e.arpEng.Flush()
		for _, ev := range e.harm.Flush() {
			if t, ok := e.proc.Transform(ev); ok {
				e.deliver(t)
			}
		}
		apply()
	})
}

// SetTranspose sets the semitone shift. Range is enforced at the config
// boundary; runtime adjustments arrive pre-clamped.
func (e *Engine) SetTranspose(semitones int) {
	e.setTransform(func() { e.proc.SetTranspose(semitones) })
}

// AdjustTranspose nudges the transpose, clamped to -12..+12.
func (e *Engine) AdjustTranspose(delta int) {
	var cur int
	e.Do(func() { cur = e.proc.Transpose() })
	n := cur + delta
	if n < -12 {
		n = -12
	}
	if n > 12 {
		n = 12
	}
	e.SetTranspose(n)
}

// SetOctave sets the octave shift.
func (e *Engine) SetOctave(octaves int) {
	e.setTransform(func() { e.proc.SetOctave(octaves) })
}

// SetChannel sets the output channel remap; -1 keeps incoming channels.
func (e *Engine) SetChannel(ch int) {
	e.setTransform(func() { e.proc.SetChannel(ch) })
}

// AllNotesOff is the panic button: every held note, arp sounding note
// and harmony voice gets a NoteOff immediately.
func (e *Engine) AllNotesOff() {
	e.Do(func() {
		for _, ev := range e.proc.AllNotesOff() {
			e.deliver(ev)
		}
	})
}

// Snapshot returns a consistent view of engine state.
func (e *Engine) Snapshot() Snapshot {
	var s Snapshot
	e.Do(func() {
		s = Snapshot{
			ScaleOn:   e.proc.ScaleEnabled(),
			HarmonyOn: e.harm.Enabled(),
			ArpOn:     e.arpEng.Enabled(),
			Latch:     e.arpEng.Latch(),
			ScaleName: e.proc.Scale().Name(),
			Mode:      e.arpEng.Mode(),
			Tempo:     e.tempo,
			Swing:     e.swing,
			Transpose: e.proc.Transpose(),
			Octave:    e.proc.Octave(),
			Channel:   e.proc.Channel(),
			Pattern:   e.arpEng.Pattern().Steps(),
			StepIndex: e.arpEng.StepIndex(),
			Held:      e.proc.Held(),
			Sounding:  len(e.arpEng.Sounding()),
			Voices:    e.harm.ActiveVoices(),
		}
		if e.dropped != nil {
			s.Dropped = e.dropped()
		}
	})
	return s
}
