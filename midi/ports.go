package midi

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver

	"go-midifx/debug"
)

// InputQueueSize bounds the inbound event queue. The hardware callback
// never blocks on it; on overflow the oldest unprocessed event is dropped.
const InputQueueSize = 64

// PortManager handles MIDI port discovery and the raw hardware I/O on
// both sides of the pipeline. The processor depends only on the event
// channel and the send function it hands out.
type PortManager struct {
	events    chan Event
	stopFuncs []func()
	dropped   atomic.Uint64
}

// NewPortManager creates a port manager with an empty input queue.
func NewPortManager() *PortManager {
	return &PortManager{
		events: make(chan Event, InputQueueSize),
	}
}

// InPortNames returns the names of available MIDI input ports.
func InPortNames() []string {
	ins := gomidi.GetInPorts()
	names := make([]string, 0, len(ins))
	for _, in := range ins {
		names = append(names, in.String())
	}
	return names
}

// OutPortNames returns the names of available MIDI output ports.
func OutPortNames() []string {
	outs := gomidi.GetOutPorts()
	names := make([]string, 0, len(outs))
	for _, out := range outs {
		names = append(names, out.String())
	}
	return names
}

// FindOutPort returns the first output port whose name contains the hint
// (case-insensitive), or "" if none matches.
func FindOutPort(hint string) string {
	if hint == "" {
		return ""
	}
	for _, name := range OutPortNames() {
		if strings.Contains(strings.ToLower(name), strings.ToLower(hint)) {
			return name
		}
	}
	return ""
}

// FilterInputs drops system ports and the output port itself so the
// pipeline can't loop back into its own output. The ALSA "Midi Through"
// ports echo everything and are never useful as performance inputs.
func FilterInputs(names []string, excludeOutput string) []string {
	var filtered []string
	for _, name := range names {
		if strings.Contains(name, "Midi Through") {
			continue
		}
		if excludeOutput != "" && name == excludeOutput {
			if len(names) > 1 {
				debug.Log("ports", "excluding output port from inputs: %s", name)
				continue
			}
			debug.Log("ports", "input and output are the same port: %s", name)
		}
		filtered = append(filtered, name)
	}
	return filtered
}

// Events returns the bounded inbound event queue.
func (pm *PortManager) Events() <-chan Event {
	return pm.events
}

// Dropped returns the number of events dropped due to queue overflow.
func (pm *PortManager) Dropped() uint64 {
	return pm.dropped.Load()
}

// Listen opens the named input port and feeds note, control and program
// events into the queue. The gomidi callback runs on the driver's thread
// and must never block: when the queue is full the oldest event is
// evicted to make room, and the drop is counted.
func (pm *PortManager) Listen(portName string) error {
	var inPort drivers.In
	for _, in := range gomidi.GetInPorts() {
		if in.String() == portName {
			inPort = in
			break
		}
	}
	if inPort == nil {
		return fmt.Errorf("input port not found: %s", portName)
	}

	stop, err := gomidi.ListenTo(inPort, func(msg gomidi.Message, timestampms int32) {
		var channel, note, velocity uint8
		ev := Event{Origin: Player, Timestamp: time.Now()}

		switch {
		case msg.GetNoteOn(&channel, &note, &velocity):
			ev.Kind, ev.Note, ev.Velocity, ev.Channel = NoteOn, note, velocity, channel
		case msg.GetNoteOff(&channel, &note, &velocity):
			ev.Kind, ev.Note, ev.Velocity, ev.Channel = NoteOff, note, velocity, channel
		case msg.GetControlChange(&channel, &note, &velocity):
			ev.Kind, ev.Note, ev.Velocity, ev.Channel = ControlChange, note, velocity, channel
		case msg.GetProgramChange(&channel, &note):
			ev.Kind, ev.Note, ev.Channel = ProgramChange, note, channel
		default:
			return
		}

		pm.enqueue(ev)
	})
	if err != nil {
		return fmt.Errorf("open input %s: %w", portName, err)
	}
	pm.stopFuncs = append(pm.stopFuncs, stop)
	debug.Log("ports", "listening on input: %s", portName)
	return nil
}

func (pm *PortManager) enqueue(ev Event) {
	for {
		select {
		case pm.events <- ev:
			return
		default:
		}
		// Queue full: evict the oldest event, then retry.
		select {
		case <-pm.events:
			n := pm.dropped.Add(1)
			debug.LogEvery(16, "ports", "input queue overflow, dropped=%d", n)
		default:
		}
	}
}

// OpenOutput opens the named output port and returns a send function.
func (pm *PortManager) OpenOutput(portName string) (func(Event) error, error) {
	var outPort drivers.Out
	for _, out := range gomidi.GetOutPorts() {
		if out.String() == portName {
			outPort = out
			break
		}
	}
	if outPort == nil {
		return nil, fmt.Errorf("output port not found: %s", portName)
	}

	sender, err := gomidi.SendTo(outPort)
	if err != nil {
		return nil, fmt.Errorf("open output %s: %w", portName, err)
	}
	debug.Log("ports", "opened output: %s", portName)

	return func(ev Event) error {
		msg := ev.Message()
		if msg == nil {
			return nil
		}
		return sender(msg)
	}, nil
}

// Close stops all input listeners and releases the driver.
func (pm *PortManager) Close() {
	for _, stop := range pm.stopFuncs {
		stop()
	}
	pm.stopFuncs = nil
	gomidi.CloseDriver()
}
