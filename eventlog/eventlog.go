// Package eventlog keeps a bounded, thread-safe history of pipeline
// traffic for monitoring. It is a passive collaborator: the pipeline
// posts copies here and never depends on the result.
package eventlog

import (
	"fmt"
	"sync"

	"go-midifx/midi"
)

// Direction marks which side of the pipeline an entry came from.
type Direction uint8

const (
	In Direction = iota
	Out
)

func (d Direction) String() string {
	if d == Out {
		return "<"
	}
	return ">"
}

// Entry is one logged event.
type Entry struct {
	Dir   Direction
	Event midi.Event
}

// String formats an entry like
// "> 12:34:56.789 | note_on        | CH  1 | C4 velocity 85".
func (e Entry) String() string {
	ev := e.Event
	var details string
	switch ev.Kind {
	case midi.NoteOn, midi.NoteOff:
		details = fmt.Sprintf("%s velocity %d", midi.NoteName(ev.Note), ev.Velocity)
	case midi.ControlChange:
		details = fmt.Sprintf("CC %d value %d", ev.Note, ev.Velocity)
	case midi.ProgramChange:
		details = fmt.Sprintf("program %d", ev.Note)
	default:
		details = ev.Kind.String()
	}
	return fmt.Sprintf("%s %s | %-14s | CH %2d | %s",
		e.Dir, ev.Timestamp.Format("15:04:05.000"), ev.Kind, ev.Channel+1, details)
}

// DefaultCapacity is how many entries the log retains.
const DefaultCapacity = 50

// Log is a fixed-capacity ring of entries with optional listeners.
type Log struct {
	mu        sync.Mutex
	entries   []Entry
	capacity  int
	paused    bool
	listeners []func(Entry)
}

// New creates a log retaining up to capacity entries.
func New(capacity int) *Log {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Log{capacity: capacity}
}

// Add appends an entry unless the log is paused. Listener panics or
// failures never propagate to the caller.
func (l *Log) Add(dir Direction, ev midi.Event) {
	l.mu.Lock()
	if l.paused {
		l.mu.Unlock()
		return
	}
	l.entries = append(l.entries, Entry{Dir: dir, Event: ev})
	if len(l.entries) > l.capacity {
		l.entries = l.entries[len(l.entries)-l.capacity:]
	}
	listeners := l.listeners
	entry := l.entries[len(l.entries)-1]
	l.mu.Unlock()

	for _, fn := range listeners {
		func() {
			defer func() { recover() }()
			fn(entry)
		}()
	}
}

// Tail returns up to n most recent entries, oldest first.
func (l *Log) Tail(n int) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n <= 0 || n > len(l.entries) {
		n = len(l.entries)
	}
	out := make([]Entry, n)
	copy(out, l.entries[len(l.entries)-n:])
	return out
}

// Clear drops all entries.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}

// Pause stops recording without clearing history.
func (l *Log) Pause() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.paused = true
}

// Resume restarts recording.
func (l *Log) Resume() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.paused = false
}

// Paused reports whether recording is paused.
func (l *Log) Paused() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.paused
}

// AddListener registers a callback invoked for each added entry.
func (l *Log) AddListener(fn func(Entry)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.listeners = append(l.listeners, fn)
}
