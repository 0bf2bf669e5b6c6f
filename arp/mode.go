package arp

import (
	"math/rand"

	"go-midifx/midi"
)

// Mode selects how the engine walks the held-note pool. The set is
// closed; selection dispatches over an exhaustive switch.
type Mode uint8

const (
	ModeUp Mode = iota
	ModeDown
	ModeUpDown
	ModeAsPlayed
	ModeRandom
	ModeChord
)

var modeNames = [...]string{
	ModeUp:       "up",
	ModeDown:     "down",
	ModeUpDown:   "updown",
	ModeAsPlayed: "asplayed",
	ModeRandom:   "random",
	ModeChord:    "chord",
}

func (m Mode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return "unknown"
}

// ParseMode returns the mode for a name, defaulting to up.
func ParseMode(name string) Mode {
	for i, n := range modeNames {
		if n == name {
			return Mode(i)
		}
	}
	return ModeUp
}

// Next cycles to the following mode, wrapping after chord.
func (m Mode) Next() Mode {
	return Mode((int(m) + 1) % len(modeNames))
}

// selectNotes picks the note(s) to sound this tick from a non-empty pool
// and returns the advanced position counter. The pool arrives in press
// order; pitch-ordered modes sort a copy (stable, so equal pitches keep
// as-played order).
func selectNotes(m Mode, pool []midi.HeldNote, pos int, rng *rand.Rand) ([]midi.HeldNote, int) {
	n := len(pool)
	if n == 0 {
		return nil, pos
	}

	switch m {
	case ModeUp:
		byPitch := sortByPitch(pool)
		i := pos % n
		return byPitch[i : i+1], pos + 1

	case ModeDown:
		byPitch := sortByPitch(pool)
		i := n - 1 - pos%n
		return byPitch[i : i+1], pos + 1

	case ModeUpDown:
		byPitch := sortByPitch(pool)
		if n == 1 {
			return byPitch[:1], pos + 1
		}
		// Traversal of length 2n-2 skips the endpoints on the way back
		// down so they don't repeat at direction changes.
		span := 2*n - 2
		i := pos % span
		if i >= n {
			i = span - i
		}
		return byPitch[i : i+1], pos + 1

	case ModeAsPlayed:
		i := pos % n
		return pool[i : i+1], pos + 1

	case ModeRandom:
		i := rng.Intn(n)
		return pool[i : i+1], pos

	case ModeChord:
		return pool, pos + 1
	}

	return nil, pos
}

func sortByPitch(pool []midi.HeldNote) []midi.HeldNote {
	out := make([]midi.HeldNote, len(pool))
	copy(out, pool)
	// Insertion sort keeps it stable; pools are a handful of notes.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Note < out[j-1].Note; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
