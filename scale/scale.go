// Package scale provides scale definitions and note snapping.
package scale

// Type identifies a scale interval pattern.
type Type uint8

const (
	Major Type = iota
	Minor
	Dorian
	Phrygian
	Lydian
	Mixolydian
	Locrian
	Chromatic
)

// Semitone offsets from the root for each scale type.
var intervals = [...][]uint8{
	Major:      {0, 2, 4, 5, 7, 9, 11},
	Minor:      {0, 2, 3, 5, 7, 8, 10},
	Dorian:     {0, 2, 3, 5, 7, 9, 10},
	Phrygian:   {0, 1, 3, 5, 7, 8, 10},
	Lydian:     {0, 2, 4, 6, 7, 9, 11},
	Mixolydian: {0, 2, 4, 5, 7, 9, 10},
	Locrian:    {0, 1, 3, 5, 6, 8, 10},
	Chromatic:  {0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11},
}

var typeNames = [...]string{
	Major:      "major",
	Minor:      "minor",
	Dorian:     "dorian",
	Phrygian:   "phrygian",
	Lydian:     "lydian",
	Mixolydian: "mixolydian",
	Locrian:    "locrian",
	Chromatic:  "chromatic",
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "unknown"
}

// ParseType returns the scale type for a name, defaulting to Major.
func ParseType(name string) Type {
	for i, n := range typeNames {
		if n == name {
			return Type(i)
		}
	}
	return Major
}

// Types lists all scale type names in order.
func Types() []string {
	out := make([]string, len(typeNames))
	copy(out, typeNames[:])
	return out
}

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// ParseRoot returns the pitch class for a note name like "C" or "F#",
// defaulting to C.
func ParseRoot(name string) uint8 {
	for i, n := range noteNames {
		if n == name {
			return uint8(i)
		}
	}
	return 0
}

// Definition is an immutable scale: a root pitch class plus a type.
type Definition struct {
	Root uint8 // pitch class 0-11
	Type Type
}

// Name returns a display name like "C major".
func (d Definition) Name() string {
	return noteNames[d.Root%12] + " " + d.Type.String()
}

// pitchClasses returns the absolute pitch classes (0-11) in the scale.
func (d Definition) pitchClasses() [12]bool {
	var in [12]bool
	for _, iv := range intervals[d.Type] {
		in[(iv+d.Root)%12] = true
	}
	return in
}

// Contains reports whether the note's pitch class is in the scale.
func (d Definition) Contains(note uint8) bool {
	return d.pitchClasses()[note%12]
}

// Snap returns the nearest note whose pitch class is in the scale,
// searching the note's octave and both adjacent octaves. Ties break
// toward the lower pitch. Idempotent: Snap(Snap(n)) == Snap(n).
func (d Definition) Snap(note uint8) uint8 {
	if note > 127 {
		note = 127
	}
	in := d.pitchClasses()
	if in[note%12] {
		return note
	}

	best := int(note)
	bestDist := 128
	octave := int(note) / 12
	for oct := octave - 1; oct <= octave+1; oct++ {
		for pc := 0; pc < 12; pc++ {
			if !in[pc] {
				continue
			}
			candidate := oct*12 + pc
			if candidate < 0 || candidate > 127 {
				continue
			}
			dist := candidate - int(note)
			if dist < 0 {
				dist = -dist
			}
			if dist < bestDist || (dist == bestDist && candidate < best) {
				best = candidate
				bestDist = dist
			}
		}
	}
	return uint8(best)
}
