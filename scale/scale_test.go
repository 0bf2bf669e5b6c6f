package scale

import "testing"

func TestSnapInScaleUnchanged(t *testing.T) {
	d := Definition{Root: 0, Type: Major}
	for _, n := range []uint8{60, 62, 64, 65, 67, 69, 71, 72} {
		if got := d.Snap(n); got != n {
			t.Fatalf("Snap(%d) = %d, want unchanged", n, got)
		}
	}
}

func TestSnapTieBreaksLower(t *testing.T) {
	// C# sits one semitone from both C and D; the lower note wins.
	d := Definition{Root: 0, Type: Major}
	if got := d.Snap(61); got != 60 {
		t.Fatalf("Snap(61) = %d, want 60", got)
	}
}

func TestSnapIdempotent(t *testing.T) {
	for ti := Major; ti <= Chromatic; ti++ {
		for root := uint8(0); root < 12; root++ {
			d := Definition{Root: root, Type: ti}
			for n := 0; n < 128; n++ {
				once := d.Snap(uint8(n))
				twice := d.Snap(once)
				if once != twice {
					t.Fatalf("%s: Snap(Snap(%d)) = %d, want %d", d.Name(), n, twice, once)
				}
				if !d.Contains(once) {
					t.Fatalf("%s: Snap(%d) = %d not in scale", d.Name(), n, once)
				}
			}
		}
	}
}

func TestSnapMinimalDistance(t *testing.T) {
	d := Definition{Root: 2, Type: Minor} // D minor
	cases := []struct {
		in, want uint8
	}{
		{63, 62}, // D# -> D (tie with E breaks low)
		{66, 65}, // F# -> F
		{61, 60}, // C# -> C
	}
	for _, c := range cases {
		if got := d.Snap(c.in); got != c.want {
			t.Fatalf("Snap(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestChromaticSnapsNothing(t *testing.T) {
	d := Definition{Root: 5, Type: Chromatic}
	for n := 0; n < 128; n++ {
		if got := d.Snap(uint8(n)); got != uint8(n) {
			t.Fatalf("chromatic Snap(%d) = %d, want unchanged", n, got)
		}
	}
}

func TestParseType(t *testing.T) {
	if got := ParseType("dorian"); got != Dorian {
		t.Fatalf("ParseType(dorian) = %v", got)
	}
	if got := ParseType("nonsense"); got != Major {
		t.Fatalf("ParseType(nonsense) = %v, want major default", got)
	}
}

func TestName(t *testing.T) {
	d := Definition{Root: 6, Type: Mixolydian}
	if got := d.Name(); got != "F# mixolydian" {
		t.Fatalf("Name() = %q", got)
	}
}
