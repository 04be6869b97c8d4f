package game

import "testing"

func TestScore_Table(t *testing.T) {
	tests := []struct {
		name        string
		secret      []Color
		guess       []Color
		wantExact   int
		wantPartial int
	}{
		{
			name:        "all exact",
			secret:      []Color{Red, Green, Blue, Yellow},
			guess:       []Color{Red, Green, Blue, Yellow},
			wantExact:   4,
			wantPartial: 0,
		},
		{
			name:        "no overlap",
			secret:      []Color{Red, Red, Red, Red},
			guess:       []Color{Blue, Blue, Blue, Blue},
			wantExact:   0,
			wantPartial: 0,
		},
		{
			name:        "all partial",
			secret:      []Color{Red, Red, Green, Green},
			guess:       []Color{Green, Green, Red, Red},
			wantExact:   0,
			wantPartial: 4,
		},
		{
			// Duplicate handling: the second guess Blue has no remaining
			// secret Blue to match, and the extra secret Red is already
			// consumed by the exact match at position 0.
			name:        "duplicates consume multiset once",
			secret:      []Color{Red, Red, Blue, Green},
			guess:       []Color{Red, Blue, Blue, Yellow},
			wantExact:   1,
			wantPartial: 1,
		},
		{
			name:        "swapped pair",
			secret:      []Color{Red, Green, Blue, Yellow},
			guess:       []Color{Red, Blue, Green, Yellow},
			wantExact:   2,
			wantPartial: 2,
		},
		{
			name:        "guess repeats a single secret color",
			secret:      []Color{Red, Green, Blue, Yellow},
			guess:       []Color{Green, Green, Green, Green},
			wantExact:   1,
			wantPartial: 0,
		},
		{
			name:        "length one",
			secret:      []Color{Purple},
			guess:       []Color{Purple},
			wantExact:   1,
			wantPartial: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := Score(tt.secret, tt.guess)
			if fb.Exact != tt.wantExact || fb.Partial != tt.wantPartial {
				t.Fatalf("Score(%v, %v) = %d exact, %d partial; want %d, %d",
					tt.secret, tt.guess, fb.Exact, fb.Partial, tt.wantExact, tt.wantPartial)
			}
		})
	}
}

// Exhaustively checks the soundness bound exact+partial <= length and that
// exact == length only for identical sequences, over all 3-slot codes from
// a 4-color palette.
func TestScore_SoundnessExhaustive(t *testing.T) {
	palette := []Color{Red, Green, Blue, Yellow}
	const slots = 3

	codes := allCodes(palette, slots)
	for _, secret := range codes {
		for _, guess := range codes {
			fb := Score(secret, guess)
			if fb.Exact+fb.Partial > slots {
				t.Fatalf("Score(%v, %v): exact %d + partial %d exceeds %d",
					secret, guess, fb.Exact, fb.Partial, slots)
			}
			if (fb.Exact == slots) != equalCodes(secret, guess) {
				t.Fatalf("Score(%v, %v): exact=%d inconsistent with equality",
					secret, guess, fb.Exact)
			}
		}
	}
}

// The scorer is a multiset intersection plus a positional count, so the two
// arguments are interchangeable.
func TestScore_Symmetry(t *testing.T) {
	palette := []Color{Red, Green, Blue}
	codes := allCodes(palette, 3)
	for _, a := range codes {
		for _, b := range codes {
			ab := Score(a, b)
			ba := Score(b, a)
			if ab != ba {
				t.Fatalf("Score(%v, %v) = %+v but Score(%v, %v) = %+v", a, b, ab, b, a, ba)
			}
		}
	}
}

func TestScore_LengthMismatchPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on length mismatch")
		}
	}()
	Score([]Color{Red, Green}, []Color{Red})
}

// allCodes enumerates every code of the given length over the palette.
func allCodes(palette []Color, length int) [][]Color {
	if length == 0 {
		return [][]Color{{}}
	}
	var out [][]Color
	for _, tail := range allCodes(palette, length-1) {
		for _, c := range palette {
			code := append([]Color{c}, tail...)
			out = append(out, code)
		}
	}
	return out
}

func equalCodes(a, b []Color) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
