package daily

import (
	"testing"
	"time"

	"github.com/ljoubert/mastermind-server/internal/game"
)

func TestDateKey_UTC(t *testing.T) {
	// 23:30 in UTC-5 is already the next day in UTC.
	loc := time.FixedZone("UTC-5", -5*3600)
	ts := time.Date(2025, 3, 9, 23, 30, 0, 0, loc)
	if got := DateKey(ts); got != "2025-03-10" {
		t.Fatalf("DateKey = %q, want 2025-03-10", got)
	}
}

func TestCodeForDate_DeterministicPerDate(t *testing.T) {
	palette := game.DefaultPalette()
	day := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	a, err := CodeForDate(day, "salt", palette, 4)
	if err != nil {
		t.Fatalf("CodeForDate: %v", err)
	}
	b, err := CodeForDate(day.Add(3*time.Hour), "salt", palette, 4)
	if err != nil {
		t.Fatalf("CodeForDate: %v", err)
	}
	if len(a) != 4 {
		t.Fatalf("code length = %d, want 4", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same date produced different codes: %v vs %v", a, b)
		}
	}
}

func TestCodeForDate_VariesWithDateAndSalt(t *testing.T) {
	palette := game.DefaultPalette()
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	base, _ := CodeForDate(day, "salt", palette, 8)
	nextDay, _ := CodeForDate(day.AddDate(0, 0, 1), "salt", palette, 8)
	otherSalt, _ := CodeForDate(day, "pepper", palette, 8)

	if equal(base, nextDay) && equal(base, otherSalt) {
		t.Fatalf("expected code to vary with date or salt: %v", base)
	}
}

func TestCodeForDate_LongCodeSpansDigestRounds(t *testing.T) {
	palette := game.DefaultPalette()
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	code, err := CodeForDate(day, "salt", palette, 40) // > one SHA-256 digest
	if err != nil {
		t.Fatalf("CodeForDate: %v", err)
	}
	if len(code) != 40 {
		t.Fatalf("code length = %d, want 40", len(code))
	}
	set := map[game.Color]bool{}
	for _, c := range palette {
		set[c] = true
	}
	for _, c := range code {
		if !set[c] {
			t.Fatalf("code color %q not in palette", c)
		}
	}
}

func TestCodeForDate_InvalidConfiguration(t *testing.T) {
	day := time.Now()
	if _, err := CodeForDate(day, "salt", nil, 4); err == nil {
		t.Fatal("expected error for empty palette")
	}
	if _, err := CodeForDate(day, "salt", game.DefaultPalette(), 0); err == nil {
		t.Fatal("expected error for zero length")
	}
}

// A session seeded with the date's Source must hide exactly the code that
// CodeForDate reports for that date.
func TestSource_MatchesSessionSecret(t *testing.T) {
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	palette := game.DefaultPalette()

	want, err := CodeForDate(day, "salt", palette, 4)
	if err != nil {
		t.Fatalf("CodeForDate: %v", err)
	}
	s, err := game.NewSession(game.Config{
		Palette: palette,
		Rand:    NewSource(day, "salt"),
	})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	res, err := s.SubmitGuess(want)
	if err != nil {
		t.Fatalf("SubmitGuess: %v", err)
	}
	if res.State != game.StateWon {
		t.Fatalf("state = %q, want won; daily secret drifted from CodeForDate", res.State)
	}
}

func equal(a, b []game.Color) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
