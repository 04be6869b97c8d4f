package palette

import (
	"testing"

	"github.com/ljoubert/mastermind-server/internal/game"
)

func TestInit_EmbeddedDefaults(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if got := Stats(); got != 6 {
		t.Fatalf("Stats() = %d, want 6", got)
	}
	want := []game.Color{game.Red, game.Yellow, game.Green, game.Blue, game.Purple, game.Orange}
	got := Colors()
	if len(got) != len(want) {
		t.Fatalf("Colors() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Colors()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if !IsColor("red") || !IsColor("Purple") {
		t.Fatal("expected red and Purple to be palette colors")
	}
	if IsColor("magenta") {
		t.Fatal("magenta must not be a palette color")
	}
	if sw := Swatch(game.Blue); sw != "#118ab2" {
		t.Fatalf("Swatch(blue) = %q, want #118ab2", sw)
	}
}

func TestParse(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	got, err := Parse([]string{"Red", " green", "blue", "yellow"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := []game.Color{game.Red, game.Green, game.Blue, game.Yellow}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Parse[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if _, err := Parse([]string{"red", "chartreuse"}); err == nil {
		t.Fatal("expected error for unknown color")
	}
}

func TestParseLine(t *testing.T) {
	cases := []struct {
		line string
		ok   bool
	}{
		{"red #ef476f", true},
		{"red", false},
		{"red ef476f", false},
		{"red #ef476", false},
		{"r3d #ef476f", false},
		{"red #EF476F", false}, // callers lowercase before parsing
	}
	for _, tc := range cases {
		if _, _, err := parseLine(tc.line); (err == nil) != tc.ok {
			t.Fatalf("parseLine(%q) err=%v, want ok=%v", tc.line, err, tc.ok)
		}
	}
}
