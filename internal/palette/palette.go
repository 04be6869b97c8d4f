// internal/palette/palette.go
//
// Provides named-palette management for the game server.
//
// Responsibilities:
//   - Load the color palette from an environment-provided file or fall back
//     to the embedded default.
//   - Maintain a set for quick membership lookups.
//   - Supply utility functions like Colors, IsColor, Swatch, Parse, Stats.
//
// Palette file format:
//   - One color per line: "name swatch" (e.g. "red #ef476f").
//   - Names are normalized to lowercase; swatches are #rrggbb hex.
//   - Lines starting with "#" are comments.
//
// Initialization behavior (Init):
//   1. If PALETTE_FILE is set, load colors from that file.
//   2. Otherwise fall back to the embedded default palette (the classic
//      six colors).
//
// Constraints:
//   • Names must be lowercase ASCII letters.
//   • At least two colors are required for a playable board.
//   • Initialization is run once (sync.Once).

package palette

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/ljoubert/mastermind-server/assets"
	"github.com/ljoubert/mastermind-server/internal/game"
)

var (
	initOnce   sync.Once
	colors     []game.Color            // palette in file order
	colorSet   map[game.Color]struct{} // membership lookups
	swatches   map[game.Color]string   // name → #rrggbb
	initialErr error
)

// Init loads the palette exactly once.
// Returns an error if the palette ends up with fewer than two colors.
func Init() error {
	initOnce.Do(func() {
		var lines []string
		var err error

		if path := os.Getenv("PALETTE_FILE"); path != "" {
			lines, err = readPaletteFile(path)
		} else {
			lines, err = assets.PaletteLines()
		}
		if err != nil {
			initialErr = err
			return
		}

		colorSet = make(map[game.Color]struct{}, len(lines))
		swatches = make(map[game.Color]string, len(lines))
		for _, line := range lines {
			name, swatch, err := parseLine(line)
			if err != nil {
				initialErr = err
				return
			}
			c := game.Color(name)
			if _, dup := colorSet[c]; dup {
				initialErr = fmt.Errorf("palette: duplicate color %q", name)
				return
			}
			colors = append(colors, c)
			colorSet[c] = struct{}{}
			swatches[c] = swatch
		}

		if len(colors) < 2 {
			initialErr = errors.New("palette: need at least two colors")
		}
	})
	return initialErr
}

// readPaletteFile loads palette lines from a file, skipping blanks and
// comments.
func readPaletteFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		s := strings.TrimSpace(strings.ToLower(sc.Text()))
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		out = append(out, s)
	}
	return out, sc.Err()
}

// parseLine splits "name swatch" and validates both halves.
func parseLine(line string) (name, swatch string, err error) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return "", "", fmt.Errorf("palette: malformed line %q", line)
	}
	name, swatch = fields[0], fields[1]
	if !isAlpha(name) {
		return "", "", fmt.Errorf("palette: invalid color name %q", name)
	}
	if !isSwatch(swatch) {
		return "", "", fmt.Errorf("palette: invalid swatch %q for %q", swatch, name)
	}
	return name, swatch, nil
}

// isAlpha reports whether s is all lowercase ASCII letters.
func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

// isSwatch reports whether s is a #rrggbb hex value.
func isSwatch(s string) bool {
	if len(s) != 7 || s[0] != '#' {
		return false
	}
	for _, r := range s[1:] {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f') {
			return false
		}
	}
	return true
}

// Colors returns a copy of the loaded palette in file order.
func Colors() []game.Color {
	out := make([]game.Color, len(colors))
	copy(out, colors)
	return out
}

// IsColor reports whether name is a loaded palette color.
func IsColor(name string) bool {
	_, ok := colorSet[game.Color(strings.ToLower(name))]
	return ok
}

// Swatch returns the #rrggbb value for a color, or "" if unknown.
func Swatch(c game.Color) string { return swatches[c] }

// Parse converts a list of color names into palette colors.
// Fails on the first name that is not in the loaded palette.
func Parse(names []string) ([]game.Color, error) {
	out := make([]game.Color, 0, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if !IsColor(n) {
			return nil, fmt.Errorf("unknown color %q", n)
		}
		out = append(out, game.Color(n))
	}
	return out, nil
}

// Stats returns the number of loaded colors.
func Stats() int { return len(colors) }
