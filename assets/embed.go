package assets

import (
	"bufio"
	"embed"
	"strings"
)

//go:embed palette.txt
var FS embed.FS

// PaletteLines returns the non-comment lines of the embedded palette file.
// Each line is "name #hex".
func PaletteLines() ([]string, error) {
	f, err := FS.Open("palette.txt")
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		out = append(out, strings.ToLower(s))
	}
	return out, sc.Err()
}
