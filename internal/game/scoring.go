// internal/game/scoring.go
//
// Guess scoring: the classic two-pass exact/partial algorithm.
//
// Pass 1:
//   - Count exact matches (same color, same position).
//   - Tally the colors of the remaining (non-exact) secret positions.
//
// Pass 2:
//   - For each non-exact guess position: if the tally still holds that
//     color, count a partial and decrement; otherwise nothing.
//
// The tally is a multiset intersection, so repeated colors are handled
// correctly: a secret peg satisfies at most one guess peg, and exact
// matches are never re-counted as partials. The computation is symmetric
// in its two arguments.

package game

import "fmt"

// Score evaluates guess against secret and returns the exact/partial
// counts. Both sequences must have the same length; a mismatch is a
// programming error, not caller input, and panics.
func Score(secret, guess []Color) Feedback {
	if len(secret) != len(guess) {
		panic(fmt.Sprintf("game: score length mismatch: secret=%d guess=%d",
			len(secret), len(guess)))
	}

	var fb Feedback
	remaining := make(map[Color]int, len(secret))

	// First pass: exact matches and the leftover secret tally.
	for i := range secret {
		if guess[i] == secret[i] {
			fb.Exact++
		} else {
			remaining[secret[i]]++
		}
	}

	// Second pass: partials from the leftover multiset.
	for i := range guess {
		if guess[i] == secret[i] {
			continue
		}
		if remaining[guess[i]] > 0 {
			fb.Partial++
			remaining[guess[i]]--
		}
	}
	return fb
}
