// internal/game/types.go
//
// Core type definitions for the MasterMind game engine.
// Defines:
//   - Color: an opaque palette entry; equality only, no ordering.
//   - Feedback: exact/partial peg counts for one scored guess.
//   - Attempt: an immutable guess + feedback record in session history.
//   - State: coarse session lifecycle (in_progress/won/lost/abandoned).
//   - Config: construction parameters for a session.
//   - Sentinel errors for caller-input failures.

package game

import "errors"

// Color identifies one palette entry. Values are compared for equality
// only; the engine attaches no other meaning to them.
type Color string

// The classic six-color palette.
const (
	Red    Color = "red"
	Yellow Color = "yellow"
	Green  Color = "green"
	Blue   Color = "blue"
	Purple Color = "purple"
	Orange Color = "orange"
)

// Classic board dimensions: 4 slots, 10 rows.
const (
	DefaultCodeLength  = 4
	DefaultMaxAttempts = 10
)

// DefaultPalette returns a fresh copy of the classic six-color palette.
func DefaultPalette() []Color {
	return []Color{Red, Yellow, Green, Blue, Purple, Orange}
}

// State is the session lifecycle phase. Won, Lost, and Abandoned are
// terminal: a terminal session accepts no further mutation.
type State string

const (
	StateInProgress State = "in_progress"
	StateWon        State = "won"
	StateLost       State = "lost"
	StateAbandoned  State = "abandoned"
)

// Terminal reports whether s is a terminal state.
func (s State) Terminal() bool { return s != StateInProgress }

// Feedback is the scoring result for one guess against the secret.
// Invariant: Exact+Partial never exceeds the code length.
type Feedback struct {
	// Exact counts positions where the guess color equals the secret color.
	Exact int `json:"exact"`
	// Partial counts colors present in both sequences but at different
	// positions, under multiset semantics (no double counting).
	Partial int `json:"partial"`
}

// Attempt pairs one guess with its feedback. Attempts are appended to a
// session's history in turn order and never mutated afterwards.
type Attempt struct {
	Turn     int      `json:"turn"` // zero-based turn index
	Guess    []Color  `json:"guess"`
	Feedback Feedback `json:"feedback"`
}

// Config carries the construction parameters for a session.
// Zero-value fields fall back to the classic defaults.
type Config struct {
	Palette     []Color // colors a secret/guess may use; default DefaultPalette
	CodeLength  int     // slots per code; default DefaultCodeLength
	MaxAttempts int     // rows on the board; default DefaultMaxAttempts
	// NoDuplicates forces the secret to use each color at most once.
	// Requires len(Palette) >= CodeLength. Off by default (classic rules
	// allow repeats).
	NoDuplicates bool
	// Rand overrides the process-wide random source. Tests inject a
	// deterministic source here; production callers leave it nil.
	Rand Rand
}

// Caller-input errors. All are recoverable and matched with errors.Is;
// the engine never logs or panics on them.
var (
	// ErrInvalidConfiguration rejects malformed construction parameters
	// (empty palette, non-positive length or attempt count).
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrInvalidGuess rejects a guess with the wrong length or a color
	// outside the configured palette. Session state is unchanged.
	ErrInvalidGuess = errors.New("invalid guess")
	// ErrSessionTerminated rejects any mutation of a won, lost, or
	// abandoned session.
	ErrSessionTerminated = errors.New("session terminated")
	// ErrHintAlreadyUsed rejects a second hint request.
	ErrHintAlreadyUsed = errors.New("hint already used")
)
