// internal/game/session.go
//
// Game session state machine for a single MasterMind play-through.
// Responsibilities:
//   - Create sessions with validated dimensions and a generated secret.
//   - Validate and score guesses (length, palette membership).
//   - Track state transitions: in_progress → won/lost/abandoned.
//   - One-shot hint revelation that never consumes a turn.
//
// Notes:
//   - The secret stays unexported and is only revealed when the session
//     reaches a terminal state (or through the one-time hint).
//   - A session is owned by a single caller; drivers that share one across
//     goroutines must serialize access themselves.
//   - randomID() is a compact hex identifier for correlating server state.

package game

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// Session holds the state of a single game from secret generation to a
// terminal outcome. Mutate only through SubmitGuess, RequestHint, and
// Abandon.
type Session struct {
	id          string
	palette     []Color
	paletteSet  map[Color]struct{}
	codeLength  int
	maxAttempts int
	rng         Rand

	secret   []Color
	attempts []Attempt
	state    State
	hintUsed bool
}

// NewSession validates cfg, generates the secret, and returns a session in
// StateInProgress. Zero-value fields take the classic defaults (six colors,
// four slots, ten attempts). An empty non-nil palette, negative code length
// or attempt count, and NoDuplicates with an undersized palette all fail
// with ErrInvalidConfiguration.
func NewSession(cfg Config) (*Session, error) {
	if cfg.Palette == nil {
		cfg.Palette = DefaultPalette()
	}
	if cfg.CodeLength == 0 {
		cfg.CodeLength = DefaultCodeLength
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if len(cfg.Palette) == 0 {
		return nil, fmt.Errorf("%w: empty palette", ErrInvalidConfiguration)
	}
	if cfg.CodeLength < 1 {
		return nil, fmt.Errorf("%w: code length %d", ErrInvalidConfiguration, cfg.CodeLength)
	}
	if cfg.MaxAttempts < 1 {
		return nil, fmt.Errorf("%w: max attempts %d", ErrInvalidConfiguration, cfg.MaxAttempts)
	}
	rng := cfg.Rand
	if rng == nil {
		rng = newDefaultRand()
	}

	var secret []Color
	var err error
	if cfg.NoDuplicates {
		secret, err = GenerateDistinct(cfg.Palette, cfg.CodeLength, rng)
	} else {
		secret, err = Generate(cfg.Palette, cfg.CodeLength, rng)
	}
	if err != nil {
		return nil, err
	}

	set := make(map[Color]struct{}, len(cfg.Palette))
	for _, c := range cfg.Palette {
		set[c] = struct{}{}
	}
	palette := make([]Color, len(cfg.Palette))
	copy(palette, cfg.Palette)

	return &Session{
		id:          randomID(),
		palette:     palette,
		paletteSet:  set,
		codeLength:  cfg.CodeLength,
		maxAttempts: cfg.MaxAttempts,
		rng:         rng,
		secret:      secret,
		state:       StateInProgress,
	}, nil
}

// Result is returned by SubmitGuess. Secret is populated only when the
// submission ended the game (won or lost).
type Result struct {
	Feedback Feedback `json:"feedback"`
	State    State    `json:"state"`
	Secret   []Color  `json:"secret,omitempty"`
}

// SubmitGuess validates and scores one guess.
//
// Validation rules:
//   - Session must be in progress (ErrSessionTerminated otherwise).
//   - Guess must be exactly the code length and use palette colors only
//     (ErrInvalidGuess; session state unchanged).
//
// State transitions:
//   - All pegs exact → StateWon.
//   - Else, attempt count reaches the maximum → StateLost.
//   - Else the session stays in progress.
func (s *Session) SubmitGuess(guess []Color) (Result, error) {
	if s.state.Terminal() {
		return Result{State: s.state}, ErrSessionTerminated
	}
	if len(guess) != s.codeLength {
		return Result{State: s.state}, fmt.Errorf("%w: want %d colors, got %d",
			ErrInvalidGuess, s.codeLength, len(guess))
	}
	for _, c := range guess {
		if _, ok := s.paletteSet[c]; !ok {
			return Result{State: s.state}, fmt.Errorf("%w: color %q not in palette",
				ErrInvalidGuess, c)
		}
	}

	// Keep our own copy so later caller mutation cannot rewrite history.
	kept := make([]Color, len(guess))
	copy(kept, guess)

	fb := Score(s.secret, kept)
	s.attempts = append(s.attempts, Attempt{
		Turn:     len(s.attempts),
		Guess:    kept,
		Feedback: fb,
	})

	if fb.Exact == s.codeLength {
		s.state = StateWon
	} else if len(s.attempts) >= s.maxAttempts {
		s.state = StateLost
	}

	res := Result{Feedback: fb, State: s.state}
	if s.state.Terminal() {
		res.Secret = s.Secret()
	}
	return res, nil
}

// Hint reveals one secret position and its color.
type Hint struct {
	Position int   `json:"position"`
	Color    Color `json:"color"`
}

// RequestHint reveals one position the player has not matched exactly in
// their most recent attempt (an arbitrary position before any attempt).
// It may be called once per session and never consumes a turn; a second
// call fails with ErrHintAlreadyUsed.
func (s *Session) RequestHint() (Hint, error) {
	if s.state.Terminal() {
		return Hint{}, ErrSessionTerminated
	}
	if s.hintUsed {
		return Hint{}, ErrHintAlreadyUsed
	}

	candidates := make([]int, 0, s.codeLength)
	if len(s.attempts) == 0 {
		for i := 0; i < s.codeLength; i++ {
			candidates = append(candidates, i)
		}
	} else {
		last := s.attempts[len(s.attempts)-1].Guess
		for i := 0; i < s.codeLength; i++ {
			if last[i] != s.secret[i] {
				candidates = append(candidates, i)
			}
		}
	}
	// While in progress the last attempt cannot be all-exact, so the
	// candidate list is never empty.
	pos := candidates[s.rng.IntN(len(candidates))]

	s.hintUsed = true
	return Hint{Position: pos, Color: s.secret[pos]}, nil
}

// Abandon gives up the game: the session becomes StateAbandoned and the
// secret is revealed. Calling it on an already-terminal session fails
// with ErrSessionTerminated.
func (s *Session) Abandon() ([]Color, error) {
	if s.state.Terminal() {
		return nil, ErrSessionTerminated
	}
	s.state = StateAbandoned
	return s.Secret(), nil
}

// ----------------------------- query surface -------------------------------

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// State returns the current lifecycle phase.
func (s *Session) State() State { return s.state }

// HintUsed reports whether the one-shot hint has been taken.
func (s *Session) HintUsed() bool { return s.hintUsed }

// CodeLength returns the number of slots per code.
func (s *Session) CodeLength() int { return s.codeLength }

// MaxAttempts returns the row limit for this session.
func (s *Session) MaxAttempts() int { return s.maxAttempts }

// RemainingAttempts returns how many guesses the player has left.
func (s *Session) RemainingAttempts() int { return s.maxAttempts - len(s.attempts) }

// Palette returns a copy of the configured palette.
func (s *Session) Palette() []Color {
	out := make([]Color, len(s.palette))
	copy(out, s.palette)
	return out
}

// History returns a copy of the attempt history in chronological order.
func (s *Session) History() []Attempt {
	out := make([]Attempt, len(s.attempts))
	copy(out, s.attempts)
	return out
}

// Secret returns a copy of the secret code, but only once the session is
// terminal; while in progress it returns nil.
func (s *Session) Secret() []Color {
	if !s.state.Terminal() {
		return nil
	}
	out := make([]Color, len(s.secret))
	copy(out, s.secret)
	return out
}

// randomID returns a compact 16-hex-char identifier.
// Collisions are extremely unlikely given crypto/rand entropy.
func randomID() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
