// internal/daily/daily.go
//
// Deterministic randomness for the Daily Challenge.
// Every player gets the same secret for a given date: a Source replays the
// HMAC-SHA256(salt, date) byte stream through the engine's injectable random
// seam, so the daily session is built by the same generator as a normal one.
// The salt keeps the sequence unpredictable without the server config.

package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/ljoubert/mastermind-server/internal/game"
)

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Source is a deterministic game.Rand fed by rounds of
// HMAC-SHA256(salt, "YYYY-MM-DD:round").
type Source struct {
	key    []byte
	date   string
	round  int
	cursor int
	buf    [sha256.Size]byte
}

// NewSource builds the byte stream for a date and salt.
func NewSource(date time.Time, salt string) *Source {
	s := &Source{key: []byte(salt), date: DateKey(date)}
	s.fill()
	return s
}

// IntN returns the next stream byte reduced modulo n.
func (s *Source) IntN(n int) int {
	if n <= 0 {
		panic("daily: IntN called with n <= 0")
	}
	if s.cursor == len(s.buf) {
		s.round++
		s.fill()
	}
	b := s.buf[s.cursor]
	s.cursor++
	return int(b) % n
}

func (s *Source) fill() {
	h := hmac.New(sha256.New, s.key)
	fmt.Fprintf(h, "%s:%d", s.date, s.round)
	copy(s.buf[:], h.Sum(nil))
	s.cursor = 0
}

// CodeForDate derives the day's secret code. It runs the standard secret
// generator over the date's byte stream, so it always matches the secret of
// a session constructed with NewSource for the same date and salt.
func CodeForDate(date time.Time, salt string, palette []game.Color, length int) ([]game.Color, error) {
	return game.Generate(palette, length, NewSource(date, salt))
}
