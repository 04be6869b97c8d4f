// internal/game/generator.go
//
// Secret generation for the MasterMind engine.
// Responsibilities:
//   - Generate a secret code of the requested length from a palette.
//   - Keep the random source injectable so tests can script exact secrets.
//
// Notes:
//   - Default entropy is a math/rand/v2 PCG seeded from crypto/rand; the
//     engine never touches the process-global source.

package game

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	mathrand "math/rand/v2"
)

// Rand is the random source the engine draws from. math/rand/v2's *Rand
// satisfies it; tests supply a scripted implementation.
type Rand interface {
	// IntN returns a uniform int in [0, n). n must be > 0.
	IntN(n int) int
}

// newDefaultRand builds a PCG source seeded from crypto/rand.
func newDefaultRand() Rand {
	var seed [16]byte
	_, _ = rand.Read(seed[:])
	return mathrand.New(mathrand.NewPCG(
		binary.LittleEndian.Uint64(seed[:8]),
		binary.LittleEndian.Uint64(seed[8:]),
	))
}

// Generate produces a secret of exactly length colors, each position
// independently and uniformly drawn from palette (with replacement).
// A nil rng falls back to a crypto-seeded source.
func Generate(palette []Color, length int, rng Rand) ([]Color, error) {
	if len(palette) == 0 {
		return nil, fmt.Errorf("%w: empty palette", ErrInvalidConfiguration)
	}
	if length < 1 {
		return nil, fmt.Errorf("%w: code length %d", ErrInvalidConfiguration, length)
	}
	if rng == nil {
		rng = newDefaultRand()
	}
	secret := make([]Color, length)
	for i := range secret {
		secret[i] = palette[rng.IntN(len(palette))]
	}
	return secret, nil
}

// GenerateDistinct produces a secret with no repeated colors: a uniform
// sample of length colors drawn from palette without replacement.
// Fails if the palette has fewer colors than the requested length.
func GenerateDistinct(palette []Color, length int, rng Rand) ([]Color, error) {
	if len(palette) == 0 {
		return nil, fmt.Errorf("%w: empty palette", ErrInvalidConfiguration)
	}
	if length < 1 {
		return nil, fmt.Errorf("%w: code length %d", ErrInvalidConfiguration, length)
	}
	if length > len(palette) {
		return nil, fmt.Errorf("%w: code length %d exceeds palette size %d",
			ErrInvalidConfiguration, length, len(palette))
	}
	if rng == nil {
		rng = newDefaultRand()
	}
	// Partial Fisher-Yates over a working copy; the first length entries
	// form the sample.
	pool := make([]Color, len(palette))
	copy(pool, palette)
	for i := 0; i < length; i++ {
		j := i + rng.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:length], nil
}
