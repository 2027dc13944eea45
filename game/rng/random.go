/*
Package rng provides a small reseedable pseudo-random generator whose output is a pure
function of its seed.

Every value is derived from 32-bit integer arithmetic only, so a seed shared between two
machines replays the exact same sequence of floats, integers and shuffles.
*/
package rng

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
)

const (
	stepIncrement  = 0x6D2B79F5
	hashMultiplier = 31

	// fallbackSeed replaces string hashes that collapse to zero.
	fallbackSeed uint32 = 0x2545F491

	twoPow32 = 4294967296.0
)

var (
	ErrInvalidRange = errors.New("invalid range: min is greater than max")
)

// Random is a deterministic pseudo-random sequence generator.
type Random struct {
	seed  uint32 // Seed the generator was constructed with.
	state uint32 // Current internal state.
}

// New creates a generator for the given seed.
func New(seed uint32) *Random {
	return &Random{seed: seed, state: seed}
}

// NewRandom creates a generator seeded from a non-deterministic source and reports
// the seed so that the caller can persist or display it.
func NewRandom() (*Random, uint32) {
	seed := rand.Uint32()
	return New(seed), seed
}

// ParseSeed turns user input into a seed.
// Empty input synthesizes a fresh seed, a decimal number is used as is and any other
// text is hashed. The boolean reports whether the seed was synthesized.
func ParseSeed(input string) (uint32, bool) {
	input = strings.TrimSpace(input)
	if input == "" {
		return rand.Uint32(), true
	}

	if n, err := strconv.ParseUint(input, 10, 32); err == nil {
		return uint32(n), false
	}

	return HashString(input), false
}

// HashString computes a polynomial rolling hash of s.
// Collisions are acceptable, only determinism matters.
func HashString(s string) uint32 {
	var h uint32
	for _, c := range s {
		h = h*hashMultiplier + uint32(c)
	}

	if h == 0 {
		return fallbackSeed
	}
	return h
}

// Seed returns the seed the generator was constructed with.
func (r *Random) Seed() uint32 {
	return r.seed
}

// Reset restores the generator to its state immediately after construction.
func (r *Random) Reset() {
	r.state = r.seed
}

// next advances the state by one step and returns the mixed 32-bit output.
func (r *Random) next() uint32 {
	r.state += stepIncrement
	t := r.state
	t = (t ^ t>>15) * (t | 1)
	t ^= t + (t^t>>7)*(t|61)
	return t ^ t>>14
}

// Float64 returns a pseudo-random float in [0, 1).
func (r *Random) Float64() float64 {
	return float64(r.next()) / twoPow32
}

// IntRange returns a pseudo-random integer in [min, max], inclusive on both ends.
// It panics with ErrInvalidRange when min > max.
func (r *Random) IntRange(min, max int) int {
	if min > max {
		panic(fmt.Errorf("%w: [%d, %d]", ErrInvalidRange, min, max))
	}
	return min + int(r.Float64()*float64(max-min+1))
}

// Intn returns a pseudo-random integer in [0, n).
func (r *Random) Intn(n int) int {
	return r.IntRange(0, n-1)
}

// Bool returns true with probability p.
func (r *Random) Bool(p float64) bool {
	return r.Float64() < p
}

// Shuffle returns a new slice holding the elements of s in Fisher-Yates order.
func Shuffle[T any](r *Random, s []T) []T {
	shuffled := make([]T, len(s))
	copy(shuffled, s)

	for i := len(shuffled) - 1; i > 0; i-- {
		j := int(r.Float64() * float64(i+1))
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled
}
