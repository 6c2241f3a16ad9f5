// Package dice provides the chance source and dice-notation evaluation used by
// the combat engine.
//
// Nothing in this package reaches for a global generator: every roll is made
// against an explicit Source so that simulations can be replayed from a seed.
package dice

import (
	"errors"
	"math/rand"
)

// ErrMissingDice indicates a roll request had no dice specified.
var ErrMissingDice = errors.New("at least one die must be provided")

// ErrInvalidDiceSpec indicates a die specification has invalid fields.
var ErrInvalidDiceSpec = errors.New("dice must have positive sides and count")

// Source is the randomness provider for dice rolls.
//
// Implementations are not required to be safe for concurrent use; each
// simulation worker owns its own Source.
type Source interface {
	// Intn returns a non-negative random int in [0, n). n must be > 0.
	Intn(n int) int
}

// NewSource returns a Source seeded with seed. Two sources built from the same
// seed yield the same sequence.
func NewSource(seed int64) Source {
	return rand.New(rand.NewSource(seed))
}

// RollDie rolls a single die with the provided number of sides, returning a
// value in [1, sides].
func RollDie(src Source, sides int) int {
	return src.Intn(sides) + 1
}
