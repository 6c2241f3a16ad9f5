// Package random provides seed generation helpers.
//
// NewSeed uses crypto/rand to generate a high-entropy run seed; ArenaSeed
// derives a reproducible per-worker seed from it so that a whole batch can be
// replayed from a single number.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
)

const goldenGamma = 0x9e3779b97f4a7c15

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}

	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// ArenaSeed derives the seed for one arena from the run seed. Distinct arenas
// get well-separated seeds (splitmix64 finalizer) and the mapping is stable.
func ArenaSeed(base int64, arena int) int64 {
	z := uint64(base) + uint64(arena+1)*goldenGamma
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return int64(z ^ (z >> 31))
}
