package simulation

import "math/rand/v2"

// NewRand returns a PCG generator for the given seed and stream. Distinct
// streams of the same seed are independent, which lets a sweep give each run
// its own generator without the outcome depending on scheduling.
func NewRand(seed, stream uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, stream))
}
