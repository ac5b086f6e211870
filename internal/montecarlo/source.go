package montecarlo

import (
	"math/rand/v2"
)

// Source supplies standard normal draws. Implementations are not assumed to
// be safe for concurrent use; RunParallel gives every worker its own Source.
type Source interface {
	NormFloat64() float64
}

// NewSource returns a deterministic PCG-backed source for the given seed.
func NewSource(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// NewRandomSource returns a source seeded from the runtime's entropy pool.
// This is the default for interactive sessions; reuse it across runs to keep
// one generator per session.
func NewRandomSource() *rand.Rand {
	return NewSource(rand.Uint64())
}

// streamSource derives the independent stream for worker i from a base seed.
func streamSource(seed uint64, i int) *rand.Rand {
	return rand.New(rand.NewPCG(seed, uint64(i)+1))
}

// DeriveSeed returns the seed for the index-th of several independent runs
// sharing one base seed. A zero base stays zero so each run draws its own.
func DeriveSeed(seed uint64, index int) uint64 {
	if seed == 0 {
		return 0
	}
	// splitmix64 finalizer over the base seed offset by the index.
	z := seed + (uint64(index)+1)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	z ^= z >> 31
	if z == 0 {
		z = 1
	}
	return z
}
