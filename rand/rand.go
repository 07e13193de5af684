package rand

import (
	"github.com/seehuhn/mt19937"
)

// A Generator is a seedable Mersenne twister. Every sampling routine takes a
// Generator explicitly so that a chain is reproducible from its seed. A
// Generator is NOT safe for concurrent use: give each chain its own.
type Generator struct {
	mt *mt19937.MT19937
}

// NewGenerator creates a generator seeded with the given value
func NewGenerator(seed int64) (*Generator, error) {
	r := mt19937.New()
	r.Seed(seed)
	return &Generator{mt: r}, nil
}

// Uint64 returns the next raw 64 bits from the twister. This makes a
// Generator usable as the Source for gonum's distributions.
func (g *Generator) Uint64() uint64 {
	return g.mt.Uint64()
}

// Int63 provides the same interface as Go's math/rand
func (g *Generator) Int63() int64 {
	return g.mt.Int63()
}

// Int63n is a copy of the current Go code
func (g *Generator) Int63n(n int64) int64 {
	if n <= 0 {
		panic("invalid argument to Int63n")
	}

	if n&(n-1) == 0 { // n is power of two, can mask
		return g.Int63() & (n - 1)
	}

	max := int64((1 << 63) - 1 - (1<<63)%uint64(n))
	v := g.Int63()
	for v > max {
		v = g.Int63()
	}

	return v % n
}

// Intn returns a uniform int in [0, n). It panics if n <= 0.
func (g *Generator) Intn(n int) int {
	if n <= 0 {
		panic("invalid argument to Intn")
	}
	return int(g.Int63n(int64(n)))
}
