// Package measure generates the sensor input fed to every module of a run.
//
// Randomness is always drawn from an explicit source. NewSeeded makes a run
// reproducible on demand; NewFresh seeds from the runtime's entropy and is
// intentionally not reproducible.
package measure

import (
	"math"
	"math/rand/v2"

	"github.com/roach88/madgwhat/internal/fusion"
)

// Upper is the exclusive upper bound of every generated value; the lower
// bound is 0.
const Upper float32 = 10

// below is the largest float32 strictly less than Upper.
var below = math.Nextafter32(Upper, 0)

// Generator draws measurements from a random source.
//
// Thread-safety: a Generator is not safe for concurrent use; the harness
// generates one measurement per run on a single goroutine.
type Generator struct {
	rng    *rand.Rand
	seed   uint64
	seeded bool
}

// New returns a generator over an arbitrary source. Seed reports false.
func New(src rand.Source) *Generator {
	return &Generator{rng: rand.New(src)}
}

// NewSeeded returns a reproducible generator: equal seeds yield equal
// measurement sequences.
func NewSeeded(seed uint64) *Generator {
	return &Generator{
		rng:    rand.New(rand.NewPCG(seed, seed)),
		seed:   seed,
		seeded: true,
	}
}

// NewFresh returns a generator seeded from the process-wide entropy source.
// Its output cannot be reproduced.
func NewFresh() *Generator {
	return New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// Seed returns the seed of a generator built with NewSeeded.
func (g *Generator) Seed() (uint64, bool) {
	return g.seed, g.seeded
}

// Generate draws nine independent values uniformly from [0, Upper) in the
// order acc.xyz, gyro.xyz, mag.xyz.
func (g *Generator) Generate() fusion.Measurement {
	return fusion.Measurement{
		Acc:  g.axis(),
		Gyro: g.axis(),
		Mag:  g.axis(),
	}
}

func (g *Generator) axis() fusion.Axis {
	return fusion.Axis{X: g.value(), Y: g.value(), Z: g.value()}
}

func (g *Generator) value() float32 {
	v := g.rng.Float32() * Upper
	// Float32 is < 1, but the product can round up to Upper.
	if v >= Upper {
		v = below
	}
	return v
}
