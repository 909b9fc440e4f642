package pool

import (
	"math"
	"math/rand"
)

func init() {
	Register("gaussian", func() Pool {
		return &GaussianPool{StdDev: CoefficientBound / 2, Bound: CoefficientBound}
	})
}

// GaussianPool draws coefficients from N(0, StdDev^2), clamped to [-Bound, Bound].
// Small coefficients are more likely than with UniformPool.
type GaussianPool struct {
	StdDev float64
	Bound  float64
}

func (p *GaussianPool) Name() string { return "gaussian" }

func (p *GaussianPool) RandomGene(rng *rand.Rand, _ int) float64 {
	v := rng.NormFloat64() * p.StdDev
	return math.Max(-p.Bound, math.Min(p.Bound, v))
}
