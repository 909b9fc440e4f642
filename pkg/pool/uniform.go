package pool

import "math/rand"

// CoefficientBound is the half-width of the initial coefficient range [-100, 100].
const CoefficientBound = 100.0

func init() {
	Register("uniform", func() Pool { return &UniformPool{Bound: CoefficientBound} })
}

// UniformPool draws every coefficient independently from [-Bound, Bound].
type UniformPool struct {
	Bound float64
}

func (p *UniformPool) Name() string { return "uniform" }

func (p *UniformPool) RandomGene(rng *rand.Rand, _ int) float64 {
	return (rng.Float64()*2 - 1) * p.Bound
}
