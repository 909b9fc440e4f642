package strategy

import (
	"math/rand"

	"github.com/wildfunctions/genetic_poly/pkg/poly"
)

// Mutate returns a perturbed copy of g. Each gene independently, with the
// given probability, gets a uniform offset from [-magnitude, magnitude].
// Every gene consumes one coin flip from rng, plus one draw when perturbed.
func Mutate(g poly.Genome, probability, magnitude float64, rng *rand.Rand) poly.Genome {
	out := g.Clone()
	for i := range out {
		if rng.Float64() < probability {
			out[i] += (rng.Float64()*2 - 1) * magnitude
		}
	}
	return out
}
