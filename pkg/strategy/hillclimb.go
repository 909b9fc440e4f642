package strategy

import (
	"math"
	"math/rand"
	"sort"

	"github.com/wildfunctions/genetic_poly/pkg/poly"
)

const hillclimbInjectionRate = 0.05 // fraction of population replaced by elite mutants each gen

func init() {
	Register("hillclimb", func() Strategy { return &HillClimbStrategy{} })
}

// HillClimbStrategy mutates every genome in place of crossover. The worst
// scorers are replaced by mutants of the elite and the elite itself moves to
// index 0 unchanged.
type HillClimbStrategy struct{}

func (s *HillClimbStrategy) Name() string { return "hillclimb" }

func (s *HillClimbStrategy) Select(population []poly.Genome, fitnesses []float64, params Params) (Selection, error) {
	return Truncate(population, fitnesses, params.Truncation)
}

func (s *HillClimbStrategy) Breed(sel Selection, population []poly.Genome, params Params, rng *rand.Rand) ([]poly.Genome, error) {
	n := len(population)
	next := make([]poly.Genome, n)
	for i, g := range population {
		next[i] = Mutate(g, params.MutationProbability, params.MutationMagnitude, rng)
	}

	// Ascending by fitness, NaN first.
	ranked := make([]int, n)
	for i := range ranked {
		ranked[i] = i
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		fa, fb := sel.Fitness[ranked[a]], sel.Fitness[ranked[b]]
		if math.IsNaN(fa) {
			return !math.IsNaN(fb)
		}
		return fa < fb
	})

	injectionCount := max(1, int(float64(n)*hillclimbInjectionRate))
	for i := 0; i < injectionCount && i < n; i++ {
		next[ranked[i]] = Mutate(sel.Elite, params.MutationProbability, params.MutationMagnitude, rng)
	}

	next[sel.EliteIndex] = next[0]
	next[0] = sel.Elite.Clone()
	return next, nil
}
