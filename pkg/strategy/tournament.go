package strategy

import (
	"math"
	"math/rand"

	"github.com/wildfunctions/genetic_poly/pkg/poly"
)

const tournamentSize = 5

func init() {
	Register("tournament", func() Strategy { return &TournamentStrategy{} })
}

// TournamentStrategy keeps the elite and fills the rest with mutated
// crossover children of tournament winners drawn from the whole population.
// It has no breeding pool, so it never collapses.
type TournamentStrategy struct{}

func (s *TournamentStrategy) Name() string { return "tournament" }

func (s *TournamentStrategy) Select(population []poly.Genome, fitnesses []float64, params Params) (Selection, error) {
	return Truncate(population, fitnesses, params.Truncation)
}

func (s *TournamentStrategy) Breed(sel Selection, population []poly.Genome, params Params, rng *rand.Rand) ([]poly.Genome, error) {
	n := len(population)
	next := make([]poly.Genome, 0, n)
	next = append(next, sel.Elite.Clone())

	for len(next) < n {
		p1 := tournamentSelect(population, sel.Fitness, rng)
		p2 := tournamentSelect(population, sel.Fitness, rng)
		child, err := Crossover(p1, p2, params.CrossoverBias, rng)
		if err != nil {
			return nil, err
		}
		next = append(next, Mutate(child, params.MutationProbability, params.MutationMagnitude, rng))
	}
	return next, nil
}

// tournamentSelect returns the fittest of tournamentSize uniform draws.
// NaN scores never win against a number.
func tournamentSelect(pop []poly.Genome, fitnesses []float64, rng *rand.Rand) poly.Genome {
	bestIdx := rng.Intn(len(pop))
	bestFit := fitnesses[bestIdx]

	for i := 1; i < tournamentSize; i++ {
		idx := rng.Intn(len(pop))
		if fitnesses[idx] > bestFit || (math.IsNaN(bestFit) && !math.IsNaN(fitnesses[idx])) {
			bestIdx = idx
			bestFit = fitnesses[idx]
		}
	}
	return pop[bestIdx]
}
