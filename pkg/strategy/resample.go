package strategy

import (
	"errors"
	"math/rand"

	"github.com/wildfunctions/genetic_poly/pkg/poly"
)

func init() {
	Register("resample", func() Strategy { return &ResampleStrategy{} })
}

// ResampleStrategy behaves like TruncationStrategy until the breeding pool
// collapses, then draws parents with replacement from the whole population
// for that generation.
type ResampleStrategy struct{}

func (s *ResampleStrategy) Name() string { return "resample" }

func (s *ResampleStrategy) Select(population []poly.Genome, fitnesses []float64, params Params) (Selection, error) {
	sel, err := Select(population, fitnesses, params.Truncation)
	if errors.Is(err, ErrInsufficientDiversity) {
		sel.Fallback = true
		return sel, nil
	}
	return sel, err
}

func (s *ResampleStrategy) Breed(sel Selection, population []poly.Genome, params Params, rng *rand.Rand) ([]poly.Genome, error) {
	if sel.Fallback {
		return breed(sel.Elite, population, len(population), params, rng, false)
	}
	return breed(sel.Elite, sel.Pool, len(population), params, rng, true)
}
