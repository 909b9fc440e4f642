package strategy

import (
	"math/rand"

	"github.com/wildfunctions/genetic_poly/pkg/poly"
)

func init() {
	Register("truncation", func() Strategy { return &TruncationStrategy{} })
}

// TruncationStrategy is the baseline: elitism plus truncation selection,
// breeding distinct parent pairs from the deduplicated pool. It aborts with
// ErrInsufficientDiversity when the pool collapses.
type TruncationStrategy struct{}

func (s *TruncationStrategy) Name() string { return "truncation" }

func (s *TruncationStrategy) Select(population []poly.Genome, fitnesses []float64, params Params) (Selection, error) {
	return Select(population, fitnesses, params.Truncation)
}

func (s *TruncationStrategy) Breed(sel Selection, population []poly.Genome, params Params, rng *rand.Rand) ([]poly.Genome, error) {
	if len(sel.Pool) < 2 {
		return nil, ErrInsufficientDiversity
	}
	return breed(sel.Elite, sel.Pool, len(population), params, rng, true)
}
