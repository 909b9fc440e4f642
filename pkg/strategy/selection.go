package strategy

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/wildfunctions/genetic_poly/pkg/poly"
)

// ErrInsufficientDiversity is returned when fewer than two distinct genomes
// survive truncation, so no pair of distinct parents can be drawn.
var ErrInsufficientDiversity = errors.New("strategy: insufficient diversity in breeding pool")

// Selection is the outcome of truncation selection over one generation.
type Selection struct {
	Elite        poly.Genome
	EliteIndex   int
	EliteFitness float64
	// Threshold is the score at rank floor(truncation*N) of the ascending scores.
	Threshold float64
	// Pool holds the distinct genomes scoring strictly above Threshold,
	// in order of first occurrence in the population.
	Pool []poly.Genome
	// Fallback is set when parents were drawn from the whole population
	// instead of Pool.
	Fallback bool
	// Fitness is the scored input, index-aligned with the population.
	Fitness []float64
}

// Truncate computes the elite, the truncation threshold and the deduplicated
// breeding pool. It does not check the pool size; see Select.
//
// The elite is the first genome in population order holding the maximum
// score. NaN scores never qualify for the pool and only become the elite
// when every score is NaN.
func Truncate(population []poly.Genome, fitnesses []float64, truncation float64) (Selection, error) {
	n := len(population)
	if n == 0 {
		return Selection{}, errors.New("strategy: empty population")
	}
	if len(fitnesses) != n {
		return Selection{}, fmt.Errorf("strategy: %d genomes but %d fitness scores", n, len(fitnesses))
	}

	sorted := make([]float64, n)
	copy(sorted, fitnesses)
	sort.Float64s(sorted)

	rank := int(math.Floor(truncation * float64(n)))
	rank = max(0, min(rank, n-1))
	threshold := sorted[rank]

	eliteIdx := -1
	for i, f := range fitnesses {
		if math.IsNaN(f) {
			continue
		}
		if eliteIdx < 0 || f > fitnesses[eliteIdx] {
			eliteIdx = i
		}
	}
	if eliteIdx < 0 {
		eliteIdx = 0
	}

	seen := make(map[string]struct{}, n)
	var pool []poly.Genome
	for i, g := range population {
		if !(fitnesses[i] > threshold) {
			continue
		}
		key := g.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		pool = append(pool, g)
	}

	return Selection{
		Elite:        population[eliteIdx],
		EliteIndex:   eliteIdx,
		EliteFitness: fitnesses[eliteIdx],
		Threshold:    threshold,
		Pool:         pool,
		Fitness:      fitnesses,
	}, nil
}

// Select runs Truncate and fails with ErrInsufficientDiversity when the
// breeding pool holds fewer than two genomes. The Selection is returned
// populated in that case too.
func Select(population []poly.Genome, fitnesses []float64, truncation float64) (Selection, error) {
	sel, err := Truncate(population, fitnesses, truncation)
	if err != nil {
		return sel, err
	}
	if len(sel.Pool) < 2 {
		return sel, fmt.Errorf("%w: %d distinct genome(s) above threshold %g",
			ErrInsufficientDiversity, len(sel.Pool), sel.Threshold)
	}
	return sel, nil
}
