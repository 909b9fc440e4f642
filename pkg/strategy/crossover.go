package strategy

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/wildfunctions/genetic_poly/pkg/poly"
)

// ErrLengthMismatch is returned when crossing genomes of different lengths.
var ErrLengthMismatch = errors.New("strategy: genome length mismatch")

// Crossover builds one child by uniform crossover: for each gene independently
// the child takes a[i] with probability bias, else b[i]. Neither parent is modified.
func Crossover(a, b poly.Genome, bias float64, rng *rand.Rand) (poly.Genome, error) {
	if len(a) != len(b) {
		return nil, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(a), len(b))
	}
	child := make(poly.Genome, len(a))
	for i := range child {
		if rng.Float64() < bias {
			child[i] = a[i]
		} else {
			child[i] = b[i]
		}
	}
	return child, nil
}
