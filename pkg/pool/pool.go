package pool

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"github.com/wildfunctions/genetic_poly/pkg/poly"
)

var (
	// ErrInvalidConfig is returned for a non-positive population size or negative degree.
	ErrInvalidConfig = errors.New("pool: invalid config")
	// ErrUnknownPool is returned by Get for an unregistered name.
	ErrUnknownPool = errors.New("pool: unknown pool")
)

// Pool provides random coefficients for building initial genomes.
type Pool interface {
	Name() string
	// RandomGene draws the coefficient for the term of the given degree.
	RandomGene(rng *rand.Rand, term int) float64
}

var registry = map[string]func() Pool{}

// Register adds a pool constructor to the registry.
func Register(name string, constructor func() Pool) {
	registry[name] = constructor
}

// Get returns a pool by name.
func Get(name string) (Pool, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPool, name)
	}
	return ctor(), nil
}

// Names returns all registered pool names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for k := range registry {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Initialize builds a population of size genomes of length degree+1.
// Genes are drawn in genome order, lowest degree first, so a fixed rng
// stream always yields the same population.
func Initialize(p Pool, rng *rand.Rand, size, degree int) ([]poly.Genome, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: population size %d < 1", ErrInvalidConfig, size)
	}
	if degree < 0 {
		return nil, fmt.Errorf("%w: degree %d < 0", ErrInvalidConfig, degree)
	}
	pop := make([]poly.Genome, size)
	for i := range pop {
		g := make(poly.Genome, degree+1)
		for j := range g {
			g[j] = p.RandomGene(rng, j)
		}
		pop[i] = g
	}
	return pop, nil
}
