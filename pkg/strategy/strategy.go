package strategy

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"github.com/wildfunctions/genetic_poly/pkg/poly"
)

var (
	// ErrUnknownStrategy is returned by Get for an unregistered name.
	ErrUnknownStrategy = errors.New("strategy: unknown strategy")
	// ErrInvalidParams is returned by Params.Validate.
	ErrInvalidParams = errors.New("strategy: invalid params")
)

// Params are the operator settings fixed for a run.
type Params struct {
	Truncation          float64 `yaml:"truncation" json:"truncation"`
	MutationProbability float64 `yaml:"mutation_probability" json:"mutation_probability"`
	MutationMagnitude   float64 `yaml:"mutation_magnitude" json:"mutation_magnitude"`
	CrossoverBias       float64 `yaml:"crossover_bias" json:"crossover_bias"`
}

// DefaultParams returns the baseline operator settings.
func DefaultParams() Params {
	return Params{
		Truncation:          0.6,
		MutationProbability: 0.9,
		MutationMagnitude:   0.5,
		CrossoverBias:       0.5,
	}
}

// Validate checks every parameter is in range.
func (p Params) Validate() error {
	switch {
	case !(p.Truncation >= 0 && p.Truncation < 1):
		return fmt.Errorf("%w: truncation %g not in [0, 1)", ErrInvalidParams, p.Truncation)
	case !(p.MutationProbability >= 0 && p.MutationProbability <= 1):
		return fmt.Errorf("%w: mutation probability %g not in [0, 1]", ErrInvalidParams, p.MutationProbability)
	case !(p.MutationMagnitude >= 0):
		return fmt.Errorf("%w: mutation magnitude %g < 0", ErrInvalidParams, p.MutationMagnitude)
	case !(p.CrossoverBias >= 0 && p.CrossoverBias <= 1):
		return fmt.Errorf("%w: crossover bias %g not in [0, 1]", ErrInvalidParams, p.CrossoverBias)
	}
	return nil
}

// Strategy turns one scored generation into the next in two steps:
// Select picks the elite and the breeding pool, Breed builds the new
// population from them. Neither step modifies the input population.
type Strategy interface {
	Name() string
	Select(population []poly.Genome, fitnesses []float64, params Params) (Selection, error)
	Breed(sel Selection, population []poly.Genome, params Params, rng *rand.Rand) ([]poly.Genome, error)
}

// Evolve runs Select followed by Breed.
func Evolve(s Strategy, population []poly.Genome, fitnesses []float64, params Params, rng *rand.Rand) ([]poly.Genome, Selection, error) {
	sel, err := s.Select(population, fitnesses, params)
	if err != nil {
		return nil, sel, err
	}
	next, err := s.Breed(sel, population, params, rng)
	if err != nil {
		return nil, sel, err
	}
	return next, sel, nil
}

var registry = map[string]func() Strategy{}

// Register adds a strategy constructor to the registry.
func Register(name string, constructor func() Strategy) {
	registry[name] = constructor
}

// Get returns a strategy by name.
func Get(name string) (Strategy, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStrategy, name)
	}
	return ctor(), nil
}

// Names returns all registered strategy names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for k := range registry {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// breed seeds the next population with the elite and fills it to size n with
// mutated crossover children of parents. With distinct set, the two parents of
// a child are always different pool members.
func breed(elite poly.Genome, parents []poly.Genome, n int, params Params, rng *rand.Rand, distinct bool) ([]poly.Genome, error) {
	next := make([]poly.Genome, 0, n)
	next = append(next, elite.Clone())

	for len(next) < n {
		a, b := pickPair(len(parents), rng, distinct)
		child, err := Crossover(parents[a], parents[b], params.CrossoverBias, rng)
		if err != nil {
			return nil, err
		}
		next = append(next, Mutate(child, params.MutationProbability, params.MutationMagnitude, rng))
	}
	return next, nil
}

// pickPair draws two indices in [0, k). Distinct draws require k >= 2.
func pickPair(k int, rng *rand.Rand, distinct bool) (int, int) {
	a := rng.Intn(k)
	if !distinct {
		return a, rng.Intn(k)
	}
	b := rng.Intn(k - 1)
	if b >= a {
		b++
	}
	return a, b
}
