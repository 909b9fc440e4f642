package engine

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/wildfunctions/genetic_poly/pkg/poly"
)

// Stats summarizes the fitness of one scored generation.
type Stats struct {
	Best     float64 `json:"best"`
	Worst    float64 `json:"worst"`
	Mean     float64 `json:"mean"`
	StdDev   float64 `json:"stddev"`
	Distinct int     `json:"distinct"` // genomes distinct by value
}

func computeStats(pop []poly.Genome, fitnesses []float64) Stats {
	if len(fitnesses) == 0 {
		return Stats{}
	}
	mean, std := stat.MeanStdDev(fitnesses, nil)
	seen := make(map[string]struct{}, len(pop))
	for _, g := range pop {
		seen[g.Key()] = struct{}{}
	}
	return Stats{
		Best:     floats.Max(fitnesses),
		Worst:    floats.Min(fitnesses),
		Mean:     mean,
		StdDev:   std,
		Distinct: len(seen),
	}
}
