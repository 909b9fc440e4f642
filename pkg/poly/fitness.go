package poly

import (
	"errors"
	"fmt"
	"math"
)

// ErrEmptyData is returned when fitness is requested over an empty data set.
var ErrEmptyData = errors.New("poly: empty data set")

// ErrNonFinite is returned by ValidateData for NaN or infinite observations.
var ErrNonFinite = errors.New("poly: non-finite data point")

// DataPoint is one observation (x, y).
type DataPoint struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// ValidateData checks that data is usable for fitness evaluation.
func ValidateData(data []DataPoint) error {
	if len(data) == 0 {
		return ErrEmptyData
	}
	for i, p := range data {
		if math.IsNaN(p.X) || math.IsInf(p.X, 0) || math.IsNaN(p.Y) || math.IsInf(p.Y, 0) {
			return fmt.Errorf("%w: index %d (%g, %g)", ErrNonFinite, i, p.X, p.Y)
		}
	}
	return nil
}

// Fitness scores a genome against observed data: the negated mean absolute error.
// Higher is better; a perfect fit scores 0.
func Fitness(g Genome, data []DataPoint) (float64, error) {
	if len(data) == 0 {
		return 0, ErrEmptyData
	}
	return -MeanAbsError(g, data), nil
}

// MeanAbsError returns (1/|data|) * Sum |y - Evaluate(x, g)|.
// The caller guarantees data is non-empty.
func MeanAbsError(g Genome, data []DataPoint) float64 {
	var sum float64
	for _, p := range data {
		sum += math.Abs(p.Y - Evaluate(p.X, g))
	}
	return sum / float64(len(data))
}
