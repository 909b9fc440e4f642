// Package dataset produces and loads the observations the engine fits:
// synthetic noisy samples of a random polynomial, or x,y CSV files.
package dataset

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/wildfunctions/genetic_poly/pkg/poly"
)

// ErrInvalidSpec is returned by Generate for unusable parameters.
var ErrInvalidSpec = errors.New("dataset: invalid spec")

// Spec describes a synthetic data set.
type Spec struct {
	Degree     int
	Points     int
	XMin, XMax float64
	Noise      float64 // standard deviation of additive Gaussian noise on y
	CoeffRange float64 // truth coefficients are uniform on [-CoeffRange, CoeffRange]
}

// DefaultSpec returns a small quadratic data set specification.
func DefaultSpec() Spec {
	return Spec{
		Degree:     2,
		Points:     50,
		XMin:       -10,
		XMax:       10,
		Noise:      1,
		CoeffRange: 10,
	}
}

// Generate draws ground-truth coefficients and Points samples with x evenly
// spaced over [XMin, XMax] and y = truth(x) + N(0, Noise^2).
func Generate(rng *rand.Rand, s Spec) (poly.Genome, []poly.DataPoint, error) {
	switch {
	case s.Degree < 0:
		return nil, nil, fmt.Errorf("%w: degree %d < 0", ErrInvalidSpec, s.Degree)
	case s.Points < 1:
		return nil, nil, fmt.Errorf("%w: points %d < 1", ErrInvalidSpec, s.Points)
	case s.XMax < s.XMin:
		return nil, nil, fmt.Errorf("%w: x range [%g, %g]", ErrInvalidSpec, s.XMin, s.XMax)
	case s.Noise < 0 || s.CoeffRange < 0:
		return nil, nil, fmt.Errorf("%w: negative noise or coefficient range", ErrInvalidSpec)
	}

	truth := make(poly.Genome, s.Degree+1)
	for i := range truth {
		truth[i] = (rng.Float64()*2 - 1) * s.CoeffRange
	}

	data := make([]poly.DataPoint, s.Points)
	step := 0.0
	if s.Points > 1 {
		step = (s.XMax - s.XMin) / float64(s.Points-1)
	}
	for i := range data {
		x := s.XMin + float64(i)*step
		data[i] = poly.DataPoint{X: x, Y: poly.Evaluate(x, truth) + rng.NormFloat64()*s.Noise}
	}
	return truth, data, nil
}
