// Package baseline computes the closed-form least-squares polynomial fit that
// the evolutionary search is compared against in run reports.
package baseline

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/wildfunctions/genetic_poly/pkg/poly"
)

// ErrUnderdetermined is returned when there are fewer points than coefficients.
var ErrUnderdetermined = errors.New("baseline: fewer data points than coefficients")

// Fit solves min ||V c - y||_2 for the Vandermonde matrix V of the data,
// returning c with c[i] the coefficient of x^i.
func Fit(data []poly.DataPoint, degree int) (poly.Genome, error) {
	if degree < 0 {
		return nil, fmt.Errorf("baseline: degree %d < 0", degree)
	}
	if len(data) < degree+1 {
		return nil, fmt.Errorf("%w: %d points, degree %d", ErrUnderdetermined, len(data), degree)
	}

	x := make([]float64, len(data))
	y := make([]float64, len(data))
	for i, p := range data {
		x[i], y[i] = p.X, p.Y
	}

	a := vandermonde(x, degree)
	b := mat.NewDense(len(y), 1, y)
	c := mat.NewDense(degree+1, 1, nil)

	var qr mat.QR
	qr.Factorize(a)
	if err := qr.SolveTo(c, false, b); err != nil {
		return nil, fmt.Errorf("baseline: solve: %w", err)
	}

	out := make(poly.Genome, degree+1)
	for i := range out {
		out[i] = c.At(i, 0)
	}
	return out, nil
}

func vandermonde(a []float64, degree int) *mat.Dense {
	x := mat.NewDense(len(a), degree+1, nil)
	for i := range a {
		for j, p := 0, 1.; j <= degree; j, p = j+1, p*a[i] {
			x.Set(i, j, p)
		}
	}
	return x
}
