package baseline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wildfunctions/genetic_poly/pkg/poly"
)

func TestFit_RecoversExactPolynomial(t *testing.T) {
	truth := poly.Genome{2, -3, 0.5}
	var data []poly.DataPoint
	for x := -5.0; x <= 5; x += 0.5 {
		data = append(data, poly.DataPoint{X: x, Y: poly.Evaluate(x, truth)})
	}

	got, err := Fit(data, 2)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i := range truth {
		assert.InDelta(t, truth[i], got[i], 1e-9, "coefficient %d", i)
	}
}

func TestFit_Line(t *testing.T) {
	got, err := Fit([]poly.DataPoint{{X: 0, Y: 2}, {X: 1, Y: 4}}, 1)
	require.NoError(t, err)
	assert.InDelta(t, 2, got[0], 1e-12)
	assert.InDelta(t, 2, got[1], 1e-12)
}

func TestFit_Underdetermined(t *testing.T) {
	_, err := Fit([]poly.DataPoint{{X: 0, Y: 1}}, 2)
	assert.ErrorIs(t, err, ErrUnderdetermined)

	_, err = Fit([]poly.DataPoint{{X: 0, Y: 1}}, -1)
	assert.Error(t, err)
}
