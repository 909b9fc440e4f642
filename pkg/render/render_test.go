package render

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wildfunctions/genetic_poly/pkg/engine"
	"github.com/wildfunctions/genetic_poly/pkg/poly"
)

var quadratic = []poly.DataPoint{{X: -1, Y: 2}, {X: 0, Y: 1}, {X: 1, Y: 2}, {X: 2, Y: 5}}

func TestPlotObserver_WritesSnapshotsAndFitness(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "plots")
	p, err := NewPlotObserver(dir, 2, quadratic)
	require.NoError(t, err)

	for i := 1; i <= 5; i++ {
		p.OnGeneration(engine.Generation{
			Attempt:      1,
			Index:        i,
			Elite:        poly.Genome{1, 0, float64(i) / 5},
			EliteFitness: -1 / float64(i),
			Stats:        engine.Stats{Best: -1 / float64(i), Mean: -2 / float64(i)},
		})
	}
	require.NoError(t, p.Close())

	for _, name := range []string{"gen_00000.png", "gen_00002.png", "gen_00004.png", "fitness.png"} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.Positive(t, info.Size(), name)
	}
	_, err = os.Stat(filepath.Join(dir, "gen_00001.png"))
	assert.True(t, os.IsNotExist(err))
}

func TestPlotObserver_RestartDoesNotOverwrite(t *testing.T) {
	dir := t.TempDir()
	p, err := NewPlotObserver(dir, 1, quadratic)
	require.NoError(t, err)

	for _, g := range []struct{ attempt, index int }{{1, 1}, {1, 2}, {2, 1}, {2, 2}} {
		p.OnGeneration(engine.Generation{
			Attempt:      g.attempt,
			Index:        g.index,
			Elite:        poly.Genome{1, 0, 1},
			EliteFitness: -1,
			Stats:        engine.Stats{Best: -1, Mean: -2},
		})
	}
	require.NoError(t, p.Close())

	for _, name := range []string{"gen_00000.png", "gen_00001.png", "gen_00002.png", "gen_00003.png"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
}

func TestPlotObserver_NoGenerations(t *testing.T) {
	dir := t.TempDir()
	p, err := NewPlotObserver(dir, 1, quadratic)
	require.NoError(t, err)
	require.NoError(t, p.Close())

	_, err = os.Stat(filepath.Join(dir, "fitness.png"))
	assert.True(t, os.IsNotExist(err))
}

func TestFitness_LengthMismatch(t *testing.T) {
	err := Fitness([]float64{0, 1}, []float64{1}, []float64{1, 2}, filepath.Join(t.TempDir(), "f.png"))
	assert.Error(t, err)
}
