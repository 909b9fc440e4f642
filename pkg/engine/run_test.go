package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wildfunctions/genetic_poly/pkg/poly"
)

func quadraticData() []poly.DataPoint {
	truth := poly.Genome{1, -2, 0.5}
	var data []poly.DataPoint
	for x := -4.0; x <= 4; x += 0.5 {
		data = append(data, poly.DataPoint{X: x, Y: poly.Evaluate(x, truth)})
	}
	return data
}

func TestEngine_SmallRun(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Population = 40
	cfg.Degree = 2
	cfg.Generations = 60
	cfg.Seed = 42
	cfg.StagnationLimit = 0

	e, err := New(cfg, quadraticData())
	require.NoError(t, err)

	report, err := e.Run(context.Background())
	require.NoError(t, err)

	require.NotNil(t, report.BestGenome)
	assert.Len(t, report.BestGenome, 3)
	assert.Equal(t, 60, report.TotalGenerations)
	require.Len(t, report.Attempts, 1)
	assert.Equal(t, 60, report.Attempts[0].Generations)
	assert.InDelta(t, -report.BestFitness, report.BestMAE, 1e-12)
	assert.False(t, report.Interrupted)

	require.NotNil(t, report.Baseline)
	assert.InDelta(t, 0, report.BaselineMAE, 1e-9)

	t.Logf("best after %d gens: MAE %.4f, %s", report.TotalGenerations, report.BestMAE, report.BestGenome)
}

func TestEngine_ToleranceStopsRun(t *testing.T) {
	cfg := testConfig()
	cfg.Generations = 500
	cfg.Tolerance = 1e6

	e, err := New(cfg, lineData)
	require.NoError(t, err)

	report, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.TotalGenerations)
}

func TestEngine_RestartAfterCollapse(t *testing.T) {
	cfg := testConfig()
	cfg.Population = 10
	cfg.Generations = 20
	cfg.StagnationLimit = 0

	e, err := New(cfg, lineData, WithInitialPopulation(collapsingPopulation()))
	require.NoError(t, err)

	report, err := e.Run(context.Background())
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(report.Attempts), 2)
	assert.True(t, report.Attempts[0].Collapsed)
	assert.Equal(t, 0, report.Attempts[0].Generations)
	assert.LessOrEqual(t, report.TotalGenerations, cfg.Generations)

	totalGens := 0
	for i, a := range report.Attempts {
		assert.Equal(t, i+1, a.Attempt)
		assert.LessOrEqual(t, a.BestFoundAtGen, a.Generations)
		totalGens += a.Generations
	}
	assert.LessOrEqual(t, totalGens, cfg.Generations)
}

func TestEngine_Restart(t *testing.T) {
	cfg := testConfig()
	cfg.Generations = 40
	cfg.StagnationLimit = 1
	// Without mutation children are gene mixes of the pool; the elite stalls quickly.
	cfg.Params.MutationProbability = 0

	e, err := New(cfg, lineData)
	require.NoError(t, err)

	report, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(report.Attempts), 2)
	assert.Equal(t, 40, report.TotalGenerations)
}

func TestEngine_RunCancelled(t *testing.T) {
	cfg := testConfig()
	cfg.Generations = 0 // unlimited

	e, err := New(cfg, lineData)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	e.Subscribe(ObserverFunc(func(g Generation) {
		if g.Index == 5 {
			cancel()
		}
	}))
	defer e.Close()

	report, err := e.Run(ctx)
	require.NoError(t, err)
	assert.True(t, report.Interrupted)
	assert.GreaterOrEqual(t, report.TotalGenerations, 5)
}

func TestEngine_WritesHallOfFame(t *testing.T) {
	cfg := testConfig()
	cfg.Generations = 5
	cfg.OutDir = filepath.Join(t.TempDir(), "out")

	e, err := New(cfg, lineData)
	require.NoError(t, err)
	_, err = e.Run(context.Background())
	require.NoError(t, err)

	tex, err := os.ReadFile(filepath.Join(cfg.OutDir, "hall_of_fame.tex"))
	require.NoError(t, err)
	assert.Contains(t, string(tex), `\begin{document}`)
	assert.Contains(t, string(tex), "y = ")
}

func TestEngine_ReportFormats(t *testing.T) {
	cfg := testConfig()
	cfg.Generations = 5
	cfg.Verbose = true

	e, err := New(cfg, lineData)
	require.NoError(t, err)
	report, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, report.Generations, 5)

	var text bytes.Buffer
	WriteTextFinal(&text, report)
	assert.Contains(t, text.String(), "FINAL RESULT")
	assert.Contains(t, text.String(), "Hall of Fame")
	assert.Equal(t, 5, strings.Count(text.String(), "Gen "))

	var js bytes.Buffer
	require.NoError(t, WriteJSONFinal(&js, report))
	var decoded FinalReport
	require.NoError(t, json.Unmarshal(js.Bytes(), &decoded))
	assert.Equal(t, report.BestGenome, decoded.BestGenome)
	assert.Equal(t, report.TotalGenerations, decoded.TotalGenerations)
}
