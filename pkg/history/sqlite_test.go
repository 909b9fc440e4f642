package history

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wildfunctions/genetic_poly/pkg/engine"
	"github.com/wildfunctions/genetic_poly/pkg/poly"
)

func newRecorder(t *testing.T) *Recorder {
	t.Helper()
	r := NewRecorder(filepath.Join(t.TempDir(), "history.db"), nil)
	require.NoError(t, r.Init(context.Background()))
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func generation(idx int, best float64, elite poly.Genome) engine.Generation {
	return attemptGeneration(1, idx, best, elite)
}

func attemptGeneration(attempt, idx int, best float64, elite poly.Genome) engine.Generation {
	return engine.Generation{
		Attempt:      attempt,
		Index:        idx,
		Elite:        elite,
		EliteFitness: best,
		Stats:        engine.Stats{Best: best, Mean: best - 1, StdDev: 0.5},
	}
}

func TestRecorder_StartRunAndGenerations(t *testing.T) {
	ctx := context.Background()
	r := newRecorder(t)

	cfg := engine.DefaultConfig()
	cfg.Seed = 7
	id, err := r.StartRun(ctx, cfg, 7)
	require.NoError(t, err)
	require.NotEmpty(t, id)
	assert.Equal(t, id, r.RunID())

	r.OnGeneration(generation(1, -3, poly.Genome{1, 2}))
	r.OnGeneration(generation(2, -1, poly.Genome{2, 2}))
	require.NoError(t, r.Err())

	runs, err := r.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, id, runs[0].ID)
	assert.Equal(t, int64(7), runs[0].Seed)
	assert.Equal(t, cfg.Population, runs[0].Config.Population)
	assert.Equal(t, cfg.Params, runs[0].Config.Params)

	gens, err := r.Generations(ctx, id)
	require.NoError(t, err)
	want := []GenerationRecord{
		{Attempt: 1, Index: 0, Best: -3, Mean: -4, StdDev: 0.5, Elite: poly.Genome{1, 2}},
		{Attempt: 1, Index: 1, Best: -1, Mean: -2, StdDev: 0.5, Elite: poly.Genome{2, 2}},
	}
	if diff := cmp.Diff(want, gens); diff != "" {
		t.Errorf("generations mismatch (-want +got):\n%s", diff)
	}
}

func TestRecorder_RepeatedKeyOverwrites(t *testing.T) {
	ctx := context.Background()
	r := newRecorder(t)
	id, err := r.StartRun(ctx, engine.DefaultConfig(), 1)
	require.NoError(t, err)

	r.OnGeneration(generation(1, -5, poly.Genome{0}))
	r.OnGeneration(generation(1, -2, poly.Genome{1}))
	require.NoError(t, r.Err())

	gens, err := r.Generations(ctx, id)
	require.NoError(t, err)
	require.Len(t, gens, 1)
	assert.Equal(t, -2.0, gens[0].Best)
}

func TestRecorder_AttemptsKeptApart(t *testing.T) {
	ctx := context.Background()
	r := newRecorder(t)
	id, err := r.StartRun(ctx, engine.DefaultConfig(), 1)
	require.NoError(t, err)

	r.OnGeneration(attemptGeneration(1, 1, -50, poly.Genome{2}))
	r.OnGeneration(attemptGeneration(1, 2, -20, poly.Genome{2}))
	r.OnGeneration(attemptGeneration(1, 3, -10, poly.Genome{1}))
	r.OnGeneration(attemptGeneration(2, 1, -40, poly.Genome{3}))
	require.NoError(t, r.Err())

	gens, err := r.Generations(ctx, id)
	require.NoError(t, err)
	type key struct{ attempt, index int }
	var got []key
	for _, g := range gens {
		got = append(got, key{g.Attempt, g.Index})
	}
	assert.Equal(t, []key{{1, 0}, {1, 1}, {1, 2}, {2, 0}}, got)
	assert.Equal(t, -50.0, gens[0].Best)
	assert.Equal(t, -40.0, gens[3].Best)
	assert.Equal(t, poly.Genome{3}, gens[3].Elite)
}

func TestRecorder_WithoutRun(t *testing.T) {
	r := newRecorder(t)
	r.OnGeneration(generation(1, -1, poly.Genome{1}))
	assert.ErrorIs(t, r.Err(), ErrNoRun)

	// later generations are ignored once an error is latched
	r.OnGeneration(generation(2, -1, poly.Genome{1}))
	assert.ErrorIs(t, r.Close(), ErrNoRun)
}

func TestRecorder_Uninitialized(t *testing.T) {
	r := NewRecorder(filepath.Join(t.TempDir(), "x.db"), nil)
	_, err := r.StartRun(context.Background(), engine.DefaultConfig(), 1)
	assert.Error(t, err)
	_, err = r.Runs(context.Background())
	assert.Error(t, err)
	assert.NoError(t, r.Close())

	assert.Error(t, NewRecorder("", nil).Init(context.Background()))
}

func TestRecorder_MultipleRuns(t *testing.T) {
	ctx := context.Background()
	r := newRecorder(t)
	a, err := r.StartRun(ctx, engine.DefaultConfig(), 1)
	require.NoError(t, err)
	r.OnGeneration(generation(1, -1, poly.Genome{1}))
	b, err := r.StartRun(ctx, engine.DefaultConfig(), 2)
	require.NoError(t, err)
	r.OnGeneration(generation(1, -9, poly.Genome{9}))
	require.NotEqual(t, a, b)

	runs, err := r.Runs(ctx)
	require.NoError(t, err)
	assert.Len(t, runs, 2)

	ga, err := r.Generations(ctx, a)
	require.NoError(t, err)
	gb, err := r.Generations(ctx, b)
	require.NoError(t, err)
	require.Len(t, ga, 1)
	require.Len(t, gb, 1)
	assert.Equal(t, -1.0, ga[0].Best)
	assert.Equal(t, -9.0, gb[0].Best)
}

func TestRecorder_WithEngine(t *testing.T) {
	ctx := context.Background()
	r := newRecorder(t)

	cfg := engine.DefaultConfig()
	cfg.Population = 20
	cfg.Degree = 1
	cfg.Seed = 3
	cfg.Workers = 2
	data := []poly.DataPoint{{X: 0, Y: 2}, {X: 1, Y: 4}}

	e, err := engine.New(cfg, data)
	require.NoError(t, err)
	id, err := r.StartRun(ctx, cfg, e.Seed())
	require.NoError(t, err)
	e.Subscribe(r)

	for i := 0; i < 5; i++ {
		_, err := e.Advance(ctx)
		require.NoError(t, err)
	}
	require.NoError(t, e.Close())
	require.NoError(t, r.Err())

	gens, err := r.Generations(ctx, id)
	require.NoError(t, err)
	require.Len(t, gens, 5)
	for i, g := range gens {
		assert.Equal(t, 1, g.Attempt)
		assert.Equal(t, i, g.Index)
		assert.Len(t, g.Elite, 2)
	}
}
