package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wildfunctions/genetic_poly/pkg/dataset"
)

func TestConfigFromFlags_OnlyChangedFlagsOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "polyfit.yaml")
	configPath = path

	cfg, err := configFromFlags(runCmd)
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Population)

	require.NoError(t, runCmd.Flags().Set("population", "12"))
	require.NoError(t, runCmd.Flags().Set("strategy", "resample"))
	require.NoError(t, runCmd.Flags().Set("crossover-bias", "0.25"))
	cfg, err = configFromFlags(runCmd)
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Population)
	assert.Equal(t, "resample", cfg.Strategy)
	assert.Equal(t, 0.25, cfg.Params.CrossoverBias)
	assert.Equal(t, 2, cfg.Degree)
}

func TestGenerateCommand_WritesCSV(t *testing.T) {
	out := filepath.Join(t.TempDir(), "data.csv")
	var stderr bytes.Buffer
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs([]string{"generate", out, "--points", "7", "--seed", "5"})
	require.NoError(t, rootCmd.Execute())

	data, err := dataset.Load(out)
	require.NoError(t, err)
	assert.Len(t, data, 7)
	assert.Contains(t, stderr.String(), "truth:")
}
