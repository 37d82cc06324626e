package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stosir/stosir/sim"
)

func TestDefaultScenario_MatchesReferenceRun(t *testing.T) {
	sc := DefaultScenario()
	assert.Equal(t, 300, sc.NumTrials)
	assert.Equal(t, 75000, sc.NumSteps)
	assert.Equal(t, 0.0009, sc.TimeStep)

	cfg, err := sc.GeneratorConfig()
	require.NoError(t, err)
	assert.Equal(t, sim.DefaultModelParams(), cfg.Params)
	assert.Equal(t, sim.BoundaryAllow, cfg.Boundary)
	assert.Equal(t, sim.DefaultRejectionThreshold, cfg.RejectionThreshold)
}

func TestParseScenario_PartialFileKeepsBase(t *testing.T) {
	// GIVEN a file that sets only a few fields
	data := []byte(`
num_trials: 12
boundary: clamp
model:
  recovery_rate: 0.3
`)
	// WHEN it is parsed over the defaults
	sc, err := parseScenario(data, DefaultScenario())
	require.NoError(t, err)

	// THEN set fields change and everything else keeps the default
	assert.Equal(t, 12, sc.NumTrials)
	assert.Equal(t, "clamp", sc.Boundary)
	assert.Equal(t, 0.3, sc.Model.RecoveryRate)
	assert.Equal(t, 0.5, sc.Model.TransmissionRate)
	assert.Equal(t, 75000, sc.NumSteps)
}

func TestParseScenario_UnknownFieldRejected(t *testing.T) {
	_, err := parseScenario([]byte("num_trails: 3\n"), DefaultScenario())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "num_trails")
}

func TestLoadScenario_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte("seed: 99\ntime_step: 0.01\n"), 0o644))

	sc, err := LoadScenario(path, DefaultScenario())
	require.NoError(t, err)
	assert.Equal(t, int64(99), sc.Seed)
	assert.Equal(t, 0.01, sc.TimeStep)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"), DefaultScenario())
	assert.ErrorContains(t, err, "reading scenario")
}

func TestScenario_GeneratorConfig_Invalid(t *testing.T) {
	sc := DefaultScenario()
	sc.Boundary = "wrap"
	_, err := sc.GeneratorConfig()
	assert.ErrorContains(t, err, "unknown boundary policy")

	sc = DefaultScenario()
	sc.Model.PopulationSize = -5
	_, err = sc.GeneratorConfig()
	assert.ErrorContains(t, err, "population_size")
}
