package sim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stosir/stosir/internal/testutil"
)

func TestSummarize_MeanAndSampleStdDev(t *testing.T) {
	ts := TrialSet{
		S: [][]float64{{10, 9, 8}, {10, 10, 6}},
		I: [][]float64{{1, 2, 3}, {1, 1, 3}},
		R: [][]float64{{0, 0, 0}, {0, 0, 2}},
	}

	sum, err := Summarize(ts)
	require.NoError(t, err)

	assert.Equal(t, 2, sum.NumTrials)
	assert.Equal(t, []float64{10, 9.5, 7}, sum.Mean.S)
	assert.Equal(t, []float64{1, 1.5, 3}, sum.Mean.I)
	assert.Equal(t, []float64{0, 0, 1}, sum.Mean.R)
	// n-1 denominator: std of {8, 6} is sqrt(2)
	testutil.AssertRelClose(t, "std S[2]", math.Sqrt2, sum.StdDev.S[2], 1e-12)
	testutil.AssertRelClose(t, "std S[1]", math.Sqrt(0.5), sum.StdDev.S[1], 1e-12)
	assert.Equal(t, 0.0, sum.StdDev.I[2])
	assert.Equal(t, 3.0, sum.PeakInfected)
	assert.Equal(t, 2, sum.PeakIndex)
}

func TestSummarize_SingleTrial_ZeroStdDev(t *testing.T) {
	ts := TrialSet{S: [][]float64{{5, 4}}, I: [][]float64{{1, 2}}, R: [][]float64{{0, 0}}}

	sum, err := Summarize(ts)
	require.NoError(t, err)

	assert.Equal(t, []float64{5, 4}, sum.Mean.S)
	assert.Equal(t, []float64{0, 0}, sum.StdDev.S)
}

func TestSummarize_Errors(t *testing.T) {
	tests := []struct {
		name    string
		ts      TrialSet
		wantErr string
	}{
		{"empty", TrialSet{}, "empty trial set"},
		{"compartment count mismatch", TrialSet{S: [][]float64{{1}}, I: [][]float64{}, R: [][]float64{{1}}}, "trial counts differ"},
		{"ragged", TrialSet{
			S: [][]float64{{1, 2}, {1}},
			I: [][]float64{{1, 2}, {1}},
			R: [][]float64{{1, 2}, {1}},
		}, "trial 1 has length"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Summarize(tt.ts)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestSummarize_GeneratedBatch_MeanConserved(t *testing.T) {
	g := mustGenerator(t, smallOutbreakConfig(8))
	require.NoError(t, g.GenerateAll())

	sum, err := Summarize(g.Results())
	require.NoError(t, err)

	total := g.Config().Params.InitialState().Total()
	for k := range sum.Mean.S {
		require.InDelta(t, total, sum.Mean.S[k]+sum.Mean.I[k]+sum.Mean.R[k], 1e-9, "index %d", k)
	}
}
