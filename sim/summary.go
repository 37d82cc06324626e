package sim

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// CompartmentSeries is one value per time index for each compartment.
type CompartmentSeries struct {
	S, I, R []float64
}

// Summary aggregates a Trial Set across trials at each time index.
type Summary struct {
	NumTrials    int
	Mean         CompartmentSeries
	StdDev       CompartmentSeries // sample standard deviation (n-1); zero for a single trial
	PeakInfected float64           // max of Mean.I
	PeakIndex    int               // time index of PeakInfected
}

// Summarize computes per-time-index mean and sample standard deviation of S, I
// and R across all trials. All trials must have the same length.
func Summarize(ts TrialSet) (*Summary, error) {
	n := ts.NumTrials()
	if n == 0 {
		return nil, errors.New("cannot summarize an empty trial set")
	}
	if len(ts.I) != n || len(ts.R) != n {
		return nil, fmt.Errorf("compartment trial counts differ: S=%d I=%d R=%d", n, len(ts.I), len(ts.R))
	}
	points := len(ts.S[0])
	for k := 0; k < n; k++ {
		if len(ts.S[k]) != points || len(ts.I[k]) != points || len(ts.R[k]) != points {
			return nil, fmt.Errorf("trial %d has length (%d, %d, %d), want %d",
				k, len(ts.S[k]), len(ts.I[k]), len(ts.R[k]), points)
		}
	}

	sum := &Summary{NumTrials: n}
	sum.Mean.S, sum.StdDev.S = columnStats(ts.S, points)
	sum.Mean.I, sum.StdDev.I = columnStats(ts.I, points)
	sum.Mean.R, sum.StdDev.R = columnStats(ts.R, points)
	if points > 0 {
		sum.PeakIndex = floats.MaxIdx(sum.Mean.I)
		sum.PeakInfected = sum.Mean.I[sum.PeakIndex]
	}
	return sum, nil
}

func columnStats(trials [][]float64, points int) (mean, std []float64) {
	mean = make([]float64, points)
	std = make([]float64, points)
	col := make([]float64, len(trials))
	for t := 0; t < points; t++ {
		for k, series := range trials {
			col[k] = series[t]
		}
		if len(col) == 1 {
			mean[t] = col[0]
			continue
		}
		mean[t], std[t] = stat.MeanStdDev(col, nil)
	}
	return mean, std
}
