package sim

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/sirupsen/logrus"
)

// Trajectory is one trial: three parallel series indexed by time step.
// All three slices have the same length.
type Trajectory struct {
	S, I, R []float64
}

// NewTrajectory allocates a zeroed trajectory with n points.
func NewTrajectory(n int) Trajectory {
	return Trajectory{S: make([]float64, n), I: make([]float64, n), R: make([]float64, n)}
}

// Len returns the number of points.
func (t Trajectory) Len() int { return len(t.S) }

// At returns the state at time index k.
func (t Trajectory) At(k int) State {
	return State{S: t.S[k], I: t.I[k], R: t.R[k]}
}

func (t Trajectory) set(k int, s State) {
	t.S[k], t.I[k], t.R[k] = s.S, s.I, s.R
}

// SusceptibleChange returns |S[0] - S[last]|, or 0 for an empty trajectory.
func (t Trajectory) SusceptibleChange() float64 {
	if len(t.S) == 0 {
		return 0
	}
	return math.Abs(t.S[0] - t.S[len(t.S)-1])
}

// TrialSet holds all accepted trials grouped by compartment.
// S[k], I[k] and R[k] together form trial k.
type TrialSet struct {
	S, I, R [][]float64
}

// NumTrials returns the number of trial slots.
func (ts TrialSet) NumTrials() int { return len(ts.S) }

// Trial returns trial k as a Trajectory sharing the set's storage.
func (ts TrialSet) Trial(k int) Trajectory {
	return Trajectory{S: ts.S[k], I: ts.I[k], R: ts.R[k]}
}

// RunStats records how hard the rejection loop had to work in the last GenerateAll.
type RunStats struct {
	Attempts []int // trajectories generated per slot, including the accepted one
	Rejected int   // total discarded trajectories
}

// Generator builds a batch of SIR trials. It is a single-goroutine batch job:
// parameters are fixed at construction and result storage is allocated up front.
type Generator struct {
	config  GeneratorConfig
	stepper *Stepper
	rng     *PartitionedRNG
	results TrialSet
	stats   RunStats
}

// NewGenerator validates cfg and allocates the full Trial Set
// (NumTrials x (NumSteps+1) per compartment).
func NewGenerator(cfg GeneratorConfig) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid generator config: %w", err)
	}
	points := cfg.NumSteps + 1
	results := TrialSet{
		S: make([][]float64, cfg.NumTrials),
		I: make([][]float64, cfg.NumTrials),
		R: make([][]float64, cfg.NumTrials),
	}
	for k := 0; k < cfg.NumTrials; k++ {
		results.S[k] = make([]float64, points)
		results.I[k] = make([]float64, points)
		results.R[k] = make([]float64, points)
	}
	return &Generator{
		config:  cfg,
		stepper: NewStepper(cfg.Params, cfg.TimeStep, cfg.Boundary),
		rng:     NewPartitionedRNG(NewSimulationKey(cfg.Seed)),
		results: results,
	}, nil
}

// Config returns a copy of the generator's configuration.
func (g *Generator) Config() GeneratorConfig { return g.config }

// Results returns the Trial Set. Contents are only meaningful after a
// successful GenerateAll; the slices are shared, not copied.
func (g *Generator) Results() TrialSet { return g.results }

// Stats returns the attempt statistics of the last GenerateAll.
func (g *Generator) Stats() RunStats { return g.stats }

// GenerateTrial runs one complete trajectory of NumSteps steps from the
// initial state using src. No rejection is applied.
func (g *Generator) GenerateTrial(src rand.Source) (Trajectory, error) {
	traj := NewTrajectory(g.config.NumSteps + 1)
	if err := g.fill(traj, src); err != nil {
		return Trajectory{}, err
	}
	return traj, nil
}

// fill overwrites every point of traj. Step k depends on step k-1, so a
// single trajectory is strictly sequential.
func (g *Generator) fill(traj Trajectory, src rand.Source) error {
	state := g.config.Params.InitialState()
	traj.set(0, state)
	for k := 1; k < traj.Len(); k++ {
		next, _, err := g.stepper.Step(state, src)
		if err != nil {
			return &StepError{Step: k - 1, State: state, Err: err}
		}
		state = next
		traj.set(k, state)
	}
	return nil
}

// Accepted reports whether traj passes the rejection threshold.
func (g *Generator) Accepted(traj Trajectory) bool {
	return traj.SusceptibleChange() >= g.config.RejectionThreshold
}

// GenerateAll fills every trial slot with an accepted trajectory, retrying
// rejected ones from scratch on the slot's own random stream. Calling it again
// continues those streams, so results are regenerated with fresh randomness.
//
// On error the Trial Set is partially overwritten and must not be used.
func (g *Generator) GenerateAll() error {
	g.stats = RunStats{Attempts: make([]int, g.config.NumTrials)}
	for k := 0; k < g.config.NumTrials; k++ {
		attempts, err := g.generateSlot(k)
		g.stats.Attempts[k] = attempts
		if err != nil {
			return err
		}
		g.stats.Rejected += attempts - 1
	}
	logrus.Infof("Generated %d trials (%d steps, dt=%g): %d rejected",
		g.config.NumTrials, g.config.NumSteps, g.config.TimeStep, g.stats.Rejected)
	return nil
}

// generateSlot writes an accepted trajectory into slot k and returns the
// number of trajectories generated.
func (g *Generator) generateSlot(k int) (int, error) {
	src := g.rng.ForTrial(k)
	slot := g.results.Trial(k)
	for attempt := 1; ; attempt++ {
		if err := g.fill(slot, src); err != nil {
			return attempt, fmt.Errorf("trial %d attempt %d: %w", k, attempt, err)
		}
		if g.Accepted(slot) {
			return attempt, nil
		}
		logrus.Debugf("trial %d attempt %d rejected: |dS|=%g < %g",
			k, attempt, slot.SusceptibleChange(), g.config.RejectionThreshold)
		if g.config.MaxAttempts > 0 && attempt >= g.config.MaxAttempts {
			g.stats.Rejected += attempt
			return attempt, &RejectionError{Trial: k, Attempts: attempt, Threshold: g.config.RejectionThreshold}
		}
	}
}
