package sim

import (
	"fmt"
	"math"
)

const (
	// DefaultRejectionThreshold is the minimum |S[0] - S[last]| for a trial to be kept.
	DefaultRejectionThreshold = 10.0

	// DefaultMaxAttempts bounds the retry loop per trial slot. 0 means unbounded.
	DefaultMaxAttempts = 10000

	// DefaultSeed is the master seed used when none is supplied.
	DefaultSeed = 42
)

// ModelParams groups the SIR model constants for one run.
// Values are copied into the generator at construction and never mutated.
type ModelParams struct {
	TransmissionRate   float64 // K: per-contact infection rate coefficient
	RecoveryRate       float64 // GAMMA: per-infected recovery rate
	PopulationSize     float64 // N: normalizes contact probability (must be > 0)
	InitialSusceptible float64 // S0
	InitialInfected    float64 // I0
	InitialRecovered   float64 // R0
}

// DefaultModelParams returns the reference outbreak scenario:
// K=0.5, GAMMA=0.2, N=10000, (S0, I0, R0) = (10000, 1, 0).
func DefaultModelParams() ModelParams {
	return ModelParams{
		TransmissionRate:   0.5,
		RecoveryRate:       0.2,
		PopulationSize:     10000,
		InitialSusceptible: 10000,
		InitialInfected:    1,
		InitialRecovered:   0,
	}
}

// InitialState returns (S0, I0, R0).
func (p ModelParams) InitialState() State {
	return State{S: p.InitialSusceptible, I: p.InitialInfected, R: p.InitialRecovered}
}

// BasicReproductionNumber returns K/GAMMA, or +Inf when GAMMA is zero.
func (p ModelParams) BasicReproductionNumber() float64 {
	if p.RecoveryRate == 0 {
		return math.Inf(1)
	}
	return p.TransmissionRate / p.RecoveryRate
}

// Validate checks the structural parameters. Rates are deliberately not
// checked here: a bad rate surfaces as a StepError from the weighted draw,
// which carries the step index and state.
func (p ModelParams) Validate() error {
	if err := validateFinite("population_size", p.PopulationSize); err != nil {
		return err
	}
	if p.PopulationSize <= 0 {
		return fmt.Errorf("population_size must be positive, got %f", p.PopulationSize)
	}
	for _, f := range []struct {
		name string
		val  float64
	}{
		{"transmission_rate", p.TransmissionRate},
		{"recovery_rate", p.RecoveryRate},
		{"initial_susceptible", p.InitialSusceptible},
		{"initial_infected", p.InitialInfected},
		{"initial_recovered", p.InitialRecovered},
	} {
		if err := validateFinite(f.name, f.val); err != nil {
			return err
		}
	}
	return nil
}

// BoundaryPolicy decides what happens to events that would drive S or I below zero.
type BoundaryPolicy string

const (
	// BoundaryAllow applies events unconditionally; S and I may go negative.
	BoundaryAllow BoundaryPolicy = "allow"
	// BoundaryClamp zeroes the infection weight when S < 1 and the recovery weight when I < 1.
	BoundaryClamp BoundaryPolicy = "clamp"
)

var validBoundaryPolicies = map[BoundaryPolicy]bool{
	BoundaryAllow: true,
	BoundaryClamp: true,
}

// ParseBoundaryPolicy converts a CLI/YAML string to a BoundaryPolicy.
// Empty string maps to BoundaryAllow.
func ParseBoundaryPolicy(name string) (BoundaryPolicy, error) {
	if name == "" {
		return BoundaryAllow, nil
	}
	p := BoundaryPolicy(name)
	if !validBoundaryPolicies[p] {
		return "", fmt.Errorf("unknown boundary policy %q; valid: allow, clamp", name)
	}
	return p, nil
}

// GeneratorConfig groups everything a Generator needs. It is passed by value.
type GeneratorConfig struct {
	NumTrials          int            // trial slots in the Trial Set (>= 0)
	NumSteps           int            // steps per trial; trajectories hold NumSteps+1 points (>= 0; 0 needs a zero threshold)
	TimeStep           float64        // dt (> 0)
	Params             ModelParams    // model constants
	RejectionThreshold float64        // minimum |S[0] - S[last]| to accept a trial (>= 0)
	MaxAttempts        int            // per-slot attempt cap; 0 = unbounded
	Boundary           BoundaryPolicy // "allow" (default) or "clamp"
	Seed               int64          // master seed for PartitionedRNG
}

// NewGeneratorConfig creates a GeneratorConfig with the mandatory run shape and
// the reference values for every optional field.
func NewGeneratorConfig(numTrials, numSteps int, timeStep float64, params ModelParams) GeneratorConfig {
	return GeneratorConfig{
		NumTrials:          numTrials,
		NumSteps:           numSteps,
		TimeStep:           timeStep,
		Params:             params,
		RejectionThreshold: DefaultRejectionThreshold,
		MaxAttempts:        DefaultMaxAttempts,
		Boundary:           BoundaryAllow,
		Seed:               DefaultSeed,
	}
}

// Validate reports the first invalid field.
func (c GeneratorConfig) Validate() error {
	if c.NumTrials < 0 {
		return fmt.Errorf("num_trials must be non-negative, got %d", c.NumTrials)
	}
	if c.NumSteps < 0 {
		return fmt.Errorf("num_steps must be non-negative, got %d", c.NumSteps)
	}
	if err := validateFinite("time_step", c.TimeStep); err != nil {
		return err
	}
	if c.TimeStep <= 0 {
		return fmt.Errorf("time_step must be positive, got %f", c.TimeStep)
	}
	if err := validateFinite("rejection_threshold", c.RejectionThreshold); err != nil {
		return err
	}
	if c.RejectionThreshold < 0 {
		return fmt.Errorf("rejection_threshold must be non-negative, got %f", c.RejectionThreshold)
	}
	// A single-point trajectory has no S change and can only pass a zero threshold.
	if c.NumSteps == 0 && c.RejectionThreshold > 0 {
		return fmt.Errorf("num_steps must be positive when rejection_threshold > 0, got threshold %g", c.RejectionThreshold)
	}
	if c.MaxAttempts < 0 {
		return fmt.Errorf("max_attempts must be non-negative (0 = unbounded), got %d", c.MaxAttempts)
	}
	if !validBoundaryPolicies[c.Boundary] {
		return fmt.Errorf("unknown boundary policy %q; valid: allow, clamp", c.Boundary)
	}
	if err := c.Params.Validate(); err != nil {
		return fmt.Errorf("model params: %w", err)
	}
	return nil
}

func validateFinite(name string, val float64) error {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return fmt.Errorf("%s must be a finite number, got %f", name, val)
	}
	return nil
}
