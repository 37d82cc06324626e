package cmd

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/stosir/stosir/sim"
)

// ModelSpec is the `model:` section of a scenario file.
type ModelSpec struct {
	TransmissionRate   float64 `yaml:"transmission_rate"`
	RecoveryRate       float64 `yaml:"recovery_rate"`
	PopulationSize     float64 `yaml:"population_size"`
	InitialSusceptible float64 `yaml:"initial_susceptible"`
	InitialInfected    float64 `yaml:"initial_infected"`
	InitialRecovered   float64 `yaml:"initial_recovered"`
}

// Scenario is the YAML form of a batch run.
// All top-level sections must be listed to satisfy KnownFields(true) strict parsing.
type Scenario struct {
	NumTrials          int       `yaml:"num_trials"`
	NumSteps           int       `yaml:"num_steps"`
	TimeStep           float64   `yaml:"time_step"`
	Seed               int64     `yaml:"seed"`
	RejectionThreshold float64   `yaml:"rejection_threshold"`
	MaxAttempts        int       `yaml:"max_attempts"`
	Boundary           string    `yaml:"boundary"`
	Model              ModelSpec `yaml:"model"`
}

// DefaultScenario is the reference run: 300 trials of 75000 steps at dt=0.0009.
func DefaultScenario() Scenario {
	p := sim.DefaultModelParams()
	return Scenario{
		NumTrials:          300,
		NumSteps:           75000,
		TimeStep:           0.0009,
		Seed:               sim.DefaultSeed,
		RejectionThreshold: sim.DefaultRejectionThreshold,
		MaxAttempts:        sim.DefaultMaxAttempts,
		Boundary:           string(sim.BoundaryAllow),
		Model: ModelSpec{
			TransmissionRate:   p.TransmissionRate,
			RecoveryRate:       p.RecoveryRate,
			PopulationSize:     p.PopulationSize,
			InitialSusceptible: p.InitialSusceptible,
			InitialInfected:    p.InitialInfected,
			InitialRecovered:   p.InitialRecovered,
		},
	}
}

// LoadScenario reads a scenario file on top of base. Fields absent from the
// file keep their value from base; unknown fields are an error.
func LoadScenario(path string, base Scenario) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("reading scenario: %w", err)
	}
	return parseScenario(data, base)
}

func parseScenario(data []byte, base Scenario) (Scenario, error) {
	s := base
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return Scenario{}, fmt.Errorf("parsing scenario: %w", err)
	}
	return s, nil
}

// ModelParams returns the model section as sim.ModelParams.
func (s Scenario) ModelParams() sim.ModelParams {
	return sim.ModelParams{
		TransmissionRate:   s.Model.TransmissionRate,
		RecoveryRate:       s.Model.RecoveryRate,
		PopulationSize:     s.Model.PopulationSize,
		InitialSusceptible: s.Model.InitialSusceptible,
		InitialInfected:    s.Model.InitialInfected,
		InitialRecovered:   s.Model.InitialRecovered,
	}
}

// GeneratorConfig converts the scenario to a validated sim.GeneratorConfig.
func (s Scenario) GeneratorConfig() (sim.GeneratorConfig, error) {
	boundary, err := sim.ParseBoundaryPolicy(s.Boundary)
	if err != nil {
		return sim.GeneratorConfig{}, err
	}
	cfg := sim.NewGeneratorConfig(s.NumTrials, s.NumSteps, s.TimeStep, s.ModelParams())
	cfg.Seed = s.Seed
	cfg.RejectionThreshold = s.RejectionThreshold
	cfg.MaxAttempts = s.MaxAttempts
	cfg.Boundary = boundary
	if err := cfg.Validate(); err != nil {
		return sim.GeneratorConfig{}, err
	}
	return cfg, nil
}
