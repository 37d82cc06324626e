package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"

	"github.com/stosir/stosir/sim"
	"github.com/stosir/stosir/sim/export"
)

var (
	// CLI flags for the run shape
	numTrials          int     // Number of accepted trials to produce
	numSteps           int     // Steps per trial
	timeStep           float64 // Discretization interval dt
	seed               int64   // Master seed for per-trial random streams
	rejectionThreshold float64 // Minimum |S[0] - S[last]| to keep a trial
	maxAttempts        int     // Attempts per trial slot before giving up (0 = unbounded)
	boundary           string  // Boundary policy for S/I near zero

	// CLI flags for the model
	transmissionRate float64 // K
	recoveryRate     float64 // GAMMA
	populationSize   float64 // N
	initialS         float64 // S0
	initialI         float64 // I0
	initialR         float64 // R0

	// CLI flags for IO
	configPath string // Optional YAML scenario file
	outDir     string // Output directory
	outFormat  string // text or jsonl
	inDir      string // Input directory for summarize
	logLevel   string // Log verbosity level
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "stosir",
	Short: "Stochastic SIR trial generator",
}

// runCmd generates a Trial Set from flags and an optional scenario file
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate stochastic SIR trials and write them to disk",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()

		base := DefaultScenario()
		if configPath != "" {
			var err error
			base, err = LoadScenario(configPath, base)
			if err != nil {
				logrus.Fatalf("unable to load scenario: %v", err)
			}
		}
		sc := applyFlagOverrides(cmd, base)

		format, err := export.ParseFormat(outFormat)
		if err != nil {
			logrus.Fatalf("%v", err)
		}

		logrus.Infof("Starting %d trials x %d steps, dt=%g, seed=%d, R0=%.2f",
			sc.NumTrials, sc.NumSteps, sc.TimeStep, sc.Seed, sc.ModelParams().BasicReproductionNumber())

		m, err := runBatch(sc, outDir, format)
		if err != nil {
			logrus.Fatalf("run failed: %v", err)
		}
		logrus.Infof("Run %s complete in %.2fs: %d attempts, %d rejected, files=%v",
			m.ID, m.WallTimeSeconds, m.TotalAttempts, m.Rejected, m.Files)
	},
}

// summarizeCmd reads a Trial Set back and reports across-trial statistics
var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Summarize a Trial Set written by run",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()

		dt := timeStep
		m, manifestErr := ReadManifest(inDir)
		if manifestErr == nil && !cmd.Flags().Changed("time-step") {
			dt = m.Scenario.TimeStep
		}

		sum, err := summarizeDir(inDir)
		if err != nil {
			logrus.Fatalf("summarize failed: %v", err)
		}
		last := len(sum.Mean.S) - 1
		fmt.Printf("Trials: %d, points per trial: %d\n", sum.NumTrials, last+1)
		fmt.Printf("Final S: %.1f ± %.1f\n", sum.Mean.S[last], sum.StdDev.S[last])
		fmt.Printf("Final I: %.1f ± %.1f\n", sum.Mean.I[last], sum.StdDev.I[last])
		fmt.Printf("Final R: %.1f ± %.1f\n", sum.Mean.R[last], sum.StdDev.R[last])
		fmt.Printf("Peak mean infected: %.1f (at t=%.2f)\n", sum.PeakInfected, float64(sum.PeakIndex)*dt)

		if manifestErr != nil {
			logrus.Debugf("no manifest, skipping mean-field comparison: %v", manifestErr)
			return
		}
		if last == 0 {
			return
		}
		mf, err := sim.DeterministicTrajectory(m.Scenario.ModelParams(), last, dt)
		if err != nil {
			logrus.Warnf("mean-field comparison failed: %v", err)
			return
		}
		peak := floats.MaxIdx(mf.I)
		fmt.Printf("Mean-field peak infected: %.1f (at t=%.2f), final R: %.1f\n", mf.I[peak], float64(peak)*dt, mf.R[last])
	},
}

func setupLogging() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// applyFlagOverrides copies every explicitly-set flag onto base.
func applyFlagOverrides(cmd *cobra.Command, base Scenario) Scenario {
	sc := base
	flags := cmd.Flags()
	if flags.Changed("trials") {
		sc.NumTrials = numTrials
	}
	if flags.Changed("steps") {
		sc.NumSteps = numSteps
	}
	if flags.Changed("time-step") {
		sc.TimeStep = timeStep
	}
	if flags.Changed("seed") {
		sc.Seed = seed
	}
	if flags.Changed("rejection-threshold") {
		sc.RejectionThreshold = rejectionThreshold
	}
	if flags.Changed("max-attempts") {
		sc.MaxAttempts = maxAttempts
	}
	if flags.Changed("boundary") {
		sc.Boundary = boundary
	}
	if flags.Changed("transmission-rate") {
		sc.Model.TransmissionRate = transmissionRate
	}
	if flags.Changed("recovery-rate") {
		sc.Model.RecoveryRate = recoveryRate
	}
	if flags.Changed("population") {
		sc.Model.PopulationSize = populationSize
	}
	if flags.Changed("s0") {
		sc.Model.InitialSusceptible = initialS
	}
	if flags.Changed("i0") {
		sc.Model.InitialInfected = initialI
	}
	if flags.Changed("r0") {
		sc.Model.InitialRecovered = initialR
	}
	return sc
}

// runBatch generates the Trial Set for sc and persists it with a manifest under dir.
func runBatch(sc Scenario, dir string, format export.Format) (Manifest, error) {
	cfg, err := sc.GeneratorConfig()
	if err != nil {
		return Manifest{}, err
	}
	if total := cfg.Params.InitialState().Total(); total != cfg.Params.PopulationSize {
		logrus.Warnf("S0+I0+R0 = %g differs from population_size %g", total, cfg.Params.PopulationSize)
	}
	stepper := sim.NewStepper(cfg.Params, cfg.TimeStep, cfg.Boundary)
	if p, err := stepper.Weights(cfg.Params.InitialState()).Probabilities(); err == nil {
		logrus.Debugf("First-step probabilities: infection=%g, recovery=%g, none=%g", p.Infection, p.Recovery, p.None)
	} else {
		logrus.Warnf("initial state has unusable step weights: %v", err)
	}

	start := time.Now()
	gen, err := sim.NewGenerator(cfg)
	if err != nil {
		return Manifest{}, err
	}
	if err := gen.GenerateAll(); err != nil {
		return Manifest{}, err
	}
	wall := time.Since(start)

	files, err := export.WriteDir(dir, gen.Results(), format)
	if err != nil {
		return Manifest{}, err
	}
	m := NewManifest(sc, string(format), files, gen.Stats(), wall)
	if err := WriteManifest(dir, m); err != nil {
		return Manifest{}, err
	}
	return m, nil
}

// summarizeDir reads the Trial Set in dir and summarizes it. When a manifest is
// present its format decides which files are read.
func summarizeDir(dir string) (*sim.Summary, error) {
	var (
		ts  sim.TrialSet
		err error
	)
	if m, mErr := ReadManifest(dir); mErr == nil {
		format, fErr := export.ParseFormat(m.Format)
		if fErr != nil {
			return nil, fmt.Errorf("manifest: %w", fErr)
		}
		ts, err = export.ReadDirFormat(dir, format)
	} else {
		logrus.Debugf("no manifest in %s, detecting format: %v", dir, mErr)
		ts, err = export.ReadDir(dir)
	}
	if err != nil {
		return nil, err
	}
	return sim.Summarize(ts)
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	def := DefaultScenario()

	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().Float64Var(&timeStep, "time-step", def.TimeStep, "Discretization interval dt")

	// Run shape
	runCmd.Flags().IntVar(&numTrials, "trials", def.NumTrials, "Number of accepted trials to generate")
	runCmd.Flags().IntVar(&numSteps, "steps", def.NumSteps, "Number of steps per trial")
	runCmd.Flags().Int64Var(&seed, "seed", def.Seed, "Master seed for per-trial random streams")
	runCmd.Flags().Float64Var(&rejectionThreshold, "rejection-threshold", def.RejectionThreshold, "Minimum |S[0]-S[last]| for a trial to be kept")
	runCmd.Flags().IntVar(&maxAttempts, "max-attempts", def.MaxAttempts, "Attempts per trial slot before failing (0 = unbounded)")
	runCmd.Flags().StringVar(&boundary, "boundary", def.Boundary, "Boundary policy near S=0 / I=0 (allow, clamp)")

	// Model
	runCmd.Flags().Float64Var(&transmissionRate, "transmission-rate", def.Model.TransmissionRate, "Transmission rate K")
	runCmd.Flags().Float64Var(&recoveryRate, "recovery-rate", def.Model.RecoveryRate, "Recovery rate GAMMA")
	runCmd.Flags().Float64Var(&populationSize, "population", def.Model.PopulationSize, "Population size N")
	runCmd.Flags().Float64Var(&initialS, "s0", def.Model.InitialSusceptible, "Initial susceptible count")
	runCmd.Flags().Float64Var(&initialI, "i0", def.Model.InitialInfected, "Initial infected count")
	runCmd.Flags().Float64Var(&initialR, "r0", def.Model.InitialRecovered, "Initial recovered count")

	// IO
	runCmd.Flags().StringVar(&configPath, "config", "", "Path to YAML scenario file; explicit flags override it")
	runCmd.Flags().StringVar(&outDir, "out", "data", "Output directory")
	runCmd.Flags().StringVar(&outFormat, "format", string(export.FormatText), "Output format (text, jsonl)")
	summarizeCmd.Flags().StringVar(&inDir, "in", "data", "Directory written by run")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(summarizeCmd)
}
