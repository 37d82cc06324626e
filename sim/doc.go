// Package sim generates synthetic epidemic trajectories under a discrete-time
// stochastic SIR (Susceptible-Infected-Recovered) model.
//
// # Reading Guide
//
//   - stepper.go: one discrete step. Event weights are computed from the
//     current state and a single categorical draw picks no-event, infection
//     or recovery.
//   - generator.go: the Trial Generator. Builds full trajectories, rejects
//     trials whose susceptible count barely moved, and fills the Trial Set.
//   - rng.go: per-trial random streams derived from one master seed.
//
// # Supporting pieces
//
//   - summary.go: mean and sample standard deviation across trials per time index.
//   - deterministic.go: the mean-field Euler curve for comparison.
//   - sim/export/: text and JSON-lines sinks for Trial Sets.
//
// A Generator is a single-goroutine batch job. Trials are independent and each
// owns its own random stream, so the Trial Set is reproducible from the seed.
package sim
