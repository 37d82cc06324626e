package sim

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidWeights means the three event weights cannot form a categorical
	// distribution: one is negative or non-finite, or they sum to zero.
	ErrInvalidWeights = errors.New("invalid event weights")

	// ErrAttemptsExhausted means the retry loop hit MaxAttempts without
	// producing a trial that passes the rejection threshold.
	ErrAttemptsExhausted = errors.New("could not generate acceptable trial")
)

// StepError wraps a weight failure with the step index and the state the
// weights were computed from. It always indicates a parameter misconfiguration.
type StepError struct {
	Step  int   // 0-based index of the step being taken
	State State // state at the start of the failing step
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d from (S=%g, I=%g, R=%g): %v", e.Step, e.State.S, e.State.I, e.State.R, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// RejectionError reports a trial slot that exhausted its retry budget.
type RejectionError struct {
	Trial     int     // trial slot index
	Attempts  int     // trajectories generated and rejected
	Threshold float64 // rejection threshold in force
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("trial %d: %v after %d attempts (threshold |dS| >= %g)",
		e.Trial, ErrAttemptsExhausted, e.Attempts, e.Threshold)
}

func (e *RejectionError) Unwrap() error { return ErrAttemptsExhausted }
