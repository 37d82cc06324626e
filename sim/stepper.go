package sim

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// State is one (S, I, R) observation. Counts are stored as float64 but only
// ever move by whole units.
type State struct {
	S, I, R float64
}

// Total returns S + I + R.
func (s State) Total() float64 { return s.S + s.I + s.R }

// Event is the outcome of a single discrete step.
type Event int

const (
	EventNone      Event = iota // nothing changes
	EventInfection              // S -= 1, I += 1
	EventRecovery               // I -= 1, R += 1
)

func (e Event) String() string {
	switch e {
	case EventNone:
		return "none"
	case EventInfection:
		return "infection"
	case EventRecovery:
		return "recovery"
	default:
		return fmt.Sprintf("Event(%d)", int(e))
	}
}

// Apply returns the state after the event. It does not check for negative counts.
func (s State) Apply(e Event) State {
	switch e {
	case EventInfection:
		return State{S: s.S - 1, I: s.I + 1, R: s.R}
	case EventRecovery:
		return State{S: s.S, I: s.I - 1, R: s.R + 1}
	default:
		return s
	}
}

// EventWeights are the relative (not necessarily normalized) probabilities of
// each outcome, indexed the same way as Event.
type EventWeights struct {
	None      float64
	Infection float64
	Recovery  float64
}

// ComputeWeights derives the event weights for one step from the current state:
//
//	infection = K * S * I * dt / N
//	recovery  = GAMMA * I * dt
//	none      = max(0, 1 - infection - recovery)
//
// Under BoundaryClamp, infection is zeroed when S < 1 and recovery when I < 1.
func ComputeWeights(s State, p ModelParams, dt float64, boundary BoundaryPolicy) EventWeights {
	infection := p.TransmissionRate * s.S * s.I * dt / p.PopulationSize
	recovery := p.RecoveryRate * s.I * dt
	if boundary == BoundaryClamp {
		if s.S < 1 {
			infection = 0
		}
		if s.I < 1 {
			recovery = 0
		}
	}
	// Only guard: the no-event mass absorbs dt that is too large.
	none := 1 - infection - recovery
	if none < 0 {
		none = 0
	}
	return EventWeights{None: none, Infection: infection, Recovery: recovery}
}

// Slice returns the weights in Event order.
func (w EventWeights) Slice() []float64 {
	return []float64{w.None, w.Infection, w.Recovery}
}

// Total returns the sum of all weights.
func (w EventWeights) Total() float64 {
	return w.None + w.Infection + w.Recovery
}

// Validate returns an error wrapping ErrInvalidWeights if the weights cannot
// form a categorical distribution.
func (w EventWeights) Validate() error {
	for i, v := range w.Slice() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s weight is not finite (%g)", ErrInvalidWeights, Event(i), v)
		}
		if v < 0 {
			return fmt.Errorf("%w: %s weight is negative (%g)", ErrInvalidWeights, Event(i), v)
		}
	}
	if w.Total() <= 0 {
		return fmt.Errorf("%w: all weights are zero", ErrInvalidWeights)
	}
	return nil
}

// Probabilities returns the weights normalized to sum to 1.
func (w EventWeights) Probabilities() (EventWeights, error) {
	if err := w.Validate(); err != nil {
		return EventWeights{}, err
	}
	t := w.Total()
	return EventWeights{None: w.None / t, Infection: w.Infection / t, Recovery: w.Recovery / t}, nil
}

// Stepper advances one trial by one time unit. It holds no mutable state and
// may be shared by any number of trials as long as each supplies its own source.
type Stepper struct {
	params   ModelParams
	dt       float64
	boundary BoundaryPolicy
}

// NewStepper creates a Stepper for the given model and time step.
func NewStepper(params ModelParams, dt float64, boundary BoundaryPolicy) *Stepper {
	return &Stepper{params: params, dt: dt, boundary: boundary}
}

// Weights returns the event weights the Stepper would draw from at state s.
func (st *Stepper) Weights(s State) EventWeights {
	return ComputeWeights(s, st.params, st.dt, st.boundary)
}

// Draw picks one event from the weights using src as the uniform source.
func Draw(w EventWeights, src rand.Source) (Event, error) {
	if err := w.Validate(); err != nil {
		return EventNone, err
	}
	return Event(distuv.NewCategorical(w.Slice(), src).Rand()), nil
}

// Step returns the state one time unit after s together with the event drawn.
// Errors wrap ErrInvalidWeights; the caller adds step context.
func (st *Stepper) Step(s State, src rand.Source) (State, Event, error) {
	e, err := Draw(st.Weights(s), src)
	if err != nil {
		return s, EventNone, err
	}
	return s.Apply(e), e, nil
}
