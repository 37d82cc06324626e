package sim

import "fmt"

// DeterministicTrajectory integrates the mean-field SIR equations with forward
// Euler steps of size dt:
//
//	dS/dt = -K S I / N
//	dI/dt =  K S I / N - GAMMA I
//	dR/dt =  GAMMA I
//
// The result has numSteps+1 points and is the curve stochastic trials scatter around.
func DeterministicTrajectory(p ModelParams, numSteps int, dt float64) (Trajectory, error) {
	if numSteps <= 0 {
		return Trajectory{}, fmt.Errorf("num_steps must be positive, got %d", numSteps)
	}
	if err := validateFinite("time_step", dt); err != nil {
		return Trajectory{}, err
	}
	if dt <= 0 {
		return Trajectory{}, fmt.Errorf("time_step must be positive, got %f", dt)
	}
	if err := p.Validate(); err != nil {
		return Trajectory{}, err
	}

	traj := NewTrajectory(numSteps + 1)
	s := p.InitialState()
	traj.set(0, s)
	for k := 1; k <= numSteps; k++ {
		infections := p.TransmissionRate * s.S * s.I / p.PopulationSize
		recoveries := p.RecoveryRate * s.I
		s = State{
			S: s.S - dt*infections,
			I: s.I + dt*(infections-recoveries),
			R: s.R + dt*recoveries,
		}
		traj.set(k, s)
	}
	return traj, nil
}
