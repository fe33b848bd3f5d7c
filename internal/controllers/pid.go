package controllers

import "github.com/san-kum/hybsim/internal/dynamo"

// Gains configures a PID loop on one state component.
type Gains struct {
	Kp, Ki, Kd float64
	Target     float64
	// Index selects the tracked entry of x.
	Index int
}

// PID drives x[Index] towards Target. Its memory is cleared whenever the
// jump counter changes, so a reset does not show up as a derivative kick
// or a stale integral.
type PID struct {
	Gains

	integral float64
	prevErr  float64
	prevT    float64
	lastJ    int
	first    bool
}

func NewPID(g Gains) *PID {
	return &PID{
		Gains: g,
		first: true,
	}
}

func (p *PID) Compute(s dynamo.ExtendedState) dynamo.Control {
	x := s.X()
	if p.Index < 0 || p.Index >= len(x) {
		return dynamo.Control{0}
	}

	err := p.Target - x[p.Index]
	t, j := s.T(), s.J()

	if p.first || j != p.lastJ {
		p.integral = 0
		p.prevErr = err
		p.prevT = t
		p.lastJ = j
		p.first = false
		return dynamo.Control{p.Kp * err}
	}

	dt := t - p.prevT
	if dt > 0 {
		p.integral += err * dt
		derivative := (err - p.prevErr) / dt

		u := p.Kp*err + p.Ki*p.integral + p.Kd*derivative

		p.prevErr = err
		p.prevT = t

		return dynamo.Control{u}
	}
	return dynamo.Control{p.Kp*err + p.Ki*p.integral}
}

// Reset forgets the loop history before a new run.
func (p *PID) Reset() {
	p.integral = 0
	p.prevErr = 0
	p.prevT = 0
	p.lastJ = 0
	p.first = true
}
