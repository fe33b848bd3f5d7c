package models

import "github.com/san-kum/hybsim/internal/dynamo"

// ForcedOscillator is a unit-mass spring-damper driven by u[0]. When the
// position reaches Threshold the state is reset to rest at the origin.
// Parameters: p[0][0] = stiffness, p[1][0] = damping.
type ForcedOscillator struct {
	Threshold float64
}

func NewForcedOscillator() *ForcedOscillator {
	return &ForcedOscillator{Threshold: 1.0}
}

func (o *ForcedOscillator) Flow(dx []float64, t float64, j int, x dynamo.State, u dynamo.Control, p dynamo.Params) {
	force := 0.0
	if len(u) > 0 {
		force = u[0]
	}
	dx[0] = x[1]
	dx[1] = force - p.Scalar(0, 0, 1.0)*x[0] - p.Scalar(1, 0, 0.5)*x[1]
}

func (o *ForcedOscillator) Jump(xp []float64, t float64, j int, x dynamo.State, u dynamo.Control, p dynamo.Params) {
	xp[0] = 0
	xp[1] = 0
}

func (o *ForcedOscillator) Output(y []float64, t float64, j int, x dynamo.State, u dynamo.Control, p dynamo.Params) {
	y[0], y[1], y[2] = t, x[0], x[1]
}

func (o *ForcedOscillator) InJumpSet(t float64, j int, x dynamo.State, u dynamo.Control, p dynamo.Params) bool {
	return x[0] >= o.Threshold
}

func (o *ForcedOscillator) Contract() dynamo.Contract {
	return dynamo.Contract{
		OutputSize:  3,
		StateSize:   2,
		StepSize:    1e-3,
		TimeHorizon: 10.0,
		JumpHorizon: 1000,
		Model:       o,
	}
}

func (o *ForcedOscillator) DefaultState() dynamo.State { return dynamo.State{0, 0} }

func (o *ForcedOscillator) DefaultParams() dynamo.Params {
	return dynamo.Params{{1.0}, {0.5}}
}

func (o *ForcedOscillator) DefaultInput() dynamo.Control { return dynamo.Control{5.0} }
