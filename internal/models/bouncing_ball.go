package models

import "github.com/san-kum/hybsim/internal/dynamo"

const (
	DefaultGravity     = 9.81
	DefaultRestitution = 0.75
	DefaultBallHeight  = 2.0
	DefaultBallSpeed   = 0.2
)

// BouncingBall has state x = [height, velocity] and parameters
// p[0][0] = gravity, p[1][0] = restitution coefficient.
type BouncingBall struct {
	// Floor is the height at or below which a falling ball is in the jump
	// set. The flow set is height >= 0 regardless.
	Floor float64
	// Verbose switches the output from [height] to [t, j, height, velocity].
	Verbose bool
}

func NewBouncingBall() *BouncingBall {
	return &BouncingBall{}
}

func (b *BouncingBall) Flow(dx []float64, t float64, j int, x dynamo.State, u dynamo.Control, p dynamo.Params) {
	dx[0] = x[1]
	dx[1] = -p.Scalar(0, 0, DefaultGravity)
}

func (b *BouncingBall) Jump(xp []float64, t float64, j int, x dynamo.State, u dynamo.Control, p dynamo.Params) {
	xp[0] = 0
	xp[1] = -p.Scalar(1, 0, DefaultRestitution) * x[1]
}

func (b *BouncingBall) Output(y []float64, t float64, j int, x dynamo.State, u dynamo.Control, p dynamo.Params) {
	if b.Verbose {
		y[0], y[1], y[2], y[3] = t, float64(j), x[0], x[1]
		return
	}
	y[0] = x[0]
}

func (b *BouncingBall) InJumpSet(t float64, j int, x dynamo.State, u dynamo.Control, p dynamo.Params) bool {
	// A ball resting at the floor after an impact is rising, so it flows.
	return x[0] <= b.Floor && x[1] <= 0
}

func (b *BouncingBall) InFlowSet(t float64, j int, x dynamo.State, u dynamo.Control, p dynamo.Params) bool {
	return x[0] >= 0
}

func (b *BouncingBall) Energy(x dynamo.State, p dynamo.Params) float64 {
	return 0.5*x[1]*x[1] + p.Scalar(0, 0, DefaultGravity)*x[0]
}

func (b *BouncingBall) OutputSize() int {
	if b.Verbose {
		return 4
	}
	return 1
}

func (b *BouncingBall) Contract() dynamo.Contract {
	return dynamo.Contract{
		OutputSize:  b.OutputSize(),
		StateSize:   2,
		StepSize:    1e-3,
		TimeHorizon: 30.0,
		JumpHorizon: 30,
		Model:       b,
	}
}

func (b *BouncingBall) DefaultState() dynamo.State {
	return dynamo.State{DefaultBallHeight, DefaultBallSpeed}
}

func (b *BouncingBall) DefaultParams() dynamo.Params {
	return dynamo.Params{{DefaultGravity}, {DefaultRestitution}}
}

func (b *BouncingBall) DefaultInput() dynamo.Control { return nil }
