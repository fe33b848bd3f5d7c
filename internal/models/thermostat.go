package models

import "github.com/san-kum/hybsim/internal/dynamo"

// Thermostat has state x = [temperature, mode] with mode 1 while heating.
// Temperature relaxes towards the ambient value and the heater adds a
// constant rate. The mode switches when the temperature leaves the band
// [low, high].
//
// Parameters: p[0] = [ambient, cooling rate, heater rate], p[1] = [low, high].
type Thermostat struct{}

func NewThermostat() *Thermostat {
	return &Thermostat{}
}

func (th *Thermostat) band(p dynamo.Params) (low, high float64) {
	return p.Scalar(1, 0, 18), p.Scalar(1, 1, 22)
}

func (th *Thermostat) Flow(dx []float64, t float64, j int, x dynamo.State, u dynamo.Control, p dynamo.Params) {
	ambient, cooling, heater := p.Scalar(0, 0, 10), p.Scalar(0, 1, 0.1), p.Scalar(0, 2, 2.0)
	dx[0] = -cooling*(x[0]-ambient) + heater*x[1]
	dx[1] = 0
}

func (th *Thermostat) Jump(xp []float64, t float64, j int, x dynamo.State, u dynamo.Control, p dynamo.Params) {
	xp[0] = x[0]
	xp[1] = 1 - x[1]
}

func (th *Thermostat) Output(y []float64, t float64, j int, x dynamo.State, u dynamo.Control, p dynamo.Params) {
	y[0], y[1] = x[0], x[1]
}

func (th *Thermostat) InJumpSet(t float64, j int, x dynamo.State, u dynamo.Control, p dynamo.Params) bool {
	low, high := th.band(p)
	if x[1] >= 0.5 {
		return x[0] >= high
	}
	return x[0] <= low
}

func (th *Thermostat) InFlowSet(t float64, j int, x dynamo.State, u dynamo.Control, p dynamo.Params) bool {
	low, high := th.band(p)
	if x[1] >= 0.5 {
		return x[0] <= high
	}
	return x[0] >= low
}

func (th *Thermostat) Contract() dynamo.Contract {
	return dynamo.Contract{
		OutputSize:  2,
		StateSize:   2,
		StepSize:    1e-2,
		TimeHorizon: 120.0,
		JumpHorizon: 200,
		Model:       th,
	}
}

func (th *Thermostat) DefaultState() dynamo.State { return dynamo.State{20, 1} }

func (th *Thermostat) DefaultParams() dynamo.Params {
	return dynamo.Params{{10, 0.1, 2.0}, {18, 22}}
}

func (th *Thermostat) DefaultInput() dynamo.Control { return nil }
