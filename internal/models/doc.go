// Package models provides hybrid systems for simulation.
//
// Each model implements [dynamo.Model] and [dynamo.Scenario]:
//
//   - [BouncingBall]: ball under gravity with a lossy impact at the floor
//   - [ForcedOscillator]: damped, forced oscillator reset at a threshold
//   - [Thermostat]: heater switching on and off inside a hysteresis band
//
// Models that declare a flow set implement [dynamo.FlowSetter], and the
// bouncing ball implements [dynamo.Hamiltonian].
package models
