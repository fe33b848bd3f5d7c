// Package dynamo provides the core primitives for simulating hybrid
// dynamical systems: models whose state flows continuously and occasionally
// jumps.
//
// The package defines the data model shared by every other package:
//
//   - [State]: physical state vector x
//   - [ExtendedState]: x augmented with continuous time t and jump count j
//   - [Model]: the flow map, jump map, output map and jump set of a system
//   - [FlowSetter]: the optional flow set
//   - [Contract]: a model plus its declared sizes, step size and horizons
//   - [Stepper]: the fixed-step integrator delegate contract
//   - [Status]: the outcome taxonomy of a single hybrid step
//
// # Example
//
//	ball := models.NewBouncingBall()
//	eng, _ := hybrid.New(ball.Contract(), jumplogic.JumpPrecedence, integrators.NewRK4())
//	s := dynamo.NewExtendedState(0, 0, ball.DefaultState())
//	out, err := eng.Step(s, nil, ball.DefaultParams(), 0)
//
// # Buffers
//
// Model callbacks receive read-only views of x, u and p and write only into
// the buffer they are handed. That buffer is sized exactly to the contract's
// StateSize (flow, jump) or OutputSize (output). Writing past it is a
// contract violation by the model and is not detected.
//
// # Thread Safety
//
// Nothing in this package holds cross-call mutable state except [StatePool],
// which is safe for concurrent use.
package dynamo
