package dynamo

import "math"

// State is the physical state vector x.
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// Control is the input vector u. Its length is defined by the model and is
// assumed constant for a simulation.
type Control []float64

// Params is an ordered collection of parameter groups. A model called as
// f(t, x, u, p1, [p2, p3]) reads p1 as p[0][0], p2 as p[1][0] and p3 as
// p[1][1].
type Params [][]float64

// Scalar returns p[group][index], or fallback when the entry is missing.
func (p Params) Scalar(group, index int, fallback float64) float64 {
	if group < 0 || group >= len(p) || index < 0 || index >= len(p[group]) {
		return fallback
	}
	return p[group][index]
}

func (p Params) Clone() Params {
	c := make(Params, len(p))
	for i, g := range p {
		c[i] = append([]float64(nil), g...)
	}
	return c
}

// Model is the capability set of a hybrid system. Every callback receives
// the continuous time t, the jump count j and read-only views of x, u and p.
//
// Flow writes dx/dt into dx, Jump writes the post-jump state into xp and
// Output writes the observed output into y. Each buffer is sized exactly to
// the declared dimension and must not be written past its length.
type Model interface {
	Flow(dx []float64, t float64, j int, x State, u Control, p Params)
	Jump(xp []float64, t float64, j int, x State, u Control, p Params)
	Output(y []float64, t float64, j int, x State, u Control, p Params)
	InJumpSet(t float64, j int, x State, u Control, p Params) bool
}

// FlowSetter is implemented by models that declare a flow set.
type FlowSetter interface {
	InFlowSet(t float64, j int, x State, u Control, p Params) bool
}

// optionalFlowSet lets a model implement FlowSetter structurally while still
// reporting that no flow set was supplied.
type optionalFlowSet interface {
	hasFlowSet() bool
}

// FlowSetOf returns the model's flow set, if it declares one.
func FlowSetOf(m Model) (FlowSetter, bool) {
	fs, ok := m.(FlowSetter)
	if !ok {
		return nil, false
	}
	if opt, ok := m.(optionalFlowSet); ok && !opt.hasFlowSet() {
		return nil, false
	}
	return fs, true
}

// Hamiltonian is implemented by models with a meaningful mechanical energy.
type Hamiltonian interface {
	Energy(x State, p Params) float64
}

// Scenario is implemented by models that ship with the contract, initial
// state, parameters and input they are normally simulated with.
type Scenario interface {
	Model
	Contract() Contract
	DefaultState() State
	DefaultParams() Params
	DefaultInput() Control
}

// Contract is a model together with its declared sizes, integration step and
// simulation horizons. It is immutable for the lifetime of a simulation.
type Contract struct {
	OutputSize  int
	StateSize   int
	StepSize    float64
	TimeHorizon float64
	JumpHorizon int
	Model       Model
}

// ExtendedSize is the length of the extended state vector (t, j, x).
func (c Contract) ExtendedSize() int {
	return c.StateSize + 2
}

func (c Contract) Validate() error {
	if c.Model == nil {
		return ErrNullReference
	}
	switch {
	case c.StateSize <= 0:
		return contractError("state size must be positive, got %d", c.StateSize)
	case c.OutputSize <= 0:
		return contractError("output size must be positive, got %d", c.OutputSize)
	case !(c.StepSize > 0):
		return contractError("step size must be positive, got %g", c.StepSize)
	case !(c.TimeHorizon > 0):
		return contractError("time horizon must be positive, got %g", c.TimeHorizon)
	case c.JumpHorizon <= 0:
		return contractError("jump horizon must be positive, got %d", c.JumpHorizon)
	}
	return nil
}

// Derivative writes the time derivative of x at time t into dx.
type Derivative func(dx []float64, t float64, x []float64, u Control, p Params)

// Stepper is the fixed-step integrator delegate. Step advances the first n
// entries of in by one step of size h and writes the result into out. t is
// an opaque tick reference passed through to f. Errors are dynamo sentinels
// so callers can map them onto a [Status].
type Stepper interface {
	Step(h float64, n int, f Derivative, t float64, in, out []float64, u Control, p Params) error
}

// Controller produces the input applied during the next step.
type Controller interface {
	Compute(s ExtendedState) Control
}

type Metric interface {
	Name() string
	Observe(s ExtendedState, y []float64, jumped bool)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(s ExtendedState, y []float64, jumped bool)
}
