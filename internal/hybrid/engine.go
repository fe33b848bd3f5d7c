package hybrid

import (
	"fmt"
	"unsafe"

	"github.com/san-kum/hybsim/internal/dynamo"
	"github.com/san-kum/hybsim/internal/integrators"
	"github.com/san-kum/hybsim/internal/jumplogic"
)

// Outcome is the result of one hybrid step.
type Outcome struct {
	Next   dynamo.ExtendedState
	Output []float64
	Jumped bool
}

type Engine struct {
	contract dynamo.Contract
	policy   jumplogic.Resolver
	adapter  *Adapter
	flowSet  dynamo.FlowSetter
}

// New builds an engine for c. A nil policy selects jump precedence and a
// nil stepper selects RK4. It fails with ErrNullReference when the policy
// reads the flow set and the model declares none.
func New(c dynamo.Contract, policy jumplogic.Resolver, stepper dynamo.Stepper) (*Engine, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if f, ok := c.Model.(interface{ Complete() bool }); ok && !f.Complete() {
		return nil, fmt.Errorf("%w: model is missing a callback", dynamo.ErrNullReference)
	}
	if policy == nil {
		policy = jumplogic.JumpPrecedence
	}
	if stepper == nil {
		stepper = integrators.NewRK4()
	}

	e := &Engine{
		contract: c,
		policy:   policy,
		adapter:  NewAdapter(c.Model, stepper, c.StepSize),
	}
	if policy.NeedsFlowSet() {
		fs, ok := dynamo.FlowSetOf(c.Model)
		if !ok {
			return nil, fmt.Errorf("%w: policy requires a flow set", dynamo.ErrNullReference)
		}
		e.flowSet = fs
	}
	return e, nil
}

func (e *Engine) Contract() dynamo.Contract { return e.contract }

func (e *Engine) Policy() jumplogic.Resolver { return e.policy }

// Step advances s by one unit of the external clock. tick is passed through
// to the integrator. On a horizon error the returned Outcome still holds the
// state and output of the step in which the limit was crossed.
func (e *Engine) Step(s dynamo.ExtendedState, u dynamo.Control, p dynamo.Params, tick float64) (Outcome, error) {
	next := make([]float64, e.contract.ExtendedSize())
	y := make([]float64, e.contract.OutputSize)

	jumped, err := e.StepInto(next, y, dynamo.Raw(s), u, p, tick)
	if err != nil && !dynamo.StatusOf(err).IsHorizon() {
		return Outcome{}, err
	}
	return Outcome{Next: dynamo.Wrap(next), Output: y, Jumped: jumped}, err
}

// StepInto is the buffer form of Step. state must hold StateSize+2 entries,
// next the same and y OutputSize entries. next must not share memory with
// state. It reports whether the jump branch was taken.
func (e *Engine) StepInto(next, y, state []float64, u dynamo.Control, p dynamo.Params, tick float64) (bool, error) {
	if err := e.checkBuffers(next, y, state); err != nil {
		return false, err
	}

	m := e.contract.Model
	t := state[0]
	j := dynamo.Wrap(state).J()
	x := dynamo.State(state[2:])

	d := m.InJumpSet(t, j, x, u, p)
	c := false
	if e.flowSet != nil {
		c = e.flowSet.InFlowSet(t, j, x, u, p)
	}

	jumped := e.policy.Resolve(d, c)
	if jumped {
		next[0] = t
		next[1] = float64(j + 1)
		m.Jump(next[2:], t, j, x, u, p)
	} else {
		if err := e.adapter.Step(tick, state, next, u, p); err != nil {
			s := dynamo.StatusOf(err)
			if s == dynamo.StatusGeneric {
				err = fmt.Errorf("%w: %v", dynamo.ErrGeneric, err)
			}
			return false, &dynamo.StepError{T: t, J: j, Status: s, Wrapped: err}
		}
		// t advances by exactly one nominal step and j is held, whatever
		// rounding the integrator accumulated on the augmented components.
		next[0] = t + e.contract.StepSize
		next[1] = float64(j)
	}

	nt, nj := next[0], j
	if jumped {
		nj = j + 1
	}
	m.Output(y, nt, nj, dynamo.State(next[2:]), u, p)

	switch {
	case nt >= e.contract.TimeHorizon:
		return jumped, &dynamo.StepError{T: nt, J: nj, Status: dynamo.StatusTimeLimit, Wrapped: dynamo.ErrTimeLimit}
	case nj >= e.contract.JumpHorizon:
		return jumped, &dynamo.StepError{T: nt, J: nj, Status: dynamo.StatusJumpLimit, Wrapped: dynamo.ErrJumpLimit}
	}
	return jumped, nil
}

func (e *Engine) checkBuffers(next, y, state []float64) error {
	if state == nil || next == nil || y == nil {
		return dynamo.ErrNullReference
	}
	n := e.contract.ExtendedSize()
	switch {
	case len(state) != n:
		return dimensionError("state", len(state), n)
	case len(next) != n:
		return dimensionError("next state", len(next), n)
	case len(y) != e.contract.OutputSize:
		return dimensionError("output", len(y), e.contract.OutputSize)
	case overlaps(next, state):
		return fmt.Errorf("%w: next state shares memory with state", dynamo.ErrInvalidDimension)
	case overlaps(y, state), overlaps(y, next):
		return fmt.Errorf("%w: output shares memory with a state buffer", dynamo.ErrInvalidDimension)
	}
	return nil
}

// overlaps reports whether a and b share any element of a backing array.
func overlaps(a, b []float64) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	const size = unsafe.Sizeof(float64(0))
	pa := uintptr(unsafe.Pointer(&a[0]))
	pb := uintptr(unsafe.Pointer(&b[0]))
	return pa < pb+uintptr(len(b))*size && pb < pa+uintptr(len(a))*size
}

func dimensionError(what string, got, want int) error {
	return fmt.Errorf("%w: %s has %d entries, want %d", dynamo.ErrInvalidDimension, what, got, want)
}
