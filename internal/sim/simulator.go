package sim

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/hybsim/internal/ctxlog"
	"github.com/san-kum/hybsim/internal/dynamo"
	"github.com/san-kum/hybsim/internal/hybrid"
)

// ErrSettleBound is returned when StepSettled keeps jumping past its bound.
var ErrSettleBound = errors.New("sim: jump settle bound exceeded")

// Simulator drives a hybrid engine step by step, feeding each outcome back
// as the next state. The step index is passed to the engine as the tick.
type Simulator struct {
	engine     *hybrid.Engine
	controller dynamo.Controller
	metrics    []dynamo.Metric
	observers  []dynamo.Observer
}

func New(engine *hybrid.Engine, controller dynamo.Controller) *Simulator {
	if controller == nil {
		controller = ConstantInput(nil)
	}
	return &Simulator{
		engine:     engine,
		controller: controller,
		metrics:    make([]dynamo.Metric, 0),
		observers:  make([]dynamo.Observer, 0),
	}
}

func (s *Simulator) AddMetric(m dynamo.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) Engine() *hybrid.Engine { return s.engine }

// Run simulates from (t=0, j=0, x0) until a horizon is reached, MaxSteps
// samples were recorded or ctx is done. Reaching a horizon is a normal end:
// the error is nil and Result.Status names the limit.
func (s *Simulator) Run(ctx context.Context, x0 dynamo.State, p dynamo.Params, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := s.engine.Contract()
	if x0 == nil {
		return nil, dynamo.ErrNullReference
	}
	if len(x0) != c.StateSize {
		return nil, fmt.Errorf("%w: initial state has %d entries, want %d",
			dynamo.ErrInvalidDimension, len(x0), c.StateSize)
	}

	logger := ctxlog.FromContext(ctx)
	capacity := cfg.MaxSteps
	if capacity == 0 || capacity > 1<<16 {
		capacity = 1 << 10
	}
	result := &Result{
		Initial: dynamo.NewExtendedState(0, 0, x0),
		Samples: make([]Sample, 0, capacity),
		Metrics: make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}
	s.resetController()

	state := result.Initial
	initialEnergy := s.energy(state.X(), p)

	for i := 0; cfg.MaxSteps == 0 || i < cfg.MaxSteps; i++ {
		select {
		case <-ctx.Done():
			s.finish(result, state, p, initialEnergy)
			return result, ctx.Err()
		default:
		}

		u := s.controller.Compute(state)
		out, err := s.step(state, u, p, float64(i), cfg)
		if err != nil && !dynamo.StatusOf(err).IsHorizon() {
			s.finish(result, state, p, initialEnergy)
			return result, err
		}

		if cfg.ValidateState && !out.Next.IsValid() {
			s.finish(result, state, p, initialEnergy)
			return result, &dynamo.StepError{
				T: state.T(), J: state.J(), Status: dynamo.StatusGeneric, Wrapped: dynamo.ErrInvalidState,
			}
		}

		if out.Jumped {
			logger.Debug("jump", "step", i, "t", out.Next.T(), "j", out.Next.J())
		}
		s.record(result, out)
		state = out.Next

		if err != nil {
			result.Status = dynamo.StatusOf(err)
			break
		}
	}

	s.finish(result, state, p, initialEnergy)
	logger.Info("simulation finished",
		"status", result.Status,
		"steps", result.StepsTaken,
		"t", state.T(),
		"j", state.J())
	return result, nil
}

// RunWithCallback streams every step to fn without collecting a Result. It
// stops when fn returns false, a horizon is reached or ctx is done, and
// reports the status of the last step taken.
func (s *Simulator) RunWithCallback(ctx context.Context, x0 dynamo.State, p dynamo.Params, cfg Config, fn func(Sample) bool) (dynamo.Status, error) {
	if err := cfg.Validate(); err != nil {
		return dynamo.StatusGeneric, err
	}
	if len(x0) != s.engine.Contract().StateSize {
		return dynamo.StatusInvalidDimension, dynamo.ErrInvalidDimension
	}

	s.resetController()
	state := dynamo.NewExtendedState(0, 0, x0)
	for i := 0; cfg.MaxSteps == 0 || i < cfg.MaxSteps; i++ {
		select {
		case <-ctx.Done():
			return dynamo.StatusSuccess, ctx.Err()
		default:
		}

		out, err := s.step(state, s.controller.Compute(state), p, float64(i), cfg)
		status := dynamo.StatusOf(err)
		if err != nil && !status.IsHorizon() {
			return status, err
		}
		if cfg.ValidateState && !out.Next.IsValid() {
			return dynamo.StatusGeneric, fmt.Errorf("%w at t=%.4f", dynamo.ErrInvalidState, state.T())
		}
		if !fn(Sample{State: out.Next, Output: out.Output, Jumped: out.Jumped}) || err != nil {
			return status, nil
		}
		state = out.Next
	}
	return dynamo.StatusSuccess, nil
}

// StepSettled repeats the engine step while it keeps jumping, so the
// returned outcome always follows a flow step. Jumped reports whether any
// jump was absorbed. Horizon errors are returned as soon as they occur.
func (s *Simulator) StepSettled(state dynamo.ExtendedState, u dynamo.Control, p dynamo.Params, tick float64, bound int) (hybrid.Outcome, error) {
	if bound <= 0 {
		bound = DefaultSettleBound
	}
	jumped := false
	for n := 0; n < bound; n++ {
		out, err := s.engine.Step(state, u, p, tick)
		flowed := !out.Jumped
		jumped = jumped || out.Jumped
		out.Jumped = jumped
		if err != nil || flowed {
			return out, err
		}
		state = out.Next
	}
	return hybrid.Outcome{Next: state, Jumped: jumped}, fmt.Errorf("%w: %d consecutive jumps at t=%.6g",
		ErrSettleBound, bound, state.T())
}

// Step advances state by one step using the controller's input, settling
// jumps when cfg.SettleJumps is set.
func (s *Simulator) Step(state dynamo.ExtendedState, p dynamo.Params, tick float64, cfg Config) (hybrid.Outcome, error) {
	return s.step(state, s.controller.Compute(state), p, tick, cfg)
}

func (s *Simulator) step(state dynamo.ExtendedState, u dynamo.Control, p dynamo.Params, tick float64, cfg Config) (hybrid.Outcome, error) {
	if cfg.SettleJumps {
		return s.StepSettled(state, u, p, tick, cfg.settleBound())
	}
	return s.engine.Step(state, u, p, tick)
}

// resetController clears feedback memory left over from a previous run.
func (s *Simulator) resetController() {
	if r, ok := s.controller.(interface{ Reset() }); ok {
		r.Reset()
	}
}

func (s *Simulator) record(result *Result, out hybrid.Outcome) {
	result.Samples = append(result.Samples, Sample{State: out.Next, Output: out.Output, Jumped: out.Jumped})
	result.StepsTaken++
	for _, m := range s.metrics {
		m.Observe(out.Next, out.Output, out.Jumped)
	}
	for _, obs := range s.observers {
		obs.OnStep(out.Next, out.Output, out.Jumped)
	}
}

func (s *Simulator) finish(result *Result, final dynamo.ExtendedState, p dynamo.Params, initialEnergy float64) {
	result.Jumps = final.J() - result.Initial.J()
	if initialEnergy != 0 {
		result.EnergyDrift = math.Abs(s.energy(final.X(), p)-initialEnergy) / math.Abs(initialEnergy)
	}
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

func (s *Simulator) energy(x dynamo.State, p dynamo.Params) float64 {
	if h, ok := s.engine.Contract().Model.(dynamo.Hamiltonian); ok {
		return h.Energy(x, p)
	}
	return 0
}
