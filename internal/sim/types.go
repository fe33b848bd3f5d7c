package sim

import (
	"fmt"

	"github.com/san-kum/hybsim/internal/dynamo"
)

// DefaultSettleBound caps the number of consecutive jumps StepSettled will
// absorb before giving up.
const DefaultSettleBound = 1000

type Config struct {
	// MaxSteps bounds the number of recorded steps. Zero means the run ends
	// only at a horizon.
	MaxSteps int
	// SettleJumps hides intermediate jumps: each recorded sample is the first
	// state reached by a flow step.
	SettleJumps bool
	SettleBound int
	// ValidateState aborts the run on a NaN or Inf state.
	ValidateState bool
}

func (c Config) Validate() error {
	if c.MaxSteps < 0 {
		return fmt.Errorf("max steps must be non-negative, got %d", c.MaxSteps)
	}
	if c.SettleBound < 0 {
		return fmt.Errorf("settle bound must be non-negative, got %d", c.SettleBound)
	}
	return nil
}

func (c Config) settleBound() int {
	if c.SettleBound == 0 {
		return DefaultSettleBound
	}
	return c.SettleBound
}

// Sample is one recorded step.
type Sample struct {
	State  dynamo.ExtendedState
	Output []float64
	Jumped bool
}

type Result struct {
	Initial    dynamo.ExtendedState
	Samples    []Sample
	Status     dynamo.Status
	StepsTaken int
	Jumps      int
	// EnergyDrift is |E_final - E_initial| / |E_initial| for models that
	// report an energy. Jumps dissipate energy, so it is not a pure
	// integration error here.
	EnergyDrift float64
	Metrics     map[string]float64
}

// Final returns the last recorded state, or the initial state when nothing
// was recorded.
func (r *Result) Final() dynamo.ExtendedState {
	if len(r.Samples) == 0 {
		return r.Initial
	}
	return r.Samples[len(r.Samples)-1].State
}

// Series returns entry i of the extended vector (0 is t, 1 is j, 2.. is x)
// for the initial state followed by every sample.
func (r *Result) Series(i int) []float64 {
	out := make([]float64, 0, len(r.Samples)+1)
	out = append(out, r.Initial.At(i))
	for _, s := range r.Samples {
		out = append(out, s.State.At(i))
	}
	return out
}

// ConstantInput applies the same input on every step.
type ConstantInput dynamo.Control

func (c ConstantInput) Compute(dynamo.ExtendedState) dynamo.Control {
	return dynamo.Control(c)
}
