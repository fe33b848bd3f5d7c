package hybrid

import (
	"math"

	"github.com/san-kum/hybsim/internal/dynamo"
)

// Adapter lifts a model's flow map onto the extended state so that the
// integrator advances t at unit rate and leaves j untouched while x follows
// the flow map. It evaluates nothing but the flow map.
type Adapter struct {
	model   dynamo.Model
	stepper dynamo.Stepper
	h       float64
}

func NewAdapter(m dynamo.Model, stepper dynamo.Stepper, h float64) *Adapter {
	return &Adapter{model: m, stepper: stepper, h: h}
}

// Derive is the augmented derivative over (t, j, x). The integrator's own
// time argument is ignored: t is read from the extended vector so that
// intermediate stages see the stage time.
func (a *Adapter) Derive(dz []float64, _ float64, z []float64, u dynamo.Control, p dynamo.Params) {
	dz[0] = 1
	dz[1] = 0
	a.model.Flow(dz[2:], z[0], int(math.Round(z[1])), dynamo.State(z[2:]), u, p)
}

// Step integrates the extended vector in over one step of the adapter's
// size and writes the result into out. tick is handed to the stepper
// unchanged.
func (a *Adapter) Step(tick float64, in, out []float64, u dynamo.Control, p dynamo.Params) error {
	return a.stepper.Step(a.h, len(in), a.Derive, tick, in, out, u, p)
}
