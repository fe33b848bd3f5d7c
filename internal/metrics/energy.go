package metrics

import (
	"math"

	"github.com/san-kum/hybsim/internal/dynamo"
)

// Energy is the mean energy over all samples.
type Energy struct {
	name        string
	model       dynamo.Hamiltonian
	params      dynamo.Params
	samples     int
	totalEnergy float64
}

func NewEnergy(model dynamo.Hamiltonian, p dynamo.Params) *Energy {
	return &Energy{
		name:   "energy",
		model:  model,
		params: p,
	}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(s dynamo.ExtendedState, _ []float64, _ bool) {
	e.totalEnergy += e.model.Energy(s.X(), e.params)
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.totalEnergy / float64(e.samples)
}

func (e *Energy) Reset() {
	e.totalEnergy = 0
	e.samples = 0
}

// FlowEnergyDrift is the largest relative energy change accumulated during
// a single flow interval. The reference energy is reset after every jump,
// so dissipation at impacts does not count as drift.
type FlowEnergyDrift struct {
	name      string
	model     dynamo.Hamiltonian
	params    dynamo.Params
	reference float64
	maxDrift  float64
	primed    bool
}

func NewFlowEnergyDrift(model dynamo.Hamiltonian, p dynamo.Params) *FlowEnergyDrift {
	return &FlowEnergyDrift{
		name:   "flow_energy_drift",
		model:  model,
		params: p,
	}
}

func (e *FlowEnergyDrift) Name() string { return e.name }

func (e *FlowEnergyDrift) Observe(s dynamo.ExtendedState, _ []float64, jumped bool) {
	energy := e.model.Energy(s.X(), e.params)
	if jumped || !e.primed {
		e.reference = energy
		e.primed = true
		return
	}
	if e.reference != 0 {
		drift := math.Abs(energy-e.reference) / math.Abs(e.reference)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *FlowEnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *FlowEnergyDrift) Reset() {
	e.reference = 0
	e.maxDrift = 0
	e.primed = false
}
