package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/hybsim/internal/controllers"
	"github.com/san-kum/hybsim/internal/dynamo"
	"github.com/san-kum/hybsim/internal/hybrid"
	"github.com/san-kum/hybsim/internal/jumplogic"
	"github.com/san-kum/hybsim/internal/sim"
)

// Config selects a model and overrides parts of its default scenario. Zero
// values keep the model's defaults.
type Config struct {
	Model      string
	Integrator string
	Policy     string
	// CoinProbability is the tie-break jump probability of the random
	// policy. Nil means a fair coin.
	CoinProbability *float64
	Seed            int64
	StepSize        float64
	TimeHorizon     float64
	JumpHorizon     int
	MaxSteps        int
	SettleJumps     bool
	InitState       []float64
	Input           []float64
	Params          [][]float64
	// Controller is "constant" (the default), "none" or "pid".
	Controller string
	Gains      controllers.Gains
}

type Experiment struct {
	cfg       Config
	contract  dynamo.Contract
	state     dynamo.State
	input     dynamo.Control
	params    dynamo.Params
	simulator *sim.Simulator
}

func New(cfg Config) *Experiment {
	return &Experiment{cfg: cfg}
}

// Build looks up every named component in reg and calls Setup.
func (e *Experiment) Build(reg *Registry) error {
	model, err := reg.GetModel(e.cfg.Model)
	if err != nil {
		return err
	}
	stepper, err := reg.GetIntegrator(e.cfg.Integrator)
	if err != nil {
		return err
	}
	policy, err := reg.GetPolicy(e.cfg.Policy, e.coin(), e.cfg.Seed)
	if err != nil {
		return err
	}
	ctrl, err := reg.GetController(e.cfg.Controller, e.cfg.Gains, e.inputFor(model))
	if err != nil {
		return err
	}
	return e.Setup(model, stepper, policy, ctrl, reg.DefaultMetrics(model, e.paramsFor(model)))
}

// Setup builds the engine and simulator. A nil controller applies the
// configured input unchanged.
func (e *Experiment) Setup(model dynamo.Scenario, stepper dynamo.Stepper, policy jumplogic.Resolver, ctrl dynamo.Controller, metrics []dynamo.Metric) error {
	c := model.Contract()
	if e.cfg.StepSize > 0 {
		c.StepSize = e.cfg.StepSize
	}
	if e.cfg.TimeHorizon > 0 {
		c.TimeHorizon = e.cfg.TimeHorizon
	}
	if e.cfg.JumpHorizon > 0 {
		c.JumpHorizon = e.cfg.JumpHorizon
	}

	eng, err := hybrid.New(c, policy, stepper)
	if err != nil {
		return fmt.Errorf("build engine for %s: %w", e.cfg.Model, err)
	}

	e.contract = c
	e.state = model.DefaultState()
	if len(e.cfg.InitState) > 0 {
		e.state = dynamo.State(e.cfg.InitState).Clone()
	}
	e.input = e.inputFor(model)
	e.params = e.paramsFor(model)

	if ctrl == nil {
		ctrl = sim.ConstantInput(e.input)
	}
	e.simulator = sim.New(eng, ctrl)
	for _, m := range metrics {
		e.simulator.AddMetric(m)
	}
	return nil
}

func (e *Experiment) paramsFor(model dynamo.Scenario) dynamo.Params {
	if len(e.cfg.Params) > 0 {
		return dynamo.Params(e.cfg.Params).Clone()
	}
	return model.DefaultParams()
}

func (e *Experiment) coin() float64 {
	if e.cfg.CoinProbability == nil {
		return 0.5
	}
	return *e.cfg.CoinProbability
}

func (e *Experiment) inputFor(model dynamo.Scenario) dynamo.Control {
	if e.cfg.Input != nil {
		return append(dynamo.Control(nil), e.cfg.Input...)
	}
	return model.DefaultInput()
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	return e.simulator.Run(ctx, e.state.Clone(), e.params, e.SimConfig())
}

func (e *Experiment) SimConfig() sim.Config {
	return sim.Config{
		MaxSteps:      e.cfg.MaxSteps,
		SettleJumps:   e.cfg.SettleJumps,
		ValidateState: true,
	}
}

func (e *Experiment) Config() Config { return e.cfg }

func (e *Experiment) Contract() dynamo.Contract { return e.contract }

func (e *Experiment) InitialState() dynamo.State { return e.state.Clone() }

func (e *Experiment) Params() dynamo.Params { return e.params }

func (e *Experiment) Input() dynamo.Control { return e.input }

// Simulator returns the underlying simulator for adding observers.
func (e *Experiment) Simulator() *sim.Simulator {
	return e.simulator
}
