package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/hybsim/internal/controllers"
	"github.com/san-kum/hybsim/internal/dynamo"
	"github.com/san-kum/hybsim/internal/integrators"
	"github.com/san-kum/hybsim/internal/jumplogic"
	"github.com/san-kum/hybsim/internal/metrics"
	"github.com/san-kum/hybsim/internal/models"
	"github.com/san-kum/hybsim/internal/sim"
)

type Registry struct {
	models map[string]func() dynamo.Scenario
}

func NewRegistry() *Registry {
	r := &Registry{
		models: make(map[string]func() dynamo.Scenario),
	}

	r.models["bouncing_ball"] = func() dynamo.Scenario { return models.NewBouncingBall() }
	r.models["bouncing_ball_verbose"] = func() dynamo.Scenario {
		return &models.BouncingBall{Floor: -1e-3, Verbose: true}
	}
	r.models["forced_oscillator"] = func() dynamo.Scenario { return models.NewForcedOscillator() }
	r.models["thermostat"] = func() dynamo.Scenario { return models.NewThermostat() }

	return r
}

// Register adds or replaces a model constructor.
func (r *Registry) Register(name string, fn func() dynamo.Scenario) {
	r.models[name] = fn
}

func (r *Registry) GetModel(name string) (dynamo.Scenario, error) {
	fn, ok := r.models[name]
	if !ok {
		return nil, fmt.Errorf("unknown model: %s", name)
	}
	return fn(), nil
}

func (r *Registry) GetIntegrator(name string) (dynamo.Stepper, error) {
	if name == "" {
		name = "rk4"
	}
	return integrators.ByName(name)
}

// GetPolicy resolves a policy name. For the randomized policy probability
// is used as given, so zero never jumps on a tie. A non-zero seed gives a
// reproducible coin; zero seeds from the clock.
func (r *Registry) GetPolicy(name string, probability float64, seed int64) (jumplogic.Resolver, error) {
	p, err := jumplogic.ParsePolicy(name)
	if err != nil {
		return nil, err
	}
	if p != jumplogic.Randomized {
		return p, nil
	}
	coin := jumplogic.NewCoin(probability)
	if seed != 0 {
		coin = jumplogic.NewSeededCoin(seed, probability)
	}
	return jumplogic.New(p, coin)
}

// GetController resolves a controller name. The constant controller
// applies input unchanged on every step.
func (r *Registry) GetController(name string, gains controllers.Gains, input dynamo.Control) (dynamo.Controller, error) {
	switch name {
	case "", "constant":
		return sim.ConstantInput(input), nil
	case "none":
		return controllers.NewNone(len(input)), nil
	case "pid":
		return controllers.NewPID(gains), nil
	default:
		return nil, fmt.Errorf("unknown controller: %s", name)
	}
}

func (r *Registry) ListControllers() []string {
	return []string{"constant", "none", "pid"}
}

func (r *Registry) ListModels() []string {
	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) ListIntegrators() []string {
	return integrators.Names()
}

func (r *Registry) DefaultMetrics(model dynamo.Model, p dynamo.Params) []dynamo.Metric {
	ms := []dynamo.Metric{
		metrics.NewJumpCount(),
		metrics.NewFlowFraction(),
		metrics.NewJumpRate(),
		metrics.NewBounded(100.0),
	}
	if h, ok := model.(dynamo.Hamiltonian); ok {
		ms = append(ms, metrics.NewEnergy(h, p), metrics.NewFlowEnergyDrift(h, p))
	}
	return ms
}
