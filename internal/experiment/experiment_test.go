package experiment

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/hybsim/internal/controllers"
	"github.com/san-kum/hybsim/internal/dynamo"
	"github.com/san-kum/hybsim/internal/jumplogic"
)

func TestRegistryLookups(t *testing.T) {
	r := NewRegistry()

	assert.Equal(t, []string{"bouncing_ball", "bouncing_ball_verbose", "forced_oscillator", "thermostat"}, r.ListModels())
	for _, name := range r.ListModels() {
		m, err := r.GetModel(name)
		require.NoError(t, err, name)
		require.NoError(t, m.Contract().Validate(), name)
		assert.Len(t, m.DefaultState(), m.Contract().StateSize, name)
	}

	_, err := r.GetModel("pendulum")
	assert.Error(t, err)

	_, err = r.GetIntegrator("")
	assert.NoError(t, err)
	_, err = r.GetIntegrator("verlet")
	assert.Error(t, err)
	assert.Equal(t, []string{"euler", "rk4"}, r.ListIntegrators())
}

func TestRegistryPolicies(t *testing.T) {
	r := NewRegistry()

	p, err := r.GetPolicy("", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, jumplogic.JumpPrecedence, p)

	p, err = r.GetPolicy("flow", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, jumplogic.FlowPrecedence, p)

	p, err = r.GetPolicy("random", 1, 9)
	require.NoError(t, err)
	tb, ok := p.(*jumplogic.TieBreak)
	require.True(t, ok)
	assert.Equal(t, 1.0, tb.Coin.Probability())
	assert.True(t, p.Resolve(true, true))

	p, err = r.GetPolicy("random", 0, 9)
	require.NoError(t, err)
	tb, ok = p.(*jumplogic.TieBreak)
	require.True(t, ok)
	assert.Equal(t, 0.0, tb.Coin.Probability())
	for i := 0; i < 100; i++ {
		require.False(t, p.Resolve(true, true), "a zero coin jumped on a tie")
	}

	_, err = r.GetPolicy("sometimes", 0, 0)
	assert.Error(t, err)
}

func TestDefaultMetrics(t *testing.T) {
	r := NewRegistry()
	ball, _ := r.GetModel("bouncing_ball")
	therm, _ := r.GetModel("thermostat")

	assert.Len(t, r.DefaultMetrics(ball, ball.DefaultParams()), 6)
	assert.Len(t, r.DefaultMetrics(therm, therm.DefaultParams()), 4)
}

func TestExperimentRunDefaults(t *testing.T) {
	e := New(Config{Model: "bouncing_ball"})
	require.NoError(t, e.Build(NewRegistry()))

	result, err := e.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, dynamo.StatusJumpLimit, result.Status)
	assert.Equal(t, 30, result.Jumps)
	assert.Equal(t, 30.0, result.Metrics["jumps"])
	assert.Contains(t, result.Metrics, "flow_energy_drift")
	assert.Less(t, result.Metrics["flow_energy_drift"], 1e-6)
}

func TestExperimentOverrides(t *testing.T) {
	e := New(Config{
		Model:       "bouncing_ball",
		Integrator:  "euler",
		JumpHorizon: 3,
		InitState:   []float64{1.0, 0},
		Params:      [][]float64{{1.0}, {0.5}},
	})
	require.NoError(t, e.Build(NewRegistry()))

	assert.Equal(t, 3, e.Contract().JumpHorizon)
	assert.Equal(t, dynamo.State{1.0, 0}, e.InitialState())
	assert.Equal(t, dynamo.Params{{1.0}, {0.5}}, e.Params())

	result, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, dynamo.StatusJumpLimit, result.Status)
	assert.Equal(t, 3, result.Final().J())
}

func TestExperimentMaxSteps(t *testing.T) {
	e := New(Config{Model: "forced_oscillator", MaxSteps: 100})
	require.NoError(t, e.Build(NewRegistry()))

	result, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 100, result.StepsTaken)
	assert.Equal(t, dynamo.StatusSuccess, result.Status)
	assert.Equal(t, dynamo.Control{5}, e.Input())
}

func TestExperimentSeededRandomPolicyIsReproducible(t *testing.T) {
	run := func() []float64 {
		coin := 0.5
		e := New(Config{Model: "thermostat", Policy: "random", CoinProbability: &coin, Seed: 11, MaxSteps: 3000})
		require.NoError(t, e.Build(NewRegistry()))
		result, err := e.Run(context.Background())
		require.NoError(t, err)
		return result.Series(2)
	}

	if diff := cmp.Diff(run(), run()); diff != "" {
		t.Errorf("seeded runs differ (-first +second):\n%s", diff)
	}
}

func TestExperimentErrors(t *testing.T) {
	_, err := New(Config{}).Run(context.Background())
	assert.Error(t, err)

	assert.Error(t, New(Config{Model: "nope"}).Build(NewRegistry()))
	assert.Error(t, New(Config{Model: "thermostat", Integrator: "nope"}).Build(NewRegistry()))
	assert.Error(t, New(Config{Model: "thermostat", Policy: "nope"}).Build(NewRegistry()))
}

func TestRegistryControllers(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, []string{"constant", "none", "pid"}, r.ListControllers())

	c, err := r.GetController("", controllers.Gains{}, dynamo.Control{3})
	require.NoError(t, err)
	assert.Equal(t, dynamo.Control{3}, c.Compute(dynamo.ExtendedState{}))

	c, err = r.GetController("none", controllers.Gains{}, dynamo.Control{3, 4})
	require.NoError(t, err)
	assert.Equal(t, dynamo.Control{0, 0}, c.Compute(dynamo.ExtendedState{}))

	_, err = r.GetController("lqr", controllers.Gains{}, nil)
	assert.Error(t, err)
}

func TestExperimentPIDHoldsOscillatorBelowThreshold(t *testing.T) {
	e := New(Config{
		Model:      "forced_oscillator",
		Controller: "pid",
		Gains:      controllers.Gains{Kp: 20, Ki: 5, Kd: 6, Target: 0.5},
	})
	require.NoError(t, e.Build(NewRegistry()))

	result, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, dynamo.StatusTimeLimit, result.Status)
	assert.Zero(t, result.Jumps)
	assert.InDelta(t, 0.5, result.Final().X()[0], 0.02)
}

func TestExperimentUnknownController(t *testing.T) {
	assert.Error(t, New(Config{Model: "thermostat", Controller: "lqr"}).Build(NewRegistry()))
}
