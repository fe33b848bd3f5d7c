package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/hybsim/internal/controllers"
	"github.com/san-kum/hybsim/internal/experiment"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func ptr(v float64) *float64 { return &v }

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "bouncing_ball", cfg.Model)
	assert.Equal(t, "rk4", cfg.Integrator)
	assert.Equal(t, "jump", cfg.Policy)
	assert.Equal(t, "file", cfg.Store.Kind)
	assert.NoError(t, cfg.Validate())
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "run.yaml", `
model: thermostat
policy: random
coin_probability: 0.25
seed: 7
jump_horizon: 12
init_state: [19, 0]
params:
  - [10, 0.1, 2]
  - [18, 22]
store:
  kind: sqlite
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "thermostat", cfg.Model)
	assert.Equal(t, "rk4", cfg.Integrator, "unset fields keep defaults")
	assert.Equal(t, 0.25, cfg.CoinProbability)
	assert.Equal(t, int64(7), cfg.Seed)
	assert.Equal(t, 12, cfg.JumpHorizon)
	assert.Equal(t, []float64{19, 0}, cfg.InitState)
	assert.Equal(t, [][]float64{{10, 0.1, 2}, {18, 22}}, cfg.Params)
	assert.Equal(t, "sqlite", cfg.Store.Kind)
	assert.Equal(t, DefaultStorePath, cfg.Store.Path)
	assert.NoError(t, cfg.Validate())
}

func TestLoadHCL(t *testing.T) {
	path := writeFile(t, "run.hcl", `
model       = "bouncing_ball"
policy      = "flow"
step_size   = 0.0005
time_horizon = 12.5
init_state  = [2 * pi, 0]
params      = [[gravity / 6], [0.5]]
settle_jumps = true

store {
  kind = "sqlite"
  path = "runs.db"
}
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "flow", cfg.Policy)
	assert.Equal(t, 0.0005, cfg.StepSize)
	assert.Equal(t, 12.5, cfg.TimeHorizon)
	assert.True(t, cfg.SettleJumps)
	assert.InDelta(t, 6.283185307, cfg.InitState[0], 1e-9)
	assert.InDelta(t, 1.635, cfg.Params[0][0], 1e-9)
	assert.Equal(t, 0.5, cfg.Params[1][0])
	assert.Equal(t, &StoreConfig{Kind: "sqlite", Path: "runs.db"}, cfg.Store)
	assert.Equal(t, "rk4", cfg.Integrator)
}

func TestLoadHCLWithoutStoreBlock(t *testing.T) {
	cfg, err := ParseHCL([]byte(`model = "thermostat"`), "inline.hcl")
	require.NoError(t, err)
	assert.Equal(t, "thermostat", cfg.Model)
	require.NotNil(t, cfg.Store)
	assert.Equal(t, DefaultStoreKind, cfg.Store.Kind)
}

func TestLoadHCLErrors(t *testing.T) {
	_, err := ParseHCL([]byte(`model = `), "broken.hcl")
	assert.Error(t, err)

	_, err = ParseHCL([]byte(`unknown_field = 1`), "extra.hcl")
	assert.Error(t, err)

	_, err = ParseHCL([]byte(`step_size = undefined_var`), "vars.hcl")
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	cfg := GetPreset("thermostat", "coin")
	require.NotNil(t, cfg)

	path := filepath.Join(t.TempDir(), "saved.yaml")
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	if diff := cmp.Diff(cfg, loaded); diff != "" {
		t.Errorf("round trip mismatch (-saved +loaded):\n%s", diff)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no model", func(c *Config) { c.Model = "" }},
		{"bad integrator", func(c *Config) { c.Integrator = "verlet" }},
		{"bad policy", func(c *Config) { c.Policy = "maybe" }},
		{"coin above one", func(c *Config) { c.CoinProbability = 1.5 }},
		{"negative coin", func(c *Config) { c.CoinProbability = -0.1 }},
		{"negative step", func(c *Config) { c.StepSize = -1 }},
		{"negative time horizon", func(c *Config) { c.TimeHorizon = -1 }},
		{"negative jump horizon", func(c *Config) { c.JumpHorizon = -1 }},
		{"negative max steps", func(c *Config) { c.MaxSteps = -1 }},
		{"bad store", func(c *Config) { c.Store.Kind = "redis" }},
		{"unknown controller", func(c *Config) { c.Controller = "lqr" }},
		{"pid without gains", func(c *Config) { c.Controller = "pid" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("bouncing_ball", "default")
	require.NotNil(t, cfg)
	assert.Equal(t, []float64{2.0, 0.2}, cfg.InitState)
	assert.NoError(t, cfg.Validate())

	assert.Nil(t, GetPreset("bouncing_ball", "nonexistent"))
	assert.Nil(t, GetPreset("nonexistent", "default"))
}

func TestPresetsAreValid(t *testing.T) {
	for model := range Presets {
		for _, name := range ListPresets(model) {
			cfg := GetPreset(model, name)
			assert.NoError(t, cfg.Validate(), "%s/%s", model, name)
			assert.Equal(t, model, cfg.Model, "%s/%s", model, name)
		}
	}
}

func TestZeroCoinIsKept(t *testing.T) {
	path := writeFile(t, "never.yaml", `
model: thermostat
policy: random
coin_probability: 0
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.0, cfg.CoinProbability)
	assert.Equal(t, ptr(0), cfg.ToExperiment().CoinProbability)

	Presets["thermostat"]["never"] = &Config{
		Model: "thermostat", Integrator: "rk4", Policy: "random", CoinProbability: 0,
	}
	t.Cleanup(func() { delete(Presets["thermostat"], "never") })

	preset := GetPreset("thermostat", "never")
	require.NotNil(t, preset)
	assert.Equal(t, 0.0, preset.CoinProbability)
	assert.Equal(t, DefaultCoin, GetPreset("thermostat", "default").CoinProbability)
}

func TestListPresets(t *testing.T) {
	assert.Equal(t, []string{"coin", "default", "narrow"}, ListPresets("thermostat"))
	assert.Nil(t, ListPresets("nonexistent"))
}

func TestToExperiment(t *testing.T) {
	cfg := GetPreset("thermostat", "coin")
	want := experiment.Config{
		Model:           "thermostat",
		Integrator:      "rk4",
		Policy:          "random",
		CoinProbability: ptr(0.5),
		Seed:            1,
		InitState:       []float64{20.0, 1.0},
		Params:          [][]float64{{10, 0.1, 2.0}, {18, 22}},
	}
	if diff := cmp.Diff(want, cfg.ToExperiment()); diff != "" {
		t.Errorf("ToExperiment mismatch (-want +got):\n%s", diff)
	}
}

func TestPIDBlock(t *testing.T) {
	cfg, err := ParseHCL([]byte(`
model      = "forced_oscillator"
controller = "pid"

pid {
  kp     = 20
  kd     = 6
  target = 0.5
}
`), "pid.hcl")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	got := cfg.ToExperiment()
	assert.Equal(t, "pid", got.Controller)
	assert.Equal(t, controllers.Gains{Kp: 20, Kd: 6, Target: 0.5}, got.Gains)
}

func TestGetPresetCopiesPID(t *testing.T) {
	first := GetPreset("forced_oscillator", "tracking")
	require.NotNil(t, first.PID)
	first.PID.Kp = 0

	second := GetPreset("forced_oscillator", "tracking")
	assert.Equal(t, 20.0, second.PID.Kp)
}
