package config

import (
	"sort"

	"github.com/san-kum/hybsim/internal/jumplogic"
)

var Presets = map[string]map[string]*Config{
	"bouncing_ball": {
		"default": {
			Model: "bouncing_ball", Integrator: "rk4", Policy: "jump",
			InitState: []float64{2.0, 0.2}, Params: [][]float64{{9.81}, {0.75}},
		},
		"tall": {
			Model: "bouncing_ball", Integrator: "rk4", Policy: "jump",
			InitState: []float64{10.0, 0.0}, Params: [][]float64{{9.81}, {0.75}},
		},
		"lossy": {
			Model: "bouncing_ball", Integrator: "rk4", Policy: "jump",
			InitState: []float64{2.0, 0.0}, Params: [][]float64{{9.81}, {0.4}},
		},
		"moon": {
			Model: "bouncing_ball", Integrator: "rk4", Policy: "jump", TimeHorizon: 60,
			InitState: []float64{2.0, 0.0}, Params: [][]float64{{1.62}, {0.75}},
		},
		"settled": {
			Model: "bouncing_ball", Integrator: "rk4", Policy: "flow", SettleJumps: true,
			InitState: []float64{2.0, 0.2}, Params: [][]float64{{9.81}, {0.75}},
		},
	},
	"forced_oscillator": {
		"default": {
			Model: "forced_oscillator", Integrator: "rk4", Policy: "jump",
			Input: []float64{5.0}, Params: [][]float64{{1.0}, {0.5}},
		},
		"weak": {
			Model: "forced_oscillator", Integrator: "rk4", Policy: "jump",
			Input: []float64{0.8}, Params: [][]float64{{1.0}, {0.5}},
		},
		"undamped": {
			Model: "forced_oscillator", Integrator: "rk4", Policy: "jump", TimeHorizon: 30,
			Input: []float64{2.0}, Params: [][]float64{{4.0}, {0.0}},
		},
		"tracking": {
			Model: "forced_oscillator", Integrator: "rk4", Policy: "jump",
			Params:     [][]float64{{1.0}, {0.5}},
			Controller: "pid", PID: &PIDConfig{Kp: 20, Ki: 5, Kd: 6, Target: 0.5},
		},
	},
	"thermostat": {
		"default": {
			Model: "thermostat", Integrator: "rk4", Policy: "flow",
			InitState: []float64{20.0, 1.0}, Params: [][]float64{{10, 0.1, 2.0}, {18, 22}},
		},
		"narrow": {
			Model: "thermostat", Integrator: "rk4", Policy: "flow",
			InitState: []float64{20.0, 1.0}, Params: [][]float64{{10, 0.1, 2.0}, {19.5, 20.5}},
		},
		"coin": {
			Model: "thermostat", Integrator: "rk4", Policy: "random", CoinProbability: 0.5, Seed: 1,
			InitState: []float64{20.0, 1.0}, Params: [][]float64{{10, 0.1, 2.0}, {18, 22}},
		},
	},
}

// GetPreset returns a copy of the named preset with storage defaults
// filled in, or nil. Presets of the random policy set their coin
// explicitly; the others get the default coin so a saved preset reloads
// unchanged.
func GetPreset(model, preset string) *Config {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	cfg, ok := modelPresets[preset]
	if !ok {
		return nil
	}
	c := *cfg
	if c.PID != nil {
		pid := *c.PID
		c.PID = &pid
	}
	if p, _ := jumplogic.ParsePolicy(c.Policy); p != jumplogic.Randomized && c.CoinProbability == 0 {
		c.CoinProbability = DefaultCoin
	}
	c.fill()
	return &c
}

func ListPresets(model string) []string {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modelPresets))
	for name := range modelPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
