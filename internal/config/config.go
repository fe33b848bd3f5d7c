package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/hybsim/internal/controllers"
	"github.com/san-kum/hybsim/internal/experiment"
	"github.com/san-kum/hybsim/internal/integrators"
	"github.com/san-kum/hybsim/internal/jumplogic"
	"github.com/san-kum/hybsim/internal/models"
)

const (
	DefaultModel      = "bouncing_ball"
	DefaultIntegrator = "rk4"
	DefaultPolicy     = "jump"
	DefaultCoin       = 0.5
	DefaultStoreKind  = "file"
	DefaultStorePath  = ".hybsim"
)

// Config describes one simulation run. Zero numeric values select the
// model's own defaults.
type Config struct {
	Model           string       `yaml:"model" hcl:"model,optional"`
	Integrator      string       `yaml:"integrator" hcl:"integrator,optional"`
	Policy          string       `yaml:"policy" hcl:"policy,optional"`
	CoinProbability float64      `yaml:"coin_probability" hcl:"coin_probability,optional"`
	Seed            int64        `yaml:"seed" hcl:"seed,optional"`
	StepSize        float64      `yaml:"step_size,omitempty" hcl:"step_size,optional"`
	TimeHorizon     float64      `yaml:"time_horizon,omitempty" hcl:"time_horizon,optional"`
	JumpHorizon     int          `yaml:"jump_horizon,omitempty" hcl:"jump_horizon,optional"`
	MaxSteps        int          `yaml:"max_steps,omitempty" hcl:"max_steps,optional"`
	SettleJumps     bool         `yaml:"settle_jumps,omitempty" hcl:"settle_jumps,optional"`
	InitState       []float64    `yaml:"init_state,omitempty" hcl:"init_state,optional"`
	Input           []float64    `yaml:"input,omitempty" hcl:"input,optional"`
	Params          [][]float64  `yaml:"params,omitempty" hcl:"params,optional"`
	Controller      string       `yaml:"controller,omitempty" hcl:"controller,optional"`
	PID             *PIDConfig   `yaml:"pid,omitempty" hcl:"pid,block"`
	Store           *StoreConfig `yaml:"store,omitempty" hcl:"store,block"`
}

type PIDConfig struct {
	Kp     float64 `yaml:"kp" hcl:"kp,optional"`
	Ki     float64 `yaml:"ki" hcl:"ki,optional"`
	Kd     float64 `yaml:"kd" hcl:"kd,optional"`
	Target float64 `yaml:"target" hcl:"target,optional"`
	Index  int     `yaml:"index" hcl:"index,optional"`
}

type StoreConfig struct {
	Kind string `yaml:"kind" hcl:"kind,optional"`
	Path string `yaml:"path" hcl:"path,optional"`
}

func DefaultConfig() *Config {
	return &Config{
		Model:           DefaultModel,
		Integrator:      DefaultIntegrator,
		Policy:          DefaultPolicy,
		CoinProbability: DefaultCoin,
		Store:           defaultStore(),
	}
}

func defaultStore() *StoreConfig {
	return &StoreConfig{Kind: DefaultStoreKind, Path: DefaultStorePath}
}

// Load reads a YAML file, or an HCL file when the name ends in .hcl.
func Load(path string) (*Config, error) {
	if strings.EqualFold(filepath.Ext(path), ".hcl") {
		return LoadHCL(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.fill()
	return cfg, nil
}

func LoadHCL(path string) (*Config, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseHCL(src, path)
}

// ParseHCL decodes an HCL run description. Expressions may refer to the
// constants gravity, pi and e.
func ParseHCL(src []byte, filename string) (*Config, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}

	cfg := DefaultConfig()
	if diags := gohcl.DecodeBody(file.Body, evalContext(), cfg); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}
	cfg.fill()
	return cfg, nil
}

func evalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"gravity": cty.NumberFloatVal(models.DefaultGravity),
			"pi":      cty.NumberFloatVal(math.Pi),
			"e":       cty.NumberFloatVal(math.E),
		},
	}
}

func (c *Config) fill() {
	if c.Store == nil {
		c.Store = defaultStore()
	}
	if c.Store.Kind == "" {
		c.Store.Kind = DefaultStoreKind
	}
	if c.Store.Path == "" {
		c.Store.Path = DefaultStorePath
	}
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if _, err := integrators.ByName(c.Integrator); err != nil {
		return err
	}
	if _, err := jumplogic.ParsePolicy(c.Policy); err != nil {
		return err
	}
	switch {
	case c.CoinProbability < 0 || c.CoinProbability > 1:
		return fmt.Errorf("coin_probability must be in [0, 1], got %g", c.CoinProbability)
	case c.StepSize < 0:
		return fmt.Errorf("step_size must be positive, got %g", c.StepSize)
	case c.TimeHorizon < 0:
		return fmt.Errorf("time_horizon must be positive, got %g", c.TimeHorizon)
	case c.JumpHorizon < 0:
		return fmt.Errorf("jump_horizon must be positive, got %d", c.JumpHorizon)
	case c.MaxSteps < 0:
		return fmt.Errorf("max_steps must be non-negative, got %d", c.MaxSteps)
	}
	switch c.Controller {
	case "", "constant", "none":
	case "pid":
		if c.PID == nil {
			return fmt.Errorf("pid controller needs a pid block")
		}
	default:
		return fmt.Errorf("unknown controller: %s", c.Controller)
	}
	if c.Store != nil && c.Store.Kind != "file" && c.Store.Kind != "sqlite" {
		return fmt.Errorf("unknown store kind: %s", c.Store.Kind)
	}
	return nil
}

func (c *Config) ToExperiment() experiment.Config {
	var gains controllers.Gains
	if c.PID != nil {
		gains = controllers.Gains{Kp: c.PID.Kp, Ki: c.PID.Ki, Kd: c.PID.Kd, Target: c.PID.Target, Index: c.PID.Index}
	}
	coin := c.CoinProbability
	return experiment.Config{
		Model:           c.Model,
		Integrator:      c.Integrator,
		Policy:          c.Policy,
		CoinProbability: &coin,
		Seed:            c.Seed,
		StepSize:        c.StepSize,
		TimeHorizon:     c.TimeHorizon,
		JumpHorizon:     c.JumpHorizon,
		MaxSteps:        c.MaxSteps,
		SettleJumps:     c.SettleJumps,
		InitState:       c.InitState,
		Input:           c.Input,
		Params:          c.Params,
		Controller:      c.Controller,
		Gains:           gains,
	}
}
