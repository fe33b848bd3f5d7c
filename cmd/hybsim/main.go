package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/san-kum/hybsim/internal/config"
	"github.com/san-kum/hybsim/internal/ctxlog"
	"github.com/san-kum/hybsim/internal/experiment"
	"github.com/san-kum/hybsim/internal/storage"
)

var (
	dataDir   = config.DefaultStorePath
	storeKind = config.DefaultStoreKind
	logLevel  = "info"

	configFile  string
	preset      string
	integrator  string
	policy      string
	coin        float64
	seed        int64
	dt          float64
	duration    float64
	jumpLimit   int
	maxSteps    int
	settle      bool
	initState   []float64
	input       []float64
	controller  string
	kp          float64
	ki          float64
	kd          float64
	target      float64
	noSave      bool
	stepsFrame  int
	liveX       int
	liveY       int
	xAxis       int
	yAxis       int
	outFile     string
	svgWidth    int
	svgHeight   int
	strokeColor string
)

// main wires the hybsim commands and exits with status 1 on error.
func main() {
	rootCmd := &cobra.Command{
		Use:           "hybsim",
		Short:         "hybrid dynamical systems simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctxlog.New(os.Stderr, logLevel)
			if err != nil {
				return err
			}
			cmd.SetContext(ctxlog.WithLogger(cmd.Context(), logger))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultStorePath, "data directory")
	rootCmd.PersistentFlags().StringVar(&storeKind, "store", config.DefaultStoreKind, "run store backend (file|sqlite)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug|info|warn|error)")

	runCmd := &cobra.Command{
		Use:   "run [model]",
		Short: "run simulation and store the trajectory",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addScenarioFlags(runCmd)
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	liveCmd := &cobra.Command{
		Use:   "live [model]",
		Short: "run simulation with live visualization",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addScenarioFlags(liveCmd)
	liveCmd.Flags().IntVar(&stepsFrame, "steps-per-frame", 4, "engine steps per frame")
	liveCmd.Flags().IntVar(&liveX, "x", 0, "extended state index for the horizontal axis (0=t, 1=j, 2..=x)")
	liveCmd.Flags().IntVar(&liveY, "y", 0, "extended state index for the vertical axis")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show run metadata and jump events",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot state components over steps",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	phaseCmd := &cobra.Command{
		Use:   "phase [run_id]",
		Short: "phase space plot",
		Args:  cobra.ExactArgs(1),
		RunE:  phasePlot,
	}
	phaseCmd.Flags().IntVar(&xAxis, "x-axis", 2, "extended state index for x-axis (0=t, 1=j, 2..=x)")
	phaseCmd.Flags().IntVar(&yAxis, "y-axis", 3, "extended state index for y-axis")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run data to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export phase portrait to SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")
	exportSVGCmd.Flags().IntVar(&xAxis, "x-axis", 2, "extended state index for x-axis")
	exportSVGCmd.Flags().IntVar(&yAxis, "y-axis", 3, "extended state index for y-axis")
	exportSVGCmd.Flags().IntVar(&svgWidth, "width", 800, "image width")
	exportSVGCmd.Flags().IntVar(&svgHeight, "height", 600, "image height")
	exportSVGCmd.Flags().StringVar(&strokeColor, "stroke", "", "path color")

	presetsCmd := &cobra.Command{
		Use:   "presets [model]",
		Short: "list available presets",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "list models, integrators and jump policies",
		Args:  cobra.NoArgs,
		RunE:  listModels,
	}

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, showCmd, plotCmd, phaseCmd,
		exportJSONCmd, exportCSVCmd, exportSVGCmd, presetsCmd, modelsCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func addScenarioFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&configFile, "config", "c", "", "YAML or HCL run description")
	f.StringVarP(&preset, "preset", "p", "", "named preset for the model")
	f.StringVar(&integrator, "integrator", config.DefaultIntegrator, "flow integrator (euler|rk4)")
	f.StringVar(&policy, "policy", config.DefaultPolicy, "jump policy (jump|flow|random|flow-only)")
	f.Float64Var(&coin, "coin", config.DefaultCoin, "jump probability for the random policy")
	f.Int64Var(&seed, "seed", 0, "coin seed (0 seeds from the clock)")
	f.Float64Var(&dt, "dt", 0, "step size (0 keeps the model default)")
	f.Float64Var(&duration, "time", 0, "time horizon (0 keeps the model default)")
	f.IntVar(&jumpLimit, "jumps", 0, "jump horizon (0 keeps the model default)")
	f.IntVar(&maxSteps, "max-steps", 0, "stop after this many steps (0 means no limit)")
	f.BoolVar(&settle, "settle", false, "absorb consecutive jumps into one step")
	f.Float64SliceVar(&initState, "init", nil, "initial state")
	f.Float64SliceVar(&input, "input", nil, "constant input")
	f.StringVar(&controller, "controller", "constant", "input controller (constant|none|pid)")
	f.Float64Var(&kp, "kp", 10.0, "pid kp")
	f.Float64Var(&ki, "ki", 0.1, "pid ki")
	f.Float64Var(&kd, "kd", 5.0, "pid kd")
	f.Float64Var(&target, "target", 0.0, "pid target for x0")
}

// resolveConfig layers the preset, the config file and explicit flags, in
// that order.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if len(args) > 0 {
		cfg.Model = args[0]
	}

	if preset != "" {
		p := config.GetPreset(cfg.Model, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(cfg.Model))
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		if len(args) > 0 {
			loaded.Model = args[0]
		}
		cfg = loaded
	}

	f := cmd.Flags()
	if f.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if f.Changed("policy") {
		cfg.Policy = policy
	}
	if f.Changed("coin") {
		cfg.CoinProbability = coin
	}
	if f.Changed("seed") {
		cfg.Seed = seed
	}
	if f.Changed("dt") {
		cfg.StepSize = dt
	}
	if f.Changed("time") {
		cfg.TimeHorizon = duration
	}
	if f.Changed("jumps") {
		cfg.JumpHorizon = jumpLimit
	}
	if f.Changed("max-steps") {
		cfg.MaxSteps = maxSteps
	}
	if f.Changed("settle") {
		cfg.SettleJumps = settle
	}
	if f.Changed("init") {
		cfg.InitState = initState
	}
	if f.Changed("input") {
		cfg.Input = input
	}
	if f.Changed("controller") {
		cfg.Controller = controller
	}
	if cfg.Controller == "pid" {
		pid := config.PIDConfig{Kp: kp, Ki: ki, Kd: kd, Target: target}
		if cfg.PID != nil {
			pid = *cfg.PID
		}
		if f.Changed("kp") {
			pid.Kp = kp
		}
		if f.Changed("ki") {
			pid.Ki = ki
		}
		if f.Changed("kd") {
			pid.Kd = kd
		}
		if f.Changed("target") {
			pid.Target = target
		}
		cfg.PID = &pid
	}

	root := cmd.Root().PersistentFlags()
	if cfg.Store != nil {
		if root.Changed("store") || configFile == "" {
			cfg.Store.Kind = storeKind
		}
		if root.Changed("data") || configFile == "" {
			cfg.Store.Path = dataDir
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func buildExperiment(cfg *config.Config) (*experiment.Experiment, error) {
	exp := experiment.New(cfg.ToExperiment())
	if err := exp.Build(experiment.NewRegistry()); err != nil {
		return nil, err
	}
	return exp, nil
}

func openStore(ctx context.Context, kind, path string) (storage.Store, error) {
	st, err := storage.NewStore(kind, path)
	if err != nil {
		return nil, err
	}
	if err := st.Init(ctx); err != nil {
		return nil, err
	}
	return st, nil
}

// loadRun opens the configured store and reads one run with its samples.
func loadRun(ctx context.Context, id string) (*storage.RunMetadata, []storage.Sample, error) {
	st, err := openStore(ctx, storeKind, dataDir)
	if err != nil {
		return nil, nil, err
	}
	defer st.Close()

	meta, err := st.Load(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	samples, err := st.LoadTrajectory(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if len(samples) == 0 {
		return nil, nil, fmt.Errorf("run %s has no samples", id)
	}
	return meta, samples, nil
}

// output returns stdout, or the file named by --out.
func output() (*os.File, func() error, error) {
	if outFile == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(outFile)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}
