package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/hybsim/internal/analysis"
	"github.com/san-kum/hybsim/internal/config"
	"github.com/san-kum/hybsim/internal/ctxlog"
	"github.com/san-kum/hybsim/internal/experiment"
	"github.com/san-kum/hybsim/internal/export"
	"github.com/san-kum/hybsim/internal/jumplogic"
	"github.com/san-kum/hybsim/internal/storage"
	"github.com/san-kum/hybsim/internal/viz"
)

func runSimulation(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := ctxlog.FromContext(ctx)

	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	exp, err := buildExperiment(cfg)
	if err != nil {
		return err
	}

	logger.Info("running simulation", "model", cfg.Model, "integrator", cfg.Integrator, "policy", cfg.Policy)
	start := time.Now()

	result, err := exp.Run(ctx)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	final := result.Final()
	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("status: %s\n", result.Status)
	fmt.Printf("steps: %s\n", humanize.Comma(int64(result.StepsTaken)))
	fmt.Printf("jumps: %d\n", result.Jumps)
	fmt.Printf("final: %s\n", final)

	if len(result.Metrics) > 0 {
		fmt.Println("\nmetrics:")
		names := make([]string, 0, len(result.Metrics))
		for name := range result.Metrics {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("  %s: %.6f\n", name, result.Metrics[name])
		}
	}

	if noSave {
		return nil
	}

	st, err := openStore(ctx, cfg.Store.Kind, cfg.Store.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	meta := storage.NewRunMetadata(cfg.Model, exp.Contract(), result)
	meta.Integrator = cfg.Integrator
	meta.Policy = cfg.Policy
	meta.Controller = cfg.Controller
	meta.Seed = cfg.Seed
	meta.Params = exp.Params()

	runID, err := st.Save(ctx, meta, storage.SamplesFromResult(result))
	if err != nil {
		return err
	}
	logger.Debug("run stored", "id", runID, "store", cfg.Store.Kind, "path", cfg.Store.Path)
	fmt.Printf("\nrun id: %s\n", runID)
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	exp, err := buildExperiment(cfg)
	if err != nil {
		return err
	}

	m, err := viz.NewModel(exp.Simulator(), exp.InitialState(), exp.Params(), exp.SimConfig(), viz.Options{
		Name:          cfg.Model,
		StepsPerFrame: stepsFrame,
		XIndex:        liveX,
		YIndex:        liveY,
	})
	if err != nil {
		return err
	}
	return viz.Run(m)
}

func listRuns(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	st, err := openStore(ctx, storeKind, dataDir)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.List(ctx)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODEL\tCREATED\tSTATUS\tSTEPS\tJUMPS\tFINAL T\tINTEG\tPOLICY")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%.4g\t%s\t%s\n",
			run.ID,
			run.Model,
			humanize.Time(run.Timestamp),
			run.Status,
			humanize.Comma(int64(run.Steps)),
			run.Jumps,
			run.FinalT,
			run.Integrator,
			run.Policy,
		)
	}
	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	meta, samples, err := loadRun(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "id\t%s\n", meta.ID)
	fmt.Fprintf(w, "model\t%s\n", meta.Model)
	fmt.Fprintf(w, "created\t%s (%s)\n", meta.Timestamp.Format(time.DateTime), humanize.Time(meta.Timestamp))
	fmt.Fprintf(w, "integrator\t%s\n", meta.Integrator)
	fmt.Fprintf(w, "policy\t%s\n", meta.Policy)
	if meta.Controller != "" {
		fmt.Fprintf(w, "controller\t%s\n", meta.Controller)
	}
	fmt.Fprintf(w, "step size\t%g\n", meta.StepSize)
	fmt.Fprintf(w, "horizons\tT=%g J=%d\n", meta.TimeHorizon, meta.JumpHorizon)
	fmt.Fprintf(w, "status\t%s\n", meta.Status)
	fmt.Fprintf(w, "steps\t%s\n", humanize.Comma(int64(meta.Steps)))
	fmt.Fprintf(w, "jumps\t%d\n", meta.Jumps)
	fmt.Fprintf(w, "final t\t%g\n", meta.FinalT)
	if len(meta.Params) > 0 {
		fmt.Fprintf(w, "params\t%v\n", meta.Params)
	}
	names := make([]string, 0, len(meta.Metrics))
	for name := range meta.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "%s\t%.6f\n", name, meta.Metrics[name])
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Println()
	fmt.Print(analysis.JumpTable(analysis.JumpEvents(samples)))
	return nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, samples, err := loadRun(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("model: %s\n", meta.Model)
	fmt.Printf("samples: %d\n\n", len(samples))

	numVars := min(len(samples[0].X), 6)
	for i := 0; i < numVars; i++ {
		graph := asciigraph.Plot(storage.Column(samples, i+2),
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("x%d vs step", i)),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	if meta.Jumps > 0 {
		graph := asciigraph.Plot(storage.Column(samples, 1),
			asciigraph.Height(6),
			asciigraph.Width(80),
			asciigraph.Caption("j vs step"),
		)
		fmt.Println(graph)
	}
	return nil
}

func phasePlot(cmd *cobra.Command, args []string) error {
	meta, samples, err := loadRun(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	portrait, err := analysis.NewPhasePortrait(samples, xAxis, yAxis)
	if err != nil {
		return err
	}

	fmt.Printf("phase space plot: %s\n", meta.ID)
	fmt.Printf("model: %s\n", meta.Model)
	fmt.Printf("x-axis: %s, y-axis: %s\n\n", axisLabel(xAxis), axisLabel(yAxis))
	fmt.Print(analysis.PhasePortraitToASCII(portrait, 70, 20))
	fmt.Printf("\nLegend: • = flow, × = after jump (%d segments)\n", len(portrait.Segments()))
	return nil
}

func axisLabel(i int) string {
	switch i {
	case 0:
		return "t"
	case 1:
		return "j"
	}
	return fmt.Sprintf("x%d", i-2)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	meta, samples, err := loadRun(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if outFile != "" {
		return storage.ExportJSONFile(outFile, *meta, samples)
	}
	return storage.ExportJSON(os.Stdout, *meta, samples)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	_, samples, err := loadRun(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	w, closeFn, err := output()
	if err != nil {
		return err
	}
	if err := storage.WriteCSV(w, samples); err != nil {
		closeFn()
		return err
	}
	return closeFn()
}

func exportSVG(cmd *cobra.Command, args []string) error {
	_, samples, err := loadRun(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	portrait, err := analysis.NewPhasePortrait(samples, xAxis, yAxis)
	if err != nil {
		return err
	}
	w, closeFn, err := output()
	if err != nil {
		return err
	}
	if err := export.WriteSVG(w, portrait, svgWidth, svgHeight, strokeColor); err != nil {
		closeFn()
		return err
	}
	return closeFn()
}

func listPresets(cmd *cobra.Command, args []string) error {
	models := experiment.NewRegistry().ListModels()
	if len(args) > 0 {
		models = args
	}
	for _, model := range models {
		presets := config.ListPresets(model)
		if len(presets) == 0 {
			if len(args) > 0 {
				fmt.Printf("no presets for model: %s\n", model)
			}
			continue
		}
		fmt.Printf("presets for %s:\n", model)
		for _, name := range presets {
			p := config.GetPreset(model, name)
			fmt.Printf("  %-10s policy=%s init=%v params=%v", name, p.Policy, p.InitState, p.Params)
			if p.Controller != "" {
				fmt.Printf(" controller=%s", p.Controller)
			}
			fmt.Println()
		}
	}
	return nil
}

func listModels(cmd *cobra.Command, args []string) error {
	reg := experiment.NewRegistry()
	fmt.Printf("models:      %s\n", strings.Join(reg.ListModels(), ", "))
	fmt.Printf("integrators: %s\n", strings.Join(reg.ListIntegrators(), ", "))
	fmt.Printf("controllers: %s\n", strings.Join(reg.ListControllers(), ", "))

	policies := make([]string, 0, 4)
	for _, p := range jumplogic.Policies() {
		policies = append(policies, p.String())
	}
	fmt.Printf("policies:    %s\n", strings.Join(policies, ", "))
	return nil
}
