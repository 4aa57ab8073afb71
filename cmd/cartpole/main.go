package main

import (
	"fmt"
	"math"
	"os"
	"strings"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/cartpole/internal/analysis"
	"github.com/san-kum/cartpole/internal/automation"
	"github.com/san-kum/cartpole/internal/config"
	"github.com/san-kum/cartpole/internal/export"
	"github.com/san-kum/cartpole/internal/logging"
	"github.com/san-kum/cartpole/internal/sim"
	"github.com/san-kum/cartpole/internal/storage"
	"github.com/san-kum/cartpole/internal/viz"
)

var (
	configFile string
	preset     string
	dataDir    string
	logLevel   string
	logFile    string

	pGain      float64
	dGain      float64
	angle      float64
	ticks      int
	iterations int

	noSave    bool
	svgOut    string
	pngOut    string
	phase     bool
	format    string
	outFile   string
	workers   int
	theme     string
	tickRate  float64
	trials    int
	perturb   float64
	seed      int64
	threshold float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "cartpole",
		Short:         "cart-pole balancing lab",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runLive,
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "start from a named preset")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "run log directory (default from config, ~/.cartpole)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write JSON logs to this rotated file")
	addSimFlags(rootCmd)
	rootCmd.Flags().StringVar(&theme, "theme", "classic", "color theme: "+strings.Join(viz.ThemeNames(), ", "))

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "interactive terminal view",
		RunE:  runLive,
	}
	addSimFlags(liveCmd)
	liveCmd.Flags().StringVar(&theme, "theme", "classic", "color theme: "+strings.Join(viz.ThemeNames(), ", "))

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "headless run, saved to the run log",
		RunE:  runHeadless,
	}
	addSimFlags(runCmd)
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not write the run log")
	runCmd.Flags().StringVar(&svgOut, "svg", "", "also draw the final frame to this SVG file")

	realtimeCmd := &cobra.Command{
		Use:   "realtime",
		Short: "paced run driven from stdin (push X, left, right, reset, set p|d V, quit)",
		RunE:  runRealtime,
	}
	addSimFlags(realtimeCmd)
	realtimeCmd.Flags().Float64Var(&tickRate, "hz", sim.DefaultTickRate, "ticks per second")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	scenarioCmd.Flags().BoolVar(&noSave, "no-save", false, "do not write recorded steps to the run log")

	mapCmd := &cobra.Command{
		Use:   "map",
		Short: "sweep the P/D grid and map which gains balance",
		RunE:  runMap,
	}
	addSimFlags(mapCmd)
	mapCmd.Flags().IntVar(&workers, "workers", 0, "parallel runs (default GOMAXPROCS)")
	mapCmd.Flags().Float64Var(&threshold, "threshold", automation.SettleThreshold, "settled |angle| band, radians")

	mcCmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "run the current gains from random initial tilts",
		RunE:  runMonteCarlo,
	}
	addSimFlags(mcCmd)
	mcCmd.Flags().IntVar(&trials, "trials", 50, "number of trials")
	mcCmd.Flags().Float64Var(&perturb, "perturb", 0.1, "max |initial angle|, radians")
	mcCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 = time based)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&pngOut, "png", "", "also render the trace to this PNG file")
	plotCmd.Flags().BoolVar(&phase, "phase", false, "also draw the angle / angular velocity phase portrait")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a saved run as json, csv or svg",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&format, "format", "json", "json, csv or svg")
	exportCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tDESCRIPTION")
			for _, name := range config.ListPresets() {
				fmt.Fprintf(w, "%s\t%s\n", name, config.Presets[name].Description)
			}
			return w.Flush()
		},
	}

	rootCmd.AddCommand(liveCmd, runCmd, realtimeCmd, scenarioCmd, mapCmd, mcCmd, listCmd, plotCmd, exportCmd, presetsCmd)

	err := rootCmd.Execute()
	logging.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addSimFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&pGain, "p", 0, "proportional gain")
	cmd.Flags().Float64Var(&dGain, "d", 0, "derivative gain")
	cmd.Flags().Float64Var(&angle, "angle", 0, "initial pole angle, radians (+ leans right)")
	cmd.Flags().IntVar(&ticks, "ticks", config.DefaultTicks, "ticks to run")
	cmd.Flags().IntVar(&iterations, "iterations", 1, "constraint solver passes per tick")
}

// loadConfig layers defaults, --preset, --config and then explicitly set
// flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		p, err := config.GetPreset(preset)
		if err != nil {
			return nil, fmt.Errorf("%w (available: %s)", err, strings.Join(config.ListPresets(), ", "))
		}
		cfg = p
	}
	if configFile != "" {
		loaded, err := config.LoadOnto(configFile, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("p") {
		cfg.Gains.P = pGain
	}
	if flags.Changed("d") {
		cfg.Gains.D = dGain
	}
	if flags.Changed("angle") {
		cfg.InitialAngle = angle
	}
	if flags.Changed("ticks") {
		cfg.Ticks = ticks
	}
	if flags.Changed("iterations") {
		cfg.SolverIterations = iterations
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if logLevel != "" {
		cfg.Logger.Level = logLevel
	}
	if logFile != "" {
		cfg.Logger.File = logFile
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setup(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logging.InitStderr(cfg.Logger), nil
}

func openStore(cfg *config.Config) (*storage.Store, error) {
	st, err := storage.New(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	return st, st.Init()
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	// the TUI owns the terminal; only the file sink may log
	log := logging.Init(cfg.Logger, nil)

	s := sim.New(cfg, sim.WithLogger(log))
	m := viz.NewModel(s, log).WithTheme(theme)

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err = p.Run()
	return err
}

func runHeadless(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}

	s := sim.New(cfg, sim.WithLogger(log))
	for _, m := range automation.StandardMetrics(cfg) {
		s.AddMetric(m)
	}

	log.Info("run started",
		zap.String("preset", cfg.Preset),
		zap.Int("ticks", cfg.Ticks),
		zap.Float64("p", cfg.Gains.P),
		zap.Float64("d", cfg.Gains.D))

	res, err := s.Run(cmd.Context(), sim.RunConfig{Ticks: cfg.Ticks, Record: true})
	if err != nil {
		return err
	}

	if !noSave {
		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		runID, err := st.Save(cfg, res)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}

	printResult(res)

	if svgOut != "" {
		w, h := int(cfg.World.Width), int(cfg.World.Height)
		if err := export.SaveFrameSVG(svgOut, res.Final, w, h); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", svgOut)
	}
	return nil
}

func printResult(res *sim.Result) {
	fmt.Printf("ticks: %d\n", res.TicksTaken)
	fmt.Printf("final angle: %+.6f rad\n", res.Final.Angle)
	if len(res.Errors) > 0 {
		fmt.Printf("errors: %d (first: %s)\n", len(res.Errors), res.Errors[0])
	}
	fmt.Println("\nmetrics:")
	for _, name := range sortedKeys(res.Metrics) {
		fmt.Printf("  %s: %.6f\n", name, res.Metrics[name])
	}

	if len(res.Frames) > 1 {
		angles := make([]float64, len(res.Frames))
		for i, f := range res.Frames {
			angles[i] = f.Angle
		}
		fmt.Println()
		fmt.Println(asciigraph.Plot(angles,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption("pole angle (rad) vs tick")))
	}
}

func runScenario(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	results, err := automation.RunScenario(cmd.Context(), sc, cfg, log)
	if err != nil {
		return err
	}

	var st *storage.Store
	if !noSave {
		if st, err = openStore(cfg); err != nil {
			return err
		}
	}

	fmt.Printf("scenario: %s\n", sc.Name)
	if sc.Description != "" {
		fmt.Printf("%s\n", sc.Description)
	}
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tPRESET\tTICKS\tP\tD\tFINAL\tPEAK\tSETTLED\tRUN")
	for i, r := range results {
		name := r.Step.Name
		if name == "" {
			name = fmt.Sprintf("#%d", i+1)
		}
		runID := "-"
		if st != nil && r.Step.Record {
			if runID, err = st.Save(r.Config, r.Result); err != nil {
				return err
			}
		}
		settled := "no"
		if tick := r.Result.Metrics["settling_tick"]; tick >= 0 {
			settled = fmt.Sprintf("@%d", int(tick))
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%.3f\t%.3f\t%+.4f\t%.4f\t%s\t%s\n",
			name,
			r.Config.Preset,
			r.Result.TicksTaken,
			r.Result.Final.PGain,
			r.Result.Final.DGain,
			r.Result.Final.Angle,
			r.Result.Metrics["peak_angle"],
			settled,
			runID,
		)
	}
	return w.Flush()
}

func runMap(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("angle") && cfg.InitialAngle == 0 {
		// an upright pole never leaves the band, so every cell would pass
		cfg.InitialAngle = 0.05
	}

	rng := sim.GainRange(cfg)
	points := sim.GainGrid(rng)
	if len(points) == 0 {
		return fmt.Errorf("empty gain grid for range %+v", rng)
	}

	e := sim.NewEnsemble(cfg, cfg.Ticks, threshold).WithLogger(log)
	if workers > 0 {
		e = e.WithWorkers(workers)
	}
	results, err := e.Run(cmd.Context(), points)
	if err != nil {
		return err
	}

	fmt.Printf("initial angle %.3f rad, %d ticks, band %.3f rad\n", cfg.InitialAngle, cfg.Ticks, threshold)
	fmt.Println("rows: P (high to low), columns: D (low to high)")
	fmt.Println("  # settled   ~ balanced, not settled   x fell")
	fmt.Println()
	fmt.Print(sim.RenderGainMap(results))
	return nil
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, _, err := setup(cmd)
	if err != nil {
		return err
	}
	results, err := automation.RunMonteCarlo(cmd.Context(), &automation.MonteCarloConfig{
		Base:         cfg,
		Perturbation: perturb,
		NumTrials:    trials,
		Ticks:        cfg.Ticks,
		Seed:         seed,
	})
	if err != nil {
		return err
	}

	peaks := make([]float64, len(results))
	for i, r := range results {
		peaks[i] = r.PeakAngle
	}
	fmt.Printf("p=%.3f d=%.3f  %d trials within ±%.3f rad\n", cfg.Gains.P, cfg.Gains.D, len(results), perturb)
	fmt.Printf("stable: %.1f%%\n\n", automation.StableFraction(results)*100)
	fmt.Println(asciigraph.Plot(peaks,
		asciigraph.Height(8),
		asciigraph.Width(60),
		asciigraph.Caption("peak |angle| per trial")))
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	st, err := storage.New(cfg.DataDir)
	if err != nil {
		return err
	}
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tTIME\tTICKS\tP\tD\tANGLE0\tFINAL")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.3f\t%.3f\t%+.3f\t%+.4f\n",
			run.ID,
			orDash(run.Preset),
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Ticks,
			run.PGain,
			run.DGain,
			run.InitialAngle,
			run.FinalAngle,
		)
	}
	return w.Flush()
}

func loadRun(cmd *cobra.Command, runID string) (*storage.RunMetadata, []storage.TraceRow, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	st, err := storage.New(cfg.DataDir)
	if err != nil {
		return nil, nil, err
	}
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	trace, err := st.LoadTrace(runID)
	if err != nil {
		return nil, nil, err
	}
	return meta, trace, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, trace, err := loadRun(cmd, args[0])
	if err != nil {
		return err
	}
	if len(trace) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("gains: p=%.3f d=%.3f\n", meta.PGain, meta.DGain)
	fmt.Printf("samples: %d\n\n", len(trace))

	series := []struct {
		caption string
		value   func(storage.TraceRow) float64
	}{
		{"pole angle (rad)", func(r storage.TraceRow) float64 { return r.Angle }},
		{"angular velocity (rad/tick)", func(r storage.TraceRow) float64 { return r.AngularVelocity }},
		{"cart force", func(r storage.TraceRow) float64 { return r.Force }},
		{"cart x (px)", func(r storage.TraceRow) float64 { return r.CartX }},
	}
	for _, s := range series {
		data := make([]float64, len(trace))
		for i, r := range trace {
			data[i] = s.value(r)
		}
		fmt.Println(asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(s.caption)))
		fmt.Println()
	}

	angles := make([]float64, len(trace))
	for i, r := range trace {
		angles[i] = r.Angle
	}
	if period := analysis.DominantPeriod(angles); period > 0 {
		fmt.Printf("oscillation period: %.1f ticks\n", period)
	}
	rate := analysis.GrowthRate(angles, 1e-6)
	fmt.Printf("envelope growth: %+.5f /tick (x%.4f per tick)\n", rate, math.Exp(rate))

	if phase {
		fmt.Println("\nphase portrait: angle (x) vs angular velocity (y)")
		fmt.Print(analysis.PhasePortraitToASCII(analysis.PhasePortrait(trace), 80, 24))
	}

	if pngOut != "" {
		if err := export.SaveTracePNG(pngOut, "run "+meta.ID, trace); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", pngOut)
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	meta, trace, err := loadRun(cmd, args[0])
	if err != nil {
		return err
	}

	out := os.Stdout
	if outFile != "" {
		f, err := os.Create(outFile)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	switch format {
	case "json":
		return storage.ExportJSON(out, meta, trace)
	case "csv":
		return storage.WriteTraceCSV(out, trace)
	case "svg":
		w, h := worldSize(meta)
		_, err := fmt.Fprintln(out, export.BobPathSVG(trace, w, h, "#00ff00"))
		return err
	}
	return fmt.Errorf("unknown format %q (json, csv, svg)", format)
}

// worldSize falls back to the default scene for runs saved without one.
func worldSize(meta *storage.RunMetadata) (int, int) {
	w, h := meta.WorldWidth, meta.WorldHeight
	if w <= 0 || h <= 0 {
		def := config.DefaultWorld()
		w, h = def.Width, def.Height
	}
	return int(w), int(h)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
