package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/RhysU/helm/internal/analysis"
	"github.com/RhysU/helm/internal/config"
	"github.com/RhysU/helm/internal/helm"
	"github.com/RhysU/helm/internal/loop"
	"github.com/RhysU/helm/internal/metrics"
	"github.com/RhysU/helm/internal/plant"
	"github.com/RhysU/helm/internal/storage"
	"github.com/RhysU/helm/internal/tune"
	"github.com/RhysU/helm/internal/viz"
)

var (
	dataDir string

	// plant coefficients
	a0, a1, a2, b0 float64

	// controller gains, common parameterization
	kp, ki, kd, kt float64

	// schedule
	dt       float64
	duration float64
	setpoint float64
	dropout  float64
	seed     int64

	// actuator clamp
	uMin, uMax float64

	// manual-control window
	manualFrom, manualTo float64

	configFile string
	preset     string

	// tune grids
	kpValues []float64
	kiValues []float64
	kdValues []float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "helm",
		Short: "incremental PID control lab",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".helm", "data directory")

	stepCmd := &cobra.Command{
		Use:   "step",
		Short: "steer a third-order plant across a setpoint step",
		Long: "Simulates the plant b0/(s^3 + a2 s^2 + a1 s + a0) under incremental\n" +
			"PID control and prints one tab-separated record per sample:\n" +
			"time, actuator signal, and the three plant states.",
		RunE: runStep,
	}
	addPlantFlags(stepCmd)
	addGainFlags(stepCmd)
	addScheduleFlags(stepCmd)

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a closed loop and store the trajectory",
		RunE:  runLoop,
	}
	addPlantFlags(runCmd)
	addGainFlags(runCmd)
	addScheduleFlags(runCmd)
	runCmd.Flags().Float64Var(&dropout, "dropout", 0.0, "probability a sample is lost")
	runCmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "dropout random seed")
	runCmd.Flags().Float64Var(&uMin, "u-min", 0, "actuator lower clamp")
	runCmd.Flags().Float64Var(&uMax, "u-max", 0, "actuator upper clamp (equal to u-min disables)")
	runCmd.Flags().Float64Var(&manualFrom, "manual-from", 0, "start of manual-control window")
	runCmd.Flags().Float64Var(&manualTo, "manual-to", 0, "end of manual-control window")
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	runCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "step-response and frequency analysis",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export a run's trajectory to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a run to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list preset scenarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tKP\tKI\tKD\tKT\tDURATION\tNOTES")
			for _, name := range config.ListPresets() {
				c := config.GetPreset(name)
				notes := ""
				if c.Actuator.Saturates() {
					notes = "saturating actuator"
				}
				if c.Dropout > 0 {
					notes = fmt.Sprintf("%.0f%% sample loss", c.Dropout*100)
				}
				fmt.Fprintf(w, "%s\t%g\t%g\t%g\t%g\t%.0fs\t%s\n",
					name, c.Controller.Kp, c.Controller.Ki, c.Controller.Kd,
					c.Controller.Kt, c.Duration, notes)
			}
			return w.Flush()
		},
	}

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "grid-search controller gains against IAE",
		RunE:  tuneGains,
	}
	addPlantFlags(tuneCmd)
	addScheduleFlags(tuneCmd)
	tuneCmd.Flags().Float64SliceVar(&kpValues, "kp-values", []float64{0.5, 1, 2, 4}, "candidate kp values")
	tuneCmd.Flags().Float64SliceVar(&kiValues, "ki-values", []float64{0.1, 0.25, 0.5, 1}, "candidate ki values")
	tuneCmd.Flags().Float64SliceVar(&kdValues, "kd-values", []float64{0}, "candidate kd values")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "watch the loop in a live terminal view",
		RunE:  runLive,
	}
	addPlantFlags(liveCmd)
	addGainFlags(liveCmd)
	addScheduleFlags(liveCmd)

	rootCmd.AddCommand(stepCmd, runCmd, listCmd, plotCmd, analyzeCmd,
		exportCSVCmd, exportJSONCmd, presetsCmd, tuneCmd, liveCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addPlantFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&a0, "a0", 1, "plant denominator coefficient a0")
	cmd.Flags().Float64Var(&a1, "a1", 3, "plant denominator coefficient a1")
	cmd.Flags().Float64Var(&a2, "a2", 3, "plant denominator coefficient a2")
	cmd.Flags().Float64Var(&b0, "b0", 1, "plant numerator coefficient b0")
}

func addGainFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&kp, "kp", 2, "proportional gain")
	cmd.Flags().Float64Var(&ki, "ki", 0.5, "integral gain (0 disables)")
	cmd.Flags().Float64Var(&kd, "kd", 0, "derivative gain (0 disables)")
	cmd.Flags().Float64Var(&kt, "kt", 0, "automatic reset gain (0 disables)")
}

func addScheduleFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&dt, "dt", 0.01, "sample interval")
	cmd.Flags().Float64Var(&duration, "time", 25.0, "simulation duration")
	cmd.Flags().Float64Var(&setpoint, "setpoint", 1.0, "reference value")
}

func flagConfig() *config.Config {
	return &config.Config{
		Plant:      config.PlantConfig{A0: a0, A1: a1, A2: a2, B0: b0},
		Controller: config.ControllerConfig{Kp: kp, Ki: ki, Kd: kd, Kt: kt},
		Actuator:   config.ActuatorConfig{Min: uMin, Max: uMax},
		Dt:         dt,
		Duration:   duration,
		Setpoint:   setpoint,
		Dropout:    dropout,
		Seed:       seed,
	}
}

// buildLoop assembles the controller, plant, and actuator a config
// describes. The controller gains must pass the Approach contract, so
// misconfiguration surfaces here as an error rather than a panic later.
func buildLoop(cfg *config.Config) (*loop.Loop, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Controller.Kp == 0 {
		return nil, fmt.Errorf("kp must be nonzero")
	}

	ctrl := helm.New().Tune(cfg.Controller.Kp, cfg.Controller.Ki,
		cfg.Controller.Kd, cfg.Controller.Kt)

	p := &plant.ThirdOrder{
		A: [3]float64{cfg.Plant.A0, cfg.Plant.A1, cfg.Plant.A2},
		B: cfg.Plant.B0,
	}

	var act loop.Actuator
	if cfg.Actuator.Saturates() {
		act = loop.Saturation{Min: cfg.Actuator.Min, Max: cfg.Actuator.Max}
	}

	return loop.New(ctrl, p, act, loop.Constant(cfg.Setpoint)), nil
}

func defaultMetrics() []loop.Metric {
	return []loop.Metric{
		metrics.NewIAE(),
		metrics.NewISE(),
		metrics.NewControlEffort(),
		metrics.NewOvershoot(),
	}
}

func runStep(cmd *cobra.Command, args []string) error {
	cfg := flagConfig()
	l, err := buildLoop(cfg)
	if err != nil {
		return err
	}

	loopCfg := loop.Config{Dt: cfg.Dt, Duration: cfg.Duration}
	return l.RunWithCallback(context.Background(), loopCfg,
		func(t, r, u, v float64, x []float64) bool {
			fmt.Printf("%.6f\t%.6f\t%.6f\t%.6f\t%.6f\n", t, u, x[0], x[1], x[2])
			return true
		})
}

func runLoop(cmd *cobra.Command, args []string) error {
	cfg := flagConfig()

	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		cfg = p
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	// Explicit flags win over preset and file values.
	overrideFlags(cmd, cfg)

	l, err := buildLoop(cfg)
	if err != nil {
		return err
	}
	for _, m := range defaultMetrics() {
		l.AddMetric(m)
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	start := time.Now()
	result, err := l.Run(context.Background(), loop.Config{
		Dt:         cfg.Dt,
		Duration:   cfg.Duration,
		Seed:       cfg.Seed,
		Dropout:    cfg.Dropout,
		ManualFrom: manualFrom,
		ManualTo:   manualTo,
	})
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	runID, err := st.Save(cfg, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed %d steps in %v\n", result.Steps, elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Println("\nmetrics:")
	names := make([]string, 0, len(result.Metrics))
	for name := range result.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, result.Metrics[name])
	}
	return nil
}

func overrideFlags(cmd *cobra.Command, cfg *config.Config) {
	set := map[string]func(){
		"a0":       func() { cfg.Plant.A0 = a0 },
		"a1":       func() { cfg.Plant.A1 = a1 },
		"a2":       func() { cfg.Plant.A2 = a2 },
		"b0":       func() { cfg.Plant.B0 = b0 },
		"kp":       func() { cfg.Controller.Kp = kp },
		"ki":       func() { cfg.Controller.Ki = ki },
		"kd":       func() { cfg.Controller.Kd = kd },
		"kt":       func() { cfg.Controller.Kt = kt },
		"dt":       func() { cfg.Dt = dt },
		"time":     func() { cfg.Duration = duration },
		"setpoint": func() { cfg.Setpoint = setpoint },
		"dropout":  func() { cfg.Dropout = dropout },
		"seed":     func() { cfg.Seed = seed },
		"u-min":    func() { cfg.Actuator.Min = uMin },
		"u-max":    func() { cfg.Actuator.Max = uMax },
	}
	for name, apply := range set {
		if cmd.Flags().Changed(name) {
			apply()
		}
	}
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tDURATION\tDT\tKP\tKI\tKD\tKT\tIAE")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%.1fs\t%.4fs\t%g\t%g\t%g\t%g\t%.4f\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Config.Duration,
			run.Config.Dt,
			run.Config.Controller.Kp,
			run.Config.Controller.Ki,
			run.Config.Controller.Kd,
			run.Config.Controller.Kt,
			run.Metrics["iae"],
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	tr, err := st.LoadTrajectory(args[0])
	if err != nil {
		return err
	}
	if len(tr.Times) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("setpoint: %g\n", meta.Config.Setpoint)
	fmt.Printf("samples: %d\n\n", len(tr.Times))

	graph := asciigraph.PlotMany(
		[][]float64{tr.Refs, tr.Outputs()},
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption("reference and process output"),
	)
	fmt.Println(graph)
	fmt.Println()

	graph = asciigraph.PlotMany(
		[][]float64{tr.Controls, tr.Applied},
		asciigraph.Height(8),
		asciigraph.Width(80),
		asciigraph.Caption("control signal requested and applied"),
	)
	fmt.Println(graph)
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	tr, err := st.LoadTrajectory(args[0])
	if err != nil {
		return err
	}
	if len(tr.Times) < 2 {
		return fmt.Errorf("no data to analyze")
	}

	outputs := tr.Outputs()
	resp := analysis.StepResponse(tr.Times, outputs, meta.Config.Setpoint)

	fmt.Printf("run: %s\n\n", meta.ID)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "rise time (10-90%%)\t%.3fs\n", resp.RiseTime)
	fmt.Fprintf(w, "overshoot\t%.1f%%\n", resp.Overshoot*100)
	fmt.Fprintf(w, "settling time (2%%)\t%.3fs\n", resp.SettlingTime)
	fmt.Fprintf(w, "steady-state error\t%.6f\n", resp.SteadyStateError)
	if err := w.Flush(); err != nil {
		return err
	}

	ps := analysis.PowerSpectrum(outputs)
	graph := asciigraph.Plot(ps[:len(ps)/4],
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption("output power spectrum"),
	)
	fmt.Println()
	fmt.Println(graph)

	sampleDt := tr.Times[1] - tr.Times[0]
	if freq := analysis.DominantFrequency(outputs, sampleDt); freq > 0 {
		fmt.Printf("\ndominant frequency: %.3f hz (period %.3f s)\n", freq, 1/freq)
	}
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	tr, err := st.LoadTrajectory(args[0])
	if err != nil {
		return err
	}
	if len(tr.Times) == 0 {
		return fmt.Errorf("no data to export")
	}

	w := csv.NewWriter(os.Stdout)
	defer w.Flush()

	header := []string{"time", "r", "u", "v"}
	for i := range tr.States[0] {
		header = append(header, fmt.Sprintf("y%d", i))
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for i := range tr.Times {
		row := []string{
			strconv.FormatFloat(tr.Times[i], 'f', 6, 64),
			strconv.FormatFloat(tr.Refs[i], 'f', 6, 64),
			strconv.FormatFloat(tr.Applied[i], 'f', 6, 64),
			strconv.FormatFloat(tr.Controls[i], 'f', 6, 64),
		}
		for _, val := range tr.States[i] {
			row = append(row, strconv.FormatFloat(val, 'f', 6, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	tr, err := st.LoadTrajectory(args[0])
	if err != nil {
		return err
	}
	return storage.ExportJSON(os.Stdout, meta, tr)
}

func tuneGains(cmd *cobra.Command, args []string) error {
	base := flagConfig()
	if err := base.Validate(); err != nil {
		return err
	}

	names := []string{"kp", "ki", "kd"}
	grid := tune.NewGridSearch(names, [][]float64{kpValues, kiValues, kdValues})

	eval := func(params map[string]float64) (float64, error) {
		cfg := *base
		cfg.Controller = config.ControllerConfig{
			Kp: params["kp"],
			Ki: params["ki"],
			Kd: params["kd"],
		}
		l, err := buildLoop(&cfg)
		if err != nil {
			return 0, err
		}
		iae := metrics.NewIAE()
		l.AddMetric(iae)
		if _, err := l.Run(cmd.Context(), loop.Config{Dt: cfg.Dt, Duration: cfg.Duration}); err != nil {
			return 0, err
		}
		return iae.Value(), nil
	}

	fmt.Printf("searching %d candidates...\n", len(kpValues)*len(kiValues)*len(kdValues))
	best, score, err := grid.Search(context.Background(), eval)
	if err != nil {
		return err
	}
	if best == nil {
		return fmt.Errorf("no candidate completed a run")
	}

	fmt.Printf("best gains: kp=%g ki=%g kd=%g (iae %.4f)\n",
		best["kp"], best["ki"], best["kd"], score)
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg := flagConfig()
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Controller.Kp == 0 {
		return fmt.Errorf("kp must be nonzero")
	}

	ctrl := helm.New().Tune(cfg.Controller.Kp, cfg.Controller.Ki,
		cfg.Controller.Kd, cfg.Controller.Kt)
	p := &plant.ThirdOrder{
		A: [3]float64{cfg.Plant.A0, cfg.Plant.A1, cfg.Plant.A2},
		B: cfg.Plant.B0,
	}

	m := viz.NewModel(ctrl, p, nil, cfg.Setpoint, cfg.Dt, 0)
	_, err := tea.NewProgram(m).Run()
	return err
}
