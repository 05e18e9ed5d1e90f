package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/liquidlab/internal/config"
	"github.com/san-kum/liquidlab/internal/elements"
	"github.com/san-kum/liquidlab/internal/field"
	"github.com/san-kum/liquidlab/internal/metrics"
	"github.com/san-kum/liquidlab/internal/share"
	"github.com/san-kum/liquidlab/internal/solver"
	"github.com/san-kum/liquidlab/internal/stream"
	"github.com/san-kum/liquidlab/internal/telemetry"
	"github.com/san-kum/liquidlab/internal/tui"
)

var (
	configFile string
	preset     string
	shareState string
	outDir     string
	steps      int
	width      int
	height     int
	dt         float64
	viscosity  float64
	diffusion  float64
	tolerance  float64
	maxIter    int
	addr       string
	frameRate  int
	benchSteps int
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	rootCmd := &cobra.Command{
		Use:   "liquidlab",
		Short: "interactive 2D fluid sandbox",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Default to the live view with the fountain scene
			preset = "fountain"
			return runLive(cmd, args)
		},
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a headless simulation and print a summary",
		RunE:  runSimulation,
	}
	addSceneFlags(runCmd)
	runCmd.Flags().IntVar(&steps, "steps", 0, "number of steps (0 = from config)")
	runCmd.Flags().StringVar(&outDir, "out", "", "write per-step CSV telemetry to this directory")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run with a live terminal view",
		RunE:  runLive,
	}
	addSceneFlags(liveCmd)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "stream the simulation over websockets",
		RunE:  runServe,
	}
	addSceneFlags(serveCmd)
	serveCmd.Flags().StringVar(&addr, "addr", "localhost:5000", "listen address")
	serveCmd.Flags().IntVar(&frameRate, "fps", 30, "steps (and frames) per second")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark solver throughput across grid sizes",
		RunE:  runBench,
	}
	benchCmd.Flags().IntVar(&benchSteps, "steps", 100, "steps per grid size")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in scenes",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.ListPresets() {
				p := config.Presets[name]
				fmt.Printf("  %-12s %dx%d, %d elements\n", name, p.Grid.Width, p.Grid.Height, len(p.Elements))
			}
			return nil
		},
	}

	shareCmd := &cobra.Command{
		Use:   "share",
		Short: "encode and decode shareable scene links",
	}
	encodeCmd := &cobra.Command{
		Use:   "encode",
		Short: "print the share string for a scene",
		RunE:  runShareEncode,
	}
	addSceneFlags(encodeCmd)
	decodeCmd := &cobra.Command{
		Use:   "decode [payload]",
		Short: "print the elements of a share string",
		Args:  cobra.ExactArgs(1),
		RunE:  runShareDecode,
	}
	decodeCmd.Flags().IntVar(&width, "width", config.DefaultWidth, "grid width")
	decodeCmd.Flags().IntVar(&height, "height", config.DefaultHeight, "grid height")
	shareCmd.AddCommand(encodeCmd, decodeCmd)

	rootCmd.AddCommand(runCmd, liveCmd, serveCmd, benchCmd, presetsCmd, shareCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSceneFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "scene config file (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "built-in scene preset")
	cmd.Flags().StringVar(&shareState, "share", "", "seed elements from a share string")
	cmd.Flags().IntVar(&width, "width", 0, "grid width")
	cmd.Flags().IntVar(&height, "height", 0, "grid height")
	cmd.Flags().Float64Var(&dt, "dt", 0, "timestep")
	cmd.Flags().Float64Var(&viscosity, "viscosity", 0, "fluid viscosity")
	cmd.Flags().Float64Var(&diffusion, "diffusion", 0, "dye diffusion rate")
	cmd.Flags().Float64Var(&tolerance, "tolerance", 0, "pressure-solve tolerance")
	cmd.Flags().IntVar(&maxIter, "max-iter", 0, "pressure-solve iteration cap")
}

// buildConfig resolves preset, config file and flag overrides, in that
// order; explicit flags always win.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %s)", preset, strings.Join(config.ListPresets(), ", "))
		}
		cfg = p
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("width") {
		cfg.Grid.Width = width
	}
	if cmd.Flags().Changed("height") {
		cfg.Grid.Height = height
	}
	if cmd.Flags().Changed("dt") {
		cfg.Solver.Dt = dt
	}
	if cmd.Flags().Changed("viscosity") {
		cfg.Solver.Viscosity = viscosity
	}
	if cmd.Flags().Changed("diffusion") {
		cfg.Solver.Diffusion = diffusion
	}
	if cmd.Flags().Changed("tolerance") {
		cfg.Solver.Tolerance = tolerance
	}
	if cmd.Flags().Changed("max-iter") {
		cfg.Solver.MaxIterations = maxIter
	}
	return cfg, nil
}

// buildState creates the solver and seeds its persistent elements from the
// config scene, then from a share string if one was given.
func buildState(cfg *config.Config) (*solver.State, error) {
	state, err := solver.New(cfg.Grid.Width, cfg.Grid.Height, cfg.Params())
	if err != nil {
		return nil, err
	}
	items, err := cfg.BuildElements(state.Grid())
	if err != nil {
		return nil, err
	}
	for _, el := range items {
		state.AddElement(el)
	}
	if shareState != "" {
		for _, el := range share.DecodeOrEmpty(shareState, state.Grid()) {
			state.AddElement(el)
		}
	}
	return state, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if steps > 0 {
		cfg.Steps = steps
	}

	state, err := buildState(cfg)
	if err != nil {
		return err
	}

	recorder, err := telemetry.NewRecorder(outDir)
	if err != nil {
		return err
	}
	defer recorder.Close()
	if err := recorder.WriteConfig(cfg); err != nil {
		return err
	}

	collected := []metrics.Metric{
		metrics.NewMassDrift(),
		metrics.NewResidual(),
		metrics.NewConvergence(cfg.Solver.MaxIterations),
		metrics.NewStepTime(),
	}

	fmt.Printf("running %dx%d for %d steps...\n", cfg.Grid.Width, cfg.Grid.Height, cfg.Steps)
	start := time.Now()

	massHistory := make([]float64, 0, cfg.Steps)
	for i := 0; i < cfg.Steps; i++ {
		if err := state.Step(cfg.Solver.Dt); err != nil {
			return err
		}
		report := state.Report()
		for _, m := range collected {
			m.Observe(report)
		}
		if err := recorder.RecordStep(report); err != nil {
			return err
		}
		total := 0.0
		for _, v := range report.Mass {
			total += v
		}
		massHistory = append(massHistory, total)
	}
	elapsed := time.Since(start)

	fmt.Printf("completed in %v (%.0f steps/s)\n\n", elapsed.Round(time.Millisecond), float64(cfg.Steps)/elapsed.Seconds())

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	r := state.Report()
	fmt.Fprintf(w, "mass\t%.4f / %.4f / %.4f\n", r.Mass[field.ChannelR], r.Mass[field.ChannelG], r.Mass[field.ChannelB])
	for _, m := range collected {
		fmt.Fprintf(w, "%s\t%.6g\n", m.Name(), m.Value())
	}
	w.Flush()

	if len(massHistory) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(massHistory, asciigraph.Height(8), asciigraph.Width(60), asciigraph.Caption("total dye mass")))
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	state, err := buildState(cfg)
	if err != nil {
		return err
	}
	return tui.Run(state, cfg.Solver.Dt)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	state, err := buildState(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := stream.NewServer(state, cfg.Solver.Dt, frameRate, slog.Default())
	return srv.ListenAndServe(ctx, addr)
}

func runBench(cmd *cobra.Command, args []string) error {
	sizes := []int{64, 96, 128, 192, 256}
	params := solver.DefaultParams()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "grid\tsteps/s\tms/step\tresidual")
	for _, size := range sizes {
		state, err := solver.New(size, size, params)
		if err != nil {
			return err
		}
		seedBenchScene(state)

		start := time.Now()
		for i := 0; i < benchSteps; i++ {
			if err := state.Step(params.Dt); err != nil {
				return fmt.Errorf("%dx%d: %w", size, size, err)
			}
		}
		elapsed := time.Since(start)
		perStep := elapsed / time.Duration(benchSteps)
		fmt.Fprintf(w, "%dx%d\t%.0f\t%.2f\t%.2e\n",
			size, size,
			float64(benchSteps)/elapsed.Seconds(),
			float64(perStep.Microseconds())/1000.0,
			state.Report().Residual)
	}
	return w.Flush()
}

// seedBenchScene keeps the benchmark honest: an empty field converges
// instantly and measures nothing.
func seedBenchScene(state *solver.State) {
	cfg := config.GetPreset("collision")
	items, err := cfg.BuildElements(state.Grid())
	if err != nil {
		return
	}
	for _, el := range items {
		state.AddElement(el)
	}
}

func runShareEncode(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	state, err := buildState(cfg)
	if err != nil {
		return err
	}
	encoded, err := share.Encode(state.Grid(), state.Elements())
	if err != nil {
		return err
	}
	fmt.Println(encoded)
	return nil
}

func runShareDecode(cmd *cobra.Command, args []string) error {
	g, err := field.NewGrid(width, height, 1.0)
	if err != nil {
		return err
	}
	items, err := share.Decode(args[0], g)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "kind\tpos\tradius\tdetail")
	for _, el := range items {
		detail := fmt.Sprintf("strength %.2f", el.Strength)
		if el.Kind == elements.KindDyeSource {
			detail = fmt.Sprintf("color (%.2f,%.2f,%.2f) intensity %.2f", el.Color.R, el.Color.G, el.Color.B, el.Intensity)
		}
		fmt.Fprintf(w, "%s\t(%.1f,%.1f)\t%.1f\t%s\n", el.Kind, el.Pos.X, el.Pos.Y, el.Radius, detail)
	}
	return w.Flush()
}
