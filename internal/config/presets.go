package config

import "sort"

// Presets are the built-in scenes. Each one is a full config; the CLI
// copies a preset and then applies flag overrides on top.
var Presets = map[string]*Config{
	"fountain": {
		Grid: GridConfig{Width: 128, Height: 128},
		Solver: SolverConfig{
			Dt: 0.1, Viscosity: 0.0005, Diffusion: 0.0001,
			Tolerance: 1e-4, MaxIterations: 40, VelocitySweeps: 4, DyeSweeps: 2,
		},
		Steps: 300,
		Elements: []ElementConfig{
			{Type: "dye", X: 0.5, Y: 0.9, Radius: 0.03, Color: []float64{0.1, 0.4, 1.0}, Intensity: 4.0},
			{Type: "force", X: 0.5, Y: 0.9, Radius: 0.06, Direction: []float64{0, -1}, Strength: 2.5},
		},
	},
	"vortex": {
		Grid: GridConfig{Width: 128, Height: 128},
		Solver: SolverConfig{
			Dt: 0.1, Viscosity: 0.001, Diffusion: 0.0001,
			Tolerance: 1e-4, MaxIterations: 40, VelocitySweeps: 4, DyeSweeps: 2,
		},
		Steps: 400,
		Elements: []ElementConfig{
			{Type: "dye", X: 0.3, Y: 0.5, Radius: 0.04, Color: []float64{1, 0.2, 0.1}, Intensity: 3.0},
			{Type: "force", X: 0.5, Y: 0.35, Radius: 0.1, Direction: []float64{1, 0}, Strength: 2.0},
			{Type: "force", X: 0.5, Y: 0.65, Radius: 0.1, Direction: []float64{-1, 0}, Strength: 2.0},
		},
	},
	"well": {
		Grid: GridConfig{Width: 100, Height: 100},
		Solver: SolverConfig{
			Dt: 0.1, Viscosity: 0.001, Diffusion: 0.0001,
			Tolerance: 1e-4, MaxIterations: 40, VelocitySweeps: 4, DyeSweeps: 2,
		},
		Steps: 300,
		Elements: []ElementConfig{
			{Type: "dye", X: 0.5, Y: 0.5, Radius: 0.03, Color: []float64{1, 0, 0}, Intensity: 5.0},
			{Type: "attractor", X: 0.7, Y: 0.5, Radius: 0.1, Strength: 5.0},
		},
	},
	"collision": {
		Grid: GridConfig{Width: 160, Height: 96},
		Solver: SolverConfig{
			Dt: 0.1, Viscosity: 0.0008, Diffusion: 0.0002,
			Tolerance: 1e-4, MaxIterations: 50, VelocitySweeps: 4, DyeSweeps: 2,
		},
		Steps: 350,
		Elements: []ElementConfig{
			{Type: "dye", X: 0.15, Y: 0.5, Radius: 0.025, Color: []float64{1, 0.8, 0}, Intensity: 4.0},
			{Type: "dye", X: 0.85, Y: 0.5, Radius: 0.025, Color: []float64{0, 0.8, 1}, Intensity: 4.0},
			{Type: "force", X: 0.15, Y: 0.5, Radius: 0.05, Direction: []float64{1, 0}, Strength: 3.0},
			{Type: "force", X: 0.85, Y: 0.5, Radius: 0.05, Direction: []float64{-1, 0}, Strength: 3.0},
		},
	},
	"calm": {
		Grid: GridConfig{Width: 96, Height: 96},
		Solver: SolverConfig{
			Dt: 0.05, Viscosity: 0.005, Diffusion: 0.0005,
			Tolerance: 1e-5, MaxIterations: 60, VelocitySweeps: 6, DyeSweeps: 3,
		},
		Steps: 200,
		Elements: []ElementConfig{
			{Type: "dye", X: 0.5, Y: 0.3, Radius: 0.05, Color: []float64{0.4, 1, 0.4}, Intensity: 1.5},
		},
	},
}

// GetPreset returns a deep copy of the named preset, or nil when unknown.
func GetPreset(name string) *Config {
	src, ok := Presets[name]
	if !ok {
		return nil
	}
	cp := *src
	cp.Elements = make([]ElementConfig, len(src.Elements))
	copy(cp.Elements, src.Elements)
	return &cp
}

// ListPresets returns the preset names sorted.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
