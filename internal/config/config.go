// Package config holds the YAML-backed simulation configuration and the
// built-in scene presets.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/liquidlab/internal/elements"
	"github.com/san-kum/liquidlab/internal/field"
	"github.com/san-kum/liquidlab/internal/solver"
)

const (
	DefaultWidth     = 128
	DefaultHeight    = 128
	DefaultDt        = 0.1
	DefaultViscosity = 0.001
	DefaultDiffusion = 0.0001
	DefaultTolerance = 1e-4
	DefaultMaxIter   = 40
	DefaultSteps     = 200
)

type Config struct {
	Grid     GridConfig      `yaml:"grid"`
	Solver   SolverConfig    `yaml:"solver"`
	Steps    int             `yaml:"steps"`
	Elements []ElementConfig `yaml:"elements"`
}

type GridConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

type SolverConfig struct {
	Dt             float64 `yaml:"dt"`
	Viscosity      float64 `yaml:"viscosity"`
	Diffusion      float64 `yaml:"diffusion"`
	Tolerance      float64 `yaml:"tolerance"`
	MaxIterations  int     `yaml:"max_iterations"`
	VelocitySweeps int     `yaml:"velocity_sweeps"`
	DyeSweeps      int     `yaml:"dye_sweeps"`
}

// ElementConfig describes one persistent element with positions and radii
// normalized to [0,1], matching the share-link convention so configs stay
// resolution-independent.
type ElementConfig struct {
	Type      string    `yaml:"type"` // dye, force, attractor
	X         float64   `yaml:"x"`
	Y         float64   `yaml:"y"`
	Radius    float64   `yaml:"radius"`
	Color     []float64 `yaml:"color,omitempty"`
	Intensity float64   `yaml:"intensity,omitempty"`
	Direction []float64 `yaml:"direction,omitempty"`
	Strength  float64   `yaml:"strength,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Grid: GridConfig{Width: DefaultWidth, Height: DefaultHeight},
		Solver: SolverConfig{
			Dt:             DefaultDt,
			Viscosity:      DefaultViscosity,
			Diffusion:      DefaultDiffusion,
			Tolerance:      DefaultTolerance,
			MaxIterations:  DefaultMaxIter,
			VelocitySweeps: 4,
			DyeSweeps:      2,
		},
		Steps: DefaultSteps,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Params maps the solver section onto solver.Params.
func (c *Config) Params() solver.Params {
	return solver.Params{
		Dt:             c.Solver.Dt,
		Viscosity:      c.Solver.Viscosity,
		DiffusionRate:  c.Solver.Diffusion,
		Tolerance:      c.Solver.Tolerance,
		MaxIterations:  c.Solver.MaxIterations,
		VelocitySweeps: c.Solver.VelocitySweeps,
		DyeSweeps:      c.Solver.DyeSweeps,
	}
}

// BuildElements denormalizes the element section against a concrete grid.
func (c *Config) BuildElements(g field.Grid) ([]elements.Element, error) {
	w := float64(g.Width)
	h := float64(g.Height)
	items := make([]elements.Element, 0, len(c.Elements))
	for i, ec := range c.Elements {
		pos := elements.Vec2{X: ec.X * w, Y: ec.Y * h}
		radius := ec.Radius * w
		switch ec.Type {
		case "dye":
			if len(ec.Color) != 3 {
				return nil, fmt.Errorf("element %d: dye needs a 3-channel color", i)
			}
			color := elements.Color{R: ec.Color[0], G: ec.Color[1], B: ec.Color[2]}
			items = append(items, elements.NewDyeSource(pos, radius, color, ec.Intensity))
		case "force":
			if len(ec.Direction) != 2 {
				return nil, fmt.Errorf("element %d: force needs a 2D direction", i)
			}
			dir := elements.Vec2{X: ec.Direction[0], Y: ec.Direction[1]}
			items = append(items, elements.NewForce(pos, radius, dir, ec.Strength))
		case "attractor":
			items = append(items, elements.NewAttractor(pos, radius, ec.Strength))
		default:
			return nil, fmt.Errorf("element %d: unknown type %q", i, ec.Type)
		}
	}
	return items, nil
}
