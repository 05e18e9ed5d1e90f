// Package solver implements the 2D incompressible fluid core: velocity
// and RGB dye fields on a regular grid, advanced by semi-Lagrangian
// advection, implicit diffusion, an adaptive pressure projection and
// per-channel mass conservation.
package solver

import (
	"fmt"
	"time"

	"github.com/san-kum/liquidlab/internal/elements"
	"github.com/san-kum/liquidlab/internal/field"
)

// Params are the scalar knobs of the solver.
type Params struct {
	Dt             float64
	Viscosity      float64
	DiffusionRate  float64 // dye diffusion, much smaller than viscosity
	Tolerance      float64 // pressure-solve early-exit residual
	MaxIterations  int     // pressure-solve sweep cap
	VelocitySweeps int     // viscosity relaxation sweeps
	DyeSweeps      int     // dye diffusion relaxation sweeps
}

func DefaultParams() Params {
	return Params{
		Dt:             0.1,
		Viscosity:      0.001,
		DiffusionRate:  0.0001,
		Tolerance:      1e-4,
		MaxIterations:  40,
		VelocitySweeps: 4,
		DyeSweeps:      2,
	}
}

func (p Params) validate() error {
	if p.MaxIterations <= 0 {
		return fmt.Errorf("max iterations must be positive, got %d", p.MaxIterations)
	}
	if p.Dt < 0 {
		return fmt.Errorf("dt must be non-negative, got %f", p.Dt)
	}
	if p.Viscosity < 0 {
		return fmt.Errorf("viscosity must be non-negative, got %f", p.Viscosity)
	}
	if p.DiffusionRate < 0 {
		return fmt.Errorf("diffusion rate must be non-negative, got %f", p.DiffusionRate)
	}
	if p.Tolerance < 0 {
		return fmt.Errorf("tolerance must be non-negative, got %f", p.Tolerance)
	}
	return nil
}

// StepReport carries the diagnostics of one completed step.
type StepReport struct {
	Step       uint64
	Mass       [field.NumChannels]float64
	Target     [field.NumChannels]float64
	Residual   float64
	Iterations int
	Duration   time.Duration
}

// State owns everything one simulation needs: the grid, ping-pong field
// buffers, the persistent element list and pending transient input. It is
// exclusively owned by its driver between steps; external readers take
// copy-on-read snapshots.
type State struct {
	grid   field.Grid
	params Params

	vel        *field.Velocity
	velPrev    *field.Velocity
	velScratch *field.Velocity
	dye        *field.Dye
	dyePrev    *field.Dye
	dyeScratch *field.Dye

	pressure   []float64
	pressNext  []float64
	divergence []float64

	engine  elements.Engine
	elems   *elements.List
	pending []elements.Element

	steps  uint64
	report StepReport
	pool   *snapshotPool
}

// New builds a simulation state. Grids below 3x3 have no interior cells
// and a non-positive iteration cap makes the pressure solve meaningless;
// both are rejected outright, there is no degraded mode.
func New(width, height int, params Params) (*State, error) {
	g, err := field.NewGrid(width, height, 1.0)
	if err != nil {
		return nil, err
	}
	if err := params.validate(); err != nil {
		return nil, err
	}
	s := &State{
		grid:   g,
		params: params,
		elems:  elements.NewList(),
	}
	s.alloc()
	return s, nil
}

func (s *State) alloc() {
	g := s.grid
	s.vel = field.NewVelocity(g)
	s.velPrev = field.NewVelocity(g)
	s.velScratch = field.NewVelocity(g)
	s.dye = field.NewDye(g)
	s.dyePrev = field.NewDye(g)
	s.dyeScratch = field.NewDye(g)
	s.pressure = make([]float64, g.Cells())
	s.pressNext = make([]float64, g.Cells())
	s.divergence = make([]float64, g.Cells())
	s.engine = elements.NewEngine(g)
	s.pool = newSnapshotPool(g)
}

func (s *State) Grid() field.Grid  { return s.grid }
func (s *State) Params() Params    { return s.params }
func (s *State) StepCount() uint64 { return s.steps }

// Report returns the diagnostics of the most recent step.
func (s *State) Report() StepReport { return s.report }

// Mass returns the current total dye mass per channel.
func (s *State) Mass() [field.NumChannels]float64 { return s.dye.ChannelSums() }

// ApplyForce queues a transient radial force; it lands on the field at the
// start of the next step.
func (s *State) ApplyForce(pos elements.Vec2, radius float64, direction elements.Vec2, strength float64) {
	s.pending = append(s.pending, elements.NewForce(pos, radius, direction, strength))
}

// InjectDye queues a transient dye splat. The injected mass is tracked and
// added to the conservator's target when the step runs.
func (s *State) InjectDye(pos elements.Vec2, radius float64, color elements.Color, intensity float64) {
	s.pending = append(s.pending, elements.NewDyeSource(pos, radius, color, intensity))
}

// AddElement places a persistent element and returns its ID.
func (s *State) AddElement(e elements.Element) uint64 {
	return s.elems.Add(e)
}

// RemoveElement erases a persistent element by ID.
func (s *State) RemoveElement(id uint64) bool {
	return s.elems.Remove(id)
}

// Elements returns the persistent elements in creation order.
func (s *State) Elements() []elements.Element { return s.elems.Items() }

// ReplaceElements swaps in a decoded element set, e.g. from a share link.
func (s *State) ReplaceElements(items []elements.Element) {
	s.elems.Replace(items)
}

// Step advances the simulation one tick:
//
//	persistent elements -> pending input -> advect -> diffuse -> project -> conserve
//
// A zero dt is an exact no-op. On numeric blow-up the returned error means
// the whole state is corrupt; the caller resets, nothing is rolled back.
func (s *State) Step(dt float64) error {
	if dt < 0 {
		return fmt.Errorf("dt must be non-negative, got %f", dt)
	}
	if dt == 0 {
		return nil
	}
	start := time.Now()

	// mass target before anything lossy touches the dye
	target := s.dye.ChannelSums()

	// deterministic order: persistent elements by creation, then queued
	// transient input in arrival order
	var injected [field.NumChannels]float64
	for _, el := range s.elems.Items() {
		add := s.engine.Apply(el, s.vel, s.dye)
		for c := range injected {
			injected[c] += add[c]
		}
	}
	for _, el := range s.pending {
		add := s.engine.Apply(el, s.vel, s.dye)
		for c := range injected {
			injected[c] += add[c]
		}
	}
	s.pending = s.pending[:0]
	for c := range target {
		target[c] += injected[c]
	}

	// advect from frozen snapshots, ping-pong ownership swap
	advectVelocity(s.velPrev, s.vel, dt)
	s.vel, s.velPrev = s.velPrev, s.vel

	advectDye(s.dyePrev, s.dye, s.vel, dt)
	s.dye, s.dyePrev = s.dyePrev, s.dye

	diffuseVelocity(s.vel, s.velScratch, s.velPrev, dt, s.params.Viscosity, s.params.VelocitySweeps)
	diffuseDye(s.dye, s.dyeScratch, s.dyePrev, dt, s.params.DiffusionRate, s.params.DyeSweeps)

	iters, residual := projectVelocity(s.vel, s.pressure, s.pressNext, s.divergence, s.params.Tolerance, s.params.MaxIterations)

	mass := conserveDye(s.dye, target)

	if !s.vel.IsValid() {
		return fmt.Errorf("step %d: velocity field is invalid (NaN/Inf), state must be recreated", s.steps)
	}

	s.steps++
	s.report = StepReport{
		Step:       s.steps,
		Mass:       mass,
		Target:     target,
		Residual:   residual,
		Iterations: iters,
		Duration:   time.Since(start),
	}
	return nil
}

// DyeSnapshot returns a copy of the dye field for rendering or streaming.
// Snapshots are stable across subsequent steps; return them with
// ReleaseSnapshot when done.
func (s *State) DyeSnapshot() *field.Dye {
	snap := s.pool.Get()
	snap.CopyFrom(s.dye)
	return snap
}

// ReleaseSnapshot recycles a snapshot obtained from DyeSnapshot.
func (s *State) ReleaseSnapshot(d *field.Dye) {
	s.pool.Put(d)
}

// Clear zeroes both fields without touching parameters or elements.
func (s *State) Clear() {
	s.vel.Clear()
	s.dye.Clear()
}

// Resize reallocates the whole field state at a new resolution. Persistent
// elements survive with positions and radii scaled proportionally; field
// contents do not.
func (s *State) Resize(width, height int) error {
	g, err := field.NewGrid(width, height, s.grid.CellSize)
	if err != nil {
		return err
	}
	sx := float64(g.Width) / float64(s.grid.Width)
	sy := float64(g.Height) / float64(s.grid.Height)
	items := s.elems.Items()
	scaled := make([]elements.Element, len(items))
	for i, el := range items {
		el.Pos.X *= sx
		el.Pos.Y *= sy
		el.Radius *= sx
		scaled[i] = el
	}
	s.grid = g
	s.alloc()
	s.elems.Replace(scaled)
	s.pending = s.pending[:0]
	s.steps = 0
	s.report = StepReport{}
	return nil
}
