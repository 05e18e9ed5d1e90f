package field

import "math"

// Velocity holds per-cell (vx, vy) in two flat row-major buffers.
type Velocity struct {
	grid Grid
	VX   []float64
	VY   []float64
}

func NewVelocity(g Grid) *Velocity {
	return &Velocity{
		grid: g,
		VX:   make([]float64, g.Cells()),
		VY:   make([]float64, g.Cells()),
	}
}

func (v *Velocity) Grid() Grid { return v.grid }

func (v *Velocity) At(x, y int) (float64, float64) {
	i := v.grid.Index(x, y)
	return v.VX[i], v.VY[i]
}

func (v *Velocity) Set(x, y int, vx, vy float64) {
	i := v.grid.Index(x, y)
	v.VX[i] = vx
	v.VY[i] = vy
}

// Add accumulates a contribution. Perturbations are additive so that
// overlapping element footprints stack instead of overwriting.
func (v *Velocity) Add(x, y int, vx, vy float64) {
	i := v.grid.Index(x, y)
	v.VX[i] += vx
	v.VY[i] += vy
}

// Scale multiplies the velocity at one cell, used by sponge damping.
func (v *Velocity) Scale(x, y int, factor float64) {
	i := v.grid.Index(x, y)
	v.VX[i] *= factor
	v.VY[i] *= factor
}

func (v *Velocity) CopyFrom(src *Velocity) {
	copy(v.VX, src.VX)
	copy(v.VY, src.VY)
}

func (v *Velocity) Clone() *Velocity {
	c := NewVelocity(v.grid)
	c.CopyFrom(v)
	return c
}

func (v *Velocity) Clear() {
	for i := range v.VX {
		v.VX[i] = 0
		v.VY[i] = 0
	}
}

// ZeroBoundary enforces the wall condition: edge cells carry no velocity.
func (v *Velocity) ZeroBoundary() {
	w, h := v.grid.Width, v.grid.Height
	for x := 0; x < w; x++ {
		top := v.grid.Index(x, 0)
		bottom := v.grid.Index(x, h-1)
		v.VX[top], v.VY[top] = 0, 0
		v.VX[bottom], v.VY[bottom] = 0, 0
	}
	for y := 0; y < h; y++ {
		left := v.grid.Index(0, y)
		right := v.grid.Index(w-1, y)
		v.VX[left], v.VY[left] = 0, 0
		v.VX[right], v.VY[right] = 0, 0
	}
}

// IsValid reports whether the field is free of NaN and Inf.
func (v *Velocity) IsValid() bool {
	for i := range v.VX {
		if math.IsNaN(v.VX[i]) || math.IsInf(v.VX[i], 0) ||
			math.IsNaN(v.VY[i]) || math.IsInf(v.VY[i], 0) {
			return false
		}
	}
	return true
}
