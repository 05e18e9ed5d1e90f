package elements

import (
	"math"

	"github.com/san-kum/liquidlab/internal/field"
)

const (
	// attractorDeadZone is the fraction of the radius around the center
	// where the point-sink formula is not applied; it keeps r away from
	// the singularity at the origin.
	attractorDeadZone = 0.2
	// spongeInner marks where the damping band begins, as a fraction of
	// the attractor radius.
	spongeInner = 0.8
	// spongeDamping is the maximum per-step velocity attenuation at the
	// outer edge of the band. Applied every step, the band decays
	// velocity exponentially and traps dye without a rigid wall.
	spongeDamping = 0.2

	epsRadius = 1e-6
)

// Engine converts interactive and persistent inputs into field updates.
// All writes are additive so overlapping footprints accumulate.
type Engine struct {
	grid field.Grid
}

func NewEngine(g field.Grid) Engine {
	return Engine{grid: g}
}

// clampPos pulls an input position into the grid. Interactive input comes
// from a bounded canvas mapping, so out-of-range positions are corrected,
// not rejected.
func (e Engine) clampPos(pos Vec2) Vec2 {
	pos.X = clampF(pos.X, 0, float64(e.grid.Width-1))
	pos.Y = clampF(pos.Y, 0, float64(e.grid.Height-1))
	return pos
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// footprint returns the cell bounding box of a circle, clamped to the grid.
func (e Engine) footprint(pos Vec2, radius float64) (x0, y0, x1, y1 int) {
	x0, y0 = e.grid.ClampCell(int(math.Floor(pos.X-radius)), int(math.Floor(pos.Y-radius)))
	x1, y1 = e.grid.ClampCell(int(math.Ceil(pos.X+radius)), int(math.Ceil(pos.Y+radius)))
	return x0, y0, x1, y1
}

// ApplyForce adds a velocity contribution with quadratic falloff in
// normalized distance to every cell within radius of pos.
func (e Engine) ApplyForce(vel *field.Velocity, pos Vec2, radius float64, direction Vec2, strength float64) {
	pos = e.clampPos(pos)
	if radius < epsRadius {
		radius = epsRadius
	}
	r2 := radius * radius
	x0, y0, x1, y1 := e.footprint(pos, radius)
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			dx := float64(x) - pos.X
			dy := float64(y) - pos.Y
			d2 := dx*dx + dy*dy
			if d2 > r2 {
				continue
			}
			falloff := 1.0 - d2/r2
			vel.Add(x, y, direction.X*strength*falloff, direction.Y*strength*falloff)
		}
	}
}

// InjectDye adds intensity*falloff*color to cells within radius of pos and
// returns the mass actually added per channel, which the mass conservator
// folds into its per-step target.
func (e Engine) InjectDye(dye *field.Dye, pos Vec2, radius float64, color Color, intensity float64) [field.NumChannels]float64 {
	var injected [field.NumChannels]float64
	pos = e.clampPos(pos)
	if radius < epsRadius {
		radius = epsRadius
	}
	r2 := radius * radius
	x0, y0, x1, y1 := e.footprint(pos, radius)
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			dx := float64(x) - pos.X
			dy := float64(y) - pos.Y
			d2 := dx*dx + dy*dy
			if d2 > r2 {
				continue
			}
			falloff := (1.0 - d2/r2) * intensity
			r0, g0, b0 := dye.At(x, y)
			dye.Add(x, y, color.R*falloff, color.G*falloff, color.B*falloff)
			r1, g1, b1 := dye.At(x, y)
			injected[field.ChannelR] += r1 - r0
			injected[field.ChannelG] += g1 - g0
			injected[field.ChannelB] += b1 - b0
		}
	}
	return injected
}

// ApplyAttractor adds a point-sink velocity field toward pos: magnitude
// strength/(2*pi*r^2) for dead zone < r < radius, then damps velocity in
// the sponge band near the radius edge.
func (e Engine) ApplyAttractor(vel *field.Velocity, pos Vec2, radius, strength float64) {
	pos = e.clampPos(pos)
	if radius < epsRadius {
		return
	}
	dead := radius * attractorDeadZone
	inner := radius * spongeInner
	x0, y0, x1, y1 := e.footprint(pos, radius)
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			dx := float64(x) - pos.X
			dy := float64(y) - pos.Y
			r2 := dx*dx + dy*dy
			r := math.Sqrt(r2)
			if r <= dead || r >= radius {
				continue
			}
			mag := strength / (2 * math.Pi * r2)
			// unit vector from cell toward the center
			vel.Add(x, y, -mag*dx/r, -mag*dy/r)
			if r > inner {
				band := (r - inner) / (radius - inner)
				vel.Scale(x, y, 1.0-band*band*spongeDamping)
			}
		}
	}
}

// Apply dispatches one persistent element onto the fields and returns any
// dye mass it injected. This is the single dispatch point for the variant
// set.
func (e Engine) Apply(el Element, vel *field.Velocity, dye *field.Dye) [field.NumChannels]float64 {
	var injected [field.NumChannels]float64
	switch el.Kind {
	case KindDyeSource:
		injected = e.InjectDye(dye, el.Pos, el.Radius, el.Color, el.Intensity)
	case KindForce:
		e.ApplyForce(vel, el.Pos, el.Radius, el.Direction, el.Strength)
	case KindAttractor:
		e.ApplyAttractor(vel, el.Pos, el.Radius, el.Strength)
	}
	return injected
}
