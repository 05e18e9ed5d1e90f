package solver

import "github.com/san-kum/liquidlab/internal/field"

// relaxSweep performs one Jacobi sweep of the implicit diffusion system
// (1+4a)*x - a*sum(neighbors) = x0 over interior cells, reading cur and
// writing next. Jacobi (rather than in-place Gauss-Seidel) keeps each
// sweep a pure function of the previous one, so chunked parallel execution
// is bit-identical to serial. The formulation is unconditionally stable
// for any a >= 0.
func relaxSweep(next, cur, x0 []float64, g field.Grid, a float64) {
	w, h := g.Width, g.Height
	inv := 1.0 / (1.0 + 4.0*a)
	parallelFor(h-2, minRowChunk, func(start, end int) {
		for row := start; row < end; row++ {
			y := row + 1
			base := y * w
			for x := 1; x < w-1; x++ {
				i := base + x
				next[i] = (x0[i] + a*(cur[i-1]+cur[i+1]+cur[i-w]+cur[i+w])) * inv
			}
		}
	})
}

// diffuseVelocity smooths velocity with viscosity over a fixed number of
// relaxation sweeps. x0 and work are caller-owned scratch buffers; the
// result lands back in vel with the boundary re-zeroed.
func diffuseVelocity(vel, x0, work *field.Velocity, dt, viscosity float64, sweeps int) {
	g := vel.Grid()
	a := dt * viscosity * float64(g.Width*g.Height)
	if a == 0 || sweeps <= 0 {
		vel.ZeroBoundary()
		return
	}
	x0.CopyFrom(vel)
	work.CopyFrom(vel)
	cur, next := vel, work
	for k := 0; k < sweeps; k++ {
		relaxSweep(next.VX, cur.VX, x0.VX, g, a)
		relaxSweep(next.VY, cur.VY, x0.VY, g, a)
		next.ZeroBoundary()
		cur, next = next, cur
	}
	if cur != vel {
		vel.CopyFrom(cur)
	}
	vel.ZeroBoundary()
}

// diffuseDye applies the separate, much smaller dye diffusion coefficient
// with the same relaxation kernel. Mass drift introduced here is repaid by
// the conservator at the end of the step.
func diffuseDye(dye, x0, work *field.Dye, dt, diffusionRate float64, sweeps int) {
	g := dye.Grid()
	a := dt * diffusionRate * float64(g.Width*g.Height)
	if a == 0 || sweeps <= 0 {
		return
	}
	x0.CopyFrom(dye)
	work.CopyFrom(dye)
	cur, next := dye, work
	for k := 0; k < sweeps; k++ {
		for c := 0; c < field.NumChannels; c++ {
			relaxSweep(next.C[c], cur.C[c], x0.C[c], g, a)
		}
		next.MirrorBoundary()
		cur, next = next, cur
	}
	if cur != dye {
		dye.CopyFrom(cur)
	}
}
