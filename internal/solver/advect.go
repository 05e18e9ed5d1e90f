package solver

import "github.com/san-kum/liquidlab/internal/field"

// advectVelocity writes the semi-Lagrangian transport of src into dst.
// Every interior cell backtraces from its center along the frozen src
// velocity; reading old and writing new buffers avoids the
// read-after-write artifacts of in-place advection. Edge cells are walls
// and end up zeroed.
func advectVelocity(dst, src *field.Velocity, dt float64) {
	g := src.Grid()
	w, h := g.Width, g.Height
	parallelFor(h-2, minRowChunk, func(start, end int) {
		for row := start; row < end; row++ {
			y := row + 1
			for x := 1; x < w-1; x++ {
				i := g.Index(x, y)
				px := float64(x) + 0.5 - dt*src.VX[i]
				py := float64(y) + 0.5 - dt*src.VY[i]
				dst.VX[i], dst.VY[i] = src.Sample(px, py)
			}
		}
	})
	dst.ZeroBoundary()
}

// advectDye transports src dye along vel into dst. The boundary rows and
// columns take the adjacent interior value afterwards; dye may pool
// against walls but cannot cross them.
func advectDye(dst, src *field.Dye, vel *field.Velocity, dt float64) {
	g := src.Grid()
	w, h := g.Width, g.Height
	parallelFor(h-2, minRowChunk, func(start, end int) {
		for row := start; row < end; row++ {
			y := row + 1
			for x := 1; x < w-1; x++ {
				i := g.Index(x, y)
				px := float64(x) + 0.5 - dt*vel.VX[i]
				py := float64(y) + 0.5 - dt*vel.VY[i]
				r, gg, b := src.Sample(px, py)
				dst.C[field.ChannelR][i] = r
				dst.C[field.ChannelG][i] = gg
				dst.C[field.ChannelB][i] = b
			}
		}
	})
	dst.MirrorBoundary()
}
