package solver

import (
	"math"

	"github.com/san-kum/liquidlab/internal/field"
)

// projectVelocity makes vel divergence-free: it solves the pressure
// Poisson equation with Jacobi relaxation and subtracts the pressure
// gradient. The relaxation exits early once the mean absolute residual of
// the linear system over interior cells drops to tol; typical fields
// converge well under maxIter sweeps. Returns the sweeps actually run and
// the final residual.
func projectVelocity(vel *field.Velocity, p, pNext, div []float64, tol float64, maxIter int) (int, float64) {
	g := vel.Grid()
	w, h := g.Width, g.Height

	// divergence of the current field; pressure restarts from zero
	parallelFor(h-2, minRowChunk, func(start, end int) {
		for row := start; row < end; row++ {
			y := row + 1
			base := y * w
			for x := 1; x < w-1; x++ {
				i := base + x
				div[i] = 0.5 * ((vel.VX[i+1] - vel.VX[i-1]) + (vel.VY[i+w] - vel.VY[i-w]))
			}
		}
	})
	for i := range p {
		p[i] = 0
		pNext[i] = 0
	}
	mirrorScalarBoundary(div, g)

	iters := 0
	residual := math.Inf(1)
	for k := 0; k < maxIter; k++ {
		parallelFor(h-2, minRowChunk, func(start, end int) {
			for row := start; row < end; row++ {
				y := row + 1
				base := y * w
				for x := 1; x < w-1; x++ {
					i := base + x
					pNext[i] = (p[i-1] + p[i+1] + p[i-w] + p[i+w] - div[i]) * 0.25
				}
			}
		})
		mirrorScalarBoundary(pNext, g)
		p, pNext = pNext, p
		iters = k + 1

		residual = poissonResidual(p, div, g)
		if residual <= tol {
			break
		}
	}

	// subtract the pressure gradient; edge cells stay walls
	parallelFor(h-2, minRowChunk, func(start, end int) {
		for row := start; row < end; row++ {
			y := row + 1
			base := y * w
			for x := 1; x < w-1; x++ {
				i := base + x
				vel.VX[i] -= 0.5 * (p[i+1] - p[i-1])
				vel.VY[i] -= 0.5 * (p[i+w] - p[i-w])
			}
		}
	})
	vel.ZeroBoundary()

	return iters, residual
}

// poissonResidual measures how far p is from solving laplacian(p) = div:
// the mean absolute defect over interior cells, in divergence units. The
// early exit fires only when this is actually below tolerance.
func poissonResidual(p, div []float64, g field.Grid) float64 {
	w, h := g.Width, g.Height
	interior := float64((w - 2) * (h - 2))
	if interior < 1 {
		return 0
	}
	sum := 0.0
	for y := 1; y < h-1; y++ {
		base := y * w
		for x := 1; x < w-1; x++ {
			i := base + x
			sum += math.Abs(p[i-1] + p[i+1] + p[i-w] + p[i+w] - 4*p[i] - div[i])
		}
	}
	return sum / interior
}

// mirrorScalarBoundary copies adjacent interior values into edge cells
// (Neumann condition for pressure and divergence).
func mirrorScalarBoundary(buf []float64, g field.Grid) {
	w, h := g.Width, g.Height
	for x := 0; x < w; x++ {
		buf[x] = buf[w+x]
		buf[(h-1)*w+x] = buf[(h-2)*w+x]
	}
	for y := 0; y < h; y++ {
		buf[y*w] = buf[y*w+1]
		buf[y*w+w-1] = buf[y*w+w-2]
	}
}
