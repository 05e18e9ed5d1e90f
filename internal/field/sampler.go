package field

import "math"

// Sampling uses a continuous coordinate system where cell (x, y) spans
// [x, x+1) x [y, y+1) and its center sits at (x+0.5, y+0.5). Sampling a
// cell center reproduces that cell's value exactly.
//
// clampSample is the single site where sample positions are pulled back
// into valid data: the half-cell margin keeps bilinear lookups inside the
// buffer and encodes the boundary condition as "nearest edge cell value".
// No other component re-implements this clamp.
//
// NaN fails both ordered comparisons, so the negated lower test collapses
// non-finite positions onto the lower bound instead of producing an
// out-of-range index.
func clampSample(p float64, extent int) (i0, i1 int, frac float64) {
	lo, hi := 0.5, float64(extent)-0.5
	if !(p > lo) {
		p = lo
	} else if p > hi {
		p = hi
	}
	gp := p - 0.5
	i0 = int(math.Floor(gp))
	frac = gp - float64(i0)
	i1 = i0 + 1
	if i1 > extent-1 {
		i1 = extent - 1
	}
	return i0, i1, frac
}

func bilinear(buf []float64, w int, x0, x1, y0, y1 int, sx, sy float64) float64 {
	v00 := buf[y0*w+x0]
	v10 := buf[y0*w+x1]
	v01 := buf[y1*w+x0]
	v11 := buf[y1*w+x1]
	return (1-sx)*(1-sy)*v00 + sx*(1-sy)*v10 + (1-sx)*sy*v01 + sx*sy*v11
}

// Sample bilinearly interpolates velocity at a continuous position.
func (v *Velocity) Sample(px, py float64) (float64, float64) {
	x0, x1, sx := clampSample(px, v.grid.Width)
	y0, y1, sy := clampSample(py, v.grid.Height)
	w := v.grid.Width
	return bilinear(v.VX, w, x0, x1, y0, y1, sx, sy),
		bilinear(v.VY, w, x0, x1, y0, y1, sx, sy)
}

// Sample bilinearly interpolates all three dye channels at a continuous
// position.
func (d *Dye) Sample(px, py float64) (r, g, b float64) {
	x0, x1, sx := clampSample(px, d.grid.Width)
	y0, y1, sy := clampSample(py, d.grid.Height)
	w := d.grid.Width
	return bilinear(d.C[ChannelR], w, x0, x1, y0, y1, sx, sy),
		bilinear(d.C[ChannelG], w, x0, x1, y0, y1, sx, sy),
		bilinear(d.C[ChannelB], w, x0, x1, y0, y1, sx, sy)
}
