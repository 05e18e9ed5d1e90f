package field

import "gonum.org/v1/gonum/floats"

// Channel indexes into Dye buffers.
const (
	ChannelR = iota
	ChannelG
	ChannelB
	NumChannels
)

// Dye holds per-cell RGB concentration in three flat row-major buffers.
// Values are non-negative and unbounded above (HDR); tone mapping is the
// renderer's problem, not ours.
type Dye struct {
	grid Grid
	C    [NumChannels][]float64
}

func NewDye(g Grid) *Dye {
	var d Dye
	d.grid = g
	for c := range d.C {
		d.C[c] = make([]float64, g.Cells())
	}
	return &d
}

func (d *Dye) Grid() Grid { return d.grid }

func (d *Dye) At(x, y int) (r, g, b float64) {
	i := d.grid.Index(x, y)
	return d.C[ChannelR][i], d.C[ChannelG][i], d.C[ChannelB][i]
}

func (d *Dye) Set(x, y int, r, g, b float64) {
	i := d.grid.Index(x, y)
	d.C[ChannelR][i] = r
	d.C[ChannelG][i] = g
	d.C[ChannelB][i] = b
}

// Add accumulates dye, clamping each channel at zero so concentrations
// stay non-negative.
func (d *Dye) Add(x, y int, r, g, b float64) {
	i := d.grid.Index(x, y)
	d.C[ChannelR][i] = max0(d.C[ChannelR][i] + r)
	d.C[ChannelG][i] = max0(d.C[ChannelG][i] + g)
	d.C[ChannelB][i] = max0(d.C[ChannelB][i] + b)
}

func max0(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

func (d *Dye) CopyFrom(src *Dye) {
	for c := range d.C {
		copy(d.C[c], src.C[c])
	}
}

func (d *Dye) Clone() *Dye {
	c := NewDye(d.grid)
	c.CopyFrom(d)
	return c
}

func (d *Dye) Clear() {
	for c := range d.C {
		for i := range d.C[c] {
			d.C[c][i] = 0
		}
	}
}

// ChannelSum returns the total mass of one channel.
func (d *Dye) ChannelSum(c int) float64 {
	return floats.Sum(d.C[c])
}

// ChannelSums returns the total mass of all three channels.
func (d *Dye) ChannelSums() [NumChannels]float64 {
	var sums [NumChannels]float64
	for c := range d.C {
		sums[c] = floats.Sum(d.C[c])
	}
	return sums
}

// ScaleChannel rescales every cell of one channel, the mass conservator's
// correction primitive.
func (d *Dye) ScaleChannel(c int, factor float64) {
	floats.Scale(factor, d.C[c])
}

// MirrorBoundary copies the adjacent interior value into each edge cell
// (Neumann condition). Dye may touch walls but never leaks through them.
func (d *Dye) MirrorBoundary() {
	w, h := d.grid.Width, d.grid.Height
	for c := range d.C {
		buf := d.C[c]
		for x := 0; x < w; x++ {
			buf[x] = buf[w+x]
			buf[(h-1)*w+x] = buf[(h-2)*w+x]
		}
		for y := 0; y < h; y++ {
			buf[y*w] = buf[y*w+1]
			buf[y*w+w-1] = buf[y*w+w-2]
		}
	}
}
