package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/liquidlab/internal/field"
)

// Canvas renders a dye field as terminal color cells. Each terminal row
// packs two grid rows with the upper-half-block glyph: foreground paints
// the top row, background the bottom.
type Canvas struct {
	Cols, Rows int // terminal character cells
}

func NewCanvas(cols, rows int) *Canvas {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	return &Canvas{Cols: cols, Rows: rows}
}

// Render downsamples the dye field into the canvas viewport. Intensities
// are tone-mapped with 1-exp(-x) so bright splats saturate instead of
// washing out the rest of the frame.
func (c *Canvas) Render(dye *field.Dye) string {
	g := dye.Grid()
	var b strings.Builder
	b.Grow(c.Cols * c.Rows * 24)

	for row := 0; row < c.Rows; row++ {
		for col := 0; col < c.Cols; col++ {
			top := c.sample(dye, g, col, 2*row)
			bot := c.sample(dye, g, col, 2*row+1)
			style := lipgloss.NewStyle().
				Foreground(lipgloss.Color(hexColor(top))).
				Background(lipgloss.Color(hexColor(bot)))
			b.WriteString(style.Render("▀"))
		}
		if row < c.Rows-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// sample averages the grid cells covered by one canvas sub-cell. The
// vertical resolution is doubled by the half-block packing.
func (c *Canvas) sample(dye *field.Dye, g field.Grid, col, subRow int) [field.NumChannels]float64 {
	subRows := c.Rows * 2
	x0 := col * g.Width / c.Cols
	x1 := (col + 1) * g.Width / c.Cols
	y0 := subRow * g.Height / subRows
	y1 := (subRow + 1) * g.Height / subRows
	if x1 <= x0 {
		x1 = x0 + 1
	}
	if y1 <= y0 {
		y1 = y0 + 1
	}

	var acc [field.NumChannels]float64
	n := 0.0
	for y := y0; y < y1 && y < g.Height; y++ {
		for x := x0; x < x1 && x < g.Width; x++ {
			i := g.Index(x, y)
			for ch := 0; ch < field.NumChannels; ch++ {
				acc[ch] += dye.C[ch][i]
			}
			n++
		}
	}
	if n > 0 {
		for ch := range acc {
			acc[ch] /= n
		}
	}
	return acc
}

func hexColor(c [field.NumChannels]float64) string {
	return fmt.Sprintf("#%02x%02x%02x",
		toneMap(c[field.ChannelR]),
		toneMap(c[field.ChannelG]),
		toneMap(c[field.ChannelB]))
}

func toneMap(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	return uint8(math.Round(255 * (1 - math.Exp(-v))))
}
