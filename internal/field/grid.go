package field

import "fmt"

// MinDim is the smallest usable grid edge. Below this there are no
// interior cells and the solver's stencils are undefined.
const MinDim = 3

// Grid describes the cell layout shared by every field buffer. It is
// immutable after construction; a resolution change allocates a new Grid
// and new buffers.
type Grid struct {
	Width    int
	Height   int
	CellSize float64
}

func NewGrid(width, height int, cellSize float64) (Grid, error) {
	if width < MinDim || height < MinDim {
		return Grid{}, fmt.Errorf("grid must be at least %dx%d, got %dx%d", MinDim, MinDim, width, height)
	}
	if cellSize <= 0 {
		cellSize = 1.0
	}
	return Grid{Width: width, Height: height, CellSize: cellSize}, nil
}

// Cells returns the number of cells in the grid.
func (g Grid) Cells() int { return g.Width * g.Height }

// Index maps cell coordinates to the row-major buffer offset.
func (g Grid) Index(x, y int) int { return y*g.Width + x }

func (g Grid) InBounds(x, y int) bool {
	return x >= 0 && x < g.Width && y >= 0 && y < g.Height
}

// ClampCell clamps integer cell coordinates into the grid. Interactive
// input originates from a bounded canvas, so out-of-range positions are
// corrected rather than rejected.
func (g Grid) ClampCell(x, y int) (int, int) {
	if x < 0 {
		x = 0
	} else if x >= g.Width {
		x = g.Width - 1
	}
	if y < 0 {
		y = 0
	} else if y >= g.Height {
		y = g.Height - 1
	}
	return x, y
}

// IsBoundary reports whether the cell lies on the grid edge.
func (g Grid) IsBoundary(x, y int) bool {
	return x == 0 || y == 0 || x == g.Width-1 || y == g.Height-1
}
