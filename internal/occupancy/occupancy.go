// Package occupancy implements the Occupied grid (spec §4.7/§4.9): a
// dense per-pixel boolean buffer the painter consults before placing an
// icon or label, so later elements don't draw over earlier ones.
// Grounded on the dense image.Gray buffer convention internal/mask
// works over (a flat byte buffer addressed by width/height), adapted
// from byte intensities to plain occupancy bits; original
// map_machine/pictogram/point.py's Occupied class for the semantics
// (out-of-bounds reads as occupied, register is a no-op out of bounds).
package occupancy

// Grid is a dense width*height occupancy buffer.
type Grid struct {
	width, height int
	overlap       int
	bits          []bool
}

// NewGrid allocates a Grid for the given pixel dimensions and the
// register-radius (in pixels) each icon placement reserves around
// itself.
func NewGrid(width, height, overlap int) *Grid {
	return &Grid{
		width:   width,
		height:  height,
		overlap: overlap,
		bits:    make([]bool, width*height),
	}
}

// Overlap returns the configured register radius.
func (g *Grid) Overlap() int {
	return g.overlap
}

// Check reports whether (x, y) is occupied. A point outside the grid's
// bounds is always considered occupied (spec §4.7: nothing may be
// placed off-canvas).
func (g *Grid) Check(x, y int) bool {
	if x < 0 || y < 0 || x >= g.width || y >= g.height {
		return true
	}
	return g.bits[y*g.width+x]
}

// Register marks (x, y) occupied. Out-of-bounds points are ignored.
func (g *Grid) Register(x, y int) {
	if x < 0 || y < 0 || x >= g.width || y >= g.height {
		return
	}
	g.bits[y*g.width+x] = true
}

// RegisterSquare marks every point in the (2*radius)-wide square
// centered on (x, y), the footprint one icon placement reserves
// (spec §4.7 item 8).
func (g *Grid) RegisterSquare(x, y, radius int) {
	for i := -radius; i < radius; i++ {
		for j := -radius; j < radius; j++ {
			g.Register(x+i, y+j)
		}
	}
}

// RegisterRect marks every point in [x0,x1) x [y0,y1), the footprint a
// placed label reserves (spec §4.7 item 9).
func (g *Grid) RegisterRect(x0, y0, x1, y1 int) {
	for x := x0; x < x1; x++ {
		for y := y0; y < y1; y++ {
			g.Register(x, y)
		}
	}
}

// CheckRect reports whether any point in [x0,x1) x [y0,y1) is occupied.
func (g *Grid) CheckRect(x0, y0, x1, y1 int) bool {
	for x := x0; x < x1; x++ {
		for y := y0; y < y1; y++ {
			if g.Check(x, y) {
				return true
			}
		}
	}
	return false
}
