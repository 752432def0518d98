package vector

import (
	"fmt"
	"strings"

	"github.com/paulmach/orb"
)

// Polyline is an ordered sequence of points, either open or closed
// (closed iff the first and last points are equal).
type Polyline struct {
	Points []Vector
}

// NewPolyline builds a Polyline from points in order.
func NewPolyline(points []Vector) Polyline {
	return Polyline{Points: points}
}

// IsClosed reports whether the first and last point coincide.
func (p Polyline) IsClosed() bool {
	if len(p.Points) < 2 {
		return false
	}
	first, last := p.Points[0], p.Points[len(p.Points)-1]
	return first.X == last.X && first.Y == last.Y
}

// Shorten moves the point at endIndex toward its single neighbor by
// length pixels, mutating the polyline in place. endIndex must be 0 or
// len(Points)-1.
func (p Polyline) Shorten(endIndex int, length float64) {
	if len(p.Points) < 2 {
		return
	}
	var neighbor int
	if endIndex == 0 {
		neighbor = 1
	} else {
		neighbor = len(p.Points) - 2
	}
	dir := Norm(p.Points[neighbor].Sub(p.Points[endIndex]))
	p.Points[endIndex] = p.Points[endIndex].Add(dir.Scale(length))
}

// GetPath renders the polyline to an SVG path data string ("M x,y L x,y
// ... [Z]"). Paths of fewer than two points return ok=false — callers
// must skip degenerate geometry rather than emit malformed SVG (spec
// §7 GeometryDegenerate).
//
// When parallelOffset is nonzero, every point is first moved
// perpendicular to the path by offsetPoints; the untouched path is used
// only if offsetPoints reports failure. The offset is computed directly,
// not through a geometry library's buffering, and self-intersections in
// the offset path are neither detected nor removed.
func (p Polyline) GetPath(parallelOffset float64) (string, bool) {
	if len(p.Points) < 2 {
		return "", false
	}

	points := p.Points
	if parallelOffset != 0 {
		if offset, ok := offsetPoints(points, parallelOffset, p.IsClosed()); ok {
			points = offset
		}
	}

	var b strings.Builder
	for i, pt := range points {
		if i == 0 {
			fmt.Fprintf(&b, "M %g,%g ", pt.X, pt.Y)
		} else {
			fmt.Fprintf(&b, "L %g,%g ", pt.X, pt.Y)
		}
	}
	if p.IsClosed() {
		b.WriteString("Z")
	}
	return strings.TrimSpace(b.String()), true
}

// offsetPoints computes a simple perpendicular parallel offset of a
// polyline by averaging adjacent segment normals at interior vertices,
// using orb.Point purely as the plane-point type. Returns ok=false only
// if the line has fewer than two points; coincident points are not
// rejected.
func offsetPoints(points []Vector, offset float64, closed bool) ([]Vector, bool) {
	n := len(points)
	if n < 2 {
		return nil, false
	}

	orbPoints := make([]orb.Point, n)
	for i, p := range points {
		orbPoints[i] = orb.Point{p.X, p.Y}
	}

	result := make([]Vector, n)
	for i := 0; i < n; i++ {
		var prevDir, nextDir Vector
		hasPrev, hasNext := false, false

		if i > 0 {
			prevDir = Norm(Vector{orbPoints[i][0] - orbPoints[i-1][0], orbPoints[i][1] - orbPoints[i-1][1]})
			hasPrev = true
		} else if closed && n > 1 {
			prevDir = Norm(Vector{orbPoints[0][0] - orbPoints[n-2][0], orbPoints[0][1] - orbPoints[n-2][1]})
			hasPrev = true
		}
		if i < n-1 {
			nextDir = Norm(Vector{orbPoints[i+1][0] - orbPoints[i][0], orbPoints[i+1][1] - orbPoints[i][1]})
			hasNext = true
		} else if closed && n > 1 {
			nextDir = Norm(Vector{orbPoints[1][0] - orbPoints[0][0], orbPoints[1][1] - orbPoints[0][1]})
			hasNext = true
		}

		var normal Vector
		switch {
		case hasPrev && hasNext:
			normal = Norm(prevDir.Perpendicular().Add(nextDir.Perpendicular()))
		case hasPrev:
			normal = prevDir.Perpendicular()
		case hasNext:
			normal = nextDir.Perpendicular()
		default:
			return nil, false
		}

		result[i] = points[i].Add(normal.Scale(offset))
	}

	return result, true
}
