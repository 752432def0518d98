// Package vector implements the geometry primitives the rest of the
// rendering pipeline builds on: plane vectors, infinite lines, closed
// segments, and polylines with parallel-offset paths.
package vector

import (
	"math"
)

// Vector is a point in pixel space (or any other plane of consistent units).
type Vector struct {
	X, Y float64
}

// Add returns v+o.
func (v Vector) Add(o Vector) Vector {
	return Vector{v.X + o.X, v.Y + o.Y}
}

// Sub returns v-o.
func (v Vector) Sub(o Vector) Vector {
	return Vector{v.X - o.X, v.Y - o.Y}
}

// Scale returns v*k.
func (v Vector) Scale(k float64) Vector {
	return Vector{v.X * k, v.Y * k}
}

// Length returns the Euclidean norm of v.
func (v Vector) Length() float64 {
	return math.Hypot(v.X, v.Y)
}

// Norm returns the unit vector in the direction of v. The caller must
// guarantee v is nonzero; a zero vector returns itself unchanged.
func Norm(v Vector) Vector {
	l := v.Length()
	if l == 0 {
		return v
	}
	return Vector{v.X / l, v.Y / l}
}

// Dot returns the dot product of v and o.
func (v Vector) Dot(o Vector) float64 {
	return v.X*o.X + v.Y*o.Y
}

// Perpendicular returns v rotated 90 degrees counter-clockwise.
func (v Vector) Perpendicular() Vector {
	return Vector{-v.Y, v.X}
}

// ComputeAngle returns the angle of v in [0, 2*pi), choosing the branch
// by the sign of its components the way a four-quadrant atan2 does, but
// normalized to a strictly non-negative range.
func ComputeAngle(v Vector) float64 {
	a := math.Atan2(v.Y, v.X)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}

// TurnByAngle rotates v by alpha radians counter-clockwise using the
// standard 2x2 rotation matrix.
func TurnByAngle(v Vector, alpha float64) Vector {
	sin, cos := math.Sincos(alpha)
	return Vector{
		X: v.X*cos - v.Y*sin,
		Y: v.X*sin + v.Y*cos,
	}
}

// Line is the infinite line Ax + By + C = 0.
type Line struct {
	A, B, C float64
}

// NewLine constructs the line through p1 and p2. The two points must
// differ; behavior on coincident points is undefined (A=B=C=0).
func NewLine(p1, p2 Vector) Line {
	a := p2.Y - p1.Y
	b := p1.X - p2.X
	c := -(a*p1.X + b*p1.Y)
	return Line{A: a, B: b, C: c}
}

// IsParallel reports whether l and o have the same direction.
func (l Line) IsParallel(o Line) bool {
	return l.A*o.B-o.A*l.B == 0
}

// GetIntersectionPoint returns the intersection of l and o, or ok=false
// if the lines are parallel.
func (l Line) GetIntersectionPoint(o Line) (Vector, bool) {
	det := l.A*o.B - o.A*l.B
	if det == 0 {
		return Vector{}, false
	}
	x := (l.B*o.C - o.B*l.C) / det
	y := (o.A*l.C - l.A*o.C) / det
	return Vector{x, y}, true
}

// Segment is a closed line segment with its midpoint-y and a shading
// angle precomputed for back-to-front wall painting.
type Segment struct {
	Start, End Vector
	MidpointY  float64
	// Angle is arccos(unit . (0,1)) / pi, used by building wall shading.
	Angle float64
}

// NewSegment builds a Segment from two endpoints, precomputing the
// midpoint-y (for painter ordering) and the shading angle.
func NewSegment(start, end Vector) Segment {
	mid := start.Add(end).Scale(0.5)
	dir := Norm(end.Sub(start))
	angle := math.Acos(dir.Dot(Vector{0, 1})) / math.Pi
	return Segment{Start: start, End: end, MidpointY: mid.Y, Angle: angle}
}
