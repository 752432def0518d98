package raster

import (
	"math"
	"strconv"
	"strings"
)

// point2 is a flattened 2D pixel coordinate, kept package-local so this
// file has no dependency on the geometry packages upstream of it — the
// rasterizer only ever sees the flat pixel-space SVG the painter wrote.
type point2 struct {
	X, Y float64
}

// subpath is one flattened M...[L|C|A]...[Z] run: straight-line points
// ready for the scan-converting rasterizer, plus whether it closed.
type subpath struct {
	Points []point2
	Closed bool
}

// parsePathData flattens an SVG path's "d" attribute into subpaths.
// Only the commands this renderer's painter ever emits are supported:
// absolute M, L, C (cubic bezier), A (elliptical arc), and Z — every
// other command is a parse error, since encountering one would mean
// the painter started emitting a path shape this rasterizer doesn't
// yet know how to flatten.
func parsePathData(d string) ([]subpath, error) {
	tokens := tokenizePath(d)

	var subpaths []subpath
	var cur subpath
	var x, y float64
	var startX, startY float64
	haveCurrent := false

	i := 0
	readNums := func(n int) ([]float64, error) {
		if i+n > len(tokens) {
			return nil, errPathTruncated
		}
		out := make([]float64, n)
		for k := 0; k < n; k++ {
			v, err := strconv.ParseFloat(tokens[i+k], 64)
			if err != nil {
				return nil, err
			}
			out[k] = v
		}
		i += n
		return out, nil
	}

	for i < len(tokens) {
		cmd := tokens[i]
		i++
		switch cmd {
		case "M":
			nums, err := readNums(2)
			if err != nil {
				return nil, err
			}
			if haveCurrent {
				subpaths = append(subpaths, cur)
			}
			x, y = nums[0], nums[1]
			startX, startY = x, y
			cur = subpath{Points: []point2{{x, y}}}
			haveCurrent = true
		case "L":
			nums, err := readNums(2)
			if err != nil {
				return nil, err
			}
			x, y = nums[0], nums[1]
			cur.Points = append(cur.Points, point2{x, y})
		case "C":
			nums, err := readNums(6)
			if err != nil {
				return nil, err
			}
			c1 := point2{nums[0], nums[1]}
			c2 := point2{nums[2], nums[3]}
			end := point2{nums[4], nums[5]}
			cur.Points = append(cur.Points, flattenCubic(point2{x, y}, c1, c2, end)...)
			x, y = end.X, end.Y
		case "A":
			nums, err := readNums(7)
			if err != nil {
				return nil, err
			}
			end := point2{nums[5], nums[6]}
			arcPts := flattenArc(point2{x, y}, nums[0], nums[1], nums[2], nums[3] != 0, nums[4] != 0, end)
			cur.Points = append(cur.Points, arcPts...)
			x, y = end.X, end.Y
		case "Z":
			cur.Closed = true
			x, y = startX, startY
		default:
			return nil, errUnsupportedPathCommand
		}
	}
	if haveCurrent {
		subpaths = append(subpaths, cur)
	}
	return subpaths, nil
}

func tokenizePath(d string) []string {
	isSep := func(r rune) bool {
		switch r {
		case ',', ' ', '\t', '\n', '\r':
			return true
		}
		return false
	}
	fields := strings.FieldsFunc(d, isSep)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) == 1 {
			switch f[0] {
			case 'M', 'L', 'C', 'A', 'Z':
				tokens = append(tokens, f)
				continue
			}
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// flattenCubic subdivides a cubic bezier into line segments (De
// Casteljau stepping), the standard fixed-step flattening used when no
// curvature-adaptive tessellator is available.
func flattenCubic(p0, p1, p2, p3 point2) []point2 {
	const steps = 16
	pts := make([]point2, 0, steps)
	for s := 1; s <= steps; s++ {
		t := float64(s) / float64(steps)
		mt := 1 - t
		x := mt*mt*mt*p0.X + 3*mt*mt*t*p1.X + 3*mt*t*t*p2.X + t*t*t*p3.X
		y := mt*mt*mt*p0.Y + 3*mt*mt*t*p1.Y + 3*mt*t*t*p2.Y + t*t*t*p3.Y
		pts = append(pts, point2{x, y})
	}
	return pts
}

// flattenArc implements the SVG 1.1 Appendix F.6.5 endpoint-to-center
// elliptical arc parameterization, then samples the resulting arc at a
// fixed angular step. rotDeg is the x-axis-rotation in degrees.
func flattenArc(start point2, rx, ry, rotDeg float64, largeArc, sweep bool, end point2) []point2 {
	if rx == 0 || ry == 0 {
		return []point2{end}
	}
	rx, ry = math.Abs(rx), math.Abs(ry)
	phi := rotDeg * math.Pi / 180

	cosPhi, sinPhi := math.Cos(phi), math.Sin(phi)
	dx2, dy2 := (start.X-end.X)/2, (start.Y-end.Y)/2
	x1p := cosPhi*dx2 + sinPhi*dy2
	y1p := -sinPhi*dx2 + cosPhi*dy2

	lambda := (x1p*x1p)/(rx*rx) + (y1p*y1p)/(ry*ry)
	if lambda > 1 {
		scale := math.Sqrt(lambda)
		rx *= scale
		ry *= scale
	}

	sign := -1.0
	if largeArc != sweep {
		sign = 1.0
	}
	num := rx*rx*ry*ry - rx*rx*y1p*y1p - ry*ry*x1p*x1p
	den := rx*rx*y1p*y1p + ry*ry*x1p*x1p
	co := 0.0
	if den != 0 && num > 0 {
		co = sign * math.Sqrt(num/den)
	}
	cxp := co * rx * y1p / ry
	cyp := -co * ry * x1p / rx

	cx := cosPhi*cxp - sinPhi*cyp + (start.X+end.X)/2
	cy := sinPhi*cxp + cosPhi*cyp + (start.Y+end.Y)/2

	angle := func(ux, uy, vx, vy float64) float64 {
		dot := ux*vx + uy*vy
		lenProd := math.Hypot(ux, uy) * math.Hypot(vx, vy)
		if lenProd == 0 {
			return 0
		}
		cosA := dot / lenProd
		cosA = math.Max(-1, math.Min(1, cosA))
		a := math.Acos(cosA)
		if ux*vy-uy*vx < 0 {
			a = -a
		}
		return a
	}

	theta1 := angle(1, 0, (x1p-cxp)/rx, (y1p-cyp)/ry)
	dtheta := angle((x1p-cxp)/rx, (y1p-cyp)/ry, (-x1p-cxp)/rx, (-y1p-cyp)/ry)
	if !sweep && dtheta > 0 {
		dtheta -= 2 * math.Pi
	} else if sweep && dtheta < 0 {
		dtheta += 2 * math.Pi
	}

	arcLen := math.Hypot(rx, ry) * math.Abs(dtheta)
	steps := int(math.Max(4, arcLen/2))
	pts := make([]point2, 0, steps)
	for s := 1; s <= steps; s++ {
		theta := theta1 + dtheta*float64(s)/float64(steps)
		x := cx + rx*cosPhi*math.Cos(theta) - ry*sinPhi*math.Sin(theta)
		y := cy + rx*sinPhi*math.Cos(theta) + ry*cosPhi*math.Sin(theta)
		pts = append(pts, point2{x, y})
	}
	return pts
}
