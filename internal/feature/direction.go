package feature

import (
	"math"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/mapmachine/internal/osm"
	"github.com/MeKo-Tech/mapmachine/internal/scheme"
	"github.com/MeKo-Tech/mapmachine/internal/vector"
)

// Angle constants for direction-sector drawing (spec §4.6).
const (
	shift         = -math.Pi / 2
	smallestAngle = math.Pi / 15
	defaultAngle  = math.Pi / 30
)

// compassPoints maps the 16-point compass rose to degrees, used as a
// stdlib fallback for the corpus's lack of a compass-parsing library
// (documented in DESIGN.md).
var compassPoints = map[string]float64{
	"N": 0, "NNE": 22.5, "NE": 45, "ENE": 67.5,
	"E": 90, "ESE": 112.5, "SE": 135, "SSE": 157.5,
	"S": 180, "SSW": 202.5, "SW": 225, "WSW": 247.5,
	"W": 270, "WNW": 292.5, "NW": 315, "NNW": 337.5,
}

// parseVector parses a direction value, either a bare degree number or
// a 16-point compass code (e.g. "NW", "270"), returning a unit vector.
func parseVector(text string) (vector.Vector, bool) {
	text = strings.TrimSpace(text)
	if deg, err := strconv.ParseFloat(text, 64); err == nil {
		radians := deg*math.Pi/180 + shift
		return vector.Vector{X: math.Cos(radians), Y: math.Sin(radians)}, true
	}
	if deg, ok := compassPoints[strings.ToUpper(text)]; ok {
		radians := deg*math.Pi/180 + shift
		return vector.Vector{X: math.Cos(radians), Y: math.Sin(radians)}, true
	}
	return vector.Vector{}, false
}

// rotate applies a 2D rotation by angle radians.
func rotate(v vector.Vector, angle float64) vector.Vector {
	sin, cos := math.Sincos(angle)
	return vector.Vector{X: v.X*cos + v.Y*sin, Y: -v.X*sin + v.Y*cos}
}

// Sector is a directional wedge described by two boundary unit vectors
// (spec §4.6).
type Sector struct {
	start, end      *vector.Vector
	mainDirection   *vector.Vector
}

// NewSector parses a sector text representation, either a two-ended
// range ("70-210", "N-NW") or a single direction with an optional
// opening angle in degrees.
func NewSector(text string, angle *float64) Sector {
	var s Sector

	if strings.Contains(text, "-") && !strings.HasPrefix(text, "-") {
		parts := strings.SplitN(text, "-", 2)
		start, okStart := parseVector(parts[0])
		end, okEnd := parseVector(parts[1])
		if okStart {
			s.start = &start
		}
		if okEnd {
			s.end = &end
		}
		if okStart && okEnd {
			mid := start.Add(end).Scale(0.5)
			s.mainDirection = &mid
		}
		return s
	}

	resultAngle := defaultAngle
	if angle != nil {
		resultAngle = math.Max(smallestAngle, *angle*math.Pi/180/2)
	}

	v, ok := parseVector(text)
	if !ok {
		return s
	}
	s.mainDirection = &v
	start := rotate(v, resultAngle)
	end := rotate(v, -resultAngle)
	s.start, s.end = &start, &end
	return s
}

// Path returns the SVG arc-path commands for this sector around
// center/radius, or ok=false if the sector has no boundary vectors.
func (s Sector) Path(center vector.Vector, radius float64) (string, bool) {
	if s.start == nil || s.end == nil {
		return "", false
	}
	start := center.Add(s.end.Scale(radius))
	end := center.Add(s.start.Scale(radius))
	return "L " + fmtPoint(start) + " A " + fmtFloat(radius) + " " + fmtFloat(radius) + " 0 0 0 " + fmtPoint(end), true
}

// IsRight reports whether the sector's main direction points rightward
// (nil if it is vertical or undetermined).
func (s Sector) IsRight() *bool {
	if s.mainDirection == nil {
		return nil
	}
	if math.Abs(s.mainDirection.X) < 1e-9 {
		return nil
	}
	right := s.mainDirection.X > 0
	return &right
}

// DirectionSet is a semicolon-separated list of sectors (spec §4.6).
type DirectionSet struct {
	Sectors []Sector
}

// NewDirectionSet parses a direction tag's value into its sectors.
func NewDirectionSet(text string) DirectionSet {
	parts := strings.Split(text, ";")
	ds := DirectionSet{Sectors: make([]Sector, 0, len(parts))}
	for _, p := range parts {
		ds.Sectors = append(ds.Sectors, NewSector(p, nil))
	}
	return ds
}

// Paths returns every sector's arc-path commands.
func (ds DirectionSet) Paths(center vector.Vector, radius float64) []string {
	var out []string
	for _, s := range ds.Sectors {
		if p, ok := s.Path(center, radius); ok {
			out = append(out, p)
		}
	}
	return out
}

// DirectionSector is a camera/view/sign direction node, drawn as one or
// more gradient-filled sector wedges (spec §4.6).
type DirectionSector struct {
	osm.Tagged
	Point vector.Vector
}

// NewDirectionSector builds a DirectionSector at its projected point.
func NewDirectionSector(tags map[string]string, point vector.Vector) DirectionSector {
	return DirectionSector{Tagged: osm.Tagged{Tags: tags}, Point: point}
}

// Draw returns the sector's gradient-filled wedges, choosing the
// direction source (surveillance camera, stop sign, or generic view)
// and radius/color per spec §4.6.
func (d DirectionSector) Draw(sch *scheme.Scheme) []Element {
	var direction string
	var angle *float64
	var radius float64
	var color string
	revertGradient := false

	switch {
	case d.Tags["man_made"] == "surveillance":
		direction = d.Tags["camera:direction"]
		if v := d.Tags["camera:angle"]; v != "" {
			if a, err := strconv.ParseFloat(v, 64); err == nil {
				angle = &a
			}
		}
		if v := d.Tags["angle"]; v != "" {
			if a, err := strconv.ParseFloat(v, 64); err == nil {
				angle = &a
			}
		}
		radius = 50.0
		color = sch.Colors.Get("direction_camera_color").Hex()
	case d.Tags["traffic_sign"] == "stop":
		direction = d.Tags["direction"]
		radius = 25.0
		color = "#FF0000"
	default:
		direction = d.Tags["direction"]
		radius = 50.0
		color = sch.Colors.Get("direction_view_color").Hex()
		revertGradient = true
	}

	if direction == "" {
		return nil
	}

	point := vector.Vector{X: math.Trunc(d.Point.X), Y: math.Trunc(d.Point.Y)}

	var paths []string
	if angle != nil {
		if p, ok := NewSector(direction, angle).Path(point, radius); ok {
			paths = []string{p}
		}
	} else {
		paths = NewDirectionSet(direction).Paths(point, radius)
	}

	stops := []GradientStop{
		{Offset: 0.0, Color: color, Opacity: 0.4},
		{Offset: 1.0, Color: color, Opacity: 0.0},
	}
	if revertGradient {
		stops = []GradientStop{
			{Offset: 0.0, Color: color, Opacity: 0.0},
			{Offset: 1.0, Color: color, Opacity: 0.7},
		}
	}

	elements := make([]Element, 0, len(paths))
	for _, p := range paths {
		elements = append(elements, Element{
			Kind: "path",
			Path: "M " + fmtPoint(point) + " " + p + " L " + fmtPoint(point) + " Z",
			Gradient: &RadialGradient{
				Center: point,
				Radius: radius,
				Stops:  stops,
			},
		})
	}
	return elements
}

func fmtPoint(p vector.Vector) string {
	return fmtFloat(p.X) + "," + fmtFloat(p.Y)
}

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
