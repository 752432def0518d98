// Package figure implements the way/area figures drawn on the map
// (spec §4.5): outer and inner ring sets resolved to SVG path strings,
// with stroke/fill style attached for area rendering.
package figure

import (
	"strconv"
	"strings"

	"github.com/MeKo-Tech/mapmachine/internal/flinger"
	"github.com/MeKo-Tech/mapmachine/internal/osm"
	"github.com/MeKo-Tech/mapmachine/internal/scheme"
	"github.com/MeKo-Tech/mapmachine/internal/vector"
)

// Figure is a way or multipolygon relation rendered as an area: a set
// of outer rings and inner rings. When a figure has both, NewFigure
// makes the outer rings counter-clockwise and the inner rings
// clockwise, per the SVG even-odd fill rule (spec §4.5); otherwise the
// rings keep their input winding.
type Figure struct {
	osm.Tagged
	Outers [][]*osm.Node
	Inners [][]*osm.Node
}

// NewFigure builds a Figure, normalizing ring winding only when both
// inners and outers are present — a lone outer ring's winding doesn't
// matter for simple fill, matching the original's "only renormalize
// when rings must compose" behavior.
func NewFigure(tags map[string]string, inners, outers [][]*osm.Node) Figure {
	f := Figure{Tagged: osm.Tagged{Tags: tags}}
	if len(inners) > 0 && len(outers) > 0 {
		f.Inners = make([][]*osm.Node, len(inners))
		for i, ring := range inners {
			f.Inners[i] = makeClockwise(ring)
		}
		f.Outers = make([][]*osm.Node, len(outers))
		for i, ring := range outers {
			f.Outers[i] = makeCounterClockwise(ring)
		}
	} else {
		f.Inners = inners
		f.Outers = outers
	}
	return f
}

// GetPath builds the SVG path data for every outer then inner ring,
// offset by shift pixels.
func (f Figure) GetPath(fl flinger.Flinger, shift vector.Vector) string {
	var b strings.Builder
	for _, ring := range f.Outers {
		if path, ok := ringPath(ring, shift, fl, 0); ok {
			b.WriteString(path)
			b.WriteByte(' ')
		}
	}
	for _, ring := range f.Inners {
		if path, ok := ringPath(ring, shift, fl, 0); ok {
			b.WriteString(path)
			b.WriteByte(' ')
		}
	}
	return strings.TrimSpace(b.String())
}

// StyledFigure is a Figure with an attached way/area LineStyle (spec
// §4.5): stroke/fill presentation plus the layer/priority pair used to
// order area fills against each other.
type StyledFigure struct {
	Figure
	LineStyle scheme.LineStyle
}

// NewStyledFigure attaches a line style to a figure.
func NewStyledFigure(tags map[string]string, inners, outers [][]*osm.Node, style scheme.LineStyle) StyledFigure {
	return StyledFigure{Figure: NewFigure(tags, inners, outers), LineStyle: style}
}

// GetPath builds the SVG path data honoring the style's parallel offset.
func (f StyledFigure) GetPath(fl flinger.Flinger, shift vector.Vector) string {
	parallelOffset := f.LineStyle.ParallelOffset

	var b strings.Builder
	for _, ring := range f.Outers {
		if path, ok := ringPath(ring, shift, fl, parallelOffset); ok {
			b.WriteString(path)
			b.WriteByte(' ')
		}
	}
	for _, ring := range f.Inners {
		if path, ok := ringPath(ring, shift, fl, parallelOffset); ok {
			b.WriteString(path)
			b.WriteByte(' ')
		}
	}
	return strings.TrimSpace(b.String())
}

// Layer returns the way's "layer" tag as a float, or 0 when absent or
// unparsable (spec §4.5). A value split by "," or ";" is not supported,
// matching the original's single-value assumption.
func (f Figure) Layer() float64 {
	v, ok := f.Tags["layer"]
	if !ok {
		return 0
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return parsed
}

// Less orders styled figures for area-fill z-order: by layer first,
// then by line-style priority (spec §4.5, §4.7).
func (f StyledFigure) Less(other StyledFigure) bool {
	if f.Layer() != other.Layer() {
		return f.Layer() < other.Layer()
	}
	return f.LineStyle.Priority < other.LineStyle.Priority
}

func ringPath(nodes []*osm.Node, shift vector.Vector, fl flinger.Flinger, parallelOffset float64) (string, bool) {
	points := make([]vector.Vector, len(nodes))
	for i, n := range nodes {
		p := fl.Fling(n.Lat, n.Lon)
		points[i] = p.Add(shift)
	}
	return vector.NewPolyline(points).GetPath(parallelOffset)
}

// isClockwise reports whether polygon nodes are in clockwise order
// using the shoelace-sum sign (spec §4.5).
func isClockwise(polygon []*osm.Node) bool {
	var sum float64
	n := len(polygon)
	for i, node := range polygon {
		next := polygon[(i+1)%n]
		sum += (next.Lon - node.Lon) * (next.Lat + node.Lat)
	}
	return sum >= 0
}

func makeClockwise(polygon []*osm.Node) []*osm.Node {
	if isClockwise(polygon) {
		return polygon
	}
	return reversed(polygon)
}

func makeCounterClockwise(polygon []*osm.Node) []*osm.Node {
	if !isClockwise(polygon) {
		return polygon
	}
	return reversed(polygon)
}

func reversed(nodes []*osm.Node) []*osm.Node {
	out := make([]*osm.Node, len(nodes))
	for i, n := range nodes {
		out[len(nodes)-1-i] = n
	}
	return out
}
