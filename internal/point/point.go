// Package point implements the Point entity (spec §4.6): a map node's
// or way-center's resolved icon set, labels, and placement state,
// bridged together for the painter to draw. Grounded on original
// map_machine/pictogram/point.py's Point class; its drawing methods
// (draw_main_shapes/draw_extra_shapes/draw_point_shape/draw_text) are
// deliberately NOT ported here — per the backend-neutral design
// decision already applied to internal/road/internal/building (see
// DESIGN.md), Point stays a plain data holder and internal/painter
// does the occupancy-aware SVG emission.
package point

import (
	"github.com/MeKo-Tech/mapmachine/internal/shape"
	"github.com/MeKo-Tech/mapmachine/internal/text"
	"github.com/MeKo-Tech/mapmachine/internal/vector"
)

// IconSize is the pixel footprint of one icon placement, used by both
// the occupancy math and GetSize.
const IconSize = 16.0

// Point is one labeled, iconed location on the map: a node, or the
// center of an area way/relation.
type Point struct {
	Tags      map[string]string
	Processed map[string]struct{}

	Icons    shape.IconSet
	Labels   []text.Label
	Position vector.Vector

	Priority     int
	IsForNode    bool
	DrawOutline  bool
	AddTooltips  bool

	// Y is the vertical stacking offset the original keeps on Point
	// itself. The painter tracks its own per-point offsets while it
	// stacks icons and labels, and neither reads nor writes this field.
	Y float64
}

// New builds a Point at position with the given resolved icon set,
// labels, and tag bookkeeping (spec §4.6 construct_node/construct_line).
func New(icons shape.IconSet, labels []text.Label, tags map[string]string, processed map[string]struct{}, position vector.Vector, priority int, isForNode, drawOutline, addTooltips bool) Point {
	return Point{
		Tags: tags, Processed: processed, Icons: icons, Labels: labels,
		Position: position, Priority: priority, IsForNode: isForNode,
		DrawOutline: drawOutline, AddTooltips: addTooltips,
	}
}

// HasUnprocessedTags reports whether any tag on this point was not
// consumed by icon or label resolution. ShouldDrawMainIcon does not
// consult it: a point whose main icon is the default marker is not
// drawn as a main shape even when it has unprocessed tags.
func (p Point) HasUnprocessedTags() bool {
	for k := range p.Tags {
		if _, ok := p.Processed[k]; !ok {
			return true
		}
	}
	return false
}

// ShouldDrawMainIcon reports whether the main icon is worth painting
// as a main shape: the bare default marker is never drawn standalone,
// only as backing for points that resolved a real custom icon. The
// painter draws a point's extra icons only after its main icon was
// painted, so a point whose main icon is the default draws no extra
// icons either.
func (p Point) ShouldDrawMainIcon() bool {
	return !p.Icons.MainIcon.IsDefault()
}

// Size returns the width/height footprint the point's icons and labels
// would occupy if every element found room to draw (spec §4.9 layout
// sizing, used by callers that need to reserve space ahead of time).
func (p Point) Size() (width, height float64) {
	extra := len(p.Icons.ExtraIcons)
	cols := extra - 1
	if cols < 2 {
		cols = 2
	}
	width = IconSize * float64(1+cols)

	rows := 0.0
	if extra > 0 {
		rows = float64((extra + 2) / 3)
	}
	height = IconSize * (1 + rows)

	if len(p.Labels) > 0 {
		height += 4 + 11*float64(len(p.Labels))
	}
	return width, height
}
