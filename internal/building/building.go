// Package building implements isometric building extrusion (spec
// §4.6): walls, roofs, and ground shade derived from a building's
// figure outline, height, and wall-shading segments.
package building

import (
	"math"
	"sort"

	"github.com/MeKo-Tech/mapmachine/internal/figure"
	"github.com/MeKo-Tech/mapmachine/internal/flinger"
	"github.com/MeKo-Tech/mapmachine/internal/mmcolor"
	"github.com/MeKo-Tech/mapmachine/internal/osm"
	"github.com/MeKo-Tech/mapmachine/internal/scheme"
	"github.com/MeKo-Tech/mapmachine/internal/vector"
)

// Constants governing the pseudo-3D building extrusion (spec §4.6).
const (
	MinimalHeight = 8.0
	LevelHeight   = 2.5
	BuildingScale = 0.33
	ShadeScale    = 0.4
)

// Building is a Figure with extrusion state: computed height, wall
// colors derived from material/roof tags, and the flung wall segments
// sorted back-to-front for painting (spec §4.6).
type Building struct {
	figure.Figure

	IsConstruction bool
	HasWalls       bool

	Fill   mmcolor.RGB
	Stroke mmcolor.RGB

	WallColor          mmcolor.RGB
	WallBottomColor1   mmcolor.RGB
	WallBottomColor2   mmcolor.RGB

	Height    float64
	MinHeight float64

	Parts []vector.Segment
}

// NewBuilding resolves a building's fill/stroke/wall colors and height
// from its tags and flings its ring segments for wall shading (spec
// §4.6). sch supplies the named color palette and material colors.
func NewBuilding(tags map[string]string, inners, outers [][]*osm.Node, fl flinger.Flinger, sch *scheme.Scheme) Building {
	fig := figure.NewFigure(tags, inners, outers)

	b := Building{
		Figure:         fig,
		IsConstruction: tags["building"] == "construction" || tags["construction"] == "yes",
		HasWalls:       tags["building"] != "roof",
		Height:         MinimalHeight,
	}

	switch {
	case b.IsConstruction:
		b.Fill = sch.Colors.Get("building_construction_color")
		b.Stroke = sch.Colors.Get("building_construction_border_color")
	case tags["roof:colour"] != "":
		b.Fill = resolveColor(sch, tags["roof:colour"])
		b.Stroke = mmcolor.Darken(b.Fill, 0.85)
	default:
		b.Fill = sch.Colors.Get("building_color")
		b.Stroke = sch.Colors.Get("building_border_color")
	}

	for _, nodes := range append(append([][]*osm.Node{}, b.Inners...), b.Outers...) {
		for i := 0; i < len(nodes)-1; i++ {
			p1 := fl.Fling(nodes[i].Lat, nodes[i].Lon)
			p2 := fl.Fling(nodes[i+1].Lat, nodes[i+1].Lon)
			b.Parts = append(b.Parts, vector.NewSegment(p1, p2))
		}
	}
	sort.Slice(b.Parts, func(i, j int) bool { return b.Parts[i].MidpointY < b.Parts[j].MidpointY })

	if b.IsConstruction {
		b.WallColor = sch.Colors.Get("wall_construction_color")
	} else {
		b.WallColor = sch.Colors.Get("wall_color")
	}
	if material := tags["building:material"]; material != "" {
		if c, ok := sch.MaterialColors.Lookup(material); ok {
			b.WallColor = c
		}
	}
	if color := tags["building:colour"]; color != "" {
		b.WallColor = resolveColor(sch, color)
	}
	if color := tags["colour"]; color != "" {
		b.WallColor = resolveColor(sch, color)
	}

	b.WallBottomColor1 = mmcolor.Darken(b.WallColor, 0.70)
	b.WallBottomColor2 = mmcolor.Darken(b.WallColor, 0.85)

	if levels, ok := fig.GetFloat("building:levels"); ok {
		b.Height = MinimalHeight + levels*LevelHeight
	}
	if levels, ok := fig.GetFloat("building:min_level"); ok {
		b.MinHeight = MinimalHeight + levels*LevelHeight
	}
	if h, ok := fig.GetLength("height"); ok {
		b.Height = MinimalHeight + h
	}
	if h, ok := fig.GetLength("min_height"); ok {
		b.MinHeight = MinimalHeight + h
	}

	return b
}

func resolveColor(sch *scheme.Scheme, name string) mmcolor.RGB {
	if c, ok := mmcolor.ParseHex(name); ok {
		return c
	}
	return sch.Colors.Get(name)
}

// RoofPath returns the roof outline's SVG path, shifted up by the
// building's full height.
func (b Building) RoofPath(fl flinger.Flinger) (string, bool) {
	scale := fl.GetScale(0) * BuildingScale
	shift := vector.Vector{X: 0, Y: -b.Height * scale}
	path := b.Figure.GetPath(fl, shift)
	if path == "" {
		return "", false
	}
	return path, true
}

// WallQuad is one shaded wall polygon: the four pixel-space corners in
// drawing order and the fill/stroke color for that wall segment (spec
// §4.6).
type WallQuad struct {
	Points [4]vector.Vector
	Color  mmcolor.RGB
}

// Walls returns the back-to-front ordered wall quads, or nil if the
// building has no walls (a "building=roof" feature drawn without them).
func (b Building) Walls(fl flinger.Flinger) []WallQuad {
	if !b.HasWalls {
		return nil
	}

	scale := fl.GetScale(0)
	shift1 := vector.Vector{X: 0, Y: -b.MinHeight * scale * BuildingScale}
	shift2 := vector.Vector{X: 0, Y: -b.Height * scale * BuildingScale}

	quads := make([]WallQuad, 0, len(b.Parts))
	for _, seg := range b.Parts {
		quads = append(quads, WallQuad{
			Points: [4]vector.Vector{
				seg.Start.Add(shift1),
				seg.End.Add(shift1),
				seg.End.Add(shift2),
				seg.Start.Add(shift2),
			},
			Color: wallColor(b, seg, b.Height),
		})
	}
	return quads
}

// WallsInBand returns the wall quads for the slice of the building's
// walls between height bounds [lo, hi) (clamped to the building's own
// [MinHeight, Height) range), nil if the band doesn't touch this
// building at all. This is the finer-grained cut the isometric painter
// needs to draw every building's walls band-by-band in a single global
// ascending pass rather than one building at a time (spec §4.7 "for
// each height in the sorted heights set, draw all walls at that band").
func (b Building) WallsInBand(fl flinger.Flinger, lo, hi float64) []WallQuad {
	if !b.HasWalls {
		return nil
	}
	bandLo := math.Max(lo, b.MinHeight)
	bandHi := math.Min(hi, b.Height)
	if bandHi <= bandLo {
		return nil
	}

	scale := fl.GetScale(0)
	shiftLo := vector.Vector{X: 0, Y: -bandLo * scale * BuildingScale}
	shiftHi := vector.Vector{X: 0, Y: -bandHi * scale * BuildingScale}

	quads := make([]WallQuad, 0, len(b.Parts))
	for _, seg := range b.Parts {
		quads = append(quads, WallQuad{
			Points: [4]vector.Vector{
				seg.Start.Add(shiftLo), seg.End.Add(shiftLo),
				seg.End.Add(shiftHi), seg.Start.Add(shiftHi),
			},
			Color: wallColor(b, seg, bandHi),
		})
	}
	return quads
}

// wallColor picks a wall segment's shaded color: construction buildings
// get an angle-tinted color; short buildings use the precomputed darker
// bottom shades; taller ones get an angle-tinted mid color (spec §4.6).
func wallColor(b Building, seg vector.Segment, height float64) mmcolor.RGB {
	tint := func(c mmcolor.RGB, delta float64) mmcolor.RGB {
		clamp := func(v float64) uint8 {
			if v < 0 {
				return 0
			}
			if v > 255 {
				return 255
			}
			return uint8(v)
		}
		return mmcolor.RGB{
			R: clamp(float64(c.R) + delta*255),
			G: clamp(float64(c.G) + delta*255),
			B: clamp(float64(c.B) + delta*255),
		}
	}

	switch {
	case b.IsConstruction:
		return tint(b.WallColor, seg.Angle*0.2)
	case height <= 0.25/BuildingScale:
		return b.WallBottomColor1
	case height <= 0.5/BuildingScale:
		return b.WallBottomColor2
	default:
		return tint(b.WallColor, seg.Angle*0.2-0.1)
	}
}

// ShadePath returns the ground-shade outline cast by the building,
// shifted by min-height (spec §4.6).
func (b Building) ShadePath(fl flinger.Flinger) (string, bool) {
	scale := fl.GetScale(0) * ShadeScale
	shift := vector.Vector{X: scale * b.MinHeight, Y: 0}
	path := b.Figure.GetPath(fl, shift)
	if path == "" {
		return "", false
	}
	return path, true
}

// ShadeQuad is one segment of the building's ground shade, drawn as a
// quadrangle between the min-height and full-height shade offsets.
type ShadeQuad struct {
	Points [4]vector.Vector
}

// ShadeSegments returns the per-wall-segment ground-shade quads (spec
// §4.6): each wall edge casts its own shade quadrangle.
func (b Building) ShadeSegments(fl flinger.Flinger) []ShadeQuad {
	scale := fl.GetScale(0) * ShadeScale
	shift1 := vector.Vector{X: scale * b.MinHeight, Y: 0}
	shift2 := vector.Vector{X: scale * b.Height, Y: 0}

	var quads []ShadeQuad
	for _, nodes := range append(append([][]*osm.Node{}, b.Inners...), b.Outers...) {
		for i := 0; i < len(nodes)-1; i++ {
			p1 := fl.Fling(nodes[i].Lat, nodes[i].Lon)
			p2 := fl.Fling(nodes[i+1].Lat, nodes[i+1].Lon)
			quads = append(quads, ShadeQuad{Points: [4]vector.Vector{
				p1.Add(shift1),
				p2.Add(shift1),
				p2.Add(shift2),
				p1.Add(shift2),
			}})
		}
	}
	return quads
}
