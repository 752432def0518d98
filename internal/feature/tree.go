package feature

import (
	"math"

	"github.com/MeKo-Tech/mapmachine/internal/flinger"
	"github.com/MeKo-Tech/mapmachine/internal/osm"
	"github.com/MeKo-Tech/mapmachine/internal/scheme"
	"github.com/MeKo-Tech/mapmachine/internal/vector"
)

// Tree is a tree node drawn as a translucent crown circle and,
// optionally, a trunk circle (spec §4.6).
type Tree struct {
	osm.Tagged
	Lat, Lon float64
	Point    vector.Vector
}

// NewTree builds a Tree at its projected point.
func NewTree(tags map[string]string, lat, lon float64, point vector.Vector) Tree {
	return Tree{Tagged: osm.Tagged{Tags: tags}, Lat: lat, Lon: lon, Point: point}
}

// Draw returns the crown circle and, if the tree has a circumference
// tag, the trunk circle (spec §4.6).
func (t Tree) Draw(fl flinger.Flinger, sch *scheme.Scheme) []Element {
	scale := fl.GetScale(t.Lat)

	radius := 2.0
	if diameter, ok := t.GetFloat("diameter_crown"); ok {
		radius = diameter / 2
	}

	elements := []Element{{
		Kind: "circle", Center: t.Point, Radius: radius * scale,
		Fill: sch.Colors.Get("evergreen_color").Hex(), Opacity: 0.3,
	}}

	if circumference, ok := t.GetFloat("circumference"); ok {
		trunkRadius := circumference / 2 / math.Pi
		elements = append(elements, Element{
			Kind: "circle", Center: t.Point, Radius: trunkRadius * scale,
			Fill: sch.Colors.Get("trunk_color").Hex(),
		})
	}

	return elements
}
