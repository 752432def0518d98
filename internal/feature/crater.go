package feature

import (
	"strconv"

	"github.com/MeKo-Tech/mapmachine/internal/flinger"
	"github.com/MeKo-Tech/mapmachine/internal/osm"
	"github.com/MeKo-Tech/mapmachine/internal/vector"
)

// Crater is a volcano or impact crater node, drawn as a radial-gradient
// ridge (spec §4.6).
type Crater struct {
	osm.Tagged
	Lat, Lon float64
	Point    vector.Vector
}

// NewCrater builds a Crater at its projected point.
func NewCrater(tags map[string]string, lat, lon float64, point vector.Vector) Crater {
	return Crater{Tagged: osm.Tagged{Tags: tags}, Lat: lat, Lon: lon, Point: point}
}

// Draw returns the crater's gradient-filled ridge circle, or nil if the
// required "diameter" tag is absent or unparsable — the original
// asserts its presence, but an assertion is a poor fit for map data that
// may be malformed, so we degrade to "draw nothing" instead (spec §7
// MissingRequiredTag).
func (c Crater) Draw(fl flinger.Flinger) []Element {
	diameterStr, ok := c.Tags["diameter"]
	if !ok {
		return nil
	}
	diameter, err := strconv.ParseFloat(diameterStr, 64)
	if err != nil {
		return nil
	}

	scale := fl.GetScale(c.Lat)
	radius := diameter / 2 * scale

	center := c.Point.Add(vector.Vector{X: 0, Y: radius / 7})
	gradient := &RadialGradient{
		Center: center,
		Radius: radius,
		Stops: []GradientStop{
			{Offset: 0.0, Color: "#000000", Opacity: 0.2},
			{Offset: 0.7, Color: "#000000", Opacity: 0.2},
			{Offset: 1.0, Color: "#000000", Opacity: 1.0},
		},
	}

	return []Element{{
		Kind: "circle", Center: c.Point, Radius: radius,
		Opacity: 0.2, Gradient: gradient,
	}}
}
