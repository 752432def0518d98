package feature

import (
	"testing"

	"github.com/MeKo-Tech/mapmachine/internal/flinger"
	"github.com/MeKo-Tech/mapmachine/internal/mmcolor"
	"github.com/MeKo-Tech/mapmachine/internal/osm"
	"github.com/MeKo-Tech/mapmachine/internal/scheme"
	"github.com/MeKo-Tech/mapmachine/internal/vector"
)

func testSchemeForFeatures() *scheme.Scheme {
	return &scheme.Scheme{
		Colors: mmcolor.NewPalette(map[string]string{
			"default":               "#000000",
			"evergreen_color":       "#006600",
			"trunk_color":           "#663300",
			"direction_view_color":  "#FFFF00",
			"direction_camera_color": "#FF00FF",
		}),
	}
}

func TestTreeDrawWithoutCircumference(t *testing.T) {
	fl := flinger.NewMercatorFlinger(osm.BoundingBox{Left: -1, Bottom: -1, Right: 1, Top: 1}, 17, osm.DefaultEquatorLength)
	tree := NewTree(map[string]string{}, 0, 0, vector.Vector{X: 10, Y: 10})
	elements := tree.Draw(fl, testSchemeForFeatures())
	if len(elements) != 1 {
		t.Fatalf("expected just the crown circle, got %d elements", len(elements))
	}
}

func TestTreeDrawWithCircumference(t *testing.T) {
	fl := flinger.NewMercatorFlinger(osm.BoundingBox{Left: -1, Bottom: -1, Right: 1, Top: 1}, 17, osm.DefaultEquatorLength)
	tree := NewTree(map[string]string{"circumference": "6.28"}, 0, 0, vector.Vector{X: 10, Y: 10})
	elements := tree.Draw(fl, testSchemeForFeatures())
	if len(elements) != 2 {
		t.Fatalf("expected crown + trunk circles, got %d elements", len(elements))
	}
}

func TestCraterDrawRequiresDiameter(t *testing.T) {
	fl := flinger.NewMercatorFlinger(osm.BoundingBox{Left: -1, Bottom: -1, Right: 1, Top: 1}, 17, osm.DefaultEquatorLength)

	c := NewCrater(map[string]string{}, 0, 0, vector.Vector{X: 0, Y: 0})
	if got := c.Draw(fl); got != nil {
		t.Errorf("expected nil elements without a diameter tag, got %v", got)
	}

	c = NewCrater(map[string]string{"diameter": "100"}, 0, 0, vector.Vector{X: 0, Y: 0})
	if got := c.Draw(fl); len(got) != 1 {
		t.Errorf("expected one gradient circle with a diameter tag, got %d", len(got))
	}
}
