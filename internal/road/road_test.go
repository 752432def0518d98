package road

import (
	"testing"

	"github.com/MeKo-Tech/mapmachine/internal/flinger"
	"github.com/MeKo-Tech/mapmachine/internal/mmcolor"
	"github.com/MeKo-Tech/mapmachine/internal/osm"
	"github.com/MeKo-Tech/mapmachine/internal/scheme"
)

func testFlinger() flinger.Flinger {
	return flinger.NewMercatorFlinger(osm.BoundingBox{Left: -1, Bottom: -1, Right: 1, Top: 1}, 17, osm.DefaultEquatorLength)
}

func testSchemeForRoads() *scheme.Scheme {
	return &scheme.Scheme{
		Colors: mmcolor.NewPalette(map[string]string{
			"default":          "#000000",
			"bridge_color":     "#888888",
			"ford_color":       "#6699CC",
			"embankment_color": "#BBBBBB",
		}),
	}
}

func testNodes() []*osm.Node {
	return []*osm.Node{
		{ID: 1, Lat: 0, Lon: 0},
		{ID: 2, Lat: 0, Lon: 0.01},
	}
}

func TestNewRoadLanesFromTag(t *testing.T) {
	fl := testFlinger()
	sch := testSchemeForRoads()
	matcher := scheme.RoadMatcher{Color: "#FFFFFF", BorderColor: "#000000", DefaultWidth: 2.0, Priority: 1}

	r := NewRoad(map[string]string{"lanes": "3"}, testNodes(), matcher, fl, sch)
	if len(r.Lanes) != 3 {
		t.Fatalf("Lanes = %d, want 3", len(r.Lanes))
	}
	lanes := 3.0
	if want := lanes * DefaultLaneWidth; r.Width != want {
		t.Errorf("Width = %v, want %v", r.Width, want)
	}
}

func TestNewRoadWidthOverride(t *testing.T) {
	fl := testFlinger()
	sch := testSchemeForRoads()
	matcher := scheme.RoadMatcher{Color: "#FFFFFF", BorderColor: "#000000", DefaultWidth: 2.0}

	r := NewRoad(map[string]string{"width": "12.5"}, testNodes(), matcher, fl, sch)
	if r.Width != 12.5 {
		t.Errorf("Width = %v, want 12.5", r.Width)
	}
}

func TestRoadBorderColorOverrides(t *testing.T) {
	fl := testFlinger()
	sch := testSchemeForRoads()
	matcher := scheme.RoadMatcher{Color: "#FFFFFF", BorderColor: "#000000", DefaultWidth: 2.0}

	r := NewRoad(map[string]string{"bridge": "yes"}, testNodes(), matcher, fl, sch)
	if got := r.GetBorderColor(sch); got != sch.Colors.Get("bridge_color") {
		t.Errorf("GetBorderColor = %v, want bridge_color", got)
	}
}

func TestRoadsLayeredDrawProducesElements(t *testing.T) {
	fl := testFlinger()
	sch := testSchemeForRoads()
	matcher := scheme.RoadMatcher{Color: "#FFFFFF", BorderColor: "#000000", DefaultWidth: 2.0}

	rs := NewRoads()
	rs.Append(NewRoad(map[string]string{}, testNodes(), matcher, fl, sch))

	elements := rs.LayeredDraw(fl, sch)
	if len(elements) == 0 {
		t.Fatalf("expected at least one draw element for a single road")
	}
}
