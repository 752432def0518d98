package constructor

import (
	"testing"

	"github.com/MeKo-Tech/mapmachine/internal/flinger"
	"github.com/MeKo-Tech/mapmachine/internal/mapconfig"
	"github.com/MeKo-Tech/mapmachine/internal/mmcolor"
	"github.com/MeKo-Tech/mapmachine/internal/osm"
	"github.com/MeKo-Tech/mapmachine/internal/scheme"
	"github.com/MeKo-Tech/mapmachine/internal/shape"
	"github.com/MeKo-Tech/mapmachine/internal/vector"
)

func testScheme() *scheme.Scheme {
	return &scheme.Scheme{
		Colors: mmcolor.NewPalette(map[string]string{
			"default": "#000000",
		}),
		Shapes: &shape.ShapeExtractor{Shapes: map[string]shape.Shape{
			shape.DefaultShapeID:      {ID: shape.DefaultShapeID, Path: "M0 0"},
			shape.DefaultSmallShapeID: {ID: shape.DefaultSmallShapeID, Path: "M0 0"},
		}},
	}
}

// identityFlinger is a trivial flinger used only to observe the
// lat/lon values constructLine feeds it.
type identityFlinger struct{}

func (identityFlinger) Fling(lat, lon float64) vector.Vector { return vector.Vector{X: lon, Y: lat} }
func (identityFlinger) Size() (int, int)                     { return 100, 100 }
func (identityFlinger) GetScale(float64) float64             { return 1 }

func newTestData() *osm.Data {
	data := osm.NewData()
	return data
}

func addNode(data *osm.Data, id int64, lat, lon float64, tags map[string]string) *osm.Node {
	n := &osm.Node{ID: id, Lat: lat, Lon: lon, Tagged: osm.Tagged{Tags: tags}}
	data.Nodes[id] = n
	return n
}

func addWay(data *osm.Data, id int64, nodeIDs []int64, tags map[string]string) *osm.Way {
	w := &osm.Way{ID: id, NodeIDs: nodeIDs, Tagged: osm.Tagged{Tags: tags}}
	data.Ways[id] = w
	return w
}

func TestConstructWaysProducesAreaPoint(t *testing.T) {
	data := newTestData()
	addNode(data, 1, 0, 0, nil)
	addNode(data, 2, 0, 1, nil)
	addNode(data, 3, 1, 1, nil)
	addNode(data, 4, 1, 0, nil)
	addWay(data, 10, []int64{1, 2, 3, 4, 1}, map[string]string{"landuse": "forest", "area": "yes"})

	cfg := mapconfig.New(testScheme())
	c := New(data, identityFlinger{}, cfg)
	c.Construct()

	if len(c.Points) == 0 {
		t.Fatalf("expected at least one point from the way's center, got none")
	}
}

func TestConstructLineSkipsFilteredLevel(t *testing.T) {
	data := newTestData()
	addNode(data, 1, 0, 0, nil)
	addNode(data, 2, 0, 1, nil)
	addWay(data, 10, []int64{1, 2}, map[string]string{"level": "-1", "indoor": "room"})

	cfg := mapconfig.New(testScheme())
	cfg.Level = mapconfig.LevelModeOverground
	c := New(data, identityFlinger{}, cfg)
	c.Construct()

	if len(c.Points) != 0 || len(c.Figures) != 0 {
		t.Fatalf("expected underground-tagged way to be filtered out, got %d points, %d figures", len(c.Points), len(c.Figures))
	}
}

func TestConstructLineWireframeModeDrawsPlainFigure(t *testing.T) {
	data := newTestData()
	addNode(data, 1, 0, 0, nil)
	addNode(data, 2, 0, 1, nil)
	addWay(data, 10, []int64{1, 2}, map[string]string{"highway": "residential"})

	cfg := mapconfig.New(testScheme())
	cfg.DrawingMode = mapconfig.DrawingModeBlack
	c := New(data, identityFlinger{}, cfg)
	c.Construct()

	if len(c.Figures) != 1 {
		t.Fatalf("expected exactly one wireframe figure, got %d", len(c.Figures))
	}
	if got := c.Figures[0].LineStyle.Style["stroke"]; got != "#BBBBBB" {
		t.Errorf("wireframe black-mode stroke = %q, want #BBBBBB", got)
	}
}

func TestConstructRelationGluesOuterRing(t *testing.T) {
	data := newTestData()
	addNode(data, 1, 0, 0, nil)
	addNode(data, 2, 0, 1, nil)
	addNode(data, 3, 1, 1, nil)
	addNode(data, 4, 1, 0, nil)
	w1 := addWay(data, 10, []int64{1, 2}, nil)
	w2 := addWay(data, 11, []int64{2, 3, 4, 1}, nil)

	data.Relations[1] = &osm.Relation{
		ID:      1,
		Tagged:  osm.Tagged{Tags: map[string]string{"type": "multipolygon", "natural": "water"}},
		Members: []osm.RelationMember{
			{Type: osm.MemberWay, Ref: w1.ID, Role: "outer"},
			{Type: osm.MemberWay, Ref: w2.ID, Role: "outer"},
		},
	}

	cfg := mapconfig.New(testScheme())
	c := New(data, identityFlinger{}, cfg)
	c.Construct()

	if len(c.Figures) == 0 {
		t.Fatalf("expected the glued multipolygon outer ring to produce a figure")
	}
}

func TestGetUserColorIsDeterministicAndEmptyIsBlack(t *testing.T) {
	if c := getUserColor("", "seed"); c != (mmcolor.RGB{}) {
		t.Errorf("empty user should map to black, got %v", c)
	}
	a := getUserColor("alice", "seed")
	b := getUserColor("alice", "seed")
	if a != b {
		t.Errorf("getUserColor should be deterministic for the same input")
	}
	if c := getUserColor("bob", "seed"); c == a {
		t.Errorf("different users should not collide trivially")
	}
}

func TestGetTimeColorDiffersAtScaleEnds(t *testing.T) {
	var bounds osm.MinMax[int64]
	bounds.Update(1000)
	bounds.Update(2000)

	atStart := getTimeColor(1000, bounds)
	atEnd := getTimeColor(2000, bounds)
	if atStart == atEnd {
		t.Errorf("expected distinct colors at opposite ends of the time scale")
	}
}

func TestConstructNodeTreeIsExtractedSeparately(t *testing.T) {
	data := newTestData()
	addNode(data, 1, 10, 20, map[string]string{"natural": "tree", "diameter_crown": "5"})

	cfg := mapconfig.New(testScheme())
	c := New(data, identityFlinger{}, cfg)
	c.Construct()

	if len(c.Trees) != 1 {
		t.Fatalf("expected the tree node to be captured as a Tree, got %d trees", len(c.Trees))
	}
	if len(c.Points) != 0 {
		t.Errorf("a tree node should not also produce a generic point, got %d", len(c.Points))
	}
}

var _ flinger.Flinger = identityFlinger{}
