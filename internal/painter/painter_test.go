package painter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/MeKo-Tech/mapmachine/internal/mapconfig"
	"github.com/MeKo-Tech/mapmachine/internal/point"
	"github.com/MeKo-Tech/mapmachine/internal/shape"
	"github.com/MeKo-Tech/mapmachine/internal/text"
	"github.com/MeKo-Tech/mapmachine/internal/vector"
)

func testShape(id string) shape.Shape {
	return shape.Shape{ID: id, Path: "M0 0 L1 1"}
}

func testIcon(id, color string) shape.Icon {
	return shape.Icon{Specifications: []shape.ShapeSpecification{
		shape.NewShapeSpecification(testShape(id), color),
	}}
}

func newTestPainter(width, height int) *Painter {
	var buf bytes.Buffer
	fl := testFlinger{w: width, h: height}
	cfg := mapconfig.New(nil)
	p := New(&buf, fl, cfg)
	return p
}

type testFlinger struct{ w, h int }

func (f testFlinger) Fling(lat, lon float64) vector.Vector { return vector.Vector{X: lon, Y: lat} }
func (f testFlinger) Size() (int, int)                     { return f.w, f.h }
func (f testFlinger) GetScale(float64) float64              { return 1 }

func TestDrawPointShapeFallsBackToDefaultWithoutReRegistering(t *testing.T) {
	p := newTestPainter(100, 100)
	p.grid.RegisterSquare(50, 50, p.grid.Overlap())

	main := testIcon("main", "#FF0000")
	def := testIcon("default", "#00FF00")

	ok := p.drawPointShape(main, &def, vector.Vector{X: 50, Y: 50}, false)
	if !ok {
		t.Fatalf("expected fallback draw to succeed")
	}
}

func TestDrawPointShapeReturnsFalseWhenOccupiedAndNoDefault(t *testing.T) {
	p := newTestPainter(100, 100)
	p.grid.RegisterSquare(50, 50, p.grid.Overlap())

	main := testIcon("main", "#FF0000")
	ok := p.drawPointShape(main, nil, vector.Vector{X: 50, Y: 50}, false)
	if ok {
		t.Fatalf("expected no-default-icon occupied placement to report false")
	}
}

func TestDrawPointShapeRegistersFootprintOnFreshPlacement(t *testing.T) {
	p := newTestPainter(100, 100)
	main := testIcon("main", "#FF0000")

	ok := p.drawPointShape(main, nil, vector.Vector{X: 50, Y: 50}, false)
	if !ok {
		t.Fatalf("expected unoccupied placement to succeed")
	}
	if !p.grid.Check(50, 50) {
		t.Errorf("expected the placement square to be registered as occupied")
	}
}

func TestDrawExtraIconsAllOrNothing(t *testing.T) {
	p := newTestPainter(200, 200)
	extras := []shape.Icon{testIcon("a", "#FF0000"), testIcon("b", "#00FF00"), testIcon("c", "#0000FF")}

	// Occupy the footprint of the middle extra icon only.
	p.grid.RegisterSquare(100, 100, p.grid.Overlap())

	y := 0.0
	pp := newPointWithExtras(extras, vector.Vector{X: 100, Y: 100})
	p.drawExtraIcons(&pp, &y)

	if y != 0 {
		t.Errorf("expected no extra icons drawn (and y unchanged) when any footprint collides, got y=%v", y)
	}
}

func TestDrawExtraIconsDrawsAllWhenClear(t *testing.T) {
	p := newTestPainter(200, 200)
	extras := []shape.Icon{testIcon("a", "#FF0000"), testIcon("b", "#00FF00")}

	y := 0.0
	pp := newPointWithExtras(extras, vector.Vector{X: 100, Y: 100})
	p.drawExtraIcons(&pp, &y)

	if y == 0 {
		t.Errorf("expected y to advance once extras are drawn")
	}
}

func TestDrawLabelDropsOnCollisionRatherThanRelocating(t *testing.T) {
	p := newTestPainter(200, 200)
	lbl := text.Label{Text: "Example Street", Size: 10}

	center := vector.Vector{X: 100, Y: 100}
	// Pre-occupy the probe row so the label collides immediately.
	p.grid.RegisterRect(0, 95, 200, 97)

	drawn := p.drawLabel(lbl, center, 0)
	if drawn {
		t.Fatalf("expected a colliding label to be dropped, not drawn")
	}
}

func TestDrawLabelDrawsAndRegistersWhenClear(t *testing.T) {
	p := newTestPainter(200, 200)
	lbl := text.Label{Text: "Clear Avenue", Size: 10}

	center := vector.Vector{X: 100, Y: 100}
	drawn := p.drawLabel(lbl, center, 0)
	if !drawn {
		t.Fatalf("expected an unoccupied label to draw")
	}
	if !p.grid.Check(100, 98) {
		t.Errorf("expected the label's footprint rect to be registered")
	}
}

func TestCleanLabelTextUnescapesAndTruncates(t *testing.T) {
	got := cleanLabelText("Tom &amp; Jerry&quot;s Diner and Grill House")
	if got != "Tom & Jerry\"s Diner and Gr..." {
		t.Errorf("cleanLabelText = %q", got)
	}
}

func TestVisibleLabelsModeGating(t *testing.T) {
	labels := []text.Label{{Text: "a"}, {Text: "b"}, {Text: "c"}}

	if got := visibleLabels(labels, mapconfig.LabelModeMain); len(got) != 1 {
		t.Errorf("main mode should keep exactly the first label, got %d", len(got))
	}
	if got := visibleLabels(labels, mapconfig.LabelModeAll); len(got) != 3 {
		t.Errorf("all mode should keep every label, got %d", len(got))
	}
	if got := visibleLabels(labels, mapconfig.LabelModeAddress); len(got) != 3 {
		t.Errorf("address mode should behave like all mode, got %d", len(got))
	}
	if got := visibleLabels(labels, mapconfig.LabelModeNo); got != nil {
		t.Errorf("no mode should keep nothing, got %d", len(got))
	}
}

func TestShapeTransformFlipsInvertScale(t *testing.T) {
	spec := shape.NewShapeSpecification(shape.Shape{OffsetX: 2, OffsetY: 3}, "#000000")
	spec.FlipHorizontally = true

	transform := shapeTransform(spec, vector.Vector{X: 10, Y: 20})
	if transform == "" {
		t.Fatalf("expected a non-empty transform string")
	}
	for _, want := range []string{"translate(10,20)", "scale(-1,1)", "translate(2,3)"} {
		if !strings.Contains(transform, want) {
			t.Errorf("shapeTransform(flip-h) = %q, missing %q", transform, want)
		}
	}
}

func TestShapeTransformOmitsScaleWhenUnflipped(t *testing.T) {
	spec := shape.NewShapeSpecification(shape.Shape{}, "#000000")
	transform := shapeTransform(spec, vector.Vector{})
	if strings.Contains(transform, "scale") {
		t.Errorf("expected no scale() term for an unflipped spec, got %q", transform)
	}
}

func TestCirclePathStartsAndEndsAtSamePoint(t *testing.T) {
	path := circlePath(vector.Vector{X: 5, Y: 5}, 3)
	if path == "" {
		t.Fatalf("expected a non-empty circle path")
	}
	if path[len(path)-1] != 'Z' {
		t.Errorf("expected circle path to close with Z, got %q", path)
	}
}

func TestStyleFromMapSortsKeysDeterministically(t *testing.T) {
	m := map[string]string{"stroke": "#000000", "fill": "none", "opacity": "0.5"}
	got := styleFromMap(m)
	want := "fill:none;opacity:0.5;stroke:#000000"
	if got != want {
		t.Errorf("styleFromMap = %q, want %q", got, want)
	}
}

// newPointWithExtras builds a minimal point.Point carrying only the
// extra icons drawExtraIcons needs, at the given position.
func newPointWithExtras(extras []shape.Icon, pos vector.Vector) point.Point {
	return point.New(shape.IconSet{ExtraIcons: extras}, nil, nil, nil, pos, 0, true, false, false)
}
