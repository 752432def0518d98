package point

import (
	"testing"

	"github.com/MeKo-Tech/mapmachine/internal/shape"
	"github.com/MeKo-Tech/mapmachine/internal/text"
	"github.com/MeKo-Tech/mapmachine/internal/vector"
)

func TestShouldDrawMainIconSkipsDefault(t *testing.T) {
	icons := shape.NewIconSet()
	icons.MainIcon = shape.Icon{Specifications: []shape.ShapeSpecification{
		shape.NewShapeSpecification(shape.Shape{ID: shape.DefaultShapeID}, "#000000"),
	}}
	p := New(icons, nil, map[string]string{"foo": "bar"}, map[string]struct{}{}, vector.Vector{}, 0, true, true, false)
	if p.ShouldDrawMainIcon() {
		t.Errorf("expected bare default icon not to be drawn as a main shape")
	}
}

func TestShouldDrawMainIconDrawsCustom(t *testing.T) {
	icons := shape.NewIconSet()
	icons.MainIcon = shape.Icon{Specifications: []shape.ShapeSpecification{
		shape.NewShapeSpecification(shape.Shape{ID: "tree"}, "#006600"),
	}}
	p := New(icons, nil, map[string]string{}, map[string]struct{}{}, vector.Vector{}, 0, true, true, false)
	if !p.ShouldDrawMainIcon() {
		t.Errorf("expected custom icon to be drawn")
	}
}

func TestHasUnprocessedTags(t *testing.T) {
	p := New(shape.NewIconSet(), nil, map[string]string{"a": "1", "b": "2"}, map[string]struct{}{"a": {}}, vector.Vector{}, 0, true, true, false)
	if !p.HasUnprocessedTags() {
		t.Errorf("expected 'b' to remain unprocessed")
	}
}

func TestSizeGrowsWithExtraIconsAndLabels(t *testing.T) {
	icons := shape.NewIconSet()
	icons.ExtraIcons = []shape.Icon{{}, {}, {}}
	labels := []text.Label{{Text: "Label"}}
	p := New(icons, labels, map[string]string{}, map[string]struct{}{}, vector.Vector{}, 0, true, true, false)
	w, h := p.Size()
	if w <= IconSize || h <= IconSize {
		t.Errorf("expected footprint to grow with extra icons, got %vx%v", w, h)
	}
}
