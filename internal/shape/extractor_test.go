package shape

import "testing"

const testSVG = `<svg xmlns="http://www.w3.org/2000/svg">
  <path id="default" d="M -8,-8 L 8,8"/>
  <path id="default_small" d="M -5,-5 L 5,5"/>
  <path id="tree" d="M 0,0 L 16,16"/>
  <path id="path1234" d="M 0,0 L 1,1"/>
  <path id="sketch" style="opacity:0.2" d="M 0,0 L 1,1"/>
</svg>`

const testConfig = `{
  "nature": {
    "tree": {"name": "tree", "emoji": "deciduous_tree"}
  },
  "default": {"name": "default"},
  "default_small": {"name": "default small"}
}`

func TestExtractShapesBasic(t *testing.T) {
	extractor, err := ExtractShapes([]byte(testSVG), []byte(testConfig))
	if err != nil {
		t.Fatalf("ExtractShapes: %v", err)
	}

	if _, ok := extractor.Shapes[DefaultShapeID]; !ok {
		t.Error("expected default shape to be present")
	}
	if _, ok := extractor.Shapes[DefaultSmallShapeID]; !ok {
		t.Error("expected default_small shape to be present")
	}

	tree, ok := extractor.Shapes["tree"]
	if !ok {
		t.Fatal("expected tree shape to be present")
	}
	if tree.Name != "tree" || tree.Group != "nature" {
		t.Errorf("expected tree descriptor to be merged, got %+v", tree)
	}
	if _, ok := tree.Emojis["deciduous_tree"]; !ok {
		t.Errorf("expected tree emoji to be recorded, got %+v", tree.Emojis)
	}
}

func TestExtractShapesSkipsInkscapeGeneratedAndSketchPaths(t *testing.T) {
	extractor, err := ExtractShapes([]byte(testSVG), []byte(testConfig))
	if err != nil {
		t.Fatalf("ExtractShapes: %v", err)
	}
	if _, ok := extractor.Shapes["path1234"]; ok {
		t.Error("expected Inkscape-generated id to be skipped")
	}
	if _, ok := extractor.Shapes["sketch"]; ok {
		t.Error("expected sketch element (opacity 0.2) to be skipped")
	}
}

func TestExtractShapesRequiresDefaults(t *testing.T) {
	svg := `<svg xmlns="http://www.w3.org/2000/svg"><path id="tree" d="M 0,0 L 1,1"/></svg>`
	if _, err := ExtractShapes([]byte(svg), nil); err == nil {
		t.Fatal("expected an error when default/default_small shapes are missing")
	}
}

func TestShapeExtractorGetPanicsOnUnknownID(t *testing.T) {
	extractor := &ShapeExtractor{Shapes: map[string]Shape{DefaultShapeID: {ID: DefaultShapeID}}}

	defer func() {
		if recover() == nil {
			t.Fatal("expected Get to panic on an unknown shape id")
		}
	}()
	extractor.Get("not_a_real_shape")
}

func TestIconIsDefault(t *testing.T) {
	icon := Icon{Specifications: []ShapeSpecification{
		NewShapeSpecification(Shape{ID: DefaultShapeID}, "#000000"),
	}}
	if !icon.IsDefault() {
		t.Error("expected a single default-shape icon to report IsDefault")
	}

	icon.Specifications = append(icon.Specifications, NewShapeSpecification(Shape{ID: "tree"}, "#00FF00"))
	if icon.IsDefault() {
		t.Error("expected a multi-shape icon not to report IsDefault")
	}
}

func TestIconRecolorMain(t *testing.T) {
	icon := Icon{Specifications: []ShapeSpecification{
		NewShapeSpecification(Shape{ID: "a"}, "#000000"),
		NewShapeSpecification(Shape{ID: "b"}, "#111111"),
	}}
	icon.RecolorMain("#FFFFFF")
	for _, spec := range icon.Specifications {
		if spec.Color != "#FFFFFF" {
			t.Errorf("expected every spec recolored, got %+v", spec)
		}
	}
}

func TestIconSetOpacity(t *testing.T) {
	icon := Icon{Specifications: []ShapeSpecification{
		NewShapeSpecification(Shape{ID: "a"}, "#000000"),
		NewShapeSpecification(Shape{ID: "b"}, "#111111"),
	}}
	icon.SetOpacity(0.4)
	for _, spec := range icon.Specifications {
		if spec.Opacity == nil || *spec.Opacity != 0.4 {
			t.Errorf("expected opacity 0.4 on every spec, got %+v", spec)
		}
	}
}
