package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/mapmachine/internal/mmcolor"
	"github.com/MeKo-Tech/mapmachine/internal/osm"
	"github.com/MeKo-Tech/mapmachine/internal/raster"
	"github.com/MeKo-Tech/mapmachine/internal/scheme"
	"github.com/MeKo-Tech/mapmachine/internal/shape"
	"github.com/MeKo-Tech/mapmachine/internal/tileengine"
)

func testScheme() *scheme.Scheme {
	return &scheme.Scheme{
		Colors: mmcolor.NewPalette(map[string]string{"default": "#000000"}),
		Shapes: &shape.ShapeExtractor{Shapes: map[string]shape.Shape{
			shape.DefaultShapeID:      {ID: shape.DefaultShapeID, Path: "M0 0"},
			shape.DefaultSmallShapeID: {ID: shape.DefaultSmallShapeID, Path: "M0 0"},
		}},
	}
}

// syntheticFetcher returns a fixed Overpass-JSON document regardless of
// the requested box, so tile renders are deterministic in tests.
type syntheticFetcher struct {
	raw []byte
}

func (f syntheticFetcher) Fetch(ctx context.Context, box osm.BoundingBox) ([]byte, error) {
	return f.raw, nil
}

func newSyntheticFetcher(t *testing.T) syntheticFetcher {
	t.Helper()
	doc := map[string]any{
		"elements": []map[string]any{
			{"type": "node", "id": 1, "lat": 0.0005, "lon": 0.0005, "tags": map[string]string{"natural": "tree"}},
		},
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal synthetic overpass doc: %v", err)
	}
	return syntheticFetcher{raw: raw}
}

func TestGenerateWritesSVGOnly(t *testing.T) {
	dir := t.TempDir()
	gen, err := NewGenerator(newSyntheticFetcher(t), testScheme(), nil, dir, 256, nil, GeneratorOptions{})
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}

	tile := tileengine.New(0, 0, 0)
	svgPath, pngPath, err := gen.Generate(context.Background(), tile, true, "")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if pngPath != "" {
		t.Errorf("expected no png path without a rasterizer, got %q", pngPath)
	}

	data, err := os.ReadFile(svgPath)
	if err != nil {
		t.Fatalf("read svg: %v", err)
	}
	if !bytes.Contains(data, []byte("<svg")) {
		t.Errorf("expected svg output, got %q", data)
	}
}

func TestGenerateWritesPNGWhenRasterized(t *testing.T) {
	dir := t.TempDir()
	gen, err := NewGenerator(newSyntheticFetcher(t), testScheme(), raster.NewVectorRasterizer(), dir, 256, nil, GeneratorOptions{})
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}

	tile := tileengine.New(0, 0, 0)
	svgPath, pngPath, err := gen.Generate(context.Background(), tile, true, "")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if pngPath == "" {
		t.Fatalf("expected a png path when a rasterizer is configured")
	}
	if _, err := os.Stat(pngPath); err != nil {
		t.Errorf("expected png file to exist: %v", err)
	}
}

func TestGenerateSkipsExistingUnlessForced(t *testing.T) {
	dir := t.TempDir()
	gen, err := NewGenerator(newSyntheticFetcher(t), testScheme(), nil, dir, 256, nil, GeneratorOptions{})
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}

	tile := tileengine.New(0, 0, 0)
	svgPath, _, err := gen.Generate(context.Background(), tile, true, "")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if err := os.WriteFile(svgPath, []byte("sentinel"), 0o644); err != nil {
		t.Fatalf("overwrite sentinel: %v", err)
	}

	if _, _, err := gen.Generate(context.Background(), tile, false, ""); err != nil {
		t.Fatalf("Generate (skip): %v", err)
	}
	data, err := os.ReadFile(svgPath)
	if err != nil {
		t.Fatalf("read svg: %v", err)
	}
	if string(data) != "sentinel" {
		t.Errorf("expected the existing file to be left untouched, got %q", data)
	}
}

func TestGeneratorNestedFolderStructure(t *testing.T) {
	dir := t.TempDir()
	gen, err := NewGenerator(newSyntheticFetcher(t), testScheme(), nil, dir, 256, nil, GeneratorOptions{FolderStructure: "nested"})
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}

	tile := tileengine.New(1, 2, 3)
	svgPath, _, err := gen.Generate(context.Background(), tile, true, "")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	want := filepath.Join(dir, "3", "1", "2.svg")
	if svgPath != want {
		t.Errorf("nested path = %q, want %q", svgPath, want)
	}
}
