package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MeKo-Tech/mapmachine/internal/mmcolor"
	"github.com/MeKo-Tech/mapmachine/internal/osm"
	"github.com/MeKo-Tech/mapmachine/internal/pipeline"
	"github.com/MeKo-Tech/mapmachine/internal/scheme"
	"github.com/MeKo-Tech/mapmachine/internal/shape"
)

type emptyFetcher struct{}

func (emptyFetcher) Fetch(ctx context.Context, box osm.BoundingBox) ([]byte, error) {
	return []byte(`{"elements":[]}`), nil
}

func testScheme() *scheme.Scheme {
	return &scheme.Scheme{
		Colors: mmcolor.NewPalette(map[string]string{"default": "#000000"}),
		Shapes: &shape.ShapeExtractor{Shapes: map[string]shape.Shape{
			shape.DefaultShapeID:      {ID: shape.DefaultShapeID, Path: "M0 0"},
			shape.DefaultSmallShapeID: {ID: shape.DefaultSmallShapeID, Path: "M0 0"},
		}},
	}
}

func TestOnDemandTilesRendersMissingTile(t *testing.T) {
	dir := t.TempDir()
	gen, err := pipeline.NewGenerator(emptyFetcher{}, testScheme(), nil, dir, 256, nil, pipeline.GeneratorOptions{})
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}

	srv := NewOnDemandTiles(gen, OnDemandTilesConfig{GenerateMissing: true, GenerationTimeout: 5 * time.Second}, nil)

	req := httptest.NewRequest(http.MethodGet, "/tiles/0/0/0.svg", nil)
	rec := httptest.NewRecorder()
	srv.Handler()(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if srv.Status().TotalRendered != 1 {
		t.Errorf("expected 1 rendered tile, got %d", srv.Status().TotalRendered)
	}
}

func TestOnDemandTilesRejectsMissingWhenDisabled(t *testing.T) {
	dir := t.TempDir()
	gen, err := pipeline.NewGenerator(emptyFetcher{}, testScheme(), nil, dir, 256, nil, pipeline.GeneratorOptions{})
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}

	srv := NewOnDemandTiles(gen, OnDemandTilesConfig{GenerateMissing: false}, nil)

	req := httptest.NewRequest(http.MethodGet, "/tiles/0/0/0.svg", nil)
	rec := httptest.NewRecorder()
	srv.Handler()(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestOnDemandTilesRejectsMalformedPath(t *testing.T) {
	dir := t.TempDir()
	gen, err := pipeline.NewGenerator(emptyFetcher{}, testScheme(), nil, dir, 256, nil, pipeline.GeneratorOptions{})
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}

	srv := NewOnDemandTiles(gen, OnDemandTilesConfig{GenerateMissing: true}, nil)

	req := httptest.NewRequest(http.MethodGet, "/tiles/not-a-tile.png", nil)
	rec := httptest.NewRecorder()
	srv.Handler()(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
