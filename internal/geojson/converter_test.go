package geojson

import (
	"testing"

	"github.com/MeKo-Tech/mapmachine/internal/building"
	"github.com/MeKo-Tech/mapmachine/internal/constructor"
	"github.com/MeKo-Tech/mapmachine/internal/figure"
	"github.com/MeKo-Tech/mapmachine/internal/osm"
	"github.com/MeKo-Tech/mapmachine/internal/road"
)

func square(lon, lat float64) []*osm.Node {
	return []*osm.Node{
		{ID: 1, Lat: lat, Lon: lon},
		{ID: 2, Lat: lat, Lon: lon + 0.001},
		{ID: 3, Lat: lat + 0.001, Lon: lon + 0.001},
		{ID: 4, Lat: lat + 0.001, Lon: lon},
		{ID: 5, Lat: lat, Lon: lon},
	}
}

func TestFromConstructor(t *testing.T) {
	c := &constructor.Constructor{
		Figures: []figure.StyledFigure{
			{Figure: figure.Figure{
				Tagged: osm.Tagged{Tags: map[string]string{"natural": "water"}},
				Outers: [][]*osm.Node{square(13.0, 52.0)},
			}},
		},
		Buildings: []building.Building{
			{Figure: figure.Figure{
				Tagged: osm.Tagged{Tags: map[string]string{"building": "yes"}},
				Outers: [][]*osm.Node{square(13.1, 52.1)},
			}},
		},
		Roads: &road.Roads{Roads: []*road.Road{
			{
				Tagged: osm.Tagged{Tags: map[string]string{"highway": "residential"}},
				Nodes:  square(13.2, 52.2)[:2],
				Width:  4.5,
			},
		}},
	}

	fc, err := FromConstructor(c)
	if err != nil {
		t.Fatalf("FromConstructor: %v", err)
	}
	if len(fc.Features) != 3 {
		t.Fatalf("expected 3 features, got %d", len(fc.Features))
	}

	data, err := FromConstructorBytes(c)
	if err != nil {
		t.Fatalf("FromConstructorBytes: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected non-empty GeoJSON bytes")
	}
}

func TestFromConstructorSkipsEmptyFigures(t *testing.T) {
	c := &constructor.Constructor{
		Figures: []figure.StyledFigure{
			{Figure: figure.Figure{Tagged: osm.Tagged{Tags: map[string]string{"x": "y"}}}},
		},
	}

	fc, err := FromConstructor(c)
	if err != nil {
		t.Fatalf("FromConstructor: %v", err)
	}
	if len(fc.Features) != 0 {
		t.Fatalf("expected 0 features for a figure with no rings, got %d", len(fc.Features))
	}
}
