package figure

import (
	"testing"

	"github.com/MeKo-Tech/mapmachine/internal/osm"
)

func square(lat, lon float64) []*osm.Node {
	return []*osm.Node{
		{ID: 1, Lat: lat, Lon: lon},
		{ID: 2, Lat: lat, Lon: lon + 1},
		{ID: 3, Lat: lat + 1, Lon: lon + 1},
		{ID: 4, Lat: lat + 1, Lon: lon},
	}
}

func TestIsClockwise(t *testing.T) {
	cw := []*osm.Node{
		{Lat: 1, Lon: 0},
		{Lat: 0, Lon: 1},
		{Lat: 0, Lon: 0},
	}
	if !isClockwise(cw) {
		t.Fatalf("expected clockwise ring to be detected as clockwise")
	}
	ccw := reversed(cw)
	if isClockwise(ccw) {
		t.Fatalf("expected reversed ring to be counter-clockwise")
	}
}

func TestNewFigureNormalizesWindingOnlyWithBoth(t *testing.T) {
	outer := square(0, 0)
	inner := square(0.2, 0.2)

	f := NewFigure(map[string]string{}, [][]*osm.Node{inner}, [][]*osm.Node{outer})
	if isClockwise(f.Outers[0]) {
		t.Errorf("expected outer ring to be made counter-clockwise")
	}
	if !isClockwise(f.Inners[0]) {
		t.Errorf("expected inner ring to be made clockwise")
	}

	// With only an outer ring, winding is left untouched.
	lone := NewFigure(map[string]string{}, nil, [][]*osm.Node{outer})
	if len(lone.Outers) != 1 {
		t.Fatalf("expected one outer ring")
	}
}

func TestFigureLayer(t *testing.T) {
	f := Figure{Tagged: osm.Tagged{Tags: map[string]string{"layer": "2"}}}
	if got := f.Layer(); got != 2 {
		t.Errorf("Layer() = %v, want 2", got)
	}

	bad := Figure{Tagged: osm.Tagged{Tags: map[string]string{"layer": "not-a-number"}}}
	if got := bad.Layer(); got != 0 {
		t.Errorf("Layer() with malformed value = %v, want 0", got)
	}

	absent := Figure{Tagged: osm.Tagged{Tags: map[string]string{}}}
	if got := absent.Layer(); got != 0 {
		t.Errorf("Layer() with no tag = %v, want 0", got)
	}
}
