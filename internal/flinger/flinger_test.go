package flinger

import (
	"math"
	"testing"

	"github.com/MeKo-Tech/mapmachine/internal/osm"
	"github.com/MeKo-Tech/mapmachine/internal/vector"
)

func TestMercatorFlingerRoundTripsBoxCorners(t *testing.T) {
	box := osm.BoundingBox{Left: 13.0, Bottom: 52.0, Right: 13.1, Top: 52.1}
	fl := NewMercatorFlinger(box, 18, 0)
	width, height := fl.Size()

	bottomLeft := fl.Fling(box.Bottom, box.Left)
	if math.Abs(bottomLeft.X) > 1 || math.Abs(bottomLeft.Y-float64(height)) > 1 {
		t.Errorf("bottom-left corner should map near (0, height); got %+v, height=%d", bottomLeft, height)
	}

	topRight := fl.Fling(box.Top, box.Right)
	if math.Abs(topRight.X-float64(width)) > 1 || math.Abs(topRight.Y) > 1 {
		t.Errorf("top-right corner should map near (width, 0); got %+v, width=%d", topRight, width)
	}
}

func TestMercatorFlingerYAxisIsInverted(t *testing.T) {
	box := osm.BoundingBox{Left: 0, Bottom: 0, Right: 1, Top: 1}
	fl := NewMercatorFlinger(box, 15, 0)

	north := fl.Fling(1, 0.5)
	south := fl.Fling(0, 0.5)
	if north.Y >= south.Y {
		t.Errorf("a northern point should have a smaller pixel-y than a southern one, got north=%v south=%v", north.Y, south.Y)
	}
}

func TestOSMZoomLevelToPixelsPerMeterDoublesPerZoom(t *testing.T) {
	base := OSMZoomLevelToPixelsPerMeter(10, 0)
	next := OSMZoomLevelToPixelsPerMeter(11, 0)
	if math.Abs(next/base-2) > 1e-9 {
		t.Errorf("expected one zoom level to double pixels-per-meter, got ratio %v", next/base)
	}
}

func TestOSMZoomLevelToPixelsPerMeterDefaultsEquatorLength(t *testing.T) {
	withDefault := OSMZoomLevelToPixelsPerMeter(5, 0)
	withExplicit := OSMZoomLevelToPixelsPerMeter(5, osm.DefaultEquatorLength)
	if withDefault != withExplicit {
		t.Errorf("zero equatorLength should default to osm.DefaultEquatorLength")
	}
}

func TestMercatorFlingerGetScaleDefaultsToBoxCenter(t *testing.T) {
	box := osm.BoundingBox{Left: 13.0, Bottom: 52.0, Right: 13.1, Top: 52.1}
	fl := NewMercatorFlinger(box, 16, 0)

	_, centerLat := box.Center()
	if fl.GetScale(0) != fl.GetScale(centerLat) {
		t.Errorf("GetScale(0) should default to the bbox center latitude")
	}
}

func TestMercatorFlingerGetScaleIncreasesAwayFromEquator(t *testing.T) {
	box := osm.BoundingBox{Left: 0, Bottom: -1, Right: 1, Top: 1}
	fl := NewMercatorFlinger(box, 10, 0)
	if fl.GetScale(60) <= fl.GetScale(0) {
		t.Errorf("scale at 60 degrees latitude should exceed scale at the equator")
	}
}

func TestTranslateFlinger(t *testing.T) {
	fl := NewTranslateFlinger(vector.Vector{}, 2, 100, 100)
	p := fl.Fling(3, 4)
	if p.X != 8 || p.Y != 6 {
		t.Errorf("expected scaled point (8,6), got %+v", p)
	}
	if w, h := fl.Size(); w != 100 || h != 100 {
		t.Errorf("unexpected size %d,%d", w, h)
	}
	if fl.GetScale(0) != 2 {
		t.Errorf("expected constant scale 2, got %v", fl.GetScale(0))
	}
}
