// Package flinger implements the projection ("flinger") that converts
// geographic coordinates into pixel space, the pseudo-Mercator math
// mirrored from internal/tile's lonLatToMercator helpers but
// generalized to the spec's bbox/zoom-driven flinger contract.
package flinger

import (
	"math"

	"github.com/MeKo-Tech/mapmachine/internal/osm"
	"github.com/MeKo-Tech/mapmachine/internal/vector"
)

// Flinger converts geographic (lat, lon) to pixel coordinates.
type Flinger interface {
	// Fling converts a geographic point to a pixel point. Total,
	// deterministic, continuous within a tile.
	Fling(lat, lon float64) vector.Vector
	// Size returns the pixel dimensions of the flinger's target image.
	Size() (width, height int)
	// GetScale returns pixels-per-meter at the given latitude. A zero
	// latitude request defaults to the center of the bounding box.
	GetScale(lat float64) float64
}

// pseudoMercator is pm(lat, lon) from spec §4.1: (lon, (180/pi) * ln(tan(pi/4 + lat*pi/360))).
func pseudoMercator(lat, lon float64) (x, y float64) {
	x = lon
	y = (180 / math.Pi) * math.Log(math.Tan(math.Pi/4+lat*math.Pi/360))
	return
}

// MercatorFlinger implements the spherical pseudo-Mercator projection
// used for real OSM tiles.
type MercatorFlinger struct {
	box           osm.BoundingBox
	zoom          float64
	equatorLength float64
	scale         float64 // r = 2^zoom * 256 / 360
	minX, minY    float64 // r * pm(min)
	width, height int
}

// NewMercatorFlinger builds a flinger for the given bounding box and
// integer-or-fractional zoom level. equatorLength defaults to Earth's
// circumference (40 075 017 m) if zero.
func NewMercatorFlinger(box osm.BoundingBox, zoom, equatorLength float64) *MercatorFlinger {
	if equatorLength == 0 {
		equatorLength = osm.DefaultEquatorLength
	}

	scale := math.Pow(2, zoom) * 256 / 360

	minPmX, minPmY := pseudoMercator(box.Bottom, box.Left)
	maxPmX, maxPmY := pseudoMercator(box.Top, box.Right)

	width := int(math.Round(scale * (maxPmX - minPmX)))
	height := int(math.Round(scale * (maxPmY - minPmY)))
	if width < 0 {
		width = -width
	}
	if height < 0 {
		height = -height
	}

	return &MercatorFlinger{
		box:           box,
		zoom:          zoom,
		equatorLength: equatorLength,
		scale:         scale,
		minX:          scale * minPmX,
		minY:          scale * minPmY,
		width:         width,
		height:        height,
	}
}

// Fling implements Flinger. The y-axis is inverted so pixel (0,0) is
// the top-left of the image.
func (f *MercatorFlinger) Fling(lat, lon float64) vector.Vector {
	pmX, pmY := pseudoMercator(lat, lon)
	x := f.scale*pmX - f.minX
	y := f.scale*pmY - f.minY
	return vector.Vector{X: x, Y: float64(f.height) - y}
}

// Size implements Flinger.
func (f *MercatorFlinger) Size() (int, int) {
	return f.width, f.height
}

// GetScale implements Flinger: pixels-per-meter at the equator times
// |1/cos(lat)|. A zero latitude defaults to the bbox center latitude.
func (f *MercatorFlinger) GetScale(lat float64) float64 {
	if lat == 0 {
		_, lat = f.box.Center()
	}
	pixelsPerMeterAtEquator := math.Pow(2, f.zoom) * 256 / f.equatorLength
	return pixelsPerMeterAtEquator * math.Abs(1/math.Cos(lat*math.Pi/180))
}

// OSMZoomLevelToPixelsPerMeter computes pixels-per-meter at the equator
// for a given zoom and equator length, the quantity exercised directly
// by spec §8's "pixels-per-meter" testable property.
func OSMZoomLevelToPixelsPerMeter(zoom float64, equatorLength float64) float64 {
	if equatorLength == 0 {
		equatorLength = osm.DefaultEquatorLength
	}
	return math.Pow(2, zoom) * 256 / equatorLength
}

// TranslateFlinger is an affine flinger (scale*(p+offset)) used for
// synthetic grid tests that don't need real projection math.
type TranslateFlinger struct {
	Offset        vector.Vector
	Scale         float64
	Width, Height int
}

// NewTranslateFlinger builds a TranslateFlinger.
func NewTranslateFlinger(offset vector.Vector, scale float64, width, height int) *TranslateFlinger {
	return &TranslateFlinger{Offset: offset, Scale: scale, Width: width, Height: height}
}

// Fling implements Flinger by treating (lat, lon) as plain (y, x) plane
// coordinates, scaled and translated.
func (f *TranslateFlinger) Fling(lat, lon float64) vector.Vector {
	return vector.Vector{
		X: f.Scale * (lon + f.Offset.X),
		Y: f.Scale * (lat + f.Offset.Y),
	}
}

// Size implements Flinger.
func (f *TranslateFlinger) Size() (int, int) {
	return f.Width, f.Height
}

// GetScale implements Flinger: a TranslateFlinger's scale is constant.
func (f *TranslateFlinger) GetScale(float64) float64 {
	return f.Scale
}
