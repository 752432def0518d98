package osm

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// maxBoxDegrees bounds bbox size in each axis, guarding against
// over-large fetch requests (spec §3).
const maxBoxDegrees = 0.5

// BoundingBox is a geographic bounding box in WGS84, left<right and
// bottom<top, each axis no larger than 0.5 degrees.
type BoundingBox struct {
	Left, Bottom, Right, Top float64
}

// Valid reports whether the box satisfies left<right, bottom<top, and
// the 0.5-degree size guard in each axis.
func (b BoundingBox) Valid() bool {
	if b.Left >= b.Right || b.Bottom >= b.Top {
		return false
	}
	if b.Right-b.Left > maxBoxDegrees || b.Top-b.Bottom > maxBoxDegrees {
		return false
	}
	return true
}

// Center returns the box's center as (lat, lon).
func (b BoundingBox) Center() (lat, lon float64) {
	return (b.Bottom + b.Top) / 2, (b.Left + b.Right) / 2
}

// FromText parses "left,bottom,right,top" (as produced by most OSM
// tools) into a BoundingBox. Returns ok=false for malformed, inverted,
// or oversize boxes.
func FromText(s string) (BoundingBox, bool) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return BoundingBox{}, false
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return BoundingBox{}, false
		}
		vals[i] = f
	}
	box := BoundingBox{Left: vals[0], Bottom: vals[1], Right: vals[2], Top: vals[3]}
	if !box.Valid() {
		return BoundingBox{}, false
	}
	return box, true
}

// roundBoxMargin is the minimum half-size applied by Round when a box
// has zero extent (spec §8: BoundingBox(0,0,0,0).round() == (-0.001,...,0.001,...)).
const roundBoxMargin = 0.001

// Round expands a degenerate (zero-area) box symmetrically to a
// minimum size so that downstream flingers never divide by zero.
func (b BoundingBox) Round() BoundingBox {
	cLat, cLon := b.Center()
	out := b
	if b.Right-b.Left < roundBoxMargin*2 {
		out.Left, out.Right = cLon-roundBoxMargin, cLon+roundBoxMargin
	}
	if b.Top-b.Bottom < roundBoxMargin*2 {
		out.Bottom, out.Top = cLat-roundBoxMargin, cLat+roundBoxMargin
	}
	return out
}

// FromCoordinates builds a bounding box of the given pixel size around
// a geographic center at the given zoom level, inverting the pseudo-
// Mercator projection used by the flinger (spec §4.1).
func FromCoordinates(centerLat, centerLon float64, zoom float64, widthPx, heightPx float64) BoundingBox {
	scale := math.Pow(2, zoom) * 256 / 360

	pmX := centerLon
	pmY := (180 / math.Pi) * math.Log(math.Tan(math.Pi/4+centerLat*math.Pi/360))

	halfWidthDeg := (widthPx / 2) / scale
	// The y-axis pseudo-Mercator coordinate doesn't scale linearly with
	// pixels the way x does near the poles; invert via the mercator
	// relation exactly at the requested half-height instead of a flat
	// degree offset.
	halfHeightPm := (heightPx / 2) / scale

	minLon := pmX - halfWidthDeg
	maxLon := pmX + halfWidthDeg

	minLat := inversePseudoMercatorY(pmY - halfHeightPm)
	maxLat := inversePseudoMercatorY(pmY + halfHeightPm)

	return BoundingBox{Left: minLon, Bottom: minLat, Right: maxLon, Top: maxLat}
}

func inversePseudoMercatorY(pmY float64) float64 {
	return (360 / math.Pi) * (math.Atan(math.Exp(pmY*math.Pi/180)) - math.Pi/4)
}

// String renders the box as "left,bottom,right,top".
func (b BoundingBox) String() string {
	return fmt.Sprintf("%g,%g,%g,%g", b.Left, b.Bottom, b.Right, b.Top)
}
