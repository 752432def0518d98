// Package tileengine implements the slippy-map tile grid (spec §4.8):
// z/x/y tile coordinates, their bounding boxes, the 0.001°-extended
// box the fetcher uses to avoid edge gaps, the covering-grid enumerator
// for a requested area, and the CLI zoom-level spec parser. Grounded on
// internal/tile/coords.go's paulmach/orb/maptile-based coordinate math,
// generalized from that file's PNG-tile-cache bookkeeping to the
// OSM-bbox-driven rendering this tool does instead.
package tileengine

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"

	"github.com/MeKo-Tech/mapmachine/internal/osm"
)

// extendedBoxMargin is the outward rounding applied to a tile's bounds
// before fetching OSM data for it, so features straddling a tile edge
// aren't clipped (spec §4.8 extended_boundary_box).
const extendedBoxMargin = 0.001

// MaxZoom is the highest zoom level the engine accepts; zoom-spec
// parsing and tile construction both reject anything above it (spec
// §4.8, §9 exit codes).
const MaxZoom = 20

// Tile identifies one 256x256 slippy-map tile.
type Tile struct {
	X, Y uint32
	Zoom int
}

// New builds a Tile, matching maptile's (x, y, zoom) ordering.
func New(x, y uint32, zoom int) Tile {
	return Tile{X: x, Y: y, Zoom: zoom}
}

// FromLatLon returns the tile containing (lat, lon) at the given zoom.
func FromLatLon(lat, lon float64, zoom int) Tile {
	t := maptile.At(orb.Point{lon, lat}, maptile.Zoom(zoom))
	return Tile{X: t.X, Y: t.Y, Zoom: zoom}
}

func (t Tile) maptile() maptile.Tile {
	return maptile.New(t.X, t.Y, maptile.Zoom(t.Zoom))
}

// String renders the tile as "z{zoom}/{x}/{y}", the standard slippy
// tile URL path fragment.
func (t Tile) String() string {
	return fmt.Sprintf("z%d/%d/%d", t.Zoom, t.X, t.Y)
}

// Bounds returns the tile's bounding box in WGS84.
func (t Tile) Bounds() osm.BoundingBox {
	bound := t.maptile().Bound()
	return osm.BoundingBox{
		Left: bound.Min.Lon(), Bottom: bound.Min.Lat(),
		Right: bound.Max.Lon(), Top: bound.Max.Lat(),
	}
}

// ExtendedBoundaryBox rounds the tile's bounds outward by 0.001° in
// every direction, the box the fetcher actually queries so geometry
// that straddles the tile's edge isn't cut off mid-way (spec §4.8).
func (t Tile) ExtendedBoundaryBox() osm.BoundingBox {
	b := t.Bounds()
	return osm.BoundingBox{
		Left:   b.Left - extendedBoxMargin,
		Bottom: b.Bottom - extendedBoxMargin,
		Right:  b.Right + extendedBoxMargin,
		Top:    b.Top + extendedBoxMargin,
	}
}

// Tiles is a covering grid of tiles at a single zoom level, in
// ascending (x, y) order.
type Tiles struct {
	Zoom  int
	Tiles []Tile
}

// FromBoundaryBox enumerates every tile at zoom that intersects bbox,
// the covering grid Tiles::draw rasterizes once and crops per-tile
// (spec §4.8).
func FromBoundaryBox(bbox osm.BoundingBox, zoom int) Tiles {
	minPoint := orb.Point{bbox.Left, bbox.Bottom}
	maxPoint := orb.Point{bbox.Right, bbox.Top}
	z := maptile.Zoom(zoom)

	a := maptile.At(minPoint, z)
	b := maptile.At(maxPoint, z)

	minX, maxX := a.X, b.X
	if minX > maxX {
		minX, maxX = maxX, minX
	}
	// Tile Y grows downward (north to south) while latitude grows
	// upward, so the tile containing the box's northern (max-lat) edge
	// has the smaller Y.
	minY, maxY := b.Y, a.Y
	if minY > maxY {
		minY, maxY = maxY, minY
	}

	tiles := make([]Tile, 0, int(maxX-minX+1)*int(maxY-minY+1))
	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			tiles = append(tiles, Tile{X: x, Y: y, Zoom: zoom})
		}
	}
	return Tiles{Zoom: zoom, Tiles: tiles}
}

// Bounds returns the bounding box of the whole grid: the union of
// every tile's own bounds.
func (g Tiles) Bounds() osm.BoundingBox {
	if len(g.Tiles) == 0 {
		return osm.BoundingBox{}
	}
	box := g.Tiles[0].Bounds()
	for _, t := range g.Tiles[1:] {
		b := t.Bounds()
		if b.Left < box.Left {
			box.Left = b.Left
		}
		if b.Right > box.Right {
			box.Right = b.Right
		}
		if b.Bottom < box.Bottom {
			box.Bottom = b.Bottom
		}
		if b.Top > box.Top {
			box.Top = b.Top
		}
	}
	return box
}

// ParseZoomLevels parses a CLI zoom-level spec into a sorted,
// deduplicated list of zoom levels. Accepts singletons ("17"), lists
// ("16,17,18"), ranges ("16-18"), and mixtures ("15,16-18,20") (spec
// §4.8); rejects zoom levels above MaxZoom and inverted ranges.
func ParseZoomLevels(spec string) ([]int, error) {
	seen := map[int]struct{}{}
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, err := parseZoomPart(part)
		if err != nil {
			return nil, err
		}
		for z := lo; z <= hi; z++ {
			seen[z] = struct{}{}
		}
	}
	if len(seen) == 0 {
		return nil, fmt.Errorf("tileengine: empty zoom spec %q", spec)
	}

	out := make([]int, 0, len(seen))
	for z := range seen {
		out = append(out, z)
	}
	sort.Ints(out)
	return out, nil
}

func parseZoomPart(part string) (lo, hi int, err error) {
	if dash := strings.IndexByte(part, '-'); dash >= 0 {
		lo, err = parseZoom(part[:dash])
		if err != nil {
			return 0, 0, err
		}
		hi, err = parseZoom(part[dash+1:])
		if err != nil {
			return 0, 0, err
		}
		if lo > hi {
			return 0, 0, fmt.Errorf("tileengine: inverted zoom range %q", part)
		}
		return lo, hi, nil
	}

	z, err := parseZoom(part)
	if err != nil {
		return 0, 0, err
	}
	return z, z, nil
}

func parseZoom(s string) (int, error) {
	z, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("tileengine: invalid zoom level %q", s)
	}
	if z < 0 || z > MaxZoom {
		return 0, fmt.Errorf("tileengine: zoom level %d out of range [0,%d]", z, MaxZoom)
	}
	return z, nil
}
