//go:build mapnikraster

// Package raster's mapnikraster build tag swaps in a native Mapnik
// backend for tile rendering, adapted near-verbatim from
// internal/renderer/mapnik.go: same go-mapnik/v2 cgo bridge, style
// loading, and Web Mercator extent math, retargeted from
// types.TileCoordinate/TileData at tileengine.Tile and this module's
// own osm.BoundingBox. Unlike VectorRasterizer (which rasterizes the
// painter's own SVG stream), Mapnik renders directly from an XML style
// sheet and datasource — the teacher's actual RenderTile contract — so
// it is exposed as a separate TileRenderer rather than force-fit into
// the Rasterizer interface that post-processes SVG.
package raster

import (
	"fmt"
	"image"
	"math"
	"os"

	mapnik "github.com/omniscale/go-mapnik/v2"

	"github.com/MeKo-Tech/mapmachine/internal/osm"
	"github.com/MeKo-Tech/mapmachine/internal/tileengine"
)

// MapnikTileRenderer wraps a Mapnik map object for style-sheet-driven
// tile rendering — an alternate full backend alongside the SVG
// painter + VectorRasterizer pipeline.
type MapnikTileRenderer struct {
	mapObject *mapnik.Map
	tileSize  int
}

// NewMapnikTileRenderer registers Mapnik's datasource plugins and
// loads styleFile (if non-empty) into a tileSize x tileSize map.
func NewMapnikTileRenderer(styleFile string, tileSize int) (*MapnikTileRenderer, error) {
	if err := mapnik.RegisterDatasources("/usr/lib/mapnik/3.1/input"); err != nil {
		return nil, fmt.Errorf("raster: register mapnik datasources: %w", err)
	}

	m := mapnik.NewSized(tileSize, tileSize)
	if styleFile != "" {
		if err := m.Load(styleFile); err != nil {
			return nil, fmt.Errorf("raster: load mapnik style: %w", err)
		}
	}

	return &MapnikTileRenderer{mapObject: m, tileSize: tileSize}, nil
}

// RenderTile renders tile's bounding box through the loaded Mapnik
// style and returns the resulting image.
func (r *MapnikTileRenderer) RenderTile(tile tileengine.Tile) (image.Image, error) {
	r.setWebMercatorExtent(tile.Bounds())

	img, err := r.mapObject.RenderImage(mapnik.RenderOpts{Format: "png32"})
	if err != nil {
		return nil, fmt.Errorf("raster: render tile %s: %w", tile.String(), err)
	}
	return img, nil
}

// RenderToFile renders tile directly to outputPath.
func (r *MapnikTileRenderer) RenderToFile(tile tileengine.Tile, outputPath string) error {
	r.setWebMercatorExtent(tile.Bounds())

	if err := r.mapObject.RenderToFile(mapnik.RenderOpts{Format: "png32"}, outputPath); err != nil {
		return fmt.Errorf("raster: render tile %s to file: %w", tile.String(), err)
	}
	return nil
}

func (r *MapnikTileRenderer) setWebMercatorExtent(bbox osm.BoundingBox) {
	r.mapObject.SetSRS("+proj=merc +a=6378137 +b=6378137 +lat_ts=0.0 +lon_0=0.0 +x_0=0.0 +y_0=0 +k=1.0 +units=m +nadgrids=@null +no_defs +over")

	minX, minY := latLonToWebMercator(bbox.Bottom, bbox.Left)
	maxX, maxY := latLonToWebMercator(bbox.Top, bbox.Right)
	r.mapObject.ZoomTo(minX, minY, maxX, maxY)
}

// Close releases the underlying Mapnik map object.
func (r *MapnikTileRenderer) Close() error {
	if r.mapObject != nil {
		r.mapObject.Free()
		r.mapObject = nil
	}
	return nil
}

// latLonToWebMercator converts WGS84 lat/lon to Web Mercator (EPSG:3857).
func latLonToWebMercator(lat, lon float64) (float64, float64) {
	const earthRadius = 6378137.0
	const degToRad = 3.14159265359 / 180.0

	x := lon * earthRadius * degToRad
	latRad := lat * degToRad
	y := earthRadius * math.Log(math.Tan(math.Pi/4+latRad/2))
	return x, y
}

// LoadStyle (re)loads a Mapnik XML style file.
func (r *MapnikTileRenderer) LoadStyle(styleFile string) error {
	if err := r.mapObject.Load(styleFile); err != nil {
		return fmt.Errorf("raster: load style: %w", err)
	}
	return nil
}

// LoadXML loads a Mapnik style from an in-memory XML string via a
// temporary file, since go-mapnik only loads styles from disk.
func (r *MapnikTileRenderer) LoadXML(xmlString string) error {
	tmpFile, err := os.CreateTemp("", "mapmachine-mapnik-style-*.xml")
	if err != nil {
		return fmt.Errorf("raster: create temp style file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath) //nolint:errcheck

	if _, err := tmpFile.WriteString(xmlString); err != nil {
		tmpFile.Close() //nolint:errcheck
		return fmt.Errorf("raster: write temp style file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("raster: close temp style file: %w", err)
	}
	return r.LoadStyle(tmpPath)
}

// SetBufferSize sets the buffer size around the tile, used for label
// placement that straddles tile edges.
func (r *MapnikTileRenderer) SetBufferSize(pixels int) {
	r.mapObject.SetBufferSize(pixels)
}
