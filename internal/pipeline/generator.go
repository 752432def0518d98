// Package pipeline wires a Fetcher, a Scheme, the constructor, and the
// painter into a single "render one tile" step, plus the batch-
// generation options (folder layout, PNG encoding, an optional
// tilestore cache). Adapted from the teacher's own Generator, which
// played the same orchestrating role for the watercolor pipeline
// (fetch → multi-pass Mapnik render → watercolor paint → composite);
// here the stages are fetch → construct → paint SVG → optionally
// rasterize to PNG.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/mapmachine/internal/constructor"
	"github.com/MeKo-Tech/mapmachine/internal/flinger"
	"github.com/MeKo-Tech/mapmachine/internal/mapconfig"
	"github.com/MeKo-Tech/mapmachine/internal/osm"
	"github.com/MeKo-Tech/mapmachine/internal/painter"
	"github.com/MeKo-Tech/mapmachine/internal/raster"
	"github.com/MeKo-Tech/mapmachine/internal/scheme"
	"github.com/MeKo-Tech/mapmachine/internal/shape"
	"github.com/MeKo-Tech/mapmachine/internal/tileengine"
	"github.com/MeKo-Tech/mapmachine/internal/tilestore"
)

// GeneratorOptions controls output layout and PNG encoding.
type GeneratorOptions struct {
	// PNGCompression controls PNG re-encoding when a Rasterizer is
	// configured. Supported values: "default", "speed", "best", "none".
	PNGCompression string

	// FolderStructure controls file naming for folder output: "flat"
	// (z{z}_{x}_{y}.png/.svg) or "nested" ({z}/{x}/{y}.png/.svg).
	FolderStructure string

	// Store optionally caches renders instead of (or in addition to)
	// writing them under OutputDir.
	Store *tilestore.Store
}

// Generator renders a single tileengine.Tile to an SVG document and,
// if a Rasterizer is configured, a PNG alongside it.
type Generator struct {
	fetcher    osm.Fetcher
	cfg        mapconfig.Configuration
	rasterizer raster.Rasterizer
	outputDir  string
	tileSize   int
	logger     *slog.Logger
	options    GeneratorOptions
}

// NewGenerator builds a Generator. rasterizer may be nil to emit SVG
// only (spec's "PNG output is optional" framing, spec §4.8).
func NewGenerator(fetcher osm.Fetcher, sch *scheme.Scheme, rasterizer raster.Rasterizer, outputDir string, tileSize int, logger *slog.Logger, opts GeneratorOptions) (*Generator, error) {
	if tileSize <= 0 {
		return nil, fmt.Errorf("pipeline: tile size must be positive")
	}
	if fetcher == nil {
		return nil, fmt.Errorf("pipeline: fetcher is required")
	}
	if sch == nil {
		return nil, fmt.Errorf("pipeline: scheme is required")
	}

	return &Generator{
		fetcher:    fetcher,
		cfg:        mapconfig.New(sch),
		rasterizer: rasterizer,
		outputDir:  outputDir,
		tileSize:   tileSize,
		logger:     logger,
		options:    opts,
	}, nil
}

// LoadScheme reads a scheme YAML file plus an icon SVG sprite sheet
// and its JSON config, returning the parsed *scheme.Scheme (spec
// §4.2's matcher/icon-set loading). Mirrors the original
// implementation's Workspace.find_scheme_path / IconExtractor pairing
// (original_source/map_machine/workspace.py).
func LoadScheme(schemePath, iconsSVGPath, iconsConfigPath string) (*scheme.Scheme, error) {
	schemeData, err := os.ReadFile(schemePath)
	if err != nil {
		return nil, fmt.Errorf("pipeline: read scheme %s: %w", schemePath, err)
	}

	svgData, err := os.ReadFile(iconsSVGPath)
	if err != nil {
		return nil, fmt.Errorf("pipeline: read icons svg %s: %w", iconsSVGPath, err)
	}
	configData, err := os.ReadFile(iconsConfigPath)
	if err != nil {
		return nil, fmt.Errorf("pipeline: read icons config %s: %w", iconsConfigPath, err)
	}

	extractor, err := shape.ExtractShapes(svgData, configData)
	if err != nil {
		return nil, fmt.Errorf("pipeline: extract icon shapes: %w", err)
	}

	sch, err := scheme.Load(schemeData, extractor)
	if err != nil {
		return nil, fmt.Errorf("pipeline: load scheme %s: %w", schemePath, err)
	}
	return sch, nil
}

// Generate fetches t's extended boundary box, constructs its figures,
// and paints an SVG; when the Generator has a Rasterizer it also
// produces a PNG. Returns the SVG and (possibly nil) PNG paths actually
// written to disk; when a Store is configured, the render is cached
// there instead and the returned paths are empty.
func (g *Generator) Generate(ctx context.Context, t tileengine.Tile, force bool, filenameSuffix string) (svgPath, pngPath string, err error) {
	suffix := strings.TrimSpace(filenameSuffix)
	svgPath, pngPath = g.outputPaths(t, suffix)

	if !force && g.options.Store == nil {
		if _, statErr := os.Stat(svgPath); statErr == nil {
			g.log().Info("tile already exists; skipping", "tile", t.String(), "path", svgPath)
			return svgPath, pngPath, nil
		}
	}

	data, err := osm.FetchData(ctx, g.fetcher, t.ExtendedBoundaryBox())
	if err != nil {
		return "", "", fmt.Errorf("pipeline: fetch tile %s: %w", t.String(), err)
	}

	fl := g.tileFlinger(t)
	c := constructor.New(data, fl, g.cfg)
	c.Construct()

	var svgBuf bytes.Buffer
	p := painter.New(&svgBuf, fl, g.cfg)
	p.Draw(c)

	var pngData []byte
	if g.rasterizer != nil {
		pngData, err = g.rasterizer.Rasterize(svgBuf.Bytes())
		if err != nil {
			return "", "", fmt.Errorf("pipeline: rasterize tile %s: %w", t.String(), err)
		}
		pngData, err = ReencodePNG(pngData, g.options.PNGCompression)
		if err != nil {
			return "", "", fmt.Errorf("pipeline: reencode tile %s: %w", t.String(), err)
		}
	}

	if g.options.Store != nil {
		entry := tilestore.Entry{Zoom: t.Zoom, X: t.X, Y: t.Y, SVG: svgBuf.Bytes(), PNG: pngData}
		if err := g.options.Store.Put(entry); err != nil {
			return "", "", fmt.Errorf("pipeline: cache tile %s: %w", t.String(), err)
		}
		return "", "", nil
	}

	if err := os.MkdirAll(filepath.Dir(svgPath), 0o755); err != nil {
		return "", "", fmt.Errorf("pipeline: create output dir: %w", err)
	}
	if err := os.WriteFile(svgPath, svgBuf.Bytes(), 0o644); err != nil {
		return "", "", fmt.Errorf("pipeline: write svg %s: %w", svgPath, err)
	}

	if pngData != nil {
		if err := os.WriteFile(pngPath, pngData, 0o644); err != nil {
			return "", "", fmt.Errorf("pipeline: write png %s: %w", pngPath, err)
		}
	} else {
		pngPath = ""
	}

	g.log().Info("tile rendered", "tile", t.String(), "svg", svgPath, "png", pngPath)
	return svgPath, pngPath, nil
}

// TileExists reports whether t has already been rendered to disk under
// the given filename suffix. Always false when a Store is configured,
// since the store is queried directly instead.
func (g *Generator) TileExists(t tileengine.Tile, filenameSuffix string) bool {
	if g.options.Store != nil {
		return false
	}
	svgPath, _ := g.outputPaths(t, strings.TrimSpace(filenameSuffix))
	_, err := os.Stat(svgPath)
	return err == nil
}

// tileFlinger builds the pseudo-Mercator flinger that projects t's
// extended boundary box onto a tileSize x tileSize canvas: the
// fractional zoom bump (log2(tileSize/256)) keeps the same geographic
// box mapping to a larger pixel canvas for HiDPI (@2x) renders.
func (g *Generator) tileFlinger(t tileengine.Tile) *flinger.MercatorFlinger {
	effectiveZoom := float64(t.Zoom) + math.Log2(float64(g.tileSize)/256)
	return flinger.NewMercatorFlinger(t.Bounds(), effectiveZoom, osm.DefaultEquatorLength)
}

func (g *Generator) outputPaths(t tileengine.Tile, suffix string) (svgPath, pngPath string) {
	if g.options.FolderStructure == "nested" {
		dir := filepath.Join(g.outputDir, fmt.Sprintf("%d", t.Zoom), fmt.Sprintf("%d", t.X))
		base := fmt.Sprintf("%d%s", t.Y, suffix)
		return filepath.Join(dir, base+".svg"), filepath.Join(dir, base+".png")
	}
	base := fmt.Sprintf("%s%s", t.String(), suffix)
	base = strings.ReplaceAll(base, "/", "_")
	return filepath.Join(g.outputDir, base+".svg"), filepath.Join(g.outputDir, base+".png")
}

// ReencodePNG re-encodes a PNG at the requested compression level
// ("default", "speed", "best", "none"), leaving data untouched for the
// default level since Rasterize already encodes with it.
func ReencodePNG(data []byte, compression string) ([]byte, error) {
	level := png.DefaultCompression
	switch strings.ToLower(strings.TrimSpace(compression)) {
	case "", "default":
		level = png.DefaultCompression
	case "speed", "fast", "best-speed":
		level = png.BestSpeed
	case "best", "best-compression":
		level = png.BestCompression
	case "none", "no", "nocompression", "no-compression":
		level = png.NoCompression
	default:
		level = png.DefaultCompression
	}
	if level == png.DefaultCompression {
		return data, nil
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: level}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) log() *slog.Logger {
	if g.logger != nil {
		return g.logger
	}
	return slog.Default()
}
