package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/MeKo-Tech/mapmachine/internal/constructor"
	"github.com/MeKo-Tech/mapmachine/internal/flinger"
	"github.com/MeKo-Tech/mapmachine/internal/mapconfig"
	"github.com/MeKo-Tech/mapmachine/internal/osm"
	"github.com/MeKo-Tech/mapmachine/internal/painter"
	"github.com/MeKo-Tech/mapmachine/internal/pipeline"
	"github.com/MeKo-Tech/mapmachine/internal/raster"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render an arbitrary bounding box to an SVG (and optional PNG) map",
	Long: `Render fetches OSM data for a single bounding box, runs it through the
constructor and painter, and writes one SVG document (and, with
--png, a rasterized PNG) — the non-tiled counterpart to "tile".

Either --bbox, or --lat/--lon/--width/--height (a pixel-sized window
around a center point, resolved to a bbox via the same inverse
projection the flinger uses), must be given.`,
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().String("bbox", "", "Bounding box: left,bottom,right,top")
	renderCmd.Flags().Float64("lat", 0, "Center latitude (used with --lon instead of --bbox)")
	renderCmd.Flags().Float64("lon", 0, "Center longitude (used with --lat instead of --bbox)")
	renderCmd.Flags().Int("width", 1024, "Output width in pixels (center-point mode only)")
	renderCmd.Flags().Int("height", 1024, "Output height in pixels (center-point mode only)")
	renderCmd.Flags().Float64("zoom", 18, "Zoom level used for projection scale")
	renderCmd.Flags().String("out", "map.svg", "Output SVG path")
	renderCmd.Flags().Bool("png", false, "Also rasterize to PNG alongside the SVG")
	renderCmd.Flags().String("png-compression", "default", "PNG compression (default, speed, best, none)")

	bindFlags := []struct{ key, flag string }{
		{"render.bbox", "bbox"},
		{"render.lat", "lat"},
		{"render.lon", "lon"},
		{"render.width", "width"},
		{"render.height", "height"},
		{"render.zoom", "zoom"},
		{"render.out", "out"},
		{"render.png", "png"},
		{"render.png_compression", "png-compression"},
	}
	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, renderCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func runRender(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	zoom := viper.GetFloat64("render.zoom")
	outPath := viper.GetString("render.out")
	wantPNG := viper.GetBool("render.png")
	pngCompression := viper.GetString("render.png_compression")

	box, err := resolveRenderBoundingBox(zoom)
	if err != nil {
		return err
	}

	sch, err := loadSchemeFromConfig()
	if err != nil {
		return err
	}
	fetcher, err := newFetcherFromConfig()
	if err != nil {
		return err
	}

	logger.Info("rendering bounding box", "bbox", box.String(), "zoom", zoom)

	data, err := osm.FetchData(context.Background(), fetcher, box)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}

	fl := flinger.NewMercatorFlinger(box, zoom, osm.DefaultEquatorLength)
	cfg := mapconfig.New(sch)
	cfg.ZoomLevel = zoom

	c := constructor.New(data, fl, cfg)
	c.Construct()

	var svgBuf bytes.Buffer
	p := painter.New(&svgBuf, fl, cfg)
	p.Draw(c)

	if err := os.WriteFile(outPath, svgBuf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	logger.Info("svg written", "path", outPath)

	if wantPNG {
		pngData, err := raster.NewVectorRasterizer().Rasterize(svgBuf.Bytes())
		if err != nil {
			return fmt.Errorf("rasterize: %w", err)
		}
		pngData, err = pipeline.ReencodePNG(pngData, pngCompression)
		if err != nil {
			return fmt.Errorf("reencode png: %w", err)
		}
		pngPath := withoutExt(outPath) + ".png"
		if err := os.WriteFile(pngPath, pngData, 0o644); err != nil {
			return fmt.Errorf("write png: %w", err)
		}
		logger.Info("png written", "path", pngPath)
	}

	return nil
}

// resolveRenderBoundingBox builds the render bbox either directly from
// --bbox or, in center-point mode, by inverting the pseudo-Mercator
// projection around --lat/--lon at the requested pixel size.
func resolveRenderBoundingBox(zoom float64) (osm.BoundingBox, error) {
	if bboxStr := viper.GetString("render.bbox"); bboxStr != "" {
		box, ok := osm.FromText(bboxStr)
		if !ok {
			return osm.BoundingBox{}, fmt.Errorf("invalid --bbox %q: expected left,bottom,right,top within 0.5 degrees per axis", bboxStr)
		}
		return box, nil
	}

	lat := viper.GetFloat64("render.lat")
	lon := viper.GetFloat64("render.lon")
	if lat == 0 && lon == 0 {
		return osm.BoundingBox{}, fmt.Errorf("either --bbox or --lat/--lon is required")
	}

	width := float64(viper.GetInt("render.width"))
	height := float64(viper.GetInt("render.height"))
	box := osm.FromCoordinates(lat, lon, zoom, width, height).Round()
	if !box.Valid() {
		return osm.BoundingBox{}, fmt.Errorf("resolved bounding box %s is invalid (too large for --zoom %g)", box.String(), zoom)
	}
	return box, nil
}

func withoutExt(path string) string {
	for i := len(path) - 1; i >= 0 && path[i] != '/'; i-- {
		if path[i] == '.' {
			return path[:i]
		}
	}
	return path
}
