package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/MeKo-Tech/mapmachine/internal/osm"
	"github.com/MeKo-Tech/mapmachine/internal/pipeline"
	"github.com/MeKo-Tech/mapmachine/internal/raster"
	"github.com/MeKo-Tech/mapmachine/internal/tileengine"
	"github.com/MeKo-Tech/mapmachine/internal/tilestore"
	"github.com/MeKo-Tech/mapmachine/internal/worker"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var tileCmd = &cobra.Command{
	Use:   "tile",
	Short: "Generate slippy-map tiles",
	Long:  `Generate SVG/PNG slippy-map tiles for a single z/x/y or a bbox across a zoom range.`,
	RunE:  runTile,
}

func init() {
	rootCmd.AddCommand(tileCmd)

	// Single tile flags
	tileCmd.Flags().IntP("zoom", "z", 13, "Zoom level (for single tile mode)")
	tileCmd.Flags().IntP("x", "x", 0, "X tile coordinate (for single tile mode)")
	tileCmd.Flags().IntP("y", "y", 0, "Y tile coordinate (for single tile mode)")

	// Batch generation flags
	tileCmd.Flags().String("bbox", "", "Bounding box: left,bottom,right,top (switches to batch mode)")
	tileCmd.Flags().String("zooms", "", "Zoom levels for batch generation, e.g. \"16-18\" or \"15,17,19\"")
	tileCmd.Flags().IntP("workers", "w", 0, "Number of parallel workers (default: number of CPUs)")
	tileCmd.Flags().Bool("progress", true, "Show progress bar during batch generation")
	tileCmd.Flags().Bool("allow-failures", false, "Continue generation even if some tiles fail")

	// Common flags
	tileCmd.Flags().Bool("force", false, "Force regeneration even if a tile already exists")
	tileCmd.Flags().Int("tile-size", 256, "Tile size in pixels (256, or 512 for @2x HiDPI)")
	tileCmd.Flags().Bool("hidpi", false, "Also generate a 2x (@2x) tile alongside the base tile")
	tileCmd.Flags().Bool("png", true, "Also rasterize each tile to PNG")
	tileCmd.Flags().String("png-compression", "default", "PNG compression (default, speed, best, none)")

	// Output format flags
	tileCmd.Flags().String("format", "folder", "Output format: folder or tilestore")
	tileCmd.Flags().String("output-file", "", "tilestore database path (required when --format=tilestore)")
	tileCmd.Flags().String("folder-structure", "flat", "Folder layout for folder format: flat (z{z}_{x}_{y}.png) or nested ({z}/{x}/{y}.png)")

	bindFlags := []struct{ key, flag string }{
		{"tile.zoom", "zoom"},
		{"tile.x", "x"},
		{"tile.y", "y"},
		{"tile.bbox", "bbox"},
		{"tile.zooms", "zooms"},
		{"tile.workers", "workers"},
		{"tile.progress", "progress"},
		{"tile.allow_failures", "allow-failures"},
		{"tile.force", "force"},
		{"tile.tile_size", "tile-size"},
		{"tile.hidpi", "hidpi"},
		{"tile.png", "png"},
		{"tile.png_compression", "png-compression"},
		{"tile.format", "format"},
		{"tile.output_file", "output-file"},
		{"tile.folder_structure", "folder-structure"},
	}
	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, tileCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func runTile(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	format := viper.GetString("tile.format")
	if format != "folder" && format != "tilestore" {
		return fmt.Errorf("invalid --format %q: must be 'folder' or 'tilestore'", format)
	}
	folderStructure := viper.GetString("tile.folder_structure")
	if folderStructure != "flat" && folderStructure != "nested" {
		return fmt.Errorf("invalid --folder-structure %q: must be 'flat' or 'nested'", folderStructure)
	}
	outputFile := viper.GetString("tile.output_file")
	if format == "tilestore" && outputFile == "" {
		return fmt.Errorf("--output-file is required when --format=tilestore")
	}

	if bboxStr := viper.GetString("tile.bbox"); bboxStr != "" {
		return runBatchTiles(bboxStr, format, outputFile, folderStructure)
	}
	return runSingleTile(folderStructure)
}

func runSingleTile(folderStructure string) error {
	zoom := viper.GetInt("tile.zoom")
	x := viper.GetInt("tile.x")
	y := viper.GetInt("tile.y")
	force := viper.GetBool("tile.force")
	outputDir := viper.GetString("output-dir")
	tileSize := viper.GetInt("tile.tile_size")
	hidpi := viper.GetBool("tile.hidpi")
	wantPNG := viper.GetBool("tile.png")
	pngCompression := viper.GetString("tile.png_compression")

	if zoom < 0 || x < 0 || y < 0 {
		return fmt.Errorf("invalid coordinates: zoom/x/y must be non-negative")
	}
	t := tileengine.New(uint32(x), uint32(y), zoom)

	sch, err := loadSchemeFromConfig()
	if err != nil {
		return err
	}
	fetcher, err := newFetcherFromConfig()
	if err != nil {
		return err
	}

	logger.Info("starting tile generation",
		"tile", t.String(), "output_dir", outputDir, "force", force,
		"tile_size", tileSize, "hidpi", hidpi, "png_compression", pngCompression,
	)

	var rasterizer raster.Rasterizer
	if wantPNG {
		rasterizer = raster.NewVectorRasterizer()
	}

	gen, err := pipeline.NewGenerator(fetcher, sch, rasterizer, outputDir, tileSize, logger, pipeline.GeneratorOptions{
		PNGCompression:  pngCompression,
		FolderStructure: folderStructure,
	})
	if err != nil {
		return fmt.Errorf("init generator: %w", err)
	}

	svgPath, pngPath, err := gen.Generate(context.Background(), t, force, "")
	if err != nil {
		return fmt.Errorf("generate tile: %w", err)
	}
	logger.Info("tile generated", "tile", t.String(), "svg", svgPath, "png", pngPath)

	if hidpi {
		gen2x, err := pipeline.NewGenerator(fetcher, sch, rasterizer, outputDir, tileSize*2, logger, pipeline.GeneratorOptions{
			PNGCompression:  pngCompression,
			FolderStructure: folderStructure,
		})
		if err != nil {
			return fmt.Errorf("init hidpi generator: %w", err)
		}
		svgPath2x, pngPath2x, err := gen2x.Generate(context.Background(), t, force, "@2x")
		if err != nil {
			return fmt.Errorf("generate hidpi tile: %w", err)
		}
		logger.Info("hidpi tile generated", "tile", t.String(), "svg", svgPath2x, "png", pngPath2x)
	}

	return nil
}

func runBatchTiles(bboxStr, format, outputFile, folderStructure string) error {
	box, ok := osm.FromText(bboxStr)
	if !ok {
		return fmt.Errorf("invalid --bbox %q", bboxStr)
	}

	zoomsSpec := viper.GetString("tile.zooms")
	if zoomsSpec == "" {
		return fmt.Errorf("--zooms is required for batch generation, e.g. \"16-18\"")
	}
	zooms, err := tileengine.ParseZoomLevels(zoomsSpec)
	if err != nil {
		return fmt.Errorf("invalid --zooms: %w", err)
	}

	workers := viper.GetInt("tile.workers")
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	showProgress := viper.GetBool("tile.progress")
	force := viper.GetBool("tile.force")
	allowFailures := viper.GetBool("tile.allow_failures")
	outputDir := viper.GetString("output-dir")
	tileSize := viper.GetInt("tile.tile_size")
	hidpi := viper.GetBool("tile.hidpi")
	wantPNG := viper.GetBool("tile.png")
	pngCompression := viper.GetString("tile.png_compression")

	var tiles []tileengine.Tile
	for _, z := range zooms {
		tiles = append(tiles, tileengine.FromBoundaryBox(box, z).Tiles...)
	}

	totalTiles := len(tiles)
	if hidpi {
		totalTiles *= 2
	}
	logger.Info("starting batch tile generation",
		"bbox", bboxStr, "zooms", zoomsSpec, "tiles", len(tiles),
		"total_with_hidpi", totalTiles, "workers", workers, "output_dir", outputDir, "format", format,
	)

	sch, err := loadSchemeFromConfig()
	if err != nil {
		return err
	}
	fetcher, err := newFetcherFromConfig()
	if err != nil {
		return err
	}

	var rasterizer raster.Rasterizer
	if wantPNG {
		rasterizer = raster.NewVectorRasterizer()
	}

	var store *tilestore.Store
	if format == "tilestore" {
		store, err = tilestore.Open(outputFile)
		if err != nil {
			return fmt.Errorf("open tilestore: %w", err)
		}
		defer store.Close()
		logger.Info("tilestore opened", "path", outputFile)
	}

	gen, err := pipeline.NewGenerator(fetcher, sch, rasterizer, outputDir, tileSize, logger, pipeline.GeneratorOptions{
		PNGCompression:  pngCompression,
		FolderStructure: folderStructure,
		Store:           store,
	})
	if err != nil {
		return fmt.Errorf("init generator: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received interrupt signal, cancelling...")
		cancel()
	}()

	tasks := make([]worker.Task, 0, len(tiles))
	for _, t := range tiles {
		tasks = append(tasks, worker.Task{Tile: t, Force: force})
	}

	progress := worker.NewProgress(len(tasks), showProgress)
	pool := worker.New(worker.Config{Workers: workers, Generator: gen, OnProgress: progress.Callback()})

	logger.Info("generating base tiles", "count", len(tasks))
	results := pool.Run(ctx, tasks)
	progress.Done()

	if err := reportTileFailures(results, allowFailures, logger); err != nil {
		return err
	}
	logger.Info(progress.Summary())

	if hidpi {
		var store2x *tilestore.Store
		if format == "tilestore" {
			store2x = store
		}
		gen2x, err := pipeline.NewGenerator(fetcher, sch, rasterizer, outputDir, tileSize*2, logger, pipeline.GeneratorOptions{
			PNGCompression:  pngCompression,
			FolderStructure: folderStructure,
			Store:           store2x,
		})
		if err != nil {
			return fmt.Errorf("init hidpi generator: %w", err)
		}

		hidpiTasks := make([]worker.Task, 0, len(tiles))
		for _, t := range tiles {
			hidpiTasks = append(hidpiTasks, worker.Task{Tile: t, Force: force, Suffix: "@2x"})
		}

		progressHiDPI := worker.NewProgress(len(hidpiTasks), showProgress)
		poolHiDPI := worker.New(worker.Config{Workers: workers, Generator: gen2x, OnProgress: progressHiDPI.Callback()})

		logger.Info("generating hidpi tiles", "count", len(hidpiTasks))
		resultsHiDPI := poolHiDPI.Run(ctx, hidpiTasks)
		progressHiDPI.Done()

		if err := reportTileFailures(resultsHiDPI, allowFailures, logger); err != nil {
			return err
		}
		logger.Info(progressHiDPI.Summary())
	}

	if format == "tilestore" {
		if err := store.Flush(); err != nil {
			return fmt.Errorf("flush tilestore: %w", err)
		}
		logger.Info("tilestore generation complete", "path", outputFile)
	}

	return nil
}

func reportTileFailures(results []worker.Result, allowFailures bool, logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
}) error {
	var failedCount int
	for _, r := range results {
		if r.Err != nil {
			failedCount++
			logger.Error("tile generation failed", "tile", r.Task.Tile.String(), "suffix", r.Task.Suffix, "error", r.Err)
		}
	}
	if failedCount == 0 {
		return nil
	}
	if allowFailures {
		logger.Warn("some tiles failed to generate, continuing due to --allow-failures", "failed_count", failedCount)
		return nil
	}
	return fmt.Errorf("%d tiles failed to generate", failedCount)
}
