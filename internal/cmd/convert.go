package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/mapmachine/internal/tilestore"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Import folder-rendered tiles into a tilestore database",
	Long: `Convert scans a directory of "tile" command folder output (z{z}_{x}_{y}[@2x].svg
and/or .png files) and imports them into a tilestore database, the same
cache format "serve --tilestore" and "tile --format=tilestore" use.`,
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().String("input-dir", "./tiles", "Input directory containing rendered tiles")
	convertCmd.Flags().StringP("output", "o", "", "Output tilestore database path (required)")

	bindFlags := []struct{ key, flag string }{
		{"convert.input_dir", "input-dir"},
		{"convert.output", "output"},
	}
	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, convertCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func runConvert(cmd *cobra.Command, args []string) error {
	inputDir := viper.GetString("convert.input_dir")
	outputFile := viper.GetString("convert.output")

	if logger == nil {
		initLogging()
	}

	if outputFile == "" {
		return fmt.Errorf("--output is required")
	}
	if _, err := os.Stat(inputDir); os.IsNotExist(err) {
		return fmt.Errorf("input directory does not exist: %s", inputDir)
	}

	logger.Info("importing folder tiles into tilestore", "input_dir", inputDir, "output", outputFile)

	tiles, err := scanTilesDirectory(inputDir)
	if err != nil {
		return fmt.Errorf("scan tiles directory: %w", err)
	}
	if len(tiles) == 0 {
		return fmt.Errorf("no tiles found in %s", inputDir)
	}
	logger.Info("found tiles", "count", len(tiles))

	store, err := tilestore.Open(outputFile)
	if err != nil {
		return fmt.Errorf("open tilestore: %w", err)
	}
	defer store.Close()

	for i, t := range tiles {
		entry := tilestore.Entry{Zoom: t.z, X: uint32(t.x), Y: uint32(t.y)}

		if t.svgPath != "" {
			entry.SVG, err = os.ReadFile(t.svgPath)
			if err != nil {
				logger.Error("failed to read tile svg", "path", t.svgPath, "error", err)
				continue
			}
		}
		if t.pngPath != "" {
			entry.PNG, err = os.ReadFile(t.pngPath)
			if err != nil {
				logger.Error("failed to read tile png", "path", t.pngPath, "error", err)
				continue
			}
		}
		if entry.SVG == nil {
			// tilestore requires an SVG column; a PNG-only folder import
			// still needs something to satisfy it.
			entry.SVG = []byte{}
		}

		if err := store.Put(entry); err != nil {
			logger.Error("failed to import tile", "zoom", t.z, "x", t.x, "y", t.y, "error", err)
			continue
		}

		if (i+1)%100 == 0 {
			logger.Info("progress", "imported", i+1, "total", len(tiles))
		}
	}

	if err := store.Flush(); err != nil {
		return fmt.Errorf("flush tilestore: %w", err)
	}

	logger.Info("import complete", "output", outputFile, "tiles", len(tiles))
	return nil
}

type tileFiles struct {
	z, x, y          int
	svgPath, pngPath string
}

var tileFilePattern = regexp.MustCompile(`^z(\d+)_(\d+)_(\d+)(?:@2x)?\.(svg|png)$`)

// scanTilesDirectory walks dir for "tile" command flat-layout output
// (Generator.outputPaths's "z{zoom}_{x}_{y}[@2x].{svg,png}" naming),
// pairing an SVG and PNG sharing the same z/x/y into one tileFiles entry.
func scanTilesDirectory(dir string) ([]tileFiles, error) {
	byKey := make(map[[3]int]*tileFiles)
	var order [][3]int

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		z, x, y, ext, ok := parseTileFilename(path, dir)
		if !ok {
			return nil
		}
		key := [3]int{z, x, y}

		t, ok := byKey[key]
		if !ok {
			t = &tileFiles{z: z, x: x, y: y}
			byKey[key] = t
			order = append(order, key)
		}

		switch ext {
		case "svg":
			t.svgPath = path
		case "png":
			t.pngPath = path
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	tiles := make([]tileFiles, 0, len(order))
	for _, key := range order {
		tiles = append(tiles, *byKey[key])
	}
	return tiles, nil
}

var nestedTileFilePattern = regexp.MustCompile(`^(\d+)(?:@2x)?\.(svg|png)$`)

// parseTileFilename recognizes both Generator.outputPaths layouts: flat
// ("z{z}_{x}_{y}[@2x].{svg,png}" directly under dir) and nested
// ("dir/{z}/{x}/{y}[@2x].{svg,png}").
func parseTileFilename(path, dir string) (z, x, y int, ext string, ok bool) {
	base := filepath.Base(path)

	if m := tileFilePattern.FindStringSubmatch(base); m != nil {
		z, _ = strconv.Atoi(m[1])
		x, _ = strconv.Atoi(m[2])
		y, _ = strconv.Atoi(m[3])
		return z, x, y, m[4], true
	}

	m := nestedTileFilePattern.FindStringSubmatch(base)
	if m == nil {
		return 0, 0, 0, "", false
	}

	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return 0, 0, 0, "", false
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) != 3 {
		return 0, 0, 0, "", false
	}

	zoom, err1 := strconv.Atoi(parts[0])
	xCoord, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return 0, 0, 0, "", false
	}

	y, _ = strconv.Atoi(m[1])
	return zoom, xCoord, y, m[2], true
}
