package cmd

import (
	"os"
	"path/filepath"
	"testing"
)

func TestScanTilesDirectoryFlat(t *testing.T) {
	dir := t.TempDir()
	write := func(name string) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	write("z5_1_2.svg")
	write("z5_1_2.png")
	write("z5_1_2@2x.png")
	write("not_a_tile.txt")

	tiles, err := scanTilesDirectory(dir)
	if err != nil {
		t.Fatalf("scanTilesDirectory: %v", err)
	}
	if len(tiles) != 1 {
		t.Fatalf("expected 1 tile (z5_1_2), got %d: %+v", len(tiles), tiles)
	}
	tile := tiles[0]
	if tile.z != 5 || tile.x != 1 || tile.y != 2 {
		t.Errorf("unexpected tile coords: %+v", tile)
	}
	if tile.svgPath == "" || tile.pngPath == "" {
		t.Errorf("expected both svg and png paths populated: %+v", tile)
	}
}

func TestScanTilesDirectoryNested(t *testing.T) {
	dir := t.TempDir()
	nestedDir := filepath.Join(dir, "7", "12")
	if err := os.MkdirAll(nestedDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(nestedDir, "30.svg"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	tiles, err := scanTilesDirectory(dir)
	if err != nil {
		t.Fatalf("scanTilesDirectory: %v", err)
	}
	if len(tiles) != 1 {
		t.Fatalf("expected 1 tile, got %d", len(tiles))
	}
	tile := tiles[0]
	if tile.z != 7 || tile.x != 12 || tile.y != 30 {
		t.Errorf("unexpected tile coords: %+v", tile)
	}
}
