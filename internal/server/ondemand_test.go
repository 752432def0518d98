package server

import "testing"

func TestParseTilePath(t *testing.T) {
	t.Run("base tile", func(t *testing.T) {
		tile, hiDPI, ok := parseTilePath("/tiles/13/4317/2692.png")
		if !ok {
			t.Fatalf("expected ok")
		}
		if hiDPI {
			t.Fatalf("expected hiDPI=false")
		}
		if tile.String() != "z13/4317/2692" {
			t.Fatalf("unexpected tile: %s", tile.String())
		}
	})

	t.Run("hidpi tile", func(t *testing.T) {
		tile, hiDPI, ok := parseTilePath("/tiles/5/1/2@2x.png")
		if !ok {
			t.Fatalf("expected ok")
		}
		if !hiDPI {
			t.Fatalf("expected hiDPI=true")
		}
		if tile.String() != "z5/1/2" {
			t.Fatalf("unexpected tile: %s", tile.String())
		}
	})

	t.Run("svg tile", func(t *testing.T) {
		tile, _, ok := parseTilePath("/tiles/5/1/2.svg")
		if !ok {
			t.Fatalf("expected ok")
		}
		if tile.String() != "z5/1/2" {
			t.Fatalf("unexpected tile: %s", tile.String())
		}
	})

	t.Run("reject bad extension", func(t *testing.T) {
		_, _, ok := parseTilePath("/tiles/5/1/2.jpg")
		if ok {
			t.Fatalf("expected not ok")
		}
	})

	t.Run("reject other prefix", func(t *testing.T) {
		_, _, ok := parseTilePath("/demo/5/1/2.png")
		if ok {
			t.Fatalf("expected not ok")
		}
	})
}
