package tileengine

import (
	"testing"
)

func TestTileString(t *testing.T) {
	tests := []struct {
		tile     Tile
		expected string
	}{
		{Tile{X: 4297, Y: 2754, Zoom: 13}, "z13/4297/2754"},
		{Tile{X: 0, Y: 0, Zoom: 0}, "z0/0/0"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.tile.String(); got != tt.expected {
				t.Errorf("String() = %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestTileBoundsAndFromLatLonRoundTrip(t *testing.T) {
	tile := Tile{X: 4297, Y: 2754, Zoom: 13}
	bounds := tile.Bounds()

	if !bounds.Valid() {
		t.Fatalf("expected a valid tile bounding box, got %v", bounds)
	}

	lat, lon := bounds.Center()
	back := FromLatLon(lat, lon, 13)
	if back != tile {
		t.Errorf("FromLatLon(center of %v) = %v, want the same tile", tile, back)
	}
}

func TestExtendedBoundaryBoxRoundsOutward(t *testing.T) {
	tile := Tile{X: 4297, Y: 2754, Zoom: 13}
	bounds := tile.Bounds()
	extended := tile.ExtendedBoundaryBox()

	if extended.Left >= bounds.Left || extended.Right <= bounds.Right {
		t.Errorf("expected extended box to widen left/right, got bounds=%v extended=%v", bounds, extended)
	}
	if extended.Bottom >= bounds.Bottom || extended.Top <= bounds.Top {
		t.Errorf("expected extended box to widen bottom/top, got bounds=%v extended=%v", bounds, extended)
	}
}

func TestFromBoundaryBoxCoversRequestedArea(t *testing.T) {
	tile := Tile{X: 4297, Y: 2754, Zoom: 13}
	bounds := tile.Bounds()

	grid := FromBoundaryBox(bounds, 13)
	if len(grid.Tiles) == 0 {
		t.Fatalf("expected at least one tile covering the requested box")
	}

	found := false
	for _, tl := range grid.Tiles {
		if tl == tile {
			found = true
		}
	}
	if !found {
		t.Errorf("expected the covering grid to include the originating tile %v, got %v", tile, grid.Tiles)
	}
}

func TestFromBoundaryBoxTwoTileBoxYieldsAtLeastTwoTiles(t *testing.T) {
	// Two adjacent Hanover-area tiles' combined bounds should yield a
	// grid of at least two tiles.
	a := Tile{X: 4297, Y: 2754, Zoom: 13}
	b := Tile{X: 4298, Y: 2754, Zoom: 13}

	boundsA := a.Bounds()
	boundsB := b.Bounds()
	combined := boundsA
	if boundsB.Right > combined.Right {
		combined.Right = boundsB.Right
	}
	if boundsB.Left < combined.Left {
		combined.Left = boundsB.Left
	}

	grid := FromBoundaryBox(combined, 13)
	if len(grid.Tiles) < 2 {
		t.Fatalf("expected at least 2 tiles for a two-tile-wide box, got %d", len(grid.Tiles))
	}
}

func TestParseZoomLevels(t *testing.T) {
	tests := []struct {
		name    string
		spec    string
		want    []int
		wantErr bool
	}{
		{name: "singleton", spec: "17", want: []int{17}},
		{name: "list", spec: "16,17,18", want: []int{16, 17, 18}},
		{name: "range", spec: "16-18", want: []int{16, 17, 18}},
		{name: "mixture", spec: "15,16-18,20", want: []int{15, 16, 17, 18, 20}},
		{name: "duplicate entries dedup", spec: "16,16-17", want: []int{16, 17}},
		{name: "zoom above max rejected", spec: "21", wantErr: true},
		{name: "inverted range rejected", spec: "18-16", wantErr: true},
		{name: "garbage rejected", spec: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseZoomLevels(tt.spec)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected an error for spec %q, got %v", tt.spec, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error for spec %q: %v", tt.spec, err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ParseZoomLevels(%q) = %v, want %v", tt.spec, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("ParseZoomLevels(%q)[%d] = %d, want %d", tt.spec, i, got[i], tt.want[i])
				}
			}
		})
	}
}
