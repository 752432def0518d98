package raster

import (
	"bytes"
	"image/png"
	"testing"
)

func TestRasterizeFillsRectAndPath(t *testing.T) {
	doc := `<svg width="10" height="10">` +
		`<rect x="0" y="0" width="10" height="10" style="fill:#FFFFFF"/>` +
		`<path d="M 1,1 L 8,1 L 8,8 L 1,8 Z" style="fill:#000000"/>` +
		`</svg>`

	r := NewVectorRasterizer()
	data, err := r.Rasterize([]byte(doc))
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode output png: %v", err)
	}
	if img.Bounds().Dx() != 10 || img.Bounds().Dy() != 10 {
		t.Fatalf("unexpected image size %v", img.Bounds())
	}

	cr, cg, cb, _ := img.At(5, 5).RGBA()
	if cr != 0 || cg != 0 || cb != 0 {
		t.Errorf("expected the inner black square at (5,5), got rgb(%d,%d,%d)", cr>>8, cg>>8, cb>>8)
	}
	cr, cg, cb, _ = img.At(0, 0).RGBA()
	if cr>>8 != 255 || cg>>8 != 255 || cb>>8 != 255 {
		t.Errorf("expected the white background at (0,0), got rgb(%d,%d,%d)", cr>>8, cg>>8, cb>>8)
	}
}

func TestRasterizeSkipsIconGlyphsAndText(t *testing.T) {
	doc := `<svg width="4" height="4">` +
		`<path d="M0,0 L2,2" transform="translate(1,1)" fill="#FF0000"/>` +
		`<text x="1" y="1" style="fill:#FF0000">hi</text>` +
		`</svg>`

	r := NewVectorRasterizer()
	data, err := r.Rasterize([]byte(doc))
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			r, g, b, a := img.At(x, y).RGBA()
			if r != 0 || g != 0 || b != 0 || a != 0 {
				t.Fatalf("expected a fully transparent canvas (icon/text skipped), got pixel (%d,%d)=%v", x, y, []uint32{r, g, b, a})
			}
		}
	}
}

func TestRasterizeCircleViaArcPath(t *testing.T) {
	doc := `<svg width="20" height="20">` +
		`<path d="M 15,10 A 5,5 0 1,0 5,10 A 5,5 0 1,0 15,10 Z" style="fill:#00FF00"/>` +
		`</svg>`

	r := NewVectorRasterizer()
	data, err := r.Rasterize([]byte(doc))
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	cr, cg, cb, ca := img.At(10, 10).RGBA()
	if ca == 0 {
		t.Fatalf("expected the circle's center to be filled, got transparent")
	}
	if cr != 0 || cg>>8 != 255 || cb != 0 {
		t.Errorf("expected green at circle center, got rgb(%d,%d,%d)", cr>>8, cg>>8, cb>>8)
	}
}

func TestParsePathDataRejectsUnsupportedCommand(t *testing.T) {
	if _, err := parsePathData("M 0,0 Q 1,1 2,2"); err == nil {
		t.Fatalf("expected an error for an unsupported Q command")
	}
}

func TestParsePathDataStraightSquare(t *testing.T) {
	subpaths, err := parsePathData("M 0,0 L 10,0 L 10,10 L 0,10 Z")
	if err != nil {
		t.Fatalf("parsePathData: %v", err)
	}
	if len(subpaths) != 1 {
		t.Fatalf("expected 1 subpath, got %d", len(subpaths))
	}
	if !subpaths[0].Closed {
		t.Errorf("expected the square subpath to be closed")
	}
	if len(subpaths[0].Points) != 4 {
		t.Errorf("expected 4 points, got %d", len(subpaths[0].Points))
	}
}
