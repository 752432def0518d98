package raster

import (
	"image"
	"image/color"
	"testing"
)

func TestApplyPaperGrainPreservesTransparencyAndAlpha(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			if x < 8 {
				img.SetNRGBA(x, y, color.NRGBA{R: 100, G: 100, B: 100, A: 255})
			}
		}
	}

	out := ApplyPaperGrain(img, 42, 0.1)

	if c := out.NRGBAAt(0, 0); c.A != 255 {
		t.Errorf("expected opaque pixel to stay opaque, got alpha %d", c.A)
	}
	if c := out.NRGBAAt(10, 0); c.A != 0 {
		t.Errorf("expected transparent pixel to stay transparent, got alpha %d", c.A)
	}
}

func TestApplyPaperGrainZeroStrengthIsNoop(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	out := ApplyPaperGrain(img, 1, 0)
	if out != img {
		t.Errorf("expected a strength of 0 to return the input image unchanged")
	}
}
