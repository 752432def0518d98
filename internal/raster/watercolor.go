package raster

import (
	"image"
	"image/color"
	"math"

	"github.com/aquilax/go-perlin"
	"github.com/disintegration/gift"
)

// ApplyPaperGrain overlays a Perlin-noise paper-grain texture onto a
// rasterized PNG — an optional cosmetic finish applied after
// Rasterize, not part of the rasterization contract itself. A single
// per-pixel tint perturbation, ported from the teacher lineage's
// watercolor texture post-process (its Perlin-noise generation and
// Gaussian blur, without the rest of that pipeline's layer-mask
// compositing, which this renderer doesn't need).
// strength of 0 is a no-op; typical values are 0.05-0.2.
func ApplyPaperGrain(img *image.NRGBA, seed int64, strength float64) *image.NRGBA {
	if img == nil || strength <= 0 {
		return img
	}

	bounds := img.Bounds()
	noise := generatePerlinNoise(bounds.Dx(), bounds.Dy(), 48, seed)
	noise = gaussianBlur(noise, 1.2)

	out := image.NewNRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := img.NRGBAAt(x, y)
			if c.A == 0 {
				out.SetNRGBA(x, y, c)
				continue
			}
			g := float64(noise.GrayAt(x-bounds.Min.X, y-bounds.Min.Y).Y)
			delta := (g - 128) / 128 * strength * 40
			out.SetNRGBA(x, y, color.NRGBA{
				R: clampChannel(c.R, delta),
				G: clampChannel(c.G, delta),
				B: clampChannel(c.B, delta),
				A: c.A,
			})
		}
	}
	return out
}

func clampChannel(v uint8, delta float64) uint8 {
	n := float64(v) + delta
	if n < 0 {
		return 0
	}
	if n > 255 {
		return 255
	}
	return uint8(n)
}

// generatePerlinNoise renders a grayscale Perlin noise texture, scale
// controlling the frequency of the noise (smaller = more detail).
func generatePerlinNoise(width, height int, scale float64, seed int64) *image.Gray {
	p := perlin.NewPerlin(2.0, 2.0, 3, seed)

	noise := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			val := p.Noise2D(float64(x)/scale, float64(y)/scale)
			normalized := (val + 1.0) / 2.0
			gray := uint8(math.Max(0, math.Min(255, normalized*255)))
			noise.SetGray(x, y, color.Gray{Y: gray})
		}
	}
	return noise
}

// gaussianBlur softens a grayscale mask's edges; sigma controls the
// blur radius (larger = more blur).
func gaussianBlur(img *image.Gray, sigma float32) *image.Gray {
	g := gift.New(gift.GaussianBlur(sigma))
	dst := image.NewGray(g.Bounds(img.Bounds()))
	g.Draw(dst, img)
	return dst
}
