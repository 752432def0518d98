// Package mmcolor implements the color utilities spec §4.l: gradient
// sampling, the brightness test used to choose icon outline color, and
// hex-color parsing with palette fallback. The HSL conversion integer
// math is adapted from internal/mask/colorutil.go, the teacher's only
// existing color-math file, generalized from image-mask blending to
// hex-color gradient sampling.
package mmcolor

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// RGB is an 8-bit-per-channel color.
type RGB struct {
	R, G, B uint8
}

// Hex renders the color as "#RRGGBB".
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// ParseHex parses a "#RRGGBB" or "RRGGBB" string into an RGB. Returns
// ok=false on malformed input.
func ParseHex(s string) (RGB, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return RGB{}, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return RGB{}, false
	}
	return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, true
}

// IsBright reports whether a color is perceptually bright (Y =
// 0.2126R+0.7152G+0.0722B > 0.78125 on a 0..1 scale), the test the
// painter uses to pick a black-vs-white icon outline.
func IsBright(c RGB) bool {
	y := 0.2126*float64(c.R)/255 + 0.7152*float64(c.G)/255 + 0.0722*float64(c.B)/255
	return y > 0.78125
}

// abs, max3, min3, clampU8 mirror internal/mask/colorutil.go's integer
// helpers, reused here for the same HSL round-trip.
func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func max3(a, b, c uint8) uint8 {
	if a < b {
		a = b
	}
	if a < c {
		a = c
	}
	return a
}

func min3(a, b, c uint8) uint8 {
	if a > b {
		a = b
	}
	if a > c {
		a = c
	}
	return a
}

func clampU8(x int) uint8 {
	if x < 0 {
		return 0
	}
	if x > 255 {
		return 255
	}
	return uint8(x)
}

// rgbToHSL converts RGB to HSL; hue in [0..1535], s/l in [0..255].
func rgbToHSL(c RGB) (h uint16, s, l uint8) {
	maxv := max3(c.R, c.G, c.B)
	minv := min3(c.R, c.G, c.B)
	delta := int(maxv) - int(minv)

	sum := int(maxv) + int(minv)
	l = uint8(sum / 2)

	if delta == 0 {
		s = 0
	} else {
		den := 255 - abs(sum-255)
		if den > 0 {
			s = uint8((delta*255 + den/2) / den)
		}
	}

	if delta == 0 {
		return 0, s, l
	}

	switch maxv {
	case c.R:
		h = uint16((int(c.G) - int(c.B)) * 256 / delta)
		if int(c.G) < int(c.B) {
			h += 1536
		}
	case c.G:
		h = uint16(512 + (int(c.B)-int(c.R))*256/delta)
	case c.B:
		h = uint16(1024 + (int(c.R)-int(c.G))*256/delta)
	}
	h %= 1536
	return
}

// hslToRGB converts HSL back to RGB.
func hslToRGB(h uint16, s, l uint8) RGB {
	if s == 0 {
		return RGB{l, l, l}
	}

	L, S := int(l), int(s)
	t := 255 - abs(2*L-255)
	C := (t*S + 127) / 255
	m := L - (C / 2)

	h = h % 1536
	sector := int(h >> 8)
	f := int(h & 0xFF)

	var x int
	if sector&1 == 0 {
		x = (C*f + 127) / 256
	} else {
		x = (C*(256-f) + 127) / 256
	}

	var rp, gp, bp int
	switch sector {
	case 0:
		rp, gp, bp = C, x, 0
	case 1:
		rp, gp, bp = x, C, 0
	case 2:
		rp, gp, bp = 0, C, x
	case 3:
		rp, gp, bp = 0, x, C
	case 4:
		rp, gp, bp = x, 0, C
	case 5:
		rp, gp, bp = C, 0, x
	}

	return RGB{clampU8(rp + m), clampU8(gp + m), clampU8(bp + m)}
}

// Darken returns c with its HSL lightness scaled by factor (e.g. 0.85
// for "85% luminance"), used by buildings to derive a stroke color from
// a fill color (spec §4.5).
func Darken(c RGB, factor float64) RGB {
	h, s, l := rgbToHSL(c)
	newL := clampU8(int(float64(l) * factor))
	return hslToRGB(h, s, newL)
}

// Gradient samples a linear RGB gradient between from and to at
// position t in [0,1] (clamped).
func Gradient(from, to RGB, t float64) RGB {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	lerp := func(a, b uint8) uint8 {
		return uint8(float64(a) + (float64(b)-float64(a))*t)
	}
	return RGB{lerp(from.R, to.R), lerp(from.G, to.G), lerp(from.B, to.B)}
}

// GradientScale samples a multi-stop color scale at position t in
// [0,1] (clamped), interpolating linearly between the two stops t
// falls between. Grounded on original map_machine/color.py's
// get_gradient_color, used by the constructor's time-based drawing
// mode over a 6-stop scale.
func GradientScale(colors []RGB, t float64) RGB {
	if len(colors) == 0 {
		return RGB{}
	}
	if len(colors) == 1 {
		return colors[0]
	}
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	segments := len(colors) - 1
	pos := t * float64(segments)
	index := int(pos)
	if index >= segments {
		index = segments - 1
	}
	local := pos - float64(index)
	return Gradient(colors[index], colors[index+1], local)
}

// Palette is a name->color lookup with a required "default" entry.
// Lookups of an unknown name fall back to default and log a warning
// (spec §7 UnknownColor).
type Palette struct {
	colors map[string]RGB
}

// NewPalette builds a Palette from a name->hex mapping. Entries that
// fail to parse are skipped with a warning.
func NewPalette(raw map[string]string) *Palette {
	p := &Palette{colors: make(map[string]RGB, len(raw))}
	for name, hex := range raw {
		c, ok := ParseHex(hex)
		if !ok {
			slog.Warn("invalid palette color, skipping", "name", name, "hex", hex)
			continue
		}
		p.colors[name] = c
	}
	if _, ok := p.colors["default"]; !ok {
		p.colors["default"] = RGB{R: 0, G: 0, B: 0}
	}
	return p
}

// Lookup looks up name without falling back, for callers (e.g. building
// material-color resolution) that need to distinguish "absent" from
// the default color.
func (p *Palette) Lookup(name string) (RGB, bool) {
	c, ok := p.colors[name]
	return c, ok
}

// Get looks up name, falling back to "default" and logging a warning
// when the name is unknown (spec §7 UnknownColor).
func (p *Palette) Get(name string) RGB {
	if c, ok := p.colors[name]; ok {
		return c
	}
	slog.Warn("unknown color, using default", "name", name)
	return p.colors["default"]
}
