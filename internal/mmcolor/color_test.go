package mmcolor

import "testing"

func TestParseHex(t *testing.T) {
	c, ok := ParseHex("#FF8000")
	if !ok {
		t.Fatal("expected valid hex to parse")
	}
	if c.R != 0xFF || c.G != 0x80 || c.B != 0x00 {
		t.Errorf("unexpected components: %+v", c)
	}

	if _, ok := ParseHex("not-a-color"); ok {
		t.Error("expected malformed hex to fail")
	}
	if _, ok := ParseHex("FF8000"); !ok {
		t.Error("expected hex without leading # to parse")
	}
}

func TestHexRoundTrip(t *testing.T) {
	c := RGB{R: 18, G: 52, B: 86}
	s := c.Hex()
	parsed, ok := ParseHex(s)
	if !ok || parsed != c {
		t.Errorf("Hex/ParseHex round trip failed: %s -> %+v", s, parsed)
	}
}

func TestIsBright(t *testing.T) {
	if !IsBright(RGB{R: 255, G: 255, B: 255}) {
		t.Error("white should be bright")
	}
	if IsBright(RGB{R: 0, G: 0, B: 0}) {
		t.Error("black should not be bright")
	}
}

func TestDarkenReducesLuminance(t *testing.T) {
	c := RGB{R: 200, G: 200, B: 200}
	darker := Darken(c, 0.5)
	if darker.R >= c.R {
		t.Errorf("expected darken to reduce luminance, got %+v from %+v", darker, c)
	}
}

func TestGradientEndpoints(t *testing.T) {
	from := RGB{R: 0, G: 0, B: 0}
	to := RGB{R: 255, G: 255, B: 255}
	if g := Gradient(from, to, 0); g != from {
		t.Errorf("Gradient(0) should equal from, got %+v", g)
	}
	if g := Gradient(from, to, 1); g != to {
		t.Errorf("Gradient(1) should equal to, got %+v", g)
	}
}

func TestGradientClampsOutOfRangeT(t *testing.T) {
	from := RGB{R: 0, G: 0, B: 0}
	to := RGB{R: 100, G: 100, B: 100}
	if g := Gradient(from, to, -1); g != from {
		t.Errorf("t<0 should clamp to from, got %+v", g)
	}
	if g := Gradient(from, to, 2); g != to {
		t.Errorf("t>1 should clamp to to, got %+v", g)
	}
}

func TestGradientScaleAcrossStops(t *testing.T) {
	colors := []RGB{{R: 0}, {R: 100}, {R: 200}}
	if g := GradientScale(colors, 0); g != colors[0] {
		t.Errorf("expected first stop at t=0, got %+v", g)
	}
	if g := GradientScale(colors, 1); g != colors[2] {
		t.Errorf("expected last stop at t=1, got %+v", g)
	}
	if g := GradientScale(colors, 0.5); g != colors[1] {
		t.Errorf("expected middle stop at t=0.5, got %+v", g)
	}
}

func TestGradientScaleSingleColor(t *testing.T) {
	colors := []RGB{{R: 42}}
	if g := GradientScale(colors, 0.7); g != colors[0] {
		t.Errorf("single-color scale should always return that color, got %+v", g)
	}
}

func TestPaletteLookupVsGet(t *testing.T) {
	p := NewPalette(map[string]string{"default": "#000000", "water": "#8EC8E8"})

	if _, ok := p.Lookup("water"); !ok {
		t.Error("expected water to be present")
	}
	if _, ok := p.Lookup("not_a_color"); ok {
		t.Error("Lookup should not fall back for unknown names")
	}

	got := p.Get("not_a_color")
	want, _ := p.Lookup("default")
	if got != want {
		t.Errorf("Get should fall back to default for unknown names, got %+v want %+v", got, want)
	}
}

func TestNewPaletteEnsuresDefault(t *testing.T) {
	p := NewPalette(map[string]string{"water": "#8EC8E8"})
	if _, ok := p.Lookup("default"); !ok {
		t.Error("NewPalette should synthesize a default entry when none is given")
	}
}

func TestNewPaletteSkipsInvalidEntries(t *testing.T) {
	p := NewPalette(map[string]string{"default": "#000000", "bad": "not-a-hex"})
	if _, ok := p.Lookup("bad"); ok {
		t.Error("expected invalid palette entry to be skipped")
	}
}
