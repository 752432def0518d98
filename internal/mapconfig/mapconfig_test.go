package mapconfig

import "testing"

func TestNewDefaults(t *testing.T) {
	c := New(nil)
	if c.IsWireframe() {
		t.Errorf("default drawing mode should not be wireframe")
	}
	if _, ok := c.BackgroundColor(); ok {
		t.Errorf("normal mode should leave background color unset")
	}
}

func TestWireframeBackgroundColor(t *testing.T) {
	c := New(nil)
	c.DrawingMode = DrawingModeAuthor
	if !c.IsWireframe() {
		t.Errorf("author mode should be wireframe")
	}
	color, ok := c.BackgroundColor()
	if !ok || color != DarkBackground {
		t.Errorf("author mode background = (%q, %v), want (%q, true)", color, ok, DarkBackground)
	}
}

func TestBlackModeKeepsNormalBackground(t *testing.T) {
	c := New(nil)
	c.DrawingMode = DrawingModeBlack
	if _, ok := c.BackgroundColor(); ok {
		t.Errorf("black mode should leave background color unset, like normal")
	}
}
