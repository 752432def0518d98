// Package feature implements the small standalone point features the
// painter draws in addition to icons: tree crowns/trunks, impact
// craters, and camera/view direction gradient sectors (spec §4.6).
package feature

import "github.com/MeKo-Tech/mapmachine/internal/vector"

// GradientStop is one offset/opacity pair in a radial gradient.
type GradientStop struct {
	Offset  float64
	Color   string
	Opacity float64
}

// RadialGradient describes an SVG radial gradient a painter defines
// before filling an element with it.
type RadialGradient struct {
	Center vector.Vector
	Radius float64
	Stops  []GradientStop
}

// Element is one drawable shape these features emit: a filled circle
// or a gradient-filled path, kept backend-neutral like internal/road's
// DrawElement so the painter package owns all SVG emission.
type Element struct {
	Kind     string // "circle" or "path"
	Center   vector.Vector
	Radius   float64
	Path     string
	Fill     string
	Opacity  float64
	Gradient *RadialGradient
}
