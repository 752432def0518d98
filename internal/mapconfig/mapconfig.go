// Package mapconfig holds the immutable render parameters threaded
// through the construction and painting passes (spec §4.6/§9): drawing
// mode, building mode, label mode, zoom, level filter, and the handful
// of per-render toggles that would otherwise be loose function
// arguments. Grounded on original map_machine/map_configuration.py,
// bound to CLI flags the way internal/cmd/root.go binds its own
// options via cobra/viper.
package mapconfig

import (
	"fmt"

	"github.com/MeKo-Tech/mapmachine/internal/scheme"
	"github.com/MeKo-Tech/mapmachine/internal/shape"
)

// DrawingMode selects the overall rendering style. Non-Normal modes
// are "wireframe": construction bypasses normal styling entirely.
type DrawingMode string

const (
	DrawingModeNormal DrawingMode = "normal"
	DrawingModeAuthor DrawingMode = "author"
	DrawingModeTime   DrawingMode = "time"
	DrawingModeWhite  DrawingMode = "white"
	DrawingModeBlack  DrawingMode = "black"
)

// IsWireframe reports whether m requires wireframe construction.
func (m DrawingMode) IsWireframe() bool {
	return m != DrawingModeNormal
}

// LabelMode controls how many labels construct_node/the text
// constructor attach to a point.
type LabelMode string

const (
	LabelModeNo      LabelMode = "no"
	LabelModeMain    LabelMode = "main"
	LabelModeAll     LabelMode = "all"
	LabelModeAddress LabelMode = "address"
)

// BuildingMode selects flat or isometric building rendering.
type BuildingMode string

const (
	BuildingModeNo                BuildingMode = "no"
	BuildingModeFlat              BuildingMode = "flat"
	BuildingModeIsometric         BuildingMode = "isometric"
	BuildingModeIsometricNoParts  BuildingMode = "isometric-no-parts"
)

// LevelMode selects the level/`level`-tag filter construct_line and
// construct_node apply before drawing an element (spec §4.6).
//
// "all" and "overground"/"underground" are the named modes; any other
// value is parsed as a single number, and an element matches when one
// of the semicolon-separated values of its `level` tag equals it
// exactly (the spec's "numeric mode").
type LevelMode string

const (
	LevelModeAll         LevelMode = "all"
	LevelModeOverground  LevelMode = "overground"
	LevelModeUnderground LevelMode = "underground"
)

// DarkBackground is the background color used by every drawing mode
// except Normal and Black (spec §4.7).
const DarkBackground = "#111111"

// Configuration is the immutable bundle of render parameters passed
// to the constructor and painter for one render (spec §5 "per-render
// state").
type Configuration struct {
	Scheme *scheme.Scheme

	DrawingMode  DrawingMode
	BuildingMode BuildingMode
	LabelMode    LabelMode
	Level        LevelMode

	ZoomLevel float64
	Overlap   int

	Seed    string
	Country string

	IgnoreLevelMatching bool
	DrawRoofs           bool
	UseBuildingColors   bool
	ShowOverlapped      bool
	ShowTooltips        bool

	Credit     string
	ShowCredit bool

	DrawBackground bool
}

// New returns a Configuration with the original's defaults: normal
// drawing, flat buildings, main labels, overground level filter, zoom
// 18, overlap 12, roofs drawn, background drawn, OSM attribution shown.
func New(sch *scheme.Scheme) Configuration {
	return Configuration{
		Scheme:         sch,
		DrawingMode:    DrawingModeNormal,
		BuildingMode:   BuildingModeFlat,
		LabelMode:      LabelModeMain,
		Level:          LevelModeOverground,
		ZoomLevel:      18.0,
		Overlap:        12,
		Country:        "world",
		DrawRoofs:      true,
		Credit:         "© OpenStreetMap contributors",
		ShowCredit:     true,
		DrawBackground: true,
	}
}

// IsWireframe reports whether the configuration's drawing mode
// bypasses normal styling.
func (c Configuration) IsWireframe() bool {
	return c.DrawingMode.IsWireframe()
}

// BackgroundColor returns the background fill for this configuration,
// or ok=false when the drawing mode leaves it unset (Normal/Black fall
// back to the scheme's own background color).
func (c Configuration) BackgroundColor() (string, bool) {
	if c.DrawingMode == DrawingModeNormal || c.DrawingMode == DrawingModeBlack {
		return "", false
	}
	return DarkBackground, true
}

// GetIcon resolves tags to an (IconSet, priority) pair through the
// configuration's scheme and zoom/country/level settings, the single
// entry point construct_node uses instead of calling Scheme.GetIcon
// directly (spec §4.6).
func (c Configuration) GetIcon(tags map[string]string) (shape.IconSet, int) {
	return c.Scheme.GetIcon(tags, int(c.ZoomLevel), c.Country, c.IgnoreLevelMatching)
}

// String renders the configuration's identity for logging.
func (c Configuration) String() string {
	return fmt.Sprintf("mapconfig(mode=%s buildings=%s zoom=%.1f level=%s)",
		c.DrawingMode, c.BuildingMode, c.ZoomLevel, c.Level)
}
