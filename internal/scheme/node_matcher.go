package scheme

// ShapeEntry is one shape reference inside a matcher's shapes/
// over_icon/add_shapes/with_icon list: either a bare shape id or a
// full specification (spec §6).
type ShapeEntry struct {
	Shape            string
	Color            string
	OffsetX, OffsetY int
	FlipHorizontally bool
	FlipVertically   bool
	Outline          *bool // nil means "use spec default (true)"
}

// NodeMatcher extends Matcher with icon-resolution actions (spec §3).
type NodeMatcher struct {
	Matcher

	Draw bool // defaults to true when absent from YAML

	Shapes       []ShapeEntry
	OverIcon     []ShapeEntry
	AddShapes    []ShapeEntry
	UnderIcon    []ShapeEntry // doc/icon-grid hint only; stored, unused by core resolution
	WithIcon     []ShapeEntry // doc/icon-grid hint only; stored, unused by core resolution
	SetMainColor string
	SetOpacity   *float64
}
