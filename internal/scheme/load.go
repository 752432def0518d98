package scheme

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/MeKo-Tech/mapmachine/internal/mmcolor"
	"github.com/MeKo-Tech/mapmachine/internal/shape"
)

// yamlShapeEntry mirrors ShapeEntry's YAML shape (spec §6): either a
// bare string shape id, or an inline mapping.
type yamlShapeEntry struct {
	Shape            string `yaml:"shape"`
	Color            string `yaml:"color"`
	OffsetX          int    `yaml:"offset_x"`
	OffsetY          int    `yaml:"offset_y"`
	FlipHorizontally bool   `yaml:"flip_horizontal"`
	FlipVertically   bool   `yaml:"flip_vertical"`
	Outline          *bool  `yaml:"outline"`
}

// UnmarshalYAML accepts either a scalar shape id or a full mapping,
// matching the scheme file's mixed shorthand (spec §6).
func (e *yamlShapeEntry) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		e.Shape = value.Value
		return nil
	}
	type plain yamlShapeEntry
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*e = yamlShapeEntry(p)
	return nil
}

func toShapeEntries(in []yamlShapeEntry) []ShapeEntry {
	out := make([]ShapeEntry, len(in))
	for i, e := range in {
		out[i] = ShapeEntry{
			Shape:            e.Shape,
			Color:            e.Color,
			OffsetX:          e.OffsetX,
			OffsetY:          e.OffsetY,
			FlipHorizontally: e.FlipHorizontally,
			FlipVertically:   e.FlipVertically,
			Outline:          e.Outline,
		}
	}
	return out
}

type yamlLocationRestrictions struct {
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`
}

type yamlMatcher struct {
	Tags           map[string]string       `yaml:"tags"`
	Exception      map[string]string        `yaml:"exception"`
	StartZoomLevel *int                     `yaml:"start_zoom_level"`
	ReplaceShapes  *bool                    `yaml:"replace_shapes"`
	Location       yamlLocationRestrictions `yaml:"location_restrictions"`
}

func (m yamlMatcher) toMatcher() Matcher {
	replace := true
	if m.ReplaceShapes != nil {
		replace = *m.ReplaceShapes
	}
	return Matcher{
		Tags:           m.Tags,
		Exception:      m.Exception,
		StartZoomLevel: m.StartZoomLevel,
		ReplaceShapes:  replace,
		LocationRestrictions: LocationRestrictions{
			Include: m.Location.Include,
			Exclude: m.Location.Exclude,
		},
	}
}

type yamlNodeMatcher struct {
	yamlMatcher `yaml:",inline"`
	Draw        *bool             `yaml:"draw"`
	Shapes      []yamlShapeEntry  `yaml:"shapes"`
	OverIcon    []yamlShapeEntry  `yaml:"over_icon"`
	AddShapes   []yamlShapeEntry  `yaml:"add_shapes"`
	UnderIcon   []yamlShapeEntry  `yaml:"under_icon"`
	WithIcon    []yamlShapeEntry  `yaml:"with_icon"`
	SetMainColor string           `yaml:"set_main_color"`
	SetOpacity   *float64         `yaml:"set_opacity"`
}

type yamlWayMatcher struct {
	yamlMatcher    `yaml:",inline"`
	Style          map[string]string `yaml:"style"`
	Priority       float64           `yaml:"priority"`
	ParallelOffset float64           `yaml:"parallel_offset"`
}

type yamlRoadMatcher struct {
	yamlMatcher  `yaml:",inline"`
	BorderColor  string  `yaml:"border_color"`
	Color        string  `yaml:"color"`
	DefaultWidth float64 `yaml:"default_width"`
	Priority     float64 `yaml:"priority"`
}

// yamlScheme is the top-level scheme YAML document shape (spec §6).
type yamlScheme struct {
	Colors         map[string]string `yaml:"colors"`
	MaterialColors map[string]string `yaml:"material_colors"`

	Node []yamlNodeMatcher `yaml:"node_matchers"`
	Way  []yamlWayMatcher  `yaml:"way_matchers"`
	Road []yamlRoadMatcher `yaml:"road_matchers"`
	Area []yamlMatcher     `yaml:"area_tags"`

	KeysToWrite   []string          `yaml:"keys_to_write"`
	PrefixToWrite []string          `yaml:"prefix_to_write"`
	KeysToSkip    []string          `yaml:"keys_to_skip"`
	PrefixToSkip  []string          `yaml:"prefix_to_skip"`
	TagsToSkip    map[string]string `yaml:"tags_to_skip"`
}

func toSet(items []string) map[string]struct{} {
	out := make(map[string]struct{}, len(items))
	for _, k := range items {
		out[k] = struct{}{}
	}
	return out
}

// Load parses a scheme YAML document (spec §6) into a compiled Scheme,
// wiring in an already-extracted shape library.
func Load(data []byte, shapes *shape.ShapeExtractor) (*Scheme, error) {
	var doc yamlScheme
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing scheme: %w", err)
	}

	s := &Scheme{
		Colors:         mmcolor.NewPalette(doc.Colors),
		MaterialColors: mmcolor.NewPalette(doc.MaterialColors),
		Shapes:         shapes,
		KeysToWrite:    toSet(doc.KeysToWrite),
		PrefixToWrite:  doc.PrefixToWrite,
		KeysToSkip:     toSet(doc.KeysToSkip),
		PrefixToSkip:   doc.PrefixToSkip,
		TagsToSkip:     doc.TagsToSkip,
	}

	for _, n := range doc.Node {
		draw := true
		if n.Draw != nil {
			draw = *n.Draw
		}
		s.NodeMatchers = append(s.NodeMatchers, NodeMatcher{
			Matcher:      n.toMatcher(),
			Draw:         draw,
			Shapes:       toShapeEntries(n.Shapes),
			OverIcon:     toShapeEntries(n.OverIcon),
			AddShapes:    toShapeEntries(n.AddShapes),
			UnderIcon:    toShapeEntries(n.UnderIcon),
			WithIcon:     toShapeEntries(n.WithIcon),
			SetMainColor: n.SetMainColor,
			SetOpacity:   n.SetOpacity,
		})
	}

	for _, w := range doc.Way {
		s.WayMatchers = append(s.WayMatchers, WayMatcher{
			Matcher:        w.toMatcher(),
			Style:          w.Style,
			Priority:       w.Priority,
			ParallelOffset: w.ParallelOffset,
		})
	}

	for _, r := range doc.Road {
		s.RoadMatchers = append(s.RoadMatchers, RoadMatcher{
			Matcher:      r.toMatcher(),
			BorderColor:  r.BorderColor,
			Color:        r.Color,
			DefaultWidth: r.DefaultWidth,
			Priority:     r.Priority,
		})
	}

	for _, a := range doc.Area {
		s.AreaMatchers = append(s.AreaMatchers, a.toMatcher())
	}

	return s, nil
}
