package scheme

import (
	"sort"
	"strings"

	"github.com/MeKo-Tech/mapmachine/internal/mmcolor"
	"github.com/MeKo-Tech/mapmachine/internal/shape"
)

// Scheme is the compiled, ordered rule set plus palettes and
// writable/skippable key sets (spec §3).
type Scheme struct {
	NodeMatchers []NodeMatcher
	WayMatchers  []WayMatcher
	RoadMatchers []RoadMatcher
	AreaMatchers []Matcher

	Colors         *mmcolor.Palette
	MaterialColors *mmcolor.Palette

	KeysToWrite   map[string]struct{}
	PrefixToWrite []string
	KeysToSkip    map[string]struct{}
	PrefixToSkip  []string
	TagsToSkip    map[string]string

	Shapes *shape.ShapeExtractor

	// cache is the tag-hash icon-set cache (spec §4.3, §9 "cache key is
	// order-sensitive"). Per spec §5, a Scheme is not safe to share
	// across goroutines unless callers give each worker its own Clone()
	// (see scheme.Clone) — we deliberately do not add a mutex here so a
	// single Scheme stays usable without synchronization overhead in the
	// common single-threaded-per-render case.
	cache map[string]cachedIconSet
}

type cachedIconSet struct {
	icons    shape.IconSet
	priority int
}

// Clone returns a Scheme sharing all immutable rule/palette state but
// with its own empty tag-hash cache, for safe per-goroutine use (spec §5).
func (s *Scheme) Clone() *Scheme {
	clone := *s
	clone.cache = make(map[string]cachedIconSet)
	return &clone
}

// TagHash builds the cache key "k1,k2,…:v1,v2,…" from keys in the order
// given, so the same tags listed in a different key order give a
// different key. GetIcon passes the keys sorted, so identical tag sets
// always share one cache entry.
func TagHash(keys []string, tags map[string]string) string {
	var k, v strings.Builder
	for i, key := range keys {
		if i > 0 {
			k.WriteByte(',')
			v.WriteByte(',')
		}
		k.WriteString(key)
		v.WriteString(tags[key])
	}
	return k.String() + ":" + v.String()
}

// IsNoDrawable reports whether a key is no-drawable (spec §4.3): it is in
// keys_to_write or keys_to_skip, starts with a write or skip prefix, or
// is a key of tags_to_skip (the tag value is not compared). Keys that
// IsWritable accepts are therefore no-drawable as well.
func (s *Scheme) IsNoDrawable(key string) bool {
	if _, ok := s.KeysToWrite[key]; ok {
		return true
	}
	if _, ok := s.KeysToSkip[key]; ok {
		return true
	}
	for _, p := range s.PrefixToWrite {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	for _, p := range s.PrefixToSkip {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	if _, ok := s.TagsToSkip[key]; ok {
		return true
	}
	return false
}

// IsWritable reports whether a key's value should become a text label:
// in keys_to_write or prefixed by a write prefix, and not otherwise
// skipped (spec §4.3).
func (s *Scheme) IsWritable(key string) bool {
	if _, ok := s.KeysToSkip[key]; ok {
		return false
	}
	for _, p := range s.PrefixToSkip {
		if strings.HasPrefix(key, p) {
			return false
		}
	}
	if _, ok := s.TagsToSkip[key]; ok {
		return false
	}

	if _, ok := s.KeysToWrite[key]; ok {
		return true
	}
	for _, p := range s.PrefixToWrite {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	return false
}

// IsArea reports whether tags mark an area per the area_tags matchers
// (spec §4.3 is_area).
func (s *Scheme) IsArea(tags map[string]string, zoom int) bool {
	for _, m := range s.AreaMatchers {
		if ok, _ := m.Matches(tags, zoom, false, ""); ok {
			return true
		}
	}
	return false
}

// GetStyle returns every way line style matching tags, in matcher
// order (spec §4.3: multiple styles compose for a single way).
func (s *Scheme) GetStyle(tags map[string]string, zoom int) []LineStyle {
	var styles []LineStyle
	for i, m := range s.WayMatchers {
		ok, captures := m.Matches(tags, zoom, false, "")
		if !ok {
			continue
		}
		style := make(map[string]string, len(m.Style))
		for k, v := range m.Style {
			style[k] = ApplyCaptures(v, captures)
		}
		priority := m.Priority
		if priority == 0 {
			priority = float64(len(s.WayMatchers) - i)
		}
		styles = append(styles, LineStyle{Style: style, Priority: priority, ParallelOffset: m.ParallelOffset})
	}
	return styles
}

// GetRoad returns the first matching road matcher, or ok=false.
func (s *Scheme) GetRoad(tags map[string]string, zoom int) (RoadMatcher, bool) {
	for _, m := range s.RoadMatchers {
		if ok, _ := m.Matches(tags, zoom, false, ""); ok {
			return m, true
		}
	}
	return RoadMatcher{}, false
}

// sortedKeys returns tags' keys sorted, used to build a stable
// TagHash cache key when the caller has no preexisting key order.
func sortedKeys(tags map[string]string) []string {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GetIcon resolves tags into an (IconSet, priority), walking
// node_matchers in order and caching by tag hash (spec §4.3). zoom and
// countryCode gate start_zoom_level/location_restrictions; ignoreLevel
// lets callers (e.g. icon-grid generation) bypass the zoom gate.
func (s *Scheme) GetIcon(tags map[string]string, zoom int, countryCode string, ignoreLevel bool) (shape.IconSet, int) {
	key := TagHash(sortedKeys(tags), tags)
	if s.cache == nil {
		s.cache = make(map[string]cachedIconSet)
	}
	if cached, ok := s.cache[key]; ok {
		return cached.icons, cached.priority
	}

	icons, priority := s.resolveIcon(tags, zoom, countryCode, ignoreLevel)
	s.cache[key] = cachedIconSet{icons: icons, priority: priority}
	return icons, priority
}

func (s *Scheme) resolveIcon(tags map[string]string, zoom int, countryCode string, ignoreLevel bool) (shape.IconSet, int) {
	result := shape.NewIconSet()
	priority := 0
	mainColorOverride := ""
	var opacity *float64

	resolveEntries := func(entries []ShapeEntry, captures map[string]string) shape.Icon {
		icon := shape.Icon{}
		for _, e := range entries {
			id := ApplyCaptures(e.Shape, captures)
			sh := s.Shapes.Get(id)
			spec := shape.NewShapeSpecification(sh, e.Color)
			spec.OffsetX, spec.OffsetY = e.OffsetX, e.OffsetY
			spec.FlipHorizontally = e.FlipHorizontally
			spec.FlipVertically = e.FlipVertically
			if e.Outline != nil {
				spec.UseOutline = *e.Outline
			}
			icon.Specifications = append(icon.Specifications, spec)
		}
		return icon
	}

	for i, m := range s.NodeMatchers {
		ok, captures := m.Matches(tags, zoom, ignoreLevel, countryCode)
		if !ok {
			continue
		}

		for k := range m.Tags {
			result.MarkProcessed(k)
		}

		if !m.Draw && len(m.Shapes) == 0 && len(m.OverIcon) == 0 && len(m.AddShapes) == 0 {
			continue
		}

		if len(m.Shapes) > 0 {
			newIcon := resolveEntries(m.Shapes, captures)
			if m.ReplaceShapes || len(result.MainIcon.Specifications) == 0 {
				result.MainIcon = newIcon
			} else {
				result.MainIcon.Specifications = append(result.MainIcon.Specifications, newIcon.Specifications...)
			}
			priority = len(s.NodeMatchers) - i
		}

		if len(m.OverIcon) > 0 {
			over := resolveEntries(m.OverIcon, captures)
			result.MainIcon.Specifications = append(result.MainIcon.Specifications, over.Specifications...)
		}

		if len(m.AddShapes) > 0 {
			extra := resolveEntries(m.AddShapes, captures)
			for idx := range extra.Specifications {
				if extra.Specifications[idx].Color == "" {
					extra.Specifications[idx].Color = s.Colors.Get("extra").Hex()
				}
			}
			result.ExtraIcons = append(result.ExtraIcons, extra)
		}

		if m.SetMainColor != "" {
			mainColorOverride = ApplyCaptures(m.SetMainColor, captures)
		}
		if m.SetOpacity != nil {
			opacity = m.SetOpacity
		}
	}

	if material := tags["material"]; material != "" {
		if c, ok := s.lookupMaterial(material); ok {
			mainColorOverride = c
		}
	}
	for _, key := range []string{"color", "colour", "building:colour"} {
		if v := tags[key]; v != "" {
			mainColorOverride = v
		}
	}
	for k, v := range tags {
		if v == "" {
			continue
		}
		if strings.HasSuffix(k, ":color") || strings.HasSuffix(k, ":colour") {
			mainColorOverride = v
		}
	}

	if mainColorOverride != "" {
		if c, ok := mmcolor.ParseHex(mainColorOverride); ok {
			result.MainIcon.RecolorMain(c.Hex())
		} else {
			result.MainIcon.RecolorMain(s.Colors.Get(mainColorOverride).Hex())
		}
	}

	if opacity != nil {
		result.MainIcon.SetOpacity(*opacity)
	}

	if len(result.MainIcon.Specifications) == 0 {
		result.MainIcon = shape.Icon{Specifications: []shape.ShapeSpecification{
			shape.NewShapeSpecification(s.Shapes.Get(shape.DefaultShapeID), s.Colors.Get("default").Hex()),
		}}
	}

	return result, priority
}

func (s *Scheme) lookupMaterial(material string) (string, bool) {
	if s.MaterialColors == nil {
		return "", false
	}
	c := s.MaterialColors.Get(material)
	return c.Hex(), true
}
