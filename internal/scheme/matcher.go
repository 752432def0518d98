// Package scheme implements the tag-to-style resolver (spec §4.3): the
// ordered, declarative matchers that map OSM tag dictionaries to icon
// sets, line styles, road classifications, colors, and writable/skippable
// text label keys.
package scheme

import (
	"regexp"
	"strings"
)

// LocationRestrictions filters a matcher by ISO country code. An
// explicit "world" in Include always includes.
type LocationRestrictions struct {
	Include []string
	Exclude []string
}

func (r LocationRestrictions) allows(countryCode string) bool {
	for _, c := range r.Exclude {
		if c == countryCode {
			return false
		}
	}
	if len(r.Include) == 0 {
		return true
	}
	for _, c := range r.Include {
		if c == "world" || c == countryCode {
			return true
		}
	}
	return false
}

// Matcher is the common pattern-matching base shared by NodeMatcher,
// WayMatcher, and RoadMatcher (spec §3, Design Notes §9: modeled as
// three concrete structs, not inheritance).
type Matcher struct {
	Tags                 map[string]string
	Exception            map[string]string
	StartZoomLevel       *int
	ReplaceShapes        bool
	LocationRestrictions LocationRestrictions
}

// compiledPattern is a matcher tag value compiled once at load time:
// either a literal, the "*" wildcard, or a "^"-prefixed regex.
type compiledPattern struct {
	wildcard bool
	literal  string
	regex    *regexp.Regexp
}

func compilePattern(v string) compiledPattern {
	if v == "*" {
		return compiledPattern{wildcard: true}
	}
	if strings.HasPrefix(v, "^") {
		// The leading "^" anchors the match at the start of the tag
		// value; as with Python's re.match, the rest of the value need
		// not match unless the pattern ends in "$".
		re := regexp.MustCompile(v)
		return compiledPattern{regex: re}
	}
	return compiledPattern{literal: v}
}

// matchPatterns evaluates a pattern mapping against tags. Every key
// must be present and match for the mapping to match as a whole.
// Regex capture groups are recorded as "#k0", "#k1", ... on match.
func matchPatterns(patterns map[string]string, tags map[string]string, captures map[string]string) bool {
	for k, pv := range patterns {
		tagValue, ok := tags[k]
		if !ok {
			return false
		}
		p := compilePattern(pv)
		switch {
		case p.wildcard:
			// always matches if key present
		case p.regex != nil:
			m := p.regex.FindStringSubmatch(tagValue)
			if m == nil {
				return false
			}
			if captures != nil {
				for i, g := range m[1:] {
					captures["#"+k+itoa(i)] = g
				}
			}
		default:
			if tagValue != p.literal {
				return false
			}
		}
	}
	return true
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	digits := []byte{}
	for i > 0 {
		digits = append([]byte{byte('0' + i%10)}, digits...)
		i /= 10
	}
	return string(digits)
}

// Matches reports whether the matcher triggers on tags at the given
// zoom/country context, returning any regex captures. ignoreLevel skips
// the start_zoom_level check (spec §4.3's "unless the caller ignores
// level matching").
func (m Matcher) Matches(tags map[string]string, zoom int, ignoreLevel bool, countryCode string) (bool, map[string]string) {
	if !ignoreLevel && m.StartZoomLevel != nil && zoom < *m.StartZoomLevel {
		return false, nil
	}
	if !m.LocationRestrictions.allows(countryCode) {
		return false, nil
	}

	captures := make(map[string]string)
	if !matchPatterns(m.Tags, tags, captures) {
		return false, nil
	}

	if len(m.Exception) > 0 {
		for k, pv := range m.Exception {
			single := map[string]string{k: pv}
			if matchPatterns(single, tags, nil) {
				return false, nil
			}
		}
	}

	return true, captures
}

// ApplyCaptures substitutes "#k0", "#k1", ... capture placeholders
// literally into a shape id, preserving the original Python
// implementation's literal string-replacement behavior exactly
// (Design Notes §9): downstream matchers observe the substituted id.
func ApplyCaptures(shapeID string, captures map[string]string) string {
	if len(captures) == 0 {
		return shapeID
	}
	out := shapeID
	for k, v := range captures {
		out = strings.ReplaceAll(out, k, v)
	}
	return out
}
