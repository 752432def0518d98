package constructor

import (
	"log/slog"
	"strconv"
	"strings"
)

// ParseLevels parses a "level" tag value ("1;2", "0,5") into its
// individual float values, warning and returning nil on a malformed
// entry (spec §4.6 LevelParseError: treated as "no matching level").
func ParseLevels(value string) []float64 {
	parts := strings.Split(strings.ReplaceAll(value, ",", "."), ";")
	levels := make([]float64, 0, len(parts))
	for _, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			slog.Warn("cannot parse level description", "value", value)
			return nil
		}
		levels = append(levels, f)
	}
	return levels
}

// checkLevelNumber reports whether tags' "level" value contains the
// exact given level (spec §4.6 "Numeric mode").
func checkLevelNumber(tags map[string]string, level float64) bool {
	v, ok := tags["level"]
	if !ok {
		return false
	}
	for _, l := range ParseLevels(v) {
		if l == level {
			return true
		}
	}
	return false
}

// checkLevelOverground reports whether tags describe an overground
// element: every "level" value (if any) is >= 0, and none of
// location/parking/tunnel mark it as underground (spec §4.6).
func checkLevelOverground(tags map[string]string) bool {
	if v, ok := tags["level"]; ok {
		for _, part := range strings.Split(strings.ReplaceAll(v, ",", "."), ";") {
			f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
			if err != nil {
				continue
			}
			if f < 0.0 {
				return false
			}
		}
	}
	return tags["location"] != "underground" &&
		tags["parking"] != "underground" &&
		tags["tunnel"] != "yes"
}
