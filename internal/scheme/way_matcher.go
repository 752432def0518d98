package scheme

// LineStyle is an SVG presentation style a way matcher contributes
// (e.g. fill/stroke/stroke-width/stroke-dasharray).
type LineStyle struct {
	Style          map[string]string
	Priority       float64
	Layer          int
	ParallelOffset float64
}

// WayMatcher extends Matcher with line-style payload (spec §3).
type WayMatcher struct {
	Matcher
	Style          map[string]string
	Priority       float64
	ParallelOffset float64
}

// RoadMatcher extends Matcher with road-classification payload (spec §3).
type RoadMatcher struct {
	Matcher
	BorderColor  string
	Color        string
	DefaultWidth float64
	Priority     float64
}
