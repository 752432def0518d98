package shape

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// inkscapeGeneratedID matches the standard Inkscape-generated path id
// pattern ("path1234", "path12-3"), which the extractor must skip since
// those paths are sketch/guide geometry, not named shapes.
var inkscapeGeneratedID = regexp.MustCompile(`^path[0-9]+(-[0-9]+)?$`)

// firstMoveTo extracts the first "M x y" (or "m x y") pair from an SVG
// path data string.
var firstMoveTo = regexp.MustCompile(`[Mm]\s*(-?[0-9.]+)[ ,]\s*(-?[0-9.]+)`)

// ShapeExtractor walks an SVG library file and a nested JSON config to
// build the shape catalog (spec §4.2).
type ShapeExtractor struct {
	Shapes map[string]Shape
}

// shapeDescriptor is one leaf of the (possibly nested) icon
// configuration JSON (spec §6).
type shapeDescriptor struct {
	Name       string   `json:"name"`
	Emoji      string   `json:"emoji"`
	IsPart     bool     `json:"is_part"`
	Directed   string   `json:"directed"` // "left" | "right" | ""
	Categories []string `json:"categories"`
}

// ExtractShapes parses svgData (an SVG document) and configData (the
// nested icon-metadata JSON) into a ShapeExtractor's shape catalog.
// Default shapes ("default", "default_small") must be present in the
// SVG or ExtractShapes returns an error — looking up an unknown shape
// id downstream is a programmer error (spec §4.2 UnknownShape), not a
// recoverable one, so we fail fast here instead.
func ExtractShapes(svgData, configData []byte) (*ShapeExtractor, error) {
	descriptors, err := flattenConfig(configData)
	if err != nil {
		return nil, fmt.Errorf("invalid icon config: %w", err)
	}

	paths, err := extractPaths(svgData)
	if err != nil {
		return nil, fmt.Errorf("invalid shape SVG: %w", err)
	}

	shapes := make(map[string]Shape, len(paths))
	for id, path := range paths {
		if inkscapeGeneratedID.MatchString(id) {
			continue
		}
		if isSketchElement(path) {
			continue
		}

		offX, offY := gridOffset(path.d)

		s := Shape{
			ID:      id,
			Path:    path.d,
			OffsetX: offX,
			OffsetY: offY,
		}

		if desc, ok := descriptors[id]; ok {
			s.Name = desc.desc.Name
			s.IsPart = desc.desc.IsPart
			s.Group = desc.group
			if desc.desc.Directed == "left" || desc.desc.Directed == "right" {
				right := desc.desc.Directed == "right"
				s.IsRightDirected = &right
			}
			if desc.desc.Emoji != "" {
				s.Emojis = map[string]struct{}{desc.desc.Emoji: {}}
			}
			if len(desc.desc.Categories) > 0 {
				s.Categories = make(map[string]struct{}, len(desc.desc.Categories))
				for _, c := range desc.desc.Categories {
					s.Categories[c] = struct{}{}
				}
			}
		}

		shapes[id] = s
	}

	for _, required := range []string{DefaultShapeID, DefaultSmallShapeID} {
		if _, ok := shapes[required]; !ok {
			return nil, fmt.Errorf("shape library missing required shape %q", required)
		}
	}

	return &ShapeExtractor{Shapes: shapes}, nil
}

// Get looks up a shape by id. Per spec §4.2, an unknown id is a
// programmer error once the library is validated at load time, so this
// panics rather than returning an error. scheme.Load does not check the
// shape ids its matchers name (the validate-scheme command does), so a
// scheme naming an id missing from the library panics here when that
// matcher fires.
func (e *ShapeExtractor) Get(id string) Shape {
	s, ok := e.Shapes[id]
	if !ok {
		panic(fmt.Sprintf("unknown shape id %q", id))
	}
	return s
}

// gridOffset derives a shape's offset from the first M/m coordinate,
// aligned to a 16px grid: offset = -(floor(v/16)*16 + 8).
func gridOffset(pathData string) (int, int) {
	m := firstMoveTo.FindStringSubmatch(pathData)
	if m == nil {
		return 0, 0
	}
	x, _ := strconv.ParseFloat(m[1], 64)
	y, _ := strconv.ParseFloat(m[2], 64)
	return -gridAlign(x), -gridAlign(y)
}

func gridAlign(v float64) int {
	return int(math.Floor(v/16))*16 + 8
}

type svgPath struct {
	id    string
	d     string
	style string
	fill  string
	opacity string
}

// isSketchElement rejects obvious sketch/guide paths: stroke-only,
// opacity 0.2, or blue/red fills (spec §4.2).
func isSketchElement(p svgPath) bool {
	style := strings.ToLower(p.style)
	if strings.Contains(style, "opacity:0.2") || p.opacity == "0.2" {
		return true
	}
	if strings.Contains(style, "fill:none") && strings.Contains(style, "stroke:") {
		return true
	}
	fill := strings.ToLower(p.fill)
	if fill == "#0000ff" || fill == "#ff0000" || fill == "blue" || fill == "red" {
		return true
	}
	return false
}

// extractPaths pull-parses an SVG document for every <path id=...> that
// carries path data, without constructing a full DOM.
func extractPaths(svgData []byte) (map[string]svgPath, error) {
	decoder := xml.NewDecoder(bytes.NewReader(svgData))
	paths := make(map[string]svgPath)

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "path" {
			continue
		}

		var p svgPath
		for _, attr := range start.Attr {
			switch attr.Name.Local {
			case "id":
				p.id = attr.Value
			case "d":
				p.d = attr.Value
			case "style":
				p.style = attr.Value
			case "fill":
				p.fill = attr.Value
			case "opacity":
				p.opacity = attr.Value
			}
		}
		if p.id == "" || p.d == "" {
			continue
		}
		paths[p.id] = p
	}

	return paths, nil
}

type configEntry struct {
	desc  shapeDescriptor
	group string
}

// flattenConfig walks a nested shape-descriptor JSON, returning a flat
// id->descriptor map. Nested keys form the descriptor's group path
// (spec §3), joined with "/".
func flattenConfig(data []byte) (map[string]configEntry, error) {
	if len(data) == 0 {
		return map[string]configEntry{}, nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	out := make(map[string]configEntry)
	flattenInto(raw, "", out)
	return out, nil
}

func flattenInto(raw map[string]json.RawMessage, group string, out map[string]configEntry) {
	for key, val := range raw {
		var desc shapeDescriptor
		if err := json.Unmarshal(val, &desc); err == nil && looksLikeDescriptor(val) {
			out[key] = configEntry{desc: desc, group: group}
			continue
		}

		var nested map[string]json.RawMessage
		if err := json.Unmarshal(val, &nested); err == nil {
			childGroup := key
			if group != "" {
				childGroup = group + "/" + key
			}
			flattenInto(nested, childGroup, out)
		}
	}
}

// looksLikeDescriptor distinguishes a leaf descriptor object from a
// nested group object by checking for any of the descriptor's own keys.
func looksLikeDescriptor(val json.RawMessage) bool {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(val, &probe); err != nil {
		return false
	}
	for _, k := range []string{"name", "emoji", "is_part", "directed", "categories"} {
		if _, ok := probe[k]; ok {
			return true
		}
	}
	return false
}
