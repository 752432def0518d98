// Package constructor implements the map constructor (spec §4.6): the
// three-pass walk over OSM ways, multipolygon relations, and nodes
// that turns tagged geometry into the figures, roads, buildings,
// trees/craters, direction sectors, and points the painter draws.
// Grounded on original map_machine/constructor.py, with stage
// sequencing modeled on internal/pipeline/generator.go's orchestration
// shape.
package constructor

import (
	"crypto/sha256"
	"fmt"
	"log/slog"
	"sort"

	"github.com/MeKo-Tech/mapmachine/internal/building"
	"github.com/MeKo-Tech/mapmachine/internal/feature"
	"github.com/MeKo-Tech/mapmachine/internal/figure"
	"github.com/MeKo-Tech/mapmachine/internal/flinger"
	"github.com/MeKo-Tech/mapmachine/internal/mapconfig"
	"github.com/MeKo-Tech/mapmachine/internal/mmcolor"
	"github.com/MeKo-Tech/mapmachine/internal/osm"
	"github.com/MeKo-Tech/mapmachine/internal/point"
	"github.com/MeKo-Tech/mapmachine/internal/road"
	"github.com/MeKo-Tech/mapmachine/internal/scheme"
	"github.com/MeKo-Tech/mapmachine/internal/shape"
	"github.com/MeKo-Tech/mapmachine/internal/text"
	"github.com/MeKo-Tech/mapmachine/internal/vector"
)

// timeColorScale is the 6-stop gradient the "time" drawing mode maps
// element creation time onto (spec §4.6).
var timeColorScale = []mmcolor.RGB{
	mustHex("#581845"), mustHex("#900C3F"), mustHex("#C70039"),
	mustHex("#FF5733"), mustHex("#FFC300"), mustHex("#DAF7A6"),
}

func mustHex(s string) mmcolor.RGB {
	c, ok := mmcolor.ParseHex(s)
	if !ok {
		panic("invalid built-in hex color " + s)
	}
	return c
}

// lineCenter returns the flung geometric center of a node ring: the
// midpoint of its lat/lon bounding box, not its centroid (spec §4.6).
func lineCenter(nodes []*osm.Node, fl flinger.Flinger) vector.Vector {
	var lat, lon osm.MinMax[float64]
	for _, n := range nodes {
		lat.Update(n.Lat)
		lon.Update(n.Lon)
	}
	return fl.Fling((lat.Min+lat.Max)/2, (lon.Min+lon.Max)/2)
}

// getUserColor derives a deterministic per-author color from a
// SHA-256 hash of seed+user, taking its last six hex characters as an
// RGB hex code (spec §4.6); an empty user name always maps to black.
func getUserColor(user, seed string) mmcolor.RGB {
	if user == "" {
		return mmcolor.RGB{}
	}
	sum := sha256.Sum256([]byte(seed + user))
	hexDigest := fmt.Sprintf("%x", sum)
	c, ok := mmcolor.ParseHex(hexDigest[len(hexDigest)-6:])
	if !ok {
		return mmcolor.RGB{}
	}
	return c
}

// getTimeColor maps a unix timestamp onto the time color scale across
// boundaries (spec §4.6); a zero timestamp defaults to the boundary
// maximum, matching an element with no recorded time.
func getTimeColor(timestamp int64, boundaries osm.MinMax[int64]) mmcolor.RGB {
	if timestamp == 0 {
		timestamp = boundaries.Max
	}
	span := boundaries.Max - boundaries.Min
	if span <= 0 {
		return timeColorScale[len(timeColorScale)-1]
	}
	t := float64(timestamp-boundaries.Min) / float64(span)
	return mmcolor.GradientScale(timeColorScale, t)
}

func isCycle(nodes []*osm.Node) bool {
	if len(nodes) < 2 {
		return false
	}
	return nodes[0].ID == nodes[len(nodes)-1].ID
}

// Constructor walks an OSMData store and accumulates the drawable
// collections the painter consumes (spec §4.6).
type Constructor struct {
	data   *osm.Data
	fling  flinger.Flinger
	sch    *scheme.Scheme
	cfg    mapconfig.Configuration
	text   text.Constructor
	level  func(tags map[string]string) bool

	Points           []point.Point
	Figures          []figure.StyledFigure
	Buildings        []building.Building
	Roads            *road.Roads
	Trees            []feature.Tree
	Craters          []feature.Crater
	DirectionSectors []feature.DirectionSector

	Heights map[float64]struct{}
}

// New builds a Constructor bound to data/fl/cfg, resolving the level
// filter closure once up front from cfg.Level (spec §4.6).
func New(data *osm.Data, fl flinger.Flinger, cfg mapconfig.Configuration) *Constructor {
	c := &Constructor{
		data: data, fling: fl, sch: cfg.Scheme, cfg: cfg,
		text:  text.NewConstructor(cfg.Scheme),
		Roads: road.NewRoads(),
		Heights: map[float64]struct{}{
			0.25 / building.BuildingScale: {},
			0.5 / building.BuildingScale:  {},
		},
	}

	switch cfg.Level {
	case mapconfig.LevelModeAll:
		c.level = func(map[string]string) bool { return true }
	case mapconfig.LevelModeOverground:
		c.level = checkLevelOverground
	case mapconfig.LevelModeUnderground:
		c.level = func(tags map[string]string) bool { return !checkLevelOverground(tags) }
	default:
		levelValue := 0.0
		if f, ok := parseFloatQuiet(string(cfg.Level)); ok {
			levelValue = f
		}
		c.level = func(tags map[string]string) bool { return checkLevelNumber(tags, levelValue) }
	}

	return c
}

func parseFloatQuiet(s string) (float64, bool) {
	var f float64
	_, err := fmt.Sscanf(s, "%g", &f)
	return f, err == nil
}

// addBuilding records b and extends the constructor's height set with
// its roof and base heights, used by the painter's isometric band
// ordering (spec §4.6).
func (c *Constructor) addBuilding(b building.Building) {
	c.Buildings = append(c.Buildings, b)
	c.Heights[b.Height] = struct{}{}
	c.Heights[b.MinHeight] = struct{}{}
}

// Construct runs the three passes in order: ways, multipolygon
// relations, then nodes (spec §4.6).
func (c *Constructor) Construct() {
	c.constructWays()
	c.constructRelations()
	c.constructNodes()
}

func (c *Constructor) constructWays() {
	ids := make([]int64, 0, len(c.data.Ways))
	for id := range c.data.Ways {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		way := c.data.Ways[id]
		nodes := c.data.WayNodes(way)
		c.constructLine(way.Tags, way.Author, nil, [][]*osm.Node{nodes})
	}
}

func (c *Constructor) constructRelations() {
	ids := make([]int64, 0, len(c.data.Relations))
	for id := range c.data.Relations {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		rel := c.data.Relations[id]
		if !c.level(rel.Tags) {
			continue
		}
		if rel.Tags["type"] != "multipolygon" {
			continue
		}

		var innerWays, outerWays []*osm.Way
		for _, m := range rel.Members {
			if m.Type != osm.MemberWay {
				continue
			}
			w, ok := c.data.Ways[m.Ref]
			if !ok {
				continue
			}
			switch m.Role {
			case "inner":
				innerWays = append(innerWays, w)
			case "outer":
				outerWays = append(outerWays, w)
			default:
				slog.Warn("unknown relation member role", "role", m.Role)
			}
		}

		if len(outerWays) == 0 {
			continue
		}

		inners := ringsToNodeLists(osm.Glue(innerWays, c.data))
		outers := ringsToNodeLists(osm.Glue(outerWays, c.data))
		c.constructLine(rel.Tags, rel.Author, inners, outers)
	}
}

func ringsToNodeLists(rings []osm.Ring) [][]*osm.Node {
	out := make([][]*osm.Node, len(rings))
	for i, r := range rings {
		out[i] = r.Nodes
	}
	return out
}

// constructLine builds the figures/buildings/roads/points for a single
// way or relation, given its already-glued inner and outer rings
// (spec §4.6).
func (c *Constructor) constructLine(tags map[string]string, author *osm.Author, inners, outers [][]*osm.Node) {
	if len(outers) == 0 || len(outers[0]) == 0 {
		return
	}
	if !c.level(tags) {
		return
	}

	centerPoint := lineCenter(outers[0], c.fling)

	if c.cfg.IsWireframe() {
		color := c.wireframeLineColor(author)
		c.Figures = append(c.Figures, figure.NewStyledFigure(tags, inners, outers, scheme.LineStyle{
			Style: map[string]string{"fill": "none", "stroke": color.Hex(), "stroke-width": "1"},
		}))
		return
	}

	if len(tags) == 0 {
		return
	}

	if _, hasBuilding := tags["building"]; hasBuilding || (c.cfg.BuildingMode == mapconfig.BuildingModeIsometric && hasTag(tags, "building:part")) {
		c.addBuilding(building.NewBuilding(tags, inners, outers, c.fling, c.sch))
	}

	zoom := int(c.cfg.ZoomLevel)
	if roadMatcher, ok := c.sch.GetRoad(tags, zoom); ok {
		c.Roads.Append(road.NewRoad(tags, outers[0], roadMatcher, c.fling, c.sch))
		return
	}

	processed := map[string]struct{}{}

	var recolor *mmcolor.RGB
	if tags["railway"] == "subway" {
		for _, key := range []string{"color", "colour"} {
			if v, ok := tags[key]; ok {
				col := c.sch.Colors.Get(v)
				recolor = &col
				processed[key] = struct{}{}
			}
		}
	}

	lineStyles := c.sch.GetStyle(tags, zoom)

	for _, ls := range lineStyles {
		if recolor != nil {
			restyled := make(map[string]string, len(ls.Style))
			for k, v := range ls.Style {
				restyled[k] = v
			}
			restyled["stroke"] = recolor.Hex()
			ls = scheme.LineStyle{Style: restyled, Priority: ls.Priority, Layer: ls.Layer, ParallelOffset: ls.ParallelOffset}
		}

		c.Figures = append(c.Figures, figure.NewStyledFigure(tags, inners, outers, ls))

		isArea := tags["area"] == "yes" ||
			tags["type"] == "multipolygon" ||
			(isCycle(outers[0]) && tags["area"] != "no" && c.sch.IsArea(tags, zoom))
		if !isArea {
			continue
		}

		iconSet, priority := c.cfg.GetIcon(tags)
		labels := c.text.Construct(tags, processed, c.cfg.LabelMode)
		c.Points = append(c.Points, point.New(iconSet, labels, tags, processed, centerPoint, priority, false, true, c.cfg.ShowTooltips))
	}

	c.addPointForLine(centerPoint, tags)
}

func hasTag(tags map[string]string, key string) bool {
	_, ok := tags[key]
	return ok
}

// addPointForLine places an icon at a way/relation's center regardless
// of whether it resolved to an area fill, so named ways still get a
// label anchor (spec §4.6).
func (c *Constructor) addPointForLine(centerPoint vector.Vector, tags map[string]string) {
	processed := map[string]struct{}{}
	iconSet, priority := c.cfg.GetIcon(tags)
	labels := c.text.Construct(tags, processed, c.cfg.LabelMode)
	c.Points = append(c.Points, point.New(iconSet, labels, tags, processed, centerPoint, priority, false, true, c.cfg.ShowTooltips))
}

func (c *Constructor) wireframeLineColor(author *osm.Author) mmcolor.RGB {
	switch c.cfg.DrawingMode {
	case mapconfig.DrawingModeAuthor:
		user := ""
		if author != nil {
			user = author.User
		}
		return getUserColor(user, c.cfg.Seed)
	case mapconfig.DrawingModeTime:
		var ts int64
		if author != nil {
			ts = author.Timestamp.Unix()
		}
		return getTimeColor(ts, c.data.Time)
	case mapconfig.DrawingModeWhite:
		return mustHex("#666666")
	case mapconfig.DrawingModeBlack:
		return mustHex("#BBBBBB")
	default:
		return c.sch.Colors.Get("default")
	}
}

func (c *Constructor) constructNodes() {
	ids := make([]int64, 0, len(c.data.Nodes))
	for id := range c.data.Nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return c.data.Nodes[ids[i]].Lat > c.data.Nodes[ids[j]].Lat })

	for _, id := range ids {
		c.constructNode(c.data.Nodes[id])
	}
}

func (c *Constructor) constructNode(n *osm.Node) {
	tags := n.Tags
	if len(tags) == 0 {
		return
	}
	if !c.level(tags) {
		return
	}

	processed := map[string]struct{}{}
	flung := c.fling.Fling(n.Lat, n.Lon)

	switch c.cfg.DrawingMode {
	case mapconfig.DrawingModeAuthor, mapconfig.DrawingModeTime:
		var color mmcolor.RGB
		if c.cfg.DrawingMode == mapconfig.DrawingModeAuthor {
			user := ""
			if n.Author != nil {
				user = n.Author.User
			}
			color = getUserColor(user, c.cfg.Seed)
		} else {
			var ts int64
			if n.Author != nil {
				ts = n.Author.Timestamp.Unix()
			}
			color = getTimeColor(ts, c.data.Time)
		}
		dot := c.sch.Shapes.Get(shape.DefaultSmallShapeID)
		spec := shape.NewShapeSpecification(dot, color.Hex())
		icon := shape.Icon{Specifications: []shape.ShapeSpecification{spec}}
		iconSet := shape.IconSet{MainIcon: icon, DefaultIcon: &icon, Processed: map[string]struct{}{}}
		c.Points = append(c.Points, point.New(iconSet, nil, tags, processed, flung, 0, true, false, c.cfg.ShowTooltips))
		return

	case mapconfig.DrawingModeWhite, mapconfig.DrawingModeBlack:
		color := mustHex("#CCCCCC")
		if c.cfg.DrawingMode == mapconfig.DrawingModeBlack {
			color = mustHex("#444444")
		}
		iconSet, priority := c.cfg.GetIcon(tags)
		iconSet.MainIcon.RecolorMain(color.Hex())
		c.Points = append(c.Points, point.New(iconSet, nil, tags, processed, flung, priority, true, true, c.cfg.ShowTooltips))
		return
	}

	iconSet, priority := c.cfg.GetIcon(tags)
	labels := c.text.Construct(tags, processed, c.cfg.LabelMode)

	if tags["natural"] == "tree" && (hasTag(tags, "diameter_crown") || hasTag(tags, "circumference")) {
		c.Trees = append(c.Trees, feature.NewTree(tags, n.Lat, n.Lon, flung))
		return
	}
	if tags["natural"] == "crater" && hasTag(tags, "diameter") {
		c.Craters = append(c.Craters, feature.NewCrater(tags, n.Lat, n.Lon, flung))
		return
	}
	if hasTag(tags, "direction") || hasTag(tags, "camera:direction") {
		c.DirectionSectors = append(c.DirectionSectors, feature.NewDirectionSector(tags, flung))
	}

	c.Points = append(c.Points, point.New(iconSet, labels, tags, processed, flung, priority, true, true, c.cfg.ShowTooltips))
}

// GetSortedFigures returns the constructed figures sorted into
// ascending (layer, priority) paint order (spec §4.6/§4.7).
func (c *Constructor) GetSortedFigures() []figure.StyledFigure {
	sorted := make([]figure.StyledFigure, len(c.Figures))
	copy(sorted, c.Figures)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Less(sorted[j]) })
	return sorted
}
