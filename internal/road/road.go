// Package road implements road geometry: lane layout, intersection
// fan-out, and the simple/complex connector shapes roads draw where
// they meet (spec §4.8). It produces draw-ready geometry (paths and
// circles) rather than touching an SVG backend directly, so the
// painter package is free to choose how each element gets emitted.
package road

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/mapmachine/internal/flinger"
	"github.com/MeKo-Tech/mapmachine/internal/mmcolor"
	"github.com/MeKo-Tech/mapmachine/internal/osm"
	"github.com/MeKo-Tech/mapmachine/internal/scheme"
	"github.com/MeKo-Tech/mapmachine/internal/vector"
)

// DefaultLaneWidth is the standard lane width in meters (spec §4.8).
const DefaultLaneWidth = 3.7

// Lane is one lane specification parsed from a road's lanes/width:lanes/
// lanes:forward/lanes:backward tags (spec §4.8).
type Lane struct {
	Width       *float64
	IsForward   *bool
	MinSpeed    *float64
	Turn        string
	Change      string
	Destination string
}

// GetWidth returns the lane's width in pixels at scale, defaulting to
// DefaultLaneWidth when unset.
func (l Lane) GetWidth(scale float64) float64 {
	if l.Width == nil {
		return DefaultLaneWidth * scale
	}
	return *l.Width * scale
}

// DrawElement is one piece of road geometry ready for the painter to
// emit: either a filled/stroked path or a circle.
type DrawElement struct {
	Kind         string // "path" or "circle"
	Path         string
	Center       vector.Vector
	Radius       float64
	Fill, Stroke string
	StrokeWidth  float64
	DashArray    string
	Opacity      float64
}

// RoadPart is one segment of a road's polyline, carrying the
// perpendicular left/right offset vectors and the connection points an
// Intersection fills in (spec §4.8).
type RoadPart struct {
	Point1, Point2 vector.Vector
	Lanes          []Lane
	Width          float64
	LeftOffset     float64
	RightOffset    float64
	Turned         vector.Vector
	RightVector    vector.Vector
	LeftVector     vector.Vector

	RightConnection  *vector.Vector
	LeftConnection   *vector.Vector
	RightProjection  *vector.Vector
	LeftProjection   *vector.Vector
	LeftOuter        *vector.Vector
	RightOuter       *vector.Vector
	PointA           *vector.Vector
	PointMiddle      *vector.Vector
}

// NewRoadPart builds a part between two flung points with the given
// lane set and pixel scale.
func NewRoadPart(p1, p2 vector.Vector, lanes []Lane, scale float64) *RoadPart {
	width := 1.0
	if len(lanes) > 0 {
		width = 0
		for _, l := range lanes {
			width += l.GetWidth(scale)
		}
	}

	turned := vector.Norm(vector.TurnByAngle(p2.Sub(p1), math.Pi/2))

	return &RoadPart{
		Point1: p1, Point2: p2, Lanes: lanes, Width: width,
		LeftOffset: width / 2, RightOffset: width / 2,
		Turned:      turned,
		RightVector: turned.Scale(width / 2),
		LeftVector:  turned.Scale(-width / 2),
	}
}

// Angle returns the direction of the part relative to the x-axis.
func (p *RoadPart) Angle() float64 {
	return vector.ComputeAngle(p.Point2.Sub(p.Point1))
}

// Update recomputes the projection/outer/middle points from the
// connection points set by an enclosing Intersection (spec §4.8).
func (p *RoadPart) Update() {
	if p.LeftConnection != nil {
		v := p.LeftConnection.Add(p.RightVector).Sub(p.LeftVector)
		p.RightProjection = &v
	}
	if p.RightConnection != nil {
		v := p.RightConnection.Sub(p.RightVector).Add(p.LeftVector)
		p.LeftProjection = &v
	}
	if p.LeftConnection != nil && p.RightConnection != nil {
		a := p.RightConnection.Sub(p.Point1).Length()
		b := p.RightProjection.Sub(p.Point1).Length()
		if a > b {
			p.RightOuter = p.RightConnection
			p.LeftOuter = p.LeftProjection
		} else {
			p.RightOuter = p.RightProjection
			p.LeftOuter = p.LeftConnection
		}
		mid := p.RightOuter.Sub(p.RightVector)
		p.PointMiddle = &mid

		const maxDistance = 100.0
		if p.PointMiddle.Sub(p.Point1).Length() > maxDistance {
			a := p.Point1.Add(vector.Norm(p.PointMiddle.Sub(p.Point1)).Scale(maxDistance))
			p.PointA = &a
			ro := p.PointA.Add(p.RightVector)
			lo := p.PointA.Add(p.LeftVector)
			p.RightOuter, p.LeftOuter = &ro, &lo
		} else {
			p.PointA = p.PointMiddle
		}
	}
}

// EntranceElement returns the intersection-entrance quadrangle between
// this part's connection and projection points, or ok=false if the part
// has no intersection on both sides.
func (p *RoadPart) EntranceElement(fill string) (DrawElement, bool) {
	if p.LeftConnection == nil || p.RightConnection == nil {
		return DrawElement{}, false
	}
	path := pathFrom(*p.RightProjection, *p.RightConnection, *p.LeftProjection, *p.LeftConnection)
	return DrawElement{Kind: "path", Path: path, Fill: fill}, true
}

// FillElement returns the wedge filled between this part's end and its
// left connection, used while an Intersection is still open on one side.
func (p *RoadPart) FillElement() (DrawElement, bool) {
	if p.LeftConnection == nil {
		return DrawElement{}, false
	}
	path := pathFrom(
		p.Point2.Add(p.RightVector), p.Point2.Add(p.LeftVector),
		*p.LeftConnection, *p.RightConnection,
	)
	return DrawElement{Kind: "path", Path: path, Fill: "#CCCCCC"}, true
}

func pathFrom(points ...vector.Vector) string {
	var b strings.Builder
	for i, p := range points {
		if i == 0 {
			b.WriteString("M ")
		} else {
			b.WriteString("L ")
		}
		b.WriteString(formatPoint(p))
		b.WriteByte(' ')
	}
	b.WriteString("Z")
	return b.String()
}

func formatPoint(p vector.Vector) string {
	return strconv.FormatFloat(p.X, 'g', -1, 64) + "," + strconv.FormatFloat(p.Y, 'g', -1, 64)
}

// Intersection computes the junction geometry of roads that share a
// start node, fanning parts out by angle and linking each to its
// neighbor's offset lines (spec §4.8).
type Intersection struct {
	Parts []*RoadPart
}

// NewIntersection sorts parts by angle and solves for each neighbor
// pair's connection point, the ported core of the original's junction
// algorithm.
func NewIntersection(parts []*RoadPart) *Intersection {
	sorted := append([]*RoadPart{}, parts...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Angle() < sorted[j].Angle() })

	in := &Intersection{Parts: sorted}
	n := len(sorted)

	for i, part1 := range sorted {
		next := (i + 1) % n
		part2 := sorted[next]
		line1 := vector.NewLine(part1.Point1.Add(part1.RightVector), part1.Point2.Add(part1.RightVector))
		line2 := vector.NewLine(part2.Point1.Add(part2.LeftVector), part2.Point2.Add(part2.LeftVector))
		if point, ok := line1.GetIntersectionPoint(line2); ok {
			part1.RightConnection = &point
			part2.LeftConnection = &point
			part1.Update()
			part2.Update()
		}
	}

	for i, part1 := range sorted {
		next := (i + 1) % n
		part2 := sorted[next]
		part1.Update()
		part2.Update()

		if part1.RightConnection == nil && part2.LeftConnection == nil {
			part1.LeftConnection = part1.RightProjection
			part2.RightConnection = part2.LeftProjection
			part1.LeftOuter = part1.RightProjection
			part2.RightOuter = part2.LeftProjection
		}
		part1.Update()
		part2.Update()
	}

	return in
}

// InnerPath returns the filled inner polygon joining each part's left
// connection point.
func (in *Intersection) InnerPath() (string, bool) {
	var points []vector.Vector
	for _, p := range in.Parts {
		if p.LeftConnection == nil {
			return "", false
		}
		points = append(points, *p.LeftConnection)
	}
	return pathFrom(points...), true
}

// Road is a single way rendered as a road (spec §4.8): lanes, width,
// placement offset, and the style the matcher/scheme contribute.
type Road struct {
	osm.Tagged
	Nodes   []*osm.Node
	Matcher scheme.RoadMatcher

	Line vector.Polyline

	Width float64
	Lanes []Lane
	Scale float64

	IsArea bool

	Layer           float64
	PlacementOffset float64
	IsTransition    bool
}

// NewRoad resolves lanes/width/placement from tags and projects the
// way's nodes through fl (spec §4.8).
func NewRoad(tags map[string]string, nodes []*osm.Node, matcher scheme.RoadMatcher, fl flinger.Flinger, sch *scheme.Scheme) *Road {
	points := make([]vector.Vector, len(nodes))
	for i, n := range nodes {
		points[i] = fl.Fling(n.Lat, n.Lon)
	}

	r := &Road{
		Tagged:  osm.Tagged{Tags: tags},
		Nodes:   nodes,
		Matcher: matcher,
		Line:    vector.NewPolyline(points),
		Width:   matcher.DefaultWidth,
	}
	r.Scale = fl.GetScale(nodes[0].Lat)
	r.IsArea = sch.IsArea(tags, 0) && len(nodes) > 0 && nodes[0].ID == nodes[len(nodes)-1].ID

	if lanesTag := tags["lanes"]; lanesTag != "" {
		if n, err := strconv.Atoi(lanesTag); err == nil && n > 0 {
			r.Width = float64(n) * DefaultLaneWidth
			r.Lanes = make([]Lane, n)
		}
	}

	if placement := tags["placement"]; placement != "" {
		parts := strings.SplitN(placement, ":", 2)
		if len(parts) == 2 {
			if laneNumber, err := strconv.Atoi(parts[1]); err == nil {
				idx := laneNumber - 1
				if idx >= len(r.Lanes) {
					for len(r.Lanes) <= idx {
						r.Lanes = append(r.Lanes, Lane{})
					}
				}
			}
		}
	}

	if widthLanes := tags["width:lanes"]; widthLanes != "" {
		parts := strings.Split(widthLanes, "|")
		if len(parts) == len(r.Lanes) {
			ok := true
			widths := make([]float64, len(parts))
			for i, p := range parts {
				w, err := strconv.ParseFloat(p, 64)
				if err != nil {
					ok = false
					break
				}
				widths[i] = w
			}
			if ok {
				for i := range r.Lanes {
					w := widths[i]
					r.Lanes[i].Width = &w
				}
			}
		}
	}

	setForward := func(n int, forward bool, fromEnd bool) {
		if n <= 0 || n > len(r.Lanes) {
			return
		}
		f := forward
		if fromEnd {
			for i := len(r.Lanes) - n; i < len(r.Lanes); i++ {
				r.Lanes[i].IsForward = &f
			}
		} else {
			for i := 0; i < n; i++ {
				r.Lanes[i].IsForward = &f
			}
		}
	}
	if v := tags["lanes:forward"]; v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			setForward(n, true, true)
		}
	}
	if v := tags["lanes:backward"]; v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			setForward(n, false, false)
		}
	}

	if v := tags["width"]; v != "" {
		if w, err := strconv.ParseFloat(v, 64); err == nil {
			r.Width = w
		}
	}

	if v := tags["layer"]; v != "" {
		if l, err := strconv.ParseFloat(v, 64); err == nil {
			r.Layer = l
		}
	}

	if placement := tags["placement"]; placement != "" {
		if placement == "transition" {
			r.IsTransition = true
		} else if parts := strings.SplitN(placement, ":", 2); len(parts) == 2 {
			place := parts[0]
			laneNumber, err := strconv.Atoi(parts[1])
			if err == nil {
				laneNumber--
				r.PlacementOffset = -r.Width * r.Scale / 2
				switch {
				case laneNumber > 0:
					for i := 0; i < laneNumber && i < len(r.Lanes); i++ {
						r.PlacementOffset += r.Lanes[i].GetWidth(r.Scale)
					}
				case laneNumber < 0:
					r.PlacementOffset += DefaultLaneWidth * float64(laneNumber) * r.Scale
				}
				switch place {
				case "left_of":
				case "middle_of":
					if laneNumber >= 0 && laneNumber < len(r.Lanes) {
						r.PlacementOffset += r.Lanes[laneNumber].GetWidth(r.Scale) * 0.5
					}
				case "right_of":
					if laneNumber >= 0 && laneNumber < len(r.Lanes) {
						r.PlacementOffset += r.Lanes[laneNumber].GetWidth(r.Scale)
					}
				}
			}
		}
	}

	return r
}

// GetColor returns the road's main color, brightened slightly for
// tunnels (spec §4.8).
func (r *Road) GetColor() mmcolor.RGB {
	color := r.Matcher.Color
	c, ok := mmcolor.ParseHex(color)
	if !ok {
		return mmcolor.RGB{}
	}
	if r.Tags["tunnel"] == "yes" {
		return mmcolor.Darken(c, 1.2)
	}
	return c
}

// GetBorderColor returns the road's border color, overridden by
// bridge/ford/embankment scheme colors (spec §4.8).
func (r *Road) GetBorderColor(sch *scheme.Scheme) mmcolor.RGB {
	color, ok := mmcolor.ParseHex(r.Matcher.BorderColor)
	if !ok {
		color = mmcolor.RGB{}
	}
	switch {
	case r.Tags["bridge"] == "yes":
		return sch.Colors.Get("bridge_color")
	case r.Tags["ford"] == "yes":
		return sch.Colors.Get("ford_color")
	case r.Tags["embankment"] == "yes":
		return sch.Colors.Get("embankment_color")
	}
	return color
}

// GetStyle returns the road's SVG presentation style for its border or
// inner fill pass (spec §4.8).
func (r *Road) GetStyle(sch *scheme.Scheme, isBorder, isForStroke bool) DrawElement {
	width := r.Width
	if width == 0 {
		width = r.Matcher.DefaultWidth
	}

	var color mmcolor.RGB
	var borderWidth float64
	if isBorder {
		color = r.GetBorderColor(sch)
		borderWidth = 2.0
	} else {
		color = r.GetColor()
	}

	var extraWidth float64
	if isBorder {
		switch {
		case r.Tags["bridge"] == "yes":
			extraWidth = 0.5
		case r.Tags["ford"] == "yes":
			extraWidth = 2.0
		case r.Tags["embankment"] == "yes":
			extraWidth = 4.0
		}
	}

	fill := "none"
	if r.IsArea {
		fill = color.Hex()
	}

	strokeWidth := r.Scale*width + extraWidth + borderWidth
	if isForStroke {
		strokeWidth = 2.0 + extraWidth
	}

	el := DrawElement{
		Kind: "path", Fill: fill, Stroke: color.Hex(), StrokeWidth: strokeWidth,
	}
	if isBorder && r.Tags["embankment"] == "yes" {
		el.DashArray = "1,3"
	}
	if isBorder && r.Tags["tunnel"] == "yes" {
		el.DashArray = "3,3"
	}
	return el
}

// PathData returns the road's projected, placement-offset SVG path.
func (r *Road) PathData() (string, bool) {
	return r.Line.GetPath(r.PlacementOffset)
}

// getCurvePoints computes the four corner points of a width-changing
// connector's Bezier endpoints (spec §4.8).
func getCurvePoints(road *Road, center, roadEnd vector.Vector, placementOffset float64, isEnd bool) [4]vector.Vector {
	width := road.Width / 2 * road.Scale
	direction := vector.Norm(center.Sub(roadEnd))
	if isEnd {
		direction = direction.Scale(-1)
	}
	left := vector.TurnByAngle(direction, math.Pi/2).Scale(width + placementOffset)
	right := vector.TurnByAngle(direction, -math.Pi/2).Scale(width - placementOffset)
	return [4]vector.Vector{roadEnd.Add(left), center.Add(left), center.Add(right), roadEnd.Add(right)}
}

// Connector is a junction between two or more roads at a shared node.
type Connector interface {
	MinLayer() float64
	MaxLayer() float64
	Fill(sch *scheme.Scheme) []DrawElement
	Border(sch *scheme.Scheme) []DrawElement
}

type connection struct {
	Road  *Road
	Index int
}

type baseConnector struct {
	connections []connection
	minLayer    float64
	maxLayer    float64
}

func newBaseConnector(connections []connection) baseConnector {
	min, max := connections[0].Road.Layer, connections[0].Road.Layer
	for _, c := range connections {
		if c.Road.Layer < min {
			min = c.Road.Layer
		}
		if c.Road.Layer > max {
			max = c.Road.Layer
		}
	}
	return baseConnector{connections: connections, minLayer: min, maxLayer: max}
}

func (b baseConnector) MinLayer() float64 { return b.minLayer }
func (b baseConnector) MaxLayer() float64 { return b.maxLayer }

// SimpleConnector draws a plain circle where two equal-width roads meet
// (spec §4.8).
type SimpleConnector struct {
	baseConnector
	Point vector.Vector
}

// NewSimpleConnector builds a connector at the shared node's projected
// point.
func NewSimpleConnector(connections []connection, fl flinger.Flinger) *SimpleConnector {
	base := newBaseConnector(connections)
	road, idx := connections[0].Road, connections[0].Index
	node := road.Nodes[idx]
	return &SimpleConnector{baseConnector: base, Point: fl.Fling(node.Lat, node.Lon)}
}

func (c *SimpleConnector) Fill(sch *scheme.Scheme) []DrawElement {
	road := c.connections[0].Road
	return []DrawElement{{Kind: "circle", Center: c.Point, Radius: road.Width * road.Scale / 2, Fill: road.GetColor().Hex()}}
}

func (c *SimpleConnector) Border(sch *scheme.Scheme) []DrawElement {
	road := c.connections[0].Road
	return []DrawElement{{Kind: "circle", Center: c.Point, Radius: road.Width*road.Scale/2 + 1, Fill: road.Matcher.BorderColor}}
}

// ComplexConnector draws a width-changing join as two Bezier-filled
// wedges (spec §4.8).
type ComplexConnector struct {
	baseConnector
	curve1, curve2 [4]vector.Vector
}

// NewComplexConnector shortens both roads' end segments and computes
// the curve control points joining them.
func NewComplexConnector(connections []connection, fl flinger.Flinger) *ComplexConnector {
	base := newBaseConnector(connections)
	road1, idx1 := connections[0].Road, connections[0].Index
	road2, idx2 := connections[1].Road, connections[1].Index

	length := math.Abs(road2.Width-road1.Width) * road1.Scale
	road1.Line.Shorten(idx1, length)
	road2.Line.Shorten(idx2, length)

	point1 := fl.Fling(road1.Nodes[idx1].Lat, road1.Nodes[idx1].Lon)
	point2 := fl.Fling(road2.Nodes[idx2].Lat, road2.Nodes[idx2].Lon)
	center := point1.Add(point2).Scale(0.5)

	points1 := getCurvePoints(road1, center, road1.Line.Points[idx1], road1.PlacementOffset, idx1 != 0)
	points2 := getCurvePoints(road2, center, road2.Line.Points[idx2], road2.PlacementOffset, idx2 != 0)

	return &ComplexConnector{
		baseConnector: base,
		curve1:        [4]vector.Vector{points1[0], points1[1], points2[1], points2[0]},
		curve2:        [4]vector.Vector{points2[3], points2[2], points1[2], points1[3]},
	}
}

func (c *ComplexConnector) Fill(sch *scheme.Scheme) []DrawElement {
	road1 := c.connections[0].Road
	path := curvePath(c.curve1) + " L " + formatPoint(c.curve2[0]) + " " + curvePathRest(c.curve2) + " Z"
	return []DrawElement{{Kind: "path", Path: path, Fill: road1.GetColor().Hex()}}
}

func (c *ComplexConnector) Border(sch *scheme.Scheme) []DrawElement {
	road1 := c.connections[0].Road
	style := road1.GetStyle(sch, true, true)
	path := curvePath(c.curve1) + " M " + curvePath(c.curve2)
	style.Kind, style.Path = "path", path
	return []DrawElement{style}
}

func curvePath(c [4]vector.Vector) string {
	return "M " + formatPoint(c[0]) + " C " + formatPoint(c[1]) + " " + formatPoint(c[2]) + " " + formatPoint(c[3])
}

func curvePathRest(c [4]vector.Vector) string {
	return "C " + formatPoint(c[1]) + " " + formatPoint(c[2]) + " " + formatPoint(c[3])
}

// Roads is the whole road system: every road way plus the node index
// used to discover connections, rendered layer by layer (spec §4.8).
type Roads struct {
	Roads []*Road
	nodes map[int64][]connection
}

// NewRoads returns an empty road collection.
func NewRoads() *Roads {
	return &Roads{nodes: make(map[int64][]connection)}
}

// Append adds a road and indexes its nodes for connection discovery.
func (rs *Roads) Append(r *Road) {
	rs.Roads = append(rs.Roads, r)
	for i, n := range r.Nodes {
		rs.nodes[n.ID] = append(rs.nodes[n.ID], connection{Road: r, Index: i})
	}
}

// LayeredDraw resolves connectors and returns each layer's border and
// fill elements in z-order (lowest layer first): per layer, road
// borders, then connector borders, then road fills, then connector
// fills (spec §4.8). Lane separators are not drawn.
func (rs *Roads) LayeredDraw(fl flinger.Flinger, sch *scheme.Scheme) []DrawElement {
	if len(rs.Roads) == 0 {
		return nil
	}

	layeredRoads := make(map[float64][]*Road)
	layeredConnectors := make(map[float64][]Connector)

	for _, r := range rs.Roads {
		if !r.IsTransition {
			layeredRoads[r.Layer] = append(layeredRoads[r.Layer], r)
		}
	}

	for _, conns := range rs.nodes {
		if len(conns) <= 1 {
			continue
		}
		if len(conns) == 2 {
			road1, idx1 := conns[0].Road, conns[0].Index
			road2, idx2 := conns[1].Road, conns[1].Index
			var connector Connector
			if road1.Width == road2.Width || (idx1 != 0 && idx1 != len(road1.Nodes)-1) || (idx2 != 0 && idx2 != len(road2.Nodes)-1) {
				connector = NewSimpleConnector(conns, fl)
			} else if !road1.IsTransition && !road2.IsTransition {
				connector = NewComplexConnector(conns, fl)
			} else {
				continue
			}
			layeredConnectors[connector.MinLayer()] = append(layeredConnectors[connector.MinLayer()], connector)
			layeredConnectors[connector.MaxLayer()] = append(layeredConnectors[connector.MaxLayer()], connector)
		}
	}

	layers := make([]float64, 0, len(layeredRoads))
	for l := range layeredRoads {
		layers = append(layers, l)
	}
	sort.Float64s(layers)

	var out []DrawElement
	for _, layer := range layers {
		roads := append([]*Road{}, layeredRoads[layer]...)
		sort.Slice(roads, func(i, j int) bool { return roads[i].Matcher.Priority < roads[j].Matcher.Priority })
		connectors := layeredConnectors[layer]

		for _, r := range roads {
			style := r.GetStyle(sch, true, false)
			if path, ok := r.PathData(); ok {
				style.Path = path
				out = append(out, style)
			}
		}
		for _, c := range connectors {
			if c.MinLayer() == layer {
				out = append(out, c.Border(sch)...)
			}
		}

		for _, r := range roads {
			style := r.GetStyle(sch, false, false)
			if path, ok := r.PathData(); ok {
				style.Path = path
				out = append(out, style)
			}
		}
		for _, c := range connectors {
			if c.MaxLayer() == layer {
				out = append(out, c.Fill(sch)...)
			}
		}
	}

	return out
}
