// Package painter implements the SVG emission pass (spec §4.7): it
// walks a constructed map (figures, roads, buildings, point features,
// icons, and labels) in the fixed z-order the spec prescribes and
// writes an SVG document, consulting an occupancy grid so icons and
// labels never draw on top of each other. Grounded on original
// map_machine/pictogram/icon.py (icon transform/outline math) and
// point.py (occupancy-aware icon/label placement); SVG emission itself
// follows _examples/dshills-dungo/pkg/export/svg.go's direct
// github.com/ajstarks/svgo canvas usage, with a raw io.Writer fallback
// for the two things svgo's typed helpers don't model well: icon
// transform attributes (its Path only takes style strings) and
// pixel-space radial gradients (its RadialGradient helper is
// percentage/uint8-based, unsuited to this renderer's absolute pixel
// coordinates).
package painter

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	svg "github.com/ajstarks/svgo"

	"github.com/MeKo-Tech/mapmachine/internal/constructor"
	"github.com/MeKo-Tech/mapmachine/internal/feature"
	"github.com/MeKo-Tech/mapmachine/internal/figure"
	"github.com/MeKo-Tech/mapmachine/internal/flinger"
	"github.com/MeKo-Tech/mapmachine/internal/mapconfig"
	"github.com/MeKo-Tech/mapmachine/internal/mmcolor"
	"github.com/MeKo-Tech/mapmachine/internal/occupancy"
	"github.com/MeKo-Tech/mapmachine/internal/point"
	"github.com/MeKo-Tech/mapmachine/internal/road"
	"github.com/MeKo-Tech/mapmachine/internal/shape"
	"github.com/MeKo-Tech/mapmachine/internal/text"
	"github.com/MeKo-Tech/mapmachine/internal/vector"
)

// Painter draws one constructed map to an SVG document.
type Painter struct {
	w       io.Writer
	canvas  *svg.SVG
	fling   flinger.Flinger
	cfg     mapconfig.Configuration
	grid    *occupancy.Grid
	gradSeq int
}

// New builds a Painter writing to w, sized and scaled by fl, under cfg.
func New(w io.Writer, fl flinger.Flinger, cfg mapconfig.Configuration) *Painter {
	width, height := fl.Size()
	return &Painter{
		w:      w,
		canvas: svg.New(w),
		fling:  fl,
		cfg:    cfg,
		grid:   occupancy.NewGrid(width, height, cfg.Overlap),
	}
}

// Draw renders c's constructed collections in the spec §4.7 z-order:
// background, bottom figures, roads, top figures, trees/craters,
// buildings, direction sectors, points, labels, credit.
func (p *Painter) Draw(c *constructor.Constructor) {
	width, height := p.fling.Size()
	p.canvas.Start(width, height)

	p.drawBackground(width, height)

	bottom, top := splitFiguresByLayer(c.GetSortedFigures())
	for _, f := range bottom {
		p.drawFigure(f)
	}

	for _, el := range c.Roads.LayeredDraw(p.fling, p.cfg.Scheme) {
		p.drawRoadElement(el)
	}

	for _, f := range top {
		p.drawFigure(f)
	}

	for _, t := range c.Trees {
		for _, el := range t.Draw(p.fling, p.cfg.Scheme) {
			p.drawFeatureElement(el)
		}
	}
	for _, cr := range c.Craters {
		for _, el := range cr.Draw(p.fling) {
			p.drawFeatureElement(el)
		}
	}

	p.drawBuildings(c)

	for _, d := range c.DirectionSectors {
		for _, el := range d.Draw(p.cfg.Scheme) {
			p.drawFeatureElement(el)
		}
	}

	p.drawPoints(c.Points)

	if p.cfg.ShowCredit {
		p.drawCredit(width, height)
	}

	p.canvas.End()
}

// roadPriority is the line-style priority roads are drawn at; figures
// with a lower priority paint under the road network, the rest paint
// over it.
const roadPriority = 40.0

func splitFiguresByLayer(figures []figure.StyledFigure) (bottom, top []figure.StyledFigure) {
	for _, f := range figures {
		if f.LineStyle.Priority < roadPriority {
			bottom = append(bottom, f)
		} else {
			top = append(top, f)
		}
	}
	return bottom, top
}

func (p *Painter) drawBackground(width, height int) {
	if !p.cfg.DrawBackground {
		return
	}
	color, dark := p.cfg.BackgroundColor()
	if !dark {
		color = p.cfg.Scheme.Colors.Get("background_color").Hex()
	}
	p.canvas.Rect(0, 0, width, height, "fill:"+color)
}

func (p *Painter) drawFigure(f figure.StyledFigure) {
	path := f.GetPath(p.fling, vector.Vector{})
	if path == "" {
		return
	}
	p.canvas.Path(path, styleFromMap(f.LineStyle.Style))
}

func styleFromMap(m map[string]string) string {
	if len(m) == 0 {
		return ""
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s:%s;", k, m[k])
	}
	return strings.TrimSuffix(b.String(), ";")
}

func (p *Painter) drawRoadElement(el road.DrawElement) {
	style := buildStyle(el.Fill, el.Stroke, el.StrokeWidth, el.DashArray, el.Opacity)
	if el.Kind == "circle" {
		p.canvas.Path(circlePath(el.Center, el.Radius), style)
		return
	}
	p.canvas.Path(el.Path, style)
}

func (p *Painter) drawFeatureElement(el feature.Element) {
	fill := el.Fill
	if el.Gradient != nil {
		fill = p.defineRadialGradient(*el.Gradient)
	}
	style := buildStyle(fill, "", 0, "", el.Opacity)
	if el.Kind == "circle" {
		p.canvas.Path(circlePath(el.Center, el.Radius), style)
		return
	}
	p.canvas.Path(el.Path, style)
}

// defineRadialGradient writes a pixel-space <radialGradient> directly
// to the underlying writer and returns its "url(#id)" reference. SVG
// gradient elements aren't rendered on their own regardless of where
// they appear in the document, and forward references to an id defined
// later in the markup are legal, so no <defs> bookkeeping is needed.
func (p *Painter) defineRadialGradient(g feature.RadialGradient) string {
	p.gradSeq++
	id := fmt.Sprintf("grad%d", p.gradSeq)
	fmt.Fprintf(p.w, "<radialGradient id=%q gradientUnits=\"userSpaceOnUse\" cx=%q cy=%q r=%q>\n",
		id, fmtFloat(g.Center.X), fmtFloat(g.Center.Y), fmtFloat(g.Radius))
	for _, s := range g.Stops {
		fmt.Fprintf(p.w, "<stop offset=%q stop-color=%q stop-opacity=%q/>\n",
			fmtFloat(s.Offset), s.Color, fmtFloat(s.Opacity))
	}
	fmt.Fprint(p.w, "</radialGradient>\n")
	return "url(#" + id + ")"
}

func buildStyle(fill, stroke string, strokeWidth float64, dash string, opacity float64) string {
	var b strings.Builder
	if fill != "" {
		fmt.Fprintf(&b, "fill:%s;", fill)
	}
	if stroke != "" {
		fmt.Fprintf(&b, "stroke:%s;", stroke)
	}
	if strokeWidth != 0 {
		fmt.Fprintf(&b, "stroke-width:%s;", fmtFloat(strokeWidth))
	}
	if dash != "" {
		fmt.Fprintf(&b, "stroke-dasharray:%s;", dash)
	}
	if opacity != 0 {
		fmt.Fprintf(&b, "opacity:%s;", fmtFloat(opacity))
	}
	return strings.TrimSuffix(b.String(), ";")
}

func circlePath(center vector.Vector, radius float64) string {
	return fmt.Sprintf("M %s,%s A %s,%s 0 1,0 %s,%s A %s,%s 0 1,0 %s,%s Z",
		fmtFloat(center.X+radius), fmtFloat(center.Y),
		fmtFloat(radius), fmtFloat(radius), fmtFloat(center.X-radius), fmtFloat(center.Y),
		fmtFloat(radius), fmtFloat(radius), fmtFloat(center.X+radius), fmtFloat(center.Y))
}

func quadPath(pts [4]vector.Vector) string {
	return fmt.Sprintf("M %s L %s L %s L %s Z", fmtPoint(pts[0]), fmtPoint(pts[1]), fmtPoint(pts[2]), fmtPoint(pts[3]))
}

func fmtPoint(v vector.Vector) string { return fmtFloat(v.X) + "," + fmtFloat(v.Y) }

func fmtFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

// drawBuildings dispatches to the flat or isometric renderer (spec
// §4.7 item 6); BuildingModeNo skips buildings entirely.
func (p *Painter) drawBuildings(c *constructor.Constructor) {
	switch p.cfg.BuildingMode {
	case mapconfig.BuildingModeNo:
		return
	case mapconfig.BuildingModeFlat:
		p.drawBuildingsFlat(c)
	default:
		p.drawBuildingsIsometric(c)
	}
}

func (p *Painter) drawBuildingsFlat(c *constructor.Constructor) {
	for _, b := range c.Buildings {
		path := b.Figure.GetPath(p.fling, vector.Vector{})
		if path == "" {
			continue
		}
		p.canvas.Path(path, buildStyle(b.Fill.Hex(), b.Stroke.Hex(), 1, "", 0))
	}
}

// drawBuildingsIsometric renders the shadow group, then every
// building's walls band by band across the globally sorted height set,
// drawing a building's roof once its own top height is reached
// (spec §4.7 item 6: "for each height in the sorted heights set, draw
// all walls at that band; if draw_roofs, draw roofs at their exact
// height; proceed top-up").
func (p *Painter) drawBuildingsIsometric(c *constructor.Constructor) {
	fmt.Fprint(p.w, "<g opacity=\"0.1\">\n")
	for _, b := range c.Buildings {
		for _, q := range b.ShadeSegments(p.fling) {
			p.canvas.Path(quadPath(q.Points), "fill:#000000")
		}
	}
	fmt.Fprint(p.w, "</g>\n")

	heights := sortedHeights(c.Heights)
	lo := 0.0
	for _, hi := range heights {
		for _, b := range c.Buildings {
			for _, wq := range b.WallsInBand(p.fling, lo, hi) {
				p.canvas.Path(quadPath(wq.Points), "fill:"+wq.Color.Hex())
			}
			if p.cfg.DrawRoofs && hi == b.Height {
				if path, ok := b.RoofPath(p.fling); ok {
					p.canvas.Path(path, buildStyle(b.Fill.Hex(), b.Stroke.Hex(), 1, "", 0))
				}
			}
		}
		lo = hi
	}
}

func sortedHeights(heights map[float64]struct{}) []float64 {
	out := make([]float64, 0, len(heights))
	for h := range heights {
		out = append(out, h)
	}
	sort.Float64s(out)
	return out
}

// drawPoints walks the points in descending priority order, placing
// each point's main icon and then, if that was painted, its extra
// icons before moving on to the next point (spec §4.7 item 8). A
// second pass over the same order then draws every point's labels
// below its icons.
func (p *Painter) drawPoints(points []point.Point) {
	ordered := make([]*point.Point, len(points))
	for i := range points {
		ordered[i] = &points[i]
	}
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Priority > ordered[j].Priority })

	ys := make([]float64, len(ordered))
	for i, pt := range ordered {
		y := 0.0
		if p.drawMainIcon(pt, &y) {
			p.drawExtraIcons(pt, &y)
		}
		ys[i] = y
	}
	for i, pt := range ordered {
		p.drawLabels(pt, ys[i])
	}
}

func (p *Painter) drawMainIcon(pt *point.Point, y *float64) bool {
	if !pt.ShouldDrawMainIcon() {
		return false
	}
	position := pt.Position.Add(vector.Vector{Y: *y})
	painted := p.drawPointShape(pt.Icons.MainIcon, pt.Icons.DefaultIcon, position, pt.DrawOutline)
	if painted {
		*y += point.IconSize
	}
	return painted
}

// drawPointShape places one icon at position, falling back to
// defaultIcon when the spot is occupied (spec §4.7 item 8 /
// point.py's draw_point_shape). The fallback counts as painted but
// does not register a fresh occupancy square — the spot is already
// occupied by whatever is already there.
func (p *Painter) drawPointShape(icon shape.Icon, defaultIcon *shape.Icon, position vector.Vector, drawOutline bool) bool {
	px, py := int(math.Trunc(position.X)), int(math.Trunc(position.Y))

	draw := icon
	usedFallback := false
	if p.grid.Check(px, py) {
		if defaultIcon == nil {
			return false
		}
		draw = *defaultIcon
		usedFallback = true
	}

	pixel := vector.Vector{X: float64(px), Y: float64(py)}
	if drawOutline {
		p.drawIcon(draw, pixel, true)
	}
	p.drawIcon(draw, pixel, false)

	if !usedFallback {
		p.grid.RegisterSquare(px, py, p.grid.Overlap())
	}
	return true
}

// drawExtraIcons probes every extra icon's footprint before committing
// to draw any of them — all-or-nothing, matching point.py's
// draw_extra_shapes (spec §4.7 item 8).
func (p *Painter) drawExtraIcons(pt *point.Point, y *float64) {
	extras := pt.Icons.ExtraIcons
	n := len(extras)
	if n == 0 {
		return
	}

	baseY := pt.Position.Y + *y
	startX := -float64(n-1) * 8.0
	positions := make([]vector.Vector, n)
	for i := range extras {
		positions[i] = vector.Vector{X: pt.Position.X + startX + float64(i)*16.0, Y: baseY}
	}

	for _, pos := range positions {
		px, py := int(math.Trunc(pos.X)), int(math.Trunc(pos.Y))
		if p.grid.Check(px, py) {
			return
		}
	}

	for i, icon := range extras {
		pos := positions[i]
		if pt.DrawOutline {
			p.drawIcon(icon, pos, true)
		}
		p.drawIcon(icon, pos, false)
		px, py := int(math.Trunc(pos.X)), int(math.Trunc(pos.Y))
		p.grid.RegisterSquare(px, py, p.grid.Overlap())
	}
	*y += point.IconSize
}

// drawIcon draws every shape specification in icon at pos, either the
// outline pass or the fill pass (spec §4.7 item 8 / icon.py's
// Icon.draw and ShapeSpecification.draw).
func (p *Painter) drawIcon(icon shape.Icon, pos vector.Vector, outline bool) {
	if len(icon.Specifications) == 0 {
		return
	}
	if !outline {
		for _, spec := range icon.Specifications {
			p.drawShapeFill(spec, pos)
		}
		return
	}

	first, _ := mmcolor.ParseHex(icon.Specifications[0].Color)
	groupOpacity := 0.5
	if mmcolor.IsBright(first) {
		groupOpacity = 0.7
	}
	for _, spec := range icon.Specifications {
		if !spec.UseOutline {
			continue
		}
		p.drawShapeOutline(spec, pos, groupOpacity)
	}
}

// shapeTransform composes the shape's placement transform: translate
// to the (possibly flipped) offset point, scale if either flip flag is
// set, then translate by the shape's own 16px grid-alignment offset —
// applied in the post-scale (possibly mirrored) coordinate space, so
// its effective direction flips along with the shape (icon.py's
// Shape.get_path transform order).
func shapeTransform(spec shape.ShapeSpecification, pos vector.Vector) string {
	scaleX, scaleY := 1.0, 1.0
	if spec.FlipVertically {
		scaleY = -1
	}
	if spec.FlipHorizontally {
		scaleX = -1
	}
	shiftX := pos.X + float64(spec.OffsetX)*scaleX
	shiftY := pos.Y + float64(spec.OffsetY)*scaleY

	var b strings.Builder
	fmt.Fprintf(&b, "translate(%s,%s)", fmtFloat(shiftX), fmtFloat(shiftY))
	if scaleX != 1 || scaleY != 1 {
		fmt.Fprintf(&b, " scale(%s,%s)", fmtFloat(scaleX), fmtFloat(scaleY))
	}
	fmt.Fprintf(&b, " translate(%d,%d)", spec.Shape.OffsetX, spec.Shape.OffsetY)
	return b.String()
}

func (p *Painter) drawShapeFill(spec shape.ShapeSpecification, pos vector.Vector) {
	if spec.Opacity != nil {
		fmt.Fprintf(p.w, "<path d=%q transform=%q fill=%q opacity=%q/>\n",
			spec.Shape.Path, shapeTransform(spec, pos), spec.Color, fmtFloat(*spec.Opacity))
		return
	}
	fmt.Fprintf(p.w, "<path d=%q transform=%q fill=%q/>\n",
		spec.Shape.Path, shapeTransform(spec, pos), spec.Color)
}

// drawShapeOutline draws a spec's outline pass: black or white chosen
// by the spec's own color brightness, stroke-width 2.2, round joins,
// at the icon-level group opacity (icon.py's is_bright-based outline
// color choice and the 0.7/0.5 group opacity split), further scaled by
// the spec's own opacity override (set_opacity) when one is set.
func (p *Painter) drawShapeOutline(spec shape.ShapeSpecification, pos vector.Vector, opacity float64) {
	color, _ := mmcolor.ParseHex(spec.Color)
	strokeColor := "#000000"
	if !mmcolor.IsBright(color) {
		strokeColor = "#FFFFFF"
	}
	if spec.Opacity != nil {
		opacity *= *spec.Opacity
	}
	fmt.Fprintf(p.w, "<path d=%q transform=%q fill=%q stroke=%q stroke-width=\"2.2\" stroke-linejoin=\"round\" opacity=%q/>\n",
		spec.Shape.Path, shapeTransform(spec, pos), strokeColor, strokeColor, fmtFloat(opacity))
}

// drawLabels draws the labels visible.LabelMode allows, in order,
// starting at startY below the point's icons (spec §4.7 item 9).
func (p *Painter) drawLabels(pt *point.Point, startY float64) {
	labels := visibleLabels(pt.Labels, p.cfg.LabelMode)
	y := startY
	for _, lbl := range labels {
		p.drawLabel(lbl, pt.Position, y)
		y += 11
	}
}

// visibleLabels selects which of a point's labels get drawn: MAIN only
// the first, ALL every one (Address behaves like ALL, since address
// mode's whole purpose is to surface the extra address fields the text
// constructor added — collapsing it to "draw nothing" the way an
// unrecognized mode would defeats the feature), anything else nothing
// (point.py's draw_texts label_mode gate).
func visibleLabels(labels []text.Label, mode mapconfig.LabelMode) []text.Label {
	switch mode {
	case mapconfig.LabelModeMain:
		if len(labels) == 0 {
			return nil
		}
		return labels[:1]
	case mapconfig.LabelModeAll, mapconfig.LabelModeAddress:
		return labels
	default:
		return nil
	}
}

// drawLabel probes the label's footprint before committing to draw it
// — dropped, not relocated, on collision (spec §4.7 item 9 /
// point.py's draw_text). Returns whether it was drawn.
func (p *Painter) drawLabel(lbl text.Label, center vector.Vector, y float64) bool {
	txt := cleanLabelText(lbl.Text)
	if txt == "" {
		return false
	}

	cx, cy := center.X, center.Y+y
	length := float64(len(txt)) * 6.0
	x0 := int(math.Trunc(cx - length/2))
	x1 := int(math.Trunc(cx + length/2))
	probeY := int(math.Trunc(cy - 4))
	if p.grid.CheckRect(x0, probeY, x1, probeY+1) {
		return false
	}

	y0 := int(math.Trunc(cy - 12))
	y1 := int(math.Trunc(cy + 5))
	p.grid.RegisterRect(x0, y0, x1, y1)

	ix, iy := int(math.Trunc(cx)), int(math.Trunc(cy))
	size := lbl.Size
	outStyle := fmt.Sprintf("text-anchor:middle;font-size:%spx;fill:%s;stroke:%s;stroke-width:3;opacity:0.5",
		fmtFloat(size), lbl.OutFill.Hex(), lbl.OutFill.Hex())
	fillStyle := fmt.Sprintf("text-anchor:middle;font-size:%spx;fill:%s", fmtFloat(size), lbl.Fill.Hex())
	p.canvas.Text(ix, iy, txt, outStyle)
	p.canvas.Text(ix, iy, txt, fillStyle)
	return true
}

// cleanLabelText unescapes the two HTML entities tag values commonly
// carry and truncates to 26 characters plus an ellipsis (spec §4.7
// item 9).
func cleanLabelText(s string) string {
	s = strings.ReplaceAll(s, "&quot;", `"`)
	s = strings.ReplaceAll(s, "&amp;", "&")
	if len(s) > 26 {
		return s[:26] + "..."
	}
	return s
}

func (p *Painter) drawCredit(width, height int) {
	y := height - 10
	if p.cfg.Credit != "" {
		p.canvas.Text(width-10, y, p.cfg.Credit, "text-anchor:end;font-size:10px;fill:#888888")
	}
	p.canvas.Text(10, y, "Rendering: Map Machine", "text-anchor:start;font-size:10px;fill:#888888")
}
