// Package osm implements the in-memory OSM entity model (spec §3): nodes,
// ways, relations, the data store that owns them, and the collaborators
// (fetcher, XML/Overpass-JSON readers) that populate it. Parsing itself is
// treated as an external concern per spec §1, but a reference
// implementation is included here so the pipeline has something to run
// against end to end.
package osm

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultEquatorLength is Earth's equatorial circumference in meters,
// the default used throughout the projection math.
const DefaultEquatorLength = 40_075_017.0

// Author carries the optional OSM changeset metadata an element may have.
type Author struct {
	User      string
	UID       int64
	Timestamp time.Time
	Changeset int64
	Visible   bool
}

// Tagged is embedded by every entity kind and carries its tag dictionary
// plus the lazy numeric accessors spec §3 describes.
type Tagged struct {
	Tags map[string]string
}

// GetTag returns the value for k, or "" if absent.
func (t Tagged) GetTag(k string) string {
	if t.Tags == nil {
		return ""
	}
	return t.Tags[k]
}

// GetFloat parses the tag value for k as a bare float64. Returns
// ok=false if the tag is absent or not parseable.
func (t Tagged) GetFloat(k string) (float64, bool) {
	v, ok := t.Tags[k]
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// GetLength parses a bare number, "N m", "N km", or "N mi" into meters.
// Returns ok=false if the tag is absent or malformed (spec §8: ".m" → none).
func (t Tagged) GetLength(k string) (float64, bool) {
	v, ok := t.Tags[k]
	if !ok {
		return 0, false
	}
	return ParseLength(v)
}

// ParseLength parses a bare-number-or-suffixed length string into
// meters: "50m" -> 50, "50km" -> 50000, "1mi" -> 1609.344.
func ParseLength(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	multiplier := 1.0
	number := s

	switch {
	case strings.HasSuffix(s, "km"):
		multiplier = 1000
		number = strings.TrimSuffix(s, "km")
	case strings.HasSuffix(s, "mi"):
		multiplier = 1609.344
		number = strings.TrimSuffix(s, "mi")
	case strings.HasSuffix(s, "m"):
		multiplier = 1
		number = strings.TrimSuffix(s, "m")
	}

	number = strings.TrimSpace(number)
	if number == "" || number == "." {
		return 0, false
	}

	f, err := strconv.ParseFloat(number, 64)
	if err != nil {
		return 0, false
	}
	return f * multiplier, true
}

// Node is an OSM node: a tagged point. Equality is by id, coordinates,
// metadata, and tags; hashing (map keys) is by id only, so Nodes live in
// Data.Nodes keyed by ID rather than compared structurally at scale.
type Node struct {
	Tagged
	ID            int64
	Lat, Lon      float64
	Author        *Author
}

// Equal reports full equality (id, coordinates, metadata, tags) per spec §3.
func (n Node) Equal(o Node) bool {
	if n.ID != o.ID || n.Lat != o.Lat || n.Lon != o.Lon {
		return false
	}
	if (n.Author == nil) != (o.Author == nil) {
		return false
	}
	if n.Author != nil && *n.Author != *o.Author {
		return false
	}
	if len(n.Tags) != len(o.Tags) {
		return false
	}
	for k, v := range n.Tags {
		if o.Tags[k] != v {
			return false
		}
	}
	return true
}

// Valid reports whether the node's coordinates are within range
// (-90<=lat<=90, -180<=lon<=180).
func (n Node) Valid() bool {
	return n.Lat >= -90 && n.Lat <= 90 && n.Lon >= -180 && n.Lon <= 180
}

// Way is an OSM way: an ordered sequence of node references plus tags.
type Way struct {
	Tagged
	ID     int64
	NodeIDs []int64
	Author *Author
}

// IsCycle reports whether the way's first and last node ids match.
func (w Way) IsCycle() bool {
	if len(w.NodeIDs) < 2 {
		return false
	}
	return w.NodeIDs[0] == w.NodeIDs[len(w.NodeIDs)-1]
}

// RelationMemberType enumerates the kinds of relation member.
type RelationMemberType string

const (
	MemberNode     RelationMemberType = "node"
	MemberWay      RelationMemberType = "way"
	MemberRelation RelationMemberType = "relation"
)

// RelationMember is one (type, ref, role) triple in a relation.
type RelationMember struct {
	Type RelationMemberType
	Ref  int64
	Role string
}

// Relation is an OSM relation. Only type=multipolygon is processed by
// the constructor (spec §3); others are retained in Data for completeness.
type Relation struct {
	Tagged
	ID      int64
	Members []RelationMember
	Author  *Author
}

// MinMax tracks the minimum and maximum of a comparable ordered sequence
// (used for the OSM timestamp range and, reused generically, for the
// wireframe "time" drawing mode's gradient domain).
type MinMax[T int | int64 | float64] struct {
	Min, Max T
	set      bool
}

// Update extends the range to include v.
func (m *MinMax[T]) Update(v T) {
	if !m.set {
		m.Min, m.Max = v, v
		m.set = true
		return
	}
	if v < m.Min {
		m.Min = v
	}
	if v > m.Max {
		m.Max = v
	}
}

// Ratio returns (v-Min)/(Max-Min) clamped to [0,1]; 0 if the range is
// degenerate (Min==Max).
func (m MinMax[T]) Ratio(v T) float64 {
	if m.Max == m.Min {
		return 0
	}
	r := float64(v-m.Min) / float64(m.Max-m.Min)
	if r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}

// NotWellFormedError is returned when two entities share an id but
// disagree in content (spec §7 NotWellFormed).
type NotWellFormedError struct {
	Kind string
	ID   int64
}

func (e *NotWellFormedError) Error() string {
	return fmt.Sprintf("not well formed: duplicate %s id %d with differing content", e.Kind, e.ID)
}

// Data is the in-memory OSM store built once per render.
type Data struct {
	Nodes     map[int64]*Node
	Ways      map[int64]*Way
	Relations map[int64]*Relation

	Authors     map[string]struct{}
	Time        MinMax[int64] // unix seconds
	ViewBox     *BoundingBox  // explicit <bounds>, if present
	boundaryBox *BoundingBox  // lazily computed enclosing box of nodes

	EquatorLength float64
}

// NewData creates an empty Data store.
func NewData() *Data {
	return &Data{
		Nodes:         make(map[int64]*Node),
		Ways:          make(map[int64]*Way),
		Relations:     make(map[int64]*Relation),
		Authors:       make(map[string]struct{}),
		EquatorLength: DefaultEquatorLength,
	}
}

// AddNode inserts a node, failing with NotWellFormedError on a
// duplicate id with differing content.
func (d *Data) AddNode(n *Node) error {
	if existing, ok := d.Nodes[n.ID]; ok {
		if !existing.Equal(*n) {
			return &NotWellFormedError{Kind: "node", ID: n.ID}
		}
		return nil
	}
	d.Nodes[n.ID] = n
	d.boundaryBox = nil
	if n.Author != nil && n.Author.User != "" {
		d.Authors[n.Author.User] = struct{}{}
	}
	if n.Author != nil && !n.Author.Timestamp.IsZero() {
		d.Time.Update(n.Author.Timestamp.Unix())
	}
	return nil
}

// AddWay inserts a way, failing with NotWellFormedError on a duplicate
// id with differing node sequence or tags.
func (d *Data) AddWay(w *Way) error {
	if existing, ok := d.Ways[w.ID]; ok {
		if !sameWay(existing, w) {
			return &NotWellFormedError{Kind: "way", ID: w.ID}
		}
		return nil
	}
	d.Ways[w.ID] = w
	return nil
}

func sameWay(a, b *Way) bool {
	if len(a.NodeIDs) != len(b.NodeIDs) {
		return false
	}
	for i := range a.NodeIDs {
		if a.NodeIDs[i] != b.NodeIDs[i] {
			return false
		}
	}
	if len(a.Tags) != len(b.Tags) {
		return false
	}
	for k, v := range a.Tags {
		if b.Tags[k] != v {
			return false
		}
	}
	return true
}

// AddRelation inserts a relation, failing with NotWellFormedError on a
// duplicate id with differing content.
func (d *Data) AddRelation(r *Relation) error {
	if existing, ok := d.Relations[r.ID]; ok {
		same := len(existing.Members) == len(r.Members) && len(existing.Tags) == len(r.Tags)
		for i := 0; same && i < len(r.Members); i++ {
			same = existing.Members[i] == r.Members[i]
		}
		for k, v := range r.Tags {
			if existing.Tags[k] != v {
				same = false
			}
		}
		if !same {
			return &NotWellFormedError{Kind: "relation", ID: r.ID}
		}
		return nil
	}
	d.Relations[r.ID] = r
	return nil
}

// WayNodes resolves a way's node references into live Node pointers,
// skipping any reference whose node is absent from the store (a way
// that crosses the fetch boundary).
func (d *Data) WayNodes(w *Way) []*Node {
	nodes := make([]*Node, 0, len(w.NodeIDs))
	for _, id := range w.NodeIDs {
		if n, ok := d.Nodes[id]; ok {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// BoundaryBox returns the enclosing box of all nodes in the store,
// computed lazily and cached until the next AddNode.
func (d *Data) BoundaryBox() BoundingBox {
	if d.boundaryBox != nil {
		return *d.boundaryBox
	}
	if len(d.Nodes) == 0 {
		box := BoundingBox{}
		d.boundaryBox = &box
		return box
	}
	first := true
	var box BoundingBox
	for _, n := range d.Nodes {
		if first {
			box = BoundingBox{Left: n.Lon, Right: n.Lon, Bottom: n.Lat, Top: n.Lat}
			first = false
			continue
		}
		if n.Lon < box.Left {
			box.Left = n.Lon
		}
		if n.Lon > box.Right {
			box.Right = n.Lon
		}
		if n.Lat < box.Bottom {
			box.Bottom = n.Lat
		}
		if n.Lat > box.Top {
			box.Top = n.Lat
		}
	}
	d.boundaryBox = &box
	return box
}

// EffectiveBox returns ViewBox if explicitly set, else BoundaryBox().
func (d *Data) EffectiveBox() BoundingBox {
	if d.ViewBox != nil {
		return *d.ViewBox
	}
	return d.BoundaryBox()
}
