package osm

import (
	"encoding/xml"
	"io"
	"time"
)

// xmlOSM mirrors the subset of OSM XML spec §6 names: <bounds>, <node>,
// <way>, <relation>, each with optional <tag> children.
type xmlOSM struct {
	Bounds    *xmlBounds    `xml:"bounds"`
	Nodes     []xmlNode     `xml:"node"`
	Ways      []xmlWay      `xml:"way"`
	Relations []xmlRelation `xml:"relation"`
}

type xmlBounds struct {
	MinLat float64 `xml:"minlat,attr"`
	MinLon float64 `xml:"minlon,attr"`
	MaxLat float64 `xml:"maxlat,attr"`
	MaxLon float64 `xml:"maxlon,attr"`
}

type xmlTag struct {
	K string `xml:"k,attr"`
	V string `xml:"v,attr"`
}

type xmlNode struct {
	ID        int64    `xml:"id,attr"`
	Lat       float64  `xml:"lat,attr"`
	Lon       float64  `xml:"lon,attr"`
	User      string   `xml:"user,attr"`
	UID       int64    `xml:"uid,attr"`
	Changeset int64    `xml:"changeset,attr"`
	Timestamp string   `xml:"timestamp,attr"`
	Visible   string   `xml:"visible,attr"`
	Tags      []xmlTag `xml:"tag"`
}

type xmlNd struct {
	Ref int64 `xml:"ref,attr"`
}

type xmlWay struct {
	ID        int64    `xml:"id,attr"`
	User      string   `xml:"user,attr"`
	UID       int64    `xml:"uid,attr"`
	Changeset int64    `xml:"changeset,attr"`
	Timestamp string   `xml:"timestamp,attr"`
	Visible   string   `xml:"visible,attr"`
	Nds       []xmlNd  `xml:"nd"`
	Tags      []xmlTag `xml:"tag"`
}

type xmlMember struct {
	Type string `xml:"type,attr"`
	Ref  int64  `xml:"ref,attr"`
	Role string `xml:"role,attr"`
}

type xmlRelation struct {
	ID      int64       `xml:"id,attr"`
	User    string      `xml:"user,attr"`
	UID     int64       `xml:"uid,attr"`
	Changeset int64     `xml:"changeset,attr"`
	Timestamp string    `xml:"timestamp,attr"`
	Visible string      `xml:"visible,attr"`
	Members []xmlMember `xml:"member"`
	Tags    []xmlTag    `xml:"tag"`
}

func tagsToMap(tags []xmlTag) map[string]string {
	if len(tags) == 0 {
		return nil
	}
	m := make(map[string]string, len(tags))
	for _, t := range tags {
		m[t.K] = t.V
	}
	return m
}

func authorFromXML(user string, uid, changeset int64, timestamp, visible string) *Author {
	if user == "" && uid == 0 && changeset == 0 && timestamp == "" {
		return nil
	}
	a := &Author{User: user, UID: uid, Changeset: changeset, Visible: visible != "false"}
	if timestamp != "" {
		if t, err := time.Parse("2006-01-02T15:04:05Z", timestamp); err == nil {
			a.Timestamp = t
		}
	}
	return a
}

// ReadXML parses OSM XML (spec §6) into a Data store. Unknown
// attributes are ignored, as the XML schema permits. Malformed XML is
// returned as the XML decoder's own error, not as a NotWellFormedError.
func ReadXML(r io.Reader) (*Data, error) {
	var doc xmlOSM
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, err
	}

	data := NewData()

	if doc.Bounds != nil {
		box := BoundingBox{
			Left: doc.Bounds.MinLon, Bottom: doc.Bounds.MinLat,
			Right: doc.Bounds.MaxLon, Top: doc.Bounds.MaxLat,
		}
		data.ViewBox = &box
	}

	for _, n := range doc.Nodes {
		node := &Node{
			Tagged: Tagged{Tags: tagsToMap(n.Tags)},
			ID:     n.ID, Lat: n.Lat, Lon: n.Lon,
			Author: authorFromXML(n.User, n.UID, n.Changeset, n.Timestamp, n.Visible),
		}
		if err := data.AddNode(node); err != nil {
			return nil, err
		}
	}

	for _, w := range doc.Ways {
		ids := make([]int64, len(w.Nds))
		for i, nd := range w.Nds {
			ids[i] = nd.Ref
		}
		way := &Way{
			Tagged:  Tagged{Tags: tagsToMap(w.Tags)},
			ID:      w.ID,
			NodeIDs: ids,
			Author:  authorFromXML(w.User, w.UID, w.Changeset, w.Timestamp, w.Visible),
		}
		if err := data.AddWay(way); err != nil {
			return nil, err
		}
	}

	for _, rel := range doc.Relations {
		members := make([]RelationMember, len(rel.Members))
		for i, m := range rel.Members {
			members[i] = RelationMember{Type: RelationMemberType(m.Type), Ref: m.Ref, Role: m.Role}
		}
		relation := &Relation{
			Tagged:  Tagged{Tags: tagsToMap(rel.Tags)},
			ID:      rel.ID,
			Members: members,
			Author:  authorFromXML(rel.User, rel.UID, rel.Changeset, rel.Timestamp, rel.Visible),
		}
		if err := data.AddRelation(relation); err != nil {
			return nil, err
		}
	}

	return data, nil
}
