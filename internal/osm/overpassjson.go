package osm

import (
	"encoding/json"
)

// overpassDoc mirrors the Overpass JSON envelope from spec §6:
// { elements: [ {type, id, lat?, lon?, nodes?, members?, tags?} ] }.
type overpassDoc struct {
	Elements []overpassElement `json:"elements"`
}

type overpassMember struct {
	Type string `json:"type"`
	Ref  int64  `json:"ref"`
	Role string `json:"role"`
}

type overpassElement struct {
	Type    string            `json:"type"`
	ID      int64             `json:"id"`
	Lat     *float64          `json:"lat"`
	Lon     *float64          `json:"lon"`
	Nodes   []int64           `json:"nodes"`
	Members []overpassMember  `json:"members"`
	Tags    map[string]string `json:"tags"`
}

// ReadOverpassJSON parses an Overpass API JSON response (spec §6) into
// a Data store, processed in three passes (nodes, ways, relations) so
// that way/relation references always resolve against an already
// populated node table.
func ReadOverpassJSON(raw []byte) (*Data, error) {
	var doc overpassDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}

	data := NewData()

	for _, el := range doc.Elements {
		if el.Type != "node" {
			continue
		}
		lat, lon := 0.0, 0.0
		if el.Lat != nil {
			lat = *el.Lat
		}
		if el.Lon != nil {
			lon = *el.Lon
		}
		node := &Node{Tagged: Tagged{Tags: el.Tags}, ID: el.ID, Lat: lat, Lon: lon}
		if err := data.AddNode(node); err != nil {
			return nil, err
		}
	}

	for _, el := range doc.Elements {
		if el.Type != "way" {
			continue
		}
		way := &Way{Tagged: Tagged{Tags: el.Tags}, ID: el.ID, NodeIDs: el.Nodes}
		if err := data.AddWay(way); err != nil {
			return nil, err
		}
	}

	for _, el := range doc.Elements {
		if el.Type != "relation" {
			continue
		}
		members := make([]RelationMember, len(el.Members))
		for i, m := range el.Members {
			members[i] = RelationMember{Type: RelationMemberType(m.Type), Ref: m.Ref, Role: m.Role}
		}
		relation := &Relation{Tagged: Tagged{Tags: el.Tags}, ID: el.ID, Members: members}
		if err := data.AddRelation(relation); err != nil {
			return nil, err
		}
	}

	return data, nil
}
