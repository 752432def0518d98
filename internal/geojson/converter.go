// Package geojson dumps a constructed map's Figures/Buildings/Roads as
// a GeoJSON FeatureCollection, for debugging and external inspection —
// the same role the teacher's converter played for its fetched tile
// data, retargeted from pre-render OSM features to post-construction
// drawable collections.
package geojson

import (
	"encoding/json"
	"fmt"

	"github.com/MeKo-Tech/mapmachine/internal/building"
	"github.com/MeKo-Tech/mapmachine/internal/constructor"
	"github.com/MeKo-Tech/mapmachine/internal/figure"
	"github.com/MeKo-Tech/mapmachine/internal/osm"
	"github.com/MeKo-Tech/mapmachine/internal/road"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// LayerType names one of a Constructor's drawable collections.
type LayerType string

const (
	LayerFigures   LayerType = "figures"
	LayerBuildings LayerType = "buildings"
	LayerRoads     LayerType = "roads"
)

// FromConstructor dumps c's Figures, Buildings, and Roads as a GeoJSON
// FeatureCollection in WGS84 (the coordinates their source osm.Node
// list carries, before flinger projection). Points are not included:
// point.Point.Position is already projected pixel-space by the time
// the constructor builds it, so it has no WGS84 coordinate to export.
func FromConstructor(c *constructor.Constructor) (*geojson.FeatureCollection, error) {
	fc := geojson.NewFeatureCollection()

	for _, f := range c.Figures {
		feat, ok := figureFeature(f.Figure, "figure")
		if !ok {
			continue
		}
		fc.Append(feat)
	}

	for _, b := range c.Buildings {
		feat, ok := figureFeature(b.Figure, "building")
		if !ok {
			continue
		}
		fc.Append(feat)
	}

	if c.Roads != nil {
		for _, r := range c.Roads.Roads {
			feat, ok := roadFeature(r)
			if !ok {
				continue
			}
			fc.Append(feat)
		}
	}

	return fc, nil
}

// FromConstructorBytes is FromConstructor, indent-marshaled to JSON.
func FromConstructorBytes(c *constructor.Constructor) ([]byte, error) {
	fc, err := FromConstructor(c)
	if err != nil {
		return nil, fmt.Errorf("convert to geojson: %w", err)
	}
	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal geojson: %w", err)
	}
	return data, nil
}

func figureFeature(f figure.Figure, featureType string) (*geojson.Feature, bool) {
	geom := figureGeometry(f)
	if geom == nil {
		return nil, false
	}

	feat := geojson.NewFeature(geom)
	feat.Properties = make(map[string]interface{}, len(f.Tags)+1)
	for k, v := range f.Tags {
		feat.Properties[k] = v
	}
	feat.Properties["feature_type"] = featureType
	return feat, true
}

// figureGeometry converts a Figure's outer/inner rings to an orb
// Polygon, or nil when the figure carries no rings at all (a figure
// that never resolved to area geometry during construction).
func figureGeometry(f figure.Figure) orb.Geometry {
	if len(f.Outers) == 0 {
		return nil
	}

	rings := make(orb.Polygon, 0, len(f.Outers)+len(f.Inners))
	for _, outer := range f.Outers {
		if ring := nodesToRing(outer); ring != nil {
			rings = append(rings, ring)
		}
	}
	for _, inner := range f.Inners {
		if ring := nodesToRing(inner); ring != nil {
			rings = append(rings, ring)
		}
	}
	if len(rings) == 0 {
		return nil
	}
	return rings
}

func nodesToRing(nodes []*osm.Node) orb.Ring {
	if len(nodes) == 0 {
		return nil
	}
	ring := make(orb.Ring, len(nodes))
	for i, n := range nodes {
		ring[i] = orb.Point{n.Lon, n.Lat}
	}
	return ring
}

func roadFeature(r *road.Road) (*geojson.Feature, bool) {
	if len(r.Nodes) < 2 {
		return nil, false
	}

	line := make(orb.LineString, len(r.Nodes))
	for i, n := range r.Nodes {
		line[i] = orb.Point{n.Lon, n.Lat}
	}

	feat := geojson.NewFeature(line)
	feat.Properties = make(map[string]interface{}, len(r.Tags)+2)
	for k, v := range r.Tags {
		feat.Properties[k] = v
	}
	feat.Properties["feature_type"] = "road"
	feat.Properties["width"] = r.Width
	return feat, true
}
