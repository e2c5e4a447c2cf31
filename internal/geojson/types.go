// Package geojson holds the GeoJSON data structures used across the
// project, extended with the TIN and PolyhedralSurface geometry types
// produced by SFCGAL backends.
package geojson

import (
	"encoding/json"
	"fmt"
)

// Recognized geometry type names.
const (
	TypePoint             = "Point"
	TypeMultiPoint        = "MultiPoint"
	TypeLineString        = "LineString"
	TypeMultiLineString   = "MultiLineString"
	TypePolygon           = "Polygon"
	TypeMultiPolygon      = "MultiPolygon"
	TypeTIN               = "TIN"
	TypePolyhedralSurface = "PolyhedralSurface"
)

// Position is a single coordinate tuple: X, Y and an optional Z.
type Position []float64

// X returns the first component.
func (p Position) X() float64 { return p[0] }

// Y returns the second component.
func (p Position) Y() float64 { return p[1] }

// Z returns the third component, or 0 when the tuple is 2D.
func (p Position) Z() float64 {
	if len(p) > 2 {
		return p[2]
	}
	return 0
}

// Geometry is a tagged union over the recognized geometry types.
// Exactly one coordinate field matching Type is populated; unrecognized
// types keep their raw coordinates so they survive a round trip.
type Geometry struct {
	Type string

	Point           Position
	MultiPoint      []Position
	LineString      []Position
	MultiLineString [][]Position
	Polygon         [][]Position
	MultiPolygon    [][][]Position

	// Faces holds TIN and PolyhedralSurface data: one vertex ring per
	// face, already triangulated for TIN input.
	Faces [][]Position

	raw json.RawMessage
}

// Feature pairs a geometry with free-form properties.
type Feature struct {
	Type       string                 `json:"type"`
	Geometry   *Geometry              `json:"geometry"`
	Properties map[string]interface{} `json:"properties,omitempty"`
}

// CRS is the legacy named-CRS member some producers still emit.
type CRS struct {
	Type       string `json:"type,omitempty"`
	Properties struct {
		Name string `json:"name,omitempty"`
	} `json:"properties,omitempty"`
}

// FeatureCollection is an ordered sequence of features with an optional
// legacy CRS declaration.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
	CRS      *CRS      `json:"crs,omitempty"`
}

type geometryJSON struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// UnmarshalJSON decodes the coordinate tree into the slice shape
// matching the geometry type. TIN and PolyhedralSurface accept both a
// flat face list and the MultiPolygon-like nesting, in which case only
// the exterior ring of each face is kept.
func (g *Geometry) UnmarshalJSON(data []byte) error {
	var gj geometryJSON
	if err := json.Unmarshal(data, &gj); err != nil {
		return err
	}

	g.Type = gj.Type
	g.raw = gj.Coordinates

	if len(gj.Coordinates) == 0 {
		return nil
	}

	switch gj.Type {
	case TypePoint:
		return json.Unmarshal(gj.Coordinates, &g.Point)
	case TypeMultiPoint:
		return json.Unmarshal(gj.Coordinates, &g.MultiPoint)
	case TypeLineString:
		return json.Unmarshal(gj.Coordinates, &g.LineString)
	case TypeMultiLineString:
		return json.Unmarshal(gj.Coordinates, &g.MultiLineString)
	case TypePolygon:
		return json.Unmarshal(gj.Coordinates, &g.Polygon)
	case TypeMultiPolygon:
		return json.Unmarshal(gj.Coordinates, &g.MultiPolygon)
	case TypeTIN, TypePolyhedralSurface:
		var faces [][]Position
		if err := json.Unmarshal(gj.Coordinates, &faces); err == nil {
			g.Faces = faces
			return nil
		}
		var nested [][][]Position
		if err := json.Unmarshal(gj.Coordinates, &nested); err != nil {
			return fmt.Errorf("decode %s coordinates: %w", gj.Type, err)
		}
		g.Faces = make([][]Position, 0, len(nested))
		for _, rings := range nested {
			if len(rings) > 0 {
				g.Faces = append(g.Faces, rings[0])
			}
		}
		return nil
	}

	// Unrecognized geometry types are carried through untouched.
	return nil
}

// MarshalJSON re-encodes the geometry in its wire shape.
func (g *Geometry) MarshalJSON() ([]byte, error) {
	var coords interface{}

	switch g.Type {
	case TypePoint:
		coords = g.Point
	case TypeMultiPoint:
		coords = g.MultiPoint
	case TypeLineString:
		coords = g.LineString
	case TypeMultiLineString:
		coords = g.MultiLineString
	case TypePolygon:
		coords = g.Polygon
	case TypeMultiPolygon:
		coords = g.MultiPolygon
	case TypeTIN, TypePolyhedralSurface:
		coords = g.Faces
	default:
		if len(g.raw) > 0 {
			coords = g.raw
		}
	}

	return json.Marshal(geometryJSON{
		Type:        g.Type,
		Coordinates: mustRaw(coords),
	})
}

func mustRaw(v interface{}) json.RawMessage {
	if v == nil {
		return json.RawMessage("null")
	}
	if raw, ok := v.(json.RawMessage); ok {
		return raw
	}
	data, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("null")
	}
	return data
}
