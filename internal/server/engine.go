package server

import (
	"encoding/json"
	"fmt"

	"github.com/lbartoletti/jupytergis/internal/geojson"
)

// Operation names of the wire protocol.
const (
	OpTriangulate      = "triangulate_2dz"
	OpStraightSkeleton = "straight_skeleton"
	OpOffsetPolygon    = "offset_polygon"
	OpExtrude          = "extrude"
)

const defaultExtrudeHeight = 10.0

// Engine runs geometry-processing operations. Implementations report
// the operations they support; the handler rejects the rest before
// calling Process.
type Engine interface {
	Operations() []string
	Process(operation string, fc *geojson.FeatureCollection, params map[string]interface{}) (*geojson.FeatureCollection, error)
}

// NativeEngine processes geometry without an external backend. It
// covers extrusion only; the CGAL-backed operations need a real SFCGAL
// deployment behind a remote endpoint.
type NativeEngine struct{}

// Operations lists the supported operation names.
func (NativeEngine) Operations() []string {
	return []string{OpExtrude}
}

// Process runs one operation over every feature of the collection and
// returns a new collection. Input features are not modified.
func (e NativeEngine) Process(operation string, fc *geojson.FeatureCollection, params map[string]interface{}) (*geojson.FeatureCollection, error) {
	if operation != OpExtrude {
		return nil, fmt.Errorf("operation %q is not implemented by the native engine", operation)
	}

	height := floatParam(params, "extrudeHeight", defaultExtrudeHeight)
	if height <= 0 {
		return nil, fmt.Errorf("extrudeHeight must be positive, got %v", height)
	}

	out := &geojson.FeatureCollection{Type: "FeatureCollection"}
	for i, feat := range fc.Features {
		if feat.Geometry == nil {
			continue
		}

		var rings [][]geojson.Position
		switch feat.Geometry.Type {
		case geojson.TypePolygon:
			if len(feat.Geometry.Polygon) > 0 {
				rings = append(rings, feat.Geometry.Polygon[0])
			}
		case geojson.TypeMultiPolygon:
			for _, poly := range feat.Geometry.MultiPolygon {
				if len(poly) > 0 {
					rings = append(rings, poly[0])
				}
			}
		default:
			return nil, fmt.Errorf("feature %d: cannot extrude %s", i, feat.Geometry.Type)
		}

		var faces [][]geojson.Position
		for _, ring := range rings {
			f, err := prismFaces(ring, height)
			if err != nil {
				return nil, fmt.Errorf("feature %d: %w", i, err)
			}
			faces = append(faces, f...)
		}

		props := make(map[string]interface{}, len(feat.Properties)+1)
		for k, v := range feat.Properties {
			props[k] = v
		}
		props["processed"] = true

		out.Features = append(out.Features, geojson.Feature{
			Type:       "Feature",
			Geometry:   &geojson.Geometry{Type: geojson.TypePolyhedralSurface, Faces: faces},
			Properties: props,
		})
	}

	return out, nil
}

// prismFaces sweeps a flat exterior ring along Z into the closed face
// set of a prism: bottom, top and one quad wall per edge. Every face
// ring repeats its first vertex.
func prismFaces(ring []geojson.Position, height float64) ([][]geojson.Position, error) {
	// strip the closing vertex, faces get their own
	if n := len(ring); n > 1 && ring[0].X() == ring[n-1].X() && ring[0].Y() == ring[n-1].Y() {
		ring = ring[:n-1]
	}
	if len(ring) < 3 {
		return nil, fmt.Errorf("ring has %d vertices, need at least 3", len(ring))
	}

	at := func(p geojson.Position, z float64) geojson.Position {
		return geojson.Position{p.X(), p.Y(), p.Z() + z}
	}
	closeRing := func(face []geojson.Position) []geojson.Position {
		return append(face, face[0])
	}

	n := len(ring)
	bottom := make([]geojson.Position, 0, n+1)
	top := make([]geojson.Position, 0, n+1)
	for i := 0; i < n; i++ {
		bottom = append(bottom, at(ring[i], 0))
		// top winds the other way so the face points outward
		top = append(top, at(ring[n-1-i], height))
	}

	faces := [][]geojson.Position{closeRing(bottom), closeRing(top)}
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		wall := []geojson.Position{
			at(ring[i], 0),
			at(ring[j], 0),
			at(ring[j], height),
			at(ring[i], height),
		}
		faces = append(faces, closeRing(wall))
	}

	return faces, nil
}

func floatParam(params map[string]interface{}, key string, fallback float64) float64 {
	v, ok := params[key]
	if !ok {
		return fallback
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return f
		}
	}
	return fallback
}
