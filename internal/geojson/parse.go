package geojson

import (
	"encoding/json"
	"fmt"
)

// Parse decodes GeoJSON bytes into a FeatureCollection. A bare Feature
// or Geometry is wrapped as a singleton collection, so callers always
// work with the same shape.
func Parse(data []byte) (*FeatureCollection, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("decode geojson: %w", err)
	}

	switch probe.Type {
	case "FeatureCollection":
		var fc FeatureCollection
		if err := json.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("decode feature collection: %w", err)
		}
		return &fc, nil

	case "Feature":
		var f Feature
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("decode feature: %w", err)
		}
		return &FeatureCollection{Type: "FeatureCollection", Features: []Feature{f}}, nil

	case "":
		return nil, fmt.Errorf("geojson object has no type")

	default:
		var g Geometry
		if err := json.Unmarshal(data, &g); err != nil {
			return nil, fmt.Errorf("decode geometry: %w", err)
		}
		return &FeatureCollection{
			Type: "FeatureCollection",
			Features: []Feature{{
				Type:     "Feature",
				Geometry: &g,
			}},
		}, nil
	}
}

// SourceCRS returns the normalized CRS code declared on the collection,
// or the empty string when none is present.
func (fc *FeatureCollection) SourceCRS() string {
	if fc.CRS == nil {
		return ""
	}
	return NormalizeCRSName(fc.CRS.Properties.Name)
}
