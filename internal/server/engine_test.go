package server

import (
	"testing"

	"github.com/lbartoletti/jupytergis/internal/geojson"
)

func polygonCollection(t *testing.T) *geojson.FeatureCollection {
	t.Helper()
	fc, err := geojson.Parse([]byte(`{
		"type": "FeatureCollection",
		"features": [{
			"type": "Feature",
			"properties": {"name": "square"},
			"geometry": {"type": "Polygon", "coordinates": [[[0,0],[4,0],[4,4],[0,4],[0,0]]]}
		}]
	}`))
	if err != nil {
		t.Fatal(err)
	}
	return fc
}

func TestNativeEngineExtrude(t *testing.T) {
	fc := polygonCollection(t)

	out, err := NativeEngine{}.Process(OpExtrude, fc, map[string]interface{}{"extrudeHeight": 5.0})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(out.Features) != 1 {
		t.Fatalf("got %d features", len(out.Features))
	}

	feat := out.Features[0]
	if feat.Geometry.Type != geojson.TypePolyhedralSurface {
		t.Fatalf("geometry type = %s", feat.Geometry.Type)
	}
	// bottom, top and 4 walls
	if len(feat.Geometry.Faces) != 6 {
		t.Fatalf("got %d faces, want 6", len(feat.Geometry.Faces))
	}
	for i, face := range feat.Geometry.Faces {
		first, last := face[0], face[len(face)-1]
		if first.X() != last.X() || first.Y() != last.Y() || first.Z() != last.Z() {
			t.Errorf("face %d not closed", i)
		}
	}

	var minZ, maxZ float64
	for _, face := range feat.Geometry.Faces {
		for _, p := range face {
			if p.Z() < minZ {
				minZ = p.Z()
			}
			if p.Z() > maxZ {
				maxZ = p.Z()
			}
		}
	}
	if minZ != 0 || maxZ != 5 {
		t.Errorf("z range [%v, %v], want [0, 5]", minZ, maxZ)
	}

	if feat.Properties["processed"] != true {
		t.Error("processed flag missing")
	}
	if feat.Properties["name"] != "square" {
		t.Error("input properties lost")
	}

	// input untouched
	if fc.Features[0].Geometry.Type != geojson.TypePolygon {
		t.Error("input collection mutated")
	}
	if _, ok := fc.Features[0].Properties["processed"]; ok {
		t.Error("input properties mutated")
	}
}

func TestNativeEngineDefaultHeight(t *testing.T) {
	out, err := NativeEngine{}.Process(OpExtrude, polygonCollection(t), nil)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	var maxZ float64
	for _, face := range out.Features[0].Geometry.Faces {
		for _, p := range face {
			if p.Z() > maxZ {
				maxZ = p.Z()
			}
		}
	}
	if maxZ != defaultExtrudeHeight {
		t.Errorf("max z = %v, want default %v", maxZ, defaultExtrudeHeight)
	}
}

func TestNativeEngineRejects(t *testing.T) {
	fc := polygonCollection(t)
	engine := NativeEngine{}

	if _, err := engine.Process(OpStraightSkeleton, fc, nil); err == nil {
		t.Error("unimplemented operation accepted")
	}
	if _, err := engine.Process(OpExtrude, fc, map[string]interface{}{"extrudeHeight": -1.0}); err == nil {
		t.Error("negative height accepted")
	}

	point, err := geojson.Parse([]byte(`{"type":"Point","coordinates":[1,2]}`))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := engine.Process(OpExtrude, point, nil); err == nil {
		t.Error("point extrusion accepted")
	}
}

func TestFloatParam(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]interface{}
		want   float64
	}{
		{name: "missing", params: nil, want: 7},
		{name: "float", params: map[string]interface{}{"h": 2.5}, want: 2.5},
		{name: "int", params: map[string]interface{}{"h": 3}, want: 3},
		{name: "wrong type", params: map[string]interface{}{"h": "tall"}, want: 7},
	}
	for _, tt := range tests {
		if got := floatParam(tt.params, "h", 7); got != tt.want {
			t.Errorf("%s: floatParam = %v, want %v", tt.name, got, tt.want)
		}
	}
}
