package scene

import (
	"math"
	"testing"

	vec3 "github.com/flywave/go3d/float64/vec3"

	"github.com/lbartoletti/jupytergis/internal/geojson"
	"github.com/lbartoletti/jupytergis/internal/reproject"
)

func parse(t *testing.T, data string) *geojson.FeatureCollection {
	t.Helper()
	fc, err := geojson.Parse([]byte(data))
	if err != nil {
		t.Fatalf("parse input: %v", err)
	}
	return fc
}

func TestConvertSinglePointCenteredAtOrigin(t *testing.T) {
	fc := parse(t, `{"type":"Point","coordinates":[10,20,5]}`)

	obj, box, err := Convert(fc, Options{})
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if len(obj.Children) != 1 {
		t.Fatalf("expected 1 primitive, got %d", len(obj.Children))
	}

	p := obj.Children[0]
	if p.Kind != KindPoint {
		t.Fatalf("kind = %v, want point", p.Kind)
	}
	// the centroid of one point is the point itself
	pos := p.Positions[0]
	if pos.Length() > 1e-12 {
		t.Errorf("point not at origin: %v", pos)
	}
	center := BoxCenter(box)
	if center.Length() > 1e-12 {
		t.Errorf("bounds not centered: %v", center)
	}
}

func TestConvertPolygonCentroidCentering(t *testing.T) {
	fc := parse(t, `{"type":"Polygon","coordinates":[[[0,0],[4,0],[4,4],[0,4],[0,0]]]}`)

	obj, box, err := Convert(fc, Options{})
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if len(obj.Children) != 1 {
		t.Fatalf("expected 1 primitive, got %d", len(obj.Children))
	}

	// adding the centroid offset back must land on the ring centroid
	// of the raw input (closing vertex included)
	centroid := centroidOf(geojson.CollectAll(fc))
	center := BoxCenter(box)
	restored := vec3.Add(&center, &centroid)

	want := vec3.T{2, 2, 0}
	diff := vec3.Sub(&restored, &want)
	if diff.Length() > 1e-9 {
		t.Errorf("restored center = %v, want %v", restored, want)
	}
}

func TestConvert3DSkipsReprojection(t *testing.T) {
	fc := parse(t, `{
		"type": "FeatureCollection",
		"crs": {"type": "name", "properties": {"name": "EPSG:3946"}},
		"features": [{"type": "Feature", "properties": {}, "geometry":
			{"type": "Polygon", "coordinates": [[[1843000,5176000,100],[1843010,5176000,100],[1843010,5176010,110],[1843000,5176000,100]]]}}]
	}`)

	_, box, err := Convert(fc, Options{})
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}

	// metric extents survive untouched: only centering applied
	size := BoxSize(box)
	if math.Abs(size[0]-10) > 1e-9 || math.Abs(size[1]-10) > 1e-9 || math.Abs(size[2]-10) > 1e-9 {
		t.Errorf("3D data was reprojected or distorted: size = %v", size)
	}
}

func TestConvert2DReprojectsDeclaredCRS(t *testing.T) {
	fc := parse(t, `{
		"type": "FeatureCollection",
		"crs": {"type": "name", "properties": {"name": "urn:ogc:def:crs:EPSG::3946"}},
		"features": [
			{"type": "Feature", "properties": {}, "geometry":
				{"type": "Polygon", "coordinates": [[[1843000,5176000],[1843100,5176000],[1843100,5176100],[1843000,5176000]]]}},
			{"type": "Feature", "properties": {}, "geometry":
				{"type": "Polygon", "coordinates": [[[1843200,5176200],[1843300,5176200],[1843300,5176300],[1843200,5176200]]]}}
		]
	}`)

	obj, box, err := Convert(fc, Options{})
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if len(obj.Children) != 2 {
		t.Fatalf("expected 2 primitives, got %d", len(obj.Children))
	}

	// a few hundred meters is a tiny fraction of a degree, so the
	// reprojected, centered bounds must be far below 1 in every axis
	size := BoxSize(box)
	if size[0] > 0.1 || size[1] > 0.1 {
		t.Errorf("data does not look reprojected to degrees: size = %v", size)
	}
	center := BoxCenter(box)
	if center.Length() > 0.1 {
		t.Errorf("data not centered near origin: center = %v", center)
	}

	// the source collection must be untouched
	if got := fc.Features[0].Geometry.Polygon[0][0].X(); got != 1843000 {
		t.Errorf("input mutated: %v", got)
	}
}

func TestConvertAliasOfDisplayCRS(t *testing.T) {
	// a registered code whose definition matches the display CRS must
	// pass coordinates through untouched
	r := reproject.New()
	r.Register("OGC:WGS84G", "+proj=longlat +datum=WGS84 +no_defs")

	fc := parse(t, `{
		"type": "FeatureCollection",
		"crs": {"type": "name", "properties": {"name": "OGC:WGS84G"}},
		"features": [{"type": "Feature", "properties": {}, "geometry":
			{"type": "Point", "coordinates": [5, 6]}}]
	}`)

	obj, box, err := Convert(fc, Options{Reprojector: r})
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if len(obj.Children) != 1 {
		t.Fatalf("expected 1 primitive, got %d", len(obj.Children))
	}
	center := BoxCenter(box)
	if center.Length() > 1e-12 {
		t.Errorf("coordinates drifted through alias CRS: %v", center)
	}
}

func TestConvertTIN(t *testing.T) {
	fc := parse(t, `{"type":"TIN","coordinates":[
		[[0,0,0],[1,0,0],[0,1,0]],
		[[1,0,0],[1,1,0],[0,1,1]]
	]}`)

	obj, _, err := Convert(fc, Options{Wireframe: true})
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if len(obj.Children) != 2 {
		t.Fatalf("expected mesh + overlay, got %d children", len(obj.Children))
	}

	mesh := obj.Children[0]
	if mesh.Kind != KindMesh || len(mesh.Positions) != 6 {
		t.Errorf("mesh has %d vertices, want 6", len(mesh.Positions))
	}
	if len(mesh.Normals) != 6 {
		t.Errorf("normals not recomputed: %d", len(mesh.Normals))
	}
	for i, n := range mesh.Normals {
		if math.Abs(n.Length()-1) > 1e-9 {
			t.Errorf("normal %d not unit length: %v", i, n)
		}
	}

	overlay := obj.Children[1]
	if !overlay.Overlay || overlay.Kind != KindLine || !overlay.Segments {
		t.Errorf("unexpected overlay primitive: %+v", overlay)
	}
}

func TestConvertUnrecognizedTypeSkipped(t *testing.T) {
	fc := parse(t, `{"type":"FeatureCollection","features":[
		{"type":"Feature","properties":{},"geometry":{"type":"GeometryCollection","coordinates":[]}}
	]}`)

	obj, box, err := Convert(fc, Options{})
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if len(obj.Children) != 0 {
		t.Errorf("expected no primitives, got %d", len(obj.Children))
	}
	if box != vec3.MinBox {
		t.Errorf("expected empty bounds, got %v", box)
	}
}

func TestConvertEmptyCollection(t *testing.T) {
	obj, box, err := Convert(&geojson.FeatureCollection{Type: "FeatureCollection"}, Options{})
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if len(obj.Children) != 0 || box != vec3.MinBox {
		t.Errorf("empty input should produce empty scene")
	}

	obj, box, err = Convert(nil, Options{})
	if err != nil || len(obj.Children) != 0 || box != vec3.MinBox {
		t.Errorf("nil input should produce empty scene, err=%v", err)
	}
}

func TestConvertExtrudedPolygon(t *testing.T) {
	fc := parse(t, `{"type":"Polygon","coordinates":[[[0,0],[4,0],[4,4],[0,4],[0,0]]]}`)

	obj, box, err := Convert(fc, Options{Extrude: true, ExtrudeHeight: 5})
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if len(obj.Children) != 1 {
		t.Fatalf("expected 1 primitive, got %d", len(obj.Children))
	}

	size := BoxSize(box)
	if math.Abs(size[2]-5) > 1e-9 {
		t.Errorf("prism depth = %v, want 5", size[2])
	}

	// 2 caps of 2 triangles plus 4 quad walls of 2 triangles
	mesh := obj.Children[0]
	if len(mesh.Positions) != (2+2+8)*3 {
		t.Errorf("prism has %d vertices, want %d", len(mesh.Positions), (2+2+8)*3)
	}
}

func TestConvertConcavePolygon(t *testing.T) {
	// L-shaped ring, 6 vertices
	fc := parse(t, `{"type":"Polygon","coordinates":[[[0,0],[4,0],[4,2],[2,2],[2,4],[0,4],[0,0]]]}`)

	obj, _, err := Convert(fc, Options{})
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	mesh := obj.Children[0]
	if len(mesh.Positions) != 4*3 {
		t.Errorf("concave fill has %d vertices, want 12", len(mesh.Positions))
	}
}

func TestConvertFanTriangulation3DPolygon(t *testing.T) {
	fc := parse(t, `{"type":"Polygon","coordinates":[[[0,0,1],[4,0,1],[4,4,2],[0,4,2],[0,0,1]]]}`)

	obj, _, err := Convert(fc, Options{})
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	mesh := obj.Children[0]
	// 4 ring vertices fan into 2 triangles
	if len(mesh.Positions) != 2*3 {
		t.Errorf("fan produced %d vertices, want 6", len(mesh.Positions))
	}
}

func TestConvertDegenerateRingFails(t *testing.T) {
	// collinear ring cannot be triangulated
	fc := parse(t, `{"type":"Polygon","coordinates":[[[0,0],[1,0],[2,0],[3,0],[0,0]]]}`)

	if _, _, err := Convert(fc, Options{}); err == nil {
		t.Error("expected error for degenerate ring")
	}
}

func TestConvertLinesAndMultiPoint(t *testing.T) {
	fc := parse(t, `{"type":"FeatureCollection","features":[
		{"type":"Feature","properties":{},"geometry":{"type":"LineString","coordinates":[[0,0],[1,1],[2,0]]}},
		{"type":"Feature","properties":{},"geometry":{"type":"MultiPoint","coordinates":[[5,5],[6,6]]}}
	]}`)

	obj, _, err := Convert(fc, Options{})
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	// one polyline plus one marker per coordinate
	if len(obj.Children) != 3 {
		t.Fatalf("expected 3 primitives, got %d", len(obj.Children))
	}
	if obj.Children[0].Kind != KindLine || len(obj.Children[0].Positions) != 3 {
		t.Errorf("polyline not built: %+v", obj.Children[0])
	}
}

func TestConvertPolygonWireframeSibling(t *testing.T) {
	fc := parse(t, `{"type":"Polygon","coordinates":[[[0,0],[4,0],[4,4],[0,4],[0,0]]]}`)

	obj, _, err := Convert(fc, Options{Wireframe: true, WireframeColor: 0xff0000})
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if len(obj.Children) != 2 {
		t.Fatalf("expected mesh + overlay, got %d", len(obj.Children))
	}
	if obj.Children[1].Material.Color != 0xff0000 {
		t.Errorf("overlay color = %#x", obj.Children[1].Material.Color)
	}
}

func TestConvertDefaultsApplied(t *testing.T) {
	fc := parse(t, `{"type":"Point","coordinates":[0,0]}`)

	obj, _, err := Convert(fc, Options{})
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if obj.Children[0].Material.Color != DefaultColor {
		t.Errorf("default color not applied: %#x", obj.Children[0].Material.Color)
	}
	if obj.Children[0].Material.Opacity != 1 || !obj.Children[0].Material.Visible {
		t.Errorf("unexpected default material: %+v", obj.Children[0].Material)
	}
}

func TestConvertExplicitBlack(t *testing.T) {
	fc := parse(t, `{"type":"Point","coordinates":[0,0]}`)

	black := uint32(0x000000)
	obj, _, err := Convert(fc, Options{Color: &black})
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if obj.Children[0].Material.Color != 0 {
		t.Errorf("explicit black replaced by %#x", obj.Children[0].Material.Color)
	}
}
