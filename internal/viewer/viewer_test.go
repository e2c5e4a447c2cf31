package viewer

import (
	"bytes"
	"math"
	"testing"

	vec3 "github.com/flywave/go3d/float64/vec3"

	"github.com/lbartoletti/jupytergis/internal/geojson"
	"github.com/lbartoletti/jupytergis/internal/scene"
)

func testCollection(t *testing.T) *geojson.FeatureCollection {
	t.Helper()
	fc, err := geojson.Parse([]byte(`{"type":"Polygon","coordinates":[[[0,0],[40,0],[40,40],[0,40],[0,0]]]}`))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return fc
}

func newTestViewer(t *testing.T) *Viewer {
	t.Helper()
	v := New(Config{Width: 64, Height: 48})
	t.Cleanup(v.Dispose)
	return v
}

func TestLifecycleStates(t *testing.T) {
	v := newTestViewer(t)

	if got := v.State(); got != StateIdle {
		t.Fatalf("state after New = %v, want idle", got)
	}
	if err := v.LoadGeoJSON(testCollection(t), scene.Options{}); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if got := v.State(); got != StateLoaded {
		t.Fatalf("state after load = %v, want loaded", got)
	}

	v.Dispose()
	if got := v.State(); got != StateDisposed {
		t.Fatalf("state after dispose = %v, want disposed", got)
	}
}

func TestLoadTwiceReleasesOldContent(t *testing.T) {
	v := newTestViewer(t)

	if err := v.LoadGeoJSON(testCollection(t), scene.Options{Wireframe: true}); err != nil {
		t.Fatalf("first load: %v", err)
	}
	old := v.Content()
	firstBounds := v.Bounds()

	if err := v.LoadGeoJSON(testCollection(t), scene.Options{Wireframe: true}); err != nil {
		t.Fatalf("second load: %v", err)
	}

	for i, p := range old.Children {
		if !p.Released() {
			t.Errorf("old primitive %d not released", i)
		}
	}
	if got := v.Content(); got == old {
		t.Error("content not replaced")
	}
	if len(v.Content().Children) != len(old.Children) {
		t.Errorf("primitive count changed across identical loads: %d vs %d",
			len(v.Content().Children), len(old.Children))
	}
	if v.Bounds() != firstBounds {
		t.Errorf("bounds drifted across identical loads: %v vs %v", v.Bounds(), firstBounds)
	}
}

func TestLoadFailureKeepsPreviousContent(t *testing.T) {
	v := newTestViewer(t)

	if err := v.LoadGeoJSON(testCollection(t), scene.Options{}); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	before := v.Content()

	bad, err := geojson.Parse([]byte(`{"type":"Polygon","coordinates":[[[0,0],[1,0],[2,0],[3,0],[0,0]]]}`))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	if err := v.LoadGeoJSON(bad, scene.Options{}); err == nil {
		t.Fatal("expected conversion error")
	}

	if v.Content() != before {
		t.Error("content replaced despite failed load")
	}
	if v.State() != StateLoaded {
		t.Errorf("state = %v, want loaded", v.State())
	}
}

func TestDisposeIsTerminal(t *testing.T) {
	v := New(Config{Width: 32, Height: 32})
	v.Dispose()
	v.Dispose() // second call is a no-op

	if err := v.LoadGeoJSON(testCollection(t), scene.Options{}); err != ErrDisposed {
		t.Errorf("LoadGeoJSON after dispose = %v, want ErrDisposed", err)
	}
	if _, err := v.Screenshot(); err != ErrDisposed {
		t.Errorf("Screenshot after dispose = %v, want ErrDisposed", err)
	}

	// mutations must be silent no-ops
	v.SetOpacity(0.5)
	v.SetColor(0xff0000)
	v.SetWireframeVisible(false)
	v.Resize(10, 10)
	v.ResetCamera()
	v.Rotate(0.1, 0.1)
	v.Zoom(1.1)
}

func TestMutationsNoopWhileIdle(t *testing.T) {
	v := newTestViewer(t)

	v.SetOpacity(0.5)
	v.SetColor(0xff0000)
	v.SetWireframeVisible(false)
	v.FitToObject()

	if v.Content() != nil {
		t.Error("idle viewer grew content")
	}
}

func TestMaterialMutations(t *testing.T) {
	v := newTestViewer(t)
	if err := v.LoadGeoJSON(testCollection(t), scene.Options{Wireframe: true}); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	v.SetColor(0xaa0000)
	v.SetOpacity(2) // clamped to 1
	v.SetWireframeVisible(false)

	var overlays int
	for _, p := range v.Content().Children {
		if p.Overlay {
			overlays++
			if p.Material.Visible {
				t.Error("overlay still visible")
			}
			if p.Material.Color == 0xaa0000 {
				t.Error("overlay recolored by SetColor")
			}
			continue
		}
		if p.Material.Color != 0xaa0000 {
			t.Errorf("fill color = %#x", p.Material.Color)
		}
		if p.Material.Opacity != 1 {
			t.Errorf("opacity = %v, want clamped 1", p.Material.Opacity)
		}
	}
	if overlays == 0 {
		t.Fatal("fixture produced no overlay")
	}
}

func TestCameraFramingAndReset(t *testing.T) {
	v := newTestViewer(t)
	if err := v.LoadGeoJSON(testCollection(t), scene.Options{}); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	near := func(got, want vec3.T) bool {
		d := vec3.Sub(&got, &want)
		return d.Length() < 1e-6
	}

	cam := v.CameraState()
	want := scene.Frame(v.Bounds(), cam.FOV, cam.Aspect)
	if !near(cam.Position, want) {
		t.Errorf("camera = %v, want %v", cam.Position, want)
	}

	v.ResetCamera()
	cam = v.CameraState()
	if !near(cam.Position, DefaultCameraPosition) || !near(cam.Target, vec3.T{}) {
		t.Errorf("reset camera = %+v", cam)
	}

	v.FitToObject()
	cam = v.CameraState()
	if !near(cam.Position, want) {
		t.Errorf("refit camera = %v, want %v", cam.Position, want)
	}
}

func TestHelperRescalingClamps(t *testing.T) {
	v := newTestViewer(t)

	// tiny content pins grid to the minimum
	small, err := geojson.Parse([]byte(`{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,1],[0,0]]]}`))
	if err != nil {
		t.Fatal(err)
	}
	if err := v.LoadGeoJSON(small, scene.Options{}); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	grid := v.GridState()
	if grid.Size != minGridSize || grid.Cells != minGridCells {
		t.Errorf("small grid = %+v", grid)
	}

	// huge content hits the maxima
	huge, err := geojson.Parse([]byte(`{"type":"Polygon","coordinates":[[[0,0],[50000,0],[50000,50000],[0,50000],[0,0]]]}`))
	if err != nil {
		t.Fatal(err)
	}
	if err := v.LoadGeoJSON(huge, scene.Options{}); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	grid = v.GridState()
	if grid.Size != maxGridSize || grid.Cells != maxGridCells {
		t.Errorf("huge grid = %+v", grid)
	}
	light := v.LightState()
	target := v.CameraState().Target
	off := vec3.Sub(&light.Position, &target)
	if math.Abs(off[0]-maxLightDist) > 1e-9 {
		t.Errorf("light distance not clamped: %v", off)
	}
}

func TestScreenshotDimensions(t *testing.T) {
	v := newTestViewer(t)
	if err := v.LoadGeoJSON(testCollection(t), scene.Options{Wireframe: true}); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	img, err := v.Screenshot()
	if err != nil {
		t.Fatalf("screenshot failed: %v", err)
	}
	if img.Rect.Dx() != 64 || img.Rect.Dy() != 48 {
		t.Errorf("frame size = %v", img.Rect)
	}

	var buf bytes.Buffer
	if err := v.WriteScreenshot(&buf, 32, 24); err != nil {
		t.Fatalf("write screenshot: %v", err)
	}
	if buf.Len() < 12 || string(buf.Bytes()[:4]) != "RIFF" {
		t.Errorf("output does not look like webp, first bytes: %q", buf.Bytes()[:min(buf.Len(), 4)])
	}
}

func TestResizeUpdatesAspect(t *testing.T) {
	v := newTestViewer(t)
	v.Resize(200, 100)

	if got := v.CameraState().Aspect; got != 2 {
		t.Errorf("aspect = %v, want 2", got)
	}

	img, err := v.Screenshot()
	if err != nil {
		t.Fatalf("screenshot failed: %v", err)
	}
	if img.Rect.Dx() != 200 || img.Rect.Dy() != 100 {
		t.Errorf("frame size = %v", img.Rect)
	}

	// invalid dimensions ignored
	v.Resize(0, -5)
	if got := v.CameraState().Aspect; got != 2 {
		t.Errorf("aspect changed on invalid resize: %v", got)
	}
}
