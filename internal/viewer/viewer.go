// Package viewer owns the 3D view: scene content, camera, helpers, a
// continuous render loop and screenshot export.
package viewer

import (
	"errors"
	"image"
	"math"
	"sync"
	"time"

	vec3 "github.com/flywave/go3d/float64/vec3"
	"github.com/rs/zerolog/log"

	"github.com/lbartoletti/jupytergis/internal/geojson"
	"github.com/lbartoletti/jupytergis/internal/scene"
)

// ErrDisposed is returned by operations invoked after Dispose.
var ErrDisposed = errors.New("viewer is disposed")

// State of the viewer lifecycle.
type State int

const (
	StateIdle State = iota
	StateLoaded
	StateDisposed
)

// DefaultCameraPosition is the fixed position ResetCamera returns to.
var DefaultCameraPosition = vec3.T{50, -50, 50}

// Helper scaling clamps, keeping grid and lighting sane for
// pathological extents.
const (
	minGridSize  = 10.0
	maxGridSize  = 10000.0
	minGridCells = 10
	maxGridCells = 100
	maxLightDist = 5000.0
)

// Camera is the current viewpoint.
type Camera struct {
	Position vec3.T
	Target   vec3.T
	FOV      float64
	Aspect   float64
}

// Grid is the reference grid helper drawn on the Z=0 plane.
type Grid struct {
	Size    float64
	Cells   int
	Visible bool
}

// Light is the directional light rig; only its placement matters to
// the software projector but it is rescaled with content like the rest.
type Light struct {
	Position  vec3.T
	Intensity float64
}

// Config holds construction parameters.
type Config struct {
	Width      int
	Height     int
	Background uint32
	FOV        float64
	FrameRate  int
}

// Viewer renders one scene object at a time. All methods are safe for
// concurrent use; mutation methods are no-ops while nothing is loaded
// and after disposal (except LoadGeoJSON and Screenshot, which report
// ErrDisposed).
type Viewer struct {
	mu sync.Mutex

	disposed bool
	content  *scene.Object
	bounds   vec3.Box

	camera   Camera
	controls *orbitControls
	grid     Grid
	light    Light

	background uint32
	frame      *image.RGBA

	stop chan struct{}
	done chan struct{}
}

// New creates a mounted, idle viewer and starts its render loop.
func New(cfg Config) *Viewer {
	if cfg.Width <= 0 {
		cfg.Width = 800
	}
	if cfg.Height <= 0 {
		cfg.Height = 600
	}
	if cfg.FOV <= 0 {
		cfg.FOV = scene.DefaultFOV
	}
	if cfg.FrameRate <= 0 {
		cfg.FrameRate = 60
	}

	v := &Viewer{
		camera: Camera{
			Position: DefaultCameraPosition,
			FOV:      cfg.FOV,
			Aspect:   float64(cfg.Width) / float64(cfg.Height),
		},
		grid:       Grid{Size: 100, Cells: 10, Visible: true},
		light:      Light{Position: vec3.T{100, -100, 200}, Intensity: 1},
		background: cfg.Background,
		frame:      image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height)),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	v.controls = newOrbitControls(v.camera.Position, v.camera.Target)

	go v.loop(time.Second / time.Duration(cfg.FrameRate))

	log.Debug().Int("width", cfg.Width).Int("height", cfg.Height).
		Msg("Viewer mounted")

	return v
}

// loop advances control damping and re-renders once per frame until
// disposed, whether or not anything changed.
func (v *Viewer) loop(interval time.Duration) {
	defer close(v.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-v.stop:
			return
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now

			v.mu.Lock()
			if !v.disposed {
				v.camera.Position = v.controls.update(dt)
				v.camera.Target = v.controls.target
				v.renderLocked()
			}
			v.mu.Unlock()
		}
	}
}

// State reports the lifecycle state.
func (v *Viewer) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	switch {
	case v.disposed:
		return StateDisposed
	case v.content != nil:
		return StateLoaded
	default:
		return StateIdle
	}
}

// LoadGeoJSON converts the collection and replaces the current content.
// The outgoing content's buffers are released before the new object is
// attached; on conversion failure the previous content stays in place.
func (v *Viewer) LoadGeoJSON(fc *geojson.FeatureCollection, opts scene.Options) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.disposed {
		return ErrDisposed
	}

	obj, box, err := scene.Convert(fc, opts)
	if err != nil {
		return err
	}

	if v.content != nil {
		v.content.Release()
	}
	v.content = obj
	v.bounds = box

	v.frameContentLocked()
	v.rescaleHelpersLocked()
	v.renderLocked()

	log.Debug().Int("primitives", len(obj.Children)).Msg("Scene content replaced")
	return nil
}

func (v *Viewer) frameContentLocked() {
	v.camera.Position = scene.Frame(v.bounds, v.camera.FOV, v.camera.Aspect)
	v.camera.Target = scene.BoxCenter(v.bounds)
	v.controls.syncTo(v.camera.Position, v.camera.Target)
}

func (v *Viewer) rescaleHelpersLocked() {
	size := scene.BoxSize(v.bounds)
	extent := math.Max(size[0], math.Max(size[1], size[2]))

	gridSize := clampF(extent*1.5, minGridSize, maxGridSize)
	cells := clampI(int(extent/10), minGridCells, maxGridCells)
	v.grid.Size = gridSize
	v.grid.Cells = cells

	dist := clampF(extent*2, minGridSize, maxLightDist)
	target := v.camera.Target
	offset := vec3.T{dist, -dist, dist * 2}
	v.light.Position = vec3.Add(&target, &offset)
}

// Resize changes the render target dimensions.
func (v *Viewer) Resize(width, height int) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.disposed || width <= 0 || height <= 0 {
		return
	}
	v.frame = image.NewRGBA(image.Rect(0, 0, width, height))
	v.camera.Aspect = float64(width) / float64(height)
	v.renderLocked()
}

// SetBackgroundColor changes the clear color.
func (v *Viewer) SetBackgroundColor(c uint32) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.disposed {
		return
	}
	v.background = c
	v.renderLocked()
}

// ResetCamera moves the camera back to the fixed default position.
func (v *Viewer) ResetCamera() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.disposed {
		return
	}
	v.camera.Position = DefaultCameraPosition
	v.camera.Target = vec3.T{}
	v.controls.syncTo(v.camera.Position, v.camera.Target)
	v.renderLocked()
}

// FitToObject reframes the camera on the current content.
func (v *Viewer) FitToObject() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.disposed || v.content == nil {
		return
	}
	v.frameContentLocked()
	v.renderLocked()
}

// SetWireframeVisible toggles edge-outline overlays. Content without
// overlays is left untouched.
func (v *Viewer) SetWireframeVisible(visible bool) {
	v.mutatePrimitives(func(p *scene.Primitive) {
		if p.Overlay {
			p.Material.Visible = visible
		}
	})
}

// SetOpacity sets the fill opacity of all non-overlay primitives.
func (v *Viewer) SetOpacity(opacity float64) {
	opacity = clampF(opacity, 0, 1)
	v.mutatePrimitives(func(p *scene.Primitive) {
		if !p.Overlay {
			p.Material.Opacity = opacity
		}
	})
}

// SetColor recolors all non-overlay primitives.
func (v *Viewer) SetColor(c uint32) {
	v.mutatePrimitives(func(p *scene.Primitive) {
		if !p.Overlay {
			p.Material.Color = c
		}
	})
}

func (v *Viewer) mutatePrimitives(fn func(*scene.Primitive)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.disposed || v.content == nil {
		return
	}
	for _, p := range v.content.Children {
		fn(p)
	}
	v.renderLocked()
}

// Rotate feeds an orbit gesture into the controls; the render loop
// applies it with damping.
func (v *Viewer) Rotate(dx, dy float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.disposed {
		return
	}
	v.controls.rotate(dx, dy)
}

// Zoom feeds a dolly gesture into the controls.
func (v *Viewer) Zoom(factor float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.disposed {
		return
	}
	v.controls.dolly(factor)
}

// Content exposes the current scene object, or nil while idle.
func (v *Viewer) Content() *scene.Object {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.content
}

// Bounds returns the bounding box of the current content.
func (v *Viewer) Bounds() vec3.Box {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.bounds
}

// CameraState returns the current camera.
func (v *Viewer) CameraState() Camera {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.camera
}

// GridState returns the current grid helper parameters.
func (v *Viewer) GridState() Grid {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.grid
}

// LightState returns the current light rig.
func (v *Viewer) LightState() Light {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.light
}

// Dispose cancels the render loop and releases all owned resources.
// It is terminal; subsequent Dispose calls are no-ops.
func (v *Viewer) Dispose() {
	v.mu.Lock()
	if v.disposed {
		v.mu.Unlock()
		return
	}
	v.disposed = true
	close(v.stop)

	if v.content != nil {
		v.content.Release()
		v.content = nil
	}
	v.controls.dispose()
	v.frame = nil
	v.mu.Unlock()

	<-v.done
	log.Debug().Msg("Viewer disposed")
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampI(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
