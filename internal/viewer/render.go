package viewer

import (
	"image"
	"image/color"
	"math"

	vec3 "github.com/flywave/go3d/float64/vec3"

	"github.com/lbartoletti/jupytergis/internal/scene"
)

const nearPlane = 0.1

// renderLocked rasterizes the current state into the frame buffer as a
// wireframe projection: grid lines, mesh edges, polylines and point
// markers. Callers must hold v.mu.
func (v *Viewer) renderLocked() {
	if v.frame == nil {
		return
	}

	fillRGBA(v.frame, v.background)

	proj := newProjector(v.camera, v.frame.Rect.Dx(), v.frame.Rect.Dy())

	if v.grid.Visible {
		v.drawGrid(proj)
	}
	if v.content == nil {
		return
	}

	for _, p := range v.content.Children {
		if !p.Material.Visible || p.Released() || len(p.Positions) == 0 {
			continue
		}
		col := rgba(p.Material.Color, p.Material.Opacity)

		switch p.Kind {
		case scene.KindPoint:
			for _, pos := range p.Positions {
				if sx, sy, ok := proj.project(pos); ok {
					v.drawMarker(sx, sy, col)
				}
			}

		case scene.KindLine:
			if p.Segments {
				for i := 0; i+1 < len(p.Positions); i += 2 {
					v.drawSegment(proj, p.Positions[i], p.Positions[i+1], col)
				}
			} else {
				for i := 0; i+1 < len(p.Positions); i++ {
					v.drawSegment(proj, p.Positions[i], p.Positions[i+1], col)
				}
			}

		case scene.KindMesh:
			for i := 0; i+2 < len(p.Positions); i += 3 {
				v.drawSegment(proj, p.Positions[i], p.Positions[i+1], col)
				v.drawSegment(proj, p.Positions[i+1], p.Positions[i+2], col)
				v.drawSegment(proj, p.Positions[i+2], p.Positions[i], col)
			}
		}
	}
}

func (v *Viewer) drawGrid(proj *projector) {
	col := color.RGBA{R: 0x60, G: 0x60, B: 0x60, A: 0xff}
	half := v.grid.Size / 2
	step := v.grid.Size / float64(v.grid.Cells)

	for i := 0; i <= v.grid.Cells; i++ {
		offset := -half + float64(i)*step
		v.drawSegment(proj, vec3.T{offset, -half, 0}, vec3.T{offset, half, 0}, col)
		v.drawSegment(proj, vec3.T{-half, offset, 0}, vec3.T{half, offset, 0}, col)
	}
}

func (v *Viewer) drawMarker(x, y int, col color.RGBA) {
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			setPixel(v.frame, x+dx, y+dy, col)
		}
	}
}

func (v *Viewer) drawSegment(proj *projector, a, b vec3.T, col color.RGBA) {
	ax, ay, aok := proj.project(a)
	bx, by, bok := proj.project(b)
	if !aok || !bok {
		return
	}

	steps := maxInt(absInt(bx-ax), absInt(by-ay))
	if steps == 0 {
		setPixel(v.frame, ax, ay, col)
		return
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		x := ax + int(math.Round(t*float64(bx-ax)))
		y := ay + int(math.Round(t*float64(by-ay)))
		setPixel(v.frame, x, y, col)
	}
}

// projector maps world coordinates to pixels through a look-at view
// and a perspective divide. Z is up.
type projector struct {
	eye            vec3.T
	right, up, fwd vec3.T
	tanHalfFov     float64
	aspect         float64
	width, height  int
}

func newProjector(cam Camera, width, height int) *projector {
	fwd := vec3.Sub(&cam.Target, &cam.Position)
	if fwd.Length() == 0 {
		fwd = vec3.T{0, 1, 0}
	}
	fwd.Normalize()

	worldUp := vec3.T{0, 0, 1}
	right := vec3.Cross(&fwd, &worldUp)
	if right.Length() == 0 {
		worldUp = vec3.T{0, 1, 0}
		right = vec3.Cross(&fwd, &worldUp)
	}
	right.Normalize()
	up := vec3.Cross(&right, &fwd)

	return &projector{
		eye:        cam.Position,
		right:      right,
		up:         up,
		fwd:        fwd,
		tanHalfFov: math.Tan(cam.FOV * math.Pi / 360),
		aspect:     cam.Aspect,
		width:      width,
		height:     height,
	}
}

func (p *projector) project(world vec3.T) (int, int, bool) {
	d := vec3.Sub(&world, &p.eye)
	z := vec3.Dot(&d, &p.fwd)
	if z < nearPlane {
		return 0, 0, false
	}
	x := vec3.Dot(&d, &p.right) / (z * p.tanHalfFov * p.aspect)
	y := vec3.Dot(&d, &p.up) / (z * p.tanHalfFov)

	sx := int((x + 1) / 2 * float64(p.width))
	sy := int((1 - (y+1)/2) * float64(p.height))
	return sx, sy, true
}

func fillRGBA(img *image.RGBA, c uint32) {
	col := rgba(c, 1)
	for y := img.Rect.Min.Y; y < img.Rect.Max.Y; y++ {
		for x := img.Rect.Min.X; x < img.Rect.Max.X; x++ {
			img.SetRGBA(x, y, col)
		}
	}
}

func setPixel(img *image.RGBA, x, y int, col color.RGBA) {
	if x < img.Rect.Min.X || x >= img.Rect.Max.X || y < img.Rect.Min.Y || y >= img.Rect.Max.Y {
		return
	}
	img.SetRGBA(x, y, col)
}

func rgba(c uint32, opacity float64) color.RGBA {
	return color.RGBA{
		R: uint8(c >> 16),
		G: uint8(c >> 8),
		B: uint8(c),
		A: uint8(clampF(opacity, 0, 1) * 255),
	}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
