package scene

import (
	"fmt"

	vec3 "github.com/flywave/go3d/float64/vec3"
	"github.com/rs/zerolog/log"

	"github.com/lbartoletti/jupytergis/internal/geojson"
	"github.com/lbartoletti/jupytergis/internal/reproject"
)

// Conversion defaults.
const (
	DefaultColor          = 0x3388ff
	DefaultWireframeColor = 0x212121
	DefaultExtrudeHeight  = 10.0
)

// Options configures a conversion.
type Options struct {
	// Color is the fill color for meshes and markers. Nil means
	// DefaultColor; zero is an explicit black.
	Color          *uint32
	Extrude        bool
	ExtrudeHeight  float64
	Wireframe      bool
	WireframeColor uint32

	// DisplayCRS is the target CRS for 2D data carrying a differing
	// declared CRS. Defaults to the geographic display CRS.
	DisplayCRS  string
	Reprojector *reproject.Reprojector

	fill uint32
}

func (o *Options) defaults() {
	o.fill = DefaultColor
	if o.Color != nil {
		o.fill = *o.Color
	}
	if o.WireframeColor == 0 {
		o.WireframeColor = DefaultWireframeColor
	}
	if o.ExtrudeHeight <= 0 {
		o.ExtrudeHeight = DefaultExtrudeHeight
	}
	if o.DisplayCRS == "" {
		o.DisplayCRS = reproject.DisplayCRS
	}
}

// Convert turns a feature collection into a scene object and its
// bounding box. Output vertices are centered on the centroid of all
// input coordinates. 2D data declared in a CRS differing from the
// display CRS is reprojected first; 3D data is kept in its original
// projected units so Z stays commensurate with X and Y. Unrecognized
// geometry types are skipped; a geometry the mesh construction cannot
// handle aborts the conversion with an error.
func Convert(fc *geojson.FeatureCollection, opts Options) (*Object, vec3.Box, error) {
	opts.defaults()

	root := &Object{}
	box := vec3.MinBox
	if fc == nil || len(fc.Features) == 0 {
		return root, box, nil
	}

	srcCRS := fc.SourceCRS()
	has3D := geojson.Has3D(fc)

	if srcCRS != "" && srcCRS != opts.DisplayCRS && !has3D {
		r := opts.Reprojector
		if r == nil {
			r = reproject.New()
		}
		fc = fc.Clone()
		for i := range fc.Features {
			geojson.MapCoordinates(fc.Features[i].Geometry, func(p geojson.Position) geojson.Position {
				return r.Transform(p, srcCRS, opts.DisplayCRS)
			})
		}
	}

	centroid := centroidOf(geojson.CollectAll(fc))

	for i := range fc.Features {
		g := fc.Features[i].Geometry
		if g == nil {
			continue
		}
		if err := buildGeometry(root, &box, g, centroid, has3D, opts); err != nil {
			log.Error().Err(err).Int("feature", i).Str("type", g.Type).
				Msg("Scene conversion failed")
			return nil, vec3.MinBox, fmt.Errorf("feature %d (%s): %w", i, g.Type, err)
		}
	}

	return root, box, nil
}

func centroidOf(coords []geojson.Position) vec3.T {
	var c vec3.T
	if len(coords) == 0 {
		return c
	}
	for _, p := range coords {
		c[0] += p.X()
		c[1] += p.Y()
		c[2] += p.Z()
	}
	n := float64(len(coords))
	c[0] /= n
	c[1] /= n
	c[2] /= n
	return c
}

func buildGeometry(root *Object, box *vec3.Box, g *geojson.Geometry, centroid vec3.T, has3D bool, opts Options) error {
	center := func(p geojson.Position) vec3.T {
		return vec3.T{p.X() - centroid[0], p.Y() - centroid[1], p.Z() - centroid[2]}
	}

	switch g.Type {
	case geojson.TypePoint:
		if len(g.Point) >= 2 {
			root.add(pointMarker(center(g.Point), opts), box)
		}

	case geojson.TypeMultiPoint:
		for _, p := range g.MultiPoint {
			root.add(pointMarker(center(p), opts), box)
		}

	case geojson.TypeLineString:
		if prim := polyline(g.LineString, center, opts); prim != nil {
			root.add(prim, box)
		}

	case geojson.TypeMultiLineString:
		for _, line := range g.MultiLineString {
			if prim := polyline(line, center, opts); prim != nil {
				root.add(prim, box)
			}
		}

	case geojson.TypePolygon:
		return addPolygon(root, box, g.Polygon, centroid, has3D, opts)

	case geojson.TypeMultiPolygon:
		for _, poly := range g.MultiPolygon {
			if err := addPolygon(root, box, poly, centroid, has3D, opts); err != nil {
				return err
			}
		}

	case geojson.TypeTIN, geojson.TypePolyhedralSurface:
		addFaceMesh(root, box, g.Faces, center, opts)

	default:
		log.Debug().Str("type", g.Type).Msg("Skipping unsupported geometry type")
	}

	return nil
}

func pointMarker(pos vec3.T, opts Options) *Primitive {
	return &Primitive{
		Kind:      KindPoint,
		Positions: []vec3.T{pos},
		Material:  Material{Color: opts.fill, Opacity: 1, Visible: true},
	}
}

func polyline(line []geojson.Position, center func(geojson.Position) vec3.T, opts Options) *Primitive {
	if len(line) < 2 {
		return nil
	}
	positions := make([]vec3.T, len(line))
	for i, p := range line {
		positions[i] = center(p)
	}
	return &Primitive{
		Kind:      KindLine,
		Positions: positions,
		Material:  Material{Color: opts.fill, Opacity: 1, Visible: true},
	}
}

// addPolygon builds a mesh from the exterior ring only. Interior rings
// are not honored. With true 3D coordinates and extrusion off the ring
// is fan-triangulated in place; otherwise the ring is taken as a flat
// XY shape and either filled or swept into a prism.
func addPolygon(root *Object, box *vec3.Box, rings [][]geojson.Position, centroid vec3.T, has3D bool, opts Options) error {
	if len(rings) == 0 {
		return nil
	}
	ring := dropClosing(rings[0])
	if len(ring) < 3 {
		return nil
	}

	var positions []vec3.T

	if has3D && !opts.Extrude {
		for i := 1; i+1 < len(ring); i++ {
			positions = append(positions,
				vec3.T{ring[0].X() - centroid[0], ring[0].Y() - centroid[1], ring[0].Z() - centroid[2]},
				vec3.T{ring[i].X() - centroid[0], ring[i].Y() - centroid[1], ring[i].Z() - centroid[2]},
				vec3.T{ring[i+1].X() - centroid[0], ring[i+1].Y() - centroid[1], ring[i+1].Z() - centroid[2]},
			)
		}
	} else {
		shape := make([]point2, len(ring))
		for i, p := range ring {
			shape[i] = point2{x: p.X() - centroid[0], y: p.Y() - centroid[1]}
		}

		tris, err := earClip(shape)
		if err != nil {
			return err
		}

		if opts.Extrude {
			positions = prism(shape, tris, opts.ExtrudeHeight)
		} else {
			for _, t := range tris {
				for _, idx := range t {
					positions = append(positions, vec3.T{shape[idx].x, shape[idx].y, 0})
				}
			}
		}
	}

	addMesh(root, box, positions, opts)
	return nil
}

// prism sweeps a triangulated flat shape along Z into a closed solid:
// bottom cap at 0, top cap at height, one quad per ring edge.
func prism(shape []point2, tris [][3]int, height float64) []vec3.T {
	var positions []vec3.T

	at := func(idx int, z float64) vec3.T {
		return vec3.T{shape[idx].x, shape[idx].y, z}
	}

	for _, t := range tris {
		// bottom cap faces down
		positions = append(positions, at(t[0], 0), at(t[2], 0), at(t[1], 0))
	}
	for _, t := range tris {
		positions = append(positions, at(t[0], height), at(t[1], height), at(t[2], height))
	}
	for i := range shape {
		j := (i + 1) % len(shape)
		positions = append(positions,
			at(i, 0), at(j, 0), at(j, height),
			at(i, 0), at(j, height), at(i, height),
		)
	}

	return positions
}

// addFaceMesh flattens a TIN or PolyhedralSurface face list into one
// triangle soup. Faces with more than three vertices are fanned.
func addFaceMesh(root *Object, box *vec3.Box, faces [][]geojson.Position, center func(geojson.Position) vec3.T, opts Options) {
	var positions []vec3.T
	for _, face := range faces {
		f := dropClosing(face)
		if len(f) < 3 {
			continue
		}
		for i := 1; i+1 < len(f); i++ {
			positions = append(positions, center(f[0]), center(f[i]), center(f[i+1]))
		}
	}
	addMesh(root, box, positions, opts)
}

func addMesh(root *Object, box *vec3.Box, positions []vec3.T, opts Options) {
	if len(positions) == 0 {
		return
	}

	mesh := &Primitive{
		Kind:      KindMesh,
		Positions: positions,
		Normals:   recomputeNormals(positions),
		Material:  Material{Color: opts.fill, Opacity: 1, Visible: true},
	}
	root.add(mesh, box)

	if opts.Wireframe {
		root.add(&Primitive{
			Kind:      KindLine,
			Overlay:   true,
			Segments:  true,
			Positions: meshEdges(positions),
			Material:  Material{Color: opts.WireframeColor, Opacity: 1, Visible: true},
		}, box)
	}
}

// dropClosing strips the closing vertex of a ring when it repeats the
// first one.
func dropClosing(ring []geojson.Position) []geojson.Position {
	if len(ring) < 2 {
		return ring
	}
	first, last := ring[0], ring[len(ring)-1]
	if first.X() == last.X() && first.Y() == last.Y() && first.Z() == last.Z() {
		return ring[:len(ring)-1]
	}
	return ring
}
