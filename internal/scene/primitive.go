// Package scene converts GeoJSON into a renderable scene graph of
// owned primitives and computes camera placement for it.
package scene

import (
	vec3 "github.com/flywave/go3d/float64/vec3"
)

// Kind tags the primitive variants the viewer knows how to handle.
type Kind int

const (
	KindMesh Kind = iota
	KindLine
	KindPoint
)

// String returns the primitive kind name.
func (k Kind) String() string {
	switch k {
	case KindMesh:
		return "mesh"
	case KindLine:
		return "line"
	case KindPoint:
		return "point"
	}
	return "unknown"
}

// Material holds the mutable visual state of a primitive.
type Material struct {
	Color   uint32
	Opacity float64
	Visible bool
}

// Primitive is one renderable unit with owned vertex buffers. Meshes
// store a flat triangle list, lines either a strip or independent
// segment pairs, points one position per marker.
type Primitive struct {
	Kind     Kind
	Overlay  bool // edge-outline overlay attached to a mesh
	Segments bool // line data is segment pairs, not a strip

	Positions []vec3.T
	Normals   []vec3.T

	Material Material

	released bool
}

// Release drops the primitive's buffers. The viewer calls this for
// every primitive of outgoing content before attaching new content.
func (p *Primitive) Release() {
	p.Positions = nil
	p.Normals = nil
	p.released = true
}

// Released reports whether Release has been called.
func (p *Primitive) Released() bool { return p.released }

// Bounds returns the axis-aligned box enclosing the primitive.
func (p *Primitive) Bounds() vec3.Box {
	box := vec3.MinBox
	for i := range p.Positions {
		pt := vec3.Box{Min: p.Positions[i], Max: p.Positions[i]}
		box.Join(&pt)
	}
	return box
}

// Object is the scene-graph root produced by a conversion.
type Object struct {
	Children []*Primitive
}

// Release releases every child primitive.
func (o *Object) Release() {
	for _, p := range o.Children {
		p.Release()
	}
}

// add appends a primitive and grows the running bounding box.
func (o *Object) add(p *Primitive, box *vec3.Box) {
	o.Children = append(o.Children, p)
	b := p.Bounds()
	box.Join(&b)
}

// recomputeNormals assigns each vertex the normal of its triangle.
// Degenerate triangles get an up-facing normal.
func recomputeNormals(positions []vec3.T) []vec3.T {
	normals := make([]vec3.T, len(positions))
	for i := 0; i+2 < len(positions); i += 3 {
		a, b, c := positions[i], positions[i+1], positions[i+2]
		ab := vec3.Sub(&b, &a)
		ac := vec3.Sub(&c, &a)
		n := vec3.Cross(&ab, &ac)
		if n.Length() == 0 {
			n = vec3.T{0, 0, 1}
		} else {
			n.Normalize()
		}
		normals[i], normals[i+1], normals[i+2] = n, n, n
	}
	return normals
}

// meshEdges derives the unique undirected edges of a triangle list as
// independent segment pairs, for wireframe overlays.
func meshEdges(positions []vec3.T) []vec3.T {
	type key [6]float64
	seen := make(map[key]bool)
	var edges []vec3.T

	addEdge := func(a, b vec3.T) {
		k := key{a[0], a[1], a[2], b[0], b[1], b[2]}
		r := key{b[0], b[1], b[2], a[0], a[1], a[2]}
		if seen[k] || seen[r] {
			return
		}
		seen[k] = true
		edges = append(edges, a, b)
	}

	for i := 0; i+2 < len(positions); i += 3 {
		addEdge(positions[i], positions[i+1])
		addEdge(positions[i+1], positions[i+2])
		addEdge(positions[i+2], positions[i])
	}

	return edges
}
