package geojson

// Collect appends every leaf coordinate tuple of the geometry to acc,
// in traversal order: ring by ring, polygon by polygon, face by face.
// Unrecognized geometry types contribute nothing.
func Collect(g *Geometry, acc []Position) []Position {
	if g == nil {
		return acc
	}

	switch g.Type {
	case TypePoint:
		if len(g.Point) >= 2 {
			acc = append(acc, g.Point)
		}
	case TypeMultiPoint:
		acc = append(acc, g.MultiPoint...)
	case TypeLineString:
		acc = append(acc, g.LineString...)
	case TypeMultiLineString:
		for _, line := range g.MultiLineString {
			acc = append(acc, line...)
		}
	case TypePolygon:
		for _, ring := range g.Polygon {
			acc = append(acc, ring...)
		}
	case TypeMultiPolygon:
		for _, poly := range g.MultiPolygon {
			for _, ring := range poly {
				acc = append(acc, ring...)
			}
		}
	case TypeTIN, TypePolyhedralSurface:
		for _, face := range g.Faces {
			acc = append(acc, face...)
		}
	}

	return acc
}

// CollectAll flattens every feature geometry of the collection.
func CollectAll(fc *FeatureCollection) []Position {
	var acc []Position
	for i := range fc.Features {
		acc = Collect(fc.Features[i].Geometry, acc)
	}
	return acc
}

// Has3D reports whether any leaf coordinate of the collection carries a
// third component. TIN and PolyhedralSurface geometries are 3D by
// definition, whatever their tuples look like.
func Has3D(fc *FeatureCollection) bool {
	for i := range fc.Features {
		g := fc.Features[i].Geometry
		if g == nil {
			continue
		}
		if g.Type == TypeTIN || g.Type == TypePolyhedralSurface {
			return true
		}
		for _, p := range Collect(g, nil) {
			if len(p) > 2 {
				return true
			}
		}
	}
	return false
}

// MapCoordinates applies fn to every leaf coordinate tuple of the
// geometry in place.
func MapCoordinates(g *Geometry, fn func(Position) Position) {
	if g == nil {
		return
	}

	apply := func(ps []Position) {
		for i := range ps {
			ps[i] = fn(ps[i])
		}
	}

	switch g.Type {
	case TypePoint:
		if len(g.Point) >= 2 {
			g.Point = fn(g.Point)
		}
	case TypeMultiPoint:
		apply(g.MultiPoint)
	case TypeLineString:
		apply(g.LineString)
	case TypeMultiLineString:
		for _, line := range g.MultiLineString {
			apply(line)
		}
	case TypePolygon:
		for _, ring := range g.Polygon {
			apply(ring)
		}
	case TypeMultiPolygon:
		for _, poly := range g.MultiPolygon {
			for _, ring := range poly {
				apply(ring)
			}
		}
	case TypeTIN, TypePolyhedralSurface:
		for _, face := range g.Faces {
			apply(face)
		}
	}
}
