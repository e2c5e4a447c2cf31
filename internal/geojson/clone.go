package geojson

func clonePositions(ps []Position) []Position {
	if ps == nil {
		return nil
	}
	out := make([]Position, len(ps))
	for i, p := range ps {
		c := make(Position, len(p))
		copy(c, p)
		out[i] = c
	}
	return out
}

func cloneRings(rings [][]Position) [][]Position {
	if rings == nil {
		return nil
	}
	out := make([][]Position, len(rings))
	for i, r := range rings {
		out[i] = clonePositions(r)
	}
	return out
}

// Clone returns a deep copy of the geometry's coordinate tree.
func (g *Geometry) Clone() *Geometry {
	if g == nil {
		return nil
	}
	out := &Geometry{Type: g.Type, raw: g.raw}

	if g.Point != nil {
		out.Point = make(Position, len(g.Point))
		copy(out.Point, g.Point)
	}
	out.MultiPoint = clonePositions(g.MultiPoint)
	out.LineString = clonePositions(g.LineString)
	out.MultiLineString = cloneRings(g.MultiLineString)
	out.Polygon = cloneRings(g.Polygon)
	out.Faces = cloneRings(g.Faces)

	if g.MultiPolygon != nil {
		out.MultiPolygon = make([][][]Position, len(g.MultiPolygon))
		for i, poly := range g.MultiPolygon {
			out.MultiPolygon[i] = cloneRings(poly)
		}
	}

	return out
}

// Clone returns a deep copy of the collection.
func (fc *FeatureCollection) Clone() *FeatureCollection {
	if fc == nil {
		return nil
	}
	out := &FeatureCollection{Type: fc.Type}

	if fc.CRS != nil {
		crs := *fc.CRS
		out.CRS = &crs
	}

	out.Features = make([]Feature, len(fc.Features))
	for i, f := range fc.Features {
		props := make(map[string]interface{}, len(f.Properties))
		for k, v := range f.Properties {
			props[k] = v
		}
		out.Features[i] = Feature{
			Type:       f.Type,
			Geometry:   f.Geometry.Clone(),
			Properties: props,
		}
	}

	return out
}
