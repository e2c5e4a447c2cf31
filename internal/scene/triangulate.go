package scene

import (
	"fmt"
)

type point2 struct {
	x, y float64
}

// earClip triangulates a simple polygon ring by ear clipping and
// returns index triples into the ring. It handles concave rings; a
// ring the algorithm cannot make progress on (self-intersecting or
// fully degenerate) yields an error.
func earClip(ring []point2) ([][3]int, error) {
	n := len(ring)
	if n < 3 {
		return nil, fmt.Errorf("ring has %d vertices, need at least 3", n)
	}

	// Work on indices so output refers to the caller's ring order.
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}

	// Ensure counter-clockwise orientation for the ear test.
	if signedArea(ring) < 0 {
		for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
			indices[i], indices[j] = indices[j], indices[i]
		}
	}

	var triangles [][3]int
	for len(indices) > 3 {
		clipped := false
		m := len(indices)

		for i := 0; i < m; i++ {
			prev := indices[(i+m-1)%m]
			curr := indices[i]
			next := indices[(i+1)%m]

			if !isEar(ring, indices, prev, curr, next) {
				continue
			}

			triangles = append(triangles, [3]int{prev, curr, next})
			indices = append(indices[:i], indices[i+1:]...)
			clipped = true
			break
		}

		if !clipped {
			return nil, fmt.Errorf("degenerate or self-intersecting ring, %d vertices left", len(indices))
		}
	}

	triangles = append(triangles, [3]int{indices[0], indices[1], indices[2]})
	return triangles, nil
}

func signedArea(ring []point2) float64 {
	var area float64
	for i := range ring {
		j := (i + 1) % len(ring)
		area += ring[i].x*ring[j].y - ring[j].x*ring[i].y
	}
	return area / 2
}

func isEar(ring []point2, indices []int, prev, curr, next int) bool {
	a, b, c := ring[prev], ring[curr], ring[next]

	// Reflex vertex: not an ear.
	if cross2(a, b, c) <= 0 {
		return false
	}

	for _, idx := range indices {
		if idx == prev || idx == curr || idx == next {
			continue
		}
		if pointInTriangle(ring[idx], a, b, c) {
			return false
		}
	}
	return true
}

func cross2(a, b, c point2) float64 {
	return (b.x-a.x)*(c.y-a.y) - (b.y-a.y)*(c.x-a.x)
}

func pointInTriangle(p, a, b, c point2) bool {
	d1 := cross2(a, b, p)
	d2 := cross2(b, c, p)
	d3 := cross2(c, a, p)
	hasNeg := d1 < 0 || d2 < 0 || d3 < 0
	hasPos := d1 > 0 || d2 > 0 || d3 > 0
	return !(hasNeg && hasPos)
}
