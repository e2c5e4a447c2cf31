package scene

import (
	"math"
	"testing"
)

func ringArea(ring []point2, tris [][3]int) float64 {
	var sum float64
	for _, t := range tris {
		sum += math.Abs(cross2(ring[t[0]], ring[t[1]], ring[t[2]])) / 2
	}
	return sum
}

func TestEarClipSquare(t *testing.T) {
	ring := []point2{{0, 0}, {4, 0}, {4, 4}, {0, 4}}

	tris, err := earClip(ring)
	if err != nil {
		t.Fatalf("earClip failed: %v", err)
	}
	if len(tris) != 2 {
		t.Fatalf("got %d triangles, want 2", len(tris))
	}
	if got := ringArea(ring, tris); math.Abs(got-16) > 1e-9 {
		t.Errorf("triangulated area = %v, want 16", got)
	}
}

func TestEarClipConcave(t *testing.T) {
	ring := []point2{{0, 0}, {4, 0}, {4, 2}, {2, 2}, {2, 4}, {0, 4}}

	tris, err := earClip(ring)
	if err != nil {
		t.Fatalf("earClip failed: %v", err)
	}
	if len(tris) != 4 {
		t.Fatalf("got %d triangles, want 4", len(tris))
	}
	if got := ringArea(ring, tris); math.Abs(got-12) > 1e-9 {
		t.Errorf("triangulated area = %v, want 12", got)
	}
}

func TestEarClipClockwiseRing(t *testing.T) {
	// clockwise input is reoriented, the area must still come out right
	ring := []point2{{0, 4}, {4, 4}, {4, 0}, {0, 0}}

	tris, err := earClip(ring)
	if err != nil {
		t.Fatalf("earClip failed: %v", err)
	}
	if got := ringArea(ring, tris); math.Abs(got-16) > 1e-9 {
		t.Errorf("triangulated area = %v, want 16", got)
	}
}

func TestEarClipDegenerate(t *testing.T) {
	if _, err := earClip([]point2{{0, 0}, {1, 1}}); err == nil {
		t.Error("expected error for too few vertices")
	}
	if _, err := earClip([]point2{{0, 0}, {1, 0}, {2, 0}, {3, 0}}); err == nil {
		t.Error("expected error for collinear ring")
	}
}
