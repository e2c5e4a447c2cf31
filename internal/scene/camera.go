package scene

import (
	"math"

	vec3 "github.com/flywave/go3d/float64/vec3"
)

// Camera framing defaults.
const (
	DefaultFOV    = 50.0
	DefaultAspect = 1.0

	// degenerateFrameDistance keeps the camera at a finite distance
	// from zero-size content.
	degenerateFrameDistance = 10.0
)

// frameDirection is the fixed diagonal viewing direction, chosen so the
// whole volume stays visible whatever its aspect ratio.
var frameDirection = vec3.T{1, -1, 1}

// Frame computes a camera position that fits the bounding box in view
// for the given vertical field of view (degrees) and aspect ratio.
func Frame(box vec3.Box, fovDeg, aspect float64) vec3.T {
	if fovDeg <= 0 {
		fovDeg = DefaultFOV
	}
	if aspect <= 0 {
		aspect = DefaultAspect
	}

	center := BoxCenter(box)
	size := BoxSize(box)

	maxSize := math.Max(size[0], math.Max(size[1], size[2]))
	fitHeight := maxSize / (2 * math.Tan(fovDeg*math.Pi/360))
	fitWidth := fitHeight / aspect

	distance := math.Max(fitHeight, fitWidth)
	if distance < 1e-9 || math.IsNaN(distance) || math.IsInf(distance, 0) {
		distance = degenerateFrameDistance
	}

	dir := frameDirection.Normalized()
	offset := dir.Scaled(distance)
	return vec3.Add(&center, &offset)
}

// BoxCenter returns the center of the box, or the origin for an empty
// box.
func BoxCenter(box vec3.Box) vec3.T {
	if box == vec3.MinBox {
		return vec3.T{}
	}
	c := vec3.Add(&box.Min, &box.Max)
	c.Scale(0.5)
	return c
}

// BoxSize returns the extents of the box, or zero for an empty box.
func BoxSize(box vec3.Box) vec3.T {
	if box == vec3.MinBox {
		return vec3.T{}
	}
	return vec3.Sub(&box.Max, &box.Min)
}
