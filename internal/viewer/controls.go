package viewer

import (
	"math"

	vec3 "github.com/flywave/go3d/float64/vec3"
)

const (
	dampingFactor = 0.92
	minPolar      = 0.01
	maxPolar      = math.Pi - 0.01
	minDistance   = 0.1
)

// orbitControls keep a spherical camera state (Z up) around a target
// and apply velocity damping each frame, so gestures ease out over a
// few frames like typical orbit controls do.
type orbitControls struct {
	target   vec3.T
	azimuth  float64
	polar    float64
	distance float64

	azimuthVel float64
	polarVel   float64
	zoomVel    float64

	disposed bool
}

func newOrbitControls(position, target vec3.T) *orbitControls {
	c := &orbitControls{}
	c.syncTo(position, target)
	return c
}

// syncTo resets the spherical state to match an externally set camera.
func (c *orbitControls) syncTo(position, target vec3.T) {
	c.target = target
	offset := vec3.Sub(&position, &target)

	c.distance = offset.Length()
	if c.distance < minDistance {
		c.distance = minDistance
	}
	c.polar = math.Acos(clampF(offset[2]/c.distance, -1, 1))
	c.azimuth = math.Atan2(offset[1], offset[0])

	c.azimuthVel = 0
	c.polarVel = 0
	c.zoomVel = 0
}

func (c *orbitControls) rotate(dx, dy float64) {
	c.azimuthVel += dx
	c.polarVel += dy
}

func (c *orbitControls) dolly(factor float64) {
	c.zoomVel += factor
}

// update advances the state by dt seconds and returns the new camera
// position.
func (c *orbitControls) update(dt float64) vec3.T {
	if c.disposed {
		return c.position()
	}

	c.azimuth += c.azimuthVel * dt
	c.polar = clampF(c.polar+c.polarVel*dt, minPolar, maxPolar)
	c.distance = math.Max(minDistance, c.distance*(1+c.zoomVel*dt))

	c.azimuthVel *= dampingFactor
	c.polarVel *= dampingFactor
	c.zoomVel *= dampingFactor

	return c.position()
}

func (c *orbitControls) position() vec3.T {
	sp := math.Sin(c.polar)
	return vec3.T{
		c.target[0] + c.distance*sp*math.Cos(c.azimuth),
		c.target[1] + c.distance*sp*math.Sin(c.azimuth),
		c.target[2] + c.distance*math.Cos(c.polar),
	}
}

func (c *orbitControls) dispose() {
	c.disposed = true
	c.azimuthVel = 0
	c.polarVel = 0
	c.zoomVel = 0
}
