// Package geometry turns 3D line segments into the placement data a renderer
// needs to stand a canonical, Y-aligned primitive (cylinder or cone) on top of
// that segment.
package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Point3 is a location in scene space.
type Point3 = r3.Vec

// Vector3 is a displacement in scene space (end - start).
type Vector3 = r3.Vec

var (
	// Origin of the scene.
	Origin = Point3{}
	// Up is the canonical axis every primitive is modelled along.
	Up = Vector3{Y: 1}
	// secondaryAxis is used as rotation axis when a segment points straight down.
	secondaryAxis = Vector3{Z: 1}
)

// Vec3 is shorthand for building a point or vector from components.
func Vec3(x, y, z float64) r3.Vec {
	return r3.Vec{X: x, Y: y, Z: z}
}

// IsFinite reports whether every component of v is a finite number.
func IsFinite(v r3.Vec) bool {
	return isFinite(v.X) && isFinite(v.Y) && isFinite(v.Z)
}

// Components returns v as an array, the layout renderers expect.
func Components(v r3.Vec) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

// FromComponents is the inverse of Components.
func FromComponents(c [3]float64) r3.Vec {
	return r3.Vec{X: c[0], Y: c[1], Z: c[2]}
}

// Color is an RGB triple, each channel in [0,1]. There is no alpha.
type Color struct {
	R, G, B float64
}

// RGB builds a Color.
func RGB(r, g, b float64) Color {
	return Color{R: r, G: g, B: b}
}

// Valid reports whether all channels are finite and within [0,1].
func (c Color) Valid() bool {
	return inUnit(c.R) && inUnit(c.G) && inUnit(c.B)
}

// Components returns the channels as an array.
func (c Color) Components() [3]float64 {
	return [3]float64{c.R, c.G, c.B}
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func inUnit(f float64) bool {
	return f >= 0 && f <= 1
}
