package geometry

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Orientation is a unit quaternion rotating Up onto a segment direction.
type Orientation quat.Number

// Identity is the orientation of a primitive that is left as modelled.
func Identity() Orientation {
	return Orientation{Real: 1}
}

// IsIdentity reports whether o applies no rotation.
func (o Orientation) IsIdentity() bool {
	return o == Identity()
}

// Rotate applies o to v.
func (o Orientation) Rotate(v r3.Vec) r3.Vec {
	return r3.Rotation(o).Rotate(v)
}

// Components returns the quaternion as [x, y, z, w], the order used by
// WebGL scene graphs.
func (o Orientation) Components() [4]float64 {
	return [4]float64{o.Imag, o.Jmag, o.Kmag, o.Real}
}

// OrientationFromComponents is the inverse of Components.
func OrientationFromComponents(c [4]float64) Orientation {
	return Orientation{Imag: c[0], Jmag: c[1], Kmag: c[2], Real: c[3]}
}

// Angle returns the rotation angle of o in radians, in [0, π].
func (o Orientation) Angle() float64 {
	w := math.Abs(o.Real)
	if w > 1 {
		w = 1
	}
	return 2 * math.Acos(w)
}

// alignUp returns the shortest-arc rotation taking Up onto dir. dir must be
// a unit vector.
//
// The unnormalised quaternion (1 + Up·dir, Up×dir) stays accurate however
// close dir gets to -Up, so the fixed half turn is only taken when the cross
// product vanishes entirely.
func alignUp(dir r3.Vec) Orientation {
	axis := r3.Cross(Up, dir)
	if axis == (r3.Vec{}) {
		if dir.Y < 0 {
			// Half turn about an axis perpendicular to Up. Any such axis works
			// for a primitive symmetric about its own axis; keep it fixed.
			return Orientation{Imag: secondaryAxis.X, Jmag: secondaryAxis.Y, Kmag: secondaryAxis.Z}
		}
		return Identity()
	}

	r := max(r3.Dot(Up, dir)+1, 0)
	q := quat.Number{Real: r, Imag: axis.X, Jmag: axis.Y, Kmag: axis.Z}
	return Orientation(quat.Scale(1/quat.Abs(q), q))
}
