package spatialmath

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// Axes selects X, Y and Z participation in a constraint. A false entry removes that axis from the result.
type Axes [3]bool

// AllAxes enables every axis.
var AllAxes = Axes{true, true, true}

// Vector3FreezeAxes zeroes every component of v whose axis is disabled. When all axes are disabled the zero
// vector is returned directly instead of multiplying each component by zero.
func Vector3FreezeAxes(v r3.Vector, axes Axes) r3.Vector {
	if axes[0] && axes[1] && axes[2] {
		return v
	}
	if !axes[0] && !axes[1] && !axes[2] {
		return r3.Vector{}
	}

	if !axes[0] {
		v.X = 0
	}
	if !axes[1] {
		v.Y = 0
	}
	if !axes[2] {
		v.Z = 0
	}
	return v
}

// QuatFreezeAxes removes the disabled axes from a rotation. The rotation is decomposed into Euler angles
// (roll about X, pitch about Y, yaw about Z, composed Z-Y-X), the disabled angles are zeroed and the
// remaining ones recomposed. For a compound rotation this differs from a swing/twist split around the
// same axes.
func QuatFreezeAxes(q quat.Number, axes Axes) quat.Number {
	if axes[0] && axes[1] && axes[2] {
		return q
	}
	if !axes[0] && !axes[1] && !axes[2] {
		return QuatIdentity()
	}

	ea := QuatToEulerAngles(q)
	if !axes[0] {
		ea.Roll = 0
	}
	if !axes[1] {
		ea.Pitch = 0
	}
	if !axes[2] {
		ea.Yaw = 0
	}
	return ea.Quaternion()
}
