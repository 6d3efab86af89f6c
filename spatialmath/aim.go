package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// Directions and basis vectors shorter than this cannot define an aim rotation.
const aimEpsilon = 1e-9

// AimAxes selects which rotation axes of an aim take effect, in yaw-pitch order. Yaw turns about the up
// vector, pitch tilts about the side vector (up × aim). A false entry drops that axis from the result.
type AimAxes [2]bool

// AimQuaternion returns the rotation that turns aim onto the direction from -> to. The up vector fixes the
// roll around the aim axis: the rotation is built as a yaw about up followed by a pitch about the side axis,
// so it never introduces roll. aim and up must be unit length; they are not re-normalized here.
//
// The second return value is false when no rotation is defined: coincident points, an up vector of zero
// length or parallel to aim, or non-finite input. The quaternion is identity in that case.
func AimQuaternion(from, to, aim, up r3.Vector, axes AimAxes) (quat.Number, bool) {
	dir := to.Sub(from)
	length := dir.Norm()
	if length < aimEpsilon || !R3IsFinite(dir) || math.IsInf(length, 0) {
		return QuatIdentity(), false
	}
	dir = dir.Mul(1 / length)

	side := up.Cross(aim)
	sideLength := side.Norm()
	if sideLength < aimEpsilon || math.IsNaN(sideLength) {
		return QuatIdentity(), false
	}
	side = side.Mul(1 / sideLength)
	upOrtho := aim.Cross(side)

	forward := dir.Dot(aim)
	lateral := dir.Dot(side)
	vertical := dir.Dot(upOrtho)

	var yaw, pitch float64
	if axes[0] {
		yaw = math.Atan2(lateral, forward)
	}
	if axes[1] {
		pitch = math.Atan2(vertical, math.Hypot(lateral, forward))
	}

	// a positive pitch raises aim toward up, which is a negative turn about side
	qYaw := NewR4AAFromAxis(upOrtho, yaw).ToQuat()
	qPitch := NewR4AAFromAxis(side, -pitch).ToQuat()
	q := quat.Mul(qYaw, qPitch)
	if !QuatIsFinite(q) {
		return QuatIdentity(), false
	}
	return q, true
}
