package spatialmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// Basis vectors shorter than this are treated as a collapsed (zero) scale.
const scaleEpsilon = 1e-12

// ComposeMatrix builds the affine matrix T * R * S from a translation, a unit rotation and a per-axis scale.
func ComposeMatrix(position r3.Vector, rotation quat.Number, scale r3.Vector) mgl64.Mat4 {
	t := mgl64.Translate3D(position.X, position.Y, position.Z)
	r := QuatToMgl(Normalize(rotation)).Mat4()
	s := mgl64.Scale3D(scale.X, scale.Y, scale.Z)
	return t.Mul4(r).Mul4(s)
}

// DecomposePosition returns the translation component of an affine matrix.
func DecomposePosition(m mgl64.Mat4) r3.Vector {
	return Vec3ToR3(m.Col(3).Vec3())
}

// DecomposeScale returns the per-axis scale of an affine matrix. A mirrored basis is reported as a negative X scale.
func DecomposeScale(m mgl64.Mat4) r3.Vector {
	sx := m.Col(0).Vec3().Len()
	sy := m.Col(1).Vec3().Len()
	sz := m.Col(2).Vec3().Len()
	if m.Mat3().Det() < 0 {
		sx = -sx
	}
	return r3.Vector{X: sx, Y: sy, Z: sz}
}

// DecomposeRotation returns the pure rotation component of an affine matrix. Each basis column is divided
// by its length first, so scale never leaks into the quaternion. A matrix with a collapsed axis has no
// defined rotation and yields identity.
func DecomposeRotation(m mgl64.Mat4) quat.Number {
	s := DecomposeScale(m)
	if math.Abs(s.X) < scaleEpsilon || math.Abs(s.Y) < scaleEpsilon || math.Abs(s.Z) < scaleEpsilon {
		return QuatIdentity()
	}

	x := m.Col(0).Vec3().Mul(1 / s.X)
	y := m.Col(1).Vec3().Mul(1 / s.Y)
	z := m.Col(2).Vec3().Mul(1 / s.Z)
	rot := mgl64.Mat4FromCols(x.Vec4(0), y.Vec4(0), z.Vec4(0), mgl64.Vec4{0, 0, 0, 1})

	q := Normalize(MglToQuat(mgl64.Mat4ToQuat(rot)))
	if !QuatIsFinite(q) {
		return QuatIdentity()
	}
	return q
}

// TransformPoint applies an affine matrix to a point.
func TransformPoint(m mgl64.Mat4, p r3.Vector) r3.Vector {
	return Vec3ToR3(mgl64.TransformCoordinate(R3ToVec3(p), m))
}
