// Package spatialmath defines spatial mathematical operations
package spatialmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// Below this squared sine of the half angle two quaternions are treated as parallel during slerp.
const slerpEpsilon = 1e-12

// QuatIdentity returns the quaternion which signifies no rotation.
func QuatIdentity() quat.Number {
	return quat.Number{Real: 1}
}

// QuatIsFinite reports whether every component of q is a finite number.
func QuatIsFinite(q quat.Number) bool {
	return !quat.IsNaN(q) && !quat.IsInf(q)
}

// QuaternionAlmostEqual is an equality test for all the float components of a quaternion. Quaternions have double coverage, q and -q
// represent the same rotation, so the test passes if either sign matches.
func QuaternionAlmostEqual(a, b quat.Number, tol float64) bool {
	near := func(b quat.Number) bool {
		return math.Abs(a.Real-b.Real) < tol &&
			math.Abs(a.Imag-b.Imag) < tol &&
			math.Abs(a.Jmag-b.Jmag) < tol &&
			math.Abs(a.Kmag-b.Kmag) < tol
	}
	return near(b) || near(Flip(b))
}

// Norm returns the norm of the quaternion, i.e. the sqrt of the squares of the imaginary parts.
func Norm(q quat.Number) float64 {
	return math.Sqrt(q.Imag*q.Imag + q.Jmag*q.Jmag + q.Kmag*q.Kmag)
}

// Flip will multiply a quaternion by -1, returning a quaternion representing the same orientation but in the opposing octant.
func Flip(q quat.Number) quat.Number {
	return quat.Number{Real: -q.Real, Imag: -q.Imag, Jmag: -q.Jmag, Kmag: -q.Kmag}
}

// Normalize scales q to unit length. The zero quaternion normalizes to identity.
func Normalize(q quat.Number) quat.Number {
	l := quat.Abs(q)
	if l == 0 || math.IsNaN(l) || math.IsInf(l, 0) {
		return QuatIdentity()
	}
	return quat.Scale(1/l, q)
}

// QuatInvertCompat returns the inverse of a unit quaternion as its conjugate.
// Some math libraries normalize while inverting and others do not; the conjugate
// is the common answer for unit input, so it is used everywhere rotations are undone.
func QuatInvertCompat(q quat.Number) quat.Number {
	return quat.Number{Real: q.Real, Imag: -q.Imag, Jmag: -q.Jmag, Kmag: -q.Kmag}
}

func quatDot(a, b quat.Number) float64 {
	return a.Real*b.Real + a.Imag*b.Imag + a.Jmag*b.Jmag + a.Kmag*b.Kmag
}

// Slerp spherically interpolates from a to b along the shorter arc. t=0 returns a and t=1
// returns b exactly; values of t outside [0, 1] extrapolate along the same great circle.
func Slerp(a, b quat.Number, t float64) quat.Number {
	if t == 0 {
		return a
	}
	if t == 1 {
		return b
	}

	cosHalfTheta := quatDot(a, b)
	if cosHalfTheta < 0 {
		b = Flip(b)
		cosHalfTheta = -cosHalfTheta
	}
	if cosHalfTheta >= 1 {
		return a
	}

	sqrSinHalfTheta := 1 - cosHalfTheta*cosHalfTheta
	if sqrSinHalfTheta <= slerpEpsilon {
		s := 1 - t
		return Normalize(quat.Add(quat.Scale(s, a), quat.Scale(t, b)))
	}

	sinHalfTheta := math.Sqrt(sqrSinHalfTheta)
	halfTheta := math.Atan2(sinHalfTheta, cosHalfTheta)
	ratioA := math.Sin((1-t)*halfTheta) / sinHalfTheta
	ratioB := math.Sin(t*halfTheta) / sinHalfTheta
	return quat.Add(quat.Scale(ratioA, a), quat.Scale(ratioB, b))
}

// RotateVector rotates v by the unit quaternion q.
func RotateVector(q quat.Number, v r3.Vector) r3.Vector {
	p := quat.Mul(quat.Mul(q, quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}), quat.Conj(q))
	return r3.Vector{X: p.Imag, Y: p.Jmag, Z: p.Kmag}
}

// QuatToMgl converts a gonum quaternion to its mathgl equivalent.
func QuatToMgl(q quat.Number) mgl64.Quat {
	return mgl64.Quat{W: q.Real, V: mgl64.Vec3{q.Imag, q.Jmag, q.Kmag}}
}

// MglToQuat converts a mathgl quaternion to its gonum equivalent.
func MglToQuat(q mgl64.Quat) quat.Number {
	return quat.Number{Real: q.W, Imag: q.V[0], Jmag: q.V[1], Kmag: q.V[2]}
}

// R3ToVec3 converts an r3 vector to a mathgl vector.
func R3ToVec3(v r3.Vector) mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

// Vec3ToR3 converts a mathgl vector to an r3 vector.
func Vec3ToR3(v mgl64.Vec3) r3.Vector {
	return r3.Vector{X: v[0], Y: v[1], Z: v[2]}
}

// R3IsFinite reports whether every component of v is a finite number.
func R3IsFinite(v r3.Vector) bool {
	for _, c := range []float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
