package linalg

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// NormalizeQuat returns q scaled to unit length. The zero quaternion has no
// direction and normalizes to the identity (1,0,0,0).
func NormalizeQuat(q mgl64.Quat) mgl64.Quat {
	d := q.W*q.W + q.V.LenSqr()
	if d == 0 {
		return mgl64.QuatIdent()
	}

	d = 1 / math.Sqrt(d)
	return mgl64.Quat{W: q.W * d, V: q.V.Mul(d)}
}

// AddScaledVector integrates an angular velocity into an orientation.
//
// v·scale is treated as a pure quaternion, multiplied by q and half of the
// product is accumulated: q + ½·(0, v·scale)·q.
func AddScaledVector(q mgl64.Quat, v mgl64.Vec3, scale float64) mgl64.Quat {
	omega := mgl64.Quat{W: 0, V: v.Mul(scale)}
	return q.Add(omega.Mul(q).Scale(0.5))
}

// RotationMatrix returns the 3x3 rotation matrix of a unit quaternion.
func RotationMatrix(q mgl64.Quat) mgl64.Mat3 {
	return q.Mat4().Mat3()
}
