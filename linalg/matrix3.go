// Package linalg holds the small amount of linear algebra the physics core
// needs on top of mgl64: inertia tensors, the cross-product operator, a
// singular-safe 3x3 inverse, rigid 3x4 transforms and quaternion integration.
//
// mgl64 matrices are column-major. Every helper here takes and returns values;
// nothing is mutated in place.
package linalg

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// SingularEpsilon is the determinant magnitude under which Inverse considers
// a matrix singular.
const SingularEpsilon = 1e-12

// Inverse returns the closed-form cofactor inverse of m.
//
// When the determinant is (close to) zero the matrix is returned unchanged.
// This is not an error: callers storing an inverse inertia tensor keep the
// previous value instead of receiving a zero or infinite matrix.
func Inverse(m mgl64.Mat3) mgl64.Mat3 {
	inv, ok := TryInverse(m)
	if !ok {
		return m
	}
	return inv
}

// TryInverse returns the inverse of m and whether m was invertible.
func TryInverse(m mgl64.Mat3) (mgl64.Mat3, bool) {
	det := m.Det()
	if math.Abs(det) <= SingularEpsilon {
		return m, false
	}

	cofactors := mgl64.Mat3{
		m[4]*m[8] - m[5]*m[7],
		m[2]*m[7] - m[1]*m[8],
		m[1]*m[5] - m[2]*m[4],
		m[5]*m[6] - m[3]*m[8],
		m[0]*m[8] - m[2]*m[6],
		m[2]*m[3] - m[0]*m[5],
		m[3]*m[7] - m[4]*m[6],
		m[1]*m[6] - m[0]*m[7],
		m[0]*m[4] - m[1]*m[3],
	}

	return cofactors.Mul(1 / det), true
}

// Transform returns m·v.
func Transform(m mgl64.Mat3, v mgl64.Vec3) mgl64.Vec3 {
	return m.Mul3x1(v)
}

// TransformTranspose returns mᵗ·v, which for a rotation is the inverse
// rotation of v.
func TransformTranspose(m mgl64.Mat3, v mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{
		m[0]*v[0] + m[1]*v[1] + m[2]*v[2],
		m[3]*v[0] + m[4]*v[1] + m[5]*v[2],
		m[6]*v[0] + m[7]*v[1] + m[8]*v[2],
	}
}

// InertiaTensorCoeffs builds a symmetric inertia tensor from its principal
// moments and products of inertia.
func InertiaTensorCoeffs(ix, iy, iz, ixy, ixz, iyz float64) mgl64.Mat3 {
	return mgl64.Mat3{
		ix, -ixy, -ixz,
		-ixy, iy, -iyz,
		-ixz, -iyz, iz,
	}
}

// BlockInertiaTensor returns the inertia tensor of a solid cuboid with the
// given half extents. Each principal moment is 0.3·mass·(sum of squares of
// the other two half extents).
func BlockInertiaTensor(halfSize mgl64.Vec3, mass float64) mgl64.Mat3 {
	sx := halfSize[0] * halfSize[0]
	sy := halfSize[1] * halfSize[1]
	sz := halfSize[2] * halfSize[2]

	return InertiaTensorCoeffs(
		0.3*mass*(sy+sz),
		0.3*mass*(sx+sz),
		0.3*mass*(sx+sy),
		0, 0, 0,
	)
}

// SkewSymmetric returns the matrix S such that S·x = v × x.
func SkewSymmetric(v mgl64.Vec3) mgl64.Mat3 {
	return mgl64.Mat3FromRows(
		mgl64.Vec3{0, -v[2], v[1]},
		mgl64.Vec3{v[2], 0, -v[0]},
		mgl64.Vec3{-v[1], v[0], 0},
	)
}

// FromComponents returns the matrix whose columns are a, b and c. Used to
// build a basis matrix from three orthonormal axes.
func FromComponents(a, b, c mgl64.Vec3) mgl64.Mat3 {
	return mgl64.Mat3FromCols(a, b, c)
}

// RotationTensor rotates a body-space tensor into world space: R·T·Rᵗ.
func RotationTensor(rotation, tensor mgl64.Mat3) mgl64.Mat3 {
	return rotation.Mul3(tensor).Mul3(rotation.Transpose())
}
