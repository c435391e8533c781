package linalg

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

// Affine is a rigid 3x4 transform: columns 0..2 hold the rotation basis and
// column 3 the translation. It never carries scale or shear, which is what
// makes the inverse transforms below a simple transpose.
type Affine struct {
	m mgl64.Mat3x4
}

// IdentityAffine returns the transform with no rotation and no translation.
func IdentityAffine() Affine {
	return NewAffine(mgl64.QuatIdent(), mgl64.Vec3{})
}

// NewAffine builds the transform for an orientation and a position. q is
// expected to be unit length.
func NewAffine(q mgl64.Quat, position mgl64.Vec3) Affine {
	r := RotationMatrix(q)
	return Affine{m: mgl64.Mat3x4FromCols(r.Col(0), r.Col(1), r.Col(2), position)}
}

// Axis returns column i of the transform: 0..2 are the world directions of
// the local X, Y and Z axes, 3 is the world position of the local origin.
func (a Affine) Axis(i int) mgl64.Vec3 {
	return a.m.Col(i)
}

// Rotation returns the 3x3 rotation part.
func (a Affine) Rotation() mgl64.Mat3 {
	return mgl64.Mat3FromCols(a.m.Col(0), a.m.Col(1), a.m.Col(2))
}

// Transform maps a local point to world space.
func (a Affine) Transform(v mgl64.Vec3) mgl64.Vec3 {
	return a.m.Mul4x1(v.Vec4(1))
}

// TransformDirection rotates a local direction into world space.
func (a Affine) TransformDirection(v mgl64.Vec3) mgl64.Vec3 {
	return a.m.Mul4x1(v.Vec4(0))
}

// TransformInverse maps a world point into local space.
func (a Affine) TransformInverse(v mgl64.Vec3) mgl64.Vec3 {
	return a.TransformInverseDirection(v.Sub(a.m.Col(3)))
}

// TransformInverseDirection rotates a world direction into local space.
func (a Affine) TransformInverseDirection(v mgl64.Vec3) mgl64.Vec3 {
	return TransformTranspose(a.Rotation(), v)
}

// Mat4 expands the transform to a homogeneous column-major 4x4 matrix.
func (a Affine) Mat4() mgl64.Mat4 {
	return mgl64.Mat4FromCols(
		a.m.Col(0).Vec4(0),
		a.m.Col(1).Vec4(0),
		a.m.Col(2).Vec4(0),
		a.m.Col(3).Vec4(1),
	)
}

// GLArray returns the 16 floats a fixed-function or shader pipeline expects,
// column-major.
func (a Affine) GLArray() mgl32.Mat4 {
	m := a.Mat4()
	var out mgl32.Mat4
	for i := range m {
		out[i] = float32(m[i])
	}
	return out
}
