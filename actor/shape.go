package actor

import (
	"math"

	"github.com/akmonengine/cuboid/linalg"
	"github.com/go-gl/mathgl/mgl64"
)

// Box represents an oriented box collision shape bound to one body.
// The box is defined by its half-extents (half-width, half-height, half-depth)
// in body space. The body is not owned by the box.
type Box struct {
	Body     *RigidBody
	HalfSize mgl64.Vec3

	transform linalg.Affine
}

// CalculateInternals caches the body transform. It must run after the body
// integrated and before the box is tested for collisions.
func (b *Box) CalculateInternals() {
	b.transform = b.Body.Transform()
}

// Transform returns the cached world transform.
func (b *Box) Transform() linalg.Affine {
	return b.transform
}

// Axis returns the world X, Y or Z axis of the box for i in 0..2, and its
// world center for i == 3.
func (b *Box) Axis(i int) mgl64.Vec3 {
	return b.transform.Axis(i)
}

func (b *Box) Center() mgl64.Vec3 {
	return b.transform.Axis(3)
}

// ComputeMass returns the mass of the box for a density, as used by NewBox.
func (b *Box) ComputeMass(density float64) float64 {
	return b.HalfSize.X() * b.HalfSize.Y() * b.HalfSize.Z() * density
}

// ComputeInertia returns the body-space inertia tensor for a mass.
func (b *Box) ComputeInertia(mass float64) mgl64.Mat3 {
	return linalg.BlockInertiaTensor(b.HalfSize, mass)
}

// HalfProjection returns the half length of the box projected onto axis.
func (b *Box) HalfProjection(axis mgl64.Vec3) float64 {
	return b.HalfSize.X()*math.Abs(axis.Dot(b.Axis(0))) +
		b.HalfSize.Y()*math.Abs(axis.Dot(b.Axis(1))) +
		b.HalfSize.Z()*math.Abs(axis.Dot(b.Axis(2)))
}

// Support returns the body-space vertex furthest along a body-space direction.
func (b *Box) Support(direction mgl64.Vec3) mgl64.Vec3 {
	hx, hy, hz := b.HalfSize.X(), b.HalfSize.Y(), b.HalfSize.Z()

	if direction.X() < 0 {
		hx = -hx
	}
	if direction.Y() < 0 {
		hy = -hy
	}
	if direction.Z() < 0 {
		hz = -hz
	}

	return mgl64.Vec3{hx, hy, hz}
}

// SupportWorld returns the world-space vertex furthest along a world-space
// direction.
func (b *Box) SupportWorld(direction mgl64.Vec3) mgl64.Vec3 {
	local := mgl64.Vec3{
		direction.Dot(b.Axis(0)),
		direction.Dot(b.Axis(1)),
		direction.Dot(b.Axis(2)),
	}

	return b.transform.Transform(b.Support(local))
}

// Corners returns the 8 vertices of the box in world space.
func (b *Box) Corners() [8]mgl64.Vec3 {
	hx, hy, hz := b.HalfSize.X(), b.HalfSize.Y(), b.HalfSize.Z()
	corners := [8]mgl64.Vec3{
		{-hx, -hy, -hz},
		{+hx, -hy, -hz},
		{-hx, +hy, -hz},
		{+hx, +hy, -hz},
		{-hx, -hy, +hz},
		{+hx, -hy, +hz},
		{-hx, +hy, +hz},
		{+hx, +hy, +hz},
	}

	for i := range corners {
		corners[i] = b.transform.Transform(corners[i])
	}

	return corners
}

// AABB returns the world-space bounds of the box at its cached transform.
func (b *Box) AABB() AABB {
	corners := b.Corners()
	min := corners[0]
	max := corners[0]

	for _, c := range corners[1:] {
		min[0] = math.Min(min[0], c[0])
		min[1] = math.Min(min[1], c[1])
		min[2] = math.Min(min[2], c[2])

		max[0] = math.Max(max[0], c[0])
		max[1] = math.Max(max[1], c[1])
		max[2] = math.Max(max[2], c[2])
	}

	return AABB{Min: min, Max: max}
}
