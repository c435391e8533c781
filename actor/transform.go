package actor

import (
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// DefaultDensity is used by NewBox when BoxState.Density is not positive.
	DefaultDensity = 8.0

	DefaultLinearDamping  = 0.95
	DefaultAngularDamping = 0.8
)

// BoxState holds the construction parameters of a box and its body.
// The zero Orientation is read as the identity.
type BoxState struct {
	Position     mgl64.Vec3
	Orientation  mgl64.Quat
	HalfSize     mgl64.Vec3
	Velocity     mgl64.Vec3
	Acceleration mgl64.Vec3
	Density      float64

	// Immovable bodies have an inverse mass of 0 and never rotate.
	Immovable    bool
	DisableSleep bool
}

// NewBox creates a body and the box bound to it, both ready to simulate.
func NewBox(state BoxState) *Box {
	density := state.Density
	if density <= 0 {
		density = DefaultDensity
	}

	body := NewRigidBody()
	body.Position = state.Position
	body.Orientation = state.Orientation
	body.Velocity = state.Velocity
	body.Acceleration = state.Acceleration

	box := &Box{Body: body, HalfSize: state.HalfSize}

	if state.Immovable {
		body.SetInverseMass(0)
		body.SetInverseInertiaTensor(mgl64.Mat3{})
	} else {
		mass := box.ComputeMass(density)
		body.SetMass(mass)
		body.SetInertiaTensor(box.ComputeInertia(mass))
	}

	body.SetDamping(DefaultLinearDamping, DefaultAngularDamping)
	body.SetCanSleep(!state.DisableSleep)
	body.SetAwake(true)
	body.CalculateDerivedData()
	box.CalculateInternals()

	return box
}
