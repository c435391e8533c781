package actor

import (
	"math"

	"github.com/akmonengine/cuboid/linalg"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

// DefaultSleepEpsilon is the motion level under which a body falls asleep.
const DefaultSleepEpsilon = 0.3

// RigidBody represents a rigid body in the physics simulation.
//
// Position, Orientation and the velocities may be written directly, but the
// derived transform and world inertia tensor are only consistent with them
// after CalculateDerivedData.
type RigidBody struct {
	// Spatial properties
	Position    mgl64.Vec3
	Orientation mgl64.Quat

	// Linear motion
	Velocity     mgl64.Vec3 // m/s
	Acceleration mgl64.Vec3 // constant acceleration, typically gravity

	// Angular motion
	AngularVelocity mgl64.Vec3 // rad/s

	// Damping is the fraction of velocity kept after one second.
	LinearDamping  float64
	AngularDamping float64

	SleepEpsilon float64

	inverseMass               float64
	inverseInertiaTensor      mgl64.Mat3 // body space
	inverseInertiaTensorWorld mgl64.Mat3

	forceAccum  mgl64.Vec3
	torqueAccum mgl64.Vec3

	lastFrameAcceleration mgl64.Vec3

	transform linalg.Affine

	isAwake  bool
	canSleep bool
	motion   float64
}

// NewRigidBody creates an awake unit-mass body at the origin, with no damping.
func NewRigidBody() *RigidBody {
	rb := &RigidBody{
		Orientation:    mgl64.QuatIdent(),
		LinearDamping:  1,
		AngularDamping: 1,
		SleepEpsilon:   DefaultSleepEpsilon,
		inverseMass:    1,
		canSleep:       true,
	}
	rb.inverseInertiaTensor = mgl64.Ident3()
	rb.SetAwake(true)
	rb.CalculateDerivedData()

	return rb
}

// ========== MASS ==========

// SetMass sets the mass of the body. mass must be positive: an immovable body
// is made with SetInverseMass(0).
func (rb *RigidBody) SetMass(mass float64) {
	rb.inverseMass = 1.0 / mass
}

// Mass returns the mass of the body, or math.MaxFloat64 when it is immovable.
func (rb *RigidBody) Mass() float64 {
	if rb.inverseMass == 0 {
		return math.MaxFloat64
	}
	return 1.0 / rb.inverseMass
}

func (rb *RigidBody) SetInverseMass(inverseMass float64) {
	rb.inverseMass = inverseMass
}

func (rb *RigidBody) InverseMass() float64 {
	return rb.inverseMass
}

// HasFiniteMass reports whether the body can be moved by forces and impulses.
func (rb *RigidBody) HasFiniteMass() bool {
	return rb.inverseMass > 0
}

// ========== INERTIA ==========

// SetInertiaTensor stores the inverse of a body-space inertia tensor. A
// singular tensor leaves the previous inverse in place.
func (rb *RigidBody) SetInertiaTensor(tensor mgl64.Mat3) {
	if inv, ok := linalg.TryInverse(tensor); ok {
		rb.inverseInertiaTensor = inv
	}
}

// SetInverseInertiaTensor stores a body-space inverse inertia tensor directly.
// The zero matrix makes the body impossible to rotate.
func (rb *RigidBody) SetInverseInertiaTensor(inverse mgl64.Mat3) {
	rb.inverseInertiaTensor = inverse
}

func (rb *RigidBody) InertiaTensor() mgl64.Mat3 {
	return linalg.Inverse(rb.inverseInertiaTensor)
}

func (rb *RigidBody) InverseInertiaTensor() mgl64.Mat3 {
	return rb.inverseInertiaTensor
}

// InertiaTensorWorld returns the inertia tensor in world space.
func (rb *RigidBody) InertiaTensorWorld() mgl64.Mat3 {
	return linalg.Inverse(rb.inverseInertiaTensorWorld)
}

// InverseInertiaTensorWorld returns R·I⁻¹·Rᵗ as of the last CalculateDerivedData.
func (rb *RigidBody) InverseInertiaTensorWorld() mgl64.Mat3 {
	return rb.inverseInertiaTensorWorld
}

// SetDamping sets the fraction of linear and angular velocity kept per second.
func (rb *RigidBody) SetDamping(linear, angular float64) {
	rb.LinearDamping = linear
	rb.AngularDamping = angular
}

// ========== FORCES ==========

// AddForce accumulates a force through the center of mass.
func (rb *RigidBody) AddForce(force mgl64.Vec3) {
	rb.forceAccum = rb.forceAccum.Add(force)
	rb.isAwake = true
}

// AddForceAtPoint accumulates a force applied at a world-space point, which
// also produces a torque around the center of mass.
func (rb *RigidBody) AddForceAtPoint(force, point mgl64.Vec3) {
	arm := point.Sub(rb.Position)

	rb.forceAccum = rb.forceAccum.Add(force)
	rb.torqueAccum = rb.torqueAccum.Add(arm.Cross(force))
	rb.isAwake = true
}

// AddForceAtBodyPoint is AddForceAtPoint with the point given in body space.
func (rb *RigidBody) AddForceAtBodyPoint(force, point mgl64.Vec3) {
	rb.AddForceAtPoint(force, rb.PointInWorldSpace(point))
}

func (rb *RigidBody) AddTorque(torque mgl64.Vec3) {
	rb.torqueAccum = rb.torqueAccum.Add(torque)
	rb.isAwake = true
}

func (rb *RigidBody) AddVelocity(deltaVelocity mgl64.Vec3) {
	rb.Velocity = rb.Velocity.Add(deltaVelocity)
}

func (rb *RigidBody) AddAngularVelocity(deltaVelocity mgl64.Vec3) {
	rb.AngularVelocity = rb.AngularVelocity.Add(deltaVelocity)
}

func (rb *RigidBody) ClearAccumulators() {
	rb.forceAccum = mgl64.Vec3{}
	rb.torqueAccum = mgl64.Vec3{}
}

func (rb *RigidBody) ForceAccumulator() mgl64.Vec3 {
	return rb.forceAccum
}

func (rb *RigidBody) TorqueAccumulator() mgl64.Vec3 {
	return rb.torqueAccum
}

// LastFrameAcceleration is the linear acceleration applied by the last
// Integrate, forces included.
func (rb *RigidBody) LastFrameAcceleration() mgl64.Vec3 {
	return rb.lastFrameAcceleration
}

// ========== INTEGRATION ==========

// CalculateDerivedData renormalizes the orientation, rebuilds the transform
// and rotates the inverse inertia tensor into world space.
func (rb *RigidBody) CalculateDerivedData() {
	rb.Orientation = linalg.NormalizeQuat(rb.Orientation)
	rb.transform = linalg.NewAffine(rb.Orientation, rb.Position)
	rb.inverseInertiaTensorWorld = linalg.RotationTensor(rb.transform.Rotation(), rb.inverseInertiaTensor)
}

// Integrate advances the body by dt with semi-implicit Euler. Sleeping bodies
// are skipped; immovable bodies only drop their accumulated forces.
func (rb *RigidBody) Integrate(dt float64) {
	if !rb.HasFiniteMass() {
		rb.ClearAccumulators()
		return
	}
	if !rb.isAwake {
		return
	}

	// ========== ACCELERATION ==========
	rb.lastFrameAcceleration = rb.Acceleration.Add(rb.forceAccum.Mul(rb.inverseMass))
	angularAcceleration := rb.inverseInertiaTensorWorld.Mul3x1(rb.torqueAccum)

	// ========== VELOCITY ==========
	rb.Velocity = rb.Velocity.Add(rb.lastFrameAcceleration.Mul(dt))
	rb.AngularVelocity = rb.AngularVelocity.Add(angularAcceleration.Mul(dt))
	rb.applyDamping(dt)

	// ========== POSITION ==========
	rb.Position = rb.Position.Add(rb.Velocity.Mul(dt))
	rb.Orientation = linalg.AddScaledVector(rb.Orientation, rb.AngularVelocity, dt)

	// Damping runs twice per step, the tuning of every scene depends on it.
	rb.applyDamping(dt)

	rb.CalculateDerivedData()
	rb.ClearAccumulators()

	// ========== SLEEP ==========
	if rb.canSleep {
		currentMotion := rb.Velocity.Dot(rb.Velocity) + rb.AngularVelocity.Dot(rb.AngularVelocity)
		bias := math.Pow(0.5, dt)
		rb.motion = bias*rb.motion + (1-bias)*currentMotion

		if rb.motion < rb.SleepEpsilon {
			rb.SetAwake(false)
		} else if rb.motion > 10*rb.SleepEpsilon {
			rb.motion = 10 * rb.SleepEpsilon
		}
	}
}

func (rb *RigidBody) applyDamping(dt float64) {
	rb.Velocity = rb.Velocity.Mul(math.Pow(rb.LinearDamping, dt))
	rb.AngularVelocity = rb.AngularVelocity.Mul(math.Pow(rb.AngularDamping, dt))
}

// ========== SLEEP ==========

// SetAwake wakes the body with enough motion to survive the next sleep check,
// or puts it to sleep and stops it.
func (rb *RigidBody) SetAwake(awake bool) {
	if awake {
		rb.isAwake = true
		rb.motion = rb.SleepEpsilon * 2
		return
	}

	rb.isAwake = false
	rb.Velocity = mgl64.Vec3{}
	rb.AngularVelocity = mgl64.Vec3{}
}

func (rb *RigidBody) IsAwake() bool {
	return rb.isAwake
}

// SetCanSleep enables or disables sleeping. Disabling it wakes the body.
func (rb *RigidBody) SetCanSleep(canSleep bool) {
	rb.canSleep = canSleep
	if !canSleep && !rb.isAwake {
		rb.SetAwake(true)
	}
}

func (rb *RigidBody) CanSleep() bool {
	return rb.canSleep
}

// Motion is the recency-weighted kinetic measure compared to SleepEpsilon.
func (rb *RigidBody) Motion() float64 {
	return rb.motion
}

// ========== SPACES ==========

func (rb *RigidBody) Transform() linalg.Affine {
	return rb.transform
}

// GLTransform returns the body transform as a column-major 4x4 matrix.
func (rb *RigidBody) GLTransform() mgl32.Mat4 {
	return rb.transform.GLArray()
}

func (rb *RigidBody) PointInWorldSpace(point mgl64.Vec3) mgl64.Vec3 {
	return rb.transform.Transform(point)
}

func (rb *RigidBody) PointInLocalSpace(point mgl64.Vec3) mgl64.Vec3 {
	return rb.transform.TransformInverse(point)
}

func (rb *RigidBody) DirectionInWorldSpace(direction mgl64.Vec3) mgl64.Vec3 {
	return rb.transform.TransformDirection(direction)
}

func (rb *RigidBody) DirectionInLocalSpace(direction mgl64.Vec3) mgl64.Vec3 {
	return rb.transform.TransformInverseDirection(direction)
}
