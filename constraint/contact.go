package constraint

import (
	"math"

	"github.com/akmonengine/cuboid/actor"
	"github.com/akmonengine/cuboid/linalg"
	"github.com/go-gl/mathgl/mgl64"
)

// Contact is a single point of contact between two bodies.
//
// Bodies[1] is nil for a contact against the immovable world. Normal points
// from Bodies[1] toward Bodies[0]: moving Bodies[0] along it separates the pair.
type Contact struct {
	Bodies      [2]*actor.RigidBody
	Point       mgl64.Vec3
	Normal      mgl64.Vec3
	Penetration float64

	Friction    float64
	Restitution float64

	// Derived by CalculateInternals.
	contactToWorld          mgl64.Mat3
	relativeContactPosition [2]mgl64.Vec3
	contactVelocity         mgl64.Vec3
	desiredDeltaVelocity    float64
}

func (c *Contact) SetBodyData(one, two *actor.RigidBody, friction, restitution float64) {
	c.Bodies[0] = one
	c.Bodies[1] = two
	c.Friction = friction
	c.Restitution = restitution
}

// ContactToWorld returns the basis whose columns are the normal and the two
// tangents.
func (c *Contact) ContactToWorld() mgl64.Mat3 {
	return c.contactToWorld
}

// RelativeContactPosition returns the contact point relative to the center
// of body i.
func (c *Contact) RelativeContactPosition(i int) mgl64.Vec3 {
	return c.relativeContactPosition[i]
}

// ContactVelocity returns the closing velocity in contact space: X along the
// normal, Y and Z along the tangents.
func (c *Contact) ContactVelocity() mgl64.Vec3 {
	return c.contactVelocity
}

func (c *Contact) DesiredDeltaVelocity() float64 {
	return c.desiredDeltaVelocity
}

// ========== PREPARATION ==========

// CalculateInternals derives the basis, relative positions and velocities
// the resolver works with. A contact whose first body is nil gets its bodies
// swapped and its normal reversed.
func (c *Contact) CalculateInternals(dt float64) {
	if c.Bodies[0] == nil {
		c.swapBodies()
	}
	if c.Bodies[0] == nil {
		return
	}

	c.calculateContactBasis()

	c.relativeContactPosition[0] = c.Point.Sub(c.Bodies[0].Position)
	if c.Bodies[1] != nil {
		c.relativeContactPosition[1] = c.Point.Sub(c.Bodies[1].Position)
	}

	c.contactVelocity = c.calculateLocalVelocity(0, dt)
	if c.Bodies[1] != nil {
		c.contactVelocity = c.contactVelocity.Sub(c.calculateLocalVelocity(1, dt))
	}

	c.CalculateDesiredDeltaVelocity(dt)
}

// CalculateDesiredDeltaVelocity computes the normal velocity change that
// resolves the contact. The velocity built up by last frame's acceleration
// is removed from the bounce, and restitution is dropped for slow contacts.
func (c *Contact) CalculateDesiredDeltaVelocity(dt float64) {
	velocityFromAcc := 0.0

	if c.Bodies[0] != nil && c.Bodies[0].IsAwake() {
		velocityFromAcc = c.Bodies[0].LastFrameAcceleration().Mul(dt).Dot(c.Normal)
	}
	if c.Bodies[1] != nil && c.Bodies[1].IsAwake() {
		velocityFromAcc -= c.Bodies[1].LastFrameAcceleration().Mul(dt).Dot(c.Normal)
	}

	restitution := c.Restitution
	if math.Abs(c.contactVelocity.X()) < VelocityLimit {
		restitution = 0
	}

	c.desiredDeltaVelocity = -c.contactVelocity.X() - restitution*(c.contactVelocity.X()-velocityFromAcc)
}

func (c *Contact) calculateLocalVelocity(index int, dt float64) mgl64.Vec3 {
	body := c.Bodies[index]

	velocity := body.AngularVelocity.Cross(c.relativeContactPosition[index]).Add(body.Velocity)
	localVelocity := linalg.TransformTranspose(c.contactToWorld, velocity)

	// Only the planar part of last frame's acceleration counts here, the
	// normal part is handled by the desired delta velocity.
	accVelocity := linalg.TransformTranspose(c.contactToWorld, body.LastFrameAcceleration().Mul(dt))
	accVelocity[0] = 0

	return localVelocity.Add(accVelocity)
}

// calculateContactBasis builds an orthonormal basis around the normal. The
// first tangent is taken in the plane of whichever of X or Y is further from
// the normal.
func (c *Contact) calculateContactBasis() {
	n := c.Normal
	var tangent mgl64.Vec3

	if math.Abs(n.X()) > math.Abs(n.Y()) {
		s := 1.0 / math.Sqrt(n.Z()*n.Z()+n.X()*n.X())
		tangent = mgl64.Vec3{n.Z() * s, 0, -n.X() * s}
	} else {
		s := 1.0 / math.Sqrt(n.Z()*n.Z()+n.Y()*n.Y())
		tangent = mgl64.Vec3{0, -n.Z() * s, n.Y() * s}
	}

	c.contactToWorld = linalg.FromComponents(n, tangent, n.Cross(tangent))
}

func (c *Contact) swapBodies() {
	c.Normal = c.Normal.Mul(-1)
	c.Bodies[0], c.Bodies[1] = c.Bodies[1], c.Bodies[0]
}

// MatchAwakeState wakes the sleeping body when only one of the pair is
// awake. Immovable bodies neither wake nor get woken.
func (c *Contact) MatchAwakeState() {
	if c.Bodies[0] == nil || c.Bodies[1] == nil {
		return
	}
	if !c.Bodies[0].HasFiniteMass() || !c.Bodies[1].HasFiniteMass() {
		return
	}

	awake0 := c.Bodies[0].IsAwake()
	awake1 := c.Bodies[1].IsAwake()

	if awake0 != awake1 {
		if awake0 {
			c.Bodies[1].SetAwake(true)
		} else {
			c.Bodies[0].SetAwake(true)
		}
	}
}

// ========== POSITION ==========

// ApplyPositionChange removes the penetration by moving and rotating both
// bodies, in proportion to their linear and angular inertia along the
// normal. It returns the per-body linear and angular changes applied.
func (c *Contact) ApplyPositionChange() (linearChange, angularChange [2]mgl64.Vec3) {
	var angularMove, linearMove, angularInertia, linearInertia [2]float64
	totalInertia := 0.0

	for i, body := range c.Bodies {
		if body == nil {
			continue
		}

		angularInertiaWorld := c.relativeContactPosition[i].Cross(c.Normal)
		angularInertiaWorld = body.InverseInertiaTensorWorld().Mul3x1(angularInertiaWorld)
		angularInertiaWorld = angularInertiaWorld.Cross(c.relativeContactPosition[i])
		angularInertia[i] = angularInertiaWorld.Dot(c.Normal)

		linearInertia[i] = body.InverseMass()

		totalInertia += linearInertia[i] + angularInertia[i]
	}

	if totalInertia <= 0 {
		return linearChange, angularChange
	}

	for i, body := range c.Bodies {
		if body == nil {
			continue
		}

		sign := 1.0
		if i == 1 {
			sign = -1.0
		}

		angularMove[i] = sign * c.Penetration * (angularInertia[i] / totalInertia)
		linearMove[i] = sign * c.Penetration * (linearInertia[i] / totalInertia)

		// Limit the rotation so that long lever arms do not spin the body.
		r := c.relativeContactPosition[i]
		projection := r.Add(c.Normal.Mul(-r.Dot(c.Normal)))
		maxMagnitude := AngularLimit * projection.Len()

		if angularMove[i] < -maxMagnitude {
			totalMove := angularMove[i] + linearMove[i]
			angularMove[i] = -maxMagnitude
			linearMove[i] = totalMove - angularMove[i]
		} else if angularMove[i] > maxMagnitude {
			totalMove := angularMove[i] + linearMove[i]
			angularMove[i] = maxMagnitude
			linearMove[i] = totalMove - angularMove[i]
		}

		if angularMove[i] != 0 {
			targetAngularDirection := r.Cross(c.Normal)
			angularChange[i] = body.InverseInertiaTensorWorld().Mul3x1(targetAngularDirection).Mul(angularMove[i] / angularInertia[i])
		}

		linearChange[i] = c.Normal.Mul(linearMove[i])

		body.Position = body.Position.Add(linearChange[i])
		body.Orientation = linalg.AddScaledVector(body.Orientation, angularChange[i], 1)

		// Awake bodies refresh their derived data when they integrate.
		if !body.IsAwake() {
			body.CalculateDerivedData()
		}
	}

	return linearChange, angularChange
}

// ========== VELOCITY ==========

// ApplyVelocityChange applies the impulse that produces the desired delta
// velocity and returns the per-body linear and angular velocity changes.
func (c *Contact) ApplyVelocityChange() (velocityChange, rotationChange [2]mgl64.Vec3) {
	if c.Bodies[0] == nil {
		return velocityChange, rotationChange
	}

	var inverseInertiaTensor [2]mgl64.Mat3
	inverseInertiaTensor[0] = c.Bodies[0].InverseInertiaTensorWorld()
	if c.Bodies[1] != nil {
		inverseInertiaTensor[1] = c.Bodies[1].InverseInertiaTensorWorld()
	}

	var impulseContact mgl64.Vec3
	if c.Friction == 0 {
		impulseContact = c.calculateFrictionlessImpulse(inverseInertiaTensor)
	} else {
		impulseContact = c.calculateFrictionImpulse(inverseInertiaTensor)
	}

	impulse := c.contactToWorld.Mul3x1(impulseContact)

	impulsiveTorque := c.relativeContactPosition[0].Cross(impulse)
	rotationChange[0] = inverseInertiaTensor[0].Mul3x1(impulsiveTorque)
	velocityChange[0] = impulse.Mul(c.Bodies[0].InverseMass())

	c.Bodies[0].AddVelocity(velocityChange[0])
	c.Bodies[0].AddAngularVelocity(rotationChange[0])

	if c.Bodies[1] != nil {
		impulsiveTorque = impulse.Cross(c.relativeContactPosition[1])
		rotationChange[1] = inverseInertiaTensor[1].Mul3x1(impulsiveTorque)
		velocityChange[1] = impulse.Mul(-c.Bodies[1].InverseMass())

		c.Bodies[1].AddVelocity(velocityChange[1])
		c.Bodies[1].AddAngularVelocity(rotationChange[1])
	}

	return velocityChange, rotationChange
}

// calculateFrictionlessImpulse returns the contact-space impulse along the
// normal only.
func (c *Contact) calculateFrictionlessImpulse(inverseInertiaTensor [2]mgl64.Mat3) mgl64.Vec3 {
	deltaVelocity := 0.0

	for i, body := range c.Bodies {
		if body == nil {
			continue
		}

		r := c.relativeContactPosition[i]
		deltaVelWorld := inverseInertiaTensor[i].Mul3x1(r.Cross(c.Normal)).Cross(r)

		deltaVelocity += deltaVelWorld.Dot(c.Normal)
		deltaVelocity += body.InverseMass()
	}

	if deltaVelocity <= 0 {
		return mgl64.Vec3{}
	}

	return mgl64.Vec3{c.desiredDeltaVelocity / deltaVelocity, 0, 0}
}

// calculateFrictionImpulse solves for the impulse that kills the tangential
// velocity, then clips it to the friction cone.
func (c *Contact) calculateFrictionImpulse(inverseInertiaTensor [2]mgl64.Mat3) mgl64.Vec3 {
	inverseMass := 0.0
	var deltaVelWorld mgl64.Mat3

	for i, body := range c.Bodies {
		if body == nil {
			continue
		}

		// Velocity at the contact point per unit of impulse, from rotation.
		impulseToTorque := linalg.SkewSymmetric(c.relativeContactPosition[i])
		deltaVelWorld = deltaVelWorld.Add(impulseToTorque.Mul3(inverseInertiaTensor[i]).Mul3(impulseToTorque).Mul(-1))

		inverseMass += body.InverseMass()
	}

	deltaVelocity := c.contactToWorld.Transpose().Mul3(deltaVelWorld).Mul3(c.contactToWorld)
	deltaVelocity[0] += inverseMass
	deltaVelocity[4] += inverseMass
	deltaVelocity[8] += inverseMass

	impulseMatrix, ok := linalg.TryInverse(deltaVelocity)
	if !ok {
		return mgl64.Vec3{}
	}

	velKill := mgl64.Vec3{c.desiredDeltaVelocity, -c.contactVelocity.Y(), -c.contactVelocity.Z()}
	impulseContact := impulseMatrix.Mul3x1(velKill)

	planarImpulse := math.Sqrt(impulseContact.Y()*impulseContact.Y() + impulseContact.Z()*impulseContact.Z())
	if planarImpulse > 0 && planarImpulse > impulseContact.X()*c.Friction {
		// Dynamic friction: slide along the tangent the static impulse wanted.
		impulseContact[1] /= planarImpulse
		impulseContact[2] /= planarImpulse

		impulseContact[0] = deltaVelocity.At(0, 0) +
			deltaVelocity.At(0, 1)*c.Friction*impulseContact[1] +
			deltaVelocity.At(0, 2)*c.Friction*impulseContact[2]
		impulseContact[0] = c.desiredDeltaVelocity / impulseContact[0]
		impulseContact[1] *= c.Friction * impulseContact[0]
		impulseContact[2] *= c.Friction * impulseContact[0]
	}

	return impulseContact
}
