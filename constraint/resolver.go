package constraint

import "github.com/akmonengine/cuboid/linalg"

const (
	// DefaultIterations is the budget of each pass of ResolveContacts. It is
	// used whatever the configured counts are.
	DefaultIterations = 15

	DefaultEpsilon = 0.01
)

// Resolver resolves a step's contacts worst first: a position pass removes
// interpenetration, then a velocity pass applies impulses. After each
// correction the change is propagated to every contact sharing a body.
type Resolver struct {
	velocityIterations int
	positionIterations int

	velocityEpsilon float64
	positionEpsilon float64

	velocityIterationsUsed int
	positionIterationsUsed int
}

func NewResolver(iterations int) *Resolver {
	r := &Resolver{
		velocityEpsilon: DefaultEpsilon,
		positionEpsilon: DefaultEpsilon,
	}
	r.SetIterations(iterations, iterations)

	return r
}

// SetIterations sets the configured iteration counts. They only decide
// whether the resolver runs: a non-positive count disables it.
func (r *Resolver) SetIterations(velocity, position int) {
	r.velocityIterations = velocity
	r.positionIterations = position
}

// SetEpsilon sets the velocity and penetration under which a contact is
// considered resolved. A negative value disables the resolver.
func (r *Resolver) SetEpsilon(velocity, position float64) {
	r.velocityEpsilon = velocity
	r.positionEpsilon = position
}

func (r *Resolver) VelocityIterationsUsed() int {
	return r.velocityIterationsUsed
}

func (r *Resolver) PositionIterationsUsed() int {
	return r.positionIterationsUsed
}

func (r *Resolver) isValid() bool {
	return r.velocityIterations > 0 &&
		r.positionIterations > 0 &&
		r.velocityEpsilon >= 0 &&
		r.positionEpsilon >= 0
}

// ResolveContacts prepares every contact then runs the position and the
// velocity pass. Empty slices and an invalid configuration are no-ops.
func (r *Resolver) ResolveContacts(contacts []Contact, dt float64) {
	r.velocityIterationsUsed = 0
	r.positionIterationsUsed = 0

	if len(contacts) == 0 || !r.isValid() {
		return
	}

	r.prepareContacts(contacts, dt)
	r.adjustPositions(contacts)
	r.adjustVelocities(contacts, dt)
}

func (r *Resolver) prepareContacts(contacts []Contact, dt float64) {
	for i := range contacts {
		contacts[i].CalculateInternals(dt)
	}
}

func (r *Resolver) adjustPositions(contacts []Contact) {
	for r.positionIterationsUsed < DefaultIterations {
		index := -1
		worstPenetration := r.positionEpsilon
		for i := range contacts {
			if contacts[i].Penetration > worstPenetration {
				worstPenetration = contacts[i].Penetration
				index = i
			}
		}
		if index < 0 {
			break
		}

		worst := &contacts[index]
		worst.MatchAwakeState()
		linearChange, angularChange := worst.ApplyPositionChange()

		// The moved bodies change the penetration of their other contacts.
		for i := range contacts {
			c := &contacts[i]
			for b, body := range c.Bodies {
				if body == nil {
					continue
				}
				for d, moved := range worst.Bodies {
					if body != moved {
						continue
					}

					deltaPosition := linearChange[d].Add(angularChange[d].Cross(c.relativeContactPosition[b]))
					if b == 0 {
						c.Penetration -= deltaPosition.Dot(c.Normal)
					} else {
						c.Penetration += deltaPosition.Dot(c.Normal)
					}
				}
			}
		}

		r.positionIterationsUsed++
	}
}

func (r *Resolver) adjustVelocities(contacts []Contact, dt float64) {
	for r.velocityIterationsUsed < DefaultIterations {
		index := -1
		worstVelocity := r.velocityEpsilon
		for i := range contacts {
			if contacts[i].desiredDeltaVelocity > worstVelocity {
				worstVelocity = contacts[i].desiredDeltaVelocity
				index = i
			}
		}
		if index < 0 {
			break
		}

		worst := &contacts[index]
		worst.MatchAwakeState()
		velocityChange, rotationChange := worst.ApplyVelocityChange()

		// The impulse changes the closing velocity of every contact sharing a body.
		for i := range contacts {
			c := &contacts[i]
			for j, body := range c.Bodies {
				if body == nil {
					continue
				}
				for k, changed := range worst.Bodies {
					if body != changed {
						continue
					}

					deltaVel := velocityChange[k].Add(rotationChange[k].Cross(c.relativeContactPosition[j]))
					deltaVel = linalg.TransformTranspose(c.contactToWorld, deltaVel)
					if j == 1 {
						deltaVel = deltaVel.Mul(-1)
					}

					c.contactVelocity = c.contactVelocity.Add(deltaVel)
					c.CalculateDesiredDeltaVelocity(dt)
				}
			}
		}

		r.velocityIterationsUsed++
	}
}
