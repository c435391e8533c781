// Package constraint resolves the contacts found by collision detection.
//
// Contacts live for a single step: the detector fills a CollisionData, the
// Resolver corrects interpenetration then velocities, and the slice is reset.
package constraint

import (
	"github.com/akmonengine/cuboid/actor"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// VelocityLimit is the closing speed under which restitution is ignored,
	// so that resting contacts do not jitter.
	VelocityLimit = 0.25

	// AngularLimit bounds the rotation a position correction may apply, as a
	// fraction of the contact lever arm.
	AngularLimit = 0.2
)

// CollisionData collects the contacts of one step along with the material
// defaults copied into each new contact.
type CollisionData struct {
	Contacts []Contact

	Friction    float64
	Restitution float64
	// Tolerance is the margin under which two boxes are still tested
	// when their bounding spheres do not touch.
	Tolerance float64
}

// Reset drops the contacts and keeps the allocated storage.
func (d *CollisionData) Reset() {
	d.Contacts = d.Contacts[:0]
}

// AddContact appends a contact between two bodies, two may be nil for a
// contact against the world. The normal points from two toward one. The
// returned pointer is only valid until the next AddContact.
func (d *CollisionData) AddContact(one, two *actor.RigidBody, point, normal mgl64.Vec3, penetration float64) *Contact {
	d.Contacts = append(d.Contacts, Contact{
		Point:       point,
		Normal:      normal,
		Penetration: penetration,
	})

	contact := &d.Contacts[len(d.Contacts)-1]
	contact.SetBodyData(one, two, d.Friction, d.Restitution)

	return contact
}

func (d *CollisionData) Len() int {
	return len(d.Contacts)
}
