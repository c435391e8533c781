package cuboid

import (
	"reflect"

	"github.com/akmonengine/cuboid/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// ForceGenerator adds a force or a torque to a body, once per step.
type ForceGenerator interface {
	UpdateForce(body *actor.RigidBody, dt float64)
}

// ForceFunc adapts a function to a ForceGenerator.
type ForceFunc func(body *actor.RigidBody, dt float64)

func (f ForceFunc) UpdateForce(body *actor.RigidBody, dt float64) {
	f(body, dt)
}

type forceRegistration struct {
	body      *actor.RigidBody
	generator ForceGenerator
}

// ForceRegistry binds generators to bodies. Registrations are applied in
// insertion order, before the bodies integrate.
type ForceRegistry struct {
	registrations []forceRegistration
}

func (r *ForceRegistry) Add(body *actor.RigidBody, generator ForceGenerator) {
	r.registrations = append(r.registrations, forceRegistration{body: body, generator: generator})
}

// Remove drops the first registration of generator on body. It reports
// whether one was found. Generators of an uncomparable type, such as a
// ForceFunc, never match: drop them with RemoveBody or Clear.
func (r *ForceRegistry) Remove(body *actor.RigidBody, generator ForceGenerator) bool {
	for i, reg := range r.registrations {
		if reg.body == body && sameGenerator(reg.generator, generator) {
			r.registrations = append(r.registrations[:i], r.registrations[i+1:]...)
			return true
		}
	}

	return false
}

func sameGenerator(a, b ForceGenerator) bool {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if !va.IsValid() || !vb.IsValid() || va.Type() != vb.Type() {
		return false
	}
	if !va.Comparable() || !vb.Comparable() {
		return false
	}

	return a == b
}

// RemoveBody drops every registration on body.
func (r *ForceRegistry) RemoveBody(body *actor.RigidBody) {
	n := 0
	for _, reg := range r.registrations {
		if reg.body != body {
			r.registrations[n] = reg
			n++
		}
	}
	clear(r.registrations[n:])
	r.registrations = r.registrations[:n]
}

func (r *ForceRegistry) Clear() {
	r.registrations = r.registrations[:0]
}

func (r *ForceRegistry) Len() int {
	return len(r.registrations)
}

func (r *ForceRegistry) UpdateForces(dt float64) {
	for _, reg := range r.registrations {
		reg.generator.UpdateForce(reg.body, dt)
	}
}

// ========== Generators ==========

// Gravity applies a constant acceleration as a force scaled by the body mass.
// Immovable bodies are left alone.
type Gravity struct {
	Acceleration mgl64.Vec3
}

func (g *Gravity) UpdateForce(body *actor.RigidBody, dt float64) {
	if !body.HasFiniteMass() {
		return
	}

	body.AddForce(g.Acceleration.Mul(body.Mass()))
}

// Drag opposes the velocity of a body with a magnitude of
// K1·speed + K2·speed².
type Drag struct {
	K1 float64
	K2 float64
}

func (d *Drag) UpdateForce(body *actor.RigidBody, dt float64) {
	speed := body.Velocity.Len()
	if speed == 0 {
		return
	}

	magnitude := d.K1*speed + d.K2*speed*speed
	body.AddForce(body.Velocity.Normalize().Mul(-magnitude))
}

// Spring is a Hooke spring between a point of the body it is registered on
// and a point of Other. Both points are in body space.
type Spring struct {
	ConnectionPoint      mgl64.Vec3
	Other                *actor.RigidBody
	OtherConnectionPoint mgl64.Vec3

	SpringConstant float64
	RestLength     float64
}

func (s *Spring) UpdateForce(body *actor.RigidBody, dt float64) {
	lws := body.PointInWorldSpace(s.ConnectionPoint)
	ows := s.Other.PointInWorldSpace(s.OtherConnectionPoint)

	d := lws.Sub(ows)
	length := d.Len()
	if length == 0 {
		return
	}

	// Stretched springs pull lws toward ows, compressed ones push it away.
	magnitude := -s.SpringConstant * (length - s.RestLength)
	body.AddForceAtPoint(d.Mul(magnitude/length), lws)
}
