package cuboid

import (
	"iter"
	"log"
	"slices"

	"github.com/akmonengine/cuboid/actor"
	"github.com/akmonengine/cuboid/constraint"
)

const (
	DefaultFriction    = 0.9
	DefaultRestitution = 0.1
	DefaultTolerance   = 0.1
	DefaultTimestep    = 1.0 / 60.0
)

type World struct {
	// List of all rigid bodies in the world, boxed or not
	Bodies []*actor.RigidBody
	// Collision shapes, each bound to one of Bodies
	Boxes []*actor.Box

	Registry ForceRegistry
	Detector Detector
	// Data holds the material defaults and, after a step, its contacts.
	Data     constraint.CollisionData
	Resolver *constraint.Resolver

	Events Events
	// Logger is optional, nil keeps the world silent.
	Logger *log.Logger

	steps int
}

// NewWorld creates an empty world with the default materials and a resolver
// configured with iterations.
func NewWorld(iterations int) *World {
	return &World{
		Data: constraint.CollisionData{
			Friction:    DefaultFriction,
			Restitution: DefaultRestitution,
			Tolerance:   DefaultTolerance,
		},
		Resolver: constraint.NewResolver(iterations),
		Events:   NewEvents(),
	}
}

func (w *World) logf(format string, args ...any) {
	if w.Logger != nil {
		w.Logger.Printf(format, args...)
	}
}

// AddBody adds a rigid body without a collision shape, such as a spring anchor.
func (w *World) AddBody(body *actor.RigidBody) {
	w.Bodies = append(w.Bodies, body)
}

// AddBox adds a box and its body to the world.
func (w *World) AddBox(box *actor.Box) {
	box.CalculateInternals()
	w.Boxes = append(w.Boxes, box)
	w.AddBody(box.Body)

	w.logf("Physics: added box %d at %v", len(w.Boxes)-1, box.Body.Position)
}

// RemoveBody removes a rigid body, its boxes and its force registrations.
func (w *World) RemoveBody(body *actor.RigidBody) {
	k := slices.Index(w.Bodies, body)
	if k == -1 {
		return
	}
	w.Bodies = slices.Delete(w.Bodies, k, k+1)
	w.Boxes = slices.DeleteFunc(w.Boxes, func(box *actor.Box) bool {
		return box.Body == body
	})

	w.Registry.RemoveBody(body)
	w.Events.forget(body)
}

func (w *World) RemoveBox(box *actor.Box) {
	w.RemoveBody(box.Body)
	w.logf("Physics: removed box, %d left", len(w.Boxes))
}

// Step advances the simulation by dt: forces, integration, collision
// detection, contact resolution, then the events of the step are dispatched.
func (w *World) Step(dt float64) {
	// Phase 1: Forces
	w.Registry.UpdateForces(dt)

	// Phase 2: Integration
	for _, body := range w.Bodies {
		body.Integrate(dt)
	}
	for _, box := range w.Boxes {
		box.CalculateInternals()
	}

	// Phase 3: Collision detection
	w.Data.Reset()
	w.Detector.Detect(w.Boxes, &w.Data)
	w.Events.recordContacts(w.Data.Contacts)

	// Phase 4: Positions then velocities
	w.Resolver.ResolveContacts(w.Data.Contacts, dt)
	if w.Resolver.PositionIterationsUsed() == constraint.DefaultIterations {
		w.logf("Physics: step %d used the whole position budget for %d contacts", w.steps, w.Data.Len())
	}

	// Phase 5: Transforms of the resolved positions, for renderers
	for _, body := range w.Bodies {
		if body.HasFiniteMass() {
			body.CalculateDerivedData()
		}
	}
	for _, box := range w.Boxes {
		box.CalculateInternals()
	}

	w.Events.processSleepEvents(w.Bodies)
	w.Events.flush()
	w.steps++
}

// Contacts returns the number of contacts found by the last step.
func (w *World) Contacts() int {
	return w.Data.Len()
}

// Steps returns the number of steps run so far.
func (w *World) Steps() int {
	return w.steps
}

// Shapes iterates over the boxes in insertion order, for a renderer.
func (w *World) Shapes() iter.Seq[*actor.Box] {
	return slices.Values(w.Boxes)
}

// Bounds returns the world-space box enclosing every shape.
func (w *World) Bounds() actor.AABB {
	bounds := actor.EmptyAABB()
	for _, box := range w.Boxes {
		bounds = bounds.Union(box.AABB())
	}

	return bounds
}

// Awake returns the number of movable bodies still awake.
func (w *World) Awake() int {
	n := 0
	for _, body := range w.Bodies {
		if body.HasFiniteMass() && body.IsAwake() {
			n++
		}
	}

	return n
}
