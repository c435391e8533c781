package main

import (
	"fmt"

	"github.com/akmonengine/cuboid"
	"github.com/akmonengine/cuboid/actor"
	"github.com/akmonengine/cuboid/constraint"
	"github.com/go-gl/mathgl/mgl64"
)

// CollisionDebugger instruments the steps of a world
type CollisionDebugger interface {
	DebugContact(index int, contact *constraint.Contact)
	DebugBody(label string, body *actor.RigidBody)
}

type SimpleDebugger struct{}

func (d *SimpleDebugger) DebugContact(index int, contact *constraint.Contact) {
	fmt.Printf("🎯 Contact %d:\n", index)
	fmt.Printf("   Point: %v\n", contact.Point)
	fmt.Printf("   Normal: %v\n", contact.Normal)
	fmt.Printf("   Penetration: %.6f\n", contact.Penetration)

	// Lever arms used by the resolver
	for i, body := range contact.Bodies {
		if body == nil {
			continue
		}
		r := contact.Point.Sub(body.Position)
		fmt.Printf("      r%d: %v (len=%.3f)\n", i, r, r.Len())
	}
}

func (d *SimpleDebugger) DebugBody(label string, body *actor.RigidBody) {
	fmt.Printf("Cube state %s:\n", label)
	fmt.Printf("  Position: %v\n", body.Position)
	fmt.Printf("  Velocity: %v\n", body.Velocity)
	fmt.Printf("  Angular Velocity: %v (len=%.3f)\n", body.AngularVelocity, body.AngularVelocity.Len())
	fmt.Printf("  Orientation: %v\n", body.Orientation)
	fmt.Printf("  Awake: %v (motion=%.4f)\n", body.IsAwake(), body.Motion())
}

// SetupScene creates an immovable floor and a tilted cube above it
func SetupScene() (*cuboid.World, *actor.Box, *actor.Box, CollisionDebugger) {
	debugger := &SimpleDebugger{}
	world := cuboid.NewWorld(1)
	world.Data.Restitution = 0.4

	floor := actor.NewBox(actor.BoxState{
		Position:  mgl64.Vec3{0, -0.5, 0},
		HalfSize:  mgl64.Vec3{10, 0.5, 10},
		Immovable: true,
	})
	world.AddBox(floor)

	cube := actor.NewBox(actor.BoxState{
		Position:    mgl64.Vec3{0, 5.0, 0},
		Orientation: mgl64.QuatRotate(0.3, mgl64.Vec3{0, 0, 1}),
		HalfSize:    mgl64.Vec3{1.5, 1.5, 1.5},
		Density:     1.0,
	})
	world.AddBox(cube)
	world.Registry.Add(cube.Body, &cuboid.Gravity{Acceleration: mgl64.Vec3{0, -9.81, 0}})

	world.Events.Subscribe(cuboid.COLLISION_ENTER, func(event cuboid.Event) {
		fmt.Printf("  ➡️  %s\n", event.Type())
	})
	world.Events.Subscribe(cuboid.ON_SLEEP, func(event cuboid.Event) {
		fmt.Printf("  💤 %s\n", event.Type())
	})

	return world, floor, cube, debugger
}

// TestCubeLanding steps a cube until it lands and falls asleep
func TestCubeLanding() {
	fmt.Println("🧪 Cube landing on a corner")
	fmt.Println("===========================")

	world, floor, cube, debugger := SetupScene()

	fmt.Printf("Initial setup:\n")
	fmt.Printf("  Floor: position %v, half size %v\n", floor.Body.Position, floor.HalfSize)
	fmt.Printf("  Cube: position %v, orientation %v\n", cube.Body.Position, cube.Body.Orientation)
	fmt.Println()

	const dt float64 = 1.0 / 60.0
	const maxSteps int = 600

	for step := 0; step < maxSteps && cube.Body.IsAwake(); step++ {
		fmt.Printf("--- STEP %d ---\n", step+1)
		world.Step(dt)

		for i := range world.Data.Contacts {
			debugger.DebugContact(i, &world.Data.Contacts[i])
		}
		debugger.DebugBody("after", cube.Body)
		fmt.Println()
	}

	fmt.Printf("Done after %d steps, model matrix %v\n", world.Steps(), cube.Body.GLTransform())
}

func main() {
	TestCubeLanding()
}
