package driver

import (
	"time"

	"github.com/akmonengine/cuboid"
)

// DefaultMaxSubSteps bounds the steps run for a single Advance, so a long
// frame cannot stall the caller.
const DefaultMaxSubSteps = 8

// Clock steps a world at a fixed timestep from variable wall time.
type Clock struct {
	World       *cuboid.World
	Dt          float64
	MaxSubSteps int

	accumulator float64
	paused      bool
	singleStep  bool
}

func NewClock(world *cuboid.World, dt float64) *Clock {
	return &Clock{
		World:       world,
		Dt:          dt,
		MaxSubSteps: DefaultMaxSubSteps,
	}
}

// Advance accumulates elapsed and runs floor(accumulated/Dt) steps, at most
// MaxSubSteps. Time beyond the bound is dropped. A paused clock runs nothing,
// unless a single step was requested.
func (c *Clock) Advance(elapsed time.Duration) int {
	if c.paused {
		if !c.singleStep {
			return 0
		}
		c.singleStep = false
		c.World.Step(c.Dt)
		return 1
	}

	c.accumulator += elapsed.Seconds()
	steps := 0
	for c.accumulator >= c.Dt && steps < c.MaxSubSteps {
		c.World.Step(c.Dt)
		c.accumulator -= c.Dt
		steps++
	}
	if steps == c.MaxSubSteps {
		c.accumulator = 0
	}

	return steps
}

func (c *Clock) Pause() {
	c.paused = true
}

// Resume restarts the clock without replaying the paused time.
func (c *Clock) Resume() {
	c.paused = false
	c.singleStep = false
	c.accumulator = 0
}

func (c *Clock) Toggle() {
	if c.paused {
		c.Resume()
	} else {
		c.Pause()
	}
}

// Step requests one step on the next Advance while paused.
func (c *Clock) Step() {
	if c.paused {
		c.singleStep = true
	}
}

func (c *Clock) Paused() bool {
	return c.paused
}
