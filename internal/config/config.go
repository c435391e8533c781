package config

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/akmonengine/cuboid"
	"github.com/akmonengine/cuboid/actor"
	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDt         = cuboid.DefaultTimestep
	DefaultSteps      = 600
	DefaultIterations = 1
)

var (
	ErrInvalidTimestep = errors.New("timestep must be positive")
	ErrNoBodies        = errors.New("scene has no bodies")
	ErrInvalidHalfSize = errors.New("half size must be positive on every axis")
	ErrInvalidDensity  = errors.New("density must not be negative")
	ErrUnknownPreset   = errors.New("unknown preset")
)

type Config struct {
	Dt          float64      `yaml:"dt"`
	Steps       int          `yaml:"steps"`
	Friction    float64      `yaml:"friction"`
	Restitution float64      `yaml:"restitution"`
	Tolerance   float64      `yaml:"tolerance"`
	Iterations  int          `yaml:"iterations"`
	// Gravity is applied as a force to every movable body, which keeps them
	// awake. Use a body acceleration for scenes that should come to rest.
	Gravity     [3]float64   `yaml:"gravity"`
	Bodies      []BodyConfig `yaml:"bodies"`
}

type BodyConfig struct {
	Name         string            `yaml:"name"`
	Position     [3]float64        `yaml:"position"`
	Orientation  OrientationConfig `yaml:"orientation"`
	HalfSize     [3]float64        `yaml:"half_size"`
	Velocity     [3]float64        `yaml:"velocity"`
	Acceleration [3]float64        `yaml:"acceleration"`
	// Density 0 means actor.DefaultDensity.
	Density   float64 `yaml:"density"`
	Immovable bool    `yaml:"immovable"`
	CanSleep  bool    `yaml:"can_sleep"`
}

// OrientationConfig is a rotation of Angle radians about Axis.
type OrientationConfig struct {
	Axis  [3]float64 `yaml:"axis"`
	Angle float64    `yaml:"angle"`
}

// Default returns the world settings with no bodies.
func Default() *Config {
	return &Config{
		Dt:          DefaultDt,
		Steps:       DefaultSteps,
		Friction:    cuboid.DefaultFriction,
		Restitution: cuboid.DefaultRestitution,
		Tolerance:   cuboid.DefaultTolerance,
		Iterations:  DefaultIterations,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate reports the first invalid setting, wrapping one of the Err values.
func (c *Config) Validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("dt %g: %w", c.Dt, ErrInvalidTimestep)
	}
	if len(c.Bodies) == 0 {
		return ErrNoBodies
	}
	for i, body := range c.Bodies {
		for _, h := range body.HalfSize {
			if h <= 0 {
				return fmt.Errorf("body %s: half size %v: %w", body.Label(i), body.HalfSize, ErrInvalidHalfSize)
			}
		}
		if body.Density < 0 {
			return fmt.Errorf("body %s: density %g: %w", body.Label(i), body.Density, ErrInvalidDensity)
		}
	}
	return nil
}

// BuildOption sets up the world before the bodies are added.
type BuildOption func(world *cuboid.World)

// WithLogger logs the world, from its first body on.
func WithLogger(logger *log.Logger) BuildOption {
	return func(world *cuboid.World) {
		world.Logger = logger
	}
}

// Build validates the scene and returns a world holding its boxes, keyed by
// name. Unnamed bodies are keyed by their index.
func (c *Config) Build(opts ...BuildOption) (*cuboid.World, map[string]*actor.Box, error) {
	if err := c.Validate(); err != nil {
		return nil, nil, err
	}

	world := cuboid.NewWorld(c.Iterations)
	for _, opt := range opts {
		opt(world)
	}
	world.Data.Friction = c.Friction
	world.Data.Restitution = c.Restitution
	world.Data.Tolerance = c.Tolerance

	var gravity *cuboid.Gravity
	if g := mgl64.Vec3(c.Gravity); g != (mgl64.Vec3{}) {
		gravity = &cuboid.Gravity{Acceleration: g}
	}

	boxes := make(map[string]*actor.Box, len(c.Bodies))
	for i, body := range c.Bodies {
		box := actor.NewBox(body.State())
		world.AddBox(box)
		if gravity != nil && !body.Immovable {
			world.Registry.Add(box.Body, gravity)
		}
		boxes[body.Label(i)] = box
	}

	return world, boxes, nil
}

// State converts the body settings to construction parameters.
func (b BodyConfig) State() actor.BoxState {
	return actor.BoxState{
		Position:     mgl64.Vec3(b.Position),
		Orientation:  b.Orientation.Quat(),
		HalfSize:     mgl64.Vec3(b.HalfSize),
		Velocity:     mgl64.Vec3(b.Velocity),
		Acceleration: mgl64.Vec3(b.Acceleration),
		Density:      b.Density,
		Immovable:    b.Immovable,
		DisableSleep: !b.CanSleep,
	}
}

// Label returns the name of the i-th body, or i when it has none.
func (b BodyConfig) Label(i int) string {
	if b.Name != "" {
		return b.Name
	}
	return fmt.Sprintf("%d", i)
}

// Quat returns the identity when the axis is zero.
func (o OrientationConfig) Quat() mgl64.Quat {
	axis := mgl64.Vec3(o.Axis)
	if axis.LenSqr() == 0 || o.Angle == 0 {
		return mgl64.QuatIdent()
	}
	return mgl64.QuatRotate(o.Angle, axis.Normalize())
}
