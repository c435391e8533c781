package config_test

import (
	"bytes"
	"errors"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/akmonengine/cuboid"
	"github.com/akmonengine/cuboid/internal/config"
	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/gomega"
)

var unitHalfSize = [3]float64{0.5, 0.5, 0.5}

func TestDefault(t *testing.T) {
	g := NewWithT(t)
	cfg := config.Default()

	g.Expect(cfg.Dt).To(Equal(cuboid.DefaultTimestep))
	g.Expect(cfg.Friction).To(Equal(cuboid.DefaultFriction))
	g.Expect(cfg.Restitution).To(Equal(cuboid.DefaultRestitution))
	g.Expect(cfg.Tolerance).To(Equal(cuboid.DefaultTolerance))
	g.Expect(cfg.Iterations).To(Equal(config.DefaultIterations))
	g.Expect(cfg.Bodies).To(BeEmpty())
}

func TestSaveLoad(t *testing.T) {
	g := NewWithT(t)
	path := filepath.Join(t.TempDir(), "scene.yaml")

	cfg, err := config.Preset("tumble")
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(config.Save(path, cfg)).To(Succeed())

	loaded, err := config.Load(path)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(loaded).To(Equal(cfg))
}

func TestLoad_KeepsDefaultsForMissingKeys(t *testing.T) {
	g := NewWithT(t)
	path := filepath.Join(t.TempDir(), "scene.yaml")
	scene := `
steps: 10
bodies:
  - name: floor
    half_size: [2, 0.5, 2]
    immovable: true
  - name: box
    position: [0, 1, 0]
    half_size: [0.5, 0.5, 0.5]
    orientation: {axis: [0, 0, 2], angle: 0.5}
`
	g.Expect(os.WriteFile(path, []byte(scene), 0644)).To(Succeed())

	cfg, err := config.Load(path)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(cfg.Steps).To(Equal(10))
	g.Expect(cfg.Dt).To(Equal(config.DefaultDt))
	g.Expect(cfg.Friction).To(Equal(cuboid.DefaultFriction))
	g.Expect(cfg.Bodies).To(HaveLen(2))
	g.Expect(cfg.Bodies[0].Immovable).To(BeTrue())
	g.Expect(cfg.Bodies[1].Orientation.Axis).To(Equal([3]float64{0, 0, 2}))
}

func TestLoad_Errors(t *testing.T) {
	g := NewWithT(t)
	dir := t.TempDir()

	_, err := config.Load(filepath.Join(dir, "missing.yaml"))
	g.Expect(errors.Is(err, os.ErrNotExist)).To(BeTrue())

	path := filepath.Join(dir, "broken.yaml")
	g.Expect(os.WriteFile(path, []byte("dt: [not, a, number"), 0644)).To(Succeed())
	_, err = config.Load(path)
	g.Expect(err).To(MatchError(ContainSubstring("parse")))
}

// =============================================================================
// Validate Tests
// =============================================================================

func TestValidate(t *testing.T) {
	valid := func() *config.Config {
		cfg := config.Default()
		cfg.Bodies = []config.BodyConfig{{Name: "box", HalfSize: unitHalfSize}}
		return cfg
	}

	tests := []struct {
		name   string
		modify func(cfg *config.Config)
		want   error
	}{
		{name: "valid", modify: func(cfg *config.Config) {}},
		{name: "zero dt", modify: func(cfg *config.Config) { cfg.Dt = 0 }, want: config.ErrInvalidTimestep},
		{name: "negative dt", modify: func(cfg *config.Config) { cfg.Dt = -0.1 }, want: config.ErrInvalidTimestep},
		{name: "no bodies", modify: func(cfg *config.Config) { cfg.Bodies = nil }, want: config.ErrNoBodies},
		{name: "flat box", modify: func(cfg *config.Config) { cfg.Bodies[0].HalfSize[1] = 0 }, want: config.ErrInvalidHalfSize},
		{name: "negative density", modify: func(cfg *config.Config) { cfg.Bodies[0].Density = -1 }, want: config.ErrInvalidDensity},
		{name: "zero density uses default", modify: func(cfg *config.Config) { cfg.Bodies[0].Density = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)
			cfg := valid()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.want == nil {
				g.Expect(err).NotTo(HaveOccurred())
			} else {
				g.Expect(err).To(MatchError(tt.want))
			}
		})
	}
}

// =============================================================================
// Build Tests
// =============================================================================

func TestBuild(t *testing.T) {
	g := NewWithT(t)
	cfg := config.Default()
	cfg.Friction = 0.5
	cfg.Restitution = 0.3
	cfg.Tolerance = 0.2
	cfg.Gravity = [3]float64{0, -10, 0}
	cfg.Bodies = []config.BodyConfig{
		{Name: "floor", HalfSize: [3]float64{3, 0.5, 3}, Immovable: true},
		{Position: [3]float64{0, 2, 0}, HalfSize: unitHalfSize, Velocity: [3]float64{1, 0, 0}},
	}

	world, boxes, err := cfg.Build()
	g.Expect(err).NotTo(HaveOccurred())

	g.Expect(world.Data.Friction).To(Equal(0.5))
	g.Expect(world.Data.Restitution).To(Equal(0.3))
	g.Expect(world.Data.Tolerance).To(Equal(0.2))
	g.Expect(world.Boxes).To(HaveLen(2))
	g.Expect(boxes).To(HaveKey("floor"))
	g.Expect(boxes).To(HaveKey("1"))

	g.Expect(boxes["floor"].Body.HasFiniteMass()).To(BeFalse())
	g.Expect(boxes["1"].Body.Velocity).To(Equal(mgl64.Vec3{1, 0, 0}))
	g.Expect(boxes["1"].Body.CanSleep()).To(BeFalse())

	// Gravity is registered for the movable box only.
	g.Expect(world.Registry.Len()).To(Equal(1))
}

func TestBuild_WithLogger(t *testing.T) {
	g := NewWithT(t)
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)

	cfg, err := config.Preset("resting")
	g.Expect(err).NotTo(HaveOccurred())

	world, _, err := cfg.Build(config.WithLogger(logger))
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(world.Logger).To(BeIdenticalTo(logger))
	g.Expect(buf.String()).To(ContainSubstring("Physics: added box 0"))
	g.Expect(buf.String()).To(ContainSubstring("Physics: added box 1"))
}

func TestBuild_InvalidScene(t *testing.T) {
	g := NewWithT(t)

	world, boxes, err := config.Default().Build()
	g.Expect(err).To(MatchError(config.ErrNoBodies))
	g.Expect(world).To(BeNil())
	g.Expect(boxes).To(BeNil())
}

func TestOrientationConfig_Quat(t *testing.T) {
	g := NewWithT(t)

	g.Expect(config.OrientationConfig{}.Quat()).To(Equal(mgl64.QuatIdent()))
	g.Expect(config.OrientationConfig{Axis: [3]float64{0, 1, 0}}.Quat()).To(Equal(mgl64.QuatIdent()))

	// The axis is normalized first.
	q := config.OrientationConfig{Axis: [3]float64{0, 0, 4}, Angle: 0.5}.Quat()
	g.Expect(q.Len()).To(BeNumerically("~", 1, 1e-12))
	g.Expect(q.ApproxEqual(mgl64.QuatRotate(0.5, mgl64.Vec3{0, 0, 1}))).To(BeTrue())
}

// =============================================================================
// Presets Tests
// =============================================================================

func TestPresets(t *testing.T) {
	g := NewWithT(t)

	names := config.Presets()
	g.Expect(names).To(Equal([]string{"drop", "resting", "stack", "tumble"}))

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			g := NewWithT(t)
			cfg, err := config.Preset(name)
			g.Expect(err).NotTo(HaveOccurred())
			g.Expect(cfg.Validate()).To(Succeed())

			world, boxes, err := cfg.Build()
			g.Expect(err).NotTo(HaveOccurred())
			g.Expect(boxes).To(HaveLen(len(cfg.Bodies)))

			// No force keeps the bodies awake, they fall by acceleration.
			g.Expect(cfg.Gravity).To(Equal([3]float64{}))
			g.Expect(world.Registry.Len()).To(Equal(0))
			for range 60 {
				world.Step(cfg.Dt)
			}
		})
	}
}

func TestPreset_ReturnsFreshCopies(t *testing.T) {
	g := NewWithT(t)

	a, _ := config.Preset("drop")
	a.Bodies[0].Position[1] = 100

	b, _ := config.Preset("drop")
	g.Expect(b.Bodies[0].Position[1]).To(Equal(6.5))
}

func TestPreset_Unknown(t *testing.T) {
	g := NewWithT(t)

	_, err := config.Preset("avalanche")
	g.Expect(err).To(MatchError(config.ErrUnknownPreset))
	g.Expect(err.Error()).To(ContainSubstring("avalanche"))
}
