package config

import (
	"fmt"
	"maps"
	"math"
	"slices"
)

var unitHalfSize = [3]float64{0.5, 0.5, 0.5}

// fall is the constant acceleration of the preset bodies. A Gravity force
// wakes its body every step, so the presets use an acceleration to let
// resting boxes sleep.
var fall = [3]float64{0, -15, 0}

var presets = map[string]func() *Config{
	// A box dropped onto two layers of resting boxes.
	"drop": func() *Config {
		cfg := Default()
		cfg.Bodies = []BodyConfig{
			{Name: "falling", Position: [3]float64{0, 6.5, 0}, HalfSize: unitHalfSize, Acceleration: fall, CanSleep: true},
			{Name: "bottom", Position: [3]float64{0, -1.5, 0}, HalfSize: unitHalfSize, CanSleep: true},
			{Name: "side", Position: [3]float64{0, -1.5, 1}, HalfSize: unitHalfSize, CanSleep: true},
			{Name: "bottomer", Position: [3]float64{0, -2.5, 0}, HalfSize: unitHalfSize, CanSleep: true},
			{Name: "side_bottom", Position: [3]float64{0, -2.5, 1}, HalfSize: unitHalfSize, CanSleep: true},
			{Name: "right_bottom", Position: [3]float64{0, -1.5, -1}, HalfSize: unitHalfSize, CanSleep: true},
			{Name: "right_bottomer", Position: [3]float64{0, -2.5, -1}, HalfSize: unitHalfSize, CanSleep: true},
		}
		return cfg
	},
	"resting": func() *Config {
		cfg := Default()
		cfg.Steps = 300
		cfg.Bodies = []BodyConfig{
			{Name: "floor", HalfSize: [3]float64{4, 0.5, 4}, Immovable: true},
			{Name: "box", Position: [3]float64{0, 1, 0}, HalfSize: unitHalfSize, Acceleration: fall, CanSleep: true},
		}
		return cfg
	},
	"stack": func() *Config {
		cfg := Default()
		cfg.Bodies = []BodyConfig{{Name: "floor", HalfSize: [3]float64{4, 0.5, 4}, Immovable: true}}
		for i := range 4 {
			cfg.Bodies = append(cfg.Bodies, BodyConfig{
				Name:     fmt.Sprintf("box%d", i),
				Position:     [3]float64{0, 1.05 + 1.05*float64(i), 0},
				HalfSize:     unitHalfSize,
				Acceleration: fall,
				CanSleep:     true,
			})
		}
		return cfg
	},
	// A box landing on an edge, so it has to topple.
	"tumble": func() *Config {
		cfg := Default()
		cfg.Bodies = []BodyConfig{
			{Name: "floor", HalfSize: [3]float64{4, 0.5, 4}, Immovable: true},
			{
				Name:         "box",
				Position:     [3]float64{0, 3, 0},
				Orientation:  OrientationConfig{Axis: [3]float64{1, 0, 1}, Angle: math.Pi / 5},
				HalfSize:     [3]float64{0.5, 0.25, 0.75},
				Velocity:     [3]float64{1, 0, 0},
				Acceleration: fall,
				CanSleep:     true,
			},
		}
		return cfg
	},
}

// Preset returns a fresh copy of the named scene.
func Preset(name string) (*Config, error) {
	build, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownPreset)
	}
	return build(), nil
}

// Presets lists the preset names, sorted.
func Presets() []string {
	return slices.Sorted(maps.Keys(presets))
}
