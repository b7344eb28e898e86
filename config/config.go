// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Distribution names accepted by WalkConfig.Distribution.
const (
	DistGaussian  = "gaussian"
	DistUniform   = "uniform"
	DistDiffusion = "diffusion"
)

// Geometry names accepted by AnemoneConfig.Geometry.
const (
	GeometrySphere    = "sphere"
	GeometryTentacles = "tentacles"
)

// Boundary modes accepted by VolumeConfig.Boundary.
const (
	BoundaryExit = "exit"
	BoundaryWrap = "wrap"
)

// Spawn modes accepted by SpawnConfig.Mode.
const (
	SpawnUniform = "uniform"
	SpawnOrigin  = "origin"
)

// Config holds all simulation configuration parameters.
type Config struct {
	Simulation SimulationConfig `yaml:"simulation"`
	Particles  ParticlesConfig  `yaml:"particles"`
	Walk       WalkConfig       `yaml:"walk"`
	Volume     VolumeConfig     `yaml:"volume"`
	Spawn      SpawnConfig      `yaml:"spawn"`
	Anemone    AnemoneConfig    `yaml:"anemone"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Logging    LoggingConfig    `yaml:"logging"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// SimulationConfig holds run length and reproducibility settings.
type SimulationConfig struct {
	Ticks           int    `yaml:"ticks"`
	Seed            *int64 `yaml:"seed,omitempty"` // nil = time-based
	RecordPositions bool   `yaml:"record_positions"`
}

// ParticlesConfig holds food particle population parameters.
type ParticlesConfig struct {
	Count int `yaml:"count"` // Population held constant by replenishment
}

// WalkConfig holds the per-axis step distribution.
type WalkConfig struct {
	Distribution string  `yaml:"distribution"` // gaussian, uniform or diffusion
	Mean         float64 `yaml:"mean"`         // gaussian only
	StdDev       float64 `yaml:"stddev"`       // gaussian only
	MaxStep      float64 `yaml:"max_step"`     // uniform and diffusion
}

// VolumeConfig holds the optional bounding box. Particles leaving it exit play,
// or reappear on the opposite face when Boundary is wrap.
type VolumeConfig struct {
	Bounded  bool       `yaml:"bounded"`
	Boundary string     `yaml:"boundary"` // exit | wrap
	Min      [3]float64 `yaml:"min"`
	Max      [3]float64 `yaml:"max"`
}

// SpawnConfig controls where new particles appear.
// With a bounded volume, uniform spawning covers the volume and Min/Max are ignored.
type SpawnConfig struct {
	Mode   string     `yaml:"mode"` // uniform or origin
	Min    [3]float64 `yaml:"min"`
	Max    [3]float64 `yaml:"max"`
	Origin [3]float64 `yaml:"origin"`
}

// AnemoneConfig holds the anemone position and capture geometry.
type AnemoneConfig struct {
	Geometry      string          `yaml:"geometry"` // sphere or tentacles
	Position      [3]float64      `yaml:"position"`
	CaptureRadius float64         `yaml:"capture_radius"` // sphere only
	Tentacles     TentaclesConfig `yaml:"tentacles"`
}

// TentaclesConfig describes a ring of tentacles rooted on an oriented disk.
type TentaclesConfig struct {
	Count            int        `yaml:"count"`
	DiskRadius       float64    `yaml:"disk_radius"`
	Normal           [3]float64 `yaml:"normal"`
	Length           float64    `yaml:"length"`
	Elements         int        `yaml:"elements"`          // Sensor points per tentacle
	ReactionDistance float64    `yaml:"reaction_distance"` // 0 = derived from length/elements
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	WindowTicks int  `yaml:"window_ticks"` // Ticks per stats window
	LogStats    bool `yaml:"log_stats"`    // Log each window via slog
}

// LoggingConfig holds logging parameters.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	ReactionDistance float64 // Effective tentacle reaction distance
	SensorSpacing    float64 // Tentacle.Length / Tentacle.Elements
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Default returns a fresh copy of the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.ComputeDerived()

	return cfg, nil
}

// ComputeDerived recalculates values derived from the loaded config.
// Callers that modify a Config after Load must call it again.
func (c *Config) ComputeDerived() {
	t := c.Anemone.Tentacles
	c.Derived.SensorSpacing = 0
	if t.Elements > 0 {
		c.Derived.SensorSpacing = t.Length / float64(t.Elements)
	}
	c.Derived.ReactionDistance = t.ReactionDistance
	if c.Derived.ReactionDistance == 0 {
		// Sensors react out to ten element spacings
		c.Derived.ReactionDistance = c.Derived.SensorSpacing * 10
	}
}

// Clone returns a deep copy, so independent runs never share a Config.
func (c *Config) Clone() *Config {
	out := *c
	if c.Simulation.Seed != nil {
		seed := *c.Simulation.Seed
		out.Simulation.Seed = &seed
	}
	return &out
}

// WithSeed returns a copy of the config with the given seed.
func (c *Config) WithSeed(seed int64) *Config {
	out := c.Clone()
	out.Simulation.Seed = &seed
	return out
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
