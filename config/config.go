// Package config provides configuration loading and access for the particle
// engine. It is the single place where attribute schemas are declared; the
// storage core exposes no API to add or remove attributes after a container
// is built.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all engine configuration parameters.
type Config struct {
	Physics   PhysicsConfig   `yaml:"physics"`
	Storage   StorageConfig   `yaml:"storage"`
	Emitters  []EmitterConfig `yaml:"emitters"`
	Parallel  ParallelConfig  `yaml:"parallel"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// PhysicsConfig holds simulation timing parameters.
type PhysicsConfig struct {
	DT float64 `yaml:"dt"` // Seconds per tick
}

// StorageConfig declares the particle container: block capacity and the
// ordered attribute name lists. List order defines stable buffer indices.
type StorageConfig struct {
	BlockSize       int      `yaml:"block_size"`
	MaxBlocks       int      `yaml:"max_blocks"` // 0 = unlimited
	FloatAttributes []string `yaml:"float_attributes"`
	Vec3Attributes  []string `yaml:"vec3_attributes"`
}

// EmitterConfig defines one particle source.
type EmitterConfig struct {
	Name        string     `yaml:"name"`
	Rate        float64    `yaml:"rate"`         // Particles per second
	LifetimeMin float64    `yaml:"lifetime_min"` // Seconds
	LifetimeMax float64    `yaml:"lifetime_max"` // Seconds
	Mass        float64    `yaml:"mass"`         // Written when a "mass" attribute exists
	Origin      Vec3Config `yaml:"origin"`
	Velocity    Vec3Config `yaml:"velocity"`
	Spread      float64    `yaml:"spread"` // Velocity jitter magnitude
}

// Vec3Config is a YAML-friendly 3-vector.
type Vec3Config struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

// ParallelConfig holds worker pool parameters.
type ParallelConfig struct {
	MinBlocks int `yaml:"min_blocks"` // Below this block count, run single-threaded
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"` // Seconds per stats window
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
	TrackedAttribute    string  `yaml:"tracked_attribute"` // Float attribute summarized per window
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DT32         float32        // Physics.DT as float32
	EmitterIndex map[string]int // name -> index for emitter lookup
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if
// path is empty. Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	// Compute derived values
	cfg.computeDerived()

	return cfg, nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.DT32 = float32(c.Physics.DT)

	// Synthesize a default emitter if none specified
	if len(c.Emitters) == 0 {
		c.Emitters = []EmitterConfig{
			{
				Name:        "main",
				Rate:        120.0,
				LifetimeMin: 2.0,
				LifetimeMax: 5.0,
				Mass:        1.0,
				Velocity:    Vec3Config{Y: 1.0},
				Spread:      0.5,
			},
		}
	}

	// Apply defaults to emitters that don't specify all fields
	for i := range c.Emitters {
		em := &c.Emitters[i]
		if em.Name == "" {
			em.Name = fmt.Sprintf("emitter_%d", i)
		}
		if em.LifetimeMax < em.LifetimeMin {
			em.LifetimeMax = em.LifetimeMin
		}
		if em.Mass == 0 {
			em.Mass = 1.0
		}
	}

	// Build emitter index for fast lookup
	c.Derived.EmitterIndex = make(map[string]int, len(c.Emitters))
	for i, em := range c.Emitters {
		c.Derived.EmitterIndex[em.Name] = i
	}
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
