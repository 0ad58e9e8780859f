// Package engine drives particle block lifecycle: emission into free slots,
// per-block aging, reaping of expired particles through swap removal, and
// telemetry. It owns a particle.Container and is the only writer of its
// block-set membership; per-block work is handed to a worker pool with one
// worker per block at a time.
package engine

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/pthm-cable/granule/config"
	"github.com/pthm-cable/granule/particle"
	"github.com/pthm-cable/granule/telemetry"
)

// Core attribute names the step phases depend on. The schema may register
// any further attributes; the engine leaves those untouched.
const (
	AttrAge      = "age"
	AttrLifetime = "lifetime"
	AttrMass     = "mass"
	AttrPosition = "position"
	AttrVelocity = "velocity"
)

// Options holds engine construction options.
type Options struct {
	Seed           int64
	LogStats       bool
	StatsWindowSec float64 // 0 = use config
	OutputDir      string  // "" = CSV output disabled
	WatchPath      string  // config file to watch for live reload, "" = off
}

// Engine owns the particle container and runs the simulation step.
type Engine struct {
	cfg       *config.Config
	container *particle.Container
	emitters  []*PointEmitter
	rng       *rand.Rand
	dt        float32
	tick      int32

	// Attribute indices resolved once at construction; hot paths use them
	// with the *BufferAt accessors.
	idxAge      int
	idxLifetime int
	idxMass     int // -1 when the schema has no mass attribute
	idxPos      int
	idxVel      int

	trackedName string
	trackedIdx  int // -1 when tracking is disabled

	// Current emission target; nil forces a block hunt on next emit.
	fill *particle.Block

	collector *telemetry.Collector
	perf      *telemetry.PerfCollector
	output    *telemetry.OutputManager
	logStats  bool

	pool *workerPool

	watcher  *configWatcher
	reloadCh chan *config.Config

	trackedScratch []float64
}

// New builds an engine from the given configuration.
func New(cfg *config.Config, opts Options) (*Engine, error) {
	st := cfg.Storage
	container, err := particle.NewContainerWithOptions(
		st.BlockSize, st.FloatAttributes, st.Vec3Attributes,
		particle.Options{MaxBlocks: st.MaxBlocks},
	)
	if err != nil {
		return nil, fmt.Errorf("building container: %w", err)
	}

	e := &Engine{
		cfg:        cfg,
		container:  container,
		rng:        rand.New(rand.NewSource(opts.Seed)),
		dt:         float32(cfg.Physics.DT),
		logStats:   opts.LogStats,
		idxMass:    -1,
		trackedIdx: -1,
	}

	// Resolve the core attributes once. Emission and reaping depend on
	// these; a schema without them cannot be driven by this engine.
	if e.idxAge, err = container.FloatIndex(AttrAge); err != nil {
		return nil, fmt.Errorf("engine requires an %q float attribute: %w", AttrAge, err)
	}
	if e.idxLifetime, err = container.FloatIndex(AttrLifetime); err != nil {
		return nil, fmt.Errorf("engine requires a %q float attribute: %w", AttrLifetime, err)
	}
	if e.idxPos, err = container.Vec3Index(AttrPosition); err != nil {
		return nil, fmt.Errorf("engine requires a %q vec3 attribute: %w", AttrPosition, err)
	}
	if e.idxVel, err = container.Vec3Index(AttrVelocity); err != nil {
		return nil, fmt.Errorf("engine requires a %q vec3 attribute: %w", AttrVelocity, err)
	}
	// Mass is optional; emitters write it only when registered.
	if idx, err := container.FloatIndex(AttrMass); err == nil {
		e.idxMass = idx
	}

	if name := cfg.Telemetry.TrackedAttribute; name != "" {
		idx, err := container.FloatIndex(name)
		if err != nil {
			return nil, fmt.Errorf("tracked attribute: %w", err)
		}
		e.trackedName = name
		e.trackedIdx = idx
	}

	for _, emCfg := range cfg.Emitters {
		e.emitters = append(e.emitters, NewPointEmitter(emCfg))
	}

	windowSec := cfg.Telemetry.StatsWindow
	if opts.StatsWindowSec > 0 {
		windowSec = opts.StatsWindowSec
	}
	e.collector = telemetry.NewCollector(windowSec, e.dt)
	e.perf = telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow)

	e.output, err = telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	if err := e.output.WriteConfig(cfg); err != nil {
		slog.Warn("writing config snapshot", "error", err)
	}

	e.pool = newWorkerPool(cfg.Parallel.MinBlocks)

	if opts.WatchPath != "" {
		if err := e.startWatcher(opts.WatchPath); err != nil {
			e.Close()
			return nil, fmt.Errorf("watching config: %w", err)
		}
	}

	return e, nil
}

// Container returns the engine's particle container.
func (e *Engine) Container() *particle.Container {
	return e.container
}

// Tick returns the current simulation tick.
func (e *Engine) Tick() int32 {
	return e.tick
}

// Close stops workers and the config watcher and closes output files.
func (e *Engine) Close() error {
	if e.pool != nil {
		e.pool.stop()
	}
	if e.watcher != nil {
		e.watcher.close()
	}
	return e.output.Close()
}
