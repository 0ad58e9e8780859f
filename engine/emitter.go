package engine

import (
	"math/rand"

	"github.com/pthm-cable/granule/config"
	"github.com/pthm-cable/granule/particle"
)

// PointEmitter emits particles from a fixed origin at a configured rate,
// with jittered initial velocity and a uniformly sampled lifetime. The
// fractional remainder of rate*dt carries over between ticks so low rates
// still emit.
type PointEmitter struct {
	name  string
	rate  float64
	accum float64

	lifetimeMin float32
	lifetimeMax float32
	mass        float32
	origin      particle.Vec3
	velocity    particle.Vec3
	spread      float32
}

// NewPointEmitter builds an emitter from its config section.
func NewPointEmitter(cfg config.EmitterConfig) *PointEmitter {
	em := &PointEmitter{name: cfg.Name}
	em.Apply(cfg)
	return em
}

// Name returns the emitter's configured name.
func (em *PointEmitter) Name() string {
	return em.name
}

// Apply updates the emitter's runtime knobs from a config section. Used at
// construction and by live config reload; the emission accumulator is
// preserved.
func (em *PointEmitter) Apply(cfg config.EmitterConfig) {
	em.rate = cfg.Rate
	em.lifetimeMin = float32(cfg.LifetimeMin)
	em.lifetimeMax = float32(cfg.LifetimeMax)
	if em.lifetimeMax < em.lifetimeMin {
		em.lifetimeMax = em.lifetimeMin
	}
	em.mass = float32(cfg.Mass)
	em.origin = particle.Vec3{float32(cfg.Origin.X), float32(cfg.Origin.Y), float32(cfg.Origin.Z)}
	em.velocity = particle.Vec3{float32(cfg.Velocity.X), float32(cfg.Velocity.Y), float32(cfg.Velocity.Z)}
	em.spread = float32(cfg.Spread)
}

// Due returns how many particles to emit this tick.
func (em *PointEmitter) Due(dt float32) int {
	em.accum += em.rate * float64(dt)
	n := int(em.accum)
	em.accum -= float64(n)
	return n
}

// Lifetime samples a lifetime in [lifetimeMin, lifetimeMax].
func (em *PointEmitter) Lifetime(rng *rand.Rand) float32 {
	if em.lifetimeMax <= em.lifetimeMin {
		return em.lifetimeMin
	}
	return em.lifetimeMin + rng.Float32()*(em.lifetimeMax-em.lifetimeMin)
}

// Mass returns the mass written for new particles.
func (em *PointEmitter) Mass() float32 {
	return em.mass
}

// Origin returns the spawn position.
func (em *PointEmitter) Origin() particle.Vec3 {
	return em.origin
}

// Velocity samples the initial velocity with per-component jitter of
// magnitude spread.
func (em *PointEmitter) Velocity(rng *rand.Rand) particle.Vec3 {
	if em.spread == 0 {
		return em.velocity
	}
	jitter := particle.Vec3{
		(rng.Float32()*2 - 1) * em.spread,
		(rng.Float32()*2 - 1) * em.spread,
		(rng.Float32()*2 - 1) * em.spread,
	}
	return em.velocity.Add(jitter)
}
