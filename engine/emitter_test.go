package engine

import (
	"math/rand"
	"testing"

	"github.com/pthm-cable/granule/config"
	"github.com/pthm-cable/granule/particle"
)

func TestEmitterDueAccumulates(t *testing.T) {
	em := NewPointEmitter(config.EmitterConfig{Name: "slow", Rate: 30.0})
	dt := float32(1.0 / 60.0)

	// Half a particle per tick: due every second tick.
	total := 0
	for i := 0; i < 10; i++ {
		total += em.Due(dt)
	}
	if total != 5 {
		t.Errorf("emitted %d over 10 ticks at rate 30, want 5", total)
	}
}

func TestEmitterDueZeroRate(t *testing.T) {
	em := NewPointEmitter(config.EmitterConfig{Name: "off", Rate: 0})
	for i := 0; i < 100; i++ {
		if n := em.Due(1.0 / 60.0); n != 0 {
			t.Fatalf("Due() = %d at zero rate, want 0", n)
		}
	}
}

func TestEmitterLifetimeFixed(t *testing.T) {
	em := NewPointEmitter(config.EmitterConfig{Name: "e", LifetimeMin: 2.5, LifetimeMax: 2.5})
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 10; i++ {
		if got := em.Lifetime(rng); got != 2.5 {
			t.Fatalf("Lifetime() = %v with min == max, want 2.5", got)
		}
	}
}

func TestEmitterLifetimeRange(t *testing.T) {
	em := NewPointEmitter(config.EmitterConfig{Name: "e", LifetimeMin: 1.0, LifetimeMax: 3.0})
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 100; i++ {
		got := em.Lifetime(rng)
		if got < 1.0 || got > 3.0 {
			t.Fatalf("Lifetime() = %v, want within [1, 3]", got)
		}
	}
}

func TestEmitterVelocityNoSpread(t *testing.T) {
	em := NewPointEmitter(config.EmitterConfig{
		Name:     "e",
		Velocity: config.Vec3Config{X: 1, Y: 2, Z: 3},
	})
	rng := rand.New(rand.NewSource(7))

	want := particle.Vec3{1, 2, 3}
	if got := em.Velocity(rng); got != want {
		t.Errorf("Velocity() = %v with zero spread, want %v", got, want)
	}
}

func TestEmitterVelocityJitterBounded(t *testing.T) {
	em := NewPointEmitter(config.EmitterConfig{
		Name:     "e",
		Velocity: config.Vec3Config{Y: 1},
		Spread:   0.5,
	})
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 100; i++ {
		v := em.Velocity(rng)
		if v[0] < -0.5 || v[0] > 0.5 || v[1] < 0.5 || v[1] > 1.5 || v[2] < -0.5 || v[2] > 0.5 {
			t.Fatalf("Velocity() = %v outside jitter bounds", v)
		}
	}
}
