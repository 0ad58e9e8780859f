package engine

import (
	"log/slog"

	"github.com/pthm-cable/granule/particle"
	"github.com/pthm-cable/granule/telemetry"
)

// Step advances the simulation by one tick: emit new particles, age the
// live ones, reap the expired, then flush telemetry if a window closed.
// Block-set membership only changes in the emission and reap phases, both
// single-threaded; the aging phase runs block-parallel against a fixed
// membership snapshot.
func (e *Engine) Step() {
	e.maybeReload()

	e.perf.StartTick()

	e.perf.StartPhase(telemetry.PhaseEmission)
	e.updateEmission()

	e.perf.StartPhase(telemetry.PhaseAging)
	e.updateAging()

	e.perf.StartPhase(telemetry.PhaseReap)
	e.updateReaping()

	e.perf.StartPhase(telemetry.PhaseTelemetry)
	e.tick++
	e.flushTelemetry()

	e.perf.EndTick()
}

// updateEmission writes due particles into free slots, pulling new blocks
// from the container as existing ones fill. When the block budget runs out
// emission degrades: the tick's remaining particles are skipped.
func (e *Engine) updateEmission() {
	for _, em := range e.emitters {
		n := em.Due(e.dt)
		for i := 0; i < n; i++ {
			b, err := e.emissionTarget()
			if err != nil {
				slog.Warn("emission halted", "emitter", em.Name(), "error", err)
				return
			}
			if err := e.emitInto(b, em); err != nil {
				slog.Error("emit failed", "emitter", em.Name(), "error", err)
				return
			}
			e.collector.RecordEmit(1)
		}
	}
}

// emissionTarget returns a block with at least one free slot, preferring the
// current fill block, then any live non-full block, then a fresh one.
func (e *Engine) emissionTarget() (*particle.Block, error) {
	if e.fill != nil && !e.fill.IsFull() {
		return e.fill, nil
	}
	for _, b := range e.container.ActiveBlocks() {
		if !b.IsFull() {
			e.fill = b
			return b, nil
		}
	}
	b, err := e.container.NewBlock()
	if err != nil {
		return nil, err
	}
	e.collector.RecordBlockAlloc()
	e.fill = b
	return b, nil
}

// emitInto writes one particle into the block's next inactive slot and
// grows the active region over it.
func (e *Engine) emitInto(b *particle.Block, em *PointEmitter) error {
	i := b.NextInactiveIndex()

	b.FloatBufferAt(e.idxAge)[i] = 0
	b.FloatBufferAt(e.idxLifetime)[i] = em.Lifetime(e.rng)
	if e.idxMass >= 0 {
		b.FloatBufferAt(e.idxMass)[i] = em.Mass()
	}
	b.Vec3BufferAt(e.idxPos)[i] = em.Origin()
	b.Vec3BufferAt(e.idxVel)[i] = em.Velocity(e.rng)

	return b.SetActive(i + 1)
}

// updateAging advances the age attribute across every block, in parallel
// when there are enough blocks to be worth it.
func (e *Engine) updateAging() {
	blocks := e.container.ActiveBlocks()
	dt := e.dt
	idxAge := e.idxAge

	e.pool.process(blocks, func(b *particle.Block) {
		age := b.FloatBufferAt(idxAge)
		for i := 0; i < b.Active(); i++ {
			age[i] += dt
		}
	})
}

// updateReaping swap-removes particles whose age has passed their lifetime
// and releases blocks that emptied out.
func (e *Engine) updateReaping() {
	for _, b := range e.container.ActiveBlocks() {
		age := b.FloatBufferAt(e.idxAge)
		life := b.FloatBufferAt(e.idxLifetime)

		removed := b.Compact(func(i int) bool {
			return age[i] < life[i]
		})
		if removed > 0 {
			e.collector.RecordDeaths(removed)
		}

		if b.Active() == 0 {
			if b == e.fill {
				e.fill = nil
			}
			if err := e.container.ReleaseBlock(b); err != nil {
				slog.Error("releasing empty block", "error", err)
				continue
			}
			e.collector.RecordBlockRelease()
		}
	}
}

// flushTelemetry closes the stats window if due and writes log and CSV
// output.
func (e *Engine) flushTelemetry() {
	if !e.collector.ShouldFlush(e.tick) {
		return
	}

	blocks := e.container.ActiveBlocks()
	active := 0
	capacity := len(blocks) * e.container.BlockSize()
	e.trackedScratch = e.trackedScratch[:0]

	for _, b := range blocks {
		active += b.Active()
		if e.trackedIdx >= 0 {
			buf := b.FloatBufferAt(e.trackedIdx)
			for i := 0; i < b.Active(); i++ {
				e.trackedScratch = append(e.trackedScratch, float64(buf[i]))
			}
		}
	}

	stats := e.collector.Flush(e.tick, len(blocks), active, capacity, e.trackedName, e.trackedScratch)
	if e.logStats {
		stats.LogStats()
	}
	if err := e.output.WriteTelemetry(stats); err != nil {
		slog.Error("writing telemetry", "error", err)
	}

	perfStats := e.perf.Stats()
	if e.logStats {
		perfStats.LogStats()
	}
	if err := e.output.WritePerf(perfStats, e.tick); err != nil {
		slog.Error("writing perf", "error", err)
	}
}
