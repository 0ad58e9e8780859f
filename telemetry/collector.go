package telemetry

// Collector accumulates block and particle lifecycle events within time
// windows and produces WindowStats.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int32
	dt                  float32

	// Current window tracking
	windowStartTick int32

	// Event counters for current window
	emitted        int
	died           int
	blocksAlloc    int
	blocksReleased int
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowDurationSec float64, dt float32) *Collector {
	ticksPerWindow := int32(windowDurationSec / float64(dt))
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
		windowStartTick:     0,
	}
}

// RecordEmit records n emitted particles.
func (c *Collector) RecordEmit(n int) {
	c.emitted += n
}

// RecordDeaths records n particles removed by the reap pass.
func (c *Collector) RecordDeaths(n int) {
	c.died += n
}

// RecordBlockAlloc records a block allocation.
func (c *Collector) RecordBlockAlloc() {
	c.blocksAlloc++
}

// RecordBlockRelease records a block release.
func (c *Collector) RecordBlockRelease() {
	c.blocksReleased++
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces a WindowStats and resets counters for the next window.
// The caller provides the container state at window end: live block count,
// total active particles, total capacity (blocks * blockSize), and the
// sampled values of the tracked attribute.
func (c *Collector) Flush(
	currentTick int32,
	blocks, activeParticles, capacity int,
	trackedAttribute string,
	trackedValues []float64,
) WindowStats {
	var utilization float64
	if capacity > 0 {
		utilization = float64(activeParticles) / float64(capacity)
	}

	mean, std, p10, p50, p90 := ComputeAttributeStats(trackedValues)

	stats := WindowStats{
		WindowStartTick:  c.windowStartTick,
		WindowEndTick:    currentTick,
		SimTimeSec:       float64(currentTick) * float64(c.dt),
		Blocks:           blocks,
		ActiveParticles:  activeParticles,
		Utilization:      utilization,
		Emitted:          c.emitted,
		Died:             c.died,
		BlocksAlloc:      c.blocksAlloc,
		BlocksReleased:   c.blocksReleased,
		TrackedAttribute: trackedAttribute,
		AttrMean:         mean,
		AttrStd:          std,
		AttrP10:          p10,
		AttrP50:          p50,
		AttrP90:          p90,
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.emitted = 0
	c.died = 0
	c.blocksAlloc = 0
	c.blocksReleased = 0

	return stats
}
