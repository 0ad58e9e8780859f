// Package telemetry collects windowed statistics and phase timings for the
// particle engine and writes them to structured logs and CSV files.
package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated container statistics for a time window.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Container state at window end
	Blocks          int     `csv:"blocks"`
	ActiveParticles int     `csv:"active_particles"`
	Utilization     float64 `csv:"utilization"` // active / (blocks * blockSize)

	// Events during window
	Emitted        int `csv:"emitted"`
	Died           int `csv:"died"`
	BlocksAlloc    int `csv:"blocks_alloc"`
	BlocksReleased int `csv:"blocks_released"`

	// Distribution of the tracked float attribute (sampled at window end)
	TrackedAttribute string  `csv:"tracked_attribute"`
	AttrMean         float64 `csv:"attr_mean"`
	AttrStd          float64 `csv:"attr_std"`
	AttrP10          float64 `csv:"attr_p10"`
	AttrP50          float64 `csv:"attr_p50"`
	AttrP90          float64 `csv:"attr_p90"`
}

// ComputeAttributeStats calculates mean, population standard deviation, and
// percentiles of attribute values. Returns all zeros for an empty slice.
func ComputeAttributeStats(values []float64) (mean, std, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0, 0
	}

	mean = stat.Mean(values, nil)
	std = stat.PopStdDev(values, nil)

	// Quantile needs sorted input
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = stat.Quantile(0.10, stat.Empirical, sorted, nil)
	p50 = stat.Quantile(0.50, stat.Empirical, sorted, nil)
	p90 = stat.Quantile(0.90, stat.Empirical, sorted, nil)

	return mean, std, p10, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("blocks", s.Blocks),
		slog.Int("active_particles", s.ActiveParticles),
		slog.Float64("utilization", s.Utilization),
		slog.Int("emitted", s.Emitted),
		slog.Int("died", s.Died),
		slog.Int("blocks_alloc", s.BlocksAlloc),
		slog.Int("blocks_released", s.BlocksReleased),
		slog.String("tracked_attribute", s.TrackedAttribute),
		slog.Float64("attr_mean", s.AttrMean),
		slog.Float64("attr_std", s.AttrStd),
		slog.Float64("attr_p10", s.AttrP10),
		slog.Float64("attr_p50", s.AttrP50),
		slog.Float64("attr_p90", s.AttrP90),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"blocks", s.Blocks,
		"active_particles", s.ActiveParticles,
		"utilization", s.Utilization,
		"emitted", s.Emitted,
		"died", s.Died,
		"blocks_alloc", s.BlocksAlloc,
		"blocks_released", s.BlocksReleased,
		"tracked_attribute", s.TrackedAttribute,
		"attr_mean", s.AttrMean,
		"attr_std", s.AttrStd,
		"attr_p10", s.AttrP10,
		"attr_p50", s.AttrP50,
		"attr_p90", s.AttrP90,
	)
}
