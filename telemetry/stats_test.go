package telemetry

import (
	"math"
	"testing"
)

func TestComputeAttributeStats(t *testing.T) {
	values := []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0}
	mean, std, p10, p50, p90 := ComputeAttributeStats(values)

	if math.Abs(mean-0.55) > 0.001 {
		t.Errorf("mean = %v, want 0.55", mean)
	}

	// Population std of a uniform ladder 0.1..1.0
	if math.Abs(std-0.28723) > 0.001 {
		t.Errorf("std = %v, want ~0.28723", std)
	}

	// Empirical quantiles land on observed values
	if p10 < 0.1 || p10 > 0.2 {
		t.Errorf("p10 = %v, want within [0.1, 0.2]", p10)
	}
	if p50 < 0.4 || p50 > 0.6 {
		t.Errorf("p50 = %v, want within [0.4, 0.6]", p50)
	}
	if p90 < 0.8 || p90 > 1.0 {
		t.Errorf("p90 = %v, want within [0.8, 1.0]", p90)
	}
}

func TestComputeAttributeStatsEmpty(t *testing.T) {
	mean, std, p10, p50, p90 := ComputeAttributeStats(nil)

	if mean != 0 || std != 0 || p10 != 0 || p50 != 0 || p90 != 0 {
		t.Error("empty input should return all zeros")
	}
}

func TestComputeAttributeStatsSingle(t *testing.T) {
	mean, std, p10, p50, p90 := ComputeAttributeStats([]float64{3.5})

	if mean != 3.5 {
		t.Errorf("mean = %v, want 3.5", mean)
	}
	if std != 0 {
		t.Errorf("std = %v, want 0", std)
	}
	if p10 != 3.5 || p50 != 3.5 || p90 != 3.5 {
		t.Errorf("percentiles = %v, %v, %v, want all 3.5", p10, p50, p90)
	}
}

func TestComputeAttributeStatsUnsortedInput(t *testing.T) {
	// Input order must not matter, and the caller's slice must not be
	// reordered.
	values := []float64{5, 1, 3, 2, 4}
	mean, _, _, p50, _ := ComputeAttributeStats(values)

	if mean != 3 {
		t.Errorf("mean = %v, want 3", mean)
	}
	if p50 != 3 {
		t.Errorf("p50 = %v, want 3", p50)
	}
	if values[0] != 5 || values[4] != 4 {
		t.Errorf("caller slice reordered: %v", values)
	}
}
