package telemetry

import (
	"testing"
	"time"
)

func TestPerfCollector_BasicTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	// Simulate a few ticks
	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseEmission)
		time.Sleep(100 * time.Microsecond)
		pc.StartPhase(PhaseAging)
		time.Sleep(200 * time.Microsecond)
		pc.EndTick()
	}

	stats := pc.Stats()

	// Verify we got timing data
	if stats.AvgTickDuration <= 0 {
		t.Error("expected positive average tick duration")
	}

	// Verify phases are tracked
	if len(stats.PhaseAvg) == 0 {
		t.Error("expected phase averages to be populated")
	}

	if _, ok := stats.PhaseAvg[PhaseEmission]; !ok {
		t.Error("expected emission phase to be tracked")
	}

	if _, ok := stats.PhaseAvg[PhaseAging]; !ok {
		t.Error("expected aging phase to be tracked")
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc := NewPerfCollector(5) // Small window

	// Fill window completely
	for i := 0; i < 10; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseEmission)
		pc.EndTick()
	}

	stats := pc.Stats()

	// Should have data
	if stats.AvgTickDuration <= 0 {
		t.Error("expected positive average tick duration after window filled")
	}

	if stats.TicksPerSecond <= 0 {
		t.Error("expected positive ticks per second")
	}
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	pc := NewPerfCollector(10)
	stats := pc.Stats()

	if stats.AvgTickDuration != 0 {
		t.Error("expected zero average with no samples")
	}
	if len(stats.PhaseAvg) != 0 {
		t.Error("expected empty phase averages with no samples")
	}
}

func TestPerfStats_ToCSV(t *testing.T) {
	pc := NewPerfCollector(4)
	for i := 0; i < 4; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseReap)
		time.Sleep(50 * time.Microsecond)
		pc.EndTick()
	}

	rec := pc.Stats().ToCSV(240)
	if rec.WindowEnd != 240 {
		t.Errorf("WindowEnd = %d, want 240", rec.WindowEnd)
	}
	if rec.AvgTickUS <= 0 {
		t.Error("expected positive avg tick duration in CSV record")
	}
	if rec.ReapPct <= 0 {
		t.Error("expected reap phase percentage > 0")
	}
}
