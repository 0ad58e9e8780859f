package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/pkg/profile"

	"github.com/pthm-cable/granule/config"
	"github.com/pthm-cable/granule/engine"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	watchConfig := flag.Bool("watch-config", false, "Reload emitter settings when the config file changes")
	cpuProfile := flag.Bool("cpuprofile", false, "Write a CPU profile to the working directory")

	flag.Parse()

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if *cpuProfile {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	}

	// Set up seed
	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	watchPath := ""
	if *watchConfig {
		if *configPath == "" {
			slog.Error("-watch-config requires -config")
			os.Exit(1)
		}
		watchPath = *configPath
	}

	opts := engine.Options{
		Seed:           rngSeed,
		LogStats:       *logStats,
		StatsWindowSec: *statsWindow,
		OutputDir:      *outputDir,
		WatchPath:      watchPath,
	}

	eng, err := engine.New(cfg, opts)
	if err != nil {
		slog.Error("failed to build engine", "error", err)
		os.Exit(1)
	}
	defer eng.Close()

	slog.Info("starting simulation",
		"seed", rngSeed,
		"block_size", cfg.Storage.BlockSize,
		"emitters", len(cfg.Emitters),
		"max_ticks", *maxTicks,
	)

	for {
		eng.Step()

		if *maxTicks > 0 && int(eng.Tick()) >= *maxTicks {
			slog.Info("max ticks reached", "tick", eng.Tick())
			return
		}
	}
}
