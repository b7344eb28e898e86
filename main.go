package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pthm-cable/anemone/config"
	"github.com/pthm-cable/anemone/engine"
	"github.com/pthm-cable/anemone/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	seed := flag.Int64("seed", 0, "RNG seed (default: config, or time-based if unset)")
	ticks := flag.Int("ticks", 0, "Number of ticks to run (0 = use config)")
	particles := flag.Int("particles", 0, "Particle population (0 = use config)")
	logStats := flag.Bool("log-stats", false, "Output window stats via slog")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs, config and summary")
	saveState := flag.Bool("save-state", false, "Write the final particle field to the output directory")

	flag.Parse()

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	if flagSet(flag.CommandLine, "seed") {
		cfg = cfg.WithSeed(*seed)
	}
	if *ticks > 0 {
		cfg.Simulation.Ticks = *ticks
	}
	if *particles > 0 {
		cfg.Particles.Count = *particles
	}
	if *logStats {
		cfg.Telemetry.LogStats = true
	}

	// Set up slog (JSON to stdout for structured logging)
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Logging.Level)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	os.Exit(run(cfg, *outputDir, *saveState, logger))
}

// flagSet reports whether name was given on the command line.
func flagSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func run(cfg *config.Config, outputDir string, saveState bool, logger *slog.Logger) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out, err := telemetry.NewOutputManager(outputDir)
	if err != nil {
		logger.Error("failed to create output manager", "error", err)
		return 1
	}
	defer func() {
		if err := out.Close(); err != nil {
			logger.Error("failed to close output files", "error", err)
		}
	}()

	opts := []engine.Option{engine.WithLogger(logger)}
	if out != nil {
		opts = append(opts, engine.WithSink(out))
	}
	clock := engine.New(cfg, opts...)

	// Record the seed actually used so the run can be replayed
	if err := out.WriteConfig(clock.Config().WithSeed(clock.Seed())); err != nil {
		logger.Error("failed to write config", "error", err)
		return 1
	}

	runErr := clock.Run(ctx)

	report := telemetry.RunReport{
		Seed:      clock.Seed(),
		Status:    clock.State().String(),
		Summary:   clock.Summary(),
		Residence: clock.Residence(),
		Bookmarks: clock.Bookmarks(),
	}
	if runErr != nil {
		report.Error = runErr.Error()
	}
	if err := out.WriteSummary(report); err != nil {
		logger.Error("failed to write summary", "error", err)
	}

	if saveState && out != nil && clock.State() != engine.Initialized {
		path, err := telemetry.SaveState(clock.FinalState(), out.Dir())
		if err != nil {
			logger.Error("failed to save state", "error", err)
		} else {
			logger.Info("state saved", "path", path)
		}
	}

	switch {
	case runErr == nil:
		return 0
	case errors.Is(runErr, engine.ErrConfiguration):
		logger.Error("invalid configuration", "error", runErr)
		return 2
	case errors.Is(runErr, context.Canceled):
		return 130
	default:
		return 1
	}
}
