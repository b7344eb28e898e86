package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/pthm-cable/anemone/config"
	"github.com/pthm-cable/anemone/engine"
)

// setter applies one swept value to a config.
type setter func(cfg *config.Config, v float64)

// sweepParams lists the config paths that can be swept.
var sweepParams = map[string]setter{
	"walk.stddev":                         func(c *config.Config, v float64) { c.Walk.StdDev = v },
	"walk.mean":                           func(c *config.Config, v float64) { c.Walk.Mean = v },
	"walk.max_step":                       func(c *config.Config, v float64) { c.Walk.MaxStep = v },
	"anemone.capture_radius":              func(c *config.Config, v float64) { c.Anemone.CaptureRadius = v },
	"anemone.tentacles.count":             func(c *config.Config, v float64) { c.Anemone.Tentacles.Count = int(v) },
	"anemone.tentacles.length":            func(c *config.Config, v float64) { c.Anemone.Tentacles.Length = v },
	"anemone.tentacles.elements":          func(c *config.Config, v float64) { c.Anemone.Tentacles.Elements = int(v) },
	"anemone.tentacles.reaction_distance": func(c *config.Config, v float64) { c.Anemone.Tentacles.ReactionDistance = v },
	"particles.count":                     func(c *config.Config, v float64) { c.Particles.Count = int(v) },
}

// ParamNames returns the sweepable config paths, sorted.
func ParamNames() []string {
	names := make([]string, 0, len(sweepParams))
	for name := range sweepParams {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseValues parses a comma-separated list of numbers.
func ParseValues(s string) ([]float64, error) {
	var values []float64
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing value %q: %w", field, err)
		}
		values = append(values, v)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("no values in %q", s)
	}
	return values, nil
}

// Row is one line of sweep.csv.
type Row struct {
	Param         string  `csv:"param"`
	Value         float64 `csv:"value"`
	Seed          int64   `csv:"seed"`
	Status        string  `csv:"status"`
	Ticks         int     `csv:"ticks"`
	TotalConsumed int     `csv:"total_consumed"`
	TotalExited   int     `csv:"total_exited"`
	ConsumedMean  float64 `csv:"consumed_mean"`
	ConsumedStd   float64 `csv:"consumed_std"`
	CaptureRate   float64 `csv:"capture_rate"`
	FirstCapture  int     `csv:"first_capture_tick"`
	Error         string  `csv:"error"`
}

// Sweep runs one independent simulation per (value, seed) pair.
type Sweep struct {
	Base     *config.Config
	Param    string
	Values   []float64
	Seeds    []int64
	Parallel int // <= 0 means unlimited
	Logger   *slog.Logger
}

// Run executes every run and returns rows ordered by value, then seed.
// Configuration and arithmetic failures are reported in the row; only
// cancellation stops the sweep.
func (s *Sweep) Run(ctx context.Context) ([]Row, error) {
	set, ok := sweepParams[s.Param]
	if !ok {
		return nil, fmt.Errorf("unknown sweep parameter %q (have %s)", s.Param, strings.Join(ParamNames(), ", "))
	}

	logger := s.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	rows := make([]Row, len(s.Values)*len(s.Seeds))

	g, gctx := errgroup.WithContext(ctx)
	if s.Parallel > 0 {
		g.SetLimit(s.Parallel)
	}

	for vi, value := range s.Values {
		for si, seed := range s.Seeds {
			idx := vi*len(s.Seeds) + si
			g.Go(func() error {
				cfg := s.Base.WithSeed(seed)
				set(cfg, value)
				cfg.ComputeDerived()

				row, err := runOne(gctx, cfg, logger.With("value", value, "seed", seed))
				row.Param, row.Value, row.Seed = s.Param, value, seed
				rows[idx] = row
				return err
			})
		}
	}

	if err := g.Wait(); err != nil {
		return rows, err
	}
	return rows, nil
}

// runOne runs a single clock. It returns an error only on cancellation.
func runOne(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Row, error) {
	clock := engine.New(cfg, engine.WithLogger(logger))
	err := clock.Run(ctx)

	sum := clock.Summary()
	row := Row{
		Status:        clock.State().String(),
		Ticks:         sum.Ticks,
		TotalConsumed: sum.TotalConsumed,
		TotalExited:   sum.TotalExited,
		ConsumedMean:  sum.ConsumedMean,
		ConsumedStd:   sum.ConsumedStd,
		CaptureRate:   sum.CaptureRate,
		FirstCapture:  sum.FirstCaptureTick,
	}
	if err != nil {
		row.Error = err.Error()
		if ctx.Err() != nil {
			return row, err
		}
	}
	return row, nil
}
