package main

import (
	"context"
	"io"
	"log/slog"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/anemone/config"
	"github.com/pthm-cable/anemone/engine"
)

// FitnessEvaluator runs seeded simulations and scores their capture rate
// against a target.
type FitnessEvaluator struct {
	params     *ParamVector
	seeds      []int64
	baseConfig *config.Config
	target     float64
	logger     *slog.Logger

	mu       sync.Mutex
	lastRate float64 // mean capture rate from the most recent Evaluate call
	lastStd  float64
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, seeds []int64, baseCfg *config.Config, target float64) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:     params,
		seeds:      seeds,
		baseConfig: baseCfg,
		target:     target,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// LastRate returns the mean capture rate and its spread across seeds from the
// most recent evaluation.
func (fe *FitnessEvaluator) LastRate() (mean, std float64) {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastRate, fe.lastStd
}

// Evaluate computes fitness for raw parameter values (lower = better).
// Fitness is the squared relative error of the mean capture rate; invalid or
// faulted runs score +Inf.
func (fe *FitnessEvaluator) Evaluate(ctx context.Context, x []float64) (float64, error) {
	rates := make([]float64, len(fe.seeds))

	// Seeds share nothing, so they run in parallel
	g, gctx := errgroup.WithContext(ctx)
	for i, seed := range fe.seeds {
		g.Go(func() error {
			rate, err := fe.runSimulation(gctx, x, seed)
			if err != nil {
				return err
			}
			rates[i] = rate
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return math.Inf(1), err
	}

	mean, std := stat.MeanStdDev(rates, nil)
	if len(rates) < 2 {
		std = 0
	}

	fe.mu.Lock()
	fe.lastRate, fe.lastStd = mean, std
	fe.mu.Unlock()

	return fe.computeFitness(mean), nil
}

// runSimulation executes a single run and returns its capture rate.
func (fe *FitnessEvaluator) runSimulation(ctx context.Context, x []float64, seed int64) (float64, error) {
	cfg := fe.baseConfig.WithSeed(seed)
	fe.params.ApplyToConfig(cfg, x)

	clock := engine.New(cfg, engine.WithLogger(fe.logger))
	if err := clock.Run(ctx); err != nil {
		return 0, err
	}
	return clock.Summary().CaptureRate, nil
}

// computeFitness scores a capture rate. The error is relative so targets of
// different magnitude converge alike.
func (fe *FitnessEvaluator) computeFitness(rate float64) float64 {
	if fe.target == 0 {
		return rate * rate
	}
	rel := (rate - fe.target) / fe.target
	return rel * rel
}
