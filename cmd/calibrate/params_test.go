package main

import (
	"context"
	"math"
	"testing"

	"github.com/pthm-cable/anemone/config"
)

func TestParamVectorLogScale(t *testing.T) {
	pv := NewParamVector(config.Default(), false)
	if pv.Dim() != 1 || pv.Specs[0].Path != "walk.stddev" {
		t.Fatalf("specs = %+v", pv.Specs)
	}

	// Midpoint of [1e-4, 1] in log space is 1e-2
	mid := pv.Denormalize([]float64{0.5})[0]
	if math.Abs(mid-0.01) > 1e-12 {
		t.Errorf("Denormalize(0.5) = %v, want 0.01", mid)
	}

	for _, v := range []float64{1e-4, 3e-3, 0.2, 1} {
		got := pv.Denormalize(pv.Normalize([]float64{v}))[0]
		if math.Abs(got-v) > 1e-9*v {
			t.Errorf("round trip %v -> %v", v, got)
		}
	}
}

func TestParamVectorFollowsDistribution(t *testing.T) {
	cfg := config.Default()
	cfg.Walk.Distribution = config.DistDiffusion
	pv := NewParamVector(cfg, true)

	if pv.Dim() != 2 {
		t.Fatalf("Dim = %d, want 2", pv.Dim())
	}
	if pv.Specs[0].Path != "walk.max_step" || pv.Specs[1].Path != "anemone.capture_radius" {
		t.Errorf("paths = %q, %q", pv.Specs[0].Path, pv.Specs[1].Path)
	}

	pv.ApplyToConfig(cfg, []float64{5, 0.3})
	if cfg.Walk.MaxStep != 1.0 {
		t.Errorf("MaxStep = %v, want clamped 1.0", cfg.Walk.MaxStep)
	}
	if cfg.Anemone.CaptureRadius != 0.3 {
		t.Errorf("CaptureRadius = %v, want 0.3", cfg.Anemone.CaptureRadius)
	}
	got := pv.ExtractFromConfig(cfg)
	if got[0] != 1.0 || got[1] != 0.3 {
		t.Errorf("ExtractFromConfig = %v", got)
	}
}

func TestStartVectorFallsBackToDefault(t *testing.T) {
	cfg := config.Default()
	cfg.Walk.StdDev = 50
	pv := NewParamVector(cfg, false)
	if got := pv.StartVector(cfg)[0]; got != 0.01 {
		t.Errorf("StartVector = %v, want default 0.01", got)
	}
}

func TestEvaluateScoresCaptureRate(t *testing.T) {
	cfg := config.Default()
	cfg.Simulation.Ticks = 50
	cfg.Particles.Count = 100

	pv := NewParamVector(cfg, false)
	fe := NewFitnessEvaluator(pv, []int64{1, 2}, cfg, 0.5)

	fitness, err := fe.Evaluate(context.Background(), []float64{0.05})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	rate, _ := fe.LastRate()
	if rate < 0 || rate > 1 {
		t.Fatalf("capture rate %v out of range", rate)
	}
	rel := (rate - 0.5) / 0.5
	want := rel * rel
	if math.Abs(fitness-want) > 1e-12 {
		t.Errorf("fitness = %v, want %v", fitness, want)
	}

	// Same seeds, same parameters, same score
	again, err := fe.Evaluate(context.Background(), []float64{0.05})
	if err != nil {
		t.Fatal(err)
	}
	if again != fitness {
		t.Errorf("re-evaluation = %v, want %v", again, fitness)
	}
}

func TestComputeFitnessZeroTarget(t *testing.T) {
	fe := &FitnessEvaluator{target: 0}
	if got := fe.computeFitness(0.1); math.Abs(got-0.01) > 1e-15 {
		t.Errorf("computeFitness = %v, want 0.01", got)
	}
}
