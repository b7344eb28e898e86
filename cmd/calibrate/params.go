package main

import (
	"math"

	"github.com/pthm-cable/anemone/config"
)

// ParamSpec defines a single fitted parameter.
// Log-scaled parameters are searched over log10 of their value.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
	Log     bool

	apply   func(cfg *config.Config, v float64)
	extract func(cfg *config.Config) float64
}

// ParamVector holds the set of fitted parameters.
type ParamVector struct {
	Specs []ParamSpec
}

var (
	stddevSpec = ParamSpec{
		Name: "walk_stddev", Path: "walk.stddev", Min: 1e-4, Max: 1.0, Default: 0.01, Log: true,
		apply:   func(cfg *config.Config, v float64) { cfg.Walk.StdDev = v },
		extract: func(cfg *config.Config) float64 { return cfg.Walk.StdDev },
	}
	maxStepSpec = ParamSpec{
		Name: "walk_max_step", Path: "walk.max_step", Min: 1e-4, Max: 1.0, Default: 0.001, Log: true,
		apply:   func(cfg *config.Config, v float64) { cfg.Walk.MaxStep = v },
		extract: func(cfg *config.Config) float64 { return cfg.Walk.MaxStep },
	}
	radiusSpec = ParamSpec{
		Name: "capture_radius", Path: "anemone.capture_radius", Min: 0.01, Max: 1.0, Default: 0.15,
		apply:   func(cfg *config.Config, v float64) { cfg.Anemone.CaptureRadius = v },
		extract: func(cfg *config.Config) float64 { return cfg.Anemone.CaptureRadius },
	}
)

// NewParamVector creates the fitted parameters for cfg: the step scale of its
// distribution, plus the sphere capture radius when fitRadius is set.
func NewParamVector(cfg *config.Config, fitRadius bool) *ParamVector {
	step := stddevSpec
	if cfg.Walk.Distribution != config.DistGaussian {
		step = maxStepSpec
	}
	pv := &ParamVector{Specs: []ParamSpec{step}}
	if fitRadius {
		pv.Specs = append(pv.Specs, radiusSpec)
	}
	return pv
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// StartVector returns cfg's current values, falling back to defaults for
// values outside the search bounds.
func (pv *ParamVector) StartVector(cfg *config.Config) []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.extract(cfg)
		if v[i] < spec.Min || v[i] > spec.Max {
			v[i] = spec.Default
		}
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		lo, hi, x := spec.Min, spec.Max, raw[i]
		if spec.Log {
			lo, hi, x = math.Log10(lo), math.Log10(hi), math.Log10(x)
		}
		normalized[i] = (x - lo) / (hi - lo)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		if spec.Log {
			lo, hi := math.Log10(spec.Min), math.Log10(spec.Max)
			raw[i] = math.Pow(10, lo+normalized[i]*(hi-lo))
			continue
		}
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = math.Min(math.Max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig applies clamped parameter values to cfg.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	for i, v := range pv.Clamp(values) {
		pv.Specs[i].apply(cfg, v)
	}
	cfg.ComputeDerived()
}

// ExtractFromConfig extracts current parameter values from cfg.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.extract(cfg)
	}
	return v
}
