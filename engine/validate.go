package engine

import (
	"errors"
	"math"

	"github.com/pthm-cable/anemone/config"
)

// Validate checks cfg and returns every problem found, joined.
// Each problem is a *ConfigError, so errors.Is(err, ErrConfiguration) holds.
func Validate(cfg *config.Config) error {
	var errs []error
	fail := func(field, reason string) {
		errs = append(errs, &ConfigError{Field: field, Reason: reason})
	}

	if cfg.Particles.Count <= 0 {
		fail("particles.count", "must be positive")
	}
	if cfg.Simulation.Ticks <= 0 {
		fail("simulation.ticks", "must be positive")
	}

	w := cfg.Walk
	switch w.Distribution {
	case config.DistGaussian:
		if !finite(w.Mean) {
			fail("walk.mean", "must be finite")
		}
		if !finite(w.StdDev) || w.StdDev <= 0 {
			fail("walk.stddev", "must be positive and finite")
		}
	case config.DistUniform, config.DistDiffusion:
		if !finite(w.MaxStep) || w.MaxStep <= 0 {
			fail("walk.max_step", "must be positive and finite")
		}
	default:
		fail("walk.distribution", "must be gaussian, uniform or diffusion")
	}

	v := cfg.Volume
	if v.Bounded {
		if v.Boundary != config.BoundaryExit && v.Boundary != config.BoundaryWrap {
			fail("volume.boundary", "must be exit or wrap")
		}
		if !finite(v.Min[:]...) || !finite(v.Max[:]...) {
			fail("volume", "bounds must be finite")
		} else {
			for i := range v.Min {
				if v.Min[i] >= v.Max[i] {
					fail("volume", "min must be below max on every axis")
					break
				}
			}
		}
	}

	s := cfg.Spawn
	switch s.Mode {
	case config.SpawnUniform:
		if !v.Bounded {
			if !finite(s.Min[:]...) || !finite(s.Max[:]...) {
				fail("spawn", "region must be finite")
			} else {
				for i := range s.Min {
					if s.Min[i] > s.Max[i] {
						fail("spawn", "min must not exceed max")
						break
					}
				}
			}
		}
	case config.SpawnOrigin:
		if !finite(s.Origin[:]...) {
			fail("spawn.origin", "must be finite")
		} else if v.Bounded && !inside(s.Origin, v.Min, v.Max) {
			fail("spawn.origin", "must lie inside the volume")
		}
	default:
		fail("spawn.mode", "must be uniform or origin")
	}

	a := cfg.Anemone
	if !finite(a.Position[:]...) {
		fail("anemone.position", "must be finite")
	}
	switch a.Geometry {
	case config.GeometrySphere:
		if !finite(a.CaptureRadius) || a.CaptureRadius <= 0 {
			fail("anemone.capture_radius", "must be positive and finite")
		}
	case config.GeometryTentacles:
		t := a.Tentacles
		if t.Count <= 0 {
			fail("anemone.tentacles.count", "must be positive")
		}
		if t.Elements <= 0 {
			fail("anemone.tentacles.elements", "must be positive")
		}
		if !finite(t.DiskRadius) || t.DiskRadius <= 0 {
			fail("anemone.tentacles.disk_radius", "must be positive and finite")
		}
		if !finite(t.Length) || t.Length <= 0 {
			fail("anemone.tentacles.length", "must be positive and finite")
		}
		if !finite(t.Normal[:]...) || (t.Normal[0] == 0 && t.Normal[1] == 0 && t.Normal[2] == 0) {
			fail("anemone.tentacles.normal", "must be a finite non-zero vector")
		}
		if !finite(t.ReactionDistance) || t.ReactionDistance < 0 {
			fail("anemone.tentacles.reaction_distance", "must be zero or positive")
		}
	default:
		fail("anemone.geometry", "must be sphere or tentacles")
	}

	return errors.Join(errs...)
}

func finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func inside(p, min, max [3]float64) bool {
	for i := range p {
		if p[i] < min[i] || p[i] > max[i] {
			return false
		}
	}
	return true
}
