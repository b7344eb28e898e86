package systems

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat/distuv"
)

// Displacer produces one displacement per call.
type Displacer interface {
	Next() r3.Vec
}

// Step distributions.
const (
	DistGaussian  = "gaussian"
	DistUniform   = "uniform"
	DistDiffusion = "diffusion"
)

// WalkParams configures a RandomWalk.
type WalkParams struct {
	Distribution string
	Mean         float64 // gaussian
	StdDev       float64 // gaussian
	MaxStep      float64 // uniform, diffusion
}

// RandomWalk draws per-axis displacements from a configured distribution.
// It owns no global state; all randomness comes from the source it was built with.
type RandomWalk struct {
	params WalkParams
	axis   func() float64 // independent per-axis draw (gaussian, uniform)
	unit   distuv.Uniform // [0,1) draws for diffusion
}

// NewRandomWalk creates a generator reading from src.
func NewRandomWalk(params WalkParams, src rand.Source) (*RandomWalk, error) {
	w := &RandomWalk{
		params: params,
		unit:   distuv.Uniform{Min: 0, Max: 1, Src: src},
	}

	switch params.Distribution {
	case DistGaussian, "":
		n := distuv.Normal{Mu: params.Mean, Sigma: params.StdDev, Src: src}
		w.axis = n.Rand
	case DistUniform:
		u := distuv.Uniform{Min: -params.MaxStep, Max: params.MaxStep, Src: src}
		w.axis = u.Rand
	case DistDiffusion:
	default:
		return nil, fmt.Errorf("unknown step distribution %q", params.Distribution)
	}

	return w, nil
}

// Next returns the next displacement.
func (w *RandomWalk) Next() r3.Vec {
	if w.axis == nil {
		return w.diffuse()
	}
	return r3.Vec{X: w.axis(), Y: w.axis(), Z: w.axis()}
}

// diffuse picks a random speed up to MaxStep, then moves each axis a random
// fraction of it in a random direction.
func (w *RandomWalk) diffuse() r3.Vec {
	speed := w.params.MaxStep * w.unit.Rand()
	var d [3]float64
	for i := range d {
		step := speed * w.unit.Rand()
		if w.unit.Rand() < 0.5 {
			step = -step
		}
		d[i] = step
	}
	return r3.Vec{X: d[0], Y: d[1], Z: d[2]}
}

// Params returns the generator's configuration.
func (w *RandomWalk) Params() WalkParams {
	return w.params
}
