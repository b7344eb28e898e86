// Package systems contains the particle motion, capture and population systems.
package systems

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Phases in which a non-finite value can surface.
const (
	PhaseAdvance = "advance"
	PhaseCapture = "capture"
)

// ErrNonFinite is returned when a position or distance becomes NaN or infinite.
var ErrNonFinite = errors.New("non-finite value")

// NonFiniteError identifies the particle and phase that produced a non-finite value.
type NonFiniteError struct {
	ParticleID uint64
	Phase      string
	Value      r3.Vec
}

func (e *NonFiniteError) Error() string {
	return fmt.Sprintf("%s: particle %d: non-finite value (%g, %g, %g)",
		e.Phase, e.ParticleID, e.Value.X, e.Value.Y, e.Value.Z)
}

func (e *NonFiniteError) Unwrap() error {
	return ErrNonFinite
}

// Bounds represents the simulation volume. The zero value is unbounded.
// A periodic box wraps particles around instead of letting them exit.
type Bounds struct {
	Enabled  bool
	Periodic bool
	Min, Max r3.Vec
}

// NewBounds returns an enabled box with the given corners.
func NewBounds(min, max r3.Vec) Bounds {
	return Bounds{Enabled: true, Min: min, Max: max}
}

// Contains reports whether p lies inside the closed box.
// An unbounded volume contains every point.
func (b Bounds) Contains(p r3.Vec) bool {
	if !b.Enabled {
		return true
	}
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// Wrap maps p into the half-open box [Min, Max) on every axis.
// Unbounded volumes return p unchanged.
func (b Bounds) Wrap(p r3.Vec) r3.Vec {
	if !b.Enabled {
		return p
	}
	return r3.Vec{
		X: wrapAxis(p.X, b.Min.X, b.Max.X),
		Y: wrapAxis(p.Y, b.Min.Y, b.Max.Y),
		Z: wrapAxis(p.Z, b.Min.Z, b.Max.Z),
	}
}

func wrapAxis(v, lo, hi float64) float64 {
	if v >= lo && v < hi {
		return v
	}
	width := hi - lo
	r := math.Mod(v-lo, width)
	if r < 0 {
		r += width
	}
	// Tiny negative offsets round up to a full width
	if r >= width {
		r = 0
	}
	return lo + r
}

// SpawnRegion describes where fresh particles are placed.
type SpawnRegion struct {
	Box      Bounds // sampled uniformly when AtOrigin is false
	AtOrigin bool
	Origin   r3.Vec
}

func isFinite(v r3.Vec) bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0) &&
		!math.IsNaN(v.Z) && !math.IsInf(v.Z, 0)
}
