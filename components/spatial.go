package components

import "gonum.org/v1/gonum/spatial/r3"

// Position represents a particle's position in the simulation volume.
type Position struct {
	X, Y, Z float64
}

// Vec returns the position as a gonum vector.
func (p Position) Vec() r3.Vec {
	return r3.Vec{X: p.X, Y: p.Y, Z: p.Z}
}

// PositionOf converts a gonum vector to a Position.
func PositionOf(v r3.Vec) Position {
	return Position{X: v.X, Y: v.Y, Z: v.Z}
}
