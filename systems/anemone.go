package systems

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/anemone/components"
)

// CaptureGeometry defines the anemone's capture zone.
// A point is inside the zone when Distance(p) <= Reach() and Reach() > 0.
type CaptureGeometry interface {
	// Distance returns the distance from p to the zone's nearest reference point.
	Distance(p r3.Vec) float64
	// Reach returns the inclusive capture distance.
	Reach() float64
}

// Sphere captures everything within Radius of Center.
type Sphere struct {
	Center r3.Vec
	Radius float64
}

// Distance returns the Euclidean distance from p to the center.
func (s Sphere) Distance(p r3.Vec) float64 {
	return r3.Norm(r3.Sub(p, s.Center))
}

// Reach returns the capture radius.
func (s Sphere) Reach() float64 {
	return s.Radius
}

// Tentacles is a ring of sensor-lined tentacles rooted on the rim of a disk.
type Tentacles struct {
	center   r3.Vec
	normal   r3.Vec
	reaction float64
	sensors  []r3.Vec
}

// NewTentacles lays out count tentacles evenly around a disk of diskRadius
// centered on center and facing normal. Each tentacle carries elements sensors
// spaced length/elements apart along the normal, starting at the rim.
func NewTentacles(center r3.Vec, count int, diskRadius float64, normal r3.Vec, length float64, elements int, reaction float64) *Tentacles {
	n := r3.Unit(normal)
	spacing := length / float64(elements)

	t := &Tentacles{
		center:   center,
		normal:   n,
		reaction: reaction,
		sensors:  make([]r3.Vec, 0, count*elements),
	}

	step := 2 * math.Pi / float64(count)
	for i := 0; i < count; i++ {
		rim := r3.Add(center, r3.Scale(diskRadius, rimDirection(n, float64(i)*step)))
		for j := 0; j < elements; j++ {
			t.sensors = append(t.sensors, r3.Add(rim, r3.Scale(spacing*float64(j), n)))
		}
	}
	return t
}

// rimDirection returns the unit vector perpendicular to n at angle theta.
func rimDirection(n r3.Vec, theta float64) r3.Vec {
	sin, cos := math.Sincos(theta)
	root := math.Hypot(n.X, n.Y)
	if root == 0 {
		// Normal along Z: the disk lies in the XY plane
		return r3.Vec{X: cos, Y: sin}
	}
	v := r3.Vec{
		X: -n.Y*cos - (n.X*n.Z/root)*sin,
		Y: n.X*cos - (n.Y*n.Z/root)*sin,
		Z: root * sin,
	}
	return r3.Unit(v)
}

// Distance returns the distance from p to the nearest sensor.
func (t *Tentacles) Distance(p r3.Vec) float64 {
	nearest := math.Inf(1)
	for _, s := range t.sensors {
		d := r3.Norm(r3.Sub(p, s))
		if math.IsNaN(d) {
			return d
		}
		if d < nearest {
			nearest = d
		}
	}
	return nearest
}

// Reach returns the sensor reaction distance.
func (t *Tentacles) Reach() float64 {
	return t.reaction
}

// Sensors returns the sensor positions.
func (t *Tentacles) Sensors() []r3.Vec {
	return t.sensors
}

// Normal returns the disk orientation as a unit vector.
func (t *Tentacles) Normal() r3.Vec {
	return t.normal
}

// Anemone is a stationary consumer. It is immutable once built.
type Anemone struct {
	position r3.Vec
	geometry CaptureGeometry
}

// NewAnemone creates an anemone at position with the given capture zone.
func NewAnemone(position r3.Vec, geometry CaptureGeometry) *Anemone {
	return &Anemone{position: position, geometry: geometry}
}

// Position returns the anemone's position.
func (a *Anemone) Position() r3.Vec {
	return a.position
}

// Geometry returns the capture zone.
func (a *Anemone) Geometry() CaptureGeometry {
	return a.geometry
}

// Captures reports whether p lies in the capture zone. The boundary is inclusive.
// A zone with no positive reach captures nothing.
func (a *Anemone) Captures(p r3.Vec) bool {
	reach := a.geometry.Reach()
	return reach > 0 && a.geometry.Distance(p) <= reach
}

// TestCapture marks every drifting particle inside the capture zone Consumed
// and returns the captured IDs in iteration order.
func (a *Anemone) TestCapture(f *ParticleField) ([]uint64, error) {
	reach := a.geometry.Reach()
	if reach <= 0 {
		return nil, nil
	}

	return f.mark(func(pos components.Position, p *components.Particle) (bool, error) {
		v := pos.Vec()
		d := a.geometry.Distance(v)
		if math.IsNaN(d) || math.IsInf(d, 0) {
			return false, &NonFiniteError{ParticleID: p.ID, Phase: PhaseCapture, Value: v}
		}
		if d > reach {
			return false, nil
		}
		return p.MarkConsumed(), nil
	})
}

// MeanDistance returns the mean distance of drifting particles to the capture
// zone, or 0 for an empty field.
func (a *Anemone) MeanDistance(f *ParticleField) float64 {
	distances := make([]float64, 0, f.Count())
	f.Each(func(pos components.Position, p components.Particle) {
		if p.Drifting() {
			distances = append(distances, a.geometry.Distance(pos.Vec()))
		}
	})
	if len(distances) == 0 {
		return 0
	}
	return stat.Mean(distances, nil)
}
