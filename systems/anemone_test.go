package systems

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func fieldAt(points ...r3.Vec) *ParticleField {
	f := NewParticleField(rand.NewPCG(1, 1))
	for _, p := range points {
		f.Spawn(1, SpawnRegion{AtOrigin: true, Origin: p})
	}
	return f
}

func TestSphereCaptureBoundaryInclusive(t *testing.T) {
	a := NewAnemone(r3.Vec{}, Sphere{Radius: 1})
	f := fieldAt(
		r3.Vec{X: 1},         // exactly on the boundary
		r3.Vec{Y: -0.5},      // inside
		r3.Vec{Z: 1.0000001}, // just outside
		r3.Vec{Y: 1},         // on the boundary along another axis
	)

	ids, err := a.TestCapture(f)
	if err != nil {
		t.Fatal(err)
	}
	want := []uint64{0, 1, 3}
	if len(ids) != len(want) {
		t.Fatalf("captured %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("captured %v, want %v", ids, want)
		}
	}

	removed := f.RemoveNonDrifting()
	if removed.Consumed != 3 || f.Count() != 1 {
		t.Errorf("removed %+v, %d remaining; want 3 consumed, 1 remaining", removed, f.Count())
	}
}

func TestSphereOffsetCenter(t *testing.T) {
	a := NewAnemone(r3.Vec{X: 10, Y: 10, Z: 10}, Sphere{Center: r3.Vec{X: 10, Y: 10, Z: 10}, Radius: 0.5})
	if !a.Captures(r3.Vec{X: 10, Y: 10.5, Z: 10}) {
		t.Error("point on offset sphere boundary not captured")
	}
	if a.Captures(r3.Vec{}) {
		t.Error("origin captured by distant sphere")
	}
}

func TestZeroRadiusNeverCaptures(t *testing.T) {
	a := NewAnemone(r3.Vec{}, Sphere{Radius: 0})
	f := fieldAt(r3.Vec{}, r3.Vec{X: 1e-12})

	walk, _ := NewRandomWalk(WalkParams{Distribution: DistGaussian, StdDev: 0.01}, rand.NewPCG(2, 2))
	for tick := 0; tick < 100; tick++ {
		ids, err := a.TestCapture(f)
		if err != nil {
			t.Fatal(err)
		}
		if len(ids) != 0 {
			t.Fatalf("tick %d: zero-radius anemone captured %v", tick, ids)
		}
		if _, err := f.AdvanceAll(walk, Bounds{}); err != nil {
			t.Fatal(err)
		}
	}
	if a.Captures(r3.Vec{}) {
		t.Error("zero-radius anemone captures its own center")
	}
}

func TestCaptureIgnoresTerminalParticles(t *testing.T) {
	a := NewAnemone(r3.Vec{}, Sphere{Radius: 10})
	f := fieldAt(r3.Vec{X: 0.5}, r3.Vec{X: 2})

	// Exit the first particle via a tight box before capture runs
	if _, err := f.AdvanceAll(fixedStep{}, NewBounds(r3.Vec{X: 1, Y: -1, Z: -1}, r3.Vec{X: 3, Y: 1, Z: 1})); err != nil {
		t.Fatal(err)
	}
	ids, err := a.TestCapture(f)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 || ids[0] != 1 {
		t.Errorf("captured %v, want [1]", ids)
	}

	removed := f.RemoveNonDrifting()
	if removed.Exited != 1 || removed.Consumed != 1 {
		t.Errorf("removed %+v, want 1 exited and 1 consumed", removed)
	}
	if len(removed.ExitedIDs) != 1 || removed.ExitedIDs[0] != 0 {
		t.Errorf("ExitedIDs = %v, want [0]", removed.ExitedIDs)
	}
}

func TestCaptureNonFinite(t *testing.T) {
	a := NewAnemone(r3.Vec{}, Sphere{Radius: 1})
	f := fieldAt(r3.Vec{X: math.Inf(1)})

	_, err := a.TestCapture(f)
	var nf *NonFiniteError
	if !errors.As(err, &nf) || nf.Phase != PhaseCapture {
		t.Fatalf("err = %v, want capture NonFiniteError", err)
	}
}

func TestTentacleLayout(t *testing.T) {
	center := r3.Vec{Y: 0.3}
	tent := NewTentacles(center, 12, 0.15, r3.Vec{Y: 1}, 0.4, 10, 0.4)

	sensors := tent.Sensors()
	if len(sensors) != 120 {
		t.Fatalf("len(Sensors()) = %d, want 120", len(sensors))
	}

	// First tentacle roots at theta=0, which for an upward normal is -X
	root := sensors[0]
	if r3.Norm(r3.Sub(root, r3.Vec{X: -0.15, Y: 0.3})) > 1e-9 {
		t.Errorf("first root = %v, want (-0.15, 0.3, 0)", root)
	}
	second := sensors[1]
	if r3.Norm(r3.Sub(second, r3.Add(root, r3.Vec{Y: 0.04}))) > 1e-9 {
		t.Errorf("second sensor = %v, want root + (0, 0.04, 0)", second)
	}

	// Every sensor sits on the cylinder of disk radius around the axis
	n := tent.Normal()
	for i, s := range sensors {
		rel := r3.Sub(s, center)
		radial := r3.Sub(rel, r3.Scale(r3.Dot(rel, n), n))
		if math.Abs(r3.Norm(radial)-0.15) > 1e-9 {
			t.Fatalf("sensor %d at radial distance %v, want 0.15", i, r3.Norm(radial))
		}
	}
}

func TestTentacleNormalAlongZ(t *testing.T) {
	tent := NewTentacles(r3.Vec{}, 4, 1, r3.Vec{Z: 2}, 1, 1, 0.1)
	for i, s := range tent.Sensors() {
		if math.IsNaN(s.X) || math.Abs(s.Z) > 1e-12 || math.Abs(r3.Norm(s)-1) > 1e-9 {
			t.Errorf("sensor %d = %v, want unit circle in XY plane", i, s)
		}
	}
}

func TestTentacleCaptureUsesAnySensor(t *testing.T) {
	tent := NewTentacles(r3.Vec{}, 4, 1, r3.Vec{Y: 1}, 1, 2, 0.1)
	a := NewAnemone(r3.Vec{}, tent)

	last := tent.Sensors()[len(tent.Sensors())-1]
	tests := []struct {
		name string
		p    r3.Vec
		want bool
	}{
		{"on last sensor", last, true},
		{"at reach of last sensor", r3.Add(last, r3.Vec{Y: 0.1}), true},
		{"beyond reach", r3.Add(last, r3.Vec{Y: 0.11}), false},
		{"disk center", r3.Vec{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.Captures(tt.p); got != tt.want {
				t.Errorf("Captures(%v) = %v, want %v (distance %v)", tt.p, got, tt.want, tent.Distance(tt.p))
			}
		})
	}
}

func TestMeanDistance(t *testing.T) {
	a := NewAnemone(r3.Vec{}, Sphere{Radius: 0.1})
	f := fieldAt(r3.Vec{X: 1}, r3.Vec{Y: 3})
	if got := a.MeanDistance(f); math.Abs(got-2) > 1e-12 {
		t.Errorf("MeanDistance = %v, want 2", got)
	}
	if got := a.MeanDistance(fieldAt()); got != 0 {
		t.Errorf("MeanDistance of empty field = %v, want 0", got)
	}
}
