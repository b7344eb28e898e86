package components

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestParticleStatusIsTerminal(t *testing.T) {
	tests := []struct {
		name  string
		first func(*Particle) bool
		then  func(*Particle) bool
		want  Status
	}{
		{"consumed then exited", (*Particle).MarkConsumed, (*Particle).MarkExited, Consumed},
		{"exited then consumed", (*Particle).MarkExited, (*Particle).MarkConsumed, Exited},
		{"consumed twice", (*Particle).MarkConsumed, (*Particle).MarkConsumed, Consumed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Particle{ID: 1}
			if !p.Drifting() {
				t.Fatal("new particle should be drifting")
			}
			if !tt.first(p) {
				t.Fatal("first transition from drifting should succeed")
			}
			if tt.then(p) {
				t.Error("second transition should be rejected")
			}
			if p.Status != tt.want {
				t.Errorf("status = %v, want %v", p.Status, tt.want)
			}
			if p.Drifting() {
				t.Error("terminal particle reports drifting")
			}
		})
	}
}

func TestStatusString(t *testing.T) {
	for s, want := range map[Status]string{
		Drifting:  "drifting",
		Consumed:  "consumed",
		Exited:    "exited",
		Status(9): "unknown",
	} {
		if got := s.String(); got != want {
			t.Errorf("Status(%d).String() = %q, want %q", s, got, want)
		}
	}
}

func TestPositionVecRoundTrip(t *testing.T) {
	v := r3.Vec{X: 1.5, Y: -2, Z: 0.25}
	if got := PositionOf(v).Vec(); got != v {
		t.Errorf("PositionOf(%v).Vec() = %v", v, got)
	}
}
