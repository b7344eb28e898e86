// Package components defines ECS components for the simulation.
package components

// Status is the lifecycle state of a food particle.
type Status uint8

const (
	Drifting Status = iota
	Consumed        // captured by the anemone
	Exited          // left the bounded volume
)

// String returns the lowercase status name.
func (s Status) String() string {
	switch s {
	case Drifting:
		return "drifting"
	case Consumed:
		return "consumed"
	case Exited:
		return "exited"
	}
	return "unknown"
}

// Particle bundles identity and status of a piece of food.
// Status only ever moves away from Drifting.
type Particle struct {
	ID     uint64
	Status Status
}

// Drifting reports whether the particle is still in play.
func (p *Particle) Drifting() bool {
	return p.Status == Drifting
}

// MarkConsumed transitions a drifting particle to Consumed.
// Returns false if the particle was already terminal.
func (p *Particle) MarkConsumed() bool {
	if p.Status != Drifting {
		return false
	}
	p.Status = Consumed
	return true
}

// MarkExited transitions a drifting particle to Exited.
// Returns false if the particle was already terminal.
func (p *Particle) MarkExited() bool {
	if p.Status != Drifting {
		return false
	}
	p.Status = Exited
	return true
}
