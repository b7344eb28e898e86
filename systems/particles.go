package systems

import (
	"math/rand/v2"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/pthm-cable/anemone/components"
)

// Removed counts particles dropped from the field by status.
type Removed struct {
	Consumed  int
	Exited    int
	ExitedIDs []uint64
}

// Total returns the number of particles removed.
func (r Removed) Total() int {
	return r.Consumed + r.Exited
}

// ParticleField owns the active food particles.
// Entities live in a single archetype, so iteration follows insertion order
// with swap-remove on removal and is deterministic for a given history.
type ParticleField struct {
	world  *ecs.World
	mapper *ecs.Map2[components.Position, components.Particle]
	filter *ecs.Filter2[components.Position, components.Particle]

	src    rand.Source
	nextID uint64
	count  int

	// Reusable removal buffer
	toRemove []ecs.Entity
}

// NewParticleField creates an empty field. Spawn positions are drawn from src.
func NewParticleField(src rand.Source) *ParticleField {
	world := ecs.NewWorld()
	return &ParticleField{
		world:  world,
		mapper: ecs.NewMap2[components.Position, components.Particle](world),
		filter: ecs.NewFilter2[components.Position, components.Particle](world),
		src:    src,
	}
}

// Spawn creates n drifting particles in region and returns how many were created.
func (f *ParticleField) Spawn(n int, region SpawnRegion) int {
	ux := distuv.Uniform{Min: region.Box.Min.X, Max: region.Box.Max.X, Src: f.src}
	uy := distuv.Uniform{Min: region.Box.Min.Y, Max: region.Box.Max.Y, Src: f.src}
	uz := distuv.Uniform{Min: region.Box.Min.Z, Max: region.Box.Max.Z, Src: f.src}

	for i := 0; i < n; i++ {
		at := region.Origin
		if !region.AtOrigin {
			at = r3.Vec{X: ux.Rand(), Y: uy.Rand(), Z: uz.Rand()}
		}

		pos := components.PositionOf(at)
		p := components.Particle{ID: f.nextID, Status: components.Drifting}
		f.nextID++

		f.mapper.NewEntity(&pos, &p)
		f.count++
	}
	return n
}

// Replenish spawns count particles to restore the population.
func (f *ParticleField) Replenish(count int, region SpawnRegion) int {
	if count <= 0 {
		return 0
	}
	return f.Spawn(count, region)
}

// AdvanceAll moves every drifting particle by one displacement.
// Particles that end outside bounds are marked Exited; they are not clamped.
func (f *ParticleField) AdvanceAll(d Displacer, bounds Bounds) (exited int, err error) {
	query := f.filter.Query()
	for query.Next() {
		pos, p := query.Get()
		if !p.Drifting() {
			continue
		}

		next := r3.Add(pos.Vec(), d.Next())
		if !isFinite(next) {
			query.Close()
			return exited, &NonFiniteError{ParticleID: p.ID, Phase: PhaseAdvance, Value: next}
		}
		if bounds.Periodic {
			next = bounds.Wrap(next)
		}
		*pos = components.PositionOf(next)

		if !bounds.Contains(next) && p.MarkExited() {
			exited++
		}
	}
	return exited, nil
}

// RemoveNonDrifting drops consumed and exited particles from the field.
func (f *ParticleField) RemoveNonDrifting() Removed {
	var removed Removed

	// Collect first; the world is locked while a query is open
	f.toRemove = f.toRemove[:0]
	query := f.filter.Query()
	for query.Next() {
		_, p := query.Get()
		switch p.Status {
		case components.Consumed:
			removed.Consumed++
		case components.Exited:
			removed.Exited++
			removed.ExitedIDs = append(removed.ExitedIDs, p.ID)
		default:
			continue
		}
		f.toRemove = append(f.toRemove, query.Entity())
	}

	for _, e := range f.toRemove {
		f.world.RemoveEntity(e)
	}
	f.count -= len(f.toRemove)

	return removed
}

// Each calls fn for every particle in iteration order.
func (f *ParticleField) Each(fn func(pos components.Position, p components.Particle)) {
	query := f.filter.Query()
	for query.Next() {
		pos, p := query.Get()
		fn(*pos, *p)
	}
}

// CountByStatus counts particles currently in the field by status.
func (f *ParticleField) CountByStatus() map[components.Status]int {
	counts := make(map[components.Status]int, 3)
	f.Each(func(_ components.Position, p components.Particle) {
		counts[p.Status]++
	})
	return counts
}

// Count returns the number of particles in the field, whatever their status.
func (f *ParticleField) Count() int {
	return f.count
}

// NextID returns the ID the next spawned particle will receive.
func (f *ParticleField) NextID() uint64 {
	return f.nextID
}

// mark sets a particle's status through fn. It returns the IDs fn accepted.
// Used by capture, which must not remove entities mid-query.
func (f *ParticleField) mark(fn func(pos components.Position, p *components.Particle) (bool, error)) ([]uint64, error) {
	var ids []uint64
	query := f.filter.Query()
	for query.Next() {
		pos, p := query.Get()
		if !p.Drifting() {
			continue
		}
		hit, err := fn(*pos, p)
		if err != nil {
			query.Close()
			return ids, err
		}
		if hit {
			ids = append(ids, p.ID)
		}
	}
	return ids, nil
}
