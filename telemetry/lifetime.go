package telemetry

import "log/slog"

// ResidenceStats summarizes how many ticks particles drifted before leaving play.
type ResidenceStats struct {
	Consumed     int     `json:"consumed"`
	ConsumedMean float64 `json:"consumed_mean"`
	ConsumedP50  float64 `json:"consumed_p50"`
	ConsumedP90  float64 `json:"consumed_p90"`
	Exited       int     `json:"exited"`
	ExitedMean   float64 `json:"exited_mean"`
	Active       int     `json:"active"` // still drifting at the end
}

// LogValue implements slog.LogValuer for structured logging.
func (s ResidenceStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("consumed", s.Consumed),
		slog.Float64("consumed_mean", s.ConsumedMean),
		slog.Float64("consumed_p50", s.ConsumedP50),
		slog.Int("exited", s.Exited),
		slog.Float64("exited_mean", s.ExitedMean),
		slog.Int("active", s.Active),
	)
}

// LifetimeTracker records each particle's birth tick and, on removal, how long
// it drifted.
type LifetimeTracker struct {
	born     map[uint64]int
	consumed []float64
	exited   []float64
}

// NewLifetimeTracker creates a new lifetime tracker.
func NewLifetimeTracker() *LifetimeTracker {
	return &LifetimeTracker{
		born: make(map[uint64]int),
	}
}

// Register records a particle entering play. birthTick is the first tick the
// particle moves in.
func (lt *LifetimeTracker) Register(id uint64, birthTick int) {
	lt.born[id] = birthTick
}

// RegisterRange registers the n sequential IDs starting at first.
func (lt *LifetimeTracker) RegisterRange(first uint64, n int, birthTick int) {
	for i := 0; i < n; i++ {
		lt.born[first+uint64(i)] = birthTick
	}
}

// Consumed records a capture at tick and returns the ticks the particle drifted.
func (lt *LifetimeTracker) Consumed(id uint64, tick int) (int, bool) {
	ticks, ok := lt.remove(id, tick)
	if ok {
		lt.consumed = append(lt.consumed, float64(ticks))
	}
	return ticks, ok
}

// Exited records a particle leaving the volume at tick.
func (lt *LifetimeTracker) Exited(id uint64, tick int) (int, bool) {
	ticks, ok := lt.remove(id, tick)
	if ok {
		lt.exited = append(lt.exited, float64(ticks))
	}
	return ticks, ok
}

func (lt *LifetimeTracker) remove(id uint64, tick int) (int, bool) {
	birth, ok := lt.born[id]
	if !ok {
		return 0, false
	}
	delete(lt.born, id)
	return tick - birth + 1, true
}

// Count returns the number of particles still tracked.
func (lt *LifetimeTracker) Count() int {
	return len(lt.born)
}

// Stats summarizes residence times recorded so far.
func (lt *LifetimeTracker) Stats() ResidenceStats {
	s := ResidenceStats{
		Consumed: len(lt.consumed),
		Exited:   len(lt.exited),
		Active:   len(lt.born),
	}
	if len(lt.consumed) > 0 {
		s.ConsumedMean, _, s.ConsumedP50, s.ConsumedP90 = ComputeStats(lt.consumed)
	}
	if len(lt.exited) > 0 {
		s.ExitedMean, _, _, _ = ComputeStats(lt.exited)
	}
	return s
}
