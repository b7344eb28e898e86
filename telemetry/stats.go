package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a window of ticks.
type WindowStats struct {
	WindowStartTick int `csv:"-"`
	WindowEndTick   int `csv:"window_end"`
	Ticks           int `csv:"ticks"`

	// Population at window end
	Drifting int `csv:"drifting"`

	// Events during window
	Consumed        int     `csv:"consumed"`
	Exited          int     `csv:"exited"`
	Spawned         int     `csv:"spawned"`
	ConsumedPerTick float64 `csv:"consumed_per_tick"`

	// Per-tick mean distance to the capture zone
	DistanceMean float64 `csv:"distance_mean"`
	DistanceP10  float64 `csv:"distance_p10"`
	DistanceP50  float64 `csv:"distance_p50"`
	DistanceP90  float64 `csv:"distance_p90"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeStats calculates mean and percentiles of values.
func ComputeStats(values []float64) (mean, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0
	}

	mean = stat.Mean(values, nil)

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, p10, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", s.WindowStartTick),
		slog.Int("window_end", s.WindowEndTick),
		slog.Int("ticks", s.Ticks),
		slog.Int("drifting", s.Drifting),
		slog.Int("consumed", s.Consumed),
		slog.Int("exited", s.Exited),
		slog.Int("spawned", s.Spawned),
		slog.Float64("consumed_per_tick", s.ConsumedPerTick),
		slog.Float64("distance_mean", s.DistanceMean),
		slog.Float64("distance_p10", s.DistanceP10),
		slog.Float64("distance_p50", s.DistanceP50),
		slog.Float64("distance_p90", s.DistanceP90),
	)
}

// Summary holds run-level statistics.
type Summary struct {
	Ticks         int  `json:"ticks"`
	Particles     int  `json:"particles"`
	Valid         bool `json:"valid"`
	TotalConsumed int  `json:"total_consumed"`
	TotalExited   int  `json:"total_exited"`

	// Per-tick consumption
	ConsumedMean float64 `json:"consumed_mean"`
	ConsumedStd  float64 `json:"consumed_std"`
	ConsumedP10  float64 `json:"consumed_p10"`
	ConsumedP50  float64 `json:"consumed_p50"`
	ConsumedP90  float64 `json:"consumed_p90"`

	// Consumed per particle per tick
	CaptureRate float64 `json:"capture_rate"`

	// First tick with a capture, -1 if none
	FirstCaptureTick int `json:"first_capture_tick"`
}

// Summarize computes a Summary from an ordered snapshot sequence.
func Summarize(snapshots []Snapshot, particles int, valid bool) Summary {
	s := Summary{
		Ticks:            len(snapshots),
		Particles:        particles,
		Valid:            valid,
		FirstCaptureTick: -1,
	}
	if len(snapshots) == 0 {
		return s
	}

	consumed := make([]float64, len(snapshots))
	for i, snap := range snapshots {
		consumed[i] = float64(snap.Consumed)
		s.TotalConsumed += snap.Consumed
		s.TotalExited += snap.Exited
		if snap.Consumed > 0 && s.FirstCaptureTick < 0 {
			s.FirstCaptureTick = snap.Tick
		}
	}

	s.ConsumedMean, s.ConsumedP10, s.ConsumedP50, s.ConsumedP90 = ComputeStats(consumed)
	if len(consumed) > 1 {
		s.ConsumedStd = stat.StdDev(consumed, nil)
	}
	if particles > 0 {
		s.CaptureRate = s.ConsumedMean / float64(particles)
	}

	return s
}

// LogValue implements slog.LogValuer for structured logging.
func (s Summary) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("ticks", s.Ticks),
		slog.Int("particles", s.Particles),
		slog.Bool("valid", s.Valid),
		slog.Int("total_consumed", s.TotalConsumed),
		slog.Int("total_exited", s.TotalExited),
		slog.Float64("consumed_mean", s.ConsumedMean),
		slog.Float64("consumed_std", s.ConsumedStd),
		slog.Float64("capture_rate", s.CaptureRate),
		slog.Int("first_capture_tick", s.FirstCaptureTick),
	)
}
