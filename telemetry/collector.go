package telemetry

// Collector accumulates snapshots within fixed tick windows and produces WindowStats.
type Collector struct {
	windowTicks int

	// Current window tracking
	windowStartTick int
	ticks           int

	// Counters for current window
	consumed  int
	exited    int
	spawned   int
	distances []float64
}

// NewCollector creates a new stats collector with windows of windowTicks ticks.
func NewCollector(windowTicks int) *Collector {
	if windowTicks < 1 {
		windowTicks = 1
	}
	return &Collector{windowTicks: windowTicks}
}

// Record adds a tick's snapshot to the current window.
func (c *Collector) Record(s Snapshot) {
	if c.ticks == 0 {
		c.windowStartTick = s.Tick
	}
	c.ticks++
	c.consumed += s.Consumed
	c.exited += s.Exited
	c.spawned += s.Spawned
	c.distances = append(c.distances, s.MeanDistance)
}

// ShouldFlush returns true once the current window holds windowTicks ticks.
func (c *Collector) ShouldFlush() bool {
	return c.ticks >= c.windowTicks
}

// Pending returns the number of ticks recorded since the last flush.
func (c *Collector) Pending() int {
	return c.ticks
}

// Flush produces a WindowStats and resets counters for the next window.
// endTick is the last tick in the window; drifting is the population at that tick.
func (c *Collector) Flush(endTick, drifting int) WindowStats {
	var perTick float64
	if c.ticks > 0 {
		perTick = float64(c.consumed) / float64(c.ticks)
	}
	distMean, distP10, distP50, distP90 := ComputeStats(c.distances)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   endTick,
		Ticks:           c.ticks,
		Drifting:        drifting,
		Consumed:        c.consumed,
		Exited:          c.exited,
		Spawned:         c.spawned,
		ConsumedPerTick: perTick,
		DistanceMean:    distMean,
		DistanceP10:     distP10,
		DistanceP50:     distP50,
		DistanceP90:     distP90,
	}

	c.windowStartTick = endTick + 1
	c.ticks = 0
	c.consumed = 0
	c.exited = 0
	c.spawned = 0
	c.distances = c.distances[:0]

	return stats
}

// WindowTicks returns the number of ticks per window.
func (c *Collector) WindowTicks() int {
	return c.windowTicks
}
