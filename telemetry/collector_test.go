package telemetry

import (
	"log/slog"
	"math"
	"testing"
)

func TestCollectorWindows(t *testing.T) {
	c := NewCollector(3)

	var windows []WindowStats
	for tick := 0; tick < 7; tick++ {
		c.Record(Snapshot{Tick: tick, Consumed: 1, Exited: tick % 2, Spawned: 1 + tick%2, MeanDistance: float64(tick)})
		if c.ShouldFlush() {
			windows = append(windows, c.Flush(tick, 50))
		}
	}
	if c.Pending() != 1 {
		t.Fatalf("Pending() = %d, want 1", c.Pending())
	}
	windows = append(windows, c.Flush(6, 50))

	if len(windows) != 3 {
		t.Fatalf("got %d windows, want 3", len(windows))
	}

	first := windows[0]
	if first.WindowStartTick != 0 || first.WindowEndTick != 2 || first.Ticks != 3 {
		t.Errorf("first window bounds = %+v", first)
	}
	if first.Consumed != 3 || first.Exited != 1 || first.Spawned != 4 {
		t.Errorf("first window counts = %+v", first)
	}
	if first.ConsumedPerTick != 1 {
		t.Errorf("ConsumedPerTick = %v, want 1", first.ConsumedPerTick)
	}
	if math.Abs(first.DistanceMean-1) > 1e-12 || first.DistanceP50 != 1 {
		t.Errorf("distance stats = %+v", first)
	}

	second := windows[1]
	if second.WindowStartTick != 3 || second.WindowEndTick != 5 {
		t.Errorf("second window bounds = %+v", second)
	}

	last := windows[2]
	if last.WindowStartTick != 6 || last.Ticks != 1 || last.Drifting != 50 {
		t.Errorf("partial window = %+v", last)
	}
}

func TestCollectorMinimumWindow(t *testing.T) {
	c := NewCollector(0)
	if c.WindowTicks() != 1 {
		t.Errorf("WindowTicks() = %d, want 1", c.WindowTicks())
	}
	c.Record(Snapshot{Tick: 0})
	if !c.ShouldFlush() {
		t.Error("single-tick window should flush after one record")
	}
}

func TestWindowStatsLogValue(t *testing.T) {
	v := WindowStats{WindowEndTick: 9, Consumed: 4}.LogValue()
	if v.Kind() != slog.KindGroup {
		t.Fatalf("LogValue kind = %v, want group", v.Kind())
	}
	found := false
	for _, a := range v.Group() {
		if a.Key == "consumed" && a.Value.Int64() == 4 {
			found = true
		}
	}
	if !found {
		t.Error("consumed attribute missing from log value")
	}
}
