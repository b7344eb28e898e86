package telemetry

import "testing"

func TestRecorderAppendOnly(t *testing.T) {
	r := NewRecorder(2)
	for i := 0; i < 5; i++ {
		r.Capture(Snapshot{Tick: i, Consumed: i})
	}

	snaps := r.Snapshots()
	if len(snaps) != 5 || r.Len() != 5 {
		t.Fatalf("len = %d/%d, want 5", len(snaps), r.Len())
	}
	for i, s := range snaps {
		if s.Tick != i {
			t.Errorf("snapshot %d has tick %d", i, s.Tick)
		}
	}

	// Appending to the returned slice must not leak into the recorder
	_ = append(snaps, Snapshot{Tick: 99})
	r.Capture(Snapshot{Tick: 5})
	if last, ok := r.Last(); !ok || last.Tick != 5 {
		t.Errorf("Last() = %+v, %v; want tick 5", last, ok)
	}
	if got := r.Snapshots()[5].Tick; got != 5 {
		t.Errorf("snapshot 5 tick = %d, want 5", got)
	}
}

func TestRecorderEmpty(t *testing.T) {
	r := NewRecorder(-1)
	if _, ok := r.Last(); ok {
		t.Error("Last() on empty recorder should report false")
	}
	if len(r.Snapshots()) != 0 {
		t.Error("expected no snapshots")
	}
	if !r.Valid() {
		t.Error("new recorder should be valid")
	}
}

func TestRecorderInvalidate(t *testing.T) {
	r := NewRecorder(1)
	r.Capture(Snapshot{Tick: 0, Consumed: 1})
	r.Invalidate()

	if r.Valid() {
		t.Error("recorder should be invalid")
	}
	if s := r.Summary(10); s.Valid || s.TotalConsumed != 1 {
		t.Errorf("Summary = %+v", s)
	}
}
