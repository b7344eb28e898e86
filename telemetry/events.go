// Package telemetry records per-tick snapshots, window statistics and run
// summaries, and writes them out as CSV, JSON and YAML.
package telemetry

import "sync"

// Snapshot is the recorded state summary for a single tick.
// Counts are taken after replenishment, so Drifting equals the population.
type Snapshot struct {
	Tick          int     `csv:"tick" json:"tick"`
	Drifting      int     `csv:"drifting" json:"drifting"`
	Consumed      int     `csv:"consumed" json:"consumed"`
	Exited        int     `csv:"exited" json:"exited"`
	Spawned       int     `csv:"spawned" json:"spawned"`
	TotalConsumed int     `csv:"total_consumed" json:"total_consumed"`
	TotalExited   int     `csv:"total_exited" json:"total_exited"`
	MeanDistance  float64 `csv:"mean_distance" json:"mean_distance"`

	CapturedIDs []uint64           `csv:"-" json:"captured_ids,omitempty"`
	Positions   []ParticlePosition `csv:"-" json:"positions,omitempty"`
}

// ParticlePosition is one row of a position dump.
type ParticlePosition struct {
	Tick int     `csv:"tick" json:"tick"`
	ID   uint64  `csv:"id" json:"id"`
	X    float64 `csv:"x" json:"x"`
	Y    float64 `csv:"y" json:"y"`
	Z    float64 `csv:"z" json:"z"`
}

// Recorder accumulates one Snapshot per tick. Capture never fails.
type Recorder struct {
	mu        sync.RWMutex
	snapshots []Snapshot
	invalid   bool
}

// NewRecorder creates a recorder with room for capacity snapshots.
func NewRecorder(capacity int) *Recorder {
	if capacity < 0 {
		capacity = 0
	}
	return &Recorder{snapshots: make([]Snapshot, 0, capacity)}
}

// Capture appends a snapshot.
func (r *Recorder) Capture(s Snapshot) {
	r.mu.Lock()
	r.snapshots = append(r.snapshots, s)
	r.mu.Unlock()
}

// Snapshots returns the ordered snapshots recorded so far.
// The slice is shared and must be treated as read-only.
func (r *Recorder) Snapshots() []Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := len(r.snapshots)
	return r.snapshots[:n:n]
}

// Len returns the number of recorded snapshots.
func (r *Recorder) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.snapshots)
}

// Last returns the most recent snapshot.
func (r *Recorder) Last() (Snapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.snapshots) == 0 {
		return Snapshot{}, false
	}
	return r.snapshots[len(r.snapshots)-1], true
}

// Invalidate marks the recording as the output of an aborted run.
func (r *Recorder) Invalidate() {
	r.mu.Lock()
	r.invalid = true
	r.mu.Unlock()
}

// Valid reports whether the recording came from a run that did not fault.
func (r *Recorder) Valid() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return !r.invalid
}

// Summary computes run-level statistics over the recorded snapshots.
// particles is the configured population, used for the per-particle capture rate.
func (r *Recorder) Summary(particles int) Summary {
	return Summarize(r.Snapshots(), particles, r.Valid())
}
