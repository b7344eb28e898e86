// Package engine drives the anemone feeding simulation tick by tick.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/anemone/components"
	"github.com/pthm-cable/anemone/config"
	"github.com/pthm-cable/anemone/systems"
	"github.com/pthm-cable/anemone/telemetry"
)

// State is the lifecycle state of a Clock.
type State uint8

const (
	Initialized State = iota
	Running
	Completed
	Cancelled
	Faulted
)

func (s State) String() string {
	switch s {
	case Initialized:
		return "initialized"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Cancelled:
		return "cancelled"
	case Faulted:
		return "faulted"
	}
	return "unknown"
}

// Terminal reports whether no further ticks will be accepted.
func (s State) Terminal() bool {
	return s >= Completed
}

// PCG stream identifiers. Walk and spawn draws never share a stream, so the
// displacement sequence depends only on the seed.
const (
	walkStream  = 0x77616c6b // "walk"
	spawnStream = 0x737061776e
)

// WalkSource returns the random source a seeded run uses for displacements.
func WalkSource(seed int64) rand.Source {
	return rand.NewPCG(uint64(seed), walkStream)
}

// SpawnSource returns the random source a seeded run uses for spawn positions.
func SpawnSource(seed int64) rand.Source {
	return rand.NewPCG(uint64(seed), spawnStream)
}

// Sink receives output as the run progresses. *telemetry.OutputManager implements it.
type Sink interface {
	WriteSnapshot(s telemetry.Snapshot) error
	WriteWindow(stats telemetry.WindowStats) error
	WritePerf(stats telemetry.PerfStats, windowEnd int) error
}

// Option configures a Clock.
type Option func(*Clock)

// WithDisplacer replaces the configured random walk, e.g. with a test double.
func WithDisplacer(d systems.Displacer) Option {
	return func(c *Clock) { c.displacer = d }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Clock) { c.logger = l }
}

// WithSink streams snapshots and window stats to s.
func WithSink(s Sink) Option {
	return func(c *Clock) { c.sink = s }
}

// Clock owns one simulation run: the particle field, the anemone and the
// recorder. A Clock runs once; independent runs need independent Clocks.
type Clock struct {
	mu    sync.Mutex
	state State

	cfg    *config.Config
	seed   int64
	logger *slog.Logger
	sink   Sink

	displacer systems.Displacer
	field     *systems.ParticleField
	anemone   *systems.Anemone
	bounds    systems.Bounds
	region    systems.SpawnRegion

	recorder  *telemetry.Recorder
	collector *telemetry.Collector
	perf      *telemetry.PerfCollector
	lifetimes *telemetry.LifetimeTracker
	detector  *telemetry.BookmarkDetector
	bookmarks []telemetry.Bookmark

	ticks         int // completed
	totalConsumed int
	totalExited   int
}

// New creates a Clock in the Initialized state. cfg is copied; later changes
// to it do not affect the run. Validation happens when Run starts.
func New(cfg *config.Config, opts ...Option) *Clock {
	own := cfg.Clone()
	own.ComputeDerived()

	seed := time.Now().UnixNano()
	if own.Simulation.Seed != nil {
		seed = *own.Simulation.Seed
	}

	c := &Clock{
		cfg:       own,
		seed:      seed,
		logger:    slog.Default(),
		recorder:  telemetry.NewRecorder(max(own.Simulation.Ticks, 0)),
		collector: telemetry.NewCollector(own.Telemetry.WindowTicks),
		perf:      telemetry.NewPerfCollector(own.Telemetry.WindowTicks),
		lifetimes: telemetry.NewLifetimeTracker(),
		detector:  telemetry.NewBookmarkDetector(10),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run validates the configuration, spawns the initial population and runs
// every tick. ctx is checked between ticks.
func (c *Clock) Run(ctx context.Context) error {
	c.mu.Lock()
	switch {
	case c.state == Running:
		c.mu.Unlock()
		return ErrRunning
	case c.state.Terminal():
		c.mu.Unlock()
		return ErrAlreadyCompleted
	}
	if err := Validate(c.cfg); err != nil {
		c.mu.Unlock()
		return err
	}
	if err := c.setup(); err != nil {
		c.mu.Unlock()
		return err
	}
	c.state = Running
	c.mu.Unlock()

	c.logger.Info("simulation started",
		"seed", c.seed,
		"particles", c.cfg.Particles.Count,
		"ticks", c.cfg.Simulation.Ticks,
		"geometry", c.cfg.Anemone.Geometry,
		"bounded", c.bounds.Enabled,
		"periodic", c.bounds.Periodic,
	)

	err := c.loop(ctx)

	final := Completed
	var fault *ArithmeticFault
	switch {
	case errors.As(err, &fault):
		final = Faulted
		c.recorder.Invalidate()
		c.logger.Error("simulation aborted", "tick", fault.Tick, "error", err)
	case err != nil && ctx.Err() != nil:
		final = Cancelled
		c.logger.Warn("simulation cancelled", "ticks", c.ticks, "error", err)
	case err != nil:
		final = Faulted
		c.logger.Error("simulation failed", "ticks", c.ticks, "error", err)
	default:
		c.logger.Info("simulation completed", "summary", c.Summary(), "residence", c.Residence())
	}

	c.mu.Lock()
	c.state = final
	c.mu.Unlock()

	return err
}

// setup builds the run's components from the validated config.
func (c *Clock) setup() error {
	cfg := c.cfg

	if c.displacer == nil {
		walk, err := systems.NewRandomWalk(systems.WalkParams{
			Distribution: cfg.Walk.Distribution,
			Mean:         cfg.Walk.Mean,
			StdDev:       cfg.Walk.StdDev,
			MaxStep:      cfg.Walk.MaxStep,
		}, WalkSource(c.seed))
		if err != nil {
			return &ConfigError{Field: "walk.distribution", Reason: err.Error()}
		}
		c.displacer = walk
	}

	if cfg.Volume.Bounded {
		c.bounds = systems.NewBounds(vec(cfg.Volume.Min), vec(cfg.Volume.Max))
		c.bounds.Periodic = cfg.Volume.Boundary == config.BoundaryWrap
	}

	c.region = systems.SpawnRegion{
		AtOrigin: cfg.Spawn.Mode == config.SpawnOrigin,
		Origin:   vec(cfg.Spawn.Origin),
		Box:      systems.NewBounds(vec(cfg.Spawn.Min), vec(cfg.Spawn.Max)),
	}
	if c.bounds.Enabled {
		c.region.Box = c.bounds
	}

	c.anemone = buildAnemone(cfg)

	c.field = systems.NewParticleField(SpawnSource(c.seed))
	spawned := c.field.Spawn(cfg.Particles.Count, c.region)
	c.lifetimes.RegisterRange(0, spawned, 0)
	return nil
}

func buildAnemone(cfg *config.Config) *systems.Anemone {
	a := cfg.Anemone
	center := vec(a.Position)

	var geometry systems.CaptureGeometry
	switch a.Geometry {
	case config.GeometryTentacles:
		t := a.Tentacles
		geometry = systems.NewTentacles(center, t.Count, t.DiskRadius, vec(t.Normal),
			t.Length, t.Elements, cfg.Derived.ReactionDistance)
	default:
		geometry = systems.Sphere{Center: center, Radius: a.CaptureRadius}
	}
	return systems.NewAnemone(center, geometry)
}

func (c *Clock) loop(ctx context.Context) error {
	for tick := 0; tick < c.cfg.Simulation.Ticks; tick++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.step(tick); err != nil {
			return err
		}
	}

	// Flush the trailing partial window
	if c.collector.Pending() > 0 {
		return c.flushWindow(c.ticks - 1)
	}
	return nil
}

// step runs one tick: move, capture, remove, replenish, record.
func (c *Clock) step(tick int) error {
	c.perf.StartTick()

	c.perf.StartPhase(telemetry.PhaseAdvance)
	if _, err := c.field.AdvanceAll(c.displacer, c.bounds); err != nil {
		return faultAt(tick, err)
	}

	c.perf.StartPhase(telemetry.PhaseCapture)
	captured, err := c.anemone.TestCapture(c.field)
	if err != nil {
		return faultAt(tick, err)
	}

	c.perf.StartPhase(telemetry.PhaseCleanup)
	removed := c.field.RemoveNonDrifting()

	c.perf.StartPhase(telemetry.PhaseReplenish)
	firstID := c.field.NextID()
	spawned := c.field.Replenish(removed.Total(), c.region)

	c.perf.StartPhase(telemetry.PhaseRecord)
	for _, id := range captured {
		c.lifetimes.Consumed(id, tick)
	}
	for _, id := range removed.ExitedIDs {
		c.lifetimes.Exited(id, tick)
	}
	// Replacements first move next tick
	c.lifetimes.RegisterRange(firstID, spawned, tick+1)

	c.totalConsumed += removed.Consumed
	c.totalExited += removed.Exited
	snap := telemetry.Snapshot{
		Tick:          tick,
		Drifting:      c.field.Count(),
		Consumed:      removed.Consumed,
		Exited:        removed.Exited,
		Spawned:       spawned,
		TotalConsumed: c.totalConsumed,
		TotalExited:   c.totalExited,
		MeanDistance:  c.anemone.MeanDistance(c.field),
		CapturedIDs:   captured,
	}
	if c.cfg.Simulation.RecordPositions {
		snap.Positions = c.positions(tick)
	}
	c.recorder.Capture(snap)
	c.collector.Record(snap)
	c.ticks = tick + 1
	c.perf.EndTick()

	if len(captured) > 0 {
		c.logger.Debug("particles consumed", "tick", tick, "ids", captured)
	}

	if c.sink != nil {
		if err := c.sink.WriteSnapshot(snap); err != nil {
			return fmt.Errorf("writing snapshot: %w", err)
		}
	}

	if c.collector.ShouldFlush() {
		return c.flushWindow(tick)
	}
	return nil
}

func (c *Clock) flushWindow(endTick int) error {
	stats := c.collector.Flush(endTick, c.field.Count())
	perf := c.perf.Stats()

	if c.cfg.Telemetry.LogStats {
		c.logger.Info("stats", "window", stats)
	}
	for _, b := range c.detector.Check(stats) {
		b.LogBookmark(c.logger)
		c.bookmarks = append(c.bookmarks, b)
	}
	c.logger.Debug("perf", "window_end", endTick, "perf", perf)

	if c.sink == nil {
		return nil
	}
	if err := c.sink.WriteWindow(stats); err != nil {
		return fmt.Errorf("writing window stats: %w", err)
	}
	if err := c.sink.WritePerf(perf, endTick); err != nil {
		return fmt.Errorf("writing perf stats: %w", err)
	}
	return nil
}

func (c *Clock) positions(tick int) []telemetry.ParticlePosition {
	out := make([]telemetry.ParticlePosition, 0, c.field.Count())
	c.field.Each(func(pos components.Position, p components.Particle) {
		out = append(out, telemetry.ParticlePosition{Tick: tick, ID: p.ID, X: pos.X, Y: pos.Y, Z: pos.Z})
	})
	return out
}

func faultAt(tick int, err error) error {
	var nf *systems.NonFiniteError
	if errors.As(err, &nf) {
		return &ArithmeticFault{Tick: tick, ParticleID: nf.ParticleID, Phase: nf.Phase, Err: err}
	}
	return &ArithmeticFault{Tick: tick, Err: err}
}

// State returns the clock's lifecycle state.
func (c *Clock) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Seed returns the seed in effect, including a time-based one.
func (c *Clock) Seed() int64 {
	return c.seed
}

// Config returns the clock's own copy of the configuration.
func (c *Clock) Config() *config.Config {
	return c.cfg
}

// Ticks returns the number of completed ticks.
func (c *Clock) Ticks() int {
	return c.recorder.Len()
}

// Recorder returns the run's snapshot recorder.
func (c *Clock) Recorder() *telemetry.Recorder {
	return c.recorder
}

// Summary computes run statistics over the snapshots recorded so far.
func (c *Clock) Summary() telemetry.Summary {
	return c.recorder.Summary(c.cfg.Particles.Count)
}

// Residence summarizes how long particles drifted before capture or exit.
func (c *Clock) Residence() telemetry.ResidenceStats {
	return c.lifetimes.Stats()
}

// Bookmarks returns the notable windows detected so far.
func (c *Clock) Bookmarks() []telemetry.Bookmark {
	return c.bookmarks
}

// FinalState captures the particle field. Call it after Run returns.
func (c *Clock) FinalState() *telemetry.State {
	state := &telemetry.State{
		Version: telemetry.StateVersion,
		RNGSeed: c.seed,
		Tick:    c.Ticks(),
		Anemone: c.cfg.Anemone.Position,
	}
	if c.field == nil {
		return state
	}
	c.field.Each(func(pos components.Position, p components.Particle) {
		state.Particles = append(state.Particles, telemetry.ParticleState{
			ID:     p.ID,
			Status: p.Status.String(),
			X:      pos.X,
			Y:      pos.Y,
			Z:      pos.Z,
		})
	})
	return state
}

func vec(a [3]float64) r3.Vec {
	return r3.Vec{X: a[0], Y: a[1], Z: a[2]}
}
