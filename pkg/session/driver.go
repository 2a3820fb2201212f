package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aretw0/ritual/internal/logging"
	"github.com/aretw0/ritual/internal/runtime"
	"github.com/aretw0/ritual/pkg/domain"
	"github.com/aretw0/ritual/pkg/ports"
)

// Sample is one pointer reading from the host.
type Sample struct {
	PointerID int     `json:"pointer_id"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
}

// Outcome is what a dispatch produced.
type Outcome struct {
	Accepted bool            `json:"accepted"`
	Signals  []domain.Signal `json:"signals"`
	Snapshot domain.Snapshot `json:"snapshot"`
}

// Driver owns the state of one ritual session. It is the only piece with side effects:
// it feeds input through the reducer, forwards signals to sinks and runs the hold loop.
//
// Sinks are called in emission order, outside the state lock. They must not dispatch
// back into the same driver synchronously.
type Driver struct {
	id     string
	engine *runtime.Engine

	mu      sync.Mutex
	state   domain.RitualState
	ctx     context.Context
	started bool
	stopped bool

	// hold loop
	scheduler ports.FrameScheduler
	clock     ports.Clock
	gen       uint64
	cancel    func()
	lastFrame float64

	emitMu sync.Mutex
	sinks  []ports.SignalSink
	logger *slog.Logger
}

// DriverOption configures a Driver.
type DriverOption func(*driverConfig)

type driverConfig struct {
	id        string
	scheduler ports.FrameScheduler
	clock     ports.Clock
	sinks     []ports.SignalSink
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
	initial   *domain.RitualState
}

// WithSessionID names the session in sink calls and logs.
func WithSessionID(id string) DriverOption {
	return func(c *driverConfig) {
		c.id = id
	}
}

// WithScheduler enables the hold loop. Without a scheduler, hold ticks must be
// dispatched by the host.
func WithScheduler(s ports.FrameScheduler) DriverOption {
	return func(c *driverConfig) {
		c.scheduler = s
	}
}

// WithClock sets the clock the hold loop measures frame gaps with.
func WithClock(clock ports.Clock) DriverOption {
	return func(c *driverConfig) {
		c.clock = clock
	}
}

// WithSinks registers signal consumers. They are called in the given order.
func WithSinks(sinks ...ports.SignalSink) DriverOption {
	return func(c *driverConfig) {
		c.sinks = append(c.sinks, sinks...)
	}
}

// WithHooks registers engine lifecycle hooks.
func WithHooks(hooks domain.LifecycleHooks) DriverOption {
	return func(c *driverConfig) {
		c.hooks = hooks
	}
}

// WithLogger configures a logger for the driver.
func WithLogger(logger *slog.Logger) DriverOption {
	return func(c *driverConfig) {
		c.logger = logger
	}
}

// WithInitialState resumes a session from a persisted state.
func WithInitialState(state domain.RitualState) DriverOption {
	return func(c *driverConfig) {
		s := state.Clone()
		c.initial = &s
	}
}

// schedulerClock returns the clock the scheduler stamps its frames with, so frame gaps
// and the press time are read from the same source.
func schedulerClock(s ports.FrameScheduler) ports.Clock {
	switch v := s.(type) {
	case interface{ Clock() ports.Clock }:
		return v.Clock()
	case ports.Clock:
		return v
	}
	return NewSystemClock()
}

// NewDriver creates a driver for the given ritual. Call Start before dispatching.
func NewDriver(ritual domain.Ritual, opts ...DriverOption) *Driver {
	cfg := &driverConfig{
		id:     ritual.ID,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.scheduler != nil && cfg.clock == nil {
		cfg.clock = schedulerClock(cfg.scheduler)
	}

	d := &Driver{
		id:        cfg.id,
		engine:    runtime.NewEngine(ritual, runtime.WithLifecycleHooks(cfg.hooks)),
		state:     domain.NewState(),
		ctx:       context.Background(),
		scheduler: cfg.scheduler,
		clock:     cfg.clock,
		sinks:     cfg.sinks,
		logger:    cfg.logger.With("session_id", cfg.id, "ritual", ritual.ID),
	}
	if cfg.initial != nil {
		d.state = *cfg.initial
	}
	return d
}

// ID returns the session ID.
func (d *Driver) ID() string {
	return d.id
}

// Ritual returns the resolved ritual the driver runs.
func (d *Driver) Ritual() domain.Ritual {
	return d.engine.Ritual()
}

// Start binds the driver. ctx is used for signals emitted by the hold loop.
// A resumed session with an active pointer restarts its hold loop. Start is idempotent.
func (d *Driver) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return domain.ErrDriverStopped
	}
	if d.started {
		return nil
	}
	d.started = true
	d.ctx = ctx
	d.syncLoop()
	d.logger.Debug("Session driver started", "stage", d.state.Stage)
	return nil
}

// Stop cancels the hold loop and unbinds the driver. Further dispatches fail with
// domain.ErrDriverStopped. Stop is idempotent and emits nothing.
func (d *Driver) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.stopped = true
	d.stopLoop()
	d.logger.Debug("Session driver stopped", "stage", d.state.Stage)
}

// Dispatch applies one input event.
func (d *Driver) Dispatch(ctx context.Context, ev domain.InputEvent) (Outcome, error) {
	d.mu.Lock()
	switch {
	case d.stopped:
		d.mu.Unlock()
		return Outcome{}, domain.ErrDriverStopped
	case !d.started:
		d.mu.Unlock()
		return Outcome{}, domain.ErrDriverNotStarted
	}

	res := d.engine.Step(ctx, d.state, ev)
	d.state = res.State
	d.syncLoop()
	out := Outcome{
		Accepted: res.Accepted,
		Signals:  res.Signals,
		Snapshot: d.engine.Project(d.state),
	}
	if !res.Accepted {
		d.logger.Debug("Input rejected", "event", ev.String(), "stage", d.state.Stage)
	}

	d.emitMu.Lock()
	d.mu.Unlock()
	d.emit(ctx, res.Signals)
	d.emitMu.Unlock()

	return out, nil
}

// PointerDown dispatches a pointer_down sample.
func (d *Driver) PointerDown(ctx context.Context, s Sample) (Outcome, error) {
	return d.Dispatch(ctx, domain.PointerDown(s.PointerID, s.X, s.Y))
}

// PointerMove dispatches a pointer_move sample.
func (d *Driver) PointerMove(ctx context.Context, s Sample) (Outcome, error) {
	return d.Dispatch(ctx, domain.PointerMove(s.PointerID, s.X, s.Y))
}

// PointerUp dispatches a pointer_up sample.
func (d *Driver) PointerUp(ctx context.Context, s Sample) (Outcome, error) {
	return d.Dispatch(ctx, domain.PointerUp(s.PointerID, s.X, s.Y))
}

// PointerCancel dispatches a pointer_cancel sample.
func (d *Driver) PointerCancel(ctx context.Context, s Sample) (Outcome, error) {
	return d.Dispatch(ctx, domain.PointerCancel(s.PointerID, s.X, s.Y))
}

// Reset dispatches a reset.
func (d *Driver) Reset(ctx context.Context) (Outcome, error) {
	return d.Dispatch(ctx, domain.Reset())
}

// State returns a copy of the current state.
func (d *Driver) State() domain.RitualState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state.Clone()
}

// Snapshot projects the current state.
func (d *Driver) Snapshot() domain.Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.engine.Project(d.state)
}

// HoldLoopActive reports whether a hold frame is pending.
func (d *Driver) HoldLoopActive() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cancel != nil
}

// syncLoop starts or stops the hold loop to match the state. Callers hold d.mu.
func (d *Driver) syncLoop() {
	want := d.loopWanted()
	switch {
	case want && d.cancel == nil:
		d.lastFrame = d.clock.Now()
		d.requestFrame()
	case !want && d.cancel != nil:
		d.stopLoop()
	}
}

// The hold loop runs only while a live pointer holds an unsealed ritual.
func (d *Driver) loopWanted() bool {
	return d.scheduler != nil && d.started && !d.stopped &&
		d.state.PointerActive && !d.state.Sealed()
}

// stopLoop cancels the pending frame. Callers hold d.mu.
func (d *Driver) stopLoop() {
	d.gen++
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}

func (d *Driver) requestFrame() {
	gen := d.gen
	d.cancel = d.scheduler.RequestFrame(func(nowMs float64) {
		d.frame(gen, nowMs)
	})
}

// frame integrates one frame gap as a hold tick.
func (d *Driver) frame(gen uint64, nowMs float64) {
	d.mu.Lock()
	if gen != d.gen || d.cancel == nil {
		// cancelled while the frame was in flight
		d.mu.Unlock()
		return
	}
	d.cancel = nil

	delta := nowMs - d.lastFrame
	d.lastFrame = nowMs
	ctx := d.ctx

	res := d.engine.Step(ctx, d.state, domain.HoldTick(d.state.ActivePointerID, delta))
	d.state = res.State
	if d.loopWanted() {
		d.requestFrame()
	}

	d.emitMu.Lock()
	d.mu.Unlock()
	d.emit(ctx, res.Signals)
	d.emitMu.Unlock()
}

func (d *Driver) emit(ctx context.Context, signals []domain.Signal) {
	for _, sig := range signals {
		for _, sink := range d.sinks {
			if err := sink.Emit(ctx, d.id, sig); err != nil {
				d.logger.Warn("Signal sink failed", "signal", sig.Name(), "err", err)
			}
		}
	}
}
