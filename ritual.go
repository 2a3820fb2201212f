package ritual

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/ritual/internal/logging"
	"github.com/aretw0/ritual/internal/runtime"
	"github.com/aretw0/ritual/pkg/domain"
	"github.com/aretw0/ritual/pkg/ports"
	"github.com/aretw0/ritual/pkg/registry"
	"github.com/aretw0/ritual/pkg/session"
)

// Engine is the high-level entry point for the ritual library.
// It wraps the internal runtime and provides a simplified API for consumers.
type Engine struct {
	runtime   *runtime.Engine
	catalog   ports.RitualCatalog
	overrides *domain.Overrides
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithCatalog resolves ritual IDs against a custom catalog instead of the presets.
func WithCatalog(c ports.RitualCatalog) Option {
	return func(e *Engine) {
		e.catalog = c
	}
}

// WithOverrides layers threshold overrides over the ritual's own.
func WithOverrides(o *domain.Overrides) Option {
	return func(e *Engine) {
		e.overrides = o
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New resolves ritualID (a preset by default) and binds an engine to it.
func New(ritualID string, opts ...Option) (*Engine, error) {
	e := &Engine{
		catalog: registry.NewWithPresets(),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}

	ritual, err := e.catalog.Lookup(ritualID)
	if err != nil {
		return nil, fmt.Errorf("error initializing ritual: %w", err)
	}
	// Out-of-range overrides are clamped, never rejected.
	ritual = ritual.WithOverrides(e.overrides)
	e.runtime = runtime.NewEngine(ritual, runtime.WithLifecycleHooks(e.hooks))
	e.logger.Debug("Ritual engine ready", "ritual", ritual.ID, "thresholds", ritual.Thresholds)
	return e, nil
}

// StepResult is the outcome of one input event.
type StepResult struct {
	State    domain.RitualState
	Signals  []domain.Signal
	Accepted bool
}

// Ritual returns the resolved ritual.
func (e *Engine) Ritual() domain.Ritual {
	return e.runtime.Ritual()
}

// Start returns the pristine state of a new session.
func (e *Engine) Start() domain.RitualState {
	return e.runtime.Initial()
}

// Step applies one event to state. It is pure: the same state and event always give
// the same result, and state itself is never modified.
func (e *Engine) Step(ctx context.Context, state domain.RitualState, ev domain.InputEvent) StepResult {
	res := e.runtime.Step(ctx, state, ev)
	return StepResult{State: res.State, Signals: res.Signals, Accepted: res.Accepted}
}

// Project returns the UI snapshot of state.
func (e *Engine) Project(state domain.RitualState) domain.Snapshot {
	return e.runtime.Project(state)
}

// NewSession creates a stateful driver for this ritual. Call Start on it before
// dispatching.
func (e *Engine) NewSession(opts ...session.DriverOption) *session.Driver {
	base := []session.DriverOption{session.WithHooks(e.hooks), session.WithLogger(e.logger)}
	return session.NewDriver(e.Ritual(), append(base, opts...)...)
}
