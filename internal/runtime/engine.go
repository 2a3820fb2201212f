package runtime

import (
	"context"

	"github.com/aretw0/ritual/pkg/domain"
)

// Engine binds the pure reducer and projector to one resolved ritual and reports every
// step to the configured lifecycle hooks.
type Engine struct {
	ritual domain.Ritual
	hooks  domain.LifecycleHooks
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// NewEngine creates an engine for the given ritual.
func NewEngine(ritual domain.Ritual, opts ...EngineOption) *Engine {
	e := &Engine{ritual: ritual}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Ritual returns the resolved ritual the engine runs.
func (e *Engine) Ritual() domain.Ritual {
	return e.ritual
}

// Initial returns the pristine state.
func (e *Engine) Initial() domain.RitualState {
	return domain.NewState()
}

// Step applies one event. The result is exactly Transition's; hooks only observe it.
func (e *Engine) Step(ctx context.Context, state domain.RitualState, ev domain.InputEvent) Result {
	res := Transition(state, ev, e.ritual)

	if e.hooks.OnTransition != nil {
		e.hooks.OnTransition(ctx, &domain.TransitionRecord{
			RitualID: e.ritual.ID,
			Event:    ev,
			From:     state.Stage,
			To:       res.State.Stage,
			Accepted: res.Accepted,
			Signals:  res.Signals,
		})
	}
	if e.hooks.OnSignal != nil {
		for _, sig := range res.Signals {
			e.hooks.OnSignal(ctx, sig)
		}
	}
	return res
}

// Project returns the snapshot of state under the engine's ritual.
func (e *Engine) Project(state domain.RitualState) domain.Snapshot {
	return Project(state, e.ritual)
}
