package domain

import "context"

// TransitionRecord describes one applied (or rejected) input event.
type TransitionRecord struct {
	RitualID string     `json:"ritual_id"`
	Event    InputEvent `json:"event"`
	From     Stage      `json:"from"`
	To       Stage      `json:"to"`
	Accepted bool       `json:"accepted"`
	Signals  []Signal   `json:"signals,omitempty"`
}

// LifecycleHooks defines callbacks for engine observability.
// Hooks observe; they cannot alter the transition outcome.
type LifecycleHooks struct {
	OnTransition func(context.Context, *TransitionRecord)
	OnSignal     func(context.Context, Signal)
}
