package ports

import (
	"context"

	"github.com/aretw0/ritual/pkg/domain"
)

// SignalSink receives every signal a session emits, in emission order.
// A failing sink is logged by the caller and never affects the ritual state.
type SignalSink interface {
	Emit(ctx context.Context, sessionID string, sig domain.Signal) error
}

// SignalJournal is a sink that retains what it received.
type SignalJournal interface {
	SignalSink

	// History returns the signals emitted by a session, oldest first.
	// An unknown session has an empty history.
	History(ctx context.Context, sessionID string) ([]domain.Signal, error)

	// Forget drops the history of a session.
	Forget(ctx context.Context, sessionID string) error
}
