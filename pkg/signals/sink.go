package signals

import (
	"context"
	"errors"

	"github.com/aretw0/ritual/pkg/domain"
	"github.com/aretw0/ritual/pkg/ports"
)

// SinkFunc adapts a function to ports.SignalSink.
type SinkFunc func(ctx context.Context, sessionID string, sig domain.Signal) error

// Emit calls f.
func (f SinkFunc) Emit(ctx context.Context, sessionID string, sig domain.Signal) error {
	return f(ctx, sessionID, sig)
}

// Fanout forwards every signal to all sinks, in order. Every sink is called even when
// an earlier one fails; the errors are joined.
type Fanout []ports.SignalSink

// Emit implements ports.SignalSink.
func (f Fanout) Emit(ctx context.Context, sessionID string, sig domain.Signal) error {
	var errs []error
	for _, s := range f {
		if err := s.Emit(ctx, sessionID, sig); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
