package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/ritual/pkg/domain"
)

// Chain combines hooks. Each callback runs in the order given.
func Chain(hooks ...domain.LifecycleHooks) domain.LifecycleHooks {
	var onTransition []func(context.Context, *domain.TransitionRecord)
	var onSignal []func(context.Context, domain.Signal)
	for _, h := range hooks {
		if h.OnTransition != nil {
			onTransition = append(onTransition, h.OnTransition)
		}
		if h.OnSignal != nil {
			onSignal = append(onSignal, h.OnSignal)
		}
	}

	var out domain.LifecycleHooks
	if len(onTransition) > 0 {
		out.OnTransition = func(ctx context.Context, rec *domain.TransitionRecord) {
			for _, fn := range onTransition {
				fn(ctx, rec)
			}
		}
	}
	if len(onSignal) > 0 {
		out.OnSignal = func(ctx context.Context, sig domain.Signal) {
			for _, fn := range onSignal {
				fn(ctx, sig)
			}
		}
	}
	return out
}

// LogHooks logs every transition at debug level and stage changes at info.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(ctx context.Context, rec *domain.TransitionRecord) {
			level := slog.LevelDebug
			if rec.From != rec.To {
				level = slog.LevelInfo
			}
			logger.Log(ctx, level, "Ritual transition",
				"ritual", rec.RitualID,
				"event", string(rec.Event.Type),
				"from", rec.From,
				"to", rec.To,
				"accepted", rec.Accepted,
				"signals", len(rec.Signals),
			)
		},
	}
}
