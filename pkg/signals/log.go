package signals

import (
	"context"
	"log/slog"

	"github.com/aretw0/ritual/pkg/domain"
)

// LogSink writes every signal to an operator log. Warnings are logged at Warn level,
// everything else at Info.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a sink writing to logger.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Emit implements ports.SignalSink.
func (l *LogSink) Emit(ctx context.Context, sessionID string, sig domain.Signal) error {
	level := slog.LevelInfo
	if sig.Level == domain.LevelWarning {
		level = slog.LevelWarn
	}

	attrs := []any{
		"session_id", sessionID,
		"ritual", sig.RitualID,
		"signal", sig.Name(),
	}
	switch sig.Kind {
	case domain.SignalAnchor:
		attrs = append(attrs, "anchor", sig.AnchorID, "note", sig.Note)
	case domain.SignalEvidence:
		attrs = append(attrs, "level", string(sig.Level), "action", sig.Action)
		if sig.Detail != "" {
			attrs = append(attrs, "detail", sig.Detail)
		}
	}

	msg := sig.Title
	if msg == "" {
		msg = "Anchor reached"
	}
	l.logger.Log(ctx, level, msg, attrs...)
	return nil
}
