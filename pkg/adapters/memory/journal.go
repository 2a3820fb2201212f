package memory

import (
	"context"
	"sync"

	"github.com/aretw0/ritual/pkg/domain"
)

// Journal implements ports.SignalJournal in memory.
type Journal struct {
	mu      sync.RWMutex
	history map[string][]domain.Signal
}

// NewJournal creates an empty journal.
func NewJournal() *Journal {
	return &Journal{history: make(map[string][]domain.Signal)}
}

// Emit appends sig to the session's history.
func (j *Journal) Emit(ctx context.Context, sessionID string, sig domain.Signal) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.history[sessionID] = append(j.history[sessionID], sig)
	return nil
}

// History returns a copy of the session's history.
func (j *Journal) History(ctx context.Context, sessionID string) ([]domain.Signal, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	out := make([]domain.Signal, len(j.history[sessionID]))
	copy(out, j.history[sessionID])
	return out, nil
}

// Forget drops the session's history.
func (j *Journal) Forget(ctx context.Context, sessionID string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	delete(j.history, sessionID)
	return nil
}
