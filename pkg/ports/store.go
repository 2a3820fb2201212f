package ports

import (
	"context"

	"github.com/aretw0/ritual/pkg/domain"
)

// StateStore defines the interface for persisting session records.
// It lets a host stop a process mid-ritual and resume the same session later.
type StateStore interface {
	// Save persists the record for a given session ID, replacing any previous one.
	Save(ctx context.Context, sessionID string, rec *domain.SessionRecord) error

	// Load retrieves the record for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.SessionRecord, error)

	// Delete removes the record for a given session ID. Deleting a missing session is not an error.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of every stored session.
	List(ctx context.Context) ([]string, error)
}
