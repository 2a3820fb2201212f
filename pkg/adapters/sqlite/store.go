// Package sqlite persists ritual sessions and their signal history in SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/ritual/pkg/adapters/sqlite/migrations"
	"github.com/aretw0/ritual/pkg/domain"
	_ "modernc.org/sqlite"
)

// Store implements ports.StateStore and ports.SignalJournal on one database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the time source for emitted_at stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Open opens (or creates) the database at path and applies the embedded migrations.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) +
		"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One writer; SQLite serializes writes anyway.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save upserts a session record.
func (s *Store) Save(ctx context.Context, sessionID string, rec *domain.SessionRecord) error {
	if sessionID == "" {
		return fmt.Errorf("sessionID cannot be empty")
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO ritual_sessions (session_id, ritual_id, stage, record, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET
		   ritual_id = excluded.ritual_id,
		   stage = excluded.stage,
		   record = excluded.record,
		   updated_at = excluded.updated_at`,
		sessionID, rec.RitualID, string(rec.State.Stage), string(data), rec.UpdatedAt.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Load reads a session record.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.SessionRecord, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT record FROM ritual_sessions WHERE session_id = ?`, sessionID,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	var rec domain.SessionRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session %s: %w", sessionID, err)
	}
	return &rec, nil
}

// Delete removes a session record. Its signal history is kept until Forget.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM ritual_sessions WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// List returns stored session IDs, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT session_id FROM ritual_sessions ORDER BY session_id`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Emit appends a signal to the session's history.
func (s *Store) Emit(ctx context.Context, sessionID string, sig domain.Signal) error {
	payload, err := json.Marshal(sig)
	if err != nil {
		return fmt.Errorf("failed to marshal signal: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO ritual_signals (session_id, name, payload, emitted_at) VALUES (?, ?, ?, ?)`,
		sessionID, sig.Name(), string(payload), s.now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("append signal: %w", err)
	}
	return nil
}

// History returns the session's signals in emission order.
func (s *Store) History(ctx context.Context, sessionID string) ([]domain.Signal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM ritual_signals WHERE session_id = ? ORDER BY seq`, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("read signal history: %w", err)
	}
	defer rows.Close()

	out := []domain.Signal{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan signal: %w", err)
		}
		var sig domain.Signal
		if err := json.Unmarshal([]byte(payload), &sig); err != nil {
			return nil, fmt.Errorf("decode signal: %w", err)
		}
		out = append(out, sig)
	}
	return out, rows.Err()
}

// Forget drops the session's signal history.
func (s *Store) Forget(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM ritual_signals WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("forget signal history: %w", err)
	}
	return nil
}
