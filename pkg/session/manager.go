package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/ritual/internal/logging"
	"github.com/aretw0/ritual/pkg/domain"
	"github.com/aretw0/ritual/pkg/ports"
	"github.com/aretw0/ritual/pkg/registry"
	"github.com/google/uuid"
)

// DefaultLockTTL bounds how long a crashed replica can hold a session.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// liveSession is a driver bound in this process.
type liveSession struct {
	driver    *Driver
	overrides domain.Overrides
}

// Manager orchestrates many ritual sessions. Every session gets its own driver, so
// thresholds, markers and signal history are never shared.
// Access to a session is serialized with reference-counted local locks and, optionally,
// a distributed lock.
type Manager struct {
	store   ports.StateStore
	catalog ports.RitualCatalog

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	liveMu sync.Mutex
	live   map[string]*liveSession

	locker    ports.DistributedLocker // Optional distributed locker
	lockTTL   time.Duration
	journal   ports.SignalJournal
	sinks     []ports.SignalSink
	hooks     domain.LifecycleHooks
	scheduler func() ports.FrameScheduler
	now       func() time.Time
	logger    *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithManagerLogger configures a logger for the Manager and the drivers it creates.
func WithManagerLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithCatalog sets where ritual IDs are resolved. Defaults to the built-in presets.
func WithCatalog(catalog ports.RitualCatalog) Option {
	return func(m *Manager) {
		m.catalog = catalog
	}
}

// WithJournal records every emitted signal and serves History.
func WithJournal(journal ports.SignalJournal) Option {
	return func(m *Manager) {
		m.journal = journal
	}
}

// WithSignalSinks adds sinks shared by every session. Each sink receives the session ID
// with every signal.
func WithSignalSinks(sinks ...ports.SignalSink) Option {
	return func(m *Manager) {
		m.sinks = append(m.sinks, sinks...)
	}
}

// WithLifecycleHooks registers engine hooks on every session.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(m *Manager) {
		m.hooks = hooks
	}
}

// WithFrameSchedulers gives every session its own hold loop. Without it, hosts dispatch
// hold ticks themselves.
func WithFrameSchedulers(factory func() ports.FrameScheduler) Option {
	return func(m *Manager) {
		m.scheduler = factory
	}
}

// WithNow replaces the wall clock used for SessionRecord.UpdatedAt.
func WithNow(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a new Session Manager with the given persistence store.
func NewManager(store ports.StateStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		catalog: registry.NewWithPresets(),
		locks:   make(map[string]*lockEntry),
		live:    make(map[string]*liveSession),
		lockTTL: DefaultLockTTL,
		now:     time.Now,
		logger:  logging.NewNop(), // Default to no-op
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// Open binds a session. An empty sessionID gets a generated one. A session already in
// the store is resumed with its persisted ritual and overrides; otherwise a new one is
// created for ritualID with the given overrides.
func (m *Manager) Open(ctx context.Context, sessionID, ritualID string, o *domain.Overrides) (*domain.SessionRecord, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	var rec *domain.SessionRecord
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		if m.lookup(sessionID) != nil {
			return fmt.Errorf("%w: %s", domain.ErrSessionExists, sessionID)
		}

		loaded, err := m.store.Load(ctx, sessionID)
		switch {
		case err == nil:
			rec = loaded
		case errors.Is(err, domain.ErrSessionNotFound):
			var overrides domain.Overrides
			if o != nil {
				overrides = *o
			}
			rec = &domain.SessionRecord{
				SessionID: sessionID,
				RitualID:  ritualID,
				Overrides: overrides,
				State:     domain.NewState(),
			}
		default:
			return fmt.Errorf("failed to check session existence: %w", err)
		}

		live, err := m.bind(ctx, rec)
		if err != nil {
			return err
		}
		// Persist immediately to reserve the ID
		if err := m.persist(ctx, sessionID, live); err != nil {
			m.unbind(sessionID)
			live.driver.Stop()
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info("Session opened", "session_id", sessionID, "ritual", rec.RitualID)
	return m.Record(ctx, sessionID)
}

// Dispatch applies one event to a session, resuming it from the store if it is not
// bound in this process, and persists the result.
func (m *Manager) Dispatch(ctx context.Context, sessionID string, ev domain.InputEvent) (Outcome, error) {
	var out Outcome
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		live, err := m.resume(ctx, sessionID)
		if err != nil {
			return err
		}
		out, err = live.driver.Dispatch(ctx, ev)
		if err != nil {
			return err
		}
		return m.persist(ctx, sessionID, live)
	})
	return out, err
}

// Snapshot projects the current state of a session.
func (m *Manager) Snapshot(ctx context.Context, sessionID string) (domain.Snapshot, error) {
	if live := m.lookup(sessionID); live != nil {
		return live.driver.Snapshot(), nil
	}

	var snap domain.Snapshot
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		live, err := m.resume(ctx, sessionID)
		if err != nil {
			return err
		}
		snap = live.driver.Snapshot()
		return nil
	})
	return snap, err
}

// Record returns the current record of a session: live state when bound here,
// otherwise the stored one.
func (m *Manager) Record(ctx context.Context, sessionID string) (*domain.SessionRecord, error) {
	if live := m.lookup(sessionID); live != nil {
		rec := m.recordOf(sessionID, live)
		return &rec, nil
	}
	return m.store.Load(ctx, sessionID)
}

// History returns the signals a session emitted. It is empty without a journal.
func (m *Manager) History(ctx context.Context, sessionID string) ([]domain.Signal, error) {
	if m.journal == nil {
		return []domain.Signal{}, nil
	}
	return m.journal.History(ctx, sessionID)
}

// Close persists and unbinds a session. The stored record survives.
func (m *Manager) Close(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		live := m.unbind(sessionID)
		if live == nil {
			return nil
		}
		live.driver.Stop()
		return m.persist(ctx, sessionID, live)
	})
}

// Delete removes the session from the process, the store and the journal.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		if live := m.unbind(sessionID); live != nil {
			live.driver.Stop()
		}
		if m.journal != nil {
			if err := m.journal.Forget(ctx, sessionID); err != nil {
				return fmt.Errorf("failed to forget signal history: %w", err)
			}
		}
		return m.store.Delete(ctx, sessionID)
	})
}

// Shutdown closes every bound session.
func (m *Manager) Shutdown(ctx context.Context) error {
	var errs []error
	for _, id := range m.Live() {
		if err := m.Close(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Live returns the IDs of sessions bound in this process, sorted.
func (m *Manager) Live() []string {
	m.liveMu.Lock()
	defer m.liveMu.Unlock()

	ids := make([]string, 0, len(m.live))
	for id := range m.live {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// HoldLoops counts bound sessions with a pending hold frame.
func (m *Manager) HoldLoops() int {
	m.liveMu.Lock()
	defer m.liveMu.Unlock()

	n := 0
	for _, live := range m.live {
		if live.driver.HoldLoopActive() {
			n++
		}
	}
	return n
}

// Store returns the underlying state store.
func (m *Manager) Store() ports.StateStore {
	return m.store
}

// Catalog returns the ritual catalog sessions are resolved against.
func (m *Manager) Catalog() ports.RitualCatalog {
	return m.catalog
}

// WithLock executes a function while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	// Distributed Locking
	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

func (m *Manager) lookup(sessionID string) *liveSession {
	m.liveMu.Lock()
	defer m.liveMu.Unlock()
	return m.live[sessionID]
}

func (m *Manager) unbind(sessionID string) *liveSession {
	m.liveMu.Lock()
	defer m.liveMu.Unlock()
	live := m.live[sessionID]
	delete(m.live, sessionID)
	return live
}

// resume returns the bound session or binds it from the store. Callers hold the session lock.
func (m *Manager) resume(ctx context.Context, sessionID string) (*liveSession, error) {
	if live := m.lookup(sessionID); live != nil {
		return live, nil
	}
	rec, err := m.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return m.bind(ctx, rec)
}

// bind starts a driver for rec and registers it. Callers hold the session lock.
func (m *Manager) bind(ctx context.Context, rec *domain.SessionRecord) (*liveSession, error) {
	base, err := m.catalog.Lookup(rec.RitualID)
	if err != nil {
		return nil, err
	}
	ritual := base.WithOverrides(&rec.Overrides)

	sinks := make([]ports.SignalSink, 0, len(m.sinks)+1)
	if m.journal != nil {
		sinks = append(sinks, m.journal)
	}
	sinks = append(sinks, m.sinks...)

	opts := []DriverOption{
		WithSessionID(rec.SessionID),
		WithInitialState(rec.State),
		WithSinks(sinks...),
		WithHooks(m.hooks),
		WithLogger(m.logger),
	}
	if m.scheduler != nil {
		opts = append(opts, WithScheduler(m.scheduler()))
	}

	driver := NewDriver(ritual, opts...)
	// The hold loop outlives the request that opened the session.
	if err := driver.Start(context.WithoutCancel(ctx)); err != nil {
		return nil, err
	}

	live := &liveSession{driver: driver, overrides: rec.Overrides}
	m.liveMu.Lock()
	m.live[rec.SessionID] = live
	m.liveMu.Unlock()
	return live, nil
}

func (m *Manager) recordOf(sessionID string, live *liveSession) domain.SessionRecord {
	return domain.SessionRecord{
		SessionID: sessionID,
		RitualID:  live.driver.Ritual().ID,
		Overrides: live.overrides,
		State:     live.driver.State(),
		UpdatedAt: m.now().UTC(),
	}
}

func (m *Manager) persist(ctx context.Context, sessionID string, live *liveSession) error {
	rec := m.recordOf(sessionID, live)
	if err := m.store.Save(ctx, sessionID, &rec); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	return nil
}
