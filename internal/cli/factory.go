package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aretw0/ritual/internal/config"
	"github.com/aretw0/ritual/internal/logging"
	"github.com/aretw0/ritual/pkg/adapters/file"
	"github.com/aretw0/ritual/pkg/adapters/memory"
	"github.com/aretw0/ritual/pkg/adapters/redis"
	"github.com/aretw0/ritual/pkg/adapters/sqlite"
	"github.com/aretw0/ritual/pkg/observability"
	"github.com/aretw0/ritual/pkg/persistence/middleware"
	"github.com/aretw0/ritual/pkg/ports"
	"github.com/aretw0/ritual/pkg/replay"
	"github.com/aretw0/ritual/pkg/session"
	"github.com/aretw0/ritual/pkg/signals"
	"github.com/prometheus/client_golang/prometheus"
)

// DefaultSQLitePath is used when RITUAL_STORE=sqlite and no path is configured.
const DefaultSQLitePath = ".ritual/ritual.db"

// Stack is the wired set of collaborators a long-running command needs.
type Stack struct {
	Manager  *session.Manager
	Store    ports.StateStore
	Journal  ports.SignalJournal
	Recorder *signals.Recorder
	Metrics  *observability.Metrics
	Registry *prometheus.Registry
	Logger   *slog.Logger

	closers []func() error
}

// StackOption configures Build.
type StackOption func(*stackConfig)

type stackConfig struct {
	sinks       []ports.SignalSink
	holdLoops   bool
	streamDrops func() uint64
}

// WithSinks adds signal consumers after the built-in ones.
func WithSinks(sinks ...ports.SignalSink) StackOption {
	return func(c *stackConfig) {
		c.sinks = append(c.sinks, sinks...)
	}
}

// WithHoldLoops gives every session a ticker-driven hold loop.
func WithHoldLoops() StackOption {
	return func(c *stackConfig) {
		c.holdLoops = true
	}
}

// WithStreamDrops exports the signal mirror's drop count as a metric.
func WithStreamDrops(fn func() uint64) StackOption {
	return func(c *stackConfig) {
		c.streamDrops = fn
	}
}

// NewLogger builds the process logger from cfg. The returned close func releases the
// log file, if any.
func NewLogger(cfg config.Config) (*slog.Logger, func() error, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	if cfg.LogFile == "" {
		return logging.New(level), func() error { return nil }, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return logging.NewWithFile(level, f), f.Close, nil
}

// Backend is a configured persistence layer.
type Backend struct {
	Store   ports.StateStore
	Journal ports.SignalJournal
	Locker  ports.DistributedLocker
	Close   func() error
}

// OpenBackend opens the store selected by cfg.StoreKind. Backends without a durable
// journal get an in-memory one.
func OpenBackend(ctx context.Context, cfg config.Config) (*Backend, error) {
	b := &Backend{Journal: memory.NewJournal(), Close: func() error { return nil }}

	switch cfg.StoreKind {
	case config.StoreMemory, "":
		b.Store = memory.NewStore()
	case config.StoreFile:
		b.Store = file.New(cfg.StorePath)
	case config.StoreRedis:
		var opts []redis.Option
		if cfg.SessionTTL > 0 {
			opts = append(opts, redis.WithTTL(cfg.SessionTTL))
		}
		store := redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, opts...)
		b.Store = store
		b.Locker = redis.NewLocker(store.Client(), redis.DefaultPrefix)
		b.Close = store.Close
	case config.StoreSQLite:
		path := cfg.StorePath
		if path == "" {
			path = DefaultSQLitePath
		}
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create sqlite directory: %w", err)
			}
		}
		store, err := sqlite.Open(ctx, path)
		if err != nil {
			return nil, err
		}
		b.Store = store
		b.Journal = store
		b.Close = store.Close
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.StoreKind)
	}

	if cfg.EncryptionKey != "" {
		mw, err := encryption(cfg)
		if err != nil {
			_ = b.Close()
			return nil, err
		}
		b.Store = middleware.Wrap(b.Store, mw)
	}
	return b, nil
}

func encryption(cfg config.Config) (middleware.Middleware, error) {
	active, err := middleware.ParseKey(cfg.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("encryption key: %w", err)
	}
	ec := middleware.EncryptionConfig{ActiveKey: active}
	for i, s := range cfg.EncryptionFallbackKeys {
		key, err := middleware.ParseKey(s)
		if err != nil {
			return nil, fmt.Errorf("fallback encryption key %d: %w", i, err)
		}
		ec.FallbackKeys = append(ec.FallbackKeys, key)
	}
	return middleware.NewEncryptionMiddleware(ec)
}

// Build wires a session manager with persistence, evidence, metrics and logging.
func Build(ctx context.Context, cfg config.Config, logger *slog.Logger, opts ...StackOption) (*Stack, error) {
	sc := &stackConfig{}
	for _, opt := range opts {
		opt(sc)
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	backend, err := OpenBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}

	st := &Stack{
		Store:    backend.Store,
		Journal:  backend.Journal,
		Recorder: signals.NewRecorder(),
		Registry: prometheus.NewRegistry(),
		Logger:   logger,
		closers:  []func() error{backend.Close},
	}

	// The gauge is only read at scrape time, after the manager exists.
	metricOpts := []observability.Option{observability.WithHoldLoops(func() int {
		if st.Manager == nil {
			return 0
		}
		return st.Manager.HoldLoops()
	})}
	if sc.streamDrops != nil {
		metricOpts = append(metricOpts, observability.WithStreamDrops(sc.streamDrops))
	}
	metrics, err := observability.NewMetrics(st.Registry, metricOpts...)
	if err != nil {
		_ = backend.Close()
		return nil, err
	}
	st.Metrics = metrics

	sinks := append([]ports.SignalSink{st.Recorder, metrics, signals.NewLogSink(logger)}, sc.sinks...)
	mopts := []session.Option{
		session.WithManagerLogger(logger),
		session.WithJournal(backend.Journal),
		session.WithSignalSinks(sinks...),
		session.WithLifecycleHooks(observability.Chain(metrics.Hooks(), observability.LogHooks(logger))),
	}
	if backend.Locker != nil {
		mopts = append(mopts, session.WithLocker(backend.Locker), session.WithLockTTL(cfg.LockTTL))
	}
	if sc.holdLoops {
		interval := cfg.FrameInterval
		mopts = append(mopts, session.WithFrameSchedulers(func() ports.FrameScheduler {
			return session.NewTickerScheduler(interval, nil)
		}))
	}
	st.Manager = session.NewManager(backend.Store, mopts...)
	return st, nil
}

// Close shuts every bound session down, then releases the backend.
func (s *Stack) Close(ctx context.Context) error {
	errs := []error{s.Manager.Shutdown(ctx)}
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	return errors.Join(errs...)
}

// LoadFixtures returns the catalog in dir, or the built-in one when dir is empty.
func LoadFixtures(dir string) (*replay.Catalog, error) {
	if dir == "" {
		return replay.BuiltinCatalog()
	}
	return replay.LoadCatalogDir(dir)
}
