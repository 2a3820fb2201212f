package observability

import (
	"context"
	"strconv"

	"github.com/aretw0/ritual/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "ritual"

// Metrics holds the ritual collectors.
type Metrics struct {
	signals     *prometheus.CounterVec
	transitions *prometheus.CounterVec
	seals       *prometheus.CounterVec
	holdLoops   prometheus.GaugeFunc
	streamDrops prometheus.CounterFunc
}

// Option configures Metrics.
type Option func(*config)

type config struct {
	namespace   string
	holdLoops   func() int
	streamDrops func() uint64
}

// WithNamespace overrides DefaultNamespace.
func WithNamespace(ns string) Option {
	return func(c *config) {
		c.namespace = ns
	}
}

// WithHoldLoops exports the number of running hold loops, as reported by fn.
func WithHoldLoops(fn func() int) Option {
	return func(c *config) {
		c.holdLoops = fn
	}
}

// WithStreamDrops exports the number of signal-mirror messages dropped for slow
// subscribers, as reported by fn.
func WithStreamDrops(fn func() uint64) Option {
	return func(c *config) {
		c.streamDrops = fn
	}
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer, opts ...Option) (*Metrics, error) {
	cfg := &config{namespace: DefaultNamespace}
	for _, opt := range opts {
		opt(cfg)
	}

	m := &Metrics{
		signals: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.namespace,
				Name:      "signals_total",
				Help:      "Signals emitted, by ritual, kind and evidence level.",
			},
			[]string{"ritual", "kind", "level"},
		),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.namespace,
				Name:      "dispatches_total",
				Help:      "Input events applied, by ritual, event type and whether they were accepted.",
			},
			[]string{"ritual", "event", "accepted"},
		),
		seals: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.namespace,
				Name:      "seals_total",
				Help:      "Rituals that reached the sealed stage.",
			},
			[]string{"ritual"},
		),
	}

	collectors := []prometheus.Collector{m.signals, m.transitions, m.seals}
	if cfg.holdLoops != nil {
		fn := cfg.holdLoops
		m.holdLoops = prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace: cfg.namespace,
				Name:      "hold_loops_active",
				Help:      "Sessions with a running hold loop.",
			},
			func() float64 { return float64(fn()) },
		)
		collectors = append(collectors, m.holdLoops)
	}
	if cfg.streamDrops != nil {
		fn := cfg.streamDrops
		m.streamDrops = prometheus.NewCounterFunc(
			prometheus.CounterOpts{
				Namespace: cfg.namespace,
				Name:      "stream_dropped_total",
				Help:      "Mirrored messages dropped because an SSE subscriber was full.",
			},
			func() float64 { return float64(fn()) },
		)
		collectors = append(collectors, m.streamDrops)
	}

	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Emit implements ports.SignalSink.
func (m *Metrics) Emit(_ context.Context, _ string, sig domain.Signal) error {
	level := string(sig.Level)
	if sig.Kind == domain.SignalAnchor {
		level = "none"
	}
	m.signals.WithLabelValues(sig.RitualID, string(sig.Kind), level).Inc()
	return nil
}

// Hooks returns lifecycle hooks counting transitions and seals.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: m.observe,
	}
}

func (m *Metrics) observe(_ context.Context, rec *domain.TransitionRecord) {
	m.transitions.WithLabelValues(rec.RitualID, string(rec.Event.Type), strconv.FormatBool(rec.Accepted)).Inc()
	if rec.To == domain.StageSealed && rec.From != domain.StageSealed {
		m.seals.WithLabelValues(rec.RitualID).Inc()
	}
}
