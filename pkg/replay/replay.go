package replay

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/aretw0/ritual/internal/runtime"
	"github.com/aretw0/ritual/pkg/domain"
	"github.com/aretw0/ritual/pkg/ports"
	"github.com/aretw0/ritual/pkg/registry"
)

// Frame records the effect of one event.
type Frame struct {
	Index    int               `json:"index"`
	Event    domain.InputEvent `json:"event"`
	Accepted bool              `json:"accepted"`
	Stage    domain.Stage      `json:"stage"`
	Snapshot domain.Snapshot   `json:"snapshot"`
	Signals  []domain.Signal   `json:"signals,omitempty"`
}

// Result is the outcome of replaying a trace.
type Result struct {
	Trace         string             `json:"trace"`
	Ritual        domain.Ritual      `json:"ritual"`
	FinalState    domain.RitualState `json:"final_state"`
	FinalSnapshot domain.Snapshot    `json:"final_snapshot"`
	Signals       []domain.Signal    `json:"signals"`
	Frames        []Frame            `json:"frames"`
}

// SignalNames returns the emitted signal-name sequence.
func (r Result) SignalNames() []string {
	return domain.SignalNames(r.Signals)
}

// Fingerprint hashes the observable outcome: final state, final snapshot and signal
// name sequence. Two runs of the same trace must produce the same fingerprint.
func (r Result) Fingerprint() string {
	payload := struct {
		State    domain.RitualState `json:"state"`
		Snapshot domain.Snapshot    `json:"snapshot"`
		Signals  []string           `json:"signals"`
	}{r.FinalState, r.FinalSnapshot, r.SignalNames()}

	data, err := json.Marshal(payload)
	if err != nil {
		// only reachable with non-finite floats, which the reducer never stores
		return "unhashable: " + err.Error()
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Option configures a replay.
type Option func(*config)

type config struct {
	catalog ports.RitualCatalog
	hooks   domain.LifecycleHooks
}

// WithCatalog resolves trace rituals against catalog instead of the presets.
func WithCatalog(catalog ports.RitualCatalog) Option {
	return func(c *config) {
		c.catalog = catalog
	}
}

// WithHooks observes every replayed step.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(c *config) {
		c.hooks = hooks
	}
}

func newConfig(opts []Option) *config {
	c := &config{}
	for _, opt := range opts {
		opt(c)
	}
	if c.catalog == nil {
		c.catalog = registry.NewWithPresets()
	}
	return c
}

// Replay folds the trace through the reducer from the pristine state.
// It fails only when the trace names an unknown ritual.
func Replay(t Trace, opts ...Option) (Result, error) {
	return replay(newConfig(opts), t)
}

func replay(c *config, t Trace) (Result, error) {
	base, err := c.catalog.Lookup(t.Ritual)
	if err != nil {
		return Result{}, fmt.Errorf("replay %q: %w", t.Name, err)
	}
	engine := runtime.NewEngine(base.WithOverrides(t.Overrides), runtime.WithLifecycleHooks(c.hooks))

	ctx := context.Background()
	events := t.Events()
	res := Result{
		Trace:   t.Name,
		Ritual:  engine.Ritual(),
		Signals: []domain.Signal{},
		Frames:  make([]Frame, 0, len(events)),
	}

	state := engine.Initial()
	for i, ev := range events {
		step := engine.Step(ctx, state, ev)
		state = step.State
		res.Signals = append(res.Signals, step.Signals...)
		res.Frames = append(res.Frames, Frame{
			Index:    i,
			Event:    ev,
			Accepted: step.Accepted,
			Stage:    state.Stage,
			Snapshot: engine.Project(state),
			Signals:  step.Signals,
		})
	}

	res.FinalState = state
	res.FinalSnapshot = engine.Project(state)
	return res, nil
}

// DeterminismReport summarizes repeated replays of one trace.
type DeterminismReport struct {
	Trace         string   `json:"trace"`
	Iterations    int      `json:"iterations"`
	Deterministic bool     `json:"deterministic"`
	Fingerprint   string   `json:"fingerprint"`
	Divergent     []int    `json:"divergent,omitempty"`
	SignalNames   []string `json:"signal_names"`
}

// AssertDeterminism replays the trace iterations times and compares every run with the
// first, structurally and by fingerprint. Fewer than two iterations are raised to two.
func AssertDeterminism(t Trace, iterations int, opts ...Option) (DeterminismReport, error) {
	if iterations < 2 {
		iterations = 2
	}
	c := newConfig(opts)

	first, err := replay(c, t)
	if err != nil {
		return DeterminismReport{}, err
	}
	report := DeterminismReport{
		Trace:         t.Name,
		Iterations:    iterations,
		Deterministic: true,
		Fingerprint:   first.Fingerprint(),
		SignalNames:   first.SignalNames(),
	}

	for i := 1; i < iterations; i++ {
		run, err := replay(c, t)
		if err != nil {
			return DeterminismReport{}, err
		}
		same := reflect.DeepEqual(first.FinalState, run.FinalState) &&
			reflect.DeepEqual(first.FinalSnapshot, run.FinalSnapshot) &&
			reflect.DeepEqual(first.SignalNames(), run.SignalNames()) &&
			first.Fingerprint() == run.Fingerprint()
		if !same {
			report.Deterministic = false
			report.Divergent = append(report.Divergent, i)
		}
	}
	return report, nil
}
