package signals

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/ritual/pkg/domain"
)

// Recorder is the evidence registry seen from the engine: a per-session map from
// evidence key to satisfied. Success and info evidence satisfy their marker; warnings
// are recorded as unsatisfied unless the marker was already satisfied. A reset clears
// the session.
type Recorder struct {
	mu       sync.RWMutex
	sessions map[string]map[string]bool
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{sessions: make(map[string]map[string]bool)}
}

// Emit implements ports.SignalSink. Anchor signals are ignored.
func (r *Recorder) Emit(ctx context.Context, sessionID string, sig domain.Signal) error {
	if sig.Kind != domain.SignalEvidence {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if sig.Marker == domain.MarkerReset {
		delete(r.sessions, sessionID)
		return nil
	}
	keys, ok := r.sessions[sessionID]
	if !ok {
		keys = make(map[string]bool)
		r.sessions[sessionID] = keys
	}
	satisfied := sig.Level != domain.LevelWarning
	keys[sig.Marker] = keys[sig.Marker] || satisfied
	return nil
}

// Satisfied reports whether key is satisfied for the session.
func (r *Recorder) Satisfied(sessionID, key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[sessionID][key]
}

// Evidence returns a copy of the session's evidence map.
func (r *Recorder) Evidence(sessionID string) map[string]bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]bool, len(r.sessions[sessionID]))
	for k, v := range r.sessions[sessionID] {
		out[k] = v
	}
	return out
}

// Keys returns the satisfied keys of the session, sorted.
func (r *Recorder) Keys(sessionID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var keys []string
	for k, v := range r.sessions[sessionID] {
		if v {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
