package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/ritual/pkg/domain"
)

// Registry manages the available rituals. It implements ports.RitualCatalog.
type Registry struct {
	mu      sync.RWMutex
	rituals map[string]domain.Ritual
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		rituals: make(map[string]domain.Ritual),
	}
}

// NewWithPresets creates a registry holding the built-in presets.
func NewWithPresets() *Registry {
	r := NewRegistry()
	for _, p := range domain.Presets() {
		r.Register(p)
	}
	return r
}

// Register adds a ritual to the registry.
// If a ritual with the same ID exists, it is overwritten.
func (r *Registry) Register(ritual domain.Ritual) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rituals[ritual.ID] = ritual
}

// Lookup finds a ritual by ID.
func (r *Registry) Lookup(id string) (domain.Ritual, error) {
	r.mu.RLock()
	ritual, ok := r.rituals[id]
	r.mu.RUnlock()

	if !ok {
		return domain.Ritual{}, fmt.Errorf("%w: %q", domain.ErrUnknownRitual, id)
	}
	return ritual, nil
}

// Resolve looks up id and layers the overrides on top of its thresholds.
func (r *Registry) Resolve(id string, o *domain.Overrides) (domain.Ritual, error) {
	ritual, err := r.Lookup(id)
	if err != nil {
		return domain.Ritual{}, err
	}
	return ritual.WithOverrides(o), nil
}

// List returns every registered ritual sorted by ID.
func (r *Registry) List() []domain.Ritual {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Ritual, 0, len(r.rituals))
	for _, ritual := range r.rituals {
		out = append(out, ritual)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
