package ports

import "github.com/aretw0/ritual/pkg/domain"

// RitualCatalog resolves ritual IDs. Adapters use it instead of the preset table so a
// host can register its own tunings.
type RitualCatalog interface {
	// Lookup returns the ritual registered under id, or an error wrapping
	// domain.ErrUnknownRitual.
	Lookup(id string) (domain.Ritual, error)

	// List returns every registered ritual sorted by ID.
	List() []domain.Ritual
}
