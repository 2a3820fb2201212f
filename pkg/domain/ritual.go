package domain

import (
	"fmt"
	"sort"
)

// WeightProfile blends the per-step progress into TotalProgress.
// Cap bounds TotalProgress until the ritual is sealed.
type WeightProfile struct {
	Drag    float64 `json:"drag" yaml:"drag"`
	Hold    float64 `json:"hold" yaml:"hold"`
	Release float64 `json:"release" yaml:"release"`
	Cap     float64 `json:"cap" yaml:"cap"`
}

// CanonicalWeights is the "first-proof" blend.
var CanonicalWeights = WeightProfile{Drag: 0.42, Hold: 0.44, Release: 0.14, Cap: 0.98}

// Ritual is one configured instance of the engine.
type Ritual struct {
	ID         string        `json:"id" yaml:"id"`
	Title      string        `json:"title" yaml:"title"`
	Thresholds Thresholds    `json:"thresholds" yaml:"thresholds"`
	Weights    WeightProfile `json:"weights" yaml:"weights"`

	base Overrides
}

// NewRitual resolves the overrides into a Ritual.
func NewRitual(id, title string, o Overrides, w WeightProfile) Ritual {
	return Ritual{
		ID:         id,
		Title:      title,
		Thresholds: ResolveThresholds(&o),
		Weights:    w,
		base:       o,
	}
}

// WithOverrides returns a copy of the ritual re-resolved with o layered over its own
// overrides. Nil or empty overrides return the ritual unchanged.
func (r Ritual) WithOverrides(o *Overrides) Ritual {
	if o == nil || o.IsZero() {
		return r
	}
	return NewRitual(r.ID, r.Title, r.base.Merge(o), r.Weights)
}

// Preset IDs.
const (
	PresetFirstProof = "first-proof"
	PresetSlide07    = "07"
	PresetSlide13    = "13"
)

var presets = map[string]Ritual{
	PresetFirstProof: NewRitual(PresetFirstProof, "First proof", Overrides{}, CanonicalWeights),
	PresetSlide07: NewRitual(PresetSlide07, "Boundary evidence", Overrides{
		DragThresholdPx:    Float(220),
		DragMaxTravelPx:    Float(420),
		DragDirectionRatio: Float(0.7),
		HoldDurationMs:     Float(1400),
		HoldTickClampMs:    Float(50),
		ReleaseSnapPx:      Float(32),
	}, WeightProfile{Drag: 0.4, Hold: 0.45, Release: 0.15, Cap: 0.98}),
	PresetSlide13: NewRitual(PresetSlide13, "Closing seal", Overrides{
		DragThresholdPx:    Float(140),
		DragMaxTravelPx:    Float(300),
		DragDirectionRatio: Float(0.55),
		HoldDurationMs:     Float(1800),
		HoldTickClampMs:    Float(80),
		ReleaseSnapPx:      Float(18),
	}, WeightProfile{Drag: 0.3, Hold: 0.5, Release: 0.2, Cap: 0.97}),
}

// LookupPreset returns the preset with the given id.
func LookupPreset(id string) (Ritual, error) {
	r, ok := presets[id]
	if !ok {
		return Ritual{}, fmt.Errorf("%w: %q", ErrUnknownRitual, id)
	}
	return r, nil
}

// Presets returns every preset sorted by ID.
func Presets() []Ritual {
	out := make([]Ritual, 0, len(presets))
	for _, r := range presets {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
