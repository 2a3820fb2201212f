package domain_test

import (
	"testing"

	"github.com/aretw0/ritual/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_Markers(t *testing.T) {
	s := domain.NewState()
	s1 := s.WithMarker("evidence:sealed")
	s2 := s1.WithMarker("anchor:sealed").WithMarker("evidence:sealed")

	assert.Empty(t, s.Markers, "WithMarker must not touch the receiver")
	assert.Equal(t, []string{"evidence:sealed"}, s1.Markers)
	assert.Equal(t, []string{"anchor:sealed", "evidence:sealed"}, s2.Markers)
	assert.True(t, s2.HasMarker("anchor:sealed"))
	assert.False(t, s2.HasMarker("anchor:drag-satisfied"))
}

func TestState_CloneIsDeep(t *testing.T) {
	s := domain.NewState().WithMarker("a")
	c := s.Clone()
	c.Markers[0] = "z"
	assert.Equal(t, "a", s.Markers[0])
}

func TestPresets(t *testing.T) {
	rituals := domain.Presets()
	require.Len(t, rituals, 3)
	assert.Equal(t, []string{"07", "13", "first-proof"}, []string{rituals[0].ID, rituals[1].ID, rituals[2].ID})

	fp, err := domain.LookupPreset(domain.PresetFirstProof)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultThresholds(), fp.Thresholds)
	assert.Equal(t, domain.CanonicalWeights, fp.Weights)

	s13, err := domain.LookupPreset("13")
	require.NoError(t, err)
	assert.Equal(t, 140.0, s13.Thresholds.DragThresholdPx)
	assert.Equal(t, 0.97, s13.Weights.Cap)

	_, err = domain.LookupPreset("99")
	assert.ErrorIs(t, err, domain.ErrUnknownRitual)
}

func TestRitual_WithOverrides(t *testing.T) {
	r, err := domain.LookupPreset(domain.PresetSlide07)
	require.NoError(t, err)

	tuned := r.WithOverrides(&domain.Overrides{HoldDurationMs: domain.Float(2000)})
	assert.Equal(t, 2000.0, tuned.Thresholds.HoldDurationMs)
	assert.Equal(t, 220.0, tuned.Thresholds.DragThresholdPx, "preset values survive layering")
	assert.Equal(t, 1400.0, r.Thresholds.HoldDurationMs)

	assert.Equal(t, r, r.WithOverrides(nil))
}

func TestSignal_Names(t *testing.T) {
	sig := domain.Signal{Kind: domain.SignalEvidence, Marker: "sealed"}
	assert.Equal(t, "evidence:sealed", sig.Name())
	assert.Equal(t, "ritual:evidence:sealed", sig.EventName())
}
