package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/aretw0/ritual/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDecodeOverrides(t *testing.T) {
	t.Run("typed and string values", func(t *testing.T) {
		o := domain.DecodeOverrides(map[string]any{
			"drag_threshold_px": 200,
			"hold_duration_ms":  "1500",
			"unknown_key":       true,
		})
		require.NotNil(t, o.DragThresholdPx)
		require.NotNil(t, o.HoldDurationMs)
		assert.Equal(t, 200.0, *o.DragThresholdPx)
		assert.Equal(t, 1500.0, *o.HoldDurationMs)
		assert.Nil(t, o.ReleaseSnapPx)
	})

	t.Run("malformed values are dropped, the rest survive", func(t *testing.T) {
		o := domain.DecodeOverrides(map[string]any{
			"drag_threshold_px":  "wide",
			"release_snap_px":    12.5,
			"hold_tick_clamp_ms": map[string]any{"ms": 1},
		})
		assert.Nil(t, o.DragThresholdPx)
		assert.Nil(t, o.HoldTickClampMs)
		require.NotNil(t, o.ReleaseSnapPx)
		assert.Equal(t, 12.5, *o.ReleaseSnapPx)

		th := domain.ResolveThresholds(&o)
		assert.Equal(t, domain.DefaultDragThresholdPx, th.DragThresholdPx)
		assert.Equal(t, 12.5, th.ReleaseSnapPx)
	})

	t.Run("empty", func(t *testing.T) {
		assert.True(t, domain.DecodeOverrides(nil).IsZero())
	})
}

func TestOverrides_LenientUnmarshal(t *testing.T) {
	type holder struct {
		Overrides *domain.Overrides `json:"overrides" yaml:"overrides"`
	}

	t.Run("json", func(t *testing.T) {
		var h holder
		require.NoError(t, json.Unmarshal([]byte(`{"overrides":{"drag_threshold_px":"300","hold_duration_ms":"oops","drag_thresold_px":90}}`), &h))
		require.NotNil(t, h.Overrides)
		require.NotNil(t, h.Overrides.DragThresholdPx)
		assert.Equal(t, 300.0, *h.Overrides.DragThresholdPx)
		assert.Nil(t, h.Overrides.HoldDurationMs)
	})

	t.Run("json not an object", func(t *testing.T) {
		var h holder
		require.NoError(t, json.Unmarshal([]byte(`{"overrides":"fast"}`), &h))
		require.NotNil(t, h.Overrides)
		assert.True(t, h.Overrides.IsZero())
	})

	t.Run("yaml", func(t *testing.T) {
		var h holder
		require.NoError(t, yaml.Unmarshal([]byte("overrides:\n  hold_duration_ms: \"1500\"\n  release_snap_px: {a: 1}\n"), &h))
		require.NotNil(t, h.Overrides)
		require.NotNil(t, h.Overrides.HoldDurationMs)
		assert.Equal(t, 1500.0, *h.Overrides.HoldDurationMs)
		assert.Nil(t, h.Overrides.ReleaseSnapPx)
	})

	t.Run("round trip", func(t *testing.T) {
		in := domain.Overrides{DragThresholdPx: domain.Float(200), ReleaseSnapPx: domain.Float(0)}
		data, err := json.Marshal(in)
		require.NoError(t, err)
		var out domain.Overrides
		require.NoError(t, json.Unmarshal(data, &out))
		assert.Equal(t, in, out)
	})
}
