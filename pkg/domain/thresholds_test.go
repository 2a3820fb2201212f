package domain_test

import (
	"math"
	"testing"

	"github.com/aretw0/ritual/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestResolveThresholds_Defaults(t *testing.T) {
	th := domain.ResolveThresholds(nil)
	assert.Equal(t, domain.Thresholds{
		DragThresholdPx:    180,
		DragMaxTravelPx:    360,
		DragDirectionRatio: 0.62,
		HoldDurationMs:     1100,
		HoldTickClampMs:    64,
		ReleaseSnapPx:      24,
	}, th)
	assert.Equal(t, th, domain.DefaultThresholds())
}

func TestResolveThresholds_Clamping(t *testing.T) {
	tests := []struct {
		name string
		in   domain.Overrides
		want func(domain.Thresholds) bool
	}{
		{"drag threshold floor", domain.Overrides{DragThresholdPx: domain.Float(10)},
			func(th domain.Thresholds) bool { return th.DragThresholdPx == 72 }},
		{"drag threshold ceiling", domain.Overrides{DragThresholdPx: domain.Float(9000)},
			func(th domain.Thresholds) bool { return th.DragThresholdPx == 560 }},
		{"ratio ceiling", domain.Overrides{DragDirectionRatio: domain.Float(1.5)},
			func(th domain.Thresholds) bool { return th.DragDirectionRatio == 1 }},
		{"ratio floor", domain.Overrides{DragDirectionRatio: domain.Float(-0.2)},
			func(th domain.Thresholds) bool { return th.DragDirectionRatio == 0 }},
		{"hold floor", domain.Overrides{HoldDurationMs: domain.Float(1)},
			func(th domain.Thresholds) bool { return th.HoldDurationMs == 240 }},
		{"hold ceiling", domain.Overrides{HoldDurationMs: domain.Float(60000)},
			func(th domain.Thresholds) bool { return th.HoldDurationMs == 6000 }},
		{"tick clamp bounds", domain.Overrides{HoldTickClampMs: domain.Float(1)},
			func(th domain.Thresholds) bool { return th.HoldTickClampMs == 8 }},
		{"snap ceiling", domain.Overrides{ReleaseSnapPx: domain.Float(500)},
			func(th domain.Thresholds) bool { return th.ReleaseSnapPx == 120 }},
		{"NaN falls back to default", domain.Overrides{HoldDurationMs: domain.Float(math.NaN())},
			func(th domain.Thresholds) bool { return th.HoldDurationMs == 1100 }},
		{"Inf falls back to default", domain.Overrides{DragThresholdPx: domain.Float(math.Inf(1))},
			func(th domain.Thresholds) bool { return th.DragThresholdPx == 180 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			th := domain.ResolveThresholds(&tt.in)
			assert.True(t, tt.want(th), "got %+v", th)
		})
	}
}

func TestResolveThresholds_MaxTravelNeverBelowThreshold(t *testing.T) {
	th := domain.ResolveThresholds(&domain.Overrides{
		DragThresholdPx: domain.Float(500),
		DragMaxTravelPx: domain.Float(100),
	})
	assert.Equal(t, 500.0, th.DragThresholdPx)
	assert.Equal(t, 500.0, th.DragMaxTravelPx)

	// the default max travel is lifted too
	th = domain.ResolveThresholds(&domain.Overrides{DragThresholdPx: domain.Float(400)})
	assert.Equal(t, 400.0, th.DragMaxTravelPx)
}

func TestResolveThresholds_RoundTripsThroughOverrides(t *testing.T) {
	th := domain.ResolveThresholds(&domain.Overrides{HoldDurationMs: domain.Float(2000)})
	o := th.Overrides()
	assert.Equal(t, th, domain.ResolveThresholds(&o))
}

func TestOverrides_Merge(t *testing.T) {
	base := domain.Overrides{DragThresholdPx: domain.Float(200), HoldDurationMs: domain.Float(900)}
	merged := base.Merge(&domain.Overrides{HoldDurationMs: domain.Float(1500)})

	assert.Equal(t, 200.0, *merged.DragThresholdPx)
	assert.Equal(t, 1500.0, *merged.HoldDurationMs)
	assert.Nil(t, merged.ReleaseSnapPx)
	assert.Equal(t, base, base.Merge(nil))
	assert.True(t, domain.Overrides{}.IsZero())
	assert.False(t, merged.IsZero())
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, domain.Clamp(-1, 0, 1))
	assert.Equal(t, 1.0, domain.Clamp(2, 0, 1))
	assert.Equal(t, 0.5, domain.Clamp(0.5, 0, 1))
	assert.Equal(t, 3.0, domain.Clamp(math.NaN(), 3, 4))
}
