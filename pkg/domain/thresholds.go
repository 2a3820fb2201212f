package domain

import "math"

// Thresholds is the immutable, range-clamped configuration of one ritual instance.
// Build it with ResolveThresholds; a zero Thresholds is not a valid configuration.
type Thresholds struct {
	DragThresholdPx    float64 `json:"drag_threshold_px" yaml:"drag_threshold_px"`
	DragMaxTravelPx    float64 `json:"drag_max_travel_px" yaml:"drag_max_travel_px"`
	DragDirectionRatio float64 `json:"drag_direction_ratio" yaml:"drag_direction_ratio"`
	HoldDurationMs     float64 `json:"hold_duration_ms" yaml:"hold_duration_ms"`
	HoldTickClampMs    float64 `json:"hold_tick_clamp_ms" yaml:"hold_tick_clamp_ms"`
	ReleaseSnapPx      float64 `json:"release_snap_px" yaml:"release_snap_px"`
}

// Overrides is a partial Thresholds. Nil fields fall back to the defaults.
type Overrides struct {
	DragThresholdPx    *float64 `json:"drag_threshold_px,omitempty" yaml:"drag_threshold_px,omitempty" mapstructure:"drag_threshold_px"`
	DragMaxTravelPx    *float64 `json:"drag_max_travel_px,omitempty" yaml:"drag_max_travel_px,omitempty" mapstructure:"drag_max_travel_px"`
	DragDirectionRatio *float64 `json:"drag_direction_ratio,omitempty" yaml:"drag_direction_ratio,omitempty" mapstructure:"drag_direction_ratio"`
	HoldDurationMs     *float64 `json:"hold_duration_ms,omitempty" yaml:"hold_duration_ms,omitempty" mapstructure:"hold_duration_ms"`
	HoldTickClampMs    *float64 `json:"hold_tick_clamp_ms,omitempty" yaml:"hold_tick_clamp_ms,omitempty" mapstructure:"hold_tick_clamp_ms"`
	ReleaseSnapPx      *float64 `json:"release_snap_px,omitempty" yaml:"release_snap_px,omitempty" mapstructure:"release_snap_px"`
}

// Default threshold values (the canonical "first-proof" tuning).
const (
	DefaultDragThresholdPx    = 180.0
	DefaultDragMaxTravelPx    = 360.0
	DefaultDragDirectionRatio = 0.62
	DefaultHoldDurationMs     = 1100.0
	DefaultHoldTickClampMs    = 64.0
	DefaultReleaseSnapPx      = 24.0
)

// Safe operating bounds. DragMaxTravelPx has no fixed lower bound: the resolved
// DragThresholdPx is used instead.
const (
	MinDragThresholdPx = 72.0
	MaxDragThresholdPx = 560.0
	MaxDragMaxTravelPx = 960.0
	MinHoldDurationMs  = 240.0
	MaxHoldDurationMs  = 6000.0
	MinHoldTickClampMs = 8.0
	MaxHoldTickClampMs = 250.0
	MaxReleaseSnapPx   = 120.0
)

// DefaultThresholds returns the resolved defaults.
func DefaultThresholds() Thresholds {
	return ResolveThresholds(nil)
}

// ResolveThresholds validates and clamps the overrides into safe bounds.
// It never fails: missing or malformed (NaN, Inf) values take the default, out-of-range
// values are clamped. DragMaxTravelPx is clamped after DragThresholdPx so that
// DragMaxTravelPx >= DragThresholdPx always holds.
func ResolveThresholds(o *Overrides) Thresholds {
	if o == nil {
		o = &Overrides{}
	}

	t := Thresholds{}
	t.DragThresholdPx = clampField(o.DragThresholdPx, DefaultDragThresholdPx, MinDragThresholdPx, MaxDragThresholdPx)
	t.DragMaxTravelPx = clampField(o.DragMaxTravelPx, DefaultDragMaxTravelPx, t.DragThresholdPx, MaxDragMaxTravelPx)
	t.DragDirectionRatio = clampField(o.DragDirectionRatio, DefaultDragDirectionRatio, 0, 1)
	t.HoldDurationMs = clampField(o.HoldDurationMs, DefaultHoldDurationMs, MinHoldDurationMs, MaxHoldDurationMs)
	t.HoldTickClampMs = clampField(o.HoldTickClampMs, DefaultHoldTickClampMs, MinHoldTickClampMs, MaxHoldTickClampMs)
	t.ReleaseSnapPx = clampField(o.ReleaseSnapPx, DefaultReleaseSnapPx, 0, MaxReleaseSnapPx)
	return t
}

// Overrides returns the thresholds as a fully-populated Overrides value.
func (t Thresholds) Overrides() Overrides {
	return Overrides{
		DragThresholdPx:    Float(t.DragThresholdPx),
		DragMaxTravelPx:    Float(t.DragMaxTravelPx),
		DragDirectionRatio: Float(t.DragDirectionRatio),
		HoldDurationMs:     Float(t.HoldDurationMs),
		HoldTickClampMs:    Float(t.HoldTickClampMs),
		ReleaseSnapPx:      Float(t.ReleaseSnapPx),
	}
}

// Merge layers other on top of o. Fields set in other win.
func (o Overrides) Merge(other *Overrides) Overrides {
	if other == nil {
		return o
	}
	pick := func(base, top *float64) *float64 {
		if top != nil {
			return top
		}
		return base
	}
	return Overrides{
		DragThresholdPx:    pick(o.DragThresholdPx, other.DragThresholdPx),
		DragMaxTravelPx:    pick(o.DragMaxTravelPx, other.DragMaxTravelPx),
		DragDirectionRatio: pick(o.DragDirectionRatio, other.DragDirectionRatio),
		HoldDurationMs:     pick(o.HoldDurationMs, other.HoldDurationMs),
		HoldTickClampMs:    pick(o.HoldTickClampMs, other.HoldTickClampMs),
		ReleaseSnapPx:      pick(o.ReleaseSnapPx, other.ReleaseSnapPx),
	}
}

// IsZero reports whether no field is set.
func (o Overrides) IsZero() bool {
	return o == Overrides{}
}

// Float returns a pointer to v, for building Overrides literals.
func Float(v float64) *float64 {
	return &v
}

func clampField(v *float64, def, lo, hi float64) float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return Clamp(def, lo, hi)
	}
	return Clamp(*v, lo, hi)
}

// Clamp bounds v to [lo, hi]. NaN collapses to lo.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
