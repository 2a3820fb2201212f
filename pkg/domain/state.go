package domain

import "sort"

// Point is a pointer position in host coordinates (CSS pixels).
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// DragMetrics accumulates the drag phase. DirectionValid and ThresholdReached are sticky.
type DragMetrics struct {
	DistancePx       float64 `json:"distance_px" yaml:"distance_px"`
	DxPx             float64 `json:"dx_px" yaml:"dx_px"`
	DyPx             float64 `json:"dy_px" yaml:"dy_px"`
	DirectionRatio   float64 `json:"direction_ratio" yaml:"direction_ratio"`
	DirectionValid   bool    `json:"direction_valid" yaml:"direction_valid"`
	ThresholdReached bool    `json:"threshold_reached" yaml:"threshold_reached"`
}

// HoldMetrics accumulates the hold phase. ThresholdReached is sticky.
type HoldMetrics struct {
	ElapsedMs        float64 `json:"elapsed_ms" yaml:"elapsed_ms"`
	TickCount        int     `json:"tick_count" yaml:"tick_count"`
	ThresholdReached bool    `json:"threshold_reached" yaml:"threshold_reached"`
}

// ReleaseMetrics records what happened when the pointer was let go.
type ReleaseMetrics struct {
	Attempted bool `json:"attempted" yaml:"attempted"`
	Blocked   bool `json:"blocked" yaml:"blocked"`
	Committed bool `json:"committed" yaml:"committed"`
}

// RitualState is the memory of one ritual session.
// It is only ever produced by NewState or by the transition function; every transition
// returns a fresh copy, so a RitualState value can be shared freely.
type RitualState struct {
	Stage Stage `json:"stage" yaml:"stage"`

	PointerActive   bool  `json:"pointer_active" yaml:"pointer_active"`
	ActivePointerID int   `json:"active_pointer_id" yaml:"active_pointer_id"`
	Origin          Point `json:"origin" yaml:"origin"`
	Current         Point `json:"current" yaml:"current"`

	Drag    DragMetrics    `json:"drag" yaml:"drag"`
	Hold    HoldMetrics    `json:"hold" yaml:"hold"`
	Release ReleaseMetrics `json:"release" yaml:"release"`

	// Markers is the sorted set of signal names already emitted in this session.
	Markers []string `json:"markers" yaml:"markers"`
}

// NewState creates the pristine initial state.
func NewState() RitualState {
	return RitualState{
		Stage:   StageIdle,
		Markers: []string{},
	}
}

// Clone returns a deep copy of the state.
func (s RitualState) Clone() RitualState {
	out := s
	out.Markers = make([]string, len(s.Markers))
	copy(out.Markers, s.Markers)
	return out
}

// Sealed reports whether the ritual reached its terminal stage.
func (s RitualState) Sealed() bool {
	return s.Stage == StageSealed
}

// ReleaseReady reports whether a release right now would seal the ritual.
func (s RitualState) ReleaseReady() bool {
	return s.Drag.ThresholdReached && s.Hold.ThresholdReached
}

// HasMarker reports whether a signal with the given marker was already emitted.
func (s RitualState) HasMarker(marker string) bool {
	i := sort.SearchStrings(s.Markers, marker)
	return i < len(s.Markers) && s.Markers[i] == marker
}

// WithMarker returns a copy of the state with marker added to the marker set.
func (s RitualState) WithMarker(marker string) RitualState {
	out := s.Clone()
	if out.HasMarker(marker) {
		return out
	}
	i := sort.SearchStrings(out.Markers, marker)
	out.Markers = append(out.Markers, "")
	copy(out.Markers[i+1:], out.Markers[i:])
	out.Markers[i] = marker
	return out
}
