package domain

// StateDiff represents the changes between two ritual states.
// It is designed to be serialized to JSON for partial updates on the client.
type StateDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	Stage         *Stage          `json:"stage,omitempty"`
	PointerActive *bool           `json:"pointer_active,omitempty"`
	Drag          *DragMetrics    `json:"drag,omitempty"`
	Hold          *HoldMetrics    `json:"hold,omitempty"`
	Release       *ReleaseMetrics `json:"release,omitempty"`

	// MarkersAdded lists markers present in the new state but not in the old one.
	MarkersAdded []string `json:"markers_added,omitempty"`

	// Reset is set when the new state dropped markers, which only a reset can do.
	Reset bool `json:"reset,omitempty"`
}

// Diff calculates the difference between oldState and newState.
// If oldState is nil, it returns a diff representing the entire newState (initial load).
// It returns nil when nothing changed.
func Diff(sessionID string, oldState, newState *RitualState) *StateDiff {
	if newState == nil {
		return nil
	}

	diff := &StateDiff{SessionID: sessionID}

	if oldState == nil || oldState.Stage != newState.Stage {
		diff.Stage = &newState.Stage
	}
	if oldState == nil || oldState.PointerActive != newState.PointerActive {
		diff.PointerActive = &newState.PointerActive
	}
	if oldState == nil || oldState.Drag != newState.Drag {
		d := newState.Drag
		diff.Drag = &d
	}
	if oldState == nil || oldState.Hold != newState.Hold {
		h := newState.Hold
		diff.Hold = &h
	}
	if oldState == nil || oldState.Release != newState.Release {
		r := newState.Release
		diff.Release = &r
	}

	for _, m := range newState.Markers {
		if oldState == nil || !oldState.HasMarker(m) {
			diff.MarkersAdded = append(diff.MarkersAdded, m)
		}
	}
	if oldState != nil {
		for _, m := range oldState.Markers {
			if !newState.HasMarker(m) {
				diff.Reset = true
				break
			}
		}
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *StateDiff) IsEmpty() bool {
	return d.Stage == nil &&
		d.PointerActive == nil &&
		d.Drag == nil &&
		d.Hold == nil &&
		d.Release == nil &&
		len(d.MarkersAdded) == 0 &&
		!d.Reset
}
