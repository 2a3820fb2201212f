package domain

// SealStatus is the UI-facing summary of where a ritual stands.
type SealStatus string

const (
	SealOpen      SealStatus = "open"
	SealArming    SealStatus = "arming"
	SealDragReady SealStatus = "drag-verified"
	SealHolding   SealStatus = "holding"
	SealReady     SealStatus = "ready"
	SealBlocked   SealStatus = "blocked"
	SealSealed    SealStatus = "sealed"
)

// StepStatus is the status of one step view model.
type StepStatus string

const (
	StepLocked   StepStatus = "locked"
	StepActive   StepStatus = "active"
	StepComplete StepStatus = "complete"
)

// Step identifiers.
const (
	StepDrag    = "drag"
	StepHold    = "hold"
	StepRelease = "release"
)

// StepView is the view model of one ritual step.
type StepView struct {
	ID       string     `json:"id" yaml:"id"`
	Status   StepStatus `json:"status" yaml:"status"`
	LabelKey string     `json:"label_key" yaml:"label_key"`
}

// Snapshot is the derived, UI-facing projection of a RitualState.
// It is recomputed on every call and never carries pointer bookkeeping.
type Snapshot struct {
	RitualID string `json:"ritual_id" yaml:"ritual_id"`
	Stage    Stage  `json:"stage" yaml:"stage"`

	DragProgress    float64 `json:"drag_progress" yaml:"drag_progress"`
	HoldProgress    float64 `json:"hold_progress" yaml:"hold_progress"`
	ReleaseProgress float64 `json:"release_progress" yaml:"release_progress"`
	TotalProgress   float64 `json:"total_progress" yaml:"total_progress"`

	SealStatus   SealStatus `json:"seal_status" yaml:"seal_status"`
	LabelKey     string     `json:"label_key" yaml:"label_key"`
	ReleaseReady bool       `json:"release_ready" yaml:"release_ready"`

	HandleOffsetPx float64 `json:"handle_offset_px" yaml:"handle_offset_px"`
	DirectionRatio float64 `json:"direction_ratio" yaml:"direction_ratio"`
	ElapsedMs      float64 `json:"elapsed_ms" yaml:"elapsed_ms"`
	RemainingMs    float64 `json:"remaining_ms" yaml:"remaining_ms"`

	Steps []StepView `json:"steps" yaml:"steps"`
}

// Step returns the view model with the given id.
func (s Snapshot) Step(id string) (StepView, bool) {
	for _, st := range s.Steps {
		if st.ID == id {
			return st, true
		}
	}
	return StepView{}, false
}
