package domain

// Stage is the coarse position of a ritual in its lifecycle.
type Stage string

const (
	StageIdle          Stage = "idle"
	StageDragging      Stage = "dragging"
	StageDragSatisfied Stage = "drag-satisfied"
	StageHolding       Stage = "holding"
	StageHoldSatisfied Stage = "hold-satisfied"
	StageSealed        Stage = "sealed"
)

// Stages lists every stage in ascending order.
var Stages = []Stage{
	StageIdle,
	StageDragging,
	StageDragSatisfied,
	StageHolding,
	StageHoldSatisfied,
	StageSealed,
}

// Rank returns the position of the stage in the ordering. Unknown stages rank -1.
func (s Stage) Rank() int {
	for i, st := range Stages {
		if st == s {
			return i
		}
	}
	return -1
}

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool {
	return s.Rank() >= 0
}

// NormalizeStage returns whichever of current and next ranks higher.
// Every transition except reset derives its stage through this helper, which is what
// keeps the stage non-decreasing within a session.
func NormalizeStage(current, next Stage) Stage {
	if next.Rank() > current.Rank() {
		return next
	}
	if !current.Valid() {
		return StageIdle
	}
	return current
}
