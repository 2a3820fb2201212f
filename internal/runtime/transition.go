package runtime

import (
	"math"

	"github.com/aretw0/ritual/pkg/domain"
)

// Result is the outcome of one transition.
// Rejected events return the input state untouched, no signals and Accepted=false.
type Result struct {
	State    domain.RitualState
	Signals  []domain.Signal
	Accepted bool
}

// Transition is the pure reducer of the ritual state machine.
// It never reads clocks, never panics on bad input and never mutates state in place.
func Transition(state domain.RitualState, ev domain.InputEvent, ritual domain.Ritual) Result {
	switch ev.Type {
	case domain.EventPointerDown:
		return pointerDown(state, ev)
	case domain.EventPointerMove:
		return pointerMove(state, ev, ritual)
	case domain.EventPointerUp, domain.EventPointerCancel:
		return pointerRelease(state, ev, ritual)
	case domain.EventHoldTick:
		return holdTick(state, ev, ritual)
	case domain.EventReset:
		return Result{
			State:    domain.NewState(),
			Signals:  []domain.Signal{resetSignal(ritual)},
			Accepted: true,
		}
	default:
		return reject(state)
	}
}

func reject(state domain.RitualState) Result {
	return Result{State: state}
}

func pointerDown(s domain.RitualState, ev domain.InputEvent) Result {
	if s.Sealed() || s.PointerActive || !finitePoint(ev) {
		return reject(s)
	}

	next := s.Clone()
	next.PointerActive = true
	next.ActivePointerID = ev.PointerID
	p := domain.Point{X: ev.X, Y: ev.Y}
	next.Origin = p
	next.Current = p
	next.Release.Blocked = false
	next.Stage = domain.NormalizeStage(s.Stage, resolveStage(next))

	return Result{State: next, Accepted: true}
}

func pointerMove(s domain.RitualState, ev domain.InputEvent, ritual domain.Ritual) Result {
	if s.Sealed() || !ownsPointer(s, ev) || !finitePoint(ev) {
		return reject(s)
	}
	th := ritual.Thresholds

	next := s.Clone()
	next.Current = domain.Point{X: ev.X, Y: ev.Y}

	dx := domain.Clamp(ev.X-s.Origin.X, 0, th.DragMaxTravelPx)
	dy := ev.Y - s.Origin.Y
	next.Drag.DxPx = dx
	next.Drag.DyPx = dy
	next.Drag.DirectionRatio = directionRatio(dx, dy)

	if next.Drag.DirectionRatio >= th.DragDirectionRatio {
		next.Drag.DirectionValid = true
	}
	next.Drag.DistancePx = math.Max(s.Drag.DistancePx, dx)
	if next.Drag.DistancePx >= th.DragThresholdPx && next.Drag.DirectionValid {
		next.Drag.ThresholdReached = true
	}
	next.Stage = domain.NormalizeStage(s.Stage, resolveStage(next))

	if s.Drag.ThresholdReached || !next.Drag.ThresholdReached {
		return Result{State: next, Accepted: true}
	}
	next, signals := emit(next, dragSatisfiedBundle(next, ritual)...)
	return Result{State: next, Signals: signals, Accepted: true}
}

func holdTick(s domain.RitualState, ev domain.InputEvent, ritual domain.Ritual) Result {
	if s.Sealed() || !ownsPointer(s, ev) || !s.Drag.ThresholdReached {
		return reject(s)
	}
	// Accrual is finished once the hold is satisfied; further ticks change nothing.
	if s.Hold.ThresholdReached || math.IsNaN(ev.DeltaMs) {
		return reject(s)
	}
	th := ritual.Thresholds

	next := s.Clone()
	delta := domain.Clamp(ev.DeltaMs, 0, th.HoldTickClampMs)
	next.Hold.ElapsedMs = domain.Clamp(s.Hold.ElapsedMs+delta, 0, th.HoldDurationMs)
	next.Hold.TickCount++

	if next.Hold.ElapsedMs >= th.HoldDurationMs {
		next.Hold.ThresholdReached = true
	}
	next.Stage = domain.NormalizeStage(s.Stage, resolveStage(next))

	if !next.Hold.ThresholdReached {
		return Result{State: next, Accepted: true}
	}
	next, signals := emit(next, holdSatisfiedBundle(next, ritual)...)
	return Result{State: next, Signals: signals, Accepted: true}
}

func pointerRelease(s domain.RitualState, ev domain.InputEvent, ritual domain.Ritual) Result {
	if !ownsPointer(s, ev) || !finitePoint(ev) {
		return reject(s)
	}

	next := s.Clone()
	next.Current = domain.Point{X: ev.X, Y: ev.Y}
	next.PointerActive = false
	next.ActivePointerID = 0
	next.Release.Attempted = true

	// Both thresholds must already hold in the state that receives the release.
	if s.ReleaseReady() {
		next.Release.Committed = true
		next.Release.Blocked = false
		next.Stage = domain.NormalizeStage(s.Stage, domain.StageSealed)
		next, signals := emit(next, sealBundle(next, ritual)...)
		return Result{State: next, Signals: signals, Accepted: true}
	}

	next.Release.Blocked = true
	next.Stage = domain.NormalizeStage(s.Stage, resolveStage(next))
	next, signals := emit(next, releaseBlockedBundle(next, ritual)...)
	return Result{State: next, Signals: signals, Accepted: true}
}

// resolveStage derives the stage the metrics alone justify. Callers pass the result
// through domain.NormalizeStage so the stage never moves backwards.
func resolveStage(s domain.RitualState) domain.Stage {
	switch {
	case s.Release.Committed:
		return domain.StageSealed
	case s.Hold.ThresholdReached:
		return domain.StageHoldSatisfied
	case s.Drag.ThresholdReached && s.Hold.TickCount > 0:
		return domain.StageHolding
	case s.Drag.ThresholdReached:
		return domain.StageDragSatisfied
	case s.PointerActive || s.Drag.DistancePx > 0:
		return domain.StageDragging
	default:
		return domain.StageIdle
	}
}

// directionRatio is the L1 share of rightward motion: dx / (|dx| + |dy|).
// Upward and downward drift penalize the ratio equally.
func directionRatio(dx, dy float64) float64 {
	denom := math.Abs(dx) + math.Abs(dy)
	if denom == 0 {
		return 0
	}
	return domain.Clamp(dx/denom, 0, 1)
}

func ownsPointer(s domain.RitualState, ev domain.InputEvent) bool {
	return s.PointerActive && ev.PointerID == s.ActivePointerID
}

func finitePoint(ev domain.InputEvent) bool {
	return !math.IsNaN(ev.X) && !math.IsInf(ev.X, 0) && !math.IsNaN(ev.Y) && !math.IsInf(ev.Y, 0)
}

// emit appends the candidates whose name has not been emitted in this session yet and
// records them in the marker set.
func emit(s domain.RitualState, candidates ...domain.Signal) (domain.RitualState, []domain.Signal) {
	var out []domain.Signal
	for _, c := range candidates {
		name := c.Name()
		if s.HasMarker(name) {
			continue
		}
		s = s.WithMarker(name)
		out = append(out, c)
	}
	return s, out
}
