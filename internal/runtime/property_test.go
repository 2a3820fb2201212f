package runtime_test

import (
	"math/rand"
	"testing"

	"github.com/aretw0/ritual/internal/runtime"
	"github.com/aretw0/ritual/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// randomTrace produces a plausible but noisy gesture: mostly the owning pointer, with
// foreign pointers, retreats, large frame gaps and the occasional reset mixed in.
func randomTrace(rng *rand.Rand, n int, withReset bool) []domain.InputEvent {
	events := make([]domain.InputEvent, 0, n)
	for i := 0; i < n; i++ {
		id := 1
		if rng.Intn(8) == 0 {
			id = 2
		}
		x := rng.Float64()*500 - 100
		y := rng.Float64()*300 - 150
		switch k := rng.Intn(20); {
		case k < 2:
			events = append(events, domain.PointerDown(id, x, y))
		case k < 9:
			events = append(events, domain.PointerMove(id, x, y))
		case k < 16:
			events = append(events, domain.HoldTick(id, rng.Float64()*120))
		case k < 18:
			events = append(events, domain.PointerUp(id, x, y))
		case k < 19:
			events = append(events, domain.PointerCancel(id, x, y))
		default:
			if withReset {
				events = append(events, domain.Reset())
			} else {
				events = append(events, domain.HoldTick(id, 16))
			}
		}
	}
	return events
}

func presetsUnderTest(t *testing.T) []domain.Ritual {
	t.Helper()
	rituals := domain.Presets()
	require.Len(t, rituals, 3)
	return rituals
}

func TestProperty_StickinessAndMonotonicity(t *testing.T) {
	for _, r := range presetsUnderTest(t) {
		rng := rand.New(rand.NewSource(7))
		for run := 0; run < 200; run++ {
			state := domain.NewState()
			for _, ev := range randomTrace(rng, 80, false) {
				next := runtime.Transition(state, ev, r).State

				assert.GreaterOrEqual(t, next.Stage.Rank(), state.Stage.Rank(), "%s: stage regressed on %s", r.ID, ev)
				if state.Drag.ThresholdReached {
					assert.True(t, next.Drag.ThresholdReached, "%s: drag flag reverted", r.ID)
				}
				if state.Drag.DirectionValid {
					assert.True(t, next.Drag.DirectionValid, "%s: direction flag reverted", r.ID)
				}
				if state.Hold.ThresholdReached {
					assert.True(t, next.Hold.ThresholdReached, "%s: hold flag reverted", r.ID)
				}
				assert.GreaterOrEqual(t, next.Drag.DistancePx, state.Drag.DistancePx)
				assert.GreaterOrEqual(t, next.Hold.ElapsedMs, state.Hold.ElapsedMs)
				assert.LessOrEqual(t, next.Hold.ElapsedMs, r.Thresholds.HoldDurationMs)
				state = next
			}
		}
	}
}

func TestProperty_SealPrecondition(t *testing.T) {
	for _, r := range presetsUnderTest(t) {
		rng := rand.New(rand.NewSource(11))
		for run := 0; run < 300; run++ {
			state := domain.NewState()
			for _, ev := range randomTrace(rng, 120, true) {
				res := runtime.Transition(state, ev, r)
				if res.State.Sealed() && !state.Sealed() {
					assert.Contains(t, []domain.EventType{domain.EventPointerUp, domain.EventPointerCancel}, ev.Type)
					assert.True(t, state.Drag.ThresholdReached, "%s: sealed without drag", r.ID)
					assert.True(t, state.Hold.ThresholdReached, "%s: sealed without hold", r.ID)
				}
				state = res.State
			}
		}
	}
}

func TestProperty_AtMostOnceBetweenResets(t *testing.T) {
	for _, r := range presetsUnderTest(t) {
		rng := rand.New(rand.NewSource(13))
		for run := 0; run < 200; run++ {
			state := domain.NewState()
			seen := map[string]int{}
			for _, ev := range randomTrace(rng, 150, true) {
				res := runtime.Transition(state, ev, r)
				if ev.Type == domain.EventReset {
					seen = map[string]int{}
					state = res.State
					continue
				}
				for _, s := range res.Signals {
					seen[s.Name()]++
					assert.Equal(t, 1, seen[s.Name()], "%s: %s emitted twice", r.ID, s.Name())
				}
				state = res.State
			}
		}
	}
}

func TestProperty_Idempotence(t *testing.T) {
	for _, r := range presetsUnderTest(t) {
		rng := rand.New(rand.NewSource(17))
		for run := 0; run < 200; run++ {
			state := domain.NewState()
			for _, ev := range randomTrace(rng, 60, true) {
				first := runtime.Transition(state, ev, r)

				switch {
				case ev.Type == domain.EventReset:
					// reset always reports itself; its state is still a fixed point
					again := runtime.Transition(first.State, ev, r)
					assert.Equal(t, first.State, again.State)
				case ev.Type == domain.EventHoldTick && !first.State.Hold.ThresholdReached:
					// hold ticks integrate time until the hold is satisfied
				default:
					again := runtime.Transition(first.State, ev, r)
					assert.Empty(t, again.Signals, "%s: repeated %s emitted signals", r.ID, ev)
					assert.Equal(t, first.State, again.State, "%s: repeated %s drifted", r.ID, ev)
				}
				state = first.State
			}
		}
	}
}

func TestProperty_ForeignPointerRejected(t *testing.T) {
	r := canonical(t)
	rng := rand.New(rand.NewSource(19))
	for run := 0; run < 100; run++ {
		state := domain.NewState()
		for _, ev := range randomTrace(rng, 40, false) {
			state = runtime.Transition(state, ev, r).State
		}
		if !state.PointerActive {
			continue
		}
		foreign := state.ActivePointerID + 100
		for _, ev := range []domain.InputEvent{
			domain.PointerMove(foreign, 400, 0),
			domain.PointerUp(foreign, 400, 0),
			domain.PointerCancel(foreign, 400, 0),
			domain.HoldTick(foreign, 48),
		} {
			res := runtime.Transition(state, ev, r)
			assert.Equal(t, state, res.State)
			assert.Empty(t, res.Signals)
		}
	}
}

func TestProperty_SnapshotAgreesWithState(t *testing.T) {
	for _, r := range presetsUnderTest(t) {
		rng := rand.New(rand.NewSource(23))
		for run := 0; run < 100; run++ {
			state := domain.NewState()
			for _, ev := range randomTrace(rng, 80, true) {
				state = runtime.Transition(state, ev, r).State
				snap := runtime.Project(state, r)

				drag, _ := snap.Step(domain.StepDrag)
				hold, _ := snap.Step(domain.StepHold)
				release, _ := snap.Step(domain.StepRelease)
				assert.Equal(t, state.Drag.ThresholdReached, drag.Status == domain.StepComplete)
				assert.Equal(t, state.Hold.ThresholdReached, hold.Status == domain.StepComplete)
				assert.Equal(t, state.Release.Committed, release.Status == domain.StepComplete)
				assert.Equal(t, state.ReleaseReady(), snap.ReleaseReady)
				if state.Sealed() {
					assert.Equal(t, 1.0, snap.TotalProgress)
				} else {
					assert.LessOrEqual(t, snap.TotalProgress, r.Weights.Cap)
				}
			}
		}
	}
}
