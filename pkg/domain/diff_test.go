package domain_test

import (
	"testing"

	"github.com/aretw0/ritual/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiff(t *testing.T) {
	t.Run("initial load carries everything", func(t *testing.T) {
		s := domain.NewState()
		d := domain.Diff("s1", nil, &s)
		require.NotNil(t, d)
		assert.Equal(t, "s1", d.SessionID)
		require.NotNil(t, d.Stage)
		assert.Equal(t, domain.StageIdle, *d.Stage)
		assert.NotNil(t, d.Drag)
	})

	t.Run("no change yields nil", func(t *testing.T) {
		s := domain.NewState()
		c := s.Clone()
		assert.Nil(t, domain.Diff("s1", &s, &c))
	})

	t.Run("only changed fields", func(t *testing.T) {
		old := domain.NewState()
		next := old.WithMarker("anchor:drag-satisfied")
		next.Stage = domain.StageDragSatisfied
		next.Drag.ThresholdReached = true

		d := domain.Diff("s1", &old, &next)
		require.NotNil(t, d)
		assert.Equal(t, domain.StageDragSatisfied, *d.Stage)
		assert.True(t, d.Drag.ThresholdReached)
		assert.Nil(t, d.Hold)
		assert.Nil(t, d.PointerActive)
		assert.Equal(t, []string{"anchor:drag-satisfied"}, d.MarkersAdded)
		assert.False(t, d.Reset)
	})

	t.Run("dropped markers flag a reset", func(t *testing.T) {
		old := domain.NewState().WithMarker("evidence:sealed")
		next := domain.NewState()
		d := domain.Diff("s1", &old, &next)
		require.NotNil(t, d)
		assert.True(t, d.Reset)
	})
}
