package tests

import (
	"context"
	"testing"

	"github.com/aretw0/ritual/pkg/domain"
	"github.com/aretw0/ritual/pkg/ports"
)

// SignalJournalContractTest is a reusable test suite that verifies if an adapter complies with ports.SignalJournal.
func SignalJournalContractTest(t *testing.T, journal ports.SignalJournal) {
	t.Helper()
	ctx := context.Background()

	emitted := []domain.Signal{
		{Kind: domain.SignalAnchor, Marker: "drag-satisfied", RitualID: "first-proof", AnchorID: "first-proof.drag-satisfied", Note: "drag threshold crossed"},
		{Kind: domain.SignalEvidence, Marker: "drag-satisfied", RitualID: "first-proof", Level: domain.LevelInfo, Title: "Drag intent verified", Action: "hold"},
		{Kind: domain.SignalEvidence, Marker: "sealed", RitualID: "first-proof", Level: domain.LevelSuccess, Title: "Sealed", Action: "none"},
	}

	// 1. Emit keeps order per session
	t.Run("Emit_Order", func(t *testing.T) {
		for _, sig := range emitted {
			if err := journal.Emit(ctx, "journal-a", sig); err != nil {
				t.Fatalf("unexpected error emitting %s: %v", sig.Name(), err)
			}
		}
		got, err := journal.History(ctx, "journal-a")
		if err != nil {
			t.Fatalf("unexpected error reading history: %v", err)
		}
		if len(got) != len(emitted) {
			t.Fatalf("expected %d signals, got %d", len(emitted), len(got))
		}
		for i := range emitted {
			if got[i] != emitted[i] {
				t.Errorf("signal %d mismatch. got %+v, want %+v", i, got[i], emitted[i])
			}
		}
	})

	// 2. Sessions are isolated
	t.Run("History_Isolated", func(t *testing.T) {
		if err := journal.Emit(ctx, "journal-b", emitted[0]); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got, err := journal.History(ctx, "journal-b")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 1 {
			t.Errorf("expected 1 signal for journal-b, got %d", len(got))
		}
	})

	// 3. Unknown sessions are empty, not errors
	t.Run("History_Unknown", func(t *testing.T) {
		got, err := journal.History(ctx, "journal-missing")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("expected empty history, got %d", len(got))
		}
	})

	// 4. Forget
	t.Run("Forget", func(t *testing.T) {
		if err := journal.Forget(ctx, "journal-a"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got, _ := journal.History(ctx, "journal-a")
		if len(got) != 0 {
			t.Errorf("expected history to be dropped, got %d", len(got))
		}
		other, _ := journal.History(ctx, "journal-b")
		if len(other) != 1 {
			t.Errorf("forget leaked into another session: %d", len(other))
		}
	})
}
