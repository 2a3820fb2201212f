package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aretw0/ritual/pkg/adapters/sqlite"
	"github.com/aretw0/ritual/pkg/domain"
	"github.com/aretw0/ritual/pkg/ports"
	"github.com/aretw0/ritual/pkg/ports/tests"
	"github.com/aretw0/ritual/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ ports.StateStore    = (*sqlite.Store)(nil)
	_ ports.SignalJournal = (*sqlite.Store)(nil)
)

func openTemp(t *testing.T) (*sqlite.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ritual.db")
	store, err := sqlite.Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, path
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := sqlite.Open(context.Background(), " ")
	assert.Error(t, err)
}

func TestSQLiteStore_Contract(t *testing.T) {
	store, _ := openTemp(t)
	ports.RunStateStoreContract(t, store)
}

func TestSQLiteJournal_Contract(t *testing.T) {
	store, _ := openTemp(t)
	tests.SignalJournalContractTest(t, store)
}

func TestSQLiteStore_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	store, path := openTemp(t)

	rec := &domain.SessionRecord{SessionID: "s1", RitualID: domain.PresetSlide13, State: domain.NewState()}
	require.NoError(t, store.Save(ctx, "s1", rec))
	require.NoError(t, store.Emit(ctx, "s1", domain.Signal{Kind: domain.SignalEvidence, Marker: domain.MarkerReset, RitualID: domain.PresetSlide13}))
	require.NoError(t, store.Close())

	reopened, err := sqlite.Open(ctx, path)
	require.NoError(t, err, "migrations are applied once")
	defer reopened.Close()

	loaded, err := reopened.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.PresetSlide13, loaded.RitualID)

	history, err := reopened.History(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"evidence:reset"}, domain.SignalNames(history))
}

func TestSQLiteStore_BacksManager(t *testing.T) {
	ctx := context.Background()
	store, _ := openTemp(t)
	mgr := session.NewManager(store, session.WithJournal(store))

	_, err := mgr.Open(ctx, "s1", domain.PresetFirstProof, nil)
	require.NoError(t, err)
	for _, ev := range []domain.InputEvent{
		domain.PointerDown(1, 0, 0),
		domain.PointerMove(1, 200, 0),
	} {
		_, err := mgr.Dispatch(ctx, "s1", ev)
		require.NoError(t, err)
	}
	require.NoError(t, mgr.Close(ctx, "s1"))

	rec, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.StageDragSatisfied, rec.State.Stage)

	history, err := mgr.History(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"anchor:drag-satisfied", "evidence:drag-satisfied"}, domain.SignalNames(history))

	require.NoError(t, mgr.Delete(ctx, "s1"))
	history, err = store.History(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, history)
}
