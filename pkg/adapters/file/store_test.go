package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/ritual/pkg/adapters/file"
	"github.com/aretw0/ritual/pkg/domain"
	"github.com/aretw0/ritual/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_Contract(t *testing.T) {
	ports.RunStateStoreContract(t, file.New(t.TempDir()))
}

func TestFileStore_AtomicOverwrite(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	ctx := context.Background()

	rec := &domain.SessionRecord{SessionID: "s1", RitualID: domain.PresetSlide07, State: domain.NewState()}
	require.NoError(t, store.Save(ctx, "s1", rec))
	rec.State.Stage = domain.StageDragging
	require.NoError(t, store.Save(ctx, "s1", rec))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not survive a save")
	assert.Equal(t, "s1.json", entries[0].Name())

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.StageDragging, loaded.State.Stage)
	assert.Equal(t, domain.PresetSlide07, loaded.RitualID)
}

func TestFileStore_List(t *testing.T) {
	dir := t.TempDir()
	store := file.New(filepath.Join(dir, "missing"))
	ctx := context.Background()

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	store = file.New(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tmp-b-123.json"), []byte("{"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	for _, id := range []string{"b", "a"} {
		require.NoError(t, store.Save(ctx, id, &domain.SessionRecord{SessionID: id, RitualID: domain.PresetFirstProof}))
	}

	ids, err = store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)
}

func TestFileStore_InvalidIDs(t *testing.T) {
	store := file.New(t.TempDir())
	ctx := context.Background()

	for _, id := range []string{"", "../escape", `a\b`, ".."} {
		assert.Error(t, store.Save(ctx, id, &domain.SessionRecord{}), id)
		_, err := store.Load(ctx, id)
		assert.Error(t, err, id)
	}
}

func TestFileStore_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("not json"), 0o644))

	_, err := file.New(dir).Load(context.Background(), "bad")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrSessionNotFound)
}
