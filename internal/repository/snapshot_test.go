package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *SnapshotRepository {
	t.Helper()
	db, err := NewDB(":memory:")
	require.NoError(t, err)
	return NewSnapshotRepository(db)
}

func TestSnapshotRepositoryMissingKey(t *testing.T) {
	repo := newTestRepo(t)

	raw, found, err := repo.Get(context.Background(), "timeslots")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, raw)
}

func TestSnapshotRepositoryPutGet(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	require.NoError(t, repo.Put(ctx, "tasks", []byte(`[{"id":"t1"}]`)))
	raw, found, err := repo.Get(ctx, "tasks")
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, `[{"id":"t1"}]`, string(raw))

	// A second put replaces the blob.
	require.NoError(t, repo.Put(ctx, "tasks", []byte(`[]`)))
	raw, found, err = repo.Get(ctx, "tasks")
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, `[]`, string(raw))
}

func TestSnapshotRepositoryKeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	require.NoError(t, repo.Put(ctx, "tasks", []byte(`1`)))
	require.NoError(t, repo.Put(ctx, "notes", []byte(`2`)))

	raw, found, err := repo.Get(ctx, "notes")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte(`2`), raw)
}

func TestSnapshotRepositoryDelete(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	require.NoError(t, repo.Put(ctx, "settings", []byte(`{}`)))
	require.NoError(t, repo.Delete(ctx, "settings"))

	_, found, err := repo.Get(ctx, "settings")
	require.NoError(t, err)
	assert.False(t, found)

	// Deleting an absent key is not an error.
	require.NoError(t, repo.Delete(ctx, "settings"))
}
