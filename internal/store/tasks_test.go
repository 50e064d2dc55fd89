package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timeboxer/internal/model"
)

var taskNow = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

func newTestTaskStore() (*TaskStore, *memSnapshots) {
	snaps := newMemSnapshots()
	s := NewTaskStore(snaps)
	s.now = func() time.Time { return taskNow }
	return s, snaps
}

func TestTaskStoreAdd(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestTaskStore()

	created := s.Add(ctx, "  write report  ", "")
	assert.Equal(t, "write report", created.Text)
	assert.Equal(t, "2024-01-15", created.Date, "defaults to today")
	assert.Contains(t, created.ID, "2024-01-15-")

	other := s.Add(ctx, "review notes", "2024-01-16")
	assert.Equal(t, "2024-01-16", other.Date)
	assert.NotEqual(t, created.ID, other.ID)

	assert.Len(t, s.All(), 2)
}

func TestTaskStoreRemoveAndUpdate(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestTaskStore()
	created := s.Add(ctx, "draft email", "")

	assert.False(t, s.Remove(ctx, "missing"))
	assert.False(t, s.UpdateText(ctx, "missing", "x"))
	assert.False(t, s.SetPriorityFlag(ctx, "missing", true))

	require.True(t, s.UpdateText(ctx, created.ID, "send email"))
	require.True(t, s.SetPriorityFlag(ctx, created.ID, true))
	got := s.FindByID(created.ID)
	require.NotNil(t, got)
	assert.Equal(t, "send email", got.Text)
	assert.True(t, got.IsPriority)

	require.True(t, s.Remove(ctx, created.ID))
	assert.Nil(t, s.FindByID(created.ID))
}

func TestTaskStoreForDateSorted(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestTaskStore()

	times := []time.Time{taskNow.Add(2 * time.Minute), taskNow, taskNow.Add(time.Minute)}
	i := 0
	s.now = func() time.Time { t := times[i%len(times)]; i++; return t }

	s.Add(ctx, "third", "2024-01-15")
	s.Add(ctx, "first", "2024-01-15")
	s.Add(ctx, "second", "2024-01-15")
	s.Add(ctx, "elsewhere", "2024-01-16")

	got := s.ForDate("2024-01-15")
	require.Len(t, got, 3)
	assert.Equal(t, "first", got[0].Text)
	assert.Equal(t, "second", got[1].Text)
	assert.Equal(t, "third", got[2].Text)

	assert.Equal(t, []string{"2024-01-15", "2024-01-16"}, s.AvailableDates())
}

func TestTaskStoreCleanupOld(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestTaskStore()
	s.Add(ctx, "ancient", "2024-01-01")
	s.Add(ctx, "cutoff day", "2024-01-03")
	s.Add(ctx, "recent", "2024-01-10")

	removed := s.CleanupOld(time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), 7)
	assert.Equal(t, 1, removed)

	dates := s.AvailableDates()
	assert.Equal(t, []string{"2024-01-03", "2024-01-10"}, dates)
}

func TestTaskStoreLoad(t *testing.T) {
	ctx := context.Background()
	s, snaps := newTestTaskStore()
	s.Add(ctx, "persisted", "2024-01-15")

	reloaded := NewTaskStore(snaps)
	reloaded.now = func() time.Time { return taskNow }
	reloaded.Load(ctx)
	require.Len(t, reloaded.All(), 1)
	assert.Equal(t, "persisted", reloaded.All()[0].Text)
}

func TestTaskStoreLoadMigratesMissingDate(t *testing.T) {
	ctx := context.Background()
	snaps := newMemSnapshots()
	raw, err := json.Marshal([]model.Task{{ID: "legacy", Text: "old", CreatedAt: taskNow}})
	require.NoError(t, err)
	require.NoError(t, snaps.Put(ctx, tasksKey, raw))

	s := NewTaskStore(snaps)
	s.now = func() time.Time { return taskNow }
	s.Load(ctx)

	got := s.FindByID("legacy")
	require.NotNil(t, got)
	assert.Equal(t, "2024-01-15", got.Date)
}

func TestTaskStoreLoadCorruptSnapshot(t *testing.T) {
	ctx := context.Background()
	snaps := newMemSnapshots()
	require.NoError(t, snaps.Put(ctx, tasksKey, []byte("{broken")))

	s := NewTaskStore(snaps)
	s.Load(ctx)
	assert.Empty(t, s.All())
}
