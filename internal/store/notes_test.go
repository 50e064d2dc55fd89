package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNoteStore() (*NoteStore, *memSnapshots) {
	snaps := newMemSnapshots()
	s := NewNoteStore(snaps)
	s.now = func() time.Time { return taskNow }
	return s, snaps
}

func TestNoteStoreUpdate(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestNoteStore()

	note := s.Update(ctx, "2024-01-15", "remember the milk")
	assert.Equal(t, "2024-01-15", note.Date)
	assert.Equal(t, "remember the milk", note.Content)
	assert.Equal(t, taskNow, note.CreatedAt)

	later := taskNow.Add(time.Hour)
	s.now = func() time.Time { return later }
	note = s.Update(ctx, "2024-01-15", "remember the milk and bread")
	assert.Equal(t, later, note.UpdatedAt)
	assert.Equal(t, taskNow, note.CreatedAt, "creation time sticks once content exists")
}

func TestNoteStoreCreatedAtResetOnFirstContent(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestNoteStore()
	s.Update(ctx, "2024-01-15", "   ")

	later := taskNow.Add(time.Hour)
	s.now = func() time.Time { return later }
	note := s.Update(ctx, "2024-01-15", "actual content")
	assert.Equal(t, later, note.CreatedAt, "blank note's creation time moves to first real content")
}

func TestNoteStoreClearAndDelete(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestNoteStore()
	s.Update(ctx, "2024-01-15", "something")

	s.Clear(ctx, "2024-01-15")
	assert.Empty(t, s.ForDate("2024-01-15").Content)
	assert.Empty(t, s.AvailableDates())

	assert.False(t, s.DeleteForDate(ctx, "2024-01-20"))
	require.True(t, s.DeleteForDate(ctx, "2024-01-15"))
	assert.Equal(t, "2024-01-15", s.ForDate("2024-01-15").Date, "empty note for unknown date")
}

func TestNoteStoreStats(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestNoteStore()
	s.Update(ctx, "2024-01-15", "abcd")
	s.Update(ctx, "2024-01-16", "abcdefgh")
	s.Update(ctx, "2024-01-17", "   ")

	stats := s.Stats()
	assert.Equal(t, 2, stats.TotalDays, "blank days not counted")
	assert.Equal(t, 12, stats.TotalCharacters)
	assert.Equal(t, 6, stats.AverageLength)

	assert.Equal(t, []string{"2024-01-15", "2024-01-16"}, s.AvailableDates())
}

func TestNoteStoreCleanupOld(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestNoteStore()
	s.Update(ctx, "2024-01-01", "old")
	s.Update(ctx, "2024-01-03", "edge")
	s.Update(ctx, "2024-01-10", "new")

	removed := s.CleanupOld(time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), 7)
	assert.Equal(t, 1, removed)
	assert.Equal(t, []string{"2024-01-03", "2024-01-10"}, s.AvailableDates())
}

func TestNoteStoreLoad(t *testing.T) {
	ctx := context.Background()
	s, snaps := newTestNoteStore()
	s.Update(ctx, "2024-01-15", "persisted")

	reloaded := NewNoteStore(snaps)
	reloaded.Load(ctx)
	assert.Equal(t, "persisted", reloaded.ForDate("2024-01-15").Content)
}

func TestNoteStoreLoadCorruptSnapshot(t *testing.T) {
	ctx := context.Background()
	snaps := newMemSnapshots()
	require.NoError(t, snaps.Put(ctx, notesKey, []byte("broken")))

	s := NewNoteStore(snaps)
	s.Load(ctx)
	assert.Empty(t, s.AvailableDates())
}
