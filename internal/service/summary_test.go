package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timeboxer/internal/config"
	"timeboxer/internal/schedule"
	"timeboxer/internal/store"
)

type memSnapshots struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memSnapshots) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.data[key]
	return raw, ok, nil
}

func (m *memSnapshots) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func newTestPlanner(t *testing.T) (*SummaryService, *schedule.SlotStore, *store.TaskStore, *store.PriorityList, *store.NoteStore) {
	t.Helper()
	snaps := &memSnapshots{data: make(map[string][]byte)}
	cfg := config.Config{StartHour: 9, EndHour: 11, SlotDuration: 30, MaxPriorities: 5, MaxDaysRetention: 7}

	settings := store.NewSettingsStore(cfg, snaps)
	tasks := store.NewTaskStore(snaps)
	priorities := store.NewPriorityList(cfg.MaxPriorities, snaps)
	notes := store.NewNoteStore(snaps)
	slots := schedule.NewSlotStore(priorities, settings, snaps, cfg.MaxDaysRetention)
	slots.GenerateForDate(context.Background(), time.Now())

	return NewSummaryService(slots, tasks, priorities, notes), slots, tasks, priorities, notes
}

func TestDailySummaryEmptyDay(t *testing.T) {
	summary, _, _, _, _ := newTestPlanner(t)
	today := time.Now().Format("2006-01-02")

	got := summary.DailySummary()
	assert.Contains(t, got, "Plan for "+today)
	assert.Contains(t, got, "nothing scheduled")
	assert.Contains(t, got, "Priorities\n  - none set")
	assert.Contains(t, got, "0/4 slots booked")
}

func TestDailySummaryFullDay(t *testing.T) {
	ctx := context.Background()
	summary, slots, tasks, priorities, notes := newTestPlanner(t)
	today := time.Now().Format("2006-01-02")

	report := tasks.Add(ctx, "write report", today)
	tasks.Add(ctx, "sort inbox", today)
	require.True(t, priorities.Add(ctx, report))
	require.True(t, slots.Assign(ctx, report, today+"-09:00"))
	notes.Update(ctx, today, "call the dentist")

	got := summary.DailySummary()
	assert.Contains(t, got, "09:00-09:30  write report *", "priority marker present")
	assert.Contains(t, got, "- sort inbox")
	assert.NotContains(t, got, "- write report", "scheduled task not listed as unscheduled")
	assert.Contains(t, got, "1. write report")
	assert.Contains(t, got, "call the dentist")
	assert.Contains(t, got, "1/4 slots booked, 1 priority, 30 min planned")
}
