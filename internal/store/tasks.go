package store

import (
	"context"
	"encoding/json"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"timeboxer/internal/model"
)

const (
	dateLayout    = "2006-01-02"
	tasksKey      = "tasks"
	prioritiesKey = "priorities"
	notesKey      = "notes"
	settingsKey   = "settings"
)

// Snapshots persists whole-collection JSON blobs, best-effort.
type Snapshots interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
}

// TaskStore owns the unstructured task list, partitioned by date.
type TaskStore struct {
	mu        sync.Mutex
	tasks     []model.Task
	snapshots Snapshots
	now       func() time.Time
}

func NewTaskStore(snapshots Snapshots) *TaskStore {
	return &TaskStore{snapshots: snapshots, now: time.Now}
}

// Add captures a new task for the given date (today when empty).
func (s *TaskStore) Add(ctx context.Context, text, date string) model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	if date == "" {
		date = s.now().Format(dateLayout)
	}
	task := model.Task{
		ID:        date + "-" + uuid.NewString(),
		Text:      strings.TrimSpace(text),
		CreatedAt: s.now(),
		Date:      date,
	}
	s.tasks = append(s.tasks, task)
	s.saveLocked(ctx)
	return task
}

// Remove deletes a task by ID.
func (s *TaskStore) Remove(ctx context.Context, taskID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.tasks {
		if s.tasks[i].ID == taskID {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			s.saveLocked(ctx)
			return true
		}
	}
	return false
}

// UpdateText replaces a task's text.
func (s *TaskStore) UpdateText(ctx context.Context, taskID, text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.tasks {
		if s.tasks[i].ID == taskID {
			s.tasks[i].Text = strings.TrimSpace(text)
			s.saveLocked(ctx)
			return true
		}
	}
	return false
}

// SetPriorityFlag records whether the task is currently promoted.
func (s *TaskStore) SetPriorityFlag(ctx context.Context, taskID string, isPriority bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.tasks {
		if s.tasks[i].ID == taskID {
			s.tasks[i].IsPriority = isPriority
			s.saveLocked(ctx)
			return true
		}
	}
	return false
}

// FindByID returns a copy of the task, or nil when unknown.
func (s *TaskStore) FindByID(taskID string) *model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.tasks {
		if s.tasks[i].ID == taskID {
			c := s.tasks[i]
			return &c
		}
	}
	return nil
}

// All returns every task sorted by creation time.
func (s *TaskStore) All() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]model.Task, len(s.tasks))
	copy(result, s.tasks)
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

// ForDate returns the date's tasks sorted by creation time.
func (s *TaskStore) ForDate(date string) []model.Task {
	var result []model.Task
	for _, task := range s.All() {
		if task.Date == date {
			result = append(result, task)
		}
	}
	return result
}

// AvailableDates lists the dates that have tasks, sorted ascending.
func (s *TaskStore) AvailableDates() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool)
	for i := range s.tasks {
		seen[s.tasks[i].Date] = true
	}
	dates := make([]string, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// Clear removes every task.
func (s *TaskStore) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = nil
	s.saveLocked(ctx)
}

// CleanupOld drops tasks dated strictly before today minus maxDays.
func (s *TaskStore) CleanupOld(today time.Time, maxDays int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := today.AddDate(0, 0, -maxDays).Format(dateLayout)
	kept := s.tasks[:0]
	removed := 0
	for _, task := range s.tasks {
		if task.Date != "" && task.Date < cutoff {
			removed++
			continue
		}
		kept = append(kept, task)
	}
	s.tasks = kept
	if removed > 0 {
		log.Printf("[info] cleaned up %d tasks older than %d days", removed, maxDays)
		s.saveLocked(context.Background())
	}
	return removed
}

// Save persists the task list.
func (s *TaskStore) Save(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveLocked(ctx)
}

func (s *TaskStore) saveLocked(ctx context.Context) {
	raw, err := json.Marshal(s.tasks)
	if err != nil {
		log.Printf("[warn] encode tasks: %v", err)
		return
	}
	if err := s.snapshots.Put(ctx, tasksKey, raw); err != nil {
		log.Printf("[warn] save tasks: %v", err)
	}
}

// Load replaces in-memory state with the persisted snapshot; a corrupt
// snapshot leaves an empty list rather than partial state.
func (s *TaskStore) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, found, err := s.snapshots.Get(ctx, tasksKey)
	if err != nil {
		log.Printf("[warn] load tasks: %v", err)
		return
	}
	if !found {
		return
	}
	var tasks []model.Task
	if err := json.Unmarshal(raw, &tasks); err != nil {
		log.Printf("[warn] parse tasks snapshot: %v", err)
		s.tasks = nil
		return
	}
	today := s.now().Format(dateLayout)
	for i := range tasks {
		// Migration: older snapshots may miss the date field.
		if tasks[i].Date == "" {
			tasks[i].Date = today
		}
	}
	s.tasks = tasks
}
