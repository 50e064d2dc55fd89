package store

import (
	"context"
	"encoding/json"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"timeboxer/internal/model"
)

// NoteStore keeps one free-text note per day.
type NoteStore struct {
	mu        sync.Mutex
	byDate    map[string]*model.DailyNote
	snapshots Snapshots
	now       func() time.Time
}

func NewNoteStore(snapshots Snapshots) *NoteStore {
	return &NoteStore{
		byDate:    make(map[string]*model.DailyNote),
		snapshots: snapshots,
		now:       time.Now,
	}
}

// Update sets the note content for a date, creating the entry on first
// write. The creation timestamp is (re)set when content first becomes
// non-blank, so the note's age reflects real content, not empty edits.
func (s *NoteStore) Update(ctx context.Context, date, content string) model.DailyNote {
	s.mu.Lock()
	defer s.mu.Unlock()

	note, ok := s.byDate[date]
	if !ok {
		note = &model.DailyNote{Date: date, CreatedAt: s.now()}
		s.byDate[date] = note
	}
	wasEmpty := strings.TrimSpace(note.Content) == ""
	note.Content = content
	note.UpdatedAt = s.now()
	if wasEmpty && strings.TrimSpace(content) != "" {
		note.CreatedAt = s.now()
	}
	s.saveLocked(ctx)
	return *note
}

// Clear blanks the note content for a date, keeping the entry.
func (s *NoteStore) Clear(ctx context.Context, date string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if note, ok := s.byDate[date]; ok {
		note.Content = ""
		note.UpdatedAt = s.now()
		s.saveLocked(ctx)
	}
}

// DeleteForDate removes a date's note entirely.
func (s *NoteStore) DeleteForDate(ctx context.Context, date string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byDate[date]; !ok {
		return false
	}
	delete(s.byDate, date)
	s.saveLocked(ctx)
	return true
}

// ForDate returns the date's note, or an empty one when none exists.
func (s *NoteStore) ForDate(date string) model.DailyNote {
	s.mu.Lock()
	defer s.mu.Unlock()

	if note, ok := s.byDate[date]; ok {
		return *note
	}
	return model.DailyNote{Date: date}
}

// AvailableDates lists dates with non-blank notes, sorted ascending.
func (s *NoteStore) AvailableDates() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var dates []string
	for date, note := range s.byDate {
		if strings.TrimSpace(note.Content) != "" {
			dates = append(dates, date)
		}
	}
	sort.Strings(dates)
	return dates
}

// Stats aggregates across all days with content.
func (s *NoteStore) Stats() model.NoteStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stats model.NoteStats
	for _, note := range s.byDate {
		if strings.TrimSpace(note.Content) == "" {
			continue
		}
		stats.TotalDays++
		stats.TotalCharacters += len(note.Content)
	}
	if stats.TotalDays > 0 {
		stats.AverageLength = stats.TotalCharacters / stats.TotalDays
	}
	return stats
}

// CleanupOld drops notes dated strictly before today minus maxDays.
func (s *NoteStore) CleanupOld(today time.Time, maxDays int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := today.AddDate(0, 0, -maxDays).Format(dateLayout)
	removed := 0
	for date := range s.byDate {
		if date < cutoff {
			delete(s.byDate, date)
			removed++
		}
	}
	if removed > 0 {
		log.Printf("[info] cleaned up %d notes older than %d days", removed, maxDays)
		s.saveLocked(context.Background())
	}
	return removed
}

// Save persists all notes.
func (s *NoteStore) Save(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveLocked(ctx)
}

func (s *NoteStore) saveLocked(ctx context.Context) {
	raw, err := json.Marshal(s.byDate)
	if err != nil {
		log.Printf("[warn] encode notes: %v", err)
		return
	}
	if err := s.snapshots.Put(ctx, notesKey, raw); err != nil {
		log.Printf("[warn] save notes: %v", err)
	}
}

// Load restores notes from the snapshot; a corrupt snapshot resets to empty.
func (s *NoteStore) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, found, err := s.snapshots.Get(ctx, notesKey)
	if err != nil {
		log.Printf("[warn] load notes: %v", err)
		return
	}
	if !found {
		return
	}
	byDate := make(map[string]*model.DailyNote)
	if err := json.Unmarshal(raw, &byDate); err != nil {
		log.Printf("[warn] parse notes snapshot: %v", err)
		s.byDate = make(map[string]*model.DailyNote)
		return
	}
	s.byDate = byDate
}
