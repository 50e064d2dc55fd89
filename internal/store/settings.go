package store

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"timeboxer/internal/config"
	"timeboxer/internal/model"
	"timeboxer/internal/schedule"
)

// weekdaysMonToFri is the default working week for the day grid.
var weekdaysMonToFri = []int{1, 2, 3, 4, 5}

// SettingsStore keeps the user-tunable grid settings as overrides on top
// of the configured defaults, plus the ordered list of recurring blocked
// periods. It serves the scheduler as its rule source.
type SettingsStore struct {
	mu        sync.Mutex
	defaults  config.Config
	snapshots Snapshots

	maxPriorities *int
	startHour     *int
	endHour       *int
	slotDuration  *int
	blockedSlots  []model.BlockedSlot

	now func() time.Time
}

type settingsSnapshot struct {
	MaxPriorities *int                `json:"maxPriorities"`
	StartHour     *int                `json:"startHour"`
	EndHour       *int                `json:"endHour"`
	SlotDuration  *int                `json:"slotDuration"`
	BlockedSlots  []model.BlockedSlot `json:"blockedSlots"`
	LastUpdated   time.Time           `json:"lastUpdated"`
}

func NewSettingsStore(defaults config.Config, snapshots Snapshots) *SettingsStore {
	return &SettingsStore{
		defaults:  defaults,
		snapshots: snapshots,
		now:       time.Now,
	}
}

// MaxPriorities returns the effective priority capacity, clamped to 1..10.
func (s *SettingsStore) MaxPriorities() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.defaults.MaxPriorities
	if s.maxPriorities != nil {
		v = *s.maxPriorities
	}
	return clamp(v, 1, 10)
}

// StartHour returns the effective grid start hour.
func (s *SettingsStore) StartHour() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.startHour != nil {
		return *s.startHour
	}
	return s.defaults.StartHour
}

// EndHour returns the effective grid end hour.
func (s *SettingsStore) EndHour() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.endHour != nil {
		return *s.endHour
	}
	return s.defaults.EndHour
}

// SlotDuration returns the effective slot length in minutes.
func (s *SettingsStore) SlotDuration() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.slotDuration != nil {
		return *s.slotDuration
	}
	return s.defaults.SlotDuration
}

// GridConfig assembles the current day-grid configuration.
func (s *SettingsStore) GridConfig() model.GridConfig {
	return model.GridConfig{
		StartHour:    s.StartHour(),
		EndHour:      s.EndHour(),
		SlotDuration: s.SlotDuration(),
		IncludedDays: weekdaysMonToFri,
	}
}

// UpdateMaxPriorities overrides the priority capacity, clamped to 1..10.
func (s *SettingsStore) UpdateMaxPriorities(ctx context.Context, value int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := clamp(value, 1, 10)
	s.maxPriorities = &v
	s.saveLocked(ctx)
}

// TimeGridUpdate carries optional overrides; nil fields stay unchanged.
type TimeGridUpdate struct {
	StartHour    *int
	EndHour      *int
	SlotDuration *int
}

// UpdateTimeGrid applies grid overrides. Callers regenerate the current
// date's slots afterwards so the new grid takes effect.
func (s *SettingsStore) UpdateTimeGrid(ctx context.Context, update TimeGridUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if update.StartHour != nil {
		s.startHour = update.StartHour
	}
	if update.EndHour != nil {
		s.endHour = update.EndHour
	}
	if update.SlotDuration != nil {
		s.slotDuration = update.SlotDuration
	}
	s.saveLocked(ctx)
}

// ResetToDefaults clears every override.
func (s *SettingsStore) ResetToDefaults(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.maxPriorities = nil
	s.startHour = nil
	s.endHour = nil
	s.slotDuration = nil
	s.saveLocked(ctx)
}

// AddBlockedSlot appends a recurring blocked period to the rule list.
// Rules keep insertion order; the first matching rule wins on overlap.
func (s *SettingsStore) AddBlockedSlot(ctx context.Context, title, startTime, endTime string, daysOfWeek []int) model.BlockedSlot {
	s.mu.Lock()
	defer s.mu.Unlock()

	rule := model.BlockedSlot{
		ID:         uuid.NewString(),
		Title:      strings.TrimSpace(title),
		StartTime:  startTime,
		EndTime:    endTime,
		DaysOfWeek: append([]int(nil), daysOfWeek...),
		Enabled:    true,
		CreatedAt:  s.now(),
	}
	s.blockedSlots = append(s.blockedSlots, rule)
	s.saveLocked(ctx)
	return rule
}

// UpdateBlockedSlot replaces a rule in place, preserving its position.
func (s *SettingsStore) UpdateBlockedSlot(ctx context.Context, rule model.BlockedSlot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.blockedSlots {
		if s.blockedSlots[i].ID == rule.ID {
			rule.CreatedAt = s.blockedSlots[i].CreatedAt
			s.blockedSlots[i] = rule
			s.saveLocked(ctx)
			return true
		}
	}
	return false
}

// RemoveBlockedSlot deletes a rule by ID.
func (s *SettingsStore) RemoveBlockedSlot(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.blockedSlots {
		if s.blockedSlots[i].ID == id {
			s.blockedSlots = append(s.blockedSlots[:i], s.blockedSlots[i+1:]...)
			s.saveLocked(ctx)
			return true
		}
	}
	return false
}

// SetBlockedSlotEnabled toggles a rule without moving it.
func (s *SettingsStore) SetBlockedSlotEnabled(ctx context.Context, id string, enabled bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.blockedSlots {
		if s.blockedSlots[i].ID == id {
			s.blockedSlots[i].Enabled = enabled
			s.saveLocked(ctx)
			return true
		}
	}
	return false
}

// BlockedSlots returns a copy of all rules in insertion order.
func (s *SettingsStore) BlockedSlots() []model.BlockedSlot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.BlockedSlot(nil), s.blockedSlots...)
}

// EnabledBlockedSlots returns the enabled rules in insertion order.
func (s *SettingsStore) EnabledBlockedSlots() []model.BlockedSlot {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rules []model.BlockedSlot
	for _, rule := range s.blockedSlots {
		if rule.Enabled {
			rules = append(rules, rule)
		}
	}
	return rules
}

// BlockingActivity returns the first enabled rule covering the weekday and
// half-open time range, or nil when nothing blocks it.
func (s *SettingsStore) BlockingActivity(weekday int, startTime, endTime string) *model.BlockedSlot {
	return schedule.FindBlockingRule(weekday, startTime, endTime, s.EnabledBlockedSlots())
}

// Save persists overrides and blocked rules together.
func (s *SettingsStore) Save(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveLocked(ctx)
}

func (s *SettingsStore) saveLocked(ctx context.Context) {
	snap := settingsSnapshot{
		MaxPriorities: s.maxPriorities,
		StartHour:     s.startHour,
		EndHour:       s.endHour,
		SlotDuration:  s.slotDuration,
		BlockedSlots:  s.blockedSlots,
		LastUpdated:   s.now(),
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		log.Printf("[warn] encode settings: %v", err)
		return
	}
	if err := s.snapshots.Put(ctx, settingsKey, raw); err != nil {
		log.Printf("[warn] save settings: %v", err)
	}
}

// Load restores overrides and rules; a corrupt snapshot resets to defaults.
func (s *SettingsStore) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, found, err := s.snapshots.Get(ctx, settingsKey)
	if err != nil {
		log.Printf("[warn] load settings: %v", err)
		return
	}
	if !found {
		return
	}
	var snap settingsSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		log.Printf("[warn] parse settings snapshot: %v", err)
		s.maxPriorities = nil
		s.startHour = nil
		s.endHour = nil
		s.slotDuration = nil
		s.blockedSlots = nil
		return
	}
	s.maxPriorities = snap.MaxPriorities
	s.startHour = snap.StartHour
	s.endHour = snap.EndHour
	s.slotDuration = snap.SlotDuration
	s.blockedSlots = snap.BlockedSlots
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
