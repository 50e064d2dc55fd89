package schedule

import (
	"context"
	"encoding/json"
	"log"
	"sort"
	"sync"
	"time"

	"timeboxer/internal/model"
)

const (
	dateLayout     = "2006-01-02"
	snapshotKey    = "timeslots"
	lockNotePrefix = "🔒 "
)

// PriorityLookup resolves whether a task currently sits in the priority
// list. Consulted once at assignment time; the stored copy is a snapshot,
// not live-bound.
type PriorityLookup interface {
	FindTaskByID(id string) *model.Task
}

// RuleSource supplies the day-grid configuration and the ordered set of
// enabled blocked-period rules.
type RuleSource interface {
	GridConfig() model.GridConfig
	EnabledBlockedSlots() []model.BlockedSlot
}

// Sweeper is implemented by collaborating stores that prune date-partitioned
// data older than the retention threshold.
type Sweeper interface {
	CleanupOld(today time.Time, maxDays int) int
}

// Snapshots persists whole-collection JSON blobs. Writes are best-effort:
// the in-memory state stays authoritative when persistence fails.
type Snapshots interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
}

type slotSnapshot struct {
	Slots       []model.TimeSlot `json:"timeSlots"`
	CurrentDate time.Time        `json:"currentDate"`
	GridConfig  model.GridConfig `json:"gridConfig"`
}

// SlotStore owns the per-date slot collections, the availability rules
// derived from blocked periods, and the undo/redo history of task
// placements. Collaborators are injected at construction; the store never
// reaches into other subsystems at call time.
type SlotStore struct {
	mu          sync.Mutex
	slots       []model.TimeSlot
	currentDate time.Time
	hist        history

	priorities PriorityLookup
	rules      RuleSource
	snapshots  Snapshots
	sweepers   []Sweeper

	maxDaysRetention int
	now              func() time.Time
}

func NewSlotStore(priorities PriorityLookup, rules RuleSource, snapshots Snapshots, maxDaysRetention int) *SlotStore {
	return &SlotStore{
		priorities:       priorities,
		rules:            rules,
		snapshots:        snapshots,
		maxDaysRetention: maxDaysRetention,
		currentDate:      time.Now(),
		now:              time.Now,
	}
}

// RegisterSweeper adds a collaborating store to the lazy retention pass
// that runs before grid generation.
func (s *SlotStore) RegisterSweeper(sw Sweeper) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepers = append(s.sweepers, sw)
}

// CurrentDate returns the date the store is focused on.
func (s *SlotStore) CurrentDate() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentDate
}

// GenerateForDate builds the slot grid for date unless slots already exist
// for it, in which case it is a no-op that preserves user-entered state.
// Every call first runs the retention sweep on this store and all
// registered collaborators.
func (s *SlotStore) GenerateForDate(ctx context.Context, date time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generateForDateLocked(ctx, date)
}

func (s *SlotStore) generateForDateLocked(ctx context.Context, date time.Time) {
	today := s.now()
	s.cleanupLocked(today, s.maxDaysRetention)
	for _, sw := range s.sweepers {
		sw.CleanupOld(today, s.maxDaysRetention)
	}

	dateStr := date.Format(dateLayout)
	for i := range s.slots {
		if s.slots[i].Date() == dateStr {
			// Idempotent: the date already has a grid.
			return
		}
	}

	cfg := s.rules.GridConfig()
	rules := s.rules.EnabledBlockedSlots()
	weekday := int(date.Weekday())

	grid := GenerateGrid(dateStr, cfg)
	for i := range grid {
		if rule := FindBlockingRule(weekday, grid[i].StartTime, grid[i].EndTime, rules); rule != nil {
			grid[i].IsAvailable = false
			grid[i].Notes = lockNotePrefix + rule.Title
		}
	}
	s.slots = append(s.slots, grid...)
	s.saveLocked(ctx)
}

// Assign places a copy of task into the slot. It fails without mutation if
// the slot does not exist, is unavailable, or already holds a task. A task
// may occupy several slots at once; a slot holds at most one task. The
// copy's priority flag is refreshed from the priority lookup.
func (s *SlotStore) Assign(ctx context.Context, task model.Task, slotID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.assignLocked(ctx, task, slotID)
}

func (s *SlotStore) assignLocked(ctx context.Context, task model.Task, slotID string) bool {
	idx := s.indexOf(slotID)
	if idx == -1 {
		return false
	}
	slot := &s.slots[idx]
	if !slot.IsAvailable || slot.Task != nil {
		return false
	}

	stored := task
	stored.IsPriority = s.priorities.FindTaskByID(task.ID) != nil
	slot.Task = &stored

	s.hist.push(HistoryEntry{
		Label: "assign",
		At:    s.now(),
		Changes: []SlotChange{
			{SlotID: slotID, BeforeTask: nil, AfterTask: stored.Clone()},
		},
	})
	s.saveLocked(ctx)
	return true
}

// Remove clears the slot's task. It reports whether the slot exists;
// removing from an already-empty slot succeeds without recording history.
func (s *SlotStore) Remove(ctx context.Context, slotID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(slotID)
	if idx == -1 {
		return false
	}
	before := s.slots[idx].Task
	s.slots[idx].Task = nil
	s.saveLocked(ctx)

	if before != nil {
		s.hist.push(HistoryEntry{
			Label: "remove",
			At:    s.now(),
			Changes: []SlotChange{
				{SlotID: slotID, BeforeTask: before, AfterTask: nil},
			},
		})
	}
	return true
}

// RemoveFromAllSlots clears every slot holding the task, grouped into one
// undoable action. Returns the number of slots cleared.
func (s *SlotStore) RemoveFromAllSlots(ctx context.Context, taskID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var changes []SlotChange
	for i := range s.slots {
		if s.slots[i].Task != nil && s.slots[i].Task.ID == taskID {
			changes = append(changes, SlotChange{
				SlotID:     s.slots[i].ID,
				BeforeTask: s.slots[i].Task,
				AfterTask:  nil,
			})
			s.slots[i].Task = nil
		}
	}
	if len(changes) == 0 {
		return 0
	}
	s.saveLocked(ctx)
	s.hist.push(HistoryEntry{Label: "remove_all", At: s.now(), Changes: changes})
	return len(changes)
}

// Move reassigns a task from sourceSlotID (optional, empty for a fresh
// placement) to targetSlotID as one transactional action: the target is
// validated before the source is touched, so a failed move leaves both
// slots unchanged. Recorded as a single grouped history entry.
func (s *SlotStore) Move(ctx context.Context, task model.Task, targetSlotID, sourceSlotID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if targetSlotID == sourceSlotID {
		return true
	}
	targetIdx := s.indexOf(targetSlotID)
	if targetIdx == -1 {
		return false
	}
	target := &s.slots[targetIdx]
	if !target.IsAvailable || target.Task != nil {
		return false
	}

	var changes []SlotChange
	if sourceSlotID != "" {
		if srcIdx := s.indexOf(sourceSlotID); srcIdx != -1 && s.slots[srcIdx].Task != nil {
			changes = append(changes, SlotChange{
				SlotID:     sourceSlotID,
				BeforeTask: s.slots[srcIdx].Task,
				AfterTask:  nil,
			})
			s.slots[srcIdx].Task = nil
		}
	}

	stored := task
	stored.IsPriority = s.priorities.FindTaskByID(task.ID) != nil
	target.Task = &stored
	changes = append(changes, SlotChange{
		SlotID:     targetSlotID,
		BeforeTask: nil,
		AfterTask:  stored.Clone(),
	})

	s.hist.push(HistoryEntry{Label: "move", At: s.now(), Changes: changes})
	s.saveLocked(ctx)
	return true
}

// SetAvailability toggles a slot's availability directly. Not undo-tracked:
// only task changes enter the history.
func (s *SlotStore) SetAvailability(ctx context.Context, slotID string, available bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(slotID)
	if idx == -1 {
		return false
	}
	s.slots[idx].IsAvailable = available
	s.saveLocked(ctx)
	return true
}

// UpdateNotes replaces a slot's free-text notes. Not undo-tracked.
func (s *SlotStore) UpdateNotes(ctx context.Context, slotID, notes string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(slotID)
	if idx == -1 {
		return false
	}
	s.slots[idx].Notes = notes
	s.saveLocked(ctx)
	return true
}

// ClearAll empties every occupied slot across all dates in one grouped
// history entry. Returns the number of slots cleared.
func (s *SlotStore) ClearAll(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var changes []SlotChange
	for i := range s.slots {
		if s.slots[i].Task != nil {
			changes = append(changes, SlotChange{
				SlotID:     s.slots[i].ID,
				BeforeTask: s.slots[i].Task,
				AfterTask:  nil,
			})
			s.slots[i].Task = nil
		}
	}
	s.saveLocked(ctx)
	if len(changes) > 0 {
		s.hist.push(HistoryEntry{Label: "clear_all", At: s.now(), Changes: changes})
	}
	return len(changes)
}

// RecomputeBlockedStatus re-evaluates the blocked-period rules against every
// slot of date. Only vacant slots change: a newly covered one becomes
// unavailable with a lock annotation, a no-longer-covered one becomes
// available again and loses its annotation. Occupied slots keep their task
// and availability untouched.
func (s *SlotStore) RecomputeBlockedStatus(ctx context.Context, date time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dateStr := date.Format(dateLayout)
	weekday := int(date.Weekday())
	rules := s.rules.EnabledBlockedSlots()

	for i := range s.slots {
		slot := &s.slots[i]
		if slot.Date() != dateStr || slot.Task != nil {
			continue
		}
		rule := FindBlockingRule(weekday, slot.StartTime, slot.EndTime, rules)
		switch {
		case rule != nil:
			slot.IsAvailable = false
			slot.Notes = lockNotePrefix + rule.Title
		default:
			slot.IsAvailable = true
			if len(slot.Notes) >= len(lockNotePrefix) && slot.Notes[:len(lockNotePrefix)] == lockNotePrefix {
				slot.Notes = ""
			}
		}
	}
	s.saveLocked(ctx)
}

// AdjacentSlots returns the slots immediately before and after the given
// slot within its date, by position in the date's ordered sequence. Either
// side is nil at a boundary or when the slot is unknown.
func (s *SlotStore) AdjacentSlots(slotID string) (before, after *model.TimeSlot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(slotID)
	if idx == -1 {
		return nil, nil
	}
	day := s.daySlotIndexesLocked(s.slots[idx].Date())
	for pos, i := range day {
		if i != idx {
			continue
		}
		if pos > 0 {
			before = cloneSlot(s.slots[day[pos-1]])
		}
		if pos < len(day)-1 {
			after = cloneSlot(s.slots[day[pos+1]])
		}
		break
	}
	return before, after
}

// AvailableAdjacentSlotsForTask unions the vacant, available neighbors of
// every current-date slot the task occupies. The UI uses this to let a task
// grow into adjoining free slots.
func (s *SlotStore) AvailableAdjacentSlotsForTask(taskID string) []model.TimeSlot {
	s.mu.Lock()
	defer s.mu.Unlock()

	day := s.daySlotIndexesLocked(s.currentDate.Format(dateLayout))
	candidates := make(map[int]bool)
	for pos, i := range day {
		if s.slots[i].Task == nil || s.slots[i].Task.ID != taskID {
			continue
		}
		if pos > 0 {
			candidates[day[pos-1]] = true
		}
		if pos < len(day)-1 {
			candidates[day[pos+1]] = true
		}
	}

	var result []model.TimeSlot
	for _, i := range day {
		if candidates[i] && s.slots[i].IsAvailable && s.slots[i].Task == nil {
			result = append(result, *cloneSlot(s.slots[i]))
		}
	}
	return result
}

// CanUndo reports whether an undoable action exists.
func (s *SlotStore) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.hist.past) > 0
}

// CanRedo reports whether an undone action can be replayed.
func (s *SlotStore) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.hist.future) > 0
}

// Undo reverts the most recent slot mutation by replaying the recorded
// before-state. Fails only when the history is empty.
func (s *SlotStore) Undo(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.hist.popPast()
	if !ok {
		return false
	}
	s.applyChangesLocked(ctx, entry.Changes, false)
	s.hist.future = append(s.hist.future, entry)
	return true
}

// Redo replays the most recently undone mutation. Fails when nothing was
// undone since the last forward action.
func (s *SlotStore) Redo(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.hist.popFuture()
	if !ok {
		return false
	}
	s.applyChangesLocked(ctx, entry.Changes, true)
	s.hist.past = append(s.hist.past, entry)
	return true
}

// applyChangesLocked writes recorded task snapshots straight into the slots
// through forceSetTask, bypassing availability validation. Undo must restore
// the exact prior state even when the rules changed in the meantime.
func (s *SlotStore) applyChangesLocked(ctx context.Context, changes []SlotChange, forward bool) {
	applied := false
	for _, ch := range changes {
		task := ch.BeforeTask
		if forward {
			task = ch.AfterTask
		}
		if s.forceSetTask(ch.SlotID, task.Clone()) {
			applied = true
		}
	}
	if applied {
		s.saveLocked(ctx)
	}
}

// forceSetTask is the internal replay primitive: a direct field write with
// no availability or occupancy checks. Only undo/redo may use it.
func (s *SlotStore) forceSetTask(slotID string, task *model.Task) bool {
	idx := s.indexOf(slotID)
	if idx == -1 {
		return false
	}
	s.slots[idx].Task = task
	return true
}

// SetCurrentDate focuses the store on date, generating its grid if needed.
func (s *SlotStore) SetCurrentDate(ctx context.Context, date time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentDate = date
	s.generateForDateLocked(ctx, date)
}

// GoToPreviousDay moves the focus one day back.
func (s *SlotStore) GoToPreviousDay(ctx context.Context) {
	s.SetCurrentDate(ctx, s.CurrentDate().AddDate(0, 0, -1))
}

// GoToNextDay moves the focus one day forward.
func (s *SlotStore) GoToNextDay(ctx context.Context) {
	s.SetCurrentDate(ctx, s.CurrentDate().AddDate(0, 0, 1))
}

// GoToToday moves the focus to the current day.
func (s *SlotStore) GoToToday(ctx context.Context) {
	s.SetCurrentDate(ctx, s.now())
}

// RegenerateCurrentSlots drops the current date's slots and rebuilds them
// with the latest grid configuration. Used after settings changes.
func (s *SlotStore) RegenerateCurrentSlots(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dateStr := s.currentDate.Format(dateLayout)
	kept := s.slots[:0]
	for _, slot := range s.slots {
		if slot.Date() != dateStr {
			kept = append(kept, slot)
		}
	}
	s.slots = kept
	s.generateForDateLocked(ctx, s.currentDate)
}

// AvailableDates lists every date that has slots, plus the current date,
// sorted ascending.
func (s *SlotStore) AvailableDates() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := map[string]bool{s.currentDate.Format(dateLayout): true}
	for i := range s.slots {
		seen[s.slots[i].Date()] = true
	}
	dates := make([]string, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// TodaySlots returns copies of the current date's slots in grid order.
func (s *SlotStore) TodaySlots() []model.TimeSlot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.daySlotsLocked(s.currentDate.Format(dateLayout))
}

// AvailableSlots returns the current date's vacant, available slots.
func (s *SlotStore) AvailableSlots() []model.TimeSlot {
	var result []model.TimeSlot
	for _, slot := range s.TodaySlots() {
		if slot.IsAvailable && slot.Task == nil {
			result = append(result, slot)
		}
	}
	return result
}

// OccupiedSlots returns the current date's slots that hold a task.
func (s *SlotStore) OccupiedSlots() []model.TimeSlot {
	var result []model.TimeSlot
	for _, slot := range s.TodaySlots() {
		if slot.Task != nil {
			result = append(result, slot)
		}
	}
	return result
}

// AssignedTasks lists the current date's task placements sorted by start time.
func (s *SlotStore) AssignedTasks() []model.TaskAssignment {
	var result []model.TaskAssignment
	for _, slot := range s.OccupiedSlots() {
		result = append(result, model.TaskAssignment{
			Task:      slot.Task,
			SlotID:    slot.ID,
			StartTime: slot.StartTime,
			EndTime:   slot.EndTime,
		})
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].StartTime < result[j].StartTime
	})
	return result
}

// UniqueAssignedTasks groups the current date's placements by task, each
// group's slots in time order. First appearance decides group order.
func (s *SlotStore) UniqueAssignedTasks() []model.TaskSchedule {
	var order []string
	groups := make(map[string]*model.TaskSchedule)
	for _, a := range s.AssignedTasks() {
		g, ok := groups[a.Task.ID]
		if !ok {
			g = &model.TaskSchedule{Task: a.Task}
			groups[a.Task.ID] = g
			order = append(order, a.Task.ID)
		}
		g.Slots = append(g.Slots, a)
	}
	result := make([]model.TaskSchedule, 0, len(order))
	for _, id := range order {
		result = append(result, *groups[id])
	}
	return result
}

// Stats summarizes the current date's grid occupancy.
func (s *SlotStore) Stats() model.TimeboxStats {
	slots := s.TodaySlots()
	cfg := s.rules.GridConfig()

	stats := model.TimeboxStats{TotalSlots: len(slots)}
	for _, slot := range slots {
		if slot.Task == nil {
			continue
		}
		stats.OccupiedSlots++
		if slot.Task.IsPriority {
			stats.PriorityTasksScheduled++
		}
	}
	stats.FreeSlots = stats.TotalSlots - stats.OccupiedSlots
	stats.TotalScheduledMinutes = stats.OccupiedSlots * cfg.SlotDuration
	return stats
}

// FindSlotByID returns a copy of the slot, or nil if unknown.
func (s *SlotStore) FindSlotByID(slotID string) *model.TimeSlot {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(slotID)
	if idx == -1 {
		return nil
	}
	return cloneSlot(s.slots[idx])
}

// FindSlotByTask returns a copy of the first slot holding the task, or nil.
func (s *SlotStore) FindSlotByTask(taskID string) *model.TimeSlot {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.slots {
		if s.slots[i].Task != nil && s.slots[i].Task.ID == taskID {
			return cloneSlot(s.slots[i])
		}
	}
	return nil
}

// CleanupOld removes slots dated strictly before today minus maxDays. The
// cutoff day itself is kept. Returns the number of slots removed.
func (s *SlotStore) CleanupOld(today time.Time, maxDays int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cleanupLocked(today, maxDays)
}

func (s *SlotStore) cleanupLocked(today time.Time, maxDays int) int {
	cutoff := today.AddDate(0, 0, -maxDays).Format(dateLayout)
	kept := s.slots[:0]
	removed := 0
	for _, slot := range s.slots {
		if slot.Date() < cutoff {
			removed++
			continue
		}
		kept = append(kept, slot)
	}
	s.slots = kept
	if removed > 0 {
		log.Printf("[info] cleaned up %d slots older than %d days", removed, maxDays)
	}
	return removed
}

// Save persists the snapshot of all slots, the current date and the grid
// configuration. Failures are logged and swallowed; memory stays
// authoritative.
func (s *SlotStore) Save(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveLocked(ctx)
}

func (s *SlotStore) saveLocked(ctx context.Context) {
	snap := slotSnapshot{
		Slots:       s.slots,
		CurrentDate: s.currentDate,
		GridConfig:  s.rules.GridConfig(),
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		log.Printf("[warn] encode time slots: %v", err)
		return
	}
	if err := s.snapshots.Put(ctx, snapshotKey, raw); err != nil {
		log.Printf("[warn] save time slots: %v", err)
	}
}

// Load replaces in-memory state with the persisted snapshot. A missing or
// unreadable snapshot falls back to a freshly generated grid for the
// current date; the store is never left half-parsed. Load also serves as
// the reload hook for external change notifications, overwriting local
// state with the last persisted writer's.
func (s *SlotStore) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentDate.IsZero() {
		s.currentDate = s.now()
	}

	raw, found, err := s.snapshots.Get(ctx, snapshotKey)
	if err != nil {
		log.Printf("[warn] load time slots: %v", err)
		s.generateForDateLocked(ctx, s.currentDate)
		return
	}
	if found {
		var snap slotSnapshot
		if err := json.Unmarshal(raw, &snap); err != nil {
			log.Printf("[warn] parse time slots snapshot: %v", err)
			s.slots = nil
			s.generateForDateLocked(ctx, s.currentDate)
			return
		}
		s.slots = snap.Slots
		if !snap.CurrentDate.IsZero() {
			s.currentDate = snap.CurrentDate
		}
	}
	s.generateForDateLocked(ctx, s.currentDate)
}

func (s *SlotStore) indexOf(slotID string) int {
	for i := range s.slots {
		if s.slots[i].ID == slotID {
			return i
		}
	}
	return -1
}

// daySlotIndexesLocked returns the positions of a date's slots in grid order.
func (s *SlotStore) daySlotIndexesLocked(date string) []int {
	var idxs []int
	for i := range s.slots {
		if s.slots[i].Date() == date {
			idxs = append(idxs, i)
		}
	}
	return idxs
}

func (s *SlotStore) daySlotsLocked(date string) []model.TimeSlot {
	var result []model.TimeSlot
	for i := range s.slots {
		if s.slots[i].Date() == date {
			result = append(result, *cloneSlot(s.slots[i]))
		}
	}
	return result
}

func cloneSlot(slot model.TimeSlot) *model.TimeSlot {
	c := slot
	c.Task = slot.Task.Clone()
	return &c
}
