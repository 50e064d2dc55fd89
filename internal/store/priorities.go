package store

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"timeboxer/internal/model"
)

// PriorityList is the bounded set of promoted tasks. It keeps a fixed
// number of positions; empty positions are nil so reordering is stable.
// It also serves the scheduler as the priority lookup consulted at
// assignment time.
type PriorityList struct {
	mu        sync.Mutex
	slots     []*model.Task
	max       int
	snapshots Snapshots
}

// NewPriorityList creates a list with max positions, clamped to 1..10.
func NewPriorityList(max int, snapshots Snapshots) *PriorityList {
	if max < 1 {
		max = 1
	}
	if max > 10 {
		max = 10
	}
	return &PriorityList{
		slots:     make([]*model.Task, max),
		max:       max,
		snapshots: snapshots,
	}
}

// Max returns the list capacity.
func (p *PriorityList) Max() int { return p.max }

// Add puts the task into the first empty position. Duplicates and adds
// beyond capacity are rejected.
func (p *PriorityList) Add(ctx context.Context, task model.Task) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, t := range p.slots {
		if t != nil && t.ID == task.ID {
			return false
		}
	}
	for i, t := range p.slots {
		if t == nil {
			c := task
			c.IsPriority = true
			p.slots[i] = &c
			p.saveLocked(ctx)
			return true
		}
	}
	return false
}

// Remove drops the task from the list.
func (p *PriorityList) Remove(ctx context.Context, taskID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, t := range p.slots {
		if t != nil && t.ID == taskID {
			p.slots[i] = nil
			p.saveLocked(ctx)
			return true
		}
	}
	return false
}

// RemoveByIndex empties one position.
func (p *PriorityList) RemoveByIndex(ctx context.Context, index int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if index < 0 || index >= len(p.slots) || p.slots[index] == nil {
		return false
	}
	p.slots[index] = nil
	p.saveLocked(ctx)
	return true
}

// Reorder swaps two positions.
func (p *PriorityList) Reorder(ctx context.Context, from, to int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if from < 0 || from >= len(p.slots) || to < 0 || to >= len(p.slots) || from == to {
		return false
	}
	p.slots[from], p.slots[to] = p.slots[to], p.slots[from]
	p.saveLocked(ctx)
	return true
}

// Clear empties every position.
func (p *PriorityList) Clear(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.slots = make([]*model.Task, p.max)
	p.saveLocked(ctx)
}

// FindTaskByID returns a copy of the promoted task, or nil. This is the
// lookup the slot store snapshots priority status from.
func (p *PriorityList) FindTaskByID(taskID string) *model.Task {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, t := range p.slots {
		if t != nil && t.ID == taskID {
			return t.Clone()
		}
	}
	return nil
}

// TaskAt returns a copy of the task at a position, or nil.
func (p *PriorityList) TaskAt(index int) *model.Task {
	p.mu.Lock()
	defer p.mu.Unlock()

	if index < 0 || index >= len(p.slots) {
		return nil
	}
	return p.slots[index].Clone()
}

// Tasks returns the promoted tasks in position order, gaps skipped.
func (p *PriorityList) Tasks() []model.Task {
	p.mu.Lock()
	defer p.mu.Unlock()

	var result []model.Task
	for _, t := range p.slots {
		if t != nil {
			result = append(result, *t)
		}
	}
	return result
}

// Count returns the number of promoted tasks.
func (p *PriorityList) Count() int {
	return len(p.Tasks())
}

// IsFull reports whether every position is taken.
func (p *PriorityList) IsFull() bool { return p.Count() >= p.max }

// IsEmpty reports whether no task is promoted.
func (p *PriorityList) IsEmpty() bool { return p.Count() == 0 }

// FreePositions returns how many more tasks can be promoted.
func (p *PriorityList) FreePositions() int { return p.max - p.Count() }

// UpdateTask refreshes the stored copy of a promoted task.
func (p *PriorityList) UpdateTask(ctx context.Context, task model.Task) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, t := range p.slots {
		if t != nil && t.ID == task.ID {
			c := task
			c.IsPriority = true
			p.slots[i] = &c
			p.saveLocked(ctx)
			return true
		}
	}
	return false
}

// CleanupOld empties positions whose task date precedes the cutoff.
func (p *PriorityList) CleanupOld(today time.Time, maxDays int) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	cutoff := today.AddDate(0, 0, -maxDays).Format(dateLayout)
	removed := 0
	for i, t := range p.slots {
		if t != nil && t.Date != "" && t.Date < cutoff {
			p.slots[i] = nil
			removed++
		}
	}
	if removed > 0 {
		log.Printf("[info] cleaned up %d priorities older than %d days", removed, maxDays)
		p.saveLocked(context.Background())
	}
	return removed
}

// Save persists the list, empty positions included.
func (p *PriorityList) Save(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saveLocked(ctx)
}

func (p *PriorityList) saveLocked(ctx context.Context) {
	raw, err := json.Marshal(p.slots)
	if err != nil {
		log.Printf("[warn] encode priorities: %v", err)
		return
	}
	if err := p.snapshots.Put(ctx, prioritiesKey, raw); err != nil {
		log.Printf("[warn] save priorities: %v", err)
	}
}

// Load restores the list, truncating snapshots longer than the current
// capacity and padding shorter ones.
func (p *PriorityList) Load(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	raw, found, err := p.snapshots.Get(ctx, prioritiesKey)
	if err != nil {
		log.Printf("[warn] load priorities: %v", err)
		return
	}
	if !found {
		return
	}
	var saved []*model.Task
	if err := json.Unmarshal(raw, &saved); err != nil {
		log.Printf("[warn] parse priorities snapshot: %v", err)
		p.slots = make([]*model.Task, p.max)
		return
	}
	p.slots = make([]*model.Task, p.max)
	for i, t := range saved {
		if i >= p.max {
			break
		}
		p.slots[i] = t
	}
}
