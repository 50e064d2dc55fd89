package service

import (
	"fmt"
	"strings"

	"timeboxer/internal/schedule"
	"timeboxer/internal/store"
)

// SummaryService renders a plain-text report of the current day's plan.
type SummaryService struct {
	slots      *schedule.SlotStore
	tasks      *store.TaskStore
	priorities *store.PriorityList
	notes      *store.NoteStore
}

func NewSummaryService(slots *schedule.SlotStore, tasks *store.TaskStore, priorities *store.PriorityList, notes *store.NoteStore) *SummaryService {
	return &SummaryService{slots: slots, tasks: tasks, priorities: priorities, notes: notes}
}

// DailySummary builds the report for the slot store's current date.
func (s *SummaryService) DailySummary() string {
	date := s.slots.CurrentDate().Format("2006-01-02")

	var b strings.Builder
	fmt.Fprintf(&b, "Plan for %s\n\n", date)

	b.WriteString("Schedule\n")
	scheduled := make(map[string]bool)
	lines := 0
	for _, slot := range s.slots.TodaySlots() {
		switch {
		case slot.Task != nil:
			marker := ""
			if slot.Task.IsPriority {
				marker = " *"
			}
			fmt.Fprintf(&b, "  %s-%s  %s%s\n", slot.StartTime, slot.EndTime, slot.Task.Text, marker)
			scheduled[slot.Task.ID] = true
			lines++
		case !slot.IsAvailable && slot.Notes != "":
			fmt.Fprintf(&b, "  %s-%s  %s\n", slot.StartTime, slot.EndTime, slot.Notes)
			lines++
		}
	}
	if lines == 0 {
		b.WriteString("  - nothing scheduled\n")
	}

	b.WriteString("\nUnscheduled tasks\n")
	unscheduled := 0
	for _, task := range s.tasks.ForDate(date) {
		if scheduled[task.ID] {
			continue
		}
		fmt.Fprintf(&b, "  - %s\n", task.Text)
		unscheduled++
	}
	if unscheduled == 0 {
		b.WriteString("  - none\n")
	}

	b.WriteString("\nPriorities\n")
	priorityTasks := s.priorities.Tasks()
	if len(priorityTasks) == 0 {
		b.WriteString("  - none set\n")
	}
	for i, task := range priorityTasks {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, task.Text)
	}

	if note := s.notes.ForDate(date); strings.TrimSpace(note.Content) != "" {
		b.WriteString("\nNotes\n")
		for _, line := range strings.Split(strings.TrimRight(note.Content, "\n"), "\n") {
			fmt.Fprintf(&b, "  %s\n", line)
		}
	}

	stats := s.slots.Stats()
	fmt.Fprintf(&b, "\n%d/%d slots booked, %d priority, %d min planned",
		stats.OccupiedSlots, stats.TotalSlots, stats.PriorityTasksScheduled, stats.TotalScheduledMinutes)

	return b.String()
}
