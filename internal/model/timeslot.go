package model

// TimeSlot is a fixed interval on a given date that may hold at most one task.
//
// The ID is derived as "{date}-{startTime}", which makes it both the primary
// key and the chronological sort key within a date.
type TimeSlot struct {
	ID        string `json:"id"`
	StartTime string `json:"startTime"` // HH:MM
	EndTime   string `json:"endTime"`   // HH:MM
	Task      *Task  `json:"task"`
	// IsAvailable reports whether a vacant slot may accept an assignment.
	// An occupied slot keeps its task even if a blocked-period rule later
	// covers it; only vacant slots are toggled by recomputes.
	IsAvailable bool   `json:"isAvailable"`
	Notes       string `json:"notes,omitempty"`
}

// SlotID builds the deterministic slot identifier for a date and start time.
func SlotID(date, startTime string) string {
	return date + "-" + startTime
}

// Date extracts the YYYY-MM-DD prefix from the slot ID.
func (s *TimeSlot) Date() string {
	if len(s.ID) < 10 {
		return ""
	}
	return s.ID[:10]
}

// GridConfig describes the day grid: working window and slot length.
type GridConfig struct {
	StartHour    int   `json:"startHour"`
	EndHour      int   `json:"endHour"`
	SlotDuration int   `json:"slotDuration"` // minutes
	IncludedDays []int `json:"includedDays"` // weekdays, 0 = Sunday
}

// TimeboxStats summarizes the current day's grid occupancy.
type TimeboxStats struct {
	TotalSlots             int `json:"totalSlots"`
	OccupiedSlots          int `json:"occupiedSlots"`
	FreeSlots              int `json:"freeSlots"`
	PriorityTasksScheduled int `json:"priorityTasksScheduled"`
	TotalScheduledMinutes  int `json:"totalScheduledMinutes"`
}

// TaskAssignment pairs a task with one slot it occupies.
type TaskAssignment struct {
	Task      *Task  `json:"task"`
	SlotID    string `json:"slotId"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// TaskSchedule groups every slot a single task occupies, in time order.
type TaskSchedule struct {
	Task  *Task            `json:"task"`
	Slots []TaskAssignment `json:"slots"`
}
