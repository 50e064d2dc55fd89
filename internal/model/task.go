package model

import "time"

// Task represents a single captured item in the planner.
type Task struct {
	ID         string    `json:"id"`
	Text       string    `json:"text"`
	IsPriority bool      `json:"isPriority"`
	CreatedAt  time.Time `json:"createdAt"`
	// Date is the day the task belongs to, formatted YYYY-MM-DD.
	Date string `json:"date"`
}

// Clone returns a copy of the task, or nil for a nil receiver.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
