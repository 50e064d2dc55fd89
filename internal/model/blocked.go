package model

import "time"

// BlockedSlot is a recurring weekly rule that marks a time range on specific
// weekdays as unavailable by default (lunch, standup, commute and so on).
type BlockedSlot struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	StartTime string `json:"startTime"` // HH:MM
	EndTime   string `json:"endTime"`   // HH:MM
	// DaysOfWeek lists the weekdays the rule applies to, 0 = Sunday.
	DaysOfWeek []int     `json:"daysOfWeek"`
	Enabled    bool      `json:"enabled"`
	CreatedAt  time.Time `json:"createdAt"`
}

// AppliesTo reports whether the rule covers the given weekday.
func (b *BlockedSlot) AppliesTo(weekday int) bool {
	for _, d := range b.DaysOfWeek {
		if d == weekday {
			return true
		}
	}
	return false
}
