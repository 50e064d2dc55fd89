package model

import "time"

// DailyNote holds free-text notes for one day.
type DailyNote struct {
	Date      string    `json:"date"` // YYYY-MM-DD
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NoteStats aggregates notes across all days that have content.
type NoteStats struct {
	TotalDays       int `json:"totalDays"`
	TotalCharacters int `json:"totalCharacters"`
	AverageLength   int `json:"averageLength"`
}
