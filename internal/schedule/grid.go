package schedule

import (
	"fmt"

	"timeboxer/internal/model"
)

// GenerateGrid builds the ordered slot sequence for one date from the grid
// configuration. Slots come back vacant and available, with no notes. The
// function is pure: identical inputs always produce identical slots, which
// is what makes regeneration for an already-populated date safe to skip.
//
// The grid covers [startHour:00, endHour:00). A slot may end exactly on the
// end hour but never cross it, so durations that do not divide the hour
// evenly simply drop the trailing partial period.
func GenerateGrid(date string, cfg model.GridConfig) []model.TimeSlot {
	if cfg.SlotDuration <= 0 || cfg.StartHour >= cfg.EndHour {
		return nil
	}

	var slots []model.TimeSlot
	for hour := cfg.StartHour; hour < cfg.EndHour; hour++ {
		for minute := 0; minute < 60; minute += cfg.SlotDuration {
			endMinute := minute + cfg.SlotDuration
			endHour := hour
			if endMinute >= 60 {
				endHour = hour + 1
				endMinute -= 60
			}
			if endHour > cfg.EndHour || (endHour == cfg.EndHour && endMinute > 0) {
				continue
			}

			startTime := formatClock(hour, minute)
			slots = append(slots, model.TimeSlot{
				ID:          model.SlotID(date, startTime),
				StartTime:   startTime,
				EndTime:     formatClock(endHour, endMinute),
				Task:        nil,
				IsAvailable: true,
			})
		}
	}
	return slots
}

func formatClock(hour, minute int) string {
	return fmt.Sprintf("%02d:%02d", hour, minute)
}
