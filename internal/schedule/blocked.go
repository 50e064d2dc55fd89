package schedule

import (
	"strconv"
	"strings"

	"timeboxer/internal/model"
)

// FindBlockingRule returns the first enabled rule, in slice order, that
// applies to weekday and whose [StartTime, EndTime) range overlaps the
// queried [start, end) range. Both ranges are half-open: touching
// endpoints do not overlap. Returns nil when nothing blocks the range.
func FindBlockingRule(weekday int, start, end string, rules []model.BlockedSlot) *model.BlockedSlot {
	queryStart := clockMinutes(start)
	queryEnd := clockMinutes(end)

	for i := range rules {
		rule := &rules[i]
		if !rule.Enabled || !rule.AppliesTo(weekday) {
			continue
		}
		ruleStart := clockMinutes(rule.StartTime)
		ruleEnd := clockMinutes(rule.EndTime)
		if queryStart < ruleEnd && queryEnd > ruleStart {
			return rule
		}
	}
	return nil
}

// clockMinutes converts an HH:MM string to minutes since midnight.
// Malformed values become 0, which can never overlap a half-open range.
func clockMinutes(clock string) int {
	hh, mm, ok := strings.Cut(clock, ":")
	if !ok {
		return 0
	}
	hour, err := strconv.Atoi(hh)
	if err != nil {
		return 0
	}
	minute, err := strconv.Atoi(mm)
	if err != nil {
		return 0
	}
	return hour*60 + minute
}
