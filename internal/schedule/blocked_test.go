package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timeboxer/internal/model"
)

const monday = 1

func mondayRule(id, title, start, end string) model.BlockedSlot {
	return model.BlockedSlot{
		ID:         id,
		Title:      title,
		StartTime:  start,
		EndTime:    end,
		DaysOfWeek: []int{monday},
		Enabled:    true,
	}
}

func TestFindBlockingRuleOverlap(t *testing.T) {
	rules := []model.BlockedSlot{mondayRule("r1", "Standup", "09:00", "10:00")}

	cases := []struct {
		name       string
		start, end string
		blocked    bool
	}{
		{"inside", "09:30", "10:00", true},
		{"covering", "08:30", "10:30", true},
		{"partial head", "08:30", "09:30", true},
		{"partial tail", "09:45", "10:15", true},
		{"touching after", "10:00", "10:30", false},
		{"touching before", "08:30", "09:00", false},
		{"disjoint", "11:00", "11:30", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rule := FindBlockingRule(monday, tc.start, tc.end, rules)
			if tc.blocked {
				require.NotNil(t, rule)
				assert.Equal(t, "r1", rule.ID)
			} else {
				assert.Nil(t, rule)
			}
		})
	}
}

func TestFindBlockingRuleWeekday(t *testing.T) {
	rules := []model.BlockedSlot{mondayRule("r1", "Standup", "09:00", "10:00")}

	assert.Nil(t, FindBlockingRule(2, "09:00", "09:30", rules), "tuesday is not covered")
	assert.NotNil(t, FindBlockingRule(monday, "09:00", "09:30", rules))
}

func TestFindBlockingRuleSkipsDisabled(t *testing.T) {
	rule := mondayRule("r1", "Standup", "09:00", "10:00")
	rule.Enabled = false

	assert.Nil(t, FindBlockingRule(monday, "09:00", "09:30", []model.BlockedSlot{rule}))
}

func TestFindBlockingRuleFirstMatchWins(t *testing.T) {
	rules := []model.BlockedSlot{
		mondayRule("r1", "Standup", "09:00", "10:00"),
		mondayRule("r2", "Focus block", "09:30", "11:00"),
	}

	got := FindBlockingRule(monday, "09:30", "10:00", rules)
	require.NotNil(t, got)
	assert.Equal(t, "r1", got.ID)

	// Past the first rule's range the second one takes over.
	got = FindBlockingRule(monday, "10:00", "10:30", rules)
	require.NotNil(t, got)
	assert.Equal(t, "r2", got.ID)
}

func TestClockMinutes(t *testing.T) {
	assert.Equal(t, 0, clockMinutes("00:00"))
	assert.Equal(t, 570, clockMinutes("09:30"))
	assert.Equal(t, 1439, clockMinutes("23:59"))
	assert.Equal(t, 0, clockMinutes("garbage"))
}
