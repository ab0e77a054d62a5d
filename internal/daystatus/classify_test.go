package daystatus

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/daybook-ai/daybook/internal/model"
)

func TestClassify(t *testing.T) {
	const today = "2025-03-10"
	both := model.RolePresence{HasUserMessage: true, HasAssistantMessage: true}
	userOnly := model.RolePresence{HasUserMessage: true}
	aiOnly := model.RolePresence{HasAssistantMessage: true}
	none := model.RolePresence{}

	cases := []struct {
		name   string
		day    string
		exists bool
		pres   model.RolePresence
		want   model.DayStatus
	}{
		{"past day with both roles is done", "2025-03-05", true, both, model.StatusDone},
		{"today with both roles is done", today, true, both, model.StatusDone},
		{"past day with only user turn is missed", "2025-03-05", true, userOnly, model.StatusMissed},
		{"past day with only assistant turn is missed", "2025-03-05", true, aiOnly, model.StatusMissed},
		{"past day with no messages is missed", "2025-03-05", true, none, model.StatusMissed},
		{"past day with no record is missed", "2025-03-05", false, none, model.StatusMissed},
		{"today with only user turn is pending", today, true, userOnly, model.StatusPending},
		{"today with no record is pending", today, false, none, model.StatusPending},
		{"future day is upcoming", "2025-03-15", false, none, model.StatusUpcoming},
		{"future day with a stray record is upcoming", "2025-03-15", true, none, model.StatusUpcoming},
		{"presence without a record never counts as done", "2025-03-05", false, both, model.StatusMissed},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, Classify(c.day, c.exists, c.pres, today))
		})
	}
}
