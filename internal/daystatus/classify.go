// Package daystatus derives a day's status from live message presence.
// Status is a pure projection: it is recomputed on every read and never
// trusted from storage, so late appends or rule changes cannot leave a
// stale color on the calendar.
package daystatus

import "github.com/daybook-ai/daybook/internal/model"

// Classify maps one calendar day to its status.
//
// A day is done only when it holds at least one non-empty user message
// AND at least one non-empty assistant message: a day where the user
// wrote but got no reply must not count toward the streak. Otherwise the
// day's relation to today decides. ISO dates compare correctly as
// strings, so plain string ordering is used.
func Classify(day string, exists bool, pres model.RolePresence, today string) model.DayStatus {
	if exists && pres.HasUserMessage && pres.HasAssistantMessage {
		return model.StatusDone
	}
	switch {
	case day < today:
		return model.StatusMissed
	case day == today:
		return model.StatusPending
	default:
		return model.StatusUpcoming
	}
}
