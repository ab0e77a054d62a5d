package ai

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/daybook-ai/daybook/internal/model"
)

// SystemPrompt sets the companion persona for conversational replies.
const SystemPrompt = "You are a warm, supportive daily journaling companion. " +
	"The user checks in once a day to talk about how their day is going. " +
	"Reply in a short, caring, human-like way. Never mention that you are an AI model."

// HistoryWindow is how many recent turns are included as context.
const HistoryWindow = 10

// HistoryLines renders recent messages, oldest first, in the
// `User: "..."` / `AI: "..."` transcript form the reply prompt uses.
func HistoryLines(history []*model.Message) string {
	var b strings.Builder
	for i, m := range history {
		if i > 0 {
			b.WriteString("\n")
		}
		speaker := "AI"
		if m.Role == model.RoleUser {
			speaker = "User"
		}
		fmt.Fprintf(&b, "%s: %q", speaker, m.Text)
	}
	return b.String()
}

// BuildPrompt assembles the one-shot reply prompt used by providers
// that take a single text body instead of structured chat turns.
func BuildPrompt(history []*model.Message, userText string) string {
	var b strings.Builder
	b.WriteString(SystemPrompt)
	b.WriteString("\n\n")
	if len(history) > 0 {
		b.WriteString("Recent conversation (last few turns):\n")
		b.WriteString(HistoryLines(history))
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "Now the user says: %q\n", userText)
	b.WriteString("Provide a short, caring, human-like reply.")
	return b.String()
}

// BuildSummaryPrompt assembles a prompt that condenses one day's
// conversation into a short journal entry.
func BuildSummaryPrompt(date string, msgs []*model.Message) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Summarize the journal conversation from %s into two or three sentences, "+
		"written in second person, capturing what the user did and how they felt.\n\n", date)
	b.WriteString(HistoryLines(msgs))
	return b.String()
}

var boldRe = regexp.MustCompile(`\*\*(.*?)\*\*`)

// StripBold removes markdown bold markers that chat models emit even
// when asked for plain text.
func StripBold(s string) string {
	return strings.TrimSpace(boldRe.ReplaceAllString(s, "$1"))
}
