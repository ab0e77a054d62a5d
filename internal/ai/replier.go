// Package ai produces companion replies and day summaries. Two
// providers exist: an eino chain against an Ark chat model, and a
// plain REST client for Gemini-style generateContent endpoints.
package ai

import (
	"context"

	"github.com/daybook-ai/daybook/internal/model"
)

// FallbackMessage is appended as the assistant turn when the reply
// provider fails. It still completes the day so a provider outage never
// breaks a streak the user earned by showing up.
const FallbackMessage = "Sorry, I encountered an error. Please try again."

// Replier generates assistant text.
type Replier interface {
	// Reply produces a conversational reply given recent history,
	// oldest first, and the new user message.
	Reply(ctx context.Context, history []*model.Message, userText string) (string, error)
	// Complete runs a one-shot prompt, used for day summaries.
	Complete(ctx context.Context, promptText string) (string, error)
}

// Config selects and parameterizes the reply provider.
type Config struct {
	Provider string // "ark" or "rest"

	ArkAPIKey  string
	ArkModel   string
	ArkBaseURL string

	GenAPIKey  string
	GenModel   string
	GenBaseURL string

	TimeoutSeconds int
}
