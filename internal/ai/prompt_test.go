package ai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/daybook-ai/daybook/internal/model"
)

func TestHistoryLines(t *testing.T) {
	history := []*model.Message{
		{Role: model.RoleUser, Text: "rough morning"},
		{Role: model.RoleAssistant, Text: "want to talk about it?"},
	}
	got := HistoryLines(history)
	assert.Equal(t, "User: \"rough morning\"\nAI: \"want to talk about it?\"", got)
}

func TestBuildPrompt(t *testing.T) {
	history := []*model.Message{
		{Role: model.RoleUser, Text: "hi"},
		{Role: model.RoleAssistant, Text: "hello"},
	}
	p := BuildPrompt(history, "today was good")

	assert.True(t, strings.HasPrefix(p, SystemPrompt))
	assert.Contains(t, p, "Recent conversation")
	assert.Contains(t, p, `User: "hi"`)
	assert.Contains(t, p, `AI: "hello"`)
	assert.Contains(t, p, `Now the user says: "today was good"`)
}

func TestBuildPromptNoHistory(t *testing.T) {
	p := BuildPrompt(nil, "first message")
	assert.NotContains(t, p, "Recent conversation")
	assert.Contains(t, p, `"first message"`)
}

func TestBuildSummaryPrompt(t *testing.T) {
	msgs := []*model.Message{
		{Role: model.RoleUser, Text: "finished the big project"},
	}
	p := BuildSummaryPrompt("2025-03-10", msgs)
	assert.Contains(t, p, "2025-03-10")
	assert.Contains(t, p, `User: "finished the big project"`)
}

func TestStripBold(t *testing.T) {
	assert.Equal(t, "stay strong today", StripBold("stay **strong** today"))
	assert.Equal(t, "plain", StripBold("  plain  "))
	assert.Equal(t, "a b c", StripBold("**a** **b** c"))
}
