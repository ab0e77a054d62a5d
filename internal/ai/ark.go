package ai

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"

	"github.com/daybook-ai/daybook/internal/model"
)

// arkReplier runs replies through a compiled eino chain backed by an
// Ark chat model.
type arkReplier struct {
	chain compose.Runnable[map[string]any, *schema.Message]
	log   zerolog.Logger
}

// NewArkReplier builds the chat model and compiles the reply chain.
func NewArkReplier(ctx context.Context, cfg Config, log zerolog.Logger) (Replier, error) {
	chatModel, err := ark.NewChatModel(ctx, &ark.ChatModelConfig{
		APIKey:  cfg.ArkAPIKey,
		Model:   cfg.ArkModel,
		BaseURL: cfg.ArkBaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("create ark chat model: %w", err)
	}

	tpl := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(tpl)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile reply chain: %w", err)
	}
	return &arkReplier{chain: runnable, log: log.With().Str("component", "ai.ark").Logger()}, nil
}

func (r *arkReplier) Reply(ctx context.Context, history []*model.Message, userText string) (string, error) {
	out, err := r.chain.Invoke(ctx, map[string]any{
		"system":  SystemPrompt,
		"history": toSchemaMessages(history),
		"query":   userText,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrReplyService, err)
	}
	r.log.Debug().Int("history_len", len(history)).Int("reply_len", len(out.Content)).Msg("generated reply")
	return StripBold(out.Content), nil
}

func (r *arkReplier) Complete(ctx context.Context, promptText string) (string, error) {
	out, err := r.chain.Invoke(ctx, map[string]any{
		"system":  SystemPrompt,
		"history": []*schema.Message{},
		"query":   promptText,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrReplyService, err)
	}
	return StripBold(out.Content), nil
}

func toSchemaMessages(history []*model.Message) []*schema.Message {
	out := make([]*schema.Message, 0, len(history))
	for _, m := range history {
		switch m.Role {
		case model.RoleUser:
			out = append(out, schema.UserMessage(m.Text))
		case model.RoleAssistant:
			out = append(out, schema.AssistantMessage(m.Text, nil))
		}
	}
	return out
}
