package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/daybook-ai/daybook/internal/model"
)

const defaultGenBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// restReplier posts a single-text generateContent request to a
// Gemini-style endpoint. History is folded into the prompt body.
type restReplier struct {
	client *resty.Client
	model  string
	apiKey string
	log    zerolog.Logger
}

// NewRESTReplier configures the resty client for the REST provider.
func NewRESTReplier(cfg Config, log zerolog.Logger) Replier {
	base := cfg.GenBaseURL
	if base == "" {
		base = defaultGenBaseURL
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := resty.New().
		SetBaseURL(base).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)
	return &restReplier{
		client: client,
		model:  cfg.GenModel,
		apiKey: cfg.GenAPIKey,
		log:    log.With().Str("component", "ai.rest").Logger(),
	}
}

type genPart struct {
	Text string `json:"text"`
}

type genContent struct {
	Role  string    `json:"role,omitempty"`
	Parts []genPart `json:"parts"`
}

type genRequest struct {
	Contents []genContent `json:"contents"`
}

type genResponse struct {
	Candidates []struct {
		Content genContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (r *restReplier) Reply(ctx context.Context, history []*model.Message, userText string) (string, error) {
	return r.generate(ctx, BuildPrompt(history, userText))
}

func (r *restReplier) Complete(ctx context.Context, promptText string) (string, error) {
	return r.generate(ctx, promptText)
}

func (r *restReplier) generate(ctx context.Context, promptText string) (string, error) {
	var out genResponse
	resp, err := r.client.R().
		SetContext(ctx).
		SetQueryParam("key", r.apiKey).
		SetBody(genRequest{Contents: []genContent{{
			Role:  "user",
			Parts: []genPart{{Text: promptText}},
		}}}).
		SetResult(&out).
		SetError(&out).
		Post(fmt.Sprintf("/models/%s:generateContent", r.model))
	if err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrReplyService, err)
	}
	if resp.IsError() {
		msg := resp.Status()
		if out.Error != nil && out.Error.Message != "" {
			msg = out.Error.Message
		}
		return "", fmt.Errorf("%w: %s", model.ErrReplyService, msg)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: empty candidate set", model.ErrReplyService)
	}
	text := StripBold(out.Candidates[0].Content.Parts[0].Text)
	if text == "" {
		return "", fmt.Errorf("%w: blank reply text", model.ErrReplyService)
	}
	r.log.Debug().Int("reply_len", len(text)).Msg("generated reply")
	return text, nil
}
