package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/daybook-ai/daybook/internal/ai"
	"github.com/daybook-ai/daybook/internal/clock"
	"github.com/daybook-ai/daybook/internal/model"
	"github.com/daybook-ai/daybook/internal/store"
)

// Summary is a generated recap of one day's conversation.
type Summary struct {
	UserID string `json:"userId"`
	Date   string `json:"date"`
	Text   string `json:"text"`
}

// SummaryService condenses day conversations into short recaps.
type SummaryService struct {
	store   store.Store
	replier ai.Replier
	log     zerolog.Logger
}

func NewSummaryService(s store.Store, r ai.Replier, log zerolog.Logger) *SummaryService {
	return &SummaryService{store: s, replier: r, log: log.With().Str("service", "summary").Logger()}
}

// SummarizeDay generates a recap for a single day. Days without any
// messages cannot be summarized.
func (s *SummaryService) SummarizeDay(ctx context.Context, userID, date string) (*Summary, error) {
	if !clock.IsValid(date) {
		return nil, fmt.Errorf("invalid date %q: %w", date, model.ErrValidation)
	}
	msgs, err := s.store.Messages().ListByDay(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, fmt.Errorf("no messages on %s: %w", date, model.ErrNotFound)
	}

	text, err := s.replier.Complete(ctx, ai.BuildSummaryPrompt(date, msgs))
	if err != nil {
		return nil, err
	}
	s.log.Debug().Str("user_id", userID).Str("date", date).Msg("day summarized")
	return &Summary{UserID: userID, Date: date, Text: text}, nil
}

// RangeSummary is a generated recap over a span of days.
type RangeSummary struct {
	UserID string `json:"userId"`
	From   string `json:"from"`
	To     string `json:"to"`
	Days   int    `json:"days"`
	Text   string `json:"text"`
}

// SummarizeRange condenses every conversation between from and to
// (inclusive) into one recap. Only days that actually have messages
// contribute.
func (s *SummaryService) SummarizeRange(ctx context.Context, userID, from, to string) (*RangeSummary, error) {
	if !clock.IsValid(from) || !clock.IsValid(to) {
		return nil, fmt.Errorf("invalid range %q..%q: %w", from, to, model.ErrValidation)
	}
	if from > to {
		return nil, fmt.Errorf("range start %s is after end %s: %w", from, to, model.ErrValidation)
	}

	days, err := s.store.Days().ListRange(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	var sections []string
	covered := 0
	for _, d := range days {
		msgs, err := s.store.Messages().ListByDay(ctx, userID, d.Day.Date)
		if err != nil {
			return nil, err
		}
		if len(msgs) == 0 {
			continue
		}
		covered++
		sections = append(sections, d.Day.Date+":\n"+ai.HistoryLines(msgs))
	}
	if covered == 0 {
		return nil, fmt.Errorf("no messages between %s and %s: %w", from, to, model.ErrNotFound)
	}

	prompt := fmt.Sprintf("Summarize the journal conversations between %s and %s into a short recap, "+
		"written in second person, covering the main events and the overall mood.\n\n%s",
		from, to, strings.Join(sections, "\n\n"))
	text, err := s.replier.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	s.log.Debug().Str("user_id", userID).Str("from", from).Str("to", to).Int("days", covered).Msg("range summarized")
	return &RangeSummary{UserID: userID, From: from, To: to, Days: covered, Text: text}, nil
}
