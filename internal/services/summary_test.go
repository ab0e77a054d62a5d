package services

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daybook-ai/daybook/internal/model"
)

func TestSummarizeDay(t *testing.T) {
	f := newFixture(t)
	f.send(t, "2025-03-10", "wrapped up the release")

	f.replier.reply = "You wrapped up the release and felt relieved."
	svc := NewSummaryService(f.store, f.replier, zerolog.Nop())

	sum, err := svc.SummarizeDay(context.Background(), f.userID, "2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-10", sum.Date)
	assert.Equal(t, "You wrapped up the release and felt relieved.", sum.Text)
}

func TestSummarizeRange(t *testing.T) {
	f := newFixture(t)
	f.send(t, "2025-03-10", "long week, finally friday")

	f.replier.reply = "You closed out a long week."
	svc := NewSummaryService(f.store, f.replier, zerolog.Nop())

	sum, err := svc.SummarizeRange(context.Background(), f.userID, "2025-03-01", "2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Days)
	assert.Equal(t, "You closed out a long week.", sum.Text)

	// inverted range
	_, err = svc.SummarizeRange(context.Background(), f.userID, "2025-03-10", "2025-03-01")
	require.ErrorIs(t, err, model.ErrValidation)

	// empty range
	_, err = svc.SummarizeRange(context.Background(), f.userID, "2025-01-01", "2025-01-31")
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestSummarizeDayWithoutMessages(t *testing.T) {
	f := newFixture(t)
	svc := NewSummaryService(f.store, f.replier, zerolog.Nop())

	_, err := svc.SummarizeDay(context.Background(), f.userID, "2025-03-09")
	require.ErrorIs(t, err, model.ErrNotFound)

	_, err = svc.SummarizeDay(context.Background(), f.userID, "not-a-date")
	require.ErrorIs(t, err, model.ErrValidation)
}
