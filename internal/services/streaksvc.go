package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/daybook-ai/daybook/internal/clock"
	"github.com/daybook-ai/daybook/internal/daystatus"
	"github.com/daybook-ai/daybook/internal/model"
	"github.com/daybook-ai/daybook/internal/store"
	"github.com/daybook-ai/daybook/internal/streak"
)

// StreakService derives and persists streak state. The persisted row is
// only a cached snapshot of a full-history fold; it is never mutated
// incrementally.
type StreakService struct {
	store store.Store
	clk   clock.Clock
	log   zerolog.Logger
}

func NewStreakService(s store.Store, clk clock.Clock, log zerolog.Logger) *StreakService {
	return &StreakService{store: s, clk: clk, log: log.With().Str("service", "streak").Logger()}
}

// Recompute folds over every done day and stores the snapshot with
// today's date as the watermark.
func (s *StreakService) Recompute(ctx context.Context, userID string) (*model.StreakState, error) {
	u, err := s.store.Users().Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(u.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("user %s has invalid time zone %q: %w", userID, u.TimeZone, model.ErrValidation)
	}
	today := clock.Today(s.clk, loc)

	days, err := s.store.Days().List(ctx, userID)
	if err != nil {
		return nil, err
	}
	var doneDates []string
	for _, d := range days {
		if daystatus.Classify(d.Day.Date, true, d.Presence, today) == model.StatusDone {
			doneDates = append(doneDates, d.Day.Date)
		}
	}

	stats := streak.Recompute(doneDates, today)
	state := &model.StreakState{
		UserID:          userID,
		CurrentStreak:   stats.CurrentStreak,
		HighestStreak:   stats.HighestStreak,
		TotalDaysActive: stats.TotalDaysActive,
		Consistency:     stats.Consistency,
		LastComputedOn:  today,
	}
	if stats.FirstDoneDate != "" {
		state.FirstDoneDate = &stats.FirstDoneDate
	}

	stored, err := s.store.Streaks().Upsert(ctx, state)
	if err != nil {
		return nil, err
	}
	s.log.Debug().Str("user_id", userID).Int("current", stored.CurrentStreak).Int("highest", stored.HighestStreak).Msg("streak recomputed")
	return stored, nil
}

// Get returns the stored snapshot, deriving one on demand when the
// user has no snapshot yet or the snapshot predates today.
func (s *StreakService) Get(ctx context.Context, userID string) (*model.StreakState, error) {
	st, err := s.store.Streaks().Get(ctx, userID)
	if errors.Is(err, model.ErrNotFound) {
		return s.Recompute(ctx, userID)
	}
	if err != nil {
		return nil, err
	}

	u, err := s.store.Users().Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	loc, locErr := time.LoadLocation(u.TimeZone)
	if locErr == nil && st.LastComputedOn < clock.Today(s.clk, loc) {
		// stale snapshot: a day has rolled since the last fold, so the
		// current streak may have just broken
		return s.Recompute(ctx, userID)
	}
	return st, nil
}
