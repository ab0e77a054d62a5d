package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/daybook-ai/daybook/internal/clock"
	"github.com/daybook-ai/daybook/internal/events"
	"github.com/daybook-ai/daybook/internal/store"
	"github.com/daybook-ai/daybook/internal/streak"
)

// RolloverWorker reacts to calendar-date changes. On a roll it seeds
// the new day's record for recently active users and refolds their
// streaks, so a user who opens the app at 00:01 sees a fresh pending
// day and an already-correct streak.
type RolloverWorker struct {
	store        store.Store
	streaks      *StreakService
	bus          *events.Bus
	clk          clock.Clock
	activeWindow time.Duration
	log          zerolog.Logger
}

func NewRolloverWorker(s store.Store, st *StreakService, bus *events.Bus, clk clock.Clock, activeWindow time.Duration, log zerolog.Logger) *RolloverWorker {
	if activeWindow <= 0 {
		activeWindow = 14 * 24 * time.Hour
	}
	return &RolloverWorker{
		store:        s,
		streaks:      st,
		bus:          bus,
		clk:          clk,
		activeWindow: activeWindow,
		log:          log.With().Str("component", "rollover").Logger(),
	}
}

// Run drains the event bus until ctx is cancelled.
func (w *RolloverWorker) Run(ctx context.Context) {
	w.bus.Drain(ctx, w.handle)
}

func (w *RolloverWorker) handle(ctx context.Context, ev events.Event) {
	switch ev.Kind {
	case events.KindDateRolled:
		w.rollUsers(ctx)
	case events.KindDayCompleted:
		w.logMilestone(ctx, ev)
	}
}

func (w *RolloverWorker) rollUsers(ctx context.Context) {
	cutoff := w.clk.Now().Add(-w.activeWindow)
	users, err := w.store.Users().ListActiveSince(ctx, cutoff)
	if err != nil {
		w.log.Error().Err(err).Msg("list active users failed")
		return
	}
	for _, u := range users {
		loc, err := time.LoadLocation(u.TimeZone)
		if err != nil {
			w.log.Warn().Str("user_id", u.UserID).Str("time_zone", u.TimeZone).Msg("skipping user with bad time zone")
			continue
		}
		today := clock.Today(w.clk, loc)
		if _, err := w.store.Days().GetOrCreate(ctx, u.UserID, today); err != nil {
			w.log.Error().Err(err).Str("user_id", u.UserID).Msg("seed day failed")
			continue
		}
		if _, err := w.streaks.Recompute(ctx, u.UserID); err != nil {
			w.log.Error().Err(err).Str("user_id", u.UserID).Msg("streak refold failed")
		}
	}
	w.log.Info().Int("users", len(users)).Msg("date rollover processed")
}

func (w *RolloverWorker) logMilestone(ctx context.Context, ev events.Event) {
	st, err := w.store.Streaks().Get(ctx, ev.UserID)
	if err != nil {
		return
	}
	percent, milestone := streak.MilestoneProgress(st.CurrentStreak, 0)
	w.log.Info().
		Str("user_id", ev.UserID).
		Str("date", ev.Date).
		Int("current_streak", st.CurrentStreak).
		Int("milestone", milestone).
		Int("milestone_percent", percent).
		Msg("day completed")
}
