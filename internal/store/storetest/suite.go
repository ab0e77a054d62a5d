// Package storetest contains a backend-agnostic compliance suite. Every
// store implementation runs the same battery so drivers cannot drift on
// create-if-absent, idempotency, presence aggregation, or the streak
// watermark.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daybook-ai/daybook/internal/model"
	"github.com/daybook-ai/daybook/internal/store"
)

// Factory returns a fresh, empty store for each subtest.
type Factory func(t *testing.T) store.Store

// Run executes the compliance suite against the given factory.
func Run(t *testing.T, factory Factory) {
	t.Run("Users", func(t *testing.T) { testUsers(t, factory(t)) })
	t.Run("DayGetOrCreate", func(t *testing.T) { testDayGetOrCreate(t, factory(t)) })
	t.Run("DayGetOrCreateConcurrent", func(t *testing.T) { testDayGetOrCreateConcurrent(t, factory(t)) })
	t.Run("MessageAppend", func(t *testing.T) { testMessageAppend(t, factory(t)) })
	t.Run("MessageIdempotency", func(t *testing.T) { testMessageIdempotency(t, factory(t)) })
	t.Run("MessageRecent", func(t *testing.T) { testMessageRecent(t, factory(t)) })
	t.Run("DayPresence", func(t *testing.T) { testDayPresence(t, factory(t)) })
	t.Run("DayListRange", func(t *testing.T) { testDayListRange(t, factory(t)) })
	t.Run("StreakWatermark", func(t *testing.T) { testStreakWatermark(t, factory(t)) })
}

func seedUser(t *testing.T, s store.Store) *model.User {
	t.Helper()
	u, err := s.Users().Create(context.Background(), &model.User{
		UserID:   uuid.New().String(),
		Email:    uuid.New().String() + "@example.com",
		TimeZone: "America/New_York",
	})
	require.NoError(t, err)
	return u
}

func testUsers(t *testing.T, s store.Store) {
	ctx := context.Background()

	u := seedUser(t, s)
	got, err := s.Users().Get(ctx, u.UserID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, got.Email)
	assert.Equal(t, "America/New_York", got.TimeZone)
	assert.Equal(t, "ACTIVE", got.Status)
	assert.False(t, got.CreationTime.IsZero())
	assert.Nil(t, got.LastActiveTime)

	// duplicate email conflicts
	_, err = s.Users().Create(ctx, &model.User{
		UserID:   uuid.New().String(),
		Email:    u.Email,
		TimeZone: "UTC",
	})
	require.ErrorIs(t, err, model.ErrConflict)

	_, err = s.Users().Get(ctx, "no-such-user")
	require.ErrorIs(t, err, model.ErrNotFound)

	require.NoError(t, s.Users().TouchLastActive(ctx, u.UserID))
	got, err = s.Users().Get(ctx, u.UserID)
	require.NoError(t, err)
	require.NotNil(t, got.LastActiveTime)

	active, err := s.Users().ListActiveSince(ctx, got.LastActiveTime.Add(-1))
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, u.UserID, active[0].UserID)
}

func testDayGetOrCreate(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := seedUser(t, s)

	_, err := s.Days().Get(ctx, u.UserID, "2025-03-10")
	require.ErrorIs(t, err, model.ErrNotFound)

	d1, err := s.Days().GetOrCreate(ctx, u.UserID, "2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-10", d1.Date)
	assert.Equal(t, "", d1.LastMessageText)

	d2, err := s.Days().GetOrCreate(ctx, u.UserID, "2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, d1.CreatedAt, d2.CreatedAt)

	all, err := s.Days().List(ctx, u.UserID)
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func testDayGetOrCreateConcurrent(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := seedUser(t, s)

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.Days().GetOrCreate(ctx, u.UserID, "2025-03-11")
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}
	all, err := s.Days().List(ctx, u.UserID)
	require.NoError(t, err)
	require.Len(t, all, 1, "concurrent GetOrCreate must converge on one row")
}

func testMessageAppend(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := seedUser(t, s)
	_, err := s.Days().GetOrCreate(ctx, u.UserID, "2025-03-12")
	require.NoError(t, err)

	m, err := s.Messages().Append(ctx, model.AppendMessageRequest{
		UserID: u.UserID, Date: "2025-03-12", Role: model.RoleUser, Text: "hello",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, m.MessageID)
	assert.Equal(t, model.RoleUser, m.Role)

	// day record mirrors the newest message text
	day, err := s.Days().Get(ctx, u.UserID, "2025-03-12")
	require.NoError(t, err)
	assert.Equal(t, "hello", day.LastMessageText)

	_, err = s.Messages().Append(ctx, model.AppendMessageRequest{
		UserID: u.UserID, Date: "2025-03-12", Role: model.RoleAssistant, Text: "hi there",
	})
	require.NoError(t, err)
	day, err = s.Days().Get(ctx, u.UserID, "2025-03-12")
	require.NoError(t, err)
	assert.Equal(t, "hi there", day.LastMessageText)

	msgs, err := s.Messages().ListByDay(ctx, u.UserID, "2025-03-12")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "hello", msgs[0].Text)
	assert.Equal(t, "hi there", msgs[1].Text)
}

func testMessageIdempotency(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := seedUser(t, s)
	_, err := s.Days().GetOrCreate(ctx, u.UserID, "2025-03-13")
	require.NoError(t, err)

	req := model.AppendMessageRequest{
		UserID: u.UserID, Date: "2025-03-13", Role: model.RoleUser,
		Text: "only once", IdempotencyKey: "key-1",
	}
	first, err := s.Messages().Append(ctx, req)
	require.NoError(t, err)

	replay, err := s.Messages().Append(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, first.MessageID, replay.MessageID)

	msgs, err := s.Messages().ListByDay(ctx, u.UserID, "2025-03-13")
	require.NoError(t, err)
	require.Len(t, msgs, 1, "replayed key must not duplicate the message")
}

func testMessageRecent(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := seedUser(t, s)
	_, err := s.Days().GetOrCreate(ctx, u.UserID, "2025-03-14")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := s.Messages().Append(ctx, model.AppendMessageRequest{
			UserID: u.UserID, Date: "2025-03-14", Role: model.RoleUser,
			Text: fmt.Sprintf("m%d", i),
		})
		require.NoError(t, err)
	}

	recent, err := s.Messages().Recent(ctx, u.UserID, "2025-03-14", 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	// newest three, returned oldest first
	assert.Equal(t, "m2", recent[0].Text)
	assert.Equal(t, "m4", recent[2].Text)
}

func testDayPresence(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := seedUser(t, s)

	// day with only a user message
	_, err := s.Days().GetOrCreate(ctx, u.UserID, "2025-03-15")
	require.NoError(t, err)
	_, err = s.Messages().Append(ctx, model.AppendMessageRequest{
		UserID: u.UserID, Date: "2025-03-15", Role: model.RoleUser, Text: "one sided",
	})
	require.NoError(t, err)

	// day with both roles
	_, err = s.Days().GetOrCreate(ctx, u.UserID, "2025-03-16")
	require.NoError(t, err)
	_, err = s.Messages().Append(ctx, model.AppendMessageRequest{
		UserID: u.UserID, Date: "2025-03-16", Role: model.RoleUser, Text: "hi",
	})
	require.NoError(t, err)
	_, err = s.Messages().Append(ctx, model.AppendMessageRequest{
		UserID: u.UserID, Date: "2025-03-16", Role: model.RoleAssistant, Text: "hello back",
	})
	require.NoError(t, err)

	// day whose assistant message is whitespace only
	_, err = s.Days().GetOrCreate(ctx, u.UserID, "2025-03-17")
	require.NoError(t, err)
	_, err = s.Messages().Append(ctx, model.AppendMessageRequest{
		UserID: u.UserID, Date: "2025-03-17", Role: model.RoleUser, Text: "hi",
	})
	require.NoError(t, err)
	_, err = s.Messages().Append(ctx, model.AppendMessageRequest{
		UserID: u.UserID, Date: "2025-03-17", Role: model.RoleAssistant, Text: "   ",
	})
	require.NoError(t, err)

	all, err := s.Days().List(ctx, u.UserID)
	require.NoError(t, err)
	require.Len(t, all, 3)

	byDate := map[string]model.RolePresence{}
	for _, d := range all {
		byDate[d.Day.Date] = d.Presence
	}
	assert.Equal(t, model.RolePresence{HasUserMessage: true}, byDate["2025-03-15"])
	assert.Equal(t, model.RolePresence{HasUserMessage: true, HasAssistantMessage: true}, byDate["2025-03-16"])
	assert.Equal(t, model.RolePresence{HasUserMessage: true, HasAssistantMessage: false}, byDate["2025-03-17"],
		"blank assistant text must not count as presence")
}

func testDayListRange(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := seedUser(t, s)
	for _, d := range []string{"2025-02-27", "2025-03-01", "2025-03-15", "2025-04-01"} {
		_, err := s.Days().GetOrCreate(ctx, u.UserID, d)
		require.NoError(t, err)
	}

	got, err := s.Days().ListRange(ctx, u.UserID, "2025-03-01", "2025-03-31")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2025-03-01", got[0].Day.Date)
	assert.Equal(t, "2025-03-15", got[1].Day.Date)
}

func testStreakWatermark(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := seedUser(t, s)

	_, err := s.Streaks().Get(ctx, u.UserID)
	require.ErrorIs(t, err, model.ErrNotFound)

	first := "2025-03-01"
	st1, err := s.Streaks().Upsert(ctx, &model.StreakState{
		UserID: u.UserID, CurrentStreak: 3, HighestStreak: 5,
		TotalDaysActive: 10, Consistency: 80, FirstDoneDate: &first,
		LastComputedOn: "2025-03-10",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, st1.CurrentStreak)

	// newer watermark wins
	st2, err := s.Streaks().Upsert(ctx, &model.StreakState{
		UserID: u.UserID, CurrentStreak: 4, HighestStreak: 5,
		TotalDaysActive: 11, Consistency: 82, FirstDoneDate: &first,
		LastComputedOn: "2025-03-11",
	})
	require.NoError(t, err)
	assert.Equal(t, 4, st2.CurrentStreak)

	// stale watermark is ignored, stored row returned unchanged
	st3, err := s.Streaks().Upsert(ctx, &model.StreakState{
		UserID: u.UserID, CurrentStreak: 1, HighestStreak: 1,
		TotalDaysActive: 1, Consistency: 10, FirstDoneDate: &first,
		LastComputedOn: "2025-03-05",
	})
	require.NoError(t, err)
	assert.Equal(t, 4, st3.CurrentStreak)
	assert.Equal(t, "2025-03-11", st3.LastComputedOn)
}
