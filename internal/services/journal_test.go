package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daybook-ai/daybook/internal/ai"
	"github.com/daybook-ai/daybook/internal/events"
	"github.com/daybook-ai/daybook/internal/model"
	"github.com/daybook-ai/daybook/internal/store"
	"github.com/daybook-ai/daybook/internal/store/sqlite"
)

// fakeClock returns a fixed instant, settable mid-test.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.t = t
}

// stubReplier returns canned text, or an error when failing is set.
type stubReplier struct {
	reply   string
	failing bool
	calls   int
}

func (s *stubReplier) Reply(_ context.Context, _ []*model.Message, _ string) (string, error) {
	s.calls++
	if s.failing {
		return "", errors.New("provider down")
	}
	return s.reply, nil
}

func (s *stubReplier) Complete(_ context.Context, _ string) (string, error) {
	if s.failing {
		return "", errors.New("provider down")
	}
	return s.reply, nil
}

type fixture struct {
	store   store.Store
	clk     *fakeClock
	replier *stubReplier
	bus     *events.Bus
	journal *JournalService
	streaks *StreakService
	users   *UserService
	userID  string
}

// newFixture wires services over an on-disk SQLite store with the clock
// pinned to noon UTC on 2025-03-10 and a UTC test user.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, sqlite.EnsureSchema(db))
	s := sqlite.NewWithDB(db)

	clk := &fakeClock{t: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)}
	replier := &stubReplier{reply: "that sounds like a good day"}
	bus := events.NewBus(16, zerolog.Nop())
	streaks := NewStreakService(s, clk, zerolog.Nop())
	journal := NewJournalService(s, replier, streaks, bus, clk, zerolog.Nop())
	users := NewUserService(s, "UTC", zerolog.Nop())

	u, err := users.Create(context.Background(), CreateUserRequest{Email: "test@example.com", TimeZone: "UTC"})
	require.NoError(t, err)

	return &fixture{store: s, clk: clk, replier: replier, bus: bus, journal: journal, streaks: streaks, users: users, userID: u.UserID}
}

func (f *fixture) send(t *testing.T, date, text string) *SendResult {
	t.Helper()
	res, err := f.journal.SendMessage(context.Background(), model.AppendMessageRequest{
		UserID: f.userID, Date: date, Text: text,
	})
	require.NoError(t, err)
	return res
}

func TestSendMessageCompletesDay(t *testing.T) {
	f := newFixture(t)

	res := f.send(t, "2025-03-10", "today went well")
	assert.Equal(t, model.StatusDone, res.Status)
	assert.False(t, res.UsedFallback)
	assert.Equal(t, model.RoleUser, res.UserMessage.Role)
	assert.Equal(t, "that sounds like a good day", res.AssistantMessage.Text)

	st, err := f.streaks.Get(context.Background(), f.userID)
	require.NoError(t, err)
	assert.Equal(t, 1, st.CurrentStreak)
	assert.Equal(t, 1, st.TotalDaysActive)
	assert.Equal(t, 100, st.Consistency)

	select {
	case ev := <-f.bus.C():
		assert.Equal(t, events.KindDayCompleted, ev.Kind)
		assert.Equal(t, "2025-03-10", ev.Date)
	default:
		t.Fatal("expected a day-completed event")
	}
}

func TestSendMessageRejectsPastDay(t *testing.T) {
	f := newFixture(t)
	_, err := f.journal.SendMessage(context.Background(), model.AppendMessageRequest{
		UserID: f.userID, Date: "2025-03-09", Text: "late entry",
	})
	require.ErrorIs(t, err, model.ErrValidation)
}

func TestSendMessageFallbackStillCompletesDay(t *testing.T) {
	f := newFixture(t)
	f.replier.failing = true

	res := f.send(t, "2025-03-10", "hello?")
	assert.True(t, res.UsedFallback)
	assert.Equal(t, ai.FallbackMessage, res.AssistantMessage.Text)
	// the fallback assistant turn is a real non-empty message, so the
	// day still counts as done
	assert.Equal(t, model.StatusDone, res.Status)
}

func TestSendMessageIdempotentReplay(t *testing.T) {
	f := newFixture(t)

	req := model.AppendMessageRequest{
		UserID: f.userID, Date: "2025-03-10", Text: "once", IdempotencyKey: "k1",
	}
	first, err := f.journal.SendMessage(context.Background(), req)
	require.NoError(t, err)
	second, err := f.journal.SendMessage(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.UserMessage.MessageID, second.UserMessage.MessageID)
	assert.Equal(t, first.AssistantMessage.MessageID, second.AssistantMessage.MessageID)

	msgs, err := f.journal.History(context.Background(), f.userID, "2025-03-10")
	require.NoError(t, err)
	assert.Len(t, msgs, 2, "replay must not duplicate either turn")
}

func TestOpenDayCreatesOnlyToday(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	view, err := f.journal.OpenDay(ctx, f.userID, "2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, view.Status)
	assert.Empty(t, view.Messages)

	// past day with no record reads as not found, never created
	_, err = f.journal.OpenDay(ctx, f.userID, "2025-03-01")
	require.ErrorIs(t, err, model.ErrNotFound)

	// future day is rejected outright
	_, err = f.journal.OpenDay(ctx, f.userID, "2025-03-11")
	require.ErrorIs(t, err, model.ErrValidation)
}

func TestCalendarSynthesizesFullMonth(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.send(t, "2025-03-10", "done today")
	// a day the user opened but never finished
	_, err := f.store.Days().GetOrCreate(ctx, f.userID, "2025-03-05")
	require.NoError(t, err)

	cal, err := f.journal.Calendar(ctx, f.userID, 2025, 3)
	require.NoError(t, err)
	require.Len(t, cal, 31)

	byDate := map[string]*model.CalendarDay{}
	for _, d := range cal {
		byDate[d.Date] = d
	}
	assert.Equal(t, model.StatusDone, byDate["2025-03-10"].Status)
	assert.Equal(t, "that sounds like a good day", byDate["2025-03-10"].LastMessageText)
	assert.Equal(t, model.StatusMissed, byDate["2025-03-05"].Status)
	assert.True(t, byDate["2025-03-05"].HasChat)
	assert.Equal(t, model.StatusMissed, byDate["2025-03-01"].Status)
	assert.False(t, byDate["2025-03-01"].HasChat)
	assert.Equal(t, model.StatusUpcoming, byDate["2025-03-25"].Status)
}

func TestStreakAcrossDateRollover(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.send(t, "2025-03-10", "day one")
	f.clk.Set(time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC))
	f.send(t, "2025-03-11", "day two")

	st, err := f.streaks.Get(ctx, f.userID)
	require.NoError(t, err)
	assert.Equal(t, 2, st.CurrentStreak)
	assert.Equal(t, 2, st.HighestStreak)

	// two idle days later the current streak reads zero without any
	// write having happened in between
	f.clk.Set(time.Date(2025, 3, 13, 9, 0, 0, 0, time.UTC))
	st, err = f.streaks.Get(ctx, f.userID)
	require.NoError(t, err)
	assert.Equal(t, 0, st.CurrentStreak)
	assert.Equal(t, 2, st.HighestStreak)
	assert.Equal(t, 2, st.TotalDaysActive)
}

func TestRolloverWorkerSeedsNewDay(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f.send(t, "2025-03-10", "before midnight")

	worker := NewRolloverWorker(f.store, f.streaks, f.bus, f.clk, 0, zerolog.Nop())
	go worker.Run(ctx)

	f.clk.Set(time.Date(2025, 3, 11, 0, 1, 0, 0, time.UTC))
	f.bus.Publish(events.Event{Kind: events.KindDateRolled, Date: "2025-03-11"})

	require.Eventually(t, func() bool {
		_, err := f.store.Days().Get(context.Background(), f.userID, "2025-03-11")
		return err == nil
	}, 2*time.Second, 10*time.Millisecond, "worker should seed the new day record")

	view, err := f.journal.OpenDay(context.Background(), f.userID, "2025-03-11")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, view.Status)
}
