// Package services holds the business logic between the HTTP API and
// the store. Services validate input, enforce day-identity rules, and
// keep derived state (status, streaks) consistent.
package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/daybook-ai/daybook/internal/ai"
	"github.com/daybook-ai/daybook/internal/clock"
	"github.com/daybook-ai/daybook/internal/daystatus"
	"github.com/daybook-ai/daybook/internal/events"
	"github.com/daybook-ai/daybook/internal/model"
	"github.com/daybook-ai/daybook/internal/store"
)

// DayView is a day opened for reading or chatting.
type DayView struct {
	Day      *model.DayRecord `json:"day"`
	Messages []*model.Message `json:"messages"`
	Status   model.DayStatus  `json:"status"`
}

// SendResult is the outcome of one send exchange.
type SendResult struct {
	UserMessage      *model.Message  `json:"userMessage"`
	AssistantMessage *model.Message  `json:"assistantMessage"`
	Status           model.DayStatus `json:"status"`
	UsedFallback     bool            `json:"usedFallback"`
}

// JournalService owns the per-day chat flow.
type JournalService struct {
	store   store.Store
	replier ai.Replier
	streaks *StreakService
	bus     *events.Bus
	clk     clock.Clock
	log     zerolog.Logger

	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewJournalService(s store.Store, r ai.Replier, st *StreakService, bus *events.Bus, clk clock.Clock, log zerolog.Logger) *JournalService {
	return &JournalService{
		store:    s,
		replier:  r,
		streaks:  st,
		bus:      bus,
		clk:      clk,
		log:      log.With().Str("service", "journal").Logger(),
		inflight: make(map[string]struct{}),
	}
}

// acquire marks a (user, date) exchange as in flight. A second send for
// the same day while one is running is rejected instead of queued so
// reply ordering inside a day stays strict.
func (j *JournalService) acquire(userID, date string) error {
	key := userID + "|" + date
	j.mu.Lock()
	defer j.mu.Unlock()
	if _, busy := j.inflight[key]; busy {
		return fmt.Errorf("send already in progress for %s: %w", date, model.ErrConflict)
	}
	j.inflight[key] = struct{}{}
	return nil
}

func (j *JournalService) release(userID, date string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	delete(j.inflight, userID+"|"+date)
}

func (j *JournalService) userLocation(ctx context.Context, userID string) (*model.User, *time.Location, error) {
	u, err := j.store.Users().Get(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	loc, err := time.LoadLocation(u.TimeZone)
	if err != nil {
		return nil, nil, fmt.Errorf("user %s has invalid time zone %q: %w", userID, u.TimeZone, model.ErrValidation)
	}
	return u, loc, nil
}

// OpenDay returns the day identified by date, creating today's record
// on first open. Past days are readable but never created; future days
// are rejected.
func (j *JournalService) OpenDay(ctx context.Context, userID, date string) (*DayView, error) {
	if !clock.IsValid(date) {
		return nil, fmt.Errorf("invalid date %q: %w", date, model.ErrValidation)
	}
	_, loc, err := j.userLocation(ctx, userID)
	if err != nil {
		return nil, err
	}
	today := clock.Today(j.clk, loc)

	var day *model.DayRecord
	switch {
	case date > today:
		return nil, fmt.Errorf("cannot open future day %s: %w", date, model.ErrValidation)
	case date == today:
		day, err = j.store.Days().GetOrCreate(ctx, userID, date)
	default:
		day, err = j.store.Days().Get(ctx, userID, date)
	}
	if err != nil {
		return nil, err
	}

	msgs, err := j.store.Messages().ListByDay(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	status, err := j.dayStatus(ctx, userID, date, today)
	if err != nil {
		return nil, err
	}
	return &DayView{Day: day, Messages: msgs, Status: status}, nil
}

// SendMessage runs one exchange: persist the user turn, generate the
// assistant turn, and refresh derived state. Sends are only accepted
// for the user's current local day.
func (j *JournalService) SendMessage(ctx context.Context, req model.AppendMessageRequest) (*SendResult, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, fmt.Errorf("message text is empty: %w", model.ErrValidation)
	}
	if !clock.IsValid(req.Date) {
		return nil, fmt.Errorf("invalid date %q: %w", req.Date, model.ErrValidation)
	}
	_, loc, err := j.userLocation(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	today := clock.Today(j.clk, loc)
	if req.Date != today {
		return nil, fmt.Errorf("cannot send messages to %s, current day is %s: %w", req.Date, today, model.ErrValidation)
	}

	if err := j.acquire(req.UserID, req.Date); err != nil {
		return nil, err
	}
	defer j.release(req.UserID, req.Date)

	if _, err := j.store.Days().GetOrCreate(ctx, req.UserID, req.Date); err != nil {
		return nil, err
	}

	// history is captured before the new turn so the prompt shows prior
	// context and the fresh message exactly once
	history, err := j.store.Messages().Recent(ctx, req.UserID, req.Date, ai.HistoryWindow)
	if err != nil {
		return nil, err
	}

	req.Role = model.RoleUser
	userMsg, err := j.store.Messages().Append(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := j.store.Users().TouchLastActive(ctx, req.UserID); err != nil {
		j.log.Warn().Err(err).Str("user_id", req.UserID).Msg("touch last active failed")
	}

	replyText, replyErr := j.replier.Reply(ctx, history, req.Text)
	usedFallback := false
	if replyErr != nil {
		j.log.Error().Err(replyErr).Str("user_id", req.UserID).Str("date", req.Date).Msg("reply provider failed, using fallback")
		replyText = ai.FallbackMessage
		usedFallback = true
	}

	replyReq := model.AppendMessageRequest{
		UserID: req.UserID,
		Date:   req.Date,
		Role:   model.RoleAssistant,
		Text:   replyText,
	}
	if req.IdempotencyKey != "" {
		replyReq.IdempotencyKey = req.IdempotencyKey + ":reply"
	}
	aiMsg, err := j.store.Messages().Append(ctx, replyReq)
	if err != nil {
		return nil, err
	}

	status, err := j.dayStatus(ctx, req.UserID, req.Date, today)
	if err != nil {
		return nil, err
	}
	if status == model.StatusDone {
		if _, err := j.streaks.Recompute(ctx, req.UserID); err != nil {
			j.log.Error().Err(err).Str("user_id", req.UserID).Msg("streak recompute failed")
		}
		j.bus.Publish(events.Event{Kind: events.KindDayCompleted, UserID: req.UserID, Date: req.Date})
	}

	return &SendResult{UserMessage: userMsg, AssistantMessage: aiMsg, Status: status, UsedFallback: usedFallback}, nil
}

// History returns every message for the given day, oldest first.
func (j *JournalService) History(ctx context.Context, userID, date string) ([]*model.Message, error) {
	if !clock.IsValid(date) {
		return nil, fmt.Errorf("invalid date %q: %w", date, model.ErrValidation)
	}
	if _, err := j.store.Days().Get(ctx, userID, date); err != nil {
		return nil, err
	}
	return j.store.Messages().ListByDay(ctx, userID, date)
}

// ListDays returns all of the user's days with their derived status.
func (j *JournalService) ListDays(ctx context.Context, userID string) ([]*model.CalendarDay, error) {
	_, loc, err := j.userLocation(ctx, userID)
	if err != nil {
		return nil, err
	}
	today := clock.Today(j.clk, loc)

	days, err := j.store.Days().List(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]*model.CalendarDay, 0, len(days))
	for _, d := range days {
		out = append(out, &model.CalendarDay{
			Date:            d.Day.Date,
			Status:          daystatus.Classify(d.Day.Date, true, d.Presence, today),
			HasChat:         true,
			LastMessageText: d.Day.LastMessageText,
		})
	}
	return out, nil
}

// Calendar synthesizes a status for every day of the month, including
// days that have no record yet.
func (j *JournalService) Calendar(ctx context.Context, userID string, year, month int) ([]*model.CalendarDay, error) {
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("month %d out of range: %w", month, model.ErrValidation)
	}
	if year < 1970 || year > 9999 {
		return nil, fmt.Errorf("year %d out of range: %w", year, model.ErrValidation)
	}
	_, loc, err := j.userLocation(ctx, userID)
	if err != nil {
		return nil, err
	}
	today := clock.Today(j.clk, loc)

	first, last := clock.MonthBounds(time.Month(month), year)
	days, err := j.store.Days().ListRange(ctx, userID, first, last)
	if err != nil {
		return nil, err
	}
	byDate := make(map[string]*model.DayWithPresence, len(days))
	for _, d := range days {
		byDate[d.Day.Date] = d
	}

	total := clock.DaysInMonth(time.Month(month), year)
	out := make([]*model.CalendarDay, 0, total)
	for i := 0; i < total; i++ {
		date, err := clock.AddDays(first, i)
		if err != nil {
			return nil, err
		}
		cd := &model.CalendarDay{Date: date}
		if d, ok := byDate[date]; ok {
			cd.Status = daystatus.Classify(date, true, d.Presence, today)
			cd.HasChat = true
			cd.LastMessageText = d.Day.LastMessageText
		} else {
			cd.Status = daystatus.Classify(date, false, model.RolePresence{}, today)
		}
		out = append(out, cd)
	}
	return out, nil
}

func (j *JournalService) dayStatus(ctx context.Context, userID, date, today string) (model.DayStatus, error) {
	days, err := j.store.Days().ListRange(ctx, userID, date, date)
	if err != nil {
		return "", err
	}
	if len(days) == 0 {
		return daystatus.Classify(date, false, model.RolePresence{}, today), nil
	}
	return daystatus.Classify(date, true, days[0].Presence, today), nil
}
