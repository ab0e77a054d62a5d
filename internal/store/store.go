package store

import (
	"context"
	"time"

	"github.com/daybook-ai/daybook/internal/model"
)

// Store exposes persistence operations required by services.
// Implementations live under internal/store/<driver>/ (postgres, sqlite).
type Store interface {
	Users() Users
	Days() Days
	Messages() Messages
	Streaks() Streaks
}

type Users interface {
	Create(ctx context.Context, u *model.User) (*model.User, error)
	Get(ctx context.Context, userID string) (*model.User, error)
	TouchLastActive(ctx context.Context, userID string) error
	// ListActiveSince returns users with activity at or after the cutoff;
	// the rollover worker uses it to scope date-change work.
	ListActiveSince(ctx context.Context, cutoff time.Time) ([]*model.User, error)
}

type Days interface {
	// GetOrCreate fetches the day record keyed by date, creating it when
	// absent with store-level create-if-absent semantics. Concurrent
	// callers on the same date converge on one record; a read-then-write
	// race can never produce a duplicate.
	GetOrCreate(ctx context.Context, userID, date string) (*model.DayRecord, error)
	Get(ctx context.Context, userID, date string) (*model.DayRecord, error)
	// List returns every day record the user has ever had, each with role
	// presence aggregated from live message rows.
	List(ctx context.Context, userID string) ([]*model.DayWithPresence, error)
	ListRange(ctx context.Context, userID, from, to string) ([]*model.DayWithPresence, error)
}

type Messages interface {
	// Append inserts an ordered message and updates the owning day's
	// lastMessageText and updatedAt in the same transaction. A replayed
	// idempotency key returns the originally inserted message.
	Append(ctx context.Context, req model.AppendMessageRequest) (*model.Message, error)
	ListByDay(ctx context.Context, userID, date string) ([]*model.Message, error)
	// Recent returns at most limit messages for the day, oldest first.
	Recent(ctx context.Context, userID, date string, limit int) ([]*model.Message, error)
}

type Streaks interface {
	Get(ctx context.Context, userID string) (*model.StreakState, error)
	// Upsert writes a recompute snapshot. Writes whose LastComputedOn is
	// behind the stored watermark are ignored and the stored row returned,
	// keeping the watermark monotonically non-decreasing.
	Upsert(ctx context.Context, st *model.StreakState) (*model.StreakState, error)
}
