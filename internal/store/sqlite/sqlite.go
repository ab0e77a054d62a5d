package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/daybook-ai/daybook/internal/model"
	"github.com/daybook-ai/daybook/internal/store"
)

// New opens a SQLite-backed store at path, applying the schema.
func New(path string) (store.Store, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewWithDB(db), nil
}

// NewWithDB wires a store over an existing connection (used by tests and
// the factory). Callers own schema setup.
func NewWithDB(db *sql.DB) store.Store { return &sqliteStore{db: db} }

type sqliteStore struct{ db *sql.DB }

func (s *sqliteStore) Users() store.Users       { return &users{db: s.db} }
func (s *sqliteStore) Days() store.Days         { return &days{db: s.db} }
func (s *sqliteStore) Messages() store.Messages { return &messages{db: s.db} }
func (s *sqliteStore) Streaks() store.Streaks   { return &streaks{db: s.db} }

// HealthPing implements health.HealthPinger.
func (s *sqliteStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// --- Users ---

type users struct{ db *sql.DB }

func (u *users) Create(ctx context.Context, m *model.User) (*model.User, error) {
	now := time.Now().UTC()
	_, err := u.db.ExecContext(ctx, `INSERT INTO users (user_id, email, display_name, time_zone, status, creation_time) VALUES (?,?,?,?,?,?)`,
		m.UserID, m.Email, m.DisplayName, m.TimeZone, "ACTIVE", now)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("user %s: %w", m.UserID, model.ErrConflict)
		}
		return nil, wrapStoreErr(err)
	}
	out := *m
	out.Status = "ACTIVE"
	out.CreationTime = now
	return &out, nil
}

func (u *users) Get(ctx context.Context, userID string) (*model.User, error) {
	var out model.User
	row := u.db.QueryRowContext(ctx, `SELECT user_id, email, display_name, time_zone, status, creation_time, last_active_time FROM users WHERE user_id = ?`, userID)
	if err := row.Scan(&out.UserID, &out.Email, &out.DisplayName, &out.TimeZone, &out.Status, &out.CreationTime, &out.LastActiveTime); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", userID, model.ErrNotFound)
		}
		return nil, wrapStoreErr(err)
	}
	return &out, nil
}

func (u *users) TouchLastActive(ctx context.Context, userID string) error {
	_, err := u.db.ExecContext(ctx, `UPDATE users SET last_active_time = ? WHERE user_id = ?`, time.Now().UTC(), userID)
	return wrapStoreErr(err)
}

func (u *users) ListActiveSince(ctx context.Context, cutoff time.Time) ([]*model.User, error) {
	rows, err := u.db.QueryContext(ctx, `SELECT user_id, email, display_name, time_zone, status, creation_time, last_active_time FROM users WHERE last_active_time >= ?`, cutoff)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	defer func() { _ = rows.Close() }()
	var out []*model.User
	for rows.Next() {
		var m model.User
		if err := rows.Scan(&m.UserID, &m.Email, &m.DisplayName, &m.TimeZone, &m.Status, &m.CreationTime, &m.LastActiveTime); err != nil {
			return nil, wrapStoreErr(err)
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

// --- Days ---

type days struct{ db *sql.DB }

func (d *days) GetOrCreate(ctx context.Context, userID, date string) (*model.DayRecord, error) {
	now := time.Now().UTC()
	// INSERT OR IGNORE gives create-if-absent at the store level; the
	// follow-up read returns whichever row won, so concurrent callers
	// converge on one record.
	_, err := d.db.ExecContext(ctx, `INSERT OR IGNORE INTO day_records (user_id, date, last_message_text, created_at, updated_at) VALUES (?,?,?,?,?)`,
		userID, date, "", now, now)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return d.Get(ctx, userID, date)
}

func (d *days) Get(ctx context.Context, userID, date string) (*model.DayRecord, error) {
	var out model.DayRecord
	row := d.db.QueryRowContext(ctx, `SELECT user_id, date, last_message_text, created_at, updated_at FROM day_records WHERE user_id = ? AND date = ?`, userID, date)
	if err := row.Scan(&out.UserID, &out.Date, &out.LastMessageText, &out.CreatedAt, &out.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("day %s: %w", date, model.ErrNotFound)
		}
		return nil, wrapStoreErr(err)
	}
	return &out, nil
}

const dayPresenceQuery = `
	SELECT d.user_id, d.date, d.last_message_text, d.created_at, d.updated_at,
	       COALESCE(SUM(CASE WHEN m.role = 'user' AND TRIM(m.text) <> '' THEN 1 ELSE 0 END), 0),
	       COALESCE(SUM(CASE WHEN m.role = 'assistant' AND TRIM(m.text) <> '' THEN 1 ELSE 0 END), 0)
	FROM day_records d
	LEFT JOIN messages m ON m.user_id = d.user_id AND m.date = d.date
	WHERE d.user_id = ?`

func (d *days) List(ctx context.Context, userID string) ([]*model.DayWithPresence, error) {
	rows, err := d.db.QueryContext(ctx, dayPresenceQuery+` GROUP BY d.date ORDER BY d.date ASC`, userID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return scanPresenceRows(rows)
}

func (d *days) ListRange(ctx context.Context, userID, from, to string) ([]*model.DayWithPresence, error) {
	rows, err := d.db.QueryContext(ctx, dayPresenceQuery+` AND d.date >= ? AND d.date <= ? GROUP BY d.date ORDER BY d.date ASC`, userID, from, to)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return scanPresenceRows(rows)
}

func scanPresenceRows(rows *sql.Rows) ([]*model.DayWithPresence, error) {
	defer func() { _ = rows.Close() }()
	var out []*model.DayWithPresence
	for rows.Next() {
		var dp model.DayWithPresence
		var userN, aiN int
		if err := rows.Scan(&dp.Day.UserID, &dp.Day.Date, &dp.Day.LastMessageText, &dp.Day.CreatedAt, &dp.Day.UpdatedAt, &userN, &aiN); err != nil {
			return nil, wrapStoreErr(err)
		}
		dp.Presence = model.RolePresence{HasUserMessage: userN > 0, HasAssistantMessage: aiN > 0}
		out = append(out, &dp)
	}
	return out, rows.Err()
}

// --- Messages ---

type messages struct{ db *sql.DB }

func (ms *messages) Append(ctx context.Context, req model.AppendMessageRequest) (*model.Message, error) {
	now := time.Now().UTC()
	msgID := uuid.New().String()
	key := req.IdempotencyKey
	if key == "" {
		key = msgID
	}

	tx, err := ms.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `INSERT INTO messages (user_id, date, message_id, role, text, created_at, idempotency_key) VALUES (?,?,?,?,?,?,?)`,
		req.UserID, req.Date, msgID, string(req.Role), req.Text, now, key)
	if err != nil {
		if isUniqueViolation(err) {
			// Replayed idempotency key: the append already landed, return it.
			return ms.getByKey(ctx, req.UserID, req.Date, key)
		}
		return nil, wrapStoreErr(err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE day_records SET last_message_text = ?, updated_at = ? WHERE user_id = ? AND date = ?`,
		req.Text, now, req.UserID, req.Date); err != nil {
		return nil, wrapStoreErr(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, wrapStoreErr(err)
	}
	return &model.Message{MessageID: msgID, UserID: req.UserID, Date: req.Date, Role: req.Role, Text: req.Text, CreatedAt: now}, nil
}

func (ms *messages) getByKey(ctx context.Context, userID, date, key string) (*model.Message, error) {
	var m model.Message
	var role string
	row := ms.db.QueryRowContext(ctx, `SELECT message_id, user_id, date, role, text, created_at FROM messages WHERE user_id = ? AND date = ? AND idempotency_key = ?`, userID, date, key)
	if err := row.Scan(&m.MessageID, &m.UserID, &m.Date, &role, &m.Text, &m.CreatedAt); err != nil {
		return nil, wrapStoreErr(err)
	}
	m.Role = model.Role(role)
	return &m, nil
}

func (ms *messages) ListByDay(ctx context.Context, userID, date string) ([]*model.Message, error) {
	rows, err := ms.db.QueryContext(ctx, `SELECT message_id, user_id, date, role, text, created_at FROM messages WHERE user_id = ? AND date = ? ORDER BY created_at ASC, message_id ASC`, userID, date)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return scanMessages(rows)
}

func (ms *messages) Recent(ctx context.Context, userID, date string, limit int) ([]*model.Message, error) {
	if limit <= 0 {
		return ms.ListByDay(ctx, userID, date)
	}
	rows, err := ms.db.QueryContext(ctx, `SELECT message_id, user_id, date, role, text, created_at FROM (
		SELECT message_id, user_id, date, role, text, created_at FROM messages
		WHERE user_id = ? AND date = ? ORDER BY created_at DESC, message_id DESC LIMIT ?
	) ORDER BY created_at ASC, message_id ASC`, userID, date, limit)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return scanMessages(rows)
}

func scanMessages(rows *sql.Rows) ([]*model.Message, error) {
	defer func() { _ = rows.Close() }()
	var out []*model.Message
	for rows.Next() {
		var m model.Message
		var role string
		if err := rows.Scan(&m.MessageID, &m.UserID, &m.Date, &role, &m.Text, &m.CreatedAt); err != nil {
			return nil, wrapStoreErr(err)
		}
		m.Role = model.Role(role)
		out = append(out, &m)
	}
	return out, rows.Err()
}

// --- Streaks ---

type streaks struct{ db *sql.DB }

func (st *streaks) Get(ctx context.Context, userID string) (*model.StreakState, error) {
	var out model.StreakState
	row := st.db.QueryRowContext(ctx, `SELECT user_id, current_streak, highest_streak, total_days_active, consistency, first_done_date, last_computed_on, updated_at FROM streak_states WHERE user_id = ?`, userID)
	if err := row.Scan(&out.UserID, &out.CurrentStreak, &out.HighestStreak, &out.TotalDaysActive, &out.Consistency, &out.FirstDoneDate, &out.LastComputedOn, &out.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("streak state %s: %w", userID, model.ErrNotFound)
		}
		return nil, wrapStoreErr(err)
	}
	return &out, nil
}

func (st *streaks) Upsert(ctx context.Context, s *model.StreakState) (*model.StreakState, error) {
	now := time.Now().UTC()
	// The watermark guard in the ON CONFLICT clause drops stale writes,
	// keeping last_computed_on monotone.
	_, err := st.db.ExecContext(ctx, `INSERT INTO streak_states
		(user_id, current_streak, highest_streak, total_days_active, consistency, first_done_date, last_computed_on, updated_at)
		VALUES (?,?,?,?,?,?,?,?)
		ON CONFLICT (user_id) DO UPDATE SET
			current_streak = excluded.current_streak,
			highest_streak = excluded.highest_streak,
			total_days_active = excluded.total_days_active,
			consistency = excluded.consistency,
			first_done_date = excluded.first_done_date,
			last_computed_on = excluded.last_computed_on,
			updated_at = excluded.updated_at
		WHERE excluded.last_computed_on >= streak_states.last_computed_on`,
		s.UserID, s.CurrentStreak, s.HighestStreak, s.TotalDaysActive, s.Consistency, s.FirstDoneDate, s.LastComputedOn, now)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return st.Get(ctx, s.UserID)
}

// --- helpers ---

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	// modernc.org/sqlite surfaces SQLITE_CONSTRAINT_* in the error text.
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "constraint failed")
}

func wrapStoreErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return model.ErrNotFound
	}
	return fmt.Errorf("%w: %v", model.ErrTransientStore, err)
}
