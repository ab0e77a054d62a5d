package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/daybook-ai/daybook/internal/model"
	"github.com/daybook-ai/daybook/internal/store"
)

// Open opens a PostgreSQL connection using the pgx stdlib driver and
// verifies connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// New opens the database, ensures the schema, and returns the store.
func New(ctx context.Context, dsn string) (store.Store, error) {
	db, err := Open(dsn)
	if err != nil {
		return nil, err
	}
	if err := EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewWithDB(db), nil
}

// NewWithDB constructs a Postgres store backed directly by database/sql.
func NewWithDB(db *sql.DB) store.Store { return &pgStore{db: db} }

type pgStore struct{ db *sql.DB }

func (s *pgStore) Users() store.Users       { return &users{db: s.db} }
func (s *pgStore) Days() store.Days         { return &days{db: s.db} }
func (s *pgStore) Messages() store.Messages { return &messages{db: s.db} }
func (s *pgStore) Streaks() store.Streaks   { return &streaks{db: s.db} }

// HealthPing implements health.HealthPinger.
func (s *pgStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// --- Users ---

type users struct{ db *sql.DB }

func (u *users) Create(ctx context.Context, m *model.User) (*model.User, error) {
	var created time.Time
	row := u.db.QueryRowContext(ctx, `
        INSERT INTO users (user_id, email, display_name, time_zone, status, creation_time)
        VALUES ($1,$2,$3,$4,'ACTIVE',now())
        RETURNING creation_time
    `, m.UserID, m.Email, m.DisplayName, m.TimeZone)
	if err := row.Scan(&created); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("user %s: %w", m.UserID, model.ErrConflict)
		}
		return nil, wrapStoreErr(err)
	}
	out := *m
	out.Status = "ACTIVE"
	out.CreationTime = created
	return &out, nil
}

func (u *users) Get(ctx context.Context, userID string) (*model.User, error) {
	var out model.User
	row := u.db.QueryRowContext(ctx, `
        SELECT user_id, email, display_name, time_zone, status, creation_time, last_active_time
        FROM users WHERE user_id=$1
    `, userID)
	if err := row.Scan(&out.UserID, &out.Email, &out.DisplayName, &out.TimeZone, &out.Status, &out.CreationTime, &out.LastActiveTime); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", userID, model.ErrNotFound)
		}
		return nil, wrapStoreErr(err)
	}
	return &out, nil
}

func (u *users) TouchLastActive(ctx context.Context, userID string) error {
	_, err := u.db.ExecContext(ctx, `UPDATE users SET last_active_time=now() WHERE user_id=$1`, userID)
	return wrapStoreErr(err)
}

func (u *users) ListActiveSince(ctx context.Context, cutoff time.Time) ([]*model.User, error) {
	rows, err := u.db.QueryContext(ctx, `
        SELECT user_id, email, display_name, time_zone, status, creation_time, last_active_time
        FROM users WHERE last_active_time >= $1
    `, cutoff)
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
	// ON CONFLICT DO NOTHING gives atomic create-if-absent; the follow-up
	// read returns the winning row regardless of which caller inserted it.
	_, err := d.db.ExecContext(ctx, `
        INSERT INTO day_records (user_id, date, last_message_text, created_at, updated_at)
        VALUES ($1,$2,'',now(),now())
        ON CONFLICT (user_id, date) DO NOTHING
    `, userID, date)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return d.Get(ctx, userID, date)
}

func (d *days) Get(ctx context.Context, userID, date string) (*model.DayRecord, error) {
	var out model.DayRecord
	row := d.db.QueryRowContext(ctx, `
        SELECT user_id, date, last_message_text, created_at, updated_at
        FROM day_records WHERE user_id=$1 AND date=$2
    `, userID, date)
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
           COALESCE(SUM(CASE WHEN m.role = 'user' AND btrim(m.text) <> '' THEN 1 ELSE 0 END), 0),
           COALESCE(SUM(CASE WHEN m.role = 'assistant' AND btrim(m.text) <> '' THEN 1 ELSE 0 END), 0)
    FROM day_records d
    LEFT JOIN messages m ON m.user_id = d.user_id AND m.date = d.date
    WHERE d.user_id = $1`

func (d *days) List(ctx context.Context, userID string) ([]*model.DayWithPresence, error) {
	rows, err := d.db.QueryContext(ctx, dayPresenceQuery+` GROUP BY d.user_id, d.date, d.last_message_text, d.created_at, d.updated_at ORDER BY d.date ASC`, userID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return scanPresenceRows(rows)
}

func (d *days) ListRange(ctx context.Context, userID, from, to string) ([]*model.DayWithPresence, error) {
	rows, err := d.db.QueryContext(ctx, dayPresenceQuery+` AND d.date >= $2 AND d.date <= $3 GROUP BY d.user_id, d.date, d.last_message_text, d.created_at, d.updated_at ORDER BY d.date ASC`, userID, from, to)
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
	msgID := uuid.New().String()
	key := req.IdempotencyKey
	if key == "" {
		key = msgID
	}

	tx, err := ms.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	defer func() { _ = tx.Rollback() }()

	var created time.Time
	row := tx.QueryRowContext(ctx, `
        INSERT INTO messages (user_id, date, message_id, role, text, created_at, idempotency_key)
        VALUES ($1,$2,$3,$4,$5,now(),$6)
        RETURNING created_at
    `, req.UserID, req.Date, msgID, string(req.Role), req.Text, key)
	if err := row.Scan(&created); err != nil {
		if isUniqueViolation(err) {
			return ms.getByKey(ctx, req.UserID, req.Date, key)
		}
		return nil, wrapStoreErr(err)
	}

	if _, err := tx.ExecContext(ctx, `
        UPDATE day_records SET last_message_text=$1, updated_at=now()
        WHERE user_id=$2 AND date=$3
    `, req.Text, req.UserID, req.Date); err != nil {
		return nil, wrapStoreErr(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, wrapStoreErr(err)
	}
	return &model.Message{MessageID: msgID, UserID: req.UserID, Date: req.Date, Role: req.Role, Text: req.Text, CreatedAt: created}, nil
}

func (ms *messages) getByKey(ctx context.Context, userID, date, key string) (*model.Message, error) {
	var m model.Message
	var role string
	row := ms.db.QueryRowContext(ctx, `
        SELECT message_id, user_id, date, role, text, created_at
        FROM messages WHERE user_id=$1 AND date=$2 AND idempotency_key=$3
    `, userID, date, key)
	if err := row.Scan(&m.MessageID, &m.UserID, &m.Date, &role, &m.Text, &m.CreatedAt); err != nil {
		return nil, wrapStoreErr(err)
	}
	m.Role = model.Role(role)
	return &m, nil
}

func (ms *messages) ListByDay(ctx context.Context, userID, date string) ([]*model.Message, error) {
	rows, err := ms.db.QueryContext(ctx, `
        SELECT message_id, user_id, date, role, text, created_at
        FROM messages WHERE user_id=$1 AND date=$2
        ORDER BY created_at ASC, message_id ASC
    `, userID, date)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return scanMessages(rows)
}

func (ms *messages) Recent(ctx context.Context, userID, date string, limit int) ([]*model.Message, error) {
	if limit <= 0 {
		return ms.ListByDay(ctx, userID, date)
	}
	rows, err := ms.db.QueryContext(ctx, `
        SELECT message_id, user_id, date, role, text, created_at FROM (
            SELECT message_id, user_id, date, role, text, created_at
            FROM messages WHERE user_id=$1 AND date=$2
            ORDER BY created_at DESC, message_id DESC LIMIT $3
        ) recent ORDER BY created_at ASC, message_id ASC
    `, userID, date, limit)
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
	row := st.db.QueryRowContext(ctx, `
        SELECT user_id, current_streak, highest_streak, total_days_active, consistency, first_done_date, last_computed_on, updated_at
        FROM streak_states WHERE user_id=$1
    `, userID)
	if err := row.Scan(&out.UserID, &out.CurrentStreak, &out.HighestStreak, &out.TotalDaysActive, &out.Consistency, &out.FirstDoneDate, &out.LastComputedOn, &out.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("streak state %s: %w", userID, model.ErrNotFound)
		}
		return nil, wrapStoreErr(err)
	}
	return &out, nil
}

func (st *streaks) Upsert(ctx context.Context, s *model.StreakState) (*model.StreakState, error) {
	_, err := st.db.ExecContext(ctx, `
        INSERT INTO streak_states
            (user_id, current_streak, highest_streak, total_days_active, consistency, first_done_date, last_computed_on, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,now())
        ON CONFLICT (user_id) DO UPDATE SET
            current_streak = EXCLUDED.current_streak,
            highest_streak = EXCLUDED.highest_streak,
            total_days_active = EXCLUDED.total_days_active,
            consistency = EXCLUDED.consistency,
            first_done_date = EXCLUDED.first_done_date,
            last_computed_on = EXCLUDED.last_computed_on,
            updated_at = EXCLUDED.updated_at
        WHERE EXCLUDED.last_computed_on >= streak_states.last_computed_on
    `, s.UserID, s.CurrentStreak, s.HighestStreak, s.TotalDaysActive, s.Consistency, s.FirstDoneDate, s.LastComputedOn)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return st.Get(ctx, s.UserID)
}

// --- helpers ---

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
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
