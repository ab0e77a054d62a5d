package postgres

import (
	"context"
	"database/sql"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
        user_id          TEXT PRIMARY KEY,
        email            TEXT NOT NULL UNIQUE,
        display_name     TEXT,
        time_zone        TEXT NOT NULL,
        status           TEXT NOT NULL DEFAULT 'ACTIVE',
        creation_time    TIMESTAMPTZ NOT NULL DEFAULT now(),
        last_active_time TIMESTAMPTZ
    )`,
	`CREATE TABLE IF NOT EXISTS day_records (
        user_id           TEXT NOT NULL REFERENCES users(user_id),
        date              TEXT NOT NULL,
        last_message_text TEXT NOT NULL DEFAULT '',
        created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
        updated_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
        PRIMARY KEY (user_id, date)
    )`,
	`CREATE TABLE IF NOT EXISTS messages (
        user_id         TEXT NOT NULL,
        date            TEXT NOT NULL,
        message_id      TEXT NOT NULL,
        role            TEXT NOT NULL,
        text            TEXT NOT NULL,
        created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
        idempotency_key TEXT NOT NULL,
        PRIMARY KEY (user_id, date, message_id),
        FOREIGN KEY (user_id, date) REFERENCES day_records(user_id, date)
    )`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_messages_idem
        ON messages (user_id, date, idempotency_key)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_day_order
        ON messages (user_id, date, created_at)`,
	`CREATE TABLE IF NOT EXISTS streak_states (
        user_id           TEXT PRIMARY KEY REFERENCES users(user_id),
        current_streak    INTEGER NOT NULL DEFAULT 0,
        highest_streak    INTEGER NOT NULL DEFAULT 0,
        total_days_active INTEGER NOT NULL DEFAULT 0,
        consistency       INTEGER NOT NULL DEFAULT 0,
        first_done_date   TEXT,
        last_computed_on  TEXT NOT NULL DEFAULT '',
        updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
    )`,
}

// EnsureSchema creates the journal tables if they do not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
