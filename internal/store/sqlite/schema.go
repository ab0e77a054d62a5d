package sqlite

import "database/sql"

// EnsureSchema creates all tables and indexes when missing. Statements
// are idempotent so repeated startup is safe.
func EnsureSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			user_id          TEXT PRIMARY KEY,
			email            TEXT NOT NULL UNIQUE,
			display_name     TEXT,
			time_zone        TEXT NOT NULL,
			status           TEXT NOT NULL,
			creation_time    TIMESTAMP NOT NULL,
			last_active_time TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS day_records (
			user_id           TEXT NOT NULL,
			date              TEXT NOT NULL,
			last_message_text TEXT NOT NULL DEFAULT '',
			created_at        TIMESTAMP NOT NULL,
			updated_at        TIMESTAMP NOT NULL,
			PRIMARY KEY (user_id, date)
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			user_id         TEXT NOT NULL,
			date            TEXT NOT NULL,
			message_id      TEXT NOT NULL,
			role            TEXT NOT NULL,
			text            TEXT NOT NULL,
			created_at      TIMESTAMP NOT NULL,
			idempotency_key TEXT NOT NULL,
			PRIMARY KEY (user_id, date, message_id)
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_messages_idem
			ON messages (user_id, date, idempotency_key)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_day_order
			ON messages (user_id, date, created_at)`,
		`CREATE TABLE IF NOT EXISTS streak_states (
			user_id           TEXT PRIMARY KEY,
			current_streak    INTEGER NOT NULL,
			highest_streak    INTEGER NOT NULL,
			total_days_active INTEGER NOT NULL,
			consistency       INTEGER NOT NULL,
			first_done_date   TEXT,
			last_computed_on  TEXT NOT NULL,
			updated_at        TIMESTAMP NOT NULL
		)`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}
