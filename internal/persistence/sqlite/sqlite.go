package sqlite

import (
	"context"
	"fmt"
)

// schema defines the planner tables. Notification settings live in a child
// table keyed by (event_id, position) and vanish with their event.
const schema = `
CREATE TABLE IF NOT EXISTS events (
	id                  TEXT PRIMARY KEY,
	user_id             TEXT NOT NULL,
	title               TEXT NOT NULL,
	description         TEXT NOT NULL DEFAULT '',
	start_time          TEXT NOT NULL,
	end_time            TEXT NOT NULL,
	all_day             INTEGER NOT NULL DEFAULT 0,
	event_type          TEXT NOT NULL DEFAULT 'custom',
	status              TEXT NOT NULL DEFAULT 'pending',
	recurrence_kind     TEXT NOT NULL DEFAULT '',
	recurrence_interval INTEGER NOT NULL DEFAULT 0,
	recurrence_end      TEXT,
	series_id           TEXT NOT NULL DEFAULT '',
	created_at          TEXT NOT NULL,
	updated_at          TEXT NOT NULL,
	CHECK (end_time >= start_time)
);

CREATE INDEX IF NOT EXISTS idx_events_user_start ON events (user_id, start_time);
CREATE INDEX IF NOT EXISTS idx_events_series ON events (series_id) WHERE series_id != '';

CREATE TABLE IF NOT EXISTS notification_settings (
	event_id       TEXT NOT NULL,
	position       INTEGER NOT NULL,
	enabled        INTEGER NOT NULL DEFAULT 1,
	timing_minutes INTEGER NOT NULL CHECK (timing_minutes >= 0),
	PRIMARY KEY (event_id, position),
	FOREIGN KEY (event_id) REFERENCES events (id) ON DELETE CASCADE
);
`

// Migrate creates the planner tables if they do not exist yet.
func Migrate(ctx context.Context, pool *ConnectionPool) error {
	if _, err := pool.DB().ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("sqlite: migration failed: %w", err)
	}
	return nil
}
