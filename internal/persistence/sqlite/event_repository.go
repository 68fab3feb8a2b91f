package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/household-planner/internal/persistence"
)

// EventRepository implements persistence.EventRepository using SQLite.
type EventRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewEventRepository creates a new SQLite event repository.
func NewEventRepository(pool *ConnectionPool) *EventRepository {
	return &EventRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const eventColumns = `id, user_id, title, description, start_time, end_time, all_day,
	event_type, status, recurrence_kind, recurrence_interval, recurrence_end,
	series_id, created_at, updated_at`

// CreateEvent inserts a single event with its notification settings.
func (r *EventRepository) CreateEvent(ctx context.Context, event persistence.Event) error {
	if event.ID == "" {
		return persistence.ErrConstraintViolation
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		return r.insertEventTx(tx, event)
	})
}

// CreateSeries inserts every event of a materialized series in one
// transaction, so a failure part way leaves nothing behind.
func (r *EventRepository) CreateSeries(ctx context.Context, events []persistence.Event) error {
	if len(events) == 0 {
		return nil
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		for _, event := range events {
			if event.ID == "" {
				return persistence.ErrConstraintViolation
			}
			if err := r.insertEventTx(tx, event); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *EventRepository) insertEventTx(tx *sql.Tx, event persistence.Event) error {
	query := `
		INSERT INTO events (` + eventColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var recurrenceEnd sql.NullString
	if event.RecurrenceEnd != nil {
		recurrenceEnd.String = event.RecurrenceEnd.UTC().Format(time.RFC3339)
		recurrenceEnd.Valid = true
	}

	_, err := r.helper.ExecTx(tx, query,
		event.ID,
		event.UserID,
		event.Title,
		event.Description,
		event.Start.UTC().Format(time.RFC3339),
		event.End.UTC().Format(time.RFC3339),
		boolToInt(event.AllDay),
		event.Type,
		event.Status,
		event.RecurrenceKind,
		event.RecurrenceInterval,
		recurrenceEnd,
		event.SeriesID,
		event.CreatedAt.UTC().Format(time.RFC3339),
		event.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return r.mapEventError(err)
	}

	return r.insertNotificationsTx(tx, event.ID, event.Notifications)
}

// GetEvent retrieves an event by ID.
func (r *EventRepository) GetEvent(ctx context.Context, id string) (persistence.Event, error) {
	if id == "" {
		return persistence.Event{}, persistence.ErrNotFound
	}

	query := `SELECT ` + eventColumns + ` FROM events WHERE id = ?`

	event, err := scanEvent(r.helper.QueryRow(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.Event{}, persistence.ErrNotFound
		}
		return persistence.Event{}, r.mapper.MapError(err)
	}

	notifications, err := r.loadNotifications(ctx, id)
	if err != nil {
		return persistence.Event{}, err
	}
	event.Notifications = notifications

	return event, nil
}

// UpdateEvent updates an existing event and replaces its notification settings.
func (r *EventRepository) UpdateEvent(ctx context.Context, event persistence.Event) error {
	if event.ID == "" {
		return persistence.ErrNotFound
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		query := `
			UPDATE events
			SET title = ?, description = ?, start_time = ?, end_time = ?, all_day = ?,
				event_type = ?, status = ?, recurrence_kind = ?, recurrence_interval = ?,
				recurrence_end = ?, series_id = ?, updated_at = ?
			WHERE id = ?
		`

		var recurrenceEnd sql.NullString
		if event.RecurrenceEnd != nil {
			recurrenceEnd.String = event.RecurrenceEnd.UTC().Format(time.RFC3339)
			recurrenceEnd.Valid = true
		}

		result, err := r.helper.ExecTx(tx, query,
			event.Title,
			event.Description,
			event.Start.UTC().Format(time.RFC3339),
			event.End.UTC().Format(time.RFC3339),
			boolToInt(event.AllDay),
			event.Type,
			event.Status,
			event.RecurrenceKind,
			event.RecurrenceInterval,
			recurrenceEnd,
			event.SeriesID,
			event.UpdatedAt.UTC().Format(time.RFC3339),
			event.ID,
		)
		if err != nil {
			return r.mapEventError(err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return persistence.ErrNotFound
		}

		if _, err := r.helper.ExecTx(tx, "DELETE FROM notification_settings WHERE event_id = ?", event.ID); err != nil {
			return r.mapper.MapError(err)
		}
		return r.insertNotificationsTx(tx, event.ID, event.Notifications)
	})
}

// DeleteEvent removes an event by ID. Its notification settings cascade.
func (r *EventRepository) DeleteEvent(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	result, err := r.helper.Exec(ctx, "DELETE FROM events WHERE id = ?", id)
	if err != nil {
		return r.mapper.MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return persistence.ErrNotFound
	}

	return nil
}

// DeleteSeries removes every event that carries the series id. Deleting an
// unknown series is not an error.
func (r *EventRepository) DeleteSeries(ctx context.Context, seriesID string) error {
	if seriesID == "" {
		return persistence.ErrNotFound
	}

	_, err := r.helper.Exec(ctx, "DELETE FROM events WHERE series_id = ?", seriesID)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

// ListEvents lists events matching the filter ordered by start time.
func (r *EventRepository) ListEvents(ctx context.Context, filter persistence.EventFilter) ([]persistence.Event, error) {
	query, args := buildListQuery(filter)

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var events []persistence.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	for i := range events {
		notifications, err := r.loadNotifications(ctx, events[i].ID)
		if err != nil {
			return nil, err
		}
		events[i].Notifications = notifications
	}

	return events, nil
}

func (r *EventRepository) insertNotificationsTx(tx *sql.Tx, eventID string, settings []persistence.NotificationSetting) error {
	for _, setting := range settings {
		_, err := r.helper.ExecTx(tx,
			"INSERT INTO notification_settings (event_id, position, enabled, timing_minutes) VALUES (?, ?, ?, ?)",
			eventID, setting.Position, boolToInt(setting.Enabled), setting.TimingMinutes)
		if err != nil {
			return r.mapEventError(err)
		}
	}
	return nil
}

func (r *EventRepository) loadNotifications(ctx context.Context, eventID string) ([]persistence.NotificationSetting, error) {
	query := `
		SELECT position, enabled, timing_minutes
		FROM notification_settings
		WHERE event_id = ?
		ORDER BY position ASC
	`

	rows, err := r.helper.Query(ctx, query, eventID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var settings []persistence.NotificationSetting
	for rows.Next() {
		var setting persistence.NotificationSetting
		var enabled int
		if err := rows.Scan(&setting.Position, &enabled, &setting.TimingMinutes); err != nil {
			return nil, r.mapper.MapError(err)
		}
		setting.Enabled = enabled != 0
		settings = append(settings, setting)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return settings, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEvent(row rowScanner) (persistence.Event, error) {
	var event persistence.Event
	var startStr, endStr, createdAtStr, updatedAtStr string
	var allDay int
	var recurrenceEnd sql.NullString

	err := row.Scan(
		&event.ID,
		&event.UserID,
		&event.Title,
		&event.Description,
		&startStr,
		&endStr,
		&allDay,
		&event.Type,
		&event.Status,
		&event.RecurrenceKind,
		&event.RecurrenceInterval,
		&recurrenceEnd,
		&event.SeriesID,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		return persistence.Event{}, err
	}

	event.AllDay = allDay != 0

	if event.Start, err = time.Parse(time.RFC3339, startStr); err != nil {
		return persistence.Event{}, fmt.Errorf("failed to parse start_time: %w", err)
	}
	if event.End, err = time.Parse(time.RFC3339, endStr); err != nil {
		return persistence.Event{}, fmt.Errorf("failed to parse end_time: %w", err)
	}
	if event.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return persistence.Event{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if event.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return persistence.Event{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	if recurrenceEnd.Valid {
		end, err := time.Parse(time.RFC3339, recurrenceEnd.String)
		if err != nil {
			return persistence.Event{}, fmt.Errorf("failed to parse recurrence_end: %w", err)
		}
		event.RecurrenceEnd = &end
	}

	return event, nil
}

func buildListQuery(filter persistence.EventFilter) (string, []interface{}) {
	baseQuery := `SELECT ` + eventColumns + ` FROM events`

	var conditions []string
	var args []interface{}

	if filter.UserID != "" {
		conditions = append(conditions, "user_id = ?")
		args = append(args, filter.UserID)
	}

	if filter.StartsAfter != nil {
		conditions = append(conditions, "start_time >= ?")
		args = append(args, filter.StartsAfter.UTC().Format(time.RFC3339))
	}

	if filter.StartsBefore != nil {
		conditions = append(conditions, "start_time < ?")
		args = append(args, filter.StartsBefore.UTC().Format(time.RFC3339))
	}

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			placeholders[i] = "?"
			args = append(args, status)
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}

	if filter.SeriesID != "" {
		conditions = append(conditions, "series_id = ?")
		args = append(args, filter.SeriesID)
	}

	if len(conditions) > 0 {
		baseQuery += " WHERE " + strings.Join(conditions, " AND ")
	}

	baseQuery += " ORDER BY start_time ASC, id ASC"

	return baseQuery, args
}

// mapEventError maps SQLite errors to appropriate persistence errors for
// event operations.
func (r *EventRepository) mapEventError(err error) error {
	if err == nil {
		return nil
	}

	errStr := err.Error()

	if containsAny(errStr, []string{"UNIQUE constraint failed"}) {
		return persistence.ErrDuplicate
	}
	if containsAny(errStr, []string{"FOREIGN KEY constraint failed"}) {
		return persistence.ErrForeignKeyViolation
	}
	if containsAny(errStr, []string{"CHECK constraint failed"}) {
		return persistence.ErrConstraintViolation
	}

	return r.mapper.MapError(err)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
