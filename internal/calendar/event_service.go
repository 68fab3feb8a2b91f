package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/household-planner/internal/recurrence"
)

// EventStore captures the persistence interactions needed by the service.
type EventStore interface {
	CreateEvent(ctx context.Context, event Event) error
	CreateSeries(ctx context.Context, events []Event) error
	GetEvent(ctx context.Context, id string) (Event, error)
	UpdateEvent(ctx context.Context, event Event) error
	DeleteEvent(ctx context.Context, id string) error
	DeleteSeries(ctx context.Context, seriesID string) error
	ListEvents(ctx context.Context, filter EventFilter) ([]Event, error)
}

// EventService orchestrates validation, series materialization and
// persistence for calendar events.
type EventService struct {
	store        EventStore
	materializer *Materializer
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
}

// NewEventService wires dependencies for event operations.
func NewEventService(store EventStore, idGenerator func() string, now func() time.Time) *EventService {
	return NewEventServiceWithLogger(store, idGenerator, now, nil)
}

// NewEventServiceWithLogger wires dependencies and attaches a logger.
func NewEventServiceWithLogger(store EventStore, idGenerator func() string, now func() time.Time, logger *slog.Logger) *EventService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &EventService{
		store:        store,
		materializer: NewMaterializer(idGenerator, now),
		idGenerator:  idGenerator,
		now:          now,
		logger:       logger,
	}
}

// CreateEvent validates the input, expands a recurring template into its
// series and persists the result atomically. It returns the template event
// and any materialized siblings.
func (s *EventService) CreateEvent(ctx context.Context, userID string, input EventInput) (Event, []Event, error) {
	if s == nil || s.store == nil {
		return Event{}, nil, fmt.Errorf("event store not configured")
	}
	if userID == "" {
		return Event{}, nil, ErrNoCurrentUser
	}

	vErr := &ValidationError{}
	s.validateEventCore(input, vErr)
	if input.Recurrence != nil {
		s.validateRecurrence(*input.Recurrence, input.Start, vErr)
	}
	if vErr.HasErrors() {
		return Event{}, nil, vErr
	}

	createdAt := s.now()
	event := Event{
		ID:            s.idGenerator(),
		UserID:        userID,
		Title:         strings.TrimSpace(input.Title),
		Description:   input.Description,
		Start:         input.Start,
		End:           input.End,
		AllDay:        input.AllDay,
		Type:          normalizeType(input.Type),
		Status:        EventStatusPending,
		Notifications: append([]NotificationSetting(nil), input.Notifications...),
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}

	if input.Recurrence == nil {
		if err := s.store.CreateEvent(ctx, event); err != nil {
			return Event{}, nil, err
		}
		return event, nil, nil
	}

	rule := *input.Recurrence
	rule.SeriesID = s.idGenerator()
	event.Recurrence = &rule

	siblings, err := s.materializer.GenerateRecurringEvents(userID, event)
	if err != nil {
		return Event{}, nil, err
	}

	series := append([]Event{event}, siblings...)
	if err := s.store.CreateSeries(ctx, series); err != nil {
		return Event{}, nil, err
	}

	s.logger.InfoContext(ctx, "materialized event series",
		"series_id", rule.SeriesID,
		"instances", len(series),
	)

	return event, siblings, nil
}

// GetEvent fetches one event owned by the user.
func (s *EventService) GetEvent(ctx context.Context, userID, id string) (Event, error) {
	if s == nil || s.store == nil {
		return Event{}, fmt.Errorf("event store not configured")
	}

	event, err := s.store.GetEvent(ctx, id)
	if err != nil {
		return Event{}, err
	}
	if event.UserID != userID {
		return Event{}, ErrNotFound
	}
	return event, nil
}

// UpdateEvent applies changes to a single instance. Siblings of a series are
// left untouched; series-wide edits are a caller concern layered on top. The
// recurrence rule is fixed at creation: the input may omit it or echo the
// stored rule, but changing it is a validation error.
func (s *EventService) UpdateEvent(ctx context.Context, userID, id string, input EventInput) (Event, error) {
	if s == nil || s.store == nil {
		return Event{}, fmt.Errorf("event store not configured")
	}

	existing, err := s.GetEvent(ctx, userID, id)
	if err != nil {
		return Event{}, err
	}

	vErr := &ValidationError{}
	s.validateEventCore(input, vErr)
	if input.Status != "" && !validStatus(input.Status) {
		vErr.add("status", "unknown status")
	}
	if input.Recurrence != nil && !sameRecurrence(existing.Recurrence, input.Recurrence) {
		vErr.add("recurrence", "recurrence cannot be changed on an existing event")
	}
	if vErr.HasErrors() {
		return Event{}, vErr
	}

	updated := existing
	updated.Title = strings.TrimSpace(input.Title)
	updated.Description = input.Description
	updated.Start = input.Start
	updated.End = input.End
	updated.AllDay = input.AllDay
	updated.Type = normalizeType(input.Type)
	if input.Status != "" {
		updated.Status = input.Status
	}
	updated.Notifications = append([]NotificationSetting(nil), input.Notifications...)
	updated.UpdatedAt = s.now()

	if err := s.store.UpdateEvent(ctx, updated); err != nil {
		return Event{}, err
	}
	return updated, nil
}

// DeleteEvent removes one instance, or the whole series when requested and
// the event belongs to one.
func (s *EventService) DeleteEvent(ctx context.Context, userID, id string, wholeSeries bool) error {
	if s == nil || s.store == nil {
		return fmt.Errorf("event store not configured")
	}

	existing, err := s.GetEvent(ctx, userID, id)
	if err != nil {
		return err
	}

	if wholeSeries && existing.Recurrence != nil && existing.Recurrence.SeriesID != "" {
		return s.store.DeleteSeries(ctx, existing.Recurrence.SeriesID)
	}
	return s.store.DeleteEvent(ctx, id)
}

// ListEvents enumerates the user's events intersecting the optional window.
// An empty user yields no work rather than an error.
func (s *EventService) ListEvents(ctx context.Context, userID string, from, to *time.Time) ([]Event, error) {
	if s == nil || s.store == nil {
		return nil, fmt.Errorf("event store not configured")
	}
	if userID == "" {
		return nil, nil
	}

	return s.store.ListEvents(ctx, EventFilter{
		UserID:       userID,
		StartsAfter:  from,
		StartsBefore: to,
	})
}

// UpcomingEvents returns the user's pending events starting within the
// window, the feed the reminder scheduler re-arms from.
func (s *EventService) UpcomingEvents(ctx context.Context, userID string, from, until time.Time) ([]Event, error) {
	if s == nil || s.store == nil {
		return nil, fmt.Errorf("event store not configured")
	}
	if userID == "" {
		return nil, nil
	}

	return s.store.ListEvents(ctx, EventFilter{
		UserID:       userID,
		StartsAfter:  &from,
		StartsBefore: &until,
		Statuses:     []EventStatus{EventStatusPending},
	})
}

func (s *EventService) validateEventCore(input EventInput, vErr *ValidationError) {
	if strings.TrimSpace(input.Title) == "" {
		vErr.add("title", "title is required")
	}
	if input.Start.IsZero() {
		vErr.add("start", "start is required")
	}
	if input.End.IsZero() {
		vErr.add("end", "end is required")
	}
	if !input.Start.IsZero() && !input.End.IsZero() && input.End.Before(input.Start) {
		vErr.add("time", "end must not be before start")
	}
	if input.Type != "" && normalizeType(input.Type) != input.Type {
		vErr.add("type", "unknown event type")
	}
	for i, setting := range input.Notifications {
		if setting.TimingMinutes < 0 {
			vErr.add(fmt.Sprintf("notifications[%d]", i), "timing must not be negative")
		}
	}
}

func (s *EventService) validateRecurrence(rule recurrence.Rule, anchor time.Time, vErr *ValidationError) {
	result := recurrence.ValidateRule(rule, s.now())
	for _, fieldErr := range result.Errors {
		vErr.add("recurrence."+fieldErr.Field, fieldErr.Message)
	}
	if rule.EndDate != nil && !anchor.IsZero() && !rule.EndDate.After(anchor) {
		vErr.add("recurrence.end_date", "end date must be after the event start")
	}
}

// sameRecurrence compares the caller visible rule fields; the series id is
// assigned server side and ignored.
func sameRecurrence(a, b *recurrence.Rule) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind != b.Kind || a.Interval != b.Interval {
		return false
	}
	if (a.EndDate == nil) != (b.EndDate == nil) {
		return false
	}
	return a.EndDate == nil || a.EndDate.Equal(*b.EndDate)
}

func normalizeType(t EventType) EventType {
	switch t {
	case EventTypeTask, EventTypeProject, EventTypePlantCare, EventTypeCustom:
		return t
	default:
		return EventTypeCustom
	}
}

func validStatus(status EventStatus) bool {
	switch status {
	case EventStatusPending, EventStatusCompleted, EventStatusCancelled:
		return true
	default:
		return false
	}
}
