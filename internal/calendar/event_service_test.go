package calendar

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/household-planner/internal/recurrence"
)

type fakeEventStore struct {
	events map[string]Event

	createErr error
	seriesErr error
}

func newFakeEventStore() *fakeEventStore {
	return &fakeEventStore{events: make(map[string]Event)}
}

func (f *fakeEventStore) CreateEvent(_ context.Context, event Event) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.events[event.ID] = event
	return nil
}

func (f *fakeEventStore) CreateSeries(_ context.Context, events []Event) error {
	if f.seriesErr != nil {
		return f.seriesErr
	}
	for _, event := range events {
		f.events[event.ID] = event
	}
	return nil
}

func (f *fakeEventStore) GetEvent(_ context.Context, id string) (Event, error) {
	event, ok := f.events[id]
	if !ok {
		return Event{}, ErrNotFound
	}
	return event, nil
}

func (f *fakeEventStore) UpdateEvent(_ context.Context, event Event) error {
	if _, ok := f.events[event.ID]; !ok {
		return ErrNotFound
	}
	f.events[event.ID] = event
	return nil
}

func (f *fakeEventStore) DeleteEvent(_ context.Context, id string) error {
	if _, ok := f.events[id]; !ok {
		return ErrNotFound
	}
	delete(f.events, id)
	return nil
}

func (f *fakeEventStore) DeleteSeries(_ context.Context, seriesID string) error {
	for id, event := range f.events {
		if event.Recurrence != nil && event.Recurrence.SeriesID == seriesID {
			delete(f.events, id)
		}
	}
	return nil
}

func (f *fakeEventStore) ListEvents(_ context.Context, filter EventFilter) ([]Event, error) {
	var result []Event
	for _, event := range f.events {
		if filter.UserID != "" && event.UserID != filter.UserID {
			continue
		}
		if filter.StartsAfter != nil && event.Start.Before(*filter.StartsAfter) {
			continue
		}
		if filter.StartsBefore != nil && !event.Start.Before(*filter.StartsBefore) {
			continue
		}
		if filter.SeriesID != "" {
			if event.Recurrence == nil || event.Recurrence.SeriesID != filter.SeriesID {
				continue
			}
		}
		if len(filter.Statuses) > 0 {
			matched := false
			for _, status := range filter.Statuses {
				if event.Status == status {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		result = append(result, event)
	}
	return result, nil
}

func newTestService(store *fakeEventStore) *EventService {
	now := time.Date(2025, time.May, 1, 8, 0, 0, 0, time.UTC)
	return NewEventService(store, sequentialIDs("ev"), fixedClock(now))
}

func validInput() EventInput {
	return EventInput{
		Title: "Repot the monstera",
		Start: time.Date(2025, time.May, 10, 10, 0, 0, 0, time.UTC),
		End:   time.Date(2025, time.May, 10, 11, 0, 0, 0, time.UTC),
		Type:  EventTypePlantCare,
	}
}

func TestCreateEventRequiresUser(t *testing.T) {
	service := newTestService(newFakeEventStore())

	_, _, err := service.CreateEvent(context.Background(), "", validInput())
	if !errors.Is(err, ErrNoCurrentUser) {
		t.Fatalf("expected ErrNoCurrentUser, got %v", err)
	}
}

func TestCreateEventValidation(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*EventInput)
		wantField string
	}{
		{
			name:      "missing title",
			mutate:    func(in *EventInput) { in.Title = "   " },
			wantField: "title",
		},
		{
			name:      "missing start",
			mutate:    func(in *EventInput) { in.Start = time.Time{} },
			wantField: "start",
		},
		{
			name: "end before start",
			mutate: func(in *EventInput) {
				in.End = in.Start.Add(-time.Hour)
			},
			wantField: "time",
		},
		{
			name: "negative notification timing",
			mutate: func(in *EventInput) {
				in.Notifications = []NotificationSetting{{Enabled: true, TimingMinutes: -5}}
			},
			wantField: "notifications[0]",
		},
		{
			name: "recurrence interval out of range",
			mutate: func(in *EventInput) {
				in.Recurrence = &recurrence.Rule{Kind: recurrence.KindDaily, Interval: 0}
			},
			wantField: "recurrence.interval",
		},
		{
			name: "recurrence end before event start",
			mutate: func(in *EventInput) {
				end := in.Start.Add(-24 * time.Hour)
				in.Recurrence = &recurrence.Rule{Kind: recurrence.KindDaily, Interval: 1, EndDate: &end}
			},
			wantField: "recurrence.end_date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := newTestService(newFakeEventStore())
			input := validInput()
			tt.mutate(&input)

			_, _, err := service.CreateEvent(context.Background(), "user-1", input)

			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if _, ok := vErr.FieldErrors[tt.wantField]; !ok {
				t.Fatalf("expected error on field %q, got %v", tt.wantField, vErr.FieldErrors)
			}
		})
	}
}

func TestCreateEventSingleInstance(t *testing.T) {
	store := newFakeEventStore()
	service := newTestService(store)

	event, siblings, err := service.CreateEvent(context.Background(), "user-1", validInput())
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	if len(siblings) != 0 {
		t.Fatalf("expected no siblings, got %d", len(siblings))
	}
	if event.Status != EventStatusPending {
		t.Fatalf("status = %q, want pending", event.Status)
	}
	if event.UserID != "user-1" {
		t.Fatalf("user id = %q, want user-1", event.UserID)
	}
	if _, ok := store.events[event.ID]; !ok {
		t.Fatal("event was not persisted")
	}
}

func TestCreateEventRecurringPersistsSeries(t *testing.T) {
	store := newFakeEventStore()
	service := newTestService(store)

	input := validInput()
	endDate := input.Start.AddDate(0, 0, 21)
	input.Recurrence = &recurrence.Rule{Kind: recurrence.KindWeekly, Interval: 1, EndDate: &endDate}

	event, siblings, err := service.CreateEvent(context.Background(), "user-1", input)
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	if event.Recurrence == nil || event.Recurrence.SeriesID == "" {
		t.Fatal("template event lost its series id")
	}
	if len(siblings) != 3 {
		t.Fatalf("expected 3 siblings for three weeks, got %d", len(siblings))
	}
	if len(store.events) != 4 {
		t.Fatalf("expected 4 persisted events, got %d", len(store.events))
	}
	for _, sibling := range siblings {
		if sibling.Recurrence.SeriesID != event.Recurrence.SeriesID {
			t.Fatalf("sibling series id %q differs from template %q",
				sibling.Recurrence.SeriesID, event.Recurrence.SeriesID)
		}
	}
}

func TestCreateEventSeriesPersistFailure(t *testing.T) {
	store := newFakeEventStore()
	store.seriesErr = errors.New("disk full")
	service := newTestService(store)

	input := validInput()
	endDate := input.Start.AddDate(0, 0, 14)
	input.Recurrence = &recurrence.Rule{Kind: recurrence.KindWeekly, Interval: 1, EndDate: &endDate}

	_, _, err := service.CreateEvent(context.Background(), "user-1", input)
	if err == nil || err.Error() != "disk full" {
		t.Fatalf("expected persistence error, got %v", err)
	}
}

func TestGetEventHidesOtherUsers(t *testing.T) {
	store := newFakeEventStore()
	service := newTestService(store)

	event, _, err := service.CreateEvent(context.Background(), "user-1", validInput())
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}

	if _, err := service.GetEvent(context.Background(), "user-2", event.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign user, got %v", err)
	}
	if _, err := service.GetEvent(context.Background(), "user-1", event.ID); err != nil {
		t.Fatalf("owner lookup failed: %v", err)
	}
}

func TestUpdateEventKeepsStatusWhenOmitted(t *testing.T) {
	store := newFakeEventStore()
	service := newTestService(store)

	event, _, err := service.CreateEvent(context.Background(), "user-1", validInput())
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}

	input := validInput()
	input.Title = "Repot and fertilize"
	updated, err := service.UpdateEvent(context.Background(), "user-1", event.ID, input)
	if err != nil {
		t.Fatalf("UpdateEvent: %v", err)
	}
	if updated.Title != "Repot and fertilize" {
		t.Fatalf("title = %q", updated.Title)
	}
	if updated.Status != EventStatusPending {
		t.Fatalf("status changed to %q", updated.Status)
	}

	input.Status = EventStatusCompleted
	updated, err = service.UpdateEvent(context.Background(), "user-1", event.ID, input)
	if err != nil {
		t.Fatalf("UpdateEvent with status: %v", err)
	}
	if updated.Status != EventStatusCompleted {
		t.Fatalf("status = %q, want completed", updated.Status)
	}
}

func TestUpdateEventRejectsRecurrenceChange(t *testing.T) {
	store := newFakeEventStore()
	service := newTestService(store)

	input := validInput()
	endDate := input.Start.AddDate(0, 0, 14)
	input.Recurrence = &recurrence.Rule{Kind: recurrence.KindWeekly, Interval: 1, EndDate: &endDate}

	event, _, err := service.CreateEvent(context.Background(), "user-1", input)
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}

	changed := validInput()
	changed.Recurrence = &recurrence.Rule{Kind: recurrence.KindDaily, Interval: 2, EndDate: &endDate}
	_, err = service.UpdateEvent(context.Background(), "user-1", event.ID, changed)

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := vErr.FieldErrors["recurrence"]; !ok {
		t.Fatalf("expected error on recurrence, got %v", vErr.FieldErrors)
	}
}

func TestUpdateEventPreservesRecurrence(t *testing.T) {
	store := newFakeEventStore()
	service := newTestService(store)

	input := validInput()
	endDate := input.Start.AddDate(0, 0, 14)
	input.Recurrence = &recurrence.Rule{Kind: recurrence.KindWeekly, Interval: 1, EndDate: &endDate}

	event, _, err := service.CreateEvent(context.Background(), "user-1", input)
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}

	// Echoing the stored rule (without the server assigned series id) is fine.
	echo := validInput()
	echo.Title = "Water the ferns thoroughly"
	echo.Recurrence = &recurrence.Rule{Kind: recurrence.KindWeekly, Interval: 1, EndDate: &endDate}
	updated, err := service.UpdateEvent(context.Background(), "user-1", event.ID, echo)
	if err != nil {
		t.Fatalf("UpdateEvent with echoed rule: %v", err)
	}
	if updated.Recurrence == nil || updated.Recurrence.SeriesID != event.Recurrence.SeriesID {
		t.Fatalf("stored rule lost its series id: %+v", updated.Recurrence)
	}

	// Omitting the rule keeps it too.
	omitted := validInput()
	omitted.Title = "Water the ferns again"
	updated, err = service.UpdateEvent(context.Background(), "user-1", event.ID, omitted)
	if err != nil {
		t.Fatalf("UpdateEvent without rule: %v", err)
	}
	if updated.Recurrence == nil || updated.Recurrence.SeriesID != event.Recurrence.SeriesID {
		t.Fatalf("omitting the rule dropped it: %+v", updated.Recurrence)
	}
}

func TestDeleteEventWholeSeries(t *testing.T) {
	store := newFakeEventStore()
	service := newTestService(store)

	input := validInput()
	endDate := input.Start.AddDate(0, 0, 14)
	input.Recurrence = &recurrence.Rule{Kind: recurrence.KindWeekly, Interval: 1, EndDate: &endDate}

	event, siblings, err := service.CreateEvent(context.Background(), "user-1", input)
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	if len(siblings) == 0 {
		t.Fatal("expected siblings")
	}

	if err := service.DeleteEvent(context.Background(), "user-1", event.ID, true); err != nil {
		t.Fatalf("DeleteEvent: %v", err)
	}
	if len(store.events) != 0 {
		t.Fatalf("expected empty store after series delete, got %d events", len(store.events))
	}
}

func TestDeleteEventSingleInstanceOfSeries(t *testing.T) {
	store := newFakeEventStore()
	service := newTestService(store)

	input := validInput()
	endDate := input.Start.AddDate(0, 0, 14)
	input.Recurrence = &recurrence.Rule{Kind: recurrence.KindWeekly, Interval: 1, EndDate: &endDate}

	event, siblings, err := service.CreateEvent(context.Background(), "user-1", input)
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}

	if err := service.DeleteEvent(context.Background(), "user-1", siblings[0].ID, false); err != nil {
		t.Fatalf("DeleteEvent: %v", err)
	}
	if len(store.events) != 1+len(siblings)-1 {
		t.Fatalf("expected one instance removed, got %d events", len(store.events))
	}
	if _, err := service.GetEvent(context.Background(), "user-1", event.ID); err != nil {
		t.Fatalf("template should survive single delete: %v", err)
	}
}

func TestUpcomingEventsEmptyUser(t *testing.T) {
	service := newTestService(newFakeEventStore())

	now := time.Date(2025, time.May, 1, 8, 0, 0, 0, time.UTC)
	events, err := service.UpcomingEvents(context.Background(), "", now, now.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("UpcomingEvents: %v", err)
	}
	if events != nil {
		t.Fatalf("expected nil result for empty user, got %v", events)
	}
}

func TestUpcomingEventsFiltersPending(t *testing.T) {
	store := newFakeEventStore()
	service := newTestService(store)

	event, _, err := service.CreateEvent(context.Background(), "user-1", validInput())
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}

	completed := validInput()
	completed.Title = "Already done"
	completed.Start = event.Start.Add(time.Hour)
	completed.End = completed.Start.Add(time.Hour)
	done, _, err := service.CreateEvent(context.Background(), "user-1", completed)
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	markDone := completed
	markDone.Status = EventStatusCompleted
	if _, err := service.UpdateEvent(context.Background(), "user-1", done.ID, markDone); err != nil {
		t.Fatalf("UpdateEvent: %v", err)
	}

	from := event.Start.Add(-time.Hour)
	until := event.Start.Add(48 * time.Hour)
	upcoming, err := service.UpcomingEvents(context.Background(), "user-1", from, until)
	if err != nil {
		t.Fatalf("UpcomingEvents: %v", err)
	}
	if len(upcoming) != 1 {
		t.Fatalf("expected only the pending event, got %d", len(upcoming))
	}
	if upcoming[0].ID != event.ID {
		t.Fatalf("unexpected event %q", upcoming[0].ID)
	}
}
