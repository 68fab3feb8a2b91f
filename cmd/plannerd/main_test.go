package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/household-planner/internal/calendar"
	"github.com/example/household-planner/internal/persistence"
	"github.com/example/household-planner/internal/persistence/sqlite"
	"github.com/example/household-planner/internal/recurrence"
)

func newAdapter(t *testing.T) *eventStoreAdapter {
	t.Helper()

	pool, err := sqlite.NewConnectionPool("file:" + t.TempDir() + "/plannerd_test.db")
	if err != nil {
		t.Fatalf("NewConnectionPool: %v", err)
	}
	t.Cleanup(func() { pool.Close() })

	if err := sqlite.Migrate(context.Background(), pool); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	return newEventStoreAdapter(sqlite.NewEventRepository(pool))
}

func TestEventRoundTripThroughAdapter(t *testing.T) {
	adapter := newAdapter(t)
	ctx := context.Background()

	end := time.Date(2025, time.December, 1, 0, 0, 0, 0, time.UTC)
	start := time.Date(2025, time.June, 2, 9, 0, 0, 0, time.UTC)
	event := calendar.Event{
		ID:     "ev-1",
		UserID: "user-1",
		Title:  "Deep clean the kitchen",
		Start:  start,
		End:    start.Add(2 * time.Hour),
		Type:   calendar.EventTypeTask,
		Status: calendar.EventStatusPending,
		Recurrence: &recurrence.Rule{
			Kind:     recurrence.KindMonthly,
			Interval: 1,
			EndDate:  &end,
			SeriesID: "series-1",
		},
		Notifications: []calendar.NotificationSetting{
			{Enabled: true, TimingMinutes: 30},
			{Enabled: false, TimingMinutes: 120},
		},
		CreatedAt: start,
		UpdatedAt: start,
	}

	if err := adapter.CreateEvent(ctx, event); err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}

	got, err := adapter.GetEvent(ctx, "ev-1")
	if err != nil {
		t.Fatalf("GetEvent: %v", err)
	}

	if got.Recurrence == nil {
		t.Fatal("recurrence rule lost in round trip")
	}
	if got.Recurrence.Kind != recurrence.KindMonthly || got.Recurrence.Interval != 1 {
		t.Errorf("rule = %+v", got.Recurrence)
	}
	if got.Recurrence.SeriesID != "series-1" {
		t.Errorf("series id = %q", got.Recurrence.SeriesID)
	}
	if got.Recurrence.EndDate == nil || !got.Recurrence.EndDate.Equal(end) {
		t.Errorf("end date = %v, want %v", got.Recurrence.EndDate, end)
	}
	if len(got.Notifications) != 2 {
		t.Fatalf("notifications = %d, want 2", len(got.Notifications))
	}
	if got.Notifications[0].TimingMinutes != 30 || got.Notifications[1].TimingMinutes != 120 {
		t.Errorf("notification order lost: %+v", got.Notifications)
	}
}

func TestAdapterMapsNotFound(t *testing.T) {
	adapter := newAdapter(t)

	_, err := adapter.GetEvent(context.Background(), "missing")
	if !errors.Is(err, calendar.ErrNotFound) {
		t.Fatalf("expected calendar.ErrNotFound, got %v", err)
	}
}

func TestNonRecurringEventHasNoRule(t *testing.T) {
	adapter := newAdapter(t)
	ctx := context.Background()

	start := time.Date(2025, time.June, 2, 9, 0, 0, 0, time.UTC)
	event := calendar.Event{
		ID:        "ev-plain",
		UserID:    "user-1",
		Title:     "One-off errand",
		Start:     start,
		End:       start.Add(time.Hour),
		Type:      calendar.EventTypeCustom,
		Status:    calendar.EventStatusPending,
		CreatedAt: start,
		UpdatedAt: start,
	}

	if err := adapter.CreateEvent(ctx, event); err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}

	got, err := adapter.GetEvent(ctx, "ev-plain")
	if err != nil {
		t.Fatalf("GetEvent: %v", err)
	}
	if got.Recurrence != nil {
		t.Fatalf("expected no recurrence rule, got %+v", got.Recurrence)
	}
}

func TestToPersistenceEventPositionsNotifications(t *testing.T) {
	event := calendar.Event{
		ID: "ev-1",
		Notifications: []calendar.NotificationSetting{
			{Enabled: true, TimingMinutes: 10},
			{Enabled: true, TimingMinutes: 60},
			{Enabled: false, TimingMinutes: 1440},
		},
	}

	model := toPersistenceEvent(event)
	for i, setting := range model.Notifications {
		if setting.Position != i {
			t.Fatalf("position[%d] = %d", i, setting.Position)
		}
	}
}

func TestAdapterStatusFilter(t *testing.T) {
	adapter := newAdapter(t)
	ctx := context.Background()

	start := time.Date(2025, time.June, 2, 9, 0, 0, 0, time.UTC)
	for i, status := range []calendar.EventStatus{
		calendar.EventStatusPending,
		calendar.EventStatusCompleted,
	} {
		event := calendar.Event{
			ID:        "ev-" + string(rune('a'+i)),
			UserID:    "user-1",
			Title:     "Chore",
			Start:     start.Add(time.Duration(i) * time.Hour),
			End:       start.Add(time.Duration(i+1) * time.Hour),
			Type:      calendar.EventTypeTask,
			Status:    status,
			CreatedAt: start,
			UpdatedAt: start,
		}
		if err := adapter.CreateEvent(ctx, event); err != nil {
			t.Fatalf("CreateEvent: %v", err)
		}
	}

	events, err := adapter.ListEvents(ctx, calendar.EventFilter{
		UserID:   "user-1",
		Statuses: []calendar.EventStatus{calendar.EventStatusPending},
	})
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(events) != 1 || events[0].Status != calendar.EventStatusPending {
		t.Fatalf("unexpected events: %+v", events)
	}
}

var _ persistence.EventRepository = (*sqlite.EventRepository)(nil)
var _ calendar.EventStore = (*eventStoreAdapter)(nil)
