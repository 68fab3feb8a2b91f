package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/household-planner/internal/calendar"
	"github.com/example/household-planner/internal/recurrence"
)

var eventCounter uint64

var referenceTime = time.Date(2025, time.June, 2, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// EventFixture represents a deterministic calendar event that can be
// materialised for service or persistence tests.
type EventFixture struct {
	ID            string
	UserID        string
	Title         string
	Start         time.Time
	End           time.Time
	Type          calendar.EventType
	Status        calendar.EventStatus
	Recurrence    *recurrence.Rule
	Notifications []calendar.NotificationSetting
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// EventFixtureOption customises a generated event fixture.
type EventFixtureOption func(*EventFixture)

// NewEventFixture produces an event fixture with deterministic defaults. Each
// call yields a distinct ID and a start one hour after the previous fixture.
func NewEventFixture(opts ...EventFixtureOption) EventFixture {
	n := atomic.AddUint64(&eventCounter, 1)
	start := referenceTime.Add(time.Duration(n) * time.Hour)

	fixture := EventFixture{
		ID:        fmt.Sprintf("event-%d", n),
		UserID:    "user-1",
		Title:     fmt.Sprintf("Chore %d", n),
		Start:     start,
		End:       start.Add(time.Hour),
		Type:      calendar.EventTypeTask,
		Status:    calendar.EventStatusPending,
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithEventUser overrides the owning user.
func WithEventUser(userID string) EventFixtureOption {
	return func(fixture *EventFixture) { fixture.UserID = userID }
}

// WithEventStart moves the event start, preserving the one hour duration.
func WithEventStart(start time.Time) EventFixtureOption {
	return func(fixture *EventFixture) {
		fixture.Start = start
		fixture.End = start.Add(time.Hour)
	}
}

// WithEventRecurrence attaches a recurrence rule.
func WithEventRecurrence(rule recurrence.Rule) EventFixtureOption {
	return func(fixture *EventFixture) { fixture.Recurrence = &rule }
}

// WithEventReminder appends an enabled notification setting.
func WithEventReminder(timingMinutes int) EventFixtureOption {
	return func(fixture *EventFixture) {
		fixture.Notifications = append(fixture.Notifications, calendar.NotificationSetting{
			Enabled:       true,
			TimingMinutes: timingMinutes,
		})
	}
}

// Event materialises the fixture as a calendar event.
func (f EventFixture) Event() calendar.Event {
	return calendar.Event{
		ID:            f.ID,
		UserID:        f.UserID,
		Title:         f.Title,
		Start:         f.Start,
		End:           f.End,
		Type:          f.Type,
		Status:        f.Status,
		Recurrence:    f.Recurrence,
		Notifications: append([]calendar.NotificationSetting(nil), f.Notifications...),
		CreatedAt:     f.CreatedAt,
		UpdatedAt:     f.UpdatedAt,
	}
}
