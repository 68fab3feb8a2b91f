package calendar

import (
	"time"

	"github.com/example/household-planner/internal/recurrence"
)

// EventType classifies what a calendar entry tracks in the household.
type EventType string

const (
	// EventTypeTask marks an entry synced from a simple task's due date.
	EventTypeTask EventType = "task"
	// EventTypeProject marks an entry synced from a project deadline.
	EventTypeProject EventType = "project"
	// EventTypePlantCare marks a plant watering or care entry.
	EventTypePlantCare EventType = "plant_care"
	// EventTypeCustom marks an entry created directly on the calendar.
	EventTypeCustom EventType = "custom"
)

// EventStatus tracks the lifecycle of a single event instance.
type EventStatus string

const (
	// EventStatusPending marks an instance that has not happened yet.
	EventStatusPending EventStatus = "pending"
	// EventStatusCompleted marks an instance the user finished.
	EventStatusCompleted EventStatus = "completed"
	// EventStatusCancelled marks an instance the user dismissed.
	EventStatusCancelled EventStatus = "cancelled"
)

// NotificationSetting configures one reminder lead time for an event.
type NotificationSetting struct {
	Enabled       bool
	TimingMinutes int
}

// Event represents one concrete calendar entry. Instances materialized from a
// recurring template share the template's Recurrence.SeriesID and preserve
// its duration.
type Event struct {
	ID            string
	UserID        string
	Title         string
	Description   string
	Start         time.Time
	End           time.Time
	AllDay        bool
	Type          EventType
	Status        EventStatus
	Recurrence    *recurrence.Rule
	Notifications []NotificationSetting
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Duration returns the span between the event's start and end.
func (e Event) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// IsRecurring reports whether the event carries a recurrence rule.
func (e Event) IsRecurring() bool {
	return e.Recurrence != nil
}

// Clone returns a deep copy of the event so callers can mutate it freely.
func (e Event) Clone() Event {
	clone := e
	if e.Recurrence != nil {
		rule := *e.Recurrence
		if e.Recurrence.EndDate != nil {
			end := *e.Recurrence.EndDate
			rule.EndDate = &end
		}
		clone.Recurrence = &rule
	}
	if e.Notifications != nil {
		clone.Notifications = append([]NotificationSetting(nil), e.Notifications...)
	}
	return clone
}

// EventInput captures caller provided event fields. Status is optional on
// updates; when empty the stored status is kept.
type EventInput struct {
	Title         string
	Description   string
	Start         time.Time
	End           time.Time
	AllDay        bool
	Type          EventType
	Status        EventStatus
	Recurrence    *recurrence.Rule
	Notifications []NotificationSetting
}

// EventFilter narrows event queries. Time bounds apply to the event start:
// StartsAfter is inclusive, StartsBefore exclusive.
type EventFilter struct {
	UserID       string
	StartsAfter  *time.Time
	StartsBefore *time.Time
	Statuses     []EventStatus
	SeriesID     string
}
