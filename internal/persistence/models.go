package persistence

import "time"

// Event is the stored form of a calendar event. Recurrence fields are flat
// columns; an event without a rule has an empty RecurrenceKind.
type Event struct {
	ID                 string
	UserID             string
	Title              string
	Description        string
	Start              time.Time
	End                time.Time
	AllDay             bool
	Type               string
	Status             string
	RecurrenceKind     string
	RecurrenceInterval int
	RecurrenceEnd      *time.Time
	SeriesID           string
	Notifications      []NotificationSetting
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NotificationSetting is one stored reminder lead time. Position preserves
// the order the settings were supplied in.
type NotificationSetting struct {
	Position      int
	Enabled       bool
	TimingMinutes int
}

// EventFilter narrows event queries. Time bounds apply to the event start:
// StartsAfter is inclusive, StartsBefore exclusive.
type EventFilter struct {
	UserID       string
	StartsAfter  *time.Time
	StartsBefore *time.Time
	Statuses     []string
	SeriesID     string
}
