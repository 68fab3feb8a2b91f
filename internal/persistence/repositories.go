package persistence

import "context"

// EventRepository stores calendar events and their notification settings.
type EventRepository interface {
	CreateEvent(ctx context.Context, event Event) error
	CreateSeries(ctx context.Context, events []Event) error
	GetEvent(ctx context.Context, id string) (Event, error)
	UpdateEvent(ctx context.Context, event Event) error
	DeleteEvent(ctx context.Context, id string) error
	DeleteSeries(ctx context.Context, seriesID string) error
	ListEvents(ctx context.Context, filter EventFilter) ([]Event, error)
}
