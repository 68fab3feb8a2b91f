package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/example/household-planner/internal/calendar"
)

// DefaultRescanSpec re-arms reminders every five minutes so events created or
// edited elsewhere still get their timers.
const DefaultRescanSpec = "*/5 * * * *"

// defaultUpcomingWindow bounds how far ahead a rescan looks for events.
const defaultUpcomingWindow = 24 * time.Hour

// EventSource supplies the pending events a rescan arms reminders for.
type EventSource interface {
	UpcomingEvents(ctx context.Context, userID string, from, until time.Time) ([]calendar.Event, error)
}

// Platform delivers a reminder outside the in-app store, for example to a
// messaging service. Implementations are optional.
type Platform interface {
	Notify(ctx context.Context, title, body string) error
}

type timerKey struct {
	eventID string
	timing  int
}

// Scheduler arms one timer per enabled notification setting of an event and
// fires an in-app notification when a timer elapses. Re-arming an event
// cancels its previous timers first, so edits never leave stale reminders.
type Scheduler struct {
	store    *Store
	source   EventSource
	platform Platform
	logger   *slog.Logger
	now      func() time.Time

	userID string
	window time.Duration

	mu     sync.Mutex
	timers map[timerKey]*time.Timer

	cron *cron.Cron
}

// SchedulerOption adjusts optional scheduler behavior.
type SchedulerOption func(*Scheduler)

// WithPlatform mirrors fired reminders to an external delivery channel.
func WithPlatform(platform Platform) SchedulerOption {
	return func(s *Scheduler) { s.platform = platform }
}

// WithUpcomingWindow overrides how far ahead a rescan looks.
func WithUpcomingWindow(window time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if window > 0 {
			s.window = window
		}
	}
}

// WithClock overrides the scheduler's clock, used by tests.
func WithClock(now func() time.Time) SchedulerOption {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// NewScheduler builds a reminder scheduler for one user's events.
func NewScheduler(store *Store, source EventSource, userID string, logger *slog.Logger, opts ...SchedulerOption) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scheduler{
		store:  store,
		source: source,
		logger: logger,
		now:    time.Now,
		userID: userID,
		window: defaultUpcomingWindow,
		timers: make(map[timerKey]*time.Timer),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScheduleNotification arms timers for every enabled notification setting of
// the event. Existing timers for the event are cancelled first. A reminder
// whose fire time has already passed fires immediately and synchronously.
func (s *Scheduler) ScheduleNotification(ctx context.Context, event calendar.Event) {
	s.cancelTimers(event.ID)

	now := s.now()
	for _, setting := range event.Notifications {
		if !setting.Enabled {
			continue
		}
		fireAt := event.Start.Add(-time.Duration(setting.TimingMinutes) * time.Minute)
		key := timerKey{eventID: event.ID, timing: setting.TimingMinutes}

		if !fireAt.After(now) {
			s.fire(ctx, event, setting.TimingMinutes)
			continue
		}

		s.armTimer(event, key, fireAt.Sub(now))
	}
}

// armTimer registers a timer for key. The expiry callback fires only while
// its own timer is still the registered one, so a cancel or re-arm that races
// with expiry wins and the stale callback backs off without touching the new
// entry.
func (s *Scheduler) armTimer(event calendar.Event, key timerKey, delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		s.mu.Lock()
		current, armed := s.timers[key]
		if !armed || current != timer {
			s.mu.Unlock()
			return
		}
		delete(s.timers, key)
		s.mu.Unlock()

		s.fire(context.Background(), event, key.timing)
	})
	s.timers[key] = timer
}

func (s *Scheduler) fire(ctx context.Context, event calendar.Event, timingMinutes int) {
	message := reminderMessage(event, timingMinutes)
	s.store.Show(event.ID, TypeInfo, message, false, 0)

	if s.platform != nil {
		if err := s.platform.Notify(ctx, "Reminder", message); err != nil {
			// Platform delivery is best effort; the in-app notification
			// already went out.
			s.logger.WarnContext(ctx, "platform notification failed",
				"event_id", event.ID,
				"error", err,
			)
		}
	}

	s.logger.InfoContext(ctx, "reminder fired",
		"event_id", event.ID,
		"timing_minutes", timingMinutes,
	)
}

// CancelNotification drops every armed timer for the event. Reminders that
// already fired are unaffected.
func (s *Scheduler) CancelNotification(eventID string) {
	s.cancelTimers(eventID)
}

// CancelAllNotificationsForEvent drops the event's timers and removes its
// notifications from the in-app store, for use when the event is deleted.
func (s *Scheduler) CancelAllNotificationsForEvent(eventID string) {
	s.cancelTimers(eventID)
	s.store.ClearForEvent(eventID)
}

func (s *Scheduler) cancelTimers(eventID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, timer := range s.timers {
		if key.eventID == eventID {
			timer.Stop()
			delete(s.timers, key)
		}
	}
}

// CheckUpcomingEvents fetches the user's pending events inside the lookahead
// window and re-arms their reminders. Fetch failures are logged and swallowed
// so a flaky store never kills the rescan loop.
func (s *Scheduler) CheckUpcomingEvents(ctx context.Context) {
	if s.userID == "" {
		return
	}

	now := s.now()
	events, err := s.source.UpcomingEvents(ctx, s.userID, now, now.Add(s.window))
	if err != nil {
		s.logger.ErrorContext(ctx, "upcoming events fetch failed", "error", err)
		return
	}

	for _, event := range events {
		s.ScheduleNotification(ctx, event)
	}

	s.logger.DebugContext(ctx, "reminder rescan complete",
		"events", len(events),
		"timers", s.PendingTimers(),
	)
}

// Start runs an immediate rescan and then rescans on the cron spec until Stop
// is called. An empty spec uses the default five minute cadence.
func (s *Scheduler) Start(ctx context.Context, spec string) error {
	if spec == "" {
		spec = DefaultRescanSpec
	}

	runner := cron.New()
	if _, err := runner.AddFunc(spec, func() {
		s.CheckUpcomingEvents(context.Background())
	}); err != nil {
		return fmt.Errorf("notify: invalid rescan spec %q: %w", spec, err)
	}

	s.CheckUpcomingEvents(ctx)
	runner.Start()
	s.cron = runner
	return nil
}

// Stop halts the rescan loop and cancels every armed timer.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
		s.cron = nil
	}

	s.mu.Lock()
	for key, timer := range s.timers {
		timer.Stop()
		delete(s.timers, key)
	}
	s.mu.Unlock()
}

// PendingTimers reports how many timers are currently armed.
func (s *Scheduler) PendingTimers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

func reminderMessage(event calendar.Event, timingMinutes int) string {
	if timingMinutes <= 0 {
		return fmt.Sprintf("%s is starting now", event.Title)
	}
	return fmt.Sprintf("%s starts in %d minutes", event.Title, timingMinutes)
}
