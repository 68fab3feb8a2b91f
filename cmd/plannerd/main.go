package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/household-planner/internal/calendar"
	"github.com/example/household-planner/internal/config"
	httptransport "github.com/example/household-planner/internal/http"
	"github.com/example/household-planner/internal/notify"
	"github.com/example/household-planner/internal/persistence"
	"github.com/example/household-planner/internal/persistence/sqlite"
	"github.com/example/household-planner/internal/recurrence"
)

func main() {
	configPath := flag.String("config", "", "path to YAML configuration file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	pool, err := sqlite.NewConnectionPool(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := pool.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := sqlite.Migrate(context.Background(), pool); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	idGenerator := uuid.NewString
	now := time.Now

	eventStore := newEventStoreAdapter(sqlite.NewEventRepository(pool))
	eventService := calendar.NewEventServiceWithLogger(eventStore, idGenerator, now, logger)

	notificationStore := notify.NewStore(idGenerator, now)
	notificationStore.SetAutoHideDuration(cfg.AutoHideDuration)

	schedulerOpts := []notify.SchedulerOption{
		notify.WithUpcomingWindow(cfg.UpcomingWindow),
	}
	if cfg.Telegram.Token != "" {
		telegram, err := notify.NewTelegramNotifier(cfg.Telegram.Token, cfg.Telegram.ChatID)
		if err != nil {
			logger.Error("failed to connect to telegram", "error", err)
			os.Exit(1)
		}
		schedulerOpts = append(schedulerOpts, notify.WithPlatform(telegram))
		logger.Info("telegram delivery enabled", "chat_id", cfg.Telegram.ChatID)
	}

	reminderScheduler := notify.NewScheduler(notificationStore, eventService, cfg.ReminderUserID, logger, schedulerOpts...)
	if err := reminderScheduler.Start(ctx, cfg.RescanCron); err != nil {
		logger.Error("failed to start reminder scheduler", "error", err)
		os.Exit(1)
	}
	defer reminderScheduler.Stop()

	eventHandler := httptransport.NewEventHandler(eventService, reminderScheduler, logger)
	notificationHandler := httptransport.NewNotificationHandler(notificationStore, logger)

	handler := httptransport.NewRouter(httptransport.RouterConfig{
		Events:        eventHandler,
		Notifications: notificationHandler,
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
			httptransport.CurrentUser(),
		},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("planner API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

// eventStoreAdapter bridges the calendar service's store interface and the
// persistence repository, translating between domain and stored shapes.
type eventStoreAdapter struct {
	repo persistence.EventRepository
}

func newEventStoreAdapter(repo persistence.EventRepository) *eventStoreAdapter {
	return &eventStoreAdapter{repo: repo}
}

func (a *eventStoreAdapter) CreateEvent(ctx context.Context, event calendar.Event) error {
	return mapStoreError(a.repo.CreateEvent(ctx, toPersistenceEvent(event)))
}

func (a *eventStoreAdapter) CreateSeries(ctx context.Context, events []calendar.Event) error {
	models := make([]persistence.Event, 0, len(events))
	for _, event := range events {
		models = append(models, toPersistenceEvent(event))
	}
	return mapStoreError(a.repo.CreateSeries(ctx, models))
}

func (a *eventStoreAdapter) GetEvent(ctx context.Context, id string) (calendar.Event, error) {
	model, err := a.repo.GetEvent(ctx, id)
	if err != nil {
		return calendar.Event{}, mapStoreError(err)
	}
	return toCalendarEvent(model), nil
}

func (a *eventStoreAdapter) UpdateEvent(ctx context.Context, event calendar.Event) error {
	return mapStoreError(a.repo.UpdateEvent(ctx, toPersistenceEvent(event)))
}

func (a *eventStoreAdapter) DeleteEvent(ctx context.Context, id string) error {
	return mapStoreError(a.repo.DeleteEvent(ctx, id))
}

func (a *eventStoreAdapter) DeleteSeries(ctx context.Context, seriesID string) error {
	return mapStoreError(a.repo.DeleteSeries(ctx, seriesID))
}

func (a *eventStoreAdapter) ListEvents(ctx context.Context, filter calendar.EventFilter) ([]calendar.Event, error) {
	statuses := make([]string, 0, len(filter.Statuses))
	for _, status := range filter.Statuses {
		statuses = append(statuses, string(status))
	}

	models, err := a.repo.ListEvents(ctx, persistence.EventFilter{
		UserID:       filter.UserID,
		StartsAfter:  filter.StartsAfter,
		StartsBefore: filter.StartsBefore,
		Statuses:     statuses,
		SeriesID:     filter.SeriesID,
	})
	if err != nil {
		return nil, mapStoreError(err)
	}
	if len(models) == 0 {
		return nil, nil
	}

	events := make([]calendar.Event, 0, len(models))
	for _, model := range models {
		events = append(events, toCalendarEvent(model))
	}
	return events, nil
}

func mapStoreError(err error) error {
	if errors.Is(err, persistence.ErrNotFound) {
		return calendar.ErrNotFound
	}
	return err
}

func toPersistenceEvent(event calendar.Event) persistence.Event {
	model := persistence.Event{
		ID:          event.ID,
		UserID:      event.UserID,
		Title:       event.Title,
		Description: event.Description,
		Start:       event.Start,
		End:         event.End,
		AllDay:      event.AllDay,
		Type:        string(event.Type),
		Status:      string(event.Status),
		CreatedAt:   event.CreatedAt,
		UpdatedAt:   event.UpdatedAt,
	}

	if event.Recurrence != nil {
		model.RecurrenceKind = string(event.Recurrence.Kind)
		model.RecurrenceInterval = event.Recurrence.Interval
		model.SeriesID = event.Recurrence.SeriesID
		if event.Recurrence.EndDate != nil {
			end := *event.Recurrence.EndDate
			model.RecurrenceEnd = &end
		}
	}

	for i, setting := range event.Notifications {
		model.Notifications = append(model.Notifications, persistence.NotificationSetting{
			Position:      i,
			Enabled:       setting.Enabled,
			TimingMinutes: setting.TimingMinutes,
		})
	}

	return model
}

func toCalendarEvent(model persistence.Event) calendar.Event {
	event := calendar.Event{
		ID:          model.ID,
		UserID:      model.UserID,
		Title:       model.Title,
		Description: model.Description,
		Start:       model.Start,
		End:         model.End,
		AllDay:      model.AllDay,
		Type:        calendar.EventType(model.Type),
		Status:      calendar.EventStatus(model.Status),
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}

	if model.RecurrenceKind != "" {
		rule := recurrence.Rule{
			Kind:     recurrence.Kind(model.RecurrenceKind),
			Interval: model.RecurrenceInterval,
			SeriesID: model.SeriesID,
		}
		if model.RecurrenceEnd != nil {
			end := *model.RecurrenceEnd
			rule.EndDate = &end
		}
		event.Recurrence = &rule
	}

	for _, setting := range model.Notifications {
		event.Notifications = append(event.Notifications, calendar.NotificationSetting{
			Enabled:       setting.Enabled,
			TimingMinutes: setting.TimingMinutes,
		})
	}

	return event
}
