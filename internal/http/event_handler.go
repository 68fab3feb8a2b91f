package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/example/household-planner/internal/calendar"
	"github.com/example/household-planner/internal/recurrence"
)

type eventService interface {
	CreateEvent(ctx context.Context, userID string, input calendar.EventInput) (calendar.Event, []calendar.Event, error)
	GetEvent(ctx context.Context, userID, id string) (calendar.Event, error)
	UpdateEvent(ctx context.Context, userID, id string, input calendar.EventInput) (calendar.Event, error)
	DeleteEvent(ctx context.Context, userID, id string, wholeSeries bool) error
	ListEvents(ctx context.Context, userID string, from, to *time.Time) ([]calendar.Event, error)
}

// EventHandler serves the calendar event endpoints.
type EventHandler struct {
	service   eventService
	scheduler reminderScheduler
	responder responder
}

// reminderScheduler lets event mutations keep the reminder timers in sync.
type reminderScheduler interface {
	ScheduleNotification(ctx context.Context, event calendar.Event)
	CancelAllNotificationsForEvent(eventID string)
}

// NewEventHandler builds the handler. The scheduler is optional; without one,
// reminders are only re-armed by the periodic rescan.
func NewEventHandler(service eventService, scheduler reminderScheduler, logger *slog.Logger) *EventHandler {
	return &EventHandler{service: service, scheduler: scheduler, responder: newResponder(logger)}
}

func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	userID, _ := CurrentUserFromContext(r.Context())

	event, siblings, err := h.service.CreateEvent(r.Context(), userID, req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	if h.scheduler != nil {
		h.scheduler.ScheduleNotification(r.Context(), event)
		for _, sibling := range siblings {
			h.scheduler.ScheduleNotification(r.Context(), sibling)
		}
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, eventResponse{
		Event:  toEventDTO(event),
		Series: toEventDTOs(siblings),
	})
}

func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	eventID, ok := EventIDFromContext(r.Context())
	if !ok || strings.TrimSpace(eventID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}

	userID, _ := CurrentUserFromContext(r.Context())

	event, err := h.service.GetEvent(r.Context(), userID, eventID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, eventResponse{Event: toEventDTO(event)})
}

func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	eventID, ok := EventIDFromContext(r.Context())
	if !ok || strings.TrimSpace(eventID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	userID, _ := CurrentUserFromContext(r.Context())

	event, err := h.service.UpdateEvent(r.Context(), userID, eventID, req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	if h.scheduler != nil {
		h.scheduler.ScheduleNotification(r.Context(), event)
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, eventResponse{Event: toEventDTO(event)})
}

func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	eventID, ok := EventIDFromContext(r.Context())
	if !ok || strings.TrimSpace(eventID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}

	userID, _ := CurrentUserFromContext(r.Context())
	wholeSeries := r.URL.Query().Get("series") == "true"

	if err := h.service.DeleteEvent(r.Context(), userID, eventID, wholeSeries); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	if h.scheduler != nil {
		h.scheduler.CancelAllNotificationsForEvent(eventID)
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	userID, _ := CurrentUserFromContext(r.Context())
	from, to := parseListWindow(r.URL.Query())

	events, err := h.service.ListEvents(r.Context(), userID, from, to)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listEventsResponse{Events: toEventDTOs(events)})
}

// eventRequest is the event payload for create and update. The recurrence
// rule only takes effect on create; update requests must omit it or echo the
// stored rule unchanged.
type eventRequest struct {
	Title         string                   `json:"title"`
	Description   string                   `json:"description"`
	Start         string                   `json:"start"`
	End           string                   `json:"end"`
	AllDay        bool                     `json:"all_day"`
	Type          string                   `json:"type"`
	Status        string                   `json:"status"`
	Recurrence    *recurrenceDTO           `json:"recurrence"`
	Notifications []notificationSettingDTO `json:"notifications"`
}

func (r eventRequest) toInput() calendar.EventInput {
	input := calendar.EventInput{
		Title:       strings.TrimSpace(r.Title),
		Description: r.Description,
		Start:       parseTime(r.Start),
		End:         parseTime(r.End),
		AllDay:      r.AllDay,
		Type:        calendar.EventType(strings.TrimSpace(r.Type)),
		Status:      calendar.EventStatus(strings.TrimSpace(r.Status)),
	}

	if r.Recurrence != nil {
		rule := recurrence.Rule{
			Kind:     recurrence.Kind(strings.TrimSpace(r.Recurrence.Kind)),
			Interval: r.Recurrence.Interval,
		}
		if end := parseTime(r.Recurrence.EndDate); !end.IsZero() {
			rule.EndDate = &end
		}
		input.Recurrence = &rule
	}

	for _, setting := range r.Notifications {
		input.Notifications = append(input.Notifications, calendar.NotificationSetting{
			Enabled:       setting.Enabled,
			TimingMinutes: setting.TimingMinutes,
		})
	}

	return input
}

func parseTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts
	}
	return time.Time{}
}

func parseListWindow(values url.Values) (*time.Time, *time.Time) {
	var from, to *time.Time

	if after := strings.TrimSpace(values.Get("starts_after")); after != "" {
		if ts := parseTime(after); !ts.IsZero() {
			from = &ts
		}
	}
	if before := strings.TrimSpace(values.Get("starts_before")); before != "" {
		if ts := parseTime(before); !ts.IsZero() {
			to = &ts
		}
	}

	return from, to
}

type eventResponse struct {
	Event  eventDTO   `json:"event"`
	Series []eventDTO `json:"series,omitempty"`
}

type listEventsResponse struct {
	Events []eventDTO `json:"events"`
}

type eventDTO struct {
	ID            string                   `json:"id"`
	Title         string                   `json:"title"`
	Description   string                   `json:"description,omitempty"`
	Start         string                   `json:"start"`
	End           string                   `json:"end"`
	AllDay        bool                     `json:"all_day"`
	Type          string                   `json:"type"`
	Status        string                   `json:"status"`
	Recurrence    *recurrenceDTO           `json:"recurrence,omitempty"`
	Notifications []notificationSettingDTO `json:"notifications,omitempty"`
	CreatedAt     string                   `json:"created_at"`
	UpdatedAt     string                   `json:"updated_at"`
}

type recurrenceDTO struct {
	Kind     string `json:"kind"`
	Interval int    `json:"interval"`
	EndDate  string `json:"end_date,omitempty"`
	SeriesID string `json:"series_id,omitempty"`
}

type notificationSettingDTO struct {
	Enabled       bool `json:"enabled"`
	TimingMinutes int  `json:"timing_minutes"`
}

func toEventDTO(event calendar.Event) eventDTO {
	dto := eventDTO{
		ID:          event.ID,
		Title:       event.Title,
		Description: event.Description,
		Start:       event.Start.UTC().Format(time.RFC3339Nano),
		End:         event.End.UTC().Format(time.RFC3339Nano),
		AllDay:      event.AllDay,
		Type:        string(event.Type),
		Status:      string(event.Status),
		CreatedAt:   event.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:   event.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}

	if event.Recurrence != nil {
		rule := recurrenceDTO{
			Kind:     string(event.Recurrence.Kind),
			Interval: event.Recurrence.Interval,
			SeriesID: event.Recurrence.SeriesID,
		}
		if event.Recurrence.EndDate != nil {
			rule.EndDate = event.Recurrence.EndDate.UTC().Format(time.RFC3339Nano)
		}
		dto.Recurrence = &rule
	}

	for _, setting := range event.Notifications {
		dto.Notifications = append(dto.Notifications, notificationSettingDTO{
			Enabled:       setting.Enabled,
			TimingMinutes: setting.TimingMinutes,
		})
	}

	return dto
}

func toEventDTOs(events []calendar.Event) []eventDTO {
	if len(events) == 0 {
		return nil
	}
	out := make([]eventDTO, 0, len(events))
	for _, event := range events {
		out = append(out, toEventDTO(event))
	}
	return out
}
