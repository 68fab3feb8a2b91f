package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/example/household-planner/internal/notify"
)

// NotificationHandler serves the in-app notification endpoints.
type NotificationHandler struct {
	store     *notify.Store
	responder responder
}

// NewNotificationHandler builds the handler around the notification store.
func NewNotificationHandler(store *notify.Store, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{store: store, responder: newResponder(logger)}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.store == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	notifications := h.store.List()
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listNotificationsResponse{
		Notifications: toNotificationDTOs(notifications),
		Unread:        h.store.Unread(),
	})
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request, id string) {
	if h == nil || h.store == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.store.MarkRead(id)
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *NotificationHandler) Clear(w http.ResponseWriter, r *http.Request, id string) {
	if h == nil || h.store == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.store.Clear(id)
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *NotificationHandler) ClearAll(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.store == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.store.ClearAll()
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type listNotificationsResponse struct {
	Notifications []notificationDTO `json:"notifications"`
	Unread        int               `json:"unread"`
}

type notificationDTO struct {
	ID        string `json:"id"`
	EventID   string `json:"event_id,omitempty"`
	Type      string `json:"type"`
	Message   string `json:"message"`
	Read      bool   `json:"read"`
	Timestamp string `json:"timestamp"`
}

func toNotificationDTOs(notifications []notify.Notification) []notificationDTO {
	if len(notifications) == 0 {
		return nil
	}
	out := make([]notificationDTO, 0, len(notifications))
	for _, notification := range notifications {
		out = append(out, notificationDTO{
			ID:        notification.ID,
			EventID:   notification.EventID,
			Type:      string(notification.Type),
			Message:   notification.Message,
			Read:      notification.Read,
			Timestamp: notification.Timestamp.UTC().Format(time.RFC3339Nano),
		})
	}
	return out
}
