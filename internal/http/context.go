package http

import (
	"context"
	"log/slog"

	"github.com/example/household-planner/internal/logging"
)

type contextKey string

const (
	currentUserContextKey contextKey = "current_user"
	eventIDContextKey     contextKey = "event_id"
)

// ContextWithCurrentUser returns a derived context carrying the requesting user.
func ContextWithCurrentUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, currentUserContextKey, userID)
}

// CurrentUserFromContext extracts the requesting user from the context.
func CurrentUserFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(currentUserContextKey).(string)
	return userID, ok && userID != ""
}

// ContextWithEventID injects the event identifier resolved from the request path.
func ContextWithEventID(ctx context.Context, eventID string) context.Context {
	return context.WithValue(ctx, eventIDContextKey, eventID)
}

// EventIDFromContext extracts an event identifier previously associated with the context.
func EventIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(eventIDContextKey).(string)
	return id, ok
}

// ContextWithLogger attaches a request scoped logger to the context.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return logging.ContextWithLogger(ctx, logger)
}

// LoggerFromContext extracts a logger previously attached to the context.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx)
}
