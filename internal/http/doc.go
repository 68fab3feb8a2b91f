// Package http provides HTTP handlers and middleware for the planner API.
//
// The router exposes the following endpoints:
//   - GET /events, POST /events, GET /events/{id}, PUT /events/{id},
//     DELETE /events/{id}: calendar event endpoints exchanging the `eventDTO`
//     payload defined in event_handler.go. Creating a recurring event returns
//     the materialized series alongside the template. DELETE accepts a
//     `?series=true` query to remove the whole series. Recurrence rules are
//     fixed at creation: PUT requests may omit or echo the stored rule, but
//     changing it is rejected with a validation error.
//   - GET /notifications, POST /notifications/{id}/read,
//     DELETE /notifications/{id}, DELETE /notifications: in-app notification
//     endpoints exchanging the `notificationDTO` payload defined in
//     notification_handler.go.
//
// The current user is resolved from the `X-User-ID` request header by the
// CurrentUser middleware; requests without one reach the services with an
// empty user and receive empty results or 401 depending on the operation.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
