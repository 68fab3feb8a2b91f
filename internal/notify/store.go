package notify

import (
	"sync"
	"time"
)

// Type classifies an in-app notification.
type Type string

const (
	// TypeInfo marks an informational message.
	TypeInfo Type = "info"
	// TypeWarning marks a message the user should look at.
	TypeWarning Type = "warning"
	// TypeError marks a failure report.
	TypeError Type = "error"
	// TypeSuccess marks a completed action.
	TypeSuccess Type = "success"
)

// DefaultAutoHide is how long an auto-hiding notification stays visible when
// the caller does not pick a duration.
const DefaultAutoHide = 5 * time.Second

// Notification is one in-app message shown to the user.
type Notification struct {
	ID        string
	EventID   string
	Type      Type
	Message   string
	Read      bool
	Timestamp time.Time
	AutoHide  bool
	Duration  time.Duration
}

// Listener receives the full notification list after every change.
type Listener func(notifications []Notification)

// Store holds in-app notifications newest first and notifies subscribed
// listeners on every change. All methods are safe for concurrent use;
// listeners are invoked outside the store lock.
type Store struct {
	mu            sync.Mutex
	notifications []Notification
	listeners     map[int]Listener
	nextListener  int
	idGenerator   func() string
	now           func() time.Time
	autoHide      time.Duration
}

// NewStore builds an empty notification store.
func NewStore(idGenerator func() string, now func() time.Time) *Store {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &Store{
		listeners:   make(map[int]Listener),
		idGenerator: idGenerator,
		now:         now,
		autoHide:    DefaultAutoHide,
	}
}

// SetAutoHideDuration overrides the fallback duration applied when Show is
// called without one.
func (s *Store) SetAutoHideDuration(d time.Duration) {
	if d <= 0 {
		return
	}
	s.mu.Lock()
	s.autoHide = d
	s.mu.Unlock()
}

// Show adds a notification at the head of the list and returns it. When the
// notification auto-hides it is removed again after its duration elapses.
func (s *Store) Show(eventID string, kind Type, message string, autoHide bool, duration time.Duration) Notification {
	s.mu.Lock()
	if duration <= 0 {
		duration = s.autoHide
	}
	notification := Notification{
		ID:        s.idGenerator(),
		EventID:   eventID,
		Type:      kind,
		Message:   message,
		Timestamp: s.now(),
		AutoHide:  autoHide,
		Duration:  duration,
	}
	s.notifications = append([]Notification{notification}, s.notifications...)
	snapshot, listeners := s.snapshotLocked()
	s.mu.Unlock()

	publish(listeners, snapshot)

	if autoHide {
		id := notification.ID
		time.AfterFunc(duration, func() {
			s.Clear(id)
		})
	}
	return notification
}

// MarkRead flags one notification as read. Unknown ids are ignored.
func (s *Store) MarkRead(id string) {
	s.mu.Lock()
	changed := false
	for i := range s.notifications {
		if s.notifications[i].ID == id && !s.notifications[i].Read {
			s.notifications[i].Read = true
			changed = true
			break
		}
	}
	var snapshot []Notification
	var listeners []Listener
	if changed {
		snapshot, listeners = s.snapshotLocked()
	}
	s.mu.Unlock()

	if changed {
		publish(listeners, snapshot)
	}
}

// Clear removes one notification. Unknown ids are ignored.
func (s *Store) Clear(id string) {
	s.mu.Lock()
	changed := false
	for i := range s.notifications {
		if s.notifications[i].ID == id {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			changed = true
			break
		}
	}
	var snapshot []Notification
	var listeners []Listener
	if changed {
		snapshot, listeners = s.snapshotLocked()
	}
	s.mu.Unlock()

	if changed {
		publish(listeners, snapshot)
	}
}

// ClearForEvent removes every notification tied to the event.
func (s *Store) ClearForEvent(eventID string) {
	s.mu.Lock()
	kept := s.notifications[:0]
	changed := false
	for _, notification := range s.notifications {
		if notification.EventID == eventID {
			changed = true
			continue
		}
		kept = append(kept, notification)
	}
	s.notifications = kept
	var snapshot []Notification
	var listeners []Listener
	if changed {
		snapshot, listeners = s.snapshotLocked()
	}
	s.mu.Unlock()

	if changed {
		publish(listeners, snapshot)
	}
}

// ClearAll drops every notification.
func (s *Store) ClearAll() {
	s.mu.Lock()
	changed := len(s.notifications) > 0
	s.notifications = nil
	var snapshot []Notification
	var listeners []Listener
	if changed {
		snapshot, listeners = s.snapshotLocked()
	}
	s.mu.Unlock()

	if changed {
		publish(listeners, snapshot)
	}
}

// List returns a copy of the current notifications, newest first.
func (s *Store) List() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Notification(nil), s.notifications...)
}

// Unread counts the notifications not yet marked read.
func (s *Store) Unread() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, notification := range s.notifications {
		if !notification.Read {
			count++
		}
	}
	return count
}

// Subscribe registers a listener for change broadcasts and returns a function
// that removes it again.
func (s *Store) Subscribe(listener Listener) func() {
	s.mu.Lock()
	token := s.nextListener
	s.nextListener++
	s.listeners[token] = listener
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, token)
		s.mu.Unlock()
	}
}

func (s *Store) snapshotLocked() ([]Notification, []Listener) {
	snapshot := append([]Notification(nil), s.notifications...)
	listeners := make([]Listener, 0, len(s.listeners))
	for _, listener := range s.listeners {
		listeners = append(listeners, listener)
	}
	return snapshot, listeners
}

func publish(listeners []Listener, snapshot []Notification) {
	for _, listener := range listeners {
		listener(snapshot)
	}
}
