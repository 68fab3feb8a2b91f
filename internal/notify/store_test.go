package notify

import (
	"sync"
	"testing"
	"time"

	"github.com/example/household-planner/internal/testfixtures"
)

func testStore() *Store {
	gen := testfixtures.NewIDGenerator("n")
	clock := testfixtures.NewClock(time.Time{})
	return NewStore(gen.NextFunc(), clock.NowFunc())
}

func TestShowPrependsNewest(t *testing.T) {
	store := testStore()

	store.Show("ev-1", TypeInfo, "first", false, 0)
	store.Show("ev-2", TypeSuccess, "second", false, 0)

	list := store.List()
	if len(list) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(list))
	}
	if list[0].Message != "second" || list[1].Message != "first" {
		t.Fatalf("expected newest first ordering, got %q then %q", list[0].Message, list[1].Message)
	}
}

func TestMarkReadAndUnreadCount(t *testing.T) {
	store := testStore()

	first := store.Show("ev-1", TypeInfo, "first", false, 0)
	store.Show("ev-2", TypeInfo, "second", false, 0)

	if got := store.Unread(); got != 2 {
		t.Fatalf("unread = %d, want 2", got)
	}

	store.MarkRead(first.ID)
	if got := store.Unread(); got != 1 {
		t.Fatalf("unread after mark = %d, want 1", got)
	}

	store.MarkRead("missing")
	if got := store.Unread(); got != 1 {
		t.Fatalf("unread after unknown mark = %d, want 1", got)
	}
}

func TestClearVariants(t *testing.T) {
	store := testStore()

	a := store.Show("ev-1", TypeInfo, "a", false, 0)
	store.Show("ev-1", TypeWarning, "b", false, 0)
	store.Show("ev-2", TypeError, "c", false, 0)

	store.Clear(a.ID)
	if got := len(store.List()); got != 2 {
		t.Fatalf("after Clear: %d notifications, want 2", got)
	}

	store.ClearForEvent("ev-1")
	list := store.List()
	if len(list) != 1 || list[0].EventID != "ev-2" {
		t.Fatalf("after ClearForEvent: %+v", list)
	}

	store.ClearAll()
	if got := len(store.List()); got != 0 {
		t.Fatalf("after ClearAll: %d notifications, want 0", got)
	}
}

func TestSubscribeReceivesSnapshots(t *testing.T) {
	store := testStore()

	var mu sync.Mutex
	var calls [][]Notification
	unsubscribe := store.Subscribe(func(notifications []Notification) {
		mu.Lock()
		calls = append(calls, notifications)
		mu.Unlock()
	})

	store.Show("ev-1", TypeInfo, "hello", false, 0)

	mu.Lock()
	if len(calls) != 1 || len(calls[0]) != 1 {
		t.Fatalf("expected one broadcast with one notification, got %v", calls)
	}
	mu.Unlock()

	unsubscribe()
	store.Show("ev-2", TypeInfo, "quiet", false, 0)

	mu.Lock()
	defer mu.Unlock()
	if len(calls) != 1 {
		t.Fatalf("listener called after unsubscribe: %d broadcasts", len(calls))
	}
}

func TestAutoHideRemovesNotification(t *testing.T) {
	store := testStore()

	store.Show("ev-1", TypeSuccess, "done", true, 20*time.Millisecond)
	if got := len(store.List()); got != 1 {
		t.Fatalf("expected notification before auto-hide, got %d", got)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(store.List()) == 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("auto-hide never removed the notification")
}

func TestShowStampsCurrentTime(t *testing.T) {
	clock := testfixtures.NewClock(time.Time{})
	store := NewStore(testfixtures.NewIDGenerator("n").NextFunc(), clock.NowFunc())

	first := store.Show("ev-1", TypeInfo, "first", false, 0)
	clock.Advance(10 * time.Minute)
	second := store.Show("ev-1", TypeInfo, "second", false, 0)

	if !second.Timestamp.Equal(first.Timestamp.Add(10 * time.Minute)) {
		t.Fatalf("timestamps = %v then %v, want 10m apart", first.Timestamp, second.Timestamp)
	}
}

func TestListReturnsCopy(t *testing.T) {
	store := testStore()
	store.Show("ev-1", TypeInfo, "original", false, 0)

	list := store.List()
	list[0].Message = "mutated"

	if store.List()[0].Message != "original" {
		t.Fatal("List exposed internal state")
	}
}
