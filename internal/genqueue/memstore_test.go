package genqueue

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-campus/meridian-campus/internal/shared"
)

// memStore is an in-memory StorePort mirroring the repository's transition
// predicates, so processor tests observe the same state machine.
type memStore struct {
	mu            sync.Mutex
	items         map[uuid.UUID]*Item
	settings      Settings
	notifications []Notification
	nextNotifID   int64
	seq           int64
}

func newMemStore() *memStore {
	return &memStore{
		items:    make(map[uuid.UUID]*Item),
		settings: Settings{Status: QueueIdle},
	}
}

func (m *memStore) stamp() time.Time {
	m.seq++
	return time.Unix(0, 0).Add(time.Duration(m.seq) * time.Second)
}

func (m *memStore) UpsertItem(_ context.Context, course Course, actorID int64) (Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range m.items {
		if item.CourseID == course.CourseID {
			item.CourseCode = course.CourseCode
			item.CourseName = course.CourseName
			item.Priority = course.Priority
			item.Status = StatusPending
			item.Retries = 0
			item.ErrorMessage = ""
			item.StartedAt = nil
			item.CompletedAt = nil
			item.CreatedBy = actorID
			return *item, nil
		}
	}
	item := &Item{
		ID:         uuid.New(),
		CourseID:   course.CourseID,
		CourseCode: course.CourseCode,
		CourseName: course.CourseName,
		Status:     StatusPending,
		Priority:   course.Priority,
		CreatedAt:  m.stamp(),
		CreatedBy:  actorID,
	}
	m.items[item.ID] = item
	return *item, nil
}

func (m *memStore) DeleteItem(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memStore) ClearFinished(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, item := range m.items {
		if item.Status == StatusCompleted || item.Status == StatusFailed {
			delete(m.items, id)
			n++
		}
	}
	return n, nil
}

func (m *memStore) ResetFailed(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, item := range m.items {
		if item.Status == StatusFailed {
			item.Status = StatusPending
			item.Retries = 0
			item.ErrorMessage = ""
			item.StartedAt = nil
			n++
		}
	}
	return n, nil
}

func (m *memStore) ResetPausedItems(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, item := range m.items {
		if item.Status == StatusPaused {
			item.Status = StatusPending
			item.StartedAt = nil
			n++
		}
	}
	return n, nil
}

func (m *memStore) sorted() []Item {
	out := make([]Item, 0, len(m.items))
	for _, item := range m.items {
		out = append(out, *item)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (m *memStore) ListItems(context.Context) ([]Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(), nil
}

func (m *memStore) NextPending(context.Context) (Item, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range m.sorted() {
		if item.Status == StatusPending {
			return item, true, nil
		}
	}
	return Item{}, false, nil
}

func (m *memStore) CountPending(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, item := range m.items {
		if item.Status == StatusPending {
			n++
		}
	}
	return n, nil
}

func (m *memStore) transition(id uuid.UUID, from, to ItemStatus, mutate func(*Item)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok || item.Status != from {
		return shared.ErrNotFound
	}
	item.Status = to
	if mutate != nil {
		mutate(item)
	}
	return nil
}

func (m *memStore) MarkProcessing(_ context.Context, id uuid.UUID, at time.Time) error {
	return m.transition(id, StatusPending, StatusProcessing, func(item *Item) { item.StartedAt = &at })
}

func (m *memStore) MarkCompleted(_ context.Context, id uuid.UUID, at time.Time) error {
	return m.transition(id, StatusProcessing, StatusCompleted, func(item *Item) { item.CompletedAt = &at })
}

func (m *memStore) MarkFailed(_ context.Context, id uuid.UUID, message string) error {
	return m.transition(id, StatusProcessing, StatusFailed, func(item *Item) {
		item.Retries++
		item.ErrorMessage = message
	})
}

func (m *memStore) MarkPausedInFlight(_ context.Context, id uuid.UUID) error {
	return m.transition(id, StatusProcessing, StatusPaused, nil)
}

func (m *memStore) GetSettings(context.Context) (Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings, nil
}

func (m *memStore) SaveSettings(_ context.Context, settings Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = settings
	return nil
}

func (m *memStore) InsertNotification(_ context.Context, n Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextNotifID++
	n.ID = m.nextNotifID
	n.CreatedAt = m.stamp()
	m.notifications = append(m.notifications, n)
	return nil
}

func (m *memStore) ListNotifications(_ context.Context, unreadOnly bool) ([]Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Notification, 0, len(m.notifications))
	for i := len(m.notifications) - 1; i >= 0; i-- {
		n := m.notifications[i]
		if unreadOnly && n.IsRead {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (m *memStore) MarkNotificationRead(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.notifications {
		if m.notifications[i].ID == id {
			m.notifications[i].IsRead = true
			return nil
		}
	}
	return shared.ErrNotFound
}

func (m *memStore) item(id uuid.UUID) Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	if item, ok := m.items[id]; ok {
		return *item
	}
	return Item{}
}

var _ StorePort = (*memStore)(nil)
