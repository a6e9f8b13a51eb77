package genqueue

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/meridian-campus/meridian-campus/internal/shared"
)

// AuditPort records operator actions on the queue.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service wraps queue bookkeeping: enqueueing, bulk operations and the
// status viewmodel. The processor owns all item state transitions.
type Service struct {
	store          StorePort
	audit          AuditPort
	perItemSeconds int
}

// NewService constructs a Service. perItemSeconds feeds the linear time
// estimate shown to operators; it is display-only, never a scheduling
// input.
func NewService(store StorePort, audit AuditPort, perItemSeconds int) *Service {
	if perItemSeconds <= 0 {
		perItemSeconds = 45
	}
	return &Service{store: store, audit: audit, perItemSeconds: perItemSeconds}
}

// Add upserts one queue item per course. A course already queued is
// refreshed in place rather than duplicated.
func (s *Service) Add(ctx context.Context, courses []Course, actorID int64) ([]Item, error) {
	if len(courses) == 0 {
		return nil, errors.New("genqueue: no courses supplied")
	}
	items := make([]Item, 0, len(courses))
	for _, course := range courses {
		item, err := s.store.UpsertItem(ctx, course, actorID)
		if err != nil {
			return items, fmt.Errorf("genqueue: add course %d: %w", course.CourseID, err)
		}
		items = append(items, item)
	}
	s.recordAudit(ctx, actorID, "genqueue.add", fmt.Sprintf("%d courses", len(courses)))
	return items, nil
}

// Remove deletes an item unconditionally.
func (s *Service) Remove(ctx context.Context, itemID uuid.UUID, actorID int64) error {
	if err := s.store.DeleteItem(ctx, itemID); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "genqueue.remove", itemID.String())
	return nil
}

// ClearCompleted deletes every completed and failed item.
func (s *Service) ClearCompleted(ctx context.Context, actorID int64) (int64, error) {
	n, err := s.store.ClearFinished(ctx)
	if err != nil {
		return 0, err
	}
	s.recordAudit(ctx, actorID, "genqueue.clear_completed", fmt.Sprintf("%d items", n))
	return n, nil
}

// RetryFailed resets every failed item to pending with retries=0 and the
// error cleared, in one batch.
func (s *Service) RetryFailed(ctx context.Context, actorID int64) (int64, error) {
	n, err := s.store.ResetFailed(ctx)
	if err != nil {
		return 0, err
	}
	s.recordAudit(ctx, actorID, "genqueue.retry_failed", fmt.Sprintf("%d items", n))
	return n, nil
}

// Items lists the queue in processing order.
func (s *Service) Items(ctx context.Context) ([]Item, error) {
	return s.store.ListItems(ctx)
}

// Status summarises the queue for operators.
type Status struct {
	Settings         Settings
	Counts           map[ItemStatus]int
	EstimatedMinutes int
}

// QueueStatus builds the status viewmodel: settings, per-state counts and
// the linear completion estimate.
func (s *Service) QueueStatus(ctx context.Context) (Status, error) {
	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		return Status{}, err
	}
	items, err := s.store.ListItems(ctx)
	if err != nil {
		return Status{}, err
	}
	counts := make(map[ItemStatus]int)
	for _, item := range items {
		counts[item.Status]++
	}
	return Status{
		Settings:         settings,
		Counts:           counts,
		EstimatedMinutes: estimateMinutes(counts[StatusPending], s.perItemSeconds),
	}, nil
}

// EstimatedMinutes projects how long the pending backlog will take.
func (s *Service) EstimatedMinutes(ctx context.Context) (int, error) {
	pending, err := s.store.CountPending(ctx)
	if err != nil {
		return 0, err
	}
	return estimateMinutes(pending, s.perItemSeconds), nil
}

// estimateMinutes is ceil(pending * perItemSeconds / 60): a displayed
// estimate, not a schedule.
func estimateMinutes(pending, perItemSeconds int) int {
	if pending <= 0 {
		return 0
	}
	totalSeconds := pending * perItemSeconds
	return (totalSeconds + 59) / 60
}

// Notifications lists queue notifications, optionally unread only.
func (s *Service) Notifications(ctx context.Context, unreadOnly bool) ([]Notification, error) {
	return s.store.ListNotifications(ctx, unreadOnly)
}

// MarkNotificationRead flips a notification's read flag.
func (s *Service) MarkNotificationRead(ctx context.Context, id int64) error {
	return s.store.MarkNotificationRead(ctx, id)
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action, entityID string) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "genqueue",
		EntityID: entityID,
	})
}
