package genqueue

import (
	"context"
	"log/slog"
)

// TaskEnqueuer hands a notification to the background mailer. Delivery is
// best-effort; the persisted notification row is the source of truth.
type TaskEnqueuer interface {
	EnqueueNotification(ctx context.Context, n Notification) error
}

// Notifier persists queue notifications and fans them out to the async
// mailer.
type Notifier struct {
	store  StorePort
	tasks  TaskEnqueuer
	logger *slog.Logger
}

// NewNotifier constructs a Notifier. tasks may be nil when no mailer is
// configured.
func NewNotifier(store StorePort, tasks TaskEnqueuer, logger *slog.Logger) *Notifier {
	return &Notifier{store: store, tasks: tasks, logger: logger}
}

// Notify appends an unread notification for the item event. Failures are
// logged, never propagated: a lost toast must not fail the queue.
func (n *Notifier) Notify(ctx context.Context, item Item, kind NotificationKind, message string) {
	if n == nil || n.store == nil {
		return
	}
	record := Notification{ItemID: item.ID, Kind: kind, Message: message}
	if err := n.store.InsertNotification(ctx, record); err != nil {
		n.log().Error("insert queue notification",
			slog.String("item", item.ID.String()),
			slog.String("kind", string(kind)),
			slog.Any("error", err))
		return
	}
	if n.tasks != nil {
		if err := n.tasks.EnqueueNotification(ctx, record); err != nil {
			n.log().Warn("enqueue notification mail", slog.Any("error", err))
		}
	}
}

func (n *Notifier) log() *slog.Logger {
	if n != nil && n.logger != nil {
		return n.logger
	}
	return slog.Default()
}
