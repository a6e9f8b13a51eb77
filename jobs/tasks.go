package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/meridian-campus/meridian-campus/internal/genqueue"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
	// TaskTypeQueueNotification fans a generation-queue notification out to
	// the operators' inboxes.
	TaskTypeQueueNotification = "genqueue:notify"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// HandleSendEmailTask processes TaskTypeSendEmail tasks.
func HandleSendEmailTask(ctx context.Context, t *asynq.Task) error {
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	// Placeholder: integrate with the campus SMTP relay.
	slog.Info("send email", slog.String("to", payload.To), slog.String("subject", payload.Subject))
	return nil
}

// QueueNotificationPayload carries one generation-queue event to the worker.
type QueueNotificationPayload struct {
	ItemID  string `json:"item_id"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// NewQueueNotificationTask constructs an Asynq task for a queue event.
func NewQueueNotificationTask(payload QueueNotificationPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeQueueNotification, data), nil
}

// MailEnqueuer submits rendered emails to the background mailer.
type MailEnqueuer interface {
	EnqueueSendEmail(ctx context.Context, payload SendEmailPayload) (*asynq.TaskInfo, error)
}

// QueueNotificationHandler turns generation-queue events into emails for the
// operations inbox. The persisted notification row is the source of truth; a
// failed mail retries without re-inserting anything.
type QueueNotificationHandler struct {
	OperationsEmail string
	Mail            MailEnqueuer
	Logger          *slog.Logger
}

// Handle processes TaskTypeQueueNotification tasks.
func (h QueueNotificationHandler) Handle(ctx context.Context, t *asynq.Task) error {
	var payload QueueNotificationPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if h.OperationsEmail == "" || h.Mail == nil {
		return nil
	}
	if _, err := h.Mail.EnqueueSendEmail(ctx, SendEmailPayload{
		To:      h.OperationsEmail,
		Subject: queueEventSubject(payload.Kind),
		Body:    payload.Message,
	}); err != nil {
		return err
	}
	h.log().Info("queued operations email",
		slog.String("to", h.OperationsEmail),
		slog.String("kind", payload.Kind),
		slog.String("item", payload.ItemID))
	return nil
}

func queueEventSubject(kind string) string {
	switch genqueue.NotificationKind(kind) {
	case genqueue.NotifyFailed:
		return "Generation queue: item failed"
	case genqueue.NotifyPaused:
		return "Generation queue paused"
	default:
		return "Generation queue: item completed"
	}
}

func (h QueueNotificationHandler) log() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// EnqueueNotification satisfies the queue's notifier port: it hands the
// event to the background mailer without blocking the processor.
func (c *Client) EnqueueNotification(ctx context.Context, n genqueue.Notification) error {
	task, err := NewQueueNotificationTask(QueueNotificationPayload{
		ItemID:  n.ItemID.String(),
		Kind:    string(n.Kind),
		Message: n.Message,
	})
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
	return err
}

var _ genqueue.TaskEnqueuer = (*Client)(nil)
