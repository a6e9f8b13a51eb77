package genqueue

import (
	"time"

	"github.com/google/uuid"
)

// ItemStatus enumerates queue item states.
type ItemStatus string

// Item states. Completed and failed are terminal; failed items return to
// pending only through an explicit retry. Paused is the marker the
// processor leaves on an in-flight item when a queue-wide pause lands.
const (
	StatusPending    ItemStatus = "pending"
	StatusProcessing ItemStatus = "processing"
	StatusCompleted  ItemStatus = "completed"
	StatusFailed     ItemStatus = "failed"
	StatusPaused     ItemStatus = "paused"
)

// QueueStatus enumerates queue-wide control states.
type QueueStatus string

// Queue-wide states.
const (
	QueueIdle    QueueStatus = "idle"
	QueueRunning QueueStatus = "running"
	QueuePaused  QueueStatus = "paused"
)

// PauseReason explains why the queue was paused.
type PauseReason string

// Pause reasons.
const (
	PauseManual           PauseReason = "manual"
	PauseCreditsExhausted PauseReason = "credits_exhausted"
)

// Course is the input for enqueuing one generation job.
type Course struct {
	CourseID   int64  `json:"course_id" validate:"required,gt=0"`
	CourseCode string `json:"course_code" validate:"required"`
	CourseName string `json:"course_name" validate:"required"`
	Priority   int    `json:"priority" validate:"gte=0"`
}

// Item is one content-generation job. CourseID is unique within the queue;
// re-adding a course upserts the existing row.
type Item struct {
	ID           uuid.UUID
	CourseID     int64
	CourseCode   string
	CourseName   string
	Status       ItemStatus
	Priority     int
	Retries      int
	ErrorMessage string
	StartedAt    *time.Time
	CompletedAt  *time.Time
	CreatedAt    time.Time
	CreatedBy    int64
}

// Settings is the queue-wide singleton control record.
type Settings struct {
	Status      QueueStatus
	PausedAt    *time.Time
	PauseReason PauseReason
	UpdatedAt   time.Time
}

// NotificationKind labels queue notifications.
type NotificationKind string

// Notification kinds.
const (
	NotifyCompleted NotificationKind = "completed"
	NotifyFailed    NotificationKind = "failed"
	NotifyPaused    NotificationKind = "paused"
)

// Notification is an append-only record emitted when an item reaches a
// terminal state or the queue pauses. Cleanup is an external concern.
type Notification struct {
	ID        int64
	ItemID    uuid.UUID
	Kind      NotificationKind
	Message   string
	IsRead    bool
	CreatedAt time.Time
}
