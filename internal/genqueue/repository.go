package genqueue

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-campus/meridian-campus/internal/shared"
)

// StorePort defines persistence for queue items, settings and notifications.
type StorePort interface {
	UpsertItem(ctx context.Context, course Course, actorID int64) (Item, error)
	DeleteItem(ctx context.Context, id uuid.UUID) error
	ClearFinished(ctx context.Context) (int64, error)
	ResetFailed(ctx context.Context) (int64, error)
	ResetPausedItems(ctx context.Context) (int64, error)
	ListItems(ctx context.Context) ([]Item, error)
	NextPending(ctx context.Context) (Item, bool, error)
	CountPending(ctx context.Context) (int, error)

	MarkProcessing(ctx context.Context, id uuid.UUID, at time.Time) error
	MarkCompleted(ctx context.Context, id uuid.UUID, at time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, message string) error
	MarkPausedInFlight(ctx context.Context, id uuid.UUID) error

	GetSettings(ctx context.Context) (Settings, error)
	SaveSettings(ctx context.Context, settings Settings) error

	InsertNotification(ctx context.Context, n Notification) error
	ListNotifications(ctx context.Context, unreadOnly bool) ([]Notification, error)
	MarkNotificationRead(ctx context.Context, id int64) error
}

// Repository implements StorePort on PostgreSQL. All mutations are
// whole-record writes; item state transitions are guarded by status
// predicates so a concurrent writer cannot resurrect a terminal item.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const itemColumns = `id, course_id, course_code, course_name, status, priority, retries, COALESCE(error_message, ''), started_at, completed_at, created_at, created_by`

func scanItem(row pgx.Row) (Item, error) {
	var item Item
	var status string
	err := row.Scan(&item.ID, &item.CourseID, &item.CourseCode, &item.CourseName, &status,
		&item.Priority, &item.Retries, &item.ErrorMessage, &item.StartedAt, &item.CompletedAt,
		&item.CreatedAt, &item.CreatedBy)
	if err != nil {
		return Item{}, err
	}
	item.Status = ItemStatus(status)
	return item, nil
}

// UpsertItem inserts or refreshes the queue item for a course. The unique
// constraint on course_id makes re-adding an update: the second call's
// code, name and priority win and the item returns to pending.
func (r *Repository) UpsertItem(ctx context.Context, course Course, actorID int64) (Item, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO genqueue_items
(id, course_id, course_code, course_name, status, priority, retries, created_at, created_by)
VALUES ($1, $2, $3, $4, 'pending', $5, 0, NOW(), $6)
ON CONFLICT (course_id) DO UPDATE SET
	course_code = EXCLUDED.course_code,
	course_name = EXCLUDED.course_name,
	priority = EXCLUDED.priority,
	status = 'pending',
	retries = 0,
	error_message = NULL,
	started_at = NULL,
	completed_at = NULL,
	created_by = EXCLUDED.created_by
RETURNING `+itemColumns,
		uuid.New(), course.CourseID, course.CourseCode, course.CourseName, course.Priority, actorID)
	return scanItem(row)
}

// DeleteItem removes an item unconditionally.
func (r *Repository) DeleteItem(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM genqueue_items WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ClearFinished deletes all completed and failed items.
func (r *Repository) ClearFinished(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM genqueue_items WHERE status IN ('completed', 'failed')`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ResetFailed returns every failed item to pending with a clean slate.
func (r *Repository) ResetFailed(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE genqueue_items SET status='pending', retries=0, error_message=NULL, started_at=NULL WHERE status='failed'`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ResetPausedItems returns items parked by a queue-wide pause to pending.
func (r *Repository) ResetPausedItems(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE genqueue_items SET status='pending', started_at=NULL WHERE status='paused'`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ListItems returns all items in processing order.
func (r *Repository) ListItems(ctx context.Context) ([]Item, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+itemColumns+` FROM genqueue_items ORDER BY priority ASC, created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// NextPending selects the single next item: lowest priority number first,
// FIFO within equal priority.
func (r *Repository) NextPending(ctx context.Context) (Item, bool, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM genqueue_items WHERE status='pending' ORDER BY priority ASC, created_at ASC LIMIT 1`)
	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, false, nil
		}
		return Item{}, false, err
	}
	return item, true, nil
}

// CountPending counts pending items.
func (r *Repository) CountPending(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM genqueue_items WHERE status='pending'`).Scan(&n)
	return n, err
}

// MarkProcessing transitions pending → processing.
func (r *Repository) MarkProcessing(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.transition(ctx, `UPDATE genqueue_items SET status='processing', started_at=$2 WHERE id=$1 AND status='pending'`, id, at)
}

// MarkCompleted transitions processing → completed.
func (r *Repository) MarkCompleted(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.transition(ctx, `UPDATE genqueue_items SET status='completed', completed_at=$2 WHERE id=$1 AND status='processing'`, id, at)
}

// MarkFailed transitions processing → failed, bumping the retry counter.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, message string) error {
	return r.transition(ctx, `UPDATE genqueue_items SET status='failed', retries=retries+1, error_message=$2 WHERE id=$1 AND status='processing'`, id, message)
}

// MarkPausedInFlight parks an in-flight item when the queue pauses.
func (r *Repository) MarkPausedInFlight(ctx context.Context, id uuid.UUID) error {
	return r.transition(ctx, `UPDATE genqueue_items SET status='paused' WHERE id=$1 AND status='processing'`, id)
}

func (r *Repository) transition(ctx context.Context, query string, args ...any) error {
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// GetSettings loads the singleton control record.
func (r *Repository) GetSettings(ctx context.Context) (Settings, error) {
	var s Settings
	var status, reason string
	err := r.pool.QueryRow(ctx, `SELECT status, paused_at, COALESCE(pause_reason, ''), updated_at FROM genqueue_settings WHERE id=1`).
		Scan(&status, &s.PausedAt, &reason, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Settings{Status: QueueIdle}, nil
		}
		return Settings{}, err
	}
	s.Status = QueueStatus(status)
	s.PauseReason = PauseReason(reason)
	return s, nil
}

// SaveSettings writes the singleton whole-record.
func (r *Repository) SaveSettings(ctx context.Context, settings Settings) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO genqueue_settings (id, status, paused_at, pause_reason, updated_at)
VALUES (1, $1, $2, NULLIF($3, ''), NOW())
ON CONFLICT (id) DO UPDATE SET status=EXCLUDED.status, paused_at=EXCLUDED.paused_at, pause_reason=EXCLUDED.pause_reason, updated_at=NOW()`,
		string(settings.Status), settings.PausedAt, string(settings.PauseReason))
	return err
}

// InsertNotification appends a notification record.
func (r *Repository) InsertNotification(ctx context.Context, n Notification) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO genqueue_notifications (item_id, kind, message, is_read, created_at) VALUES ($1, $2, $3, FALSE, NOW())`,
		n.ItemID, string(n.Kind), n.Message)
	return err
}

// ListNotifications returns notifications newest first.
func (r *Repository) ListNotifications(ctx context.Context, unreadOnly bool) ([]Notification, error) {
	query := `SELECT id, item_id, kind, message, is_read, created_at FROM genqueue_notifications`
	if unreadOnly {
		query += ` WHERE is_read = FALSE`
	}
	query += ` ORDER BY created_at DESC, id DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Notification
	for rows.Next() {
		var n Notification
		var kind string
		if err := rows.Scan(&n.ID, &n.ItemID, &kind, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		n.Kind = NotificationKind(kind)
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkNotificationRead flips is_read; the only mutation notifications get.
func (r *Repository) MarkNotificationRead(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE genqueue_notifications SET is_read=TRUE WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ StorePort = (*Repository)(nil)
