package shared

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditLog represents a record stored in audit_logs. ActorID is always the
// actual signed-in identity; when the actor was viewing-as another user the
// effective identity is carried in EffectiveID so impersonated writes stay
// attributable to the admin.
type AuditLog struct {
	ActorID     int64
	EffectiveID int64
	Action      string
	Entity      string
	EntityID    string
	Meta        map[string]any
	At          time.Time
}

type auditExecer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// AuditLogger writes records into audit_logs.
type AuditLogger struct {
	db auditExecer
}

// NewAuditLogger returns a new AuditLogger.
func NewAuditLogger(pool *pgxpool.Pool) *AuditLogger {
	return &AuditLogger{db: pool}
}

// Record persists the log entry. A zero At is stamped with the current time
// before the insert; a non-pointer time.Time would otherwise reach Postgres
// as the year-1 zero value, never as NULL.
func (l *AuditLogger) Record(ctx context.Context, log AuditLog) error {
	if l == nil {
		return errors.New("audit logger not initialised")
	}
	if log.Action == "" || log.Entity == "" || log.EntityID == "" {
		return errors.New("audit log requires action/entity/entity_id")
	}
	if log.EffectiveID == 0 {
		log.EffectiveID = log.ActorID
	}
	if log.At.IsZero() {
		log.At = time.Now().UTC()
	}
	metaJSON, err := json.Marshal(log.Meta)
	if err != nil {
		return err
	}
	_, err = l.db.Exec(ctx, `INSERT INTO audit_logs (actor_id, effective_id, action, entity, entity_id, meta, occurred_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		log.ActorID, log.EffectiveID, log.Action, log.Entity, log.EntityID, metaJSON, log.At)
	return err
}
