package shared

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

type recordingExecer struct {
	args [][]any
}

func (e *recordingExecer) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	e.args = append(e.args, args)
	return pgconn.CommandTag{}, nil
}

func TestRecordStampsOccurredAt(t *testing.T) {
	db := &recordingExecer{}
	logger := &AuditLogger{db: db}

	err := logger.Record(context.Background(), AuditLog{
		ActorID:  7,
		Action:   "users.assign_role",
		Entity:   "user",
		EntityID: "42",
	})
	require.NoError(t, err)
	require.Len(t, db.args, 1)

	at, ok := db.args[0][6].(time.Time)
	require.True(t, ok)
	require.False(t, at.IsZero(), "zero occurred_at would order the whole trail at year 1")
	require.WithinDuration(t, time.Now().UTC(), at, 5*time.Second)
}

func TestRecordKeepsExplicitTimestamp(t *testing.T) {
	db := &recordingExecer{}
	logger := &AuditLogger{db: db}
	stamp := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	err := logger.Record(context.Background(), AuditLog{
		ActorID:  7,
		Action:   "perspective.enter",
		Entity:   "user",
		EntityID: "42",
		At:       stamp,
	})
	require.NoError(t, err)
	require.Equal(t, stamp, db.args[0][6])
}

func TestRecordDefaultsEffectiveToActor(t *testing.T) {
	db := &recordingExecer{}
	logger := &AuditLogger{db: db}

	err := logger.Record(context.Background(), AuditLog{
		ActorID:  7,
		Action:   "dashboard.toggle_section",
		Entity:   "dashboard_visibility",
		EntityID: "42:student",
	})
	require.NoError(t, err)
	require.Equal(t, int64(7), db.args[0][1])

	err = logger.Record(context.Background(), AuditLog{
		ActorID:     7,
		EffectiveID: 99,
		Action:      "dashboard.toggle_section",
		Entity:      "dashboard_visibility",
		EntityID:    "42:student",
	})
	require.NoError(t, err)
	require.Equal(t, int64(99), db.args[1][1])
}

func TestRecordRequiresCoreFields(t *testing.T) {
	db := &recordingExecer{}
	logger := &AuditLogger{db: db}

	err := logger.Record(context.Background(), AuditLog{ActorID: 7, Entity: "user", EntityID: "42"})
	require.Error(t, err)
	require.Empty(t, db.args)
}
