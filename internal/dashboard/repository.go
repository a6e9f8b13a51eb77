package dashboard

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-campus/meridian-campus/internal/rbac"
)

// Repository persists visibility override records. One row per
// (user, role); the row stores the full visible set, not deltas.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Get returns the override set for (userID, role). found=false means no
// override exists and the role default applies.
func (r *Repository) Get(ctx context.Context, userID int64, role rbac.RoleID) ([]SectionID, bool, error) {
	var raw []string
	err := r.pool.QueryRow(ctx, `SELECT visible_sections FROM dashboard_visibility WHERE user_id=$1 AND role=$2`, userID, string(role)).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	sections := make([]SectionID, len(raw))
	for i, s := range raw {
		sections[i] = SectionID(s)
	}
	return sections, true, nil
}

// Save upserts the full visible set for (userID, role).
func (r *Repository) Save(ctx context.Context, userID int64, role rbac.RoleID, sections []SectionID) error {
	raw := make([]string, len(sections))
	for i, s := range sections {
		raw[i] = string(s)
	}
	_, err := r.pool.Exec(ctx, `INSERT INTO dashboard_visibility (user_id, role, visible_sections, updated_at)
VALUES ($1, $2, $3, NOW())
ON CONFLICT (user_id, role) DO UPDATE SET visible_sections = EXCLUDED.visible_sections, updated_at = NOW()`,
		userID, string(role), raw)
	return err
}
