package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-campus/meridian-campus/internal/platform/httpx"
	"github.com/meridian-campus/meridian-campus/internal/rbac"
	"github.com/meridian-campus/meridian-campus/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListUsers returns one page of users ordered by id.
func (r *Repository) ListUsers(ctx context.Context, limit, offset int) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, email, full_name, COALESCE(role, ''), is_active, created_at, updated_at FROM users ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []User
	for rows.Next() {
		var u User
		var role string
		if err := rows.Scan(&u.ID, &u.Email, &u.FullName, &role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		u.Role = rbac.RoleID(role)
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// CountUsers returns the directory size for pagination.
func (r *Repository) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

// GetUser returns one user by id.
func (r *Repository) GetUser(ctx context.Context, id int64) (User, error) {
	var u User
	var role string
	err := r.pool.QueryRow(ctx, `SELECT id, email, full_name, COALESCE(role, ''), is_active, created_at, updated_at FROM users WHERE id=$1`, id).
		Scan(&u.ID, &u.Email, &u.FullName, &role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, shared.ErrNotFound
		}
		return User{}, err
	}
	u.Role = rbac.RoleID(role)
	return u, nil
}

// CreateUser inserts a new account. A unique violation on email maps to
// the duplicate sentinel so the handler can answer 409.
func (r *Repository) CreateUser(ctx context.Context, email, fullName, passwordHash string, role rbac.RoleID) (User, error) {
	var u User
	var roleOut string
	err := r.pool.QueryRow(ctx, `INSERT INTO users (email, full_name, password_hash, role, is_active, created_at, updated_at)
VALUES ($1, $2, $3, NULLIF($4, ''), TRUE, NOW(), NOW())
RETURNING id, email, full_name, COALESCE(role, ''), is_active, created_at, updated_at`,
		email, fullName, passwordHash, string(role)).
		Scan(&u.ID, &u.Email, &u.FullName, &roleOut, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return User{}, fmt.Errorf("users: email %s taken: %w", email, httpx.ErrDuplicate)
		}
		return User{}, err
	}
	u.Role = rbac.RoleID(roleOut)
	return u, nil
}

// SetRole updates the single role assignment for a user.
func (r *Repository) SetRole(ctx context.Context, id int64, role rbac.RoleID) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET role=$2, updated_at=NOW() WHERE id=$1`, id, string(role))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
