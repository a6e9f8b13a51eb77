package auth

import (
	"time"

	"github.com/meridian-campus/meridian-campus/internal/rbac"
)

// User represents an authenticated account as reported by the identity
// provider: id, email, full name and a single role claim.
type User struct {
	ID           int64
	Email        string
	FullName     string
	Role         rbac.RoleID
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
