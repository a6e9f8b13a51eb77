package users

import (
	"time"

	"github.com/meridian-campus/meridian-campus/internal/rbac"
)

// User represents a portal account. Role is the single role assignment the
// identity provider reports; a user carries exactly one role or none.
type User struct {
	ID        int64
	Email     string
	FullName  string
	Role      rbac.RoleID
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
