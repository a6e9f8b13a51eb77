package users

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/meridian-campus/meridian-campus/internal/rbac"
	"github.com/meridian-campus/meridian-campus/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context, limit, offset int) ([]User, error)
	CountUsers(ctx context.Context) (int, error)
	GetUser(ctx context.Context, id int64) (User, error)
	CreateUser(ctx context.Context, email, fullName, passwordHash string, role rbac.RoleID) (User, error)
	SetRole(ctx context.Context, id int64, role rbac.RoleID) error
}

// AuditPort records who changed what.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles user business logic.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// ListUsers returns one page of the directory plus pagination metadata.
func (s *Service) ListUsers(ctx context.Context, page, perPage int) ([]User, shared.Pagination, error) {
	total, err := s.repo.CountUsers(ctx)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	p := shared.NewPagination(page, perPage, total)
	list, err := s.repo.ListUsers(ctx, p.PerPage, (p.Page-1)*p.PerPage)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return list, p, nil
}

// GetUser returns one user.
func (s *Service) GetUser(ctx context.Context, id int64) (User, error) {
	return s.repo.GetUser(ctx, id)
}

// NewUser is the input for account creation.
type NewUser struct {
	Email    string
	FullName string
	Password string
	Role     rbac.RoleID
}

// CreateUser registers a new account. Granting an initial role is gated by
// the same delegation table as AssignRole; an empty role leaves the account
// without permissions until someone assigns one.
func (s *Service) CreateUser(ctx context.Context, actor User, input NewUser) (User, error) {
	if input.Role != "" {
		if _, ok := rbac.Lookup(input.Role); !ok {
			return User{}, fmt.Errorf("users: unknown role %q: %w", input.Role, shared.ErrNotFound)
		}
		if !rbac.CanAssign(actor.Role, input.Role) {
			return User{}, shared.ErrNotPermitted
		}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("users: hash password: %w", err)
	}
	created, err := s.repo.CreateUser(ctx, input.Email, input.FullName, string(hash), input.Role)
	if err != nil {
		return User{}, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actor.ID,
			Action:   "users.create",
			Entity:   "user",
			EntityID: fmt.Sprintf("%d", created.ID),
			Meta:     map[string]any{"email": created.Email, "role": string(created.Role)},
		})
	}
	return created, nil
}

// AssignRole sets the target user's role, gated by the delegation table of
// the actor's own role. Roles are assigned wholesale; there is no per-user
// permission editing anywhere in the portal.
func (s *Service) AssignRole(ctx context.Context, actor User, targetID int64, role rbac.RoleID) error {
	if _, ok := rbac.Lookup(role); !ok {
		return fmt.Errorf("users: unknown role %q: %w", role, shared.ErrNotFound)
	}
	if !rbac.CanAssign(actor.Role, role) {
		return shared.ErrNotPermitted
	}
	if err := s.repo.SetRole(ctx, targetID, role); err != nil {
		return err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actor.ID,
			Action:   "users.assign_role",
			Entity:   "user",
			EntityID: fmt.Sprintf("%d", targetID),
			Meta:     map[string]any{"role": string(role)},
		})
	}
	return nil
}
