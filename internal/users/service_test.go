package users

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-campus/meridian-campus/internal/platform/httpx"
	"github.com/meridian-campus/meridian-campus/internal/rbac"
	"github.com/meridian-campus/meridian-campus/internal/shared"
)

type memoryUserRepo struct {
	users map[int64]User
}

func newMemoryUserRepo(seed ...User) *memoryUserRepo {
	repo := &memoryUserRepo{users: make(map[int64]User)}
	for _, u := range seed {
		repo.users[u.ID] = u
	}
	return repo
}

func (r *memoryUserRepo) ListUsers(ctx context.Context, limit, offset int) ([]User, error) {
	out := make([]User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *memoryUserRepo) CountUsers(ctx context.Context) (int, error) {
	return len(r.users), nil
}

func (r *memoryUserRepo) GetUser(ctx context.Context, id int64) (User, error) {
	u, ok := r.users[id]
	if !ok {
		return User{}, shared.ErrNotFound
	}
	return u, nil
}

func (r *memoryUserRepo) CreateUser(ctx context.Context, email, fullName, passwordHash string, role rbac.RoleID) (User, error) {
	var nextID int64 = 1
	for id, u := range r.users {
		if u.Email == email {
			return User{}, httpx.ErrDuplicate
		}
		if id >= nextID {
			nextID = id + 1
		}
	}
	u := User{ID: nextID, Email: email, FullName: fullName, Role: role, IsActive: true}
	r.users[nextID] = u
	return u, nil
}

func (r *memoryUserRepo) SetRole(ctx context.Context, id int64, role rbac.RoleID) error {
	u, ok := r.users[id]
	if !ok {
		return shared.ErrNotFound
	}
	u.Role = role
	r.users[id] = u
	return nil
}

type recordingAudit struct {
	logs []shared.AuditLog
}

func (a *recordingAudit) Record(ctx context.Context, log shared.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

func TestAssignRoleWithinDelegation(t *testing.T) {
	repo := newMemoryUserRepo(
		User{ID: 1, Role: rbac.RoleHRAdmin},
		User{ID: 2, Role: rbac.RoleStudent},
	)
	audit := &recordingAudit{}
	svc := NewService(repo, audit)

	err := svc.AssignRole(context.Background(), repo.users[1], 2, rbac.RoleSupport)
	require.NoError(t, err)

	updated, err := repo.GetUser(context.Background(), 2)
	require.NoError(t, err)
	require.Equal(t, rbac.RoleSupport, updated.Role)

	require.Len(t, audit.logs, 1)
	require.Equal(t, int64(1), audit.logs[0].ActorID)
	require.Equal(t, "users.assign_role", audit.logs[0].Action)
}

func TestAssignRoleOutsideDelegationIsRejected(t *testing.T) {
	repo := newMemoryUserRepo(
		User{ID: 1, Role: rbac.RoleHRAdmin},
		User{ID: 2, Role: rbac.RoleStudent},
	)
	svc := NewService(repo, nil)

	err := svc.AssignRole(context.Background(), repo.users[1], 2, rbac.RoleFaculty)
	require.ErrorIs(t, err, shared.ErrNotPermitted)

	untouched, _ := repo.GetUser(context.Background(), 2)
	require.Equal(t, rbac.RoleStudent, untouched.Role)
}

func TestAssignUnknownRole(t *testing.T) {
	repo := newMemoryUserRepo(User{ID: 1, Role: rbac.RoleSuperadmin}, User{ID: 2})
	svc := NewService(repo, nil)

	err := svc.AssignRole(context.Background(), repo.users[1], 2, "ghost_role")
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestListUsersPaginates(t *testing.T) {
	repo := newMemoryUserRepo(
		User{ID: 1, Role: rbac.RoleSuperadmin},
		User{ID: 2, Role: rbac.RoleStudent},
		User{ID: 3, Role: rbac.RoleStudent},
	)
	svc := NewService(repo, nil)

	list, pagination, err := svc.ListUsers(context.Background(), 2, 2)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, int64(3), list[0].ID)
	require.Equal(t, 3, pagination.Total)
	require.Equal(t, 2, pagination.TotalPages)
}

func TestCreateUserWithinDelegation(t *testing.T) {
	repo := newMemoryUserRepo(User{ID: 1, Email: "hr@campus.test", Role: rbac.RoleHRAdmin})
	audit := &recordingAudit{}
	svc := NewService(repo, audit)

	created, err := svc.CreateUser(context.Background(), repo.users[1], NewUser{
		Email:    "new@campus.test",
		FullName: "New Staffer",
		Password: "s3cret-pass",
		Role:     rbac.RoleStaff,
	})
	require.NoError(t, err)
	require.Equal(t, rbac.RoleStaff, created.Role)
	require.True(t, created.IsActive)

	require.Len(t, audit.logs, 1)
	require.Equal(t, "users.create", audit.logs[0].Action)
}

func TestCreateUserRoleOutsideDelegation(t *testing.T) {
	repo := newMemoryUserRepo(User{ID: 1, Email: "hr@campus.test", Role: rbac.RoleHRAdmin})
	svc := NewService(repo, nil)

	_, err := svc.CreateUser(context.Background(), repo.users[1], NewUser{
		Email:    "new@campus.test",
		FullName: "New Staffer",
		Password: "s3cret-pass",
		Role:     rbac.RoleFaculty,
	})
	require.ErrorIs(t, err, shared.ErrNotPermitted)
	require.Len(t, repo.users, 1)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	repo := newMemoryUserRepo(User{ID: 1, Email: "taken@campus.test", Role: rbac.RoleSuperadmin})
	svc := NewService(repo, nil)

	_, err := svc.CreateUser(context.Background(), repo.users[1], NewUser{
		Email:    "taken@campus.test",
		FullName: "Shadow",
		Password: "s3cret-pass",
	})
	require.ErrorIs(t, err, httpx.ErrDuplicate)
}
