package perspective

import (
	"context"
	"fmt"
	"strconv"

	"github.com/meridian-campus/meridian-campus/internal/rbac"
	"github.com/meridian-campus/meridian-campus/internal/shared"
	"github.com/meridian-campus/meridian-campus/internal/users"
)

// Identity is one resolved user identity.
type Identity struct {
	UserID   int64       `json:"user_id"`
	Role     rbac.RoleID `json:"role"`
	FullName string      `json:"full_name"`
	Email    string      `json:"email"`
}

// View is the two-sided identity state of a session. Effective drives what
// renders; Actual drives what the actor is allowed to do and who audit
// records name.
type View struct {
	Actual    Identity `json:"actual"`
	Effective Identity `json:"effective"`
	Active    bool     `json:"active"`
}

// Directory looks up portal users.
type Directory interface {
	GetUser(ctx context.Context, id int64) (users.User, error)
}

// AuditPort records perspective transitions.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service implements the viewing-as state machine: Normal (effective ==
// actual) and Viewing-As (effective == target, actual retained in the
// session untouched).
type Service struct {
	directory Directory
	audit     AuditPort
}

// NewService constructs a Service.
func NewService(directory Directory, audit AuditPort) *Service {
	return &Service{directory: directory, audit: audit}
}

// Enter switches the session's effective identity to targetID. The actual
// identity must hold users.read; a denied attempt leaves the session exactly
// as it was. Entering while already viewing-as replaces the target; exit
// still restores the one actual identity.
func (s *Service) Enter(ctx context.Context, sess *shared.Session, targetID int64) (View, error) {
	actual, err := s.actualIdentity(ctx, sess)
	if err != nil {
		return View{}, err
	}
	if !rbac.HasPermission(actual.Role, rbac.ResourceUsers, rbac.ActionRead) {
		return View{}, shared.ErrNotPermitted
	}
	target, err := s.directory.GetUser(ctx, targetID)
	if err != nil {
		return View{}, err
	}
	sess.SetPerspective(strconv.FormatInt(target.ID, 10), string(target.Role))
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:     actual.UserID,
			EffectiveID: target.ID,
			Action:      "perspective.enter",
			Entity:      "user",
			EntityID:    strconv.FormatInt(target.ID, 10),
			Meta:        map[string]any{"target_role": string(target.Role)},
		})
	}
	return View{
		Actual:    actual,
		Effective: Identity{UserID: target.ID, Role: target.Role, FullName: target.FullName, Email: target.Email},
		Active:    true,
	}, nil
}

// Exit restores effective identity to the actual identity. Calling it while
// already in the normal state is a no-op.
func (s *Service) Exit(ctx context.Context, sess *shared.Session) error {
	if sess == nil {
		return nil
	}
	targetID, _ := sess.Perspective()
	sess.ClearPerspective()
	if targetID != "" && s.audit != nil {
		if actorID, err := strconv.ParseInt(sess.User(), 10, 64); err == nil {
			_ = s.audit.Record(ctx, shared.AuditLog{
				ActorID:  actorID,
				Action:   "perspective.exit",
				Entity:   "user",
				EntityID: targetID,
			})
		}
	}
	return nil
}

// Resolve reports the current identity pair for the session.
func (s *Service) Resolve(ctx context.Context, sess *shared.Session) (View, error) {
	actual, err := s.actualIdentity(ctx, sess)
	if err != nil {
		return View{}, err
	}
	view := View{Actual: actual, Effective: actual}
	targetID, _ := sess.Perspective()
	if targetID == "" {
		return view, nil
	}
	id, err := strconv.ParseInt(targetID, 10, 64)
	if err != nil {
		return view, nil
	}
	target, err := s.directory.GetUser(ctx, id)
	if err != nil {
		// Target vanished since entry; fall back to the normal state.
		sess.ClearPerspective()
		return view, nil
	}
	view.Effective = Identity{UserID: target.ID, Role: target.Role, FullName: target.FullName, Email: target.Email}
	view.Active = true
	return view, nil
}

func (s *Service) actualIdentity(ctx context.Context, sess *shared.Session) (Identity, error) {
	if sess == nil || sess.User() == "" {
		return Identity{}, shared.ErrNotPermitted
	}
	id, err := strconv.ParseInt(sess.User(), 10, 64)
	if err != nil {
		return Identity{}, fmt.Errorf("perspective: malformed session user id %q: %w", sess.User(), shared.ErrNotPermitted)
	}
	actor, err := s.directory.GetUser(ctx, id)
	if err != nil {
		return Identity{}, err
	}
	return Identity{UserID: actor.ID, Role: actor.Role, FullName: actor.FullName, Email: actor.Email}, nil
}
