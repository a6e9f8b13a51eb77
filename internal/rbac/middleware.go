package rbac

import (
	"log/slog"
	"net/http"

	"github.com/meridian-campus/meridian-campus/internal/shared"
)

// Middleware wires RBAC authorization helpers for HTTP handlers.
//
// Authorization always evaluates the actual signed-in identity's role, never
// a viewed-as role: impersonation changes what renders, not what the actor
// may do.
type Middleware struct {
	Logger *slog.Logger
}

// Require ensures the current user's role grants action on resource.
func (m Middleware) Require(resource Resource, action Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := m.currentRole(r)
			if !ok {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			if !HasPermission(role, resource, action) {
				if m.Logger != nil {
					m.Logger.Debug("rbac deny",
						slog.String("role", string(role)),
						slog.String("resource", string(resource)),
						slog.String("action", string(action)))
				}
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAny ensures the role grants at least one of the given pairs.
func (m Middleware) RequireAny(pairs ...Grant) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := m.currentRole(r)
			if !ok {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			for _, g := range pairs {
				if HasPermission(role, g.Resource, g.Action) {
					next.ServeHTTP(w, r)
					return
				}
			}
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		})
	}
}

// Grant pairs a resource with an action for RequireAny.
type Grant struct {
	Resource Resource
	Action   Action
}

func (m Middleware) currentRole(r *http.Request) (RoleID, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || sess.User() == "" {
		return "", false
	}
	role := sess.Role()
	if role == "" {
		// A signed-in user with no role claim has zero permissions.
		return "", false
	}
	return RoleID(role), true
}
