package rbac

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-campus/meridian-campus/internal/platform/httpx"
	"github.com/meridian-campus/meridian-campus/internal/shared"
)

// Handler exposes the role registry over HTTP.
type Handler struct {
	logger *slog.Logger
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger) *Handler {
	return &Handler{logger: logger}
}

// MountRoutes attaches registry routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/roles", h.listRoles)
	r.Get("/roles/assignable", h.assignableRoles)
	r.Get("/permissions", h.effectivePermissions)
}

type roleView struct {
	ID          RoleID        `json:"id"`
	Name        string        `json:"name"`
	Category    RoleCategory  `json:"category"`
	Permissions PermissionSet `json:"permissions"`
}

func toRoleViews(roles []Role) []roleView {
	views := make([]roleView, len(roles))
	for i, role := range roles {
		views[i] = roleView{ID: role.ID, Name: role.Name, Category: role.Category, Permissions: role.Permissions}
	}
	return views
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": toRoleViews(All())})
}

func (h *Handler) assignableRoles(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || sess.User() == "" {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	// Delegation follows the actual identity even while viewing-as.
	roles := SelectableRoles(RoleID(sess.Role()))
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": toRoleViews(roles)})
}

func (h *Handler) effectivePermissions(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || sess.User() == "" {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	roleID := RoleID(sess.Role())
	if _, targetRole := sess.Perspective(); targetRole != "" {
		// Display filtering uses the viewed-as role.
		roleID = RoleID(targetRole)
	}
	role, ok := Lookup(roleID)
	if !ok {
		// Unknown role renders as empty permissions, never an error.
		httpx.JSON(w, http.StatusOK, map[string]any{"role": roleID, "permissions": PermissionSet{}})
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"role": role.ID, "permissions": role.Permissions})
}
