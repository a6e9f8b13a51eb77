package dashboard

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-campus/meridian-campus/internal/perspective"
	"github.com/meridian-campus/meridian-campus/internal/platform/httpx"
	"github.com/meridian-campus/meridian-campus/internal/rbac"
	"github.com/meridian-campus/meridian-campus/internal/shared"
)

// Handler exposes dashboard visibility endpoints.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	perspective *perspective.Service
	rbacMW      rbac.Middleware
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, persp *perspective.Service, rbacMW rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, perspective: persp, rbacMW: rbacMW}
}

// MountRoutes attaches dashboard routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/sections", h.mySections)
	r.With(h.rbacMW.Require(rbac.ResourceUsers, rbac.ActionUpdate)).
		Put("/{userID}/{role}/sections/{sectionID}", h.toggleSection)
	r.With(h.rbacMW.Require(rbac.ResourceUsers, rbac.ActionRead)).
		Get("/{userID}/{role}/sections", h.userSections)
}

type sectionView struct {
	ID    SectionID `json:"id"`
	Title string    `json:"title"`
}

func toSectionViews(sections []SectionID) []sectionView {
	views := make([]sectionView, len(sections))
	for i, s := range sections {
		views[i] = sectionView{ID: s, Title: SectionTitle(s)}
	}
	return views
}

// mySections renders the effective identity's visible sections: while an
// admin is viewing-as a student this returns the student's dashboard.
func (h *Handler) mySections(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	view, err := h.perspective.Resolve(r.Context(), sess)
	if err != nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	sections, err := h.service.VisibleSections(r.Context(), view.Effective.UserID, view.Effective.Role)
	if err != nil {
		h.logger.Error("visible sections", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"role":     view.Effective.Role,
		"sections": toSectionViews(sections),
	})
}

func (h *Handler) userSections(w http.ResponseWriter, r *http.Request) {
	userID, role, err := userRoleParams(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	sections, err := h.service.VisibleSections(r.Context(), userID, role)
	if err != nil {
		h.logger.Error("user sections", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"role": role, "sections": toSectionViews(sections)})
}

func (h *Handler) toggleSection(w http.ResponseWriter, r *http.Request) {
	userID, role, err := userRoleParams(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	section := SectionID(chi.URLParam(r, "sectionID"))
	if section == "" {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	view, err := h.perspective.Resolve(r.Context(), sess)
	if err != nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	// Attribution uses the actual admin identity even while viewing-as;
	// the effective identity rides along for the audit trail.
	result, err := h.service.ToggleSection(r.Context(), view.Actual.UserID, view.Effective.UserID, userID, role, section)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.RespondError(w, httpx.ErrNotFound)
			return
		}
		h.logger.Error("toggle section", slog.Any("error", err))
		httpx.JSON(w, http.StatusBadGateway, map[string]any{
			"error":    "persistence failed",
			"reverted": result.Reverted,
			"sections": toSectionViews(result.Sections),
		})
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"sections": toSectionViews(result.Sections)})
}

func userRoleParams(r *http.Request) (int64, rbac.RoleID, error) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		return 0, "", err
	}
	return userID, rbac.RoleID(chi.URLParam(r, "role")), nil
}
