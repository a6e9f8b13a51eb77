package users

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-campus/meridian-campus/internal/platform/httpx"
	"github.com/meridian-campus/meridian-campus/internal/rbac"
	"github.com/meridian-campus/meridian-campus/internal/shared"
)

// Handler exposes user directory endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	rbacMW   rbac.Middleware
	validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, rbacMW rbac.Middleware) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		rbacMW:   rbacMW,
		validate: validator.New(),
	}
}

// MountRoutes attaches user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.rbacMW.Require(rbac.ResourceUsers, rbac.ActionRead)).Get("/", h.list)
	r.With(h.rbacMW.Require(rbac.ResourceUsers, rbac.ActionRead)).Get("/{id}", h.get)
	r.With(h.rbacMW.Require(rbac.ResourceUsers, rbac.ActionCreate)).Post("/", h.create)
	r.With(h.rbacMW.Require(rbac.ResourceRoles, rbac.ActionAssign)).Post("/{id}/role", h.assignRole)
}

type userView struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
	IsActive bool   `json:"is_active"`
}

func toUserView(u User) userView {
	return userView{ID: u.ID, Email: u.Email, FullName: u.FullName, Role: string(u.Role), IsActive: u.IsActive}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	list, pagination, err := h.service.ListUsers(r.Context(), page, perPage)
	if err != nil {
		h.logger.Error("list users", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	views := make([]userView, len(list))
	for i, u := range list {
		views[i] = toUserView(u)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"users": views,
		"pagination": map[string]int{
			"page":        pagination.Page,
			"per_page":    pagination.PerPage,
			"total":       pagination.Total,
			"total_pages": pagination.TotalPages,
		},
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	user, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.RespondError(w, httpx.ErrNotFound)
			return
		}
		h.logger.Error("get user", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toUserView(user))
}

type createUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"full_name" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	actor, err := h.currentUser(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	created, err := h.service.CreateUser(r.Context(), actor, NewUser{
		Email:    req.Email,
		FullName: req.FullName,
		Password: req.Password,
		Role:     rbac.RoleID(req.Role),
	})
	if err != nil {
		switch {
		case errors.Is(err, shared.ErrNotPermitted):
			httpx.RespondError(w, httpx.ErrForbidden)
		case errors.Is(err, shared.ErrNotFound):
			httpx.RespondError(w, httpx.ErrNotFound)
		default:
			h.logger.Error("create user", slog.Any("error", err))
			httpx.RespondError(w, err)
		}
		return
	}
	httpx.JSON(w, http.StatusCreated, toUserView(created))
}

type assignRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

func (h *Handler) assignRole(w http.ResponseWriter, r *http.Request) {
	targetID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	var req assignRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	actor, err := h.currentUser(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	if err := h.service.AssignRole(r.Context(), actor, targetID, rbac.RoleID(req.Role)); err != nil {
		switch {
		case errors.Is(err, shared.ErrNotPermitted):
			httpx.RespondError(w, httpx.ErrForbidden)
		case errors.Is(err, shared.ErrNotFound):
			httpx.RespondError(w, httpx.ErrNotFound)
		default:
			h.logger.Error("assign role", slog.Any("error", err))
			httpx.RespondError(w, err)
		}
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (h *Handler) currentUser(r *http.Request) (User, error) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || sess.User() == "" {
		return User{}, shared.ErrNotPermitted
	}
	id, err := strconv.ParseInt(sess.User(), 10, 64)
	if err != nil {
		return User{}, shared.ErrNotPermitted
	}
	return h.service.GetUser(r.Context(), id)
}
