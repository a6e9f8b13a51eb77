package perspective

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-campus/meridian-campus/internal/platform/httpx"
	"github.com/meridian-campus/meridian-campus/internal/shared"
)

// Handler exposes viewing-as endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes attaches perspective routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.current)
	r.Post("/", h.enter)
	r.Delete("/", h.exit)
}

type enterRequest struct {
	UserID int64 `json:"user_id" validate:"required,gt=0"`
}

func (h *Handler) enter(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	var req enterRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	view, err := h.service.Enter(r.Context(), sess, req.UserID)
	if err != nil {
		switch {
		case errors.Is(err, shared.ErrNotPermitted):
			httpx.RespondError(w, httpx.ErrForbidden)
		case errors.Is(err, shared.ErrNotFound):
			httpx.RespondError(w, httpx.ErrNotFound)
		default:
			h.logger.Error("enter perspective", slog.Any("error", err))
			httpx.RespondError(w, err)
		}
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) exit(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if err := h.service.Exit(r.Context(), sess); err != nil {
		h.logger.Error("exit perspective", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	view, err := h.service.Resolve(r.Context(), sess)
	if err != nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) current(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	view, err := h.service.Resolve(r.Context(), sess)
	if err != nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}
