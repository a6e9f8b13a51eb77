package genqueue

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/meridian-campus/meridian-campus/internal/platform/httpx"
	"github.com/meridian-campus/meridian-campus/internal/rbac"
	"github.com/meridian-campus/meridian-campus/internal/shared"
)

// Handler exposes queue operations over HTTP.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	processor *Processor
	rbacMW    rbac.Middleware
	validate  *validator.Validate

	statusGroup singleflight.Group
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, processor *Processor, rbacMW rbac.Middleware) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		processor: processor,
		rbacMW:    rbacMW,
		validate:  validator.New(),
	}
}

// MountRoutes attaches queue routes.
func (h *Handler) MountRoutes(r chi.Router) {
	read := h.rbacMW.Require(rbac.ResourceContent, rbac.ActionRead)
	operate := h.rbacMW.Require(rbac.ResourceContent, rbac.ActionGenerate)

	r.With(read).Get("/", h.listItems)
	r.With(read).Get("/status", h.status)
	r.With(read).Get("/estimate", h.estimate)
	r.With(read).Get("/notifications", h.listNotifications)
	r.With(read).Post("/notifications/{id}/read", h.markNotificationRead)

	r.With(operate).Post("/", h.add)
	r.With(operate).Delete("/{itemID}", h.remove)
	r.With(operate).Post("/retry-failed", h.retryFailed)
	r.With(operate).Post("/clear-completed", h.clearCompleted)
	r.With(operate).Post("/start", h.start)
	r.With(operate).Post("/pause", h.pause)
	r.With(operate).Post("/resume", h.resume)
}

type itemView struct {
	ID           string  `json:"id"`
	CourseID     int64   `json:"course_id"`
	CourseCode   string  `json:"course_code"`
	CourseName   string  `json:"course_name"`
	Status       string  `json:"status"`
	Priority     int     `json:"priority"`
	Retries      int     `json:"retries"`
	ErrorMessage string  `json:"error_message,omitempty"`
	StartedAt    *string `json:"started_at,omitempty"`
	CompletedAt  *string `json:"completed_at,omitempty"`
	CreatedAt    string  `json:"created_at"`
}

func toItemView(item Item) itemView {
	view := itemView{
		ID:           item.ID.String(),
		CourseID:     item.CourseID,
		CourseCode:   item.CourseCode,
		CourseName:   item.CourseName,
		Status:       string(item.Status),
		Priority:     item.Priority,
		Retries:      item.Retries,
		ErrorMessage: item.ErrorMessage,
		CreatedAt:    item.CreatedAt.Format(time.RFC3339),
	}
	if item.StartedAt != nil {
		s := item.StartedAt.Format(time.RFC3339)
		view.StartedAt = &s
	}
	if item.CompletedAt != nil {
		s := item.CompletedAt.Format(time.RFC3339)
		view.CompletedAt = &s
	}
	return view
}

func (h *Handler) listItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.Items(r.Context())
	if err != nil {
		h.logger.Error("list queue items", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	views := make([]itemView, len(items))
	for i, item := range items {
		views[i] = toItemView(item)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": views})
}

type addRequest struct {
	Courses []Course `json:"courses" validate:"required,min=1,dive"`
}

func (h *Handler) add(w http.ResponseWriter, r *http.Request) {
	var req addRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	items, err := h.service.Add(r.Context(), req.Courses, h.actorID(r))
	if err != nil {
		h.logger.Error("add to queue", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	views := make([]itemView, len(items))
	for i, item := range items {
		views[i] = toItemView(item)
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"items": views})
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.service.Remove(r.Context(), id, h.actorID(r)); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.RespondError(w, httpx.ErrNotFound)
			return
		}
		h.logger.Error("remove queue item", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (h *Handler) retryFailed(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.RetryFailed(r.Context(), h.actorID(r))
	if err != nil {
		h.logger.Error("retry failed items", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"reset": n})
}

func (h *Handler) clearCompleted(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.ClearCompleted(r.Context(), h.actorID(r))
	if err != nil {
		h.logger.Error("clear completed items", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"deleted": n})
}

func (h *Handler) start(w http.ResponseWriter, r *http.Request) {
	if err := h.processor.Start(r.Context()); err != nil {
		if errors.Is(err, ErrProcessorHeld) {
			httpx.Problem(w, http.StatusConflict, "Conflict", "queue processor already running elsewhere")
			return
		}
		if errors.Is(err, ErrQueuePaused) {
			httpx.Problem(w, http.StatusConflict, "Conflict", "queue is paused, resume it instead")
			return
		}
		h.logger.Error("start processor", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"status": "running"})
}

type pauseRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) pause(w http.ResponseWriter, r *http.Request) {
	var req pauseRequest
	_ = httpx.DecodeJSON(r, &req)
	reason := PauseReason(req.Reason)
	if reason == "" {
		reason = PauseManual
	}
	if err := h.processor.Pause(r.Context(), reason); err != nil {
		h.logger.Error("pause processor", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"status": "paused", "reason": string(reason)})
}

func (h *Handler) resume(w http.ResponseWriter, r *http.Request) {
	if err := h.processor.Resume(r.Context()); err != nil {
		if errors.Is(err, ErrProcessorHeld) {
			httpx.Problem(w, http.StatusConflict, "Conflict", "queue processor already running elsewhere")
			return
		}
		h.logger.Error("resume processor", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"status": "running"})
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	// Status fan-in: concurrent dashboard polls share one store read.
	result, err, _ := h.statusGroup.Do("status", func() (any, error) {
		return h.service.QueueStatus(context.WithoutCancel(r.Context()))
	})
	if err != nil {
		h.logger.Error("queue status", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	status := result.(Status)
	payload := map[string]any{
		"status":            string(status.Settings.Status),
		"pause_reason":      string(status.Settings.PauseReason),
		"counts":            status.Counts,
		"estimated_minutes": status.EstimatedMinutes,
		"processor_running": h.processor.Running(),
	}
	if status.Settings.PausedAt != nil {
		payload["paused_at"] = status.Settings.PausedAt.Format(time.RFC3339)
	}
	httpx.JSON(w, http.StatusOK, payload)
}

func (h *Handler) estimate(w http.ResponseWriter, r *http.Request) {
	minutes, err := h.service.EstimatedMinutes(r.Context())
	if err != nil {
		h.logger.Error("estimate queue", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"estimated_minutes": minutes})
}

type notificationView struct {
	ID        int64  `json:"id"`
	ItemID    string `json:"item_id"`
	Kind      string `json:"kind"`
	Message   string `json:"message"`
	IsRead    bool   `json:"is_read"`
	CreatedAt string `json:"created_at"`
}

func (h *Handler) listNotifications(w http.ResponseWriter, r *http.Request) {
	unreadOnly := r.URL.Query().Get("unread") == "1"
	notifications, err := h.service.Notifications(r.Context(), unreadOnly)
	if err != nil {
		h.logger.Error("list notifications", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	views := make([]notificationView, len(notifications))
	for i, n := range notifications {
		views[i] = notificationView{
			ID:        n.ID,
			ItemID:    n.ItemID.String(),
			Kind:      string(n.Kind),
			Message:   n.Message,
			IsRead:    n.IsRead,
			CreatedAt: n.CreatedAt.Format(time.RFC3339),
		}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"notifications": views})
}

func (h *Handler) markNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.service.MarkNotificationRead(r.Context(), id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.RespondError(w, httpx.ErrNotFound)
			return
		}
		h.logger.Error("mark notification read", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (h *Handler) actorID(r *http.Request) int64 {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return 0
	}
	id, _ := strconv.ParseInt(sess.User(), 10, 64)
	return id
}
