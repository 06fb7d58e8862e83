package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/docflow/docflow-backend/internal/docflow/service"
	"github.com/docflow/docflow-backend/pkg/actor"
	"github.com/docflow/docflow-backend/pkg/errors"
	"github.com/docflow/docflow-backend/pkg/httputil"
	"github.com/docflow/docflow-backend/pkg/logger"
)

// NotificationHandler handles workflow inbox endpoints
type NotificationHandler struct {
	service *service.NotificationService
	logger  *logger.Logger
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(svc *service.NotificationService, log *logger.Logger) *NotificationHandler {
	return &NotificationHandler{
		service: svc,
		logger:  log,
	}
}

// List lists the caller's notifications
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	act := actor.FromContext(r.Context())
	if act == nil {
		httputil.Error(w, errors.Unauthorized("authentication required"))
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	notifications, err := h.service.ListForUser(r.Context(), act.ID, limit)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, notifications)
}

// UnreadCount counts the caller's unread notifications
func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	act := actor.FromContext(r.Context())
	if act == nil {
		httputil.Error(w, errors.Unauthorized("authentication required"))
		return
	}

	count, err := h.service.UnreadCount(r.Context(), act.ID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]int64{"unread": count})
}

// MarkRead marks one notification read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.MarkRead(r.Context(), id); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}

// MarkAllRead marks all of the caller's notifications read
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	if err := h.service.MarkAllRead(r.Context()); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}
