package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/docflow/docflow-backend/internal/docflow/domain"
	"github.com/docflow/docflow-backend/internal/docflow/service"
	"github.com/docflow/docflow-backend/pkg/httputil"
	"github.com/docflow/docflow-backend/pkg/logger"
)

// CommentHandler handles document comment endpoints
type CommentHandler struct {
	service *service.CommentService
	logger  *logger.Logger
}

// NewCommentHandler creates a new comment handler
func NewCommentHandler(svc *service.CommentService, log *logger.Logger) *CommentHandler {
	return &CommentHandler{
		service: svc,
		logger:  log,
	}
}

// Create adds a comment to a document
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "id")

	var req CreateCommentRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	comment := &domain.Comment{
		DocumentID: documentID,
		ParentID:   req.ParentID,
		Content:    req.Content,
	}
	if err := h.service.Create(r.Context(), comment); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, comment)
}

// List lists a document's comments
func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "id")

	comments, err := h.service.ListByDocument(r.Context(), documentID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, comments)
}

// Update edits one of the caller's comments
func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "commentID")

	var req UpdateCommentRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := h.service.Update(r.Context(), id, req.Content); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// Delete soft-deletes one of the caller's comments
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "commentID")

	if err := h.service.Delete(r.Context(), id); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}

// ============================================================================
// REQUEST TYPES
// ============================================================================

// CreateCommentRequest is the JSON body for adding a comment
type CreateCommentRequest struct {
	Content  string  `json:"content" validate:"required"`
	ParentID *string `json:"parent_id,omitempty" validate:"omitempty,uuid"`
}

// UpdateCommentRequest is the JSON body for editing a comment
type UpdateCommentRequest struct {
	Content string `json:"content" validate:"required"`
}
