package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/docflow/docflow-backend/internal/docflow/domain"
	"github.com/docflow/docflow-backend/internal/docflow/service"
	"github.com/docflow/docflow-backend/pkg/errors"
	"github.com/docflow/docflow-backend/pkg/httputil"
	"github.com/docflow/docflow-backend/pkg/logger"
)

// AccessHandler handles access grant and block endpoints
type AccessHandler struct {
	service *service.AccessService
	logger  *logger.Logger
}

// NewAccessHandler creates a new access handler
func NewAccessHandler(svc *service.AccessService, log *logger.Logger) *AccessHandler {
	return &AccessHandler{
		service: svc,
		logger:  log,
	}
}

// Grant grants a user access to a document
func (h *AccessHandler) Grant(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "id")

	var req GrantAccessRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	grant := &domain.DocumentAccess{
		DocumentID:  documentID,
		UserID:      req.UserID,
		AccessLevel: domain.AccessLevel(req.AccessLevel),
		CanDownload: req.CanDownload,
		CanPrint:    req.CanPrint,
		CanExport:   req.CanExport,
		Comment:     req.Comment,
	}
	if req.ExpiresAt != nil {
		expires, err := time.Parse(time.RFC3339, *req.ExpiresAt)
		if err != nil {
			httputil.Error(w, errors.BadRequest("invalid expires_at format, expected RFC 3339"))
			return
		}
		grant.ExpiresAt = &expires
	}

	if err := h.service.Grant(r.Context(), grant); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, grant)
}

// Revoke revokes a user's access to a document
func (h *AccessHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "id")
	userID := chi.URLParam(r, "userID")

	if err := h.service.Revoke(r.Context(), documentID, userID); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}

// ListForDocument lists the grants on a document
func (h *AccessHandler) ListForDocument(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "id")

	grants, err := h.service.ListForDocument(r.Context(), documentID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, grants)
}

// Block places a hold on a document
func (h *AccessHandler) Block(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "id")

	var req BlockRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	block := &domain.DocumentBlock{
		DocumentID: documentID,
		BlockType:  domain.BlockType(req.BlockType),
		Reason:     req.Reason,
	}
	if err := h.service.Block(r.Context(), block); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, block)
}

// Unblock lifts a hold on a document
func (h *AccessHandler) Unblock(w http.ResponseWriter, r *http.Request) {
	blockID := chi.URLParam(r, "blockID")

	var req UnblockRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := h.service.Unblock(r.Context(), blockID, req.Comment); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]string{"status": "unblocked"})
}

// ListBlocks lists the active holds on a document
func (h *AccessHandler) ListBlocks(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "id")

	blocks, err := h.service.ActiveBlocks(r.Context(), documentID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, blocks)
}

// ============================================================================
// REQUEST TYPES
// ============================================================================

// GrantAccessRequest is the JSON body for granting document access
type GrantAccessRequest struct {
	UserID      string  `json:"user_id" validate:"required,uuid"`
	AccessLevel string  `json:"access_level" validate:"required,oneof=view view_and_comment edit full"`
	CanDownload bool    `json:"can_download"`
	CanPrint    bool    `json:"can_print"`
	CanExport   bool    `json:"can_export"`
	ExpiresAt   *string `json:"expires_at,omitempty"`
	Comment     *string `json:"comment,omitempty"`
}

// BlockRequest is the JSON body for placing a document block
type BlockRequest struct {
	BlockType string `json:"block_type" validate:"required,oneof=approval_block edit_block full_block legal_review compliance_review"`
	Reason    string `json:"reason" validate:"required"`
}

// UnblockRequest is the JSON body for lifting a document block
type UnblockRequest struct {
	Comment *string `json:"comment,omitempty"`
}
