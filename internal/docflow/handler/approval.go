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

// ApprovalHandler handles approval workflow endpoints
type ApprovalHandler struct {
	service *service.ApprovalService
	logger  *logger.Logger
}

// NewApprovalHandler creates a new approval handler
func NewApprovalHandler(svc *service.ApprovalService, log *logger.Logger) *ApprovalHandler {
	return &ApprovalHandler{
		service: svc,
		logger:  log,
	}
}

// Submit submits a document for approval
func (h *ApprovalHandler) Submit(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "id")

	var req SubmitRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	input := service.SubmitInput{
		DocumentID: documentID,
		Comment:    req.Comment,
	}
	if req.DueDate != nil {
		due, err := time.Parse(time.RFC3339, *req.DueDate)
		if err != nil {
			httputil.Error(w, errors.BadRequest("invalid due_date format, expected RFC 3339"))
			return
		}
		input.DueDate = &due
	}
	for _, a := range req.Approvers {
		input.Approvers = append(input.Approvers, domain.ApproverSpec{
			UserID:       a.UserID,
			ApproverType: domain.ApproverType(a.ApproverType),
			IsRequired:   a.IsRequired,
			CanBlock:     a.CanBlock,
		})
	}

	requests, err := h.service.Submit(r.Context(), input)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, requests)
}

// Decide applies a decision to an approval request
func (h *ApprovalHandler) Decide(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "id")

	var req DecideRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	decided, err := h.service.Decide(r.Context(), requestID, service.DecideInput{
		Decision:         domain.Decision(req.Decision),
		Comment:          req.Comment,
		SuggestedChanges: req.SuggestedChanges,
		DelegateToID:     req.DelegateToID,
		BlockReason:      req.BlockReason,
	})
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, decided)
}

// Get gets an approval request by ID
func (h *ApprovalHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	req, err := h.service.GetRequest(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, req)
}

// ListByDocument lists the current round's requests for a document
func (h *ApprovalHandler) ListByDocument(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "id")

	requests, err := h.service.ListByDocument(r.Context(), documentID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, requests)
}

// Pending lists the caller's actionable approval requests
func (h *ApprovalHandler) Pending(w http.ResponseWriter, r *http.Request) {
	requests, err := h.service.PendingForCaller(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, requests)
}

// Summary returns the caller's pending and overdue counts
func (h *ApprovalHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.SummaryForCaller(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, summary)
}

// ============================================================================
// REQUEST TYPES
// ============================================================================

// ApproverRequest describes one approver in a submission
type ApproverRequest struct {
	UserID       string `json:"user_id" validate:"required,uuid"`
	ApproverType string `json:"approver_type" validate:"required,oneof=manager administrator legal_department deputy"`
	IsRequired   bool   `json:"is_required"`
	CanBlock     bool   `json:"can_block"`
}

// SubmitRequest is the JSON body for submitting a document for approval
type SubmitRequest struct {
	Approvers []ApproverRequest `json:"approvers" validate:"required,min=1,dive"`
	Comment   *string           `json:"comment,omitempty"`
	DueDate   *string           `json:"due_date,omitempty"`
}

// DecideRequest is the JSON body for an approval decision
type DecideRequest struct {
	Decision         string  `json:"decision" validate:"required,oneof=approve reject request_revision delegate send_to_legal_review block"`
	Comment          *string `json:"comment,omitempty"`
	SuggestedChanges *string `json:"suggested_changes,omitempty"`
	DelegateToID     *string `json:"delegate_to_id,omitempty" validate:"omitempty,uuid"`
	BlockReason      *string `json:"block_reason,omitempty"`
}
