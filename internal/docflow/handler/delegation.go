package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/docflow/docflow-backend/internal/docflow/domain"
	"github.com/docflow/docflow-backend/internal/docflow/service"
	"github.com/docflow/docflow-backend/pkg/actor"
	"github.com/docflow/docflow-backend/pkg/errors"
	"github.com/docflow/docflow-backend/pkg/httputil"
	"github.com/docflow/docflow-backend/pkg/logger"
)

// DelegationHandler handles standing delegation endpoints
type DelegationHandler struct {
	service *service.DelegationService
	logger  *logger.Logger
}

// NewDelegationHandler creates a new delegation handler
func NewDelegationHandler(svc *service.DelegationService, log *logger.Logger) *DelegationHandler {
	return &DelegationHandler{
		service: svc,
		logger:  log,
	}
}

// Create creates a delegation from the caller to another user
func (h *DelegationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateDelegationRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	startDate, err := time.Parse(time.RFC3339, req.StartDate)
	if err != nil {
		httputil.Error(w, errors.BadRequest("invalid start_date format, expected RFC 3339"))
		return
	}
	endDate, err := time.Parse(time.RFC3339, req.EndDate)
	if err != nil {
		httputil.Error(w, errors.BadRequest("invalid end_date format, expected RFC 3339"))
		return
	}

	delegation := &domain.UserDelegation{
		ToUserID:       req.ToUserID,
		DelegationType: domain.DelegationType(req.DelegationType),
		StartDate:      startDate,
		EndDate:        endDate,
		Reason:         req.Reason,
	}
	if err := h.service.Create(r.Context(), delegation); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, delegation)
}

// List lists the caller's delegations, as delegator or delegate
func (h *DelegationHandler) List(w http.ResponseWriter, r *http.Request) {
	act := actor.FromContext(r.Context())
	if act == nil {
		httputil.Error(w, errors.Unauthorized("authentication required"))
		return
	}

	delegations, err := h.service.ListForUser(r.Context(), act.ID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, delegations)
}

// Get gets a delegation by ID
func (h *DelegationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	delegation, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, delegation)
}

// Revoke revokes a delegation
func (h *DelegationHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.Revoke(r.Context(), id); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}

// ============================================================================
// REQUEST TYPES
// ============================================================================

// CreateDelegationRequest is the JSON body for delegation creation
type CreateDelegationRequest struct {
	ToUserID       string  `json:"to_user_id" validate:"required,uuid"`
	DelegationType string  `json:"delegation_type" validate:"required,oneof=full approval_only view_only department_specific"`
	StartDate      string  `json:"start_date" validate:"required"`
	EndDate        string  `json:"end_date" validate:"required"`
	Reason         *string `json:"reason,omitempty"`
}
