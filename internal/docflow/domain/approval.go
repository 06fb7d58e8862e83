package domain

import (
	"time"
)

// RequestStatus represents the state of one approver's request
type RequestStatus string

const (
	RequestStatusPending     RequestStatus = "pending"
	RequestStatusApproved    RequestStatus = "approved"
	RequestStatusRejected    RequestStatus = "rejected"
	RequestStatusCancelled   RequestStatus = "cancelled"
	RequestStatusRevision    RequestStatus = "revision"
	RequestStatusLegalReview RequestStatus = "legal_review"
	RequestStatusUnderReview RequestStatus = "under_review"
	RequestStatusDelegated   RequestStatus = "delegated"
)

// IsTerminal reports whether the request can no longer change
func (s RequestStatus) IsTerminal() bool {
	switch s {
	case RequestStatusApproved, RequestStatusRejected, RequestStatusCancelled:
		return true
	}
	return false
}

// Decision is the action an approver takes on a request
type Decision string

const (
	DecisionApprove           Decision = "approve"
	DecisionReject            Decision = "reject"
	DecisionRequestRevision   Decision = "request_revision"
	DecisionDelegate          Decision = "delegate"
	DecisionSendToLegalReview Decision = "send_to_legal_review"
	DecisionBlock             Decision = "block"
)

// ApproverType classifies the role an approver acts in
type ApproverType string

const (
	ApproverTypeManager         ApproverType = "manager"
	ApproverTypeAdministrator   ApproverType = "administrator"
	ApproverTypeLegalDepartment ApproverType = "legal_department"
	ApproverTypeDeputy          ApproverType = "deputy"
)

// ApprovalRequest represents one approver's decision slot in a submission round
type ApprovalRequest struct {
	ID               string        `json:"id" db:"id"`
	DocumentID       string        `json:"document_id" db:"document_id"`
	ApproverID       string        `json:"approver_id" db:"approver_id"`
	RequesterID      string        `json:"requester_id" db:"requester_id"`
	Status           RequestStatus `json:"status" db:"status"`
	ApproverType     ApproverType  `json:"approver_type" db:"approver_type"`
	Round            int           `json:"round" db:"round"`
	ApprovalOrder    int           `json:"approval_order" db:"approval_order"`
	IsRequired       bool          `json:"is_required" db:"is_required"`
	CanBlock         bool          `json:"can_block" db:"can_block"`
	Comment          *string       `json:"comment,omitempty" db:"comment"`
	SuggestedChanges *string       `json:"suggested_changes,omitempty" db:"suggested_changes"`
	DelegatedToID    *string       `json:"delegated_to_id,omitempty" db:"delegated_to_id"`
	DelegatedAt      *time.Time    `json:"delegated_at,omitempty" db:"delegated_at"`
	DelegationReason *string       `json:"delegation_reason,omitempty" db:"delegation_reason"`
	DueDate          *time.Time    `json:"due_date,omitempty" db:"due_date"`
	ProcessedAt      *time.Time    `json:"processed_at,omitempty" db:"processed_at"`
	CreatedAt        time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at" db:"updated_at"`
}

// IsOverdue reports whether the request is pending past its due date
func (r *ApprovalRequest) IsOverdue(now time.Time) bool {
	return r.DueDate != nil && r.Status == RequestStatusPending && r.DueDate.Before(now)
}

// IsActionable reports whether a decision can still be applied to the request.
// Requests parked in under_review or legal_review become decidable again once
// the matching block is lifted.
func (r *ApprovalRequest) IsActionable() bool {
	switch r.Status {
	case RequestStatusPending, RequestStatusDelegated, RequestStatusUnderReview, RequestStatusLegalReview:
		return true
	}
	return false
}

// ApproverSpec describes one approver in a SubmitForApproval call
type ApproverSpec struct {
	UserID       string       `json:"user_id"`
	ApproverType ApproverType `json:"approver_type"`
	IsRequired   bool         `json:"is_required"`
	CanBlock     bool         `json:"can_block"`
}
