package domain

import (
	"time"
)

// Audit actions
const (
	AuditDocumentCreate  = "document.create"
	AuditDocumentEdit    = "document.edit"
	AuditDocumentDelete  = "document.delete"
	AuditDocumentArchive = "document.archive"
	AuditVersionRestore  = "version.restore"
	AuditVersionDownload = "version.download"
	AuditSubmit          = "approval.submit"
	AuditApprove         = "approval.approve"
	AuditReject          = "approval.reject"
	AuditRevision        = "approval.request_revision"
	AuditDelegate        = "approval.delegate"
	AuditLegalReview     = "approval.send_to_legal_review"
	AuditBlock           = "document.block"
	AuditUnblock         = "document.unblock"
	AuditAccessGrant     = "access.grant"
	AuditAccessRevoke    = "access.revoke"
	AuditDelegationAdd   = "delegation.create"
	AuditDelegationEnd   = "delegation.revoke"
	AuditCommentAdd      = "comment.create"
	AuditCommentEdit     = "comment.edit"
	AuditCommentDelete   = "comment.delete"
)

// AuditLog is an append-only record of a state-changing action.
// Entries are never updated or deleted; document deletion nulls the reference.
type AuditLog struct {
	ID          string    `json:"id" db:"id"`
	UserID      *string   `json:"user_id" db:"user_id"`
	UserName    string    `json:"user_name" db:"user_name"`
	Action      string    `json:"action" db:"action"`
	Description string    `json:"description" db:"description"`
	DocumentID  *string   `json:"document_id,omitempty" db:"document_id"`
	EntityName  *string   `json:"entity_name,omitempty" db:"entity_name"`
	EntityID    *string   `json:"entity_id,omitempty" db:"entity_id"`
	OldValues   *string   `json:"old_values,omitempty" db:"old_values"`
	NewValues   *string   `json:"new_values,omitempty" db:"new_values"`
	IPAddress   *string   `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent   *string   `json:"user_agent,omitempty" db:"user_agent"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// AuditFilter holds the optional filters for audit log listing
type AuditFilter struct {
	UserID      string
	Action      string
	DocumentID  string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Page        int
	PerPage     int
}
