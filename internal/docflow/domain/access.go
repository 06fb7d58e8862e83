package domain

import (
	"time"
)

// AccessLevel scopes what a grantee may do with a document
type AccessLevel string

const (
	AccessLevelView           AccessLevel = "view"
	AccessLevelViewAndComment AccessLevel = "view_and_comment"
	AccessLevelEdit           AccessLevel = "edit"
	AccessLevelFull           AccessLevel = "full"
)

// PermitsComments reports whether the level allows commenting
func (l AccessLevel) PermitsComments() bool {
	switch l {
	case AccessLevelViewAndComment, AccessLevelEdit, AccessLevelFull:
		return true
	}
	return false
}

// DocumentAccess is a per-(document, user) grant with optional expiry
type DocumentAccess struct {
	ID          string      `json:"id" db:"id"`
	DocumentID  string      `json:"document_id" db:"document_id"`
	UserID      string      `json:"user_id" db:"user_id"`
	AccessLevel AccessLevel `json:"access_level" db:"access_level"`
	CanDownload bool        `json:"can_download" db:"can_download"`
	CanPrint    bool        `json:"can_print" db:"can_print"`
	CanExport   bool        `json:"can_export" db:"can_export"`
	ExpiresAt   *time.Time  `json:"expires_at,omitempty" db:"expires_at"`
	GrantedBy   string      `json:"granted_by" db:"granted_by"`
	Comment     *string     `json:"comment,omitempty" db:"comment"`
	IsActive    bool        `json:"is_active" db:"is_active"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
}

// IsCurrentlyActive reports whether the grant is usable at the given time
func (a *DocumentAccess) IsCurrentlyActive(now time.Time) bool {
	if !a.IsActive {
		return false
	}
	return a.ExpiresAt == nil || a.ExpiresAt.After(now)
}

// BlockType classifies an active hold on a document
type BlockType string

const (
	BlockTypeApproval         BlockType = "approval_block"
	BlockTypeEdit             BlockType = "edit_block"
	BlockTypeFull             BlockType = "full_block"
	BlockTypeLegalReview      BlockType = "legal_review"
	BlockTypeComplianceReview BlockType = "compliance_review"
)

// GatesApproval reports whether the block type prevents approval decisions
func (t BlockType) GatesApproval() bool {
	switch t {
	case BlockTypeApproval, BlockTypeFull, BlockTypeLegalReview, BlockTypeComplianceReview:
		return true
	}
	return false
}

// GatesEditing reports whether the block type prevents content changes
func (t BlockType) GatesEditing() bool {
	return t == BlockTypeEdit || t == BlockTypeFull
}

// DocumentBlock is a hold preventing certain transitions until explicitly lifted
type DocumentBlock struct {
	ID             string     `json:"id" db:"id"`
	DocumentID     string     `json:"document_id" db:"document_id"`
	BlockType      BlockType  `json:"block_type" db:"block_type"`
	Reason         string     `json:"reason" db:"reason"`
	BlockedBy      string     `json:"blocked_by" db:"blocked_by"`
	IsActive       bool       `json:"is_active" db:"is_active"`
	UnblockedAt    *time.Time `json:"unblocked_at,omitempty" db:"unblocked_at"`
	UnblockedBy    *string    `json:"unblocked_by,omitempty" db:"unblocked_by"`
	UnblockComment *string    `json:"unblock_comment,omitempty" db:"unblock_comment"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
}
