package domain

import (
	"time"
)

// NotificationKind classifies a workflow notification
type NotificationKind string

const (
	NotificationApprovalRequest   NotificationKind = "approval_request"
	NotificationDocumentApproved  NotificationKind = "document_approved"
	NotificationDocumentRejected  NotificationKind = "document_rejected"
	NotificationRevisionRequested NotificationKind = "revision_requested"
	NotificationDelegation        NotificationKind = "delegation"
	NotificationDocumentBlocked   NotificationKind = "document_blocked"
	NotificationComment           NotificationKind = "comment"
	NotificationReminder          NotificationKind = "reminder"
	NotificationSystem            NotificationKind = "system"
)

// Notification is an entry in a user's workflow inbox
type Notification struct {
	ID         string           `json:"id" db:"id"`
	UserID     string           `json:"user_id" db:"user_id"`
	Kind       NotificationKind `json:"kind" db:"kind"`
	Title      string           `json:"title" db:"title"`
	Message    string           `json:"message" db:"message"`
	DocumentID *string          `json:"document_id,omitempty" db:"document_id"`
	IsRead     bool             `json:"is_read" db:"is_read"`
	ReadAt     *time.Time       `json:"read_at,omitempty" db:"read_at"`
	CreatedAt  time.Time        `json:"created_at" db:"created_at"`
}
