package domain

import (
	"time"
)

// DocumentStatus represents the lifecycle state of a document
type DocumentStatus string

const (
	DocumentStatusDraft       DocumentStatus = "draft"
	DocumentStatusPending     DocumentStatus = "pending_approval"
	DocumentStatusApproved    DocumentStatus = "approved"
	DocumentStatusRejected    DocumentStatus = "rejected"
	DocumentStatusRevision    DocumentStatus = "revision"
	DocumentStatusLegalReview DocumentStatus = "legal_review"
	DocumentStatusArchived    DocumentStatus = "archived"
)

// ConfidentialityLevel classifies who may see a document
type ConfidentialityLevel string

const (
	ConfidentialityPublic       ConfidentialityLevel = "public"
	ConfidentialityInternal     ConfidentialityLevel = "internal"
	ConfidentialityConfidential ConfidentialityLevel = "confidential"
	ConfidentialitySecret       ConfidentialityLevel = "secret"
)

// Document is the aggregate root the approval workflow operates on
type Document struct {
	ID                  string               `json:"id" db:"id"`
	RegistrationNumber  string               `json:"registration_number" db:"registration_number"`
	Title               string               `json:"title" db:"title"`
	Description         *string              `json:"description,omitempty" db:"description"`
	DocumentType        string               `json:"document_type" db:"document_type"`
	Status              DocumentStatus       `json:"status" db:"status"`
	Confidentiality     ConfidentialityLevel `json:"confidentiality" db:"confidentiality"`
	RequiresLegalReview bool                 `json:"requires_legal_review" db:"requires_legal_review"`
	CurrentVersion      int                  `json:"current_version" db:"current_version"`
	AuthorID            string               `json:"author_id" db:"author_id"`
	OwnerID             *string              `json:"owner_id,omitempty" db:"owner_id"`
	CreatedAt           time.Time            `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time            `json:"updated_at" db:"updated_at"`
}

// CanBeSubmitted reports whether the document may start an approval round
func (d *Document) CanBeSubmitted() bool {
	switch d.Status {
	case DocumentStatusDraft, DocumentStatusRejected, DocumentStatusRevision:
		return true
	}
	return false
}

// IsEditable reports whether the document content may still change
func (d *Document) IsEditable() bool {
	return d.Status == DocumentStatusDraft
}

// DocumentVersion is an immutable content snapshot of a document
type DocumentVersion struct {
	ID                string    `json:"id" db:"id"`
	DocumentID        string    `json:"document_id" db:"document_id"`
	VersionNumber     int       `json:"version_number" db:"version_number"`
	Content           *string   `json:"content,omitempty" db:"content"`
	FileDigest        *string   `json:"file_digest,omitempty" db:"file_digest"`
	FileName          *string   `json:"file_name,omitempty" db:"file_name"`
	FileSize          *int64    `json:"file_size,omitempty" db:"file_size"`
	ChangeDescription *string   `json:"change_description,omitempty" db:"change_description"`
	IsCurrent         bool      `json:"is_current" db:"is_current"`
	CreatedBy         string    `json:"created_by" db:"created_by"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
}

// DocumentFilter holds the optional filters for document listing
type DocumentFilter struct {
	Search       string
	DocumentType string
	Status       DocumentStatus
	AuthorID     string
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	Page         int
	PerPage      int
}

// DocumentStatistics summarizes document counts by state
type DocumentStatistics struct {
	Total        int64 `json:"total" db:"total"`
	Draft        int64 `json:"draft" db:"draft"`
	Pending      int64 `json:"pending" db:"pending"`
	Approved     int64 `json:"approved" db:"approved"`
	Rejected     int64 `json:"rejected" db:"rejected"`
	CreatedToday int64 `json:"created_today" db:"created_today"`
}
