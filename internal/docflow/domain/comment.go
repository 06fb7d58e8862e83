package domain

import (
	"time"
)

// Comment is a threaded remark on a document
type Comment struct {
	ID         string     `json:"id" db:"id"`
	DocumentID string     `json:"document_id" db:"document_id"`
	AuthorID   string     `json:"author_id" db:"author_id"`
	ParentID   *string    `json:"parent_id,omitempty" db:"parent_id"`
	Content    string     `json:"content" db:"content"`
	IsDeleted  bool       `json:"is_deleted" db:"is_deleted"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
	EditedAt   *time.Time `json:"edited_at,omitempty" db:"edited_at"`
}
