package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/docflow/docflow-backend/internal/docflow/domain"
	"github.com/docflow/docflow-backend/pkg/database"
	"github.com/docflow/docflow-backend/pkg/errors"
)

// CommentRepository handles document comment persistence
type CommentRepository struct {
	q database.Queryer
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *database.DB) *CommentRepository {
	return &CommentRepository{q: db}
}

// WithTx returns a copy of the repository bound to the given transaction
func (r *CommentRepository) WithTx(tx *sqlx.Tx) *CommentRepository {
	return &CommentRepository{q: tx}
}

// Create creates a comment
func (r *CommentRepository) Create(ctx context.Context, c *domain.Comment) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}

	query := `
		INSERT INTO document_comments (id, document_id, author_id, parent_id, content)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`
	return r.q.QueryRowxContext(ctx, query,
		c.ID, c.DocumentID, c.AuthorID, c.ParentID, c.Content,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
}

// GetByID gets a comment by ID
func (r *CommentRepository) GetByID(ctx context.Context, id string) (*domain.Comment, error) {
	var c domain.Comment
	query := `
		SELECT id, document_id, author_id, parent_id, content, is_deleted,
		       created_at, updated_at, edited_at
		FROM document_comments
		WHERE id = $1
	`
	err := r.q.GetContext(ctx, &c, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("comment")
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListByDocument lists the non-deleted comments on a document, oldest first
// so threads read top-down.
func (r *CommentRepository) ListByDocument(ctx context.Context, documentID string) ([]*domain.Comment, error) {
	var comments []*domain.Comment
	query := `
		SELECT id, document_id, author_id, parent_id, content, is_deleted,
		       created_at, updated_at, edited_at
		FROM document_comments
		WHERE document_id = $1 AND is_deleted = false
		ORDER BY created_at
	`
	if err := r.q.SelectContext(ctx, &comments, query, documentID); err != nil {
		return nil, err
	}
	return comments, nil
}

// Update edits a comment's content. Scoped to the author.
func (r *CommentRepository) Update(ctx context.Context, id, authorID, content string) error {
	query := `
		UPDATE document_comments SET
			content = $3, edited_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND author_id = $2 AND is_deleted = false
	`
	result, err := r.q.ExecContext(ctx, query, id, authorID, content)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("comment")
	}
	return nil
}

// SoftDelete hides a comment. Scoped to the author.
func (r *CommentRepository) SoftDelete(ctx context.Context, id, authorID string) error {
	query := `
		UPDATE document_comments SET is_deleted = true, updated_at = NOW()
		WHERE id = $1 AND author_id = $2 AND is_deleted = false
	`
	result, err := r.q.ExecContext(ctx, query, id, authorID)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("comment")
	}
	return nil
}
