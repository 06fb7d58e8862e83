package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/docflow/docflow-backend/internal/docflow/domain"
	"github.com/docflow/docflow-backend/pkg/database"
	"github.com/docflow/docflow-backend/pkg/errors"
)

// AccessRepository handles document access grants and blocks
type AccessRepository struct {
	q database.Queryer
}

// NewAccessRepository creates a new access repository
func NewAccessRepository(db *database.DB) *AccessRepository {
	return &AccessRepository{q: db}
}

// WithTx returns a copy of the repository bound to the given transaction
func (r *AccessRepository) WithTx(tx *sqlx.Tx) *AccessRepository {
	return &AccessRepository{q: tx}
}

const accessColumns = `
	id, document_id, user_id, access_level, can_download, can_print, can_export,
	expires_at, granted_by, comment, is_active, created_at, updated_at
`

// Grant upserts an access grant. The unique index on (document_id, user_id)
// keeps one row per pair; re-granting refreshes the existing row.
func (r *AccessRepository) Grant(ctx context.Context, a *domain.DocumentAccess) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	a.IsActive = true

	query := `
		INSERT INTO document_access (
			id, document_id, user_id, access_level, can_download, can_print,
			can_export, expires_at, granted_by, comment, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (document_id, user_id)
		DO UPDATE SET
			access_level = $4, can_download = $5, can_print = $6, can_export = $7,
			expires_at = $8, granted_by = $9, comment = $10, is_active = $11,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`
	return r.q.QueryRowxContext(ctx, query,
		a.ID, a.DocumentID, a.UserID, a.AccessLevel, a.CanDownload, a.CanPrint,
		a.CanExport, a.ExpiresAt, a.GrantedBy, a.Comment, a.IsActive,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
}

// Revoke deactivates an access grant
func (r *AccessRepository) Revoke(ctx context.Context, id string) error {
	query := `UPDATE document_access SET is_active = false, updated_at = NOW() WHERE id = $1 AND is_active = true`
	result, err := r.q.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("access grant")
	}
	return nil
}

// GetActiveGrant returns the usable grant for a (document, user) pair, or nil
func (r *AccessRepository) GetActiveGrant(ctx context.Context, documentID, userID string) (*domain.DocumentAccess, error) {
	var a domain.DocumentAccess
	query := `
		SELECT ` + accessColumns + `
		FROM document_access
		WHERE document_id = $1 AND user_id = $2 AND is_active = true
		      AND (expires_at IS NULL OR expires_at > NOW())
	`
	err := r.q.GetContext(ctx, &a, query, documentID, userID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListForDocument lists all grants on a document
func (r *AccessRepository) ListForDocument(ctx context.Context, documentID string) ([]*domain.DocumentAccess, error) {
	var grants []*domain.DocumentAccess
	query := `
		SELECT ` + accessColumns + `
		FROM document_access
		WHERE document_id = $1
		ORDER BY created_at DESC
	`
	if err := r.q.SelectContext(ctx, &grants, query, documentID); err != nil {
		return nil, err
	}
	return grants, nil
}

// ListForUser lists all grants held by a user
func (r *AccessRepository) ListForUser(ctx context.Context, userID string) ([]*domain.DocumentAccess, error) {
	var grants []*domain.DocumentAccess
	query := `
		SELECT ` + accessColumns + `
		FROM document_access
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	if err := r.q.SelectContext(ctx, &grants, query, userID); err != nil {
		return nil, err
	}
	return grants, nil
}

// ============================================================================
// BLOCKS
// ============================================================================

const blockColumns = `
	id, document_id, block_type, reason, blocked_by, is_active,
	unblocked_at, unblocked_by, unblock_comment, created_at
`

// CreateBlock places a hold on a document
func (r *AccessRepository) CreateBlock(ctx context.Context, b *domain.DocumentBlock) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	b.IsActive = true

	query := `
		INSERT INTO document_blocks (
			id, document_id, block_type, reason, blocked_by, is_active
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`
	return r.q.QueryRowxContext(ctx, query,
		b.ID, b.DocumentID, b.BlockType, b.Reason, b.BlockedBy, b.IsActive,
	).Scan(&b.CreatedAt)
}

// GetBlockByID gets a block by ID
func (r *AccessRepository) GetBlockByID(ctx context.Context, id string) (*domain.DocumentBlock, error) {
	var b domain.DocumentBlock
	query := `SELECT ` + blockColumns + ` FROM document_blocks WHERE id = $1`

	err := r.q.GetContext(ctx, &b, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("document block")
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Unblock lifts a hold. Blocks never self-expire; this is the only way to
// clear one.
func (r *AccessRepository) Unblock(ctx context.Context, id, unblockedBy string, comment *string) error {
	query := `
		UPDATE document_blocks SET
			is_active = false, unblocked_at = NOW(), unblocked_by = $2, unblock_comment = $3
		WHERE id = $1 AND is_active = true
	`
	result, err := r.q.ExecContext(ctx, query, id, unblockedBy, comment)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("document block")
	}
	return nil
}

// ActiveBlocks lists the active holds on a document
func (r *AccessRepository) ActiveBlocks(ctx context.Context, documentID string) ([]*domain.DocumentBlock, error) {
	var blocks []*domain.DocumentBlock
	query := `
		SELECT ` + blockColumns + `
		FROM document_blocks
		WHERE document_id = $1 AND is_active = true
		ORDER BY created_at DESC
	`
	if err := r.q.SelectContext(ctx, &blocks, query, documentID); err != nil {
		return nil, err
	}
	return blocks, nil
}

// HasActiveBlock reports whether any active block of the given types exists
func (r *AccessRepository) HasActiveBlock(ctx context.Context, documentID string, types []domain.BlockType) (bool, error) {
	kinds := make([]string, len(types))
	for i, t := range types {
		kinds[i] = string(t)
	}

	var exists bool
	query := `
		SELECT EXISTS (
			SELECT 1 FROM document_blocks
			WHERE document_id = $1 AND is_active = true AND block_type = ANY($2)
		)
	`
	if err := r.q.GetContext(ctx, &exists, query, documentID, pq.Array(kinds)); err != nil {
		return false, err
	}
	return exists, nil
}
