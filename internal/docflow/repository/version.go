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

// VersionRepository handles document version persistence
type VersionRepository struct {
	q database.Queryer
}

// NewVersionRepository creates a new version repository
func NewVersionRepository(db *database.DB) *VersionRepository {
	return &VersionRepository{q: db}
}

// WithTx returns a copy of the repository bound to the given transaction
func (r *VersionRepository) WithTx(tx *sqlx.Tx) *VersionRepository {
	return &VersionRepository{q: tx}
}

// Create creates a new version. The caller is responsible for flipping the
// previous current version off first (ClearCurrent) so exactly one version
// per document stays current.
func (r *VersionRepository) Create(ctx context.Context, v *domain.DocumentVersion) error {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}

	query := `
		INSERT INTO document_versions (
			id, document_id, version_number, content, file_digest, file_name,
			file_size, change_description, is_current, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`
	return r.q.QueryRowxContext(ctx, query,
		v.ID, v.DocumentID, v.VersionNumber, v.Content, v.FileDigest, v.FileName,
		v.FileSize, v.ChangeDescription, v.IsCurrent, v.CreatedBy,
	).Scan(&v.CreatedAt)
}

// ClearCurrent flips is_current off for all versions of a document
func (r *VersionRepository) ClearCurrent(ctx context.Context, documentID string) error {
	query := `UPDATE document_versions SET is_current = false WHERE document_id = $1 AND is_current = true`
	_, err := r.q.ExecContext(ctx, query, documentID)
	return err
}

// GetByID gets a version by ID
func (r *VersionRepository) GetByID(ctx context.Context, id string) (*domain.DocumentVersion, error) {
	var v domain.DocumentVersion
	query := `
		SELECT id, document_id, version_number, content, file_digest, file_name,
		       file_size, change_description, is_current, created_by, created_at
		FROM document_versions
		WHERE id = $1
	`
	err := r.q.GetContext(ctx, &v, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("document version")
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// GetCurrent gets the current version of a document
func (r *VersionRepository) GetCurrent(ctx context.Context, documentID string) (*domain.DocumentVersion, error) {
	var v domain.DocumentVersion
	query := `
		SELECT id, document_id, version_number, content, file_digest, file_name,
		       file_size, change_description, is_current, created_by, created_at
		FROM document_versions
		WHERE document_id = $1 AND is_current = true
	`
	err := r.q.GetContext(ctx, &v, query, documentID)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("document version")
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// ListByDocument lists all versions of a document, newest first
func (r *VersionRepository) ListByDocument(ctx context.Context, documentID string) ([]*domain.DocumentVersion, error) {
	var versions []*domain.DocumentVersion
	query := `
		SELECT id, document_id, version_number, content, file_digest, file_name,
		       file_size, change_description, is_current, created_by, created_at
		FROM document_versions
		WHERE document_id = $1
		ORDER BY version_number DESC
	`
	if err := r.q.SelectContext(ctx, &versions, query, documentID); err != nil {
		return nil, err
	}
	return versions, nil
}
