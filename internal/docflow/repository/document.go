package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/docflow/docflow-backend/internal/docflow/domain"
	"github.com/docflow/docflow-backend/pkg/database"
	"github.com/docflow/docflow-backend/pkg/errors"
)

// DocumentRepository handles document persistence
type DocumentRepository struct {
	q database.Queryer
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *database.DB) *DocumentRepository {
	return &DocumentRepository{q: db}
}

// WithTx returns a copy of the repository bound to the given transaction
func (r *DocumentRepository) WithTx(tx *sqlx.Tx) *DocumentRepository {
	return &DocumentRepository{q: tx}
}

// Create creates a new document
func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	if doc.Status == "" {
		doc.Status = domain.DocumentStatusDraft
	}

	query := `
		INSERT INTO documents (
			id, registration_number, title, description, document_type, status,
			confidentiality, requires_legal_review, current_version, author_id, owner_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`
	return r.q.QueryRowxContext(ctx, query,
		doc.ID, doc.RegistrationNumber, doc.Title, doc.Description, doc.DocumentType,
		doc.Status, doc.Confidentiality, doc.RequiresLegalReview, doc.CurrentVersion,
		doc.AuthorID, doc.OwnerID,
	).Scan(&doc.CreatedAt, &doc.UpdatedAt)
}

// GetByID gets a document by ID
func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	var doc domain.Document
	query := `
		SELECT id, registration_number, title, description, document_type, status,
		       confidentiality, requires_legal_review, current_version, author_id, owner_id,
		       created_at, updated_at
		FROM documents
		WHERE id = $1
	`
	err := r.q.GetContext(ctx, &doc, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("document")
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// GetByIDForUpdate gets a document by ID and locks the row for the duration
// of the surrounding transaction. Submit/Decide use this as the per-document
// serialization point.
func (r *DocumentRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Document, error) {
	var doc domain.Document
	query := `
		SELECT id, registration_number, title, description, document_type, status,
		       confidentiality, requires_legal_review, current_version, author_id, owner_id,
		       created_at, updated_at
		FROM documents
		WHERE id = $1
		FOR UPDATE
	`
	err := r.q.GetContext(ctx, &doc, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("document")
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// List lists documents with filters. When visibleToUserID is non-empty the
// result is restricted to documents the user authored, approves, or holds an
// active access grant for.
func (r *DocumentRepository) List(ctx context.Context, filter domain.DocumentFilter, visibleToUserID string) ([]*domain.Document, int64, error) {
	whereClause := "WHERE 1=1"
	args := []interface{}{}
	argNum := 1

	addArg := func(clause string, value interface{}) {
		whereClause += fmt.Sprintf(" AND %s $%d", clause, argNum)
		args = append(args, value)
		argNum++
	}

	if filter.Search != "" {
		whereClause += fmt.Sprintf(
			" AND (d.title ILIKE $%d OR d.registration_number ILIKE $%d OR d.description ILIKE $%d)",
			argNum, argNum, argNum)
		args = append(args, "%"+filter.Search+"%")
		argNum++
	}
	if filter.DocumentType != "" {
		addArg("d.document_type =", filter.DocumentType)
	}
	if filter.Status != "" {
		addArg("d.status =", filter.Status)
	}
	if filter.AuthorID != "" {
		addArg("d.author_id =", filter.AuthorID)
	}
	if filter.CreatedFrom != nil {
		addArg("d.created_at >=", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		addArg("d.created_at <=", *filter.CreatedTo)
	}
	if visibleToUserID != "" {
		whereClause += fmt.Sprintf(`
			AND (d.author_id = $%d
			     OR EXISTS (SELECT 1 FROM approval_requests ar
			                WHERE ar.document_id = d.id AND ar.approver_id = $%d)
			     OR EXISTS (SELECT 1 FROM document_access da
			                WHERE da.document_id = d.id AND da.user_id = $%d
			                      AND da.is_active = true
			                      AND (da.expires_at IS NULL OR da.expires_at > NOW())))`,
			argNum, argNum, argNum)
		args = append(args, visibleToUserID)
		argNum++
	}

	var total int64
	countQuery := "SELECT COUNT(*) FROM documents d " + whereClause
	if err := r.q.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, err
	}

	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * perPage

	query := `
		SELECT d.id, d.registration_number, d.title, d.description, d.document_type, d.status,
		       d.confidentiality, d.requires_legal_review, d.current_version, d.author_id,
		       d.owner_id, d.created_at, d.updated_at
		FROM documents d
	` + whereClause + fmt.Sprintf(`
		ORDER BY d.created_at DESC
		LIMIT $%d OFFSET $%d`, argNum, argNum+1)

	args = append(args, perPage, offset)

	var docs []*domain.Document
	if err := r.q.SelectContext(ctx, &docs, query, args...); err != nil {
		return nil, 0, err
	}

	return docs, total, nil
}

// UpdateMeta updates the mutable metadata of a document
func (r *DocumentRepository) UpdateMeta(ctx context.Context, doc *domain.Document) error {
	query := `
		UPDATE documents SET
			title = $2, description = $3, document_type = $4, confidentiality = $5,
			requires_legal_review = $6, owner_id = $7, updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.q.ExecContext(ctx, query,
		doc.ID, doc.Title, doc.Description, doc.DocumentType, doc.Confidentiality,
		doc.RequiresLegalReview, doc.OwnerID,
	)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("document")
	}
	return nil
}

// UpdateStatus transitions a document between statuses. The update is guarded
// by the expected current status so racing transitions fail instead of
// silently overwriting each other.
func (r *DocumentRepository) UpdateStatus(ctx context.Context, id string, from []domain.DocumentStatus, to domain.DocumentStatus) error {
	query := `
		UPDATE documents SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = ANY($3)
	`
	statuses := make([]string, len(from))
	for i, s := range from {
		statuses[i] = string(s)
	}

	result, err := r.q.ExecContext(ctx, query, id, to, pq.Array(statuses))
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.Conflict("document is not in a status that allows this transition")
	}
	return nil
}

// IncrementVersion bumps the document's version counter and returns the new value
func (r *DocumentRepository) IncrementVersion(ctx context.Context, id string) (int, error) {
	var version int
	query := `
		UPDATE documents SET current_version = current_version + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING current_version
	`
	err := r.q.QueryRowxContext(ctx, query, id).Scan(&version)
	if err == sql.ErrNoRows {
		return 0, errors.NotFound("document")
	}
	if err != nil {
		return 0, err
	}
	return version, nil
}

// Delete hard-deletes a draft document. Versions cascade; audit entries keep
// a nulled document reference.
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM documents WHERE id = $1 AND status = 'draft'`
	result, err := r.q.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.Conflict("only draft documents can be deleted")
	}
	return nil
}

// advisory lock namespace for registration number sequencing
const registrationLockBase int64 = 7201946000

// CountCreatedInYear counts documents created in the given year, used for
// registration number generation. Takes a per-year advisory lock so two
// concurrent creates cannot compute the same sequence number; callers must
// run inside a transaction.
func (r *DocumentRepository) CountCreatedInYear(ctx context.Context, year int) (int64, error) {
	if _, err := r.q.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, registrationLockBase+int64(year)); err != nil {
		return 0, err
	}

	var count int64
	query := `
		SELECT COUNT(*) FROM documents
		WHERE created_at >= $1 AND created_at < $2
	`
	start := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)

	if err := r.q.GetContext(ctx, &count, query, start, end); err != nil {
		return 0, err
	}
	return count, nil
}

// Statistics returns document counts by state, optionally scoped to an author
func (r *DocumentRepository) Statistics(ctx context.Context, authorID string) (*domain.DocumentStatistics, error) {
	var stats domain.DocumentStatistics
	query := `
		SELECT COUNT(*) AS total,
		       COUNT(*) FILTER (WHERE status = 'draft') AS draft,
		       COUNT(*) FILTER (WHERE status = 'pending_approval') AS pending,
		       COUNT(*) FILTER (WHERE status = 'approved') AS approved,
		       COUNT(*) FILTER (WHERE status = 'rejected') AS rejected,
		       COUNT(*) FILTER (WHERE created_at >= CURRENT_DATE) AS created_today
		FROM documents
	`
	args := []interface{}{}
	if authorID != "" {
		query += " WHERE author_id = $1"
		args = append(args, authorID)
	}

	if err := r.q.GetContext(ctx, &stats, query, args...); err != nil {
		return nil, err
	}
	return &stats, nil
}
