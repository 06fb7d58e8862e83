package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/docflow/docflow-backend/internal/docflow/domain"
	"github.com/docflow/docflow-backend/pkg/database"
)

// AuditRepository handles the append-only audit log
type AuditRepository struct {
	q database.Queryer
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *database.DB) *AuditRepository {
	return &AuditRepository{q: db}
}

// WithTx returns a copy of the repository bound to the given transaction
func (r *AuditRepository) WithTx(tx *sqlx.Tx) *AuditRepository {
	return &AuditRepository{q: tx}
}

// Create appends an audit entry. Entries are written inside the same
// transaction as the mutation they record; there is no update or delete.
func (r *AuditRepository) Create(ctx context.Context, entry *domain.AuditLog) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}

	query := `
		INSERT INTO audit_logs (
			id, user_id, user_name, action, description, document_id,
			entity_name, entity_id, old_values, new_values, ip_address, user_agent
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at
	`
	return r.q.QueryRowxContext(ctx, query,
		entry.ID, entry.UserID, entry.UserName, entry.Action, entry.Description,
		entry.DocumentID, entry.EntityName, entry.EntityID, entry.OldValues,
		entry.NewValues, entry.IPAddress, entry.UserAgent,
	).Scan(&entry.CreatedAt)
}

// List lists audit entries with filters, newest first
func (r *AuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, int64, error) {
	whereClause := "WHERE 1=1"
	args := []interface{}{}
	argNum := 1

	addArg := func(clause string, value interface{}) {
		whereClause += fmt.Sprintf(" AND %s $%d", clause, argNum)
		args = append(args, value)
		argNum++
	}

	if filter.UserID != "" {
		addArg("user_id =", filter.UserID)
	}
	if filter.Action != "" {
		addArg("action =", filter.Action)
	}
	if filter.DocumentID != "" {
		addArg("document_id =", filter.DocumentID)
	}
	if filter.CreatedFrom != nil {
		addArg("created_at >=", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		addArg("created_at <=", *filter.CreatedTo)
	}

	var total int64
	countQuery := "SELECT COUNT(*) FROM audit_logs " + whereClause
	if err := r.q.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, err
	}

	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = 50
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * perPage

	query := `
		SELECT id, user_id, user_name, action, description, document_id,
		       entity_name, entity_id, old_values, new_values, ip_address,
		       user_agent, created_at
		FROM audit_logs
	` + whereClause + fmt.Sprintf(`
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, argNum, argNum+1)

	args = append(args, perPage, offset)

	var entries []*domain.AuditLog
	if err := r.q.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

// CountForDocument counts audit entries referencing a document
func (r *AuditRepository) CountForDocument(ctx context.Context, documentID string) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM audit_logs WHERE document_id = $1`

	if err := r.q.GetContext(ctx, &count, query, documentID); err != nil {
		return 0, err
	}
	return count, nil
}
