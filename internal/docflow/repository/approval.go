package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/docflow/docflow-backend/internal/docflow/domain"
	"github.com/docflow/docflow-backend/pkg/database"
	"github.com/docflow/docflow-backend/pkg/errors"
)

// ApprovalRepository handles approval request persistence
type ApprovalRepository struct {
	q database.Queryer
}

// NewApprovalRepository creates a new approval repository
func NewApprovalRepository(db *database.DB) *ApprovalRepository {
	return &ApprovalRepository{q: db}
}

// WithTx returns a copy of the repository bound to the given transaction
func (r *ApprovalRepository) WithTx(tx *sqlx.Tx) *ApprovalRepository {
	return &ApprovalRepository{q: tx}
}

const approvalColumns = `
	id, document_id, approver_id, requester_id, status, approver_type,
	round, approval_order, is_required, can_block, comment, suggested_changes,
	delegated_to_id, delegated_at, delegation_reason, due_date, processed_at,
	created_at, updated_at
`

// Create creates a new approval request
func (r *ApprovalRepository) Create(ctx context.Context, req *domain.ApprovalRequest) error {
	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	if req.Status == "" {
		req.Status = domain.RequestStatusPending
	}
	if req.Round == 0 {
		req.Round = 1
	}

	query := `
		INSERT INTO approval_requests (
			id, document_id, approver_id, requester_id, status, approver_type,
			round, approval_order, is_required, can_block, due_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`
	return r.q.QueryRowxContext(ctx, query,
		req.ID, req.DocumentID, req.ApproverID, req.RequesterID, req.Status,
		req.ApproverType, req.Round, req.ApprovalOrder, req.IsRequired, req.CanBlock, req.DueDate,
	).Scan(&req.CreatedAt, &req.UpdatedAt)
}

// GetByID gets an approval request by ID
func (r *ApprovalRepository) GetByID(ctx context.Context, id string) (*domain.ApprovalRequest, error) {
	var req domain.ApprovalRequest
	query := `SELECT ` + approvalColumns + ` FROM approval_requests WHERE id = $1`

	err := r.q.GetContext(ctx, &req, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("approval request")
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// ListActiveByDocument lists the non-cancelled requests of the latest
// submission round. Terminal requests from earlier rounds are immutable and
// stay out of the current round's aggregation.
func (r *ApprovalRepository) ListActiveByDocument(ctx context.Context, documentID string) ([]*domain.ApprovalRequest, error) {
	var reqs []*domain.ApprovalRequest
	query := `
		SELECT ` + approvalColumns + `
		FROM approval_requests
		WHERE document_id = $1 AND status != 'cancelled'
		  AND round = (SELECT COALESCE(MAX(round), 0) FROM approval_requests WHERE document_id = $1)
		ORDER BY approval_order
	`
	if err := r.q.SelectContext(ctx, &reqs, query, documentID); err != nil {
		return nil, err
	}
	return reqs, nil
}

// NextRound returns the round number the next submission should use. Callers
// hold the document row lock, which serializes concurrent submissions.
func (r *ApprovalRepository) NextRound(ctx context.Context, documentID string) (int, error) {
	var round int
	query := `SELECT COALESCE(MAX(round), 0) + 1 FROM approval_requests WHERE document_id = $1`
	if err := r.q.GetContext(ctx, &round, query, documentID); err != nil {
		return 0, err
	}
	return round, nil
}

// CancelActive cancels all still-actionable requests for a document. Returns
// the number of requests cancelled. Called at the start of a new submission
// round and on revision requests.
func (r *ApprovalRepository) CancelActive(ctx context.Context, documentID string) (int64, error) {
	query := `
		UPDATE approval_requests SET status = 'cancelled', updated_at = NOW()
		WHERE document_id = $1 AND status IN ('pending', 'delegated', 'under_review', 'legal_review')
	`
	result, err := r.q.ExecContext(ctx, query, documentID)
	if err != nil {
		return 0, err
	}

	affected, _ := result.RowsAffected()
	return affected, nil
}

// ApplyDecision moves an actionable request into a new status with decision
// metadata. The status guard makes concurrent decisions on the same request
// mutually exclusive: the loser sees zero rows and gets a Conflict.
func (r *ApprovalRepository) ApplyDecision(ctx context.Context, id string, to domain.RequestStatus, comment, suggestedChanges *string) error {
	query := `
		UPDATE approval_requests SET
			status = $2, comment = $3, suggested_changes = $4,
			processed_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status IN ('pending', 'delegated', 'under_review', 'legal_review')
	`
	result, err := r.q.ExecContext(ctx, query, id, to, comment, suggestedChanges)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.Conflict("approval request has already been processed")
	}
	return nil
}

// Delegate marks a request as delegated to another user. The delegate acts on
// this same request later; no child request is spawned.
func (r *ApprovalRepository) Delegate(ctx context.Context, id, delegateID string, reason *string) error {
	query := `
		UPDATE approval_requests SET
			status = 'delegated', delegated_to_id = $2, delegated_at = NOW(),
			delegation_reason = $3, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`
	result, err := r.q.ExecContext(ctx, query, id, delegateID, reason)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.Conflict("approval request has already been processed")
	}
	return nil
}

// MarkUnderReview moves a pending request to under_review when its holder
// places a block on the document.
func (r *ApprovalRepository) MarkUnderReview(ctx context.Context, id string) error {
	query := `
		UPDATE approval_requests SET status = 'under_review', updated_at = NOW()
		WHERE id = $1 AND status IN ('pending', 'delegated')
	`
	result, err := r.q.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.Conflict("approval request has already been processed")
	}
	return nil
}

// ListPendingForApprover lists actionable requests where the user is the
// nominal approver or the recorded delegate.
func (r *ApprovalRepository) ListPendingForApprover(ctx context.Context, userID string) ([]*domain.ApprovalRequest, error) {
	var reqs []*domain.ApprovalRequest
	query := `
		SELECT ` + approvalColumns + `
		FROM approval_requests
		WHERE (approver_id = $1 AND status = 'pending')
		   OR (delegated_to_id = $1 AND status = 'delegated')
		ORDER BY due_date NULLS LAST, created_at
	`
	if err := r.q.SelectContext(ctx, &reqs, query, userID); err != nil {
		return nil, err
	}
	return reqs, nil
}

// CountPendingForApprover counts actionable requests for a user
func (r *ApprovalRepository) CountPendingForApprover(ctx context.Context, userID string) (int64, error) {
	var count int64
	query := `
		SELECT COUNT(*)
		FROM approval_requests
		WHERE (approver_id = $1 AND status = 'pending')
		   OR (delegated_to_id = $1 AND status = 'delegated')
	`
	if err := r.q.GetContext(ctx, &count, query, userID); err != nil {
		return 0, err
	}
	return count, nil
}

// CountOverdueForApprover counts pending requests past their due date
func (r *ApprovalRepository) CountOverdueForApprover(ctx context.Context, userID string, now time.Time) (int64, error) {
	var count int64
	query := `
		SELECT COUNT(*)
		FROM approval_requests
		WHERE approver_id = $1 AND status = 'pending' AND due_date IS NOT NULL AND due_date < $2
	`
	if err := r.q.GetContext(ctx, &count, query, userID, now); err != nil {
		return 0, err
	}
	return count, nil
}
