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

// DelegationRepository handles user delegation persistence
type DelegationRepository struct {
	q database.Queryer
}

// NewDelegationRepository creates a new delegation repository
func NewDelegationRepository(db *database.DB) *DelegationRepository {
	return &DelegationRepository{q: db}
}

// WithTx returns a copy of the repository bound to the given transaction
func (r *DelegationRepository) WithTx(tx *sqlx.Tx) *DelegationRepository {
	return &DelegationRepository{q: tx}
}

const delegationColumns = `
	id, from_user_id, to_user_id, delegation_type, start_date, end_date,
	reason, is_active, created_at, revoked_at, revoked_by
`

// Create creates a new delegation
func (r *DelegationRepository) Create(ctx context.Context, d *domain.UserDelegation) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	d.IsActive = true

	query := `
		INSERT INTO user_delegations (
			id, from_user_id, to_user_id, delegation_type, start_date, end_date,
			reason, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`
	return r.q.QueryRowxContext(ctx, query,
		d.ID, d.FromUserID, d.ToUserID, d.DelegationType, d.StartDate, d.EndDate,
		d.Reason, d.IsActive,
	).Scan(&d.CreatedAt)
}

// GetByID gets a delegation by ID
func (r *DelegationRepository) GetByID(ctx context.Context, id string) (*domain.UserDelegation, error) {
	var d domain.UserDelegation
	query := `SELECT ` + delegationColumns + ` FROM user_delegations WHERE id = $1`

	err := r.q.GetContext(ctx, &d, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("delegation")
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Revoke deactivates a delegation
func (r *DelegationRepository) Revoke(ctx context.Context, id, revokedBy string) error {
	query := `
		UPDATE user_delegations SET
			is_active = false, revoked_at = NOW(), revoked_by = $2
		WHERE id = $1 AND is_active = true
	`
	result, err := r.q.ExecContext(ctx, query, id, revokedBy)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("delegation")
	}
	return nil
}

// ListActiveFromUser lists delegations in force at the given time where the
// user is the delegator, most recently created first. The ordering carries
// the attribution tie-break: when several delegations overlap, the newest
// one wins.
func (r *DelegationRepository) ListActiveFromUser(ctx context.Context, fromUserID string, now time.Time) ([]*domain.UserDelegation, error) {
	var delegations []*domain.UserDelegation
	query := `
		SELECT ` + delegationColumns + `
		FROM user_delegations
		WHERE from_user_id = $1 AND is_active = true
		      AND start_date <= $2 AND end_date >= $2
		ORDER BY created_at DESC
	`
	if err := r.q.SelectContext(ctx, &delegations, query, fromUserID, now); err != nil {
		return nil, err
	}
	return delegations, nil
}

// ListForUser lists delegations where the user is delegator or delegate
func (r *DelegationRepository) ListForUser(ctx context.Context, userID string) ([]*domain.UserDelegation, error) {
	var delegations []*domain.UserDelegation
	query := `
		SELECT ` + delegationColumns + `
		FROM user_delegations
		WHERE from_user_id = $1 OR to_user_id = $1
		ORDER BY created_at DESC
	`
	if err := r.q.SelectContext(ctx, &delegations, query, userID); err != nil {
		return nil, err
	}
	return delegations, nil
}
