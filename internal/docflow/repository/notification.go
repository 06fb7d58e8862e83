package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/docflow/docflow-backend/internal/docflow/domain"
	"github.com/docflow/docflow-backend/pkg/database"
	"github.com/docflow/docflow-backend/pkg/errors"
)

// NotificationRepository handles notification persistence
type NotificationRepository struct {
	q database.Queryer
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *database.DB) *NotificationRepository {
	return &NotificationRepository{q: db}
}

// WithTx returns a copy of the repository bound to the given transaction
func (r *NotificationRepository) WithTx(tx *sqlx.Tx) *NotificationRepository {
	return &NotificationRepository{q: tx}
}

// Create creates a notification. Workflow operations call this inside their
// transaction so the inbox entry commits with the state change.
func (r *NotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}

	query := `
		INSERT INTO notifications (id, user_id, kind, title, message, document_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`
	return r.q.QueryRowxContext(ctx, query,
		n.ID, n.UserID, n.Kind, n.Title, n.Message, n.DocumentID,
	).Scan(&n.CreatedAt)
}

// ListForUser lists a user's notifications, newest first
func (r *NotificationRepository) ListForUser(ctx context.Context, userID string, limit int) ([]*domain.Notification, error) {
	if limit <= 0 {
		limit = 50
	}

	var notifications []*domain.Notification
	query := `
		SELECT id, user_id, kind, title, message, document_id, is_read, read_at, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	if err := r.q.SelectContext(ctx, &notifications, query, userID, limit); err != nil {
		return nil, err
	}
	return notifications, nil
}

// UnreadCount counts a user's unread notifications
func (r *NotificationRepository) UnreadCount(ctx context.Context, userID string) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = false`

	if err := r.q.GetContext(ctx, &count, query, userID); err != nil {
		return 0, err
	}
	return count, nil
}

// MarkRead marks one notification read. Scoped to the owner so users cannot
// mark each other's notifications.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID string) error {
	query := `
		UPDATE notifications SET is_read = true, read_at = NOW()
		WHERE id = $1 AND user_id = $2 AND is_read = false
	`
	result, err := r.q.ExecContext(ctx, query, id, userID)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("notification")
	}
	return nil
}

// MarkAllRead marks all of a user's notifications read
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string) error {
	query := `
		UPDATE notifications SET is_read = true, read_at = NOW()
		WHERE user_id = $1 AND is_read = false
	`
	_, err := r.q.ExecContext(ctx, query, userID)
	return err
}
